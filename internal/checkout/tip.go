package checkout

import (
	"fmt"

	pkgerrors "github.com/angelmondragon/ordering-backend/pkg/errors"
	"github.com/angelmondragon/ordering-backend/pkg/money"
)

// TipSelection is either a preset percentage of the subtotal or a custom
// amount. Custom wins when both are set. With neither set the default preset
// applies.
type TipSelection struct {
	Percent     *int   `json:"tipPercent,omitempty"`
	CustomCents *int64 `json:"tipCents,omitempty"`
}

// Tip resolves the selection against subtotal.
func (s Settings) Tip(subtotal int64, sel TipSelection) (int64, error) {
	if sel.CustomCents != nil {
		if *sel.CustomCents < 0 {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "custom tip must be non-negative")
		}
		return *sel.CustomCents, nil
	}
	percent := s.DefaultTipPercent
	if sel.Percent != nil {
		percent = *sel.Percent
	}
	if percent == 0 {
		return 0, nil
	}
	if !s.isPreset(percent) {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("tip percent %d is not offered", percent)).
			WithDetails(map[string]any{"presets": s.TipPresets})
	}
	return money.Percent(subtotal, percent), nil
}

// AppliedPercent reports the preset in effect, nil for a custom amount.
func (s Settings) AppliedPercent(sel TipSelection) *int {
	if sel.CustomCents != nil {
		return nil
	}
	percent := s.DefaultTipPercent
	if sel.Percent != nil {
		percent = *sel.Percent
	}
	return &percent
}

func (s Settings) isPreset(percent int) bool {
	if percent == s.DefaultTipPercent {
		return true
	}
	for _, preset := range s.TipPresets {
		if preset == percent {
			return true
		}
	}
	return false
}
