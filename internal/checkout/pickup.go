package checkout

import (
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/ordering-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/ordering-backend/pkg/errors"
)

// PickupSlot is one selectable pickup time.
type PickupSlot struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// PickupOptions lists what the shopper may pick: ASAP while the kitchen is
// open, plus the remaining slots of the day.
type PickupOptions struct {
	ASAPAvailable bool         `json:"asapAvailable"`
	ASAPLabel     string       `json:"asapLabel,omitempty"`
	Slots         []PickupSlot `json:"slots"`
}

// PickupSlots returns every slot from now plus prep time, rounded up to the
// slot interval, until closing in the restaurant's time zone.
func (s Settings) PickupSlots(now time.Time) PickupOptions {
	loc := s.location()
	local := now.In(loc)
	opening := time.Date(local.Year(), local.Month(), local.Day(), s.OpenHour, 0, 0, 0, loc)
	closing := time.Date(local.Year(), local.Month(), local.Day(), s.CloseHour, 0, 0, 0, loc)

	opts := PickupOptions{Slots: []PickupSlot{}}
	earliest := local.Add(s.PrepTime)
	if !local.Before(opening) && earliest.Before(closing) {
		opts.ASAPAvailable = true
		opts.ASAPLabel = "ASAP (about " + formatMinutes(s.PrepTime) + ")"
	}

	start := earliest
	if start.Before(opening) {
		start = opening
	}
	start = roundUp(start, opening, s.SlotInterval)
	for slot := start; slot.Before(closing); slot = slot.Add(s.SlotInterval) {
		opts.Slots = append(opts.Slots, PickupSlot{
			Value: slot.Format(time.RFC3339),
			Label: slot.Format("3:04 PM"),
		})
	}
	return opts
}

// resolvePickup validates the requested pickup time and returns the value
// forwarded upstream plus its display label.
func (s Settings) resolvePickup(now time.Time, requested string) (string, string, error) {
	raw := strings.TrimSpace(requested)
	options := s.PickupSlots(now)
	if raw == "" || strings.EqualFold(raw, orders.PickupASAP) {
		if !options.ASAPAvailable {
			return "", "", pkgerrors.New(pkgerrors.CodeValidation, "the kitchen is closed; choose a pickup time")
		}
		return orders.PickupASAP, options.ASAPLabel, nil
	}
	for _, slot := range options.Slots {
		if slot.Value == raw {
			return slot.Value, slot.Label, nil
		}
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err == nil {
		for _, slot := range options.Slots {
			candidate, _ := time.Parse(time.RFC3339, slot.Value)
			if candidate.Equal(parsed) {
				return slot.Value, slot.Label, nil
			}
		}
	}
	return "", "", pkgerrors.New(pkgerrors.CodeValidation, "pickup time is not available").
		WithDetails(map[string]any{"pickupTime": raw})
}

// roundUp moves t forward to the next interval boundary counted from anchor.
func roundUp(t, anchor time.Time, interval time.Duration) time.Time {
	if interval <= 0 || !t.After(anchor) {
		return t
	}
	offset := t.Sub(anchor)
	steps := offset / interval
	if offset%interval != 0 {
		steps++
	}
	return anchor.Add(steps * interval)
}

func formatMinutes(d time.Duration) string {
	minutes := int(d.Round(time.Minute) / time.Minute)
	if minutes == 1 {
		return "1 min"
	}
	return strconv.Itoa(minutes) + " min"
}

func (s Settings) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}
