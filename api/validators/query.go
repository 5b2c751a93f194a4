package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/ordering-backend/pkg/errors"
)

// OptionalQueryInt reads key as an int in [min, max]. A missing or blank
// parameter yields nil so callers can tell "not chosen" from zero.
func OptionalQueryInt(r *http.Request, key string, min, max int) (*int, error) {
	value, err := OptionalQueryInt64(r, key, int64(min), int64(max))
	if err != nil || value == nil {
		return nil, err
	}
	n := int(*value)
	return &n, nil
}

// OptionalQueryInt64 is OptionalQueryInt for amounts in cents.
func OptionalQueryInt64(r *http.Request, key string, min, max int64) (*int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, key+" must be a whole number").
			WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, key+" is out of range").
			WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return &value, nil
}
