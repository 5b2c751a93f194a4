package types

import "strings"

// DeliveryAddress is a flat record; only presence is checked.
type DeliveryAddress struct {
	Street    string `json:"street"`
	Apartment string `json:"apartment,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
}

// AddressPatch carries the fields to overwrite; nil fields keep their value.
type AddressPatch struct {
	Street    *string `json:"street,omitempty"`
	Apartment *string `json:"apartment,omitempty"`
	City      *string `json:"city,omitempty"`
	State     *string `json:"state,omitempty"`
	Zip       *string `json:"zip,omitempty"`
}

// Merge applies the patch and returns the updated copy.
func (a DeliveryAddress) Merge(p AddressPatch) DeliveryAddress {
	if p.Street != nil {
		a.Street = strings.TrimSpace(*p.Street)
	}
	if p.Apartment != nil {
		a.Apartment = strings.TrimSpace(*p.Apartment)
	}
	if p.City != nil {
		a.City = strings.TrimSpace(*p.City)
	}
	if p.State != nil {
		a.State = strings.TrimSpace(*p.State)
	}
	if p.Zip != nil {
		a.Zip = strings.TrimSpace(*p.Zip)
	}
	return a
}

// Missing lists the required fields that are blank. Apartment is optional.
func (a DeliveryAddress) Missing() []string {
	var missing []string
	if strings.TrimSpace(a.Street) == "" {
		missing = append(missing, "street")
	}
	if strings.TrimSpace(a.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(a.State) == "" {
		missing = append(missing, "state")
	}
	if strings.TrimSpace(a.Zip) == "" {
		missing = append(missing, "zip")
	}
	return missing
}

func (a DeliveryAddress) IsComplete() bool {
	return len(a.Missing()) == 0
}

// Label renders the address on one line.
func (a DeliveryAddress) Label() string {
	street := a.Street
	if a.Apartment != "" {
		street += ", " + a.Apartment
	}
	parts := []string{}
	for _, part := range []string{street, a.City, strings.TrimSpace(a.State + " " + a.Zip)} {
		if strings.TrimSpace(part) != "" {
			parts = append(parts, strings.TrimSpace(part))
		}
	}
	return strings.Join(parts, ", ")
}
