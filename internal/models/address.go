package models

import "cmp"

// Address represents a postal code resolved to its locality and region.
// It is a comparable value type, so two addresses are equal only when all three fields match.
type Address struct {
	PostalCode string `json:"postalCode"` // PostalCode is the lookup key.
	Locality   string `json:"locality"`   // Locality is the city, town or village name.
	Region     string `json:"region"`     // Region is the state or federal state name.
}

// Compare orders addresses by postal code, then locality, then region.
// It returns -1, 0 or +1 like cmp.Compare.
func (a Address) Compare(other Address) int {
	if c := cmp.Compare(a.PostalCode, other.PostalCode); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Locality, other.Locality); c != 0 {
		return c
	}

	return cmp.Compare(a.Region, other.Region)
}
