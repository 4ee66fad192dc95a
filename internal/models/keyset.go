package models

import "slices"

// KeySet is a set of seed addresses read from a dataset.
// Duplicates are collapsed by full value, so the same postal code may appear
// more than once with a different locality or region.
type KeySet map[Address]struct{}

// NewKeySet builds a KeySet from the given addresses.
func NewKeySet(addresses ...Address) KeySet {
	set := make(KeySet, len(addresses))
	for _, addr := range addresses {
		set.Add(addr)
	}

	return set
}

// Add inserts the address and reports whether it was not already present.
func (ks KeySet) Add(addr Address) bool {
	if _, exists := ks[addr]; exists {
		return false
	}
	ks[addr] = struct{}{}

	return true
}

// Len returns the number of distinct addresses in the set.
func (ks KeySet) Len() int {
	return len(ks)
}

// PostalCodes returns the distinct postal codes of the set in ascending order.
func (ks KeySet) PostalCodes() []string {
	seen := make(map[string]struct{}, len(ks))
	codes := make([]string, 0, len(ks))
	for addr := range ks {
		if _, ok := seen[addr.PostalCode]; ok {
			continue
		}
		seen[addr.PostalCode] = struct{}{}
		codes = append(codes, addr.PostalCode)
	}
	slices.Sort(codes)

	return codes
}
