package promo

// mapCodeSet implements CodeSet using a map for O(1) lookups.
type mapCodeSet struct {
	codes map[string]float64
}

// NewMapCodeSet creates a new map-based promo code set.
func NewMapCodeSet(capacity int) CodeSet {
	return &mapCodeSet{
		codes: make(map[string]float64, capacity),
	}
}

// Lookup returns the discount for a code and whether it exists.
func (s *mapCodeSet) Lookup(code string) (float64, bool) {
	amount, exists := s.codes[code]
	return amount, exists
}

// Size returns the number of codes in the set.
func (s *mapCodeSet) Size() int {
	return len(s.codes)
}

// Add adds a promo code and its discount amount to the set.
func (s *mapCodeSet) Add(code string, amount float64) {
	s.codes[code] = amount
}
