package models

import "time"

// PairKeySeparator joins the two sorted product IDs of a pair key
const PairKeySeparator = "-"

// ItemPair is an unordered pair of product IDs. A is always <= B.
type ItemPair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// NewItemPair canonicalizes two product IDs into a pair
func NewItemPair(x, y string) ItemPair {
	if y < x {
		x, y = y, x
	}
	return ItemPair{A: x, B: y}
}

// Key returns the sorted-join key, e.g. "P1-P2"
func (p ItemPair) Key() string {
	return p.A + PairKeySeparator + p.B
}

// Contains reports whether id is a member of the pair
func (p ItemPair) Contains(id string) bool {
	return p.A == id || p.B == id
}

// Other returns the member of the pair that is not id
func (p ItemPair) Other(id string) (string, bool) {
	switch id {
	case p.A:
		return p.B, true
	case p.B:
		return p.A, true
	default:
		return "", false
	}
}

// PairFrequency is the number of baskets containing both products of a pair
type PairFrequency struct {
	Pair  ItemPair `json:"pair"`
	Key   string   `json:"key"`
	Count int      `json:"count"`
}

// FrequencyTable holds the most frequent co-purchased pairs, count descending
type FrequencyTable struct {
	Pairs           []PairFrequency `json:"pairs"`
	ComputedAt      time.Time       `json:"computed_at"`
	OrdersScanned   int             `json:"orders_scanned"`
	PairOccurrences int             `json:"pair_occurrences"`
}

// Related returns the partners of productID in table order
func (t FrequencyTable) Related(productID string) []string {
	var related []string
	for _, pf := range t.Pairs {
		if other, ok := pf.Pair.Other(productID); ok {
			related = append(related, other)
		}
	}
	return related
}
