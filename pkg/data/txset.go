/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: txset.go
Description: Transaction id sets used for support computation. Attribute values
index the transactions holding them through these sets, and rule quality is
derived from their unions and intersections.
*/

package data

import "sort"

// TxSet is a set of internal transaction ids
type TxSet map[int]struct{}

// NewTxSet creates a set holding the given ids
func NewTxSet(ids ...int) TxSet {
	s := make(TxSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add inserts an id
func (s TxSet) Add(id int) {
	s[id] = struct{}{}
}

// Remove deletes an id
func (s TxSet) Remove(id int) {
	delete(s, id)
}

// Contains reports whether the id is present
func (s TxSet) Contains(id int) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of ids
func (s TxSet) Len() int {
	return len(s)
}

// Clone returns an independent copy
func (s TxSet) Clone() TxSet {
	out := make(TxSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Union returns a new set holding ids from both sets
func (s TxSet) Union(other TxSet) TxSet {
	out := make(TxSet, len(s)+len(other))
	for id := range s {
		out[id] = struct{}{}
	}
	for id := range other {
		out[id] = struct{}{}
	}
	return out
}

// Intersect returns a new set holding ids present in both sets
func (s TxSet) Intersect(other TxSet) TxSet {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(TxSet, len(small))
	for id := range small {
		if _, ok := large[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

// IntersectionSize counts ids present in both sets without allocating
func (s TxSet) IntersectionSize(other TxSet) int {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	n := 0
	for id := range small {
		if _, ok := large[id]; ok {
			n++
		}
	}
	return n
}

// Intersects reports whether the sets share at least one id
func (s TxSet) Intersects(other TxSet) bool {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	for id := range small {
		if _, ok := large[id]; ok {
			return true
		}
	}
	return false
}

// IDs returns the ids in ascending order
func (s TxSet) IDs() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
