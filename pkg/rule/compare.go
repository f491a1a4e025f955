/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: compare.go
Description: Rule orderings. The CBA ordering ranks by confidence, support, antecedent
length and identity; the preserve ordering keeps the seed order. Both put rules with
an empty antecedent last.
*/

package rule

import (
	"cmp"
	"fmt"
	"slices"
)

// Comparator orders two rules, negative when a ranks before b
type Comparator func(a, b *Rule) int

// CBA ranks by confidence desc, support desc, antecedent length asc, id asc, genID asc
func CBA(a, b *Rule) int {
	if c := defaultLast(a, b); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Confidence(), a.Confidence()); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Support(), a.Support()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.antecedent.Len(), b.antecedent.Len()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.id, b.id); c != 0 {
		return c
	}
	return cmp.Compare(a.genID, b.genID)
}

// Preserve ranks by seed id, keeping the order the rules were mined in
func Preserve(a, b *Rule) int {
	if c := defaultLast(a, b); c != 0 {
		return c
	}
	if c := cmp.Compare(a.id, b.id); c != 0 {
		return c
	}
	return cmp.Compare(a.genID, b.genID)
}

func defaultLast(a, b *Rule) int {
	switch {
	case a.IsDefault() && !b.IsDefault():
		return 1
	case !a.IsDefault() && b.IsDefault():
		return -1
	}
	return 0
}

// Sort orders rules in place
func Sort(rules []*Rule, c Comparator) {
	slices.SortStableFunc(rules, c)
}

// ComparatorByName resolves a configured ordering name
func ComparatorByName(name string) (Comparator, error) {
	switch name {
	case "", "cba":
		return CBA, nil
	case "preserve":
		return Preserve, nil
	default:
		return nil, fmt.Errorf("unknown rule order: %q", name)
	}
}
