/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: history.go
Description: Lineage log of a seed rule. Every accepted search or pruning step adds
an entry; derived rules receive a copy so sibling branches never share entries.
*/

package rule

import (
	"fmt"
	"strings"
)

// HistoryEntry is one accepted transformation
type HistoryEntry struct {
	GenID    int    `json:"gen_id" yaml:"gen_id"`
	Step     string `json:"step" yaml:"step"`
	Snapshot string `json:"snapshot" yaml:"snapshot"`
}

// History is the ordered lineage log of a rule
type History struct {
	entries []HistoryEntry
}

// NewHistory creates an empty history
func NewHistory() *History {
	return &History{}
}

// HistoryFrom restores a history from stored entries
func HistoryFrom(entries []HistoryEntry) *History {
	h := &History{entries: make([]HistoryEntry, len(entries))}
	copy(h.entries, entries)
	return h
}

// Add appends an entry for the rule
func (h *History) Add(step string, r *Rule) {
	h.entries = append(h.entries, HistoryEntry{GenID: r.GenID(), Step: step, Snapshot: r.Snapshot()})
}

// Copy returns an independent history
func (h *History) Copy() *History {
	if h == nil {
		return NewHistory()
	}
	out := &History{entries: make([]HistoryEntry, len(h.entries))}
	copy(out.entries, h.entries)
	return out
}

// Entries returns the entries oldest first
func (h *History) Entries() []HistoryEntry {
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of entries
func (h *History) Len() int { return len(h.entries) }

// String renders the lineage as a chain of generation ids
func (h *History) String() string {
	var sb strings.Builder
	sb.WriteString("History:")
	for _, e := range h.entries {
		sb.WriteString(fmt.Sprintf("%s(ERID=%d) -> ", e.Step, e.GenID))
	}
	sb.WriteString("current")
	return sb.String()
}
