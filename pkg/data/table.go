/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: table.go
Description: The tabular index. Owns all attributes and transactions, keeps the
live/hidden partition used by staged pruning, and maintains the membership indices
between transactions and attribute values so that support queries stay correct.
*/

package data

import (
	"fmt"
	"sort"
	"strings"
)

// Transaction is one row of the table
type Transaction struct {
	id     int
	values []*AttributeValue // indexed by attribute id
}

// ID returns the internal transaction id
func (t *Transaction) ID() int { return t.id }

// Value returns the value held for the attribute id
func (t *Transaction) Value(attrID int) *AttributeValue {
	if attrID < 0 || attrID >= len(t.values) {
		return nil
	}
	return t.values[attrID]
}

// TableConfig describes the columns of a table
type TableConfig struct {
	Columns  []string        // column names in row order
	Types    []AttributeType // one type per column
	Target   string          // name of the class column
	IDColumn string          // optional name of the external id column
	// Breakpoints registers every loaded value as a breakpoint. Training tables
	// set it; test tables leave it off so that only annotated values are breakpoints.
	Breakpoints bool
}

// Table is the tabular index over attributes and transactions.
// Membership mutations (remove, hide, unhide) must not run concurrently with
// support reads; callers serialize them per phase.
type Table struct {
	attrs  []*Attribute
	byName map[string]*Attribute
	target *Attribute
	idAttr *Attribute

	txs    []*Transaction // arena indexed by transaction id
	live   TxSet
	hidden []int
	inHide TxSet

	valueKind ValueKind
}

// NewTable validates the column layout and creates an empty table
func NewTable(cfg TableConfig) (*Table, error) {
	if len(cfg.Columns) != len(cfg.Types) {
		return nil, fmt.Errorf("%w: %d columns, %d types", ErrTypeCountMismatch, len(cfg.Columns), len(cfg.Types))
	}

	t := &Table{
		byName:    make(map[string]*Attribute, len(cfg.Columns)),
		live:      make(TxSet),
		inHide:    make(TxSet),
		valueKind: KindDataBacked,
	}
	if cfg.Breakpoints {
		t.valueKind = KindDataBackedBreakpoint
	}

	predictors := 0
	for i, name := range cfg.Columns {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("%w: column %d has an empty name", ErrInvalidColumn, i)
		}
		if strings.Contains(name, "=") {
			return nil, fmt.Errorf("%w: %q contains '='", ErrInvalidColumn, name)
		}
		if _, dup := t.byName[name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrInvalidColumn, name)
		}

		role := RolePredictor
		switch name {
		case cfg.Target:
			role = RoleTarget
		case cfg.IDColumn:
			role = RoleID
		default:
			predictors++
		}

		attr := newAttribute(i, name, cfg.Types[i], role)
		t.attrs = append(t.attrs, attr)
		t.byName[name] = attr
		switch role {
		case RoleTarget:
			t.target = attr
		case RoleID:
			t.idAttr = attr
		}
	}

	if t.target == nil {
		return nil, fmt.Errorf("%w: target %q", ErrAttributeNotFound, cfg.Target)
	}
	if cfg.IDColumn != "" {
		if cfg.IDColumn == cfg.Target {
			return nil, fmt.Errorf("%w: id column %q is also the target", ErrInvalidColumn, cfg.IDColumn)
		}
		if t.idAttr == nil {
			return nil, fmt.Errorf("%w: id column %q", ErrAttributeNotFound, cfg.IDColumn)
		}
	}
	if predictors == 0 {
		return nil, ErrNoPredictor
	}

	return t, nil
}

// AddTransaction parses a row and links it into every value index.
// The row is validated completely before anything is registered.
func (t *Table) AddTransaction(row []string) (*Transaction, error) {
	rowNum := len(t.txs)
	if len(row) != len(t.attrs) {
		return nil, &MalformedRowError{
			Row:    rowNum,
			Reason: fmt.Sprintf("expected %d fields, got %d", len(t.attrs), len(row)),
		}
	}
	for i, attr := range t.attrs {
		if attr.typ != Numeric {
			continue
		}
		if _, err := parseNumeric(row[i]); err != nil {
			return nil, &MalformedRowError{Row: rowNum, Column: attr.name, Value: row[i], Reason: "not a number"}
		}
	}

	tx := &Transaction{id: rowNum, values: make([]*AttributeValue, len(t.attrs))}
	for i, attr := range t.attrs {
		v, err := attr.ensureValue(row[i], t.valueKind)
		if err != nil {
			return nil, &MalformedRowError{Row: rowNum, Column: attr.name, Value: row[i], Reason: err.Error()}
		}
		v.tids.Add(tx.id)
		tx.values[i] = v
	}
	t.txs = append(t.txs, tx)
	t.live.Add(tx.id)
	return tx, nil
}

// RemoveTransaction deregisters a live transaction from every value it holds.
// With hide set the transaction is parked in the hidden set for UnhideAll.
func (t *Table) RemoveTransaction(id int, hide bool) bool {
	if !t.live.Contains(id) {
		return false
	}
	tx := t.txs[id]
	for _, v := range tx.values {
		v.tids.Remove(id)
	}
	t.live.Remove(id)
	if hide {
		t.hidden = append(t.hidden, id)
		t.inHide.Add(id)
	}
	return true
}

// RemoveTransactions removes every live transaction of the set, in id order,
// and returns how many were removed
func (t *Table) RemoveTransactions(ids TxSet, hide bool) int {
	removed := 0
	for _, id := range ids.IDs() {
		if t.RemoveTransaction(id, hide) {
			removed++
		}
	}
	return removed
}

// UnhideAll restores every hidden transaction to the live set
func (t *Table) UnhideAll() int {
	for _, id := range t.hidden {
		tx := t.txs[id]
		for _, v := range tx.values {
			v.tids.Add(id)
		}
		t.live.Add(id)
	}
	n := len(t.hidden)
	t.hidden = nil
	t.inHide = make(TxSet)
	return n
}

// IsHidden reports whether a transaction is parked in the hidden set
func (t *Table) IsHidden(id int) bool { return t.inHide.Contains(id) }

// LiveCount returns the number of live transactions
func (t *Table) LiveCount() int { return len(t.live) }

// HiddenCount returns the number of hidden transactions
func (t *Table) HiddenCount() int { return len(t.hidden) }

// LoadedCount returns the number of transactions ever added
func (t *Table) LoadedCount() int { return len(t.txs) }

// Live returns a copy of the live transaction set
func (t *Table) Live() TxSet { return t.live.Clone() }

// Transaction returns the transaction with the given id
func (t *Table) Transaction(id int) *Transaction {
	if id < 0 || id >= len(t.txs) {
		return nil
	}
	return t.txs[id]
}

// LiveTransactions returns the live transactions in id order
func (t *Table) LiveTransactions() []*Transaction {
	ids := t.live.IDs()
	out := make([]*Transaction, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.txs[id])
	}
	return out
}

// Attribute returns the attribute with the given name
func (t *Table) Attribute(name string) (*Attribute, error) {
	attr, ok := t.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrAttributeNotFound, name)
	}
	return attr, nil
}

// AttributeByID returns the attribute with the given ordinal id
func (t *Table) AttributeByID(id int) *Attribute {
	if id < 0 || id >= len(t.attrs) {
		return nil
	}
	return t.attrs[id]
}

// Attributes returns all attributes in column order
func (t *Table) Attributes() []*Attribute {
	out := make([]*Attribute, len(t.attrs))
	copy(out, t.attrs)
	return out
}

// Target returns the class attribute
func (t *Table) Target() *Attribute { return t.target }

// IDAttribute returns the external id attribute, or nil
func (t *Table) IDAttribute() *Attribute { return t.idAttr }

// TargetValue returns the class value of a transaction
func (t *Table) TargetValue(tx *Transaction) *AttributeValue {
	return tx.Value(t.target.id)
}

// ExternalID returns the id column value of a transaction, or ""
func (t *Table) ExternalID(tx *Transaction) string {
	if t.idAttr == nil {
		return ""
	}
	return tx.Value(t.idAttr.id).Raw()
}

// MinSupportForTargetCount returns the relative support threshold that keeps
// roughly n one-item sets: the value supports of every non-target attribute, id
// column included, are sorted ascending and the n-th from the top is the cut.
// Zero is returned when there are at most n values.
func (t *Table) MinSupportForTargetCount(n int) float64 {
	var supports []int
	for _, attr := range t.attrs {
		if attr.role == RoleTarget {
			continue
		}
		for _, v := range attr.Values() {
			supports = append(supports, v.Support())
		}
	}
	if len(supports) <= n || n <= 0 || len(t.txs) == 0 {
		return 0
	}
	sort.Ints(supports)
	return float64(supports[len(supports)-n]) / float64(len(t.txs))
}
