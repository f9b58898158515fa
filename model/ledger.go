package model

import (
	"encoding/json"
	"fmt"
)

// LedgerEntry is one counterparty's balance in a player's ledger.  Positive
// amounts mean the counterparty owes the ledger's owner.
type LedgerEntry struct {
	Counterparty string
	Amount       int64
}

// Ledger maps counterparty IDs to signed amounts, remembering the order in
// which counterparties were first seen.  The zero value is an empty ledger.
type Ledger struct {
	order   []string
	amounts map[string]int64
}

// Get returns the amount the counterparty owes, or zero if there's no entry.
func (l *Ledger) Get(counterparty string) int64 {
	if l == nil || l.amounts == nil {
		return 0
	}
	return l.amounts[counterparty]
}

// Has reports whether the counterparty has an entry, even a zero one.
func (l *Ledger) Has(counterparty string) bool {
	if l == nil || l.amounts == nil {
		return false
	}
	_, ok := l.amounts[counterparty]
	return ok
}

func (l *Ledger) Set(counterparty string, amount int64) {
	if l.amounts == nil {
		l.amounts = map[string]int64{}
	}
	if _, ok := l.amounts[counterparty]; !ok {
		l.order = append(l.order, counterparty)
	}
	l.amounts[counterparty] = amount
}

func (l *Ledger) Add(counterparty string, delta int64) {
	l.Set(counterparty, l.Get(counterparty)+delta)
}

// Counterparties returns a copy of the keys in insertion order.
func (l *Ledger) Counterparties() []string {
	if l == nil {
		return nil
	}
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

func (l *Ledger) Entries() []LedgerEntry {
	if l == nil {
		return nil
	}
	out := make([]LedgerEntry, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, LedgerEntry{Counterparty: id, Amount: l.amounts[id]})
	}
	return out
}

func (l *Ledger) Len() int {
	if l == nil {
		return 0
	}
	return len(l.order)
}

// Remove drops the counterparty's entry entirely.
func (l *Ledger) Remove(counterparty string) {
	if !l.Has(counterparty) {
		return
	}
	delete(l.amounts, counterparty)
	for i, id := range l.order {
		if id == counterparty {
			l.order = append(l.order[:i:i], l.order[i+1:]...)
			break
		}
	}
}

func (l *Ledger) Clear() {
	l.order = nil
	l.amounts = nil
}

func (l *Ledger) Clone() Ledger {
	c := Ledger{}
	for _, e := range l.Entries() {
		c.Set(e.Counterparty, e.Amount)
	}
	return c
}

// MarshalJSON writes the ledger as an ordered array so that the order
// survives a trip through the database.
func (l Ledger) MarshalJSON() ([]byte, error) {
	entries := l.Entries()
	if entries == nil {
		entries = []LedgerEntry{}
	}
	return json.Marshal(entries)
}

func (l *Ledger) UnmarshalJSON(b []byte) error {
	var entries []LedgerEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return err
	}
	l.Clear()
	for _, e := range entries {
		if l.Has(e.Counterparty) {
			return fmt.Errorf("duplicate ledger entry for %q", e.Counterparty)
		}
		l.Set(e.Counterparty, e.Amount)
	}
	return nil
}
