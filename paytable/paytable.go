// Package paytable provides data models and stateless functions for
// representing payout tables.
//
// A payout table maps a player count to a list of percentages of the stake.
// 100 means a player gets their bet back; 0 means they lose it.  For a table
// to be fair, the percentages for N players must sum to exactly 100*N.
package paytable

import (
	"errors"
	"fmt"
	"sort"
)

// Row defines the payout percentages for a range of player counts.
type Row struct {
	MinPlayers  int   `yaml:"min_players"` // Minimum number of players (inclusive)
	MaxPlayers  int   `yaml:"max_players"` // Maximum number of players (inclusive)
	Percentages []int `yaml:"percentages"` // index 0 = rank 1
}

// Paytable is a collection of rows covering different player counts.
type Paytable struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
	Rows []Row  `yaml:"rows"`
}

// PaytableSlug is a lightweight representation of a payout table for lists.
type PaytableSlug struct {
	Name string
	ID   int64
}

// Rules maps rank to percentage for one player count.  Ranks without a rule
// pay nothing.
type Rules map[int]int

// Percentage returns the percentage for a rank, or 0 if none is defined.
func (r Rules) Percentage(rank int) int {
	return r[rank]
}

// Sum adds up the percentages actually assigned to ranks 1..numPlayers.
func (r Rules) Sum(numPlayers int) int {
	sum := 0
	for rank := 1; rank <= numPlayers; rank++ {
		sum += r[rank]
	}
	return sum
}

// Validate checks that the rules are well formed and pay out exactly what
// numPlayers players put in.
func (r Rules) Validate(numPlayers int) error {
	if numPlayers < 1 {
		return fmt.Errorf("can't validate payouts for %d players", numPlayers)
	}
	ranks := make([]int, 0, len(r))
	for rank := range r {
		ranks = append(ranks, rank)
	}
	sort.Ints(ranks)
	for _, rank := range ranks {
		if rank < 1 {
			return fmt.Errorf("rank %d is not positive", rank)
		}
		if r[rank] < 0 {
			return fmt.Errorf("rank %d has negative percentage %d", rank, r[rank])
		}
	}
	if sum, want := r.Sum(numPlayers), 100*numPlayers; sum != want {
		return fmt.Errorf("payouts for %d players sum to %d, want %d", numPlayers, sum, want)
	}
	return nil
}

// Rules returns the rank->percentage rules for the number of players.
func (pt *Paytable) Rules(numPlayers int) (Rules, error) {
	percentages := pt.findRow(numPlayers)
	if len(percentages) == 0 {
		return nil, fmt.Errorf("no payout row in %q for %d players", pt.Name, numPlayers)
	}
	rules := make(Rules, len(percentages))
	for i, p := range percentages {
		rules[i+1] = p
	}
	return rules, nil
}

// Check validates every row against every player count it claims to cover.
func (pt *Paytable) Check() error {
	if len(pt.Rows) == 0 {
		return fmt.Errorf("paytable %q has no rows", pt.Name)
	}
	var errs []error
	for i, row := range pt.Rows {
		if row.MinPlayers < 1 || row.MaxPlayers < row.MinPlayers {
			errs = append(errs, fmt.Errorf("row %d: bad player range [%d,%d]", i, row.MinPlayers, row.MaxPlayers))
			continue
		}
		for n := row.MinPlayers; n <= row.MaxPlayers; n++ {
			rules, err := pt.Rules(n)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if err := rules.Validate(n); err != nil {
				errs = append(errs, fmt.Errorf("row %d: %w", i, err))
			}
		}
	}
	return errors.Join(errs...)
}

// findRow finds the paytable row for the number of players, or nil if there isn't one.
func (pt *Paytable) findRow(numPlayers int) []int {
	for _, row := range pt.Rows {
		if numPlayers >= row.MinPlayers && numPlayers <= row.MaxPlayers {
			return row.Percentages
		}
	}
	return nil
}

func (pt *Paytable) Slug() *PaytableSlug {
	return &PaytableSlug{Name: pt.Name, ID: pt.ID}
}

func (pt *Paytable) Clone() *Paytable {
	clone := &Paytable{
		ID:   pt.ID,
		Name: pt.Name,
		Rows: make([]Row, len(pt.Rows)),
	}
	for i, row := range pt.Rows {
		clone.Rows[i] = row
		clone.Rows[i].Percentages = make([]int, len(row.Percentages))
		copy(clone.Rows[i].Percentages, row.Percentages)
	}
	return clone
}
