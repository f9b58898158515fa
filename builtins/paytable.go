package builtins

import (
	"github.com/ts4z/deuces/paytable"
)

const (
	StandardPaytableID       = 1
	WinnerTakesAllPaytableID = 2
	MaxBuiltinPlayers        = 10
)

// standardPaytable pays the winner double and refunds second place once
// there are enough players to afford it.
var standardPaytable = &paytable.Paytable{
	ID:   StandardPaytableID,
	Name: "Standard Deuces",
	Rows: []paytable.Row{
		{
			MinPlayers:  2,
			MaxPlayers:  2,
			Percentages: []int{200, 0},
		},
		{
			MinPlayers:  3,
			MaxPlayers:  3,
			Percentages: []int{200, 100, 0},
		},
		{
			MinPlayers:  4,
			MaxPlayers:  4,
			Percentages: []int{300, 100, 0, 0},
		},
		{
			MinPlayers:  5,
			MaxPlayers:  5,
			Percentages: []int{300, 200, 0, 0, 0},
		},
		{
			MinPlayers:  6,
			MaxPlayers:  6,
			Percentages: []int{400, 200, 0, 0, 0, 0},
		},
		{
			MinPlayers:  7,
			MaxPlayers:  7,
			Percentages: []int{400, 200, 100, 0, 0, 0, 0},
		},
		{
			MinPlayers:  8,
			MaxPlayers:  8,
			Percentages: []int{500, 200, 100, 0, 0, 0, 0, 0},
		},
	},
}

func winnerTakesAll() *paytable.Paytable {
	pt := &paytable.Paytable{
		ID:   WinnerTakesAllPaytableID,
		Name: "Winner Takes All",
	}
	for n := 2; n <= MaxBuiltinPlayers; n++ {
		percentages := make([]int, n)
		percentages[0] = 100 * n
		pt.Rows = append(pt.Rows, paytable.Row{
			MinPlayers:  n,
			MaxPlayers:  n,
			Percentages: percentages,
		})
	}
	return pt
}

func StandardPaytable() *paytable.Paytable {
	return standardPaytable.Clone()
}

func WinnerTakesAllPaytable() *paytable.Paytable {
	return winnerTakesAll()
}

// Paytables returns fresh copies of every built-in table.
func Paytables() []*paytable.Paytable {
	return []*paytable.Paytable{
		StandardPaytable(),
		WinnerTakesAllPaytable(),
	}
}
