package settle

import "errors"

// Settlement errors.  They're returned wrapped, so compare with errors.Is.
var (
	// ErrInvalidState means the round is in the wrong phase, e.g. still running.
	ErrInvalidState = errors.New("invalid state")
	// ErrIncompleteRound means some player has no rank.
	ErrIncompleteRound = errors.New("incomplete round")
	// ErrValidation means the inputs are malformed: bad payout rules, a
	// non-positive bet, and so on.
	ErrValidation = errors.New("validation failed")
	// ErrDistributionExhausted means a loser still owed money and nobody was
	// left to receive it.  This can't happen with conserved inputs.
	ErrDistributionExhausted = errors.New("distribution exhausted")
)
