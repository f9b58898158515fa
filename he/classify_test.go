package he

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ts4z/deuces/model"
	"github.com/ts4z/deuces/settle"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fmt.Errorf("%w: bet 0", settle.ErrValidation), 400},
		{"no game", model.ErrNoSuchGame, 404},
		{"no player", fmt.Errorf("%w: x", model.ErrNoSuchPlayer), 404},
		{"running", fmt.Errorf("%w: running", settle.ErrInvalidState), 409},
		{"unranked", fmt.Errorf("%w: p2", settle.ErrIncompleteRound), 409},
		{"exhausted", settle.ErrDistributionExhausted, 500},
		{"already coded", New(503, settle.ErrValidation), 503},
		{"unknown", errBase, 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if CodeOf(got) != tt.want {
				t.Errorf("got code %d, want %d", CodeOf(got), tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("classified error lost the original")
			}
		})
	}
	if Classify(nil) != nil {
		t.Errorf("Classify(nil) should be nil")
	}
}
