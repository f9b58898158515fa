package he

import (
	"errors"
	"net/http"

	"github.com/ts4z/deuces/model"
	"github.com/ts4z/deuces/settle"
)

var codes = []struct {
	sentinel error
	code     int
}{
	{settle.ErrValidation, http.StatusBadRequest},
	{model.ErrNoSuchGame, http.StatusNotFound},
	{model.ErrNoSuchPlayer, http.StatusNotFound},
	{settle.ErrInvalidState, http.StatusConflict},
	{settle.ErrIncompleteRound, http.StatusConflict},
	{settle.ErrDistributionExhausted, http.StatusInternalServerError},
}

// Classify attaches a response code to a settlement or model error.  Errors
// that already carry a code, and errors we don't recognize, are returned
// as they are.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var herr *HTTPError
	if errors.As(err, &herr) {
		return err
	}
	for _, c := range codes {
		if errors.Is(err, c.sentinel) {
			return New(c.code, err)
		}
	}
	return err
}
