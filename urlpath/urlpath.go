package urlpath

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ts4z/deuces/he"
)

// IDPathValue extracts the "id" path variable from the request and parses it.
func IDPathValue(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return -1, he.HTTPCodedErrorf(400, "can't parse id from url path: %v", err)
	}
	if id <= 0 {
		return -1, he.HTTPCodedErrorf(400, "game id %d is not positive", id)
	}
	return id, nil
}

// PlayerPathValue extracts the "player" path variable.
func PlayerPathValue(r *http.Request) (string, error) {
	p := strings.TrimSpace(chi.URLParam(r, "player"))
	if p == "" {
		return "", he.HTTPCodedErrorf(400, "missing player id in url path")
	}
	return p, nil
}
