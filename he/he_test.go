package he

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var errBase = errors.New("base")

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"plain", errBase, 500},
		{"coded", New(404, errBase), 404},
		{"wrapped", fmt.Errorf("outer: %w", HTTPCodedErrorf(409, "busy")), 409},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestUnwrapKeepsSentinel(t *testing.T) {
	if !errors.Is(New(400, fmt.Errorf("x: %w", errBase)), errBase) {
		t.Errorf("errors.Is should see through HTTPError")
	}
}

func TestSendErrorToHTTPClient(t *testing.T) {
	rec := httptest.NewRecorder()
	SendErrorToHTTPClient(rec, "fetch game", New(http.StatusNotFound, errors.New("no such game 3")))

	if rec.Code != http.StatusNotFound {
		t.Errorf("got %d, want 404", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if !strings.Contains(body["error"], "can't fetch game: no such game 3") {
		t.Errorf("unexpected body %q", body["error"])
	}
}
