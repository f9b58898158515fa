package he

import (
	"encoding/json"
	"errors"
	"fmt"
	"log" // all kids love log
	"net/http"
)

// HTTPError attaches a response code to an error on its way out to a client.
type HTTPError struct {
	code int
	err  error
}

func HTTPCodedErrorf(code int, f string, more ...any) *HTTPError {
	return &HTTPError{
		code: code,
		err:  fmt.Errorf(f, more...),
	}
}

func New(code int, err error) *HTTPError {
	return &HTTPError{
		code: code,
		err:  err,
	}
}

func (e *HTTPError) Error() string {
	return e.err.Error()
}

func (e *HTTPError) Unwrap() error {
	return e.err
}

func (e *HTTPError) Code() int {
	return e.code
}

// CodeOf returns the code of the first HTTPError in err's chain, or 500.
func CodeOf(err error) int {
	var herr *HTTPError
	if errors.As(err, &herr) {
		return herr.code
	}
	return http.StatusInternalServerError
}

// SendErrorToHTTPClient sends err as a JSON error body.  If it happens to carry
// an HTTPError we can include a better response code; otherwise, client gets
// 500 and it's on us.
func SendErrorToHTTPClient(w http.ResponseWriter, while string, err error) {
	code := CodeOf(err)
	txt := fmt.Sprintf("can't %s: %v", while, err)
	if code >= 500 {
		log.Printf("%d: %s", code, txt)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": txt}); err != nil {
		log.Printf("error writing error to client: %v", err)
	}
}
