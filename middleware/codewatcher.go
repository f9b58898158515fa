package middleware

import (
	"net/http"
)

var _ http.ResponseWriter = &codeWatcher{}

// codeWatcher is a http.ResponseWriter that captures the status code for logging.
type codeWatcher struct {
	code *int
	w    http.ResponseWriter
}

func (cw *codeWatcher) Header() http.Header {
	return cw.w.Header()
}

func (cw *codeWatcher) Write(b []byte) (int, error) {
	if cw.code == nil {
		ok := http.StatusOK
		cw.code = &ok
	}
	return cw.w.Write(b)
}

func (cw *codeWatcher) WriteHeader(statusCode int) {
	if cw.code == nil {
		cw.code = &statusCode
	}
	cw.w.WriteHeader(statusCode)
}

// Flush lets long-polling handlers push a response through us.
func (cw *codeWatcher) Flush() {
	if f, ok := cw.w.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController find the underlying writer.
func (cw *codeWatcher) Unwrap() http.ResponseWriter {
	return cw.w
}

func (cw *codeWatcher) Code() int {
	if cw.code != nil {
		return *cw.code
	} else {
		return 200
	}
}
