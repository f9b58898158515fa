package middleware

import (
	"log"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type Clock interface {
	Now() time.Time
}

// RequestLogger is a middleware that writes an access log line per request.
// It picks up chi's request ID if chimw.RequestID ran first.
type RequestLogger struct {
	next  http.Handler
	clock Clock
}

func NewRequestLogger(next http.Handler, clock Clock) *RequestLogger {
	return &RequestLogger{next: next, clock: clock}
}

// Logging adapts RequestLogger to chi's Use.
func Logging(clock Clock) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return NewRequestLogger(next, clock)
	}
}

func remoteAddr(r *http.Request) string {
	if r.Header.Get("X-Forwarded-For") != "" {
		return r.Header.Get("X-Forwarded-For")
	}
	return r.RemoteAddr
}

func (rl *RequestLogger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := rl.clock.Now()
	ww := &codeWatcher{w: w}
	rl.next.ServeHTTP(ww, r)
	code := ww.Code()
	duration := rl.clock.Now().Sub(start)
	reqID := chimw.GetReqID(r.Context())
	if reqID == "" {
		reqID = "-"
	}
	log.Printf("[access log] %s %d %v %s %v (%v)", reqID, code, remoteAddr(r), r.Method, r.URL.Path, duration)
}
