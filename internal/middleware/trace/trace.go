package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"aura/internal/log"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

const maxIncomingIDLength = 64

type requestIDKey struct{}

// Tracer assigns request ids and logs request start and completion.
type Tracer struct {
	logger    *log.Logger
	events    *log.EventLogger
	extractIP func(*http.Request) string

	total  atomic.Int64
	failed atomic.Int64
}

// Stats counts traced requests. Failed means a 5xx response.
type Stats struct {
	Requests int64 `json:"requests"`
	Failed   int64 `json:"failed"`
}

func New(logger *log.Logger, extractIP func(*http.Request) string) *Tracer {
	logger = logger.WithComponent(log.ComponentHTTP)
	return &Tracer{
		logger:    logger,
		events:    log.NewEventLogger(logger),
		extractIP: extractIP,
	}
}

// Middleware tags the request with an id, stores a request-scoped logger in
// the context and logs the outcome.
func (t *Tracer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(RequestIDHeader)
		if !validID(id) {
			id = GenerateRequestID()
		}
		w.Header().Set(RequestIDHeader, id)

		clientIP := ""
		if t.extractIP != nil {
			clientIP = t.extractIP(r)
		}

		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		ctx = log.NewContext(ctx, t.logger.With(log.FieldRequestID, id))
		r = r.WithContext(ctx)

		t.events.RequestStarted(ctx, r, clientIP)
		t.total.Add(1)

		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		if rw.status >= 500 {
			t.failed.Add(1)
		}
		t.events.RequestFinished(ctx, r, rw.status, time.Since(start).Milliseconds(), clientIP)
	})
}

func (t *Tracer) Stats() Stats {
	return Stats{Requests: t.total.Load(), Failed: t.failed.Load()}
}

// validID accepts caller supplied ids made of printable ASCII only, so they
// are safe to echo and log.
func validID(id string) bool {
	if id == "" || len(id) > maxIncomingIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// GenerateRequestID returns a random id such as "req_1f2e3d4c5b6a7988".
func GenerateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(b)
}

// RequestID returns the id assigned by Middleware, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
