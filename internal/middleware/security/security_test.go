package security

import (
	"bytes"
	"crypto/tls"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aura/internal/log"
)

var noContent = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(noContent)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/layout", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'none'")
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"), "no HSTS over plain HTTP")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "max-age=31536000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))
}

func TestHeadersMiddlewareSkipsEmptyValues(t *testing.T) {
	h := NewHeadersMiddleware(HeadersConfig{FrameOptions: "SAMEORIGIN"}).Middleware(noContent)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
	_, set := rec.Header()["Content-Security-Policy"]
	assert.False(t, set)
}

func TestExtractClientIP(t *testing.T) {
	d := NewDetector()
	for _, cidr := range []string{"127.0.0.0/8", "10.0.0.0/8", "192.168.0.0/16"} {
		require.NoError(t, d.AddTrustedProxy(cidr))
	}

	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{name: "direct", remote: "203.0.113.7:5555", want: "203.0.113.7"},
		{
			name:    "untrusted peer ignores forwarding",
			remote:  "203.0.113.7:5555",
			headers: map[string]string{"X-Forwarded-For": "198.51.100.1"},
			want:    "203.0.113.7",
		},
		{
			name:    "client-written hops are ignored",
			remote:  "10.0.0.2:80",
			headers: map[string]string{"X-Forwarded-For": "198.51.100.1, 203.0.113.50"},
			want:    "203.0.113.50",
		},
		{
			name:    "trusted hops are skipped",
			remote:  "10.0.0.2:80",
			headers: map[string]string{"X-Forwarded-For": "1.2.3.4, 203.0.113.50, 10.0.0.9"},
			want:    "203.0.113.50",
		},
		{
			name:    "only trusted hops",
			remote:  "10.0.0.2:80",
			headers: map[string]string{"X-Forwarded-For": "10.0.0.8, 10.0.0.9"},
			want:    "10.0.0.8",
		},
		{
			name:    "garbage stops the walk",
			remote:  "10.0.0.2:80",
			headers: map[string]string{"X-Forwarded-For": "198.51.100.1, junk, 10.0.0.9"},
			want:    "10.0.0.9",
		},
		{
			name:    "trusted proxy real ip",
			remote:  "127.0.0.1:80",
			headers: map[string]string{"X-Real-IP": "198.51.100.2"},
			want:    "198.51.100.2",
		},
		{
			name:    "garbage forwarded value",
			remote:  "192.168.1.1:80",
			headers: map[string]string{"X-Forwarded-For": "not-an-ip"},
			want:    "192.168.1.1",
		},
		{name: "no port", remote: "198.51.100.3", want: "198.51.100.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, d.ExtractClientIP(r))
		})
	}
}

func TestNoProxyTrustedByDefault(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.2:80"
	r.Header.Set("X-Forwarded-For", "198.51.100.1")
	r.Header.Set("X-Real-IP", "198.51.100.2")
	assert.Equal(t, "10.0.0.2", NewDetector().ExtractClientIP(r))
}

func TestAddTrustedProxy(t *testing.T) {
	d := NewDetector()
	require.Error(t, d.AddTrustedProxy("nope"))
	require.NoError(t, d.AddTrustedProxy("203.0.113.0/24"))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.7:1"
	r.Header.Set("X-Forwarded-For", "198.51.100.1")
	assert.Equal(t, "198.51.100.1", d.ExtractClientIP(r))
}

func TestSuspicious(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		agent  string
		reason string
	}{
		{name: "clean", method: http.MethodGet, target: "/api/v1/dashboard?from=2024-01-01"},
		{name: "traversal", method: http.MethodGet, target: "/static/../../etc/passwd", reason: "pattern"},
		{name: "dotenv", method: http.MethodGet, target: "/.env", reason: "pattern"},
		{name: "sql in query", method: http.MethodGet, target: "/api/v1/transactions?q=1%20union%20select", reason: "pattern"},
		{name: "scanner", method: http.MethodGet, target: "/", agent: "sqlmap/1.7", reason: "user_agent"},
		{name: "trace", method: "TRACE", target: "/", reason: "method"},
		{name: "long url", method: http.MethodGet, target: "/" + strings.Repeat("a", maxURLLength), reason: "url_length"},
	}

	d := NewDetector()
	flagged := 0
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.agent != "" {
				r.Header.Set("User-Agent", tt.agent)
			}
			reason, ok := d.Suspicious(r)
			assert.Equal(t, tt.reason != "", ok)
			assert.Equal(t, tt.reason, reason)
		})
		if tt.reason != "" {
			flagged++
		}
	}
	assert.EqualValues(t, flagged, d.SuspiciousCount())
}

func TestDetectorMiddlewareLogsButServes(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Handler: slog.NewTextHandler(&buf, nil)})
	h := NewDetector().Middleware(logger)(noContent)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/wp-admin", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, buf.String(), "Suspicious request")
	assert.Contains(t, buf.String(), "reason=pattern")
}
