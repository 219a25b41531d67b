package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEncKey = "6368616e676520746869732070617373776f726420746f206120736563726574"
	testSigKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, CheckPassword(hash, "correct horse"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong horse"), ErrInvalidCredentials)
	assert.ErrorIs(t, CheckPassword("not-a-hash", "x"), ErrInvalidCredentials)

	_, err = HashPassword("short")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestSealAndOpen(t *testing.T) {
	s, err := NewSealer(testEncKey, testSigKey, time.Hour)
	require.NoError(t, err)

	token, sess, err := s.Seal("user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", sess.UserID)
	assert.Equal(t, 1, strings.Count(token, "."))

	got, err := s.Open(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
	assert.True(t, got.Expires.Equal(sess.Expires))
}

func TestOpenRejectsTampering(t *testing.T) {
	s, err := NewSealer(testEncKey, testSigKey, time.Hour)
	require.NoError(t, err)
	token, _, err := s.Seal("user-1")
	require.NoError(t, err)

	other, err := NewSealer("", "", time.Hour)
	require.NoError(t, err)

	cipher, mac, _ := strings.Cut(token, ".")
	tests := map[string]string{
		"empty":         "",
		"no separator":  cipher,
		"bad base64":    "!!!." + mac,
		"swapped parts": mac + "." + cipher,
		"flipped byte":  flip(cipher) + "." + mac,
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := s.Open(tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	_, err = other.Open(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "different keys")
}

func flip(s string) string {
	b := []byte(s)
	if b[0] == 'A' {
		b[0] = 'B'
	} else {
		b[0] = 'A'
	}
	return string(b)
}

func TestOpenExpired(t *testing.T) {
	s, err := NewSealer(testEncKey, testSigKey, time.Minute)
	require.NoError(t, err)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	token, _, err := s.Seal("user-1")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = s.Open(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestNewSealerRejectsBadKeys(t *testing.T) {
	_, err := NewSealer("zz", "", time.Hour)
	assert.Error(t, err)
	_, err = NewSealer("", "abcd", time.Hour)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	s, err := NewSealer(testEncKey, testSigKey, time.Hour)
	require.NoError(t, err)
	token, _, err := s.Seal("user-7")
	require.NoError(t, err)

	var seen string
	h := Middleware(s, func(w http.ResponseWriter, r *http.Request, err error) {
		http.Error(w, err.Error(), http.StatusUnauthorized)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserIDFromContext(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "user-7", seen)

	seen = ""
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "user-7", seen)
}
