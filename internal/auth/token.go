package auth

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gtank/cryptopasta"
)

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrExpiredToken = errors.New("session expired")
)

// Session is the payload sealed inside a token.
type Session struct {
	UserID  string    `json:"uid"`
	Expires time.Time `json:"exp"`
}

// Sealer encrypts sessions with AES-GCM and signs the ciphertext with
// HMAC-SHA512/256. Tokens have the form base64(ciphertext).base64(mac).
type Sealer struct {
	encKey *[32]byte
	sigKey *[32]byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSealer builds a sealer from two hex-encoded 32 byte keys. An empty key
// is replaced by a random one.
func NewSealer(encHex, sigHex string, ttl time.Duration) (*Sealer, error) {
	encKey, err := parseKey(encHex, cryptopasta.NewEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key: %w", err)
	}
	sigKey, err := parseKey(sigHex, cryptopasta.NewHMACKey)
	if err != nil {
		return nil, fmt.Errorf("signing key: %w", err)
	}
	return &Sealer{encKey: encKey, sigKey: sigKey, ttl: ttl, now: time.Now}, nil
}

func parseKey(s string, random func() *[32]byte) (*[32]byte, error) {
	if s == "" {
		return random(), nil
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("want 32 bytes, got %d", len(raw))
	}
	key := &[32]byte{}
	copy(key[:], raw)
	return key, nil
}

// TTL returns how long issued tokens stay valid.
func (s *Sealer) TTL() time.Duration { return s.ttl }

// Seal issues a token for userID.
func (s *Sealer) Seal(userID string) (string, Session, error) {
	sess := Session{UserID: userID, Expires: s.now().Add(s.ttl).UTC()}
	plain, err := json.Marshal(sess)
	if err != nil {
		return "", Session{}, err
	}
	cipher, err := cryptopasta.Encrypt(plain, s.encKey)
	if err != nil {
		return "", Session{}, fmt.Errorf("seal session: %w", err)
	}
	mac := cryptopasta.GenerateHMAC(cipher, s.sigKey)
	token := base64.RawURLEncoding.EncodeToString(cipher) + "." + base64.RawURLEncoding.EncodeToString(mac)
	return token, sess, nil
}

// Open verifies and decrypts a token.
func (s *Sealer) Open(token string) (Session, error) {
	cipherPart, macPart, ok := strings.Cut(token, ".")
	if !ok {
		return Session{}, ErrInvalidToken
	}
	cipher, err := base64.RawURLEncoding.DecodeString(cipherPart)
	if err != nil {
		return Session{}, ErrInvalidToken
	}
	mac, err := base64.RawURLEncoding.DecodeString(macPart)
	if err != nil {
		return Session{}, ErrInvalidToken
	}
	if !cryptopasta.CheckHMAC(cipher, mac, s.sigKey) {
		return Session{}, ErrInvalidToken
	}
	plain, err := cryptopasta.Decrypt(cipher, s.encKey)
	if err != nil {
		return Session{}, ErrInvalidToken
	}
	var sess Session
	if err := json.Unmarshal(plain, &sess); err != nil || sess.UserID == "" {
		return Session{}, ErrInvalidToken
	}
	if !s.now().Before(sess.Expires) {
		return Session{}, ErrExpiredToken
	}
	return sess, nil
}
