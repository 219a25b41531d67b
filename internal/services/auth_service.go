package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"aura/internal/auth"
	"aura/internal/core"
	"aura/internal/log"
	"aura/internal/ports"
)

// AuthResult is returned by a successful register or login.
type AuthResult struct {
	User    core.User    `json:"user"`
	Token   string       `json:"token"`
	Session auth.Session `json:"session"`
}

// AuthService implements the email/password flow on top of the sealed
// session tokens.
type AuthService struct {
	users  ports.UserStore
	sealer *auth.Sealer
	logger *log.Logger
}

func NewAuthService(users ports.UserStore, sealer *auth.Sealer, logger *log.Logger) *AuthService {
	return &AuthService{
		users:  users,
		sealer: sealer,
		logger: logger.WithComponent(log.ComponentAuth),
	}
}

// Register creates a user and opens a session for it.
func (s *AuthService) Register(ctx context.Context, email, name, password string) (AuthResult, error) {
	u := core.User{
		Email: strings.ToLower(strings.TrimSpace(email)),
		Name:  strings.TrimSpace(name),
	}
	if err := u.Validate(); err != nil {
		return AuthResult{}, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return AuthResult{}, err
	}
	u.PasswordHash = hash

	created, err := s.users.CreateUser(ctx, u)
	if err != nil {
		return AuthResult{}, fmt.Errorf("create user: %w", err)
	}
	s.logger.InfoContext(ctx, "User registered", log.FieldUserID, created.ID)
	return s.open(created)
}

// Login checks the credentials. Unknown emails and wrong passwords both
// yield auth.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	u, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, ports.ErrNotFound) {
		return AuthResult{}, auth.ErrInvalidCredentials
	}
	if err != nil {
		return AuthResult{}, fmt.Errorf("find user: %w", err)
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		s.logger.WarnContext(ctx, "Failed login attempt", log.FieldUserID, u.ID)
		return AuthResult{}, err
	}
	return s.open(u)
}

// Resolve returns the user a token belongs to.
func (s *AuthService) Resolve(ctx context.Context, token string) (core.User, error) {
	sess, err := s.sealer.Open(token)
	if err != nil {
		return core.User{}, err
	}
	return s.Me(ctx, sess.UserID)
}

// Me loads the signed-in user. A session for a deleted user is invalid.
func (s *AuthService) Me(ctx context.Context, userID string) (core.User, error) {
	u, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, ports.ErrNotFound) {
		return core.User{}, auth.ErrInvalidToken
	}
	return u, err
}

func (s *AuthService) open(u core.User) (AuthResult, error) {
	token, sess, err := s.sealer.Seal(u.ID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("seal session: %w", err)
	}
	return AuthResult{User: u, Token: token, Session: sess}, nil
}
