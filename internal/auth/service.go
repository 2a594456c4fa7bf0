package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

type Service struct {
	repo   Repository
	tokens *TokenIssuer
	log    zerolog.Logger
}

func NewService(repo Repository, tokens *TokenIssuer, log zerolog.Logger) *Service {
	return &Service{repo: repo, tokens: tokens, log: log}
}

// Login checks the credentials against the stored bcrypt hash and issues a
// session token. Unknown users and wrong passwords are indistinguishable.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, ErrMissingCredentials
	}

	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.log.Warn().Str("username", username).Msg("login for unknown user")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !u.CheckPassword(in.Password) {
		s.log.Warn().Str("username", username).Msg("login with wrong password")
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(*u)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", u.ID.String()).Msg("user logged in")

	return &LoginResult{
		Message:   "Login successful",
		User:      *u,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Authenticate resolves a bearer token to its session.
func (s *Service) Authenticate(token string) (Session, error) {
	return s.tokens.Verify(token)
}

// CreateUser hashes password and stores a new user. Used by the seeder.
func (s *Service) CreateUser(ctx context.Context, username, password, fullName, role string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	if role == "" {
		role = RoleStaff
	}

	u := &User{Username: username, FullName: fullName, Role: role}
	if err := u.SetPassword(password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return s.repo.Create(ctx, u)
}
