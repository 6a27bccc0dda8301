package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/campuslf/lostfound/internal/backend"
	"github.com/campuslf/lostfound/internal/models"
)

// UserStore is the persistence the auth service needs: accounts plus
// a revocation list for signed-out tokens.
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash, fullName string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// Service implements the backend.Auth capability with JWT sessions
// and bcrypt password hashes.
type Service struct {
	store  UserStore
	secret string
}

func NewService(store UserStore, secret string) *Service {
	return &Service{store: store, secret: secret}
}

// SignUp registers a new account and signs it in.
func (s *Service) SignUp(ctx context.Context, email, password, fullName string) (*backend.Session, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required")
	}

	existing, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("looking up email: %w", err)
	}
	if existing != nil {
		return nil, backend.ErrEmailInUse
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, email, string(hash), fullName)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	log.Info().Str("email", email).Msg("User signed up")
	return s.sessionFor(user)
}

// SignIn exchanges credentials for a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*backend.Session, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("looking up email: %w", err)
	}
	if user == nil {
		return nil, backend.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Warn().Str("email", email).Msg("Sign-in failed")
		return nil, backend.ErrInvalidCredentials
	}

	log.Info().Str("email", email).Msg("User signed in")
	return s.sessionFor(user)
}

// Session resolves a token to the current session, or (nil, nil) when
// the token is missing, expired, invalid or revoked.
func (s *Service) Session(ctx context.Context, token string) (*backend.Session, error) {
	if token == "" {
		return nil, nil
	}

	claims, err := ValidateToken(s.secret, token)
	if err != nil {
		return nil, nil
	}

	revoked, err := s.store.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("checking revocation: %w", err)
	}
	if revoked {
		return nil, nil
	}

	return &backend.Session{
		Token:     token,
		UserID:    claims.UserID,
		Email:     claims.Email,
		FullName:  claims.FullName,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// SignOut revokes the token's JTI so it can no longer resolve to a
// session.
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := ValidateToken(s.secret, token)
	if err != nil {
		// Already unusable; nothing to revoke.
		return nil
	}
	return s.store.RevokeToken(ctx, claims.ID, claims.ExpiresAt.Time)
}

func (s *Service) sessionFor(user *models.User) (*backend.Session, error) {
	token, err := GenerateToken(s.secret, user.ID, user.Email, user.FullName)
	if err != nil {
		return nil, fmt.Errorf("generating session token: %w", err)
	}
	return &backend.Session{
		Token:     token,
		UserID:    user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		ExpiresAt: time.Now().Add(TokenExpiry),
	}, nil
}
