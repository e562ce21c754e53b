package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/catalog-service/internal/auth"
	"github.com/spec-kit/catalog-service/internal/config"
	"github.com/spec-kit/catalog-service/internal/domain"
	"github.com/spec-kit/catalog-service/internal/repository"
	apperrors "github.com/spec-kit/catalog-service/pkg/util/errorutil"
)

const uniqueViolation = "23505"

// AuthService coordinates registration and login flows.
type AuthService struct {
	users       repository.UserRepository
	revocations auth.RevocationStore
	tokenMgr    *auth.TokenManager
	bcryptCost  int
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo    repository.UserRepository
	Revocations auth.RevocationStore
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	revocations := deps.Revocations
	if revocations == nil {
		revocations = auth.NewMemoryRevocationStore()
	}
	return &AuthService{
		users:       deps.UserRepo,
		revocations: revocations,
		tokenMgr:    auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost:  cfg.Auth.BcryptCost,
	}
}

// RegisterUser creates a new account and signs it in.
func (s *AuthService) RegisterUser(ctx context.Context, name, email, password string) (*domain.User, *domain.AccessToken, error) {
	email = normalizeEmail(email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, nil, emailTaken()
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, nil, err
	}

	user := &domain.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, nil, emailTaken()
		}
		return nil, nil, err
	}

	token, err := s.tokenMgr.GenerateToken(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, token, nil
}

// LoginUser authenticates an account. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*domain.User, *domain.AccessToken, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if user.Status != domain.UserStatusActive {
		return nil, nil, apperrors.NewForbidden("account suspended")
	}
	token, err := s.tokenMgr.GenerateToken(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, token, nil
}

// Logout revokes the presented token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil {
		return apperrors.NewUnauthorized("not authenticated")
	}
	return s.revocations.Revoke(ctx, claims.ID, claims.Expiry())
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Revocations exposes the revocation store for middleware usage.
func (s *AuthService) Revocations() auth.RevocationStore {
	return s.revocations
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func emailTaken() error {
	return apperrors.NewConflict("email already registered", map[string]any{"field": "email"})
}
