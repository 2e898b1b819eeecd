package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/auth"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/config"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/repository"
	apperrors "github.com/ivovalerieviliev/help-desk-sub001/pkg/util"
)

// OrganizationJoiner places newly registered users into organizations.
type OrganizationJoiner interface {
	AutoJoin(ctx context.Context, user *domain.User) ([]domain.Organization, error)
}

// AuthService coordinates registration, login and logout flows.
type AuthService struct {
	users      repository.UserRepository
	joiner     OrganizationJoiner
	tokenMgr   *auth.TokenManager
	denylist   auth.TokenDenylist
	bcryptCost int
	logger     *zap.Logger
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo     repository.UserRepository
	Joiner       OrganizationJoiner
	TokenManager *auth.TokenManager
	Denylist     auth.TokenDenylist
	Logger       *zap.Logger
}

// Session is the result of a successful registration or login.
type Session struct {
	User          *domain.User
	Token         *domain.IssuedToken
	Organizations []domain.Organization
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	tokens := deps.TokenManager
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		joiner:     deps.Joiner,
		tokenMgr:   tokens,
		denylist:   deps.Denylist,
		bcryptCost: cfg.Auth.BcryptCost,
		logger:     logger,
	}
}

// Register creates a customer account and joins it to every organization
// that accepts its email domain.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*Session, error) {
	user, err := newAccount(ctx, s.users, s.bcryptCost, UserInput{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     domain.RoleCustomer,
	})
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": user.Email})
		}
		return nil, apperrors.MapError(err)
	}

	session := &Session{User: user}
	if s.joiner != nil {
		orgs, err := s.joiner.AutoJoin(ctx, user)
		if err != nil {
			return nil, err
		}
		session.Organizations = orgs
	}

	token, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	session.Token = token
	s.logger.Info("user registered",
		zap.String("user_id", user.ID),
		zap.Int("organizations_joined", len(session.Organizations)),
	)
	return session, nil
}

// Login authenticates by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if !user.Active {
		return nil, apperrors.NewUnauthorized("account disabled")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	token, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &Session{User: user, Token: token}, nil
}

// Logout revokes the presented token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if s.denylist == nil {
		return nil
	}
	if claims.ExpiresAt == nil {
		return apperrors.NewUnauthorized("token without expiry")
	}
	if err := s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// ChangePassword verifies the current password before storing a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, user *domain.User, currentPassword, newPassword string) error {
	if err := requireUser(user); err != nil {
		return err
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	hash, err := hashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
