package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/auth"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/repository"
	apperrors "github.com/ivovalerieviliev/help-desk-sub001/pkg/util"
)

// UserService lets administrators manage accounts and staff browse them.
type UserService struct {
	users      repository.UserRepository
	bcryptCost int
}

// UserInput describes account creation or update. On update empty strings
// and nil pointers leave the field untouched.
type UserInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.UserRole
	Active   *bool
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, bcryptCost int) *UserService {
	return &UserService{users: users, bcryptCost: bcryptCost}
}

// CreateUser adds an account with any role.
func (s *UserService) CreateUser(ctx context.Context, actor *domain.User, input UserInput) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if input.Role == "" {
		input.Role = domain.RoleCustomer
	}
	user, err := newAccount(ctx, s.users, s.bcryptCost, input)
	if err != nil {
		return nil, err
	}
	if input.Active != nil {
		user.Active = *input.Active
	}
	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": user.Email})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// ListUsers returns accounts matching filter.
func (s *UserService) ListUsers(ctx context.Context, actor *domain.User, filter repository.UserFilter) ([]domain.User, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if filter.Role != nil && !filter.Role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": *filter.Role})
	}
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// GetUser returns one account to staff.
func (s *UserService) GetUser(ctx context.Context, actor *domain.User, id string) (*domain.User, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.FromRepo(err, "user", map[string]any{"user_id": id})
	}
	return user, nil
}

// UpdateUser changes name, email, role, password or active flag.
func (s *UserService) UpdateUser(ctx context.Context, actor *domain.User, id string, input UserInput) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.FromRepo(err, "user", map[string]any{"user_id": id})
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		user.Name = name
	}
	if input.Email != "" {
		email, err := normalizeEmail(input.Email)
		if err != nil {
			return nil, err
		}
		user.Email = email
	}
	if input.Role != "" {
		if !input.Role.Valid() {
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": input.Role})
		}
		if user.ID == actor.ID && input.Role != domain.RoleAdmin {
			return nil, apperrors.NewConflict("administrators cannot demote themselves", nil)
		}
		user.Role = input.Role
	}
	if input.Password != "" {
		hash, err := hashPassword(input.Password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if input.Active != nil {
		user.Active = *input.Active
	}
	if err := s.users.Update(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": user.Email})
		}
		return nil, apperrors.FromRepo(err, "user", map[string]any{"user_id": id})
	}
	return user, nil
}

func newAccount(ctx context.Context, users repository.UserRepository, cost int, input UserInput) (*domain.User, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewMissingField("name")
	}
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": input.Role})
	}
	if _, err := users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !isNotFound(err) {
		return nil, apperrors.MapError(err)
	}
	hash, err := hashPassword(input.Password, cost)
	if err != nil {
		return nil, err
	}
	return &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         input.Role,
		Active:       true,
	}, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", apperrors.NewMissingField("email")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperrors.NewValidationError("invalid email address", map[string]any{"email": raw})
	}
	return email, nil
}

func hashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", apperrors.NewMissingField("password")
	}
	hash, err := auth.HashPassword(password, cost)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return "", apperrors.NewValidationError("password must be at least 8 characters", nil)
		}
		return "", apperrors.MapError(err)
	}
	return hash, nil
}
