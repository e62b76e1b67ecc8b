package auth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/attarpos/attarpos/internal/shared"
)

// UserStore abstracts account persistence for the service.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, u User) (*User, error)
}

// Service wraps authentication business rules.
type Service struct {
	repo UserStore
}

// NewService constructs a new Service.
func NewService(repo UserStore) *Service {
	return &Service{repo: repo}
}

// Authenticate validates username/password credentials.
// Unknown usernames and wrong passwords yield the same error.
func (s *Service) Authenticate(ctx context.Context, username, password string) (shared.Identity, error) {
	if username == "" || password == "" {
		return shared.Identity{}, fmt.Errorf("%w: username and password required", shared.ErrValidation)
	}
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return shared.Identity{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return shared.Identity{}, shared.ErrInvalidCredentials
	}
	return shared.Identity{
		UserID:      user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Role:        user.Role,
	}, nil
}

// RegisterInput describes a new account request.
type RegisterInput struct {
	Username    string
	Password    string
	DisplayName string
	Role        string
}

// Register creates a new user account. Only admins may register users.
func (s *Service) Register(ctx context.Context, input RegisterInput, actor shared.Identity) (*User, error) {
	if !actor.IsAdmin() {
		return nil, shared.ErrForbidden
	}
	if input.Username == "" || input.Password == "" || input.DisplayName == "" {
		return nil, fmt.Errorf("%w: username, password and display name required", shared.ErrValidation)
	}
	role := input.Role
	if role == "" {
		role = shared.RoleCashier
	}
	if role != shared.RoleAdmin && role != shared.RoleCashier {
		return nil, fmt.Errorf("%w: unknown role %q", shared.ErrValidation, input.Role)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, User{
		Username:     input.Username,
		PasswordHash: string(hash),
		DisplayName:  input.DisplayName,
		Role:         role,
	})
}
