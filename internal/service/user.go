package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/eventpulse/internal/model"
	"github.com/Shivanand-hulikatti/eventpulse/internal/repository"
)

// UserService handles signup and role lookup.
type UserService struct {
	users UserStore
	now   func() time.Time
}

// NewUserService constructs a UserService. A nil now defaults to time.Now.
func NewUserService(users UserStore, now func() time.Time) *UserService {
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, now: now}
}

// CreateUser validates and stores a new user. Emails are kept exactly as
// given; a taken email surfaces repository.ErrDuplicate.
func (s *UserService) CreateUser(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := Validate(req); err != nil {
		return nil, err
	}
	role := req.Role
	if role == "" {
		role = model.RoleAttendee
	}
	user := &model.User{
		ID:        uuid.New().String(),
		Email:     req.Email,
		Name:      strings.TrimSpace(req.Name),
		PhotoURL:  req.PhotoURL,
		Role:      role,
		Profile:   req.Profile,
		CreatedAt: s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// GetRole returns the role of the user with exactly this email.
func (s *UserService) GetRole(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrValidation)
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("get role: %w", err)
	}
	return user.Role, nil
}
