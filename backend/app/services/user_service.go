package services

import (
	"context"
	"errors"

	"fleet-relay/backend/app/apperr"
	"fleet-relay/backend/app/models"
	"fleet-relay/backend/app/repo"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type UserService struct{ users *repo.UserRepository }

func NewUserService(users *repo.UserRepository) *UserService { return &UserService{users: users} }

// EnsureAdmin creates the bootstrap admin account when it does not exist.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) error {
	count, err := s.users.CountByUsername(ctx, username)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return s.CreateUser(ctx, username, password, models.RoleAdmin)
}

func (s *UserService) CreateUser(ctx context.Context, username, password, role string) error {
	if username == "" || password == "" {
		return apperr.Validation("username and password are required")
	}
	switch role {
	case "":
		role = models.RoleOperator
	case models.RoleAdmin, models.RoleOperator:
	default:
		return apperr.Validation("unknown role %q", role)
	}
	count, err := s.users.CountByUsername(ctx, username)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperr.Validation("username %q already exists", username)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.Create(ctx, &models.User{Username: username, PasswordHash: string(hash), Role: role})
}

func (s *UserService) ValidateCredentials(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
