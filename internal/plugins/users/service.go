// Package users is the CRUD surface over principals: list, show, sign up,
// edit and delete. Credentials and sessions belong to the auth plugin;
// this package only composes them into browser routes.
package users

import (
	"context"
	"fmt"

	"github.com/keyxmakerx/roster/internal/apperror"
	"github.com/keyxmakerx/roster/internal/plugins/audit"
	"github.com/keyxmakerx/roster/internal/plugins/auth"
)

// Registrar is the slice of auth.AuthService this plugin writes through, so
// passwords are always hashed in one place.
type Registrar interface {
	Register(ctx context.Context, input auth.RegisterInput) (*auth.User, error)
	Update(ctx context.Context, id string, input auth.UpdateInput) (*auth.User, error)
}

// UserService defines the business logic contract for the users routes.
type UserService interface {
	List(ctx context.Context) ([]auth.User, error)
	Get(ctx context.Context, id string) (*auth.User, error)
	Create(ctx context.Context, input auth.RegisterInput) (*auth.User, error)
	Update(ctx context.Context, id string, input auth.UpdateInput) (*auth.User, error)
	Delete(ctx context.Context, id string) error
}

type userService struct {
	repo      auth.UserRepository
	registrar Registrar
	audit     audit.Recorder
}

// NewUserService creates a new users service.
func NewUserService(repo auth.UserRepository, registrar Registrar, rec audit.Recorder) UserService {
	return &userService{repo: repo, registrar: registrar, audit: rec}
}

// List returns every principal.
func (s *userService) List(ctx context.Context) ([]auth.User, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing users: %w", err))
	}
	return users, nil
}

// Get returns one principal or a not-found error.
func (s *userService) Get(ctx context.Context, id string) (*auth.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}
	return user, nil
}

// Create registers a principal with a password.
func (s *userService) Create(ctx context.Context, input auth.RegisterInput) (*auth.User, error) {
	return s.registrar.Register(ctx, input)
}

// Update edits a principal.
func (s *userService) Update(ctx context.Context, id string, input auth.UpdateInput) (*auth.User, error) {
	return s.registrar.Update(ctx, id, input)
}

// Delete removes a principal.
func (s *userService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if apperror.IsNotFound(err) {
			return err
		}
		return apperror.NewInternal(fmt.Errorf("deleting user: %w", err))
	}

	audit.Record(ctx, s.audit, &audit.Entry{
		Action:     audit.ActionUserDeleted,
		TargetType: "user",
		TargetID:   id,
	})
	return nil
}
