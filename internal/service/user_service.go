package service

import (
	"context"
	"fmt"
	"strings"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type UserService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewUserService(repo domain.Repository, logger *zerolog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: logger,
	}
}

func (s *UserService) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if strings.TrimSpace(user.Name) == "" || strings.TrimSpace(user.Email) == "" {
		return nil, fmt.Errorf("%w: name and email are required", domain.ErrInvalidEntity)
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, translate(err, domain.ErrUserNotFound, fmt.Sprintf("email %s is taken", user.Email))
	}
	s.logger.Info().Int64("user_id", user.ID).Msg("user created")
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return loadUser(ctx, s.repo, id)
}

func (s *UserService) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	return s.repo.GetAllUsers(ctx)
}

// UpdateUser applies the set fields of patch. Blank values are rejected.
func (s *UserService) UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	user, err := loadUser(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, fmt.Errorf("%w: name must not be blank", domain.ErrInvalidEntity)
		}
		user.Name = *patch.Name
	}
	if patch.Email != nil {
		if strings.TrimSpace(*patch.Email) == "" {
			return nil, fmt.Errorf("%w: email must not be blank", domain.ErrInvalidEntity)
		}
		user.Email = *patch.Email
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, translate(err, domain.ErrUserNotFound, fmt.Sprintf("user %d", id))
	}
	return user, nil
}

// DeleteUser removes a user. Users still referenced by items, bookings,
// comments or requests cannot be deleted.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return translate(err, domain.ErrUserNotFound, fmt.Sprintf("user %d", id))
	}
	s.logger.Info().Int64("user_id", id).Msg("user deleted")
	return nil
}
