package service

import (
	"context"
	"errors"
	"fmt"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/models"
)

// translate maps storage errors onto domain errors. notFound is returned,
// wrapped with what, when the record is missing.
func translate(err error, notFound error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, database.ErrNotFound):
		return fmt.Errorf("%w: %s", notFound, what)
	case errors.Is(err, database.ErrDuplicate), errors.Is(err, database.ErrConstraint):
		return fmt.Errorf("%w: %s", domain.ErrDataConflict, what)
	case errors.Is(err, database.ErrConcurrentModification):
		return fmt.Errorf("%w: %s already decided", domain.ErrInvalidState, what)
	case errors.Is(err, database.ErrNotAvailable):
		return fmt.Errorf("%w: %s", domain.ErrItemUnavailable, what)
	}
	return err
}

func requireUser(ctx context.Context, repo domain.UserRepository, userID int64) error {
	exists, err := repo.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: user %d", domain.ErrUserNotFound, userID)
	}
	return nil
}

func loadUser(ctx context.Context, repo domain.UserRepository, userID int64) (*models.User, error) {
	user, err := repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, translate(err, domain.ErrUserNotFound, fmt.Sprintf("user %d", userID))
	}
	return user, nil
}
