// Package service holds the business logic of the API. Services translate
// repository errors into *models.AppError values.
package service

import (
	"context"
	"errors"
	"log/slog"

	"freebies/internal/database"
	"freebies/internal/middleware"
	"freebies/internal/models"
	"freebies/internal/observability"

	"gorm.io/gorm"
)

// storeError maps a repository error to a domain error. Missing rows become
// NotFound for resource/id, unique violations become Conflict and anything else
// is a reported PersistenceFailure.
func storeError(ctx context.Context, err error, resource string, id interface{}, op string) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	if database.IsUniqueViolation(err) {
		return models.NewConflictError(resource + " already exists")
	}
	return persistenceError(ctx, op, err)
}

func persistenceError(ctx context.Context, op string, err error) error {
	middleware.Logger.ErrorContext(ctx, "store operation failed",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
	observability.CaptureError(ctx, err, map[string]string{"op": op})
	return models.NewPersistenceError(op, err)
}
