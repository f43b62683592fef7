package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"satoshi-drop/src/helpers"
	"satoshi-drop/src/interfaces"
	"satoshi-drop/src/logger"
	"satoshi-drop/src/models"
)

const (
	DBTypeSQLite   = "sqlite"
	DBTypePostgres = "postgres"

	maxEmailLength = 254
)

// -----------------------------------------------------------------------------

// NewDatabase builds the backend selected by storage.db_type. An empty type
// disables the newsletter and returns nil.
func NewDatabase(cfg *models.MConfig, log *logger.Logger) (interfaces.IDatabase, error) {
	switch strings.ToLower(cfg.Storage.DBType) {
	case "":
		return nil, nil
	case DBTypeSQLite:
		db, err := NewAsyncSQLiteDB(cfg, log)
		if err != nil {
			return nil, err
		}
		return db, nil
	case DBTypePostgres:
		db, err := NewPostgresDB(cfg, log)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, &helpers.ConfigurationError{AppError: helpers.AppError{
			Message: fmt.Sprintf("unknown db_type %q", cfg.Storage.DBType),
		}}
	}
}

// -----------------------------------------------------------------------------

// newSubscriber validates email and stamps a fresh record.
func newSubscriber(email string, now time.Time) (models.MSubscriber, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return models.MSubscriber{}, helpers.NewValidationError("invalid email address")
	}
	if len(email) > maxEmailLength {
		return models.MSubscriber{}, helpers.NewValidationError("email address too long")
	}
	return models.MSubscriber{
		ID:        uuid.NewString(),
		Email:     email,
		CreatedAt: now.UTC().Truncate(time.Second),
	}, nil
}
