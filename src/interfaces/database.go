package interfaces

import (
	"context"

	"satoshi-drop/src/models"
)

// -----------------------------------------------------------------------------
// IDatabase defines the contract for newsletter storage.
// -----------------------------------------------------------------------------

type IDatabase interface {

	// -----------------------------------------------------------------------------

	// Initialize opens the connection and creates the schema if needed.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveSubscriber stores email once. created is false when it already existed.
	SaveSubscriber(ctx context.Context, email string) (sub models.MSubscriber, created bool, err error)

	// -----------------------------------------------------------------------------

	// CountSubscribers returns the number of stored signups.
	CountSubscribers(ctx context.Context) (int, error)

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
