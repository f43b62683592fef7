package interfaces

import (
	"context"

	"satoshi-drop/src/models"
)

// -----------------------------------------------------------------------------
// IPriceSource fetches the current spot price from an external provider.
// -----------------------------------------------------------------------------

type IPriceSource interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// FetchOnce performs a single request. Every failure is a *helpers.FetchError.
	FetchOnce(ctx context.Context) (models.MPriceSnapshot, error)
}
