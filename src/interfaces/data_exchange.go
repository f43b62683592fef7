package interfaces

import (
	"context"

	"satoshi-drop/src/models"
)

// -----------------------------------------------------------------------------
// IDataExchanger pushes display updates to external listeners.
// -----------------------------------------------------------------------------

type IDataExchanger interface {
	// -----------------------------------------------------------------------------
	// Broadcast pushes an update to every connected listener.
	Broadcast(update models.MDisplayData)

	// -----------------------------------------------------------------------------
	// Start serves until Stop is called
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop(ctx context.Context) error
}
