package interfaces

import "satoshi-drop/src/models"

// -----------------------------------------------------------------------------
// IPublisher forwards display updates to a message bus.
// -----------------------------------------------------------------------------

type IPublisher interface {
	Publish(update models.MDisplayData) error
	Close() error
}
