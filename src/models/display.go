package models

// -----------------------------------------------------------------------------
// Display payload types
// -----------------------------------------------------------------------------

const (
	DisplayInitial   = "INITIAL"
	DisplayCountdown = "COUNTDOWN"
	DisplayPrice     = "PRICE"
)

// Topics a websocket client can subscribe to.
const (
	TopicCountdown = "countdown"
	TopicPrice     = "price"
)

type MDisplayData struct {
	Type            string          `json:"type"` // INITIAL, COUNTDOWN or PRICE
	Countdown       MCountdownState `json:"countdown"`
	Price           MPriceState     `json:"price"`
	SatPriceDisplay string          `json:"sat_price_display"`
	Timestamp       int64           `json:"timestamp"`
}

// -----------------------------------------------------------------------------
// MClientCommand for websocket client messages
// -----------------------------------------------------------------------------

type MClientCommand struct {
	Command string   `json:"command"` // "subscribe" or "snapshot"
	Topics  []string `json:"topics"`
}
