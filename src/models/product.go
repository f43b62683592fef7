package models

import "time"

// Product rarities, highest first.
const (
	RarityLegendary = "Legendary"
	RarityEpic      = "Epic"
	RarityRare      = "Rare"
	RarityCommon    = "Common"
)

// MProduct is one item of the prize showcase.
type MProduct struct {
	Name   string         `json:"name" yaml:"name"`
	Sats   int64          `json:"sats" yaml:"sats"`
	Image  string         `json:"image" yaml:"image"`
	Rarity string         `json:"rarity" yaml:"rarity"`
	Stats  map[string]int `json:"stats" yaml:"stats"` // 0..100
}

// MSubscriber is a newsletter signup.
type MSubscriber struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
