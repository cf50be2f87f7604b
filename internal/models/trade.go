package models

import (
	"time"
)

// ItemRarity represents the rarity tier of a tradeable item
type ItemRarity string

const (
	RarityCommon    ItemRarity = "common"
	RarityUncommon  ItemRarity = "uncommon"
	RarityRare      ItemRarity = "rare"
	RarityEpic      ItemRarity = "epic"
	RarityLegendary ItemRarity = "legendary"
	RarityMythic    ItemRarity = "mythic"
)

// Rarities lists every rarity from lowest to highest
var Rarities = []ItemRarity{
	RarityCommon, RarityUncommon, RarityRare, RarityEpic, RarityLegendary, RarityMythic,
}

// Valid reports whether r is a known rarity
func (r ItemRarity) Valid() bool {
	for _, known := range Rarities {
		if r == known {
			return true
		}
	}
	return false
}

// Item is an in-game item offered or requested in a trade
type Item struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Rarity      ItemRarity `json:"rarity"`
	Image       string     `json:"image,omitempty"`
	Category    string     `json:"category"`
	Description string     `json:"description,omitempty"`
	Value       *float64   `json:"value,omitempty"`
}

// TradeStatus represents the lifecycle state of a trade post
type TradeStatus string

const (
	TradeStatusActive    TradeStatus = "active"
	TradeStatusCompleted TradeStatus = "completed"
	TradeStatusCancelled TradeStatus = "cancelled"
)

// TradePost is an "I give X, I want Y" offer
type TradePost struct {
	ID          string      `gorm:"primaryKey;size:36" json:"id"`
	AuthorID    string      `gorm:"index;size:36;not null" json:"-"`
	Author      PublicUser  `gorm:"serializer:json;type:text" json:"author"`
	Title       string      `gorm:"size:200;not null" json:"title"`
	Description string      `gorm:"type:text;not null" json:"description"`
	Giving      []Item      `gorm:"serializer:json;type:text" json:"giving"`
	Wanting     []Item      `gorm:"serializer:json;type:text" json:"wanting"`
	Status      TradeStatus `gorm:"size:20;not null;default:'active'" json:"status"`
	CreatedAt   time.Time   `gorm:"index;not null" json:"createdAt"`
	UpdatedAt   time.Time   `gorm:"not null" json:"updatedAt"`
	ExpiresAt   *time.Time  `json:"expiresAt,omitempty"`
	IsUrgent    bool        `gorm:"not null;default:false" json:"isUrgent"`
	Tags        []string    `gorm:"serializer:json;type:text" json:"tags"`
}

// TableName specifies the table name for TradePost model
func (TradePost) TableName() string {
	return "trade_posts"
}

// HasRarity reports whether any given or wanted item has one of the rarities
func (t *TradePost) HasRarity(rarities []ItemRarity) bool {
	for _, want := range rarities {
		for _, item := range t.Giving {
			if item.Rarity == want {
				return true
			}
		}
		for _, item := range t.Wanting {
			if item.Rarity == want {
				return true
			}
		}
	}
	return false
}

// IsExpired returns true if the post has an expiry in the past
func (t *TradePost) IsExpired(now time.Time) bool {
	return t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}
