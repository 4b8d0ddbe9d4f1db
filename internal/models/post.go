package models

import (
	"time"
)

// Category classifies what kind of item is being given away.
type Category string

const (
	// CategoryLeftovers is surplus food from a household.
	CategoryLeftovers Category = "leftovers"
	// CategoryNew is unused goods.
	CategoryNew Category = "new"
	// CategoryRestaurant is end-of-day restaurant surplus.
	CategoryRestaurant Category = "restaurant"
	// CategoryHomeMade is home-cooked food.
	CategoryHomeMade Category = "home_made"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryLeftovers, CategoryNew, CategoryRestaurant, CategoryHomeMade:
		return true
	}
	return false
}

// Post is an item offered for free at a location.
type Post struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	Title       string   `gorm:"not null" json:"title"`
	Description string   `gorm:"type:text" json:"description"`
	Category    Category `gorm:"type:varchar(20);not null;index" json:"category"`
	Latitude    float64  `gorm:"not null" json:"latitude"`
	Longitude   float64  `gorm:"not null" json:"longitude"`
	Address     string   `json:"address"`
	PhotoURL    string   `json:"photo_url"`
	OwnerID     uint     `gorm:"not null;index" json:"owner_id"`
	Owner       User     `gorm:"foreignKey:OwnerID" json:"owner"`
	IsGone      bool     `gorm:"not null;default:false" json:"is_gone"`

	// Computed at query time, never persisted.
	LikesCount    int  `gorm:"->;-:migration" json:"likes_count"`
	CommentsCount int  `gorm:"->;-:migration" json:"comments_count"`
	GotItCount    int  `gorm:"->;-:migration" json:"got_it_count"`
	Liked         bool `gorm:"->;-:migration" json:"liked"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
