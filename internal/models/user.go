package models

import (
	"time"
)

// UserStats holds the aggregated trading reputation of a user
type UserStats struct {
	TotalTrades      int     `gorm:"not null;default:0" json:"totalTrades"`
	SuccessfulTrades int     `gorm:"not null;default:0" json:"successfulTrades"`
	Rating           float64 `gorm:"not null;default:0" json:"rating"`
	TotalReviews     int     `gorm:"not null;default:0" json:"totalReviews"`
}

// StatsPatch is a partial update of UserStats. Nil fields are left untouched.
type StatsPatch struct {
	TotalTrades      *int     `json:"totalTrades"`
	SuccessfulTrades *int     `json:"successfulTrades"`
	Rating           *float64 `json:"rating"`
	TotalReviews     *int     `json:"totalReviews"`
}

// IsEmpty reports whether the patch changes nothing
func (p StatsPatch) IsEmpty() bool {
	return p.TotalTrades == nil && p.SuccessfulTrades == nil && p.Rating == nil && p.TotalReviews == nil
}

// Apply merges the patch into stats
func (p StatsPatch) Apply(stats *UserStats) {
	if p.TotalTrades != nil {
		stats.TotalTrades = *p.TotalTrades
	}
	if p.SuccessfulTrades != nil {
		stats.SuccessfulTrades = *p.SuccessfulTrades
	}
	if p.Rating != nil {
		stats.Rating = *p.Rating
	}
	if p.TotalReviews != nil {
		stats.TotalReviews = *p.TotalReviews
	}
}

// User represents a registered trader
type User struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	Username      string    `gorm:"size:50;not null" json:"username"`
	UsernameLower string    `gorm:"uniqueIndex;size:50;not null" json:"-"`
	DisplayName   string    `gorm:"size:100;not null" json:"displayName"`
	Email         string    `gorm:"size:100;not null" json:"email"`
	EmailLower    string    `gorm:"uniqueIndex;size:100;not null" json:"-"`
	PasswordHash  string    `gorm:"size:255;not null" json:"-"`
	Avatar        string    `gorm:"size:255" json:"avatar"`
	JoinDate      time.Time `gorm:"not null" json:"joinDate"`
	IsOnline      bool      `gorm:"not null;default:false" json:"isOnline"`
	Stats         UserStats `gorm:"embedded;embeddedPrefix:stats_" json:"stats"`
	CreatedAt     time.Time `gorm:"index" json:"-"`
	UpdatedAt     time.Time `json:"-"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// Public returns the projection of the user that other traders may see
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Avatar:      u.Avatar,
		JoinDate:    u.JoinDate,
		IsOnline:    u.IsOnline,
		Stats:       u.Stats,
	}
}

// PublicUser is the user profile without contact details or secrets.
// Trade posts embed a copy of it taken when the post was created.
type PublicUser struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	Avatar      string    `json:"avatar"`
	JoinDate    time.Time `json:"joinDate"`
	IsOnline    bool      `json:"isOnline"`
	Stats       UserStats `json:"stats"`
}

// PublicUsers projects a slice of users
func PublicUsers(users []User) []PublicUser {
	out := make([]PublicUser, len(users))
	for i := range users {
		out[i] = users[i].Public()
	}
	return out
}
