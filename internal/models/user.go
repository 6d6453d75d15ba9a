package models

import (
	"time"
)

// User represents a VeciNet neighbor account
type User struct {
	ID    string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Email string `gorm:"uniqueIndex;not null" json:"email"`
	Name  string `gorm:"not null" json:"name"`
	Bio   string `gorm:"type:text" json:"bio"`

	// Native auth
	PasswordHash *string `gorm:"type:text" json:"-"`

	// Profile data
	AvatarURL string `json:"avatar_url"`

	// Reputation and activity counters. TotalPosts is maintained by the post
	// lifecycle (create/delete/moderation removal), never written by handlers.
	Rating             float64 `gorm:"default:5.0" json:"rating"`
	TotalPosts         int     `gorm:"default:0" json:"total_posts"`
	CompletedExchanges int     `gorm:"default:0" json:"completed_exchanges"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PublicProfile is the subset of User safe to show to other neighbors.
type PublicProfile struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Bio                string    `json:"bio"`
	AvatarURL          string    `json:"avatar_url"`
	Rating             float64   `json:"rating"`
	TotalPosts         int       `json:"total_posts"`
	CompletedExchanges int       `json:"completed_exchanges"`
	CreatedAt          time.Time `json:"created_at"`
}

// Public strips private fields (email, password hash) from a user record.
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:                 u.ID,
		Name:               u.Name,
		Bio:                u.Bio,
		AvatarURL:          u.AvatarURL,
		Rating:             u.Rating,
		TotalPosts:         u.TotalPosts,
		CompletedExchanges: u.CompletedExchanges,
		CreatedAt:          u.CreatedAt,
	}
}
