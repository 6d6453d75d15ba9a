package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/vecinet/backend/internal/geo"
)

// PostCategory is the closed set of listing intents. New categories require a
// source change; every switch over PostCategory must stay exhaustive.
type PostCategory string

const (
	CategoryRequest  PostCategory = "request"
	CategoryOffer    PostCategory = "offer"
	CategoryExchange PostCategory = "exchange"
	CategorySale     PostCategory = "sale"
)

// AllCategories lists every valid category in display order.
var AllCategories = []PostCategory{CategoryRequest, CategoryOffer, CategoryExchange, CategorySale}

// ParseCategory converts a wire value into a PostCategory.
func ParseCategory(s string) (PostCategory, error) {
	c := PostCategory(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// Valid reports whether c is one of the four fixed categories.
func (c PostCategory) Valid() bool {
	switch c {
	case CategoryRequest, CategoryOffer, CategoryExchange, CategorySale:
		return true
	}
	return false
}

// Label returns the Spanish UI label for the category.
func (c PostCategory) Label() string {
	switch c {
	case CategoryRequest:
		return "Pedir"
	case CategoryOffer:
		return "Ofrecer"
	case CategoryExchange:
		return "Intercambiar"
	case CategorySale:
		return "Vender"
	}
	return string(c)
}

// Scan implements sql.Scanner.
func (c *PostCategory) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		*c = PostCategory(v)
	case []byte:
		*c = PostCategory(v)
	case nil:
		*c = ""
	default:
		return fmt.Errorf("cannot scan %T into PostCategory", value)
	}
	return nil
}

// Value implements driver.Valuer.
func (c PostCategory) Value() (driver.Value, error) {
	return string(c), nil
}

// StringArray is a custom type for PostgreSQL text[] that implements Scanner and Valuer
type StringArray []string

// Scan implements the sql.Scanner interface for reading from database
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}

	// PostgreSQL returns text[] as a string like "{value1,value2,value3}"
	str, ok := value.(string)
	if !ok {
		if bytes, ok := value.([]byte); ok {
			str = string(bytes)
		} else {
			*a = nil
			return nil
		}
	}

	str = strings.TrimPrefix(str, "{")
	str = strings.TrimSuffix(str, "}")

	if str == "" {
		*a = []string{}
		return nil
	}

	// Split by comma (simple case - doesn't handle quoted values with commas)
	*a = strings.Split(str, ",")
	return nil
}

// Value implements the driver.Valuer interface for writing to database
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	if len(a) == 0 {
		return "{}", nil
	}
	return "{" + strings.Join(a, ",") + "}", nil
}

// Post represents a single marketplace listing pinned to a coordinate.
// Posts are removed by hard delete, both on owner delete and on moderation
// removal; there is no soft-delete column on purpose.
type Post struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Category    PostCategory `gorm:"type:varchar(16);not null;index" json:"category"`
	Title       string       `gorm:"not null" json:"title"`
	Description string       `gorm:"type:text;not null" json:"description"`
	Images      StringArray  `gorm:"type:text[]" json:"images"`

	// Location at posting time. The viewer's location is never stored here.
	Coordinates geo.Coordinates `gorm:"embedded" json:"coordinates"`
	PostalCode  string          `gorm:"size:10;index" json:"postal_code"`

	ResponsesCount int `gorm:"default:0" json:"responses_count"`
	ReportsCount   int `gorm:"default:0" json:"reports_count"`

	// Expiration. IsExpired lags ExpiresAt between sweeps; readers that care
	// about visibility must compare ExpiresAt against the clock as well.
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	IsExpired bool      `gorm:"default:false;index" json:"is_expired"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExpiringSoon reports whether the post is inside the extend-me window.
func (p *Post) ExpiringSoon(now time.Time, window time.Duration) bool {
	return !p.IsExpired && !p.ExpiresAt.After(now.Add(window))
}

// Report records that one user flagged one post. The composite unique index
// is the storage-level guard that makes duplicate reports a no-op and keeps
// concurrent submissions from double-counting.
type Report struct {
	ID         string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	PostID     string `gorm:"not null;uniqueIndex:idx_reports_post_reporter" json:"post_id"`
	ReporterID string `gorm:"not null;uniqueIndex:idx_reports_post_reporter" json:"reporter_id"`
	Reason     string `gorm:"size:500" json:"reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
