// Package domain contains core types for user lookups.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// User represents a registered account. Registration itself is owned by the
// fronting identity service; this service only reads users.
type User struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	Username  string            `gorm:"type:text;not null" json:"username"`
	Email     string            `gorm:"type:text;not null;uniqueIndex:ux_users_email" json:"email"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

var ErrNotFound = errors.New("user_not_found")

type Repository interface {
	FindByID(ctx context.Context, id snowflake.ID) (*User, error)
}
