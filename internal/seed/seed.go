// Package seed bootstraps a default user for local development.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	userdomain "github.com/smallbiznis/teamhub/internal/user/domain"
	"gorm.io/gorm"
)

const (
	defaultUsername = "admin"
	defaultEmail    = "admin@teamhub.local"
)

// EnsureDefaultUser inserts the development user when it does not exist.
func EnsureDefaultUser(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing userdomain.User
		err := tx.First(&existing, "email = ?", defaultEmail).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now().UTC()
		return tx.Create(&userdomain.User{
			ID:        node.Generate(),
			Username:  defaultUsername,
			Email:     defaultEmail,
			CreatedAt: now,
			UpdatedAt: now,
		}).Error
	})
}
