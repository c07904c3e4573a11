package database

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"rentacar-server/chat-api/internal/infrastructure/database/entities"
)

// AutoMigrate creates or extends the chat tables. The users table belongs to
// the account service; it is only created when missing so a standalone
// deployment can resolve admin list names.
func AutoMigrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	tx := db.WithContext(ctx)

	if !tx.Migrator().HasTable(&entities.User{}) {
		if err := tx.Migrator().CreateTable(&entities.User{}); err != nil {
			return err
		}
		log.Info().Msg("created users table")
	}

	if err := tx.AutoMigrate(&entities.Conversation{}, &entities.Message{}); err != nil {
		return err
	}

	log.Debug().Msg("chat schema migrated")
	return nil
}
