package migrations

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// AddChatSessionIndex supports reading a user's chat session in order
func AddChatSessionIndex(ctx context.Context, db *gorm.DB, logger zerolog.Logger) error {
	logger.Info().Msg("Adding session index to chat_messages table")

	if err := db.WithContext(ctx).Exec(`
		CREATE INDEX IF NOT EXISTS idx_chat_messages_user_session
		ON chat_messages(user_id, session_id, created_at)
	`).Error; err != nil {
		return err
	}

	logger.Info().Msg("Added idx_chat_messages_user_session")
	return nil
}
