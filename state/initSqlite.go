package state

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tipurk/neechat/internal/entity"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// InitSqlite opens the database, runs the schema migration and seeds the
// general chat. Safe to call repeatedly: migration and seed are idempotent.
func InitSqlite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		log.Error().Err(err).Msg("failed to open sqlite database")
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.AutoMigrate(
		&entity.User{},
		&entity.Chat{},
		&entity.ChatMember{},
		&entity.Message{},
		&entity.ReadMarker{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	general := entity.Chat{Name: entity.GeneralChatName, IsGroup: true}
	if err := db.Where("name = ? AND is_group = ?", entity.GeneralChatName, true).
		FirstOrCreate(&general).Error; err != nil {
		return nil, fmt.Errorf("failed to seed general chat: %w", err)
	}

	log.Info().Str("path", path).Int64("generalChatID", general.ID).Msg("SQLite database ready")
	return db, nil
}
