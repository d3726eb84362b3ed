package state

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tipurk/neechat/internal/entity"
)

func TestInitSqlite_MigratesAndSeedsGeneralChat(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := InitSqlite(dbPath)
	require.NoError(t, err, "InitSqlite should not return an error")
	require.NotNil(t, db, "DB handle should not be nil")

	var general entity.Chat
	err = db.Where("name = ? AND is_group = ?", entity.GeneralChatName, true).
		First(&general).Error
	require.NoError(t, err, "general chat should be seeded")
	assert.True(t, general.IsGroup, "general chat should be a group")
	assert.NotZero(t, general.ID)
}

func TestInitSqlite_SeedIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	_, err := InitSqlite(dbPath)
	require.NoError(t, err)

	// Re-open the same file: no duplicate general chat.
	db, err := InitSqlite(dbPath)
	require.NoError(t, err, "second init over the same file should succeed")

	var count int64
	err = db.Model(&entity.Chat{}).
		Where("name = ? AND is_group = ?", entity.GeneralChatName, true).
		Count(&count).Error
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "general chat should be seeded exactly once")
}

func TestInitSqlite_InvalidPath(t *testing.T) {
	db, err := InitSqlite("/no/such/dir/test.db")
	assert.Error(t, err, "InitSqlite should fail for an unwritable path")
	assert.Nil(t, db)
}
