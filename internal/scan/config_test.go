package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tile-scan/internal/mosaic"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"TILES_DIR", "TILES_LAYOUT", "TILES_ZOOM", "TILE_SIZE", "GRID_SIZE", "SCAN_REQUIRE_CENTER",
		"CANDIDATES_PATH", "CANDIDATES_SOURCE", "CANDIDATES_QUERY", "CHECKPOINT_BACKEND", "CHECKPOINT_PATH",
		"CHECKPOINT_REDIS_KEY", "DETECTION_DIR", "DETECTION_DB", "JPEG_QUALITY", "ORACLE",
		"CANVAS_PREVIEW_PATH", "CANVAS_PREVIEW_SCALE", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "METRICS_ADDR",
	} {
		t.Setenv(k, "")
	}
}

func TestConfigDefaults(t *testing.T) {
	clearEnv(t)
	c, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 20, c.Zoom)
	assert.Equal(t, 256, c.TileSize)
	assert.Equal(t, 5, c.GridSize)
	assert.Equal(t, 256, c.TileCacheSize)
	assert.True(t, c.RequireCenter)
	assert.Equal(t, "file", c.CheckpointBackend)
	assert.Equal(t, "terminal", c.Oracle)
	assert.Equal(t, 1.0, c.PreviewScale)
	require.NoError(t, c.Validate())
}

func TestConfigOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GRID_SIZE", "7")
	t.Setenv("SCAN_REQUIRE_CENTER", "false")
	t.Setenv("ORACLE", "Telegram")
	t.Setenv("TELEGRAM_BOT_TOKEN", "t")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")
	t.Setenv("CHECKPOINT_BACKEND", "redis")
	c, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 7, c.GridSize)
	assert.False(t, c.RequireCenter)
	assert.Equal(t, int64(-100123), c.TelegramChatID)
	require.NoError(t, c.Validate())
}

func TestConfigErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("TILE_SIZE", "big")
	_, err := ConfigFromEnv()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("GRID_SIZE", "4")
	c, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.ErrorIs(t, c.Validate(), mosaic.ErrGeometry)

	clearEnv(t)
	t.Setenv("TILE_SIZE", "255")
	c, err = ConfigFromEnv()
	require.NoError(t, err)
	assert.ErrorIs(t, c.Validate(), mosaic.ErrGeometry)

	clearEnv(t)
	t.Setenv("ORACLE", "telegram")
	c, err = ConfigFromEnv()
	require.NoError(t, err)
	assert.Error(t, c.Validate())

	clearEnv(t)
	t.Setenv("DETECTION_DB", "mysql")
	c, err = ConfigFromEnv()
	require.NoError(t, err)
	assert.Error(t, c.Validate())
}
