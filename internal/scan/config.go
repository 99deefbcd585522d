package scan

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"tile-scan/internal/checkpoint"
	"tile-scan/internal/mosaic"
	"tile-scan/internal/tilemath"
)

// Config：tilescan 运行参数，全部来自环境变量
type Config struct {
	TilesDir      string
	TilesLayout   string
	Zoom          int
	TileSize      int
	GridSize      int
	RequireCenter bool
	TileCacheSize int

	CandidatesPath   string
	CandidatesSource string // file | postgres | sqlite
	CandidatesQuery  string

	CheckpointBackend  string // file | redis
	CheckpointPath     string
	CheckpointRedisKey string

	DetectionDir string
	DetectionDB  string // none | postgres | sqlite
	JPEGQuality  int

	Oracle         string // terminal | telegram
	PreviewPath    string
	PreviewScale   float64
	TelegramToken  string
	TelegramChatID int64

	MetricsAddr string
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

// ConfigFromEnv：读取环境变量并填默认值；数值解析失败直接报错，不静默回退
func ConfigFromEnv() (Config, error) {
	c := Config{
		TilesDir:           getenv("TILES_DIR", "data/tiles"),
		TilesLayout:        getenv("TILES_LAYOUT", ""),
		CandidatesPath:     getenv("CANDIDATES_PATH", "data/lat_long.csv"),
		CandidatesSource:   strings.ToLower(getenv("CANDIDATES_SOURCE", "file")),
		CandidatesQuery:    getenv("CANDIDATES_QUERY", ""),
		CheckpointBackend:  strings.ToLower(getenv("CHECKPOINT_BACKEND", "file")),
		CheckpointPath:     getenv("CHECKPOINT_PATH", "data/search_current_status.json"),
		CheckpointRedisKey: getenv("CHECKPOINT_REDIS_KEY", checkpoint.DefaultRedisKey),
		DetectionDir:       getenv("DETECTION_DIR", "data/positive_tiles"),
		DetectionDB:        strings.ToLower(getenv("DETECTION_DB", "none")),
		Oracle:             strings.ToLower(getenv("ORACLE", "terminal")),
		PreviewPath:        getenv("CANVAS_PREVIEW_PATH", "data/canvas.png"),
		TelegramToken:      os.Getenv("TELEGRAM_BOT_TOKEN"),
		MetricsAddr:        os.Getenv("METRICS_ADDR"),
	}
	var err error
	if c.Zoom, err = getint("TILES_ZOOM", 20); err != nil {
		return c, err
	}
	if c.TileSize, err = getint("TILE_SIZE", 256); err != nil {
		return c, err
	}
	if c.GridSize, err = getint("GRID_SIZE", 5); err != nil {
		return c, err
	}
	if c.JPEGQuality, err = getint("JPEG_QUALITY", 95); err != nil {
		return c, err
	}
	if c.TileCacheSize, err = getint("TILE_CACHE_SIZE", 256); err != nil {
		return c, err
	}
	c.RequireCenter = true
	if v := os.Getenv("SCAN_REQUIRE_CENTER"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return c, fmt.Errorf("SCAN_REQUIRE_CENTER: %w", err)
		}
		c.RequireCenter = b
	}
	c.PreviewScale = 1
	if v := os.Getenv("CANVAS_PREVIEW_SCALE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return c, fmt.Errorf("CANVAS_PREVIEW_SCALE: %w", err)
		}
		c.PreviewScale = f
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c, fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
		}
		c.TelegramChatID = id
	}
	return c, nil
}

// Validate：几何参数与枚举值检查；失败属于配置错误，启动即退出
func (c Config) Validate() error {
	if err := mosaic.ValidateGeometry(c.GridSize, c.TileSize); err != nil {
		return err
	}
	if c.Zoom < 0 || c.Zoom > tilemath.MaxZoom {
		return fmt.Errorf("TILES_ZOOM %d outside [0, %d]", c.Zoom, tilemath.MaxZoom)
	}
	if c.TilesDir == "" {
		return fmt.Errorf("TILES_DIR is empty")
	}
	switch c.CandidatesSource {
	case "file", "postgres", "sqlite":
	default:
		return fmt.Errorf("CANDIDATES_SOURCE %q: want file, postgres or sqlite", c.CandidatesSource)
	}
	switch c.CheckpointBackend {
	case "file":
		if c.CheckpointPath == "" {
			return fmt.Errorf("CHECKPOINT_PATH is empty")
		}
	case "redis":
	default:
		return fmt.Errorf("CHECKPOINT_BACKEND %q: want file or redis", c.CheckpointBackend)
	}
	switch c.DetectionDB {
	case "none", "postgres", "sqlite":
	default:
		return fmt.Errorf("DETECTION_DB %q: want none, postgres or sqlite", c.DetectionDB)
	}
	switch c.Oracle {
	case "terminal":
	case "telegram":
		if c.TelegramToken == "" || c.TelegramChatID == 0 {
			return fmt.Errorf("ORACLE=telegram needs TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID")
		}
	default:
		return fmt.Errorf("ORACLE %q: want terminal or telegram", c.Oracle)
	}
	return nil
}
