package scan

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"tile-scan/internal/candidates"
	"tile-scan/internal/checkpoint"
	"tile-scan/internal/logger"
	"tile-scan/internal/metrics"
	"tile-scan/internal/migrate"
	"tile-scan/internal/sink"
	"tile-scan/internal/store"
	"tile-scan/internal/tilestore"
	"tile-scan/internal/utils"
)

// OpenTiles：TILES_DIR 可用路径分隔符列出多个目录，按顺序查找；TILE_CACHE_SIZE > 0 时包一层解码缓存
func OpenTiles(c Config) tilestore.Store {
	var s tilestore.Store
	dirs := filepath.SplitList(c.TilesDir)
	if len(dirs) == 1 {
		s = tilestore.NewDirStore(dirs[0], c.TilesLayout)
	} else {
		list := make([]tilestore.Store, 0, len(dirs))
		for _, d := range dirs {
			if d != "" {
				list = append(list, tilestore.NewDirStore(d, c.TilesLayout))
			}
		}
		s = tilestore.NewChain(list...)
	}
	if c.TileCacheSize > 0 {
		return tilestore.NewCached(s, c.TileCacheSize)
	}
	return s
}

func openSQL(kind string) (*sql.DB, migrate.Dialect, error) {
	d, err := migrate.ParseDialect(kind)
	if err != nil {
		return nil, "", err
	}
	var db *sql.DB
	if d == migrate.SQLite {
		db, err = utils.OpenSQLiteFromEnv()
	} else {
		db, err = utils.OpenPostgresFromEnv()
	}
	if err != nil {
		return nil, "", err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("%s ping: %w", d, err)
	}
	return db, d, nil
}

// LoadCandidates：按 CANDIDATES_SOURCE 读取候选
func LoadCandidates(ctx context.Context, c Config) ([]candidates.Candidate, error) {
	if c.CandidatesSource == "file" {
		return candidates.LoadFile(c.CandidatesPath)
	}
	db, _, err := openSQL(c.CandidatesSource)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return candidates.LoadSQL(ctx, db, c.CandidatesQuery)
}

// LoadTargets：读取候选并换算瓦片编号；无法换算的候选记日志并计数
func LoadTargets(ctx context.Context, c Config) ([]candidates.Target, error) {
	cands, err := LoadCandidates(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	targets, rejected, err := candidates.ToTargets(cands, c.Zoom)
	if err != nil {
		return nil, err
	}
	if len(rejected) > 0 {
		metrics.CandidatesSkippedTotal.WithLabelValues("invalid_coordinate").Add(float64(len(rejected)))
	}
	logger.L().Info("candidates_loaded", "total", len(cands), "targets", len(targets), "rejected", len(rejected), "zoom", c.Zoom)
	return targets, nil
}

// ResettableStore：检查点存储，支持清除
type ResettableStore interface {
	checkpoint.Store
	Reset(ctx context.Context) error
}

// OpenCheckpoint：file 或 redis 检查点；返回的 close 函数总是非 nil
func OpenCheckpoint(ctx context.Context, c Config) (ResettableStore, func(), error) {
	switch c.CheckpointBackend {
	case "redis":
		rdb := utils.OpenRedisFromEnv()
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, func() {}, fmt.Errorf("redis ping: %w", err)
		}
		return checkpoint.NewRedisStore(rdb, c.CheckpointRedisKey), func() { _ = rdb.Close() }, nil
	case "file", "":
		return checkpoint.NewFileStore(c.CheckpointPath), func() {}, nil
	}
	return nil, func() {}, fmt.Errorf("unknown checkpoint backend %q", c.CheckpointBackend)
}

// OpenSink：目录 JPEG 为主，DETECTION_DB 非 none 时追加 SQL 记录
func OpenSink(c Config) (sink.Sink, func(), error) {
	dir, err := sink.NewDirSink(c.DetectionDir, c.JPEGQuality)
	if err != nil {
		return nil, func() {}, err
	}
	if c.DetectionDB == "none" || c.DetectionDB == "" {
		return dir, func() {}, nil
	}
	db, d, err := openSQL(c.DetectionDB)
	if err != nil {
		return nil, func() {}, err
	}
	if err := migrate.EnsureSchema(db, d); err != nil {
		db.Close()
		return nil, func() {}, fmt.Errorf("schema: %w", err)
	}
	st := store.AttachDB(db, d)
	st.ImageDir = c.DetectionDir
	return sink.NewMulti(dir, st), func() { _ = st.Close() }, nil
}
