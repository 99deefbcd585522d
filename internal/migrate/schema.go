package migrate

import (
	"database/sql"
	"fmt"

	"tile-scan/internal/logger"
)

// Dialect：检测记录库的 SQL 方言
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// ParseDialect：接受 postgres / pg / sqlite / sqlite3
func ParseDialect(v string) (Dialect, error) {
	switch v {
	case "postgres", "pg", "postgresql":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return "", fmt.Errorf("unknown sql dialect %q", v)
}

// 背景：首次运行自动创建检测记录表与索引
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；name 为主键，重复命中只保留首条
func EnsureSchema(db *sql.DB, d Dialect) error {
	var stmts []string
	switch d {
	case Postgres:
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS _tile_detections (
            name TEXT PRIMARY KEY,
            candidate_id BIGINT NOT NULL,
            zoom INT NOT NULL,
            tile_x BIGINT NOT NULL,
            tile_y BIGINT NOT NULL,
            shift TEXT NOT NULL,
            cell_row INT NOT NULL,
            cell_col INT NOT NULL,
            image_path TEXT NOT NULL DEFAULT '',
            run_id TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
			`CREATE INDEX IF NOT EXISTS idx_tile_detections_candidate ON _tile_detections(candidate_id)`,
			`CREATE INDEX IF NOT EXISTS idx_tile_detections_run ON _tile_detections(run_id)`,
		}
	case SQLite:
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS _tile_detections (
            name TEXT PRIMARY KEY,
            candidate_id INTEGER NOT NULL,
            zoom INTEGER NOT NULL,
            tile_x INTEGER NOT NULL,
            tile_y INTEGER NOT NULL,
            shift TEXT NOT NULL,
            cell_row INTEGER NOT NULL,
            cell_col INTEGER NOT NULL,
            image_path TEXT NOT NULL DEFAULT '',
            run_id TEXT NOT NULL DEFAULT '',
            created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
        )`,
			`CREATE INDEX IF NOT EXISTS idx_tile_detections_candidate ON _tile_detections(candidate_id)`,
			`CREATE INDEX IF NOT EXISTS idx_tile_detections_run ON _tile_detections(run_id)`,
		}
	default:
		return fmt.Errorf("unknown sql dialect %q", d)
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "dialect", string(d), "idx", i)
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done", "dialect", string(d))
	return nil
}
