// 包 store: 检测记录的 SQL 访问层，支持 PostgreSQL 与 SQLite
package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"tile-scan/internal/canvas"
	"tile-scan/internal/logger"
	"tile-scan/internal/migrate"
	"tile-scan/internal/mosaic"
	"tile-scan/internal/sink"
	"tile-scan/internal/tilemath"
)

// Store: 数据库访问入口，持有连接池并实现 sink.Sink
type Store struct {
	db      *sql.DB
	dialect migrate.Dialect
	// ImageDir: 非空时记录 image_path 为 ImageDir/{name}.jpeg
	ImageDir string
}

func AttachDB(db *sql.DB, d migrate.Dialect) *Store { return &Store{db: db, dialect: d} }

// Close: 关闭数据库连接
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// rebind: SQLite 使用 ? 占位符
func (s *Store) rebind(q string) string {
	if s.dialect != migrate.SQLite {
		return q
	}
	var b strings.Builder
	for i := 0; i < len(q); i++ {
		if q[i] == '$' && i+1 < len(q) && q[i+1] >= '0' && q[i+1] <= '9' {
			b.WriteByte('?')
			for i+1 < len(q) && q[i+1] >= '0' && q[i+1] <= '9' {
				i++
			}
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}

// Save: 写入一条命中；同名记录已存在时保留首条
func (s *Store) Save(ctx context.Context, d sink.Detection) error {
	name := d.Name()
	path := ""
	if s.ImageDir != "" {
		path = filepath.Join(s.ImageDir, name+".jpeg")
	}
	t := d.Resolved.Tile
	res, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO _tile_detections(name, candidate_id, zoom, tile_x, tile_y, shift, cell_row, cell_col, image_path, run_id)
        VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        ON CONFLICT (name) DO NOTHING`),
		name, d.CandidateID, t.Zoom, int64(t.X), int64(t.Y), d.Resolved.Shift.String(), d.Cell.Row, d.Cell.Col, path, d.RunID,
	)
	if err != nil {
		return fmt.Errorf("store: insert %s: %w", name, err)
	}
	n, _ := res.RowsAffected()
	logger.L().Debug("db_detection_saved", "name", name, "inserted", n == 1)
	return nil
}

// CountDetections: 记录总数
func (s *Store) CountDetections(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM _tile_detections").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Record: 一条检测记录
type Record struct {
	Name        string
	CandidateID int64
	Resolved    canvas.ResolvedTile
	Cell        canvas.Cell
	ImagePath   string
	RunID       string
}

// ListDetections: 按 candidate_id、name 排序返回；runID 为空时不过滤，limit<=0 时默认 1000
func (s *Store) ListDetections(ctx context.Context, runID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 1000
	}
	q := `SELECT name, candidate_id, zoom, tile_x, tile_y, shift, cell_row, cell_col, image_path, run_id
        FROM _tile_detections`
	args := []any{}
	if runID != "" {
		q += ` WHERE run_id=$1`
		args = append(args, runID)
	}
	q += ` ORDER BY candidate_id, name LIMIT ` + strconv.Itoa(limit)
	rows, err := s.db.QueryContext(ctx, s.rebind(q), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var r Record
		var zoom int
		var x, y int64
		var shift string
		if err := rows.Scan(&r.Name, &r.CandidateID, &zoom, &x, &y, &shift, &r.Cell.Row, &r.Cell.Col, &r.ImagePath, &r.RunID); err != nil {
			return nil, err
		}
		st, err := mosaic.ParseShift(shift)
		if err != nil {
			return nil, fmt.Errorf("store: record %s: %w", r.Name, err)
		}
		r.Resolved = canvas.ResolvedTile{Tile: tilemath.TileCoordinate{X: int(x), Y: int(y), Zoom: zoom}, Shift: st}
		out = append(out, r)
	}
	return out, rows.Err()
}
