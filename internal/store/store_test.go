package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tile-scan/internal/canvas"
	"tile-scan/internal/migrate"
	"tile-scan/internal/mosaic"
	"tile-scan/internal/sink"
	"tile-scan/internal/tilemath"
	"tile-scan/internal/utils"
)

func openSQLite(t *testing.T) *Store {
	t.Helper()
	db, err := utils.OpenSQLite(filepath.Join(t.TempDir(), "detections.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrate.EnsureSchema(db, migrate.SQLite))
	// 重复执行无副作用
	require.NoError(t, migrate.EnsureSchema(db, migrate.SQLite))
	return AttachDB(db, migrate.SQLite)
}

func det(id int64, cell canvas.Cell, x, y int, shift mosaic.ShiftType, run string) sink.Detection {
	return sink.Detection{
		CandidateID: id,
		Cell:        cell,
		Resolved:    canvas.ResolvedTile{Tile: tilemath.TileCoordinate{X: x, Y: y, Zoom: 20}, Shift: shift},
		RunID:       run,
	}
}

func TestRebind(t *testing.T) {
	pg := &Store{dialect: migrate.Postgres}
	sq := &Store{dialect: migrate.SQLite}
	q := "SELECT 1 WHERE a=$1 AND b=$10 AND c='$'"
	assert.Equal(t, q, pg.rebind(q))
	assert.Equal(t, "SELECT 1 WHERE a=? AND b=? AND c='$'", sq.rebind(q))
}

func TestSaveAndList(t *testing.T) {
	s := openSQLite(t)
	s.ImageDir = "out"
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, det(2, canvas.Cell{Row: 0, Col: 0}, 9, 9, mosaic.ShiftRightBottom, "run-a")))
	require.NoError(t, s.Save(ctx, det(1, canvas.CenterCell, 10, 10, mosaic.ShiftNone, "run-a")))
	// 同名记录保留首条
	require.NoError(t, s.Save(ctx, det(3, canvas.CenterCell, 10, 10, mosaic.ShiftNone, "run-b")))
	require.NoError(t, s.Save(ctx, det(3, canvas.Cell{Row: 1, Col: 2}, 10, 10, mosaic.ShiftRight, "run-b")))

	n, err := s.CountDetections(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	all, err := s.ListDetections(ctx, "", 0)
	require.NoError(t, err)
	want := []Record{
		{
			Name: "20_10_10", CandidateID: 1, Cell: canvas.CenterCell,
			Resolved:  canvas.ResolvedTile{Tile: tilemath.TileCoordinate{X: 10, Y: 10, Zoom: 20}, Shift: mosaic.ShiftNone},
			ImagePath: filepath.Join("out", "20_10_10.jpeg"), RunID: "run-a",
		},
		{
			Name: "20_9_9_shift_rb", CandidateID: 2, Cell: canvas.Cell{Row: 0, Col: 0},
			Resolved:  canvas.ResolvedTile{Tile: tilemath.TileCoordinate{X: 9, Y: 9, Zoom: 20}, Shift: mosaic.ShiftRightBottom},
			ImagePath: filepath.Join("out", "20_9_9_shift_rb.jpeg"), RunID: "run-a",
		},
		{
			Name: "20_10_10_shift_r", CandidateID: 3, Cell: canvas.Cell{Row: 1, Col: 2},
			Resolved:  canvas.ResolvedTile{Tile: tilemath.TileCoordinate{X: 10, Y: 10, Zoom: 20}, Shift: mosaic.ShiftRight},
			ImagePath: filepath.Join("out", "20_10_10_shift_r.jpeg"), RunID: "run-b",
		},
	}
	if diff := cmp.Diff(want, all); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}

	runB, err := s.ListDetections(ctx, "run-b", 10)
	require.NoError(t, err)
	require.Len(t, runB, 1)
	assert.Equal(t, "20_10_10_shift_r", runB[0].Name)

	limited, err := s.ListDetections(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestEnsureSchemaRejectsUnknownDialect(t *testing.T) {
	s := openSQLite(t)
	assert.Error(t, migrate.EnsureSchema(s.DB(), migrate.Dialect("oracle")))

	d, err := migrate.ParseDialect("pg")
	require.NoError(t, err)
	assert.Equal(t, migrate.Postgres, d)
	_, err = migrate.ParseDialect("mysql")
	assert.Error(t, err)
}
