package scan

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tile-scan/internal/canvas"
	"tile-scan/internal/checkpoint"
	"tile-scan/internal/mosaic"
	"tile-scan/internal/sink"
	"tile-scan/internal/store"
	"tile-scan/internal/tilemath"
	"tile-scan/internal/tilestore"
)

func TestOpenTiles(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	single := OpenTiles(Config{TilesDir: a})
	assert.IsType(t, &tilestore.DirStore{}, single)

	chained := OpenTiles(Config{TilesDir: a + string(os.PathListSeparator) + b})
	require.IsType(t, &tilestore.Chain{}, chained)
	_, err := chained.Get(context.Background(), tilemath.TileCoordinate{X: 1, Y: 1, Zoom: 3})
	assert.ErrorIs(t, err, tilestore.ErrNotFound)

	cached := OpenTiles(Config{TilesDir: a, TileCacheSize: 16})
	assert.IsType(t, &tilestore.Cached{}, cached)
}

func TestLoadTargetsFromFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "lat_long.csv")
	require.NoError(t, os.WriteFile(p, []byte("id,latitude,longitude\n1,52.52,13.405\n2,89.9,0\n"), 0o644))
	targets, err := LoadTargets(context.Background(), Config{CandidatesSource: "file", CandidatesPath: p, Zoom: 10})
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, tilemath.TileCoordinate{X: 550, Y: 335, Zoom: 10}, targets[0].Tile)
}

func TestLoadTargetsFromSQLite(t *testing.T) {
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "cands.db"))
	db, _, err := openSQL("sqlite")
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE candidates (id INTEGER PRIMARY KEY, latitude REAL, longitude REAL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO candidates VALUES (4, 52.52, 13.405)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	targets, err := LoadTargets(context.Background(), Config{CandidatesSource: "sqlite", Zoom: 10})
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, int64(4), targets[0].ID)
}

func TestOpenCheckpointFile(t *testing.T) {
	ctx := context.Background()
	s, closeFn, err := OpenCheckpoint(ctx, Config{CheckpointBackend: "file", CheckpointPath: filepath.Join(t.TempDir(), "cp.json")})
	require.NoError(t, err)
	defer closeFn()
	require.NoError(t, checkpoint.Advance(ctx, s, 3, 1))
	require.NoError(t, s.Reset(ctx))

	_, closeFn2, err := OpenCheckpoint(ctx, Config{CheckpointBackend: "etcd"})
	assert.Error(t, err)
	closeFn2()
}

func TestOpenSinkWithSQLite(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "detections.db"))
	s, closeFn, err := OpenSink(Config{DetectionDir: filepath.Join(dir, "out"), DetectionDB: "sqlite", JPEGQuality: 90})
	require.NoError(t, err)
	defer closeFn()

	img := mosaic.FromImage(image.NewRGBA(image.Rect(0, 0, 8, 8)))
	d := sink.Detection{
		CandidateID: 1,
		Cell:        canvas.CenterCell,
		Resolved:    canvas.ResolvedTile{Tile: tilemath.TileCoordinate{X: 10, Y: 10, Zoom: 20}, Shift: mosaic.ShiftNone},
		Image:       img,
	}
	require.NoError(t, s.Save(context.Background(), d))
	_, err = os.Stat(filepath.Join(dir, "out", "20_10_10.jpeg"))
	require.NoError(t, err)

	multi, ok := s.(sink.Multi)
	require.True(t, ok)
	require.Len(t, multi, 2)
	st, ok := multi[1].(*store.Store)
	require.True(t, ok)
	n, err := st.CountDetections(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
