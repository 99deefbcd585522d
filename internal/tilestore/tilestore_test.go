package tilestore_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tile-scan/internal/tilemath"
	"tile-scan/internal/tilestore"
)

func writeTile(t *testing.T, path string, c color.Color, asPNG bool) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	if asPNG {
		require.NoError(t, png.Encode(f, img))
	} else {
		require.NoError(t, jpeg.Encode(f, img, &jpeg.Options{Quality: 95}))
	}
}

func TestDirStoreLayoutAndDecode(t *testing.T) {
	root := t.TempDir()
	tile := tilemath.TileCoordinate{X: 5, Y: 9, Zoom: 4}
	writeTile(t, filepath.Join(root, "4", "5", "9.png"), color.RGBA{R: 200, A: 255}, true)

	s := tilestore.NewDirStore(root, "")
	assert.Equal(t, filepath.Join(root, "4", "5", "9"), s.PathFor(tile))

	img, err := s.Get(context.Background(), tile)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
	r, _, _, _ := img.At(3, 3).RGBA()
	assert.Equal(t, uint32(200), r>>8)
}

func TestDirStorePrefersJPEGExtensionOrder(t *testing.T) {
	root := t.TempDir()
	tile := tilemath.TileCoordinate{X: 1, Y: 1, Zoom: 1}
	writeTile(t, filepath.Join(root, "1", "1", "1.jpeg"), color.White, false)
	writeTile(t, filepath.Join(root, "1", "1", "1.png"), color.Black, true)

	fp, ok := tilestore.NewDirStore(root, "").Locate(tile)
	require.True(t, ok)
	assert.Equal(t, ".jpeg", filepath.Ext(fp))
}

func TestDirStoreMisses(t *testing.T) {
	root := t.TempDir()
	s := tilestore.NewDirStore(root, "{x}/{y}")

	_, err := s.Get(context.Background(), tilemath.TileCoordinate{X: 3, Y: 3, Zoom: 3})
	assert.ErrorIs(t, err, tilestore.ErrNotFound)

	// 越界编号：不访问磁盘
	_, err = s.Get(context.Background(), tilemath.TileCoordinate{X: -1, Y: 0, Zoom: 3})
	assert.ErrorIs(t, err, tilestore.ErrNotFound)
}

func TestDirStoreCorruptFileIsNotAMiss(t *testing.T) {
	root := t.TempDir()
	fp := filepath.Join(root, "2", "1", "1.jpeg")
	require.NoError(t, os.MkdirAll(filepath.Dir(fp), 0o755))
	require.NoError(t, os.WriteFile(fp, []byte("not an image"), 0o644))

	_, err := tilestore.NewDirStore(root, "").Get(context.Background(), tilemath.TileCoordinate{X: 1, Y: 1, Zoom: 2})
	require.Error(t, err)
	assert.False(t, errors.Is(err, tilestore.ErrNotFound))
}

type failingStore struct{ err error }

func (f failingStore) Get(context.Context, tilemath.TileCoordinate) (image.Image, error) {
	return nil, f.err
}

func TestChain(t *testing.T) {
	tile := tilemath.TileCoordinate{X: 2, Y: 2, Zoom: 3}
	a := tilestore.NewMemory()
	b := tilestore.NewMemory()
	want := image.NewRGBA(image.Rect(0, 0, 2, 2))
	b.Put(tile, want)

	c := tilestore.NewChain(nil, a, b)
	got, err := c.Get(context.Background(), tile)
	require.NoError(t, err)
	assert.Same(t, want, got)

	_, err = c.Get(context.Background(), tile.Offset(1, 0))
	assert.ErrorIs(t, err, tilestore.ErrNotFound)

	boom := errors.New("disk on fire")
	_, err = tilestore.NewChain(failingStore{err: boom}, b).Get(context.Background(), tile)
	assert.ErrorIs(t, err, boom)
}

type countingStore struct {
	next  tilestore.Store
	calls int
}

func (c *countingStore) Get(ctx context.Context, t tilemath.TileCoordinate) (image.Image, error) {
	c.calls++
	return c.next.Get(ctx, t)
}

func TestCachedHitsMissesAndEviction(t *testing.T) {
	ctx := context.Background()
	a := tilemath.TileCoordinate{X: 1, Y: 1, Zoom: 4}
	b := a.Offset(1, 0)
	c := a.Offset(2, 0)
	mem := tilestore.NewMemory()
	mem.Put(a, image.NewRGBA(image.Rect(0, 0, 2, 2)))
	mem.Put(b, image.NewRGBA(image.Rect(0, 0, 2, 2)))
	inner := &countingStore{next: mem}
	cache := tilestore.NewCached(inner, 2)

	first, err := cache.Get(ctx, a)
	require.NoError(t, err)
	again, err := cache.Get(ctx, a)
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Equal(t, 1, inner.calls)

	_, err = cache.Get(ctx, c)
	assert.ErrorIs(t, err, tilestore.ErrNotFound)
	_, err = cache.Get(ctx, c)
	assert.ErrorIs(t, err, tilestore.ErrNotFound)
	assert.Equal(t, 2, inner.calls)

	// a 最久未用，被 b 挤出
	_, err = cache.Get(ctx, b)
	require.NoError(t, err)
	_, err = cache.Get(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, 4, inner.calls)

	hits, misses := cache.Stats()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(4), misses)
}

func TestCachedDoesNotKeepErrors(t *testing.T) {
	boom := errors.New("io")
	inner := &countingStore{next: failingStore{err: boom}}
	cache := tilestore.NewCached(inner, 4)
	tile := tilemath.TileCoordinate{X: 0, Y: 0, Zoom: 1}
	for i := 0; i < 2; i++ {
		_, err := cache.Get(context.Background(), tile)
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, 2, inner.calls)
}
