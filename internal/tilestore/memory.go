package tilestore

import (
	"context"
	"image"
	"sync"

	"tile-scan/internal/tilemath"
)

// Memory：进程内瓦片源，用于预载场景与测试
type Memory struct {
	mu    sync.RWMutex
	tiles map[tilemath.TileCoordinate]image.Image
}

func NewMemory() *Memory {
	return &Memory{tiles: make(map[tilemath.TileCoordinate]image.Image)}
}

func (m *Memory) Put(t tilemath.TileCoordinate, img image.Image) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tiles[t] = img
}

func (m *Memory) Delete(t tilemath.TileCoordinate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tiles, t)
}

func (m *Memory) Get(ctx context.Context, t tilemath.TileCoordinate) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	img, ok := m.tiles[t]
	if !ok {
		return nil, ErrNotFound
	}
	return img, nil
}
