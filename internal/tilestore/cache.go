package tilestore

import (
	"container/list"
	"context"
	"errors"
	"image"
	"sync"

	"tile-scan/internal/tilemath"
)

// 文档注释：已解码瓦片的进程内 LRU
// 背景：相邻候选点的 5×5 窗口大量重叠，缓存解码结果避免重复读盘与解码；未命中（ErrNotFound）同样缓存。
// 约束：其他错误不缓存；容量 <= 0 时直接透传。
type Cached struct {
	next Store
	mu   sync.Mutex
	size int
	lst  *list.List
	dict map[tilemath.TileCoordinate]*list.Element

	hits, misses int64
}

type entry struct {
	k   tilemath.TileCoordinate
	img image.Image // nil 表示瓦片不存在
}

func NewCached(next Store, capacity int) *Cached {
	return &Cached{next: next, size: capacity, lst: list.New(), dict: make(map[tilemath.TileCoordinate]*list.Element)}
}

func (c *Cached) Get(ctx context.Context, t tilemath.TileCoordinate) (image.Image, error) {
	if c.size <= 0 {
		return c.next.Get(ctx, t)
	}
	if e, ok := c.lookup(t); ok {
		if e.img == nil {
			return nil, ErrNotFound
		}
		return e.img, nil
	}
	img, err := c.next.Get(ctx, t)
	switch {
	case err == nil:
		c.set(t, img)
	case errors.Is(err, ErrNotFound):
		c.set(t, nil)
	}
	return img, err
}

// Stats：命中与未命中次数
func (c *Cached) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *Cached) lookup(k tilemath.TileCoordinate) (entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.dict[k]; ok {
		c.lst.MoveToFront(e)
		c.hits++
		return e.Value.(entry), true
	}
	c.misses++
	return entry{}, false
}

func (c *Cached) set(k tilemath.TileCoordinate, img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.dict[k]; ok {
		e.Value = entry{k: k, img: img}
		c.lst.MoveToFront(e)
		return
	}
	c.dict[k] = c.lst.PushFront(entry{k: k, img: img})
	for c.lst.Len() > c.size {
		back := c.lst.Back()
		delete(c.dict, back.Value.(entry).k)
		c.lst.Remove(back)
	}
}
