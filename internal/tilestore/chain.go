package tilestore

import (
	"context"
	"errors"
	"image"

	"tile-scan/internal/tilemath"
)

// Chain：按顺序查询多个瓦片源，首个非 ErrNotFound 的结果即返回
// 约束：nil 成员跳过；全部未命中时返回 ErrNotFound；其它错误立即透传
type Chain struct {
	list []Store
}

func NewChain(list ...Store) *Chain {
	return &Chain{list: list}
}

func (c *Chain) Get(ctx context.Context, t tilemath.TileCoordinate) (image.Image, error) {
	for _, s := range c.list {
		if s == nil {
			continue
		}
		img, err := s.Get(ctx, t)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return img, err
	}
	return nil, ErrNotFound
}
