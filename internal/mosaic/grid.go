package mosaic

import (
	"context"
	"errors"
	"fmt"

	"tile-scan/internal/logger"
	"tile-scan/internal/tilemath"
	"tile-scan/internal/tilestore"
)

// IndexMap：网格单元 [row][col] 到瓦片编号的映射；row 随 Y 增长，col 随 X 增长
type IndexMap [][]tilemath.TileCoordinate

// NewIndexMap：以 center 为中心的 size×size 窗口，边界不做裁剪
func NewIndexMap(center tilemath.TileCoordinate, size int) IndexMap {
	k := (size - 1) / 2
	m := make(IndexMap, size)
	for row := 0; row < size; row++ {
		m[row] = make([]tilemath.TileCoordinate, size)
		for col := 0; col < size; col++ {
			m[row][col] = center.Offset(col-k, row-k)
		}
	}
	return m
}

// Rows / Cols：维度
func (m IndexMap) Rows() int { return len(m) }

func (m IndexMap) Cols() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// Truncate：去掉最后 dropRows 行与 dropCols 列（与错位重切后的网格对齐）
func (m IndexMap) Truncate(dropRows, dropCols int) IndexMap {
	rows := len(m) - dropRows
	if rows < 0 {
		rows = 0
	}
	out := make(IndexMap, rows)
	for i := 0; i < rows; i++ {
		cols := len(m[i]) - dropCols
		if cols < 0 {
			cols = 0
		}
		out[i] = m[i][:cols:cols]
	}
	return out
}

// Grid：以参考瓦片为中心的 size×size 瓦片网格
// 约束：Tiles 形状固定，缺失瓦片以全零像素占位并记录在 Missing；中心单元恒为 Center
type Grid struct {
	Size      int
	TileWidth int
	Center    tilemath.TileCoordinate
	Index     IndexMap
	Tiles     [][]*Raster
	Missing   []tilemath.TileCoordinate
}

// K：中心单元下标
func (g *Grid) K() int { return (g.Size - 1) / 2 }

// CenterTile：中心瓦片像素
func (g *Grid) CenterTile() *Raster { return g.Tiles[g.K()][g.K()] }

// CenterMissing：中心瓦片是否缺失
func (g *Grid) CenterMissing() bool {
	for _, t := range g.Missing {
		if t == g.Center {
			return true
		}
	}
	return false
}

// Assemble：逐格向瓦片源取图并组装网格
// 约束：ErrNotFound 降级为全零瓦片，不视为失败；其它读取错误与尺寸不符（非 tileWidth 正方形）直接返回
func Assemble(ctx context.Context, store tilestore.Store, center tilemath.TileCoordinate, size, tileWidth int) (*Grid, error) {
	if err := ValidateGeometry(size, tileWidth); err != nil {
		return nil, err
	}
	g := &Grid{
		Size:      size,
		TileWidth: tileWidth,
		Center:    center,
		Index:     NewIndexMap(center, size),
		Tiles:     make([][]*Raster, size),
	}
	for row := 0; row < size; row++ {
		g.Tiles[row] = make([]*Raster, size)
		for col := 0; col < size; col++ {
			tc := g.Index[row][col]
			img, err := store.Get(ctx, tc)
			if errors.Is(err, tilestore.ErrNotFound) {
				logger.L().Debug("tile_missing", "tile", tc.String())
				g.Tiles[row][col] = NewRaster(tileWidth, tileWidth)
				g.Missing = append(g.Missing, tc)
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("mosaic: load tile %s: %w", tc, err)
			}
			b := img.Bounds()
			if b.Dx() != tileWidth || b.Dy() != tileWidth {
				return nil, fmt.Errorf("%w: tile %s is %dx%d, want %dx%d", ErrGeometry, tc, b.Dx(), b.Dy(), tileWidth, tileWidth)
			}
			g.Tiles[row][col] = FromImage(img)
		}
	}
	return g, nil
}

// Mosaic：先在每行内横向拼接，再把各行纵向堆叠；每次调用生成新的像素数组
func (g *Grid) Mosaic() *Raster {
	w := g.TileWidth
	out := NewRaster(g.Size*w, g.Size*w)
	for row := 0; row < g.Size; row++ {
		for col := 0; col < g.Size; col++ {
			out.Paste(g.Tiles[row][col], col*w, row*w)
		}
	}
	return out
}
