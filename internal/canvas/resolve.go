package canvas

import (
	"errors"
	"fmt"

	"tile-scan/internal/mosaic"
	"tile-scan/internal/tilemath"
)

// ErrUnresolvable：画布单元既不是中心也不在映射表中；映射表覆盖全部单元，出现即为接线错误
var ErrUnresolvable = errors.New("canvas: cell cannot be resolved")

// ResolvedTile：一次命中的规范身份
type ResolvedTile struct {
	Tile  tilemath.TileCoordinate
	Shift mosaic.ShiftType
}

// Name：{zoom}_{x}_{y}{后缀}，错位命中与未错位命中互不冲突
func (r ResolvedTile) Name() string {
	return fmt.Sprintf("%d_%d_%d%s", r.Tile.Zoom, r.Tile.X, r.Tile.Y, r.Shift.Suffix())
}

// Resolve：中心单元返回 {center, NONE}；其余单元查映射表得到错位网格单元，
// 再把原始索引表沿受影响的轴去掉最后一行/列，用该单元下标取出瓦片编号
func Resolve(cell Cell, center tilemath.TileCoordinate, index mosaic.IndexMap) (ResolvedTile, error) {
	if cell == CenterCell {
		return ResolvedTile{Tile: center, Shift: mosaic.ShiftNone}, nil
	}
	p, ok := lookup(cell)
	if !ok {
		return ResolvedTile{}, fmt.Errorf("%w: %d,%d", ErrUnresolvable, cell.Row, cell.Col)
	}
	dropRows, dropCols := 0, 0
	if p.shift.Vertical() {
		dropRows = 1
	}
	if p.shift.Horizontal() {
		dropCols = 1
	}
	cropped := index.Truncate(dropRows, dropCols)
	k := (index.Rows() - 1) / 2
	src := p.source(k)
	if src.Row < 0 || src.Col < 0 || src.Row >= cropped.Rows() || src.Col >= cropped.Cols() {
		return ResolvedTile{}, fmt.Errorf("%w: %s cell %d,%d outside %dx%d index", ErrUnresolvable, p.shift, src.Row, src.Col, cropped.Rows(), cropped.Cols())
	}
	return ResolvedTile{Tile: cropped[src.Row][src.Col], Shift: p.shift}, nil
}
