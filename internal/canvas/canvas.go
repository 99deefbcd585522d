package canvas

import (
	"fmt"

	"tile-scan/internal/mosaic"
	"tile-scan/internal/tilemath"
)

// Canvas：3×3 检视画布；Cells[1][1] 为未错位中心瓦片，其余 8 格各来自一种错位网格
// 约束：每个候选点重建一次，不跨候选保留
type Canvas struct {
	Cells  [Size][Size]*mosaic.Raster
	Center tilemath.TileCoordinate
	Index  mosaic.IndexMap
}

// Tile：画布单元像素；越界返回 nil
func (c *Canvas) Tile(cell Cell) *mosaic.Raster {
	if !cell.Valid() {
		return nil
	}
	return c.Cells[cell.Row][cell.Col]
}

// Resolve：画布单元反解为原始瓦片编号与错位类型
func (c *Canvas) Resolve(cell Cell) (ResolvedTile, error) {
	return Resolve(cell, c.Center, c.Index)
}

// Extract：按固定映射表填满 9 个单元
// 约束：shifted 必须包含 RIGHT/BOTTOM/RIGHT_BOTTOM 三种网格；缺少网格或单元越界属于接线错误
func Extract(grid *mosaic.Grid, shifted map[mosaic.ShiftType]*mosaic.ShiftedGrid) (*Canvas, error) {
	cv := &Canvas{Center: grid.Center, Index: grid.Index}
	cv.Cells[CenterCell.Row][CenterCell.Col] = grid.CenterTile().Clone()
	k := grid.K()
	for _, p := range placements {
		sg, ok := shifted[p.shift]
		if !ok || sg == nil {
			return nil, fmt.Errorf("canvas: no %s grid to extract from", p.shift)
		}
		src := p.source(k)
		tile := sg.At(src.Row, src.Col)
		if tile == nil {
			return nil, fmt.Errorf("canvas: %s grid is %dx%d, cell %d,%d out of range", p.shift, sg.Rows, sg.Cols, src.Row, src.Col)
		}
		cv.Cells[p.to.Row][p.to.Col] = tile.Clone()
	}
	return cv, nil
}

// Build：拼接马赛克、三种错位重切、提取画布
func Build(grid *mosaic.Grid) (*Canvas, error) {
	m := grid.Mosaic()
	shifted := make(map[mosaic.ShiftType]*mosaic.ShiftedGrid, len(mosaic.Shifts))
	for _, s := range mosaic.Shifts {
		sg, err := mosaic.Retile(m, s, grid.TileWidth)
		if err != nil {
			return nil, err
		}
		shifted[s] = sg
	}
	return Extract(grid, shifted)
}
