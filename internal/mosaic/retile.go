package mosaic

import "fmt"

// ShiftedGrid：错位裁剪后重新切出的瓦片网格，Tiles[row][col]
type ShiftedGrid struct {
	Shift ShiftType
	Rows  int
	Cols  int
	Tiles [][]*Raster
}

// At：越界返回 nil
func (s *ShiftedGrid) At(row, col int) *Raster {
	if row < 0 || col < 0 || row >= s.Rows || col >= s.Cols {
		return nil
	}
	return s.Tiles[row][col]
}

// Retile：受影响的轴两端各裁掉 tileWidth/2 像素，再按 tileWidth 切成正方形瓦片
// 约束：RIGHT 只裁水平像素轴，BOTTOM 只裁竖直像素轴，RIGHT_BOTTOM 两轴都裁，NONE 为恒等；
// 裁剪后尺寸不能被 tileWidth 整除时返回 ErrGeometry
func Retile(m *Raster, shift ShiftType, tileWidth int) (*ShiftedGrid, error) {
	if tileWidth <= 0 || tileWidth%2 != 0 {
		return nil, fmt.Errorf("%w: tile width %d must be positive and even", ErrGeometry, tileWidth)
	}
	half := tileWidth / 2
	x0, y0, x1, y1 := 0, 0, m.Width, m.Height
	if shift.Horizontal() {
		x0, x1 = x0+half, x1-half
	}
	if shift.Vertical() {
		y0, y1 = y0+half, y1-half
	}
	w, h := x1-x0, y1-y0
	if w <= 0 || h <= 0 || w%tileWidth != 0 || h%tileWidth != 0 {
		return nil, fmt.Errorf("%w: %dx%d mosaic cropped to %dx%d for %s does not split into %d px tiles",
			ErrGeometry, m.Width, m.Height, w, h, shift, tileWidth)
	}
	cropped := m
	if shift != ShiftNone {
		cropped = m.Crop(x0, y0, x1, y1)
	}
	out := &ShiftedGrid{Shift: shift, Rows: h / tileWidth, Cols: w / tileWidth}
	out.Tiles = make([][]*Raster, out.Rows)
	for row := 0; row < out.Rows; row++ {
		out.Tiles[row] = make([]*Raster, out.Cols)
		for col := 0; col < out.Cols; col++ {
			out.Tiles[row][col] = cropped.Crop(col*tileWidth, row*tileWidth, (col+1)*tileWidth, (row+1)*tileWidth)
		}
	}
	return out, nil
}
