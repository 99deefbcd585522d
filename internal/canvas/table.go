// 包 canvas：从三种错位网格中挑出紧邻中心接缝的瓦片，组成 3×3 检视画布，并把画布单元反解为原始瓦片编号
package canvas

import "tile-scan/internal/mosaic"

// Size：检视画布边长
const Size = 3

// Cell：画布或网格中的 (row, col)，从 0 开始
type Cell struct {
	Row int
	Col int
}

// CenterCell：未错位中心瓦片所在单元
var CenterCell = Cell{Row: 1, Col: 1}

// placement：某种错位网格中的一个单元（相对中心下标 k 的偏移）落到画布的哪个单元
type placement struct {
	shift mosaic.ShiftType
	dRow  int
	dCol  int
	to    Cell
}

// placements：固定映射表，8 个目标单元互不重叠，覆盖除中心外的全部画布单元。
// k=2（5×5 网格）时即 RIGHT (2,1)(2,2)→(1,0)(1,2)；BOTTOM (1,2)(2,2)→(0,1)(2,1)；
// RIGHT_BOTTOM (1,1)(1,2)(2,1)(2,2)→(0,0)(0,2)(2,0)(2,2)
var placements = [...]placement{
	{shift: mosaic.ShiftRight, dRow: 0, dCol: -1, to: Cell{1, 0}},
	{shift: mosaic.ShiftRight, dRow: 0, dCol: 0, to: Cell{1, 2}},
	{shift: mosaic.ShiftBottom, dRow: -1, dCol: 0, to: Cell{0, 1}},
	{shift: mosaic.ShiftBottom, dRow: 0, dCol: 0, to: Cell{2, 1}},
	{shift: mosaic.ShiftRightBottom, dRow: -1, dCol: -1, to: Cell{0, 0}},
	{shift: mosaic.ShiftRightBottom, dRow: -1, dCol: 0, to: Cell{0, 2}},
	{shift: mosaic.ShiftRightBottom, dRow: 0, dCol: -1, to: Cell{2, 0}},
	{shift: mosaic.ShiftRightBottom, dRow: 0, dCol: 0, to: Cell{2, 2}},
}

// source：placement 在错位网格中的绝对单元
func (p placement) source(k int) Cell {
	return Cell{Row: k + p.dRow, Col: k + p.dCol}
}

func lookup(c Cell) (placement, bool) {
	for _, p := range placements {
		if p.to == c {
			return p, true
		}
	}
	return placement{}, false
}

// Valid：是否位于 3×3 画布内
func (c Cell) Valid() bool {
	return c.Row >= 0 && c.Row < Size && c.Col >= 0 && c.Col < Size
}

// Shift：该画布单元展示的瓦片来自哪种错位
func (c Cell) Shift() (mosaic.ShiftType, bool) {
	if c == CenterCell {
		return mosaic.ShiftNone, true
	}
	p, ok := lookup(c)
	return p.shift, ok
}
