package mosaic

import (
	"errors"
	"fmt"
)

// ErrGeometry：网格尺寸或瓦片宽度无法整除切分；属于配置错误，启动时即失败
var ErrGeometry = errors.New("mosaic: invalid grid geometry")

// ShiftType：重新切片时哪条轴上的接缝错开半个瓦片
type ShiftType int

const (
	ShiftNone ShiftType = iota
	ShiftRight
	ShiftBottom
	ShiftRightBottom
)

// Shifts：三种非恒等错位，按检视画布填充顺序
var Shifts = [...]ShiftType{ShiftRight, ShiftBottom, ShiftRightBottom}

func (s ShiftType) String() string {
	switch s {
	case ShiftNone:
		return "none"
	case ShiftRight:
		return "right"
	case ShiftBottom:
		return "bottom"
	case ShiftRightBottom:
		return "right_bottom"
	default:
		return fmt.Sprintf("shift(%d)", int(s))
	}
}

// Suffix：命中瓦片文件名后缀
func (s ShiftType) Suffix() string {
	switch s {
	case ShiftRight:
		return "_shift_r"
	case ShiftBottom:
		return "_shift_b"
	case ShiftRightBottom:
		return "_shift_rb"
	default:
		return ""
	}
}

// Horizontal：是否裁剪水平像素轴（即移动竖直接缝）
func (s ShiftType) Horizontal() bool { return s == ShiftRight || s == ShiftRightBottom }

// Vertical：是否裁剪竖直像素轴
func (s ShiftType) Vertical() bool { return s == ShiftBottom || s == ShiftRightBottom }

// ParseShift：接受 String 形式或 r/b/rb 简写
func ParseShift(v string) (ShiftType, error) {
	switch v {
	case "", "none":
		return ShiftNone, nil
	case "r", "right":
		return ShiftRight, nil
	case "b", "bottom":
		return ShiftBottom, nil
	case "rb", "right_bottom":
		return ShiftRightBottom, nil
	}
	return ShiftNone, fmt.Errorf("mosaic: unknown shift %q", v)
}

// ValidateGeometry：网格须为奇数且 ≥3（中心两侧至少各一格），瓦片宽度须为正偶数（半宽裁剪无余数）
func ValidateGeometry(gridSize, tileWidth int) error {
	if gridSize < 3 || gridSize%2 == 0 {
		return fmt.Errorf("%w: grid size %d must be odd and >= 3", ErrGeometry, gridSize)
	}
	if tileWidth <= 0 || tileWidth%2 != 0 {
		return fmt.Errorf("%w: tile width %d must be positive and even", ErrGeometry, tileWidth)
	}
	return nil
}
