package canvas

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// RenderOptions：预览图参数
type RenderOptions struct {
	Scale    float64 // 缩放倍数，<=0 按 1 处理
	Gutter   int     // 单元间隔像素
	Selected []Cell  // 需要描边的单元
}

var (
	gutterColor   = color.RGBA{R: 32, G: 32, B: 32, A: 255}
	selectedColor = color.RGBA{R: 255, G: 48, B: 48, A: 255}
)

// Render：把 3×3 画布拼成一张预览图，供人工判读
// 约束：缩放使用 CatmullRom；选中单元画 2px 红框
func (c *Canvas) Render(opts RenderOptions) *image.RGBA {
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	tw := 0
	for _, row := range c.Cells {
		for _, t := range row {
			if t != nil && t.Width > tw {
				tw = t.Width
			}
		}
	}
	cw := int(float64(tw) * scale)
	if cw < 1 {
		cw = 1
	}
	g := opts.Gutter
	if g < 0 {
		g = 0
	}
	side := Size*cw + (Size+1)*g
	out := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(out, out.Bounds(), &image.Uniform{C: gutterColor}, image.Point{}, draw.Src)

	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			t := c.Cells[row][col]
			if t == nil {
				continue
			}
			dst := cellRect(row, col, cw, g)
			if t.Width == cw && t.Height == cw {
				draw.Draw(out, dst, t, image.Point{}, draw.Src)
			} else {
				draw.CatmullRom.Scale(out, dst, t, t.Bounds(), draw.Src, nil)
			}
		}
	}
	for _, s := range opts.Selected {
		if s.Valid() {
			outline(out, cellRect(s.Row, s.Col, cw, g), 2)
		}
	}
	return out
}

// CellAt：预览图像素坐标落在哪个单元；落在间隔上返回 false
func CellAt(x, y int, tileWidth int, opts RenderOptions) (Cell, bool) {
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	cw := int(float64(tileWidth) * scale)
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if (image.Point{X: x, Y: y}).In(cellRect(row, col, cw, opts.Gutter)) {
				return Cell{Row: row, Col: col}, true
			}
		}
	}
	return Cell{}, false
}

func cellRect(row, col, cw, g int) image.Rectangle {
	x0 := g + col*(cw+g)
	y0 := g + row*(cw+g)
	return image.Rect(x0, y0, x0+cw, y0+cw)
}

func outline(img *image.RGBA, r image.Rectangle, w int) {
	u := &image.Uniform{C: selectedColor}
	draw.Draw(img, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+w), u, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(r.Min.X, r.Max.Y-w, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(r.Min.X, r.Min.Y, r.Min.X+w, r.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(r.Max.X-w, r.Min.Y, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
}
