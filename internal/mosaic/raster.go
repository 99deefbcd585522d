// 包 mosaic：把瓦片网格拼接为整幅像素马赛克，并沿半瓦片错位的接缝重新切片
package mosaic

import (
	"bytes"
	"image"
	"image/color"
)

// Raster：Width×Height×3 的 RGB 像素数组，行优先，原点在左上角
// 约束：实现 image.Image，可直接参与绘制与编码
type Raster struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewRaster：全零像素
func NewRaster(width, height int) *Raster {
	return &Raster{Width: width, Height: height, Pix: make([]uint8, width*height*3)}
}

// FromImage：把任意已解码图像复制为 RGB 像素，丢弃 alpha
func FromImage(img image.Image) *Raster {
	b := img.Bounds()
	r := NewRaster(b.Dx(), b.Dy())
	if src, ok := img.(*Raster); ok {
		copy(r.Pix, src.Pix)
		return r
	}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			r.Pix[i] = c.R
			r.Pix[i+1] = c.G
			r.Pix[i+2] = c.B
			i += 3
		}
	}
	return r
}

func (r *Raster) ColorModel() color.Model { return color.RGBAModel }

func (r *Raster) Bounds() image.Rectangle { return image.Rect(0, 0, r.Width, r.Height) }

func (r *Raster) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= r.Width || y >= r.Height {
		return color.RGBA{}
	}
	i := r.offset(x, y)
	return color.RGBA{R: r.Pix[i], G: r.Pix[i+1], B: r.Pix[i+2], A: 0xff}
}

// Set：越界写入静默忽略
func (r *Raster) Set(x, y int, c color.Color) {
	if x < 0 || y < 0 || x >= r.Width || y >= r.Height {
		return
	}
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	i := r.offset(x, y)
	r.Pix[i] = rgba.R
	r.Pix[i+1] = rgba.G
	r.Pix[i+2] = rgba.B
}

func (r *Raster) Fill(c color.Color) {
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	for i := 0; i < len(r.Pix); i += 3 {
		r.Pix[i] = rgba.R
		r.Pix[i+1] = rgba.G
		r.Pix[i+2] = rgba.B
	}
}

func (r *Raster) offset(x, y int) int { return (y*r.Width + x) * 3 }

// Crop：复制半开区间 [x0,x1)×[y0,y1)；矩形须在像素范围内，由调用方保证
func (r *Raster) Crop(x0, y0, x1, y1 int) *Raster {
	out := NewRaster(x1-x0, y1-y0)
	rowBytes := out.Width * 3
	for y := 0; y < out.Height; y++ {
		src := r.offset(x0, y0+y)
		copy(out.Pix[y*rowBytes:(y+1)*rowBytes], r.Pix[src:src+rowBytes])
	}
	return out
}

// Paste：把 src 左上角对齐 (x, y) 覆盖写入
func (r *Raster) Paste(src *Raster, x, y int) {
	rowBytes := src.Width * 3
	for sy := 0; sy < src.Height; sy++ {
		dst := r.offset(x, y+sy)
		copy(r.Pix[dst:dst+rowBytes], src.Pix[sy*rowBytes:(sy+1)*rowBytes])
	}
}

func (r *Raster) Clone() *Raster {
	out := &Raster{Width: r.Width, Height: r.Height, Pix: make([]uint8, len(r.Pix))}
	copy(out.Pix, r.Pix)
	return out
}

// IsZero：所有通道均为 0（缺失瓦片的占位即为全零）
func (r *Raster) IsZero() bool {
	for _, v := range r.Pix {
		if v != 0 {
			return false
		}
	}
	return true
}

func (r *Raster) Equal(o *Raster) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.Width == o.Width && r.Height == o.Height && bytes.Equal(r.Pix, o.Pix)
}
