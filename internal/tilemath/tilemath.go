// 包 tilemath：Web 墨卡托经纬度与瓦片编号互转（slippy map 方案）
package tilemath

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// MaxLatitude：Web 墨卡托可表示的纬度上限（°）
const MaxLatitude = 85.05112877980659

// MaxZoom：支持的最大缩放级别
const MaxZoom = 30

// ErrCoordinate：非法地理输入的哨兵错误，CoordinateError 均可用 errors.Is 匹配
var ErrCoordinate = errors.New("tilemath: invalid coordinate")

// CoordinateError：经纬度或缩放级别无法投影到瓦片
type CoordinateError struct {
	Geo    GeoCoordinate
	Zoom   int
	Reason string
}

func (e *CoordinateError) Error() string {
	return fmt.Sprintf("tilemath: cannot project lat=%v lon=%v zoom=%d: %s", e.Geo.Latitude, e.Geo.Longitude, e.Zoom, e.Reason)
}

func (e *CoordinateError) Unwrap() error { return ErrCoordinate }

// GeoCoordinate：WGS84 经纬度
type GeoCoordinate struct {
	Latitude  float64
	Longitude float64
}

// TileCoordinate：瓦片编号；X 向东增长，Y 向南增长
type TileCoordinate struct {
	X    int
	Y    int
	Zoom int
}

// Valid：0 ≤ X,Y < 2^Zoom
func (t TileCoordinate) Valid() bool {
	if t.Zoom < 0 || t.Zoom > MaxZoom {
		return false
	}
	n := 1 << t.Zoom
	return t.X >= 0 && t.Y >= 0 && t.X < n && t.Y < n
}

// Offset：同级相邻瓦片；结果可能越界，越界编号是合法的查询键，只是必然未命中
func (t TileCoordinate) Offset(dx, dy int) TileCoordinate {
	return TileCoordinate{X: t.X + dx, Y: t.Y + dy, Zoom: t.Zoom}
}

// Maptile：转换为 orb 的瓦片类型；越界时返回 false
func (t TileCoordinate) Maptile() (maptile.Tile, bool) {
	if !t.Valid() {
		return maptile.Tile{}, false
	}
	return maptile.New(uint32(t.X), uint32(t.Y), maptile.Zoom(t.Zoom)), true
}

func (t TileCoordinate) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Zoom, t.X, t.Y)
}

func validate(g GeoCoordinate, zoom int) error {
	switch {
	case zoom < 0 || zoom > MaxZoom:
		return &CoordinateError{Geo: g, Zoom: zoom, Reason: "zoom out of range"}
	case math.IsNaN(g.Latitude) || math.IsNaN(g.Longitude) || math.IsInf(g.Latitude, 0) || math.IsInf(g.Longitude, 0):
		return &CoordinateError{Geo: g, Zoom: zoom, Reason: "not a finite number"}
	case math.Abs(g.Latitude) > MaxLatitude:
		return &CoordinateError{Geo: g, Zoom: zoom, Reason: "latitude outside the web mercator band"}
	case g.Longitude < -180 || g.Longitude > 180:
		return &CoordinateError{Geo: g, Zoom: zoom, Reason: "longitude outside [-180, 180]"}
	}
	return nil
}

// GeoToTile：经纬度所在瓦片
// 约束：|lat| 超过 MaxLatitude（含 ±90°）返回 *CoordinateError，不做截断；lon=180 归入最后一列
func GeoToTile(g GeoCoordinate, zoom int) (TileCoordinate, error) {
	if err := validate(g, zoom); err != nil {
		return TileCoordinate{}, err
	}
	t := maptile.At(orb.Point{g.Longitude, g.Latitude}, maptile.Zoom(zoom))
	out := TileCoordinate{X: int(t.X), Y: int(t.Y), Zoom: zoom}
	last := (1 << zoom) - 1
	if out.X > last {
		out.X = last
	}
	if out.Y > last {
		out.Y = last
	}
	return out, nil
}

// GeoToFraction：未取整的瓦片坐标
func GeoToFraction(g GeoCoordinate, zoom int) (float64, float64, error) {
	if err := validate(g, zoom); err != nil {
		return 0, 0, err
	}
	f := maptile.Fraction(orb.Point{g.Longitude, g.Latitude}, maptile.Zoom(zoom))
	return f[0], f[1], nil
}

// TileToGeo：瓦片西北角经纬度，仅用于诊断与测试
func TileToGeo(x, y, zoom int) GeoCoordinate {
	return FractionToGeo(float64(x), float64(y), zoom)
}

// FractionToGeo：瓦片坐标（可带小数）反算经纬度；纬度为 y 的 Gudermannian 反函数
func FractionToGeo(x, y float64, zoom int) GeoCoordinate {
	n := math.Exp2(float64(zoom))
	lon := x/n*360 - 180
	lat := math.Atan(math.Sinh(math.Pi*(1-2*y/n))) * 180 / math.Pi
	return GeoCoordinate{Latitude: lat, Longitude: lon}
}
