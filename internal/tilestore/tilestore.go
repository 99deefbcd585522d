// 包 tilestore：按 (x, y, zoom) 读取磁盘瓦片图像；未找到统一返回 ErrNotFound
package tilestore

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"tile-scan/internal/logger"
	"tile-scan/internal/tilemath"
)

// ErrNotFound：瓦片不存在；调用方据此降级为全零占位，而非报错
var ErrNotFound = errors.New("tilestore: tile not found")

// Store：瓦片读取契约
type Store interface {
	Get(ctx context.Context, t tilemath.TileCoordinate) (image.Image, error)
}

// DefaultLayout：MapTilesDownloader 输出目录结构
const DefaultLayout = "{z}/{x}/{y}"

// DefaultExts：依次尝试的扩展名
var DefaultExts = []string{".jpeg", ".jpg", ".png", ".webp", ".tiff", ".bmp"}

// DirStore：本地目录瓦片源
// 约束：Layout 使用 {z}/{x}/{y} 占位；越界编号直接视为未命中，不访问磁盘
type DirStore struct {
	Root   string
	Layout string
	Exts   []string
}

func NewDirStore(root, layout string) *DirStore {
	if layout == "" {
		layout = DefaultLayout
	}
	return &DirStore{Root: root, Layout: layout, Exts: DefaultExts}
}

// PathFor：不带扩展名的瓦片路径
func (s *DirStore) PathFor(t tilemath.TileCoordinate) string {
	p := strings.NewReplacer(
		"{z}", strconv.Itoa(t.Zoom),
		"{x}", strconv.Itoa(t.X),
		"{y}", strconv.Itoa(t.Y),
	).Replace(s.Layout)
	return filepath.Join(s.Root, filepath.FromSlash(p))
}

// Locate：返回首个存在的瓦片文件路径
func (s *DirStore) Locate(t tilemath.TileCoordinate) (string, bool) {
	if !t.Valid() {
		return "", false
	}
	base := s.PathFor(t)
	for _, ext := range s.Exts {
		fp := base + ext
		if st, err := os.Stat(fp); err == nil && !st.IsDir() {
			return fp, true
		}
	}
	return "", false
}

func (s *DirStore) Get(ctx context.Context, t tilemath.TileCoordinate) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fp, ok := s.Locate(t)
	if !ok {
		return nil, ErrNotFound
	}
	f, err := os.Open(fp)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer f.Close()
	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("tilestore: decode %s: %w", fp, err)
	}
	logger.L().Debug("tile_load", "tile", t.String(), "path", fp, "format", format)
	return img, nil
}
