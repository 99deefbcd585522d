// 包 sink：持久化命中的瓦片；同名命中覆盖写入，保证重复扫描幂等
package sink

import (
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"

	"tile-scan/internal/canvas"
	"tile-scan/internal/logger"
	"tile-scan/internal/mosaic"
)

// Detection：一次命中；Image 为画布单元像素
type Detection struct {
	CandidateID int64
	Cell        canvas.Cell
	Resolved    canvas.ResolvedTile
	Image       *mosaic.Raster
	RunID       string
}

// Name：落盘名，与 ResolvedTile.Name 一致
func (d Detection) Name() string { return d.Resolved.Name() }

// Sink：命中写入契约
type Sink interface {
	Save(ctx context.Context, d Detection) error
}

// DefaultQuality：JPEG 压缩质量
const DefaultQuality = 95

// DirSink：按 {zoom}_{x}_{y}{后缀}.jpeg 写入目录
// 约束：先写同目录临时文件再 rename，中断时不会留下半截图片
type DirSink struct {
	Dir     string
	Quality int
}

func NewDirSink(dir string, quality int) (*DirSink, error) {
	if dir == "" {
		return nil, errors.New("sink: empty detection dir")
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("sink: mkdir %s: %w", dir, err)
	}
	return &DirSink{Dir: dir, Quality: quality}, nil
}

// PathFor：命中图片的完整路径
func (s *DirSink) PathFor(d Detection) string {
	return filepath.Join(s.Dir, d.Name()+".jpeg")
}

func (s *DirSink) Save(ctx context.Context, d Detection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.Image == nil {
		return fmt.Errorf("sink: detection %s has no image", d.Name())
	}
	dst := s.PathFor(d)
	tmp, err := os.CreateTemp(s.Dir, "."+d.Name()+"-*.tmp")
	if err != nil {
		return fmt.Errorf("sink: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := jpeg.Encode(tmp, d.Image, &jpeg.Options{Quality: s.Quality}); err != nil {
		tmp.Close()
		return fmt.Errorf("sink: encode %s: %w", d.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("sink: close %s: %w", d.Name(), err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("sink: rename %s: %w", d.Name(), err)
	}
	logger.L().Debug("detection_written", "path", dst, "candidate_id", d.CandidateID)
	return nil
}

// Multi：按顺序写入多个 Sink；任一失败立即返回
type Multi []Sink

func NewMulti(list ...Sink) Multi {
	out := make(Multi, 0, len(list))
	for _, s := range list {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m Multi) Save(ctx context.Context, d Detection) error {
	for _, s := range m {
		if err := s.Save(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

// Func：函数适配器
type Func func(ctx context.Context, d Detection) error

func (f Func) Save(ctx context.Context, d Detection) error { return f(ctx, d) }
