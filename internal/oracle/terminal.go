package oracle

import (
	"bufio"
	"context"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"tile-scan/internal/canvas"
	"tile-scan/internal/logger"
)

// Terminal：把画布写成 PNG 预览，在终端读取选择
// 输入格式：以空格分隔的 "row,col" 或 "rc"，如 "0,0 12"；空行或 n 表示未找到；q 结束扫描
type Terminal struct {
	In          *bufio.Reader
	Out         io.Writer
	PreviewPath string
	Render      canvas.RenderOptions
}

func NewTerminal(in io.Reader, out io.Writer, previewPath string, scale float64) *Terminal {
	return &Terminal{
		In:          bufio.NewReader(in),
		Out:         out,
		PreviewPath: previewPath,
		Render:      canvas.RenderOptions{Scale: scale, Gutter: 4},
	}
}

func (t *Terminal) Select(ctx context.Context, cv *canvas.Canvas, meta Meta) (Selection, error) {
	if err := t.writePreview(cv); err != nil {
		return nil, err
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fmt.Fprintf(t.Out, "candidate %d center %s (confirmed %d), preview %s\n", meta.ID, cv.Center, meta.ConfirmedSoFar, t.PreviewPath)
		fmt.Fprint(t.Out, "cells [row,col ...] / n / q > ")
		line, err := t.In.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		sel, quit, perr := ParseSelection(line)
		if quit {
			return nil, ErrQuit
		}
		if perr != nil {
			fmt.Fprintf(t.Out, "invalid input: %v\n", perr)
			continue
		}
		return sel, nil
	}
}

func (t *Terminal) writePreview(cv *canvas.Canvas) error {
	if t.PreviewPath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(t.PreviewPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(t.PreviewPath)
	if err != nil {
		return err
	}
	if err := png.Encode(f, cv.Render(t.Render)); err != nil {
		f.Close()
		return err
	}
	logger.L().Debug("canvas_preview_written", "path", t.PreviewPath)
	return f.Close()
}

// ParseSelection：解析终端输入；quit 为 true 表示 q/quit
func ParseSelection(line string) (Selection, bool, error) {
	line = strings.TrimSpace(strings.ToLower(line))
	switch line {
	case "", "n", "no", "none":
		return Selection{}, false, nil
	case "q", "quit", "exit":
		return nil, true, nil
	}
	var sel Selection
	for _, tok := range strings.FieldsFunc(line, func(r rune) bool { return r == ' ' || r == ';' || r == '\t' }) {
		var rs, cs string
		if i := strings.IndexByte(tok, ','); i >= 0 {
			rs, cs = tok[:i], tok[i+1:]
		} else if len(tok) == 2 {
			rs, cs = tok[:1], tok[1:]
		} else {
			return nil, false, fmt.Errorf("cannot parse %q", tok)
		}
		r, err := strconv.Atoi(rs)
		if err != nil {
			return nil, false, fmt.Errorf("cannot parse %q", tok)
		}
		c, err := strconv.Atoi(cs)
		if err != nil {
			return nil, false, fmt.Errorf("cannot parse %q", tok)
		}
		sel = append(sel, canvas.Cell{Row: r, Col: c})
	}
	out, err := Normalize(sel)
	if err != nil {
		return nil, false, err
	}
	return out, false, nil
}
