// 包 oracle：判读者接口；给定 3×3 检视画布，返回包含目标的单元集合
// 约束：请求/应答式阻塞调用，空集合表示未找到
package oracle

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"tile-scan/internal/canvas"
)

// ErrQuit：判读者主动结束扫描；当前候选不写检查点
var ErrQuit = errors.New("oracle: quit requested")

// Meta：随画布一起展示的上下文
type Meta struct {
	ID             int64
	ConfirmedSoFar int
}

// Selection：选中的画布单元
type Selection []canvas.Cell

// Oracle：判读契约
type Oracle interface {
	Select(ctx context.Context, cv *canvas.Canvas, meta Meta) (Selection, error)
}

// Func：函数适配器，用于自动判读与测试
type Func func(ctx context.Context, cv *canvas.Canvas, meta Meta) (Selection, error)

func (f Func) Select(ctx context.Context, cv *canvas.Canvas, meta Meta) (Selection, error) {
	return f(ctx, cv, meta)
}

// Normalize：去重并按行优先排序；越界单元返回错误
func Normalize(sel Selection) (Selection, error) {
	seen := make(map[canvas.Cell]struct{}, len(sel))
	out := make(Selection, 0, len(sel))
	for _, c := range sel {
		if !c.Valid() {
			return nil, fmt.Errorf("oracle: cell %d,%d outside %dx%d canvas", c.Row, c.Col, canvas.Size, canvas.Size)
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out, nil
}

// Contains：是否已选中
func (s Selection) Contains(c canvas.Cell) bool {
	for _, x := range s {
		if x == c {
			return true
		}
	}
	return false
}

// toggle：选中则移除，否则加入
func (s Selection) toggle(c canvas.Cell) Selection {
	for i, x := range s {
		if x == c {
			return append(s[:i:i], s[i+1:]...)
		}
	}
	return append(s, c)
}
