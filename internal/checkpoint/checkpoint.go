// 包 checkpoint：扫描进度的持久化与恢复
// 约束：每处理完一个候选点（无论是否命中）写一次；恢复时从 last_id 处重新开始（含 last_id 本身）
package checkpoint

import (
	"context"
	"errors"
	"fmt"

	"tile-scan/internal/logger"
)

// ErrUnknownID：last_id 不在当前候选列表中
var ErrUnknownID = errors.New("checkpoint: last_id not in candidate list")

// Checkpoint：最近处理的候选 id 与累计确认瓦片数
type Checkpoint struct {
	LastID         int64 `json:"last_id"`
	ConfirmedCount int   `json:"confirmed_count"`
}

// Store：检查点存储契约；Load 的 bool 表示是否存在
type Store interface {
	Load(ctx context.Context) (Checkpoint, bool, error)
	Save(ctx context.Context, cp Checkpoint) error
}

// Load：不存在时返回 {firstID, 0}
func Load(ctx context.Context, s Store, firstID int64) (Checkpoint, error) {
	cp, ok, err := s.Load(ctx)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("checkpoint: load: %w", err)
	}
	if !ok {
		logger.L().Info("checkpoint_fresh", "first_id", firstID)
		return Checkpoint{LastID: firstID}, nil
	}
	logger.L().Info("checkpoint_loaded", "last_id", cp.LastID, "confirmed_count", cp.ConfirmedCount)
	return cp, nil
}

// Advance：写入 {id, count}
// 约束：count 为新的累计值，不做增量换算；写入失败由调用方终止扫描
func Advance(ctx context.Context, s Store, id int64, count int) error {
	if count < 0 {
		return fmt.Errorf("checkpoint: negative confirmed count %d", count)
	}
	if err := s.Save(ctx, Checkpoint{LastID: id, ConfirmedCount: count}); err != nil {
		return fmt.Errorf("checkpoint: save %d: %w", id, err)
	}
	logger.L().Debug("checkpoint_saved", "last_id", id, "confirmed_count", count)
	return nil
}

// ResumeIndex：候选列表中 cp.LastID 的下标
func ResumeIndex(ids []int64, cp Checkpoint) (int, error) {
	for i, id := range ids {
		if id == cp.LastID {
			return i, nil
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownID, cp.LastID)
}
