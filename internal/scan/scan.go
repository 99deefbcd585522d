// 包 scan：候选点扫描主循环；拼图、错位、判读、反解、落盘，并逐个推进检查点
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tile-scan/internal/candidates"
	"tile-scan/internal/canvas"
	"tile-scan/internal/checkpoint"
	"tile-scan/internal/logger"
	"tile-scan/internal/metrics"
	"tile-scan/internal/mosaic"
	"tile-scan/internal/oracle"
	"tile-scan/internal/sink"
	"tile-scan/internal/tilestore"
)

// Scanner：串行扫描器
// 约束：同一时刻只处理一个候选点；检查点只在候选点完整处理后写入
type Scanner struct {
	Tiles         tilestore.Store
	Checkpoints   checkpoint.Store
	Oracle        oracle.Oracle
	Sink          sink.Sink
	GridSize      int
	TileWidth     int
	RequireCenter bool
	RunID         string
	Log           *slog.Logger
}

// Outcome：单个候选点的处理结果
type Outcome struct {
	Skipped bool
	Reason  string
	Missing int
	Saved   []canvas.ResolvedTile
}

// Summary：一次运行的统计
type Summary struct {
	ResumedAt int64
	Processed int
	Skipped   int
	Found     int
	Saved     int
	LastID    int64
	Confirmed int
}

func (s *Scanner) log() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return logger.Component("scan")
}

// Run：从检查点恢复后依次处理 targets
// 约束：last_id 本身会被重新处理；取消或判读者退出时当前候选不写检查点；检查点写入失败立即终止
func (s *Scanner) Run(ctx context.Context, targets []candidates.Target) (Summary, error) {
	var sum Summary
	if len(targets) == 0 {
		s.log().Info("scan_no_candidates")
		return sum, nil
	}
	ids := candidates.IDs(targets)
	cp, err := checkpoint.Load(ctx, s.Checkpoints, ids[0])
	if err != nil {
		return sum, err
	}
	start, err := checkpoint.ResumeIndex(ids, cp)
	if err != nil {
		return sum, err
	}
	sum.ResumedAt = cp.LastID
	sum.LastID = cp.LastID
	sum.Confirmed = cp.ConfirmedCount
	metrics.ConfirmedCount.Set(float64(cp.ConfirmedCount))
	s.log().Info("scan_resume", "last_id", cp.LastID, "index", start, "remaining", len(targets)-start, "confirmed_count", cp.ConfirmedCount)

	for _, t := range targets[start:] {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		out, err := s.Process(ctx, t, sum.Confirmed)
		if err != nil {
			return sum, fmt.Errorf("candidate %d: %w", t.ID, err)
		}
		count := sum.Confirmed + len(out.Saved)
		if err := checkpoint.Advance(context.WithoutCancel(ctx), s.Checkpoints, t.ID, count); err != nil {
			metrics.CheckpointWritesTotal.WithLabelValues("error").Inc()
			return sum, err
		}
		metrics.CheckpointWritesTotal.WithLabelValues("ok").Inc()
		metrics.CandidatesTotal.Inc()
		metrics.ConfirmedCount.Set(float64(count))

		sum.Processed++
		sum.LastID = t.ID
		sum.Confirmed = count
		sum.Saved += len(out.Saved)
		if out.Skipped {
			sum.Skipped++
		}
		if len(out.Saved) > 0 {
			sum.Found++
		}
	}
	s.log().Info("scan_done", "processed", sum.Processed, "skipped", sum.Skipped, "found", sum.Found, "confirmed_count", sum.Confirmed)
	return sum, nil
}

// Process：处理单个候选点；confirmed 仅用于展示给判读者
func (s *Scanner) Process(ctx context.Context, t candidates.Target, confirmed int) (Outcome, error) {
	l := s.log().With("candidate_id", t.ID, "tile", t.Tile.String())
	l.Debug("scan_candidate_begin")
	var out Outcome

	began := time.Now()
	g, err := mosaic.Assemble(ctx, s.Tiles, t.Tile, s.GridSize, s.TileWidth)
	if err != nil {
		return out, err
	}
	out.Missing = len(g.Missing)
	if s.RequireCenter && g.CenterMissing() {
		out.Skipped, out.Reason = true, "center_missing"
		metrics.CandidatesSkippedTotal.WithLabelValues(out.Reason).Inc()
		l.Info("scan_candidate_skipped", "reason", out.Reason)
		return out, nil
	}
	for _, m := range g.Missing {
		l.Debug("tile_missing", "missing", m.String())
	}
	metrics.TilesMissingTotal.Add(float64(len(g.Missing)))

	cv, err := canvas.Build(g)
	if err != nil {
		return out, err
	}
	metrics.CandidateDurationMs.Observe(float64(time.Since(began).Milliseconds()))

	asked := time.Now()
	sel, err := s.Oracle.Select(ctx, cv, oracle.Meta{ID: t.ID, ConfirmedSoFar: confirmed})
	metrics.OracleDurationSeconds.Observe(time.Since(asked).Seconds())
	if err != nil {
		return out, err
	}
	sel, err = oracle.Normalize(sel)
	if err != nil {
		return out, err
	}
	if len(sel) == 0 {
		l.Debug("scan_candidate_not_found")
		return out, nil
	}

	seen := make(map[string]struct{}, len(sel))
	for _, cell := range sel {
		r, err := cv.Resolve(cell)
		if err != nil {
			return out, err
		}
		if _, dup := seen[r.Name()]; dup {
			continue
		}
		seen[r.Name()] = struct{}{}
		d := sink.Detection{CandidateID: t.ID, Cell: cell, Resolved: r, Image: cv.Tile(cell), RunID: s.RunID}
		if err := s.Sink.Save(ctx, d); err != nil {
			return out, fmt.Errorf("save %s: %w", r.Name(), err)
		}
		metrics.DetectionsTotal.WithLabelValues(r.Shift.String()).Inc()
		out.Saved = append(out.Saved, r)
	}
	metrics.CandidatesFoundTotal.Inc()
	l.Info("scan_candidate_found", "saved", len(out.Saved))
	return out, nil
}
