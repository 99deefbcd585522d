package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"tile-scan/internal/checkpoint"
	"tile-scan/internal/logger"
	"tile-scan/internal/scan"
)

// 文档注释：扫描检查点查看与回滚
// 背景：CHECKPOINT_ACTION=show 打印当前值；reset 删除检查点，下次从第一个候选开始；
// set 写入 CHECKPOINT_SET_ID / CHECKPOINT_SET_COUNT，用于回退到指定候选重新判读。
// 约束：只改检查点，不删除已落盘的命中图片与记录。
func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	l := logger.Setup()
	cfg, err := scan.ConfigFromEnv()
	if err != nil {
		l.Error("config_error", "err", err)
		os.Exit(1)
	}
	ctx := context.Background()
	s, closeFn, err := scan.OpenCheckpoint(ctx, cfg)
	if err != nil {
		l.Error("checkpoint_open_error", "err", err)
		os.Exit(1)
	}
	defer closeFn()

	action := os.Getenv("CHECKPOINT_ACTION")
	if action == "" {
		action = "show"
	}
	switch action {
	case "show":
		cp, ok, err := s.Load(ctx)
		if err != nil {
			l.Error("checkpoint_load_error", "err", err)
			os.Exit(1)
		}
		if !ok {
			fmt.Println("no checkpoint")
			return
		}
		fmt.Printf("last_id=%d confirmed_count=%d\n", cp.LastID, cp.ConfirmedCount)
	case "reset":
		if err := s.Reset(ctx); err != nil {
			l.Error("checkpoint_reset_error", "err", err)
			os.Exit(1)
		}
		l.Info("checkpoint_reset_done", "backend", cfg.CheckpointBackend)
	case "set":
		id, err := strconv.ParseInt(os.Getenv("CHECKPOINT_SET_ID"), 10, 64)
		if err != nil {
			l.Error("checkpoint_set_id_invalid", "err", err)
			os.Exit(1)
		}
		count := 0
		if v := os.Getenv("CHECKPOINT_SET_COUNT"); v != "" {
			if count, err = strconv.Atoi(v); err != nil {
				l.Error("checkpoint_set_count_invalid", "err", err)
				os.Exit(1)
			}
		} else if cp, ok, err := s.Load(ctx); err == nil && ok {
			count = cp.ConfirmedCount
		}
		if err := checkpoint.Advance(ctx, s, id, count); err != nil {
			l.Error("checkpoint_set_error", "err", err)
			os.Exit(1)
		}
		l.Info("checkpoint_set_done", "last_id", id, "confirmed_count", count)
	default:
		l.Error("checkpoint_action_unknown", "action", action)
		os.Exit(1)
	}
}
