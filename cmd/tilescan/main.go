// 程序入口：读取配置、装配瓦片源/检查点/落盘/判读者，运行扫描主循环；可选暴露 Prometheus 指标
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"tile-scan/internal/logger"
	"tile-scan/internal/metrics"
	"tile-scan/internal/oracle"
	"tile-scan/internal/scan"
	"tile-scan/internal/utils"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	l := logger.Setup()
	l.Debug("log_init_ok")

	cfg, err := scan.ConfigFromEnv()
	if err != nil {
		l.Error("config_error", "err", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		l.Error("config_error", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		// 第二次中断直接终止进程（终端判读者阻塞在标准输入时）
		<-ctx.Done()
		stop()
	}()

	targets, err := scan.LoadTargets(ctx, cfg)
	if err != nil {
		l.Error("candidates_error", "err", err)
		os.Exit(1)
	}

	cps, closeCP, err := scan.OpenCheckpoint(ctx, cfg)
	if err != nil {
		l.Error("checkpoint_open_error", "err", err)
		os.Exit(1)
	}
	defer closeCP()

	sk, closeSink, err := scan.OpenSink(cfg)
	if err != nil {
		l.Error("sink_open_error", "err", err)
		os.Exit(1)
	}
	defer closeSink()

	var orc oracle.Oracle
	switch cfg.Oracle {
	case "telegram":
		bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			l.Error("telegram_init_error", "err", err)
			os.Exit(1)
		}
		bot.Debug = false
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 30
		updates := bot.GetUpdatesChan(u)
		defer bot.StopReceivingUpdates()
		l.Info("telegram_oracle_ready", "bot", bot.Self.UserName, "chat_id", cfg.TelegramChatID)
		orc = oracle.NewTelegram(bot, cfg.TelegramChatID, updates, cfg.PreviewScale)
	default:
		orc = oracle.NewTerminal(os.Stdin, os.Stdout, cfg.PreviewPath, cfg.PreviewScale)
	}

	runID := uuid.NewString()
	scanner := &scan.Scanner{
		Tiles:         scan.OpenTiles(cfg),
		Checkpoints:   cps,
		Oracle:        orc,
		Sink:          sk,
		GridSize:      cfg.GridSize,
		TileWidth:     cfg.TileSize,
		RequireCenter: cfg.RequireCenter,
		RunID:         runID,
		Log:           l.With("run_id", runID),
	}
	l.Info("scan_start", "run_id", runID, "targets", len(targets), "tiles", cfg.TilesDir, "zoom", cfg.Zoom, "oracle", cfg.Oracle)

	g, gctx := errgroup.WithContext(ctx)
	runCtx, finish := context.WithCancel(gctx)
	var sum scan.Summary
	g.Go(func() error {
		defer finish()
		var err error
		sum, err = scanner.Run(runCtx, targets)
		return err
	})
	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux(l)}
		g.Go(func() error { return serveMetrics(srv) })
		g.Go(func() error {
			<-runCtx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}

	err = g.Wait()
	switch {
	case err == nil:
		l.Info("scan_finished", "processed", sum.Processed, "skipped", sum.Skipped, "found", sum.Found, "saved", sum.Saved, "last_id", sum.LastID, "confirmed_count", sum.Confirmed)
	case errors.Is(err, oracle.ErrQuit):
		l.Info("scan_quit", "processed", sum.Processed, "last_id", sum.LastID, "confirmed_count", sum.Confirmed)
	case errors.Is(err, context.Canceled):
		l.Info("scan_interrupted", "processed", sum.Processed, "last_id", sum.LastID, "confirmed_count", sum.Confirmed)
	default:
		l.Error("scan_error", "err", err, "processed", sum.Processed, "last_id", sum.LastID)
		closeSink()
		closeCP()
		os.Exit(1)
	}
}

func metricsMux(l *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return logger.AccessMiddleware(l)(mux)
}

// serveMetrics：METRICS_TLS=true 时使用 METRICS_TLS_CERT / METRICS_TLS_KEY，缺失则生成自签名证书
func serveMetrics(srv *http.Server) error {
	l := logger.L()
	var err error
	if os.Getenv("METRICS_TLS") == "true" {
		certPath := os.Getenv("METRICS_TLS_CERT")
		keyPath := os.Getenv("METRICS_TLS_KEY")
		if certPath == "" {
			certPath = filepath.Join("data", "certs", "metrics.crt")
		}
		if keyPath == "" {
			keyPath = filepath.Join("data", "certs", "metrics.key")
		}
		if err := utils.EnsureSelfSignedCert(certPath, keyPath, "tilescan.local"); err != nil {
			return err
		}
		l.Info("metrics_listening_tls", "addr", srv.Addr, "cert", certPath)
		err = srv.ListenAndServeTLS(certPath, keyPath)
	} else {
		l.Info("metrics_listening", "addr", srv.Addr)
		err = srv.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
