// 包 logger：统一初始化与获取日志器；通过环境变量控制级别、格式与输出目标
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// 默认日志器：进程级复用
var defaultLogger *slog.Logger

// Setup：按环境变量初始化默认日志器
// 约束：LOG_LEVEL 取 debug/info/warn/error，LOG_FORMAT 取 text/json；
// LOG_OUTPUT=stdout 时写标准输出，其余情况写标准错误（终端判定器占用标准输出交互）。
func Setup() *slog.Logger {
	var out io.Writer = os.Stderr
	if strings.ToLower(os.Getenv("LOG_OUTPUT")) == "stdout" {
		out = os.Stdout
	}
	defaultLogger = New(out, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	return defaultLogger
}

// New：按给定级别与格式构造日志器，不修改默认日志器
func New(out io.Writer, level, format string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	var h slog.Handler
	if strings.ToLower(format) == "json" {
		h = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl})
	} else {
		h = slog.NewTextHandler(out, &slog.HandlerOptions{Level: lvl})
	}
	return slog.New(h)
}

// L：获取默认日志器；未初始化时回退到 Setup
func L() *slog.Logger {
	if defaultLogger == nil {
		return Setup()
	}
	return defaultLogger
}

// Component：带 component 字段的子日志器
func Component(name string) *slog.Logger {
	return L().With("component", name)
}
