package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"
)

// Options 日志配置
// Options configures the process logger
type Options struct {
	// Level 日志级别名：debug/info/warn/error，空为 info
	Level string
	// File 非空时文本日志写入该文件（TUI 占用终端时）
	// File, when set, receives the text log instead of Writer
	File   string
	Writer io.Writer
	// Journal 为 false 时不尝试 systemd journal
	Journal bool
}

// Logger 组装好的日志器与需要关闭的资源
// Logger bundles the slog logger with resources to release
type Logger struct {
	*slog.Logger
	Level  *slog.LevelVar
	closer io.Closer
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// ParseLevel 解析级别名；未知名称返回错误
// ParseLevel parses a level name
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
}

// New 构建日志器：非 systemd 服务时输出文本日志，journal 可用时同时写入 journal
// New builds the logger. A text handler is used unless running as a systemd
// service; the journal handler is added whenever it is available.
func New(opts Options) (*Logger, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	level := new(slog.LevelVar)
	level.Set(lvl)

	out := &Logger{Level: level}
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		writer = f
		out.closer = f
	}

	var handlers []slog.Handler
	var textHandler slog.Handler
	if !isSystemdService() || opts.File != "" {
		textHandler = slog.NewTextHandler(writer, &slog.HandlerOptions{Level: level})
		handlers = append(handlers, textHandler)
	}

	if opts.Journal {
		journal, err := slogjournal.NewHandler(&slogjournal.Options{
			Level: level,
			ReplaceGroup: func(key string) string {
				return journalKey(key)
			},
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				a.Key = journalKey(a.Key)
				return a
			},
		})
		if err != nil {
			if textHandler != nil {
				record := slog.NewRecord(time.Now(), slog.LevelDebug, "systemd journal unavailable", 0)
				record.Add("error", err)
				_ = textHandler.Handle(context.Background(), record)
			}
		} else {
			handlers = append(handlers, journal)
		}
	}

	out.Logger = slog.New(&Handler{Handler: slogmulti.Fanout(handlers...)})
	return out, nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// journalKey journal 字段名只允许大写字母、数字与下划线
// journalKey maps a key to the journal field alphabet
func journalKey(s string) string {
	s = strings.ToUpper(s)
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, s)
}

func isSystemdService() bool {
	content, err := os.ReadFile("/proc/self/cgroup")
	if err != nil {
		return false
	}
	return cgroupIsService(string(content))
}

func cgroupIsService(content string) bool {
	line := strings.TrimSpace(strings.SplitN(content, "\n", 2)[0])
	parts := strings.SplitN(line, ":", 3)
	if len(parts) < 3 {
		return false
	}
	return strings.HasSuffix(path.Dir(parts[2]), ".service")
}
