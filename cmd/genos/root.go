package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"genos/internal/bootstrap"
	"genos/internal/config"
	"genos/internal/i18n"
	"genos/internal/logging"
	"genos/internal/render"
)

var (
	version = "dev"
	commit  = "unknown"
)

type rootOptions struct {
	configPath string
	lang       string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "genos",
		Short: "A generative desktop shell driven by a language model",
		Long: `genos turns every click into a prompt and streams the generated window back.

Hosts:
  genos serve      # browser shell on http://127.0.0.1:8787
  genos tui        # terminal UI
  genos console    # line-oriented shell`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if strings.TrimSpace(opts.lang) != "" {
				i18n.Init(opts.lang)
			}
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config JSON/JSONC")
	root.PersistentFlags().StringVar(&opts.lang, "lang", "", "UI language (en, zh-CN)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(
		newServeCmd(opts),
		newTUICmd(opts),
		newConsoleCmd(opts),
		newPromptCmd(opts),
		newModelsCmd(opts),
		newConfigCmd(opts),
		newSessionsCmd(opts),
	)
	return root
}

func (o *rootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if lvl := strings.TrimSpace(o.logLevel); lvl != "" {
		cfg.Log.Level = strings.ToLower(lvl)
	}
	return cfg, nil
}

// shell 加载配置、日志并构建外壳；调用方负责 cleanup
// shell loads config and logging and builds the shell; the caller runs cleanup
func (o *rootOptions) shell(ctx context.Context, host string, logToFile bool, surface render.Surface) (*bootstrap.BuildResult, func(), error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := bootstrap.NewLogger(cfg, logToFile)
	if err != nil {
		return nil, nil, fmt.Errorf("init logging: %w", err)
	}
	slog.SetDefault(logger.Logger)

	res, err := bootstrap.Build(ctx, cfg, bootstrap.Options{
		Host:    host,
		Surface: surface,
		Logger:  logger.Logger,
	})
	if err != nil {
		_ = logger.Close()
		return nil, nil, err
	}
	cleanup := func() {
		if err := res.Close(); err != nil {
			logger.Warn("close store failed", "error", err)
		}
		_ = logger.Close()
	}
	return res, cleanup, nil
}

// quietLogger 非宿主命令只输出警告以上
// quietLogger serves the non-host commands, which only surface warnings
func quietLogger() *slog.Logger {
	l, err := logging.New(logging.Options{Level: "warn", Writer: os.Stderr})
	if err != nil {
		return logging.Discard()
	}
	return l.Logger
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
