package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"genos/internal/config"
	"genos/internal/credential"
	"genos/internal/kernel"
	"genos/internal/orchestrator"
	"genos/internal/prefs"
	"genos/internal/render"
	"genos/internal/storage"
)

// Options 宿主相关的构建选项
// Options carries host-specific build choices
type Options struct {
	// Host 记录在会话元数据中：web/tui/console
	Host string
	// Surface 渲染循环的初始 Surface；可稍后通过 Render.SetSurface 替换
	// Surface is the initial render surface; hosts may replace it later
	Surface render.Surface
	Logger  *slog.Logger
	// NewProvider 覆盖 provider 工厂（测试用）
	// NewProvider overrides the provider factory, mainly for tests
	NewProvider kernel.ProviderFactory
}

// BuildResult 与 UI 无关的构建结果，供 main 选择宿主
// BuildResult is UI-agnostic; main hands it to the chosen host
type BuildResult struct {
	Config    config.Config
	Layout    storage.Layout
	Store     *storage.SQLiteStore
	Keys      *credential.Keyring
	Kernel    *kernel.Client
	Render    *render.Loop
	Orch      *orchestrator.Orchestrator
	SessionID string
	Logger    *slog.Logger
}

// Close 等待在途轮次后关闭存储
// Close drains in-flight turns and closes the store
func (r *BuildResult) Close() error {
	if r == nil {
		return nil
	}
	if r.Orch != nil {
		r.Orch.Wait()
	}
	if r.Store != nil {
		return r.Store.Close()
	}
	return nil
}

// Build 按依赖顺序初始化：数据目录 → 存储 → 凭据 → 缓存配置 → 内核 → 渲染循环 → 编排器。
// 调用方负责 defer result.Close()。
//
// Build initializes in dependency order: data dir, store, credentials, cache
// config, kernel, render loop, orchestrator. The caller must defer result.Close().
func Build(ctx context.Context, cfg config.Config, opts Options) (*BuildResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	layout, err := storage.NewLayout(cfg.Storage.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("init data dir: %w", err)
	}
	store, err := storage.NewSQLiteStore(layout.DBPath())
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	keys := credential.NewKeyring(cfg.Provider.APIKey, store, logger)
	if err := keys.Load(ctx); err != nil {
		logger.Warn("stored api key unavailable", "error", err)
	}

	cache := prefs.LoadCacheConfig(ctx, store, logger)

	factory := opts.NewProvider
	if factory == nil {
		factory = NewProviderFactory(cfg.Provider)
	}
	k := kernel.New(kernel.Config{
		Model:       cfg.Provider.Model,
		Keys:        keys,
		NewProvider: factory,
		Logger:      logger.With("component", "kernel"),
	})

	loop := render.NewLoop(opts.Surface, logger.With("component", "render"))

	sessionID := storage.NewSessionID()
	orch := orchestrator.New(k, loop, keys, orchestrator.Options{
		MaxHistory:   cfg.Shell.MaxHistory,
		Statefulness: cfg.Shell.Statefulness,
		Cache:        cache,
		Prefs:        store,
		Recorder:     store,
		SessionID:    sessionID,
		Host:         opts.Host,
		Logger:       logger.With("component", "orchestrator"),
	})

	logger.Info("shell built",
		"host", opts.Host,
		"session", sessionID,
		"model", k.Model(),
		"db", store.Path(),
		"has_key", keys.HasCredential(),
	)

	return &BuildResult{
		Config:    cfg,
		Layout:    layout,
		Store:     store,
		Keys:      keys,
		Kernel:    k,
		Render:    loop,
		Orch:      orch,
		SessionID: sessionID,
		Logger:    logger,
	}, nil
}
