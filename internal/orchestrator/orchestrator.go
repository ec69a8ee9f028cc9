package orchestrator

import (
	"context"
	"log/slog"
	"sync"

	"genos/internal/apps"
	"genos/internal/history"
	"genos/internal/kernel"
	"genos/internal/prefs"
	"genos/internal/render"
)

// Options 编排器可选项
// Options configures the orchestrator
type Options struct {
	Apps         apps.Registry
	MaxHistory   int
	Statefulness bool
	Cache        prefs.CacheConfig
	// Prefs 缓存配置写入目标；nil 时只记录警告
	// Prefs receives cache config writes; nil only logs a warning
	Prefs     prefs.KV
	Recorder  Recorder
	SessionID string
	Host      string
	Logger    *slog.Logger
}

// Orchestrator 桌面外壳唯一的跨组件状态持有者
// Orchestrator is the desktop shell's single owner of cross-cutting state
type Orchestrator struct {
	mu     sync.Mutex
	kernel *kernel.Client
	render *render.Loop
	keys   Credentials
	apps   apps.Registry
	prefs  prefs.KV
	logger *slog.Logger

	recorder       Recorder
	sessionID      string
	host           string
	sessionCreated bool

	state    State
	observer Observer
	wg       sync.WaitGroup
}

func New(k *kernel.Client, loop *render.Loop, keys Credentials, opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := opts.Apps
	if registry == nil {
		registry = apps.Default()
	}
	maxHistory := opts.MaxHistory
	if !history.ValidLength(maxHistory) {
		maxHistory = history.MaxLength
	}
	cache := opts.Cache
	if cache.Validate() != nil {
		cache = prefs.DefaultCacheConfig()
	}
	return &Orchestrator{
		kernel:    k,
		render:    loop,
		keys:      keys,
		apps:      registry,
		prefs:     opts.Prefs,
		logger:    logger,
		recorder:  opts.Recorder,
		sessionID: opts.SessionID,
		host:      opts.Host,
		state: State{
			View:         ViewDesktop,
			MaxHistory:   maxHistory,
			Statefulness: opts.Statefulness,
			Cache:        cache,
		},
	}
}

// SetObserver 设置状态回调；回调在锁外执行
// SetObserver installs the state callback; it runs outside the lock
func (o *Orchestrator) SetObserver(fn Observer) {
	o.mu.Lock()
	o.observer = fn
	o.mu.Unlock()
}

// Render exposes the render loop for hosts that read buffer contents.
func (o *Orchestrator) Render() *render.Loop {
	return o.render
}

func (o *Orchestrator) Apps() apps.Registry {
	return o.apps
}

// SessionID returns the id turns are recorded under.
func (o *Orchestrator) SessionID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sessionID
}

// Snapshot 返回当前状态的副本
// Snapshot returns a copy of the current state
func (o *Orchestrator) Snapshot() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() State {
	s := o.state
	s.History = o.state.History.Clone()
	s.Loading = o.render.AnyLoading()
	if o.keys != nil {
		s.HasKey = o.keys.HasCredential()
	}
	switch {
	case s.View == ViewPanel:
		s.Title = TitlePanel
	case s.ActiveApp != "":
		s.Title = o.apps.Name(s.ActiveApp)
	default:
		s.Title = TitleDesktop
	}
	if s.PiPApp != "" {
		s.PiPTitle = o.apps.Name(s.PiPApp) + " Active"
	}
	return s
}

func (o *Orchestrator) publish() {
	o.mu.Lock()
	fn := o.observer
	snap := o.snapshotLocked()
	o.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}

// Wait 等待所有在途轮次与选择器结束
// Wait drains in-flight turns and selector runs
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Boot 没有凭据时先打开选择器，然后进入桌面
// Boot opens the credential selector when no key is present, then shows the desktop
func (o *Orchestrator) Boot(ctx context.Context) error {
	o.mu.Lock()
	booted := o.state.Booted
	o.mu.Unlock()
	if booted {
		return nil
	}

	if o.keys != nil && !o.keys.HasCredential() {
		if err := o.keys.OpenSelector(ctx); err != nil {
			o.logger.Warn("boot key selection skipped", "error", err)
		}
	}

	o.mu.Lock()
	o.state.Booted = true
	o.mu.Unlock()
	o.publish()
	return nil
}

// Open 打开应用：已钉在画中画的应用被还原，否则以引导事件开始新一轮
// Open launches an app: a pinned app is restored, anything else starts a
// fresh turn from the bootstrap event
func (o *Orchestrator) Open(ctx context.Context, appID string) error {
	app, ok := o.apps.Lookup(appID)
	if !ok {
		return ErrUnknownApp
	}

	o.mu.Lock()
	if !o.state.Booted {
		o.mu.Unlock()
		return ErrNotBooted
	}
	if o.state.PiPApp == app.ID {
		o.restoreLocked()
		o.mu.Unlock()
		o.publish()
		return nil
	}

	ev := history.Bootstrap(app)
	o.state.History = history.Reset(&ev)
	o.state.ActiveApp = app.ID
	o.state.View = ViewApp
	o.render.Set(render.Primary, "")
	o.startTurnLocked(ctx, render.Primary, o.state.History)
	o.mu.Unlock()

	o.logger.Info("app opened", "app", app.ID)
	o.publish()
	return nil
}

// TogglePanel 切换参数面板；进入时清空当前应用，画中画不受影响
// TogglePanel flips the parameters panel; entering clears the app view and
// leaves the PiP slot untouched
func (o *Orchestrator) TogglePanel() View {
	o.mu.Lock()
	if o.state.View == ViewPanel {
		o.state.View = ViewDesktop
	} else {
		o.state.View = ViewPanel
		o.state.ActiveApp = ""
		o.state.History = nil
		o.render.Set(render.Primary, "")
	}
	view := o.state.View
	o.mu.Unlock()
	o.publish()
	return view
}

// ApplyParameters 校验并应用面板参数，缓存配置会被持久化
// ApplyParameters validates and applies panel parameters; the cache config is persisted
func (o *Orchestrator) ApplyParameters(ctx context.Context, p Parameters) error {
	if !history.ValidLength(p.MaxHistory) {
		return ErrInvalidHistoryLength
	}
	if err := p.Cache.Validate(); err != nil {
		return err
	}
	o.mu.Lock()
	o.state.MaxHistory = p.MaxHistory
	o.state.Statefulness = p.Statefulness
	o.state.Cache = p.Cache
	o.mu.Unlock()

	prefs.SaveCacheConfig(ctx, o.prefs, p.Cache, o.logger)
	o.logger.Info("kernel parameters applied",
		"max_history", p.MaxHistory, "statefulness", p.Statefulness,
		"cache_enabled", p.Cache.Enabled, "cache_gb", p.Cache.SizeGB)
	o.publish()
	return nil
}

// SetCacheConfig 更新并持久化缓存配置（启动界面使用）
// SetCacheConfig updates and persists the cache config (used by the boot screen)
func (o *Orchestrator) SetCacheConfig(ctx context.Context, cfg prefs.CacheConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	o.mu.Lock()
	o.state.Cache = cfg
	o.mu.Unlock()
	prefs.SaveCacheConfig(ctx, o.prefs, cfg, o.logger)
	o.publish()
	return nil
}

// DismissError clears the toast.
func (o *Orchestrator) DismissError() {
	o.mu.Lock()
	o.setErrorLocked("")
	o.mu.Unlock()
	o.publish()
}

func (o *Orchestrator) setErrorLocked(msg string) {
	o.state.Error = msg
	o.state.ErrorKeyAction = msg != "" && keyActionFor(msg)
}
