package render

import (
	"context"
	"log/slog"
	"sync"
)

// Target 渲染目标
// Target names a render destination
type Target int

const (
	Primary Target = iota
	PiP
)

func (t Target) String() string {
	if t == PiP {
		return "pip"
	}
	return "primary"
}

// ParseTarget maps "pip" to PiP and anything else to Primary.
func ParseTarget(s string) Target {
	if s == "pip" {
		return PiP
	}
	return Primary
}

// Surface 宿主界面：绘制内容并重新激活脚本。
// 调用发生在 Loop 的锁内，实现不得回调 Loop
// Surface is the host display. Calls are made under the Loop's lock, so
// implementations must not call back into the Loop.
type Surface interface {
	Paint(target Target, content string)
	Activate(target Target, scripts []Script)
}

type buffer struct {
	content   string
	processed string
	loading   bool
	fresh     bool
	gen       uint64
	cancel    context.CancelFunc
}

// Loop 每个目标一个缓冲；只有最新一代的轮次可以写入
// Loop keeps one buffer per target; only the newest turn may write to it
type Loop struct {
	mu      sync.Mutex
	bufs    [2]buffer
	surface Surface
	logger  *slog.Logger
}

func NewLoop(surface Surface, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{surface: surface, logger: logger}
}

// SetSurface swaps the host surface and repaints both targets on it.
func (l *Loop) SetSurface(surface Surface) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.surface = surface
	for t := range l.bufs {
		l.bufs[t].processed = ""
		l.paint(Target(t))
		l.settle(Target(t))
	}
}

// Begin 开始新一轮：取消被取代的轮次，递增代号，进入加载状态
// Begin starts a turn: cancels the superseded turn, bumps the generation and
// sets loading. cancel, if non-nil, is invoked when this turn is superseded.
func (l *Loop) Begin(target Target, cancel context.CancelFunc) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	b := &l.bufs[target]
	if b.cancel != nil {
		b.cancel()
	}
	b.gen++
	b.cancel = cancel
	b.loading = true
	b.fresh = true
	b.processed = ""
	return b.gen
}

// Write 首个片段替换内容，之后追加；过期代号的写入被丢弃
// Write replaces content on the first fragment of a turn and appends after
// that. Writes from a stale generation are discarded and return false.
func (l *Loop) Write(target Target, gen uint64, fragment string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	b := &l.bufs[target]
	if gen != b.gen || !b.loading {
		return false
	}
	if b.fresh {
		b.content = fragment
		b.fresh = false
	} else {
		b.content += fragment
	}
	l.paint(target)
	return true
}

// Finish 结束加载并结算脚本
// Finish clears loading and settles the target
func (l *Loop) Finish(target Target, gen uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	b := &l.bufs[target]
	if gen != b.gen {
		return false
	}
	b.loading = false
	b.fresh = false
	b.cancel = nil
	l.settle(target)
	return true
}

// Set 直接替换内容（打开、关闭、画中画移动），使在途轮次失效
// Set replaces content outright (open, close, PiP moves), invalidating any
// in-flight turn
func (l *Loop) Set(target Target, content string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.set(target, content)
}

// Move 把 from 的内容原样移到 to，并清空 from
// Move transfers from's content verbatim to to and clears from
func (l *Loop) Move(from, to Target) {
	l.mu.Lock()
	defer l.mu.Unlock()
	content := l.bufs[from].content
	l.set(to, content)
	l.set(from, "")
}

func (l *Loop) set(target Target, content string) {
	b := &l.bufs[target]
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	b.gen++
	wasLoading := b.loading
	b.loading = false
	b.fresh = false
	if content == b.content && !wasLoading {
		return
	}
	b.content = content
	l.paint(target)
	l.settle(target)
}

func (l *Loop) Content(target Target) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bufs[target].content
}

func (l *Loop) Loading(target Target) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bufs[target].loading
}

// AnyLoading reports whether either target has a turn in flight.
func (l *Loop) AnyLoading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bufs[Primary].loading || l.bufs[PiP].loading
}

// Generation returns the target's current generation token.
func (l *Loop) Generation(target Target) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bufs[target].gen
}

func (l *Loop) paint(target Target) {
	if l.surface != nil {
		l.surface.Paint(target, l.bufs[target].content)
	}
}

// settle 非加载状态且内容与上次处理的不同时，重新激活脚本
// settle re-activates scripts when not loading and the content differs from
// the last processed content
func (l *Loop) settle(target Target) {
	b := &l.bufs[target]
	if b.loading || b.content == b.processed {
		return
	}
	scripts := FindScripts(b.content)
	if len(scripts) > 0 && l.surface != nil {
		l.logger.Debug("activating scripts", "target", target.String(), "count", len(scripts))
		l.surface.Activate(target, scripts)
	}
	b.processed = b.content
}
