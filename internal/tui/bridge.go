package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"genos/internal/credential"
	"genos/internal/orchestrator"
	"genos/internal/render"
)

// PaintMsg 缓冲区内容更新
// PaintMsg carries new buffer content
type PaintMsg struct {
	Target  render.Target
	Content string
}

// StateMsg 编排器状态快照
// StateMsg carries an orchestrator snapshot
type StateMsg struct{ State orchestrator.State }

// KeyRequestMsg 请求用户输入密钥；回复写入 Reply
// KeyRequestMsg asks the user for a key; the answer goes to Reply
type KeyRequestMsg struct{ Reply chan<- string }

// Bridge 把渲染循环、编排器与凭据回调转发给 Bubble Tea 程序。
// post 从不阻塞：Surface 回调运行在渲染循环锁内。
//
// Bridge forwards render loop, orchestrator and credential callbacks to the
// Bubble Tea program. post never blocks because Surface callbacks run under
// the render loop lock.
type Bridge struct {
	mu      sync.Mutex
	send    func(tea.Msg)
	pending []tea.Msg
	wake    chan struct{}
}

func NewBridge() *Bridge {
	return &Bridge{wake: make(chan struct{}, 1)}
}

// Attach 设置消息投递函数，通常是 (*tea.Program).Send
// Attach sets the delivery function, usually (*tea.Program).Send
func (b *Bridge) Attach(send func(tea.Msg)) {
	b.mu.Lock()
	b.send = send
	b.mu.Unlock()
	b.signal()
}

func (b *Bridge) post(msg tea.Msg) {
	b.mu.Lock()
	b.pending = append(b.pending, msg)
	b.mu.Unlock()
	b.signal()
}

func (b *Bridge) signal() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Pump 按顺序投递排队消息，直到 ctx 结束
// Pump delivers queued messages in order until ctx is done
func (b *Bridge) Pump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.wake:
		}
		b.mu.Lock()
		send := b.send
		if send == nil {
			b.mu.Unlock()
			continue
		}
		batch := b.pending
		b.pending = nil
		b.mu.Unlock()
		for _, msg := range batch {
			send(msg)
		}
	}
}

// Paint implements render.Surface.
func (b *Bridge) Paint(target render.Target, content string) {
	b.post(PaintMsg{Target: target, Content: content})
}

// Activate implements render.Surface; a terminal does not run scripts.
func (b *Bridge) Activate(render.Target, []render.Script) {}

// PublishState serves as the orchestrator observer.
func (b *Bridge) PublishState(s orchestrator.State) {
	b.post(StateMsg{State: s})
}

// PromptKey 实现 credential.Prompter；程序未运行时不可用
// PromptKey implements credential.Prompter; it is unavailable until the
// program is attached
func (b *Bridge) PromptKey(ctx context.Context) (string, error) {
	b.mu.Lock()
	attached := b.send != nil
	b.mu.Unlock()
	if !attached {
		return "", credential.ErrNoPrompter
	}
	reply := make(chan string, 1)
	b.post(KeyRequestMsg{Reply: reply})
	select {
	case key := <-reply:
		return key, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
