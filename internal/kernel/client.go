package kernel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"genos/internal/apps"
	"genos/internal/history"
	"genos/internal/prefs"
	"genos/internal/prompt"
	"genos/internal/provider"
	"genos/internal/tokens"
)

// KeySource 每次调用时读取当前凭据
// KeySource yields the credential current at call time
type KeySource interface {
	APIKey() string
}

// ProviderFactory 用给定密钥构造 provider
// ProviderFactory builds a provider bound to an API key
type ProviderFactory func(apiKey string) provider.Provider

// Config 内核客户端配置
// Config configures the kernel client
type Config struct {
	Model       string
	Temperature *float64
	MaxTokens   int
	Apps        apps.Registry
	Keys        KeySource
	NewProvider ProviderFactory
	Logger      *slog.Logger
}

// Client 把交互历史变成流式窗口内容
// Client turns interaction history into streamed window content
type Client struct {
	cfg    Config
	logger *slog.Logger
}

// Request 单轮生成的输入
// Request is the input of one generation turn
type Request struct {
	History    history.History
	MaxHistory int
	Cache      prefs.CacheConfig
}

func New(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, logger: logger}
}

// Model returns the configured model, or the built-in default.
func (c *Client) Model() string {
	if m := strings.TrimSpace(c.cfg.Model); m != "" {
		return m
	}
	return prompt.Model
}

// Prompt 组装请求对应的提示词
// Prompt composes the prompt text for req
func (c *Client) Prompt(req Request) string {
	return prompt.Compose(prompt.Input{
		History:    req.History,
		MaxHistory: req.MaxHistory,
		Cache:      req.Cache,
		Apps:       c.cfg.Apps,
	})
}

// Stream 打开一轮生成。缺少密钥、空历史与上游拒绝都以片段形式返回；
// 只有在拿到上游状态之前的传输失败才返回 error
// Stream opens a generation turn. Missing key, empty history and upstream
// rejections come back as fragments; only transport failures before any
// upstream status are returned as an error.
func (c *Client) Stream(ctx context.Context, req Request) (*Stream, error) {
	key := ""
	if c.cfg.Keys != nil {
		key = strings.TrimSpace(c.cfg.Keys.APIKey())
	}
	if key == "" {
		return staticStream(KindMissingKey, missingKeyFragment, nil), nil
	}
	if len(req.History) == 0 {
		return staticStream(KindNoContext, noContextFragment, nil), nil
	}
	if c.cfg.NewProvider == nil {
		return nil, errors.New("kernel: no provider factory configured")
	}

	text := c.Prompt(req)
	model := c.Model()
	promptTokens := tokens.Estimate(text)

	ctx, cancel := context.WithCancel(ctx)
	ts, err := c.cfg.NewProvider(key).StreamText(ctx, provider.ChatRequest{
		Model:       model,
		Prompt:      text,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		canceled := ctx.Err() != nil
		cancel()
		if canceled {
			return nil, fmt.Errorf("open stream: %w", err)
		}
		if provider.IsTransport(err) {
			c.logger.Warn("kernel uplink failed", "error", err)
			return nil, fmt.Errorf("open stream: %w", err)
		}
		kind := Classify(err)
		c.logger.Warn("kernel request rejected", "kind", kind.String(), "error", err)
		s := staticStream(kind, Fragment(kind, model, err), err)
		s.promptTokens = promptTokens
		return s, nil
	}

	s := &Stream{
		fragments:    make(chan string),
		done:         make(chan struct{}),
		cancel:       cancel,
		promptTokens: promptTokens,
		started:      time.Now(),
	}
	go s.run(ctx, ts, model, c.logger)
	return s, nil
}

// Stream 一轮生成的片段序列；Fragments 关闭后 Kind 与 Err 才有效
// Stream is one turn's fragment sequence; Kind and Err are valid once
// Fragments has been closed
type Stream struct {
	fragments    chan string
	done         chan struct{}
	cancel       context.CancelFunc
	promptTokens int
	started      time.Time

	mu   sync.Mutex
	kind Kind
	err  error
}

func staticStream(kind Kind, fragment string, err error) *Stream {
	s := &Stream{
		fragments: make(chan string, 1),
		done:      make(chan struct{}),
		cancel:    func() {},
		kind:      kind,
		err:       err,
	}
	s.fragments <- fragment
	close(s.fragments)
	close(s.done)
	return s
}

// Fragments 按到达顺序投递非空片段，结束时关闭
// Fragments delivers non-empty fragments in arrival order and is closed at the end
func (s *Stream) Fragments() <-chan string {
	return s.fragments
}

func (s *Stream) Kind() Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kind
}

func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// PromptTokens returns the estimated prompt size.
func (s *Stream) PromptTokens() int {
	return s.promptTokens
}

// Close 取消生产者并等待其退出
// Close cancels the producer and waits for it to exit
func (s *Stream) Close() {
	s.cancel()
	<-s.done
}

func (s *Stream) finish(kind Kind, err error) {
	s.mu.Lock()
	s.kind = kind
	s.err = err
	s.mu.Unlock()
}

func (s *Stream) run(ctx context.Context, ts provider.TextStream, model string, logger *slog.Logger) {
	defer close(s.done)
	defer close(s.fragments)
	defer ts.Close()
	defer s.cancel()

	count := 0
	for {
		text, err := ts.Recv()
		if errors.Is(err, io.EOF) {
			s.finish(KindOK, nil)
			logger.Debug("kernel stream complete", "fragments", count, "prompt_tokens", s.promptTokens,
				"elapsed", time.Since(s.started))
			return
		}
		if err != nil {
			if ctx.Err() != nil {
				s.finish(KindCanceled, ctx.Err())
				return
			}
			kind := Classify(err)
			s.finish(kind, err)
			logger.Warn("kernel stream failed", "kind", kind.String(), "fragments", count, "error", err)
			s.send(ctx, Fragment(kind, model, err))
			return
		}
		if !s.send(ctx, text) {
			s.finish(KindCanceled, ctx.Err())
			return
		}
		count++
	}
}

func (s *Stream) send(ctx context.Context, text string) bool {
	select {
	case s.fragments <- text:
		return true
	case <-ctx.Done():
		return false
	}
}
