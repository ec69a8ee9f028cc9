package provider

import "context"

// ChatRequest 封装一次文本生成请求
// ChatRequest wraps a single text generation call
type ChatRequest struct {
	Model       string
	Prompt      string
	Temperature *float64
	MaxTokens   int
}

// TextStream 单次、不可重启的增量文本序列
// TextStream is a single-pass, non-restartable sequence of text deltas.
// Recv returns io.EOF once the upstream stream has ended.
type TextStream interface {
	Recv() (string, error)
	Close() error
}

// ModelInfo 模型基本信息
// ModelInfo describes a model
type ModelInfo struct {
	ID      string
	OwnedBy string
}

// Provider 模型提供方接口
// Provider is the model backend interface
type Provider interface {
	// StreamText 打开流式请求；传输层失败按配置重试
	// StreamText opens a streamed request; transport failures are retried
	StreamText(ctx context.Context, req ChatRequest) (TextStream, error)

	// ListModels 列出可用模型
	// ListModels lists available models
	ListModels(ctx context.Context) ([]ModelInfo, error)

	Name() string
	CurrentModel() string
	SetModel(model string) error
}
