package storage

import "genos/internal/interaction"

// SessionMeta 会话元数据；一次宿主运行对应一个会话
// SessionMeta holds session metadata; one host run is one session
type SessionMeta struct {
	ID        string `json:"id" yaml:"id"`
	Host      string `json:"host" yaml:"host"`
	Model     string `json:"model" yaml:"model"`
	CreatedAt string `json:"created_at" yaml:"created_at"`
	UpdatedAt string `json:"updated_at" yaml:"updated_at"`
	TurnCount int    `json:"turn_count" yaml:"turn_count"`
}

// TurnRecord 一轮已完成的生成
// TurnRecord is one completed generation turn
type TurnRecord struct {
	ID           string            `json:"id" yaml:"id"`
	SessionID    string            `json:"session_id" yaml:"session_id"`
	Seq          int               `json:"seq" yaml:"seq"`
	Target       string            `json:"target" yaml:"target"`
	App          string            `json:"app,omitempty" yaml:"app,omitempty"`
	Event        interaction.Event `json:"event" yaml:"event"`
	PromptTokens int               `json:"prompt_tokens" yaml:"prompt_tokens"`
	Outcome      string            `json:"outcome" yaml:"outcome"`
	Content      string            `json:"content" yaml:"content"`
	StartedAt    string            `json:"started_at" yaml:"started_at"`
	DurationMS   int64             `json:"duration_ms" yaml:"duration_ms"`
}
