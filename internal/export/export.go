package export

import (
	"context"
	"fmt"
	"io"

	"genos/internal/storage"
)

// Session 一个会话及其全部轮次
// Session is one recorded session with its turns
type Session struct {
	Meta  storage.SessionMeta  `json:"session" yaml:"session"`
	Turns []storage.TurnRecord `json:"turns" yaml:"turns"`
}

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(session *Session, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: yaml, json, jsonl, md)", format)
	}
}

// Reader 导出需要的存储读能力
// Reader is the storage capability an export needs
type Reader interface {
	LoadSession(ctx context.Context, id string) (storage.SessionMeta, error)
	ListTurns(ctx context.Context, sessionID string) ([]storage.TurnRecord, error)
}

// Load 读取会话与轮次
// Load reads a session and its turns
func Load(ctx context.Context, r Reader, id string) (*Session, error) {
	meta, err := r.LoadSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	turns, err := r.ListTurns(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list turns %s: %w", id, err)
	}
	return &Session{Meta: meta, Turns: turns}, nil
}
