package storage

import (
	"context"
	"errors"
)

// ErrNotFound 记录不存在
// ErrNotFound reports a missing record
var ErrNotFound = errors.New("not found")

// Store 持久化接口：键值偏好、会话与轮次记录
// Store is the persistence interface: key-value preferences, sessions and turn records
type Store interface {
	// 键值 / Key-value
	GetValue(ctx context.Context, key string) (string, bool, error)
	SetValue(ctx context.Context, key, value string) error
	DeleteValue(ctx context.Context, key string) error

	// Session 操作 / Session operations
	CreateSession(ctx context.Context, meta SessionMeta) error
	LoadSession(ctx context.Context, id string) (SessionMeta, error)
	ListSessions(ctx context.Context) ([]SessionMeta, error)

	// Turn 操作 / Turn operations
	AppendTurn(ctx context.Context, turn TurnRecord) error
	ListTurns(ctx context.Context, sessionID string) ([]TurnRecord, error)

	// 生命周期 / Lifecycle
	Close() error
}
