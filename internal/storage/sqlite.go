package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore 基于 SQLite (WAL 模式) 的持久化实现
// SQLiteStore implements Store using SQLite with WAL mode
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore 创建并初始化 SQLite 数据库
// NewSQLiteStore creates and initializes a SQLite database
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// PRAGMA 按连接生效，单连接保证 foreign_keys 始终开启
	// PRAGMAs are per connection; a single connection keeps foreign_keys on
	db.SetMaxOpenConns(1)

	// 启用 WAL 模式和优化 PRAGMA / Enable WAL and performance PRAGMAs
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	store := &SQLiteStore{db: db, path: dbPath}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT PRIMARY KEY,
		host       TEXT NOT NULL DEFAULT '',
		model      TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS turns (
		id            TEXT PRIMARY KEY,
		session_id    TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		seq           INTEGER NOT NULL,
		target        TEXT NOT NULL,
		app           TEXT NOT NULL DEFAULT '',
		event         TEXT NOT NULL DEFAULT '{}',
		prompt_tokens INTEGER NOT NULL DEFAULT 0,
		outcome       TEXT NOT NULL DEFAULT '',
		content       TEXT NOT NULL DEFAULT '',
		started_at    TEXT NOT NULL,
		duration_ms   INTEGER NOT NULL DEFAULT 0,
		UNIQUE(session_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, seq);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close 关闭数据库连接 / Close the database connection
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// --- Key-value ---

func (s *SQLiteStore) GetValue(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key=?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) SetValue(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		key, value, nowUTC())
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteValue(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key=?", key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// --- Session Operations ---

func (s *SQLiteStore) CreateSession(ctx context.Context, meta SessionMeta) error {
	if strings.TrimSpace(meta.ID) == "" {
		return fmt.Errorf("session id is empty")
	}
	now := nowUTC()
	if strings.TrimSpace(meta.CreatedAt) == "" {
		meta.CreatedAt = now
	}
	if strings.TrimSpace(meta.UpdatedAt) == "" {
		meta.UpdatedAt = now
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, host, model, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		meta.ID, meta.Host, meta.Model, meta.CreatedAt, meta.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

const sessionColumns = `
	SELECT s.id, s.host, s.model, s.created_at, s.updated_at,
		(SELECT COUNT(*) FROM turns t WHERE t.session_id = s.id)
	FROM sessions s`

func (s *SQLiteStore) LoadSession(ctx context.Context, id string) (SessionMeta, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return SessionMeta{}, fmt.Errorf("session id is empty")
	}
	row := s.db.QueryRowContext(ctx, sessionColumns+" WHERE s.id=?", id)

	var meta SessionMeta
	err := row.Scan(&meta.ID, &meta.Host, &meta.Model, &meta.CreatedAt, &meta.UpdatedAt, &meta.TurnCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SessionMeta{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
		}
		return SessionMeta{}, fmt.Errorf("load session: %w", err)
	}
	return meta, nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context) ([]SessionMeta, error) {
	rows, err := s.db.QueryContext(ctx, sessionColumns+" ORDER BY s.updated_at DESC, s.id DESC")
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var metas []SessionMeta
	for rows.Next() {
		var meta SessionMeta
		if err := rows.Scan(&meta.ID, &meta.Host, &meta.Model, &meta.CreatedAt, &meta.UpdatedAt, &meta.TurnCount); err != nil {
			continue
		}
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

// --- Turn Operations ---

// AppendTurn 追加一轮记录；Seq 为 0 时自动分配下一个序号
// AppendTurn appends a turn; a zero Seq is assigned the next sequence number
func (s *SQLiteStore) AppendTurn(ctx context.Context, turn TurnRecord) error {
	if strings.TrimSpace(turn.SessionID) == "" {
		return fmt.Errorf("session id is empty")
	}
	if turn.ID == "" {
		turn.ID = NewTurnID()
	}
	if turn.StartedAt == "" {
		turn.StartedAt = nowUTC()
	}
	eventJSON, err := json.Marshal(turn.Event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if turn.Seq <= 0 {
		if err := tx.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(seq), 0) + 1 FROM turns WHERE session_id=?", turn.SessionID,
		).Scan(&turn.Seq); err != nil {
			return fmt.Errorf("next seq: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO turns (id, session_id, seq, target, app, event, prompt_tokens, outcome, content, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		turn.ID, turn.SessionID, turn.Seq, turn.Target, turn.App, string(eventJSON),
		turn.PromptTokens, turn.Outcome, turn.Content, turn.StartedAt, turn.DurationMS,
	); err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}

	// 更新 session 时间戳 / Update session timestamp
	if _, err := tx.ExecContext(ctx, "UPDATE sessions SET updated_at=? WHERE id=?", nowUTC(), turn.SessionID); err != nil {
		return fmt.Errorf("update session timestamp: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListTurns(ctx context.Context, sessionID string) ([]TurnRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, seq, target, app, event, prompt_tokens, outcome, content, started_at, duration_ms
		FROM turns WHERE session_id=? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var turns []TurnRecord
	for rows.Next() {
		var turn TurnRecord
		var eventJSON string
		if err := rows.Scan(&turn.ID, &turn.SessionID, &turn.Seq, &turn.Target, &turn.App, &eventJSON,
			&turn.PromptTokens, &turn.Outcome, &turn.Content, &turn.StartedAt, &turn.DurationMS); err != nil {
			continue
		}
		_ = json.Unmarshal([]byte(eventJSON), &turn.Event)
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

// --- Helpers ---

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}
