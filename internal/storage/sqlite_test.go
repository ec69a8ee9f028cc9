package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"genos/internal/interaction"
	"genos/internal/prefs"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_KV(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, ok, err := store.GetValue(ctx, "missing"); err != nil || ok {
		t.Fatalf("GetValue(missing) ok=%v err=%v", ok, err)
	}
	if err := store.SetValue(ctx, "k", "v1"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if err := store.SetValue(ctx, "k", "v2"); err != nil {
		t.Fatalf("SetValue overwrite: %v", err)
	}
	v, ok, err := store.GetValue(ctx, "k")
	if err != nil || !ok || v != "v2" {
		t.Fatalf("GetValue=%q ok=%v err=%v, want v2", v, ok, err)
	}
	if err := store.DeleteValue(ctx, "k"); err != nil {
		t.Fatalf("DeleteValue: %v", err)
	}
	if _, ok, _ := store.GetValue(ctx, "k"); ok {
		t.Fatal("value should be deleted")
	}
}

func TestSQLiteStore_CacheConfigRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	want := prefs.CacheConfig{Enabled: false, SizeGB: 15}
	prefs.SaveCacheConfig(ctx, store, want, nil)
	if got := prefs.LoadCacheConfig(ctx, store, nil); got != want {
		t.Fatalf("LoadCacheConfig=%+v, want %+v", got, want)
	}

	_ = store.SetValue(ctx, prefs.CacheConfigKey, `{"enabled":"yes","sizeGB":10}`)
	if got := prefs.LoadCacheConfig(ctx, store, nil); got != prefs.DefaultCacheConfig() {
		t.Fatalf("malformed config=%+v, want default", got)
	}
}

func TestSQLiteStore_SessionsAndTurns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateSession(ctx, SessionMeta{ID: "sess_test_001", Host: "web", Model: "gemini-3-flash-preview"}); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	ev := interaction.Event{ID: "calculator_app", Type: interaction.TypeAppOpen, ElementLabel: "Calculator", AppContext: "calculator_app"}
	for _, content := range []string{"<div>calc</div>", "<div>calc 2</div>"} {
		if err := store.AppendTurn(ctx, TurnRecord{
			SessionID: "sess_test_001",
			Target:    "primary",
			App:       "calculator_app",
			Event:     ev,
			Outcome:   "ok",
			Content:   content,
		}); err != nil {
			t.Fatalf("AppendTurn: %v", err)
		}
	}

	turns, err := store.ListTurns(ctx, "sess_test_001")
	if err != nil {
		t.Fatalf("ListTurns: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("ListTurns count=%d, want 2", len(turns))
	}
	if turns[0].Seq != 1 || turns[1].Seq != 2 {
		t.Fatalf("seqs=%d,%d, want 1,2", turns[0].Seq, turns[1].Seq)
	}
	if turns[1].Content != "<div>calc 2</div>" {
		t.Fatalf("Content=%q", turns[1].Content)
	}
	if turns[0].Event != ev {
		t.Fatalf("Event=%+v, want %+v", turns[0].Event, ev)
	}
	if turns[0].ID == "" || turns[0].ID == turns[1].ID {
		t.Fatal("turn ids should be assigned and unique")
	}

	meta, err := store.LoadSession(ctx, "sess_test_001")
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if meta.TurnCount != 2 || meta.Host != "web" {
		t.Fatalf("meta=%+v", meta)
	}

	metas, err := store.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(metas) != 1 {
		t.Fatalf("ListSessions count=%d, want 1", len(metas))
	}
}

func TestSQLiteStore_AppendTurnUnknownSession(t *testing.T) {
	store := newTestStore(t)
	err := store.AppendTurn(context.Background(), TurnRecord{SessionID: "nope", Target: "primary"})
	if err == nil {
		t.Fatal("expected foreign key failure for unknown session")
	}
}

func TestSQLiteStore_LoadNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.LoadSession(context.Background(), "nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v, want ErrNotFound", err)
	}
}

func TestNewLayout(t *testing.T) {
	base := filepath.Join(t.TempDir(), "genos")
	l, err := NewLayout(base)
	if err != nil {
		t.Fatalf("NewLayout: %v", err)
	}
	if l.DBPath() != filepath.Join(base, "genos.db") {
		t.Fatalf("DBPath=%q", l.DBPath())
	}
	if _, err := NewLayout("  "); err == nil {
		t.Fatal("empty base dir should fail")
	}
}
