package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_WritesTextWithLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if isSystemdService() {
		t.Skip("text handler disabled under systemd")
	}
	logger.Info("hidden")
	logger.Warn("shown", "app", "notepad_app")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info record should be filtered: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "app=notepad_app") {
		t.Fatalf("output=%q", out)
	}

	logger.Level.Set(slog.LevelDebug)
	logger.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Fatal("level change should apply immediately")
	}
}

func TestNew_UnknownLevel(t *testing.T) {
	if _, err := New(Options{Level: "loud"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestNew_LogFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "genos.log")
	logger, err := New(Options{File: file})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("to file")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Fatalf("file=%q", data)
	}
}

func TestHandler_AddsTurnInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&Handler{Handler: slog.NewTextHandler(&buf, nil)}).With("component", "test")
	ctx := WithTurn(context.Background(), TurnInfo{Target: "pip", Gen: 3})
	logger.InfoContext(ctx, "turn complete")
	out := buf.String()
	if !strings.Contains(out, "turn.target=pip") || !strings.Contains(out, "turn.gen=3") {
		t.Fatalf("output=%q", out)
	}
	if !strings.Contains(out, "component=test") {
		t.Fatalf("WithAttrs lost: %q", out)
	}
}

func TestJournalKeyAndCgroup(t *testing.T) {
	if got := journalKey("turn.gen-id"); got != "TURN_GEN_ID" {
		t.Fatalf("journalKey=%q", got)
	}
	if !cgroupIsService("0::/system.slice/genos.service/sub\n") {
		t.Fatal("service cgroup not detected")
	}
	if cgroupIsService("0::/user.slice/user-1000.slice/session-2.scope\n") {
		t.Fatal("session scope detected as service")
	}
}
