package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/websocket"

	"genos/internal/apps"
	"genos/internal/credential"
	"genos/internal/kernel"
	"genos/internal/orchestrator"
	"genos/internal/provider"
	"genos/internal/render"
)

type pageProvider struct{ page string }

func (p pageProvider) StreamText(context.Context, provider.ChatRequest) (provider.TextStream, error) {
	return &onceStream{text: p.page}, nil
}
func (pageProvider) ListModels(context.Context) ([]provider.ModelInfo, error) { return nil, nil }
func (pageProvider) Name() string                                             { return "page" }
func (pageProvider) CurrentModel() string                                     { return "m" }
func (pageProvider) SetModel(string) error                                    { return nil }

type onceStream struct {
	text string
	done bool
}

func (s *onceStream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}
	s.done = true
	return s.text, nil
}

func (s *onceStream) Close() error { return nil }

type staticKey string

func (k staticKey) APIKey() string                     { return string(k) }
func (k staticKey) HasCredential() bool                { return k != "" }
func (k staticKey) OpenSelector(context.Context) error { return nil }

type fixture struct {
	srv  *Server
	orch *orchestrator.Orchestrator
	http *httptest.Server
}

func newFixture(t *testing.T, page string) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(nil)
	keys := staticKey("k")
	k := kernel.New(kernel.Config{Keys: keys, NewProvider: func(string) provider.Provider { return pageProvider{page: page} }})
	o := orchestrator.New(k, render.NewLoop(hub, nil), keys, orchestrator.Options{MaxHistory: 10})
	s := NewServer(ctx, o, hub, nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		o.Wait()
		ts.Close()
	})
	return &fixture{srv: s, orch: o, http: ts}
}

func (f *fixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.http.URL, "http") + "/ws"
	ws, err := websocket.Dial(url, "", "http://localhost/")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func send(t *testing.T, ws *websocket.Conn, typ MessageType, payload any) {
	t.Helper()
	msg, err := NewMessage(typ, payload)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := json.Marshal(msg)
	if err := websocket.Message.Send(ws, string(data)); err != nil {
		t.Fatalf("Send: %v", err)
	}
}

// waitFor 读取消息直到 match 返回 true
func waitFor(t *testing.T, ws *websocket.Conn, match func(*Message) bool) *Message {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		_ = ws.SetReadDeadline(deadline)
		var data []byte
		if err := websocket.Message.Receive(ws, &data); err != nil {
			t.Fatalf("Receive: %v", err)
		}
		msg, err := ParseMessage(data)
		if err != nil {
			t.Fatalf("ParseMessage: %v", err)
		}
		if match(msg) {
			return msg
		}
	}
}

func stateWhere(t *testing.T, pred func(orchestrator.State) bool) func(*Message) bool {
	return func(m *Message) bool {
		if m.Type != MsgState {
			return false
		}
		var s orchestrator.State
		if err := m.Decode(&s); err != nil {
			t.Fatalf("decode state: %v", err)
		}
		return pred(s)
	}
}

func TestHandler_PageHealthAndApps(t *testing.T) {
	f := newFixture(t, "<p>x</p>")

	resp, err := http.Get(f.http.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "<title>Gemini OS</title>") {
		t.Fatalf("page title missing")
	}
	if cc := resp.Header.Get("Cache-Control"); !strings.Contains(cc, "no-cache") {
		t.Fatalf("Cache-Control=%q", cc)
	}

	resp, _ = http.Get(f.http.URL + "/healthz")
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Fatalf("healthz=%q, want ok", body)
	}

	resp, _ = http.Get(f.http.URL + "/api/apps")
	var list []apps.App
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if len(list) != len(apps.Default()) {
		t.Fatalf("apps=%d, want %d", len(list), len(apps.Default()))
	}

	resp, _ = http.Get(f.http.URL + "/missing")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status=%d, want 404", resp.StatusCode)
	}
}

func TestSocket_BootOpenAndClick(t *testing.T) {
	page := `<h1>Calc</h1><button data-interaction-id="k7">7</button><button data-interaction-id="app_close_button">Close</button>`
	f := newFixture(t, page)
	ws := f.dial(t)

	waitFor(t, ws, stateWhere(t, func(s orchestrator.State) bool { return !s.Booted }))

	send(t, ws, MsgBoot, nil)
	waitFor(t, ws, stateWhere(t, func(s orchestrator.State) bool { return s.Booted && s.View == orchestrator.ViewDesktop }))

	send(t, ws, MsgOpenApp, OpenAppPayload{AppID: "calculator_app"})
	msg := waitFor(t, ws, func(m *Message) bool {
		if m.Type != MsgRender {
			return false
		}
		var p RenderPayload
		_ = m.Decode(&p)
		return p.Target == "primary" && p.Content == page
	})
	if msg == nil {
		t.Fatal("no render")
	}
	waitFor(t, ws, stateWhere(t, func(s orchestrator.State) bool {
		return s.ActiveApp == "calculator_app" && !s.Loading
	}))

	// 点击关闭按钮，路径 [2]
	send(t, ws, MsgClick, ClickPayload{Target: "primary", Path: []int{2}})
	waitFor(t, ws, stateWhere(t, func(s orchestrator.State) bool {
		return s.View == orchestrator.ViewDesktop && s.ActiveApp == ""
	}))
}

func TestSocket_ClickRecordsHistory(t *testing.T) {
	page := `<input id="n" value="1"><button data-interaction-id="calc" data-value-from="n">=</button>`
	f := newFixture(t, page)
	ws := f.dial(t)
	waitFor(t, ws, func(m *Message) bool { return m.Type == MsgState })

	send(t, ws, MsgBoot, nil)
	waitFor(t, ws, stateWhere(t, func(s orchestrator.State) bool { return s.Booted }))
	send(t, ws, MsgOpenApp, OpenAppPayload{AppID: "calculator_app"})
	waitFor(t, ws, stateWhere(t, func(s orchestrator.State) bool { return s.ActiveApp != "" && !s.Loading }))

	send(t, ws, MsgClick, ClickPayload{Target: "primary", Path: []int{1}, Values: map[string]string{"n": "42"}, DOM: page})
	msg := waitFor(t, ws, stateWhere(t, func(s orchestrator.State) bool { return len(s.History) == 2 && !s.Loading }))

	var s orchestrator.State
	_ = msg.Decode(&s)
	if ev := s.History[0]; ev.ID != "calc" || ev.Value != "42" || ev.AppContext != "calculator_app" {
		t.Fatalf("history[0]=%+v", ev)
	}
}

func TestSocket_GreetReplaysBuffer(t *testing.T) {
	f := newFixture(t, "<p>hello</p>")
	if err := f.orch.Boot(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := f.orch.Open(context.Background(), "notepad_app"); err != nil {
		t.Fatal(err)
	}
	f.orch.Wait()

	ws := f.dial(t)
	waitFor(t, ws, func(m *Message) bool {
		var p RenderPayload
		return m.Type == MsgRender && m.Decode(&p) == nil && p.Content == "<p>hello</p>"
	})
}

func TestSocket_BadMessagesReplyWithError(t *testing.T) {
	f := newFixture(t, "")
	ws := f.dial(t)
	waitFor(t, ws, func(m *Message) bool { return m.Type == MsgState })

	if err := websocket.Message.Send(ws, `{"type":"bogus"}`); err != nil {
		t.Fatal(err)
	}
	msg := waitFor(t, ws, func(m *Message) bool { return m.Type == MsgError })
	var p ErrorPayload
	_ = msg.Decode(&p)
	if !strings.Contains(p.Message, "bogus") {
		t.Fatalf("error=%q", p.Message)
	}

	if err := websocket.Message.Send(ws, `not json`); err != nil {
		t.Fatal(err)
	}
	waitFor(t, ws, func(m *Message) bool { return m.Type == MsgError })

	send(t, ws, MsgOpenApp, OpenAppPayload{AppID: "calculator_app"})
	msg = waitFor(t, ws, func(m *Message) bool { return m.Type == MsgError })
	_ = msg.Decode(&p)
	if p.Message != orchestrator.ErrNotBooted.Error() {
		t.Fatalf("error=%q, want %q", p.Message, orchestrator.ErrNotBooted)
	}
}

func TestPromptKey_NoClients(t *testing.T) {
	f := newFixture(t, "")
	if _, err := f.srv.PromptKey(context.Background()); !errors.Is(err, credential.ErrNoPrompter) {
		t.Fatalf("err=%v, want ErrNoPrompter", err)
	}
}

func TestPromptKey_BrowserSubmits(t *testing.T) {
	f := newFixture(t, "")
	ws := f.dial(t)
	waitFor(t, ws, func(m *Message) bool { return m.Type == MsgState })

	type result struct {
		key string
		err error
	}
	done := make(chan result, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		key, err := f.srv.PromptKey(ctx)
		done <- result{key, err}
	}()

	waitFor(t, ws, func(m *Message) bool { return m.Type == MsgKeyRequest })
	send(t, ws, MsgKeySubmit, KeySubmitPayload{Key: "new-key"})

	r := <-done
	if r.err != nil || r.key != "new-key" {
		t.Fatalf("PromptKey=(%q, %v)", r.key, r.err)
	}
}

func TestParseMessage(t *testing.T) {
	if _, err := ParseMessage([]byte(`{"payload":{}}`)); err == nil {
		t.Fatal("missing type should fail")
	}
	msg, err := ParseMessage([]byte(`{"type":"open_app","payload":{"app_id":"documents"}}`))
	if err != nil {
		t.Fatal(err)
	}
	var p OpenAppPayload
	if err := msg.Decode(&p); err != nil || p.AppID != "documents" {
		t.Fatalf("payload=%+v err=%v", p, err)
	}
	if err := (&Message{Type: MsgClick}).Decode(&p); err == nil {
		t.Fatal("empty payload should fail to decode")
	}
}
