package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"genos/internal/credential"
	"genos/internal/interaction"
	"genos/internal/orchestrator"
	"genos/internal/render"
)

// maxMessageBytes 单条客户端消息上限（含 DOM 快照）
const maxMessageBytes = 4 << 20

// Server 浏览器宿主：外壳页面、套接字协议与只读 API
// Server is the browser host: shell page, socket protocol and read-only API
type Server struct {
	orch   *orchestrator.Orchestrator
	hub    *Hub
	logger *slog.Logger

	// ctx 外壳生命周期；轮次与选择器都派生于此
	// ctx is the shell lifetime; turns and selectors derive from it
	ctx context.Context

	keyMu   sync.Mutex
	pending chan string

	page string
}

// NewServer wires the hub as the orchestrator observer. The caller installs
// hub as the render loop surface and PromptKey as the keyring prompter.
func NewServer(ctx context.Context, orch *orchestrator.Orchestrator, hub *Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{orch: orch, hub: hub, logger: logger, ctx: ctx, page: renderPage()}
	orch.SetObserver(hub.PublishState)
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handlePage)
	mux.Handle("/ws", websocket.Server{Handler: s.handleSocket})
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/apps", s.handleApps)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// ListenAndServe 阻塞直到 ctx 结束；ready 非 nil 时收到监听地址
// ListenAndServe blocks until ctx is done; ready, when non-nil, receives the bound address
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready func(string)) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	if ready != nil {
		ready(ln.Addr().String())
	}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	_, _ = w.Write([]byte(s.page))
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.orch.Snapshot())
}

func (s *Server) handleApps(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.orch.Apps())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleSocket(ws *websocket.Conn) {
	ws.MaxPayloadBytes = maxMessageBytes
	c := s.hub.add(ws)
	defer s.hub.remove(c)

	s.greet(c)

	for {
		var data []byte
		if err := websocket.Message.Receive(ws, &data); err != nil {
			return
		}
		msg, err := ParseMessage(data)
		if err != nil {
			s.replyError(c, err)
			continue
		}
		if err := s.dispatch(c, msg); err != nil {
			s.logger.Warn("client message failed", "conn", c.id, "type", msg.Type, "error", err)
			s.replyError(c, err)
		}
	}
}

// greet 新连接先收到完整状态与两个缓冲区的内容
// greet sends a new client the full state and both buffers
func (s *Server) greet(c *conn) {
	if msg, err := NewMessage(MsgState, s.orch.Snapshot()); err == nil {
		s.hub.sendTo(c, msg)
	}
	loop := s.orch.Render()
	for _, t := range []render.Target{render.Primary, render.PiP} {
		content := loop.Content(t)
		if content == "" {
			continue
		}
		if msg, err := NewMessage(MsgRender, RenderPayload{Target: t.String(), Content: content}); err == nil {
			s.hub.sendTo(c, msg)
		}
		if loop.Loading(t) {
			continue
		}
		if scripts := render.FindScripts(content); len(scripts) > 0 {
			if msg, err := NewMessage(MsgActivate, ActivatePayload{Target: t.String(), Scripts: scripts}); err == nil {
				s.hub.sendTo(c, msg)
			}
		}
	}
}

func (s *Server) replyError(c *conn, err error) {
	if msg, e := NewMessage(MsgError, ErrorPayload{Message: err.Error()}); e == nil {
		s.hub.sendTo(c, msg)
	}
}

func (s *Server) dispatch(c *conn, msg *Message) error {
	switch msg.Type {
	case MsgBoot:
		// Boot 可能等待 key_submit，必须离开读循环
		go func() {
			if err := s.orch.Boot(s.ctx); err != nil {
				s.replyError(c, err)
			}
		}()
		return nil
	case MsgOpenApp:
		var p OpenAppPayload
		if err := msg.Decode(&p); err != nil {
			return err
		}
		return s.orch.Open(s.ctx, p.AppID)
	case MsgClick:
		var p ClickPayload
		if err := msg.Decode(&p); err != nil {
			return err
		}
		return s.click(p)
	case MsgTogglePanel:
		s.orch.TogglePanel()
		return nil
	case MsgApplyParams:
		var p ParamsPayload
		if err := msg.Decode(&p); err != nil {
			return err
		}
		return s.orch.ApplyParameters(s.ctx, p)
	case MsgSetCache:
		var p CachePayload
		if err := msg.Decode(&p); err != nil {
			return err
		}
		return s.orch.SetCacheConfig(s.ctx, p)
	case MsgDismissError:
		s.orch.DismissError()
		return nil
	case MsgKeySubmit:
		var p KeySubmitPayload
		if err := msg.Decode(&p); err != nil {
			return err
		}
		s.deliverKey(p.Key)
		return nil
	}
	return fmt.Errorf("unknown message type %q", msg.Type)
}

// click 在客户端 DOM（缺省时用服务端缓冲）上重放捕获
// click replays capture on the client DOM, or the server buffer when absent
func (s *Server) click(p ClickPayload) error {
	target := render.ParseTarget(p.Target)
	content := p.DOM
	if content == "" {
		content = s.orch.Render().Content(target)
	}
	doc, err := interaction.Parse(content)
	if err != nil {
		return err
	}
	state := s.orch.Snapshot()
	app := state.ActiveApp
	if target == render.PiP {
		app = state.PiPApp
	}
	ev, ok := doc.CaptureAt(p.Path, p.Values, app)
	if !ok {
		return nil
	}
	return s.orch.Interact(s.ctx, ev)
}

// PromptKey 通过已连接的浏览器收集密钥；没有浏览器时报告不可用
// PromptKey collects a key through connected browsers; with none connected
// the selector is unavailable
func (s *Server) PromptKey(ctx context.Context) (string, error) {
	if s.hub.ClientCount() == 0 {
		return "", credential.ErrNoPrompter
	}
	ch := make(chan string, 1)
	s.keyMu.Lock()
	s.pending = ch
	s.keyMu.Unlock()
	defer func() {
		s.keyMu.Lock()
		if s.pending == ch {
			s.pending = nil
		}
		s.keyMu.Unlock()
	}()

	s.hub.broadcast(MsgKeyRequest, nil)
	select {
	case key := <-ch:
		return key, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *Server) deliverKey(key string) {
	s.keyMu.Lock()
	ch := s.pending
	s.keyMu.Unlock()
	if ch == nil {
		s.logger.Debug("key submitted without a pending request")
		return
	}
	select {
	case ch <- key:
	default:
	}
}
