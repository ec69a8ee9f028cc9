package web

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"genos/internal/orchestrator"
	"genos/internal/render"
)

// sendQueue 每个连接最多排队的消息数；render 与 state 会合并，超出说明客户端卡住
// sendQueue bounds each connection's backlog; render and state messages
// coalesce, so reaching it means the client has stalled
const sendQueue = 256

// outbound 一条待发送消息。slot 非空时，队列中同 slot 的旧消息被新内容替换；
// fence 阻止越过它替换对应 slot
// outbound is one queued message. A non-empty slot replaces an older queued
// message with the same slot; fence stops replacement from reaching past it.
type outbound struct {
	data  []byte
	slot  string
	fence string
}

// conn 一个浏览器连接；写入由独立 goroutine 串行完成
// conn is one browser connection; writes are serialized by its own goroutine
type conn struct {
	id    string
	ws    *websocket.Conn
	mu    sync.Mutex
	queue []outbound
	wake  chan struct{}
	once  sync.Once
	done  chan struct{}
}

func newConn(ws *websocket.Conn) *conn {
	return &conn{
		id:   uuid.NewString(),
		ws:   ws,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

func (c *conn) close() {
	c.once.Do(func() {
		close(c.done)
		if c.ws != nil {
			_ = c.ws.Close()
		}
	})
}

// push 入队或合并；队列已满时返回 false
// push queues or coalesces o; it reports false when the backlog is full
func (c *conn) push(o outbound) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if o.slot != "" {
		for i := len(c.queue) - 1; i >= 0; i-- {
			if c.queue[i].fence == o.slot {
				break
			}
			if c.queue[i].slot == o.slot {
				c.queue[i].data = o.data
				return true
			}
		}
	}
	if len(c.queue) >= sendQueue {
		return false
	}
	c.queue = append(c.queue, o)
	select {
	case c.wake <- struct{}{}:
	default:
	}
	return true
}

func (c *conn) drain() []outbound {
	c.mu.Lock()
	defer c.mu.Unlock()
	q := c.queue
	c.queue = nil
	return q
}

func (c *conn) writeLoop(logger *slog.Logger) {
	for {
		select {
		case <-c.done:
			return
		case <-c.wake:
		}
		for _, o := range c.drain() {
			if err := websocket.Message.Send(c.ws, string(o.data)); err != nil {
				logger.Debug("socket write failed", "conn", c.id, "error", err)
				c.close()
				return
			}
		}
	}
}

// outboundFor 计算消息的合并槽位：每个目标的 render 一个槽，state 一个槽；
// activate 是同目标 render 的屏障
// outboundFor assigns coalescing slots: one per render target and one for
// state. An activate fences the render slot of its target.
func outboundFor(msg *Message, data []byte) outbound {
	o := outbound{data: data}
	switch msg.Type {
	case MsgState:
		o.slot = string(MsgState)
	case MsgRender, MsgActivate:
		var p struct {
			Target string `json:"target"`
		}
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return o
		}
		if msg.Type == MsgRender {
			o.slot = "render:" + p.Target
		} else {
			o.fence = "render:" + p.Target
		}
	}
	return o
}

// Hub 管理所有浏览器连接，并作为渲染循环的 Surface 广播内容
// Hub tracks browser connections and, as the render loop's Surface,
// broadcasts buffer content and script activation
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*conn
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{clients: make(map[string]*conn), logger: logger}
}

func (h *Hub) add(ws *websocket.Conn) *conn {
	c := newConn(ws)
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	go c.writeLoop(h.logger)
	h.logger.Info("client connected", "conn", c.id)
	return c
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
	c.close()
	h.logger.Info("client disconnected", "conn", c.id)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast 发送给所有连接；未发出的旧 render/state 被替换，队列满的连接被断开
// Broadcast queues msg for every client. Pending render and state messages
// are replaced by newer ones; a client whose backlog is full is dropped.
func (h *Hub) Broadcast(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Warn("encode broadcast failed", "type", msg.Type, "error", err)
		return
	}
	h.mu.RLock()
	clients := make([]*conn, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	o := outboundFor(msg, data)
	for _, c := range clients {
		h.enqueue(c, o)
	}
}

func (h *Hub) sendTo(c *conn, msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Warn("encode message failed", "type", msg.Type, "error", err)
		return
	}
	h.enqueue(c, outboundFor(msg, data))
}

func (h *Hub) enqueue(c *conn, o outbound) {
	select {
	case <-c.done:
		return
	default:
	}
	if !c.push(o) {
		h.logger.Warn("client too slow, dropping", "conn", c.id)
		c.close()
	}
}

func (h *Hub) broadcast(t MessageType, payload any) {
	msg, err := NewMessage(t, payload)
	if err != nil {
		h.logger.Warn("build message failed", "type", t, "error", err)
		return
	}
	h.Broadcast(msg)
}

// Paint implements render.Surface.
func (h *Hub) Paint(target render.Target, content string) {
	h.broadcast(MsgRender, RenderPayload{Target: target.String(), Content: content})
}

// Activate implements render.Surface.
func (h *Hub) Activate(target render.Target, scripts []render.Script) {
	h.broadcast(MsgActivate, ActivatePayload{Target: target.String(), Scripts: scripts})
}

// PublishState 作为编排器的 Observer
// PublishState serves as the orchestrator observer
func (h *Hub) PublishState(s orchestrator.State) {
	h.broadcast(MsgState, s)
}
