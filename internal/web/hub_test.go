package web

import (
	"testing"

	"genos/internal/logging"
	"genos/internal/orchestrator"
	"genos/internal/render"
)

// idleClient 注册一个不启动写协程的连接，便于检查队列
// idleClient registers a connection without a write loop so its queue can be inspected
func idleClient(h *Hub) *conn {
	c := newConn(nil)
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	return c
}

func queued(t *testing.T, c *conn) []*Message {
	t.Helper()
	var out []*Message
	for _, o := range c.drain() {
		msg, err := ParseMessage(o.data)
		if err != nil {
			t.Fatalf("ParseMessage: %v", err)
		}
		out = append(out, msg)
	}
	return out
}

func TestHub_CoalescesPendingRenders(t *testing.T) {
	h := NewHub(logging.Discard())
	c := idleClient(h)

	h.Paint(render.Primary, "<p>a")
	h.Paint(render.Primary, "<p>ab")
	h.Paint(render.PiP, "<p>x")
	h.Paint(render.Primary, "<p>abc</p>")
	h.PublishState(orchestrator.State{Title: "one"})
	h.PublishState(orchestrator.State{Title: "two"})

	msgs := queued(t, c)
	if len(msgs) != 3 {
		t.Fatalf("queued=%d, want 3", len(msgs))
	}
	var p RenderPayload
	if err := msgs[0].Decode(&p); err != nil || p.Target != "primary" || p.Content != "<p>abc</p>" {
		t.Fatalf("msgs[0]=%+v err=%v, want newest primary content", p, err)
	}
	if err := msgs[1].Decode(&p); err != nil || p.Target != "pip" || p.Content != "<p>x" {
		t.Fatalf("msgs[1]=%+v err=%v", p, err)
	}
	var s orchestrator.State
	if err := msgs[2].Decode(&s); err != nil || s.Title != "two" {
		t.Fatalf("state=%+v err=%v, want newest snapshot", s, err)
	}
}

func TestHub_ActivateFencesRenders(t *testing.T) {
	h := NewHub(logging.Discard())
	c := idleClient(h)

	h.Paint(render.Primary, "<p>old</p>")
	h.Activate(render.Primary, []render.Script{{Index: 0, Body: "x()"}})
	h.Paint(render.Primary, "<p>new")
	h.Paint(render.Primary, "<p>newer</p>")

	msgs := queued(t, c)
	want := []MessageType{MsgRender, MsgActivate, MsgRender}
	if len(msgs) != len(want) {
		t.Fatalf("queued=%d, want %d", len(msgs), len(want))
	}
	for i, typ := range want {
		if msgs[i].Type != typ {
			t.Fatalf("msgs[%d].Type=%q, want %q", i, msgs[i].Type, typ)
		}
	}
	var p RenderPayload
	_ = msgs[0].Decode(&p)
	if p.Content != "<p>old</p>" {
		t.Fatalf("first render=%q, want content the scripts belong to", p.Content)
	}
	_ = msgs[2].Decode(&p)
	if p.Content != "<p>newer</p>" {
		t.Fatalf("last render=%q, want newest", p.Content)
	}
}

func TestHub_StreamingKeepsSlowClient(t *testing.T) {
	h := NewHub(logging.Discard())
	c := idleClient(h)

	content := ""
	for i := 0; i < sendQueue*4; i++ {
		content += "x"
		h.Paint(render.Primary, content)
	}
	select {
	case <-c.done:
		t.Fatal("client dropped while streaming into one target")
	default:
	}
	msgs := queued(t, c)
	if len(msgs) != 1 {
		t.Fatalf("queued=%d, want 1", len(msgs))
	}
}

func TestHub_DropsStalledClient(t *testing.T) {
	h := NewHub(logging.Discard())
	c := idleClient(h)

	for i := 0; i <= sendQueue; i++ {
		h.broadcast(MsgKeyRequest, nil)
	}
	select {
	case <-c.done:
	default:
		t.Fatal("expected a stalled client to be dropped")
	}
}
