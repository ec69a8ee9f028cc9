package orchestrator

import (
	"context"
	"strings"
	"time"

	"genos/internal/history"
	"genos/internal/kernel"
	"genos/internal/render"
	"genos/internal/storage"
)

// startTurnLocked 开始一轮生成；同一目标上被取代的轮次会被取消
// startTurnLocked starts a generation turn; a superseded turn on the same
// target is canceled by the render loop. Turns derive from ctx, so hosts pass
// a context that lives as long as the shell.
func (o *Orchestrator) startTurnLocked(ctx context.Context, target render.Target, h history.History) {
	if len(h) == 0 {
		return
	}
	o.setErrorLocked("")

	turnCtx, cancel := context.WithCancel(ctx)
	gen := o.render.Begin(target, cancel)
	req := kernel.Request{
		History:    h.Clone(),
		MaxHistory: o.state.MaxHistory,
		Cache:      o.state.Cache,
	}
	app := o.state.ActiveApp
	if target == render.PiP {
		app = o.state.PiPApp
	}
	rec := o.state.Statefulness && o.recorder != nil

	o.wg.Add(1)
	go o.runTurn(turnCtx, cancel, turn{target: target, gen: gen, req: req, app: app, record: rec})
}

type turn struct {
	target render.Target
	gen    uint64
	req    kernel.Request
	app    string
	record bool
}

func (o *Orchestrator) runTurn(ctx context.Context, cancel context.CancelFunc, t turn) {
	defer o.wg.Done()
	defer cancel()
	started := time.Now()

	stream, err := o.kernel.Stream(ctx, t.req)
	if err != nil {
		if !o.render.Finish(t.target, t.gen) || ctx.Err() != nil {
			o.publish()
			return
		}
		o.uplinkFailed(ctx, err)
		o.publish()
		return
	}
	defer stream.Close()

	for frag := range stream.Fragments() {
		if !o.render.Write(t.target, t.gen, frag) {
			o.publish()
			return
		}
	}
	if !o.render.Finish(t.target, t.gen) {
		o.publish()
		return
	}

	o.mu.Lock()
	o.state.LastPromptTokens = stream.PromptTokens()
	o.mu.Unlock()
	o.logger.Info("turn complete",
		"target", t.target.String(), "app", t.app, "outcome", stream.Kind().String(),
		"prompt_tokens", stream.PromptTokens(), "elapsed", time.Since(started))

	if t.record {
		o.recordTurn(ctx, t, stream, started)
	}
	o.publish()
}

// uplinkFailed 把传输错误映射为提示；密钥错误同时打开选择器
// uplinkFailed maps a transport error to a toast; key errors also open the selector
func (o *Orchestrator) uplinkFailed(ctx context.Context, err error) {
	o.logger.Error("stream processing error", "error", err)
	kind := kernel.Classify(err)

	o.mu.Lock()
	switch kind {
	case kernel.KindKeyError:
		o.setErrorLocked(MsgKeyError)
	case kernel.KindQuotaError:
		o.setErrorLocked(MsgQuotaExceeded)
	default:
		o.setErrorLocked(MsgUplinkError)
	}
	o.mu.Unlock()

	if kind == kernel.KindKeyError {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			if err := o.openSelector(context.WithoutCancel(ctx)); err != nil {
				o.logger.Warn("key selector failed", "error", err)
			}
			o.publish()
		}()
	}
}

func (o *Orchestrator) recordTurn(ctx context.Context, t turn, stream *kernel.Stream, started time.Time) {
	ctx = context.WithoutCancel(ctx)
	if err := o.ensureSession(ctx); err != nil {
		o.logger.Warn("session not recorded", "error", err)
		return
	}
	current, _ := t.req.History.Current()
	rec := storage.TurnRecord{
		ID:           storage.NewTurnID(),
		SessionID:    o.SessionID(),
		Target:       t.target.String(),
		App:          t.app,
		Event:        current,
		PromptTokens: stream.PromptTokens(),
		Outcome:      stream.Kind().String(),
		Content:      o.render.Content(t.target),
		StartedAt:    started.UTC().Format(time.RFC3339),
		DurationMS:   time.Since(started).Milliseconds(),
	}
	if err := o.recorder.AppendTurn(ctx, rec); err != nil {
		o.logger.Warn("turn not recorded", "error", err)
	}
}

func (o *Orchestrator) ensureSession(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sessionCreated {
		return nil
	}
	if strings.TrimSpace(o.sessionID) == "" {
		o.sessionID = storage.NewSessionID()
	}
	if err := o.recorder.CreateSession(ctx, storage.SessionMeta{
		ID:    o.sessionID,
		Host:  o.host,
		Model: o.kernel.Model(),
	}); err != nil {
		return err
	}
	o.sessionCreated = true
	return nil
}
