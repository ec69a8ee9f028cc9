package orchestrator

import (
	"context"
	"errors"

	"genos/internal/credential"
	"genos/internal/history"
	"genos/internal/interaction"
	"genos/internal/render"
)

// Interact 处理一次捕获到的交互。控制标识先被拦截，其余事件进入历史并开始新一轮
// Interact handles a captured interaction. Control identifiers are
// intercepted first; anything else is appended to history and starts a turn.
func (o *Orchestrator) Interact(ctx context.Context, ev interaction.Event) error {
	o.mu.Lock()
	if !o.state.Booted {
		o.mu.Unlock()
		return ErrNotBooted
	}

	switch ev.ID {
	case interaction.IDCloseApp:
		o.closeLocked(ev)
	case interaction.IDChangeAPIKey:
		o.setErrorLocked("")
		o.wg.Add(1)
		go o.changeKey(ctx)
	case interaction.IDTogglePiP:
		o.togglePiPLocked()
	default:
		o.state.History = history.Append(o.state.History, ev, o.state.MaxHistory)
		o.startTurnLocked(ctx, o.targetFor(ev.AppContext), o.state.History)
	}
	o.mu.Unlock()

	o.publish()
	return nil
}

// targetFor 来自画中画应用的事件渲染到画中画
// targetFor routes events from the pinned app to the PiP slot
func (o *Orchestrator) targetFor(appContext string) render.Target {
	if o.state.PiPApp != "" && appContext == o.state.PiPApp {
		return render.PiP
	}
	return render.Primary
}

func (o *Orchestrator) closeLocked(ev interaction.Event) {
	if o.state.PiPApp != "" && ev.AppContext == o.state.PiPApp {
		o.logger.Info("pip closed", "app", o.state.PiPApp)
		o.state.PiPApp = ""
		o.render.Set(render.PiP, "")
		return
	}
	o.state.ActiveApp = ""
	o.state.View = ViewDesktop
	o.state.History = nil
	o.setErrorLocked("")
	o.render.Set(render.Primary, "")
}

// togglePiPLocked 可画中画的应用被钉住；否则还原已钉住的应用
// togglePiPLocked pins a PiP-capable live app, or restores the pinned one
func (o *Orchestrator) togglePiPLocked() {
	if app, ok := o.apps.Lookup(o.state.ActiveApp); ok && app.PiP {
		o.render.Move(render.Primary, render.PiP)
		o.state.PiPApp = app.ID
		o.state.ActiveApp = ""
		o.state.View = ViewDesktop
		o.logger.Info("app pinned", "app", app.ID)
		return
	}
	if o.state.PiPApp != "" {
		o.restoreLocked()
	}
}

func (o *Orchestrator) restoreLocked() {
	app := o.state.PiPApp
	o.render.Move(render.PiP, render.Primary)
	o.state.PiPApp = ""
	o.state.ActiveApp = app
	o.state.View = ViewApp
	o.logger.Info("app restored", "app", app)
}

// changeKey 打开密钥选择器；成功后按原目标重放最近的历史
// changeKey opens the key selector; on success the latest history is
// replayed against the target it belonged to
func (o *Orchestrator) changeKey(ctx context.Context) {
	defer o.wg.Done()

	err := o.openSelector(ctx)

	o.mu.Lock()
	switch {
	case errors.Is(err, credential.ErrNoPrompter):
		o.setErrorLocked(MsgSelectorUnavailable)
	case err != nil:
		o.logger.Warn("key selector failed", "error", err)
		o.setErrorLocked(MsgSelectorFailed)
	default:
		if current, ok := o.state.History.Current(); ok {
			o.startTurnLocked(ctx, o.targetFor(current.AppContext), o.state.History)
		}
	}
	o.mu.Unlock()
	o.publish()
}

func (o *Orchestrator) openSelector(ctx context.Context) error {
	if o.keys == nil {
		return credential.ErrNoPrompter
	}
	return o.keys.OpenSelector(ctx)
}
