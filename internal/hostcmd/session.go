package hostcmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"genos/internal/i18n"
	"genos/internal/interaction"
	"genos/internal/orchestrator"
	"genos/internal/render"
	"genos/internal/textview"
)

// Result 命令执行结果
// Result describes what the host should do after a command
type Result struct {
	Quit    bool
	Message string
	// Redraw 为 true 时宿主应重绘当前窗口
	Redraw bool
}

// Session 把文本命令翻译为编排器操作；保存用户输入的字段值
// Session translates text commands into orchestrator operations and keeps
// field values typed by the user
type Session struct {
	orch *orchestrator.Orchestrator

	mu     sync.Mutex
	values map[string]string
}

func NewSession(orch *orchestrator.Orchestrator) *Session {
	return &Session{orch: orch, values: map[string]string{}}
}

// Values returns a copy of the typed field values.
func (s *Session) Values() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

func (s *Session) resetValues() {
	s.mu.Lock()
	s.values = map[string]string{}
	s.mu.Unlock()
}

// Boot 启动外壳；没有密钥时可能阻塞在选择器上
// Boot boots the shell; it may block on the key selector
func (s *Session) Boot(ctx context.Context) error {
	return s.orch.Boot(ctx)
}

// View 构建目标缓冲区的文本视图
// View builds the text view of a target buffer
func (s *Session) View(target render.Target) (textview.View, error) {
	return textview.Build(s.orch.Render().Content(target))
}

// Execute 执行一条命令
// Execute runs one command
func (s *Session) Execute(ctx context.Context, cmd Command) (Result, error) {
	state := s.orch.Snapshot()
	switch cmd.Kind {
	case KindHelp:
		return Result{Message: strings.Join(HelpLines(), "\n")}, nil
	case KindApps:
		var lines []string
		for _, app := range s.orch.Apps() {
			lines = append(lines, fmt.Sprintf("  %s %-16s %s", app.Icon, app.ID, app.Name))
		}
		if len(lines) == 0 {
			return Result{Message: i18n.T("view.no_apps")}, nil
		}
		return Result{Message: strings.Join(lines, "\n")}, nil
	case KindOpen:
		s.resetValues()
		if err := s.orch.Open(ctx, cmd.Arg); err != nil {
			return Result{}, fmt.Errorf("open %s: %w", cmd.Arg, err)
		}
		return Result{Redraw: true}, nil
	case KindClick:
		return s.click(ctx, state, cmd)
	case KindSet:
		s.mu.Lock()
		s.values[cmd.Arg] = cmd.Value
		s.mu.Unlock()
		return Result{Message: fmt.Sprintf("%s=%s", cmd.Arg, cmd.Value)}, nil
	case KindPiP:
		if state.ActiveApp == "" {
			return Result{}, errors.New(i18n.T("error.no_app"))
		}
		return s.control(ctx, interaction.IDTogglePiP, state.ActiveApp)
	case KindExpand:
		if state.PiPApp == "" {
			return Result{}, errors.New(i18n.T("error.no_pip"))
		}
		if err := s.orch.Open(ctx, state.PiPApp); err != nil {
			return Result{}, err
		}
		return Result{Redraw: true}, nil
	case KindClose:
		app := state.ActiveApp
		if cmd.PiP {
			app = state.PiPApp
			if app == "" {
				return Result{}, errors.New(i18n.T("error.no_pip"))
			}
		} else if app == "" {
			return Result{}, errors.New(i18n.T("error.no_app"))
		}
		s.resetValues()
		return s.control(ctx, interaction.IDCloseApp, app)
	case KindPanel:
		s.orch.TogglePanel()
		return Result{Redraw: true}, nil
	case KindParams:
		p := orchestrator.Parameters{
			MaxHistory:   state.MaxHistory,
			Statefulness: state.Statefulness,
			Cache:        state.Cache,
		}
		if cmd.Params.MaxHistory != nil {
			p.MaxHistory = *cmd.Params.MaxHistory
		}
		if cmd.Params.Statefulness != nil {
			p.Statefulness = *cmd.Params.Statefulness
		}
		if cmd.Params.CacheEnabled != nil {
			p.Cache.Enabled = *cmd.Params.CacheEnabled
		}
		if cmd.Params.CacheSizeGB != nil {
			p.Cache.SizeGB = *cmd.Params.CacheSizeGB
		}
		if err := s.orch.ApplyParameters(ctx, p); err != nil {
			return Result{}, err
		}
		return Result{Message: i18n.T("panel.applied"), Redraw: true}, nil
	case KindKey:
		return s.control(ctx, interaction.IDChangeAPIKey, state.ActiveApp)
	case KindDismiss:
		s.orch.DismissError()
		return Result{Redraw: true}, nil
	case KindShow:
		return Result{Redraw: true}, nil
	case KindQuit:
		return Result{Quit: true}, nil
	}
	return Result{}, fmt.Errorf("unhandled command %d", cmd.Kind)
}

// Run 解析并执行一行输入
// Run parses and executes one input line
func (s *Session) Run(ctx context.Context, line string) (Result, error) {
	cmd, err := Parse(line)
	if err != nil {
		if errors.Is(err, ErrEmpty) {
			return Result{}, nil
		}
		return Result{}, err
	}
	return s.Execute(ctx, cmd)
}

func (s *Session) click(ctx context.Context, state orchestrator.State, cmd Command) (Result, error) {
	target := render.Primary
	app := state.ActiveApp
	if cmd.PiP {
		target = render.PiP
		app = state.PiPApp
		if app == "" {
			return Result{}, errors.New(i18n.T("error.no_pip"))
		}
	}
	view, err := s.View(target)
	if err != nil {
		return Result{}, err
	}
	tgt, ok := view.Target(cmd.Index)
	if !ok {
		return Result{}, errors.New(i18n.T("error.no_target", cmd.Index))
	}
	ev, ok := view.Doc.CaptureAt(tgt.Path, s.Values(), app)
	if !ok {
		return Result{}, errors.New(i18n.T("error.no_target", cmd.Index))
	}
	if ev.ID == interaction.IDCloseApp {
		s.resetValues()
	}
	if err := s.orch.Interact(ctx, ev); err != nil {
		return Result{}, err
	}
	return Result{Redraw: true}, nil
}

func (s *Session) control(ctx context.Context, id, app string) (Result, error) {
	ev := interaction.Event{ID: id, Type: interaction.TypeSystem, AppContext: app}
	if err := s.orch.Interact(ctx, ev); err != nil {
		return Result{}, err
	}
	return Result{Redraw: true}, nil
}
