package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"genos/internal/apps"
	"genos/internal/hostcmd"
	"genos/internal/i18n"
	"genos/internal/orchestrator"
	"genos/internal/render"
	"genos/internal/textview"
)

// pipHeight 画中画窗口的内容行数 / content rows of the PiP window
const pipHeight = 6

// resultMsg 命令执行完成
type resultMsg struct {
	res hostcmd.Result
	err error
}

// App Bubble Tea 主 Model
// App is the main Bubble Tea model
type App struct {
	// 布局 / Layout
	width  int
	height int

	window viewport.Model
	pip    viewport.Model

	// 输入 / Input
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	keyReply chan<- string

	// 外壳 / Shell
	ctx      context.Context
	session  *hostcmd.Session
	registry apps.Registry
	state    orchestrator.State
	content  map[render.Target]string
	views    map[render.Target]textview.View

	// 状态栏 / Status bar
	model     string
	sessionID string
	keyStatus func() string
	notice    string
	lastError string

	theme  Theme
	keys   KeyMap
	locale *i18n.I18n
}

// Options 构造 App 所需的外部依赖
// Options carries what the App needs from its host
type Options struct {
	Session   *hostcmd.Session
	Apps      apps.Registry
	State     orchestrator.State
	Model     string
	SessionID string
	// KeyStatus 返回掩码后的密钥 / returns the masked key
	KeyStatus func() string
}

// NewApp 创建 TUI 应用
// NewApp creates a new TUI application
func NewApp(ctx context.Context, opts Options) App {
	in := textinput.New()
	in.Placeholder = i18n.T("input.placeholder")
	in.CharLimit = 4096
	in.Prompt = "› "
	in.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	registry := opts.Apps
	if registry == nil {
		registry = apps.Default()
	}
	keyStatus := opts.KeyStatus
	if keyStatus == nil {
		keyStatus = func() string { return "" }
	}

	return App{
		window:    viewport.New(80, 20),
		pip:       viewport.New(80, pipHeight),
		input:     in,
		spinner:   sp,
		help:      help.New(),
		ctx:       ctx,
		session:   opts.Session,
		registry:  registry,
		state:     opts.State,
		content:   map[render.Target]string{},
		views:     map[render.Target]textview.View{},
		model:     opts.Model,
		sessionID: opts.SessionID,
		keyStatus: keyStatus,
		theme:     DarkTheme(),
		keys:      DefaultKeyMap(),
		locale:    i18n.Global(),
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, a.spinner.Tick)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keys.Quit):
			a.answerKey("")
			return a, tea.Quit
		case key.Matches(msg, a.keys.Cancel):
			if a.keyReply != nil {
				a.answerKey("")
				return a, nil
			}
			a.notice, a.lastError = "", ""
			if a.state.Error != "" {
				return a, a.run("dismiss")
			}
			return a, nil
		case key.Matches(msg, a.keys.Submit):
			return a.submit()
		case key.Matches(msg, a.keys.TogglePanel):
			return a, a.run("panel")
		case key.Matches(msg, a.keys.PageUp):
			a.window.SetYOffset(a.window.YOffset - a.window.Height/2)
			return a, nil
		case key.Matches(msg, a.keys.PageDown):
			a.window.SetYOffset(a.window.YOffset + a.window.Height/2)
			return a, nil
		case key.Matches(msg, a.keys.ScrollUp):
			a.window.LineUp(1)
			return a, nil
		case key.Matches(msg, a.keys.ScrollDown):
			a.window.LineDown(1)
			return a, nil
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.relayout()
		return a, nil

	case PaintMsg:
		a.content[msg.Target] = msg.Content
		a.rebuild(msg.Target)
		return a, nil

	case StateMsg:
		prev := a.state
		a.state = msg.State
		if prev.View != a.state.View || prev.PiPApp != a.state.PiPApp || prev.Error != a.state.Error {
			a.relayout()
		}
		return a, nil

	case KeyRequestMsg:
		a.keyReply = msg.Reply
		a.input.Reset()
		a.input.EchoMode = textinput.EchoPassword
		a.input.EchoCharacter = '•'
		a.input.Placeholder = i18n.T("boot.key")
		return a, nil

	case resultMsg:
		a.notice, a.lastError = "", ""
		if msg.err != nil {
			a.lastError = i18n.T("error.command", msg.err)
		} else {
			if msg.res.Quit {
				return a, tea.Quit
			}
			a.notice = msg.res.Message
		}
		a.relayout()
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)
	return a, tea.Batch(cmds...)
}

// submit 处理回车：密钥输入、启动或命令
// submit handles enter: key entry, boot or a command
func (a App) submit() (tea.Model, tea.Cmd) {
	line := a.input.Value()
	a.input.Reset()

	if a.keyReply != nil {
		a.answerKey(line)
		return a, nil
	}
	if !a.state.Booted {
		return a, a.boot()
	}
	if strings.TrimSpace(line) == "" {
		return a, nil
	}
	return a, a.run(line)
}

func (a *App) answerKey(key string) {
	if a.keyReply == nil {
		return
	}
	select {
	case a.keyReply <- key:
	default:
	}
	a.keyReply = nil
	a.input.EchoMode = textinput.EchoNormal
	a.input.Placeholder = i18n.T("input.placeholder")
}

func (a App) run(line string) tea.Cmd {
	session, ctx := a.session, a.ctx
	if session == nil {
		return nil
	}
	return func() tea.Msg {
		res, err := session.Run(ctx, line)
		return resultMsg{res: res, err: err}
	}
}

func (a App) boot() tea.Cmd {
	session, ctx := a.session, a.ctx
	if session == nil {
		return nil
	}
	return func() tea.Msg {
		return resultMsg{err: session.Boot(ctx)}
	}
}

// rebuild 重新生成目标缓冲区的文本视图
// rebuild regenerates the text view of a target buffer
func (a *App) rebuild(target render.Target) {
	view, err := textview.Build(a.content[target])
	if err != nil {
		a.lastError = i18n.T("error.command", err)
		return
	}
	a.views[target] = view

	vp := &a.window
	if target == render.PiP {
		vp = &a.pip
	}
	md := view.Markdown
	if strings.TrimSpace(md) == "" {
		vp.SetContent(a.theme.MutedStyle.Render("  " + i18n.T("view.empty")))
		return
	}
	vp.SetContent(textview.RenderMarkdown(md, vp.Width))
	if target == render.PiP || a.state.Loading {
		vp.GotoBottom()
	}
}

// chromeHeight 除主窗口外各部分占用的行数
func (a App) chromeHeight() int {
	h := 1 + 1 + 1 + 1 + 2 // header, input, status, help, window border
	if a.state.PiPApp != "" {
		h += pipHeight + 2
	}
	if a.state.Error != "" {
		h++
	}
	if a.notice != "" {
		h += strings.Count(a.notice, "\n") + 1
	}
	if a.lastError != "" {
		h++
	}
	return h
}

func (a *App) relayout() {
	if a.width == 0 || a.height == 0 {
		return
	}
	inner := a.width - 2
	if inner < 10 {
		inner = 10
	}
	winHeight := a.height - a.chromeHeight()
	if winHeight < 3 {
		winHeight = 3
	}
	a.window.Width, a.window.Height = inner, winHeight
	a.pip.Width, a.pip.Height = inner, pipHeight
	a.input.Width = a.width - 4
	a.help.Width = a.width
	for _, t := range []render.Target{render.Primary, render.PiP} {
		if _, ok := a.content[t]; ok {
			a.rebuild(t)
		}
	}
}

func (a App) View() string {
	if a.width == 0 || a.height == 0 {
		return "Initializing..."
	}

	parts := []string{a.renderHeader()}
	parts = append(parts, a.theme.WindowStyle.Width(a.width-2).Render(a.renderWindow()))
	if a.state.PiPApp != "" {
		pipTitle := a.theme.TitleStyle.Render(" " + i18n.T("view.pip", a.state.PiPTitle))
		parts = append(parts, a.theme.PiPStyle.Width(a.width-2).Render(pipTitle+"\n"+a.pip.View()))
	}
	if a.state.Error != "" {
		toast := i18n.T("view.toast", a.state.Error)
		if a.state.ErrorKeyAction {
			toast += "  " + i18n.T("view.key_hint")
		}
		parts = append(parts, a.theme.DangerStyle.Render(toast))
	}
	if a.notice != "" {
		parts = append(parts, a.theme.SuccessStyle.Render(a.notice))
	}
	if a.lastError != "" {
		parts = append(parts, a.theme.ErrorStyle.Render(a.lastError))
	}
	parts = append(parts, a.theme.InputStyle.Width(a.width).Render(a.input.View()))
	parts = append(parts, a.renderStatusBar(a.width))
	parts = append(parts, a.help.ShortHelpView(a.keys.ShortHelp()))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (a App) renderHeader() string {
	title := a.state.Title
	if title == "" {
		title = orchestrator.TitleDesktop
	}
	left := a.theme.ActiveTabStyle.Render(title)
	right := ""
	if a.state.Loading {
		right = a.spinner.View() + " " + a.locale.T("status.syncing")
	}
	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return left + strings.Repeat(" ", gap) + right
}

func (a App) renderWindow() string {
	if !a.state.Booted {
		lines := []string{
			a.theme.TitleStyle.Render(a.locale.T("boot.title")),
			"",
			a.locale.T("boot.cache", onOff(a.state.Cache.Enabled), a.state.Cache.SizeGB),
			"",
			a.theme.MutedStyle.Render(a.locale.T("boot.continue")),
		}
		return padLines(lines, a.window.Height)
	}
	switch a.state.View {
	case orchestrator.ViewPanel:
		lines := []string{
			a.locale.T("panel.history", a.state.MaxHistory),
			a.locale.T("panel.statefulness", onOff(a.state.Statefulness)),
			a.locale.T("panel.cache", onOff(a.state.Cache.Enabled), a.state.Cache.SizeGB),
			"",
			a.theme.MutedStyle.Render(a.locale.T("panel.apply_hint")),
		}
		return padLines(lines, a.window.Height)
	case orchestrator.ViewApp:
		return a.window.View()
	}

	var lines []string
	for _, app := range a.registry {
		name := app.Name
		if app.ID == a.state.PiPApp {
			name += " " + a.theme.TargetStyle.Render("●")
		}
		lines = append(lines, fmt.Sprintf("  %s %-16s %s", app.Icon, app.ID, name))
	}
	if len(lines) == 0 {
		lines = append(lines, a.theme.MutedStyle.Render(a.locale.T("view.no_apps")))
	}
	return padLines(lines, a.window.Height)
}

func (a App) renderStatusBar(width int) string {
	status := a.locale.T("status.ready")
	if a.state.Loading {
		status = a.locale.T("status.syncing")
	}
	items := []string{status}
	if a.model != "" {
		items = append(items, a.model)
	}
	if masked := a.keyStatus(); masked != "" {
		items = append(items, a.locale.T("status.key", masked))
	} else {
		items = append(items, a.locale.T("status.no_key"))
	}
	if a.state.LastPromptTokens > 0 {
		items = append(items, a.locale.T("status.tokens", a.state.LastPromptTokens))
	}
	left := " " + strings.Join(items, " · ")
	right := ""
	if a.sessionID != "" {
		right = a.locale.T("status.session", shortID(a.sessionID)) + "  "
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return a.theme.StatusBarStyle.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

func onOff(v bool) string {
	if v {
		return i18n.T("value.on")
	}
	return i18n.T("value.off")
}

func padLines(lines []string, height int) string {
	for len(lines) < height {
		lines = append(lines, "")
	}
	if height > 0 && len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Run 启动 Bubble Tea TUI；bridge 须已接入渲染循环与编排器
// Run starts the Bubble Tea TUI; bridge must already be installed as the
// render surface and orchestrator observer
func Run(ctx context.Context, bridge *Bridge, opts Options) error {
	app := NewApp(ctx, opts)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	pumpCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	bridge.Attach(p.Send)
	go bridge.Pump(pumpCtx)

	_, err := p.Run()
	bridge.Attach(nil)
	return err
}
