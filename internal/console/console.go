// Package console 行式外壳：读取命令，等待轮次结束后打印窗口
//
// Package console is the line-oriented shell host: it reads a command, waits
// for the turn to settle and prints the window.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/chzyer/readline"

	"genos/internal/credential"
	"genos/internal/hostcmd"
	"genos/internal/i18n"
	"genos/internal/orchestrator"
	"genos/internal/render"
	"genos/internal/textview"
)

const (
	ansiReset = "\x1b[0m"
	ansiDim   = "\x1b[90m"
	ansiRed   = "\x1b[31m"
	ansiCyan  = "\x1b[36m"
	ansiBold  = "\x1b[1m"
)

// Options 控制台选项
// Options configures the console
type Options struct {
	In  LineInput
	Out io.Writer
	// Width 为 0 时取终端宽度 / 0 means the terminal width
	Width int
	// Markdown 用 Glamour 渲染窗口；否则输出原始 Markdown
	// Markdown renders windows with Glamour; otherwise raw Markdown is printed
	Markdown bool
	// Color 输出 ANSI 颜色 / emit ANSI colors
	Color  bool
	Logger *slog.Logger
}

// Console 控制台宿主
// Console is the console host
type Console struct {
	session *hostcmd.Session
	orch    *orchestrator.Orchestrator
	in      LineInput
	out     io.Writer
	width   int
	md      bool
	color   bool
	logger  *slog.Logger
}

func New(orch *orchestrator.Orchestrator, opts Options) *Console {
	width := opts.Width
	if width <= 0 {
		width = TerminalWidth()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Console{
		session: hostcmd.NewSession(orch),
		orch:    orch,
		in:      opts.In,
		out:     opts.Out,
		width:   width,
		md:      opts.Markdown,
		color:   opts.Color,
		logger:  logger,
	}
}

// PromptKey 实现 credential.Prompter：不回显地读取一行
// PromptKey implements credential.Prompter by reading one unechoed line
func (c *Console) PromptKey(ctx context.Context) (string, error) {
	if c.in == nil {
		return "", credential.ErrNoPrompter
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := c.in.ReadPassword(i18n.T("boot.key"))
	if err != nil {
		return "", fmt.Errorf("read key: %w", err)
	}
	return key, nil
}

// Run 启动外壳并进入命令循环，直到 quit、EOF 或 ctx 结束
// Run boots the shell and loops over commands until quit, EOF or ctx is done
func (c *Console) Run(ctx context.Context) error {
	if c.in == nil {
		return errors.New("console has no input")
	}
	c.println(c.style(ansiBold, i18n.T("boot.title")))
	state := c.orch.Snapshot()
	c.println(i18n.T("boot.cache", onOff(state.Cache.Enabled), state.Cache.SizeGB))

	// 选择器在 Boot 内同步读取输入，此时命令循环尚未开始
	if err := c.session.Boot(ctx); err != nil {
		return fmt.Errorf("boot: %w", err)
	}
	c.orch.Wait()
	c.Draw()

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line, err := c.in.ReadLine(c.prompt())
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
				return nil
			}
			return err
		}
		quit := c.Exec(ctx, line)
		if quit {
			return nil
		}
	}
}

// Exec 执行一行命令并等待其轮次完成；返回是否退出
// Exec runs one command line and waits for its turn to finish; it reports
// whether the console should exit
func (c *Console) Exec(ctx context.Context, line string) bool {
	res, err := c.session.Run(ctx, line)
	if err != nil {
		c.println(c.style(ansiRed, i18n.T("error.command", err)))
		return false
	}
	if res.Quit {
		return true
	}
	if c.orch.Render().AnyLoading() {
		c.println(c.style(ansiDim, i18n.T("status.syncing")+"…"))
	}
	// 轮次内的选择器也在这里同步读取输入
	c.orch.Wait()
	if res.Message != "" {
		c.println(res.Message)
	}
	if res.Redraw {
		c.Draw()
	}
	return false
}

// Draw 打印当前窗口、画中画、提示与状态行
// Draw prints the current window, the PiP window, the toast and the status line
func (c *Console) Draw() {
	state := c.orch.Snapshot()
	c.println(c.style(ansiBold+ansiCyan, "━━ "+state.Title+" "+strings.Repeat("━", max(0, c.width-len([]rune(state.Title))-4))))

	switch state.View {
	case orchestrator.ViewPanel:
		c.println(i18n.T("panel.history", state.MaxHistory))
		c.println(i18n.T("panel.statefulness", onOff(state.Statefulness)))
		c.println(i18n.T("panel.cache", onOff(state.Cache.Enabled), state.Cache.SizeGB))
		c.println(c.style(ansiDim, i18n.T("panel.apply_hint")))
	case orchestrator.ViewApp:
		c.printView(render.Primary)
	default:
		for _, app := range c.orch.Apps() {
			mark := ""
			if app.ID == state.PiPApp {
				mark = " ●"
			}
			c.println(fmt.Sprintf("  %s %-16s %s%s", app.Icon, app.ID, app.Name, mark))
		}
	}

	if state.PiPApp != "" {
		c.println(c.style(ansiCyan, "── "+i18n.T("view.pip", state.PiPTitle)))
		c.printView(render.PiP)
	}
	if state.Error != "" {
		toast := i18n.T("view.toast", state.Error)
		if state.ErrorKeyAction {
			toast += "  (" + i18n.T("view.key_hint") + ")"
		}
		c.println(c.style(ansiRed, toast))
	}
	c.println(c.style(ansiDim, c.statusLine(state)))
}

func (c *Console) printView(target render.Target) {
	view, err := c.session.View(target)
	if err != nil {
		c.logger.Warn("build text view failed", "target", target.String(), "error", err)
		return
	}
	if strings.TrimSpace(view.Markdown) == "" {
		c.println(c.style(ansiDim, "  "+i18n.T("view.empty")))
		return
	}
	text := view.Markdown
	if c.md {
		text = textview.RenderMarkdown(text, c.width)
	}
	c.println(text)
}

func (c *Console) statusLine(state orchestrator.State) string {
	items := []string{i18n.T("status.ready")}
	if !state.HasKey {
		items = append(items, i18n.T("status.no_key"))
	}
	if state.LastPromptTokens > 0 {
		items = append(items, i18n.T("status.tokens", state.LastPromptTokens))
	}
	return strings.Join(items, " · ")
}

func (c *Console) prompt() string {
	state := c.orch.Snapshot()
	name := "desktop"
	switch {
	case state.View == orchestrator.ViewPanel:
		name = "panel"
	case state.ActiveApp != "":
		name = state.ActiveApp
	}
	return c.style(ansiDim, name) + " > "
}

func (c *Console) style(code, s string) string {
	if !c.color {
		return s
	}
	return code + s + ansiReset
}

func (c *Console) println(s string) {
	if c.out == nil {
		return
	}
	fmt.Fprintln(c.out, s)
}

func onOff(v bool) string {
	if v {
		return i18n.T("value.on")
	}
	return i18n.T("value.off")
}
