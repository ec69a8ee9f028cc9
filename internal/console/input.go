package console

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"
)

// LineInput 行输入源；ReadPassword 不回显
// LineInput is a line source; ReadPassword does not echo
type LineInput interface {
	ReadLine(prompt string) (string, error)
	ReadPassword(prompt string) (string, error)
	Close() error
}

type basicLineInput struct {
	in     io.Reader
	reader *bufio.Reader
	out    io.Writer
}

// NewBasicLineInput 非终端环境下的简单输入
// NewBasicLineInput reads plain lines, for pipes and tests
func NewBasicLineInput(in io.Reader, out io.Writer) LineInput {
	return &basicLineInput{
		in:     in,
		reader: bufio.NewReader(in),
		out:    out,
	}
}

func (b *basicLineInput) ReadLine(prompt string) (string, error) {
	if b.out != nil {
		fmt.Fprint(b.out, prompt)
	}
	line, err := b.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (b *basicLineInput) ReadPassword(prompt string) (string, error) {
	if f, ok := b.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if b.out != nil {
			fmt.Fprint(b.out, prompt)
		}
		data, err := term.ReadPassword(int(f.Fd()))
		if b.out != nil {
			fmt.Fprintln(b.out)
		}
		return string(data), err
	}
	return b.ReadLine(prompt)
}

func (b *basicLineInput) Close() error { return nil }

type readlineInput struct {
	instance *readline.Instance
}

func newReadlineInput(historyPath string) (*readlineInput, error) {
	if historyPath != "" {
		if err := os.MkdirAll(filepath.Dir(historyPath), 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	instance, err := readline.NewEx(&readline.Config{
		Prompt:            "> ",
		HistoryFile:       historyPath,
		HistorySearchFold: true,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
	})
	if err != nil {
		return nil, err
	}
	return &readlineInput{instance: instance}, nil
}

func (r *readlineInput) ReadLine(prompt string) (string, error) {
	r.instance.SetPrompt(prompt)
	return r.instance.Readline()
}

func (r *readlineInput) ReadPassword(prompt string) (string, error) {
	data, err := r.instance.ReadPassword(prompt)
	return string(data), err
}

func (r *readlineInput) Close() error {
	if r == nil || r.instance == nil {
		return nil
	}
	return r.instance.Close()
}

// NewLineInput 优先使用 readline；stdin 不是终端或 readline 失败时退回简单输入
// NewLineInput prefers readline and falls back to plain input when stdin is
// not a terminal or readline cannot start
func NewLineInput(historyPath string) LineInput {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return NewBasicLineInput(os.Stdin, os.Stdout)
	}
	in, err := newReadlineInput(historyPath)
	if err != nil {
		return NewBasicLineInput(os.Stdin, os.Stdout)
	}
	return in
}

// TerminalWidth 返回 stdout 的列数；非终端时为 80
// TerminalWidth returns the stdout column count, 80 when not a terminal
func TerminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}
