package hostcmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"genos/internal/i18n"
)

// Kind 文本宿主命令种类
// Kind is a text-host command
type Kind int

const (
	KindHelp Kind = iota
	KindApps
	KindOpen
	KindClick
	KindSet
	KindPiP
	KindExpand
	KindClose
	KindPanel
	KindParams
	KindKey
	KindDismiss
	KindShow
	KindQuit
)

// Command 一条已解析的命令
// Command is one parsed command line
type Command struct {
	Kind   Kind
	Arg    string
	Index  int
	PiP    bool
	Value  string
	Params ParamPatch
}

// ParamPatch 只包含命令行里出现的参数
// ParamPatch holds only the parameters present on the command line
type ParamPatch struct {
	MaxHistory   *int
	Statefulness *bool
	CacheEnabled *bool
	CacheSizeGB  *int
}

// ErrEmpty is returned for blank input.
var ErrEmpty = errors.New("empty command")

// Parse 解析一行输入；纯数字等价于 click <n>
// Parse parses one input line; a bare number is shorthand for click <n>
func Parse(line string) (Command, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return Command{}, ErrEmpty
	}
	name := strings.ToLower(strings.TrimPrefix(parts[0], "/"))
	args := parts[1:]

	if n, err := strconv.Atoi(name); err == nil {
		return Command{Kind: KindClick, Index: n}, nil
	}

	switch name {
	case "help", "?":
		return Command{Kind: KindHelp}, nil
	case "apps", "ls":
		return Command{Kind: KindApps}, nil
	case "open":
		if len(args) != 1 {
			return Command{}, usage("open <app_id>")
		}
		return Command{Kind: KindOpen, Arg: args[0]}, nil
	case "click":
		cmd := Command{Kind: KindClick}
		if len(args) > 0 && strings.EqualFold(args[0], "pip") {
			cmd.PiP = true
			args = args[1:]
		}
		if len(args) != 1 {
			return Command{}, usage("click [pip] <n>")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return Command{}, usage("click [pip] <n>")
		}
		cmd.Index = n
		return cmd, nil
	case "set":
		if len(args) < 1 {
			return Command{}, usage("set <id> <value>")
		}
		return Command{Kind: KindSet, Arg: args[0], Value: strings.Join(args[1:], " ")}, nil
	case "pip", "pin":
		return Command{Kind: KindPiP}, nil
	case "expand", "restore":
		return Command{Kind: KindExpand}, nil
	case "close":
		return Command{Kind: KindClose, PiP: len(args) > 0 && strings.EqualFold(args[0], "pip")}, nil
	case "panel":
		return Command{Kind: KindPanel}, nil
	case "params":
		patch, err := parseParams(args)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindParams, Params: patch}, nil
	case "key":
		return Command{Kind: KindKey}, nil
	case "dismiss":
		return Command{Kind: KindDismiss}, nil
	case "show", "redraw":
		return Command{Kind: KindShow}, nil
	case "exit", "quit", "q":
		return Command{Kind: KindQuit}, nil
	}
	return Command{}, errors.New(i18n.T("error.unknown_command", parts[0]))
}

func parseParams(args []string) (ParamPatch, error) {
	var p ParamPatch
	if len(args) == 0 {
		return p, usage(i18n.T("panel.apply_hint"))
	}
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok {
			return p, usage(i18n.T("panel.apply_hint"))
		}
		switch strings.ToLower(k) {
		case "history":
			n, err := strconv.Atoi(v)
			if err != nil {
				return p, fmt.Errorf("history: %w", err)
			}
			p.MaxHistory = &n
		case "stateful", "statefulness":
			b, err := parseSwitch(v)
			if err != nil {
				return p, fmt.Errorf("stateful: %w", err)
			}
			p.Statefulness = &b
		case "cache":
			b, err := parseSwitch(v)
			if err != nil {
				return p, fmt.Errorf("cache: %w", err)
			}
			p.CacheEnabled = &b
		case "size":
			n, err := strconv.Atoi(strings.TrimSuffix(strings.ToLower(v), "gb"))
			if err != nil {
				return p, fmt.Errorf("size: %w", err)
			}
			p.CacheSizeGB = &n
		default:
			return p, usage(i18n.T("panel.apply_hint"))
		}
	}
	return p, nil
}

func parseSwitch(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", v)
}

func usage(s string) error {
	return errors.New(i18n.T("error.usage", s))
}

// HelpLines 命令帮助，每行一条
// HelpLines returns one help line per command
func HelpLines() []string {
	entries := []struct{ name, key string }{
		{"help", "cmd.help"},
		{"apps", "cmd.apps"},
		{"open", "cmd.open"},
		{"click", "cmd.click"},
		{"set", "cmd.set"},
		{"pip", "cmd.pip"},
		{"expand", "cmd.expand"},
		{"close", "cmd.close"},
		{"panel", "cmd.panel"},
		{"params", "cmd.params"},
		{"key", "cmd.key"},
		{"dismiss", "cmd.dismiss"},
		{"show", "cmd.show"},
		{"exit", "cmd.exit"},
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("  %-8s %s", e.name, i18n.T(e.key)))
	}
	return lines
}
