package orchestrator

import (
	"context"
	"errors"
	"strings"

	"genos/internal/history"
	"genos/internal/prefs"
	"genos/internal/storage"
)

var (
	ErrUnknownApp           = errors.New("unknown app")
	ErrInvalidHistoryLength = errors.New("interaction history length must be between 0 and 10")
	ErrInvalidCacheSize     = prefs.ErrInvalidCacheSize
	ErrNotBooted            = errors.New("shell has not booted")
)

// 提示消息 / Toast messages
const (
	MsgKeyError            = "API Key error. Please re-select a valid project key."
	MsgQuotaExceeded       = "Quota exceeded. Please switch to a paid API key."
	MsgUplinkError         = "Kernel communication error. Check your uplink."
	MsgSelectorUnavailable = "Native key selector unavailable in this environment."
	MsgSelectorFailed      = "Failed to trigger native key management dialog."
)

// 窗口标题 / Window titles
const (
	TitleDesktop = "Gemini OS"
	TitlePanel   = "System Configuration"
)

// View 主窗口所处的视图
// View is what the main window shows
type View int

const (
	ViewDesktop View = iota
	ViewApp
	ViewPanel
)

func (v View) String() string {
	switch v {
	case ViewApp:
		return "app"
	case ViewPanel:
		return "panel"
	}
	return "desktop"
}

func (v View) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *View) UnmarshalText(text []byte) error {
	switch string(text) {
	case "app":
		*v = ViewApp
	case "panel":
		*v = ViewPanel
	default:
		*v = ViewDesktop
	}
	return nil
}

// State 编排器状态的值快照
// State is a value snapshot of the orchestrator
type State struct {
	View             View              `json:"view"`
	ActiveApp        string            `json:"active_app,omitempty"`
	PiPApp           string            `json:"pip_app,omitempty"`
	Title            string            `json:"title"`
	PiPTitle         string            `json:"pip_title,omitempty"`
	History          history.History   `json:"history"`
	MaxHistory       int               `json:"max_history"`
	Statefulness     bool              `json:"statefulness"`
	Cache            prefs.CacheConfig `json:"cache"`
	Loading          bool              `json:"loading"`
	Error            string            `json:"error,omitempty"`
	ErrorKeyAction   bool              `json:"error_key_action,omitempty"`
	Booted           bool              `json:"booted"`
	HasKey           bool              `json:"has_key"`
	LastPromptTokens int               `json:"last_prompt_tokens,omitempty"`
}

// Parameters 参数面板可调整的内核参数
// Parameters are the kernel parameters the panel can change
type Parameters struct {
	MaxHistory   int               `json:"max_history"`
	Statefulness bool              `json:"statefulness"`
	Cache        prefs.CacheConfig `json:"cache"`
}

// Credentials 凭据能力：检查与打开选择器
// Credentials is the credential capability
type Credentials interface {
	HasCredential() bool
	OpenSelector(ctx context.Context) error
}

// Recorder 记录已完成轮次（statefulness 开启时）
// Recorder stores completed turns when statefulness is on
type Recorder interface {
	CreateSession(ctx context.Context, meta storage.SessionMeta) error
	AppendTurn(ctx context.Context, turn storage.TurnRecord) error
}

// Observer 状态变化回调，收到的是快照
// Observer receives a snapshot after every state change
type Observer = func(State)

// keyActionFor 提示涉及配额或密钥时提供切换密钥操作
// keyActionFor offers the switch-key action for quota or key related toasts
func keyActionFor(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "quota") ||
		strings.Contains(msg, "Key") ||
		strings.Contains(msg, "entity")
}
