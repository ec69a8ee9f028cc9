package interaction

import "strings"

// 交互类型与控制标识
// Interaction types and control identifiers
const (
	TypeGenericClick = "generic_click"
	TypeAppOpen      = "app_open"
	TypeSystem       = "system"

	// 以下标识在进入历史之前被编排器拦截
	// These identifiers are intercepted by the orchestrator before reaching history
	IDCloseApp     = "app_close_button"
	IDChangeAPIKey = "change_api_key"
	IDTogglePiP    = "toggle_pip"

	// MaxLabelLength 元素标签截断长度 / element label cut length
	MaxLabelLength = 75
)

// DOM attributes consumed from generated markup.
const (
	AttrID        = "data-interaction-id"
	AttrType      = "data-interaction-type"
	AttrValue     = "data-interaction-value"
	AttrValueFrom = "data-value-from"
)

// Event 一次用户或系统触发的交互
// Event is one user- or system-triggered action
type Event struct {
	ID           string `json:"id" yaml:"id"`
	Type         string `json:"type" yaml:"type"`
	Value        string `json:"value,omitempty" yaml:"value,omitempty"`
	ElementKind  string `json:"element_kind,omitempty" yaml:"element_kind,omitempty"`
	ElementLabel string `json:"element_label,omitempty" yaml:"element_label,omitempty"`
	AppContext   string `json:"app_context,omitempty" yaml:"app_context,omitempty"`
}

// IsControl reports whether the event carries one of the intercepted control identifiers.
func (e Event) IsControl() bool {
	switch e.ID {
	case IDCloseApp, IDChangeAPIKey, IDTogglePiP:
		return true
	}
	return false
}

// Label returns the element label, falling back to the id.
func (e Event) Label() string {
	if e.ElementLabel != "" {
		return e.ElementLabel
	}
	return e.ID
}

// TruncateLabel trims s and cuts it to MaxLabelLength runes.
func TruncateLabel(s string) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) > MaxLabelLength {
		r = r[:MaxLabelLength]
	}
	return string(r)
}
