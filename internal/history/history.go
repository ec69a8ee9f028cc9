package history

import (
	"genos/internal/apps"
	"genos/internal/interaction"
)

// MaxLength 历史长度上限（含）/ inclusive upper bound for the retention length
const MaxLength = 10

// History 按新到旧排列的交互序列；始终整体替换，不原地修改
// History is an ordered sequence of events, newest first. It is always
// replaced wholesale and never mutated in place.
type History []interaction.Event

// Reset 返回只含 initial 的历史；initial 为 nil 时返回空历史
// Reset returns a history holding only initial, or an empty history when initial is nil
func Reset(initial *interaction.Event) History {
	if initial == nil {
		return History{}
	}
	return History{*initial}
}

// Append 返回 [ev] + h[:max-1]；max<=0 时只保留 ev
// Append returns [ev] followed by h truncated to max-1 entries. The triggering
// event is always kept, so max <= 0 yields exactly [ev].
func Append(h History, ev interaction.Event, max int) History {
	keep := max - 1
	if keep < 0 {
		keep = 0
	}
	if keep > len(h) {
		keep = len(h)
	}
	out := make(History, 0, keep+1)
	out = append(out, ev)
	out = append(out, h[:keep]...)
	return out
}

// Bootstrap builds the app_open event that seeds history when an app opens.
func Bootstrap(app apps.App) interaction.Event {
	return interaction.Event{
		ID:           app.ID,
		Type:         interaction.TypeAppOpen,
		ElementKind:  "icon",
		ElementLabel: app.Name,
		AppContext:   app.ID,
	}
}

// Current returns the newest event.
func (h History) Current() (interaction.Event, bool) {
	if len(h) == 0 {
		return interaction.Event{}, false
	}
	return h[0], true
}

// Past returns every event except the newest.
func (h History) Past() History {
	if len(h) <= 1 {
		return nil
	}
	return h[1:]
}

// Clone 返回独立副本，供跨 goroutine 传递
// Clone returns an independent copy for handing across goroutines
func (h History) Clone() History {
	if h == nil {
		return nil
	}
	out := make(History, len(h))
	copy(out, h)
	return out
}

// ValidLength reports whether n is an accepted retention length.
func ValidLength(n int) bool {
	return n >= 0 && n <= MaxLength
}
