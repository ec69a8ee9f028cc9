package prompt

import (
	"fmt"
	"strings"

	"genos/internal/apps"
	"genos/internal/history"
	"genos/internal/prefs"
)

// Input 组装提示词所需的全部输入
// Input is everything the composer reads
type Input struct {
	History    history.History
	MaxHistory int
	Cache      prefs.CacheConfig
	// Apps 为空时使用内置注册表 / nil means the built-in registry
	Apps apps.Registry
}

// Compose 纯函数：相同输入得到逐字节相同的提示词
// Compose is pure: identical inputs yield byte-identical prompt text
func Compose(in Input) string {
	registry := in.Apps
	if registry == nil {
		registry = apps.Default()
	}

	current, _ := in.History.Current()
	past := in.History.Past()

	label := current.ElementLabel
	if label == "" {
		label = current.ID
	}
	if label == "" {
		label = "System Init"
	}

	action := fmt.Sprintf("USER ACTION: [%s] on '%s' (ID: %s).", current.Type, label, current.ID)
	if current.Value != "" {
		action += fmt.Sprintf(` DATA: "%s"`, current.Value)
	}

	location := "LOCATION: OS Desktop."
	if current.AppContext != "" {
		location = fmt.Sprintf("LOCATION: %s App.", registry.Name(current.AppContext))
	}

	var log strings.Builder
	if len(past) > 0 {
		log.WriteString("\n\nRECENT ACTIVITY LOG (Older to Newer):")
		for i := len(past) - 1; i >= 0; i-- {
			ix := past[i]
			where := ix.AppContext
			if where == "" {
				where = "OS"
			}
			fmt.Fprintf(&log, "\n%d. [%s] %s '%s'", len(past)-i, where, ix.Type, ix.Label())
			if ix.Value != "" {
				fmt.Fprintf(&log, ` value: "%s"`, ix.Value)
			}
		}
	}

	system := SystemPrompt(in.MaxHistory, in.Cache.Enabled, in.Cache.SizeGB)
	return system + "\n\n" + location + "\n" + action + "\n" + log.String() + "\n\nGENERATE WINDOW HTML:"
}
