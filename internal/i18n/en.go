package i18n

// EnMessages English message catalog
var EnMessages = map[string]string{
	// UI - Status bar
	"status.ready":   "Ready",
	"status.syncing": "Syncing Kernel State",
	"status.tokens":  "prompt ~%d tokens",
	"status.key":     "key %s",
	"status.no_key":  "no key",
	"status.session": "session %s",

	// UI - Views
	"view.desktop":  "Desktop",
	"view.pip":      "%s (pinned)",
	"view.empty":    "(no content)",
	"view.targets":  "Targets",
	"view.no_apps":  "No apps registered",
	"view.toast":    "⚠ %s",
	"view.key_hint": "type `key` to switch API key",

	// UI - Boot
	"boot.title":    "Gemini OS",
	"boot.cache":    "Cache: %s, %d GB",
	"boot.continue": "Press enter to boot",
	"boot.key":      "Enter API key (leave empty to skip): ",

	// UI - Panel
	"panel.history":      "Interaction buffer length: %d",
	"panel.statefulness": "Persistence layer: %s",
	"panel.cache":        "Cache: %s, %d GB",
	"panel.apply_hint":   "params history=<0-10> stateful=<on|off> cache=<on|off> size=<5-20>",
	"panel.applied":      "Parameters applied",

	// UI - Input
	"input.placeholder": "Command (help for list)",

	// UI - Keybindings (TUI)
	"keys.enter":  "enter run",
	"keys.ctrl_c": "ctrl+c quit",
	"keys.scroll": "pgup/pgdn scroll",

	// Values
	"value.on":  "on",
	"value.off": "off",

	// Commands
	"cmd.help":    "Show available commands",
	"cmd.apps":    "List apps",
	"cmd.open":    "Open an app: open <app_id>",
	"cmd.click":   "Activate a target: click [pip] <n>",
	"cmd.set":     "Set a field value: set <id> <value>",
	"cmd.pip":     "Pin the live app picture-in-picture",
	"cmd.expand":  "Restore the pinned app",
	"cmd.close":   "Close the app: close [pip]",
	"cmd.panel":   "Toggle the parameters panel",
	"cmd.params":  "Apply parameters: params history=N stateful=on|off cache=on|off size=N",
	"cmd.key":     "Switch API key",
	"cmd.dismiss": "Dismiss the error toast",
	"cmd.show":    "Redraw the current window",
	"cmd.exit":    "Exit application",

	// Errors
	"error.unknown_command": "Unknown command: %s",
	"error.usage":           "Usage: %s",
	"error.no_target":       "No target %d in the current window",
	"error.no_app":          "No app is open",
	"error.no_pip":          "Nothing is pinned",
	"error.command":         "Error: %s",

	// Session
	"session.none":     "No sessions found",
	"session.exported": "Exported %s to %s",

	// Model
	"model.current":  "Current model: %s",
	"model.switched": "Model switched to: %s",

	// Startup
	"startup.welcome": "Gemini OS shell started (%s)",
	"startup.serve":   "Serving on http://%s",
}
