package apps

// App 静态应用描述
// App is a static registry entry
type App struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
	// PiP 是否可固定到画中画 / whether the app may be pinned picture-in-picture
	PiP bool `json:"pip,omitempty"`
}

// Registry 按桌面顺序排列的应用表
// Registry is the app table in desktop order
type Registry []App

var defaultRegistry = Registry{
	{ID: "my_computer", Name: "Desktop", Icon: "💻", Color: "#e3f2fd"},
	{ID: "terminal_app", Name: "Terminal", Icon: "📟", Color: "#212121"},
	{ID: "media_studio", Name: "Media Studio", Icon: "🎨", Color: "#fce4ec"},
	{ID: "voice_assistant", Name: "Live Chat", Icon: "🗣️", Color: "#e1f5fe", PiP: true},
	{ID: "storage_manager", Name: "Storage", Icon: "💾", Color: "#eeeeee"},
	{ID: "documents", Name: "Documents", Icon: "📁", Color: "#f1f8e9"},
	{ID: "notepad_app", Name: "Notepad", Icon: "📝", Color: "#fffde7"},
	{ID: "settings_app", Name: "Settings", Icon: "⚙️", Color: "#e7f3ff"},
	{ID: "trash_bin", Name: "Trash Bin", Icon: "🗑️", Color: "#ffebee"},
	{ID: "web_browser_app", Name: "Web", Icon: "🌐", Color: "#e0f7fa"},
	{ID: "calculator_app", Name: "Calculator", Icon: "🧮", Color: "#f5f5f5"},
	{ID: "travel_app", Name: "Travel", Icon: "✈️", Color: "#e8f5e9"},
	{ID: "gaming_app", Name: "Games", Icon: "🎮", Color: "#f3e5f5"},
}

// Default returns a copy of the built-in registry.
func Default() Registry {
	out := make(Registry, len(defaultRegistry))
	copy(out, defaultRegistry)
	return out
}

// Lookup finds an app in the built-in registry.
func Lookup(id string) (App, bool) {
	return defaultRegistry.Lookup(id)
}

func (r Registry) Lookup(id string) (App, bool) {
	for _, a := range r {
		if a.ID == id {
			return a, true
		}
	}
	return App{}, false
}

// Name 返回应用名；未知 id 原样返回
// Name returns the app name, or the id itself when unknown
func (r Registry) Name(id string) string {
	if a, ok := r.Lookup(id); ok {
		return a.Name
	}
	return id
}
