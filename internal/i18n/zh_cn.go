package i18n

// ZhCNMessages 简体中文消息目录
// ZhCNMessages Simplified Chinese message catalog
var ZhCNMessages = map[string]string{
	// 状态栏
	"status.ready":   "就绪",
	"status.syncing": "正在同步内核状态",
	"status.tokens":  "提示词约 %d tokens",
	"status.key":     "密钥 %s",
	"status.no_key":  "无密钥",
	"status.session": "会话 %s",

	// 视图
	"view.desktop":  "桌面",
	"view.pip":      "%s（画中画）",
	"view.empty":    "（无内容）",
	"view.targets":  "可交互目标",
	"view.no_apps":  "没有注册的应用",
	"view.toast":    "⚠ %s",
	"view.key_hint": "输入 `key` 切换 API 密钥",

	// 启动
	"boot.title":    "Gemini OS",
	"boot.cache":    "缓存：%s，%d GB",
	"boot.continue": "按回车启动",
	"boot.key":      "输入 API 密钥（留空跳过）：",

	// 参数面板
	"panel.history":      "交互缓冲长度：%d",
	"panel.statefulness": "持久层：%s",
	"panel.cache":        "缓存：%s，%d GB",
	"panel.apply_hint":   "params history=<0-10> stateful=<on|off> cache=<on|off> size=<5-20>",
	"panel.applied":      "参数已应用",

	// 输入
	"input.placeholder": "命令（help 查看列表）",

	// 快捷键
	"keys.enter":  "enter 执行",
	"keys.ctrl_c": "ctrl+c 退出",
	"keys.scroll": "pgup/pgdn 滚动",

	"value.on":  "开",
	"value.off": "关",

	// 命令
	"cmd.help":    "显示可用命令",
	"cmd.apps":    "列出应用",
	"cmd.open":    "打开应用：open <app_id>",
	"cmd.click":   "激活目标：click [pip] <n>",
	"cmd.set":     "设置字段值：set <id> <value>",
	"cmd.pip":     "将当前应用固定为画中画",
	"cmd.expand":  "还原画中画应用",
	"cmd.close":   "关闭应用：close [pip]",
	"cmd.panel":   "切换参数面板",
	"cmd.params":  "应用参数：params history=N stateful=on|off cache=on|off size=N",
	"cmd.key":     "切换 API 密钥",
	"cmd.dismiss": "关闭错误提示",
	"cmd.show":    "重绘当前窗口",
	"cmd.exit":    "退出程序",

	// 错误
	"error.unknown_command": "未知命令：%s",
	"error.usage":           "用法：%s",
	"error.no_target":       "当前窗口没有目标 %d",
	"error.no_app":          "没有打开的应用",
	"error.no_pip":          "没有画中画应用",
	"error.command":         "错误：%s",

	// 会话
	"session.none":     "没有会话",
	"session.exported": "已导出 %s 到 %s",

	// 模型
	"model.current":  "当前模型：%s",
	"model.switched": "已切换模型：%s",

	// 启动
	"startup.welcome": "Gemini OS 外壳已启动（%s）",
	"startup.serve":   "服务地址 http://%s",
}
