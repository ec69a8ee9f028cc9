package config

const (
	// DefaultBaseURL Gemini 的 OpenAI 兼容端点
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	DefaultAddr    = "127.0.0.1:8787"
)
