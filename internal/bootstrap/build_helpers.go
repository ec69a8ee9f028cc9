package bootstrap

import (
	"os"

	"genos/internal/config"
	"genos/internal/kernel"
	"genos/internal/logging"
	"genos/internal/provider"
	"genos/internal/storage"
)

// NewProviderFactory 每次按当前密钥构造 OpenAI 兼容 provider
// NewProviderFactory builds an OpenAI-compatible provider bound to the key
// current at call time
func NewProviderFactory(cfg config.ProviderConfig) kernel.ProviderFactory {
	return func(apiKey string) provider.Provider {
		return NewProvider(cfg, apiKey)
	}
}

// NewProvider builds one provider for cfg and apiKey.
func NewProvider(cfg config.ProviderConfig, apiKey string) *provider.OpenAIProvider {
	return provider.NewOpenAIProvider(provider.OpenAIConfig{
		BaseURL:    cfg.BaseURL,
		APIKey:     apiKey,
		Model:      cfg.Model,
		TimeoutMS:  cfg.TimeoutMS,
		MaxRetries: cfg.MaxRetries,
	})
}

// NewLogger 按配置构建日志器。toFile 为 true 时（TUI 占用终端）写入日志文件。
// NewLogger builds the process logger from cfg. When toFile is set (the TUI
// owns the terminal) the text log goes to a file under the data dir.
func NewLogger(cfg config.Config, toFile bool) (*logging.Logger, error) {
	file := cfg.Log.File
	if toFile && file == "" {
		layout, err := storage.NewLayout(cfg.Storage.BaseDir)
		if err != nil {
			return nil, err
		}
		file = layout.LogFile()
	}
	return logging.New(logging.Options{
		Level:   cfg.Log.Level,
		File:    file,
		Writer:  os.Stderr,
		Journal: true,
	})
}
