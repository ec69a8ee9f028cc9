package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"genos/internal/history"
	"genos/internal/prompt"
)

type ProviderConfig struct {
	BaseURL    string   `json:"base_url" yaml:"base_url"`
	Model      string   `json:"model" yaml:"model"`
	Models     []string `json:"models" yaml:"models"`
	APIKey     string   `json:"api_key,omitempty" yaml:"-"`
	TimeoutMS  int      `json:"timeout_ms" yaml:"timeout_ms"`
	MaxRetries int      `json:"max_retries" yaml:"max_retries"`
}

// ShellConfig 桌面外壳的初始内核参数
// ShellConfig holds the initial kernel parameters of the shell
type ShellConfig struct {
	MaxHistory   int  `json:"max_history" yaml:"max_history"`
	Statefulness bool `json:"statefulness" yaml:"statefulness"`
}

type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

type StorageConfig struct {
	BaseDir string `json:"base_dir" yaml:"base_dir"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"`
	File  string `json:"file,omitempty" yaml:"file,omitempty"`
}

type Config struct {
	Provider ProviderConfig `json:"provider" yaml:"provider"`
	Shell    ShellConfig    `json:"shell" yaml:"shell"`
	Server   ServerConfig   `json:"server" yaml:"server"`
	Storage  StorageConfig  `json:"storage" yaml:"storage"`
	Log      LogConfig      `json:"log" yaml:"log"`
}

type fileShellConfig struct {
	MaxHistory   *int  `json:"max_history"`
	Statefulness *bool `json:"statefulness"`
}

type fileConfig struct {
	Provider *ProviderConfig  `json:"provider"`
	Shell    *fileShellConfig `json:"shell"`
	Server   *ServerConfig    `json:"server"`
	Storage  *StorageConfig   `json:"storage"`
	Log      *LogConfig       `json:"log"`
}

func Default() Config {
	return Config{
		Provider: ProviderConfig{
			BaseURL:    DefaultBaseURL,
			Model:      prompt.Model,
			Models:     []string{prompt.Model},
			TimeoutMS:  120000,
			MaxRetries: 2,
		},
		Shell: ShellConfig{
			MaxHistory:   history.MaxLength,
			Statefulness: false,
		},
		Server:  ServerConfig{Addr: DefaultAddr},
		Storage: StorageConfig{BaseDir: "~/.genos"},
		Log:     LogConfig{Level: "info"},
	}
}

// Load 按 默认值 → 全局配置 → 项目配置 → 环境变量 的顺序合并
// Load merges defaults, the global file, the project file and the environment, in that order
func Load(path string) (Config, error) {
	cfg := Default()

	for _, globalPath := range globalConfigPaths() {
		if err := mergeFromFile(&cfg, globalPath); err != nil {
			return Config{}, err
		}
	}

	resolvedPath := strings.TrimSpace(path)
	if envPath := strings.TrimSpace(os.Getenv("GENOS_CONFIG_PATH")); envPath != "" {
		resolvedPath = envPath
	}
	if resolvedPath == "" {
		resolvedPath = findProjectConfigPath()
	}
	if err := mergeFromFile(&cfg, resolvedPath); err != nil {
		return Config{}, err
	}

	if err := normalize(&cfg); err != nil {
		return Config{}, err
	}
	return applyEnv(cfg)
}

func globalConfigPaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{filepath.Join(home, ".genos", "config.json")}
}

func findProjectConfigPath() string {
	candidates := []string{
		"genos.config.json",
		".genos/config.json",
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

func mergeFromFile(cfg *Config, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}

	resolved, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("expand config path %q: %w", path, err)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %q: %w", resolved, err)
	}

	cleaned := stripJSONComments(data)
	var fileCfg fileConfig
	if err := json.Unmarshal(cleaned, &fileCfg); err != nil {
		return fmt.Errorf("parse config %q: %w", resolved, err)
	}
	applyFileConfig(cfg, fileCfg)
	return nil
}

func applyFileConfig(cfg *Config, fc fileConfig) {
	if fc.Provider != nil {
		cfg.Provider = mergeProvider(cfg.Provider, *fc.Provider)
	}
	if fc.Shell != nil {
		if fc.Shell.MaxHistory != nil {
			cfg.Shell.MaxHistory = *fc.Shell.MaxHistory
		}
		if fc.Shell.Statefulness != nil {
			cfg.Shell.Statefulness = *fc.Shell.Statefulness
		}
	}
	if fc.Server != nil && strings.TrimSpace(fc.Server.Addr) != "" {
		cfg.Server.Addr = fc.Server.Addr
	}
	if fc.Storage != nil && strings.TrimSpace(fc.Storage.BaseDir) != "" {
		cfg.Storage.BaseDir = fc.Storage.BaseDir
	}
	if fc.Log != nil {
		if strings.TrimSpace(fc.Log.Level) != "" {
			cfg.Log.Level = fc.Log.Level
		}
		if strings.TrimSpace(fc.Log.File) != "" {
			cfg.Log.File = fc.Log.File
		}
	}
}

func mergeProvider(base ProviderConfig, override ProviderConfig) ProviderConfig {
	if strings.TrimSpace(override.BaseURL) != "" {
		base.BaseURL = override.BaseURL
	}
	if strings.TrimSpace(override.Model) != "" {
		base.Model = override.Model
	}
	if strings.TrimSpace(override.APIKey) != "" {
		base.APIKey = override.APIKey
	}
	if len(override.Models) > 0 {
		base.Models = append([]string(nil), override.Models...)
	}
	if override.TimeoutMS > 0 {
		base.TimeoutMS = override.TimeoutMS
	}
	if override.MaxRetries > 0 {
		base.MaxRetries = override.MaxRetries
	}
	return base
}

func normalize(cfg *Config) error {
	def := Default()
	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = def.Provider.BaseURL
	}
	if cfg.Provider.Model == "" {
		cfg.Provider.Model = def.Provider.Model
	}
	if cfg.Provider.TimeoutMS <= 0 {
		cfg.Provider.TimeoutMS = def.Provider.TimeoutMS
	}
	if cfg.Provider.MaxRetries < 0 {
		cfg.Provider.MaxRetries = 0
	}
	cfg.Provider.Models = normalizeModelList(cfg.Provider.Models)
	if !containsString(cfg.Provider.Models, cfg.Provider.Model) {
		cfg.Provider.Models = append([]string{cfg.Provider.Model}, cfg.Provider.Models...)
	}

	if !history.ValidLength(cfg.Shell.MaxHistory) {
		return fmt.Errorf("shell.max_history must be between 0 and %d, got %d", history.MaxLength, cfg.Shell.MaxHistory)
	}
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if strings.TrimSpace(cfg.Log.Level) == "" {
		cfg.Log.Level = def.Log.Level
	}
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))

	if strings.TrimSpace(cfg.Storage.BaseDir) == "" {
		cfg.Storage.BaseDir = def.Storage.BaseDir
	}
	storageDir, err := expandPath(cfg.Storage.BaseDir)
	if err != nil {
		return err
	}
	cfg.Storage.BaseDir = storageDir
	if cfg.Log.File != "" {
		logFile, err := expandPath(cfg.Log.File)
		if err != nil {
			return err
		}
		cfg.Log.File = logFile
	}
	return nil
}

func applyEnv(cfg Config) (Config, error) {
	if v := strings.TrimSpace(os.Getenv("GENOS_BASE_URL")); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("GENOS_MODEL")); v != "" {
		cfg.Provider.Model = v
	}
	// 密钥来源依次尝试 / key sources in order
	for _, name := range []string{"GENOS_API_KEY", "GEMINI_API_KEY", "API_KEY"} {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			cfg.Provider.APIKey = v
			break
		}
	}
	if v := strings.TrimSpace(os.Getenv("GENOS_ADDR")); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("GENOS_HOME")); v != "" {
		cfg.Storage.BaseDir = v
	}
	if v := strings.TrimSpace(os.Getenv("GENOS_LOG_LEVEL")); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("GENOS_MAX_HISTORY")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || !history.ValidLength(n) {
			return Config{}, fmt.Errorf("invalid GENOS_MAX_HISTORY: %q", v)
		}
		cfg.Shell.MaxHistory = n
	}

	return cfg, normalize(&cfg)
}

func normalizeModelList(models []string) []string {
	out := make([]string, 0, len(models))
	seen := map[string]struct{}{}
	for _, m := range models {
		trimmed := strings.TrimSpace(m)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

func containsString(items []string, needle string) bool {
	for _, item := range items {
		if item == needle {
			return true
		}
	}
	return false
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		if path == "~" {
			path = home
		} else {
			path = filepath.Join(home, strings.TrimPrefix(path, "~/"))
		}
	}
	return filepath.Abs(path)
}
