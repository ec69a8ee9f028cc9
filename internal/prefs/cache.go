package prefs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
)

// CacheConfigKey 持久化键名 / persisted key name
const CacheConfigKey = "gemini-os-cache-config"

const (
	MinCacheSizeGB     = 5
	MaxCacheSizeGB     = 20
	DefaultCacheSizeGB = 10
)

// ErrInvalidCacheSize is returned by Validate for sizes outside [5,20].
var ErrInvalidCacheSize = errors.New("cache size must be between 5 and 20 GB")

// KV 键值存储（由 storage.SQLiteStore 实现）
// KV is a key-value store (implemented by storage.SQLiteStore)
type KV interface {
	GetValue(ctx context.Context, key string) (string, bool, error)
	SetValue(ctx context.Context, key, value string) error
}

// CacheConfig 仅作提示词描述，不强制任何真实缓存
// CacheConfig is advisory: it is described to the model, nothing enforces it
type CacheConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	SizeGB  int  `json:"sizeGB" yaml:"size_gb"`
}

// DefaultCacheConfig returns {enabled:true, sizeGB:10}.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{Enabled: true, SizeGB: DefaultCacheSizeGB}
}

func (c CacheConfig) Validate() error {
	if c.SizeGB < MinCacheSizeGB || c.SizeGB > MaxCacheSizeGB {
		return fmt.Errorf("%w: got %d", ErrInvalidCacheSize, c.SizeGB)
	}
	return nil
}

// ParseCacheConfig 类型检查存储文本；任何不合法输入返回 false
// ParseCacheConfig type-checks stored text; any invalid input reports false
func ParseCacheConfig(raw string) (CacheConfig, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return CacheConfig{}, false
	}
	var enabled bool
	if !decodeField(fields["enabled"], &enabled) {
		return CacheConfig{}, false
	}
	var size float64
	if !decodeField(fields["sizeGB"], &size) {
		return CacheConfig{}, false
	}
	if size != math.Trunc(size) {
		return CacheConfig{}, false
	}
	cfg := CacheConfig{Enabled: enabled, SizeGB: int(size)}
	if cfg.Validate() != nil {
		return CacheConfig{}, false
	}
	return cfg, true
}

// decodeField 解码单个字段；缺失或 null 视为类型不符
// decodeField decodes one field; a missing or null value is a type mismatch
func decodeField(raw json.RawMessage, v any) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return false
	}
	return json.Unmarshal(trimmed, v) == nil
}

// LoadCacheConfig 读取缓存配置；缺失、损坏或存储不可用时返回默认值
// LoadCacheConfig reads the cache config, falling back to the default on
// missing or malformed data or an unavailable store
func LoadCacheConfig(ctx context.Context, kv KV, logger *slog.Logger) CacheConfig {
	if logger == nil {
		logger = slog.Default()
	}
	if kv == nil {
		return DefaultCacheConfig()
	}
	raw, ok, err := kv.GetValue(ctx, CacheConfigKey)
	if err != nil {
		logger.Warn("read cache config failed", "key", CacheConfigKey, "error", err)
		return DefaultCacheConfig()
	}
	if !ok {
		return DefaultCacheConfig()
	}
	cfg, valid := ParseCacheConfig(raw)
	if !valid {
		logger.Error("saved cache config is malformed, using default", "key", CacheConfigKey, "raw", raw)
		return DefaultCacheConfig()
	}
	return cfg
}

// SaveCacheConfig 尽力写入；失败只记录警告
// SaveCacheConfig is best-effort: failures are logged as warnings and never returned
func SaveCacheConfig(ctx context.Context, kv KV, cfg CacheConfig, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	if kv == nil {
		logger.Warn("cache config not persisted: storage unavailable", "key", CacheConfigKey)
		return
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		logger.Warn("encode cache config failed", "error", err)
		return
	}
	if err := kv.SetValue(ctx, CacheConfigKey, string(data)); err != nil {
		logger.Warn("write cache config failed", "key", CacheConfigKey, "error", err)
	}
}
