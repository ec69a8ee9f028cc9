package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"genos/internal/prefs"
)

var (
	// ErrNoPrompter 宿主没有提供密钥选择器
	// ErrNoPrompter means the host supplied no key selector
	ErrNoPrompter = errors.New("native key selector unavailable")
	// ErrEmptyKey 选择器返回了空密钥
	// ErrEmptyKey means the selector returned an empty key
	ErrEmptyKey = errors.New("api key is empty")
)

// StoreKey 持久化密钥使用的键
// StoreKey is the key-value key the selected API key is persisted under
const StoreKey = "genos-api-key"

// Prompter 向用户索取密钥（网页对话框、TUI 弹窗、密码输入）
// Prompter asks the user for a key (web dialog, TUI modal, password prompt)
type Prompter func(ctx context.Context) (string, error)

// Keyring 当前 API 密钥的持有者
// Keyring holds the current API key
type Keyring struct {
	mu       sync.RWMutex
	key      string
	prompter Prompter
	kv       prefs.KV
	logger   *slog.Logger
}

// NewKeyring 以配置中的密钥为初值；kv 可为 nil
// NewKeyring starts from the configured key; kv may be nil
func NewKeyring(configured string, kv prefs.KV, logger *slog.Logger) *Keyring {
	if logger == nil {
		logger = slog.Default()
	}
	return &Keyring{key: strings.TrimSpace(configured), kv: kv, logger: logger}
}

// Load 没有配置密钥时读取上次选择的密钥
// Load falls back to the previously selected key when none is configured
func (k *Keyring) Load(ctx context.Context) error {
	if k.HasCredential() || k.kv == nil {
		return nil
	}
	stored, ok, err := k.kv.GetValue(ctx, StoreKey)
	if err != nil {
		return fmt.Errorf("load api key: %w", err)
	}
	if ok {
		k.mu.Lock()
		k.key = strings.TrimSpace(stored)
		k.mu.Unlock()
	}
	return nil
}

func (k *Keyring) HasCredential() bool {
	return k.APIKey() != ""
}

func (k *Keyring) APIKey() string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.key
}

// Masked returns the key with all but the last four characters hidden.
func (k *Keyring) Masked() string {
	key := k.APIKey()
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return "****"
	}
	return strings.Repeat("*", 4) + key[len(key)-4:]
}

// SetPrompter installs the host's key selector.
func (k *Keyring) SetPrompter(p Prompter) {
	k.mu.Lock()
	k.prompter = p
	k.mu.Unlock()
}

// HasSelector reports whether a key selector is installed.
func (k *Keyring) HasSelector() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.prompter != nil
}

// Set 替换当前密钥并尽力持久化
// Set replaces the current key and persists it best-effort
func (k *Keyring) Set(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}
	k.mu.Lock()
	k.key = key
	k.mu.Unlock()

	if k.kv == nil {
		return nil
	}
	if err := k.kv.SetValue(ctx, StoreKey, key); err != nil {
		k.logger.Warn("api key not persisted", "error", err)
	}
	return nil
}

// OpenSelector 调用宿主的选择器并采用返回的密钥
// OpenSelector runs the host's selector and adopts the returned key
func (k *Keyring) OpenSelector(ctx context.Context) error {
	k.mu.RLock()
	p := k.prompter
	k.mu.RUnlock()
	if p == nil {
		return ErrNoPrompter
	}
	key, err := p(ctx)
	if err != nil {
		return fmt.Errorf("key selector: %w", err)
	}
	return k.Set(ctx, key)
}
