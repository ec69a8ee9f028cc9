package prefs

import (
	"context"
	"errors"
	"testing"
)

type memKV struct {
	data   map[string]string
	setErr error
	getErr error
}

func newMemKV() *memKV { return &memKV{data: map[string]string{}} }

func (m *memKV) GetValue(_ context.Context, key string) (string, bool, error) {
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) SetValue(_ context.Context, key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func TestCacheConfig_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	SaveCacheConfig(ctx, kv, CacheConfig{Enabled: false, SizeGB: 7}, nil)

	if raw := kv.data[CacheConfigKey]; raw != `{"enabled":false,"sizeGB":7}` {
		t.Fatalf("stored=%q", raw)
	}
	got := LoadCacheConfig(ctx, kv, nil)
	if got != (CacheConfig{Enabled: false, SizeGB: 7}) {
		t.Fatalf("loaded=%+v", got)
	}
}

func TestCacheConfig_FallbackToDefault(t *testing.T) {
	ctx := context.Background()
	def := DefaultCacheConfig()
	if def != (CacheConfig{Enabled: true, SizeGB: 10}) {
		t.Fatalf("default=%+v", def)
	}

	cases := map[string]string{
		"malformed":     `{not json`,
		"wrong types":   `{"enabled":"yes","sizeGB":"7"}`,
		"missing field": `{"enabled":false}`,
		"fractional":    `{"enabled":false,"sizeGB":7.5}`,
		"out of range":  `{"enabled":false,"sizeGB":64}`,
		"array":         `[1,2]`,
		"null enabled":  `{"enabled":null,"sizeGB":7}`,
		"null size":     `{"enabled":true,"sizeGB":null}`,
		"null document": `null`,
	}
	for name, raw := range cases {
		kv := newMemKV()
		kv.data[CacheConfigKey] = raw
		if got := LoadCacheConfig(ctx, kv, nil); got != def {
			t.Fatalf("%s: got %+v, want default", name, got)
		}
	}

	if got := LoadCacheConfig(ctx, newMemKV(), nil); got != def {
		t.Fatalf("missing key: got %+v", got)
	}
	if got := LoadCacheConfig(ctx, nil, nil); got != def {
		t.Fatalf("nil store: got %+v", got)
	}
	broken := newMemKV()
	broken.getErr = errors.New("disk gone")
	if got := LoadCacheConfig(ctx, broken, nil); got != def {
		t.Fatalf("read error: got %+v", got)
	}
}

func TestSaveCacheConfig_BestEffort(t *testing.T) {
	kv := newMemKV()
	kv.setErr = errors.New("read-only")
	// must not panic or surface an error
	SaveCacheConfig(context.Background(), kv, DefaultCacheConfig(), nil)
	SaveCacheConfig(context.Background(), nil, DefaultCacheConfig(), nil)
}

func TestCacheConfigValidate(t *testing.T) {
	if err := (CacheConfig{SizeGB: 5}).Validate(); err != nil {
		t.Fatalf("5GB: %v", err)
	}
	if err := (CacheConfig{SizeGB: 21}).Validate(); !errors.Is(err, ErrInvalidCacheSize) {
		t.Fatalf("21GB err=%v", err)
	}
}

func TestParseCacheConfig_RejectsNullFields(t *testing.T) {
	if cfg, ok := ParseCacheConfig(`{"enabled":null,"sizeGB":7}`); ok {
		t.Fatalf("null enabled accepted as %+v", cfg)
	}
	if cfg, ok := ParseCacheConfig(`{"enabled":false,"sizeGB":7}`); !ok || cfg != (CacheConfig{Enabled: false, SizeGB: 7}) {
		t.Fatalf("cfg=%+v ok=%v, want {false 7} true", cfg, ok)
	}
}
