package tokens

import (
	"strings"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Counter token 计数器，tiktoken 不可用时回退到启发式
// Counter counts tokens with tiktoken, falling back to a heuristic
type Counter struct {
	encoder      *tiktoken.Tiktoken
	encodingName string
	fallback     bool
	mu           sync.RWMutex
}

var (
	defaultCounter     *Counter
	defaultCounterOnce sync.Once
)

// Default 返回全局默认计数器
// Default returns the shared default counter
func Default() *Counter {
	defaultCounterOnce.Do(func() {
		defaultCounter = New("cl100k_base")
	})
	return defaultCounter
}

// New 创建计数器；离线环境可能没有 BPE 缓存，此时回退到启发式
// New creates a counter; offline environments may lack the BPE cache, in
// which case it falls back to the heuristic
func New(encodingName string) *Counter {
	c := &Counter{encodingName: encodingName}
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		c.fallback = true
		return c
	}
	c.encoder = enc
	return c
}

// ForModel 根据模型名选择编码
// ForModel picks an encoding from the model name
func ForModel(model string) *Counter {
	return New(modelToEncoding(model))
}

// Count 计算文本 token 数
// Count returns the token count of text
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	if c.fallback {
		return heuristicCount(text)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.encoder.Encode(text, nil, nil))
}

// CountPrompt 单条 user 消息的估算，含消息结构开销
// CountPrompt estimates one user message including per-message overhead
func (c *Counter) CountPrompt(prompt string) int {
	return 4 + c.Count("user") + c.Count(prompt)
}

// IsPrecise reports whether tiktoken is in use.
func (c *Counter) IsPrecise() bool {
	return !c.fallback
}

func (c *Counter) EncodingName() string {
	return c.encodingName
}

// Estimate 使用默认计数器估算提示词大小
// Estimate sizes a prompt with the default counter
func Estimate(prompt string) int {
	return Default().CountPrompt(prompt)
}

// heuristicCount CJK 约 1.5 token/字，其余约 4 字符/token
// heuristicCount: CJK ~1.5 tokens per rune, other text ~4 runes per token
func heuristicCount(text string) int {
	cjk, other := 0, 0
	for _, r := range text {
		if isCJK(r) {
			cjk++
		} else {
			other++
		}
	}
	estimate := int(float64(cjk)*1.5 + float64(other)*0.25)
	if estimate < 1 {
		estimate = 1
	}
	return estimate
}

func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0x3000 && r <= 0x303F) ||
		(r >= 0xFF00 && r <= 0xFFEF) ||
		(r >= 0xAC00 && r <= 0xD7AF)
}

func modelToEncoding(model string) string {
	m := strings.ToLower(strings.TrimSpace(model))
	switch {
	case strings.HasPrefix(m, "gpt-4o"), strings.HasPrefix(m, "chatgpt-4o"),
		strings.HasPrefix(m, "o1"), strings.HasPrefix(m, "o3"):
		return "o200k_base"
	// Gemini 没有公开的 BPE 表，o200k_base 的词表规模更接近
	// Gemini has no published BPE table; o200k_base is the closer vocabulary size
	case strings.HasPrefix(m, "gemini"), strings.HasPrefix(m, "models/gemini"):
		return "o200k_base"
	default:
		return "cl100k_base"
	}
}
