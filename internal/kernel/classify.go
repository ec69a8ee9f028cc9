package kernel

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"genos/internal/provider"
)

// Kind 一次流的结果分类
// Kind classifies how a stream ended
type Kind int

const (
	KindOK Kind = iota
	KindMissingKey
	KindNoContext
	KindKeyError
	KindQuotaError
	KindKernelError
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindMissingKey:
		return "missing_key"
	case KindNoContext:
		return "no_context"
	case KindKeyError:
		return "key_error"
	case KindQuotaError:
		return "quota_error"
	case KindKernelError:
		return "kernel_error"
	case KindCanceled:
		return "canceled"
	}
	return "unknown"
}

// IsFailure reports whether the outcome rendered an error fragment.
func (k Kind) IsFailure() bool {
	switch k {
	case KindMissingKey, KindKeyError, KindQuotaError, KindKernelError:
		return true
	}
	return false
}

const (
	entityNotFound = "Requested entity was not found."
	retryInfoType  = "type.googleapis.com/google.rpc.RetryInfo"
)

// Classify 按优先级判定：密钥错误 > 配额错误 > 其他
// Classify applies key error, then quota error, then generic kernel error
func Classify(err error) Kind {
	if err == nil {
		return KindOK
	}
	up, _ := provider.Inspect(err)
	message := errorMessage(err)
	serialized := strings.ToLower(err.Error() + " " + up.Raw + " " + up.Status)

	switch up.HTTPStatus {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindKeyError
	}
	if strings.Contains(message, entityNotFound) ||
		strings.Contains(serialized, "not found") ||
		strings.Contains(serialized, "api key not valid") {
		return KindKeyError
	}

	if up.HTTPStatus == http.StatusTooManyRequests || up.Code == "429" ||
		up.Status == "RESOURCE_EXHAUSTED" ||
		strings.Contains(serialized, "429") ||
		strings.Contains(serialized, "quota") ||
		strings.Contains(serialized, "exhausted") {
		return KindQuotaError
	}
	return KindKernelError
}

// RetryDelay 从结构化错误详情中取 google.rpc.RetryInfo 的 retryDelay，
// 把首个 "s" 替换为 " seconds"；取不到时返回空串
// RetryDelay finds a google.rpc.RetryInfo retryDelay in the structured error
// details and renders "37s" as "37 seconds"; "" when absent or unparseable
func RetryDelay(err error) string {
	if err == nil {
		return ""
	}
	up, _ := provider.Inspect(err)
	details := up.Details
	if len(details) == 0 {
		if body, ok := provider.ParseErrorBody([]byte(up.Message)); ok {
			details = body.Error.Details
		}
	}
	if len(details) == 0 {
		if body, ok := provider.ParseErrorBody([]byte(err.Error())); ok {
			details = body.Error.Details
		}
	}
	for _, raw := range details {
		var d struct {
			Type       string `json:"@type"`
			RetryDelay string `json:"retryDelay"`
		}
		if json.Unmarshal(raw, &d) != nil || d.Type != retryInfoType || d.RetryDelay == "" {
			continue
		}
		return strings.Replace(d.RetryDelay, "s", " seconds", 1)
	}
	return ""
}

// errorMessage 优先使用上游消息，否则取最内层错误的原始文本（去掉本地包装前缀）
// errorMessage prefers the upstream message, else the innermost error's own
// text without the local wrap context
func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	if up, ok := provider.Inspect(err); ok && up.Message != "" {
		return up.Message
	}
	inner := err
	for next := errors.Unwrap(inner); next != nil; next = errors.Unwrap(inner) {
		inner = next
	}
	if msg := inner.Error(); msg != "" {
		return msg
	}
	return err.Error()
}
