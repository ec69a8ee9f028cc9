package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// UpstreamError 上游返回的错误信息（状态码、状态、消息、详情）
// UpstreamError is what the upstream reported about a failed call
type UpstreamError struct {
	HTTPStatus int
	Code       string
	Status     string
	Message    string
	Details    []json.RawMessage
	// Raw 原始错误文本（响应体或错误字符串）/ raw error text (body or error string)
	Raw string
}

// ErrorBody 上游错误 JSON：{"error":{...}}，Gemini 兼容层也可能包成数组
// ErrorBody is the upstream error JSON; the Gemini compatibility layer may wrap it in an array
type ErrorBody struct {
	Error struct {
		Code    json.RawMessage   `json:"code"`
		Message string            `json:"message"`
		Status  string            `json:"status"`
		Details []json.RawMessage `json:"details"`
	} `json:"error"`
}

// ParseErrorBody 解析对象或单元素数组形式的错误体
// ParseErrorBody decodes an error body in object or array form
func ParseErrorBody(raw []byte) (ErrorBody, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ErrorBody{}, false
	}
	var body ErrorBody
	if raw[0] == '[' {
		var list []ErrorBody
		if err := json.Unmarshal(raw, &list); err != nil || len(list) == 0 {
			return ErrorBody{}, false
		}
		body = list[0]
	} else if err := json.Unmarshal(raw, &body); err != nil {
		return ErrorBody{}, false
	}
	if body.Error.Message == "" && body.Error.Status == "" && len(body.Error.Code) == 0 {
		return ErrorBody{}, false
	}
	return body, true
}

// Inspect 提取 go-openai 错误中的上游信息；没有上游状态时 ok=false
// Inspect extracts upstream details from a go-openai error; ok is false when
// the error never reached the upstream
func Inspect(err error) (UpstreamError, bool) {
	if err == nil {
		return UpstreamError{}, false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		out := UpstreamError{
			HTTPStatus: apiErr.HTTPStatusCode,
			Message:    apiErr.Message,
			Status:     apiErr.Type,
			Raw:        err.Error(),
		}
		if apiErr.Code != nil {
			out.Code = fmt.Sprint(apiErr.Code)
		}
		if body, ok := ParseErrorBody([]byte(apiErr.Message)); ok {
			out.merge(body)
		}
		return out, true
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		out := UpstreamError{
			HTTPStatus: reqErr.HTTPStatusCode,
			Raw:        string(reqErr.Body),
		}
		if reqErr.Err != nil {
			out.Message = reqErr.Err.Error()
		}
		if body, ok := ParseErrorBody(reqErr.Body); ok {
			out.merge(body)
		}
		if out.Raw == "" {
			out.Raw = err.Error()
		}
		if out.HTTPStatus == 0 && out.Status == "" && out.Code == "" {
			return UpstreamError{}, false
		}
		return out, true
	}

	return UpstreamError{}, false
}

func (u *UpstreamError) merge(body ErrorBody) {
	if body.Error.Message != "" {
		u.Message = body.Error.Message
	}
	if body.Error.Status != "" {
		u.Status = body.Error.Status
	}
	if code := strings.Trim(string(body.Error.Code), `"`); code != "" && code != "null" {
		u.Code = code
	}
	if len(body.Error.Details) > 0 {
		u.Details = body.Error.Details
	}
}

// IsTransport 判断错误是否发生在拿到上游状态之前（网络失败等）
// IsTransport reports whether err happened before any upstream status was seen.
// Caller cancellation is not a transport failure.
func IsTransport(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	_, upstream := Inspect(err)
	return !upstream
}
