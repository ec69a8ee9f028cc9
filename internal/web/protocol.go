package web

import (
	"encoding/json"
	"errors"
	"fmt"

	"genos/internal/orchestrator"
	"genos/internal/prefs"
	"genos/internal/render"
)

// MessageType 套接字消息类型
// MessageType names a socket message
type MessageType string

const (
	// Server → Client
	MsgState      MessageType = "state"
	MsgRender     MessageType = "render"
	MsgActivate   MessageType = "activate"
	MsgKeyRequest MessageType = "key_request"
	MsgError      MessageType = "error"

	// Client → Server
	MsgBoot         MessageType = "boot"
	MsgOpenApp      MessageType = "open_app"
	MsgClick        MessageType = "click"
	MsgTogglePanel  MessageType = "toggle_panel"
	MsgApplyParams  MessageType = "apply_params"
	MsgSetCache     MessageType = "set_cache"
	MsgDismissError MessageType = "dismiss_error"
	MsgKeySubmit    MessageType = "key_submit"
)

// Message is the envelope for every socket message.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type RenderPayload struct {
	Target  string `json:"target"`
	Content string `json:"content"`
}

type ActivatePayload struct {
	Target  string          `json:"target"`
	Scripts []render.Script `json:"scripts"`
}

type OpenAppPayload struct {
	AppID string `json:"app_id"`
}

// ClickPayload 点击来源：目标缓冲区、元素路径、表单实时值、可选的当前 DOM
// ClickPayload locates a click: buffer target, element path, live form
// values and optionally the live DOM of the window content
type ClickPayload struct {
	Target string            `json:"target"`
	Path   []int             `json:"path"`
	Values map[string]string `json:"values,omitempty"`
	DOM    string            `json:"dom,omitempty"`
}

type KeySubmitPayload struct {
	Key string `json:"key"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// StatePayload wraps the orchestrator snapshot.
type StatePayload = orchestrator.State

type ParamsPayload = orchestrator.Parameters

type CachePayload = prefs.CacheConfig

// ParseMessage 解析并校验信封
// ParseMessage decodes and validates an envelope
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, errors.New("message type is empty")
	}
	return &msg, nil
}

// NewMessage builds an envelope around payload.
func NewMessage(t MessageType, payload any) (*Message, error) {
	msg := &Message{Type: t}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", t, err)
		}
		msg.Payload = data
	}
	return msg, nil
}

// Decode unmarshals the payload into v.
func (m *Message) Decode(v any) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("%s: missing payload", m.Type)
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("%s: decode payload: %w", m.Type, err)
	}
	return nil
}
