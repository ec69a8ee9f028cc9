package logging

import (
	"context"
	"log/slog"
)

type turnKey struct{}

// TurnInfo 附加在日志记录上的轮次信息
// TurnInfo identifies a generation turn in log records
type TurnInfo struct {
	Target string
	Gen    uint64
}

// WithTurn attaches turn info to ctx for records logged with it.
func WithTurn(ctx context.Context, info TurnInfo) context.Context {
	return context.WithValue(ctx, turnKey{}, info)
}

// Handler 从 context 中取出轮次信息加到记录上
// Handler adds turn info found in the context to each record
type Handler struct {
	slog.Handler
}

func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	if v, ok := ctx.Value(turnKey{}).(TurnInfo); ok {
		record.AddAttrs(slog.Group("turn",
			slog.String("target", v.Target),
			slog.Uint64("gen", v.Gen),
		))
	}
	return h.Handler.Handle(ctx, record)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{Handler: h.Handler.WithGroup(name)}
}
