package build

import (
	"context"
	"errors"
	"log/slog"

	"github.com/btcsuite/btclog"
	btclogv2 "github.com/btcsuite/btclog/v2"
)

// HandlerSet fans log records out to several btclog handlers, so one logger
// can write to the terminal and to the rotating log file at once.
type HandlerSet struct {
	level btclog.Level
	set   []btclogv2.Handler
}

// NewHandlerSet builds a set over handlers, all at the info level.
func NewHandlerSet(handlers ...btclogv2.Handler) *HandlerSet {
	h := &HandlerSet{set: handlers}
	h.SetLevel(btclog.LevelInfo)

	return h
}

// Enabled reports whether any member accepts records at level.
//
// NOTE: this is part of the slog.Handler interface.
func (h *HandlerSet) Enabled(ctx context.Context, level slog.Level) bool {
	return anyEnabled(ctx, level, h.set)
}

// Handle passes record to every member that accepts its level. All members
// are tried even if one fails.
//
// NOTE: this is part of the slog.Handler interface.
func (h *HandlerSet) Handle(ctx context.Context, record slog.Record) error {
	return handleAll(ctx, record, h.set)
}

// WithAttrs returns a handler that adds attrs to every member.
//
// NOTE: this is part of the slog.Handler interface.
func (h *HandlerSet) WithAttrs(attrs []slog.Attr) slog.Handler {
	return mapSet(h.set, func(m btclogv2.Handler) slog.Handler {
		return m.WithAttrs(attrs)
	})
}

// WithGroup returns a handler that opens group name on every member.
//
// NOTE: this is part of the slog.Handler interface.
func (h *HandlerSet) WithGroup(name string) slog.Handler {
	return mapSet(h.set, func(m btclogv2.Handler) slog.Handler {
		return m.WithGroup(name)
	})
}

// SubSystem tags every member with a sub-system.
//
// NOTE: this is part of the btclog.Handler interface.
func (h *HandlerSet) SubSystem(tag string) btclogv2.Handler {
	return h.derive(func(m btclogv2.Handler) btclogv2.Handler {
		return m.SubSystem(tag)
	})
}

// WithPrefix prefixes every message on every member.
//
// NOTE: this is part of the btclog.Handler interface.
func (h *HandlerSet) WithPrefix(prefix string) btclogv2.Handler {
	return h.derive(func(m btclogv2.Handler) btclogv2.Handler {
		return m.WithPrefix(prefix)
	})
}

// SetLevel changes the level of every member.
//
// NOTE: this is part of the btclog.Handler interface.
func (h *HandlerSet) SetLevel(level btclog.Level) {
	for _, m := range h.set {
		m.SetLevel(level)
	}
	h.level = level
}

// Level returns the level last set.
//
// NOTE: this is part of the btclog.Handler interface.
func (h *HandlerSet) Level() btclog.Level {
	return h.level
}

func (h *HandlerSet) derive(
	f func(btclogv2.Handler) btclogv2.Handler) *HandlerSet {

	out := &HandlerSet{
		level: h.level,
		set:   make([]btclogv2.Handler, len(h.set)),
	}
	for i, m := range h.set {
		out.set[i] = f(m)
	}

	return out
}

var _ btclogv2.Handler = (*HandlerSet)(nil)

// plainSet is what WithAttrs and WithGroup return, since those produce
// plain slog handlers.
type plainSet []slog.Handler

func mapSet[H slog.Handler](in []H, f func(H) slog.Handler) plainSet {
	out := make(plainSet, len(in))
	for i, m := range in {
		out[i] = f(m)
	}

	return out
}

// Enabled reports whether any member accepts records at level.
func (p plainSet) Enabled(ctx context.Context, level slog.Level) bool {
	return anyEnabled(ctx, level, p)
}

// Handle passes record to every member that accepts its level.
func (p plainSet) Handle(ctx context.Context, record slog.Record) error {
	return handleAll(ctx, record, p)
}

// WithAttrs returns a set that adds attrs to every member.
func (p plainSet) WithAttrs(attrs []slog.Attr) slog.Handler {
	return mapSet(p, func(m slog.Handler) slog.Handler {
		return m.WithAttrs(attrs)
	})
}

// WithGroup returns a set that opens group name on every member.
func (p plainSet) WithGroup(name string) slog.Handler {
	return mapSet(p, func(m slog.Handler) slog.Handler {
		return m.WithGroup(name)
	})
}

var _ slog.Handler = plainSet(nil)

func anyEnabled[H slog.Handler](ctx context.Context, level slog.Level,
	set []H) bool {

	for _, m := range set {
		if m.Enabled(ctx, level) {
			return true
		}
	}

	return false
}

func handleAll[H slog.Handler](ctx context.Context, record slog.Record,
	set []H) error {

	var errs []error
	for _, m := range set {
		if !m.Enabled(ctx, record.Level) {
			continue
		}
		if err := m.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
