package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
)

// ModuleKey is the attribute printed as the [component] field of a line.
const ModuleKey = "module"

// Handler prints records as
//
//	[2006/01/02 15:04:05] [LEVEL] [component] message key=value...
//
// The level is left out for info records and the component is the value of
// the top level ModuleKey attribute.
type Handler struct {
	level  slog.Leveler
	mu     *sync.Mutex
	out    io.Writer
	module string
	group  string
	attrs  []string
}

func NewHandler(o io.Writer, opts *slog.HandlerOptions) *Handler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &Handler{out: o, level: level, mu: &sync.Mutex{}}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) clone() *Handler {
	c := *h
	c.attrs = append([]string(nil), h.attrs...)
	return &c
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := h.clone()
	for _, a := range attrs {
		if a.Key == ModuleKey && c.group == "" {
			c.module = a.Value.String()
			continue
		}
		c.attrs = appendAttr(c.attrs, c.group, a)
	}
	return c
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := h.clone()
	c.group += name + "."
	return c
}

func appendAttr(dst []string, prefix string, a slog.Attr) []string {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return dst
	}
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, g := range a.Value.Group() {
			dst = appendAttr(dst, prefix, g)
		}
		return dst
	}
	v := a.Value.String()
	if v == "" || strings.ContainsAny(v, " \t\"=") {
		v = strconv.Quote(v)
	}
	return append(dst, prefix+a.Key+"="+v)
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	module := h.module
	fields := h.attrs
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == ModuleKey && h.group == "" {
			module = a.Value.String()
			return true
		}
		fields = appendAttr(fields, h.group, a)
		return true
	})

	var b strings.Builder
	if !r.Time.IsZero() {
		b.WriteString(r.Time.Format("[2006/01/02 15:04:05] "))
	}
	if r.Level != slog.LevelInfo {
		fmt.Fprintf(&b, "[%s] ", r.Level)
	}
	if module != "" {
		fmt.Fprintf(&b, "[%s] ", module)
	}
	b.WriteString(r.Message)
	for _, f := range fields {
		b.WriteByte(' ')
		b.WriteString(f)
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := io.WriteString(h.out, b.String())
	return err
}
