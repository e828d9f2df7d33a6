package logging

import (
	"context"
	"log/slog"
	"regexp"
)

// secretPatterns matches credential material that must never reach a log
// sink: bearer/token authorization values and client-secret form fields.
var secretPatterns = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?i)\b(bearer|token)\s+[A-Za-z0-9._~+/=-]+`), "$1 " + redactedPlaceholder},
	{regexp.MustCompile(`(?i)(client_secret=)[^&\s]+`), "$1" + redactedPlaceholder},
}

const redactedPlaceholder = "[REDACTED]"

// redactingHandler is a slog.Handler middleware that rewrites string
// attribute values containing credential material.
type redactingHandler struct {
	next slog.Handler
}

func newRedactingHandler(next slog.Handler) *redactingHandler {
	return &redactingHandler{next: next}
}

func (h *redactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *redactingHandler) Handle(ctx context.Context, record slog.Record) error {
	clean := slog.NewRecord(record.Time, record.Level, RedactString(record.Message), record.PC)

	record.Attrs(func(attr slog.Attr) bool {
		clean.AddAttrs(redactAttr(attr))
		return true
	})

	return h.next.Handle(ctx, clean)
}

func (h *redactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		clean[i] = redactAttr(attr)
	}
	return &redactingHandler{next: h.next.WithAttrs(clean)}
}

func (h *redactingHandler) WithGroup(name string) slog.Handler {
	return &redactingHandler{next: h.next.WithGroup(name)}
}

func redactAttr(attr slog.Attr) slog.Attr {
	if attr.Value.Kind() == slog.KindString {
		attr.Value = slog.StringValue(RedactString(attr.Value.String()))
	}
	return attr
}

// RedactString replaces credential material in s with a placeholder.
func RedactString(s string) string {
	for _, p := range secretPatterns {
		if p.re.MatchString(s) {
			s = p.re.ReplaceAllString(s, p.repl)
		}
	}
	return s
}
