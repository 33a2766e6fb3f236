package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// MaskValue replaces anything that looks like a secret in log output.
const MaskValue = "***REDACTED***"

var sensitiveKeywords = []string{
	"password",
	"passwd",
	"secret",
	"cookie",
	"session",
	"viewstate",
	"token",
}

// form fields and headers that carry secrets inside otherwise harmless strings,
// the first group is kept and the value behind it is masked.
var sensitiveFragments = []*regexp.Regexp{
	regexp.MustCompile(`(passwordId=)[^&\s]*`),
	regexp.MustCompile(`(javax\.faces\.ViewState=)[^&\s]*`),
	regexp.MustCompile(`(?i)(jsessionid=)[^;&\s]*`),
	regexp.MustCompile(`(?i)((?:set-)?cookie: ).*`),
}

// RedactingHandler wraps an slog.Handler and masks credentials, session
// cookies and ViewState tokens before they reach the underlying handler.
type RedactingHandler struct {
	handler slog.Handler
}

// NewRedactingHandler wraps handler, or slog.Default().Handler() when nil.
func NewRedactingHandler(handler slog.Handler) *RedactingHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &RedactingHandler{handler: handler}
}

func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, RedactString(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(h.redactAttr(a))
		return true
	})
	return h.handler.Handle(ctx, sanitized)
}

func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redactAttr(a)
	}
	return &RedactingHandler{handler: h.handler.WithAttrs(redacted)}
}

func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{handler: h.handler.WithGroup(name)}
}

func (h *RedactingHandler) redactAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		redacted := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			redacted[i] = h.redactAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	}

	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, RedactString(a.Value.String()))
	case slog.KindAny:
		// errors and stringers are flattened so that a wrapped form body
		// does not slip through
		switch v := a.Value.Any().(type) {
		case error:
			return slog.String(a.Key, RedactString(v.Error()))
		case fmt.Stringer:
			return slog.String(a.Key, RedactString(v.String()))
		}
	}
	return a
}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(key, keyword) {
			return true
		}
	}
	return false
}

// RedactString masks secret fragments (password form fields, ViewState
// tokens, session cookies) inside s.
func RedactString(s string) string {
	for _, pattern := range sensitiveFragments {
		s = pattern.ReplaceAllString(s, "${1}"+MaskValue)
	}
	return s
}
