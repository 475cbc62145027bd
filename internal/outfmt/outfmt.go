package outfmt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

type Mode struct {
	JSON  bool
	Plain bool
}

type ParseError struct {
	msg string
}

func (e *ParseError) Error() string {
	return e.msg
}

type contextKey struct{}

// Parse maps the QUOTESHEET_OUTPUT value (text|plain|json) to a Mode.
func Parse(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return Mode{}, nil
	case "plain", "tsv":
		return Mode{Plain: true}, nil
	case "json":
		return Mode{JSON: true}, nil
	default:
		return Mode{}, &ParseError{msg: fmt.Sprintf("invalid output mode %q (expected text|plain|json)", s)}
	}
}

func FromFlags(jsonOut, plainOut bool) (Mode, error) {
	if jsonOut && plainOut {
		return Mode{}, &ParseError{msg: "--json and --plain are mutually exclusive"}
	}
	return Mode{JSON: jsonOut, Plain: plainOut}, nil
}

func WithMode(ctx context.Context, mode Mode) context.Context {
	return context.WithValue(ctx, contextKey{}, mode)
}

func FromContext(ctx context.Context) Mode {
	if ctx == nil {
		return Mode{}
	}
	if m, ok := ctx.Value(contextKey{}).(Mode); ok {
		return m
	}
	return Mode{}
}

func IsJSON(ctx context.Context) bool {
	return FromContext(ctx).JSON
}

func IsPlain(ctx context.Context) bool {
	return FromContext(ctx).Plain
}

func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
