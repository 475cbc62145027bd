package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
)

type Options struct {
	Stdout io.Writer
	Stderr io.Writer
	Color  string // auto|always|never
}

type ParseError struct {
	msg string
}

func (e *ParseError) Error() string {
	return e.msg
}

type UI struct {
	out *Printer
	err *Printer
}

type Printer struct {
	o *termenv.Output
}

type contextKey struct{}

func New(opts Options) (*UI, error) {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	var outOpts []termenv.OutputOption
	switch strings.ToLower(strings.TrimSpace(opts.Color)) {
	case "", "auto":
		if _, noColor := os.LookupEnv("NO_COLOR"); noColor {
			outOpts = append(outOpts, termenv.WithProfile(termenv.Ascii))
		}
	case "always":
		outOpts = append(outOpts, termenv.WithProfile(termenv.ANSI256))
	case "never":
		outOpts = append(outOpts, termenv.WithProfile(termenv.Ascii))
	default:
		return nil, &ParseError{msg: fmt.Sprintf("invalid --color %q (expected auto|always|never)", opts.Color)}
	}

	return &UI{
		out: &Printer{o: termenv.NewOutput(opts.Stdout, outOpts...)},
		err: &Printer{o: termenv.NewOutput(opts.Stderr, outOpts...)},
	}, nil
}

func WithUI(ctx context.Context, u *UI) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

func FromContext(ctx context.Context) *UI {
	if ctx == nil {
		return nil
	}
	u, _ := ctx.Value(contextKey{}).(*UI)
	return u
}

func (u *UI) Out() *Printer {
	return u.out
}

func (u *UI) Err() *Printer {
	return u.err
}

// Printf writes one line; a trailing newline is added.
func (p *Printer) Printf(format string, args ...any) {
	p.line(fmt.Sprintf(format, args...))
}

func (p *Printer) Println(msg string) {
	p.line(msg)
}

func (p *Printer) Successf(format string, args ...any) {
	p.line(p.o.String(fmt.Sprintf(format, args...)).Foreground(p.o.Color("2")).String())
}

func (p *Printer) Warnf(format string, args ...any) {
	p.line(p.o.String(fmt.Sprintf(format, args...)).Foreground(p.o.Color("3")).String())
}

func (p *Printer) Error(msg string) {
	p.line(p.o.String(msg).Foreground(p.o.Color("1")).Bold().String())
}

func (p *Printer) line(s string) {
	_, _ = fmt.Fprintln(p.o, strings.TrimRight(s, "\n"))
}
