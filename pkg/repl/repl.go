// Package repl implements the interactive Gamelang shell. Input is executed
// against one persistent runtime, so variables, sprites, functions and
// handlers accumulate across entries.
package repl

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/zurustar/gamelang/pkg/compiler"
	"github.com/zurustar/gamelang/pkg/compiler/ast"
	"github.com/zurustar/gamelang/pkg/report"
	"github.com/zurustar/gamelang/pkg/script"
	"github.com/zurustar/gamelang/pkg/vm"
)

const (
	promptMain  = "==> "
	promptCont  = "... "
	historyFile = ".gamelang_history"
	banner      = "Gamelang REPL. Ctrl+C cancels input, Ctrl+D exits. Type :help for commands."
)

const helpText = `Commands:
  :help              Show this help
  :quit / :exit      Exit the REPL
  :load <file>       Run a script in this session
  :state             Show variables and sprites
  :frames <n>        Run n frames of the every frame loop
  :click <x> <y>     Dispatch a click event
  :key <name>        Dispatch a key event
  :stop              Stop the frame loop
  :reset             Start over with an empty world

A line ending with ':' opens a block. Indent its body and finish it with an
empty line.
`

// LineReader reads edited input lines. *liner.State satisfies it.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// Option configures a REPL.
type Option func(*REPL)

// WithLogger sets the logger passed to each runtime.
func WithLogger(log *slog.Logger) Option {
	return func(r *REPL) {
		r.log = log
	}
}

// WithFPS sets the frame rate used for :frames timestamps.
func WithFPS(fps int) Option {
	return func(r *REPL) {
		r.fps = fps
	}
}

// WithEncoding sets the encoding of files run with :load.
func WithEncoding(name string) Option {
	return func(r *REPL) {
		r.encoding = name
	}
}

// WithColor enables colored error output.
func WithColor(enabled bool) Option {
	return func(r *REPL) {
		r.color = enabled
	}
}

// REPL is an interactive session.
type REPL struct {
	in     LineReader
	out    io.Writer
	report *report.Reporter

	fps      int
	encoding string
	color    bool
	log      *slog.Logger

	runtime    *vm.Runtime
	scheduler  *vm.ManualScheduler
	seenErrors int
}

// New creates a session reading from in and writing to out.
func New(in LineReader, out io.Writer, opts ...Option) *REPL {
	r := &REPL{
		in:       in,
		out:      out,
		fps:      vm.DefaultFPS,
		encoding: script.EncodingUTF8,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.report = report.New(out, r.color)
	r.reset()
	return r
}

// Runtime returns the session's runtime.
func (r *REPL) Runtime() *vm.Runtime {
	return r.runtime
}

func (r *REPL) reset() {
	r.scheduler = vm.NewManualScheduler(r.fps)
	r.runtime = vm.New(
		vm.WithLogger(r.log),
		vm.WithScheduler(r.scheduler),
		vm.WithHost(vm.WriterHost{W: r.out}),
		vm.WithFPS(r.fps),
	)
	r.seenErrors = 0
}

// Run reads and executes input until end of input or :quit.
func (r *REPL) Run() {
	for {
		src, ok := r.read()
		if !ok {
			fmt.Fprintln(r.out)
			return
		}

		trimmed := strings.TrimSpace(src)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			if r.command(trimmed) {
				return
			}
			continue
		}

		r.Eval(src)
		r.in.AppendHistory(src)
	}
}

// read returns one entry: a single line, or a block opened by a line ending
// in ':' and closed by an empty line. ok is false at end of input. Ctrl+C
// discards the entry.
func (r *REPL) read() (src string, ok bool) {
	var lines []string
	for {
		prompt := promptMain
		if len(lines) > 0 {
			prompt = promptCont
		}
		line, err := r.in.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			if len(lines) > 0 {
				return strings.Join(lines, "\n"), true
			}
			return "", false
		}
		if err != nil {
			return "", true
		}

		if len(lines) == 0 {
			if !opensBlock(line) {
				return line, true
			}
			lines = append(lines, line)
			continue
		}
		if strings.TrimSpace(line) == "" {
			return strings.Join(lines, "\n"), true
		}
		lines = append(lines, line)
	}
}

func opensBlock(line string) bool {
	trimmed := strings.TrimSpace(line)
	return !strings.HasPrefix(trimmed, ":") && strings.HasSuffix(trimmed, ":")
}

// Eval compiles and executes src in the session. A lone expression is
// evaluated and its value echoed.
func (r *REPL) Eval(src string) {
	program, errs := compiler.Compile(src + "\n")
	if len(errs) > 0 {
		r.report.CompileErrors(errs)
		return
	}

	if expr, ok := loneExpression(program); ok {
		v, err := r.runtime.Evaluate(expr)
		r.flushErrors()
		if err != nil {
			r.report.Errors([]error{err})
			return
		}
		if echoes(expr) {
			fmt.Fprintln(r.out, echo(v))
		}
		return
	}

	r.runtime.Execute(program)
	r.flushErrors()
}

func loneExpression(program *ast.Program) (ast.Expression, bool) {
	if len(program.Body) != 1 {
		return nil, false
	}
	s, ok := program.Body[0].(*ast.ExpressionStatement)
	if !ok {
		return nil, false
	}
	return s.Expression, true
}

// echoes reports whether a lone expression's value is shown. print and say
// already write their argument.
func echoes(expr ast.Expression) bool {
	if call, ok := expr.(*ast.FunctionCall); ok {
		return call.Name != "print" && call.Name != "say"
	}
	return true
}

func echo(v vm.Value) string {
	if s, ok := v.(vm.String); ok {
		return strconv.Quote(string(s))
	}
	return v.String()
}

// flushErrors reports the runtime errors raised since the last flush.
func (r *REPL) flushErrors() {
	errs := r.runtime.Errors()
	if len(errs) > r.seenErrors {
		r.report.Errors(errs[r.seenErrors:])
	}
	r.seenErrors = len(errs)
}

// command runs a ':' command and reports whether the session should end.
func (r *REPL) command(line string) (exit bool) {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case ":help":
		fmt.Fprint(r.out, helpText)

	case ":quit", ":exit":
		return true

	case ":reset":
		r.reset()
		fmt.Fprintln(r.out, "world reset.")

	case ":load":
		if len(fields) < 2 {
			fmt.Fprintln(r.out, "usage: :load <file>")
			return false
		}
		r.load(fields[1])

	case ":state":
		r.report.State(r.runtime.Context().Snapshot())

	case ":frames":
		n := 1
		if len(fields) > 1 {
			v, err := strconv.Atoi(fields[1])
			if err != nil || v < 0 {
				fmt.Fprintln(r.out, "usage: :frames <n>")
				return false
			}
			n = v
		}
		ctx := r.runtime.Context()
		before := ctx.FrameCount()
		r.scheduler.Run(n)
		r.flushErrors()
		fmt.Fprintf(r.out, "ran %d frame(s), frame %d\n", ctx.FrameCount()-before, ctx.FrameCount())

	case ":click":
		if len(fields) != 3 {
			fmt.Fprintln(r.out, "usage: :click <x> <y>")
			return false
		}
		x, errX := strconv.ParseFloat(fields[1], 64)
		y, errY := strconv.ParseFloat(fields[2], 64)
		if errX != nil || errY != nil {
			fmt.Fprintln(r.out, "usage: :click <x> <y>")
			return false
		}
		r.dispatch(vm.EventClick, vm.Number(x), vm.Number(y))

	case ":key":
		if len(fields) != 2 {
			fmt.Fprintln(r.out, "usage: :key <name>")
			return false
		}
		r.dispatch(vm.EventKey, vm.String(fields[1]))

	case ":stop":
		r.runtime.Stop()
		fmt.Fprintln(r.out, "stopped.")

	default:
		fmt.Fprintln(r.out, "unknown command. Type :help for help.")
	}
	return false
}

func (r *REPL) dispatch(eventType string, args ...vm.Value) {
	if !r.runtime.Dispatch(eventType, args...) {
		fmt.Fprintf(r.out, "no %s handler matched.\n", eventType)
	}
	r.flushErrors()
}

func (r *REPL) load(path string) {
	_, program, errs := compiler.CompileFile(path, r.encoding)
	if len(errs) > 0 {
		r.report.CompileErrors(errs)
		return
	}
	r.runtime.Execute(program)
	r.flushErrors()
	r.in.AppendHistory(":load " + path)
}

// RunTerminal runs a session on the terminal with line editing. History is
// kept in ~/.gamelang_history.
func RunTerminal(out io.Writer, opts ...Option) {
	fmt.Fprintln(out, banner)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	New(ln, out, opts...).Run()

	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
}
