package conformance

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/zurustar/gamelang/pkg/compiler"
	gast "github.com/zurustar/gamelang/pkg/compiler/ast"
	"github.com/zurustar/gamelang/pkg/vm"
)

// fixedRandom makes random() deterministic: it always yields the midpoint
// of its range.
type fixedRandom struct{}

func (fixedRandom) Float64() float64 { return 0.5 }

// quietHost discards print and say side effects; output is read back from
// the context.
type quietHost struct{}

func (quietHost) Log(string)    {}
func (quietHost) Notify(string) {}

// Outcome is the observed behavior of a case.
type Outcome struct {
	Program    *gast.Program
	Runtime    *vm.Runtime
	CompileErr []error
	RuntimeErr []error
}

// Run compiles and executes c, then runs c.Frames frames.
func Run(c Case, log *slog.Logger) *Outcome {
	program, errs := compiler.Compile(c.Source)
	sched := vm.NewManualScheduler(vm.DefaultFPS)
	r := vm.New(
		vm.WithLogger(log),
		vm.WithScheduler(sched),
		vm.WithHost(quietHost{}),
		vm.WithRandom(fixedRandom{}),
	)
	r.Execute(program)
	sched.Run(c.Frames)
	return &Outcome{Program: program, Runtime: r, CompileErr: errs, RuntimeErr: r.Errors()}
}

// Actual renders the part of the outcome that a checks, in the same form
// as the assertion's content.
func (o *Outcome) Actual(a Assertion) (string, error) {
	switch a.Type {
	case AssertAST:
		return gast.Dump(o.Program), nil
	case AssertOutput:
		return strings.Join(o.Runtime.Context().Output(), "\n"), nil
	case AssertErrors:
		return o.errorLines(), nil
	case AssertState:
		return o.state(a.Content)
	}
	return "", fmt.Errorf("unknown assertion type %q", a.Type)
}

func (o *Outcome) errorLines() string {
	var lines []string
	for _, err := range o.CompileErr {
		if ce, ok := compiler.IsCompileError(err); ok {
			lines = append(lines, fmt.Sprintf("%s line %d", strings.ToUpper(ce.Phase), ce.Line))
			continue
		}
		lines = append(lines, err.Error())
	}
	for _, err := range o.RuntimeErr {
		var rerr *vm.RuntimeError
		if errors.As(err, &rerr) {
			lines = append(lines, fmt.Sprintf("%s line %d", rerr.Type, rerr.Line))
			continue
		}
		lines = append(lines, err.Error())
	}
	return strings.Join(lines, "\n")
}

// state evaluates the left side of each "<expression> = <value>" line and
// renders it with the observed value. Names starting with '@' read the
// frame loop: @frames, @fps, @running, @background and @state.
func (o *Outcome) state(content string) (string, error) {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, _, ok := strings.Cut(line, " = ")
		if !ok {
			return "", fmt.Errorf("state line %q is not '<expression> = <value>'", line)
		}
		key = strings.TrimSpace(key)
		v, err := o.lookup(key)
		if err != nil {
			return "", err
		}
		lines = append(lines, key+" = "+v)
	}
	return strings.Join(lines, "\n"), nil
}

func (o *Outcome) lookup(key string) (string, error) {
	ctx := o.Runtime.Context()
	switch key {
	case "@frames":
		return strconv.Itoa(ctx.FrameCount()), nil
	case "@fps":
		return strconv.Itoa(ctx.FPS()), nil
	case "@running":
		return strconv.FormatBool(ctx.IsRunning()), nil
	case "@background":
		return strconv.Quote(ctx.Background()), nil
	case "@state":
		return o.Runtime.State().String(), nil
	}

	program, errs := compiler.Compile(key)
	if len(errs) > 0 || len(program.Body) != 1 {
		return "", fmt.Errorf("state key %q is not an expression", key)
	}
	stmt, ok := program.Body[0].(*gast.ExpressionStatement)
	if !ok {
		return "", fmt.Errorf("state key %q is not an expression", key)
	}
	v, err := o.Runtime.Evaluate(stmt.Expression)
	if err != nil {
		return "", err
	}
	if s, ok := v.(vm.String); ok {
		return strconv.Quote(string(s)), nil
	}
	return v.String(), nil
}
