package vm

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
)

// Prefixes of the lines produced by print and say.
const (
	PrintPrefix = "[Gamelang]: "
	SayPrefix   = "Gamelang: "
)

// Host receives the side effects of the print and say built-ins.
type Host interface {
	// Log forwards a line produced by print.
	Log(line string)
	// Notify shows a message produced by say to the user.
	Notify(message string)
}

// RandomSource produces uniform floats in [0, 1).
type RandomSource interface {
	Float64() float64
}

// logHost is the default Host. It writes both kinds of message to the logger.
type logHost struct {
	log *slog.Logger
}

func (h logHost) Log(line string)       { h.log.Info(line) }
func (h logHost) Notify(message string) { h.log.Info(message, "notify", true) }

// WriterHost writes print and say output to W, one line each.
type WriterHost struct {
	W io.Writer
}

func (h WriterHost) Log(line string)       { fmt.Fprintln(h.W, line) }
func (h WriterHost) Notify(message string) { fmt.Fprintln(h.W, message) }

// registerBuiltins installs print, say and random into the context.
func (r *Runtime) registerBuiltins() {
	r.ctx.RegisterBuiltin("print", r.builtinPrint)
	r.ctx.RegisterBuiltin("say", r.builtinSay)
	r.ctx.RegisterBuiltin("random", r.builtinRandom)
}

// builtinPrint appends its argument to the output log and returns it.
func (r *Runtime) builtinPrint(args []Value) Value {
	v := argOrUndefined(args, 0)
	line := PrintPrefix + v.String()
	r.ctx.AppendOutput(line)
	r.host.Log(line)
	return v
}

// builtinSay shows its argument to the user and returns it.
func (r *Runtime) builtinSay(args []Value) Value {
	v := argOrUndefined(args, 0)
	r.host.Notify(SayPrefix + v.String())
	return v
}

// builtinRandom returns a uniform number in [min, max).
func (r *Runtime) builtinRandom(args []Value) Value {
	lo := ToNumber(argOrUndefined(args, 0))
	hi := ToNumber(argOrUndefined(args, 1))
	return Number(r.random.Float64()*(hi-lo) + lo)
}

func argOrUndefined(args []Value, i int) Value {
	if i < len(args) {
		return args[i]
	}
	return Undefined
}

func newDefaultRandom() RandomSource {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}
