// Package vm executes Gamelang programs.
//
// A Runtime walks the AST produced by the compiler against a Context that
// holds the world state: variables, sprites, functions and event handlers.
// Execution is single threaded. The only asynchronous boundary is the frame
// loop, whose ticks are triggered by an injected Scheduler.
package vm

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/zurustar/gamelang/pkg/compiler/ast"
	"github.com/zurustar/gamelang/pkg/logger"
)

// MaxCallDepth is the maximum nesting of user function calls.
const MaxCallDepth = 1000

// MaxErrors is the number of runtime errors a Runtime keeps. Later errors
// are still logged.
const MaxErrors = 1000

// FrameEvent is the loop type that drives the frame loop.
const FrameEvent = "frame"

// State is the lifecycle state of a Runtime.
type State int32

const (
	StateIdle State = iota
	StateRegistering
	StateExecuting
	StateFrameLoop
	StateHalted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRegistering:
		return "registering"
	case StateExecuting:
		return "executing"
	case StateFrameLoop:
		return "frame-loop"
	case StateHalted:
		return "halted"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Runtime is a tree-walking interpreter for one program run.
type Runtime struct {
	ctx       *Context
	scheduler Scheduler
	host      Host
	random    RandomSource
	queue     *EventQueue
	fps       int

	executing atomic.Bool
	state     atomic.Int32
	callDepth int
	errors    []error

	errorsCapped bool

	log *slog.Logger
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Runtime) {
		r.log = log
	}
}

// WithScheduler sets the scheduler that triggers frame ticks.
func WithScheduler(s Scheduler) Option {
	return func(r *Runtime) {
		r.scheduler = s
	}
}

// WithHost sets the receiver of print and say output.
func WithHost(h Host) Option {
	return func(r *Runtime) {
		r.host = h
	}
}

// WithRandom sets the random source used by random.
func WithRandom(src RandomSource) Option {
	return func(r *Runtime) {
		r.random = src
	}
}

// WithFPS sets the frame rate of the default scheduler.
func WithFPS(fps int) Option {
	return func(r *Runtime) {
		r.fps = fps
	}
}

// New creates a Runtime with a fresh Context. Without WithScheduler the
// runtime uses a ManualScheduler, so frame ticks run only when the caller
// drives them.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		queue: NewEventQueue(),
		fps:   DefaultFPS,
		log:   logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	if r.host == nil {
		r.host = logHost{log: r.log}
	}
	if r.random == nil {
		r.random = newDefaultRandom()
	}
	if r.scheduler == nil {
		r.scheduler = NewManualScheduler(r.fps)
	}
	r.ctx = NewContext(r.log)
	r.registerBuiltins()
	return r
}

// Context returns the world state.
func (r *Runtime) Context() *Context {
	return r.ctx
}

// Scheduler returns the scheduler that triggers frame ticks.
func (r *Runtime) Scheduler() Scheduler {
	return r.scheduler
}

// State returns the lifecycle state.
func (r *Runtime) State() State {
	return State(r.state.Load())
}

func (r *Runtime) setState(s State) {
	r.state.Store(int32(s))
}

// IsExecuting reports whether the program is still executing.
func (r *Runtime) IsExecuting() bool {
	return r.executing.Load()
}

// Errors returns every runtime error reported so far.
func (r *Runtime) Errors() []error {
	out := make([]error, len(r.errors))
	copy(out, r.errors)
	return out
}

// Result is the observable outcome of executing a program.
type Result struct {
	Context *Context
	Errors  []error
}

// Messages returns the error messages.
func (res *Result) Messages() []string {
	msgs := make([]string, len(res.Errors))
	for i, err := range res.Errors {
		msgs[i] = err.Error()
	}
	return msgs
}

// Execute registers the program's declarations, runs its statements in
// order and starts the frame loop if an every frame body is registered.
// Execute may be called again on the same runtime to run more statements
// against the same world state.
func (r *Runtime) Execute(program *ast.Program) *Result {
	r.setState(StateRegistering)
	r.register(program.Body)

	r.setState(StateExecuting)
	r.executing.Store(true)
	r.log.Debug("Executing program", "statements", len(program.Body))
	r.executeBlock(program.Body, true)

	if _, ok := r.ctx.Event(FrameEvent); ok && r.executing.Load() {
		if r.ctx.IsRunning() {
			// Already looping from an earlier Execute.
			r.setState(StateFrameLoop)
		} else {
			r.startFrameLoop()
		}
	} else if r.State() != StateFrameLoop {
		r.setState(StateHalted)
	}

	return &Result{Context: r.ctx, Errors: r.Errors()}
}

// Stop clears the executing and running flags. The frame loop observes this
// at the next tick and stops rescheduling.
func (r *Runtime) Stop() {
	r.executing.Store(false)
	r.ctx.SetRunning(false)
	r.log.Info("Runtime stopped", "frames", r.ctx.FrameCount())
}

func (r *Runtime) startFrameLoop() {
	r.ctx.SetRunning(true)
	r.setState(StateFrameLoop)
	r.log.Info("Frame loop started")
	r.scheduler.ScheduleTick(r.tick)
}

// tick runs one frame: it drains posted events and executes the frame body
// once, then asks the scheduler for the next tick while still running.
func (r *Runtime) tick(now time.Time) {
	if !r.executing.Load() || !r.ctx.IsRunning() {
		r.halt()
		return
	}

	r.ctx.advanceFrame(now)
	r.ProcessEvents()

	if h, ok := r.ctx.Event(FrameEvent); ok {
		r.executeBlock(h.Body, false)
	}

	if r.executing.Load() && r.ctx.IsRunning() {
		r.scheduler.ScheduleTick(r.tick)
		return
	}
	r.halt()
}

func (r *Runtime) halt() {
	if r.State() != StateHalted {
		r.setState(StateHalted)
		r.log.Info("Frame loop stopped", "frames", r.ctx.FrameCount())
	}
}

// Post queues an event for dispatch at the start of the next tick or the
// next ProcessEvents call.
func (r *Runtime) Post(eventType string, args ...Value) {
	r.queue.Push(NewEvent(eventType, args...))
}

// ProcessEvents dispatches every queued event and returns how many handlers
// ran.
func (r *Runtime) ProcessEvents() int {
	ran := 0
	for _, ev := range r.queue.Drain() {
		ran += r.dispatch(ev.Type, ev.Args)
	}
	return ran
}

// Dispatch runs the on handlers registered for eventType whose declared
// arguments are empty or equal to args. It reports whether any handler ran.
func (r *Runtime) Dispatch(eventType string, args ...Value) bool {
	return r.dispatch(eventType, args) > 0
}

func (r *Runtime) dispatch(eventType string, args []Value) int {
	if !r.executing.Load() {
		return 0
	}
	ran := 0
	for _, h := range r.ctx.Handlers(eventType) {
		if !r.handlerMatches(h, args) {
			continue
		}
		r.log.Debug("Dispatching event", "type", eventType, "line", h.Line)
		r.executeBlock(h.Body, false)
		ran++
	}
	return ran
}

func (r *Runtime) handlerMatches(h *Handler, args []Value) bool {
	if len(h.Args) == 0 {
		return true
	}
	if len(h.Args) != len(args) {
		return false
	}
	for i, expr := range h.Args {
		v, err := r.evaluate(expr)
		if err != nil || !LooseEquals(v, args[i]) {
			return false
		}
	}
	return true
}

// register records the declarations of a statement list before any of them
// runs, so names resolve regardless of textual order.
func (r *Runtime) register(stmts []ast.Statement) {
	for _, stmt := range stmts {
		r.declare(stmt)
	}
}

// declare registers stmt if it is a declaration.
func (r *Runtime) declare(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.SpriteDeclaration:
		r.ctx.CreateSprite(s.Name, s.Image)
	case *ast.FunctionDeclaration:
		r.ctx.CreateFunction(s.Name, s.Params, s.Body)
	case *ast.EventDeclaration:
		r.ctx.RegisterHandler(&Handler{Type: s.EventType, Args: s.Args, Body: s.Body, Line: s.Line()}, true)
	case *ast.LoopDeclaration:
		r.ctx.RegisterHandler(&Handler{Type: s.LoopType, Body: s.Body, Line: s.Line()}, false)
	}
}

// executeBlock runs statements in order. A failing statement is reported and
// the next one runs. Inside a function call a fatal error unwinds to the
// outermost statement instead. registered is true for the program body,
// whose declarations were registered up front; nested declarations register
// when they are reached.
func (r *Runtime) executeBlock(stmts []ast.Statement, registered bool) error {
	for _, stmt := range stmts {
		err := r.executeStatement(stmt, registered)
		if err == nil {
			continue
		}
		if r.callDepth > 0 && isFatal(err) {
			return err
		}
		r.report(err, stmt.Line())
	}
	return nil
}

func (r *Runtime) executeStatement(stmt ast.Statement, registered bool) error {
	switch s := stmt.(type) {
	case *ast.SpriteDeclaration, *ast.FunctionDeclaration, *ast.EventDeclaration, *ast.LoopDeclaration:
		if !registered {
			r.declare(s)
		}
		return nil

	case *ast.BackgroundDeclaration:
		r.ctx.SetBackground(s.Image)
		return nil

	case *ast.Assignment:
		return r.executeAssignment(s)

	case *ast.PropertyAssignment:
		return r.executePropertyAssignment(s)

	case *ast.IfStatement:
		cond, err := r.evaluate(s.Condition)
		if err != nil {
			return err
		}
		if Truthy(cond) {
			return r.executeBlock(s.Body, false)
		}
		return nil

	case *ast.ElseBranch:
		r.log.Debug("Branch not executed", "keyword", s.Keyword, "line", s.Line())
		return nil

	case *ast.ExpressionStatement:
		_, err := r.evaluate(s.Expression)
		return err
	}

	return NewUnsupportedStatementError(fmt.Sprintf("%T", stmt), stmt.Line())
}

func (r *Runtime) executeAssignment(s *ast.Assignment) error {
	value, err := r.evaluate(s.Value)
	if err != nil {
		return err
	}
	if s.Operator != "=" {
		current, _ := r.ctx.LookupVariable(s.Name)
		value, err = r.combine(s.Operator, current, value, s.Line())
		if err != nil {
			return err
		}
	}
	r.ctx.SetVariable(s.Name, value)
	return nil
}

func (r *Runtime) executePropertyAssignment(s *ast.PropertyAssignment) error {
	value, err := r.evaluate(s.Value)
	if err != nil {
		return err
	}
	if s.Operator != "=" {
		current, err := r.ctx.GetSpriteProperty(s.Object, s.Property)
		if err != nil {
			r.report(err, s.Line())
			return nil
		}
		value, err = r.combine(s.Operator, current, value, s.Line())
		if err != nil {
			return err
		}
	}
	if err := r.ctx.SetSpriteProperty(s.Object, s.Property, value); err != nil {
		r.report(err, s.Line())
	}
	return nil
}

// combine applies a compound assignment operator. A current value that is
// missing or falsy counts as 0.
func (r *Runtime) combine(op string, current, value Value, line int) (Value, error) {
	if !Truthy(current) {
		current = Number(0)
	}
	result, ok := BinaryOp(op, current, value)
	if !ok {
		r.report(NewInvalidOperationError(op, line), line)
	}
	return result, nil
}

// Evaluate evaluates an expression against the current world state.
func (r *Runtime) Evaluate(expr ast.Expression) (Value, error) {
	return r.evaluate(expr)
}

// evaluate returns an error only for fatal failures. Everything else is
// reported and evaluation continues with a null or undefined value.
func (r *Runtime) evaluate(expr ast.Expression) (Value, error) {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		return Number(e.Value), nil

	case *ast.StringLiteral:
		return String(e.Value), nil

	case *ast.BooleanLiteral:
		return Bool(e.Value), nil

	case *ast.Identifier:
		return r.ctx.GetVariable(e.Name), nil

	case *ast.PropertyAccess:
		obj, err := r.evaluate(e.Object)
		if err != nil {
			return Null, err
		}
		if s, ok := obj.(*Sprite); ok {
			return s.Get(e.Property), nil
		}
		if id, ok := e.Object.(*ast.Identifier); ok && obj.Kind() == KindUndefined {
			r.report(NewUndefinedSpriteError(id.Name), e.Line())
		}
		return Undefined, nil

	case *ast.FunctionCall:
		return r.call(e)

	case *ast.BinaryExpression:
		left, err := r.evaluate(e.Left)
		if err != nil {
			return Null, err
		}
		right, err := r.evaluate(e.Right)
		if err != nil {
			return Null, err
		}
		result, ok := BinaryOp(e.Operator, left, right)
		if !ok {
			r.report(NewInvalidOperationError(e.Operator, e.Line()), e.Line())
		}
		return result, nil
	}

	return Null, NewRuntimeErrorWithLine(ErrorInvalidOperation, fmt.Sprintf("unsupported expression: %T", expr), expr.Line())
}

func (r *Runtime) call(e *ast.FunctionCall) (Value, error) {
	fn, ok := r.ctx.Function(e.Name)
	if !ok {
		r.report(NewUndefinedFunctionError(e.Name, e.Line()), e.Line())
		return Null, nil
	}

	args := make([]Value, len(e.Arguments))
	for i, arg := range e.Arguments {
		v, err := r.evaluate(arg)
		if err != nil {
			return Null, err
		}
		args[i] = v
	}

	switch f := fn.(type) {
	case *Builtin:
		return f.Fn(args), nil
	case *Function:
		return Null, r.callUser(f, args, e.Line())
	}
	return Null, nil
}

type savedBinding struct {
	name    string
	value   Value
	present bool
}

// callUser runs a user function. Parameters are bound in the global variable
// mapping; the previous bindings are restored after the body runs. The call
// itself always yields null.
func (r *Runtime) callUser(f *Function, args []Value, line int) error {
	if r.callDepth >= MaxCallDepth {
		return NewStackOverflowError(MaxCallDepth, line)
	}

	vars := r.ctx.Variables()
	saved := make([]savedBinding, len(f.Params))
	for i, name := range f.Params {
		v, ok := vars.Get(name)
		saved[i] = savedBinding{name: name, value: v, present: ok}
		if i < len(args) {
			vars.Set(name, args[i])
		} else {
			vars.Set(name, Null)
		}
	}

	r.callDepth++
	defer func() {
		r.callDepth--
		for i := len(saved) - 1; i >= 0; i-- {
			if saved[i].present {
				vars.Set(saved[i].name, saved[i].value)
			} else {
				vars.Delete(saved[i].name)
			}
		}
	}()

	return r.executeBlock(f.Body, false)
}

// report records a runtime error. Resolution misses and unsupported
// operators are warnings; anything else is logged as an error.
func (r *Runtime) report(err error, line int) {
	var rerr *RuntimeError
	if errors.As(err, &rerr) && rerr.Line < 0 && line > 0 {
		rerr.Line = line
	}
	switch {
	case len(r.errors) < MaxErrors:
		r.errors = append(r.errors, err)
	case len(r.errors) == MaxErrors && !r.errorsCapped:
		r.errorsCapped = true
		r.log.Warn("Error limit reached, further errors are only logged", "limit", MaxErrors)
	}

	if rerr != nil {
		switch rerr.Type {
		case ErrorUndefinedFunc, ErrorUndefinedSprite, ErrorInvalidOperation:
			r.log.Warn("Runtime diagnostic", "error", err)
			return
		}
	}
	r.log.Error("Statement failed", "line", line, "error", err)
}

func isFatal(err error) bool {
	var rerr *RuntimeError
	return errors.As(err, &rerr) && rerr.IsFatal()
}
