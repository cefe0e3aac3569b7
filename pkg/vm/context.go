package vm

import (
	"log/slog"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"github.com/zurustar/gamelang/pkg/compiler/ast"
)

// DefaultFPS is the frame rate assumed before any tick has been measured.
const DefaultFPS = 60

// Handler is a registered on/every body.
type Handler struct {
	Type string
	Args []ast.Expression
	Body []ast.Statement
	Line int
}

// Context is the world state of one program run: variables, sprites,
// functions and registered handlers. It has no control flow of its own.
type Context struct {
	variables   *Environment
	sprites     map[string]*Sprite
	spriteOrder []string
	functions   map[string]Value

	// events keeps the last handler registered per event type.
	events map[string]*Handler
	// handlers keeps every on handler per event type in declaration order.
	handlers map[string][]*Handler

	background string
	output     []string

	running       atomic.Bool
	frameCount    int
	lastFrameTime time.Time
	fps           int

	log *slog.Logger
}

// NewContext creates a world state with true, false and null defined.
func NewContext(log *slog.Logger) *Context {
	if log == nil {
		log = slog.Default()
	}
	c := &Context{
		variables: NewEnvironment(),
		sprites:   make(map[string]*Sprite),
		functions: make(map[string]Value),
		events:    make(map[string]*Handler),
		handlers:  make(map[string][]*Handler),
		fps:       DefaultFPS,
		log:       log,
	}
	c.variables.Set("true", Bool(true))
	c.variables.Set("false", Bool(false))
	c.variables.Set("null", Null)
	return c
}

// SetVariable creates or replaces a variable.
func (c *Context) SetVariable(name string, v Value) {
	c.variables.Set(name, v)
}

// LookupVariable resolves name through variables, then sprites, then
// functions. ok is false when the name is not defined anywhere.
func (c *Context) LookupVariable(name string) (Value, bool) {
	if v, ok := c.variables.Get(name); ok {
		return v, true
	}
	if s, ok := c.sprites[name]; ok {
		return s, true
	}
	if f, ok := c.functions[name]; ok {
		return f, true
	}
	return Undefined, false
}

// GetVariable is LookupVariable that logs a miss and returns Undefined.
func (c *Context) GetVariable(name string) Value {
	v, ok := c.LookupVariable(name)
	if !ok {
		c.log.Warn("Variable not found", "name", name)
	}
	return v
}

// Variables returns the variable mapping.
func (c *Context) Variables() *Environment {
	return c.variables
}

// CreateSprite inserts a sprite with default geometry, replacing any sprite
// with the same name.
func (c *Context) CreateSprite(name, image string) *Sprite {
	if _, exists := c.sprites[name]; !exists {
		c.spriteOrder = append(c.spriteOrder, name)
	}
	s := NewSprite(name, image)
	c.sprites[name] = s
	c.log.Debug("Sprite created", "name", name, "image", image)
	return s
}

// Sprite returns the sprite with the given name.
func (c *Context) Sprite(name string) (*Sprite, bool) {
	s, ok := c.sprites[name]
	return s, ok
}

// Sprites returns every sprite in creation order.
func (c *Context) Sprites() []*Sprite {
	out := make([]*Sprite, 0, len(c.spriteOrder))
	for _, name := range c.spriteOrder {
		if s, ok := c.sprites[name]; ok {
			out = append(out, s)
		}
	}
	return out
}

// SetSpriteProperty stores a property on a sprite. A missing sprite makes
// the call a no-op that returns an UNDEFINED_SPRITE error.
func (c *Context) SetSpriteProperty(name, property string, v Value) error {
	s, ok := c.sprites[name]
	if !ok {
		return NewUndefinedSpriteError(name)
	}
	s.Set(property, v)
	return nil
}

// GetSpriteProperty reads a property of a sprite. A missing sprite yields
// Undefined and an UNDEFINED_SPRITE error.
func (c *Context) GetSpriteProperty(name, property string) (Value, error) {
	s, ok := c.sprites[name]
	if !ok {
		return Undefined, NewUndefinedSpriteError(name)
	}
	return s.Get(property), nil
}

// CreateFunction registers a user function, replacing any prior function or
// built-in of the same name.
func (c *Context) CreateFunction(name string, params []string, body []ast.Statement) *Function {
	f := &Function{Name: name, Params: params, Body: body}
	c.functions[name] = f
	c.log.Debug("Function registered", "name", name, "params", params)
	return f
}

// RegisterBuiltin registers a native function.
func (c *Context) RegisterBuiltin(name string, fn func(args []Value) Value) {
	c.functions[name] = &Builtin{Name: name, Fn: fn}
}

// Function returns the callable registered under name.
func (c *Context) Function(name string) (Value, bool) {
	f, ok := c.functions[name]
	return f, ok
}

// FunctionNames returns the registered function names in sorted order.
func (c *Context) FunctionNames() []string {
	names := make([]string, 0, len(c.functions))
	for name := range c.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterHandler registers an event or loop body. The last registration
// per type is the one reported by Event; on handlers are also kept in
// declaration order for dispatch.
func (c *Context) RegisterHandler(h *Handler, dispatchable bool) {
	c.events[h.Type] = h
	if dispatchable {
		c.handlers[h.Type] = append(c.handlers[h.Type], h)
	}
	c.log.Debug("Handler registered", "type", h.Type, "line", h.Line)
}

// Event returns the last handler registered for eventType.
func (c *Context) Event(eventType string) (*Handler, bool) {
	h, ok := c.events[eventType]
	return h, ok
}

// Handlers returns the dispatchable handlers for eventType.
func (c *Context) Handlers(eventType string) []*Handler {
	return c.handlers[eventType]
}

// SetBackground sets the background image.
func (c *Context) SetBackground(image string) {
	c.background = image
}

// Background returns the background image, empty if none was declared.
func (c *Context) Background() string {
	return c.background
}

// AppendOutput adds a line to the output log.
func (c *Context) AppendOutput(line string) {
	c.output = append(c.output, line)
}

// Output returns a copy of the output log.
func (c *Context) Output() []string {
	out := make([]string, len(c.output))
	copy(out, c.output)
	return out
}

// IsRunning reports whether the frame loop is running.
func (c *Context) IsRunning() bool {
	return c.running.Load()
}

// SetRunning sets the frame loop running flag.
func (c *Context) SetRunning(running bool) {
	c.running.Store(running)
}

// FrameCount returns the number of frame ticks executed.
func (c *Context) FrameCount() int {
	return c.frameCount
}

// FPS returns the observed frame rate.
func (c *Context) FPS() int {
	return c.fps
}

// advanceFrame records a tick at now: it updates the frame rate estimate
// from the time since the previous tick and increments the frame counter.
func (c *Context) advanceFrame(now time.Time) {
	if !c.lastFrameTime.IsZero() {
		if delta := now.Sub(c.lastFrameTime); delta > 0 {
			c.fps = int(math.Round(float64(time.Second) / float64(delta)))
		}
	}
	c.lastFrameTime = now
	c.frameCount++
}

// Snapshot is a copy of the observable world state.
type Snapshot struct {
	Variables  map[string]Value
	Sprites    map[string]SpriteState
	Functions  []string
	Background string
	FrameCount int
	FPS        int
	IsRunning  bool
}

// Snapshot returns a copy of the current world state.
func (c *Context) Snapshot() Snapshot {
	sprites := make(map[string]SpriteState, len(c.sprites))
	for name, s := range c.sprites {
		sprites[name] = s.State()
	}
	return Snapshot{
		Variables:  c.variables.Copy(),
		Sprites:    sprites,
		Functions:  c.FunctionNames(),
		Background: c.background,
		FrameCount: c.frameCount,
		FPS:        c.fps,
		IsRunning:  c.IsRunning(),
	}
}

// VariableNames returns the snapshot's variable names in sorted order.
func (s Snapshot) VariableNames() []string {
	names := make([]string, 0, len(s.Variables))
	for k := range s.Variables {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// SpriteNames returns the snapshot's sprite names in sorted order.
func (s Snapshot) SpriteNames() []string {
	names := make([]string, 0, len(s.Sprites))
	for k := range s.Sprites {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
