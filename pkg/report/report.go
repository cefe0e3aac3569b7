// Package report renders the observable result of a Gamelang run for the
// terminal: the print output, runtime and compile errors, the token stream
// and a table view of the world state.
package report

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/zurustar/gamelang/pkg/compiler"
	"github.com/zurustar/gamelang/pkg/compiler/token"
	"github.com/zurustar/gamelang/pkg/vm"
)

// Reporter writes run results to w.
type Reporter struct {
	w       io.Writer
	errorC  *color.Color
	warnC   *color.Color
	headerC *color.Color
}

// New creates a Reporter. Colors are used only when colorize is true.
func New(w io.Writer, colorize bool) *Reporter {
	r := &Reporter{
		w:       w,
		errorC:  color.New(color.FgRed, color.Bold),
		warnC:   color.New(color.FgYellow),
		headerC: color.New(color.FgCyan, color.Bold),
	}
	for _, c := range []*color.Color{r.errorC, r.warnC, r.headerC} {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

// Output writes the print log, one line each.
func (r *Reporter) Output(lines []string) {
	for _, line := range lines {
		fmt.Fprintln(r.w, line)
	}
}

// Errors writes runtime errors. Diagnostics that did not stop a statement
// are shown as warnings.
func (r *Reporter) Errors(errs []error) {
	if len(errs) == 0 {
		return
	}
	r.headerC.Fprintf(r.w, "%d runtime error(s)\n", len(errs))
	for _, err := range errs {
		var rerr *vm.RuntimeError
		if errors.As(err, &rerr) && !severe(rerr.Type) {
			r.warnC.Fprintln(r.w, "  "+err.Error())
			continue
		}
		r.errorC.Fprintln(r.w, "  "+err.Error())
	}
}

func severe(t vm.ErrorType) bool {
	return t == vm.ErrorStackOverflow || t == vm.ErrorUnsupportedStmt
}

// CompileErrors writes compile errors with their source context.
func (r *Reporter) CompileErrors(errs []error) {
	for _, err := range errs {
		if ce, ok := compiler.IsCompileError(err); ok {
			r.errorC.Fprintf(r.w, "%s error at line %d, column %d: %s\n", ce.Phase, ce.Line, ce.Column, ce.Message)
			if ce.Context != "" {
				fmt.Fprintln(r.w, ce.Context)
			}
			continue
		}
		r.errorC.Fprintln(r.w, err.Error())
	}
}

// Tokens writes one token per line prefixed with its position.
func (r *Reporter) Tokens(tokens []token.Token) {
	for _, tok := range tokens {
		fmt.Fprintf(r.w, "%d:%d\t%s\n", tok.Line, tok.Column, tok)
	}
}

// State writes the variables and sprites of snap as tables, followed by the
// background, the function names and the frame counters.
func (r *Reporter) State(snap vm.Snapshot) {
	r.headerC.Fprintln(r.w, "Variables")
	vars := r.table([]string{"Name", "Type", "Value"})
	for _, name := range snap.VariableNames() {
		v := snap.Variables[name]
		vars.Append([]string{name, v.Kind().String(), formatValue(v)})
	}
	vars.Render()

	r.headerC.Fprintln(r.w, "Sprites")
	sprites := r.table([]string{"Name", "Image", "X", "Y", "W", "H", "Visible", "Props"})
	for _, name := range snap.SpriteNames() {
		s := snap.Sprites[name]
		sprites.Append([]string{
			s.Name,
			s.Image,
			vm.FormatNumber(s.X),
			vm.FormatNumber(s.Y),
			vm.FormatNumber(s.Width),
			vm.FormatNumber(s.Height),
			strconv.FormatBool(s.Visible),
			formatProps(s),
		})
	}
	sprites.Render()

	if snap.Background != "" {
		fmt.Fprintf(r.w, "background: %s\n", snap.Background)
	}
	fmt.Fprintf(r.w, "functions: %s\n", strings.Join(snap.Functions, ", "))
	fmt.Fprintf(r.w, "frames: %d  fps: %d  running: %t\n", snap.FrameCount, snap.FPS, snap.IsRunning)
}

func (r *Reporter) table(header []string) *tablewriter.Table {
	t := tablewriter.NewWriter(r.w)
	t.SetHeader(header)
	t.SetAutoFormatHeaders(false)
	t.SetAutoWrapText(false)
	return t
}

// formatValue quotes strings so that "1" and 1 are distinguishable.
func formatValue(v vm.Value) string {
	if s, ok := v.(vm.String); ok {
		return strconv.Quote(string(s))
	}
	return v.String()
}

func formatProps(s vm.SpriteState) string {
	names := s.PropertyNames()
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+formatValue(s.Properties[name]))
	}
	return strings.Join(parts, " ")
}
