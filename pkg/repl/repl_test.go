package repl

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/zurustar/gamelang/pkg/logger"
	"github.com/zurustar/gamelang/pkg/vm"
)

var errAborted = errors.New("aborted")

// scriptedReader replays input lines. An entry equal to "^C" aborts the
// prompt it answers.
type scriptedReader struct {
	lines   []string
	prompts []string
	history []string
}

func (s *scriptedReader) Prompt(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	if line == "^C" {
		return "", errAborted
	}
	return line, nil
}

func (s *scriptedReader) AppendHistory(item string) {
	s.history = append(s.history, item)
}

func session(lines ...string) (*REPL, *scriptedReader, *bytes.Buffer) {
	in := &scriptedReader{lines: lines}
	var out bytes.Buffer
	return New(in, &out, WithLogger(logger.Discard())), in, &out
}

func variable(t *testing.T, r *REPL, name string) vm.Value {
	t.Helper()
	v, ok := r.Runtime().Context().Variables().Get(name)
	if !ok {
		t.Fatalf("variable %q not defined", name)
	}
	return v
}

func TestRun_PersistentState(t *testing.T) {
	r, in, out := session("x = 2", "x = x * 21", "print(x)", "x")
	r.Run()

	if got := variable(t, r, "x"); got != vm.Number(42) {
		t.Errorf("x = %v, want 42", got)
	}
	want := "[Gamelang]: 42\n42\n\n"
	if got := out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if diff := cmp.Diff([]string{"x = 2", "x = x * 21", "print(x)", "x"}, in.history); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_Blocks(t *testing.T) {
	r, in, _ := session(
		"function add(a, b):",
		"    total = a + b",
		"",
		"add(3, 4)",
	)
	r.Run()

	if got := variable(t, r, "total"); got != vm.Number(7) {
		t.Errorf("total = %v, want 7", got)
	}
	want := []string{promptMain, promptCont, promptCont, promptMain, promptMain}
	if diff := cmp.Diff(want, in.prompts); diff != "" {
		t.Errorf("prompts mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_AbortDiscardsBlock(t *testing.T) {
	r, _, _ := session("if true:", "    y = 1", "^C", "z = 2")
	r.Run()

	if _, ok := r.Runtime().Context().Variables().Get("y"); ok {
		t.Error("aborted block was executed")
	}
	if got := variable(t, r, "z"); got != vm.Number(2) {
		t.Errorf("z = %v, want 2", got)
	}
}

func TestEval_Echo(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"数値", "1 + 2", "3\n"},
		{"文字列", "\"a\" + 1", "\"a1\"\n"},
		{"比較", "2 > 1", "true\n"},
		{"未定義", "nothing", "undefined\n"},
		{"print はエコーしない", "print(5)", "[Gamelang]: 5\n"},
		{"say はエコーしない", "say(\"hi\")", "Gamelang: hi\n"},
		{"代入はエコーしない", "v = 1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, out := session()
			r.Eval(tt.src)
			if got := out.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEval_Errors(t *testing.T) {
	r, _, out := session()

	r.Eval("x = \"open")
	if !strings.Contains(out.String(), "lexer error") {
		t.Errorf("compile error not shown:\n%s", out.String())
	}

	out.Reset()
	r.Eval("missing()")
	r.Eval("y = 1")
	if got := strings.Count(out.String(), "UNDEFINED_FUNCTION"); got != 1 {
		t.Errorf("runtime error shown %d times, want once:\n%s", got, out.String())
	}
}

func TestCommands(t *testing.T) {
	r, _, out := session(
		"every frame:",
		"    n += 1",
		"",
		"on key(\"space\"):",
		"    jumps += 1",
		"",
		"on click():",
		"    clicks += 1",
		"",
		":frames 3",
		":key space",
		":key a",
		":click 1 2",
		":stop",
		":frames 2",
		":bogus",
		":quit",
		"never = 1",
	)
	r.Run()

	if got := variable(t, r, "n"); got != vm.Number(3) {
		t.Errorf("n = %v, want 3", got)
	}
	if got := variable(t, r, "jumps"); got != vm.Number(1) {
		t.Errorf("jumps = %v, want 1", got)
	}
	if got := variable(t, r, "clicks"); got != vm.Number(1) {
		t.Errorf("clicks = %v, want 1", got)
	}
	if _, ok := r.Runtime().Context().Variables().Get("never"); ok {
		t.Error("input after :quit was executed")
	}

	text := out.String()
	for _, want := range []string{
		"ran 3 frame(s), frame 3",
		"no key handler matched.",
		"stopped.",
		"ran 0 frame(s), frame 3",
		"unknown command",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestCommands_StateAndReset(t *testing.T) {
	r, _, out := session("sprite hero \"hero.png\"", ":state", ":reset", ":help")
	r.Run()

	text := out.String()
	if !strings.Contains(text, "hero.png") {
		t.Errorf(":state did not show the sprite:\n%s", text)
	}
	if !strings.Contains(text, "world reset.") || !strings.Contains(text, ":frames <n>") {
		t.Errorf("missing reset or help output:\n%s", text)
	}
	if _, ok := r.Runtime().Context().Sprite("hero"); ok {
		t.Error("sprite survived :reset")
	}
}

func TestCommands_Load(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lib.gml")
	if err := os.WriteFile(path, []byte("function double(v):\n    result = v * 2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	r, in, out := session(":load "+path, "double(21)", ":load "+filepath.Join(dir, "missing.gml"), ":load")
	r.Run()

	if got := variable(t, r, "result"); got != vm.Number(42) {
		t.Errorf("result = %v, want 42", got)
	}
	if in.history[0] != ":load "+path {
		t.Errorf("history[0] = %q", in.history[0])
	}
	text := out.String()
	if !strings.Contains(text, "failed to load") || !strings.Contains(text, "usage: :load <file>") {
		t.Errorf("missing load diagnostics:\n%s", text)
	}
}
