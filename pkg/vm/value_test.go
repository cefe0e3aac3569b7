package vm

import (
	"math"
	"testing"
)

func TestFormatNumber(t *testing.T) {
	a, b := 0.1, 0.2
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{15, "15"},
		{-3, "-3"},
		{3.5, "3.5"},
		{a + b, "0.30000000000000004"},
		{0.000001, "0.000001"},
		{1e21, "1e+21"},
		{-2.5e22, "-2.5e+22"},
		{1e-7, "1e-7"},
		{1.5e-10, "1.5e-10"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValueString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Number(2), "2"},
		{String("hi"), "hi"},
		{Bool(true), "true"},
		{Null, "null"},
		{Undefined, "undefined"},
		{NewSprite("hero", "h.png"), "[sprite hero]"},
		{&Function{Name: "jump"}, "[function jump]"},
		{&Builtin{Name: "print"}, "[function print]"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("%#v.String() = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		v    Value
		want bool
	}{
		{Number(0), false},
		{Number(math.NaN()), false},
		{Number(-1), true},
		{String(""), false},
		{String("0"), true},
		{Bool(false), false},
		{Bool(true), true},
		{Null, false},
		{Undefined, false},
		{NewSprite("s", ""), true},
		{&Function{Name: "f"}, true},
	}
	for _, tt := range tests {
		if got := Truthy(tt.v); got != tt.want {
			t.Errorf("Truthy(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestToNumber(t *testing.T) {
	tests := []struct {
		v    Value
		want float64
	}{
		{Number(4), 4},
		{Bool(true), 1},
		{Bool(false), 0},
		{Null, 0},
		{String(""), 0},
		{String(" 12.5 "), 12.5},
	}
	for _, tt := range tests {
		if got := ToNumber(tt.v); got != tt.want {
			t.Errorf("ToNumber(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
	for _, v := range []Value{Undefined, String("abc"), NewSprite("s", "")} {
		if got := ToNumber(v); !math.IsNaN(got) {
			t.Errorf("ToNumber(%v) = %v, want NaN", v, got)
		}
	}
}

func TestBinaryOp(t *testing.T) {
	hero := NewSprite("hero", "")
	tests := []struct {
		op          string
		left, right Value
		want        Value
	}{
		{"+", Number(1), Number(2), Number(3)},
		{"+=", Number(1), Number(2), Number(3)},
		{"+", String("a"), String("b"), String("ab")},
		{"+", Number(1), String("b"), String("1b")},
		{"+", Bool(true), Number(1), Number(2)},
		{"+", Null, Number(1), Number(1)},
		{"+", String("at "), hero, String("at [sprite hero]")},
		{"-", Number(5), Number(2), Number(3)},
		{"-", String("5"), Number(2), Number(3)},
		{"*=", Number(5), Number(2), Number(10)},
		{"/", Number(1), Number(4), Number(0.25)},
		{"<", Number(1), Number(2), Bool(true)},
		{">", Number(1), Number(2), Bool(false)},
		{"<=", Number(2), Number(2), Bool(true)},
		{">=", Number(1), Number(2), Bool(false)},
		{"<", String("apple"), String("banana"), Bool(true)},
		{"<", String("10"), Number(9), Bool(false)},
		{"==", Number(1), String("1"), Bool(true)},
		{"==", Null, Undefined, Bool(true)},
		{"==", Null, Number(0), Bool(false)},
		{"==", hero, hero, Bool(true)},
		{"==", hero, NewSprite("hero", ""), Bool(false)},
	}
	for _, tt := range tests {
		got, ok := BinaryOp(tt.op, tt.left, tt.right)
		if !ok {
			t.Errorf("BinaryOp(%q, %v, %v) not supported", tt.op, tt.left, tt.right)
			continue
		}
		if got != tt.want {
			t.Errorf("BinaryOp(%q, %v, %v) = %v, want %v", tt.op, tt.left, tt.right, got, tt.want)
		}
	}
}

func TestBinaryOp_Unsupported(t *testing.T) {
	got, ok := BinaryOp("%", Number(5), Number(2))
	if ok {
		t.Error("% reported as supported")
	}
	if got != Null {
		t.Errorf("result = %v, want null", got)
	}
}

func TestKindString(t *testing.T) {
	if got := KindSprite.String(); got != "sprite" {
		t.Errorf("KindSprite.String() = %q", got)
	}
	if got := Kind(99).String(); got != "unknown" {
		t.Errorf("Kind(99).String() = %q", got)
	}
}
