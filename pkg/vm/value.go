package vm

import (
	"math"
	"strconv"
	"strings"

	"github.com/zurustar/gamelang/pkg/compiler/ast"
)

// Kind identifies the variant of a Value.
type Kind int

const (
	KindUndefined Kind = iota
	KindNull
	KindNumber
	KindString
	KindBool
	KindSprite
	KindFunction
	KindBuiltin
)

var kindNames = [...]string{
	KindUndefined: "undefined",
	KindNull:      "null",
	KindNumber:    "number",
	KindString:    "string",
	KindBool:      "boolean",
	KindSprite:    "sprite",
	KindFunction:  "function",
	KindBuiltin:   "builtin",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is a Gamelang runtime value. The set of implementations is closed:
// Number, String, Bool, Null, Undefined, *Sprite, *Function and *Builtin.
type Value interface {
	Kind() Kind
	String() string
	value()
}

// Number is a double precision number. Integers are numbers.
type Number float64

// String is a text value.
type String string

// Bool is a boolean value.
type Bool bool

type nullValue struct{}
type undefinedValue struct{}

var (
	// Null is the value of the pre-defined variable null and of calls that
	// return nothing.
	Null Value = nullValue{}
	// Undefined is produced when a name or property cannot be resolved.
	Undefined Value = undefinedValue{}
)

func (Number) Kind() Kind         { return KindNumber }
func (String) Kind() Kind         { return KindString }
func (Bool) Kind() Kind           { return KindBool }
func (nullValue) Kind() Kind      { return KindNull }
func (undefinedValue) Kind() Kind { return KindUndefined }

func (Number) value()         {}
func (String) value()         {}
func (Bool) value()           {}
func (nullValue) value()      {}
func (undefinedValue) value() {}

func (n Number) String() string       { return FormatNumber(float64(n)) }
func (s String) String() string       { return string(s) }
func (b Bool) String() string         { return strconv.FormatBool(bool(b)) }
func (nullValue) String() string      { return "null" }
func (undefinedValue) String() string { return "undefined" }

// Function is a user-defined function registered by a function declaration.
type Function struct {
	Name   string
	Params []string
	Body   []ast.Statement
}

func (*Function) Kind() Kind       { return KindFunction }
func (*Function) value()           {}
func (f *Function) String() string { return "[function " + f.Name + "]" }

// Builtin is a native function. It receives already evaluated arguments.
type Builtin struct {
	Name string
	Fn   func(args []Value) Value
}

func (*Builtin) Kind() Kind       { return KindBuiltin }
func (*Builtin) value()           {}
func (b *Builtin) String() string { return "[function " + b.Name + "]" }

// FormatNumber renders a number the way print shows it: integral values
// without a fractional part.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	if abs := math.Abs(f); abs >= 1e21 || abs < 1e-6 {
		// 1e-7, not 1e-07
		mant, exp, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
		return mant + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Truthy reports whether v counts as true in a condition.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case Number:
		return x != 0 && !math.IsNaN(float64(x))
	case String:
		return x != ""
	case Bool:
		return bool(x)
	case nullValue, undefinedValue, nil:
		return false
	default:
		return true
	}
}

// ToNumber converts v to a number. Null and false are 0, true is 1,
// strings are parsed and everything else is NaN.
func ToNumber(v Value) float64 {
	switch x := v.(type) {
	case Number:
		return float64(x)
	case Bool:
		if x {
			return 1
		}
		return 0
	case nullValue:
		return 0
	case String:
		s := strings.TrimSpace(string(x))
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// isObject reports whether v is a reference value (sprite or function).
func isObject(v Value) bool {
	switch v.(type) {
	case *Sprite, *Function, *Builtin:
		return true
	}
	return false
}

// BinaryOp applies a binary operator. The compound operators += -= *= /=
// behave like their plain counterparts. ok is false for an unsupported
// operator, in which case the result is Null.
func BinaryOp(op string, left, right Value) (result Value, ok bool) {
	switch op {
	case "+", "+=":
		if left.Kind() == KindString || right.Kind() == KindString || isObject(left) || isObject(right) {
			return String(left.String() + right.String()), true
		}
		return Number(ToNumber(left) + ToNumber(right)), true
	case "-", "-=":
		return Number(ToNumber(left) - ToNumber(right)), true
	case "*", "*=":
		return Number(ToNumber(left) * ToNumber(right)), true
	case "/", "/=":
		return Number(ToNumber(left) / ToNumber(right)), true
	case "<", ">", "<=", ">=":
		return Bool(compare(op, left, right)), true
	case "==":
		return Bool(LooseEquals(left, right)), true
	}
	return Null, false
}

func compare(op string, left, right Value) bool {
	if l, ok := left.(String); ok {
		if r, ok := right.(String); ok {
			switch op {
			case "<":
				return l < r
			case ">":
				return l > r
			case "<=":
				return l <= r
			default:
				return l >= r
			}
		}
	}

	l, r := ToNumber(left), ToNumber(right)
	switch op {
	case "<":
		return l < r
	case ">":
		return l > r
	case "<=":
		return l <= r
	default:
		return l >= r
	}
}

// LooseEquals compares two values with type coercion: null and undefined
// equal each other, numbers compare with numeric conversions of strings and
// booleans, and sprites and functions compare by identity.
func LooseEquals(left, right Value) bool {
	lk, rk := left.Kind(), right.Kind()

	nullish := func(k Kind) bool { return k == KindNull || k == KindUndefined }
	if nullish(lk) || nullish(rk) {
		return nullish(lk) && nullish(rk)
	}

	if lk == rk {
		switch l := left.(type) {
		case Number:
			return l == right.(Number)
		case String:
			return l == right.(String)
		case Bool:
			return l == right.(Bool)
		default:
			return left == right
		}
	}

	if isObject(left) || isObject(right) {
		return false
	}
	return ToNumber(left) == ToNumber(right)
}
