package vm

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSprite_SetCoercesBuiltInProperties(t *testing.T) {
	s := NewSprite("hero", "hero.png")
	s.Set("x", String("12"))
	s.Set("y", Bool(true))
	s.Set("visible", Number(0))
	s.Set("image", Number(3))
	s.Set("speed", String("fast"))

	if s.X != 12 || s.Y != 1 {
		t.Errorf("position = (%v, %v), want (12, 1)", s.X, s.Y)
	}
	if s.Visible {
		t.Error("visible should be false")
	}
	if s.Image != "3" {
		t.Errorf("image = %q, want \"3\"", s.Image)
	}
	if got := s.Get("speed"); got != String("fast") {
		t.Errorf("speed = %v, want fast", got)
	}
	if got := s.Get("missing"); got != Undefined {
		t.Errorf("missing = %v, want undefined", got)
	}
}

func TestSprite_Contains(t *testing.T) {
	s := NewSprite("box", "")
	s.X, s.Y = 10, 20

	tests := []struct {
		x, y float64
		want bool
	}{
		{10, 20, true},
		{59, 69, true},
		{60, 20, false},
		{9, 20, false},
		{30, 70, false},
	}
	for _, tt := range tests {
		if got := s.Contains(tt.x, tt.y); got != tt.want {
			t.Errorf("Contains(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestSprite_StateIsCopy(t *testing.T) {
	s := NewSprite("hero", "h.png")
	s.Set("hp", Number(3))
	s.Set("armor", Number(1))

	state := s.State()
	s.Set("hp", Number(0))

	if state.Properties["hp"] != Number(3) {
		t.Errorf("state changed with the sprite: %v", state.Properties["hp"])
	}
	if diff := cmp.Diff([]string{"armor", "hp"}, state.PropertyNames()); diff != "" {
		t.Errorf("property names mismatch (-want +got):\n%s", diff)
	}
}

func TestContext_CreateSpriteOverwrites(t *testing.T) {
	ctx := NewContext(quietLogger())
	first := ctx.CreateSprite("hero", "a.png")
	first.X = 40
	ctx.CreateSprite("coin", "c.png")
	ctx.CreateSprite("hero", "b.png")

	hero, _ := ctx.Sprite("hero")
	if hero.X != 0 || hero.Image != "b.png" {
		t.Errorf("sprite not reset: %+v", hero.State())
	}

	var names []string
	for _, s := range ctx.Sprites() {
		names = append(names, s.Name)
	}
	if diff := cmp.Diff([]string{"hero", "coin"}, names); diff != "" {
		t.Errorf("sprite order mismatch (-want +got):\n%s", diff)
	}
}

func TestContext_SpritePropertyOnMissingSprite(t *testing.T) {
	ctx := NewContext(quietLogger())
	if err := ctx.SetSpriteProperty("ghost", "x", Number(1)); err == nil {
		t.Error("expected an error for a missing sprite")
	}
	v, err := ctx.GetSpriteProperty("ghost", "x")
	if err == nil {
		t.Error("expected an error for a missing sprite")
	}
	if v != Undefined {
		t.Errorf("value = %v, want undefined", v)
	}
}
