package vm

import "sort"

// Default sprite geometry.
const (
	DefaultSpriteWidth  = 50
	DefaultSpriteHeight = 50
)

// Sprite is a named on-screen entity. The built-in properties have typed
// fields; any other property name is stored in Properties.
type Sprite struct {
	Name       string
	Image      string
	X, Y       float64
	Width      float64
	Height     float64
	Visible    bool
	Properties map[string]Value
}

// NewSprite returns a sprite at the origin with the default size, visible.
func NewSprite(name, image string) *Sprite {
	return &Sprite{
		Name:       name,
		Image:      image,
		Width:      DefaultSpriteWidth,
		Height:     DefaultSpriteHeight,
		Visible:    true,
		Properties: make(map[string]Value),
	}
}

func (*Sprite) Kind() Kind       { return KindSprite }
func (*Sprite) value()           {}
func (s *Sprite) String() string { return "[sprite " + s.Name + "]" }

// Get returns a property value, or Undefined if the sprite has no such property.
func (s *Sprite) Get(property string) Value {
	switch property {
	case "name":
		return String(s.Name)
	case "image":
		return String(s.Image)
	case "x":
		return Number(s.X)
	case "y":
		return Number(s.Y)
	case "width":
		return Number(s.Width)
	case "height":
		return Number(s.Height)
	case "visible":
		return Bool(s.Visible)
	}
	if v, ok := s.Properties[property]; ok {
		return v
	}
	return Undefined
}

// Set stores a property value. Values assigned to built-in properties are
// converted to the property's type.
func (s *Sprite) Set(property string, v Value) {
	switch property {
	case "name":
		s.Name = v.String()
	case "image":
		s.Image = v.String()
	case "x":
		s.X = ToNumber(v)
	case "y":
		s.Y = ToNumber(v)
	case "width":
		s.Width = ToNumber(v)
	case "height":
		s.Height = ToNumber(v)
	case "visible":
		s.Visible = Truthy(v)
	default:
		if s.Properties == nil {
			s.Properties = make(map[string]Value)
		}
		s.Properties[property] = v
	}
}

// Contains reports whether the point (px, py) lies inside the sprite's bounds.
func (s *Sprite) Contains(px, py float64) bool {
	return px >= s.X && px < s.X+s.Width && py >= s.Y && py < s.Y+s.Height
}

// SpriteState is a copy of a sprite for snapshots.
type SpriteState struct {
	Name       string
	Image      string
	X, Y       float64
	Width      float64
	Height     float64
	Visible    bool
	Properties map[string]Value
}

// State returns a copy of the sprite.
func (s *Sprite) State() SpriteState {
	props := make(map[string]Value, len(s.Properties))
	for k, v := range s.Properties {
		props[k] = v
	}
	return SpriteState{
		Name:       s.Name,
		Image:      s.Image,
		X:          s.X,
		Y:          s.Y,
		Width:      s.Width,
		Height:     s.Height,
		Visible:    s.Visible,
		Properties: props,
	}
}

// PropertyNames returns the names of the custom properties in sorted order.
func (s SpriteState) PropertyNames() []string {
	names := make([]string, 0, len(s.Properties))
	for k := range s.Properties {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
