package console

import (
	"github.com/roach88/complications/internal/complication"
	"github.com/roach88/complications/internal/geom"
)

// Kind names an input message type.
type Kind string

const (
	KindSlider      Kind = "slider"
	KindPress       Kind = "press"
	KindRelease     Kind = "release"
	KindPointerDown Kind = "pointer_down"
	KindPointerMove Kind = "pointer_move"
	KindPointerUp   Kind = "pointer_up"
	KindFrame       Kind = "frame" // the dial anchor moved or resized
)

// Input is one player input as the presentation layer reports it. Pointer
// coordinates are in device space; the presentation layer has already
// hit-tested pointer_down, press and slider input to an engine.
type Input struct {
	Kind   Kind              `json:"type" yaml:"type"`
	Engine complication.Type `json:"engine,omitempty" yaml:"engine,omitempty"`
	Index  int               `json:"index,omitempty" yaml:"index,omitempty"`
	Value  int               `json:"value,omitempty" yaml:"value,omitempty"`
	Button int               `json:"button,omitempty" yaml:"button,omitempty"`
	X      float64           `json:"x,omitempty" yaml:"x,omitempty"`
	Y      float64           `json:"y,omitempty" yaml:"y,omitempty"`
	Anchor *geom.Rect        `json:"anchor,omitempty" yaml:"anchor,omitempty"`
}
