package input

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/complications/internal/geom"
)

func TestHub_SubscribePublishUnsubscribe(t *testing.T) {
	h := NewHub()
	var a, b []Kind
	unA := h.Subscribe(func(p Pointer) { a = append(a, p.Kind) })
	unB := h.Subscribe(func(p Pointer) { b = append(b, p.Kind) })
	assert.Equal(t, 2, h.Len())

	h.Publish(Pointer{Kind: Move, At: geom.Point{X: 1}})
	unA()
	unA()
	h.Publish(Pointer{Kind: Up})
	unB()

	assert.Equal(t, []Kind{Move}, a)
	assert.Equal(t, []Kind{Move, Up}, b)
	assert.Equal(t, 0, h.Len())
}

func TestHub_UnsubscribeInsideCallback(t *testing.T) {
	h := NewHub()
	var calls int
	var un func()
	un = h.Subscribe(func(p Pointer) {
		calls++
		if p.Kind == Up {
			un()
		}
	})
	other := 0
	h.Subscribe(func(Pointer) { other++ })

	h.Publish(Pointer{Kind: Up})
	h.Publish(Pointer{Kind: Move})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, other, "later subscribers still receive the event")
	assert.Equal(t, 1, h.Len())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "move", Move.String())
	assert.Equal(t, "up", Up.String())
	assert.Equal(t, "Kind(7)", Kind(7).String())
}
