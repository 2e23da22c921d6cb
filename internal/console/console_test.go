package console

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/complications/internal/complication"
	"github.com/roach88/complications/internal/config"
	"github.com/roach88/complications/internal/geom"
	"github.com/roach88/complications/internal/lights"
	"github.com/roach88/complications/internal/puzzle"
	"github.com/roach88/complications/internal/rng"
	"github.com/roach88/complications/internal/trace"
)

type rig struct {
	c     *Console
	board *complication.Board
	rec   *trace.Recorder
}

func newRig(t *testing.T) *rig {
	t.Helper()
	board := complication.NewBoard(complication.NewSequenceIDs("c"))
	rec := trace.NewRecorder()
	c := New(Options{
		Tuning:   config.Default(),
		Rand:     rng.NewSeeded(1),
		Resolver: board,
		Trace:    rec,
	})
	return &rig{c: c, board: board, rec: rec}
}

func (r *rig) spawn(t *testing.T, ty complication.Type) string {
	t.Helper()
	c, err := r.board.Spawn(ty)
	require.NoError(t, err)
	r.c.Update(r.board.Snapshot())
	return c.ID
}

func (r *rig) handle(t *testing.T, in Input) {
	t.Helper()
	require.NoError(t, r.c.Handle(in))
	r.c.Update(r.board.Snapshot())
}

func TestConsole_LaserThroughBoard(t *testing.T) {
	r := newRig(t)
	id := r.spawn(t, complication.Laser)
	assert.Equal(t, "c-1", id)
	assert.Equal(t, puzzle.Active, r.c.View().Laser.Status)

	for i, p := range r.c.Laser.Targets() {
		r.handle(t, Input{Kind: KindSlider, Engine: complication.Laser, Index: i, Value: int(p)})
	}

	assert.Empty(t, r.board.Snapshot(), "resolve removed the complication")
	v := r.c.View()
	assert.Equal(t, puzzle.Idle, v.Laser.Status)
	assert.True(t, v.Laser.RecentlyFixed)

	r.c.Advance(2500 * time.Millisecond)
	assert.False(t, r.c.RecentlyFixed(complication.Laser))
	assert.Len(t, r.rec.Filter("laser", trace.KindResolve), 1)
}

func TestConsole_LightsThroughBoard(t *testing.T) {
	r := newRig(t)
	r.spawn(t, complication.Lights)

	r.handle(t, Input{Kind: KindSlider, Engine: complication.Lights, Value: int(r.c.Lights.SliderTarget())})
	require.Equal(t, lights.Showing, r.c.Lights.Phase())
	r.c.Advance(2 * time.Second)
	require.Equal(t, lights.Input, r.c.Lights.Phase())

	for _, b := range r.c.Lights.Sequence() {
		r.handle(t, Input{Kind: KindPress, Engine: complication.Lights, Button: b})
		r.handle(t, Input{Kind: KindRelease, Engine: complication.Lights, Button: b})
	}
	require.Equal(t, lights.Slider2, r.c.Lights.Phase())
	r.handle(t, Input{Kind: KindSlider, Engine: complication.Lights, Value: int(r.c.Lights.SliderTarget())})

	st, ok := r.c.Status(complication.Lights)
	require.True(t, ok)
	assert.Equal(t, puzzle.Idle, st)
	assert.True(t, r.c.RecentlyFixed(complication.Lights))
}

func TestConsole_ControlsThroughBoard(t *testing.T) {
	r := newRig(t)
	r.spawn(t, complication.Controls)

	point := func(deg float64) (float64, float64) {
		rad := deg * math.Pi / 180
		return 100 + 80*math.Cos(rad), 100 + 80*math.Sin(rad)
	}

	for i := 0; i < 4; i++ {
		target := r.c.Controls.Target()
		// Turn from the current rotation onto the target along the short way.
		delta := geom.ShortestDelta(r.c.Controls.Rotation(), target.Angle())
		x, y := point(0)
		r.handle(t, Input{Kind: KindPointerDown, Engine: complication.Controls, X: x, Y: y})
		for _, frac := range []float64{0.5, 1} {
			x, y = point(delta * frac)
			r.handle(t, Input{Kind: KindPointerMove, X: x, Y: y})
		}
		r.handle(t, Input{Kind: KindPointerUp})
		require.True(t, r.c.Controls.IsAligned(), "corner %d", i)
		r.handle(t, Input{Kind: KindPress, Engine: complication.Controls})
	}

	assert.Empty(t, r.board.Snapshot())
	assert.Len(t, r.rec.Filter("controls", trace.KindCorner), 4)
}

func TestConsole_MaxedAppliesAtNextSpawn(t *testing.T) {
	r := newRig(t)
	r.spawn(t, complication.Lights)
	assert.Equal(t, 4, r.c.View().Lights.Length)

	r.c.SetMaxed(complication.Lights, true)
	assert.Equal(t, 4, r.c.View().Lights.Length, "running puzzle is unchanged")

	r.board.Remove(complication.Lights)
	r.c.Update(r.board.Snapshot())
	r.spawn(t, complication.Lights)
	assert.Equal(t, 3, r.c.View().Lights.Length)
	assert.Equal(t, []string{"lights"}, r.c.View().Maxed)
}

func TestConsole_FailuresCounted(t *testing.T) {
	r := newRig(t)
	var seen []puzzle.Failure
	r.c.OnFailure(func(f puzzle.Failure) { seen = append(seen, f) })

	r.spawn(t, complication.Controls)
	r.handle(t, Input{Kind: KindPress, Engine: complication.Controls})

	assert.Equal(t, map[string]int{"controls": 1}, r.c.View().Failures)
	require.Len(t, seen, 1)
	assert.Equal(t, complication.Controls, seen[0].Type)
}

func TestConsole_Unroutable(t *testing.T) {
	r := newRig(t)
	for _, in := range []Input{
		{Kind: "wave"},
		{Kind: KindSlider, Engine: complication.Controls},
		{Kind: KindPress, Engine: complication.Laser},
		{Kind: KindRelease, Engine: complication.Controls},
		{Kind: KindPointerDown, Engine: complication.Lights},
		{Kind: KindFrame},
	} {
		err := r.c.Handle(in)
		assert.True(t, errors.Is(err, ErrUnroutable), "%+v", in)
	}

	// Input for an idle engine is valid and silently ignored.
	assert.NoError(t, r.c.Handle(Input{Kind: KindSlider, Engine: complication.Laser, Index: 9, Value: 1}))
}

func TestConsole_FrameInput(t *testing.T) {
	r := newRig(t)
	r.spawn(t, complication.Controls)
	r.handle(t, Input{Kind: KindFrame, Anchor: &geom.Rect{}})

	r.handle(t, Input{Kind: KindPointerDown, Engine: complication.Controls, X: 180, Y: 100})
	assert.False(t, r.c.Controls.Dragging(), "unresolved anchor ignores the pointer")
}

func TestConsole_Teardown(t *testing.T) {
	r := newRig(t)
	r.spawn(t, complication.Laser)
	r.spawn(t, complication.Lights)
	r.spawn(t, complication.Controls)
	r.handle(t, Input{Kind: KindSlider, Engine: complication.Lights, Value: int(r.c.Lights.SliderTarget())})
	r.handle(t, Input{Kind: KindPointerDown, Engine: complication.Controls, X: 180, Y: 100})

	r.c.Teardown()
	assert.Equal(t, 0, r.c.Scheduler().Pending())
	assert.Equal(t, 0, r.c.Hub().Len())
	for _, ty := range complication.Types {
		st, _ := r.c.Status(ty)
		assert.Equal(t, puzzle.Idle, st, string(ty))
	}
	assert.Len(t, r.board.Snapshot(), 3, "teardown never resolves")
}
