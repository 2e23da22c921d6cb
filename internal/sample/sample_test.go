package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/complications/internal/rng"
)

func TestPosition(t *testing.T) {
	assert.True(t, Left.Valid())
	assert.True(t, Center.Valid())
	assert.False(t, Position(2).Valid())
	assert.Equal(t, Right, Left.Opposite())
	assert.Equal(t, Center, Center.Opposite())
	assert.Equal(t, "left", Left.String())
	assert.Equal(t, "Position(5)", Position(5).String())
}

func TestSliderTargets_Normal(t *testing.T) {
	src := rng.NewScripted(0, 1, 2, 1)
	assert.Equal(t, []Position{Left, Center, Right, Center}, SliderTargets(src, 4, false))
}

func TestSliderTargets_MaxedNeverCenter(t *testing.T) {
	src := rng.NewSeeded(1)
	for i := 0; i < 200; i++ {
		for _, p := range SliderTargets(src, 4, true) {
			require.NotEqual(t, Center, p)
			require.True(t, p.Valid())
		}
	}
}

func TestSliderTargets_NormalCoversAllValues(t *testing.T) {
	src := rng.NewSeeded(9)
	seen := map[Position]bool{}
	for i := 0; i < 100; i++ {
		for _, p := range SliderTargets(src, 4, false) {
			require.True(t, p.Valid())
			seen[p] = true
		}
	}
	assert.Len(t, seen, 3)
}

func TestEndPosition(t *testing.T) {
	src := rng.NewScripted(0, 1)
	assert.Equal(t, Left, EndPosition(src))
	assert.Equal(t, Right, EndPosition(src))
}

func TestSequence_RepeatLimit(t *testing.T) {
	src := rng.NewSeeded(3)
	for i := 0; i < 500; i++ {
		seq := Sequence(src, 4, 3)
		require.Len(t, seq, 4)
		counts := map[int]int{}
		for _, b := range seq {
			require.GreaterOrEqual(t, b, 0)
			require.Less(t, b, 3)
			counts[b]++
		}
		for b, c := range counts {
			require.LessOrEqual(t, c, MaxRepeats, "button %d used %d times in %v", b, c, seq)
		}
	}
}

func TestSequence_ScriptedRespectsLimit(t *testing.T) {
	// The script keeps asking for index 0 of the allowed set; once button 0
	// is used twice it drops out and button 1 becomes index 0.
	src := rng.NewScripted(0)
	assert.Equal(t, []int{0, 0, 1, 1}, Sequence(src, 4, 3))
}

func TestSequence_MaxedLength(t *testing.T) {
	seq := Sequence(rng.NewSeeded(5), 3, 3)
	assert.Len(t, seq, 3)
}

func TestSequence_Clamped(t *testing.T) {
	seq := Sequence(rng.NewSeeded(5), 10, 2)
	assert.Len(t, seq, 4)
	assert.Nil(t, Sequence(rng.NewSeeded(5), 3, 0))
}

func TestPick(t *testing.T) {
	src := rng.NewScripted(2)
	assert.Equal(t, "c", Pick(src, []string{"a", "b", "c"}))
}

func TestPickOther(t *testing.T) {
	choices := []int{45, 315, 225, 135}
	src := rng.NewSeeded(11)
	for i := 0; i < 200; i++ {
		require.NotEqual(t, 45, PickOther(src, choices, 45))
	}

	assert.Equal(t, 7, PickOther(rng.NewSeeded(1), []int{7}, 7), "no alternative keeps current")
}
