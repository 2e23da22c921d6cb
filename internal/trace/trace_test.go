package trace

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock_Monotonic(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current())
}

func TestClock_Concurrent(t *testing.T) {
	c := NewClock()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Next()
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), c.Current())
}

func TestRecorder_FilterAndReset(t *testing.T) {
	r := NewRecorder()
	r.Record(Event{Seq: 1, Engine: "laser", Kind: KindSpawn})
	r.Record(Event{Seq: 2, Engine: "lights", Kind: KindSpawn})
	r.Record(Event{Seq: 3, Engine: "laser", Kind: KindResolve})

	assert.Len(t, r.Events(), 3)
	assert.Len(t, r.Filter("laser", ""), 2)
	assert.Len(t, r.Filter("", KindSpawn), 2)
	assert.Equal(t, int64(3), r.Filter("laser", KindResolve)[0].Seq)

	r.Reset()
	assert.Empty(t, r.Events())
}

func TestFanout(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	Fanout{a, b, Discard}.Record(Event{Seq: 1})
	assert.Len(t, a.Events(), 1)
	assert.Len(t, b.Events(), 1)
}

func TestEvent_MapOmitsEmpty(t *testing.T) {
	m := Event{Seq: 1, AtMs: 0, Engine: "laser", Kind: KindSpawn}.Map()
	_, hasID := m["id"]
	_, hasDetail := m["detail"]
	assert.False(t, hasID)
	assert.False(t, hasDetail)
}

func TestMarshalCanonical_SortedKeys(t *testing.T) {
	e := Event{Seq: 4, AtMs: 1500, Engine: "lights", Kind: KindPhase, ID: "c-1", Detail: "input"}
	got, err := MarshalCanonical(e)
	require.NoError(t, err)
	assert.Equal(t, `{"at_ms":1500,"detail":"input","engine":"lights","id":"c-1","kind":"phase","seq":4}`, string(got))
}

func TestMarshalEvents(t *testing.T) {
	got, err := MarshalEvents([]Event{
		{Seq: 1, Engine: "laser", Kind: KindSpawn, ID: "c-1"},
		{Seq: 2, AtMs: 10, Engine: "laser", Kind: KindResolve, ID: "c-1"},
	})
	require.NoError(t, err)
	assert.Equal(t,
		`[{"at_ms":0,"engine":"laser","id":"c-1","kind":"spawn","seq":1},{"at_ms":10,"engine":"laser","id":"c-1","kind":"resolve","seq":2}]`,
		string(got))
}

func TestMarshalCanonical_NoHTMLEscape(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{"k": "<a&b>"})
	require.NoError(t, err)
	assert.Equal(t, `{"k":"<a&b>"}`, string(got))
}

func TestMarshalCanonical_NFC(t *testing.T) {
	// "e" + combining acute accent normalizes to U+00E9.
	got, err := MarshalCanonical("e\u0301")
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(got))
}

func TestMarshalCanonical_LineSeparators(t *testing.T) {
	got, err := MarshalCanonical("a\u2028b")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\"", string(got))

	got, err = MarshalCanonical(`a\u2028b`)
	require.NoError(t, err)
	assert.Equal(t, `"a\\u2028b"`, string(got), "escaped backslash stays escaped")
}

func TestMarshalCanonical_Rejects(t *testing.T) {
	_, err := MarshalCanonical(nil)
	require.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"f": 1.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floats")

	_, err = MarshalCanonical(struct{}{})
	require.Error(t, err)
}

func TestMarshalCanonical_NestedAndBool(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{
		"b":    []any{true, false, 3},
		"a":    int64(-2),
		"name": "x",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":-2,"b":[true,false,3],"name":"x"}`, string(got))
}
