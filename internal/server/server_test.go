package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/complications/internal/complication"
	"github.com/roach88/complications/internal/console"
	"github.com/roach88/complications/internal/rng"
	"github.com/roach88/complications/internal/store"
	"github.com/roach88/complications/internal/testutil"
)

var quiet = testutil.Quiet()

type testEnv struct {
	srv   *httptest.Server
	board *complication.Board
	store *store.Store
	loop  *console.Loop
}

// newTestEnv starts a console loop and an HTTP server around it. The loop
// and server stop when the test ends.
func newTestEnv(t *testing.T, withStore bool) *testEnv {
	t.Helper()

	board := complication.NewBoard(complication.NewSequenceIDs("c"))
	c := console.New(console.Options{Rand: rng.NewSeeded(1), Resolver: board, Logger: quiet})
	loop := console.NewLoop(c, board, console.WithTick(5*time.Millisecond), console.WithLogger(quiet))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		loop.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	var st *store.Store
	if withStore {
		var err error
		st, err = store.Open(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { st.Close() })
	}

	srv := httptest.NewServer(New(loop, board, st, quiet).Routes())
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, board: board, store: st, loop: loop}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, true)

	resp, body := env.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var h HealthResponse
	require.NoError(t, json.Unmarshal(body, &h))
	assert.Equal(t, "ok", h.Status)
	assert.True(t, h.Store)
	assert.NotEmpty(t, h.RequestID)
	assert.NotEmpty(t, h.Uptime)
}

func TestView_Initial(t *testing.T) {
	env := newTestEnv(t, false)

	resp, body := env.do(t, http.MethodGet, "/api/v1/view", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var v map[string]any
	require.NoError(t, json.Unmarshal(body, &v))
	for _, engine := range []string{"laser", "lights", "controls"} {
		panel, ok := v[engine].(map[string]any)
		require.True(t, ok, engine)
		assert.Equal(t, "idle", panel["status"], engine)
	}
}

func TestUpgrades_WithStore(t *testing.T) {
	env := newTestEnv(t, true)

	resp, body := env.do(t, http.MethodGet, "/api/v1/upgrades", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []UpgradeResponse
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Equal(t, []UpgradeResponse{
		{Type: complication.Laser},
		{Type: complication.Lights},
		{Type: complication.Controls},
	}, list)

	resp, body = env.do(t, http.MethodPut, "/api/v1/upgrades/lights", `{"maxed":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = env.do(t, http.MethodGet, "/api/v1/upgrades", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &list))
	assert.True(t, list[1].Maxed)
	assert.False(t, list[0].Maxed)

	saved, err := env.store.Maxed(context.Background())
	require.NoError(t, err)
	assert.True(t, saved.IsMaxed(complication.Lights))

	require.Eventually(t, func() bool {
		m := env.loop.Snapshot().Maxed
		return len(m) == 1 && m[0] == "lights"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestUpgrades_WithoutStore(t *testing.T) {
	env := newTestEnv(t, false)

	resp, _ := env.do(t, http.MethodPut, "/api/v1/upgrades/controls", `{"maxed":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Eventually(t, func() bool {
		_, body := env.do(t, http.MethodGet, "/api/v1/upgrades", "")
		var list []UpgradeResponse
		if err := json.Unmarshal(body, &list); err != nil {
			return false
		}
		return len(list) == 3 && list[2].Maxed
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSetUpgrade_Errors(t *testing.T) {
	env := newTestEnv(t, true)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"unknown type", "/api/v1/upgrades/reactor", `{"maxed":true}`, http.StatusNotFound},
		{"wrong value type", "/api/v1/upgrades/laser", `{"maxed":"yes"}`, http.StatusBadRequest},
		{"missing flag", "/api/v1/upgrades/laser", `{}`, http.StatusBadRequest},
		{"unknown field", "/api/v1/upgrades/laser", `{"maxed":true,"level":3}`, http.StatusBadRequest},
		{"not json", "/api/v1/upgrades/laser", `maxed`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.do(t, http.MethodPut, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)

			var e errorResponse
			require.NoError(t, json.Unmarshal(body, &e))
			assert.NotEmpty(t, e.Error)
			assert.NotEmpty(t, e.RequestID)
		})
	}
}

func TestSpawn(t *testing.T) {
	env := newTestEnv(t, false)

	resp, body := env.do(t, http.MethodPost, "/api/v1/complications", `{"type":"laser"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var c complication.Complication
	require.NoError(t, json.Unmarshal(body, &c))
	assert.Equal(t, complication.Complication{ID: "c-1", Type: complication.Laser}, c)

	resp, _ = env.do(t, http.MethodPost, "/api/v1/complications", `{"type":"laser"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/v1/complications", `{"type":"reactor"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	require.Eventually(t, func() bool {
		return env.loop.Snapshot().Laser.ID == "c-1"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestResolutions(t *testing.T) {
	t.Run("no store", func(t *testing.T) {
		env := newTestEnv(t, false)
		resp, _ := env.do(t, http.MethodGet, "/api/v1/resolutions", "")
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("recorded", func(t *testing.T) {
		env := newTestEnv(t, true)

		hook := RecordResolutions(env.store, func() time.Duration { return 1500 * time.Millisecond }, quiet)
		hook(complication.Complication{ID: "c-9", Type: complication.Lights})
		hook(complication.Complication{ID: "c-9", Type: complication.Lights})

		resp, body := env.do(t, http.MethodGet, "/api/v1/resolutions?limit=10", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var out struct {
			Resolutions []store.Resolution `json:"resolutions"`
			Counts      map[string]int     `json:"counts"`
		}
		require.NoError(t, json.Unmarshal(body, &out))
		require.Len(t, out.Resolutions, 1)
		assert.Equal(t, "c-9", out.Resolutions[0].ComplicationID)
		assert.Equal(t, int64(1500), out.Resolutions[0].AtMs)
		assert.Equal(t, map[string]int{"lights": 1}, out.Counts)
	})

	t.Run("bad limit", func(t *testing.T) {
		env := newTestEnv(t, true)
		resp, _ := env.do(t, http.MethodGet, "/api/v1/resolutions?limit=-2", "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("empty list", func(t *testing.T) {
		env := newTestEnv(t, true)
		_, body := env.do(t, http.MethodGet, "/api/v1/resolutions", "")
		assert.Contains(t, string(body), `"resolutions":[]`)
	})
}

func TestRecordResolutions_BoardHook(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	board := complication.NewBoard(complication.NewSequenceIDs("c"))
	board.OnResolve(RecordResolutions(st, func() time.Duration { return 42 * time.Millisecond }, nil))

	c, err := board.Spawn(complication.Controls)
	require.NoError(t, err)
	board.ResolveComplication(c.ID)
	board.ResolveComplication(c.ID)

	got, err := st.Resolutions(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, complication.Controls, got[0].Type)
	assert.Equal(t, int64(42), got[0].AtMs)
}
