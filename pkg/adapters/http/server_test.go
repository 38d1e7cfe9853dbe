package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/pvm/internal/logging"
	"github.com/aretw0/pvm/pkg/adapters/memory"
	"github.com/aretw0/pvm/pkg/behavior"
	"github.com/aretw0/pvm/pkg/dsl"
	"github.com/aretw0/pvm/pkg/instance"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	repo := memory.NewRepository(
		dsl.New("review").
			CreateActivity("draft").Initial().Behavior(behavior.WaitState{}).
			Transition("published", "publish").
			Transition("rejected", "reject").
			EndActivity().
			CreateActivity("published").Behavior(behavior.WaitState{}).EndActivity().
			CreateActivity("rejected").Behavior(behavior.End{}).EndActivity().
			MustBuild(),
		dsl.New("split").
			CreateActivity("fork").Initial().Behavior(behavior.ParallelGateway{}).Transition("a").Transition("b").EndActivity().
			CreateActivity("a").Behavior(behavior.WaitState{}).EndActivity().
			CreateActivity("b").Behavior(behavior.WaitState{}).EndActivity().
			MustBuild(),
	)
	m := instance.NewManager(repo, memory.NewStore())
	reg := prometheus.NewRegistry()
	return NewHandler(repo, m,
		WithLogger(logging.NewNop()),
		WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
		WithVersion("1.2.3\n"),
	)
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeStatus(t *testing.T, w *httptest.ResponseRecorder) instance.Status {
	t.Helper()
	var st instance.Status
	require.NoError(t, json.NewDecoder(w.Body).Decode(&st))
	return st
}

func TestInstanceLifecycle(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodPost, "/instances", StartRequest{DefinitionID: "review", Variables: map[string]any{"title": "Go"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	st := decodeStatus(t, w)
	assert.Equal(t, []string{"draft"}, st.ActiveActivities)
	assert.Equal(t, "Go", st.Variables["title"])

	w = do(t, h, http.MethodGet, "/instances/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ids []string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&ids))
	assert.Equal(t, []string{st.ID}, ids)

	w = do(t, h, http.MethodPut, "/instances/"+st.ID+"/variables", map[string]any{"reviewer": "ana"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ana", decodeStatus(t, w).Variables["reviewer"])

	w = do(t, h, http.MethodPost, "/instances/"+st.ID+"/signal", SignalRequest{Signal: "publish"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"published"}, decodeStatus(t, w).ActiveActivities)

	w = do(t, h, http.MethodGet, "/definitions/review/graph?instance="+st.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "class published active;")

	w = do(t, h, http.MethodPost, "/instances/"+st.ID+"/cancel", CancelRequest{Reason: "obsolete"})
	require.Equal(t, http.StatusOK, w.Code)
	st = decodeStatus(t, w)
	assert.True(t, st.Ended)
	assert.Equal(t, "obsolete", st.DeleteReason)

	w = do(t, h, http.MethodPost, "/instances/"+st.ID+"/signal", SignalRequest{})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, http.MethodDelete, "/instances/"+st.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodGet, "/instances/"+st.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestErrors(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		code   int
	}{
		{"unknown definition", http.MethodPost, "/instances", StartRequest{DefinitionID: "nope"}, http.StatusNotFound},
		{"missing definition id", http.MethodPost, "/instances", StartRequest{}, http.StatusBadRequest},
		{"unknown instance", http.MethodGet, "/instances/ghost", nil, http.StatusNotFound},
		{"unknown graph", http.MethodGet, "/definitions/nope/graph", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}

	t.Run("invalid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/instances", strings.NewReader("{"))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ambiguous signal", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/instances", StartRequest{DefinitionID: "split"})
		require.Equal(t, http.StatusCreated, w.Code)
		st := decodeStatus(t, w)

		w = do(t, h, http.MethodPost, "/instances/"+st.ID+"/signal", SignalRequest{})
		assert.Equal(t, http.StatusConflict, w.Code)

		w = do(t, h, http.MethodPost, "/instances/"+st.ID+"/signal", SignalRequest{Activity: "a"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"b"}, decodeStatus(t, w).ActiveActivities)
	})
}

func TestServiceEndpoints(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/info", nil)
	assert.JSONEq(t, `{"app":"pvm-http","version":"1.2.3"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/definitions/", nil)
	assert.JSONEq(t, `["review","split"]`, w.Body.String())

	w = do(t, h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodOptions, "/instances", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSubscribeEvents(t *testing.T) {
	srv := httptest.NewServer(newTestHandler(t))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/instances", "application/json", strings.NewReader(`{"definition_id":"review"}`))
	require.NoError(t, err)
	var st instance.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/instances/"+st.ID+"/events", nil)
	require.NoError(t, err)
	events, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer events.Body.Close()
	assert.Equal(t, "text/event-stream", events.Header.Get("Content-Type"))

	reader := bufio.NewReader(events.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ping\n", line)

	resp, err = http.Post(srv.URL+"/instances/"+st.ID+"/signal", "application/json", strings.NewReader(`{"signal":"reject"}`))
	require.NoError(t, err)
	resp.Body.Close()

	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: {") {
			break
		}
	}
	var pushed instance.Status
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &pushed))
	assert.Equal(t, st.ID, pushed.ID)
	assert.True(t, pushed.Ended)
}

func TestStreamManager(t *testing.T) {
	var logs bytes.Buffer
	sm := NewStreamManager(logging.NewText(&logs, slog.LevelWarn))
	ch, cancel := sm.Subscribe("i")
	assert.Equal(t, 1, sm.Subscribers("i"))

	sm.Broadcast("i", "hello")
	sm.Broadcast("other", "ignored")
	assert.Equal(t, "hello", <-ch)

	for range 20 {
		sm.Broadcast("i", "flood")
	}
	assert.Len(t, ch, cap(ch))
	assert.Contains(t, logs.String(), "dropping message")
	assert.Contains(t, logs.String(), "instance_id=i")

	cancel()
	cancel()
	assert.Equal(t, 0, sm.Subscribers("i"))
}
