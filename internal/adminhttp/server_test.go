package adminhttp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeLoop struct {
	tick   int64
	paused bool
}

func (f fakeLoop) TickNumber() int64 { return f.tick }
func (f fakeLoop) Paused() bool      { return f.paused }

type fakeQueue struct{ depth int }

func (f fakeQueue) Depth() int { return f.depth }

type fakeAgents struct{ count int }

func (f fakeAgents) AgentCount() int { return f.count }

func TestHealthReturnsOK(t *testing.T) {
	s := New(fakeLoop{}, fakeQueue{}, fakeAgents{}, nil)
	ts := httptest.NewServer(s.Router)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "ok", body["status"])
}

func TestAdminStatusReportsLoopQueueAndAgentState(t *testing.T) {
	s := New(fakeLoop{tick: 42, paused: true}, fakeQueue{depth: 3}, fakeAgents{count: 2}, nil)
	ts := httptest.NewServer(s.Router)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/admin/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body statusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, int64(42), body.TickNumber)
	require.True(t, body.Paused)
	require.Equal(t, 3, body.QueueDepth)
	require.Equal(t, 2, body.AgentCount)
}
