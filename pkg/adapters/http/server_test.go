package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techninja/techninja"
	"github.com/techninja/techninja/internal/testutils"
	"github.com/techninja/techninja/pkg/adapters/memory"
	"github.com/techninja/techninja/pkg/domain"
	"github.com/techninja/techninja/pkg/observability"
	"github.com/techninja/techninja/pkg/ports"
)

func newTestServer(t *testing.T, opts ...Option) (*httptest.Server, *techninja.Wizard) {
	t.Helper()
	wiz, err := techninja.New(memory.NewSource(testutils.SampleTree()))
	require.NoError(t, err)
	require.NoError(t, wiz.Boot(context.Background()))

	srv := httptest.NewServer(NewHandler(wiz, opts...))
	t.Cleanup(srv.Close)
	return srv, wiz
}

func post(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestHealthAndInfo(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/info")
	require.NoError(t, err)
	defer resp.Body.Close()

	var info map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, "techninja-http", info["app"])
	assert.Equal(t, techninja.Version, info["version"])
	assert.Equal(t, "0.4.0", info["api_version"])
}

func TestOpenAPIDocumentIsValid(t *testing.T) {
	doc, err := GetSwagger()
	require.NoError(t, err)
	require.NoError(t, doc.Validate(context.Background()))
	assert.NotNil(t, doc.Paths.Find("/advance"))
}

func TestWizardFlow(t *testing.T) {
	srv, wiz := newTestServer(t)

	resp, body := post(t, srv.URL+"/symptoms/no-steam/start", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	view := body["view"].(map[string]any)
	assert.Equal(t, "decision", view["kind"])
	assert.Equal(t, "check-wand", view["stepId"])

	resp, body = post(t, srv.URL+"/advance", `{"option": 1}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "check-boiler", body["view"].(map[string]any)["stepId"])

	resp, body = post(t, srv.URL+"/advance", `{"next": "call-service"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["terminal"])

	resp, _ = post(t, srv.URL+"/back", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "check-boiler", wiz.State().CurrentStepID)

	resp, _ = post(t, srv.URL+"/restart", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "check-wand", wiz.State().CurrentStepID)

	resp, body = post(t, srv.URL+"/exit", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "empty", body["view"].(map[string]any)["kind"])
}

func TestCommandErrors(t *testing.T) {
	srv, wiz := newTestServer(t)

	resp, body := post(t, srv.URL+"/machines/ghost/select", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "unknown_machine", body["kind"])

	post(t, srv.URL+"/symptoms/no-steam/start", "")

	resp, body = post(t, srv.URL+"/advance", `{"next": "nowhere"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "lookup_miss", body["kind"])
	assert.Equal(t, "check-wand", wiz.State().CurrentStepID)

	resp, body = post(t, srv.URL+"/advance", `{"option": 7}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "bad_request", body["kind"])

	resp, _ = post(t, srv.URL+"/advance", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = post(t, srv.URL+"/advance", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCommandRejectsMalformedIDs(t *testing.T) {
	srv, wiz := newTestServer(t)
	post(t, srv.URL+"/symptoms/no-steam/start", "")

	resp, body := post(t, srv.URL+"/advance", `{"next": "clean tip"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "bad_request", body["kind"])
	assert.Contains(t, body["error"], "whitespace")

	resp, body = post(t, srv.URL+"/advance", `{"next": "clean-tip\u0000"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "bad_request", body["kind"])

	resp, _ = post(t, srv.URL+"/symptoms/no%20steam/start", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Equal(t, "check-wand", wiz.State().CurrentStepID)
}

func TestSelectMachineLoadFailure(t *testing.T) {
	tree := testutils.SampleTree()
	delete(tree, "machines/mastrena2.json")
	wiz, err := techninja.New(memory.NewSource(tree))
	require.NoError(t, err)
	require.NoError(t, wiz.Boot(context.Background()))

	srv := httptest.NewServer(NewHandler(wiz))
	defer srv.Close()

	resp, body := post(t, srv.URL+"/machines/mastrena2/select", "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "load_failed", body["kind"])

	resp, err = http.Get(srv.URL + "/view")
	require.NoError(t, err)
	defer resp.Body.Close()
	var view WizardResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.NotEmpty(t, view.GraphError)
}

func TestMachinesAndGraph(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/machines")
	require.NoError(t, err)
	var list struct {
		Machines []domain.Machine `json:"machines"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()
	require.Len(t, list.Machines, 1)
	assert.Equal(t, "machines/mastrena2.json", list.Machines[0].ConfigRef)

	resp, err = http.Get(srv.URL + "/graph")
	require.NoError(t, err)
	var g domain.MachineGraph
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&g))
	resp.Body.Close()
	assert.Len(t, g.Steps, 4)

	post(t, srv.URL+"/symptoms/no-steam/start", "")
	resp, err = http.Get(srv.URL + "/graph?format=mermaid")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := bufio.NewReader(resp.Body).ReadString(0)
	require.Error(t, err)
	assert.Contains(t, raw, "graph TD")
	assert.Contains(t, raw, "class step_check_wand current;")
}

func TestClearSession(t *testing.T) {
	srv, wiz := newTestServer(t)
	post(t, srv.URL+"/symptoms/no-steam/start", "")

	_, ok := wiz.SavedSession(context.Background())
	require.True(t, ok)

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/session", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, ok = wiz.SavedSession(context.Background())
	assert.False(t, ok)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	wiz, err := techninja.New(memory.NewSource(testutils.SampleTree()), techninja.WithLifecycleHooks(metrics.Hooks()))
	require.NoError(t, err)
	require.NoError(t, wiz.Boot(context.Background()))

	srv := httptest.NewServer(NewHandler(wiz, WithGatherer(reg)))
	defer srv.Close()

	post(t, srv.URL+"/symptoms/no-steam/start", "")

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, _ := bufio.NewReader(resp.Body).ReadString(0)
	assert.Contains(t, raw, "techninja_transitions_total")
}

func TestSubscribeEvents(t *testing.T) {
	srv, _ := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ping\n", line)
	_, _ = reader.ReadString('\n') // data: connected
	_, _ = reader.ReadString('\n') // blank

	post(t, srv.URL+"/symptoms/no-steam/start", "")

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(line, "data: "), line)

	var diff domain.StateDiff
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &diff))
	require.NotNil(t, diff.CurrentStepID)
	assert.Equal(t, "check-wand", *diff.CurrentStepID)
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/advance", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

// overlapNavigator records whether two Retreat calls ever ran at once.
type overlapNavigator struct {
	ports.Navigator
	active  atomic.Int32
	overlap atomic.Bool
}

func (n *overlapNavigator) Retreat(ctx context.Context) error {
	if n.active.Add(1) > 1 {
		n.overlap.Store(true)
	}
	defer n.active.Add(-1)
	time.Sleep(2 * time.Millisecond)
	return n.Navigator.Retreat(ctx)
}

func TestCommandsAreSerialized(t *testing.T) {
	wiz, err := techninja.New(memory.NewSource(testutils.SampleTree()))
	require.NoError(t, err)
	require.NoError(t, wiz.Boot(context.Background()))

	nav := &overlapNavigator{Navigator: wiz}
	srv := httptest.NewServer(NewHandler(nav))
	t.Cleanup(srv.Close)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.Post(srv.URL+"/back", "application/json", nil)
			if err == nil {
				resp.Body.Close()
			}
		}()
	}
	wg.Wait()

	assert.False(t, nav.overlap.Load())
}
