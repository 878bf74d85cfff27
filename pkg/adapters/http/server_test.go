package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/pkg/actions"
	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/domain"
)

// testHandler hosts a small library: an instant flow, a flow with an
// environment contract, a flow that fails fast, and an invalid flow.
func testHandler(t *testing.T) http.Handler {
	t.Helper()

	greet := domain.NewFlow("greet")
	greet.Body.Append(actions.NewDelay("beat", time.Millisecond))

	notify := domain.NewFlow("notify")
	notify.Requires = []string{"token"}
	notify.Body.Append(actions.NewDelay("beat", time.Millisecond))

	flaky := domain.NewFlow("flaky")
	wait := actions.NewWaitUntil("ready", "ready == true")
	wait.Interval = 2 * time.Millisecond
	wait.Timeout = 10 * time.Millisecond
	flaky.Body.Append(wait)

	loopy := domain.NewFlow("loopy")
	loopy.Body.Append(actions.NewWhile("spin", ""))

	lib, err := memory.NewLibraryFromFlows(greet, notify, flaky, loopy)
	require.NoError(t, err)

	engine, err := espalier.New("",
		espalier.WithLibrary(lib),
		espalier.WithStore(memory.NewStore()),
	)
	require.NoError(t, err)

	handler, err := NewHandler(engine)
	require.NoError(t, err)
	return handler
}

func doJSON(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndInfo(t *testing.T) {
	handler := testHandler(t)

	rec := doJSON(t, handler, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = doJSON(t, handler, http.MethodGet, "/info", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var info map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "espalier-http", info["app"])
	assert.Equal(t, "0.1.0", info["api_version"])
	assert.NotEmpty(t, info["version"])
}

func TestListFlows(t *testing.T) {
	rec := doJSON(t, testHandler(t), http.MethodGet, "/flows", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.ElementsMatch(t, []string{"greet", "notify", "flaky", "loopy"}, body["flows"])
}

func TestStartRun(t *testing.T) {
	rec := doJSON(t, testHandler(t), http.MethodPost, "/runs", `{"flow":"greet"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "success", res.Outcome)
	assert.Empty(t, res.Error)
}

func TestStartRunUnknownFlow(t *testing.T) {
	rec := doJSON(t, testHandler(t), http.MethodPost, "/runs", `{"flow":"ghost"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestContractEnforcedOverHTTP(t *testing.T) {
	handler := testHandler(t)

	rec := doJSON(t, handler, http.MethodPost, "/runs", `{"flow":"notify"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "token")

	rec = doJSON(t, handler, http.MethodPost, "/runs", `{"flow":"notify","env":{"token":"s3cret"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "success", res.Outcome)
}

func TestContractMiddleware(t *testing.T) {
	handler := testHandler(t)

	// Required property missing: rejected before the handler runs.
	rec := doJSON(t, handler, http.MethodPost, "/runs", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Wrong content type.
	req := httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(`{"flow":"greet"}`))
	req.Header.Set("Content-Type", "text/plain")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFailedRunLifecycle(t *testing.T) {
	handler := testHandler(t)

	rec := doJSON(t, handler, http.MethodPost, "/runs", `{"flow":"flaky"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "failure", res.Outcome)
	assert.NotEmpty(t, res.Error)
	require.NotEmpty(t, res.RunID)

	rec = doJSON(t, handler, http.MethodGet, "/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), res.RunID)

	rec = doJSON(t, handler, http.MethodGet, "/runs/"+res.RunID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var snap domain.RunSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "flaky", snap.Flow)
	assert.Equal(t, domain.StatusFailed, snap.Status)

	rec = doJSON(t, handler, http.MethodGet, "/runs/"+res.RunID+"/graph", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "flowchart TD")
	assert.Contains(t, rec.Body.String(), "current")

	// The condition still never holds, so the resumed run fails again.
	rec = doJSON(t, handler, http.MethodPost, "/runs/"+res.RunID+"/resume", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resumed RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resumed))
	assert.Equal(t, "failure", resumed.Outcome)
	assert.Equal(t, res.RunID, resumed.RunID)

	rec = doJSON(t, handler, http.MethodDelete, "/runs/"+res.RunID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/runs/"+res.RunID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResumeUnknownRun(t *testing.T) {
	rec := doJSON(t, testHandler(t), http.MethodPost, "/runs/nope/resume", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFlowGraph(t *testing.T) {
	handler := testHandler(t)

	rec := doJSON(t, handler, http.MethodGet, "/flows/greet/graph", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "flowchart TD")
	assert.Contains(t, rec.Body.String(), "greet")

	rec = doJSON(t, handler, http.MethodGet, "/flows/ghost/graph", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidateFlowEndpoint(t *testing.T) {
	handler := testHandler(t)

	rec := doJSON(t, handler, http.MethodGet, "/flows/loopy/validation", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary struct {
		Flow      string `json:"flow"`
		Criticals int    `json:"criticals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "loopy", summary.Flow)
	assert.Greater(t, summary.Criticals, 0)
}

func TestMetricsExposed(t *testing.T) {
	handler := testHandler(t)

	doJSON(t, handler, http.MethodPost, "/runs", `{"flow":"greet"}`)

	rec := doJSON(t, handler, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "espalier_runs_total")
}

func TestEventStream(t *testing.T) {
	handler := testHandler(t)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	go func() {
		time.Sleep(30 * time.Millisecond)
		runReq := httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(`{"flow":"greet"}`))
		runReq.Header.Set("Content-Type", "application/json")
		handler.ServeHTTP(httptest.NewRecorder(), runReq)
	}()

	handler.ServeHTTP(rec, req)

	out := rec.Body.String()
	assert.Contains(t, out, "event: ping")
	assert.Contains(t, out, "flow_started")
	assert.Contains(t, out, "flow_finished")
}
