package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gridarena.ai/internal/persistence/indexdb"
	"gridarena.ai/internal/sim/world"
)

type fixedState struct{ s world.PublicState }

func (f fixedState) PublicState() world.PublicState { return f.s }

type fakeIndex struct{}

func (fakeIndex) Runs(int) ([]indexdb.RunRow, error) {
	return []indexdb.RunRow{{RunID: "r1", Mode: "tank"}}, nil
}
func (fakeIndex) Results(runID string) ([]indexdb.ResultRow, error) {
	return []indexdb.ResultRow{{Agent: runID + "-winner", Rank: 1}}, nil
}
func (fakeIndex) FragsBy(string) ([]indexdb.FragCount, error) { return nil, nil }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRoutes(t *testing.T) {
	st := &fixedState{s: world.PublicState{Tick: 4, Mode: "tank", Agents: []world.AgentState{{Name: "red"}}}}
	r := NewRouter(Config{State: st, Index: fakeIndex{}, DisableLogging: true})

	if rec := get(t, r, "/healthz"); rec.Code != http.StatusOK {
		t.Fatalf("healthz %d", rec.Code)
	}

	rec := get(t, r, "/v1/state")
	var ps world.PublicState
	if err := json.Unmarshal(rec.Body.Bytes(), &ps); err != nil || ps.Tick != 4 || len(ps.Agents) != 1 {
		t.Fatalf("state: %v %+v", err, ps)
	}

	if rec := get(t, r, "/v1/summary"); rec.Code != http.StatusNotFound {
		t.Fatalf("summary before end: %d", rec.Code)
	}
	st.s.Summary = &world.Summary{Reason: "max_ticks", Tick: 9}
	rec = get(t, r, "/v1/summary")
	var sum world.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil || sum.Reason != "max_ticks" {
		t.Fatalf("summary: %v %+v", err, sum)
	}

	rec = get(t, r, "/v1/runs/abc/results")
	var rows []indexdb.ResultRow
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil || len(rows) != 1 || rows[0].Agent != "abc-winner" {
		t.Fatalf("results: %v %+v", err, rows)
	}

	if rec := get(t, r, "/metrics"); rec.Code != http.StatusNotFound {
		t.Fatalf("metrics should be absent without a handler, got %d", rec.Code)
	}
}
