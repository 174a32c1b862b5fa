package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/swingerman/dual-thermostat-config/internal/models"
	"github.com/swingerman/dual-thermostat-config/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.InMemoryStore) {
	t.Helper()
	st := store.NewInMemoryStore()
	srv := NewServer(st)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, st
}

func doJSON(t *testing.T, method, url string, body any) (int, models.APIResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()

	var parsed models.APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return resp.StatusCode, parsed
}

// resultMap unwraps APIResponse.Result into a map for field access.
func resultMap(t *testing.T, resp models.APIResponse) map[string]any {
	t.Helper()
	m, ok := resp.Result.(map[string]any)
	if !ok {
		t.Fatalf("expected object result, got %T", resp.Result)
	}
	return m
}

func TestStartFlowInvalidMode(t *testing.T) {
	ts, _ := newTestServer(t)
	status, resp := doJSON(t, http.MethodPost, ts.URL+"/flows", map[string]any{"mode": "upgrade"})
	if status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", status)
	}
	if resp.Status != string(models.APIStatusError) {
		t.Errorf("expected error status, got %s", resp.Status)
	}
}

func TestStartFlowEditWithoutEntryID(t *testing.T) {
	ts, _ := newTestServer(t)
	status, _ := doJSON(t, http.MethodPost, ts.URL+"/flows", map[string]any{"mode": "edit"})
	if status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", status)
	}
}

func TestStartFlowEditUnknownRecord(t *testing.T) {
	ts, _ := newTestServer(t)
	status, _ := doJSON(t, http.MethodPost, ts.URL+"/flows",
		map[string]any{"mode": "edit", "entry_id": "missing"})
	if status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", status)
	}
}

func TestCreateFlowOverHTTP(t *testing.T) {
	ts, st := newTestServer(t)

	status, resp := doJSON(t, http.MethodPost, ts.URL+"/flows", map[string]any{"mode": "create"})
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%+v)", status, resp)
	}
	result := resultMap(t, resp)
	sessionID, _ := result["session_id"].(string)
	if sessionID == "" {
		t.Fatal("no session id returned")
	}
	first, _ := result["result"].(map[string]any)
	if first["step"] != "system_type" {
		t.Fatalf("expected system_type first, got %v", first["step"])
	}

	stepsURL := ts.URL + "/flows/" + sessionID + "/steps"
	submissions := []map[string]any{
		{"step": "system_type", "values": map[string]any{"system_type": "simple_heater"}},
		{"step": "basic_simple_heater", "values": map[string]any{
			"name":               "Hallway",
			"temperature_sensor": "sensor.hallway",
			"heater":             "switch.hallway_heater",
		}},
		{"step": "features", "values": map[string]any{}},
	}
	var last models.APIResponse
	for _, sub := range submissions {
		status, last = doJSON(t, http.MethodPost, stepsURL, sub)
		if status != http.StatusOK {
			t.Fatalf("submission %v: expected 200, got %d (%+v)", sub["step"], status, last)
		}
	}

	final := resultMap(t, last)
	if final["outcome"] != "commit" {
		t.Fatalf("expected commit outcome, got %v", final["outcome"])
	}
	entryID, _ := final["entry_id"].(string)
	rec, err := st.GetRecord(entryID)
	if err != nil || rec == nil {
		t.Fatalf("committed record not found: %v", err)
	}
	if rec.Base["heater"] != "switch.hallway_heater" {
		t.Errorf("heater not persisted: %v", rec.Base)
	}
}

func TestSubmitStepFieldErrorsReturn422(t *testing.T) {
	ts, _ := newTestServer(t)

	_, resp := doJSON(t, http.MethodPost, ts.URL+"/flows", map[string]any{"mode": "create"})
	sessionID, _ := resultMap(t, resp)["session_id"].(string)

	status, resp := doJSON(t, http.MethodPost, ts.URL+"/flows/"+sessionID+"/steps",
		map[string]any{"step": "system_type", "values": map[string]any{"system_type": "toaster"}})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", status)
	}
	result := resultMap(t, resp)
	errs, _ := result["errors"].(map[string]any)
	if errs["system_type"] != "invalid_option" {
		t.Errorf("expected invalid_option field error, got %v", result["errors"])
	}
}

func TestSubmitWrongStepReturnsConflict(t *testing.T) {
	ts, _ := newTestServer(t)

	_, resp := doJSON(t, http.MethodPost, ts.URL+"/flows", map[string]any{"mode": "create"})
	sessionID, _ := resultMap(t, resp)["session_id"].(string)

	status, _ := doJSON(t, http.MethodPost, ts.URL+"/flows/"+sessionID+"/steps",
		map[string]any{"step": "fan", "values": map[string]any{"fan": "switch.fan"}})
	if status != http.StatusConflict {
		t.Errorf("expected 409, got %d", status)
	}
}

func TestResumeAndAbortFlow(t *testing.T) {
	ts, _ := newTestServer(t)

	_, resp := doJSON(t, http.MethodPost, ts.URL+"/flows", map[string]any{"mode": "create"})
	sessionID, _ := resultMap(t, resp)["session_id"].(string)

	status, resp := doJSON(t, http.MethodGet, ts.URL+"/flows/"+sessionID, nil)
	if status != http.StatusOK {
		t.Fatalf("resume: expected 200, got %d", status)
	}
	if resultMap(t, resp)["step"] != "system_type" {
		t.Errorf("resume did not return the current step: %+v", resp)
	}

	status, _ = doJSON(t, http.MethodDelete, ts.URL+"/flows/"+sessionID+"?reason=closed", nil)
	if status != http.StatusOK {
		t.Fatalf("abort: expected 200, got %d", status)
	}

	status, _ = doJSON(t, http.MethodGet, ts.URL+"/flows/"+sessionID, nil)
	if status != http.StatusNotFound {
		t.Errorf("resume after abort: expected 404, got %d", status)
	}
}

func TestRecordEndpoints(t *testing.T) {
	ts, st := newTestServer(t)

	base := map[string]any{
		"system_type":        "simple_heater",
		"name":               "Office",
		"temperature_sensor": "sensor.office",
		"heater":             "switch.office_heater",
	}
	if err := st.SaveRecord(models.ConfigRecord{EntryID: "entry-1", Base: base}); err != nil {
		t.Fatalf("seed record: %v", err)
	}
	if err := st.SaveOverlay("entry-1", map[string]any{"cold_tolerance": 0.9}); err != nil {
		t.Fatalf("seed overlay: %v", err)
	}

	status, resp := doJSON(t, http.MethodGet, ts.URL+"/records", nil)
	if status != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", status)
	}
	list, _ := resp.Result.([]any)
	if len(list) != 1 {
		t.Fatalf("expected one record, got %v", resp.Result)
	}

	status, resp = doJSON(t, http.MethodGet, ts.URL+"/records/entry-1", nil)
	if status != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", status)
	}
	record := resultMap(t, resp)
	current, _ := record["current"].(map[string]any)
	if current["cold_tolerance"] != 0.9 {
		t.Errorf("merged view missing overlay value: %v", current)
	}

	status, _ = doJSON(t, http.MethodDelete, ts.URL+"/records/entry-1", nil)
	if status != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", status)
	}
	status, _ = doJSON(t, http.MethodGet, ts.URL+"/records/entry-1", nil)
	if status != http.StatusNotFound {
		t.Errorf("get after delete: expected 404, got %d", status)
	}
}
