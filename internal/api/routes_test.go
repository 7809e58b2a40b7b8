package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ssds/seat-allocation/internal/api/handlers"
	"github.com/ssds/seat-allocation/internal/config"
	"github.com/ssds/seat-allocation/pkg/db"
	"github.com/ssds/seat-allocation/pkg/exporter"
	"github.com/ssds/seat-allocation/pkg/metrics"
)

const rosterCSV = `id,name,average,channel,choice_1
1,Sara,91,general,CS
2,Omar,95,general,
3,Huda,80,general,Math
`

const plainRosterCSV = `name,average,channel
Sara,91,مركزي
Omar,95,parallel
Huda,80,ذوي الشهداء
`

type testServer struct {
	router  *gin.Engine
	store   *db.MemoryStore
	configs *config.Store
	cfg     *config.Config
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Allocation: config.AllocationConfig{TotalSeats: 2, Departments: []string{"CS"}},
		Path:       filepath.Join(t.TempDir(), "seat_config.test.yaml"),
	}
	config.ApplyDefaults(cfg)

	reg := prometheus.NewRegistry()
	recorder, err := metrics.NewPrometheus(reg, "")
	require.NoError(t, err)

	store := db.NewMemoryStore()
	configs := config.NewStore(cfg)
	router := NewRouter(Options{
		Store:    store,
		Recorder: recorder,
		Configs:  configs,
		Logger:   zap.NewNop(),
		Gatherer: reg,
	})

	return &testServer{router: router, store: store, configs: configs, cfg: cfg}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func uploadRequest(t *testing.T, path, filename, content string, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) handlers.ErrorResponse {
	t.Helper()
	var resp handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, handlers.StatusError, resp.Status)
	return resp
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"up"`)
}

func TestDistribute_SavedConfig(t *testing.T) {
	s := newTestServer(t)

	w := s.do(uploadRequest(t, "/api/v1/distribute", "roster.csv", rosterCSV, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp handlers.DistributeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, handlers.StatusSuccess, resp.Status)
	assert.Equal(t, handlers.StatsPayload{Assigned: 2, Unassigned: 1, Total: 3}, resp.Stats)
	assert.Equal(t, exporter.FileName, resp.FileName)

	// Math is not configured, so Huda's only choice matches no department
	require.Len(t, resp.Data, 3)
	assert.Equal(t, "2", resp.Data[0].ID)
	assert.Equal(t, 1, resp.Data[0].Order)
	assert.Equal(t, "CS", resp.Data[0].Department)
	assert.Equal(t, exporter.RejectedLabel, resp.Data[2].Department)

	file, err := base64.StdEncoding.DecodeString(resp.FileB64)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(file[:2]))

	// The run is stored
	require.NotEmpty(t, resp.RunID)
	run, err := s.store.GetRun(context.Background(), resp.RunID)
	require.NoError(t, err)
	assert.Equal(t, "roster.csv", run.Source)
}

func TestDistribute_RequestOverrides(t *testing.T) {
	s := newTestServer(t)

	w := s.do(uploadRequest(t, "/api/v1/distribute", "roster.csv", plainRosterCSV, map[string]string{
		"mode":       "manual",
		"capacities": `{"CS": 3}`,
		"quotas":     `{"general": 100}`,
	}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp handlers.DistributeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	// Every seat is general; the other channels get theirs by overflow
	assert.Equal(t, handlers.StatsPayload{Assigned: 3, Total: 3}, resp.Stats)
	for _, row := range resp.Data {
		assert.Equal(t, "CS", row.Department)
		assert.Equal(t, "مركزي", row.AssignedChannel)
	}
}

func TestDistribute_BadRequests(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		fields   map[string]string
		contains string
	}{
		{name: "no file", fields: map[string]string{"mode": "EQUAL"}, contains: "no roster file"},
		{name: "unsupported file", filename: "roster.txt", content: "x", contains: "unsupported roster file"},
		{name: "missing column", filename: "roster.csv", content: "id,name\n1,Sara\n", contains: "average"},
		{name: "bad mode", filename: "roster.csv", content: rosterCSV, fields: map[string]string{"mode": "RANDOM"}, contains: "mode"},
		{name: "bad total", filename: "roster.csv", content: rosterCSV, fields: map[string]string{"total_capacity": "ten"}, contains: "total_capacity"},
		{name: "bad capacities", filename: "roster.csv", content: rosterCSV, fields: map[string]string{"capacities": `[1,2]`}, contains: "capacities"},
		{name: "fractional capacity", filename: "roster.csv", content: rosterCSV, fields: map[string]string{"capacities": `{"CS": 1.5}`}, contains: "whole number"},
		{name: "unknown channel", filename: "roster.csv", content: rosterCSV, fields: map[string]string{"quotas": `{"vip": 0.5}`}, contains: "vip"},
		{name: "quotas exceed one", filename: "roster.csv", content: rosterCSV, fields: map[string]string{"quotas": `{"general": 0.8, "martyrs": 0.5}`}, contains: "exceeds 1"},
		{name: "negative total", filename: "roster.csv", content: rosterCSV, fields: map[string]string{"total_capacity": "-4"}, contains: "negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			w := s.do(uploadRequest(t, "/api/v1/distribute", tt.filename, tt.content, tt.fields))
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Contains(t, decodeError(t, w).Message, tt.contains)
		})
	}
}

func TestDistribute_NoDepartments(t *testing.T) {
	s := newTestServer(t)
	_, err := s.configs.UpdateAllocation(config.AllocationConfig{TotalSeats: 5})
	require.NoError(t, err)

	// Nobody chose a department and none are configured
	w := s.do(uploadRequest(t, "/api/v1/distribute", "roster.csv", "name,average\nSara,90\n", nil))
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Contains(t, decodeError(t, w).Message, "configuration error")
}

func TestScan(t *testing.T) {
	s := newTestServer(t)

	w := s.do(uploadRequest(t, "/api/v1/scan", "roster.csv", rosterCSV+",,,,\n4,,70,general,Law\n", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Status       string   `json:"status"`
		StudentCount int      `json:"student_count"`
		SkippedCount int      `json:"skipped_count"`
		Departments  []string `json:"departments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, handlers.StatusSuccess, resp.Status)
	assert.Equal(t, 3, resp.StudentCount)
	assert.Equal(t, 1, resp.SkippedCount)
	assert.Equal(t, []string{"CS", "Math"}, resp.Departments)
}

func TestConfig_GetAndUpdate(t *testing.T) {
	s := newTestServer(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/config", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got handlers.ConfigResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "EQUAL", got.Config.Mode)
	assert.Equal(t, 2, got.Config.TotalCapacity)
	assert.Equal(t, map[string]float64{"general": 0.6, "parallel": 0.3, "martyrs": 0.1}, got.Config.Quotas)

	body := `{"mode":"MANUAL","capacities":{"Law":4},"quotas":{"general":60,"parallel":40}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/config", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = s.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated handlers.ConfigResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "MANUAL", updated.Config.Mode)
	assert.Equal(t, map[string]int{"Law": 4}, updated.Config.Capacities)
	assert.Equal(t, map[string]float64{"general": 0.6, "parallel": 0.4}, updated.Config.Quotas)

	// Written to disk
	loaded, err := config.LoadFromPath(s.cfg.Path)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Law": 4}, loaded.Allocation.Capacities)
}

func TestConfig_DepartmentListDropsInactive(t *testing.T) {
	s := newTestServer(t)

	body := `{"mode":"MANUAL","department_list":[
		{"name":"Medicine","capacity":12,"is_active":true},
		{"name":"Law","capacity":4,"is_active":false},
		{"name":"Civil Eng","capacity":6}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/config", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := s.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated handlers.ConfigResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, []string{"Medicine", "Civil Eng"}, updated.Config.Departments)
	assert.Equal(t, map[string]int{"Medicine": 12, "Civil Eng": 6}, updated.Config.Capacities)
	require.Len(t, updated.Config.DepartmentList, 2)
	assert.Equal(t, "Civil Eng", updated.Config.DepartmentList[1].Name)
	assert.Equal(t, 6, updated.Config.DepartmentList[1].Capacity)
}

func TestConfig_UpdateRejected(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `{`},
		{name: "bad mode", body: `{"mode":"SOMETIMES"}`},
		{name: "negative total", body: `{"total_capacity":-1}`},
		{name: "quotas exceed one", body: `{"quotas":{"general":0.9,"parallel":0.9}}`},
		{name: "unknown channel", body: `{"quotas":{"vip":0.1}}`},
		{name: "duplicate department", body: `{"departments":["CS","CS"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/config", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := s.do(req)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			decodeError(t, w)
		})
	}
}

func TestRuns(t *testing.T) {
	s := newTestServer(t)

	w := s.do(uploadRequest(t, "/api/v1/distribute", "roster.csv", rosterCSV, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var dist handlers.DistributeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dist))

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Runs []db.Run `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Runs, 1)
	assert.Equal(t, dist.RunID, list.Runs[0].ID)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+dist.RunID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		Assignments []db.RunAssignment `json:"assignments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Len(t, detail.Assignments, 3)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/runs/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/runs?limit=x", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(uploadRequest(t, "/api/v1/distribute", "roster.csv", rosterCSV, nil))

	w := s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `seat_allocation_runs_total{outcome="success"} 1`)
	assert.Contains(t, w.Body.String(), "seat_allocation_last_run_assigned 2")
}
