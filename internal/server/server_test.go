package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/iwvelando/studio-forecast/internal/report"
	"github.com/iwvelando/studio-forecast/internal/storage"
	"github.com/iwvelando/studio-forecast/internal/storage/sqlite"
	"github.com/iwvelando/studio-forecast/pkg/constants"
	"github.com/iwvelando/studio-forecast/pkg/mathutil"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "models.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestHandler(t *testing.T, store storage.Store, cfg *Config) http.Handler {
	t.Helper()
	if store == nil {
		store = newTestStore(t)
	}
	handler, err := NewHandler(zap.NewNop(), store, cfg, "v1.2.3")
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	return handler
}

func do(t *testing.T, h http.Handler, method, target, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, m := range mutate {
		m(req)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
	return out
}

func expectError(t *testing.T, rr *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, rr.Code, rr.Body.String())
	}
	resp := decode[map[string]string](t, rr)
	if msg != "" && resp["error"] != msg {
		t.Fatalf("expected error %q, got %q", msg, resp["error"])
	}
}

func TestModelLifecycle(t *testing.T) {
	h := newTestHandler(t, nil, nil)

	rr := do(t, h, http.MethodGet, "/api/models", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != "[]" {
		t.Fatalf("expected empty list, got %s", got)
	}

	rr = do(t, h, http.MethodPost, "/api/models", `{"name":"Baseline","data":{"studentFee":75,"rent":2600}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("create: expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	first := decode[storage.Summary](t, rr)
	if first.ID == 0 || first.Name != "Baseline" {
		t.Fatalf("unexpected summary %+v", first)
	}
	if first.CreatedAt.IsZero() || first.UpdatedAt.IsZero() {
		t.Fatalf("expected timestamps, got %+v", first)
	}
	if strings.Contains(rr.Body.String(), `"data"`) {
		t.Fatalf("summary must not carry data: %s", rr.Body.String())
	}

	rr = do(t, h, http.MethodPost, "/api/models", `{"name":"Lean","data":{"rent":1800}}`)
	second := decode[storage.Summary](t, rr)

	rr = do(t, h, http.MethodGet, "/api/models", "")
	list := decode[[]storage.Summary](t, rr)
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("expected newest first, got %+v", list)
	}

	rr = do(t, h, http.MethodGet, "/api/models/"+strconv.FormatInt(first.ID, 10), "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get: expected status 200, got %d", rr.Code)
	}
	model := decode[storage.Model](t, rr)
	var data map[string]float64
	if err := json.Unmarshal(model.Data, &data); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if data["studentFee"] != 75 || data["rent"] != 2600 {
		t.Fatalf("unexpected data %v", data)
	}

	rr = do(t, h, http.MethodPut, "/api/models/"+strconv.FormatInt(first.ID, 10), `{"name":"Baseline v2","data":{"rent":2700}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update: expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	updated := decode[storage.Summary](t, rr)
	if updated.Name != "Baseline v2" || !updated.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("unexpected updated summary %+v", updated)
	}

	rr = do(t, h, http.MethodGet, "/api/models/"+strconv.FormatInt(first.ID, 10), "")
	model = decode[storage.Model](t, rr)
	data = nil
	if err := json.Unmarshal(model.Data, &data); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if _, ok := data["studentFee"]; ok || data["rent"] != 2700 {
		t.Fatalf("expected data to be fully replaced, got %v", data)
	}

	rr = do(t, h, http.MethodDelete, "/api/models/"+strconv.FormatInt(first.ID, 10), "")
	if rr.Code != http.StatusOK {
		t.Fatalf("delete: expected status 200, got %d", rr.Code)
	}
	if resp := decode[map[string]bool](t, rr); !resp["success"] {
		t.Fatalf("expected success, got %v", resp)
	}

	expectError(t, do(t, h, http.MethodGet, "/api/models/"+strconv.FormatInt(first.ID, 10), ""),
		http.StatusNotFound, "Model not found")
}

func TestModelNotFound(t *testing.T) {
	h := newTestHandler(t, nil, nil)

	tests := []struct {
		name   string
		method string
		target string
		body   string
	}{
		{name: "get missing", method: http.MethodGet, target: "/api/models/999"},
		{name: "update missing", method: http.MethodPut, target: "/api/models/999", body: `{"name":"x","data":{}}`},
		{name: "delete missing", method: http.MethodDelete, target: "/api/models/999"},
		{name: "non numeric id", method: http.MethodGet, target: "/api/models/abc"},
		{name: "negative id", method: http.MethodDelete, target: "/api/models/-4"},
		{name: "projection of missing", method: http.MethodGet, target: "/api/models/999/projection"},
		{name: "report of missing", method: http.MethodGet, target: "/api/models/999/report"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, do(t, h, tt.method, tt.target, tt.body), http.StatusNotFound, "Model not found")
		})
	}
}

func TestModelValidation(t *testing.T) {
	h := newTestHandler(t, nil, nil)

	tests := []struct {
		name string
		body string
		msg  string
	}{
		{name: "malformed json", body: `{"name":`},
		{name: "missing name", body: `{"data":{}}`, msg: "Model name is required"},
		{name: "blank name", body: `{"name":"   ","data":{}}`, msg: "Model name is required"},
		{name: "name too long", body: `{"name":"` + strings.Repeat("a", MaxModelNameLength+1) + `","data":{}}`,
			msg: "Model name must be at most 255 characters"},
		{name: "missing data", body: `{"name":"x"}`, msg: "Model data is required"},
		{name: "null data", body: `{"name":"x","data":null}`, msg: "Model data is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, do(t, h, http.MethodPost, "/api/models", tt.body), http.StatusBadRequest, tt.msg)
		})
	}
}

type failingStore struct{}

var errDatabaseDown = errors.New("database down")

func (failingStore) List(context.Context) ([]storage.Summary, error) { return nil, errDatabaseDown }
func (failingStore) Get(context.Context, int64) (storage.Model, error) {
	return storage.Model{}, errDatabaseDown
}
func (failingStore) Create(context.Context, string, json.RawMessage) (storage.Summary, error) {
	return storage.Summary{}, errDatabaseDown
}
func (failingStore) Update(context.Context, int64, string, json.RawMessage) (storage.Summary, error) {
	return storage.Summary{}, errDatabaseDown
}
func (failingStore) Delete(context.Context, int64) error { return errDatabaseDown }
func (failingStore) Close() error                        { return nil }

func TestStoreFailures(t *testing.T) {
	h := newTestHandler(t, failingStore{}, nil)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		msg    string
	}{
		{name: "list", method: http.MethodGet, target: "/api/models", msg: "Failed to fetch models"},
		{name: "get", method: http.MethodGet, target: "/api/models/1", msg: "Failed to fetch model"},
		{name: "create", method: http.MethodPost, target: "/api/models", body: `{"name":"x","data":{}}`, msg: "Failed to save model"},
		{name: "update", method: http.MethodPut, target: "/api/models/1", body: `{"name":"x","data":{}}`, msg: "Failed to update model"},
		{name: "delete", method: http.MethodDelete, target: "/api/models/1", msg: "Failed to delete model"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, tt.method, tt.target, tt.body)
			expectError(t, rr, http.StatusInternalServerError, tt.msg)
			if strings.Contains(rr.Body.String(), errDatabaseDown.Error()) {
				t.Fatalf("internal error leaked to client: %s", rr.Body.String())
			}
		})
	}
}

func TestNewHandlerRequiresStore(t *testing.T) {
	if _, err := NewHandler(zap.NewNop(), nil, nil, ""); err == nil {
		t.Fatal("expected error without a store")
	}
}

type projectionBody struct {
	Name        string             `json:"name"`
	Assumptions map[string]float64 `json:"assumptions"`
	Projection  struct {
		TotalStartup float64 `json:"totalStartup"`
		Years        []struct {
			Label   string `json:"label"`
			Revenue struct {
				Membership float64 `json:"membership"`
			} `json:"revenue"`
			Margin *float64 `json:"margin"`
		} `json:"years"`
		Capacity struct {
			TotalCapacity       float64  `json:"totalCapacity"`
			UtilizationRequired *float64 `json:"utilizationRequired"`
		} `json:"capacity"`
	} `json:"projection"`
	PaybackYear string   `json:"paybackYear"`
	BreakEven   string   `json:"breakEven"`
	Warnings    []string `json:"warnings"`
}

func TestProjection(t *testing.T) {
	h := newTestHandler(t, nil, nil)

	t.Run("defaults", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/api/projection", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}
		resp := decode[projectionBody](t, rr)
		if !mathutil.WithinTolerance(resp.Projection.TotalStartup, 98900, 0.001) {
			t.Fatalf("expected total startup 98900, got %f", resp.Projection.TotalStartup)
		}
		if len(resp.Projection.Years) != constants.ProjectionYears {
			t.Fatalf("expected %d years, got %d", constants.ProjectionYears, len(resp.Projection.Years))
		}
		if !mathutil.WithinTolerance(resp.Projection.Years[0].Revenue.Membership, 51045, 0.001) {
			t.Fatalf("expected membership 51045, got %f", resp.Projection.Years[0].Revenue.Membership)
		}
		if resp.PaybackYear != "Year 2" || resp.BreakEven != "Year 2+" {
			t.Fatalf("unexpected labels %q %q", resp.PaybackYear, resp.BreakEven)
		}
		if resp.Assumptions["studentFee"] != 65 {
			t.Fatalf("expected default studentFee 65, got %v", resp.Assumptions["studentFee"])
		}
	})

	t.Run("partial overlay", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/api/projection", `{"studentFee":100,"bogus":1}`)
		resp := decode[projectionBody](t, rr)
		if resp.Assumptions["studentFee"] != 100 || resp.Assumptions["artistFee"] != 175 {
			t.Fatalf("unexpected assumptions %v", resp.Assumptions)
		}
		if len(resp.Warnings) != 1 || resp.Warnings[0] != "Unknown assumption 'bogus' ignored" {
			t.Fatalf("unexpected warnings %v", resp.Warnings)
		}
	})

	t.Run("non-finite ratios encode as null", func(t *testing.T) {
		// No opening hours and a -6 live room lockout cancel the control
		// room's fixed lockout, so total capacity is exactly zero.
		body := `{"dailyHours":0,"studentFee":0,"artistFee":0,"proFee":0,"rehearsalRate":0,"recordingRate":0,` +
			`"lessonRate":0,"streamingRate":0,"showcaseRate":0,"corporateRate":0,` +
			`"merchAvg":0,"rentalAvg":0,"bevAvg":0,"liveRoomLockout":-6}`
		rr := do(t, h, http.MethodPost, "/api/projection", body)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}
		resp := decode[projectionBody](t, rr)
		if resp.Projection.Years[0].Margin != nil {
			t.Fatalf("expected null margin, got %v", *resp.Projection.Years[0].Margin)
		}
		if resp.Projection.Capacity.TotalCapacity != 0 {
			t.Fatalf("expected zero capacity, got %v", resp.Projection.Capacity.TotalCapacity)
		}
		if resp.Projection.Capacity.UtilizationRequired != nil {
			t.Fatalf("expected null utilization, got %v", *resp.Projection.Capacity.UtilizationRequired)
		}
	})

	t.Run("array body", func(t *testing.T) {
		expectError(t, do(t, h, http.MethodPost, "/api/projection", `[1,2]`),
			http.StatusBadRequest, "assumptions must be a JSON object")
	})
}

func TestModelProjectionAndReport(t *testing.T) {
	h := newTestHandler(t, nil, nil)

	rr := do(t, h, http.MethodPost, "/api/models", `{"name":"Riverside Studio","data":{"studentMembers":40}}`)
	summary := decode[storage.Summary](t, rr)
	id := strconv.FormatInt(summary.ID, 10)

	rr = do(t, h, http.MethodGet, "/api/models/"+id+"/projection", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[projectionBody](t, rr)
	if resp.Name != "Riverside Studio" || resp.Assumptions["studentMembers"] != 40 {
		t.Fatalf("unexpected projection response %+v", resp)
	}

	rr = do(t, h, http.MethodGet, "/api/models/"+id+"/report", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != report.ContentType {
		t.Fatalf("unexpected content type %s", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "riverside-studio.xlsx") {
		t.Fatalf("unexpected content disposition %s", cd)
	}

	f, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer func() { _ = f.Close() }()
	name, err := f.GetCellValue(report.SheetSummary, "B2")
	if err != nil {
		t.Fatalf("failed to read model name: %v", err)
	}
	if name != "Riverside Studio" {
		t.Fatalf("expected model name in workbook, got %q", name)
	}

	rr = do(t, h, http.MethodPost, "/api/models", `{"name":"List","data":[1,2,3]}`)
	listID := strconv.FormatInt(decode[storage.Summary](t, rr).ID, 10)
	expectError(t, do(t, h, http.MethodGet, "/api/models/"+listID+"/projection", ""),
		http.StatusUnprocessableEntity, "Saved model data is not an assumption object")
}

func TestProjectionReport(t *testing.T) {
	h := newTestHandler(t, nil, nil)

	rr := do(t, h, http.MethodPost, "/api/projection/report", `{"rent":3000}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != report.ContentType {
		t.Fatalf("unexpected content type %s", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, constants.DefaultReportFile) {
		t.Fatalf("unexpected content disposition %s", cd)
	}
}

func TestDefaults(t *testing.T) {
	h := newTestHandler(t, nil, nil)

	rr := do(t, h, http.MethodGet, "/api/defaults", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	resp := decode[struct {
		Assumptions map[string]float64 `json:"assumptions"`
		Fields      []fieldResponse    `json:"fields"`
	}](t, rr)

	if len(resp.Fields) != len(resp.Assumptions) {
		t.Fatalf("expected one field per assumption, got %d fields and %d values", len(resp.Fields), len(resp.Assumptions))
	}
	if resp.Fields[0].Name != "studentFee" || resp.Fields[0].Kind != "currency" || resp.Fields[0].Value != 65 {
		t.Fatalf("unexpected first field %+v", resp.Fields[0])
	}
}

func TestVersionAndHealth(t *testing.T) {
	h := newTestHandler(t, nil, nil)

	rr := do(t, h, http.MethodGet, "/api/version", "")
	if resp := decode[map[string]string](t, rr); resp["version"] != "v1.2.3" {
		t.Fatalf("unexpected version %v", resp)
	}

	rr = do(t, h, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK || rr.Body.String() != "OK" {
		t.Fatalf("unexpected health response %d %q", rr.Code, rr.Body.String())
	}

	handler, err := NewHandler(nil, newTestStore(t), nil, "  ")
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	rr = do(t, handler, http.MethodGet, "/api/version", "")
	if resp := decode[map[string]string](t, rr); resp["version"] != "dev" {
		t.Fatalf("expected dev version, got %v", resp)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestHandler(t, nil, nil)
	rr := do(t, h, http.MethodPatch, "/api/models/1", `{}`)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rr.Code)
	}
}

func TestBodyLimit(t *testing.T) {
	cfg := defaultConfig()
	cfg.SetBodySizeBytes(64)
	h := newTestHandler(t, nil, cfg)

	body := `{"name":"big","data":{"notes":"` + strings.Repeat("x", 128) + `"}}`
	expectError(t, do(t, h, http.MethodPost, "/api/models", body), http.StatusRequestEntityTooLarge, "")
}

func TestRequestID(t *testing.T) {
	h := newTestHandler(t, nil, nil)

	rr := do(t, h, http.MethodGet, "/health", "")
	if rr.Header().Get(RequestIDHeader) == "" {
		t.Fatal("expected a generated request id")
	}

	rr = do(t, h, http.MethodGet, "/health", "", func(r *http.Request) {
		r.Header.Set(RequestIDHeader, "abc-123")
	})
	if got := rr.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		h := newTestHandler(t, nil, nil)
		if rr := do(t, h, http.MethodGet, "/metrics", ""); rr.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rr.Code)
		}
	})

	t.Run("enabled", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.Metrics.Enabled = true
		h := newTestHandler(t, nil, cfg)

		do(t, h, http.MethodPost, "/api/projection", `{}`)
		do(t, h, http.MethodGet, "/api/models", "")

		rr := do(t, h, http.MethodGet, "/metrics", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
		body := rr.Body.String()
		for _, want := range []string{
			`studio_forecast_projections_total{output="json"} 1`,
			`studio_forecast_http_requests_total{code="200",method="GET",route="GET /api/models"} 1`,
			`studio_forecast_http_request_duration_seconds_bucket`,
		} {
			if !strings.Contains(body, want) {
				t.Fatalf("expected metrics to contain %q", want)
			}
		}
	})
}

func TestStaticDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>dashboard</html>"), 0o600); err != nil {
		t.Fatalf("failed to write index: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o600); err != nil {
		t.Fatalf("failed to write asset: %v", err)
	}

	cfg := defaultConfig()
	cfg.StaticDir = dir
	h := newTestHandler(t, nil, cfg)

	tests := []struct {
		name   string
		target string
		status int
		want   string
	}{
		{name: "asset", target: "/app.js", status: http.StatusOK, want: "console.log(1)"},
		{name: "root", target: "/", status: http.StatusOK, want: "dashboard"},
		{name: "client route", target: "/models/3", status: http.StatusOK, want: "dashboard"},
		{name: "unknown api", target: "/api/nothing", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodGet, tt.target, "")
			if rr.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, rr.Code)
			}
			if tt.want != "" && !strings.Contains(rr.Body.String(), tt.want) {
				t.Fatalf("expected body to contain %q, got %q", tt.want, rr.Body.String())
			}
		})
	}
}

func TestReportFilename(t *testing.T) {
	tests := map[string]string{
		"Riverside Studio":   "riverside-studio.xlsx",
		"  Q3 / Lean plan! ": "q3-lean-plan.xlsx",
		"***":                constants.DefaultReportFile,
	}
	for input, want := range tests {
		if got := reportFilename(input); got != want {
			t.Fatalf("reportFilename(%q) = %q, want %q", input, got, want)
		}
	}
}
