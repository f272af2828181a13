package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/iwvelando/studio-forecast/internal/assumptions"
	"github.com/iwvelando/studio-forecast/internal/projection"
	"github.com/iwvelando/studio-forecast/internal/report"
	"github.com/iwvelando/studio-forecast/internal/storage"
	"github.com/iwvelando/studio-forecast/pkg/constants"
	"go.uber.org/zap"
)

// MaxModelNameLength matches the saved_models.name column.
const MaxModelNameLength = 255

type handler struct {
	logger      *zap.Logger
	store       storage.Store
	auth        *sessionAuth
	metrics     *metrics
	maxBodySize int64
	version     string
}

// NewHandler constructs the HTTP handler that serves the saved model API, the
// projection API and, when configured, the dashboard's static files.
func NewHandler(logger *zap.Logger, store storage.Store, cfg *Config, version string) (http.Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		return nil, errors.New("server requires a model store")
	}
	if cfg == nil {
		cfg = defaultConfig()
	}

	maxBodySize := cfg.BodySizeBytes()
	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	auth, err := newSessionAuth(cfg.Auth)
	if err != nil {
		return nil, err
	}
	if auth.enabled() && cfg.Auth.SessionSecret == "" {
		logger.Warn("no session secret configured, sessions will not survive a restart",
			zap.String("op", "server.NewHandler"),
		)
	}

	h := &handler{
		logger:      logger,
		store:       store,
		auth:        auth,
		maxBodySize: maxBodySize,
		version:     trimmedVersion,
	}

	mux := http.NewServeMux()

	// Saved models
	mux.HandleFunc("GET /api/models", h.requireSession(h.handleListModels))
	mux.HandleFunc("POST /api/models", h.requireSession(h.handleCreateModel))
	mux.HandleFunc("GET /api/models/{id}", h.requireSession(h.handleGetModel))
	mux.HandleFunc("PUT /api/models/{id}", h.requireSession(h.handleUpdateModel))
	mux.HandleFunc("DELETE /api/models/{id}", h.requireSession(h.handleDeleteModel))
	mux.HandleFunc("GET /api/models/{id}/projection", h.requireSession(h.handleModelProjection))
	mux.HandleFunc("GET /api/models/{id}/report", h.requireSession(h.handleModelReport))

	// Stateless projection
	mux.HandleFunc("GET /api/defaults", h.handleDefaults)
	mux.HandleFunc("POST /api/projection", h.handleProjection)
	mux.HandleFunc("POST /api/projection/report", h.handleProjectionReport)

	// Login gate
	mux.HandleFunc("GET /api/session", h.handleSessionStatus)
	mux.HandleFunc("POST /api/session", h.handleLogin)
	mux.HandleFunc("DELETE /api/session", h.handleLogout)

	mux.HandleFunc("GET /api/version", h.handleVersion)
	mux.HandleFunc("GET /health", h.handleHealth)

	if cfg.Metrics.Enabled {
		h.metrics = newMetrics()
		mux.Handle("GET /metrics", h.metrics.handler())
	}

	if dir := strings.TrimSpace(cfg.StaticDir); dir != "" {
		mux.Handle("GET /", spaHandler(dir))
	}

	return h.instrument(mux), nil
}

type modelRequest struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

type projectionResponse struct {
	Name        string                `json:"name,omitempty"`
	Assumptions assumptions.Set       `json:"assumptions"`
	Projection  projection.Projection `json:"projection"`
	PaybackYear string                `json:"paybackYear"`
	BreakEven   string                `json:"breakEven"`
	Warnings    []string              `json:"warnings,omitempty"`
}

type fieldResponse struct {
	Name  string  `json:"name"`
	Label string  `json:"label"`
	Group string  `json:"group"`
	Kind  string  `json:"kind"`
	Value float64 `json:"value"`
}

func (h *handler) handleListModels(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleListModels"

	models, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list models", zap.String("op", op), zap.Error(err))
		h.respondErrorWithOp(w, http.StatusInternalServerError, "Failed to fetch models", op)
		return
	}
	h.writeJSON(w, http.StatusOK, models)
}

func (h *handler) handleGetModel(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleGetModel"

	model, ok := h.loadModel(w, r, op)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, model)
}

func (h *handler) handleCreateModel(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCreateModel"

	req, ok := h.decodeModelRequest(w, r, op)
	if !ok {
		return
	}

	summary, err := h.store.Create(r.Context(), req.Name, req.Data)
	if err != nil {
		h.logger.Error("failed to create model", zap.String("op", op), zap.Error(err))
		h.respondErrorWithOp(w, http.StatusInternalServerError, "Failed to save model", op)
		return
	}

	h.logger.Info("model saved",
		zap.String("op", op),
		zap.Int64("id", summary.ID),
		zap.String("name", summary.Name),
	)
	h.writeJSON(w, http.StatusOK, summary)
}

func (h *handler) handleUpdateModel(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpdateModel"

	id, ok := h.modelID(w, r, op)
	if !ok {
		return
	}
	req, ok := h.decodeModelRequest(w, r, op)
	if !ok {
		return
	}

	summary, err := h.store.Update(r.Context(), id, req.Name, req.Data)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		h.respondErrorWithOp(w, http.StatusNotFound, "Model not found", op)
		return
	case err != nil:
		h.logger.Error("failed to update model", zap.String("op", op), zap.Int64("id", id), zap.Error(err))
		h.respondErrorWithOp(w, http.StatusInternalServerError, "Failed to update model", op)
		return
	}

	h.logger.Info("model updated",
		zap.String("op", op),
		zap.Int64("id", summary.ID),
		zap.String("name", summary.Name),
	)
	h.writeJSON(w, http.StatusOK, summary)
}

func (h *handler) handleDeleteModel(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDeleteModel"

	id, ok := h.modelID(w, r, op)
	if !ok {
		return
	}

	err := h.store.Delete(r.Context(), id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		h.respondErrorWithOp(w, http.StatusNotFound, "Model not found", op)
		return
	case err != nil:
		h.logger.Error("failed to delete model", zap.String("op", op), zap.Int64("id", id), zap.Error(err))
		h.respondErrorWithOp(w, http.StatusInternalServerError, "Failed to delete model", op)
		return
	}

	h.logger.Info("model deleted", zap.String("op", op), zap.Int64("id", id))
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *handler) handleModelProjection(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleModelProjection"

	model, ok := h.loadModel(w, r, op)
	if !ok {
		return
	}
	resp, ok := h.projectModel(w, model, op)
	if !ok {
		return
	}
	h.metrics.projected("json")
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleModelReport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleModelReport"

	model, ok := h.loadModel(w, r, op)
	if !ok {
		return
	}
	resp, ok := h.projectModel(w, model, op)
	if !ok {
		return
	}
	h.writeReport(w, resp, op)
}

func (h *handler) handleDefaults(w http.ResponseWriter, r *http.Request) {
	defaults := assumptions.Defaults()
	fields := assumptions.Fields()
	out := make([]fieldResponse, 0, len(fields))
	for _, f := range fields {
		out = append(out, fieldResponse{
			Name:  f.Name,
			Label: f.Label,
			Group: f.Group,
			Kind:  kindName(f.Kind),
			Value: f.Value(defaults),
		})
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"assumptions": defaults,
		"fields":      out,
	})
}

func (h *handler) handleProjection(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleProjection"

	resp, ok := h.projectRequest(w, r, op)
	if !ok {
		return
	}
	h.metrics.projected("json")
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleProjectionReport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleProjectionReport"

	resp, ok := h.projectRequest(w, r, op)
	if !ok {
		return
	}
	h.writeReport(w, resp, op)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// projectRequest reads a partial assumption object, overlays it on the
// defaults and projects it.
func (h *handler) projectRequest(w http.ResponseWriter, r *http.Request, op string) (projectionResponse, bool) {
	body, ok := h.readBody(w, r, op)
	if !ok {
		return projectionResponse{}, false
	}

	var payload map[string]interface{}
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&payload); err != nil {
			h.respondErrorWithOp(w, http.StatusBadRequest, "assumptions must be a JSON object", op)
			return projectionResponse{}, false
		}
	}

	set := assumptions.Defaults().Merge(payload)
	return h.project("", set, assumptions.UnknownKeys(payload), op), true
}

func (h *handler) projectModel(w http.ResponseWriter, model storage.Model, op string) (projectionResponse, bool) {
	var payload map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(model.Data))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		h.respondErrorWithOp(w, http.StatusUnprocessableEntity, "Saved model data is not an assumption object", op)
		return projectionResponse{}, false
	}

	set := assumptions.Defaults().Merge(payload)
	return h.project(model.Name, set, assumptions.UnknownKeys(payload), op), true
}

func (h *handler) project(name string, set assumptions.Set, unknown []string, op string) projectionResponse {
	start := time.Now()
	p := projection.Project(set)

	var warnings []string
	for _, key := range unknown {
		warnings = append(warnings, fmt.Sprintf("Unknown assumption '%s' ignored", key))
	}

	h.logger.Debug("projection computed",
		zap.String("op", op),
		zap.String("name", name),
		zap.Int("unknown_keys", len(unknown)),
		zap.Duration("duration", time.Since(start)),
	)

	return projectionResponse{
		Name:        name,
		Assumptions: set,
		Projection:  p,
		PaybackYear: p.PaybackYear(),
		BreakEven:   p.BreakEvenLabel(),
		Warnings:    warnings,
	}
}

func (h *handler) writeReport(w http.ResponseWriter, resp projectionResponse, op string) {
	name := resp.Name
	if name == "" {
		name = "Studio Forecast"
	}

	data, err := report.Bytes(name, resp.Assumptions, resp.Projection)
	if err != nil {
		h.logger.Error("failed to build report", zap.String("op", op), zap.Error(err))
		h.respondErrorWithOp(w, http.StatusInternalServerError, "Failed to build report", op)
		return
	}

	h.metrics.projected("xlsx")
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", reportFilename(name)))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("failed to write report", zap.String("op", op), zap.Error(err))
	}
}

// reportFilename keeps letters and digits from name and joins the rest with
// dashes.
func reportFilename(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	base := strings.TrimSuffix(b.String(), "-")
	if base == "" {
		return constants.DefaultReportFile
	}
	return base + ".xlsx"
}

func (h *handler) loadModel(w http.ResponseWriter, r *http.Request, op string) (storage.Model, bool) {
	id, ok := h.modelID(w, r, op)
	if !ok {
		return storage.Model{}, false
	}

	model, err := h.store.Get(r.Context(), id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		h.respondErrorWithOp(w, http.StatusNotFound, "Model not found", op)
		return storage.Model{}, false
	case err != nil:
		h.logger.Error("failed to fetch model", zap.String("op", op), zap.Int64("id", id), zap.Error(err))
		h.respondErrorWithOp(w, http.StatusInternalServerError, "Failed to fetch model", op)
		return storage.Model{}, false
	}
	return model, true
}

// modelID parses the {id} path value. Ids that cannot exist are reported as
// not found.
func (h *handler) modelID(w http.ResponseWriter, r *http.Request, op string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		h.respondErrorWithOp(w, http.StatusNotFound, "Model not found", op)
		return 0, false
	}
	return id, true
}

func (h *handler) decodeModelRequest(w http.ResponseWriter, r *http.Request, op string) (modelRequest, bool) {
	body, ok := h.readBody(w, r, op)
	if !ok {
		return modelRequest{}, false
	}

	var req modelRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode model: %v", err), op)
		return modelRequest{}, false
	}

	req.Name = strings.TrimSpace(req.Name)
	switch {
	case req.Name == "":
		h.respondErrorWithOp(w, http.StatusBadRequest, "Model name is required", op)
		return modelRequest{}, false
	case utf8.RuneCountInString(req.Name) > MaxModelNameLength:
		h.respondErrorWithOp(w, http.StatusBadRequest,
			fmt.Sprintf("Model name must be at most %d characters", MaxModelNameLength), op)
		return modelRequest{}, false
	}

	data := bytes.TrimSpace(req.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		h.respondErrorWithOp(w, http.StatusBadRequest, "Model data is required", op)
		return modelRequest{}, false
	}
	req.Data = json.RawMessage(data)
	return req, true
}

func (h *handler) readBody(w http.ResponseWriter, r *http.Request, op string) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds limit of %d bytes", h.maxBodySize), op)
			return nil, false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to read request: %v", err), op)
		return nil, false
	}
	return body, true
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	fields := []zap.Field{
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields...)
	} else {
		h.logger.Warn("request rejected", fields...)
	}

	h.writeJSON(w, status, map[string]string{"error": msg})
}

// writeJSON encodes before writing the header so encoding failures still
// produce a 500.
func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to encode JSON response",
			zap.String("op", "server.writeJSON"),
			zap.Error(err),
		)
		status = http.StatusInternalServerError
		body = []byte(`{"error":"Failed to encode response"}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		h.logger.Warn("failed to write JSON response",
			zap.String("op", "server.writeJSON"),
			zap.Error(err),
		)
	}
}

func kindName(k assumptions.Kind) string {
	switch k {
	case assumptions.Currency:
		return "currency"
	case assumptions.Fraction:
		return "fraction"
	default:
		return "count"
	}
}

// spaHandler serves files from dir and falls back to index.html for any path
// that is not a file, so client-side routes load the dashboard.
func spaHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		clean := path.Clean("/" + r.URL.Path)
		info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(clean)))
		if err == nil && !info.IsDir() {
			files.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(dir, "index.html"))
	})
}
