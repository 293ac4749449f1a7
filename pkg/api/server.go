// Package api exposes the loaded collection over HTTP. All card and
// field endpoints evaluate display expressions at request time through
// the pure evaluators; nothing here mutates the resolved graph.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/REPPL/itemdeck.app-sub011/pkg/collection"
	"github.com/REPPL/itemdeck.app-sub011/pkg/entity"
	"github.com/REPPL/itemdeck.app-sub011/pkg/export"
	"github.com/REPPL/itemdeck.app-sub011/pkg/expr"
)

// CollectionSource is what the server needs from the collection
// manager. Declared here so tests can substitute a stub.
type CollectionSource interface {
	Current() (*collection.Collection, bool)
	LastError() error
	Switch(ctx context.Context, base string)
}

// Server encapsulates the HTTP API server.
type Server struct {
	source CollectionSource
	server *http.Server
}

// NewServer creates the API server on addr over a collection source.
func NewServer(addr string, source CollectionSource) *Server {
	s := &Server{source: source}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/v1/collection", s.handleCollection)
	mux.HandleFunc("/v1/cards", s.handleCards)
	mux.HandleFunc("/v1/cards/", s.handleCard) // /v1/cards/{id}[/field|/image]
	mux.HandleFunc("/v1/export", s.handleExport)
	mux.HandleFunc("/v1/reload", s.handleReload)

	s.server = &http.Server{
		Addr:    addr,
		Handler: withLogging(withRecovery(mux)),
	}
	return s
}

// Handler exposes the configured handler chain (used by tests).
func (s *Server) Handler() http.Handler { return s.server.Handler }

// Start begins serving. It blocks until the server stops.
func (s *Server) Start() error {
	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, loaded := s.source.Current()
	status := map[string]interface{}{
		"status":            "ok",
		"collection_loaded": loaded,
	}
	if err := s.source.LastError(); err != nil {
		status["last_load_error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request) {
	col, ok := s.requireCollection(w)
	if !ok {
		return
	}

	counts := make(map[string]int, len(col.Graph.TypeNames()))
	for _, name := range col.Graph.TypeNames() {
		counts[name] = col.Graph.Count(name)
	}
	writeJSON(w, http.StatusOK, CollectionSummary{
		ID:          col.ID,
		Format:      col.Format.String(),
		PrimaryType: col.Definition.PrimaryType,
		EntityTypes: counts,
		Warnings:    col.Warnings,
		LoadedAt:    col.LoadedAt,
	})
}

func (s *Server) handleCards(w http.ResponseWriter, r *http.Request) {
	col, ok := s.requireCollection(w)
	if !ok {
		return
	}

	cards := collection.BuildCards(col)
	if group := r.URL.Query().Get("group"); group != "" {
		filtered := cards[:0]
		for _, c := range cards {
			if c.Group == group {
				filtered = append(filtered, c)
			}
		}
		cards = filtered
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		if limit < len(cards) {
			cards = cards[:limit]
		}
	}
	writeJSON(w, http.StatusOK, cards)
}

// handleCard serves /v1/cards/{id} and the field/image evaluation
// subresources.
func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	col, ok := s.requireCollection(w)
	if !ok {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/cards/")
	parts := strings.SplitN(strings.Trim(rest, "/"), "/", 2)
	id := parts[0]
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing card id")
		return
	}

	e, ok := col.Graph.Lookup(col.Definition.PrimaryType, id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no card with id %q", id))
		return
	}

	if len(parts) == 1 {
		s.writeCardDetail(w, col, e)
		return
	}
	switch parts[1] {
	case "field":
		s.writeFieldResult(w, e, r.URL.Query().Get("path"))
	case "image":
		s.writeImageResult(w, e, r.URL.Query().Get("selector"))
	default:
		writeError(w, http.StatusNotFound, "unknown card subresource")
	}
}

func (s *Server) writeCardDetail(w http.ResponseWriter, col *collection.Collection, e *entity.ResolvedEntity) {
	raw, err := json.Marshal(e)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode entity")
		return
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode entity")
		return
	}

	front, back := collection.Faces(e, col.Display())
	writeJSON(w, http.StatusOK, CardDetail{
		ID:     e.ID,
		Type:   e.Type,
		Fields: fields,
		Front:  front,
		Back:   back,
	})
}

func (s *Server) writeFieldResult(w http.ResponseWriter, e *entity.ResolvedEntity, path string) {
	if path == "" {
		writeError(w, http.StatusBadRequest, "missing path parameter")
		return
	}
	v, found, err := expr.ResolveValue(e, path)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid path: %v", err))
		return
	}
	result := FieldResult{ID: e.ID, Path: path, Found: found}
	if found {
		result.Value = v
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) writeImageResult(w http.ResponseWriter, e *entity.ResolvedEntity, selector string) {
	if selector == "" {
		writeError(w, http.StatusBadRequest, "missing selector parameter")
		return
	}
	images, err := expr.SelectFromEntity(e, selector)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid selector: %v", err))
		return
	}
	if images == nil {
		images = []entity.Image{}
	}
	writeJSON(w, http.StatusOK, images)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	col, ok := s.requireCollection(w)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="cards.csv"`)
	if err := export.WriteCSV(w, col); err != nil {
		// Headers are already out; all we can do is log via middleware.
		return
	}
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req ReloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Base == "" {
		writeError(w, http.StatusBadRequest, "invalid reload request")
		return
	}
	// The switch is asynchronous; a stale in-flight load is cancelled
	// and can never overwrite the newer collection.
	s.source.Switch(context.Background(), req.Base)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "reloading", "base": req.Base})
}

func (s *Server) requireCollection(w http.ResponseWriter) (*collection.Collection, bool) {
	col, ok := s.source.Current()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no collection loaded")
		return nil, false
	}
	return col, true
}

// --- Helpers and middleware ---

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusWriter captures the response status for logging.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Middleware: request logging
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		fmt.Printf(`{"level":"info","msg":"http_request","method":"%s","path":"%s","status":%d,"duration_ms":%d}`+"\n",
			r.Method, r.URL.Path, ww.status, time.Since(start).Milliseconds())
	})
}

// Middleware: panic recovery
func withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				fmt.Printf(`{"level":"error","msg":"panic_recovered","error":"%v","path":"%s"}`+"\n", err, r.URL.Path)
				http.Error(w, `{"error":"internal_server_error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
