package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/lexgen/lexgen/automaton"
	"github.com/lexgen/lexgen/compiler"
	"github.com/lexgen/lexgen/grammar"
	"github.com/lexgen/lexgen/internal/metrics"
	"github.com/lexgen/lexgen/scanner"
	"github.com/lexgen/lexgen/tablestore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const maxRequestBytes = 4 << 20

type serverState struct {
	comp     *compiler.Compiler
	store    tablestore.Store
	metrics  *metrics.Metrics
	registry *prometheus.Registry

	mu      sync.RWMutex
	current *loadedTable
}

func newServerState(comp *compiler.Compiler, store tablestore.Store) *serverState {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return &serverState{
		comp:     comp,
		store:    store,
		metrics:  metrics.New(registry),
		registry: registry,
	}
}

// SetTable replaces the table served by /api/table and /api/scan.
func (s *serverState) SetTable(table *loadedTable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = table
}

// Table returns the current table, or nil before one is loaded.
func (s *serverState) Table() *loadedTable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *serverState) routes() http.Handler {
	router := httprouter.New()
	router.HandlerFunc(http.MethodGet, "/healthz", s.handleHealth)
	router.HandlerFunc(http.MethodHead, "/healthz", s.handleHealth)
	router.HandlerFunc(http.MethodGet, "/readyz", s.handleReady)
	router.HandlerFunc(http.MethodGet, "/api/table", s.handleTable)
	router.HandlerFunc(http.MethodPost, "/api/scan", s.handleScan)
	router.HandlerFunc(http.MethodPost, "/api/tables", s.handleCompile)
	router.GET("/api/tables/:digest", s.handleStoredTable)
	router.POST("/api/tables/:digest/scan", s.handleStoredScan)
	router.Handler(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not found")
	})
	return router
}

func startHTTPServer(ctx context.Context, addr string, state *serverState) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           state.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("starting HTTP server", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server: %w", err)
	}
	logger.Info("HTTP server stopped")
	return nil
}

type scanRequest struct {
	Text  string `json:"text"`
	Where string `json:"where,omitempty"`
}

type scanResponse struct {
	Tokens []scanner.Token `json:"tokens"`
	Errors int             `json:"errors"`
}

type compileRequest struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

type compileResponse struct {
	Digest  string   `json:"digest"`
	ID      string   `json:"id"`
	Classes []string `json:"classes"`
	States  int      `json:"states"`
	Cached  bool     `json:"cached"`
}

func (s *serverState) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *serverState) handleReady(w http.ResponseWriter, r *http.Request) {
	current := s.Table()
	if current == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "no table loaded")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ready",
		"grammar": current.Document.Grammar,
		"digest":  current.Document.Digest,
	})
}

func (s *serverState) handleTable(w http.ResponseWriter, r *http.Request) {
	current := s.Table()
	if current == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "no table loaded")
		return
	}
	writeJSON(w, http.StatusOK, current.Document)
}

func (s *serverState) handleScan(w http.ResponseWriter, r *http.Request) {
	current := s.Table()
	if current == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "no table loaded")
		return
	}
	s.scanWith(w, r, current.Table)
}

func (s *serverState) handleCompile(w http.ResponseWriter, r *http.Request) {
	var req compileRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Source) == "" {
		writeJSONError(w, http.StatusBadRequest, "source is required")
		return
	}
	name := req.Name
	if name == "" {
		name = "request.lex"
	}

	start := time.Now()
	loaded, err := compileSource(r.Context(), s.comp, s.store, name, []byte(req.Source))
	if err != nil {
		s.metrics.ObserveBuild(time.Since(start), 0, err)
		status := http.StatusInternalServerError
		var list grammar.Errors
		if errors.As(err, &list) || positionFromError(err).Line > 0 {
			status = http.StatusUnprocessableEntity
		}
		if errors.Is(err, automaton.ErrStateLimit) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSONError(w, status, err.Error())
		return
	}
	if !loaded.Cached {
		s.metrics.ObserveBuild(time.Since(start), len(loaded.Table.States), nil)
	}

	writeJSON(w, http.StatusOK, compileResponse{
		Digest:  loaded.Document.Digest,
		ID:      loaded.Document.ID,
		Classes: loaded.Table.Classes,
		States:  len(loaded.Table.States),
		Cached:  loaded.Cached,
	})
}

func (s *serverState) handleStoredTable(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	doc, ok := s.storedDocument(w, r, ps.ByName("digest"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *serverState) handleStoredScan(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	doc, ok := s.storedDocument(w, r, ps.ByName("digest"))
	if !ok {
		return
	}
	table, err := doc.Table()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.scanWith(w, r, table)
}

func (s *serverState) storedDocument(w http.ResponseWriter, r *http.Request, digest string) (*automaton.Document, bool) {
	doc, ok, err := s.store.Get(r.Context(), digest)
	switch {
	case errors.Is(err, tablestore.ErrInvalidDigest):
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return nil, false
	case err != nil:
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	case !ok:
		writeJSONError(w, http.StatusNotFound, "unknown table")
		return nil, false
	}
	return doc, true
}

func (s *serverState) scanWith(w http.ResponseWriter, r *http.Request, table *automaton.Table) {
	var req scanRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var filter *scanner.Filter
	if strings.TrimSpace(req.Where) != "" {
		f, err := scanner.NewFilter(req.Where)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter = f
	}

	tokens := scanner.ScanString(table, "request", req.Text)
	s.metrics.ObserveScan(tokens)
	errorCount := len(scanner.Errors(tokens))

	tokens, err := filter.Apply(tokens)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if tokens == nil {
		tokens = []scanner.Token{}
	}
	writeJSON(w, http.StatusOK, scanResponse{Tokens: tokens, Errors: errorCount})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid json: %v", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
