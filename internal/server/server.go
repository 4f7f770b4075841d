// Package server provides the HTTP control API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/netmpowers/bookwatch/internal/binsearch"
	"github.com/netmpowers/bookwatch/internal/database"
	"github.com/netmpowers/bookwatch/internal/model"
	"github.com/netmpowers/bookwatch/internal/termlist"
	"github.com/netmpowers/bookwatch/internal/watch"
)

// Server is the main HTTP server. Handlers only ever touch found items
// through the run path; direct mutation is reserved for the reconciler.
type Server struct {
	store    database.Store
	client   *binsearch.Client
	runner   *watch.Runner
	notifier watch.Notifier
	router   chi.Router
}

// New creates a new server.
func New(store database.Store, client *binsearch.Client, runner *watch.Runner, notifier watch.Notifier) *Server {
	s := &Server{
		store:    store,
		client:   client,
		runner:   runner,
		notifier: notifier,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/terms", s.handleListTerms)
		r.Post("/terms", s.handleAddTerm)
		r.Post("/terms/remove", s.handleRemoveTerm)
		r.Get("/items", s.handleListItems)
		r.Get("/search-url", s.handleSearchURL)
		r.Post("/import", s.handleImport)
		r.Post("/run", s.handleRun)
	})

	s.router = r
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the server.
func (s *Server) Start(addr string) error {
	log.Printf("Server starting on %s", addr)
	return http.ListenAndServe(addr, s.router)
}

// --- API Handlers ---

func (s *Server) handleListTerms(w http.ResponseWriter, r *http.Request) {
	terms, err := s.store.AllTerms()
	if err != nil {
		http.Error(w, "Failed to list terms", http.StatusInternalServerError)
		return
	}
	if terms == nil {
		terms = []string{}
	}
	writeJSON(w, map[string]interface{}{"terms": terms})
}

func (s *Server) handleAddTerm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		http.Error(w, "Empty search term", http.StatusBadRequest)
		return
	}
	if err := s.store.AddTerm(text); err != nil {
		http.Error(w, "Failed to add term", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleRemoveTerm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	err := s.store.RemoveTerm(strings.TrimSpace(req.Text))
	if errors.Is(err, database.ErrTermNotFound) {
		http.Error(w, "Term not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to remove term", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("term"))
	id, err := s.store.TermID(term)
	if errors.Is(err, database.ErrTermNotFound) {
		http.Error(w, "Term not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to look up term", http.StatusInternalServerError)
		return
	}
	items, err := s.store.ItemsFor(id)
	if err != nil {
		http.Error(w, "Failed to list items", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []model.FoundItem{}
	}
	writeJSON(w, map[string]interface{}{
		"term":  term,
		"count": len(items),
		"items": items,
	})
}

func (s *Server) handleSearchURL(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("term"))
	if term == "" {
		http.Error(w, "Empty search term", http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]string{"url": s.client.SearchURL(term)})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("list")
	if err != nil {
		http.Error(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	terms, err := termlist.Parse(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse list: %v", err), http.StatusBadRequest)
		return
	}

	imported := 0
	for _, term := range terms {
		exists, err := s.store.TermExists(term)
		if err != nil {
			log.Printf("Error checking term %q: %v", term, err)
			continue
		}
		if exists {
			continue
		}
		if err := s.store.AddTerm(term); err != nil {
			log.Printf("Error importing term %q: %v", term, err)
			continue
		}
		imported++
	}

	writeJSON(w, map[string]interface{}{
		"status":   "ok",
		"imported": imported,
		"total":    len(terms),
	})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Minute)
	defer cancel()

	report, err := s.runner.RunAll(ctx)
	if err != nil {
		http.Error(w, fmt.Sprintf("Run error: %v", err), http.StatusInternalServerError)
		return
	}
	if !report.Empty() {
		if err := s.notifier.Deliver(report); err != nil {
			log.Printf("Notification error: %v", err)
		}
	}
	writeJSON(w, report)
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Encode error: %v", err)
	}
}
