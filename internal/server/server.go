package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/ldi/mission/internal/lifecycle"
	"github.com/ldi/mission/internal/tracker"
)

// Server exposes the tracker over a local JSON API. Handlers serialize all
// tracker access through a single mutex; the tracker assumes one logical
// owner at a time.
type Server struct {
	mu      sync.Mutex
	tracker *tracker.Tracker
	server  *http.Server
}

func NewServer(tr *tracker.Tracker) *Server {
	return &Server{tracker: tr}
}

// Handler returns the API mux without starting a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/tasks", s.handleTasks)
	mux.HandleFunc("/api/tasks/toggle", s.handleToggle)
	mux.HandleFunc("/api/tasks/due", s.handleDueDate)
	mux.HandleFunc("/api/counts", s.handleCounts)
	mux.HandleFunc("/api/export", s.handleExport)
	mux.HandleFunc("/api/import", s.handleImport)

	return mux
}

func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTasks(w, r)
	case http.MethodPost:
		s.createTask(w, r)
	case http.MethodDelete:
		s.deleteTask(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	filter := lifecycle.Filter(r.URL.Query().Get("filter"))
	if filter == "" {
		filter = lifecycle.FilterAll
	}
	if !filter.Valid() {
		http.Error(w, fmt.Sprintf("unknown filter: %s", filter), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	tasks := s.tracker.List(filter)
	s.mu.Unlock()

	s.respond(w, tasks, nil)
}

type createRequest struct {
	Text        string     `json:"text"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	task, err := s.tracker.Add(r.Context(), req.Text, req.Description, req.DueDate)
	s.mu.Unlock()

	if errors.Is(err, tracker.ErrEmptyTitle) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(task)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")

	s.mu.Lock()
	err := s.tracker.Delete(r.Context(), id)
	s.mu.Unlock()

	if errors.Is(err, tracker.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")

	s.mu.Lock()
	task, err := s.tracker.Toggle(r.Context(), id)
	s.mu.Unlock()

	if errors.Is(err, tracker.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.respond(w, task, err)
}

type dueRequest struct {
	DueDate *time.Time `json:"dueDate"`
}

func (s *Server) handleDueDate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	var req dueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	task, err := s.tracker.SetDueDate(r.Context(), id, req.DueDate)
	s.mu.Unlock()

	switch {
	case errors.Is(err, tracker.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, tracker.ErrEditLocked):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		s.respond(w, task, err)
	}
}

func (s *Server) handleCounts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	counts := s.tracker.Counts()
	s.mu.Unlock()

	s.respond(w, counts, nil)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	tasks := s.tracker.List(lifecycle.FilterAll)
	s.mu.Unlock()

	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="tasks.json"`)
	w.Write(data)
}

// handleImport accepts either a JSON array (bulk replace) or a single JSON
// object (additive, rejected on id collision), matching the file formats the
// export side produces.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if isJSONArray(data) {
		n, err := s.tracker.ImportAll(r.Context(), data)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.respond(w, map[string]int{"imported": n}, nil)
		return
	}

	task, err := s.tracker.ImportOne(r.Context(), data)
	if errors.Is(err, tracker.ErrIDConflict) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.respond(w, task, nil)
}

func isJSONArray(data []byte) bool {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}

func (s *Server) respond(w http.ResponseWriter, data any, err error) {
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}
