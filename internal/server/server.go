// Package server is the development task backend. It speaks the same HTTP
// surface the hosted API does, so the CLI can run against localhost with no
// code changes. State is in memory only.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"taskman/internal/service"
	"taskman/internal/timestamp"
)

// Server serves the per-user task collection endpoints.
type Server struct {
	store *memStore
	log   *slog.Logger
}

// New creates a server with an empty in-memory store.
func New(log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{store: newMemStore(), log: log}
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleHealth)
	r.Route("/tasks/{userID}", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleCreate)
		r.Put("/{taskID}", s.handleUpdate)
		r.Delete("/{taskID}", s.handleDelete)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Task Manager API is running!"))
}

// wireOut is the read representation. Timestamps go out in the nested form.
type wireOut struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	DueDate     json.RawMessage `json:"dueDate"`
	Status      service.Status  `json:"status"`
	CreatedAt   json.RawMessage `json:"createdAt"`
}

func toWire(t service.Task) wireOut {
	due, _ := timestamp.Encode(t.DueDate, timestamp.Firestore)
	created, _ := timestamp.Encode(t.CreatedAt, timestamp.Firestore)
	return wireOut{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     due,
		Status:      t.Status,
		CreatedAt:   created,
	}
}

// wireIn is the write payload. The due date is decoded leniently so clients
// may submit any of the supported encodings.
type wireIn struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	DueDate     json.RawMessage `json:"dueDate"`
	Status      service.Status  `json:"status"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	tasks := s.store.list(userID)
	out := make([]wireOut, len(tasks))
	for i, t := range tasks {
		out[i] = toWire(t)
	}
	s.log.Info("list", "user", userID, "count", len(out))
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	in, ok := s.decodeWrite(w, r)
	if !ok {
		return
	}

	draft := service.Draft{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
	}
	if draft.Status == "" {
		draft.Status = service.StatusTodo
	}
	if len(in.DueDate) > 0 {
		due, err := timestamp.Decode(in.DueDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid due date")
			return
		}
		draft.DueDate = due
	}
	if draft.Title == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}

	t := s.store.create(userID, draft)
	s.log.Info("create", "user", userID, "task", t.ID)
	writeJSON(w, http.StatusCreated, map[string]string{
		"id":      t.ID,
		"message": "Task created!",
	})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	taskID := chi.URLParam(r, "taskID")
	in, ok := s.decodeWrite(w, r)
	if !ok {
		return
	}

	patch := service.Patch{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
	}
	if len(in.DueDate) > 0 {
		due, err := timestamp.Decode(in.DueDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid due date")
			return
		}
		patch.DueDate = due
	}

	t, found := s.store.update(userID, taskID, patch)
	if !found {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	s.log.Info("update", "user", userID, "task", taskID)
	writeJSON(w, http.StatusOK, toWire(t))
}

// handleDelete removes a task. Deleting a task that is already gone still
// reports success; the end state is the same either way.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	taskID := chi.URLParam(r, "taskID")
	s.store.delete(userID, taskID)
	s.log.Info("delete", "user", userID, "task", taskID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted!"})
}

func (s *Server) decodeWrite(w http.ResponseWriter, r *http.Request) (wireIn, bool) {
	var in wireIn
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return wireIn{}, false
	}
	return in, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
