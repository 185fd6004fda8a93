// Package server exposes a remote store over HTTP so that several machines
// can share profile and premium task records.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"bubbletasks/backend"
	"bubbletasks/internal/utils"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 1 << 20

// Server serves the /v1 record API on top of a RemoteStore
type Server struct {
	store  backend.RemoteStore
	token  string
	logger *log.Logger
}

// New creates a server. An empty token disables authentication.
func New(store backend.RemoteStore, token string) *Server {
	return &Server{
		store:  store,
		token:  token,
		logger: utils.GetLogger().With("component", "server"),
	}
}

// Router wires the handlers into a chi router
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.health)

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/users/{uid}", s.getProfile)
		r.Put("/users/{uid}", s.putProfile)
		r.Get("/premium/{uid}", s.getTaskRecord)
		r.Put("/premium/{uid}", s.putTaskRecord)
	})

	return r
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "auth", s.token != "")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token == "" {
			next.ServeHTTP(w, r)
			return
		}
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
			writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	p, err := s.store.GetProfile(r.Context(), uid)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) putProfile(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	var p backend.Profile
	if !decodeBody(w, r, profileSchema, &p) {
		return
	}
	if err := s.store.PutProfile(r.Context(), uid, p); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getTaskRecord(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	rec, err := s.store.GetTaskRecord(r.Context(), uid)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if rec.Todos == nil {
		rec.Todos = []backend.Task{}
	}
	writeJSON(w, http.StatusOK, rec)
}

// putTaskRecord only accepts writes for premium profiles, whatever the
// backing store enforces itself
func (s *Server) putTaskRecord(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	p, err := s.store.GetProfile(r.Context(), uid)
	if err != nil && !backend.IsNotFound(err) {
		s.writeStoreError(w, err)
		return
	}
	if p == nil || !p.IsPremium {
		writeError(w, http.StatusForbidden, backend.ErrNotEntitled.Error())
		return
	}

	var rec backend.TaskRecord
	if !decodeBody(w, r, recordSchema, &rec) {
		return
	}
	if rec.Todos == nil {
		rec.Todos = []backend.Task{}
	}
	if err := s.store.PutTaskRecord(r.Context(), uid, rec); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case backend.IsNotFound(err):
		writeError(w, http.StatusNotFound, "record not found")
	case errors.Is(err, backend.ErrNotEntitled):
		writeError(w, http.StatusForbidden, backend.ErrNotEntitled.Error())
	default:
		s.logger.Error("store operation failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeBody checks the body against schema before decoding it into dst
func decodeBody(w http.ResponseWriter, r *http.Request, schema *jsonschema.Schema, dst any) bool {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body: "+err.Error())
		return false
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	if err := schema.Validate(doc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+schemaError(err))
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
