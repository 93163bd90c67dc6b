// Package http serves processed photos to the admin and a health endpoint.
// Photo files are served by name only; the handler never exposes paths
// outside the output directory.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/ContextLab/lab-manual/internal/logger"
)

// Server exposes processed photos over plain HTTP.
type Server struct {
	httpServer *http.Server
	photoDir   string
	log        *slog.Logger
}

// NewServer builds the photo/health server listening on addr and serving
// files from photoDir.
func NewServer(addr, photoDir string) *Server {
	s := &Server{photoDir: photoDir, log: logger.WithService("http")}

	r := mux.NewRouter()
	r.Use(s.logRequests)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/photos/{name}", s.handlePhoto).Methods(http.MethodGet)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Start blocks serving requests until Shutdown is called.
func (s *Server) Start() error {
	logger.Info("photo server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handlePhoto(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	// Reject anything that could escape the photo directory.
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	path := filepath.Join(s.photoDir, name)
	s.log.Debug("serving photo", "path", path)
	http.ServeFile(w, r, path)
}
