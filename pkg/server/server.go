// Package server exposes the classification service over HTTP: an HTML form
// flow and a small JSON API.
package server

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"phishdetect/pkg/history"
	"phishdetect/pkg/model"
	"phishdetect/pkg/service"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
)

//go:embed templates/*.html
var templateFS embed.FS

// MsgUnexpected is the only message shown when classification fails.
const MsgUnexpected = "Unexpected error occurred."

// Checker classifies a single URL.
type Checker interface {
	Check(ctx context.Context, rawURL string) (service.Result, error)
}

type Server struct {
	checker Checker
	history *history.Store
	logger  *log.Logger
	pages   *template.Template
	router  *mux.Router
}

type resultPage struct {
	URL        string
	Prediction string
	Class      string
	Messages   []string
	History    []history.Record
}

type historyPage struct {
	History []history.Record
}

// New parses the embedded templates and registers routes. store may be nil,
// in which case history pages stay empty.
func New(checker Checker, store *history.Store, logger *log.Logger) (*Server, error) {
	pages, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{checker: checker, history: store, logger: logger, pages: pages}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/predict", s.handlePredict).Methods(http.MethodPost)
	r.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/history/clear", s.handleClearHistory).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/predict", s.handleAPIPredict).Methods(http.MethodPost)
	api.HandleFunc("/history", s.handleAPIHistory).Methods(http.MethodGet)

	r.Use(s.logRequests)
	s.router = r
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
	})
}

func (s *Server) records() []history.Record {
	if s.history == nil {
		return nil
	}
	return s.history.List()
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "index.html", nil)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	rawURL := strings.TrimSpace(r.FormValue("url"))

	res, err := s.checker.Check(r.Context(), rawURL)
	if err != nil {
		s.logger.Error("prediction failed", "url", rawURL, "err", err)
		s.render(w, http.StatusInternalServerError, "result.html", resultPage{
			URL:        rawURL,
			Prediction: "Error: " + err.Error(),
			Messages:   []string{MsgUnexpected},
		})
		return
	}

	page := resultPage{
		URL:        rawURL,
		Prediction: res.Label,
		Class:      labelClass(res.Label),
		Messages:   res.Messages,
	}
	if res.Valid {
		page.History = s.records()
	}
	s.render(w, http.StatusOK, "result.html", page)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "history.html", historyPage{History: s.records()})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if s.history != nil {
		s.history.Clear()
	}
	http.Redirect(w, r, "/history", http.StatusSeeOther)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// render buffers the page; a template error becomes a plain 500.
func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("template failed", "template", name, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func labelClass(label string) string {
	switch label {
	case model.LabelPhishing:
		return "phishing"
	case model.LabelLegitimate:
		return "legitimate"
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
