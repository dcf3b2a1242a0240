package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/petakom/petakom/internal/conversation"
	"github.com/petakom/petakom/internal/credential"
	"github.com/petakom/petakom/internal/gemini"
	"github.com/petakom/petakom/internal/notify"
)

type Server struct {
	router   *chi.Mux
	port     int
	engine   *conversation.Engine
	llm      *gemini.Client
	creds    *credential.Store
	feed     *notify.Feed
	notifier notify.Notifier
	logger   *slog.Logger
}

func NewServer(port int, engine *conversation.Engine, llm *gemini.Client, creds *credential.Store, feed *notify.Feed, notifier notify.Notifier, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:   router,
		port:     port,
		engine:   engine,
		llm:      llm,
		creds:    creds,
		feed:     feed,
		notifier: notifier,
		logger:   logger,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/petakom/status", s.status)

	router.Put("/api/v1/credential", s.putCredential)
	router.Get("/api/v1/credential", s.credentialStatus)
	router.Delete("/api/v1/credential", s.deleteCredential)
	router.Post("/api/v1/credential/verify", s.verifyCredential)

	router.Post("/api/v1/skkni/upload", s.uploadSKKNI)
	router.Get("/api/v1/skkni/records", s.listRecords)

	router.Post("/api/v1/documents", s.uploadDocuments)
	router.Get("/api/v1/documents", s.listDocuments)
	router.Delete("/api/v1/documents/{id}", s.deleteDocument)

	router.Post("/api/v1/chat", s.chat)
	router.Get("/api/v1/chat/transcript", s.transcript)
	router.Post("/api/v1/chat/reset", s.resetChat)

	router.Get("/api/v1/notifications", s.notifications)

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	_, configured := s.creds.Get()
	writeJSON(w, http.StatusOK, map[string]any{
		"service":        "petakom",
		"status":         "ok",
		"credential_set": configured,
		"records":        len(s.engine.Records()),
		"documents":      len(s.engine.Documents()),
		"turns":          len(s.engine.Transcript()),
		"busy":           s.engine.Busy(),
	})
}

func (s *Server) notifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"notifications": s.feed.List()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}
