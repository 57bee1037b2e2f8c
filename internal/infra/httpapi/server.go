package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"voice-email/internal/application"
	"voice-email/internal/domain"
)

const (
	maxAudioBytes = 10 * 1024 * 1024
	maxJSONBytes  = 64 * 1024
)

type Config struct {
	Addr         string
	AuthToken    string
	RatePerMin   int
	TrustProxy   bool
	MetricsRoute http.Handler
}

// Server exposes the two pipeline phases over HTTP.
type Server struct {
	cfg      Config
	sessions *application.Sessions
	stt      application.SpeechToText
	logger   *slog.Logger
	router   chi.Router
}

func NewServer(cfg Config, sessions *application.Sessions, stt application.SpeechToText, logger *slog.Logger) *Server {
	if stt == nil {
		stt = &application.NoopSTT{}
	}
	s := &Server{
		cfg:      cfg,
		sessions: sessions,
		stt:      stt,
		logger:   logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Logging(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "voice-email")
	})

	// No auth or rate limiting on probes
	r.Get("/health", s.handleHealth)
	if s.cfg.MetricsRoute != nil {
		r.Method(http.MethodGet, "/metrics", s.cfg.MetricsRoute)
	}

	limiter := NewRateLimiter(s.cfg.RatePerMin, s.cfg.TrustProxy)
	r.Route("/sessions/{session}", func(r chi.Router) {
		r.Use(TokenAuth(s.cfg.AuthToken, s.logger))
		r.Use(limiter.Middleware)

		r.Post("/drafts", s.handleDraft)
		r.Get("/draft", s.handlePending)
		r.Post("/drafts/{draft}/confirm", s.handleConfirm)
	})

	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("graceful shutdown failed, forcing close", "error", err)
		if err := srv.Close(); err != nil {
			return fmt.Errorf("closing server: %w", err)
		}
	}
	return ctx.Err()
}

type draftBody struct {
	Text         string `json:"text"`
	OverrideName string `json:"override_name"`
}

type confirmBody struct {
	Confirmed *bool `json:"confirmed"`
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	session := chi.URLParam(r, "session")
	req := application.DraftRequest{OverrideName: r.URL.Query().Get("override_name")}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch {
	case mediaType == "application/json":
		var body draftBody
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.Utterance = body.Text
		if body.OverrideName != "" {
			req.OverrideName = body.OverrideName
		}

	case strings.HasPrefix(mediaType, "audio/") || mediaType == "application/octet-stream":
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAudioBytes))
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("audio body exceeds %d bytes", tooLarge.Limit))
			return
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read body")
			return
		}
		s.logger.Info("received audio via HTTP", "session", session, "bytes", len(data))

		// An unusable recording becomes an empty transcript; the record stage reports it.
		text, err := s.stt.Transcribe(r.Context(), data)
		if err != nil {
			s.logger.Warn("transcribing upload", "session", session, "error", err)
			text = ""
		}
		req.Utterance = text

	default:
		writeError(w, http.StatusUnsupportedMediaType, "expected application/json or audio/* body")
		return
	}

	state, err := s.sessions.Draft(r.Context(), session, req)
	if err != nil {
		s.logger.Error("drafting", "session", session, "error", err)
		writeError(w, http.StatusInternalServerError, "draft could not be stored")
		return
	}

	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	state, err := s.sessions.Pending(r.Context(), chi.URLParam(r, "session"))
	if application.IsNoPendingDraft(err) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var body confirmBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Confirmed == nil {
		writeError(w, http.StatusBadRequest, `missing "confirmed" field`)
		return
	}

	session := chi.URLParam(r, "session")
	state, err := s.sessions.Confirm(r.Context(), session, domain.Confirmation{
		DraftID:   chi.URLParam(r, "draft"),
		Confirmed: *body.Confirmed,
	})

	switch {
	case application.IsNoPendingDraft(err):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrStaleConfirmation):
		writeJSON(w, http.StatusConflict, state)
	case err != nil:
		s.logger.Error("confirming", "session", session, "error", err)
		writeError(w, http.StatusInternalServerError, "confirmation failed")
	default:
		writeJSON(w, http.StatusOK, state)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
