package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/page-engage-bot/internal/config"
)

const (
	serverShutdownTimeout = 5 * time.Second
	serverHeaderTimeout   = 10 * time.Second
	maxPayloadBytes       = 1 << 20
)

// Server exposes the webhook endpoint: the GET verification handshake and
// the POST ingest that hands deliveries to the dispatcher.
type Server struct {
	cfg        *config.Config
	dispatcher *Dispatcher
	logger     *zerolog.Logger
}

func NewServer(cfg *config.Config, dispatcher *Dispatcher, logger *zerolog.Logger) *Server {
	return &Server{
		cfg:        cfg,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /webhook", s.handleVerify)
	mux.HandleFunc("POST /webhook", s.handleEvents)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.WebhookPort),
		Handler:           mux,
		ReadHeaderTimeout: serverHeaderTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)

		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Int("port", s.cfg.WebhookPort).Msg("Webhook server starting")

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("webhook server error: %w", err)
	}

	return nil
}

// handleVerify implements Meta's subscription handshake: echo the raw
// challenge when the verify token matches.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if query.Get("hub.mode") == "subscribe" && query.Get("hub.verify_token") == s.cfg.WebhookVerifyToken {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, query.Get("hub.challenge"))

		return
	}

	s.logger.Warn().Msg("webhook verification token mismatch")
	http.Error(w, "Verification token mismatch", http.StatusForbidden)
}

// handleEvents decodes the delivery and processes it. Malformed payloads are
// logged and acknowledged; Meta redelivers aggressively on non-200s and a
// payload we can't parse today won't parse tomorrow either.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var payload Payload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPayloadBytes)).Decode(&payload); err != nil {
		s.logger.Warn().Err(err).Msg("unparseable webhook payload, dropping")
	} else {
		s.dispatcher.Dispatch(r.Context(), &payload)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, `{"status":"received"}`)
}
