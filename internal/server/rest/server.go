// Package rest exposes the pilotkeeper services over HTTP/JSON.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/pilotkeeper/internal/logging"
	"github.com/dmitrijs2005/pilotkeeper/internal/server/config"
	"github.com/dmitrijs2005/pilotkeeper/internal/server/models"
	"github.com/dmitrijs2005/pilotkeeper/internal/server/services"
	"github.com/dmitrijs2005/pilotkeeper/internal/server/sessions"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// PilotService is the credential-record part of the API.
type PilotService interface {
	Create(ctx context.Context, in services.RegisterInput) (int64, error)
	Get(ctx context.Context, pilotID int64) (*models.Pilot, error)
	Delete(ctx context.Context, pilotID int64) error
}

// AuthService is the sign-in/sign-out part of the API.
type AuthService interface {
	Authenticate(ctx context.Context, sessionID, username, password string) (*services.AuthResult, error)
	Logout(ctx context.Context, sessionID string) error
	CurrentPilot(ctx context.Context, sessionID string) (*models.Pilot, error)
}

type HTTPServer struct {
	address         string
	pilots          PilotService
	auth            AuthService
	signer          *sessions.Signer
	logger          logging.Logger
	maxRequestBytes int64
	sessionTTL      time.Duration
	corsOrigins     []string
}

func NewHTTPServer(cfg *config.Config, l logging.Logger, ps PilotService, as AuthService, signer *sessions.Signer) *HTTPServer {
	return &HTTPServer{
		address:         cfg.EndpointAddrHTTP,
		pilots:          ps,
		auth:            as,
		signer:          signer,
		logger:          l.With("module", "http_server"),
		maxRequestBytes: cfg.MaxRequestBytes,
		sessionTTL:      cfg.SessionValidityDuration,
		corsOrigins:     cfg.CORSOrigins,
	}
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(ctx, "HTTP server shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", ln.Addr().String())

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
