package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pilotkeeper/internal/common"
	"github.com/dmitrijs2005/pilotkeeper/internal/logging"
	"github.com/dmitrijs2005/pilotkeeper/internal/server/artifacts"
	"github.com/dmitrijs2005/pilotkeeper/internal/server/auth"
	"github.com/dmitrijs2005/pilotkeeper/internal/server/config"
	"github.com/dmitrijs2005/pilotkeeper/internal/server/models"
	"github.com/dmitrijs2005/pilotkeeper/internal/server/sessions"
)

// CredentialFinder looks a pilot up by username and password.
type CredentialFinder interface {
	FindByCredentials(ctx context.Context, username, password string) (*models.Pilot, error)
}

// AuthResult is returned on successful authentication.
type AuthResult struct {
	Token            string
	FingerprintImage []byte
	Pilot            *models.Pilot
}

// AuthService signs pilots in and out. A successful sign-in yields a token
// carrying the image locator, the image bytes and a server-side session.
type AuthService struct {
	credentials   CredentialFinder
	artifacts     artifacts.Store
	sessions      sessions.Store
	jwtSecret     []byte
	tokenValidity time.Duration
	logger        logging.Logger
}

func NewAuthService(finder CredentialFinder, store artifacts.Store, sess sessions.Store, cfg *config.Config, logger logging.Logger) *AuthService {
	return &AuthService{
		credentials:   finder,
		artifacts:     store,
		sessions:      sess,
		jwtSecret:     []byte(cfg.SecretKey),
		tokenValidity: cfg.TokenValidityDuration,
		logger:        logger.With("module", "auth"),
	}
}

// Authenticate checks the credentials and, on success, binds the pilot to
// sessionID. Nothing is bound when the fingerprint image cannot be read.
//
// Errors: common.ErrorNotFound when no record matches, common.ErrorStorage
// on lookup failure, common.ErrorIO when the image is missing or unreadable.
func (s *AuthService) Authenticate(ctx context.Context, sessionID, username, password string) (*AuthResult, error) {
	pilot, err := s.credentials.FindByCredentials(ctx, username, password)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Info(ctx, "sign-in rejected", "username", username)
		}
		return nil, err
	}

	token, err := auth.GenerateToken(pilot.FingerprintImagePath, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	if pilot.FingerprintImagePath == nil {
		return nil, fmt.Errorf("%w: pilot %d has no fingerprint image", common.ErrorIO, pilot.PilotID)
	}
	// The load error is flattened so a missing file is not reported as an
	// unknown pilot.
	image, err := s.artifacts.Load(ctx, *pilot.FingerprintImagePath)
	if err != nil {
		return nil, fmt.Errorf("%w: fingerprint image of pilot %d: %v", common.ErrorIO, pilot.PilotID, err)
	}

	if err := s.sessions.Put(ctx, sessionID, pilot); err != nil {
		return nil, fmt.Errorf("bind session: %w", err)
	}

	s.logger.Info(ctx, "pilot signed in", "pilot_id", pilot.PilotID)
	return &AuthResult{Token: token, FingerprintImage: image, Pilot: pilot}, nil
}

// Logout destroys the session. An empty id means there is nothing to destroy.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("%w: %w", common.ErrorSessionTeardown, err)
	}
	return nil
}

// CurrentPilot returns the pilot bound to sessionID, or
// common.ErrorUnauthorized when the session is unknown or expired.
func (s *AuthService) CurrentPilot(ctx context.Context, sessionID string) (*models.Pilot, error) {
	if sessionID == "" {
		return nil, common.ErrorUnauthorized
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}

	return &sess.Pilot, nil
}
