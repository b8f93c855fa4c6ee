// Package services contains server-side business logic. This file implements
// PilotService, which owns the credential record lifecycle: registration
// with an optional fingerprint image, lookup, deletion and credential checks.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/pilotkeeper/internal/common"
	"github.com/dmitrijs2005/pilotkeeper/internal/dbx"
	"github.com/dmitrijs2005/pilotkeeper/internal/logging"
	"github.com/dmitrijs2005/pilotkeeper/internal/server/artifacts"
	"github.com/dmitrijs2005/pilotkeeper/internal/server/auth"
	"github.com/dmitrijs2005/pilotkeeper/internal/server/config"
	"github.com/dmitrijs2005/pilotkeeper/internal/server/models"
	"github.com/dmitrijs2005/pilotkeeper/internal/server/repositories/repomanager"
)

// bcrypt ignores input past this length, so longer passwords are refused.
const maxPasswordBytes = 72

// RegisterInput is a registration request as received from the client.
// Numeric fields are still raw strings; Create validates them.
type RegisterInput struct {
	Username string
	Password string
	DroneID  string
	PilotID  string
	Address  string

	// Image is nil when no fingerprint image was uploaded.
	Image     io.Reader
	ImageName string
}

type PilotService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	artifacts     artifacts.Store
	passwordCost  int
	purgeOnDelete bool
	logger        logging.Logger
}

func NewPilotService(db *sql.DB, m repomanager.RepositoryManager, store artifacts.Store, cfg *config.Config, logger logging.Logger) *PilotService {
	return &PilotService{
		db:            db,
		repomanager:   m,
		artifacts:     store,
		passwordCost:  cfg.PasswordCost,
		purgeOnDelete: cfg.PurgeArtifactsOnDelete,
		logger:        logger.With("module", "pilots"),
	}
}

// Create registers a pilot. The image, when present, is stored first; if the
// record insert then fails the stored image is removed again.
func (s *PilotService) Create(ctx context.Context, in RegisterInput) (int64, error) {
	pilot, err := s.validate(in)
	if err != nil {
		return 0, err
	}

	hash, err := auth.HashPassword(in.Password, s.passwordCost)
	if err != nil {
		return 0, err
	}
	pilot.PasswordHash = hash

	if in.Image != nil {
		locator, err := s.artifacts.Save(ctx, in.Image, in.ImageName)
		if err != nil {
			return 0, err
		}
		pilot.FingerprintImagePath = &locator
	}

	id, err := s.repomanager.Pilots(s.db).Create(ctx, pilot)
	if err != nil {
		if pilot.FingerprintImagePath != nil {
			s.discardArtifact(ctx, *pilot.FingerprintImagePath)
		}
		return 0, err
	}

	s.logger.Info(ctx, "pilot registered", "pilot_id", id, "has_image", pilot.FingerprintImagePath != nil)
	return id, nil
}

func (s *PilotService) Get(ctx context.Context, pilotID int64) (*models.Pilot, error) {
	return s.repomanager.Pilots(s.db).FindByID(ctx, pilotID)
}

// Delete removes the record for pilotID. The fingerprint image is left in
// place unless purge-on-delete is enabled.
func (s *PilotService) Delete(ctx context.Context, pilotID int64) error {
	var deleted *models.Pilot

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Pilots(tx)

		p, err := repo.FindByID(ctx, pilotID)
		if err != nil {
			return err
		}

		n, err := repo.DeleteByID(ctx, pilotID)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("pilot %d: %w", pilotID, common.ErrorNotFound)
		}

		deleted = p
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorStorage) {
			return err
		}
		return fmt.Errorf("%w: delete pilot %d: %w", common.ErrorStorage, pilotID, err)
	}

	s.logger.Info(ctx, "pilot deleted", "pilot_id", pilotID)

	if s.purgeOnDelete && deleted.FingerprintImagePath != nil {
		s.discardArtifact(ctx, *deleted.FingerprintImagePath)
	}
	return nil
}

// FindByCredentials returns the first record, in creation order, whose
// username matches exactly and whose password hash accepts password.
func (s *PilotService) FindByCredentials(ctx context.Context, username, password string) (*models.Pilot, error) {
	candidates, err := s.repomanager.Pilots(s.db).FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	for _, p := range candidates {
		if auth.CheckPassword(p.PasswordHash, password) {
			return p, nil
		}
	}

	return nil, fmt.Errorf("credentials for %q: %w", username, common.ErrorNotFound)
}

func (s *PilotService) validate(in RegisterInput) (*models.Pilot, error) {
	if in.Username == "" {
		return nil, fmt.Errorf("%w: username is required", common.ErrorValidation)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required", common.ErrorValidation)
	}
	if len(in.Password) > maxPasswordBytes {
		return nil, fmt.Errorf("%w: password longer than %d bytes", common.ErrorValidation, maxPasswordBytes)
	}

	pilotID, err := strconv.ParseInt(strings.TrimSpace(in.PilotID), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: pilotid must be an integer", common.ErrorValidation)
	}
	droneID, err := strconv.ParseInt(strings.TrimSpace(in.DroneID), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: droneid must be an integer", common.ErrorValidation)
	}

	return &models.Pilot{
		PilotID:  pilotID,
		Username: in.Username,
		DroneID:  droneID,
		Address:  in.Address,
	}, nil
}

// discardArtifact removes an image nobody references any more. Failures are
// logged only.
func (s *PilotService) discardArtifact(ctx context.Context, locator string) {
	if err := s.artifacts.Delete(ctx, locator); err != nil && !errors.Is(err, common.ErrorNotFound) {
		s.logger.Warn(ctx, "artifact cleanup failed", "locator", locator, "error", err)
	}
}
