// Package authn stores and checks account passwords with a goHash Engine and
// a credstore.Store.
//
// Credentials computed with outdated cost parameters are recomputed after the
// next successful Authenticate.
package authn

import (
	"context"
	"errors"
	"fmt"

	goHash "github.com/MrEthical07/goHash"
	"github.com/MrEthical07/goHash/credstore"
	"github.com/rs/zerolog"
)

var (
	// ErrInvalidCredentials is returned when the user is unknown or the password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmptyPassword is returned by Enroll for an empty password.
	ErrEmptyPassword = errors.New("empty password")
)

// Service ties an Engine to a credential Store.
type Service struct {
	engine *goHash.Engine
	store  credstore.Store
	logger zerolog.Logger

	// DisableRehash turns off the upgrade of stale credentials on login.
	DisableRehash bool
}

func NewService(engine *goHash.Engine, store credstore.Store, logger zerolog.Logger) *Service {
	return &Service{
		engine: engine,
		store:  store,
		logger: logger.With().Str("component", "authn").Logger(),
	}
}

// Enroll computes a credential for password and stores it, replacing any
// existing one.
func (s *Service) Enroll(ctx context.Context, userID, password string) error {
	if password == "" {
		return ErrEmptyPassword
	}

	cred, err := s.engine.ComputeSync(goHash.WithUserID(ctx, userID), password)
	if err != nil {
		return fmt.Errorf("compute credential: %w", err)
	}
	return s.store.Put(ctx, userID, cred)
}

// Authenticate checks password for userID. Unknown users and wrong passwords
// both return ErrInvalidCredentials. A stored credential that cannot be
// decoded is reported as an error rather than a failed login.
func (s *Service) Authenticate(ctx context.Context, userID, password string) error {
	stored, err := s.store.Get(ctx, userID)
	if errors.Is(err, credstore.ErrNotFound) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return err
	}

	hctx := goHash.WithUserID(ctx, userID)
	ok, err := s.engine.VerifySync(hctx, stored, password)
	if err != nil {
		if goHash.IsMalformed(err) {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("stored credential is malformed")
		}
		return fmt.Errorf("verify credential: %w", err)
	}
	if !ok {
		return ErrInvalidCredentials
	}

	if !s.DisableRehash {
		s.rehash(hctx, userID, stored, password)
	}
	return nil
}

// rehash upgrades a credential produced with outdated parameters. Failures
// are logged; the login itself already succeeded.
func (s *Service) rehash(ctx context.Context, userID, stored, password string) {
	stale, err := s.engine.NeedsUpgrade(stored)
	if err != nil || !stale {
		return
	}

	updated, err := s.engine.ComputeSync(ctx, password)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("rehash failed")
		return
	}

	switch err := s.store.Replace(ctx, userID, stored, updated); {
	case err == nil:
		s.logger.Debug().Str("user_id", userID).Msg("credential upgraded")
	case errors.Is(err, credstore.ErrConflict), errors.Is(err, credstore.ErrNotFound):
		s.logger.Debug().Str("user_id", userID).Msg("credential changed during rehash, skipping")
	default:
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("rehash store update failed")
	}
}

// ChangePassword replaces the credential after verifying the current password.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	if next == "" {
		return ErrEmptyPassword
	}

	stored, err := s.store.Get(ctx, userID)
	if errors.Is(err, credstore.ErrNotFound) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return err
	}

	hctx := goHash.WithUserID(ctx, userID)
	ok, err := s.engine.VerifySync(hctx, stored, current)
	if err != nil {
		return fmt.Errorf("verify credential: %w", err)
	}
	if !ok {
		return ErrInvalidCredentials
	}

	updated, err := s.engine.ComputeSync(hctx, next)
	if err != nil {
		return fmt.Errorf("compute credential: %w", err)
	}
	return s.store.Replace(ctx, userID, stored, updated)
}

// Remove deletes the user's credential.
func (s *Service) Remove(ctx context.Context, userID string) error {
	return s.store.Delete(ctx, userID)
}
