package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-credits-backend/internal/domain"
	"github.com/tbourn/go-credits-backend/internal/repo"
)

// DefaultIdempotencyTTL is how long a stored payment initialization can be
// replayed when no TTL is configured.
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyService remembers the outcome of POST /payments/initialize per
// (user, scope, key) so a retried request returns the original reference.
// It never touches balances.
type IdempotencyService struct {
	DB  *gorm.DB
	TTL time.Duration

	// Now overrides the wall clock (tests). Optional.
	Now func() time.Time
}

func (s *IdempotencyService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *IdempotencyService) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultIdempotencyTTL
	}
	return s.TTL
}

// Exists reports whether an unexpired record is stored. Its signature matches
// the HTTP idempotency middleware lookup.
func (s *IdempotencyService) Exists(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
	_, err := repo.GetIdempotency(ctx, s.DB, userID, scope, key, now)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

// Lookup returns the stored record, or nil when none is live.
func (s *IdempotencyService) Lookup(ctx context.Context, userID, scope, key string) (*domain.Idempotency, error) {
	rec, err := repo.GetIdempotency(ctx, s.DB, userID, scope, key, s.now())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	return rec, err
}

// Remember stores a completed initialization. Losing a race against a
// concurrent request with the same key is not an error.
func (s *IdempotencyService) Remember(ctx context.Context, userID, scope, key, reference, authorizationURL string, status int) error {
	_, err := repo.CreateIdempotency(ctx, s.DB, userID, scope, key, reference, authorizationURL, status, s.ttl())
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

// Purge deletes expired records.
func (s *IdempotencyService) Purge(ctx context.Context) (int64, error) {
	return repo.PurgeExpiredIdempotency(ctx, s.DB, s.now())
}

// RunPurger calls Purge every interval until ctx is done. A non-positive
// interval returns immediately.
func (s *IdempotencyService) RunPurger(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	lg := zerolog.Ctx(ctx)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.Purge(ctx)
			if err != nil {
				lg.Warn().Err(err).Msg("idempotency purge failed")
				continue
			}
			if n > 0 {
				lg.Debug().Int64("deleted", n).Msg("idempotency records purged")
			}
		}
	}
}
