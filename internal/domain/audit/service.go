package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Service records and queries the security trail. Recording is best-effort:
// a failed write is logged and never blocks the action that produced it.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record stamps and persists an event. The returned error is diagnostic
// only; callers on request paths ignore it after logging.
func (s *Service) Record(ctx context.Context, ev Event) error {
	if ev.Recorded.IsZero() {
		ev.Recorded = time.Now().UTC()
	}
	if err := s.repo.Insert(ctx, &ev); err != nil {
		s.logger.Error().Err(err).
			Str("action", string(ev.Action)).
			Msg("audit write failed")
		return err
	}
	return nil
}

func (s *Service) Search(ctx context.Context, f Filter, limit, offset int) ([]*Event, int, error) {
	return s.repo.Search(ctx, f, limit, offset)
}
