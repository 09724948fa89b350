package service

import (
	"context"
	"time"

	"spades_server/internal/logger"
	"spades_server/internal/persist"
)

// CleanupService sweeps games that stopped making progress: unfinished rows
// whose updated_at is older than maxAge. Each hit is removed entirely, bot
// users included, so abandoned tables do not pile up.
type CleanupService struct {
	store  *persist.Store
	maxAge time.Duration
	period time.Duration
}

func NewCleanupService(store *persist.Store, maxAge, period time.Duration) *CleanupService {
	return &CleanupService{store: store, maxAge: maxAge, period: period}
}

// Start runs the sweep loop until ctx is cancelled.
func (s *CleanupService) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.SweepOnce(ctx)
			}
		}
	}()
}

// SweepOnce removes every stuck game found. It returns the number removed
// so the admin tool can report it.
func (s *CleanupService) SweepOnce(ctx context.Context) int {
	stuck, err := s.store.Games.FindStuck(ctx, s.maxAge)
	if err != nil {
		logger.Error("stuck game sweep failed", "err", err)
		return 0
	}
	removed := 0
	for _, g := range stuck {
		botIDs, err := s.store.Games.BotSeatUserIDs(ctx, g.ID)
		if err != nil {
			logger.Error("stuck game bot lookup failed", "game_id", g.ID, "err", err)
			continue
		}
		if err := s.store.Games.ForceDelete(ctx, g.ID); err != nil {
			logger.Error("stuck game delete failed", "game_id", g.ID, "err", err)
			continue
		}
		if err := s.store.Users.DeleteBots(ctx, botIDs); err != nil {
			logger.Error("stuck game bot cleanup failed", "game_id", g.ID, "err", err)
		}
		logger.Info("removed stuck game",
			"game_id", g.ID,
			"phase", g.Phase,
			"idle_since", g.UpdatedAt,
			"bots_removed", len(botIDs),
		)
		removed++
	}
	return removed
}
