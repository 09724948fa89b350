package persist

import (
	"context"

	"spades_server/internal/domain"
	"spades_server/internal/repository"
)

// Store bundles the repositories a game needs for durable writes.
type Store struct {
	Games  *repository.GameRepository
	Rounds *repository.RoundRepository
	Tricks *repository.TrickRepository
	Users  *repository.UserRepository
}

func NewStore(games *repository.GameRepository, rounds *repository.RoundRepository,
	tricks *repository.TrickRepository, users *repository.UserRepository) *Store {
	return &Store{Games: games, Rounds: rounds, Tricks: tricks, Users: users}
}

// Snapshot is one durable view of a game, captured inside the table loop
// and written asynchronously. It carries the whole current round so that a
// write of the newest snapshot subsumes any skipped older one from the same
// round: every insert it produces is an upsert keyed on natural ids.
type Snapshot struct {
	Game   domain.Game
	Round  *domain.Round      // nil before the first deal
	Bids   []domain.Bid       // all bids placed this round
	Tricks []*domain.Trick    // this round's tricks, open trick last
	Scores *domain.RoundScore // set once the round has been scored
}

// write applies a snapshot to the database in dependency order.
func (s *Store) write(ctx context.Context, snap *Snapshot) error {
	if err := s.Games.UpdateProgress(ctx, &snap.Game); err != nil {
		return err
	}
	if snap.Round == nil {
		return nil
	}
	// Create is an upsert on (game_id, round_number): it resolves the
	// round id whether or not an earlier snapshot already inserted it.
	if err := s.Rounds.Create(ctx, snap.Round); err != nil {
		return err
	}
	for i := range snap.Bids {
		snap.Bids[i].RoundID = snap.Round.ID
		if err := s.Rounds.SaveBid(ctx, &snap.Bids[i]); err != nil {
			return err
		}
	}
	for _, t := range snap.Tricks {
		t.RoundID = snap.Round.ID
		if err := s.Tricks.Save(ctx, t); err != nil {
			return err
		}
	}
	if snap.Scores != nil {
		snap.Scores.RoundID = snap.Round.ID
		if err := s.Rounds.SaveScores(ctx, snap.Scores); err != nil {
			return err
		}
	}
	return nil
}
