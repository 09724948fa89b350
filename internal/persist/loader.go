package persist

import (
	"context"
	"fmt"
	"math/rand"

	"spades_server/internal/domain"
	"spades_server/internal/game"
)

// LoadedGame is a game rebuilt from durable rows, ready to be handed to a
// fresh table loop after a restart.
type LoadedGame struct {
	Game  *domain.Game
	Seats []domain.Seat
	State *game.State
	Round *domain.Round // current round row, nil before the first deal
}

// LoadGame reconstructs the live state of one game. Hands are the dealt
// hands minus every card on a persisted trick; the open trick, current
// seat, spades-broken flag and trick tallies all fall out of the same rows.
func (s *Store) LoadGame(ctx context.Context, gameID string, rng *rand.Rand) (*LoadedGame, error) {
	g, err := s.Games.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", gameID, err)
	}
	seats, err := s.Games.GetSeats(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("load seats %s: %w", gameID, err)
	}

	st := game.NewState(g.Settings, rng)
	st.Phase = g.Phase
	st.DealerSeat = g.DealerSeat

	rounds, err := s.Rounds.GetByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("load rounds %s: %w", gameID, err)
	}
	if len(rounds) == 0 {
		return &LoadedGame{Game: g, Seats: seats, State: st}, nil
	}

	current := rounds[len(rounds)-1]
	st.RoundNumber = current.Number

	// Running totals and the bag counter carry from the last scored round.
	for i := len(rounds) - 1; i >= 0; i-- {
		score, err := s.Rounds.GetScores(ctx, rounds[i].ID)
		if err != nil {
			return nil, fmt.Errorf("load scores %s: %w", gameID, err)
		}
		if len(score.Sides) == 0 {
			continue
		}
		for j, side := range score.Sides {
			if j < len(st.Scores) {
				st.Scores[j] = domain.SideScore{
					RunningTotal: side.RunningTotal,
					Bags:         side.Bags,
				}
			}
		}
		break
	}

	bids, err := s.Rounds.GetBids(ctx, current.ID)
	if err != nil {
		return nil, fmt.Errorf("load bids %s: %w", gameID, err)
	}
	for i := range bids {
		b := bids[i]
		st.Bids[b.Seat] = &b
	}

	for seat := 0; seat < domain.PlayersPerGame; seat++ {
		st.Hands[seat] = append([]domain.Card(nil), current.DealtHands[seat]...)
	}

	tricks, err := s.Tricks.GetByRound(ctx, current.ID)
	if err != nil {
		return nil, fmt.Errorf("load tricks %s: %w", gameID, err)
	}
	var open *domain.Trick
	for _, t := range tricks {
		for _, pc := range t.Cards {
			hand, err := domain.RemoveCard(st.Hands[pc.Seat], pc.Card)
			if err != nil {
				return nil, fmt.Errorf("game %s round %d: %w", gameID, current.Number, err)
			}
			st.Hands[pc.Seat] = hand
			if pc.Suit == domain.Spades {
				st.SpadesBroken = true
			}
		}
		if t.WinningSeat != nil {
			st.TricksWon[*t.WinningSeat]++
			st.TricksDone++
		} else {
			open = t
		}
	}
	if open != nil {
		st.Trick = append([]domain.PlayedCard(nil), open.Cards...)
	}

	st.CurrentSeat = currentSeat(st, tricks)
	return &LoadedGame{Game: g, Seats: seats, State: st, Round: current}, nil
}

// currentSeat derives whose turn it is from the reconstructed round.
func currentSeat(st *game.State, tricks []*domain.Trick) int {
	switch st.Phase {
	case domain.PhaseBidding:
		for _, seat := range game.BiddingOrder(st.DealerSeat) {
			if st.Bids[seat] == nil {
				return seat
			}
		}
		return -1
	case domain.PhasePlaying:
		if len(st.Trick) > 0 {
			return (st.Trick[len(st.Trick)-1].Seat + 1) % domain.PlayersPerGame
		}
		// On lead: the last completed trick's winner, or left of the
		// dealer when the round just opened.
		for i := len(tricks) - 1; i >= 0; i-- {
			if tricks[i].WinningSeat != nil {
				return *tricks[i].WinningSeat
			}
		}
		return (st.DealerSeat + 1) % domain.PlayersPerGame
	default:
		return -1
	}
}
