package game

import (
	"fmt"
	"math/rand"

	"spades_server/internal/domain"
)

// State is the live, in-memory state of one game. It is pure: methods
// validate and apply intents and report what happened, and the caller (the
// table loop) owns timing, persistence, and broadcast. State is not safe
// for concurrent use; the table loop serializes access.
type State struct {
	Settings    domain.Settings
	Phase       domain.GamePhase
	DealerSeat  int
	RoundNumber int

	Hands       [4][]domain.Card
	Bids        [4]*domain.Bid
	CurrentSeat int
	Trick       []domain.PlayedCard
	TricksDone  int
	TricksWon   [4]int

	SpadesBroken bool
	Scores       []domain.SideScore
	Outcome      *GameOutcome

	rng *rand.Rand
}

// PlayResult describes the consequences of one applied card. TrickWinner is
// set when the card closed a trick; RoundScores when it closed the round;
// Outcome when it ended the game.
type PlayResult struct {
	TrickWinner *int
	RoundScores []domain.SideScore
	Outcome     *GameOutcome
}

func NewState(settings domain.Settings, rng *rand.Rand) *State {
	return &State{
		Settings:    settings,
		Phase:       domain.PhaseWaiting,
		DealerSeat:  domain.PlayersPerGame - 1,
		CurrentSeat: -1,
		Scores:      make([]domain.SideScore, sideCount(settings.Mode)),
		rng:         rng,
	}
}

// StartRound deals a fresh hand and opens bidding left of the dealer.
func (s *State) StartRound() error {
	if s.Phase != domain.PhaseWaiting && s.Phase != domain.PhaseHandSummary {
		return fmt.Errorf("%w: cannot deal during %s", ErrWrongPhase, s.Phase)
	}
	if s.Phase == domain.PhaseHandSummary {
		s.DealerSeat = NextDealer(s.DealerSeat)
	}
	s.RoundNumber++
	s.Hands = Deal(s.DealerSeat, s.rng)
	s.Bids = [4]*domain.Bid{}
	s.Trick = nil
	s.TricksDone = 0
	s.TricksWon = [4]int{}
	s.SpadesBroken = false
	s.Phase = domain.PhaseBidding
	s.CurrentSeat = (s.DealerSeat + 1) % domain.PlayersPerGame
	return nil
}

func (s *State) bidContext(seat int) BidContext {
	return BidContext{
		Hand:       s.Hands[seat],
		Seat:       seat,
		DealerSeat: s.DealerSeat,
		Placed:     s.Bids,
		Settings:   s.Settings,
	}
}

// ApplyBid records one seat's bid. When the fourth bid lands, play opens
// with the seat left of the dealer on lead.
func (s *State) ApplyBid(seat, value int, isNil, isBlindNil bool) error {
	if s.Phase == domain.PhaseFinished {
		return ErrGameFinished
	}
	if s.Phase != domain.PhaseBidding {
		return fmt.Errorf("%w: bidding is closed", ErrWrongPhase)
	}
	if seat != s.CurrentSeat {
		return ErrNotYourTurn
	}
	if err := ValidateBid(s.bidContext(seat), value, isNil, isBlindNil); err != nil {
		return err
	}
	s.Bids[seat] = &domain.Bid{
		Seat:       seat,
		Value:      value,
		IsNil:      isNil || isBlindNil,
		IsBlindNil: isBlindNil,
	}
	if s.biddingComplete() {
		s.Phase = domain.PhasePlaying
		s.CurrentSeat = (s.DealerSeat + 1) % domain.PlayersPerGame
		return nil
	}
	s.CurrentSeat = (s.CurrentSeat + 1) % domain.PlayersPerGame
	return nil
}

func (s *State) biddingComplete() bool {
	for _, b := range s.Bids {
		if b == nil {
			return false
		}
	}
	return true
}

// ApplyPlay validates and applies one card, resolving the trick and the
// round when this card completes them.
func (s *State) ApplyPlay(seat int, card domain.Card) (PlayResult, error) {
	if s.Phase == domain.PhaseFinished {
		return PlayResult{}, ErrGameFinished
	}
	if s.Phase != domain.PhasePlaying {
		return PlayResult{}, fmt.Errorf("%w: not in play", ErrWrongPhase)
	}
	if seat != s.CurrentSeat {
		return PlayResult{}, ErrNotYourTurn
	}
	if !domain.HandContains(s.Hands[seat], card) {
		return PlayResult{}, fmt.Errorf("%w: %s", ErrCardNotInHand, card)
	}
	if !CanPlay(s.Hands[seat], card, s.Trick, s.SpadesBroken, s.Settings.Special) {
		return PlayResult{}, fmt.Errorf("%w: %s", ErrIllegalCard, card)
	}

	hand, err := domain.RemoveCard(s.Hands[seat], card)
	if err != nil {
		return PlayResult{}, err
	}
	s.Hands[seat] = hand
	if BreaksSpades(card, s.Trick) {
		s.SpadesBroken = true
	}
	s.Trick = append(s.Trick, domain.PlayedCard{Card: card, Seat: seat})

	if len(s.Trick) < domain.PlayersPerGame {
		s.CurrentSeat = (s.CurrentSeat + 1) % domain.PlayersPerGame
		return PlayResult{}, nil
	}

	winner := s.Trick[TrickWinner(s.Trick)].Seat
	s.TricksWon[winner]++
	s.TricksDone++
	s.Trick = nil
	s.CurrentSeat = winner
	res := PlayResult{TrickWinner: &winner}

	if s.TricksDone < domain.TricksPerRound {
		return res, nil
	}

	s.Scores = ScoreRound(s.Settings, s.Bids, s.TricksWon, s.Scores)
	res.RoundScores = s.Scores
	outcome := CheckGameEnd(s.Settings, s.Scores, s.RoundNumber)
	if outcome.Finished {
		s.Outcome = &outcome
		s.Phase = domain.PhaseFinished
		s.CurrentSeat = -1
		res.Outcome = &outcome
		return res, nil
	}
	s.Phase = domain.PhaseHandSummary
	s.CurrentSeat = -1
	return res, nil
}

// SuggestBidFor synthesizes a legal bid for the seat, used for bot turns
// and expired human turns.
func (s *State) SuggestBidFor(seat int) (int, bool) {
	return SuggestBid(s.bidContext(seat))
}

// SuggestPlayFor picks a legal card for the seat.
func (s *State) SuggestPlayFor(seat int) domain.Card {
	return SuggestPlay(PlayContext{
		Hand:         s.Hands[seat],
		Seat:         seat,
		Trick:        s.Trick,
		SpadesBroken: s.SpadesBroken,
		Rules:        s.Settings.Special,
		OwnBid:       s.Bids[seat],
	})
}

// LegalPlaysFor exposes the legal card set for a seat, for client hints.
func (s *State) LegalPlaysFor(seat int) []domain.Card {
	if s.Phase != domain.PhasePlaying || seat != s.CurrentSeat {
		return nil
	}
	return LegalPlays(s.Hands[seat], s.Trick, s.SpadesBroken, s.Settings.Special)
}
