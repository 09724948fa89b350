package game

import (
	"spades_server/internal/domain"
)

const (
	trickPoints    = 10
	whizExactBonus = 20
	mirrorExact    = 15
	nilBonus       = 100
	blindNilBonus  = 200
	bagLimit       = 10
	bagPenalty     = 100
)

// sideCount returns the number of scoring sides for a mode: two partnerships
// or four solo players.
func sideCount(mode domain.GameMode) int {
	if mode == domain.ModeSolo {
		return domain.PlayersPerGame
	}
	return 2
}

func sideOf(mode domain.GameMode, seat int) int {
	if mode == domain.ModeSolo {
		return seat
	}
	return domain.Team(mode, seat)
}

// ScoreRound totals a finished round. Carry holds each side's running total
// and accumulated bags from previous rounds; the returned scores embed the
// updated running values.
//
// Nil bids score independently of the side's covering bid: the covering bid
// is judged against the side's combined tricks, while the nil bidder's own
// tricks decide the nil bonus or penalty.
func ScoreRound(settings domain.Settings, bids [4]*domain.Bid, tricksWon [4]int, carry []domain.SideScore) []domain.SideScore {
	n := sideCount(settings.Mode)
	out := make([]domain.SideScore, n)
	for i := range out {
		if i < len(carry) {
			out[i].RunningTotal = carry[i].RunningTotal
			out[i].Bags = carry[i].Bags
		}
	}

	for seat := 0; seat < domain.PlayersPerGame; seat++ {
		bid := bids[seat]
		if bid == nil {
			continue
		}
		s := &out[sideOf(settings.Mode, seat)]
		s.Tricks += tricksWon[seat]
		if bid.IsNil {
			bonus := nilBonus
			if bid.IsBlindNil {
				bonus = blindNilBonus
			}
			if tricksWon[seat] == 0 {
				s.NilBonus += bonus
			} else {
				s.NilBonus -= bonus
			}
			continue
		}
		s.Bid += bid.Value
	}

	for i := range out {
		s := &out[i]
		scoreTricks(settings.BidType, s)
		// Ten bags costs a hundred points; leftover bags carry forward.
		s.Bags += s.BagScore
		if s.Bags >= bagLimit {
			s.BagPenalty = -bagPenalty
			s.Bags -= bagLimit
		}
		s.RoundTotal = s.TrickScore + s.BagScore + s.BagPenalty + s.NilBonus
		s.RunningTotal += s.RoundTotal
	}
	return out
}

func scoreTricks(bidType domain.BidType, s *domain.SideScore) {
	if s.Bid == 0 {
		return
	}
	made := s.Tricks >= s.Bid
	exact := s.Tricks == s.Bid
	switch {
	case !made:
		s.TrickScore = -s.Bid * trickPoints
	case bidType == domain.BidWhiz && exact:
		s.TrickScore = s.Bid * whizExactBonus
	case bidType == domain.BidMirror && exact:
		s.TrickScore = s.Bid * mirrorExact
	default:
		s.TrickScore = s.Bid * trickPoints
		s.BagScore = s.Tricks - s.Bid
	}
}

// GameOutcome reports whether the game is over and which side won.
type GameOutcome struct {
	Finished    bool
	WinningSide int
}

// CheckGameEnd applies the point ceiling and floor after a scored round.
// Crossing the ceiling wins; crossing the floor loses for that side. When
// sides cross both bounds in the same round, the higher total wins. A
// MaxRounds limit ends the game at the round count with the highest total
// winning outright.
func CheckGameEnd(settings domain.Settings, scores []domain.SideScore, roundsPlayed int) GameOutcome {
	if settings.MaxRounds > 0 && roundsPlayed >= settings.MaxRounds {
		return GameOutcome{Finished: true, WinningSide: topSide(scores)}
	}

	over, under := false, false
	for _, s := range scores {
		if s.RunningTotal >= settings.MaxPoints {
			over = true
		}
		if s.RunningTotal <= settings.MinPoints {
			under = true
		}
	}
	if !over && !under {
		return GameOutcome{}
	}
	if over {
		return GameOutcome{Finished: true, WinningSide: topSide(scores)}
	}
	// Only the floor was crossed: the side that fell loses, so the best
	// remaining total wins. With two sides that is simply the other side;
	// solo games may have several survivors, ranked by total.
	best, bestSide := 0, -1
	for i, s := range scores {
		if s.RunningTotal <= settings.MinPoints {
			continue
		}
		if bestSide == -1 || s.RunningTotal > best {
			best, bestSide = s.RunningTotal, i
		}
	}
	if bestSide == -1 {
		bestSide = topSide(scores)
	}
	return GameOutcome{Finished: true, WinningSide: bestSide}
}

func topSide(scores []domain.SideScore) int {
	top := 0
	for i := 1; i < len(scores); i++ {
		if scores[i].RunningTotal > scores[top].RunningTotal {
			top = i
		}
	}
	return top
}
