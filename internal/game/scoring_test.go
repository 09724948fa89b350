package game

import (
	"testing"

	"spades_server/internal/domain"
)

func bidOf(seat, value int) *domain.Bid {
	return &domain.Bid{Seat: seat, Value: value}
}

func nilBidOf(seat int, blind bool) *domain.Bid {
	return &domain.Bid{Seat: seat, IsNil: true, IsBlindNil: blind}
}

func TestScoreRoundPartners(t *testing.T) {
	settings := regularSettings()
	bids := [4]*domain.Bid{bidOf(0, 4), bidOf(1, 3), bidOf(2, 2), bidOf(3, 3)}

	t.Run("made with bags", func(t *testing.T) {
		// Side 0 (seats 0+2) bid 6, took 8: 60 plus two bags.
		tricks := [4]int{5, 3, 3, 2}
		scores := ScoreRound(settings, bids, tricks, nil)
		if scores[0].TrickScore != 60 || scores[0].BagScore != 2 {
			t.Errorf("side 0 = %+v, want trick 60 bags 2", scores[0])
		}
		if scores[0].RoundTotal != 62 {
			t.Errorf("side 0 total = %d, want 62", scores[0].RoundTotal)
		}
		// Side 1 bid 6, took 5: set for -60.
		if scores[1].RoundTotal != -60 {
			t.Errorf("side 1 total = %d, want -60", scores[1].RoundTotal)
		}
	})

	t.Run("nil scores independently of the covering bid", func(t *testing.T) {
		nilBids := [4]*domain.Bid{bidOf(0, 5), bidOf(1, 4), nilBidOf(2, false), bidOf(3, 4)}
		// Seat 2's nil holds; side 0's 5-bid is judged on combined tricks.
		tricks := [4]int{5, 4, 0, 4}
		scores := ScoreRound(settings, nilBids, tricks, nil)
		if scores[0].NilBonus != 100 {
			t.Errorf("nil bonus = %d, want 100", scores[0].NilBonus)
		}
		if scores[0].TrickScore != 50 {
			t.Errorf("trick score = %d, want 50", scores[0].TrickScore)
		}

		// Broken nil: the bonus flips to a penalty, covering bid unchanged.
		tricks = [4]int{5, 4, 1, 3}
		scores = ScoreRound(settings, nilBids, tricks, nil)
		if scores[0].NilBonus != -100 {
			t.Errorf("broken nil bonus = %d, want -100", scores[0].NilBonus)
		}
	})

	t.Run("blind nil doubles", func(t *testing.T) {
		nilBids := [4]*domain.Bid{bidOf(0, 5), bidOf(1, 4), nilBidOf(2, true), bidOf(3, 4)}
		tricks := [4]int{6, 4, 0, 3}
		scores := ScoreRound(settings, nilBids, tricks, nil)
		if scores[0].NilBonus != 200 {
			t.Errorf("blind nil bonus = %d, want 200", scores[0].NilBonus)
		}
	})
}

func TestScoreRoundBagPenaltyCarries(t *testing.T) {
	settings := regularSettings()
	carry := []domain.SideScore{{RunningTotal: 100, Bags: 8}, {RunningTotal: 90}}
	bids := [4]*domain.Bid{bidOf(0, 2), bidOf(1, 4), bidOf(2, 3), bidOf(3, 4)}
	// Side 0 bid 5, took 8: three fresh bags on top of eight carried
	// crosses ten, costing 100 and leaving one bag on the counter.
	tricks := [4]int{4, 4, 4, 1}
	scores := ScoreRound(settings, bids, tricks, carry)

	if scores[0].BagPenalty != -100 {
		t.Errorf("bag penalty = %d, want -100", scores[0].BagPenalty)
	}
	if scores[0].Bags != 1 {
		t.Errorf("bags after penalty = %d, want 1", scores[0].Bags)
	}
	// 50 trick points + 3 bag points - 100 penalty = -47 on the round.
	if scores[0].RoundTotal != -47 {
		t.Errorf("round total = %d, want -47", scores[0].RoundTotal)
	}
	if scores[0].RunningTotal != 53 {
		t.Errorf("running total = %d, want 53", scores[0].RunningTotal)
	}
}

func TestScoreRoundExactBidRewards(t *testing.T) {
	bids := [4]*domain.Bid{bidOf(0, 3), bidOf(1, 4), bidOf(2, 2), bidOf(3, 4)}
	tricks := [4]int{3, 4, 2, 4}

	whiz := regularSettings()
	whiz.BidType = domain.BidWhiz
	scores := ScoreRound(whiz, bids, tricks, nil)
	if scores[0].TrickScore != 100 {
		t.Errorf("whiz exact = %d, want 5*20=100", scores[0].TrickScore)
	}

	mirror := regularSettings()
	mirror.BidType = domain.BidMirror
	scores = ScoreRound(mirror, bids, tricks, nil)
	if scores[0].TrickScore != 75 {
		t.Errorf("mirror exact = %d, want 5*15=75", scores[0].TrickScore)
	}

	// Overtricks fall back to the regular rate plus bags.
	over := [4]int{4, 4, 2, 3}
	scores = ScoreRound(whiz, bids, over, nil)
	if scores[0].TrickScore != 50 || scores[0].BagScore != 1 {
		t.Errorf("whiz overtricks = %+v, want regular 50 with 1 bag", scores[0])
	}
}

func TestScoreRoundSolo(t *testing.T) {
	settings := regularSettings()
	settings.Mode = domain.ModeSolo
	bids := [4]*domain.Bid{bidOf(0, 4), bidOf(1, 3), nilBidOf(2, false), bidOf(3, 3)}
	tricks := [4]int{5, 3, 0, 5}
	scores := ScoreRound(settings, bids, tricks, nil)
	if len(scores) != 4 {
		t.Fatalf("solo sides = %d, want 4", len(scores))
	}
	if scores[0].RoundTotal != 41 {
		t.Errorf("seat 0 = %d, want 41", scores[0].RoundTotal)
	}
	if scores[2].RoundTotal != 100 {
		t.Errorf("seat 2 nil = %d, want 100", scores[2].RoundTotal)
	}
}

func TestCheckGameEnd(t *testing.T) {
	settings := regularSettings() // ceiling 500, floor -200

	t.Run("nobody crossed", func(t *testing.T) {
		out := CheckGameEnd(settings, []domain.SideScore{{RunningTotal: 480}, {RunningTotal: -190}}, 5)
		if out.Finished {
			t.Errorf("finished = true, want false")
		}
	})

	t.Run("ceiling wins", func(t *testing.T) {
		out := CheckGameEnd(settings, []domain.SideScore{{RunningTotal: 510}, {RunningTotal: 300}}, 5)
		if !out.Finished || out.WinningSide != 0 {
			t.Errorf("out = %+v, want side 0 win", out)
		}
	})

	t.Run("floor loses for the falling side", func(t *testing.T) {
		out := CheckGameEnd(settings, []domain.SideScore{{RunningTotal: -210}, {RunningTotal: 40}}, 5)
		if !out.Finished || out.WinningSide != 1 {
			t.Errorf("out = %+v, want side 1 win", out)
		}
	})

	t.Run("both bounds crossed goes to the higher total", func(t *testing.T) {
		out := CheckGameEnd(settings, []domain.SideScore{{RunningTotal: 520}, {RunningTotal: -230}}, 5)
		if !out.Finished || out.WinningSide != 0 {
			t.Errorf("out = %+v, want side 0 win", out)
		}
	})

	t.Run("round limit", func(t *testing.T) {
		limited := settings
		limited.MaxRounds = 10
		out := CheckGameEnd(limited, []domain.SideScore{{RunningTotal: 120}, {RunningTotal: 240}}, 10)
		if !out.Finished || out.WinningSide != 1 {
			t.Errorf("out = %+v, want side 1 win at the limit", out)
		}
	})
}
