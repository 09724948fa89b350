package game

import (
	"spades_server/internal/domain"
)

// SuggestBid produces a legal bid for the seat in ctx. It is used both for
// the bot seats and for synthesizing a bid when a human's turn timer fires,
// so the result must always pass ValidateBid for the same context.
func SuggestBid(ctx BidContext) (value int, isNil bool) {
	switch ctx.Settings.BidType {
	case domain.BidWhiz:
		return whizBid(ctx)
	case domain.BidMirror:
		return mirrorBid(ctx)
	case domain.BidGimmick:
		return gimmickBid(ctx)
	default:
		return regularBid(ctx)
	}
}

func whizBid(ctx BidContext) (int, bool) {
	spades := domain.CountSuit(ctx.Hand, domain.Spades)
	if spades == 0 {
		return 0, true
	}
	return spades, false
}

func mirrorBid(ctx BidContext) (int, bool) {
	spades := domain.CountSuit(ctx.Hand, domain.Spades)
	if spades == 0 {
		return 0, true
	}
	return spades, false
}

func gimmickBid(ctx BidContext) (int, bool) {
	switch ctx.Settings.GimmickType {
	case domain.GimmickSuicide:
		return suicideBid(ctx)
	case domain.GimmickBid4OrNil:
		if nilIsSafe(ctx.Hand) {
			return 0, true
		}
		return 4, false
	case domain.GimmickBid3:
		return 3, false
	case domain.GimmickBidHearts:
		hearts := domain.CountSuit(ctx.Hand, domain.Hearts)
		if hearts == 0 {
			return 0, true
		}
		return hearts, false
	case domain.GimmickCrazyAces:
		aces := domain.CountRank(ctx.Hand, domain.Ace)
		if aces == 0 {
			return 0, true
		}
		return aces * 3, false
	default:
		return regularBid(ctx)
	}
}

// suicideBid: the first partner to speak nils when the hand supports it,
// otherwise bids tricks and leaves the nil to the second partner, who is
// forced either way.
func suicideBid(ctx BidContext) (int, bool) {
	partner := ctx.Placed[domain.Partner(ctx.Seat)]
	if partner != nil {
		if partner.IsNil {
			v, _ := regularBid(ctx)
			if v < 1 {
				v = 1
			}
			return v, false
		}
		return 0, true
	}
	if nilIsSafe(ctx.Hand) {
		return 0, true
	}
	v, _ := regularBid(ctx)
	if v < 1 {
		v = 1
	}
	return v, false
}

// regularBid estimates winnable tricks suit by suit, then nudges for shape.
func regularBid(ctx BidContext) (int, bool) {
	if ctx.Settings.AllowNil && nilIsSafe(ctx.Hand) {
		return 0, true
	}

	est := 0
	bySuit := domain.BySuit(ctx.Hand)
	for _, suit := range domain.Suits {
		cards := bySuit[suit]
		if suit == domain.Spades {
			est += spadeTricks(cards)
			continue
		}
		depth := len(cards)
		for _, c := range cards {
			switch c.Rank {
			case domain.Ace:
				est++
			case domain.King:
				// A king in a long side suit usually gets trumped
				// before it cashes.
				if depth <= 3 {
					est++
				}
			case domain.Queen:
				if depth >= 3 && hasRank(cards, domain.King) {
					est++
				}
			}
		}
	}

	spades := bySuit[domain.Spades]
	// Length plus top honors means spade control: count an extra trick.
	if len(spades) >= 5 && hasRank(spades, domain.Ace) && hasRank(spades, domain.Jack) {
		est++
	}
	// A void or singleton side suit with spades to spare cuts for a trick.
	if len(spades) >= 3 {
		for _, suit := range domain.Suits {
			if suit != domain.Spades && len(bySuit[suit]) <= 1 {
				est++
				break
			}
		}
	}

	if est < 1 {
		est = 1
	}
	if est > 6 {
		est = 6
	}

	// The last bidder can see the table total; stretch by one when the
	// round is underbid and the hand has any spade length at all.
	if isFinalBidder(ctx) && est < 6 && len(spades) >= 3 {
		total := est
		for _, b := range ctx.Placed {
			if b != nil {
				total += b.Value
			}
		}
		if total <= 10 {
			est++
		}
	}
	return est, false
}

func isFinalBidder(ctx BidContext) bool {
	return ctx.Seat == ctx.DealerSeat
}

// spadeTricks counts sure winners in the trump suit.
func spadeTricks(spades []domain.Card) int {
	n := 0
	if hasRank(spades, domain.Ace) {
		n++
	}
	if hasRank(spades, domain.King) && len(spades) >= 2 {
		n++
	}
	if hasRank(spades, domain.Queen) && len(spades) >= 3 {
		n++
	}
	// Small spades beyond the fourth win by exhaustion.
	if extra := len(spades) - 4; extra > 0 {
		n += extra
	}
	return n
}

// nilIsSafe is deliberately conservative: a bot that nils and eats a trick
// costs its side two hundred points in swing.
func nilIsSafe(hand []domain.Card) bool {
	bySuit := domain.BySuit(hand)
	spades := bySuit[domain.Spades]
	if hasRank(spades, domain.Ace) {
		return false
	}
	if hasRank(spades, domain.King) && hasRank(spades, domain.Queen) {
		return false
	}
	high := 0
	for _, c := range spades {
		if c.Rank == domain.King || c.Rank == domain.Queen || c.Rank == domain.Jack {
			high++
		}
	}
	if high >= 2 || len(spades) >= 4 {
		return false
	}
	for _, suit := range domain.Suits {
		if suit == domain.Spades {
			continue
		}
		cards := bySuit[suit]
		// A bare or poorly covered ace is forced to win sooner or later.
		if hasRank(cards, domain.Ace) && len(cards) <= 3 {
			return false
		}
		if hasRank(cards, domain.King) && len(cards) <= 2 {
			return false
		}
	}
	return true
}

func hasRank(cards []domain.Card, rank domain.Rank) bool {
	for _, c := range cards {
		if c.Rank == rank {
			return true
		}
	}
	return false
}
