package game

import (
	"errors"
	"fmt"

	"spades_server/internal/domain"
)

var (
	ErrNotYourTurn    = errors.New("not your turn")
	ErrIllegalBid     = errors.New("illegal bid")
	ErrIllegalCard    = errors.New("illegal card")
	ErrCardNotInHand  = errors.New("card not in hand")
	ErrGameFinished   = errors.New("game finished")
	ErrWrongPhase     = errors.New("wrong phase")
	ErrSeatTaken      = errors.New("seat already taken")
	ErrTableFull      = errors.New("table is full")
	ErrAlreadySeated  = errors.New("already seated")
	ErrNotEnoughSeats = errors.New("not all seats are occupied")
)

// BidContext is everything needed to validate or synthesize a bid for one
// seat: the hand, the bids already placed this round, and the dealer (the
// suicide pairing depends on bidding order, which starts left of the dealer).
type BidContext struct {
	Hand       []domain.Card
	Seat       int
	DealerSeat int
	Placed     [4]*domain.Bid
	Settings   domain.Settings
}

// ValidateBid checks a proposed bid against the variant's legal set.
// A nil bid is value 0 with isNil set; plain zero bids are not a thing.
func ValidateBid(ctx BidContext, value int, isNil, isBlindNil bool) error {
	if isBlindNil {
		if !ctx.Settings.AllowBlindNil {
			return fmt.Errorf("%w: blind nil is not allowed in this game", ErrIllegalBid)
		}
		isNil = true
	}
	if isNil && value != 0 {
		return fmt.Errorf("%w: nil must carry a bid of 0", ErrIllegalBid)
	}
	if !isNil && (value < 1 || value > domain.TricksPerRound) {
		return fmt.Errorf("%w: bid must be between 1 and 13, or nil", ErrIllegalBid)
	}

	switch ctx.Settings.BidType {
	case domain.BidWhiz:
		return validateWhizBid(ctx, value, isNil)
	case domain.BidMirror:
		return validateMirrorBid(ctx, value, isNil)
	case domain.BidGimmick:
		return validateGimmickBid(ctx, value, isNil)
	default:
		return validateRegularBid(ctx, isNil)
	}
}

func validateRegularBid(ctx BidContext, isNil bool) error {
	if isNil && !ctx.Settings.AllowNil {
		return fmt.Errorf("%w: nil is not allowed in this game", ErrIllegalBid)
	}
	return nil
}

// validateWhizBid: the bid must equal the spade count; nil is offerable only
// when the hand holds no spades.
func validateWhizBid(ctx BidContext, value int, isNil bool) error {
	spades := domain.CountSuit(ctx.Hand, domain.Spades)
	if isNil {
		if spades != 0 {
			return fmt.Errorf("%w: in whiz, nil requires a spadeless hand", ErrIllegalBid)
		}
		return nil
	}
	if value != spades {
		return fmt.Errorf("%w: in whiz, you must bid your spade count (%d) or nil", ErrIllegalBid, spades)
	}
	return nil
}

// validateMirrorBid: the bid must equal the spade count; nil never.
func validateMirrorBid(ctx BidContext, value int, isNil bool) error {
	spades := domain.CountSuit(ctx.Hand, domain.Spades)
	if isNil && spades != 0 {
		return fmt.Errorf("%w: in mirror, nil is never offerable", ErrIllegalBid)
	}
	if !isNil && value != spades {
		return fmt.Errorf("%w: in mirror, you must bid your spade count (%d)", ErrIllegalBid, spades)
	}
	// A spadeless hand mirrors to a bid of zero, recorded as nil.
	if spades == 0 && !isNil {
		return fmt.Errorf("%w: spadeless mirror hands bid nil", ErrIllegalBid)
	}
	return nil
}

func validateGimmickBid(ctx BidContext, value int, isNil bool) error {
	switch ctx.Settings.GimmickType {
	case domain.GimmickSuicide:
		return validateSuicideBid(ctx, isNil)
	case domain.GimmickBid4OrNil:
		if !isNil && value != 4 {
			return fmt.Errorf("%w: you must bid 4 or nil", ErrIllegalBid)
		}
		return nil
	case domain.GimmickBid3:
		if isNil || value != 3 {
			return fmt.Errorf("%w: you must bid exactly 3", ErrIllegalBid)
		}
		return nil
	case domain.GimmickBidHearts:
		hearts := domain.CountSuit(ctx.Hand, domain.Hearts)
		if hearts == 0 {
			if !isNil {
				return fmt.Errorf("%w: heartless hands bid nil", ErrIllegalBid)
			}
			return nil
		}
		if isNil || value != hearts {
			return fmt.Errorf("%w: you must bid your heart count (%d)", ErrIllegalBid, hearts)
		}
		return nil
	case domain.GimmickCrazyAces:
		want := domain.CountRank(ctx.Hand, domain.Ace) * 3
		if want == 0 {
			if !isNil {
				return fmt.Errorf("%w: aceless hands bid nil", ErrIllegalBid)
			}
			return nil
		}
		if isNil || value != want {
			return fmt.Errorf("%w: you must bid 3 per ace (%d)", ErrIllegalBid, want)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown gimmick", ErrIllegalBid)
	}
}

// validateSuicideBid: each team pairs one nil with one covering bid. The
// partner who bids second is constrained by the first: if the first partner
// did not nil, the second must; if the first went nil, the second may not.
func validateSuicideBid(ctx BidContext, isNil bool) error {
	partner := ctx.Placed[domain.Partner(ctx.Seat)]
	if partner == nil {
		return nil
	}
	if partner.IsNil && isNil {
		return fmt.Errorf("%w: suicide partners cannot both bid nil", ErrIllegalBid)
	}
	if !partner.IsNil && !isNil {
		return fmt.Errorf("%w: suicide forces nil when your partner bid", ErrIllegalBid)
	}
	return nil
}

// BiddingOrder returns the four seats in the order they bid: left of the
// dealer first, dealer last.
func BiddingOrder(dealerSeat int) [4]int {
	var order [4]int
	for i := 0; i < domain.PlayersPerGame; i++ {
		order[i] = (dealerSeat + 1 + i) % domain.PlayersPerGame
	}
	return order
}
