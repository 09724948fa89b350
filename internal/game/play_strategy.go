package game

import (
	"sort"

	"spades_server/internal/domain"
)

// PlayContext carries what a seat can see when choosing a card: its hand,
// the open trick, whether spades are broken, the table rules, and the
// seat's own bid (nil bidders duck; everyone else plays to win cheaply).
type PlayContext struct {
	Hand         []domain.Card
	Seat         int
	Trick        []domain.PlayedCard
	SpadesBroken bool
	Rules        domain.SpecialRules
	OwnBid       *domain.Bid
}

// SuggestPlay picks a card from the legal set. It is used for bot seats and
// for the turn-timeout fallback, so it must always return a card that
// LegalPlays would allow.
func SuggestPlay(ctx PlayContext) domain.Card {
	legal := LegalPlays(ctx.Hand, ctx.Trick, ctx.SpadesBroken, ctx.Rules)
	if len(legal) == 1 {
		return legal[0]
	}
	if ctx.OwnBid != nil && ctx.OwnBid.IsNil {
		return nilPlay(ctx, legal)
	}
	if len(ctx.Trick) == 0 {
		return leadPlay(legal)
	}
	return followPlay(ctx, legal)
}

// leadPlay opens with the lowest card of the longest non-spade suit, keeping
// trumps back for cuts.
func leadPlay(legal []domain.Card) domain.Card {
	bySuit := domain.BySuit(legal)
	var best []domain.Card
	for _, suit := range domain.Suits {
		if suit == domain.Spades {
			continue
		}
		if len(bySuit[suit]) > len(best) {
			best = bySuit[suit]
		}
	}
	if len(best) == 0 {
		best = bySuit[domain.Spades]
	}
	return lowest(best)
}

func followPlay(ctx PlayContext, legal []domain.Card) domain.Card {
	leadSuit := ctx.Trick[0].Suit
	following := domain.BySuit(legal)[leadSuit]
	if len(following) > 0 {
		// Win as cheaply as possible; if the trick is out of reach,
		// shed the lowest card of the suit.
		winner := ctx.Trick[TrickWinner(ctx.Trick)]
		if cheapest := cheapestWinner(following, winner.Card, leadSuit); cheapest != nil {
			return *cheapest
		}
		return lowest(following)
	}
	// Void in the lead suit: cut with the smallest spade if the trick is
	// still winnable, otherwise dump the highest off-suit card.
	winner := ctx.Trick[TrickWinner(ctx.Trick)]
	spades := domain.BySuit(legal)[domain.Spades]
	if len(spades) > 0 && winner.Suit != domain.Spades {
		return lowest(spades)
	}
	if len(spades) > 0 {
		if cheapest := cheapestWinner(spades, winner.Card, leadSuit); cheapest != nil {
			return *cheapest
		}
	}
	return highestNonSpade(legal)
}

// nilPlay always ducks: the highest card that still loses the trick, or the
// lowest card when losing is not guaranteed.
func nilPlay(ctx PlayContext, legal []domain.Card) domain.Card {
	if len(ctx.Trick) == 0 {
		return lowest(legal)
	}
	winner := ctx.Trick[TrickWinner(ctx.Trick)]
	leadSuit := ctx.Trick[0].Suit
	var duck *domain.Card
	for i := range legal {
		c := legal[i]
		if beats(c, winner.Card, leadSuit) {
			continue
		}
		if duck == nil || c.Value() > duck.Value() {
			duck = &legal[i]
		}
	}
	if duck != nil {
		return *duck
	}
	return lowest(legal)
}

// cheapestWinner returns the lowest card in cards that would take the trick
// from current, or nil when none can.
func cheapestWinner(cards []domain.Card, current domain.Card, leadSuit domain.Suit) *domain.Card {
	var pick *domain.Card
	for i := range cards {
		c := cards[i]
		if !beats(c, current, leadSuit) {
			continue
		}
		if pick == nil || c.Value() < pick.Value() {
			pick = &cards[i]
		}
	}
	return pick
}

func lowest(cards []domain.Card) domain.Card {
	sorted := append([]domain.Card(nil), cards...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Value() < sorted[j].Value() })
	return sorted[0]
}

func highestNonSpade(cards []domain.Card) domain.Card {
	var pick *domain.Card
	for i := range cards {
		c := cards[i]
		if c.Suit == domain.Spades {
			continue
		}
		if pick == nil || c.Value() > pick.Value() {
			pick = &cards[i]
		}
	}
	if pick == nil {
		return lowest(cards)
	}
	return *pick
}
