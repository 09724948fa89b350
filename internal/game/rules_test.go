package game

import (
	"testing"

	"spades_server/internal/domain"
)

func card(s domain.Suit, r domain.Rank) domain.Card {
	return domain.Card{Suit: s, Rank: r}
}

func played(seat int, s domain.Suit, r domain.Rank) domain.PlayedCard {
	return domain.PlayedCard{Card: card(s, r), Seat: seat}
}

func TestTrickWinner(t *testing.T) {
	tests := []struct {
		name  string
		trick []domain.PlayedCard
		want  int
	}{
		{
			name: "highest of lead suit wins",
			trick: []domain.PlayedCard{
				played(0, domain.Hearts, domain.Ten),
				played(1, domain.Hearts, domain.King),
				played(2, domain.Hearts, domain.Queen),
				played(3, domain.Hearts, domain.Two),
			},
			want: 1,
		},
		{
			name: "off-suit never wins without a spade",
			trick: []domain.PlayedCard{
				played(2, domain.Clubs, domain.Three),
				played(3, domain.Diamonds, domain.Ace),
				played(0, domain.Clubs, domain.Five),
				played(1, domain.Hearts, domain.King),
			},
			want: 2,
		},
		{
			name: "any spade beats the lead suit",
			trick: []domain.PlayedCard{
				played(1, domain.Hearts, domain.Ace),
				played(2, domain.Spades, domain.Two),
				played(3, domain.Hearts, domain.King),
				played(0, domain.Hearts, domain.Queen),
			},
			want: 1,
		},
		{
			name: "highest spade among several cuts",
			trick: []domain.PlayedCard{
				played(3, domain.Diamonds, domain.Nine),
				played(0, domain.Spades, domain.Four),
				played(1, domain.Spades, domain.Jack),
				played(2, domain.Diamonds, domain.Ace),
			},
			want: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrickWinner(tt.trick)
			if got != tt.want {
				t.Errorf("winning index = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTrickWinnerSeatDerivation(t *testing.T) {
	// The lead seat is not 0, so the winning index and the winning seat
	// differ; callers derive the seat from the indexed card.
	trick := []domain.PlayedCard{
		played(2, domain.Clubs, domain.Ten),
		played(3, domain.Clubs, domain.Ace),
		played(0, domain.Clubs, domain.Two),
		played(1, domain.Diamonds, domain.King),
	}
	if idx := TrickWinner(trick); idx != 1 {
		t.Fatalf("winning index = %d, want 1", idx)
	}
	if seat := trick[TrickWinner(trick)].Seat; seat != 3 {
		t.Fatalf("winning seat = %d, want 3", seat)
	}
}

func TestTrickWinnerPartialTrick(t *testing.T) {
	// Strategy code asks who currently holds a trick still being played;
	// high seat numbers must not run past the cards played so far.
	trick := []domain.PlayedCard{played(3, domain.Hearts, domain.Nine)}
	if got := TrickWinner(trick); got != 0 {
		t.Fatalf("single card: winning index = %d, want 0", got)
	}
	trick = append(trick, played(0, domain.Hearts, domain.Queen))
	if got := TrickWinner(trick); got != 1 {
		t.Fatalf("two cards: winning index = %d, want 1", got)
	}
}

func TestLegalPlaysMustFollowSuit(t *testing.T) {
	hand := []domain.Card{
		card(domain.Hearts, domain.Two),
		card(domain.Hearts, domain.King),
		card(domain.Clubs, domain.Ace),
		card(domain.Spades, domain.Five),
	}
	trick := []domain.PlayedCard{played(0, domain.Hearts, domain.Seven)}
	legal := LegalPlays(hand, trick, false, domain.SpecialRules{})
	if len(legal) != 2 {
		t.Fatalf("legal = %v, want the two hearts", legal)
	}
	for _, c := range legal {
		if c.Suit != domain.Hearts {
			t.Errorf("non-heart %s offered while holding hearts", c)
		}
	}
}

func TestLegalPlaysNoUnbrokenSpadeLead(t *testing.T) {
	hand := []domain.Card{
		card(domain.Spades, domain.Ace),
		card(domain.Clubs, domain.Four),
	}
	legal := LegalPlays(hand, nil, false, domain.SpecialRules{})
	if len(legal) != 1 || legal[0].Suit != domain.Clubs {
		t.Fatalf("legal = %v, want clubs only", legal)
	}

	// Spades broken: the spade lead opens up.
	legal = LegalPlays(hand, nil, true, domain.SpecialRules{})
	if len(legal) != 2 {
		t.Fatalf("legal = %v, want whole hand", legal)
	}
}

func TestLegalPlaysSpadesOnlyHandMayLeadSpades(t *testing.T) {
	hand := []domain.Card{
		card(domain.Spades, domain.Ace),
		card(domain.Spades, domain.Three),
	}
	legal := LegalPlays(hand, nil, false, domain.SpecialRules{})
	if len(legal) != 2 {
		t.Fatalf("legal = %v, want both spades", legal)
	}
}

func TestLegalPlaysScreamerBlocksSpadeDump(t *testing.T) {
	rules := domain.SpecialRules{Screamer: true}
	hand := []domain.Card{
		card(domain.Spades, domain.King),
		card(domain.Diamonds, domain.Two),
	}
	// Void in hearts: without screamer the spade cut is legal, with
	// screamer only the diamond discard remains.
	trick := []domain.PlayedCard{played(0, domain.Hearts, domain.Ace)}
	legal := LegalPlays(hand, trick, true, rules)
	if len(legal) != 1 || legal[0].Suit != domain.Diamonds {
		t.Fatalf("legal = %v, want diamond discard only", legal)
	}

	// Nothing but spades left: screamer yields.
	spadeHand := []domain.Card{card(domain.Spades, domain.King)}
	legal = LegalPlays(spadeHand, trick, true, rules)
	if len(legal) != 1 {
		t.Fatalf("legal = %v, want the forced spade", legal)
	}

	// Spade lead: following suit is required, screamer does not apply.
	spadeLead := []domain.PlayedCard{played(0, domain.Spades, domain.Four)}
	legal = LegalPlays(hand, spadeLead, true, rules)
	if len(legal) != 1 || legal[0].Suit != domain.Spades {
		t.Fatalf("legal = %v, want spade follow", legal)
	}
}

func TestLegalPlaysAssassinForcesCut(t *testing.T) {
	rules := domain.SpecialRules{Assassin: true}
	hand := []domain.Card{
		card(domain.Spades, domain.Six),
		card(domain.Diamonds, domain.Nine),
	}
	// Void in the lead suit with a spade in hand: the cut is forced.
	trick := []domain.PlayedCard{played(0, domain.Hearts, domain.Ace)}
	legal := LegalPlays(hand, trick, true, rules)
	if len(legal) != 1 || legal[0].Suit != domain.Spades {
		t.Fatalf("legal = %v, want forced spade cut", legal)
	}
}

func TestLegalPlaysAssassinSpadeLeadWhenBroken(t *testing.T) {
	rules := domain.SpecialRules{Assassin: true}
	hand := []domain.Card{
		card(domain.Spades, domain.Six),
		card(domain.Diamonds, domain.Nine),
	}
	legal := LegalPlays(hand, nil, true, rules)
	if len(legal) != 1 || legal[0].Suit != domain.Spades {
		t.Fatalf("legal = %v, want forced spade lead", legal)
	}

	// Unbroken, the lead ban outranks the assassin obligation.
	legal = LegalPlays(hand, nil, false, rules)
	if len(legal) != 1 || legal[0].Suit != domain.Diamonds {
		t.Fatalf("legal = %v, want diamond lead", legal)
	}
}

func TestBreaksSpades(t *testing.T) {
	heartLead := []domain.PlayedCard{played(0, domain.Hearts, domain.Ace)}
	if !BreaksSpades(card(domain.Spades, domain.Two), heartLead) {
		t.Error("spade on a heart lead should break spades")
	}
	if BreaksSpades(card(domain.Clubs, domain.Two), heartLead) {
		t.Error("club discard should not break spades")
	}
}

func TestDealCoversDeck(t *testing.T) {
	hands := Deal(3, newTestRNG())
	seen := map[domain.Card]bool{}
	for seat, hand := range hands {
		if len(hand) != domain.CardsPerHand {
			t.Fatalf("seat %d dealt %d cards", seat, len(hand))
		}
		for _, c := range hand {
			if seen[c] {
				t.Fatalf("card %s dealt twice", c)
			}
			seen[c] = true
		}
	}
	if len(seen) != 52 {
		t.Fatalf("deck covered %d cards", len(seen))
	}
}
