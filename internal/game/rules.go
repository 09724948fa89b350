package game

import "spades_server/internal/domain"

// LegalPlays computes the set of cards the acting seat may play, in hand
// order. trick holds the cards already played this trick (empty when the seat
// leads); spadesBroken is the round-scoped flag. Pure: no table state is
// consulted.
//
// Priority of constraints:
//  1. leading: a spade may not be led before spades are broken unless the
//     hand is spades-only
//  2. following: the lead suit must be followed when the hand holds it
//  3. screamer: spades are blocked unless following a spade lead or the hand
//     is spades-only
//  4. assassin: spades must be led when legal, and a void seat must cut with
//     a spade when it holds one
func LegalPlays(hand []domain.Card, trick []domain.PlayedCard, spadesBroken bool, rules domain.SpecialRules) []domain.Card {
	nonSpades := 0
	for _, c := range hand {
		if c.Suit != domain.Spades {
			nonSpades++
		}
	}
	spadesOnly := nonSpades == 0

	legal := make([]domain.Card, 0, len(hand))

	if len(trick) == 0 {
		for _, c := range hand {
			if c.Suit == domain.Spades {
				if !spadesBroken && !spadesOnly {
					continue
				}
				if rules.Screamer && !spadesOnly {
					continue
				}
			}
			legal = append(legal, c)
		}
		// Assassin compels a spade lead whenever one survives the lead
		// restrictions above.
		if rules.Assassin {
			if sp := onlySuit(legal, domain.Spades); len(sp) > 0 {
				return sp
			}
		}
		return legal
	}

	leadSuit := trick[0].Suit
	if domain.CountSuit(hand, leadSuit) > 0 {
		for _, c := range hand {
			if c.Suit == leadSuit {
				legal = append(legal, c)
			}
		}
		return legal
	}

	// Void in the lead suit.
	for _, c := range hand {
		if c.Suit == domain.Spades && rules.Screamer && leadSuit != domain.Spades && !spadesOnly {
			continue
		}
		legal = append(legal, c)
	}
	if rules.Assassin && leadSuit != domain.Spades {
		if sp := onlySuit(legal, domain.Spades); len(sp) > 0 {
			return sp
		}
	}
	return legal
}

// CanPlay reports whether card is a member of LegalPlays for the seat.
func CanPlay(hand []domain.Card, card domain.Card, trick []domain.PlayedCard, spadesBroken bool, rules domain.SpecialRules) bool {
	for _, c := range LegalPlays(hand, trick, spadesBroken, rules) {
		if c == card {
			return true
		}
	}
	return false
}

func onlySuit(cards []domain.Card, suit domain.Suit) []domain.Card {
	var out []domain.Card
	for _, c := range cards {
		if c.Suit == suit {
			out = append(out, c)
		}
	}
	return out
}

// TrickWinner returns the play-order index of the card that wins the trick.
// Any spade beats any non-spade; among spades the highest rank wins;
// otherwise the highest card of the lead suit wins. Off-suit non-spades
// never win. Works on partial tricks too: the best card played so far.
func TrickWinner(trick []domain.PlayedCard) int {
	win := 0
	for i, pc := range trick[1:] {
		if beats(pc.Card, trick[win].Card, trick[0].Suit) {
			win = i + 1
		}
	}
	return win
}

func beats(card, current domain.Card, leadSuit domain.Suit) bool {
	if card.Suit == domain.Spades && current.Suit != domain.Spades {
		return true
	}
	if card.Suit != current.Suit {
		return false
	}
	if card.Suit != domain.Spades && card.Suit != leadSuit {
		return false
	}
	return card.Value() > current.Value()
}

// BreaksSpades reports whether playing card on the given trick breaks spades:
// a spade played when the lead suit is not spades, or any spade led after the
// hand holds nothing else (the spades-only exception still breaks them).
func BreaksSpades(card domain.Card, trick []domain.PlayedCard) bool {
	if card.Suit != domain.Spades {
		return false
	}
	if len(trick) == 0 {
		return true
	}
	return trick[0].Suit != domain.Spades
}
