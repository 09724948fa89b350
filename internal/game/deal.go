package game

import (
	"math/rand"

	"spades_server/internal/domain"
)

// NewDeck returns the 52-card deck in suit-major order.
func NewDeck() []domain.Card {
	deck := make([]domain.Card, 0, 52)
	for _, s := range domain.Suits {
		for _, r := range domain.Ranks {
			deck = append(deck, domain.Card{Suit: s, Rank: r})
		}
	}
	return deck
}

// Shuffle returns a uniformly shuffled copy of deck.
func Shuffle(deck []domain.Card, rng *rand.Rand) []domain.Card {
	out := make([]domain.Card, len(deck))
	copy(out, deck)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Deal shuffles a fresh deck and distributes 13 cards to each seat, one at a
// time starting from the seat left of the dealer.
func Deal(dealerSeat int, rng *rand.Rand) [4][]domain.Card {
	deck := Shuffle(NewDeck(), rng)
	var hands [4][]domain.Card
	for i := range hands {
		hands[i] = make([]domain.Card, 0, domain.CardsPerHand)
	}
	seat := (dealerSeat + 1) % domain.PlayersPerGame
	for _, c := range deck {
		hands[seat] = append(hands[seat], c)
		seat = (seat + 1) % domain.PlayersPerGame
	}
	return hands
}

// NextDealer rotates the dealer one seat for a new round.
func NextDealer(dealerSeat int) int {
	return (dealerSeat + 1) % domain.PlayersPerGame
}
