package domain

import "fmt"

// Suit of a standard playing card. Spades are always trump.
type Suit string

const (
	Spades   Suit = "SPADES"
	Hearts   Suit = "HEARTS"
	Diamonds Suit = "DIAMONDS"
	Clubs    Suit = "CLUBS"
)

// Suits in deck order.
var Suits = [4]Suit{Spades, Hearts, Diamonds, Clubs}

// Rank of a card, 2..10, J, Q, K, A.
type Rank string

const (
	Two   Rank = "2"
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
	Ace   Rank = "A"
)

// Ranks in ascending order.
var Ranks = [13]Rank{Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King, Ace}

var rankValues = map[Rank]int{
	Two: 2, Three: 3, Four: 4, Five: 5, Six: 6, Seven: 7, Eight: 8,
	Nine: 9, Ten: 10, Jack: 11, Queen: 12, King: 13, Ace: 14,
}

// Card is one of the 52 standard cards.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

func (c Card) String() string {
	return string(c.Rank) + string(c.Suit[:1])
}

// Value returns the comparison value of the card's rank (2..14).
func (c Card) Value() int {
	return rankValues[c.Rank]
}

// Valid reports whether suit and rank are members of the closed sets.
func (c Card) Valid() bool {
	_, ok := rankValues[c.Rank]
	if !ok {
		return false
	}
	switch c.Suit {
	case Spades, Hearts, Diamonds, Clubs:
		return true
	}
	return false
}

// PlayedCard is a card together with the seat that played it.
type PlayedCard struct {
	Card
	Seat int `json:"seat"`
}

// HandContains reports whether hand holds the exact card.
func HandContains(hand []Card, card Card) bool {
	for _, c := range hand {
		if c == card {
			return true
		}
	}
	return false
}

// RemoveCard returns hand without the first occurrence of card.
func RemoveCard(hand []Card, card Card) ([]Card, error) {
	for i, c := range hand {
		if c == card {
			out := make([]Card, 0, len(hand)-1)
			out = append(out, hand[:i]...)
			out = append(out, hand[i+1:]...)
			return out, nil
		}
	}
	return hand, fmt.Errorf("card %s not in hand", card)
}

// CountSuit returns how many cards of the given suit the hand holds.
func CountSuit(hand []Card, suit Suit) int {
	n := 0
	for _, c := range hand {
		if c.Suit == suit {
			n++
		}
	}
	return n
}

// CountRank returns how many cards of the given rank the hand holds.
func CountRank(hand []Card, rank Rank) int {
	n := 0
	for _, c := range hand {
		if c.Rank == rank {
			n++
		}
	}
	return n
}

// BySuit groups a hand by suit preserving order within each suit.
func BySuit(hand []Card) map[Suit][]Card {
	out := make(map[Suit][]Card, 4)
	for _, c := range hand {
		out[c.Suit] = append(out[c.Suit], c)
	}
	return out
}
