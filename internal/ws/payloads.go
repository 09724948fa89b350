package ws

import "spades_server/internal/domain"

// client → server
type BidPayload struct {
	Value      int  `json:"value"`
	IsNil      bool `json:"is_nil"`
	IsBlindNil bool `json:"is_blind_nil"`
}

type PlayPayload struct {
	Suit domain.Suit `json:"suit"`
	Rank domain.Rank `json:"rank"`
}

// AddBotPayload targets one seat, or every empty seat when Seat is omitted.
type AddBotPayload struct {
	Seat *int `json:"seat,omitempty"`
}

// server → client

// SeatView is what every player sees about a seat. Hand cards are only
// filled in for the receiving player's own seat.
type SeatView struct {
	Index     int           `json:"index"`
	UserID    *int64        `json:"user_id,omitempty"`
	IsBot     bool          `json:"is_bot"`
	Connected bool          `json:"connected"`
	Bid       *domain.Bid   `json:"bid,omitempty"`
	Tricks    int           `json:"tricks"`
	HandSize  int           `json:"hand_size"`
	Hand      []domain.Card `json:"hand,omitempty"`
}

type GameUpdatePayload struct {
	GameID       string               `json:"game_id"`
	Phase        domain.GamePhase     `json:"phase"`
	Settings     domain.Settings      `json:"settings"`
	RoundNumber  int                  `json:"round_number"`
	DealerSeat   int                  `json:"dealer_seat"`
	CurrentSeat  int                  `json:"current_seat"`
	YourSeat     int                  `json:"your_seat"`
	SpadesBroken bool                 `json:"spades_broken"`
	Trick        []domain.PlayedCard  `json:"trick"`
	Seats        []SeatView           `json:"seats"`
	Scores       []domain.SideScore   `json:"scores"`
	LegalPlays   []domain.Card        `json:"legal_plays,omitempty"`
	TurnDeadline int64                `json:"turn_deadline,omitempty"` // unix millis
}

type TrickCompletePayload struct {
	WinningSeat int                 `json:"winning_seat"`
	Cards       []domain.PlayedCard `json:"cards"`
}

type HandCompletePayload struct {
	RoundNumber int                `json:"round_number"`
	Scores      []domain.SideScore `json:"scores"`
}

type GameOverPayload struct {
	WinningSide int                `json:"winning_side"`
	Scores      []domain.SideScore `json:"scores"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
