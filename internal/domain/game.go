package domain

import "time"

// GamePhase - lifecycle phase of a table
type GamePhase string

const (
	PhaseWaiting     GamePhase = "WAITING"
	PhaseBidding     GamePhase = "BIDDING"
	PhasePlaying     GamePhase = "PLAYING"
	PhaseHandSummary GamePhase = "HAND_SUMMARY"
	PhaseFinished    GamePhase = "FINISHED"
)

// GameMode - partners (seats 0&2 vs 1&3) or every seat for itself
type GameMode string

const (
	ModePartners GameMode = "PARTNERS"
	ModeSolo     GameMode = "SOLO"
)

// BidType - the bidding variant of the game
type BidType string

const (
	BidRegular BidType = "REGULAR"
	BidWhiz    BidType = "WHIZ"
	BidMirror  BidType = "MIRROR"
	BidGimmick BidType = "GIMMICK"
)

// GimmickType - sub-variant when BidType is GIMMICK
type GimmickType string

const (
	GimmickNone      GimmickType = ""
	GimmickSuicide   GimmickType = "SUICIDE"
	GimmickBid4OrNil GimmickType = "BID_4_OR_NIL"
	GimmickBid3      GimmickType = "BID_3"
	GimmickBidHearts GimmickType = "BID_HEARTS"
	GimmickCrazyAces GimmickType = "CRAZY_ACES"
)

// SpecialRules - independent toggles restricting or compelling spade play
type SpecialRules struct {
	Screamer bool `json:"screamer"`
	Assassin bool `json:"assassin"`
}

const (
	PlayersPerGame = 4
	CardsPerHand   = 13
	TricksPerRound = 13
)

// Settings captures everything fixed at game creation.
type Settings struct {
	Mode          GameMode     `json:"mode"`
	BidType       BidType      `json:"bid_type"`
	GimmickType   GimmickType  `json:"gimmick_type,omitempty"`
	Special       SpecialRules `json:"special_rules"`
	AllowNil      bool         `json:"allow_nil"`
	AllowBlindNil bool         `json:"allow_blind_nil"`
	MinPoints     int          `json:"min_points"`
	MaxPoints     int          `json:"max_points"`
	// MaxRounds > 0 ends the game after that many rounds regardless of score
	// (fixed-hand-count WHIZ/MIRROR lines).
	MaxRounds int  `json:"max_rounds,omitempty"`
	Rated     bool `json:"rated"`
}

// Game is the durable game row.
type Game struct {
	ID           string    `db:"id" json:"id"`
	Phase        GamePhase `db:"phase" json:"phase"`
	Settings     Settings  `json:"settings"`
	DealerSeat   int       `db:"dealer_seat" json:"dealer_seat"`
	CurrentRound int       `db:"current_round" json:"current_round"`
	CurrentTrick int       `db:"current_trick" json:"current_trick"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Seat is one of the four positions at a table.
type Seat struct {
	GameID    string `db:"game_id" json:"-"`
	Index     int    `db:"seat_index" json:"index"`
	UserID    *int64 `db:"user_id" json:"user_id,omitempty"`
	IsBot     bool   `db:"is_bot" json:"is_bot"`
	Connected bool   `db:"connected" json:"connected"`
}

// Occupied reports whether a human or a bot sits here.
func (s Seat) Occupied() bool {
	return s.IsBot || s.UserID != nil
}

// Team returns the team index for the seat: seat%2 in partners, the seat
// itself in solo.
func Team(mode GameMode, seat int) int {
	if mode == ModePartners {
		return seat % 2
	}
	return seat
}

// Partner returns the partner seat in partners mode.
func Partner(seat int) int {
	return (seat + 2) % 4
}

// Round is the durable round row; DealtHands is the 4x13 deal keyed by seat.
type Round struct {
	ID         int64     `db:"id" json:"id"`
	GameID     string    `db:"game_id" json:"game_id"`
	Number     int       `db:"round_number" json:"round_number"`
	DealtHands [4][]Card `db:"dealt_hands" json:"dealt_hands"`
}

// Bid is the durable per-seat bid row. Nil bids are stored as Value 0 with
// IsNil set; blind nil additionally sets IsBlindNil.
type Bid struct {
	RoundID    int64 `db:"round_id" json:"-"`
	Seat       int   `db:"seat_index" json:"seat"`
	Value      int   `db:"bid" json:"value"`
	IsNil      bool  `db:"is_nil" json:"is_nil"`
	IsBlindNil bool  `db:"is_blind_nil" json:"is_blind_nil"`
}

// Trick is the durable trick row.
type Trick struct {
	ID          int64        `db:"id" json:"id"`
	RoundID     int64        `db:"round_id" json:"-"`
	Number      int          `db:"trick_number" json:"number"`
	LeadSeat    int          `db:"lead_seat" json:"lead_seat"`
	WinningSeat *int         `db:"winning_seat" json:"winning_seat,omitempty"`
	Cards       []PlayedCard `json:"cards"`
}

// SideScore is one team's (or, in solo, one player's) score line for a round.
type SideScore struct {
	Bid          int  `json:"bid"`
	Tricks       int  `json:"tricks"`
	TrickScore   int  `json:"trick_score"`
	BagScore     int  `json:"bag_score"`
	BagPenalty   int  `json:"bag_penalty"`
	NilBonus     int  `json:"nil_bonus"`
	RoundTotal   int  `json:"round_total"`
	RunningTotal int  `json:"running_total"`
	Bags         int  `json:"bags"` // carried bag counter after this round
}

// RoundScore is the durable score record attached at round close.
// Sides has 2 entries in partners mode, 4 in solo.
type RoundScore struct {
	RoundID int64       `db:"round_id" json:"-"`
	Sides   []SideScore `db:"sides" json:"sides"`
}

// User is a player identity; bots get rows with IsBot set so stuck-game
// cleanup can remove them together with their game.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	IsBot     bool      `db:"is_bot" json:"is_bot"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
