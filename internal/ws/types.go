package ws

const (
	// client - server
	MsgBid      = "bid"
	MsgPlay     = "play"
	MsgAddBot   = "add_bot"
	MsgContinue = "continue"

	// server - client
	MsgGameUpdate    = "game_update"
	MsgBiddingUpdate = "bidding_update"
	MsgPlayUpdate    = "play_update"
	MsgTrickComplete = "trick_complete"
	MsgHandComplete  = "hand_complete"
	MsgGameOver      = "game_over"
	MsgError         = "error"
)

type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}
