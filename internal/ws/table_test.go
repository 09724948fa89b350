package ws

import (
	"bytes"
	"math/rand"
	"testing"
	"time"

	"spades_server/internal/domain"
	"spades_server/internal/game"
	"spades_server/internal/persist"
)

type captureSink struct {
	snaps []*persist.Snapshot
}

func (s *captureSink) Submit(snap *persist.Snapshot) { s.snaps = append(s.snaps, snap) }
func (s *captureSink) Close()                        {}

// newBiddingTable builds a table mid-bidding with four human seats and a
// capture sink instead of a database-backed recorder. Intents are applied
// directly, the way the Run loop would.
func newBiddingTable(t *testing.T) (*Table, *captureSink) {
	t.Helper()
	st := game.NewState(domain.Settings{
		Mode:      domain.ModePartners,
		BidType:   domain.BidRegular,
		AllowNil:  true,
		MinPoints: -200,
		MaxPoints: 500,
	}, rand.New(rand.NewSource(7)))
	if err := st.StartRound(); err != nil {
		t.Fatalf("StartRound: %v", err)
	}

	sink := &captureSink{}
	tbl := &Table{
		ID:          "table-under-test",
		inbox:       make(chan tableIntent, 64),
		state:       st,
		clients:     make(map[int64]*Client),
		recorder:    sink,
		turnTimeout: time.Hour,
		createdAt:   time.Now(),
	}
	for i := range tbl.seats {
		uid := int64(100 + i)
		tbl.seats[i] = domain.Seat{GameID: tbl.ID, Index: i, UserID: &uid, Connected: true}
	}
	t.Cleanup(func() {
		if tbl.timer != nil {
			tbl.timer.Stop()
		}
	})
	return tbl, sink
}

func TestTableTimeoutSynthesizesBid(t *testing.T) {
	tbl, sink := newBiddingTable(t)
	tbl.scheduleTurn()
	seat := tbl.state.CurrentSeat

	tbl.handleTimeout(tableIntent{kind: intentTimeout, seat: seat, epoch: tbl.epoch})

	if tbl.state.Bids[seat] == nil {
		t.Fatalf("no bid synthesized for expired seat %d", seat)
	}
	next := (seat + 1) % domain.PlayersPerGame
	if tbl.state.CurrentSeat != next {
		t.Fatalf("current seat = %d, want exactly one ahead (%d)", tbl.state.CurrentSeat, next)
	}
	if tbl.missedTurns[seat] != 1 {
		t.Fatalf("missedTurns = %d, want 1", tbl.missedTurns[seat])
	}
	if len(sink.snaps) == 0 {
		t.Fatal("synthesized bid produced no snapshot")
	}

	// The late human bid for the seat the timer already moved gets the
	// usual not-your-turn rejection instead of a double apply.
	c := &Client{UserID: int64(100 + seat), Send: make(chan []byte, 8), Seat: seat}
	before := *tbl.state.Bids[seat]
	tbl.applyBid(c, BidPayload{Value: 3})
	select {
	case msg := <-c.Send:
		if !bytes.Contains(msg, []byte("not your turn")) {
			t.Fatalf("late bid response = %s, want not-your-turn error", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("late bid got no error response")
	}
	if *tbl.state.Bids[seat] != before {
		t.Fatalf("late bid overwrote the synthesized one: %+v", tbl.state.Bids[seat])
	}
}

func TestTableStaleTimeoutDropped(t *testing.T) {
	tbl, _ := newBiddingTable(t)
	tbl.scheduleTurn()
	seat := tbl.state.CurrentSeat
	stale := tbl.epoch

	// The human moves first; afterBid re-arms the timer under a new epoch.
	if err := tbl.state.ApplyBid(seat, 3, false, false); err != nil {
		t.Fatalf("bid: %v", err)
	}
	tbl.afterBid(seat)
	if tbl.epoch == stale {
		t.Fatal("afterBid did not advance the timer epoch")
	}

	next := tbl.state.CurrentSeat
	tbl.handleTimeout(tableIntent{kind: intentTimeout, seat: seat, epoch: stale})

	if tbl.missedTurns[seat] != 0 {
		t.Fatalf("stale timeout counted a missed turn: %d", tbl.missedTurns[seat])
	}
	if tbl.state.CurrentSeat != next {
		t.Fatalf("stale timeout moved the turn: seat %d, want %d", tbl.state.CurrentSeat, next)
	}
	if tbl.state.Bids[next] != nil {
		t.Fatalf("stale timeout synthesized a bid for seat %d", next)
	}
}

func TestTableAddBotSeatTargeting(t *testing.T) {
	uid := int64(100)
	tbl := &Table{
		ID:      "table-under-test",
		inbox:   make(chan tableIntent, 64),
		state:   game.NewState(domain.Settings{Mode: domain.ModePartners, BidType: domain.BidRegular}, rand.New(rand.NewSource(7))),
		clients: make(map[int64]*Client),
	}
	tbl.seats[0] = domain.Seat{GameID: tbl.ID, Index: 0, UserID: &uid, Connected: true}
	c := &Client{UserID: uid, Send: make(chan []byte, 8), Seat: 0}

	expectError := func(raw, want string) {
		t.Helper()
		tbl.handleMessage(c, []byte(raw))
		select {
		case msg := <-c.Send:
			if !bytes.Contains(msg, []byte(want)) {
				t.Fatalf("response = %s, want %q", msg, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("no response for %s", raw)
		}
	}

	// The requested seat comes out of the payload, so a bad index and a
	// taken seat are rejected before any bot is created.
	expectError(`{"type":"add_bot","payload":{"seat":9}}`, "invalid seat")
	expectError(`{"type":"add_bot","payload":{"seat":0}}`, "seat is taken")

	tbl.state.Phase = domain.PhaseBidding
	expectError(`{"type":"add_bot","payload":{"seat":1}}`, "before the game starts")
}

func TestTableStaleBotMoveDropped(t *testing.T) {
	tbl, _ := newBiddingTable(t)
	tbl.scheduleTurn()
	seat := tbl.state.CurrentSeat
	stale := tbl.epoch
	tbl.scheduleTurn()

	tbl.handleBotMove(tableIntent{kind: intentBotMove, seat: seat, epoch: stale})
	if tbl.state.Bids[seat] != nil {
		t.Fatalf("stale bot callback placed a bid: %+v", tbl.state.Bids[seat])
	}
}
