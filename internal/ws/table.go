package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync/atomic"
	"time"

	"spades_server/internal/domain"
	"spades_server/internal/game"
	"spades_server/internal/persist"
)

const (
	botMoveDelay     = 700 * time.Millisecond
	handSummaryDelay = 6 * time.Second
	// after this many expired turns in a row the seat is handed to a bot
	botTakeoverAfter = 3
)

type intentKind int

const (
	intentRegister intentKind = iota
	intentDisconnect
	intentMessage
	intentTimeout
	intentBotMove
	intentContinue
	intentShutdown
)

// tableIntent is one unit of work for the table loop. Timer callbacks carry
// the epoch they were armed with; a stale epoch means the turn they were
// guarding has already advanced and the intent is dropped.
type tableIntent struct {
	kind   intentKind
	client *Client
	raw    []byte
	seat   int
	epoch  int
}

// snapshotSink receives the durable snapshots the table loop emits. The
// production sink is the persist.Recorder.
type snapshotSink interface {
	Submit(*persist.Snapshot)
	Close()
}

// Table owns one game. All state behind it - the live game.State, the seat
// map, the timer - is touched only by the Run goroutine, which drains the
// inbox one intent at a time. Everything outside talks to the table by
// enqueueing intents.
type Table struct {
	ID  string
	hub *Hub

	inbox chan tableIntent

	state    *game.State
	gameRow  domain.Game
	seats    [4]domain.Seat
	clients  map[int64]*Client
	dealt    [4][]domain.Card
	tricks   []domain.Trick
	open     *domain.Trick
	scores   *domain.RoundScore
	recorder snapshotSink
	store    *persist.Store

	timer       *time.Timer
	epoch       int
	deadline    time.Time
	turnTimeout time.Duration
	missedTurns [4]int

	createdAt   time.Time
	clientCount atomic.Int32
}

// NewTable wires a table around a live state. For a game loaded after a
// restart, round carries the durable current-round row so snapshots keep
// writing the original deal; for a new game it is nil.
func NewTable(hub *Hub, store *persist.Store, g *domain.Game, seats []domain.Seat,
	st *game.State, round *domain.Round, turnTimeout time.Duration) *Table {
	t := &Table{
		ID:          g.ID,
		hub:         hub,
		inbox:       make(chan tableIntent, 64),
		state:       st,
		gameRow:     *g,
		clients:     make(map[int64]*Client),
		recorder:    persist.NewRecorder(store, g.ID),
		store:       store,
		turnTimeout: turnTimeout,
		createdAt:   time.Now(),
	}
	for _, s := range seats {
		if s.Index >= 0 && s.Index < domain.PlayersPerGame {
			s.Connected = false
			t.seats[s.Index] = s
		}
	}
	for i := range t.seats {
		t.seats[i].GameID = g.ID
		t.seats[i].Index = i
	}
	if round != nil {
		for seat := 0; seat < domain.PlayersPerGame; seat++ {
			t.dealt[seat] = append([]domain.Card(nil), round.DealtHands[seat]...)
		}
		// Re-seed the open trick mirror; completed tricks are already
		// durable and snapshots only ever add rows.
		if len(st.Trick) > 0 {
			t.open = &domain.Trick{
				Number:   st.TricksDone,
				LeadSeat: st.Trick[0].Seat,
				Cards:    append([]domain.PlayedCard(nil), st.Trick...),
			}
		}
	}
	return t
}

// copyDealt snapshots the hands right after a deal, before any card is
// played, so the durable round row keeps the full original deal.
func copyDealt(st *game.State) [4][]domain.Card {
	var dealt [4][]domain.Card
	for seat := 0; seat < domain.PlayersPerGame; seat++ {
		dealt[seat] = append([]domain.Card(nil), st.Hands[seat]...)
	}
	return dealt
}

func (t *Table) Register(c *Client)   { t.inbox <- tableIntent{kind: intentRegister, client: c} }
func (t *Table) Disconnect(c *Client) { t.inbox <- tableIntent{kind: intentDisconnect, client: c} }

func (t *Table) HandleMessage(c *Client, raw []byte) {
	t.inbox <- tableIntent{kind: intentMessage, client: c, raw: raw}
}

// Shutdown asks the table loop to exit. Pending snapshots still flush.
func (t *Table) Shutdown() {
	select {
	case t.inbox <- tableIntent{kind: intentShutdown}:
	default:
	}
}

func (t *Table) Run() {
	log.Printf("Table.Run: starting table=%s", t.ID)
	defer t.cleanup()

	// A table rebuilt from the database resumes mid-turn: arm the timer
	// for whatever the loaded state is waiting on.
	if t.state.Phase != domain.PhaseWaiting && t.state.Phase != domain.PhaseFinished {
		t.scheduleTurn()
	}

	for it := range t.inbox {
		switch it.kind {
		case intentRegister:
			t.handleRegister(it.client)
		case intentDisconnect:
			t.handleDisconnect(it.client)
		case intentMessage:
			t.handleMessage(it.client, it.raw)
		case intentTimeout:
			t.handleTimeout(it)
		case intentBotMove:
			t.handleBotMove(it)
		case intentContinue:
			t.handleContinue(it)
		case intentShutdown:
			return
		}

		if t.state.Phase == domain.PhaseFinished && len(t.clients) == 0 {
			log.Printf("Table.Run: table=%s finished and empty, exiting", t.ID)
			return
		}
	}
}

func (t *Table) cleanup() {
	if t.timer != nil {
		t.timer.Stop()
	}
	t.recorder.Close()
	t.hub.removeTable(t)
	log.Printf("Table.Run: table=%s cleaned up", t.ID)
}

func (t *Table) handleRegister(c *Client) {
	seat := t.seatFor(c.UserID)
	if seat == -1 {
		t.sendError(c, "no free seat at this table")
		c.Conn.Close()
		return
	}
	c.Seat = seat
	t.clients[c.UserID] = c
	t.clientCount.Store(int32(len(t.clients)))
	t.seats[seat].UserID = &c.UserID
	t.seats[seat].Connected = true
	// A returning player reclaims a seat the timeout logic handed to a bot.
	reclaimed := t.seats[seat].IsBot
	if reclaimed {
		t.seats[seat].IsBot = false
		t.missedTurns[seat] = 0
	}
	t.persistSeat(t.seats[seat])
	log.Printf("Table.handleRegister: table=%s user=%d seat=%d", t.ID, c.UserID, seat)

	if t.state.Phase == domain.PhaseWaiting && t.allSeated() {
		t.startRound()
	} else {
		t.broadcastUpdate()
		// Re-arm the turn timer as a human turn if the reclaimed seat
		// was about to move as a bot.
		if reclaimed && t.state.CurrentSeat == seat {
			t.scheduleTurn()
		}
	}
}

// seatFor returns the client's existing seat on reconnect, or the first
// free one.
func (t *Table) seatFor(userID int64) int {
	for i, s := range t.seats {
		if s.UserID != nil && *s.UserID == userID {
			return i
		}
	}
	for i, s := range t.seats {
		if !s.Occupied() {
			return i
		}
	}
	return -1
}

func (t *Table) allSeated() bool {
	for _, s := range t.seats {
		if !s.Occupied() {
			return false
		}
	}
	return true
}

func (t *Table) handleDisconnect(c *Client) {
	cur, ok := t.clients[c.UserID]
	if !ok || cur != c {
		return
	}
	delete(t.clients, c.UserID)
	t.clientCount.Store(int32(len(t.clients)))
	if c.Seat >= 0 {
		t.seats[c.Seat].Connected = false
		t.persistSeat(t.seats[c.Seat])
	}
	log.Printf("Table.handleDisconnect: table=%s user=%d seat=%d", t.ID, c.UserID, c.Seat)
	// The game keeps running: an absent player's turns expire into
	// synthesized moves until they reconnect or a bot takes the seat.
	t.broadcastUpdate()
}

func (t *Table) handleMessage(c *Client, raw []byte) {
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.sendError(c, "malformed message")
		return
	}

	switch msg.Type {
	case MsgBid:
		var p BidPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			t.sendError(c, "malformed bid")
			return
		}
		t.applyBid(c, p)
	case MsgPlay:
		var p PlayPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			t.sendError(c, "malformed play")
			return
		}
		t.applyPlay(c, p)
	case MsgAddBot:
		var p AddBotPayload
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				t.sendError(c, "malformed add_bot")
				return
			}
		}
		t.addBots(c, p)
	case MsgContinue:
		t.handleContinue(tableIntent{epoch: t.epoch})
	default:
		t.sendError(c, "unknown message type")
	}
}

func (t *Table) applyBid(c *Client, p BidPayload) {
	if err := t.state.ApplyBid(c.Seat, p.Value, p.IsNil, p.IsBlindNil); err != nil {
		t.sendError(c, err.Error())
		return
	}
	t.missedTurns[c.Seat] = 0
	t.afterBid(c.Seat)
}

func (t *Table) afterBid(seat int) {
	log.Printf("Table.afterBid: table=%s seat=%d bid=%+v", t.ID, seat, t.state.Bids[seat])
	t.submitSnapshot()
	t.broadcast(Message{Type: MsgBiddingUpdate, Payload: map[string]any{
		"seat": seat,
		"bid":  t.state.Bids[seat],
	}})
	t.broadcastUpdate()
	t.scheduleTurn()
}

func (t *Table) applyPlay(c *Client, p PlayPayload) {
	card := domain.Card{Suit: p.Suit, Rank: p.Rank}
	res, err := t.state.ApplyPlay(c.Seat, card)
	if err != nil {
		t.sendError(c, err.Error())
		return
	}
	t.missedTurns[c.Seat] = 0
	t.afterPlay(c.Seat, card, res)
}

func (t *Table) afterPlay(seat int, card domain.Card, res game.PlayResult) {
	t.recordPlay(seat, card, res)
	t.submitSnapshot()

	t.broadcast(Message{Type: MsgPlayUpdate, Payload: map[string]any{
		"seat": seat,
		"card": card,
	}})
	if res.TrickWinner != nil {
		last := t.tricks[len(t.tricks)-1]
		t.broadcast(Message{Type: MsgTrickComplete, Payload: TrickCompletePayload{
			WinningSeat: *res.TrickWinner,
			Cards:       last.Cards,
		}})
	}
	if res.RoundScores != nil {
		t.broadcast(Message{Type: MsgHandComplete, Payload: HandCompletePayload{
			RoundNumber: t.state.RoundNumber,
			Scores:      res.RoundScores,
		}})
	}
	if res.Outcome != nil {
		t.broadcast(Message{Type: MsgGameOver, Payload: GameOverPayload{
			WinningSide: res.Outcome.WinningSide,
			Scores:      t.state.Scores,
		}})
	}
	t.broadcastUpdate()
	t.scheduleTurn()
}

// recordPlay maintains the durable mirror of the round's tricks.
func (t *Table) recordPlay(seat int, card domain.Card, res game.PlayResult) {
	if t.open == nil {
		t.open = &domain.Trick{
			Number:   t.state.TricksDone,
			LeadSeat: seat,
		}
	}
	t.open.Cards = append(t.open.Cards, domain.PlayedCard{Card: card, Seat: seat})
	if res.TrickWinner != nil {
		t.open.WinningSeat = res.TrickWinner
		t.tricks = append(t.tricks, *t.open)
		t.open = nil
	}
	if res.RoundScores != nil {
		t.scores = &domain.RoundScore{Sides: res.RoundScores}
	}
}

func (t *Table) addBots(c *Client, p AddBotPayload) {
	if t.state.Phase != domain.PhaseWaiting {
		t.sendError(c, "bots can only be added before the game starts")
		return
	}
	if p.Seat != nil {
		seat := *p.Seat
		if seat < 0 || seat >= domain.PlayersPerGame {
			t.sendError(c, "invalid seat")
			return
		}
		if t.seats[seat].Occupied() {
			t.sendError(c, "seat is taken")
			return
		}
		t.fillSeatWithBot(seat)
	} else {
		for i := range t.seats {
			if !t.seats[i].Occupied() {
				t.fillSeatWithBot(i)
			}
		}
	}
	if t.allSeated() {
		t.startRound()
		return
	}
	t.broadcastUpdate()
}

func (t *Table) fillSeatWithBot(seat int) {
	t.seats[seat].IsBot = true
	t.seats[seat].Connected = false
	bot := &domain.User{Username: botName(t.ID, seat), IsBot: true}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := t.store.Users.Create(ctx, bot); err != nil {
		log.Printf("Table.fillSeatWithBot: table=%s create bot user: %v", t.ID, err)
	} else {
		t.seats[seat].UserID = &bot.ID
	}
	t.persistSeat(t.seats[seat])
	log.Printf("Table.fillSeatWithBot: table=%s seat=%d", t.ID, seat)
}

func botName(gameID string, seat int) string {
	suffix := gameID
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return "bot-" + suffix + "-" + string(rune('a'+seat))
}

func (t *Table) startRound() {
	if err := t.state.StartRound(); err != nil {
		log.Printf("Table.startRound: table=%s: %v", t.ID, err)
		return
	}
	t.dealt = copyDealt(t.state)
	t.tricks = nil
	t.open = nil
	t.scores = nil
	log.Printf("Table.startRound: table=%s round=%d dealer=%d", t.ID, t.state.RoundNumber, t.state.DealerSeat)
	t.submitSnapshot()
	t.broadcastUpdate()
	t.scheduleTurn()
}

// scheduleTurn arms exactly one timer for whatever the state is waiting on:
// a bot's move, a human's move, or the pause between hands. Bumping the
// epoch first invalidates any callback already in flight.
func (t *Table) scheduleTurn() {
	t.epoch++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.deadline = time.Time{}

	epoch := t.epoch
	switch t.state.Phase {
	case domain.PhaseHandSummary:
		t.timer = time.AfterFunc(handSummaryDelay, func() {
			t.inbox <- tableIntent{kind: intentContinue, epoch: epoch}
		})
	case domain.PhaseBidding, domain.PhasePlaying:
		seat := t.state.CurrentSeat
		if t.seats[seat].IsBot {
			t.timer = time.AfterFunc(botMoveDelay, func() {
				t.inbox <- tableIntent{kind: intentBotMove, seat: seat, epoch: epoch}
			})
			return
		}
		t.deadline = time.Now().Add(t.turnTimeout)
		t.timer = time.AfterFunc(t.turnTimeout, func() {
			t.inbox <- tableIntent{kind: intentTimeout, seat: seat, epoch: epoch}
		})
	}
}

// handleTimeout synthesizes a legal move for an expired human turn. The
// move goes through the same ApplyBid/ApplyPlay path as a real one, so a
// late message from the human now gets the usual not-your-turn error.
func (t *Table) handleTimeout(it tableIntent) {
	if it.epoch != t.epoch {
		return
	}
	seat := it.seat
	t.missedTurns[seat]++
	log.Printf("Table.handleTimeout: table=%s seat=%d missed=%d", t.ID, seat, t.missedTurns[seat])
	if t.missedTurns[seat] >= botTakeoverAfter && !t.seats[seat].IsBot {
		t.seats[seat].IsBot = true
		t.persistSeat(t.seats[seat])
		log.Printf("Table.handleTimeout: table=%s seat=%d handed to bot", t.ID, seat)
	}
	t.playForSeat(seat)
}

func (t *Table) handleBotMove(it tableIntent) {
	if it.epoch != t.epoch {
		return
	}
	t.playForSeat(it.seat)
}

func (t *Table) playForSeat(seat int) {
	switch t.state.Phase {
	case domain.PhaseBidding:
		value, isNil := t.state.SuggestBidFor(seat)
		if err := t.state.ApplyBid(seat, value, isNil, false); err != nil {
			log.Printf("Table.playForSeat: table=%s seat=%d bid: %v", t.ID, seat, err)
			return
		}
		t.afterBid(seat)
	case domain.PhasePlaying:
		card := t.state.SuggestPlayFor(seat)
		res, err := t.state.ApplyPlay(seat, card)
		if err != nil {
			log.Printf("Table.playForSeat: table=%s seat=%d play %s: %v", t.ID, seat, card, err)
			return
		}
		t.afterPlay(seat, card, res)
	}
}

func (t *Table) handleContinue(it tableIntent) {
	if it.epoch != t.epoch {
		return
	}
	if t.state.Phase != domain.PhaseHandSummary {
		return
	}
	t.startRound()
}

// submitSnapshot hands the current durable view to the recorder. Every
// slice is copied: the table keeps mutating its own state while the
// recorder writes in the background.
func (t *Table) submitSnapshot() {
	g := t.gameRow
	g.Phase = t.state.Phase
	g.DealerSeat = t.state.DealerSeat
	g.CurrentRound = t.state.RoundNumber
	g.CurrentTrick = t.state.TricksDone

	snap := &persist.Snapshot{Game: g}
	if t.state.RoundNumber > 0 {
		round := &domain.Round{GameID: t.ID, Number: t.state.RoundNumber}
		for seat := 0; seat < domain.PlayersPerGame; seat++ {
			round.DealtHands[seat] = append([]domain.Card(nil), t.dealt[seat]...)
		}
		snap.Round = round
		for _, b := range t.state.Bids {
			if b != nil {
				snap.Bids = append(snap.Bids, *b)
			}
		}
		for _, trick := range t.tricks {
			cp := trick
			cp.ID = 0
			cp.Cards = append([]domain.PlayedCard(nil), trick.Cards...)
			snap.Tricks = append(snap.Tricks, &cp)
		}
		if t.open != nil {
			cp := *t.open
			cp.Cards = append([]domain.PlayedCard(nil), t.open.Cards...)
			snap.Tricks = append(snap.Tricks, &cp)
		}
		if t.scores != nil {
			cp := *t.scores
			cp.Sides = append([]domain.SideScore(nil), t.scores.Sides...)
			snap.Scores = &cp
		}
	}
	t.recorder.Submit(snap)
}

func (t *Table) persistSeat(seat domain.Seat) {
	s := seat
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := t.store.Games.UpsertSeat(ctx, &s); err != nil {
			log.Printf("Table.persistSeat: table=%s seat=%d: %v", t.ID, s.Index, err)
		}
	}()
}

// broadcastUpdate sends each connected player their own redacted view.
func (t *Table) broadcastUpdate() {
	for _, c := range t.clients {
		t.send(c, Message{Type: MsgGameUpdate, Payload: t.viewFor(c.Seat)})
	}
}

func (t *Table) viewFor(seat int) GameUpdatePayload {
	p := GameUpdatePayload{
		GameID:       t.ID,
		Phase:        t.state.Phase,
		Settings:     t.state.Settings,
		RoundNumber:  t.state.RoundNumber,
		DealerSeat:   t.state.DealerSeat,
		CurrentSeat:  t.state.CurrentSeat,
		YourSeat:     seat,
		SpadesBroken: t.state.SpadesBroken,
		Trick:        append([]domain.PlayedCard(nil), t.state.Trick...),
		Scores:       append([]domain.SideScore(nil), t.state.Scores...),
	}
	for i, s := range t.seats {
		view := SeatView{
			Index:     i,
			UserID:    s.UserID,
			IsBot:     s.IsBot,
			Connected: s.Connected,
			Bid:       t.state.Bids[i],
			Tricks:    t.state.TricksWon[i],
			HandSize:  len(t.state.Hands[i]),
		}
		if i == seat {
			view.Hand = append([]domain.Card(nil), t.state.Hands[i]...)
		}
		p.Seats = append(p.Seats, view)
	}
	if seat == t.state.CurrentSeat && t.state.Phase == domain.PhasePlaying {
		p.LegalPlays = t.state.LegalPlaysFor(seat)
	}
	if !t.deadline.IsZero() {
		p.TurnDeadline = t.deadline.UnixMilli()
	}
	return p
}

func (t *Table) send(c *Client, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Table.send: marshal error: %v", err)
		return
	}
	select {
	case c.Send <- data:
	case <-time.After(2 * time.Second):
		log.Printf("Table.send: timeout sending to user=%d type=%s", c.UserID, msg.Type)
	}
}

func (t *Table) broadcast(msg Message) {
	for _, c := range t.clients {
		t.send(c, msg)
	}
}

func (t *Table) sendError(c *Client, message string) {
	t.send(c, Message{Type: MsgError, Payload: ErrorPayload{Message: message}})
}
