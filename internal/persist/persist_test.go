package persist

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"spades_server/internal/domain"
	"spades_server/internal/game"
	"spades_server/internal/repository"
)

func applyMigrations(t *testing.T, db *pgxpool.Pool) {
	t.Helper()
	migDir := filepath.Join("..", "..", "internal", "migrations")
	files, err := os.ReadDir(migDir)
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	for _, f := range files {
		b, err := os.ReadFile(filepath.Join(migDir, f.Name()))
		if err != nil {
			t.Fatalf("read file: %v", err)
		}
		if _, err := db.Exec(context.Background(), string(b)); err != nil {
			t.Fatalf("apply migration %s: %v", f.Name(), err)
		}
	}
}

func testStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	db, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)
	applyMigrations(t, db)
	return NewStore(
		repository.NewGameRepository(db),
		repository.NewRoundRepository(db),
		repository.NewTrickRepository(db),
		repository.NewUserRepository(db),
	)
}

// snapshotOf captures the durable view of a live state, the way the table
// loop does after each applied intent.
func snapshotOf(g domain.Game, st *game.State) *Snapshot {
	g.Phase = st.Phase
	g.DealerSeat = st.DealerSeat
	g.CurrentRound = st.RoundNumber
	g.CurrentTrick = st.TricksDone

	snap := &Snapshot{Game: g}
	if st.RoundNumber == 0 {
		return snap
	}
	snap.Round = &domain.Round{
		GameID: g.ID,
		Number: st.RoundNumber,
	}
	for seat := 0; seat < domain.PlayersPerGame; seat++ {
		snap.Round.DealtHands[seat] = append([]domain.Card(nil), st.Hands[seat]...)
	}
	for _, b := range st.Bids {
		if b != nil {
			snap.Bids = append(snap.Bids, *b)
		}
	}
	if len(st.Trick) > 0 {
		snap.Tricks = append(snap.Tricks, &domain.Trick{
			Number:   st.TricksDone,
			LeadSeat: st.Trick[0].Seat,
			Cards:    append([]domain.PlayedCard(nil), st.Trick...),
		})
	}
	return snap
}

func TestRecorderLoaderRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	settings := domain.Settings{
		Mode:      domain.ModePartners,
		BidType:   domain.BidRegular,
		AllowNil:  true,
		MinPoints: -200,
		MaxPoints: 250,
	}
	g := domain.Game{ID: uuid.NewString(), Phase: domain.PhaseWaiting, Settings: settings}
	if err := store.Games.Create(ctx, &g); err != nil {
		t.Fatalf("create game: %v", err)
	}
	for seat := 0; seat < domain.PlayersPerGame; seat++ {
		if err := store.Games.UpsertSeat(ctx, &domain.Seat{GameID: g.ID, Index: seat, IsBot: true}); err != nil {
			t.Fatalf("seat %d: %v", seat, err)
		}
	}

	st := game.NewState(settings, rand.New(rand.NewSource(7)))
	if err := st.StartRound(); err != nil {
		t.Fatalf("deal: %v", err)
	}
	// The loader rebuilds hands from dealt_hands minus trick cards, so
	// persist the full deal before any card is played.
	dealt := st.Hands

	rec := NewRecorder(store, g.ID)
	submit := func() {
		snap := snapshotOf(g, st)
		if snap.Round != nil {
			snap.Round.DealtHands = dealt
		}
		rec.Submit(snap)
	}
	submit()

	for st.Phase == domain.PhaseBidding {
		v, isNil := st.SuggestBidFor(st.CurrentSeat)
		if err := st.ApplyBid(st.CurrentSeat, v, isNil, false); err != nil {
			t.Fatalf("bid: %v", err)
		}
		submit()
	}
	// Play one full trick and two cards of the next.
	for plays := 0; plays < 6; plays++ {
		card := st.SuggestPlayFor(st.CurrentSeat)
		if _, err := st.ApplyPlay(st.CurrentSeat, card); err != nil {
			t.Fatalf("play: %v", err)
		}
		submit()
	}
	rec.Close()

	loaded, err := store.LoadGame(ctx, g.ID, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got := loaded.State
	if got.Phase != st.Phase {
		t.Errorf("phase = %s, want %s", got.Phase, st.Phase)
	}
	if got.CurrentSeat != st.CurrentSeat {
		t.Errorf("current seat = %d, want %d", got.CurrentSeat, st.CurrentSeat)
	}
	if got.TricksDone != st.TricksDone {
		t.Errorf("tricks done = %d, want %d", got.TricksDone, st.TricksDone)
	}
	if got.SpadesBroken != st.SpadesBroken {
		t.Errorf("spades broken = %v, want %v", got.SpadesBroken, st.SpadesBroken)
	}
	if len(got.Trick) != len(st.Trick) {
		t.Fatalf("open trick has %d cards, want %d", len(got.Trick), len(st.Trick))
	}
	for i := range st.Trick {
		if got.Trick[i] != st.Trick[i] {
			t.Errorf("trick card %d = %v, want %v", i, got.Trick[i], st.Trick[i])
		}
	}
	for seat := 0; seat < domain.PlayersPerGame; seat++ {
		if got.Bids[seat] == nil || *got.Bids[seat] != withRound(*st.Bids[seat], got.Bids[seat].RoundID) {
			t.Errorf("seat %d bid = %+v, want %+v", seat, got.Bids[seat], st.Bids[seat])
		}
		if len(got.Hands[seat]) != len(st.Hands[seat]) {
			t.Errorf("seat %d hand = %d cards, want %d", seat, len(got.Hands[seat]), len(st.Hands[seat]))
		}
		for _, c := range st.Hands[seat] {
			if !domain.HandContains(got.Hands[seat], c) {
				t.Errorf("seat %d lost %s in the round trip", seat, c)
			}
		}
	}

	if err := store.Games.ForceDelete(ctx, g.ID); err != nil {
		t.Fatalf("force delete: %v", err)
	}
	if _, err := store.Games.GetByID(ctx, g.ID); err == nil {
		t.Fatal("game still present after force delete")
	}
}

func withRound(b domain.Bid, roundID int64) domain.Bid {
	b.RoundID = roundID
	return b
}

func TestRecorderCoalescesSameRound(t *testing.T) {
	a := &Snapshot{Round: &domain.Round{Number: 1}}
	b := &Snapshot{Round: &domain.Round{Number: 1}}
	c := &Snapshot{Round: &domain.Round{Number: 2}}

	r := &Recorder{wake: make(chan struct{}, 1), done: make(chan struct{})}
	r.Submit(a)
	r.Submit(b)
	r.Submit(c)

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) != 2 {
		t.Fatalf("queue depth = %d, want 2 (same-round snapshots coalesce)", len(r.queue))
	}
	if r.queue[0] != b || r.queue[1] != c {
		t.Fatal("queue should hold the newer same-round snapshot then the next round")
	}
}
