package ws

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"spades_server/internal/domain"
	"spades_server/internal/persist"
)

// Hub tracks the live tables. A table exists in memory only while someone
// cares about it; joining a game that is not resident rebuilds it from the
// database.
type Hub struct {
	mu        sync.RWMutex
	tables    map[string]*Table
	userTable map[int64]string

	store       *persist.Store
	turnTimeout time.Duration
}

func NewHub(store *persist.Store, turnTimeout time.Duration) *Hub {
	return &Hub{
		tables:      make(map[string]*Table),
		userTable:   make(map[int64]string),
		store:       store,
		turnTimeout: turnTimeout,
	}
}

// CreateGame inserts a fresh game row. The table itself spins up when the
// first player connects.
func (h *Hub) CreateGame(ctx context.Context, settings domain.Settings) (*domain.Game, error) {
	g := &domain.Game{
		ID:         uuid.NewString(),
		Phase:      domain.PhaseWaiting,
		Settings:   settings,
		DealerSeat: domain.PlayersPerGame - 1,
	}
	if err := h.store.Games.Create(ctx, g); err != nil {
		return nil, err
	}
	log.Printf("Hub.CreateGame: id=%s mode=%s bid_type=%s", g.ID, settings.Mode, settings.BidType)
	return g, nil
}

// AssignClient routes a connection to its table, reviving the table from
// the database when it is not resident.
func (h *Hub) AssignClient(c *Client) *Table {
	h.mu.Lock()
	t, ok := h.tables[c.GameID]
	if !ok {
		var err error
		t, err = h.reviveTable(c.GameID)
		if err != nil {
			h.mu.Unlock()
			log.Printf("Hub.AssignClient: user=%d game=%s: %v", c.UserID, c.GameID, err)
			return nil
		}
		h.tables[c.GameID] = t
		go t.Run()
	}
	h.userTable[c.UserID] = c.GameID
	h.mu.Unlock()

	t.Register(c)
	return t
}

// reviveTable loads a game's durable rows and rebuilds its live state.
// Called with the hub lock held.
func (h *Hub) reviveTable(gameID string) (*Table, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	loaded, err := h.store.LoadGame(ctx, gameID, rng)
	if err != nil {
		return nil, err
	}
	log.Printf("Hub.reviveTable: game=%s phase=%s round=%d", gameID, loaded.State.Phase, loaded.State.RoundNumber)
	return NewTable(h, h.store, loaded.Game, loaded.Seats, loaded.State, loaded.Round, h.turnTimeout), nil
}

func (h *Hub) OnDisconnect(c *Client) {
	h.mu.Lock()
	if gameID, ok := h.userTable[c.UserID]; ok && gameID == c.GameID {
		delete(h.userTable, c.UserID)
	}
	t := h.tables[c.GameID]
	h.mu.Unlock()

	if t != nil {
		t.Disconnect(c)
	}
}

func (h *Hub) removeTable(t *Table) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.tables[t.ID]; ok && cur == t {
		delete(h.tables, t.ID)
	}
	for uid, gameID := range h.userTable {
		if gameID == t.ID {
			delete(h.userTable, uid)
		}
	}
	log.Printf("Hub.removeTable: table=%s removed (tables=%d)", t.ID, len(h.tables))
}

// StartCleanup evicts tables nobody has joined for an hour. Durable state
// survives eviction; the table is revived on the next join.
func (h *Hub) StartCleanup() {
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			h.evictIdleTables()
		}
	}()
}

func (h *Hub) evictIdleTables() {
	h.mu.RLock()
	var idle []*Table
	for _, t := range h.tables {
		if t.clientCount.Load() == 0 && time.Since(t.createdAt) > time.Hour {
			idle = append(idle, t)
		}
	}
	h.mu.RUnlock()

	for _, t := range idle {
		log.Printf("Hub.evictIdleTables: shutting down idle table=%s", t.ID)
		t.Shutdown()
	}
}

// TableCount is exported for the readiness probe.
func (h *Hub) TableCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.tables)
}
