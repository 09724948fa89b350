package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"spades_server/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type GameRepository struct {
	db *pgxpool.Pool
}

func NewGameRepository(db *pgxpool.Pool) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) Create(ctx context.Context, g *domain.Game) error {
	settingsJSON, err := json.Marshal(g.Settings)
	if err != nil {
		return err
	}

	return r.db.QueryRow(ctx,
		`INSERT INTO games (id, phase, settings, dealer_seat)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		g.ID,
		g.Phase,
		settingsJSON,
		g.DealerSeat,
	).Scan(&g.CreatedAt, &g.UpdatedAt)
}

func (r *GameRepository) GetByID(ctx context.Context, id string) (*domain.Game, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, phase, settings, dealer_seat, current_round, current_trick, created_at, updated_at
		 FROM games
		 WHERE id = $1`,
		id,
	)

	var g domain.Game
	var settingsBytes []byte
	if err := row.Scan(
		&g.ID,
		&g.Phase,
		&settingsBytes,
		&g.DealerSeat,
		&g.CurrentRound,
		&g.CurrentTrick,
		&g.CreatedAt,
		&g.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(settingsBytes, &g.Settings); err != nil {
		return nil, fmt.Errorf("game %s settings: %w", g.ID, err)
	}
	return &g, nil
}

// UpdateProgress writes the coalesced live-state snapshot for a game.
func (r *GameRepository) UpdateProgress(ctx context.Context, g *domain.Game) error {
	_, err := r.db.Exec(ctx,
		`UPDATE games
		 SET phase = $2, dealer_seat = $3, current_round = $4, current_trick = $5, updated_at = now()
		 WHERE id = $1`,
		g.ID,
		g.Phase,
		g.DealerSeat,
		g.CurrentRound,
		g.CurrentTrick,
	)
	return err
}

func (r *GameRepository) UpsertSeat(ctx context.Context, s *domain.Seat) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO game_seats (game_id, seat_index, user_id, is_bot, connected)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (game_id, seat_index)
		 DO UPDATE SET user_id = $3, is_bot = $4, connected = $5`,
		s.GameID,
		s.Index,
		s.UserID,
		s.IsBot,
		s.Connected,
	)
	return err
}

func (r *GameRepository) GetSeats(ctx context.Context, gameID string) ([]domain.Seat, error) {
	rows, err := r.db.Query(ctx,
		`SELECT game_id, seat_index, user_id, is_bot, connected
		 FROM game_seats
		 WHERE game_id = $1
		 ORDER BY seat_index`,
		gameID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []domain.Seat
	for rows.Next() {
		var s domain.Seat
		if err := rows.Scan(&s.GameID, &s.Index, &s.UserID, &s.IsBot, &s.Connected); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

func (r *GameRepository) SetSeatConnected(ctx context.Context, gameID string, seat int, connected bool) error {
	_, err := r.db.Exec(ctx,
		`UPDATE game_seats SET connected = $3 WHERE game_id = $1 AND seat_index = $2`,
		gameID,
		seat,
		connected,
	)
	return err
}

// ListActiveForUser returns unfinished games the user is seated at, newest
// first, so a reconnecting client can be routed back to its table.
func (r *GameRepository) ListActiveForUser(ctx context.Context, userID int64) ([]*domain.Game, error) {
	rows, err := r.db.Query(ctx,
		`SELECT g.id, g.phase, g.settings, g.dealer_seat, g.current_round, g.current_trick, g.created_at, g.updated_at
		 FROM games g
		 JOIN game_seats s ON s.game_id = g.id
		 WHERE s.user_id = $1 AND g.phase <> 'FINISHED'
		 ORDER BY g.updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.Game
	for rows.Next() {
		var g domain.Game
		var settingsBytes []byte
		if err := rows.Scan(
			&g.ID,
			&g.Phase,
			&settingsBytes,
			&g.DealerSeat,
			&g.CurrentRound,
			&g.CurrentTrick,
			&g.CreatedAt,
			&g.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(settingsBytes, &g.Settings); err != nil {
			return nil, fmt.Errorf("game %s settings: %w", g.ID, err)
		}
		res = append(res, &g)
	}
	return res, rows.Err()
}

// FindStuck returns unfinished games untouched for longer than maxAge.
func (r *GameRepository) FindStuck(ctx context.Context, maxAge time.Duration) ([]*domain.Game, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, phase, settings, dealer_seat, current_round, current_trick, created_at, updated_at
		 FROM games
		 WHERE phase <> 'FINISHED' AND updated_at < now() - $1::interval`,
		fmt.Sprintf("%d seconds", int(maxAge.Seconds())),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.Game
	for rows.Next() {
		var g domain.Game
		var settingsBytes []byte
		if err := rows.Scan(
			&g.ID,
			&g.Phase,
			&settingsBytes,
			&g.DealerSeat,
			&g.CurrentRound,
			&g.CurrentTrick,
			&g.CreatedAt,
			&g.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(settingsBytes, &g.Settings); err != nil {
			return nil, fmt.Errorf("game %s settings: %w", g.ID, err)
		}
		res = append(res, &g)
	}
	return res, rows.Err()
}

// BotSeatUserIDs returns the user ids of bot-occupied seats of a game.
func (r *GameRepository) BotSeatUserIDs(ctx context.Context, gameID string) ([]int64, error) {
	rows, err := r.db.Query(ctx,
		`SELECT user_id FROM game_seats
		 WHERE game_id = $1 AND is_bot AND user_id IS NOT NULL`,
		gameID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// OrphanCounts is the per-table tally of child rows whose parent row is
// gone, as found by ScanOrphans.
type OrphanCounts struct {
	TrickCards  int64
	Tricks      int64
	Bids        int64
	RoundScores int64
	Rounds      int64
	Seats       int64
}

func (c OrphanCounts) Total() int64 {
	return c.TrickCards + c.Tricks + c.Bids + c.RoundScores + c.Rounds + c.Seats
}

// ScanOrphans counts dangling child rows at every level of the game tree.
// Deletes are manual and multi-step, so an interrupted cleanup can leave
// children behind; the operator tool reports these before offering a
// force-delete.
func (r *GameRepository) ScanOrphans(ctx context.Context) (OrphanCounts, error) {
	var c OrphanCounts
	checks := []struct {
		dst   *int64
		query string
	}{
		{&c.TrickCards, `SELECT count(*) FROM trick_cards tc
			 LEFT JOIN tricks t ON t.id = tc.trick_id WHERE t.id IS NULL`},
		{&c.Tricks, `SELECT count(*) FROM tricks t
			 LEFT JOIN rounds r ON r.id = t.round_id WHERE r.id IS NULL`},
		{&c.Bids, `SELECT count(*) FROM bids b
			 LEFT JOIN rounds r ON r.id = b.round_id WHERE r.id IS NULL`},
		{&c.RoundScores, `SELECT count(*) FROM round_scores rs
			 LEFT JOIN rounds r ON r.id = rs.round_id WHERE r.id IS NULL`},
		{&c.Rounds, `SELECT count(*) FROM rounds r
			 LEFT JOIN games g ON g.id = r.game_id WHERE g.id IS NULL`},
		{&c.Seats, `SELECT count(*) FROM game_seats s
			 LEFT JOIN games g ON g.id = s.game_id WHERE g.id IS NULL`},
	}
	for _, chk := range checks {
		if err := r.db.QueryRow(ctx, chk.query).Scan(chk.dst); err != nil {
			return c, err
		}
	}
	return c, nil
}

// ForceDelete removes a game and all of its dependent rows. The schema has
// no cascading deletes, so children go first: trick cards, tricks, bids and
// scores, rounds, seats, then the game row, all in one transaction.
func (r *GameRepository) ForceDelete(ctx context.Context, gameID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	steps := []string{
		`DELETE FROM trick_cards WHERE trick_id IN
		   (SELECT t.id FROM tricks t JOIN rounds r ON r.id = t.round_id WHERE r.game_id = $1)`,
		`DELETE FROM tricks WHERE round_id IN (SELECT id FROM rounds WHERE game_id = $1)`,
		`DELETE FROM bids WHERE round_id IN (SELECT id FROM rounds WHERE game_id = $1)`,
		`DELETE FROM round_scores WHERE round_id IN (SELECT id FROM rounds WHERE game_id = $1)`,
		`DELETE FROM rounds WHERE game_id = $1`,
		`DELETE FROM game_seats WHERE game_id = $1`,
		`DELETE FROM games WHERE id = $1`,
	}
	for _, q := range steps {
		if _, err := tx.Exec(ctx, q, gameID); err != nil {
			return fmt.Errorf("force delete %s: %w", gameID, err)
		}
	}
	return tx.Commit(ctx)
}
