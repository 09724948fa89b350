package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"spades_server/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type RoundRepository struct {
	db *pgxpool.Pool
}

func NewRoundRepository(db *pgxpool.Pool) *RoundRepository {
	return &RoundRepository{db: db}
}

func (r *RoundRepository) Create(ctx context.Context, round *domain.Round) error {
	handsJSON, err := json.Marshal(round.DealtHands)
	if err != nil {
		return err
	}

	return r.db.QueryRow(ctx,
		`INSERT INTO rounds (game_id, round_number, dealt_hands)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (game_id, round_number)
		 DO UPDATE SET dealt_hands = EXCLUDED.dealt_hands
		 RETURNING id`,
		round.GameID,
		round.Number,
		handsJSON,
	).Scan(&round.ID)
}

// GetByGame returns all rounds of a game in play order, hands included.
func (r *RoundRepository) GetByGame(ctx context.Context, gameID string) ([]*domain.Round, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, game_id, round_number, dealt_hands
		 FROM rounds
		 WHERE game_id = $1
		 ORDER BY round_number`,
		gameID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.Round
	for rows.Next() {
		var round domain.Round
		var handsBytes []byte
		if err := rows.Scan(&round.ID, &round.GameID, &round.Number, &handsBytes); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(handsBytes, &round.DealtHands); err != nil {
			return nil, fmt.Errorf("round %d hands: %w", round.ID, err)
		}
		res = append(res, &round)
	}
	return res, rows.Err()
}

func (r *RoundRepository) SaveBid(ctx context.Context, b *domain.Bid) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO bids (round_id, seat_index, bid, is_nil, is_blind_nil)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (round_id, seat_index)
		 DO UPDATE SET bid = $3, is_nil = $4, is_blind_nil = $5`,
		b.RoundID,
		b.Seat,
		b.Value,
		b.IsNil,
		b.IsBlindNil,
	)
	return err
}

func (r *RoundRepository) GetBids(ctx context.Context, roundID int64) ([]domain.Bid, error) {
	rows, err := r.db.Query(ctx,
		`SELECT round_id, seat_index, bid, is_nil, is_blind_nil
		 FROM bids
		 WHERE round_id = $1
		 ORDER BY seat_index`,
		roundID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Bid
	for rows.Next() {
		var b domain.Bid
		if err := rows.Scan(&b.RoundID, &b.Seat, &b.Value, &b.IsNil, &b.IsBlindNil); err != nil {
			return nil, err
		}
		res = append(res, b)
	}
	return res, rows.Err()
}

func (r *RoundRepository) SaveScores(ctx context.Context, score *domain.RoundScore) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i, s := range score.Sides {
		_, err := tx.Exec(ctx,
			`INSERT INTO round_scores
			   (round_id, side_index, bid, tricks, trick_score, bag_score,
			    bag_penalty, nil_bonus, round_total, running_total, bags)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 ON CONFLICT (round_id, side_index) DO NOTHING`,
			score.RoundID,
			i,
			s.Bid,
			s.Tricks,
			s.TrickScore,
			s.BagScore,
			s.BagPenalty,
			s.NilBonus,
			s.RoundTotal,
			s.RunningTotal,
			s.Bags,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *RoundRepository) GetScores(ctx context.Context, roundID int64) (*domain.RoundScore, error) {
	rows, err := r.db.Query(ctx,
		`SELECT bid, tricks, trick_score, bag_score, bag_penalty,
		        nil_bonus, round_total, running_total, bags
		 FROM round_scores
		 WHERE round_id = $1
		 ORDER BY side_index`,
		roundID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	score := &domain.RoundScore{RoundID: roundID}
	for rows.Next() {
		var s domain.SideScore
		if err := rows.Scan(
			&s.Bid,
			&s.Tricks,
			&s.TrickScore,
			&s.BagScore,
			&s.BagPenalty,
			&s.NilBonus,
			&s.RoundTotal,
			&s.RunningTotal,
			&s.Bags,
		); err != nil {
			return nil, err
		}
		score.Sides = append(score.Sides, s)
	}
	return score, rows.Err()
}
