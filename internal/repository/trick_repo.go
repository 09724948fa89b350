package repository

import (
	"context"

	"spades_server/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type TrickRepository struct {
	db *pgxpool.Pool
}

func NewTrickRepository(db *pgxpool.Pool) *TrickRepository {
	return &TrickRepository{db: db}
}

// Save writes a trick and its played cards in one transaction. Open tricks
// (fewer than four cards, no winner yet) are written too; the snapshot
// writer replaces them as cards land by saving under the same trick id.
func (r *TrickRepository) Save(ctx context.Context, t *domain.Trick) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if t.ID == 0 {
		err = tx.QueryRow(ctx,
			`INSERT INTO tricks (round_id, trick_number, lead_seat, winning_seat)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (round_id, trick_number)
			 DO UPDATE SET winning_seat = $4
			 RETURNING id`,
			t.RoundID,
			t.Number,
			t.LeadSeat,
			t.WinningSeat,
		).Scan(&t.ID)
	} else {
		_, err = tx.Exec(ctx,
			`UPDATE tricks SET winning_seat = $2 WHERE id = $1`,
			t.ID,
			t.WinningSeat,
		)
	}
	if err != nil {
		return err
	}

	for order, pc := range t.Cards {
		_, err := tx.Exec(ctx,
			`INSERT INTO trick_cards (trick_id, play_order, seat_index, suit, rank)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (trick_id, play_order) DO NOTHING`,
			t.ID,
			order,
			pc.Seat,
			pc.Suit,
			pc.Rank,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// GetByRound returns the round's tricks in play order, cards attached.
func (r *TrickRepository) GetByRound(ctx context.Context, roundID int64) ([]*domain.Trick, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, round_id, trick_number, lead_seat, winning_seat
		 FROM tricks
		 WHERE round_id = $1
		 ORDER BY trick_number`,
		roundID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tricks []*domain.Trick
	for rows.Next() {
		var t domain.Trick
		if err := rows.Scan(&t.ID, &t.RoundID, &t.Number, &t.LeadSeat, &t.WinningSeat); err != nil {
			return nil, err
		}
		tricks = append(tricks, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, t := range tricks {
		cardRows, err := r.db.Query(ctx,
			`SELECT seat_index, suit, rank
			 FROM trick_cards
			 WHERE trick_id = $1
			 ORDER BY play_order`,
			t.ID,
		)
		if err != nil {
			return nil, err
		}
		for cardRows.Next() {
			var pc domain.PlayedCard
			if err := cardRows.Scan(&pc.Seat, &pc.Suit, &pc.Rank); err != nil {
				cardRows.Close()
				return nil, err
			}
			t.Cards = append(t.Cards, pc)
		}
		cardRows.Close()
		if err := cardRows.Err(); err != nil {
			return nil, err
		}
	}
	return tricks, nil
}
