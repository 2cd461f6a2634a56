package repository

import (
	"context"
	"fmt"
	"time"

	"ticket-booking/internal/data/entity"
	"ticket-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SeatRepository interface {
	// ListWithStatus returns the layout annotated with live status, read in one statement.
	ListWithStatus(ctx context.Context, eventID uuid.UUID, categoryID *uuid.UUID) ([]*entity.SeatView, error)
	FindBySeatIDs(ctx context.Context, eventID uuid.UUID, seatIDs []string) ([]*entity.Seat, error)
}

type seatRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewSeatRepository(db database.PgxIface, log *zap.Logger) SeatRepository {
	return &seatRepository{
		db:  db,
		log: log.With(zap.String("repository", "seat")),
	}
}

func (r *seatRepository) ListWithStatus(ctx context.Context, eventID uuid.UUID, categoryID *uuid.UUID) ([]*entity.SeatView, error) {
	query := `
		SELECT s.event_id, s.seat_id, s.row_label, s.seat_number, s.category_id, s.unavailable,
		       c.name, c.color, c.price,
		       sc.kind, sc.expires_at, now()
		FROM seat_layouts s
		JOIN seat_categories c ON c.id = s.category_id
		LEFT JOIN seat_claims sc ON sc.event_id = s.event_id AND sc.seat_id = s.seat_id
		WHERE s.event_id = $1
		  AND ($2::uuid IS NULL OR s.category_id = $2::uuid)
		ORDER BY s.row_label, s.seat_number
	`

	rows, err := r.db.Query(ctx, query, eventID, categoryID)
	if err != nil {
		r.log.Error("Failed to list seats",
			zap.Error(err),
			zap.String("event_id", eventID.String()),
		)
		return nil, fmt.Errorf("list seats for event %s: %w", eventID.String(), err)
	}
	defer rows.Close()

	var seats []*entity.SeatView
	for rows.Next() {
		var (
			v         entity.SeatView
			claimKind *string
			claimExp  *time.Time
			dbNow     time.Time
		)
		if err := rows.Scan(
			&v.EventID,
			&v.SeatID,
			&v.RowLabel,
			&v.SeatNumber,
			&v.CategoryID,
			&v.Unavailable,
			&v.CategoryName,
			&v.Color,
			&v.Price,
			&claimKind,
			&claimExp,
			&dbNow,
		); err != nil {
			return nil, fmt.Errorf("scan seat: %w", err)
		}

		var claim *entity.SeatClaim
		if claimKind != nil {
			claim = &entity.SeatClaim{Kind: entity.ClaimKind(*claimKind), ExpiresAt: claimExp}
		}
		v.Status, v.LockedUntil = entity.DeriveSeatStatus(v.Unavailable, claim, dbNow)
		seats = append(seats, &v)
	}

	return seats, rows.Err()
}

func (r *seatRepository) FindBySeatIDs(ctx context.Context, eventID uuid.UUID, seatIDs []string) ([]*entity.Seat, error) {
	query := `
		SELECT event_id, seat_id, row_label, seat_number, category_id, unavailable
		FROM seat_layouts
		WHERE event_id = $1 AND seat_id = ANY($2)
	`

	rows, err := r.db.Query(ctx, query, eventID, seatIDs)
	if err != nil {
		r.log.Error("Failed to find seats",
			zap.Error(err),
			zap.String("event_id", eventID.String()),
			zap.Strings("seat_ids", seatIDs),
		)
		return nil, fmt.Errorf("find seats for event %s: %w", eventID.String(), err)
	}
	defer rows.Close()

	var seats []*entity.Seat
	for rows.Next() {
		var s entity.Seat
		if err := rows.Scan(&s.EventID, &s.SeatID, &s.RowLabel, &s.SeatNumber, &s.CategoryID, &s.Unavailable); err != nil {
			return nil, fmt.Errorf("scan seat: %w", err)
		}
		seats = append(seats, &s)
	}

	return seats, rows.Err()
}
