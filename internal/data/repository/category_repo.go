package repository

import (
	"context"
	"errors"
	"fmt"

	"ticket-booking/internal/data/entity"
	"ticket-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type CategoryRepository interface {
	FindByEventID(ctx context.Context, eventID uuid.UUID) ([]*entity.SeatCategory, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.SeatCategory, error)
}

type categoryRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewCategoryRepository(db database.PgxIface, log *zap.Logger) CategoryRepository {
	return &categoryRepository{
		db:  db,
		log: log.With(zap.String("repository", "category")),
	}
}

func (r *categoryRepository) FindByEventID(ctx context.Context, eventID uuid.UUID) ([]*entity.SeatCategory, error) {
	query := `
		SELECT id, event_id, name, price, color, is_available
		FROM seat_categories
		WHERE event_id = $1
		ORDER BY price DESC, name
	`

	rows, err := r.db.Query(ctx, query, eventID)
	if err != nil {
		r.log.Error("Failed to list seat categories",
			zap.Error(err),
			zap.String("event_id", eventID.String()),
		)
		return nil, fmt.Errorf("list categories for event %s: %w", eventID.String(), err)
	}
	defer rows.Close()

	var categories []*entity.SeatCategory
	for rows.Next() {
		var c entity.SeatCategory
		if err := rows.Scan(&c.ID, &c.EventID, &c.Name, &c.Price, &c.Color, &c.IsAvailable); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, &c)
	}

	return categories, rows.Err()
}

func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.SeatCategory, error) {
	query := `
		SELECT id, event_id, name, price, color, is_available
		FROM seat_categories
		WHERE id = $1
	`

	var c entity.SeatCategory
	err := r.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.EventID, &c.Name, &c.Price, &c.Color, &c.IsAvailable)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find category by ID",
			zap.Error(err),
			zap.String("category_id", id.String()),
		)
		return nil, fmt.Errorf("find category by ID %s: %w", id.String(), err)
	}

	return &c, nil
}
