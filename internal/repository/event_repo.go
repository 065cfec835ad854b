package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-calendar/internal/model"
)

const eventColumns = `e.id::text, e.title, e.description, e.start_at, e.end_at, e.all_day,
		        e.user_id::text, e.created_at, e.updated_at, u.name, u.email`

type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

func (r *EventRepository) List(ctx context.Context) ([]model.Event, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+eventColumns+`
		 FROM events e JOIN users u ON u.id = e.user_id
		 ORDER BY e.start_at, e.id`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]model.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *EventRepository) FindByID(ctx context.Context, id string) (model.Event, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+eventColumns+`
		 FROM events e JOIN users u ON u.id = e.user_id
		 WHERE e.id::text = $1`, id)

	e, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Event{}, model.ErrEventNotFound
	}
	if err != nil {
		return model.Event{}, fmt.Errorf("find event: %w", err)
	}
	return e, nil
}

func (r *EventRepository) Create(ctx context.Context, e model.Event) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO events (id, title, description, start_at, end_at, all_day, user_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.Title, e.Description, e.Start, e.End, e.AllDay, e.UserID, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (r *EventRepository) Update(ctx context.Context, e model.Event) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE events
		 SET title = $2, description = $3, start_at = $4, end_at = $5, all_day = $6, updated_at = $7
		 WHERE id::text = $1`,
		e.ID, e.Title, e.Description, e.Start, e.End, e.AllDay, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrEventNotFound
	}
	return nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id::text = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrEventNotFound
	}
	return nil
}

func scanEvent(row pgx.Row) (model.Event, error) {
	var e model.Event
	var owner model.PublicUser
	if err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Start, &e.End, &e.AllDay,
		&e.UserID, &e.CreatedAt, &e.UpdatedAt, &owner.Name, &owner.Email); err != nil {
		return model.Event{}, err
	}
	owner.ID = e.UserID
	e.User = &owner
	return e, nil
}
