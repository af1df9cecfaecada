package db

import (
	"context"
	"fmt"

	"boxoffice/entities"

	"github.com/google/uuid"
)

type EventRepository struct {
	db *DB
}

func NewEventRepository(db *DB) EventRepository {
	if db == nil {
		panic("db is nil")
	}
	return EventRepository{
		db: db,
	}
}

func (r EventRepository) Create(ctx context.Context, event entities.Event) (entities.EventCreateResponse, error) {
	if event.EventID == uuid.Nil {
		event.EventID = uuid.New()
	}

	_, err := r.db.Conn.NamedExecContext(ctx, `
		INSERT INTO
			events (event_id, name, venue, starts_at)
		VALUES
			(:event_id, :name, :venue, :starts_at)
		ON CONFLICT (event_id) DO NOTHING`,
		event,
	)
	if err != nil {
		return entities.EventCreateResponse{}, fmt.Errorf("could not create event: %w", err)
	}

	return entities.EventCreateResponse{EventID: event.EventID}, nil
}

func (r EventRepository) EventByID(ctx context.Context, eventID uuid.UUID) (entities.Event, error) {
	var event entities.Event
	err := r.db.Conn.GetContext(ctx, &event, `SELECT * FROM events WHERE event_id = $1`, eventID)
	if isNoRows(err) {
		return entities.Event{}, entities.NotFoundError{Kind: "event", ID: eventID.String()}
	}
	if err != nil {
		return entities.Event{}, fmt.Errorf("could not get event %s: %w", eventID, err)
	}

	return event, nil
}

func (r EventRepository) List(ctx context.Context) ([]entities.Event, error) {
	var events []entities.Event
	err := r.db.Conn.SelectContext(ctx, &events, `SELECT * FROM events ORDER BY starts_at`)
	if err != nil {
		return nil, fmt.Errorf("could not list events: %w", err)
	}

	return events, nil
}
