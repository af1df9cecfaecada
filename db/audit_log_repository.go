package db

import (
	"context"
	"fmt"

	"boxoffice/entities"
)

type AuditLogRepository struct {
	db *DB
}

func NewAuditLogRepository(db *DB) AuditLogRepository {
	if db == nil {
		panic("db is nil")
	}
	return AuditLogRepository{
		db: db,
	}
}

func (r AuditLogRepository) Add(ctx context.Context, entry entities.AuditEntry) error {
	_, err := r.db.Conn.ExecContext(ctx, `
		INSERT INTO
			audit_log (event_id, published_at, event_name, event_payload)
		VALUES
			($1, $2, $3, $4)
		ON CONFLICT (event_id) DO NOTHING`,
		entry.EventID, entry.PublishedAt, entry.EventName, string(entry.Payload),
	)
	if err != nil {
		return fmt.Errorf("could not add %s to audit log: %w", entry.EventName, err)
	}

	return nil
}

func (r AuditLogRepository) ByName(ctx context.Context, eventName string) ([]entities.AuditEntry, error) {
	var entries []entities.AuditEntry
	err := r.db.Conn.SelectContext(ctx, &entries, `
		SELECT event_id, published_at, event_name, event_payload
		FROM audit_log
		WHERE event_name = $1
		ORDER BY published_at`, eventName)
	if err != nil {
		return nil, fmt.Errorf("could not read audit log: %w", err)
	}

	return entries, nil
}
