package db

import (
	"context"
	"database/sql"
	"fmt"

	"boxoffice/entities"

	"github.com/jmoiron/sqlx"
)

type ReconciliationRepository struct {
	db *DB
}

func NewReconciliationRepository(db *DB) ReconciliationRepository {
	if db == nil {
		panic("db is nil")
	}
	return ReconciliationRepository{
		db: db,
	}
}

// Add stores the records and publishes ReconciliationRequired_v1 for the new ones.
// Records already stored are skipped.
func (r ReconciliationRepository) Add(ctx context.Context, recs ...entities.Reconciliation) error {
	if len(recs) == 0 {
		return nil
	}

	return updateInTx(ctx, r.db.Conn, sql.LevelReadCommitted, func(ctx context.Context, tx *sqlx.Tx) error {
		bus, err := outboxBus(ctx, tx)
		if err != nil {
			return err
		}
		return addReconciliationsInTx(ctx, tx, bus, recs)
	})
}

func (r ReconciliationRepository) List(ctx context.Context) ([]entities.Reconciliation, error) {
	var recs []entities.Reconciliation
	err := r.db.Conn.SelectContext(ctx, &recs, `
		SELECT payment_id, tier_id, requested, granted, reason, created_at
		FROM reconciliations
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("could not list reconciliations: %w", err)
	}

	return recs, nil
}

func (r ReconciliationRepository) ByPaymentID(ctx context.Context, paymentID string) ([]entities.Reconciliation, error) {
	var recs []entities.Reconciliation
	err := r.db.Conn.SelectContext(ctx, &recs, `
		SELECT payment_id, tier_id, requested, granted, reason, created_at
		FROM reconciliations
		WHERE payment_id = $1
		ORDER BY created_at`, paymentID)
	if err != nil {
		return nil, fmt.Errorf("could not get reconciliations of %s: %w", paymentID, err)
	}

	return recs, nil
}

func addReconciliationsInTx(ctx context.Context, tx *sqlx.Tx, bus eventPublisher, recs []entities.Reconciliation) error {
	for _, rec := range recs {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO
				reconciliations (payment_id, tier_id, requested, granted, reason)
			VALUES
				($1, $2, $3, $4, $5)
			ON CONFLICT (payment_id, tier_id, reason) DO NOTHING`,
			rec.PaymentID, rec.TierID, rec.Requested, rec.Granted, rec.Reason,
		)
		if err != nil {
			return fmt.Errorf("could not add reconciliation: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			continue
		}

		err = bus.Publish(ctx, entities.ReconciliationRequired_v1{
			Header: entities.NewEventHeaderWithIdempotencyKey(
				fmt.Sprintf("reconciliation-%s-%s-%s", rec.PaymentID, rec.TierID, rec.Reason),
			),
			PaymentID: rec.PaymentID,
			TierID:    rec.TierID,
			Requested: rec.Requested,
			Granted:   rec.Granted,
			Reason:    rec.Reason,
		})
		if err != nil {
			return fmt.Errorf("could not publish ReconciliationRequired_v1: %w", err)
		}
	}

	return nil
}
