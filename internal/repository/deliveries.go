package repository

import (
	"context"

	"github.com/jmehdipour/group-load/internal/model"
	"github.com/jmoiron/sqlx"
)

// DeliveriesRepository is the MySQL audit trail of processed group records.
type DeliveriesRepository interface {
	Insert(ctx context.Context, d model.Delivery) error
	List(ctx context.Context, groupID string, outcome model.DeliveryOutcome, limit, offset int) ([]model.Delivery, error)
}

type DeliveriesRepositoryImpl struct {
	db *sqlx.DB
}

func NewDeliveriesRepository(db *sqlx.DB) *DeliveriesRepositoryImpl {
	return &DeliveriesRepositoryImpl{db: db}
}

var _ DeliveriesRepository = (*DeliveriesRepositoryImpl)(nil)

// Insert writes one audit row. Rows are keyed by ULID, so re-inserting the
// same row is ignored.
func (r *DeliveriesRepositoryImpl) Insert(ctx context.Context, d model.Delivery) error {
	const q = `
		INSERT IGNORE INTO group_load_deliveries
		    (id, message_id, group_id, environment, topic, outcome, error, created_at)
		VALUES
		    (:id, :message_id, :group_id, :environment, :topic, :outcome, :error, :created_at)
	`
	_, err := r.db.NamedExecContext(ctx, q, d)
	return err
}

// List returns the newest rows first, optionally filtered by group and outcome.
func (r *DeliveriesRepositoryImpl) List(ctx context.Context, groupID string, outcome model.DeliveryOutcome, limit, offset int) ([]model.Delivery, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	q := `
		SELECT id, message_id, group_id, environment, topic, outcome, error, created_at
		FROM group_load_deliveries
		WHERE 1 = 1
	`
	args := []any{}

	if groupID != "" {
		q += " AND group_id = ?"
		args = append(args, groupID)
	}
	if outcome != "" {
		q += " AND outcome = ?"
		args = append(args, outcome.String())
	}

	q += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var rows []model.Delivery
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
