package repository

import (
	"context"
	"time"

	"github.com/jmehdipour/group-load/internal/model"
	"github.com/jmoiron/sqlx"
)

// CHDeliveriesRepository keeps delivery rows in ClickHouse for aggregate reports.
type CHDeliveriesRepository interface {
	Insert(ctx context.Context, d model.Delivery) error
	Summary(ctx context.Context, environment string, since time.Time) ([]model.DeliverySummary, error)
}

type chDeliveriesRepository struct {
	ch *sqlx.DB // ClickHouse connection
}

func NewCHDeliveriesRepository(ch *sqlx.DB) CHDeliveriesRepository {
	return &chDeliveriesRepository{ch: ch}
}

// Insert appends one row. clickhouse-go only accepts inserts as a prepared
// batch inside a transaction.
func (r *chDeliveriesRepository) Insert(ctx context.Context, d model.Delivery) error {
	tx, err := r.ch.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO grpload.deliveries
		    (id, message_id, group_id, environment, topic, outcome, error, created_at)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx,
		d.ID, d.MessageID, d.GroupID, d.Environment, d.Topic, d.Outcome.String(), d.Error, d.CreatedAt,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// Summary counts rows per environment and outcome since the given time.
func (r *chDeliveriesRepository) Summary(ctx context.Context, environment string, since time.Time) ([]model.DeliverySummary, error) {
	q := `
		SELECT environment, outcome, count() AS cnt
		FROM grpload.deliveries
		WHERE created_at >= ?
	`
	args := []any{since}

	if environment != "" {
		q += " AND environment = ?"
		args = append(args, environment)
	}

	q += " GROUP BY environment, outcome ORDER BY environment, outcome"

	var rows []model.DeliverySummary
	if err := r.ch.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
