package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Satis-Foundation/Sigma-mining/pkg/model"
)

// Writer records every emitted order intent into the activity.t_order_audit
// table. It is an optional collaborator: callers nil-check it, and a write
// failure never blocks order flow.
type Writer struct {
	db     *pgxpool.Pool
	logger *zap.Logger
	source string
}

// NewWriter constructs an audit writer.
// source identifies the process writing the record (e.g. "sigma-miner").
func NewWriter(db *pgxpool.Pool, logger *zap.Logger, source string) *Writer {
	return &Writer{
		db:     db,
		logger: logger,
		source: source,
	}
}

// RecordOrder appends one order intent with its submission status.
func (w *Writer) RecordOrder(ctx context.Context, intent model.OrderIntent, status string) error {
	const query = `
		INSERT INTO activity.t_order_audit (
			s_id_order,
			s_product,
			s_side,
			s_type,
			dec_size,
			dec_price,
			b_reduce_only,
			s_status,
			s_source,
			dt_placed
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`

	_, err := w.db.Exec(ctx, query,
		uuid.NewString(),
		intent.ProductID,
		string(intent.Side),
		string(intent.Type),
		intent.Size,
		intent.Price,
		intent.ReduceOnly,
		status,
		w.source,
		time.Now().UTC(),
	)
	if err != nil {
		w.logger.Warn("audit.order_write_failed",
			zap.String("product", intent.ProductID),
			zap.String("side", string(intent.Side)),
			zap.Error(err))
		return err
	}
	return nil
}
