package analytics

import (
	"context"
	"time"

	"github.com/opremico/opremico-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository defines the read queries behind the analytics report.
type Repository interface {
	OrdersInWindow(ctx context.Context, from, to time.Time) ([]models.Order, error)
	FirstPaidAt(ctx context.Context, orderIDs []int64) (map[int64]time.Time, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an analytics repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// OrdersInWindow returns live orders created within [from, to], where
// the upper bound covers the whole calendar day of `to`.
func (r *repository) OrdersInWindow(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	end := to.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)

	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("deleted_at IS NULL AND created_at >= ? AND created_at < ?", from.UTC(), end).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

type firstPaidRow struct {
	OrderID int64     `gorm:"column:order_id"`
	PaidAt  time.Time `gorm:"column:paid_at"`
}

// FirstPaidAt maps each order to its earliest "paid" event. Callers gate
// this on the payment_events schema capability.
func (r *repository) FirstPaidAt(ctx context.Context, orderIDs []int64) (map[int64]time.Time, error) {
	if len(orderIDs) == 0 {
		return map[int64]time.Time{}, nil
	}

	var rows []firstPaidRow
	err := r.db.WithContext(ctx).
		Model(&models.PaymentEvent{}).
		Select("order_id, MIN(created_at) AS paid_at").
		Where("order_id IN ? AND event_type = ?", orderIDs, "paid").
		Group("order_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[int64]time.Time, len(rows))
	for _, row := range rows {
		out[row.OrderID] = row.PaidAt
	}
	return out, nil
}
