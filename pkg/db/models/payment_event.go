package models

import (
	"time"

	"github.com/opremico/opremico-backend/pkg/enums"
)

// PaymentEvent records one payment-status transition for an order. The first
// "paid" event per order drives the analytics lead-time samples. The backing
// table is optional; callers gate writes on the schema capability probe.
type PaymentEvent struct {
	ID        int64                  `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID   int64                  `gorm:"column:order_id;not null;index"`
	EventType enums.PaymentEventType `gorm:"column:event_type;type:text;not null"`
	Note      *string                `gorm:"column:note"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}
