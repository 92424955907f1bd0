package models

import "time"

// OrderItem is the denormalized snapshot of one purchasable line on an order.
// The whole set is replaced on every admin items edit, never patched in place.
type OrderItem struct {
	ID              int64   `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID         int64   `gorm:"column:order_id;not null;index"`
	SKU             string  `gorm:"column:sku;not null"`
	Name            string  `gorm:"column:name;not null"`
	Unit            string  `gorm:"column:unit;not null;default:'kos'"`
	Quantity        int     `gorm:"column:quantity;not null"`
	UnitPriceCents  int64   `gorm:"column:unit_price_cents;not null"`
	DiscountPercent float64 `gorm:"column:discount_percent;not null;default:0"`
	LineTotalCents  int64   `gorm:"column:line_total_cents;not null"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
