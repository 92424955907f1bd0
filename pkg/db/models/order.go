package models

import (
	"time"

	"github.com/opremico/opremico-backend/pkg/enums"
)

// Order is the ledger record for one customer order. Monetary fields are
// stored in cents; DTOs convert to decimal at the boundary.
type Order struct {
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement"`
	OrderNumber string `gorm:"column:order_number;not null;uniqueIndex:uniq_orders_order_number"`

	CustomerType    enums.CustomerType `gorm:"column:customer_type;type:text;not null;default:'individual'"`
	CustomerName    string             `gorm:"column:customer_name;not null"`
	Email           string             `gorm:"column:email;not null"`
	Phone           *string            `gorm:"column:phone"`
	Organization    *string            `gorm:"column:organization"`
	InstitutionName *string            `gorm:"column:institution_name"`
	TaxNumber       *string            `gorm:"column:tax_number"`

	DeliveryStreet   *string `gorm:"column:delivery_street"`
	DeliveryCity     *string `gorm:"column:delivery_city"`
	DeliveryPostCode *string `gorm:"column:delivery_post_code"`
	DeliveryCountry  *string `gorm:"column:delivery_country"`

	Notes          *string `gorm:"column:notes"`
	BuyerReference *string `gorm:"column:buyer_reference"`

	Status            enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'awaiting_payment'"`
	PaymentStatus     enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'unpaid'"`
	PaymentStatusNote *string             `gorm:"column:payment_status_note"`

	SubtotalCents int64  `gorm:"column:subtotal_cents;not null"`
	TaxCents      int64  `gorm:"column:tax_cents;not null"`
	ShippingCents *int64 `gorm:"column:shipping_cents"`
	TotalCents    int64  `gorm:"column:total_cents;not null"`

	IsDraft   bool       `gorm:"column:is_draft;not null;default:false"`
	DeletedAt *time.Time `gorm:"column:deleted_at;index"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// EffectiveShippingCents treats a missing shipping amount as zero.
func (o Order) EffectiveShippingCents() int64 {
	if o.ShippingCents == nil {
		return 0
	}
	return *o.ShippingCents
}
