package orders

import (
	"time"

	"github.com/opremico/opremico-backend/pkg/db/models"
	"github.com/opremico/opremico-backend/pkg/enums"
	"github.com/opremico/opremico-backend/pkg/pagination"
	"github.com/shopspring/decimal"
)

// ItemInput is one candidate line item supplied at checkout or admin edit.
type ItemInput struct {
	SKU             string
	Name            string
	Unit            string
	Quantity        int
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
}

// CreateOrderInput carries the checkout submission payload.
type CreateOrderInput struct {
	CustomerType    enums.CustomerType
	CustomerName    string
	Email           string
	Phone           *string
	Organization    *string
	InstitutionName *string
	TaxNumber       *string

	DeliveryStreet   *string
	DeliveryCity     *string
	DeliveryPostCode *string
	DeliveryCountry  *string

	Notes          *string
	BuyerReference *string

	Items    []ItemInput
	Shipping decimal.Decimal
}

// UpdateOrderInput is a partial update of buyer/contact/delivery/status
// fields. Nil pointers leave the stored value untouched; blank strings are
// coalesced to the existing value as well.
type UpdateOrderInput struct {
	OrderNumber     *string
	CustomerName    *string
	Email           *string
	Phone           *string
	Organization    *string
	InstitutionName *string
	TaxNumber       *string

	DeliveryStreet   *string
	DeliveryCity     *string
	DeliveryPostCode *string
	DeliveryCountry  *string

	Notes          *string
	BuyerReference *string

	Status            *enums.OrderStatus
	PaymentStatus     *enums.PaymentStatus
	PaymentStatusNote *string
	IsDraft           *bool
}

// ListOrdersInput holds the optional admin listing filters.
type ListOrdersInput struct {
	Status       *enums.OrderStatus
	CustomerType *enums.CustomerType
	From         *time.Time
	To           *time.Time
	Search       string
	Page         pagination.Params
}

// OrderPage is one page of the admin order listing.
type OrderPage struct {
	Orders     []models.Order
	NextCursor string
}
