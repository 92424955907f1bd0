package orders

import (
	"context"

	"github.com/opremico/opremico-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the order ledger tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateItems(ctx context.Context, items []models.OrderItem) error
	DeleteItems(ctx context.Context, orderID int64) error
	FindByID(ctx context.Context, id int64) (*models.Order, error)
	UpdateFields(ctx context.Context, id int64, updates map[string]any) error
	List(ctx context.Context, input ListOrdersInput) ([]models.Order, error)
	CreatePaymentEvent(ctx context.Context, event *models.PaymentEvent) error
}

// Service defines the order lifecycle operations exposed to controllers.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Get(ctx context.Context, id int64) (*models.Order, error)
	List(ctx context.Context, input ListOrdersInput) (*OrderPage, error)
	UpdateDetails(ctx context.Context, id int64, input UpdateOrderInput) (*models.Order, error)
	ReplaceItems(ctx context.Context, id int64, items []ItemInput) (*models.Order, error)
	Delete(ctx context.Context, id int64) error
}
