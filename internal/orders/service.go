package orders

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/opremico/opremico-backend/internal/pricing"
	"github.com/opremico/opremico-backend/pkg/db"
	"github.com/opremico/opremico-backend/pkg/db/models"
	"github.com/opremico/opremico-backend/pkg/enums"
	pkgerrors "github.com/opremico/opremico-backend/pkg/errors"
	"github.com/opremico/opremico-backend/pkg/logger"
	"github.com/opremico/opremico-backend/pkg/pagination"
	"gorm.io/gorm"
)

// orderNumberAttempts bounds retries when the random suffix collides.
const orderNumberAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type schemaCapabilities interface {
	SupportsDraftFlag(ctx context.Context) bool
	HasPaymentEvents(ctx context.Context) bool
}

// Archiver moves a live order into the soft-delete archive.
type Archiver interface {
	ArchiveOrder(ctx context.Context, orderID int64) error
}

type service struct {
	repo    Repository
	tx      txRunner
	caps    schemaCapabilities
	archive Archiver
	logg    *logger.Logger
	clock   clock
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, caps schemaCapabilities, archive Archiver, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if caps == nil {
		return nil, fmt.Errorf("schema capabilities required")
	}
	if archive == nil {
		return nil, fmt.Errorf("archiver required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		caps:    caps,
		archive: archive,
		logg:    logg,
		clock:   systemClock{},
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if err := validateBuyer(input); err != nil {
		return nil, err
	}

	totals, err := pricing.Recalculate(toLineInputs(input.Items), input.Shipping)
	if err != nil {
		return nil, err
	}

	var created *models.Order
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order := s.buildOrder(input, totals)
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			stored, err := repo.CreateOrder(ctx, order)
			if err != nil {
				return err
			}
			if err := repo.CreateItems(ctx, buildItems(stored.ID, totals.Lines)); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order items")
			}
			created = stored
			return nil
		})
		if err == nil {
			break
		}
		if db.IsUniqueViolation(err, "") {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"order_number": order.OrderNumber,
				"attempt":      attempt + 1,
			})
			s.logg.Warn(logCtx, "order number collision, retrying")
			continue
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "allocate order number")
	}

	return s.Get(ctx, created.ID)
}

func (s *service) Get(ctx context.Context, id int64) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, input ListOrdersInput) (*OrderPage, error) {
	if input.From != nil && input.To != nil && input.To.Before(*input.From) {
		input.From, input.To = input.To, input.From
	}

	rows, err := s.repo.List(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	limit := pagination.NormalizeLimit(input.Page.Limit)
	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	sortOrdersPage(rows)
	return &OrderPage{Orders: rows, NextCursor: next}, nil
}

func (s *service) UpdateDetails(ctx context.Context, id int64, input UpdateOrderInput) (*models.Order, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	coalesceString(updates, "order_number", input.OrderNumber)
	coalesceString(updates, "customer_name", input.CustomerName)
	coalesceString(updates, "email", input.Email)
	coalesceString(updates, "phone", input.Phone)
	coalesceString(updates, "organization", input.Organization)
	coalesceString(updates, "institution_name", input.InstitutionName)
	coalesceString(updates, "tax_number", input.TaxNumber)
	coalesceString(updates, "delivery_street", input.DeliveryStreet)
	coalesceString(updates, "delivery_city", input.DeliveryCity)
	coalesceString(updates, "delivery_post_code", input.DeliveryPostCode)
	coalesceString(updates, "delivery_country", input.DeliveryCountry)
	coalesceString(updates, "notes", input.Notes)
	coalesceString(updates, "buyer_reference", input.BuyerReference)

	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
		}
		updates["status"] = *input.Status
	}

	paymentChanged := false
	if input.PaymentStatus != nil {
		if !input.PaymentStatus.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment status")
		}
		updates["payment_status"] = *input.PaymentStatus
		paymentChanged = *input.PaymentStatus != current.PaymentStatus
	}
	if input.PaymentStatusNote != nil {
		updates["payment_status_note"] = *input.PaymentStatusNote
	}

	if input.IsDraft != nil {
		if s.caps.SupportsDraftFlag(ctx) {
			updates["is_draft"] = *input.IsDraft
		} else {
			s.logg.Warn(s.logg.WithOrderID(ctx, id), "draft flag unsupported by schema, ignoring")
		}
	}

	if len(updates) == 0 {
		return current, nil
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateFields(ctx, id, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}
		if paymentChanged && s.caps.HasPaymentEvents(ctx) {
			event := &models.PaymentEvent{
				OrderID:   id,
				EventType: paymentEventFor(*input.PaymentStatus),
				Note:      input.PaymentStatusNote,
			}
			if err := repo.CreatePaymentEvent(ctx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment event")
			}
		}
		return nil
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "order number already in use")
		}
		return nil, err
	}

	return s.Get(ctx, id)
}

func (s *service) ReplaceItems(ctx context.Context, id int64, items []ItemInput) (*models.Order, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	totals, err := pricing.Recalculate(toLineInputs(items), pricing.FromCents(current.EffectiveShippingCents()))
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteItems(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear order items")
		}
		if err := repo.CreateItems(ctx, buildItems(id, totals.Lines)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order items")
		}
		updates := map[string]any{
			"subtotal_cents": totals.SubtotalCents,
			"tax_cents":      totals.TaxCents,
			"shipping_cents": totals.ShippingCents,
			"total_cents":    totals.TotalCents,
		}
		if err := repo.UpdateFields(ctx, id, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order totals")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.archive.ArchiveOrder(ctx, id)
}

func (s *service) buildOrder(input CreateOrderInput, totals *pricing.Totals) *models.Order {
	shipping := totals.ShippingCents
	return &models.Order{
		OrderNumber:      NewOrderNumber(s.clock.Now()),
		CustomerType:     input.CustomerType,
		CustomerName:     strings.TrimSpace(input.CustomerName),
		Email:            strings.TrimSpace(input.Email),
		Phone:            input.Phone,
		Organization:     input.Organization,
		InstitutionName:  input.InstitutionName,
		TaxNumber:        input.TaxNumber,
		DeliveryStreet:   input.DeliveryStreet,
		DeliveryCity:     input.DeliveryCity,
		DeliveryPostCode: input.DeliveryPostCode,
		DeliveryCountry:  input.DeliveryCountry,
		Notes:            input.Notes,
		BuyerReference:   input.BuyerReference,
		Status:           initialStatus(input.CustomerType),
		PaymentStatus:    enums.PaymentStatusUnpaid,
		SubtotalCents:    totals.SubtotalCents,
		TaxCents:         totals.TaxCents,
		ShippingCents:    &shipping,
		TotalCents:       totals.TotalCents,
	}
}

// initialStatus picks the workflow entry state. Institutions settle via
// purchase order rather than upfront payment.
func initialStatus(customerType enums.CustomerType) enums.OrderStatus {
	if customerType == enums.CustomerTypeInstitution {
		return enums.OrderStatusAwaitingPurchaseOrder
	}
	return enums.OrderStatusAwaitingPayment
}

func validateBuyer(input CreateOrderInput) error {
	if !input.CustomerType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown customer type")
	}
	if strings.TrimSpace(input.CustomerName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer name required")
	}
	if strings.TrimSpace(input.Email) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}

	switch input.CustomerType {
	case enums.CustomerTypeCompany:
		if !hasValue(input.Organization) {
			return pkgerrors.New(pkgerrors.CodeValidation, "organization required for company orders")
		}
		if !hasValue(input.TaxNumber) {
			return pkgerrors.New(pkgerrors.CodeValidation, "tax number required for company orders")
		}
	case enums.CustomerTypeInstitution:
		if !hasValue(input.InstitutionName) {
			return pkgerrors.New(pkgerrors.CodeValidation, "institution name required for institution orders")
		}
	}
	return nil
}

func hasValue(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

// coalesceString applies a column update only when the caller supplied a
// non-blank value. Blank input keeps whatever is stored.
func coalesceString(updates map[string]any, column string, value *string) {
	if value == nil {
		return
	}
	if strings.TrimSpace(*value) == "" {
		return
	}
	updates[column] = strings.TrimSpace(*value)
}

func paymentEventFor(status enums.PaymentStatus) enums.PaymentEventType {
	if status == enums.PaymentStatusPaid {
		return enums.PaymentEventTypePaid
	}
	return enums.PaymentEventTypeUnpaid
}

func toLineInputs(items []ItemInput) []pricing.LineInput {
	lines := make([]pricing.LineInput, 0, len(items))
	for _, item := range items {
		unit := strings.TrimSpace(item.Unit)
		if unit == "" {
			unit = "kos"
		}
		lines = append(lines, pricing.LineInput{
			SKU:             strings.TrimSpace(item.SKU),
			Name:            strings.TrimSpace(item.Name),
			Unit:            unit,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			DiscountPercent: item.DiscountPercent,
		})
	}
	return lines
}

func buildItems(orderID int64, lines []pricing.LineResult) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		discount, _ := line.DiscountPercent.Float64()
		items = append(items, models.OrderItem{
			OrderID:         orderID,
			SKU:             line.SKU,
			Name:            line.Name,
			Unit:            line.Unit,
			Quantity:        line.Quantity,
			UnitPriceCents:  line.UnitPriceCents,
			DiscountPercent: discount,
			LineTotalCents:  line.LineTotalCents,
		})
	}
	return items
}

// sortOrdersPage keeps the created_at DESC page ordering but breaks same
// timestamp ties by the numeric suffix of the order number, so same-day
// orders read in issue order rather than lexicographically.
func sortOrdersPage(rows []models.Order) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		an, aok := NumericSuffix(a.OrderNumber)
		bn, bok := NumericSuffix(b.OrderNumber)
		if aok && bok && an != bn {
			return an > bn
		}
		return a.OrderNumber > b.OrderNumber
	})
}
