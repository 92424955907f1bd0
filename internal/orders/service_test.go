package orders

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/opremico/opremico-backend/pkg/db/models"
	"github.com/opremico/opremico-backend/pkg/enums"
	pkgerrors "github.com/opremico/opremico-backend/pkg/errors"
	"github.com/opremico/opremico-backend/pkg/logger"
	"github.com/opremico/opremico-backend/pkg/pagination"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubRepo struct {
	orders        map[int64]*models.Order
	items         map[int64][]models.OrderItem
	events        []models.PaymentEvent
	nextID        int64
	createErrs    []error
	updateApplied map[string]any
	listRows      []models.Order
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		orders: map[int64]*models.Order{},
		items:  map[int64][]models.OrderItem{},
		nextID: 1,
	}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if len(s.createErrs) > 0 {
		err := s.createErrs[0]
		s.createErrs = s.createErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	order.ID = s.nextID
	s.nextID++
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	s.orders[order.ID] = order
	return order, nil
}

func (s *stubRepo) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	orderID := items[0].OrderID
	s.items[orderID] = append(s.items[orderID], items...)
	return nil
}

func (s *stubRepo) DeleteItems(ctx context.Context, orderID int64) error {
	delete(s.items, orderID)
	return nil
}

func (s *stubRepo) FindByID(ctx context.Context, id int64) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok || order.DeletedAt != nil {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	copied.Items = s.items[id]
	return &copied, nil
}

func (s *stubRepo) UpdateFields(ctx context.Context, id int64, updates map[string]any) error {
	s.updateApplied = updates
	order, ok := s.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["payment_status"]; ok {
		order.PaymentStatus = v.(enums.PaymentStatus)
	}
	if v, ok := updates["status"]; ok {
		order.Status = v.(enums.OrderStatus)
	}
	if v, ok := updates["customer_name"]; ok {
		order.CustomerName = v.(string)
	}
	if v, ok := updates["subtotal_cents"]; ok {
		order.SubtotalCents = v.(int64)
	}
	if v, ok := updates["tax_cents"]; ok {
		order.TaxCents = v.(int64)
	}
	if v, ok := updates["total_cents"]; ok {
		order.TotalCents = v.(int64)
	}
	if v, ok := updates["is_draft"]; ok {
		order.IsDraft = v.(bool)
	}
	return nil
}

func (s *stubRepo) List(ctx context.Context, input ListOrdersInput) ([]models.Order, error) {
	return s.listRows, nil
}

func (s *stubRepo) CreatePaymentEvent(ctx context.Context, event *models.PaymentEvent) error {
	s.events = append(s.events, *event)
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubCaps struct {
	draft  bool
	events bool
}

func (c stubCaps) SupportsDraftFlag(ctx context.Context) bool { return c.draft }
func (c stubCaps) HasPaymentEvents(ctx context.Context) bool  { return c.events }

type stubArchiver struct {
	archived []int64
	err      error
}

func (a *stubArchiver) ArchiveOrder(ctx context.Context, orderID int64) error {
	if a.err != nil {
		return a.err
	}
	a.archived = append(a.archived, orderID)
	return nil
}

func pageWithLimit(limit int) pagination.Params {
	return pagination.Params{Limit: limit}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard})
}

func newTestService(t *testing.T, repo *stubRepo, caps stubCaps, archive *stubArchiver) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{}, caps, archive, testLogger())
	require.NoError(t, err)
	return svc
}

func checkoutInput() CreateOrderInput {
	return CreateOrderInput{
		CustomerType: enums.CustomerTypeIndividual,
		CustomerName: "Maja Novak",
		Email:        "maja@example.com",
		Items: []ItemInput{
			{SKU: "PAP-A4", Name: "Paper A4", Quantity: 10, UnitPrice: decimal.NewFromInt(2)},
			{SKU: "PEN-BL", Name: "Pen", Quantity: 5, UnitPrice: decimal.NewFromInt(1), DiscountPercent: decimal.NewFromInt(10)},
		},
		Shipping: decimal.NewFromInt(3),
	}
}

func TestService_Create_Success(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, stubCaps{}, &stubArchiver{})

	order, err := svc.Create(context.Background(), checkoutInput())
	require.NoError(t, err)

	assert.Equal(t, int64(2450), order.SubtotalCents)
	assert.Equal(t, int64(539), order.TaxCents)
	assert.Equal(t, int64(300), order.EffectiveShippingCents())
	assert.Equal(t, int64(3289), order.TotalCents)
	assert.Equal(t, enums.OrderStatusAwaitingPayment, order.Status)
	assert.Equal(t, enums.PaymentStatusUnpaid, order.PaymentStatus)
	assert.Contains(t, order.OrderNumber, "ORD-")
	require.Len(t, order.Items, 2)
	assert.Equal(t, "kos", order.Items[0].Unit)
}

func TestService_Create_InstitutionStartsOnPurchaseOrder(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, stubCaps{}, &stubArchiver{})

	input := checkoutInput()
	input.CustomerType = enums.CustomerTypeInstitution
	name := "Osnovna šola Bled"
	input.InstitutionName = &name

	order, err := svc.Create(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusAwaitingPurchaseOrder, order.Status)
}

func TestService_Create_BuyerValidation(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, stubCaps{}, &stubArchiver{})
	blank := "  "

	tests := []struct {
		name   string
		mutate func(*CreateOrderInput)
	}{
		{"missing name", func(in *CreateOrderInput) { in.CustomerName = "" }},
		{"missing email", func(in *CreateOrderInput) { in.Email = "" }},
		{"unknown type", func(in *CreateOrderInput) { in.CustomerType = enums.CustomerType("club") }},
		{"company without organization", func(in *CreateOrderInput) {
			in.CustomerType = enums.CustomerTypeCompany
			tax := "SI12345678"
			in.TaxNumber = &tax
		}},
		{"company with blank tax number", func(in *CreateOrderInput) {
			in.CustomerType = enums.CustomerTypeCompany
			org := "Podjetje d.o.o."
			in.Organization = &org
			in.TaxNumber = &blank
		}},
		{"institution without name", func(in *CreateOrderInput) {
			in.CustomerType = enums.CustomerTypeInstitution
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			input := checkoutInput()
			tc.mutate(&input)
			_, err := svc.Create(context.Background(), input)
			require.Error(t, err)
			coded := pkgerrors.As(err)
			require.NotNil(t, coded)
			assert.Equal(t, pkgerrors.CodeValidation, coded.Code())
		})
	}
}

func TestService_Create_RetriesOnNumberCollision(t *testing.T) {
	repo := newStubRepo()
	repo.createErrs = []error{fmt.Errorf("UNIQUE constraint failed: orders.order_number")}
	svc := newTestService(t, repo, stubCaps{}, &stubArchiver{})

	order, err := svc.Create(context.Background(), checkoutInput())
	require.NoError(t, err)
	assert.NotZero(t, order.ID)
}

func TestService_Create_GivesUpAfterRepeatedCollisions(t *testing.T) {
	repo := newStubRepo()
	collision := fmt.Errorf("UNIQUE constraint failed: orders.order_number")
	repo.createErrs = []error{collision, collision, collision}
	svc := newTestService(t, repo, stubCaps{}, &stubArchiver{})

	_, err := svc.Create(context.Background(), checkoutInput())
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeInternal, coded.Code())
}

func TestService_UpdateDetails_BlankValuesKeepStored(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, stubCaps{}, &stubArchiver{})

	order, err := svc.Create(context.Background(), checkoutInput())
	require.NoError(t, err)

	blank := "   "
	name := "Maja Kovač"
	updated, err := svc.UpdateDetails(context.Background(), order.ID, UpdateOrderInput{
		CustomerName: &name,
		Email:        &blank,
	})
	require.NoError(t, err)
	assert.Equal(t, "Maja Kovač", updated.CustomerName)
	assert.Equal(t, "maja@example.com", updated.Email)
	_, emailTouched := repo.updateApplied["email"]
	assert.False(t, emailTouched)
}

func TestService_UpdateDetails_DraftFlagGatedOnSchema(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, stubCaps{draft: false}, &stubArchiver{})

	order, err := svc.Create(context.Background(), checkoutInput())
	require.NoError(t, err)

	draft := true
	updated, err := svc.UpdateDetails(context.Background(), order.ID, UpdateOrderInput{IsDraft: &draft})
	require.NoError(t, err)
	assert.False(t, updated.IsDraft)

	svc = newTestService(t, repo, stubCaps{draft: true}, &stubArchiver{})
	updated, err = svc.UpdateDetails(context.Background(), order.ID, UpdateOrderInput{IsDraft: &draft})
	require.NoError(t, err)
	assert.True(t, updated.IsDraft)
}

func TestService_UpdateDetails_PaymentEventAppended(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, stubCaps{events: true}, &stubArchiver{})

	order, err := svc.Create(context.Background(), checkoutInput())
	require.NoError(t, err)

	paid := enums.PaymentStatusPaid
	note := "bank transfer 30.8."
	_, err = svc.UpdateDetails(context.Background(), order.ID, UpdateOrderInput{
		PaymentStatus:     &paid,
		PaymentStatusNote: &note,
	})
	require.NoError(t, err)
	require.Len(t, repo.events, 1)
	assert.Equal(t, enums.PaymentEventTypePaid, repo.events[0].EventType)
	require.NotNil(t, repo.events[0].Note)
	assert.Equal(t, note, *repo.events[0].Note)

	// Same status again: no new event.
	_, err = svc.UpdateDetails(context.Background(), order.ID, UpdateOrderInput{PaymentStatus: &paid})
	require.NoError(t, err)
	assert.Len(t, repo.events, 1)
}

func TestService_UpdateDetails_NoEventWhenTableMissing(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, stubCaps{events: false}, &stubArchiver{})

	order, err := svc.Create(context.Background(), checkoutInput())
	require.NoError(t, err)

	paid := enums.PaymentStatusPaid
	_, err = svc.UpdateDetails(context.Background(), order.ID, UpdateOrderInput{PaymentStatus: &paid})
	require.NoError(t, err)
	assert.Empty(t, repo.events)
}

func TestService_ReplaceItems_RecalculatesTotals(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, stubCaps{}, &stubArchiver{})

	order, err := svc.Create(context.Background(), checkoutInput())
	require.NoError(t, err)

	updated, err := svc.ReplaceItems(context.Background(), order.ID, []ItemInput{
		{SKU: "NB-01", Name: "Notebook", Quantity: 4, UnitPrice: decimal.NewFromInt(5)},
	})
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, int64(2000), updated.SubtotalCents)
	assert.Equal(t, int64(440), updated.TaxCents)
	// Shipping from the original order is preserved.
	assert.Equal(t, int64(300), updated.EffectiveShippingCents())
	assert.Equal(t, int64(2740), updated.TotalCents)
}

func TestService_ReplaceItems_RejectsEmptySet(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, stubCaps{}, &stubArchiver{})

	order, err := svc.Create(context.Background(), checkoutInput())
	require.NoError(t, err)

	_, err = svc.ReplaceItems(context.Background(), order.ID, nil)
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeValidation, coded.Code())
}

func TestService_Delete_DelegatesToArchiver(t *testing.T) {
	repo := newStubRepo()
	archiver := &stubArchiver{}
	svc := newTestService(t, repo, stubCaps{}, archiver)

	order, err := svc.Create(context.Background(), checkoutInput())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), order.ID))
	assert.Equal(t, []int64{order.ID}, archiver.archived)

	err = svc.Delete(context.Background(), order.ID+100)
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeNotFound, coded.Code())
}

func TestService_List_SortsSameTimestampByNumericSuffix(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, stubCaps{}, &stubArchiver{})

	stamp := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	repo.listRows = []models.Order{
		{ID: 1, OrderNumber: "ORD-20260830-00002", CreatedAt: stamp},
		{ID: 3, OrderNumber: "ORD-20260830-00010", CreatedAt: stamp},
		{ID: 2, OrderNumber: "ORD-20260830-00009", CreatedAt: stamp},
	}

	page, err := svc.List(context.Background(), ListOrdersInput{})
	require.NoError(t, err)
	require.Len(t, page.Orders, 3)
	assert.Equal(t, "ORD-20260830-00010", page.Orders[0].OrderNumber)
	assert.Equal(t, "ORD-20260830-00009", page.Orders[1].OrderNumber)
	assert.Equal(t, "ORD-20260830-00002", page.Orders[2].OrderNumber)
	assert.Empty(t, page.NextCursor)
}

func TestService_List_NextCursorWhenPageFull(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, stubCaps{}, &stubArchiver{})

	base := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		repo.listRows = append(repo.listRows, models.Order{
			ID:          int64(10 - i),
			OrderNumber: fmt.Sprintf("ORD-20260830-%05d", 10-i),
			CreatedAt:   base.Add(-time.Duration(i) * time.Minute),
		})
	}

	page, err := svc.List(context.Background(), ListOrdersInput{Page: pageWithLimit(2)})
	require.NoError(t, err)
	assert.Len(t, page.Orders, 2)
	assert.NotEmpty(t, page.NextCursor)
}

func TestService_List_SwapsInvertedDateRange(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, stubCaps{}, &stubArchiver{})

	from := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.List(context.Background(), ListOrdersInput{From: &from, To: &to})
	require.NoError(t, err)
}

type sqliteTxRunner struct {
	conn *gorm.DB
}

func (r sqliteTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.conn.WithContext(ctx).Transaction(fn)
}

// failingItemsRepo persists normally until armed, then rejects item
// inserts so the surrounding transaction has to roll back.
type failingItemsRepo struct {
	Repository
	fail *bool
}

func (f failingItemsRepo) WithTx(tx *gorm.DB) Repository {
	return failingItemsRepo{Repository: f.Repository.WithTx(tx), fail: f.fail}
}

func (f failingItemsRepo) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if *f.fail {
		return fmt.Errorf("insert order items: disk I/O error")
	}
	return f.Repository.CreateItems(ctx, items)
}

func TestService_ReplaceItems_RollsBackOnInsertFailure(t *testing.T) {
	conn := setupOrdersTestDB(t)
	fail := false
	repo := failingItemsRepo{Repository: NewRepository(conn), fail: &fail}

	svc, err := NewService(repo, sqliteTxRunner{conn: conn}, stubCaps{}, &stubArchiver{}, testLogger())
	require.NoError(t, err)

	order, err := svc.Create(context.Background(), checkoutInput())
	require.NoError(t, err)
	require.Len(t, order.Items, 2)

	fail = true
	_, err = svc.ReplaceItems(context.Background(), order.ID, []ItemInput{
		{SKU: "INK-01", Name: "Ink", Quantity: 1, UnitPrice: decimal.NewFromInt(9)},
	})
	require.Error(t, err)

	// The old items and stored totals survive the failed edit.
	stored, err := svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 2)
	assert.Equal(t, "PAP-A4", stored.Items[0].SKU)
	assert.Equal(t, "PEN-BL", stored.Items[1].SKU)
	assert.Equal(t, order.SubtotalCents, stored.SubtotalCents)
	assert.Equal(t, order.TotalCents, stored.TotalCents)
}
