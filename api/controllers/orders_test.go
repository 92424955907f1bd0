package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/opremico/opremico-backend/internal/orders"
	"github.com/opremico/opremico-backend/pkg/db/models"
	"github.com/opremico/opremico-backend/pkg/enums"
	pkgerrors "github.com/opremico/opremico-backend/pkg/errors"
)

type stubOrderService struct {
	createFn       func(ctx context.Context, input orders.CreateOrderInput) (*models.Order, error)
	getFn          func(ctx context.Context, id int64) (*models.Order, error)
	listFn         func(ctx context.Context, input orders.ListOrdersInput) (*orders.OrderPage, error)
	updateFn       func(ctx context.Context, id int64, input orders.UpdateOrderInput) (*models.Order, error)
	replaceItemsFn func(ctx context.Context, id int64, items []orders.ItemInput) (*models.Order, error)
	deleteFn       func(ctx context.Context, id int64) error
}

func (s stubOrderService) Create(ctx context.Context, input orders.CreateOrderInput) (*models.Order, error) {
	return s.createFn(ctx, input)
}

func (s stubOrderService) Get(ctx context.Context, id int64) (*models.Order, error) {
	return s.getFn(ctx, id)
}

func (s stubOrderService) List(ctx context.Context, input orders.ListOrdersInput) (*orders.OrderPage, error) {
	return s.listFn(ctx, input)
}

func (s stubOrderService) UpdateDetails(ctx context.Context, id int64, input orders.UpdateOrderInput) (*models.Order, error) {
	return s.updateFn(ctx, id, input)
}

func (s stubOrderService) ReplaceItems(ctx context.Context, id int64, items []orders.ItemInput) (*models.Order, error) {
	return s.replaceItemsFn(ctx, id, items)
}

func (s stubOrderService) Delete(ctx context.Context, id int64) error {
	return s.deleteFn(ctx, id)
}

func sampleOrder() *models.Order {
	return &models.Order{
		ID:            7,
		OrderNumber:   "ORD-20260830-00042",
		CustomerType:  enums.CustomerTypeIndividual,
		CustomerName:  "Ana Novak",
		Email:         "ana@example.si",
		Status:        enums.OrderStatusAwaitingPayment,
		PaymentStatus: enums.PaymentStatusUnpaid,
		SubtotalCents: 2450,
		TaxCents:      539,
		TotalCents:    2989,
		Items: []models.OrderItem{
			{ID: 1, OrderID: 7, SKU: "PAP-A4", Name: "Papir A4", Unit: "kos", Quantity: 10, UnitPriceCents: 245, LineTotalCents: 2450},
		},
		CreatedAt: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
	}
}

func requestWithOrderID(method, target, orderID string, body *bytes.Buffer) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, body)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rc := chi.NewRouteContext()
	rc.URLParams.Add("orderID", orderID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestCheckoutCreatesOrder(t *testing.T) {
	var captured orders.CreateOrderInput
	svc := stubOrderService{
		createFn: func(_ context.Context, input orders.CreateOrderInput) (*models.Order, error) {
			captured = input
			return sampleOrder(), nil
		},
	}

	payload := `{
		"customer_type": "individual",
		"customer_name": "Ana Novak",
		"email": "ana@example.si",
		"items": [{"sku": "PAP-A4", "name": "Papir A4", "quantity": 10, "unit_price": "2.45"}],
		"shipping": "0"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()

	Checkout(svc, nil, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.CustomerType != enums.CustomerTypeIndividual {
		t.Fatalf("unexpected customer type %s", captured.CustomerType)
	}
	if len(captured.Items) != 1 || captured.Items[0].SKU != "PAP-A4" {
		t.Fatalf("unexpected items %+v", captured.Items)
	}

	var envelope struct {
		Data orderResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.OrderNumber != "ORD-20260830-00042" {
		t.Fatalf("unexpected order number %s", envelope.Data.OrderNumber)
	}
	if envelope.Data.TotalCents != 2989 {
		t.Fatalf("unexpected total %d", envelope.Data.TotalCents)
	}
}

func TestCheckoutRejectsUnknownCustomerType(t *testing.T) {
	svc := stubOrderService{
		createFn: func(_ context.Context, _ orders.CreateOrderInput) (*models.Order, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}

	payload := `{
		"customer_type": "reseller",
		"customer_name": "Ana Novak",
		"email": "ana@example.si",
		"items": [{"sku": "PAP-A4", "name": "Papir A4", "quantity": 1, "unit_price": "2.45"}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()

	Checkout(svc, nil, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestCheckoutRejectsEmptyItems(t *testing.T) {
	svc := stubOrderService{
		createFn: func(_ context.Context, _ orders.CreateOrderInput) (*models.Order, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}

	payload := `{
		"customer_type": "individual",
		"customer_name": "Ana Novak",
		"email": "ana@example.si",
		"items": []
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()

	Checkout(svc, nil, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestAdminGetOrderNotFound(t *testing.T) {
	svc := stubOrderService{
		getFn: func(_ context.Context, _ int64) (*models.Order, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		},
	}

	req := requestWithOrderID(http.MethodGet, "/api/admin/v1/orders/99", "99", nil)
	rec := httptest.NewRecorder()

	AdminGetOrder(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestAdminGetOrderRejectsBadID(t *testing.T) {
	svc := stubOrderService{
		getFn: func(_ context.Context, _ int64) (*models.Order, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}

	req := requestWithOrderID(http.MethodGet, "/api/admin/v1/orders/abc", "abc", nil)
	rec := httptest.NewRecorder()

	AdminGetOrder(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestAdminUpdateOrderParsesStatus(t *testing.T) {
	var captured orders.UpdateOrderInput
	svc := stubOrderService{
		updateFn: func(_ context.Context, _ int64, input orders.UpdateOrderInput) (*models.Order, error) {
			captured = input
			return sampleOrder(), nil
		},
	}

	payload := `{"status": "in_progress", "payment_status": "paid"}`
	req := requestWithOrderID(http.MethodPatch, "/api/admin/v1/orders/7", "7", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()

	AdminUpdateOrder(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Status == nil || *captured.Status != enums.OrderStatusInProgress {
		t.Fatalf("status not forwarded: %+v", captured.Status)
	}
	if captured.PaymentStatus == nil || *captured.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("payment status not forwarded: %+v", captured.PaymentStatus)
	}
}

func TestAdminUpdateOrderRejectsUnknownStatus(t *testing.T) {
	svc := stubOrderService{
		updateFn: func(_ context.Context, _ int64, _ orders.UpdateOrderInput) (*models.Order, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}

	payload := `{"status": "shipped"}`
	req := requestWithOrderID(http.MethodPatch, "/api/admin/v1/orders/7", "7", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()

	AdminUpdateOrder(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestAdminListOrdersForwardsFilters(t *testing.T) {
	var captured orders.ListOrdersInput
	svc := stubOrderService{
		listFn: func(_ context.Context, input orders.ListOrdersInput) (*orders.OrderPage, error) {
			captured = input
			return &orders.OrderPage{Orders: []models.Order{*sampleOrder()}, NextCursor: "abc"}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders?status=received&customer_type=company&search=novak&limit=10&from=2026-08-01", nil)
	rec := httptest.NewRecorder()

	AdminListOrders(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Status == nil || *captured.Status != enums.OrderStatusReceived {
		t.Fatalf("status filter not forwarded")
	}
	if captured.CustomerType == nil || *captured.CustomerType != enums.CustomerTypeCompany {
		t.Fatalf("customer type filter not forwarded")
	}
	if captured.Search != "novak" || captured.Page.Limit != 10 {
		t.Fatalf("search/limit not forwarded: %+v", captured)
	}
	if captured.From == nil || !captured.From.Equal(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("from filter not forwarded: %+v", captured.From)
	}

	var envelope struct {
		Data orderPageResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.NextCursor != "abc" || len(envelope.Data.Orders) != 1 {
		t.Fatalf("unexpected page %+v", envelope.Data)
	}
}

func TestAdminDeleteOrderArchives(t *testing.T) {
	deleted := int64(0)
	svc := stubOrderService{
		deleteFn: func(_ context.Context, id int64) error {
			deleted = id
			return nil
		},
	}

	req := requestWithOrderID(http.MethodDelete, "/api/admin/v1/orders/7", "7", nil)
	rec := httptest.NewRecorder()

	AdminDeleteOrder(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if deleted != 7 {
		t.Fatalf("expected delete of order 7, got %d", deleted)
	}
}
