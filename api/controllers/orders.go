package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/opremico/opremico-backend/api/responses"
	"github.com/opremico/opremico-backend/api/validators"
	"github.com/opremico/opremico-backend/internal/orders"
	"github.com/opremico/opremico-backend/pkg/db/models"
	"github.com/opremico/opremico-backend/pkg/enums"
	pkgerrors "github.com/opremico/opremico-backend/pkg/errors"
	"github.com/opremico/opremico-backend/pkg/logger"
	"github.com/opremico/opremico-backend/pkg/pagination"
)

type orderItemRequest struct {
	SKU             string          `json:"sku" validate:"required,max=64"`
	Name            string          `json:"name" validate:"required,max=255"`
	Unit            string          `json:"unit"`
	Quantity        int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

func (i orderItemRequest) toInput() orders.ItemInput {
	return orders.ItemInput{
		SKU:             i.SKU,
		Name:            i.Name,
		Unit:            i.Unit,
		Quantity:        i.Quantity,
		UnitPrice:       i.UnitPrice,
		DiscountPercent: i.DiscountPercent,
	}
}

type orderItemResponse struct {
	ID              int64   `json:"id"`
	SKU             string  `json:"sku"`
	Name            string  `json:"name"`
	Unit            string  `json:"unit"`
	Quantity        int     `json:"quantity"`
	UnitPriceCents  int64   `json:"unit_price_cents"`
	DiscountPercent float64 `json:"discount_percent"`
	LineTotalCents  int64   `json:"line_total_cents"`
}

type orderResponse struct {
	ID          int64  `json:"id"`
	OrderNumber string `json:"order_number"`

	CustomerType    string  `json:"customer_type"`
	CustomerName    string  `json:"customer_name"`
	Email           string  `json:"email"`
	Phone           *string `json:"phone,omitempty"`
	Organization    *string `json:"organization,omitempty"`
	InstitutionName *string `json:"institution_name,omitempty"`
	TaxNumber       *string `json:"tax_number,omitempty"`

	DeliveryStreet   *string `json:"delivery_street,omitempty"`
	DeliveryCity     *string `json:"delivery_city,omitempty"`
	DeliveryPostCode *string `json:"delivery_post_code,omitempty"`
	DeliveryCountry  *string `json:"delivery_country,omitempty"`

	Notes          *string `json:"notes,omitempty"`
	BuyerReference *string `json:"buyer_reference,omitempty"`

	Status            string  `json:"status"`
	PaymentStatus     string  `json:"payment_status"`
	PaymentStatusNote *string `json:"payment_status_note,omitempty"`

	SubtotalCents int64 `json:"subtotal_cents"`
	TaxCents      int64 `json:"tax_cents"`
	ShippingCents int64 `json:"shipping_cents"`
	TotalCents    int64 `json:"total_cents"`

	IsDraft bool `json:"is_draft"`

	Items []orderItemResponse `json:"items"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newOrderResponse(order *models.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ID:              item.ID,
			SKU:             item.SKU,
			Name:            item.Name,
			Unit:            item.Unit,
			Quantity:        item.Quantity,
			UnitPriceCents:  item.UnitPriceCents,
			DiscountPercent: item.DiscountPercent,
			LineTotalCents:  item.LineTotalCents,
		})
	}

	return orderResponse{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,

		CustomerType:    order.CustomerType.String(),
		CustomerName:    order.CustomerName,
		Email:           order.Email,
		Phone:           order.Phone,
		Organization:    order.Organization,
		InstitutionName: order.InstitutionName,
		TaxNumber:       order.TaxNumber,

		DeliveryStreet:   order.DeliveryStreet,
		DeliveryCity:     order.DeliveryCity,
		DeliveryPostCode: order.DeliveryPostCode,
		DeliveryCountry:  order.DeliveryCountry,

		Notes:          order.Notes,
		BuyerReference: order.BuyerReference,

		Status:            order.Status.String(),
		PaymentStatus:     order.PaymentStatus.String(),
		PaymentStatusNote: order.PaymentStatusNote,

		SubtotalCents: order.SubtotalCents,
		TaxCents:      order.TaxCents,
		ShippingCents: order.EffectiveShippingCents(),
		TotalCents:    order.TotalCents,

		IsDraft: order.IsDraft,

		Items: items,

		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}
}

type orderPageResponse struct {
	Orders     []orderResponse `json:"orders"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// AdminListOrders serves the filtered, cursor-paginated back-office listing.
func AdminListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := parseListInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), *input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := orderPageResponse{
			Orders:     make([]orderResponse, 0, len(page.Orders)),
			NextCursor: page.NextCursor,
		}
		for i := range page.Orders {
			resp.Orders = append(resp.Orders, newOrderResponse(&page.Orders[i]))
		}

		responses.WriteSuccess(w, resp)
	}
}

func parseListInput(r *http.Request) (*orders.ListOrdersInput, error) {
	input := orders.ListOrdersInput{
		Search: r.URL.Query().Get("search"),
	}

	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		input.Status = &status
	}

	if raw := r.URL.Query().Get("customer_type"); raw != "" {
		customerType, err := enums.ParseCustomerType(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer_type filter")
		}
		input.CustomerType = &customerType
	}

	from, err := validators.ParseQueryTime(r, "from")
	if err != nil {
		return nil, err
	}
	input.From = from

	to, err := validators.ParseQueryTime(r, "to")
	if err != nil {
		return nil, err
	}
	input.To = to

	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return nil, err
	}
	input.Page = pagination.Params{
		Limit:  limit,
		Cursor: r.URL.Query().Get("cursor"),
	}

	return &input, nil
}

// AdminGetOrder returns one live order with its items.
func AdminGetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type updateOrderRequest struct {
	OrderNumber     *string `json:"order_number"`
	CustomerName    *string `json:"customer_name"`
	Email           *string `json:"email" validate:"omitempty,email"`
	Phone           *string `json:"phone"`
	Organization    *string `json:"organization"`
	InstitutionName *string `json:"institution_name"`
	TaxNumber       *string `json:"tax_number"`

	DeliveryStreet   *string `json:"delivery_street"`
	DeliveryCity     *string `json:"delivery_city"`
	DeliveryPostCode *string `json:"delivery_post_code"`
	DeliveryCountry  *string `json:"delivery_country"`

	Notes          *string `json:"notes"`
	BuyerReference *string `json:"buyer_reference"`

	Status            *string `json:"status"`
	PaymentStatus     *string `json:"payment_status"`
	PaymentStatusNote *string `json:"payment_status_note"`
	IsDraft           *bool   `json:"is_draft"`
}

func (req updateOrderRequest) toInput() (orders.UpdateOrderInput, error) {
	input := orders.UpdateOrderInput{
		OrderNumber:     req.OrderNumber,
		CustomerName:    req.CustomerName,
		Email:           req.Email,
		Phone:           req.Phone,
		Organization:    req.Organization,
		InstitutionName: req.InstitutionName,
		TaxNumber:       req.TaxNumber,

		DeliveryStreet:   req.DeliveryStreet,
		DeliveryCity:     req.DeliveryCity,
		DeliveryPostCode: req.DeliveryPostCode,
		DeliveryCountry:  req.DeliveryCountry,

		Notes:          req.Notes,
		BuyerReference: req.BuyerReference,

		PaymentStatusNote: req.PaymentStatusNote,
		IsDraft:           req.IsDraft,
	}

	if req.Status != nil {
		status, err := enums.ParseOrderStatus(*req.Status)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		input.Status = &status
	}

	if req.PaymentStatus != nil {
		paymentStatus, err := enums.ParsePaymentStatus(*req.PaymentStatus)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment_status")
		}
		input.PaymentStatus = &paymentStatus
	}

	return input, nil
}

// AdminUpdateOrder applies a partial update to buyer, delivery, and status
// fields. Omitted fields keep their stored values.
func AdminUpdateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateDetails(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type replaceItemsRequest struct {
	Items []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// AdminReplaceOrderItems swaps the full line-item set and recomputes totals.
func AdminReplaceOrderItems(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload replaceItemsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]orders.ItemInput, 0, len(payload.Items))
		for _, item := range payload.Items {
			items = append(items, item.toInput())
		}

		order, err := svc.ReplaceItems(r.Context(), id, items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// AdminDeleteOrder moves the order and its documents into the archive.
func AdminDeleteOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "archived"})
	}
}
