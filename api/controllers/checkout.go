package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/opremico/opremico-backend/api/responses"
	"github.com/opremico/opremico-backend/api/validators"
	"github.com/opremico/opremico-backend/internal/documents"
	"github.com/opremico/opremico-backend/internal/orders"
	"github.com/opremico/opremico-backend/pkg/enums"
	pkgerrors "github.com/opremico/opremico-backend/pkg/errors"
	"github.com/opremico/opremico-backend/pkg/logger"
)

type checkoutRequest struct {
	CustomerType    string  `json:"customer_type" validate:"required,oneof=individual company institution"`
	CustomerName    string  `json:"customer_name" validate:"required,max=255"`
	Email           string  `json:"email" validate:"required,email"`
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

	Items    []orderItemRequest `json:"items" validate:"required,min=1,dive"`
	Shipping decimal.Decimal    `json:"shipping"`
}

type checkoutResponse struct {
	orderResponse
	DocumentURL *string `json:"document_url,omitempty"`
}

// Checkout accepts a storefront order submission, opens the order ledger
// entry, and renders the initial offer document for the confirmation page.
func Checkout(svc orders.Service, docs documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customerType, err := enums.ParseCustomerType(payload.CustomerType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer_type"))
			return
		}

		items := make([]orders.ItemInput, 0, len(payload.Items))
		for _, item := range payload.Items {
			items = append(items, item.toInput())
		}

		order, err := svc.Create(r.Context(), orders.CreateOrderInput{
			CustomerType:    customerType,
			CustomerName:    payload.CustomerName,
			Email:           payload.Email,
			Phone:           payload.Phone,
			Organization:    payload.Organization,
			InstitutionName: payload.InstitutionName,
			TaxNumber:       payload.TaxNumber,

			DeliveryStreet:   payload.DeliveryStreet,
			DeliveryCity:     payload.DeliveryCity,
			DeliveryPostCode: payload.DeliveryPostCode,
			DeliveryCountry:  payload.DeliveryCountry,

			Notes:          payload.Notes,
			BuyerReference: payload.BuyerReference,

			Items:    items,
			Shipping: payload.Shipping,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := checkoutResponse{orderResponse: newOrderResponse(order)}

		// The order is committed either way; a failed render only costs the
		// confirmation link, so it must not fail the checkout.
		if docs != nil {
			doc, docErr := docs.Generate(r.Context(), documents.GenerateInput{
				OrderID: order.ID,
				DocType: enums.DocumentTypeOffer,
			})
			if docErr != nil && logg != nil {
				ctx := logg.WithOrderID(r.Context(), order.ID)
				logg.Error(ctx, "failed to render checkout offer document", docErr)
			}
			if docErr == nil {
				resp.DocumentURL = &doc.URL
			}
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, resp)
	}
}
