package render

import (
	"context"
	"testing"
	"time"

	"github.com/opremico/opremico-backend/internal/documents"
	"github.com/opremico/opremico-backend/pkg/db/models"
	"github.com/opremico/opremico-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDFRenderer_Render(t *testing.T) {
	renderer := NewPDFRenderer("Opremico d.o.o.", "Cesta v Gorice 12, 1000 Ljubljana")

	order := &models.Order{
		ID:            7,
		OrderNumber:   "ORD-20260830-00042",
		CustomerName:  "Maja Novak",
		SubtotalCents: 2450,
		TaxCents:      539,
		TotalCents:    2989,
		Items: []models.OrderItem{
			{SKU: "PAP-A4", Name: "Papir A4 (80g)", Unit: "kos", Quantity: 10, UnitPriceCents: 200, LineTotalCents: 2000},
		},
	}

	pdf, err := renderer.Render(context.Background(), documents.RenderInput{
		Order:          order,
		DocType:        enums.DocumentTypeInvoice,
		DocumentNumber: "RAC-00001",
		IssuedAt:       time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	body := string(pdf)
	assert.Contains(t, body, "%PDF-1.4")
	assert.Contains(t, body, "%%EOF")
	assert.Contains(t, body, "RAC-00001")
	assert.Contains(t, body, "Maja Novak")
	assert.Contains(t, body, "30.08.2026")
	// Parentheses in item names must not break the content stream.
	assert.Contains(t, body, `Papir A4 \(80g\)`)
}

func TestPDFRenderer_Render_RequiresOrder(t *testing.T) {
	renderer := NewPDFRenderer("", "")
	_, err := renderer.Render(context.Background(), documents.RenderInput{})
	require.Error(t, err)
}
