package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/opremico/opremico-backend/internal/documents"
	"github.com/opremico/opremico-backend/internal/pricing"
	"github.com/opremico/opremico-backend/pkg/enums"
)

// documentTitles maps each type to the heading printed on the page.
var documentTitles = map[enums.DocumentType]string{
	enums.DocumentTypeOffer:         "Ponudba",
	enums.DocumentTypeProforma:      "Predračun",
	enums.DocumentTypeDeliveryNote:  "Dobavnica",
	enums.DocumentTypeInvoice:       "Račun",
	enums.DocumentTypePurchaseOrder: "Naročilnica",
}

// PDFRenderer produces single-page PDF documents from order data.
type PDFRenderer struct {
	sellerName    string
	sellerAddress string
}

// NewPDFRenderer builds a renderer stamped with the seller identity.
func NewPDFRenderer(sellerName, sellerAddress string) *PDFRenderer {
	if sellerName == "" {
		sellerName = "Opremico d.o.o."
	}
	return &PDFRenderer{sellerName: sellerName, sellerAddress: sellerAddress}
}

// Render lays out the document as plain text lines and wraps them in a
// minimal PDF shell.
func (r *PDFRenderer) Render(ctx context.Context, input documents.RenderInput) ([]byte, error) {
	if input.Order == nil {
		return nil, fmt.Errorf("order data required")
	}

	title := documentTitles[input.DocType]
	if title == "" {
		title = string(input.DocType)
	}

	lines := []string{
		r.sellerName,
		r.sellerAddress,
		"",
		fmt.Sprintf("%s %s", title, input.DocumentNumber),
		fmt.Sprintf("Datum: %s", input.IssuedAt.Format("02.01.2006")),
		fmt.Sprintf("Naročilo: %s", input.Order.OrderNumber),
		"",
		fmt.Sprintf("Kupec: %s", input.Order.CustomerName),
	}
	if input.Order.Organization != nil {
		lines = append(lines, *input.Order.Organization)
	}
	if input.Order.InstitutionName != nil {
		lines = append(lines, *input.Order.InstitutionName)
	}
	if input.Order.TaxNumber != nil {
		lines = append(lines, fmt.Sprintf("ID za DDV: %s", *input.Order.TaxNumber))
	}
	lines = append(lines, "")

	for _, item := range input.Order.Items {
		line := fmt.Sprintf("%-14s %-30s %4d %-4s %10s %10s",
			item.SKU, truncate(item.Name, 30), item.Quantity, item.Unit,
			formatAmount(item.UnitPriceCents), formatAmount(item.LineTotalCents))
		if item.DiscountPercent > 0 {
			line += fmt.Sprintf("  -%.0f%%", item.DiscountPercent)
		}
		lines = append(lines, line)
	}

	lines = append(lines,
		"",
		fmt.Sprintf("Skupaj brez DDV: %s EUR", formatAmount(input.Order.SubtotalCents)),
		fmt.Sprintf("DDV 22%%:         %s EUR", formatAmount(input.Order.TaxCents)),
	)
	if shipping := input.Order.EffectiveShippingCents(); shipping > 0 {
		lines = append(lines, fmt.Sprintf("Dostava:         %s EUR", formatAmount(shipping)))
	}
	lines = append(lines, fmt.Sprintf("Za plačilo:      %s EUR", formatAmount(input.Order.TotalCents)))

	return buildPDF(lines), nil
}

func formatAmount(cents int64) string {
	return pricing.FromCents(cents).StringFixed(2)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

// buildPDF wraps text lines in a minimal one-page PDF document. Offsets in
// the xref table must match the byte positions of each object exactly.
func buildPDF(lines []string) []byte {
	var content bytes.Buffer
	content.WriteString("BT\n/F1 10 Tf\n50 800 Td\n12 TL\n")
	for _, line := range lines {
		fmt.Fprintf(&content, "(%s) Tj\nT*\n", escapePDFText(line))
	}
	content.WriteString("ET\n")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", content.Len(), content.String()),
	}

	var out bytes.Buffer
	out.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = out.Len()
		fmt.Fprintf(&out, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xrefStart := out.Len()
	fmt.Fprintf(&out, "xref\n0 %d\n", len(objects)+1)
	out.WriteString("0000000000 65535 f \n")
	for _, offset := range offsets {
		fmt.Fprintf(&out, "%010d 00000 n \n", offset)
	}
	fmt.Fprintf(&out, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xrefStart)

	return out.Bytes()
}

func escapePDFText(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)
	return replacer.Replace(s)
}
