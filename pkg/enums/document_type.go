package enums

import "fmt"

// DocumentType names one kind of commercial document attached to an order.
type DocumentType string

const (
	DocumentTypeOffer         DocumentType = "offer"
	DocumentTypeProforma      DocumentType = "proforma"
	DocumentTypeDeliveryNote  DocumentType = "delivery_note"
	DocumentTypeInvoice       DocumentType = "invoice"
	DocumentTypePurchaseOrder DocumentType = "purchase_order"
)

var validDocumentTypes = []DocumentType{
	DocumentTypeOffer,
	DocumentTypeProforma,
	DocumentTypeDeliveryNote,
	DocumentTypeInvoice,
	DocumentTypePurchaseOrder,
}

// numberPrefixes holds the counter prefix for generated document kinds.
// Purchase orders are uploaded, never generated, so they carry no prefix.
var numberPrefixes = map[DocumentType]string{
	DocumentTypeOffer:        "PON",
	DocumentTypeProforma:     "PRE",
	DocumentTypeDeliveryNote: "DOB",
	DocumentTypeInvoice:      "RAC",
}

// String implements fmt.Stringer.
func (d DocumentType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DocumentType.
func (d DocumentType) IsValid() bool {
	for _, candidate := range validDocumentTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// IsGenerated reports whether documents of this type are produced by the
// renderer and therefore receive an allocated document number.
func (d DocumentType) IsGenerated() bool {
	_, ok := numberPrefixes[d]
	return ok
}

// NumberPrefix returns the document-number prefix for generated kinds.
func (d DocumentType) NumberPrefix() (string, bool) {
	prefix, ok := numberPrefixes[d]
	return prefix, ok
}

// ParseDocumentType converts raw input into a DocumentType.
func ParseDocumentType(value string) (DocumentType, error) {
	for _, candidate := range validDocumentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid document type %q", value)
}
