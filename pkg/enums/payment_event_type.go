package enums

// PaymentEventType records one transition on the payment axis.
type PaymentEventType string

const (
	PaymentEventTypePaid   PaymentEventType = "paid"
	PaymentEventTypeUnpaid PaymentEventType = "unpaid"
)

// String implements fmt.Stringer.
func (p PaymentEventType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentEventType.
func (p PaymentEventType) IsValid() bool {
	return p == PaymentEventTypePaid || p == PaymentEventTypeUnpaid
}
