package enums

import "fmt"

// PaymentLogEventType labels best-effort audit entries in payment_logs.
type PaymentLogEventType string

const (
	PaymentLogTransactionCreated   PaymentLogEventType = "transaction_created"
	PaymentLogReconciliationFailed PaymentLogEventType = "reconciliation_failed"
	PaymentLogDuplicateHashSkipped PaymentLogEventType = "duplicate_hash_skipped"
)

var validPaymentLogEventTypes = []PaymentLogEventType{
	PaymentLogTransactionCreated,
	PaymentLogReconciliationFailed,
	PaymentLogDuplicateHashSkipped,
}

// String implements fmt.Stringer.
func (p PaymentLogEventType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentLogEventType.
func (p PaymentLogEventType) IsValid() bool {
	for _, candidate := range validPaymentLogEventTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentLogEventType converts raw input into a PaymentLogEventType.
func ParsePaymentLogEventType(value string) (PaymentLogEventType, error) {
	for _, candidate := range validPaymentLogEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment log event type %q", value)
}
