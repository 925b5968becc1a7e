package enums

import "fmt"

// TransactionStatus captures the chain-level outcome of a persisted payment.
type TransactionStatus string

const (
	TransactionStatusSuccess TransactionStatus = "success"
	TransactionStatusFailed  TransactionStatus = "failed"
)

var validTransactionStatuses = []TransactionStatus{
	TransactionStatusSuccess,
	TransactionStatusFailed,
}

// String implements fmt.Stringer.
func (t TransactionStatus) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TransactionStatus.
func (t TransactionStatus) IsValid() bool {
	for _, candidate := range validTransactionStatuses {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTransactionStatus converts raw input into a TransactionStatus.
func ParseTransactionStatus(value string) (TransactionStatus, error) {
	for _, candidate := range validTransactionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction status %q", value)
}
