package enums

import "fmt"

// CheckoutStatus tracks the lifecycle of a single checkout attempt.
type CheckoutStatus string

const (
	CheckoutStatusIdle       CheckoutStatus = "idle"
	CheckoutStatusPreparing  CheckoutStatus = "preparing"
	CheckoutStatusConfirming CheckoutStatus = "confirming"
	CheckoutStatusProcessing CheckoutStatus = "processing"
	CheckoutStatusSuccess    CheckoutStatus = "success"
	CheckoutStatusError      CheckoutStatus = "error"
)

var validCheckoutStatuses = []CheckoutStatus{
	CheckoutStatusIdle,
	CheckoutStatusPreparing,
	CheckoutStatusConfirming,
	CheckoutStatusProcessing,
	CheckoutStatusSuccess,
	CheckoutStatusError,
}

// String implements fmt.Stringer.
func (c CheckoutStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CheckoutStatus.
func (c CheckoutStatus) IsValid() bool {
	for _, candidate := range validCheckoutStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsBusy reports whether an attempt is still in flight.
func (c CheckoutStatus) IsBusy() bool {
	switch c {
	case CheckoutStatusPreparing, CheckoutStatusConfirming, CheckoutStatusProcessing:
		return true
	}
	return false
}

// ParseCheckoutStatus converts raw input into a CheckoutStatus.
func ParseCheckoutStatus(value string) (CheckoutStatus, error) {
	for _, candidate := range validCheckoutStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout status %q", value)
}
