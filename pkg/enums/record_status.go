package enums

import "fmt"

// RecordStatus tracks one video-rendering fulfillment unit within an order.
type RecordStatus string

const (
	RecordStatusProcessing RecordStatus = "processing"
	RecordStatusDelivered  RecordStatus = "delivered"
	RecordStatusFailed     RecordStatus = "failed"
)

var validRecordStatuses = []RecordStatus{
	RecordStatusProcessing,
	RecordStatusDelivered,
	RecordStatusFailed,
}

// String implements fmt.Stringer.
func (r RecordStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RecordStatus.
func (r RecordStatus) IsValid() bool {
	for _, candidate := range validRecordStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the fulfillment pipeline is done with the record.
func (r RecordStatus) IsTerminal() bool {
	return r == RecordStatusDelivered || r == RecordStatusFailed
}

// ParseRecordStatus converts raw input into a RecordStatus.
func ParseRecordStatus(value string) (RecordStatus, error) {
	for _, candidate := range validRecordStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid record status %q", value)
}
