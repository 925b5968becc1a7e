package orders

import (
	"fmt"

	"github.com/mintmotion/mintmotion-backend/pkg/db/models"
	"github.com/mintmotion/mintmotion-backend/pkg/enums"
)

// AggregatedStatus is the single user-facing rollup of an order's records.
// It is recomputed on every read and never stored.
type AggregatedStatus struct {
	Status          enums.RecordStatus `json:"status"`
	Description     string             `json:"description"`
	CanDownload     bool               `json:"canDownload"`
	DeliveredCount  int                `json:"deliveredCount"`
	ProcessingCount int                `json:"processingCount"`
	FailedCount     int                `json:"failedCount"`
	TotalCount      int                `json:"totalCount"`
}

// Aggregate rolls record statuses up into one order status. The rules are
// ordered: partial failure must win the headline status before any generic
// failed rule, while keeping delivered items downloadable.
func Aggregate(records []models.Record) AggregatedStatus {
	var delivered, processing, failed int
	for _, record := range records {
		switch record.Status {
		case enums.RecordStatusDelivered:
			delivered++
		case enums.RecordStatusFailed:
			failed++
		default:
			processing++
		}
	}
	total := len(records)

	out := AggregatedStatus{
		DeliveredCount:  delivered,
		ProcessingCount: processing,
		FailedCount:     failed,
		TotalCount:      total,
	}

	switch {
	case total == 0:
		out.Status = enums.RecordStatusProcessing
		out.Description = "initializing order"

	case delivered == total:
		out.Status = enums.RecordStatusDelivered
		out.Description = fmt.Sprintf("all %d videos ready", total)
		out.CanDownload = true

	case failed == total:
		out.Status = enums.RecordStatusFailed
		out.Description = "all videos failed"

	case failed > 0 && delivered > 0:
		out.Status = enums.RecordStatusFailed
		out.Description = fmt.Sprintf("%d videos failed, %d ready to download", failed, delivered)
		out.CanDownload = true

	case failed > 0:
		out.Status = enums.RecordStatusProcessing
		out.Description = fmt.Sprintf("%d videos processing, %d failed", processing, failed)

	case delivered > 0:
		out.Status = enums.RecordStatusProcessing
		out.Description = fmt.Sprintf("%d ready, %d still processing", delivered, processing)
		out.CanDownload = true

	default:
		out.Status = enums.RecordStatusProcessing
		out.Description = fmt.Sprintf("processing %d videos", total)
	}

	return out
}
