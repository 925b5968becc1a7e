package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mintmotion/mintmotion-backend/api/responses"
	"github.com/mintmotion/mintmotion-backend/api/validators"
	ordersvc "github.com/mintmotion/mintmotion-backend/internal/orders"
	"github.com/mintmotion/mintmotion-backend/pkg/db/models"
	pkgerrors "github.com/mintmotion/mintmotion-backend/pkg/errors"
	"github.com/mintmotion/mintmotion-backend/pkg/logger"
	"github.com/mintmotion/mintmotion-backend/pkg/pagination"
)

type orderReader interface {
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]ordersvc.OrderView, string, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (*ordersvc.OrderView, error)
}

type orderRecordResponse struct {
	ID              uuid.UUID  `json:"id"`
	TemplateID      uuid.UUID  `json:"templateId"`
	ProjectID       uuid.UUID  `json:"projectId"`
	OrderNumber     string     `json:"orderNumber"`
	PriceUSD        string     `json:"priceUsd"`
	BackgroundColor string     `json:"backgroundColor"`
	Headline        *string    `json:"headline,omitempty"`
	Subheadline     *string    `json:"subheadline,omitempty"`
	Status          string     `json:"status"`
	VideoURL        *string    `json:"videoUrl,omitempty"`
	FailureReason   *string    `json:"failureReason,omitempty"`
	DeliveredAt     *time.Time `json:"deliveredAt,omitempty"`
}

type orderResponse struct {
	ID          uuid.UUID                `json:"id"`
	TxHash      string                   `json:"txHash"`
	TotalUSD    string                   `json:"totalUsd"`
	TotalNative string                   `json:"totalNative"`
	Symbol      string                   `json:"symbol"`
	Status      string                   `json:"status"`
	Aggregated  ordersvc.AggregatedStatus `json:"aggregated"`
	ConfirmedAt *time.Time               `json:"confirmedAt,omitempty"`
	CreatedAt   time.Time                `json:"createdAt"`
	Records     []orderRecordResponse    `json:"records"`
}

type ordersPageResponse struct {
	Orders     []orderResponse `json:"orders"`
	NextCursor string          `json:"nextCursor,omitempty"`
}

func newOrderRecordResponse(record models.Record) orderRecordResponse {
	return orderRecordResponse{
		ID:              record.ID,
		TemplateID:      record.TemplateID,
		ProjectID:       record.ProjectID,
		OrderNumber:     record.OrderNumber,
		PriceUSD:        record.PriceUSD.StringFixed(2),
		BackgroundColor: record.BackgroundColor,
		Headline:        record.Headline,
		Subheadline:     record.Subheadline,
		Status:          record.Status.String(),
		VideoURL:        record.VideoURL,
		FailureReason:   record.FailureReason,
		DeliveredAt:     record.DeliveredAt,
	}
}

func newOrderResponse(view ordersvc.OrderView) orderResponse {
	tx := view.Transaction
	out := orderResponse{
		ID:          tx.ID,
		TxHash:      tx.TxHash,
		TotalUSD:    tx.TotalUSD.StringFixed(2),
		TotalNative: tx.TotalNative.String(),
		Symbol:      tx.Symbol,
		Status:      tx.Status.String(),
		Aggregated:  view.Aggregated,
		ConfirmedAt: tx.ConfirmedAt,
		CreatedAt:   tx.CreatedAt,
		Records:     make([]orderRecordResponse, len(tx.Records)),
	}
	for i, record := range tx.Records {
		out.Records[i] = newOrderRecordResponse(record)
	}
	return out
}

// OrdersList returns the caller's order history, newest first.
func OrdersList(svc orderReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views, nextCursor, err := svc.ListByUser(r.Context(), userID, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := ordersPageResponse{
			Orders:     make([]orderResponse, len(views)),
			NextCursor: nextCursor,
		}
		for i, view := range views {
			out.Orders[i] = newOrderResponse(view)
		}
		responses.WriteSuccess(w, out)
	}
}

// OrderGet returns one of the caller's orders with its aggregated status.
func OrderGet(svc orderReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		view, err := svc.Get(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(*view))
	}
}
