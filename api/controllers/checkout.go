package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/mintmotion/mintmotion-backend/api/middleware"
	"github.com/mintmotion/mintmotion-backend/api/responses"
	"github.com/mintmotion/mintmotion-backend/api/validators"
	checkoutsvc "github.com/mintmotion/mintmotion-backend/internal/checkout"
	pkgerrors "github.com/mintmotion/mintmotion-backend/pkg/errors"
	"github.com/mintmotion/mintmotion-backend/pkg/logger"
)

type checkoutService interface {
	Begin(ctx context.Context, input checkoutsvc.BeginInput) (*checkoutsvc.Quote, error)
	Confirm(ctx context.Context, userID uuid.UUID, txHash string) (checkoutsvc.StateView, error)
	State(userID uuid.UUID) checkoutsvc.StateView
	Cancel(userID uuid.UUID) error
}

type checkoutBeginRequest struct {
	ChainID int64 `json:"chainId" validate:"required"`
}

type checkoutQuoteResponse struct {
	ReceivingAddress string `json:"receivingAddress"`
	ChainID          int64  `json:"chainId"`
	Symbol           string `json:"symbol"`
	TotalUSD         string `json:"totalUsd"`
	TotalNative      string `json:"totalNative"`
	FormattedUSD     string `json:"formattedUsd"`
	FormattedNative  string `json:"formattedNative"`
	ItemCount        int    `json:"itemCount"`
}

type checkoutStateResponse struct {
	Status          string  `json:"status"`
	TxHash          string  `json:"txHash,omitempty"`
	ErrorCode       string  `json:"errorCode,omitempty"`
	ErrorMessage    string  `json:"errorMessage,omitempty"`
	OrderID         *string `json:"orderId,omitempty"`
	FormattedUSD    string  `json:"formattedUsd,omitempty"`
	FormattedNative string  `json:"formattedNative,omitempty"`
}

func newCheckoutStateResponse(view checkoutsvc.StateView) checkoutStateResponse {
	out := checkoutStateResponse{
		Status:          view.Status.String(),
		TxHash:          view.TxHash,
		ErrorCode:       view.ErrorCode,
		ErrorMessage:    view.ErrorMessage,
		FormattedUSD:    view.FormattedUSD,
		FormattedNative: view.FormattedNative,
	}
	if view.OrderID != uuid.Nil {
		id := view.OrderID.String()
		out.OrderID = &id
	}
	return out
}

// CheckoutBegin prepares a checkout attempt and returns the payment quote.
func CheckoutBegin(svc checkoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutBeginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Begin(r.Context(), checkoutsvc.BeginInput{
			UserID:        userID,
			WalletAddress: middleware.WalletFromContext(r.Context()),
			ChainID:       payload.ChainID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, checkoutQuoteResponse{
			ReceivingAddress: quote.ReceivingAddress,
			ChainID:          quote.ChainID,
			Symbol:           quote.Symbol,
			TotalUSD:         quote.TotalUSD.String(),
			TotalNative:      quote.TotalNative.String(),
			FormattedUSD:     quote.FormattedUSD,
			FormattedNative:  quote.FormattedNative,
			ItemCount:        quote.ItemCount,
		})
	}
}

type checkoutConfirmRequest struct {
	TxHash string `json:"txHash" validate:"required"`
}

// CheckoutConfirm submits the broadcast transaction hash for verification
// and order creation. The response carries the terminal attempt state even
// when the attempt failed, so clients render from one shape.
func CheckoutConfirm(svc checkoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutConfirmRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Confirm(r.Context(), userID, payload.TxHash)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCheckoutStateResponse(view))
	}
}

// CheckoutState reports the caller's current attempt, idle when none.
func CheckoutState(svc checkoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCheckoutStateResponse(svc.State(userID)))
	}
}

// CheckoutCancel abandons a pending attempt.
func CheckoutCancel(svc checkoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Cancel(userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCheckoutStateResponse(svc.State(userID)))
	}
}
