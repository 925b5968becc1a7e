package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mintmotion/mintmotion-backend/api/responses"
	"github.com/mintmotion/mintmotion-backend/api/validators"
	cartsvc "github.com/mintmotion/mintmotion-backend/internal/cart"
	"github.com/mintmotion/mintmotion-backend/internal/pricing"
	"github.com/mintmotion/mintmotion-backend/pkg/db/models"
	pkgerrors "github.com/mintmotion/mintmotion-backend/pkg/errors"
	"github.com/mintmotion/mintmotion-backend/pkg/logger"
)

type quoteRateProvider interface {
	Rate(ctx context.Context, oracleID string) (decimal.Decimal, error)
}

type quoteNetworkResolver interface {
	ResolveForPayment(ctx context.Context, chainID int64) (*models.BlockchainNetwork, error)
}

type quoteCartReader interface {
	Items(ctx context.Context, userID uuid.UUID) ([]cartsvc.Item, error)
}

type quoteResponse struct {
	ChainID         int64  `json:"chainId"`
	Symbol          string `json:"symbol"`
	Rate            string `json:"rate"`
	SubtotalUSD     string `json:"subtotalUsd"`
	SubtotalNative  string `json:"subtotalNative,omitempty"`
	FormattedUSD    string `json:"formattedUsd"`
	FormattedNative string `json:"formattedNative,omitempty"`
	Loading         bool   `json:"loading"`
	ItemCount       int    `json:"itemCount"`
}

// PricingQuote converts the cart subtotal to the connected chain's native
// token at the live oracle rate. A missing rate reports loading so the
// client never renders a zero price.
func PricingQuote(rates quoteRateProvider, networks quoteNetworkResolver, cart quoteCartReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rates == nil || networks == nil || cart == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		chainID, err := validators.ParseQueryInt64(r, "chainId", 0)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		network, err := networks.ResolveForPayment(r.Context(), chainID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := cart.Items(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary := cartsvc.Summarize(items)

		out := quoteResponse{
			ChainID:      network.ChainID,
			Symbol:       network.Symbol,
			SubtotalUSD:  summary.SubtotalUSD.String(),
			FormattedUSD: pricing.FormatUSD(summary.SubtotalUSD),
			ItemCount:    summary.ItemCount,
		}

		rate, err := rates.Rate(r.Context(), network.OracleID)
		if err != nil {
			// The rate being unavailable is not fatal for a quote: the
			// client shows a loading indicator instead of a zero price.
			out.Loading = true
			responses.WriteSuccess(w, out)
			return
		}

		native := pricing.Convert(summary.SubtotalUSD, rate)
		if !native.IsReady() {
			out.Loading = true
			responses.WriteSuccess(w, out)
			return
		}

		out.Rate = rate.String()
		out.SubtotalNative = native.Value().String()
		out.FormattedNative = pricing.FormatNative(native.Value())
		responses.WriteSuccess(w, out)
	}
}
