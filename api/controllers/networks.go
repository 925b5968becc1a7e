package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/mintmotion/mintmotion-backend/api/responses"
	"github.com/mintmotion/mintmotion-backend/pkg/db/models"
	pkgerrors "github.com/mintmotion/mintmotion-backend/pkg/errors"
	"github.com/mintmotion/mintmotion-backend/pkg/logger"
)

type networkLister interface {
	ListActive(ctx context.Context) ([]models.BlockchainNetwork, error)
}

type networkResponse struct {
	ID               uuid.UUID `json:"id"`
	ChainID          int64     `json:"chainId"`
	Name             string    `json:"name"`
	Symbol           string    `json:"symbol"`
	ReceivingAddress string    `json:"receivingAddress"`
}

// NetworksList returns the chains the store accepts payments on.
func NetworksList(svc networkLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "network service unavailable"))
			return
		}

		networks, err := svc.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]networkResponse, len(networks))
		for i, network := range networks {
			out[i] = networkResponse{
				ID:               network.ID,
				ChainID:          network.ChainID,
				Name:             network.Name,
				Symbol:           network.Symbol,
				ReceivingAddress: network.ReceivingAddress,
			}
		}
		responses.WriteSuccess(w, out)
	}
}
