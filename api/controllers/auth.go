package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/mintmotion/mintmotion-backend/api/responses"
	"github.com/mintmotion/mintmotion-backend/api/validators"
	pkgAuth "github.com/mintmotion/mintmotion-backend/pkg/auth"
	"github.com/mintmotion/mintmotion-backend/pkg/config"
	"github.com/mintmotion/mintmotion-backend/pkg/db/models"
	pkgerrors "github.com/mintmotion/mintmotion-backend/pkg/errors"
	"github.com/mintmotion/mintmotion-backend/pkg/logger"
)

type walletAccountProvider interface {
	UpsertByWallet(ctx context.Context, walletAddress string) (*models.User, error)
	TouchLastSeen(ctx context.Context, id uuid.UUID, at time.Time) error
}

type walletLoginRequest struct {
	WalletAddress string `json:"walletAddress" validate:"required"`
}

type walletLoginResponse struct {
	Token         string    `json:"token"`
	UserID        uuid.UUID `json:"userId"`
	WalletAddress string    `json:"walletAddress"`
}

// WalletLogin exchanges a connected wallet address for an access token. The
// account is created on first sight of the wallet.
func WalletLogin(cfg config.JWTConfig, accounts walletAccountProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if accounts == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "account service unavailable"))
			return
		}

		var payload walletLoginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !common.IsHexAddress(payload.WalletAddress) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid wallet address"))
			return
		}

		user, err := accounts.UpsertByWallet(r.Context(), payload.WalletAddress)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolving wallet account"))
			return
		}
		if !user.IsActive {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "account disabled"))
			return
		}

		now := time.Now().UTC()
		token, err := pkgAuth.MintAccessToken(cfg, now, pkgAuth.AccessTokenPayload{
			UserID:        user.ID,
			WalletAddress: user.WalletAddress,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting token"))
			return
		}

		if err := accounts.TouchLastSeen(r.Context(), user.ID, now); err != nil && logg != nil {
			logg.Warn(r.Context(), "failed to update last seen timestamp")
		}

		responses.WriteSuccess(w, walletLoginResponse{
			Token:         token,
			UserID:        user.ID,
			WalletAddress: user.WalletAddress,
		})
	}
}
