package networks

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/mintmotion/mintmotion-backend/pkg/db/models"
	pkgerrors "github.com/mintmotion/mintmotion-backend/pkg/errors"
)

// Service resolves payment configuration for the connected chain.
type Service struct {
	repo Repository
}

// NewService builds the network service.
func NewService(repo Repository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("network repository required")
	}
	return &Service{repo: repo}, nil
}

// ListActive returns the networks payments are enabled on.
func (s *Service) ListActive(ctx context.Context) ([]models.BlockchainNetwork, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list networks")
	}
	return rows, nil
}

// ResolveForPayment loads the network entry for the connected chain and
// verifies it is fully configured. A missing or inactive network, or one
// without a receiving address or oracle mapping, is a configuration error.
func (s *Service) ResolveForPayment(ctx context.Context, chainID int64) (*models.BlockchainNetwork, error) {
	if chainID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "chain id required")
	}
	network, err := s.repo.FindByChainID(ctx, chainID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "no network configured for the connected chain").
				WithDetails(map[string]int64{"chain_id": chainID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load network")
	}
	if !network.Active {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "network is disabled for payments")
	}
	if network.ReceivingAddress == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "network has no receiving address")
	}
	if network.OracleID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "network has no oracle mapping")
	}
	return network, nil
}
