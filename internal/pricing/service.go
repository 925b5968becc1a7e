package pricing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/mintmotion/mintmotion-backend/pkg/errors"
	"github.com/mintmotion/mintmotion-backend/pkg/logger"
)

type oracleClient interface {
	USDPrice(ctx context.Context, oracleID string) (decimal.Decimal, error)
}

type rateCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	RateCacheKey(oracleID string) string
}

// Service converts USD prices into native-token amounts using a cached
// oracle rate.
type Service struct {
	oracle   oracleClient
	cache    rateCache
	cacheTTL time.Duration
	logg     *logger.Logger
}

// Affordability is the derived purchasing power for a wallet against a price.
type Affordability struct {
	CanAfford        bool
	MissingAmount    decimal.Decimal
	FormattedPrice   string
	FormattedBalance string
	FormattedMissing string
}

// NewService builds the pricing service.
func NewService(oracle oracleClient, cache rateCache, cacheTTL time.Duration, logg *logger.Logger) (*Service, error) {
	if oracle == nil {
		return nil, fmt.Errorf("oracle client required")
	}
	if cacheTTL <= 0 {
		cacheTTL = 60 * time.Second
	}
	return &Service{
		oracle:   oracle,
		cache:    cache,
		cacheTTL: cacheTTL,
		logg:     logg,
	}, nil
}

// Rate returns the USD price of one native token for the given oracle asset.
// Rates are cached for the configured TTL and the oracle fetch is retried
// once on failure.
func (s *Service) Rate(ctx context.Context, oracleID string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(oracleID)
	if trimmed == "" {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "oracle asset id is required")
	}

	var key string
	if s.cache != nil {
		key = s.cache.RateCacheKey(trimmed)
		if cached, err := s.cache.Get(ctx, key); err == nil && cached != "" {
			if rate, parseErr := decimal.NewFromString(cached); parseErr == nil && rate.IsPositive() {
				return rate, nil
			}
		}
	}

	rate, err := s.oracle.USDPrice(ctx, trimmed)
	if err != nil {
		// one retry before surfacing the failure
		rate, err = s.oracle.USDPrice(ctx, trimmed)
		if err != nil {
			return decimal.Zero, err
		}
	}

	if s.cache != nil {
		if cacheErr := s.cache.Set(ctx, key, rate.String(), s.cacheTTL); cacheErr != nil && s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("caching oracle rate failed: %v", cacheErr))
		}
	}
	return rate, nil
}

// Convert derives the native-token amount for a USD price at the given rate.
// A missing or non-positive rate yields a loading result, never zero.
func Convert(usdAmount, rate decimal.Decimal) Result[decimal.Decimal] {
	if usdAmount.IsNegative() {
		return Errf[decimal.Decimal](pkgerrors.New(pkgerrors.CodeValidation, "usd amount must be non-negative"))
	}
	if !rate.IsPositive() {
		return Loading[decimal.Decimal]()
	}
	return Ready(usdAmount.DivRound(rate, 18))
}

// ConvertLive fetches the live rate and converts in one step.
func (s *Service) ConvertLive(ctx context.Context, usdAmount decimal.Decimal, oracleID string) (Result[decimal.Decimal], error) {
	rate, err := s.Rate(ctx, oracleID)
	if err != nil {
		return Errf[decimal.Decimal](err), err
	}
	return Convert(usdAmount, rate), nil
}

// Afford compares a native price against a wallet balance. The missing
// amount clamps to zero when the balance covers the price.
func Afford(price, balance decimal.Decimal) Affordability {
	missing := price.Sub(balance)
	canAfford := !missing.IsPositive()
	if canAfford {
		missing = decimal.Zero
	}
	return Affordability{
		CanAfford:        canAfford,
		MissingAmount:    missing,
		FormattedPrice:   FormatNative(price),
		FormattedBalance: FormatNative(balance),
		FormattedMissing: FormatNative(missing),
	}
}
