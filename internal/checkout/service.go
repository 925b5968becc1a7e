package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mintmotion/mintmotion-backend/internal/cart"
	"github.com/mintmotion/mintmotion-backend/internal/orders"
	"github.com/mintmotion/mintmotion-backend/internal/paymentlog"
	"github.com/mintmotion/mintmotion-backend/internal/pricing"
	"github.com/mintmotion/mintmotion-backend/pkg/chain"
	"github.com/mintmotion/mintmotion-backend/pkg/db/models"
	"github.com/mintmotion/mintmotion-backend/pkg/enums"
	pkgerrors "github.com/mintmotion/mintmotion-backend/pkg/errors"
	"github.com/mintmotion/mintmotion-backend/pkg/logger"
	"github.com/mintmotion/mintmotion-backend/pkg/metrics"
)

type cartManager interface {
	Items(ctx context.Context, userID uuid.UUID) ([]cart.Item, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type rateProvider interface {
	Rate(ctx context.Context, oracleID string) (decimal.Decimal, error)
}

type networkResolver interface {
	ResolveForPayment(ctx context.Context, chainID int64) (*models.BlockchainNetwork, error)
}

type chainReader interface {
	NativeBalance(ctx context.Context, wallet string) (decimal.Decimal, error)
	VerifyTransfer(ctx context.Context, txHash, expectedTo string, minValue decimal.Decimal) (*chain.Transfer, error)
}

type orderCreator interface {
	CreateFromPayment(ctx context.Context, input orders.CreateOrderInput) (*models.Transaction, error)
}

type paymentGuard interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	PaymentGuardKey(txHash string) string
}

type auditLogger interface {
	Append(ctx context.Context, entry paymentlog.Entry)
}

// BeginInput starts a checkout attempt for a connected wallet.
type BeginInput struct {
	UserID        uuid.UUID
	WalletAddress string
	ChainID       int64
}

// Quote is handed to the client so it can broadcast the payment itself.
type Quote struct {
	ReceivingAddress string
	ChainID          int64
	Symbol           string
	TotalUSD         decimal.Decimal
	TotalNative      decimal.Decimal
	FormattedUSD     string
	FormattedNative  string
	ItemCount        int
}

// StateView is the client-facing snapshot of a checkout attempt.
type StateView struct {
	Status          enums.CheckoutStatus
	TxHash          string
	ErrorCode       string
	ErrorMessage    string
	OrderID         uuid.UUID
	FormattedUSD    string
	FormattedNative string
	UpdatedAt       time.Time
}

// Service drives a checkout attempt through its phases. One attempt per
// user is allowed in flight at a time.
type Service struct {
	sessions *SessionStore
	cart     cartManager
	rates    rateProvider
	networks networkResolver
	chain    chainReader
	orders   orderCreator
	guard    paymentGuard
	audit    auditLogger
	metrics  *metrics.CheckoutMetrics
	guardTTL time.Duration
	logg     *logger.Logger
}

// NewService wires the checkout service.
func NewService(
	cartSvc cartManager,
	rates rateProvider,
	networks networkResolver,
	chainClient chainReader,
	ordersSvc orderCreator,
	guard paymentGuard,
	audit auditLogger,
	checkoutMetrics *metrics.CheckoutMetrics,
	guardTTL time.Duration,
	logg *logger.Logger,
) (*Service, error) {
	if cartSvc == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if rates == nil {
		return nil, fmt.Errorf("rate provider required")
	}
	if networks == nil {
		return nil, fmt.Errorf("network resolver required")
	}
	if chainClient == nil {
		return nil, fmt.Errorf("chain client required")
	}
	if ordersSvc == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if guard == nil {
		return nil, fmt.Errorf("payment guard required")
	}
	if audit == nil {
		return nil, fmt.Errorf("audit logger required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if guardTTL <= 0 {
		guardTTL = 720 * time.Hour
	}
	return &Service{
		sessions: NewSessionStore(),
		cart:     cartSvc,
		rates:    rates,
		networks: networks,
		chain:    chainClient,
		orders:   ordersSvc,
		guard:    guard,
		audit:    audit,
		metrics:  checkoutMetrics,
		guardTTL: guardTTL,
		logg:     logg,
	}, nil
}

// Begin snapshots the cart, quotes the native total at the live rate and
// checks the wallet can cover it. User-fixable failures tear the attempt
// down rather than parking it in the error state, so the client can call
// Begin again once the cause is fixed.
func (s *Service) Begin(ctx context.Context, input BeginInput) (*Quote, error) {
	start := time.Now()
	wallet := strings.TrimSpace(input.WalletAddress)
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	if wallet == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet not connected")
	}

	session := &Session{
		UserID:        input.UserID,
		Status:        enums.CheckoutStatusPreparing,
		ChainID:       input.ChainID,
		WalletAddress: wallet,
	}
	if !s.sessions.BeginAttempt(session) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "a checkout is already in progress")
	}

	quote, err := s.prepare(ctx, session)
	if err != nil {
		// A missing network or receiving address is fatal configuration,
		// not something the user can fix by retrying, so it parks the
		// attempt in the error state. Everything else tears the attempt
		// down so Begin can simply be called again.
		if codeOf(err) == pkgerrors.CodeConfiguration {
			s.fail(ctx, input.UserID, err)
			return nil, err
		}
		s.sessions.Clear(input.UserID)
		s.metrics.IncOutcome("aborted", string(codeOf(err)))
		return nil, err
	}

	s.sessions.Update(input.UserID, func(existing *Session) {
		*existing = *session
		existing.Status = enums.CheckoutStatusConfirming
	})
	s.metrics.ObservePhase("preparing", time.Since(start))
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"user_id":      input.UserID.String(),
		"chain_id":     input.ChainID,
		"total_native": quote.FormattedNative,
	})
	s.logg.Info(logCtx, "checkout attempt prepared")
	return quote, nil
}

func (s *Service) prepare(ctx context.Context, session *Session) (*Quote, error) {
	items, err := s.cart.Items(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	network, err := s.networks.ResolveForPayment(ctx, session.ChainID)
	if err != nil {
		return nil, err
	}

	rate, err := s.rates.Rate(ctx, network.OracleID)
	if err != nil {
		return nil, err
	}

	// Each item converts individually at the live rate; the native total is
	// the sum of the per-item conversions.
	totalUSD := decimal.Zero
	totalNative := decimal.Zero
	for _, item := range items {
		totalUSD = totalUSD.Add(item.PriceUSD())
		native := pricing.Convert(item.PriceUSD(), rate)
		if !native.IsReady() {
			if convErr := native.Err(); convErr != nil {
				return nil, convErr
			}
			return nil, pkgerrors.New(pkgerrors.CodeOracle, "native price unavailable")
		}
		totalNative = totalNative.Add(native.Value())
	}

	balance, err := s.chain.NativeBalance(ctx, session.WalletAddress)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeChainFailure, err, "failed to read wallet balance")
	}
	afford := pricing.Afford(totalNative, balance)
	if !afford.CanAfford {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficient, "wallet balance below order total").
			WithDetails(map[string]string{
				"required": afford.FormattedPrice,
				"balance":  afford.FormattedBalance,
				"missing":  afford.FormattedMissing,
			})
	}

	session.Items = items
	session.TotalUSD = totalUSD
	session.TotalNative = totalNative
	session.Rate = rate
	session.ReceivingAddress = network.ReceivingAddress
	session.Network = network

	return &Quote{
		ReceivingAddress: network.ReceivingAddress,
		ChainID:          network.ChainID,
		Symbol:           network.Symbol,
		TotalUSD:         totalUSD,
		TotalNative:      totalNative,
		FormattedUSD:     pricing.FormatUSD(totalUSD),
		FormattedNative:  pricing.FormatNative(totalNative),
		ItemCount:        len(items),
	}, nil
}

// Confirm takes the hash the client broadcast, verifies the transfer on
// chain and persists the order. The per-hash guard claims the hash before
// any chain work so a hash is only ever processed once.
func (s *Service) Confirm(ctx context.Context, userID uuid.UUID, txHash string) (StateView, error) {
	start := time.Now()
	hash := strings.ToLower(strings.TrimSpace(txHash))
	if hash == "" {
		return s.State(userID), pkgerrors.New(pkgerrors.CodeValidation, "transaction hash required")
	}

	session, ok := s.sessions.Get(userID)
	if !ok || session.Status != enums.CheckoutStatusConfirming {
		return s.State(userID), pkgerrors.New(pkgerrors.CodeStateConflict, "no checkout awaiting confirmation")
	}

	guardKey := s.guard.PaymentGuardKey(hash)
	claimed, err := s.guard.SetNX(ctx, guardKey, userID.String(), s.guardTTL)
	if err != nil {
		return s.State(userID), pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to claim transaction hash")
	}
	if !claimed {
		s.metrics.IncDuplicateHash()
		s.audit.Append(ctx, paymentlog.Entry{
			UserID:    &userID,
			TxHash:    &hash,
			EventType: enums.PaymentLogDuplicateHashSkipped,
			Detail:    map[string]any{"chain_id": session.ChainID},
		})
		return s.State(userID), pkgerrors.New(pkgerrors.CodeConflict, "this transaction hash was already submitted")
	}

	s.sessions.Update(userID, func(sess *Session) {
		sess.Status = enums.CheckoutStatusProcessing
		sess.TxHash = hash
	})
	s.metrics.ObservePhase("confirming", time.Since(start))

	return s.process(ctx, userID, hash, session, guardKey)
}

// process runs the on-chain verification and persistence leg.
func (s *Service) process(ctx context.Context, userID uuid.UUID, hash string, session Session, guardKey string) (StateView, error) {
	processStart := time.Now()

	transfer, err := s.chain.VerifyTransfer(ctx, hash, session.ReceivingAddress, session.TotalNative)
	if err != nil {
		// The hash never moved funds, so it may be retried later.
		if delErr := s.guard.Del(ctx, guardKey); delErr != nil {
			s.logg.Warn(s.logg.WithTxHash(ctx, hash), fmt.Sprintf("failed to release payment guard: %v", delErr))
		}
		failure := pkgerrors.Wrap(pkgerrors.CodeChainFailure, err, "transaction did not confirm")
		return s.fail(ctx, userID, failure), failure
	}

	tx, err := s.orders.CreateFromPayment(ctx, orders.CreateOrderInput{
		UserID:        userID,
		Network:       session.Network,
		TxHash:        hash,
		WalletAddress: session.WalletAddress,
		TotalUSD:      session.TotalUSD,
		TotalNative:   session.TotalNative,
		Items:         session.Items,
		ConfirmedAt:   time.Now().UTC(),
	})
	if err != nil {
		// Funds moved on chain but the order did not persist. Keep the
		// guard so the hash cannot be replayed, and leave a trail for
		// manual reconciliation.
		failure := err
		if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeConflict {
			failure = pkgerrors.Wrap(pkgerrors.CodeReconciliation, err, "payment confirmed but order was not saved")
			s.audit.Append(ctx, paymentlog.Entry{
				UserID:    &userID,
				TxHash:    &hash,
				EventType: enums.PaymentLogReconciliationFailed,
				Detail: map[string]any{
					"chain_id":     session.ChainID,
					"total_native": session.TotalNative.String(),
					"from":         transfer.From,
				},
			})
		}
		return s.fail(ctx, userID, failure), failure
	}

	if clearErr := s.cart.Clear(ctx, userID); clearErr != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, userID.String()), fmt.Sprintf("failed to clear cart after checkout: %v", clearErr))
	}

	s.sessions.Update(userID, func(sess *Session) {
		sess.Status = enums.CheckoutStatusSuccess
		sess.OrderID = tx.ID
	})
	s.metrics.ObservePhase("processing", time.Since(processStart))
	s.metrics.IncOutcome("success", "")
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"user_id":        userID.String(),
		"tx_hash":        hash,
		"transaction_id": tx.ID.String(),
	})
	s.logg.Info(logCtx, "checkout completed")
	return s.State(userID), nil
}

// fail parks the session in the error state so the client can surface the
// failure and offer a retry.
func (s *Service) fail(ctx context.Context, userID uuid.UUID, failure error) StateView {
	code := codeOf(failure)
	message := failure.Error()
	if coded := pkgerrors.As(failure); coded != nil {
		message = coded.Message()
	}
	s.sessions.Update(userID, func(sess *Session) {
		sess.Status = enums.CheckoutStatusError
		sess.ErrorCode = string(code)
		sess.ErrorMessage = message
	})
	s.metrics.IncOutcome("error", string(code))
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"user_id": userID.String(),
		"code":    string(code),
	})
	s.logg.Error(logCtx, "checkout attempt failed", failure)
	return s.State(userID)
}

// State reports the current attempt, or idle when none exists.
func (s *Service) State(userID uuid.UUID) StateView {
	session, ok := s.sessions.Get(userID)
	if !ok {
		return StateView{Status: enums.CheckoutStatusIdle}
	}
	view := StateView{
		Status:       session.Status,
		TxHash:       session.TxHash,
		ErrorCode:    session.ErrorCode,
		ErrorMessage: session.ErrorMessage,
		OrderID:      session.OrderID,
		UpdatedAt:    session.UpdatedAt,
	}
	if !session.TotalUSD.IsZero() || len(session.Items) > 0 {
		view.FormattedUSD = pricing.FormatUSD(session.TotalUSD)
		view.FormattedNative = pricing.FormatNative(session.TotalNative)
	}
	return view
}

// Cancel abandons an attempt that has not started processing. A payment
// already in flight cannot be cancelled.
func (s *Service) Cancel(userID uuid.UUID) error {
	session, ok := s.sessions.Get(userID)
	if !ok {
		return nil
	}
	if session.Status == enums.CheckoutStatusProcessing {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "payment is being processed and cannot be cancelled")
	}
	s.sessions.Clear(userID)
	return nil
}

func codeOf(err error) pkgerrors.Code {
	if coded := pkgerrors.As(err); coded != nil {
		return coded.Code()
	}
	return pkgerrors.CodeInternal
}
