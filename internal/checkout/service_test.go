package checkout

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/mintmotion/mintmotion-backend/internal/cart"
	"github.com/mintmotion/mintmotion-backend/internal/orders"
	"github.com/mintmotion/mintmotion-backend/internal/paymentlog"
	"github.com/mintmotion/mintmotion-backend/pkg/chain"
	"github.com/mintmotion/mintmotion-backend/pkg/db/models"
	"github.com/mintmotion/mintmotion-backend/pkg/enums"
	pkgerrors "github.com/mintmotion/mintmotion-backend/pkg/errors"
	"github.com/mintmotion/mintmotion-backend/pkg/logger"
	"github.com/mintmotion/mintmotion-backend/pkg/metrics"
)

type stubCart struct {
	items    []cart.Item
	itemsErr error
	cleared  int
}

func (s *stubCart) Items(_ context.Context, _ uuid.UUID) ([]cart.Item, error) {
	return s.items, s.itemsErr
}

func (s *stubCart) Clear(_ context.Context, _ uuid.UUID) error {
	s.cleared++
	return nil
}

type stubRates struct {
	rate decimal.Decimal
	err  error
}

func (s *stubRates) Rate(_ context.Context, _ string) (decimal.Decimal, error) {
	return s.rate, s.err
}

type stubNetworks struct {
	network *models.BlockchainNetwork
	err     error
}

func (s *stubNetworks) ResolveForPayment(_ context.Context, _ int64) (*models.BlockchainNetwork, error) {
	return s.network, s.err
}

type stubChain struct {
	balance     decimal.Decimal
	balanceErr  error
	transfer    *chain.Transfer
	verifyErr   error
	verifyCalls int
}

func (s *stubChain) NativeBalance(_ context.Context, _ string) (decimal.Decimal, error) {
	return s.balance, s.balanceErr
}

func (s *stubChain) VerifyTransfer(_ context.Context, txHash, _ string, _ decimal.Decimal) (*chain.Transfer, error) {
	s.verifyCalls++
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	if s.transfer != nil {
		return s.transfer, nil
	}
	return &chain.Transfer{TxHash: txHash, From: "0xsender"}, nil
}

type stubOrders struct {
	tx     *models.Transaction
	err    error
	inputs []orders.CreateOrderInput
}

func (s *stubOrders) CreateFromPayment(_ context.Context, input orders.CreateOrderInput) (*models.Transaction, error) {
	s.inputs = append(s.inputs, input)
	if s.err != nil {
		return nil, s.err
	}
	if s.tx != nil {
		return s.tx, nil
	}
	return &models.Transaction{ID: uuid.New(), TxHash: input.TxHash}, nil
}

type stubGuard struct {
	held map[string]string
}

func (s *stubGuard) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if s.held == nil {
		s.held = make(map[string]string)
	}
	if _, ok := s.held[key]; ok {
		return false, nil
	}
	s.held[key] = value.(string)
	return true, nil
}

func (s *stubGuard) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.held, key)
	}
	return nil
}

func (s *stubGuard) PaymentGuardKey(txHash string) string {
	return "mm:payment:hash:" + strings.ToLower(txHash)
}

type stubAudit struct {
	entries []paymentlog.Entry
}

func (s *stubAudit) Append(_ context.Context, entry paymentlog.Entry) {
	s.entries = append(s.entries, entry)
}

type checkoutFixture struct {
	svc      *Service
	cart     *stubCart
	rates    *stubRates
	networks *stubNetworks
	chain    *stubChain
	orders   *stubOrders
	guard    *stubGuard
	audit    *stubAudit
}

func testItem(priceUSD string) cart.Item {
	return cart.Item{
		ID: uuid.New(),
		Template: cart.TemplateSnapshot{
			ID:       uuid.New(),
			Name:     "token launch teaser",
			PriceUSD: priceUSD,
		},
		Project: cart.ProjectSnapshot{
			ID:   uuid.New(),
			Name: "moonbase",
		},
		BackgroundColor: "#101828",
		AddedAt:         time.Now().UTC(),
	}
}

func newFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	f := &checkoutFixture{
		cart: &stubCart{items: []cart.Item{testItem("49"), testItem("49")}},
		rates: &stubRates{
			rate: decimal.RequireFromString("2500"),
		},
		networks: &stubNetworks{
			network: &models.BlockchainNetwork{
				ID:               uuid.New(),
				ChainID:          1,
				Name:             "Ethereum",
				Symbol:           "ETH",
				OracleID:         "ethereum",
				ReceivingAddress: "0x000000000000000000000000000000000000dEaD",
				Active:           true,
			},
		},
		chain:  &stubChain{balance: decimal.RequireFromString("1")},
		orders: &stubOrders{},
		guard:  &stubGuard{},
		audit:  &stubAudit{},
	}
	logg := logger.New(logger.Options{ServiceName: "checkout-test", Output: io.Discard})
	svc, err := NewService(
		f.cart, f.rates, f.networks, f.chain, f.orders, f.guard, f.audit,
		metrics.NewCheckoutMetrics(prometheus.NewRegistry()),
		time.Hour, logg,
	)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	f.svc = svc
	return f
}

func mustBegin(t *testing.T, f *checkoutFixture, userID uuid.UUID) *Quote {
	t.Helper()
	quote, err := f.svc.Begin(context.Background(), BeginInput{
		UserID:        userID,
		WalletAddress: "0x1111111111111111111111111111111111111111",
		ChainID:       1,
	})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	return quote
}

func TestCheckoutHappyPath(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()

	quote := mustBegin(t, f, userID)
	if quote.FormattedNative != "0.0392" {
		t.Fatalf("expected native total 0.0392, got %s", quote.FormattedNative)
	}
	if quote.FormattedUSD != "98.00" {
		t.Fatalf("expected usd total 98.00, got %s", quote.FormattedUSD)
	}
	if quote.ReceivingAddress != f.networks.network.ReceivingAddress {
		t.Fatalf("unexpected receiving address %s", quote.ReceivingAddress)
	}
	if got := f.svc.State(userID).Status; got != enums.CheckoutStatusConfirming {
		t.Fatalf("expected confirming after begin, got %s", got)
	}

	view, err := f.svc.Confirm(context.Background(), userID, "0xABCDEF")
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if view.Status != enums.CheckoutStatusSuccess {
		t.Fatalf("expected success, got %s", view.Status)
	}
	if view.TxHash != "0xabcdef" {
		t.Fatalf("expected normalized hash, got %s", view.TxHash)
	}
	if view.OrderID == uuid.Nil {
		t.Fatal("expected order id on success")
	}
	if len(f.orders.inputs) != 1 {
		t.Fatalf("expected one order create, got %d", len(f.orders.inputs))
	}
	input := f.orders.inputs[0]
	if !input.TotalUSD.Equal(decimal.RequireFromString("98")) {
		t.Fatalf("unexpected order total %s", input.TotalUSD)
	}
	if len(input.Items) != 2 {
		t.Fatalf("expected snapshot of 2 items, got %d", len(input.Items))
	}
	if f.cart.cleared != 1 {
		t.Fatalf("expected cart cleared once, got %d", f.cart.cleared)
	}
}

func TestBeginAborts(t *testing.T) {
	t.Run("empty cart", func(t *testing.T) {
		f := newFixture(t)
		f.cart.items = nil
		_, err := f.svc.Begin(context.Background(), BeginInput{
			UserID:        uuid.New(),
			WalletAddress: "0x1111111111111111111111111111111111111111",
			ChainID:       1,
		})
		assertCode(t, err, pkgerrors.CodeValidation)
	})

	t.Run("missing wallet", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Begin(context.Background(), BeginInput{UserID: uuid.New(), ChainID: 1})
		assertCode(t, err, pkgerrors.CodeValidation)
	})

	t.Run("oracle unavailable blocks submission", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		f.rates.err = pkgerrors.New(pkgerrors.CodeOracle, "oracle request failed")
		_, err := f.svc.Begin(context.Background(), BeginInput{
			UserID:        userID,
			WalletAddress: "0x1111111111111111111111111111111111111111",
			ChainID:       1,
		})
		assertCode(t, err, pkgerrors.CodeOracle)
		if got := f.svc.State(userID).Status; got != enums.CheckoutStatusIdle {
			t.Fatalf("aborted attempt should leave no session, got %s", got)
		}
	})

	t.Run("insufficient funds", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		f.chain.balance = decimal.RequireFromString("0.01")
		_, err := f.svc.Begin(context.Background(), BeginInput{
			UserID:        userID,
			WalletAddress: "0x1111111111111111111111111111111111111111",
			ChainID:       1,
		})
		assertCode(t, err, pkgerrors.CodeInsufficient)
		if got := f.svc.State(userID).Status; got != enums.CheckoutStatusIdle {
			t.Fatalf("aborted attempt should leave no session, got %s", got)
		}
	})

	t.Run("unconfigured network parks the attempt in error", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		f.networks.network = nil
		f.networks.err = pkgerrors.New(pkgerrors.CodeConfiguration, "no receiving address configured for this network")
		_, err := f.svc.Begin(context.Background(), BeginInput{
			UserID:        userID,
			WalletAddress: "0x1111111111111111111111111111111111111111",
			ChainID:       999,
		})
		assertCode(t, err, pkgerrors.CodeConfiguration)
		state := f.svc.State(userID)
		if state.Status != enums.CheckoutStatusError {
			t.Fatalf("configuration failure should surface as error, got %s", state.Status)
		}
		if state.ErrorCode != string(pkgerrors.CodeConfiguration) {
			t.Fatalf("unexpected error code %s", state.ErrorCode)
		}

		// Fixing the configuration lets a fresh Begin replace the errored attempt.
		f.networks.network = newFixture(t).networks.network
		f.networks.err = nil
		mustBegin(t, f, userID)
	})

	t.Run("attempt already in flight", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		mustBegin(t, f, userID)
		_, err := f.svc.Begin(context.Background(), BeginInput{
			UserID:        userID,
			WalletAddress: "0x1111111111111111111111111111111111111111",
			ChainID:       1,
		})
		assertCode(t, err, pkgerrors.CodeStateConflict)
	})
}

func TestConfirmRequiresPreparedAttempt(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()

	_, err := f.svc.Confirm(context.Background(), userID, "0xabc")
	assertCode(t, err, pkgerrors.CodeStateConflict)
	if f.chain.verifyCalls != 0 {
		t.Fatal("no chain work expected without a prepared attempt")
	}

	mustBegin(t, f, userID)
	_, err = f.svc.Confirm(context.Background(), userID, "   ")
	assertCode(t, err, pkgerrors.CodeValidation)
	if got := f.svc.State(userID).Status; got != enums.CheckoutStatusConfirming {
		t.Fatalf("empty hash must not advance the attempt, got %s", got)
	}
}

func TestConfirmChainFailureReleasesHash(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	mustBegin(t, f, userID)

	f.chain.verifyErr = errors.New("transaction reverted")
	view, err := f.svc.Confirm(context.Background(), userID, "0xdead01")
	assertCode(t, err, pkgerrors.CodeChainFailure)
	if view.Status != enums.CheckoutStatusError {
		t.Fatalf("expected error state, got %s", view.Status)
	}
	if view.ErrorCode != string(pkgerrors.CodeChainFailure) {
		t.Fatalf("expected chain failure code on session, got %s", view.ErrorCode)
	}
	if len(f.guard.held) != 0 {
		t.Fatalf("hash guard should be released after a chain failure, still holding %v", f.guard.held)
	}
	if len(f.orders.inputs) != 0 {
		t.Fatal("no order must be created when the transfer did not confirm")
	}

	// The same hash is usable again once the chain failure is resolved.
	f.chain.verifyErr = nil
	mustBegin(t, f, userID)
	retried, err := f.svc.Confirm(context.Background(), userID, "0xdead01")
	if err != nil {
		t.Fatalf("retry Confirm: %v", err)
	}
	if retried.Status != enums.CheckoutStatusSuccess {
		t.Fatalf("expected success on retry, got %s", retried.Status)
	}
}

func TestConfirmReconciliationKeepsHashClaimed(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	mustBegin(t, f, userID)

	f.orders.err = errors.New("connection reset")
	view, err := f.svc.Confirm(context.Background(), userID, "0xdead02")
	assertCode(t, err, pkgerrors.CodeReconciliation)
	if view.Status != enums.CheckoutStatusError {
		t.Fatalf("expected error state, got %s", view.Status)
	}
	if len(f.guard.held) != 1 {
		t.Fatalf("hash guard must stay claimed after funds moved, holding %v", f.guard.held)
	}
	if !hasAuditEvent(f.audit, enums.PaymentLogReconciliationFailed) {
		t.Fatal("expected a reconciliation audit entry")
	}
	if f.cart.cleared != 0 {
		t.Fatal("cart must survive a failed persistence")
	}

	// A retry must use a fresh hash: resubmitting the claimed one is refused
	// before any chain or database work.
	f.orders.err = nil
	mustBegin(t, f, userID)
	_, err = f.svc.Confirm(context.Background(), userID, "0xDEAD02")
	assertCode(t, err, pkgerrors.CodeConflict)
	if f.chain.verifyCalls != 1 {
		t.Fatalf("duplicate hash must short-circuit before chain verification, got %d calls", f.chain.verifyCalls)
	}
	if len(f.orders.inputs) != 1 {
		t.Fatalf("duplicate hash must not create another order, got %d", len(f.orders.inputs))
	}
	if !hasAuditEvent(f.audit, enums.PaymentLogDuplicateHashSkipped) {
		t.Fatal("expected a duplicate hash audit entry")
	}

	// The new attempt stays open for a distinct hash.
	retried, err := f.svc.Confirm(context.Background(), userID, "0xdead03")
	if err != nil {
		t.Fatalf("Confirm with fresh hash: %v", err)
	}
	if retried.Status != enums.CheckoutStatusSuccess {
		t.Fatalf("expected success with fresh hash, got %s", retried.Status)
	}
	if f.orders.inputs[1].TxHash == f.orders.inputs[0].TxHash {
		t.Fatal("retried attempt must not reuse the previous hash")
	}
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()

	if err := f.svc.Cancel(userID); err != nil {
		t.Fatalf("cancelling without a session: %v", err)
	}

	mustBegin(t, f, userID)
	if err := f.svc.Cancel(userID); err != nil {
		t.Fatalf("cancelling a pending attempt: %v", err)
	}
	if got := f.svc.State(userID).Status; got != enums.CheckoutStatusIdle {
		t.Fatalf("expected idle after cancel, got %s", got)
	}
}

func TestStateDuringBeginSeesConsistentSession(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()

	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				view := f.svc.State(userID)
				if view.Status == enums.CheckoutStatusConfirming && view.FormattedNative == "" {
					t.Errorf("confirming attempt published without its prepared totals")
					return
				}
			}
		}()
	}

	for i := 0; i < 25; i++ {
		mustBegin(t, f, userID)
		if err := f.svc.Cancel(userID); err != nil {
			t.Fatalf("Cancel: %v", err)
		}
	}
	close(done)
	wg.Wait()
}

func assertCode(t *testing.T, err error, want pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	coded := pkgerrors.As(err)
	if coded == nil {
		t.Fatalf("expected coded error, got %v", err)
	}
	if coded.Code() != want {
		t.Fatalf("expected code %s, got %s: %v", want, coded.Code(), err)
	}
}

func hasAuditEvent(audit *stubAudit, eventType enums.PaymentLogEventType) bool {
	for _, entry := range audit.entries {
		if entry.EventType == eventType {
			return true
		}
	}
	return false
}
