package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mintmotion/mintmotion-backend/api/middleware"
	checkoutsvc "github.com/mintmotion/mintmotion-backend/internal/checkout"
	"github.com/mintmotion/mintmotion-backend/pkg/enums"
	pkgerrors "github.com/mintmotion/mintmotion-backend/pkg/errors"
	"github.com/mintmotion/mintmotion-backend/pkg/types"
)

type stubCheckoutService struct {
	quote      *checkoutsvc.Quote
	beginErr   error
	view       checkoutsvc.StateView
	confirmErr error
	beginInput checkoutsvc.BeginInput
	confirmed  string
}

func (s *stubCheckoutService) Begin(_ context.Context, input checkoutsvc.BeginInput) (*checkoutsvc.Quote, error) {
	s.beginInput = input
	return s.quote, s.beginErr
}

func (s *stubCheckoutService) Confirm(_ context.Context, _ uuid.UUID, txHash string) (checkoutsvc.StateView, error) {
	s.confirmed = txHash
	return s.view, s.confirmErr
}

func (s *stubCheckoutService) State(_ uuid.UUID) checkoutsvc.StateView {
	return s.view
}

func (s *stubCheckoutService) Cancel(_ uuid.UUID) error {
	return nil
}

func authedRequest(method, target, body string, userID uuid.UUID) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithWallet(ctx, "0x1111111111111111111111111111111111111111")
	return req.WithContext(ctx)
}

func TestCheckoutBeginReturnsQuote(t *testing.T) {
	svc := &stubCheckoutService{
		quote: &checkoutsvc.Quote{
			ReceivingAddress: "0x000000000000000000000000000000000000dEaD",
			ChainID:          1,
			Symbol:           "ETH",
			TotalUSD:         decimal.RequireFromString("98"),
			TotalNative:      decimal.RequireFromString("0.0392"),
			FormattedUSD:     "98.00",
			FormattedNative:  "0.0392",
			ItemCount:        2,
		},
	}
	handler := CheckoutBegin(svc, nil)

	userID := uuid.New()
	req := authedRequest(http.MethodPost, "/api/v1/checkout", `{"chainId":1}`, userID)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.beginInput.UserID != userID {
		t.Fatalf("expected user %s forwarded, got %s", userID, svc.beginInput.UserID)
	}
	if svc.beginInput.WalletAddress == "" {
		t.Fatal("expected wallet forwarded from context")
	}

	var envelope struct {
		Data checkoutQuoteResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.FormattedNative != "0.0392" {
		t.Fatalf("unexpected native total %s", envelope.Data.FormattedNative)
	}
}

func TestCheckoutBeginRequiresAuth(t *testing.T) {
	handler := CheckoutBegin(&stubCheckoutService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"chainId":1}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCheckoutBeginInsufficientFunds(t *testing.T) {
	svc := &stubCheckoutService{
		beginErr: pkgerrors.New(pkgerrors.CodeInsufficient, "wallet balance below order total").
			WithDetails(map[string]string{"missing": "0.0200"}),
	}
	handler := CheckoutBegin(svc, nil)

	req := authedRequest(http.MethodPost, "/api/v1/checkout", `{"chainId":1}`, uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeInsufficient) {
		t.Fatalf("unexpected code %s", envelope.Error.Code)
	}
	if envelope.Error.Details == nil {
		t.Fatal("expected missing amount details")
	}
}

func TestCheckoutConfirmReturnsTerminalState(t *testing.T) {
	orderID := uuid.New()
	svc := &stubCheckoutService{
		view: checkoutsvc.StateView{
			Status:  enums.CheckoutStatusSuccess,
			TxHash:  "0xabc",
			OrderID: orderID,
		},
	}
	handler := CheckoutConfirm(svc, nil)

	req := authedRequest(http.MethodPost, "/api/v1/checkout/confirm", `{"txHash":"0xABC"}`, uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.confirmed != "0xABC" {
		t.Fatalf("expected raw hash forwarded, got %q", svc.confirmed)
	}

	var envelope struct {
		Data checkoutStateResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != "success" {
		t.Fatalf("unexpected status %s", envelope.Data.Status)
	}
	if envelope.Data.OrderID == nil || *envelope.Data.OrderID != orderID.String() {
		t.Fatalf("expected order id in response, got %v", envelope.Data.OrderID)
	}
}

func TestCheckoutConfirmRejectsEmptyHash(t *testing.T) {
	handler := CheckoutConfirm(&stubCheckoutService{}, nil)

	req := authedRequest(http.MethodPost, "/api/v1/checkout/confirm", `{}`, uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckoutStateDefaultsToIdle(t *testing.T) {
	svc := &stubCheckoutService{view: checkoutsvc.StateView{Status: enums.CheckoutStatusIdle}}
	handler := CheckoutState(svc, nil)

	req := authedRequest(http.MethodGet, "/api/v1/checkout", "", uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data checkoutStateResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != "idle" {
		t.Fatalf("unexpected status %s", envelope.Data.Status)
	}
}
