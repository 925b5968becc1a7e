package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/mintmotion/mintmotion-backend/pkg/errors"
	"github.com/mintmotion/mintmotion-backend/pkg/types"
)

type fakeRateStore struct {
	mtx    sync.Mutex
	counts map[string]int64
}

func newFakeRateStore() *fakeRateStore {
	return &fakeRateStore{counts: make(map[string]int64)}
}

func (f *fakeRateStore) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.counts[key]++
	return f.counts[key], nil
}

func TestRateLimitAllowsUnderLimit(t *testing.T) {
	store := newFakeRateStore()
	policy := NewRateLimitPolicy("quote", time.Minute, 2)
	handler := RateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pricing/quote", nil)
	req.RemoteAddr = "1.2.3.4:5678"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRateLimitBlocksOverLimit(t *testing.T) {
	store := newFakeRateStore()
	policy := NewRateLimitPolicy("quote", time.Minute, 2)
	handler := RateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/pricing/quote", nil)
		req.RemoteAddr = "1.2.3.4:5678"
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", last.Code)
	}
	var body types.ErrorEnvelope
	if err := json.NewDecoder(last.Body).Decode(&body); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeRateLimit) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
}

func TestRateLimitDisabledPassesThrough(t *testing.T) {
	policy := NewRateLimitPolicy("quote", 0, 0)
	handler := RateLimit(policy, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/pricing/quote", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	}
}
