package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type stubOracle struct {
	prices []decimal.Decimal
	errs   []error
	calls  int
}

func (s *stubOracle) USDPrice(ctx context.Context, oracleID string) (decimal.Decimal, error) {
	idx := s.calls
	s.calls++
	var err error
	if idx < len(s.errs) {
		err = s.errs[idx]
	}
	var price decimal.Decimal
	if idx < len(s.prices) {
		price = s.prices[idx]
	}
	return price, err
}

type stubCache struct {
	data map[string]string
}

func newStubCache() *stubCache {
	return &stubCache{data: make(map[string]string)}
}

func (s *stubCache) Get(ctx context.Context, key string) (string, error) {
	v, ok := s.data[key]
	if !ok {
		return "", errors.New("miss")
	}
	return v, nil
}

func (s *stubCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	s.data[key] = value.(string)
	return nil
}

func (s *stubCache) RateCacheKey(oracleID string) string {
	return "mm:oracle:rate:" + oracleID
}

func TestConvert(t *testing.T) {
	usd := decimal.RequireFromString("129")
	rate := decimal.RequireFromString("3000")

	result := Convert(usd, rate)
	if !result.IsReady() {
		t.Fatalf("expected ready result")
	}
	native := result.Value()
	if native.String() != "0.043" {
		t.Fatalf("expected 0.043, got %s", native)
	}
}

func TestConvert_MissingRateIsLoadingNotZero(t *testing.T) {
	usd := decimal.RequireFromString("129")

	result := Convert(usd, decimal.Zero)
	if !result.IsLoading() {
		t.Fatalf("expected loading result for zero rate")
	}
	if !result.Value().IsZero() {
		t.Fatalf("value must not be readable while loading")
	}

	result = Convert(usd, decimal.RequireFromString("-1"))
	if !result.IsLoading() {
		t.Fatalf("expected loading result for negative rate")
	}
}

func TestFormatNative(t *testing.T) {
	cases := []struct {
		name  string
		value string
		want  string
	}{
		{name: "normal amount uses 4 decimals", value: "0.05", want: "0.0500"},
		{name: "threshold uses 4 decimals", value: "0.0001", want: "0.0001"},
		{name: "large amount", value: "12.345678", want: "12.3457"},
		{name: "small amount uses 3 sig digits", value: "0.000012345", want: "0.0000123"},
		{name: "tiny amount never shows as zero", value: "0.00005", want: "0.0000500"},
		{name: "zero", value: "0", want: "0.0000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FormatNative(decimal.RequireFromString(tc.value))
			if got != tc.want {
				t.Fatalf("expected %q got %q", tc.want, got)
			}
		})
	}
}

func TestAfford(t *testing.T) {
	price := decimal.RequireFromString("0.05")

	covered := Afford(price, decimal.RequireFromString("0.06"))
	if !covered.CanAfford {
		t.Fatalf("expected balance to cover the price")
	}
	if !covered.MissingAmount.IsZero() {
		t.Fatalf("missing amount must clamp to zero, got %s", covered.MissingAmount)
	}

	short := Afford(price, decimal.RequireFromString("0.03"))
	if short.CanAfford {
		t.Fatalf("expected shortfall")
	}
	if short.MissingAmount.String() != "0.02" {
		t.Fatalf("expected shortfall 0.02, got %s", short.MissingAmount)
	}
	if short.FormattedMissing != "0.0200" {
		t.Fatalf("unexpected formatted shortfall %q", short.FormattedMissing)
	}

	exact := Afford(price, price)
	if !exact.CanAfford {
		t.Fatalf("exact balance should afford the price")
	}
}

func TestRate_CachesAndRetries(t *testing.T) {
	ctx := context.Background()

	// first call fails, retry succeeds
	oracle := &stubOracle{
		prices: []decimal.Decimal{{}, decimal.RequireFromString("3000")},
		errs:   []error{errors.New("transient"), nil},
	}
	cache := newStubCache()
	svc, err := NewService(oracle, cache, time.Minute, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	rate, err := svc.Rate(ctx, "ethereum")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate.String() != "3000" {
		t.Fatalf("unexpected rate %s", rate)
	}
	if oracle.calls != 2 {
		t.Fatalf("expected one retry, got %d calls", oracle.calls)
	}

	// second read hits the cache, not the oracle
	rate, err = svc.Rate(ctx, "ethereum")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate.String() != "3000" {
		t.Fatalf("unexpected cached rate %s", rate)
	}
	if oracle.calls != 2 {
		t.Fatalf("cache should have served the second read")
	}
}

func TestRate_BothAttemptsFail(t *testing.T) {
	oracle := &stubOracle{errs: []error{errors.New("down"), errors.New("down")}}
	svc, err := NewService(oracle, nil, time.Minute, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if _, err := svc.Rate(context.Background(), "ethereum"); err == nil {
		t.Fatalf("expected error when both attempts fail")
	}
	if oracle.calls != 2 {
		t.Fatalf("expected exactly 2 attempts, got %d", oracle.calls)
	}
}

func TestResultMap(t *testing.T) {
	ready := Ready(decimal.RequireFromString("2"))
	doubled := Map(ready, func(d decimal.Decimal) string { return d.Mul(decimal.RequireFromString("2")).String() })
	if !doubled.IsReady() || doubled.Value() != "4" {
		t.Fatalf("unexpected mapped value %q", doubled.Value())
	}

	loading := Loading[decimal.Decimal]()
	mapped := Map(loading, func(d decimal.Decimal) string { return d.String() })
	if !mapped.IsLoading() {
		t.Fatalf("loading state must pass through Map")
	}
}
