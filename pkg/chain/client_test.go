package chain

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

func TestFromWei(t *testing.T) {
	cases := []struct {
		name string
		wei  *big.Int
		want string
	}{
		{name: "one ether", wei: big.NewInt(1e18), want: "1"},
		{name: "fraction", wei: big.NewInt(1.5e18), want: "1.5"},
		{name: "single wei", wei: big.NewInt(1), want: "0.000000000000000001"},
		{name: "nil", wei: nil, want: "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FromWei(tc.wei)
			if got.String() != tc.want {
				t.Fatalf("expected %s got %s", tc.want, got)
			}
		})
	}
}

func TestToWei(t *testing.T) {
	value := decimal.RequireFromString("1.5")
	if got := ToWei(value); got.Cmp(big.NewInt(1.5e18)) != 0 {
		t.Fatalf("expected 1.5e18 got %s", got)
	}

	// sub-wei dust truncates rather than rounding up
	dust := decimal.RequireFromString("0.0000000000000000015")
	if got := ToWei(dust); got.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("expected truncation to 1 wei, got %s", got)
	}
}

func TestRoundTripWei(t *testing.T) {
	original := decimal.RequireFromString("0.004217")
	back := FromWei(ToWei(original))
	if !back.Equal(original) {
		t.Fatalf("round trip changed value: %s vs %s", original, back)
	}
}
