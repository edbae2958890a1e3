package amount

import (
	"math"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dexdash/internal/adapters/store"
	"dexdash/internal/domain/currency"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	ethereum := &currency.Chain{ID: "chain-eth", ChainID: 1, Name: "ethereum", DisplayName: "Ethereum"}
	polygon := &currency.Chain{ID: "chain-polygon", ChainID: 137, Name: "polygon", DisplayName: "Polygon"}

	assets := store.NewAssetStore([]*currency.Asset{
		{ID: "weth-eth", Symbol: "WETH", DisplayName: "WETH", Decimals: 18, Chain: ethereum, PriceUsd: currency.NewUsdAmountFromFloat(2000)},
		{ID: "usdc-eth", Symbol: "USDC", DisplayName: "USDC", Decimals: 6, Chain: ethereum, PriceUsd: currency.NewUsdAmountFromFloat(1)},
		{ID: "usdc-polygon", Symbol: "USDC", DisplayName: "USDC", Decimals: 6, Chain: polygon, PriceUsd: currency.NewUsdAmountFromFloat(1)},
	})

	return NewService(assets, nil)
}

func TestService_CreateUsdAmount(t *testing.T) {
	s := newTestService(t)

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "float dollars", value: 100.0, want: "100.000000000000000000"},
		{name: "int dollars", value: 100, want: "100.000000000000000000"},
		{name: "int64 dollars", value: int64(7), want: "7.000000000000000000"},
		{name: "float32 dollars", value: float32(0.5), want: "0.500000000000000000"},
		{name: "raw string", value: "1500000000000000000", want: "1.500000000000000000"},
		{name: "padded raw string", value: " 42 ", want: "0.000000000000000042"},
		{name: "big int", value: big.NewInt(5), want: "0.000000000000000005"},
		{name: "raw string beyond float range", value: "1" + strings.Repeat("0", 400), want: "1" + strings.Repeat("0", 382) + "." + strings.Repeat("0", 18)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.CreateUsdAmount(tt.value)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.ToExactString())
		})
	}
}

func TestService_CreateUsdAmount_Invalid(t *testing.T) {
	s := newTestService(t)

	tests := []struct {
		name  string
		value any
	}{
		{name: "empty string", value: ""},
		{name: "blank string", value: "   "},
		{name: "not a number", value: "abc"},
		{name: "nan string", value: "NaN"},
		{name: "nan float", value: math.NaN()},
		{name: "positive infinity", value: math.Inf(1)},
		{name: "negative infinity", value: math.Inf(-1)},
		{name: "infinity string", value: "Infinity"},
		{name: "human decimal string", value: "1.5"},
		{name: "nil", value: nil},
		{name: "nil big int", value: (*big.Int)(nil)},
		{name: "unsupported type", value: struct{}{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, s.CreateUsdAmount(tt.value))
		})
	}
}

func TestService_CreateUsdAmount_PassThrough(t *testing.T) {
	s := newTestService(t)

	usd := currency.NewUsdAmountFromFloat(12)
	assert.Same(t, usd, s.CreateUsdAmount(usd))
}

func TestService_CreateAssetAmount(t *testing.T) {
	s := newTestService(t)

	t.Run("by id with price", func(t *testing.T) {
		a, err := s.CreateAssetAmount(1.5, "weth-eth", 2000)
		require.NoError(t, err)
		require.NotNil(t, a)

		assert.Equal(t, "WETH", a.Symbol())
		assert.Equal(t, "1.500000000000000000", a.ToExactString())
		assert.Equal(t, "3000.000000000000000000", a.ToUsd().ToExactString())
	})

	t.Run("by id ignores case", func(t *testing.T) {
		a, err := s.CreateAssetAmount(1, "WETH-ETH")
		require.NoError(t, err)
		assert.Equal(t, "weth-eth", a.Asset().ID)
	})

	t.Run("symbol fallback picks first ranked", func(t *testing.T) {
		a, err := s.CreateAssetAmount("2500000", "usdc")
		require.NoError(t, err)
		assert.Equal(t, "usdc-eth", a.Asset().ID)
		assert.Equal(t, "2.500000", a.ToExactString())
	})

	t.Run("price defaults to zero", func(t *testing.T) {
		a, err := s.CreateAssetAmount(10, "usdc-polygon")
		require.NoError(t, err)
		assert.True(t, a.PriceUsd().IsZero())
		assert.True(t, a.ToUsd().IsZero())
	})

	t.Run("price accepts usd amount", func(t *testing.T) {
		price := currency.NewUsdAmountFromFloat(1)
		a, err := s.CreateAssetAmount(big.NewInt(1_000_000), "usdc-eth", price)
		require.NoError(t, err)
		assert.Same(t, price, a.PriceUsd())
		assert.Equal(t, "1.000000000000000000", a.ToUsd().ToExactString())
	})
}

func TestService_CreateAssetAmount_Failures(t *testing.T) {
	s := newTestService(t)

	t.Run("invalid balance returns nil without error", func(t *testing.T) {
		for _, balance := range []any{"", math.NaN(), math.Inf(1), "1.5", nil} {
			a, err := s.CreateAssetAmount(balance, "weth-eth")
			assert.NoError(t, err)
			assert.Nil(t, a)
		}
	})

	t.Run("unknown asset", func(t *testing.T) {
		a, err := s.CreateAssetAmount(1, "nonexistent-id")
		require.ErrorIs(t, err, ErrInvalidAsset)
		assert.Contains(t, err.Error(), "Invalid asset id or symbol.")
		assert.Nil(t, a)
	})

	t.Run("invalid price", func(t *testing.T) {
		a, err := s.CreateAssetAmount(1, "weth-eth", "")
		require.ErrorIs(t, err, ErrInvalidPrice)
		assert.Contains(t, err.Error(), "Invalid price USD.")
		assert.Nil(t, a)
	})

	t.Run("balance checked before asset and price", func(t *testing.T) {
		for _, balance := range []any{"", "1.5", " 2e3 ", "abc", math.NaN()} {
			a, err := s.CreateAssetAmount(balance, "nonexistent-id", "not a price")
			assert.NoError(t, err, "balance %v", balance)
			assert.Nil(t, a, "balance %v", balance)
		}
	})
}
