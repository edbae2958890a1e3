package amount

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"dexdash/internal/adapters/logger"
	"dexdash/internal/domain/currency"
)

var (
	ErrInvalidAsset = errors.New("Invalid asset id or symbol.")
	ErrInvalidPrice = errors.New("Invalid price USD.")
)

// AssetLookup resolves assets by id or symbol.
// Implemented by store.AssetStore.
type AssetLookup interface {
	GetByID(id string) (*currency.Asset, bool)
	FindBySymbol(symbol string) (*currency.Asset, bool)
}

// Service builds validated amounts from raw user or API input.
// It is bound to one asset lookup for its lifetime.
type Service struct {
	assets AssetLookup
	logger *logger.Logger
}

// NewService creates an amount service. A nil logger disables logging.
func NewService(assets AssetLookup, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Service{
		assets: assets,
		logger: log.Named("amount"),
	}
}

// CreateUsdAmount builds a UsdAmount from value. Floats are whole dollars,
// strings and *big.Int are raw 18-decimal magnitudes, and a *UsdAmount is
// returned as is. Returns nil when value is not a usable number.
func (s *Service) CreateUsdAmount(value any) *currency.UsdAmount {
	if usd, ok := value.(*currency.UsdAmount); ok && usd != nil {
		return usd
	}

	if !numberIsValid(value) {
		s.logger.Debug("rejected usd amount", zap.Any("value", value))
		return nil
	}

	switch v := value.(type) {
	case string:
		usd, err := currency.NewUsdAmountFromString(v)
		if err != nil {
			s.logger.Debug("rejected usd amount", zap.String("value", v), zap.Error(err))
			return nil
		}
		return usd
	case *big.Int:
		return currency.NewUsdAmount(v)
	default:
		f, _ := toFloat(v)
		return currency.NewUsdAmountFromFloat(f)
	}
}

// CreateAssetAmount builds an AssetAmount of the asset identified by
// assetIDOrSymbol, trying the id first and then the symbol. The optional
// priceUsd accepts the same inputs as CreateUsdAmount and defaults to zero.
//
// An unusable balance yields (nil, nil). An unknown asset or an invalid price
// yields ErrInvalidAsset or ErrInvalidPrice.
func (s *Service) CreateAssetAmount(balance any, assetIDOrSymbol string, priceUsd ...any) (*currency.AssetAmount, error) {
	if !numberIsValid(balance) || !isRawBalance(balance) {
		s.logger.Debug("rejected asset balance", zap.Any("balance", balance), zap.String("asset", assetIDOrSymbol))
		return nil, nil
	}

	asset, ok := s.assets.GetByID(assetIDOrSymbol)
	if !ok {
		asset, ok = s.assets.FindBySymbol(assetIDOrSymbol)
	}
	if !ok {
		return nil, fmt.Errorf("%w: asset=%s", ErrInvalidAsset, assetIDOrSymbol)
	}

	var rawPrice any = 0
	if len(priceUsd) > 0 && priceUsd[0] != nil {
		rawPrice = priceUsd[0]
	}

	price := s.CreateUsdAmount(rawPrice)
	if price == nil {
		return nil, fmt.Errorf("%w: asset=%s price=%v", ErrInvalidPrice, asset.ID, rawPrice)
	}

	switch v := balance.(type) {
	case string:
		a, err := currency.NewAssetAmountFromString(v, asset, price)
		if err != nil {
			s.logger.Debug("rejected asset balance", zap.String("balance", v), zap.String("asset", asset.ID), zap.Error(err))
			return nil, nil
		}
		return a, nil
	case *big.Int:
		return currency.NewAssetAmount(v, asset, price), nil
	default:
		f, _ := toFloat(v)
		return currency.NewAssetAmountFromFloat(f, asset, price), nil
	}
}

// numberIsValid rejects empty strings, NaN and infinities, plus anything that
// is not a supported numeric type.
func numberIsValid(value any) bool {
	switch v := value.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return false
		}
		return isFinite(f) || errors.Is(err, strconv.ErrRange) && isIntegerLiteral(s)
	case *big.Int:
		return v != nil
	default:
		f, ok := toFloat(v)
		return ok && isFinite(f)
	}
}

// isRawBalance reports whether a string balance is an integer count of
// smallest units. Non-string balances are always accepted.
func isRawBalance(value any) bool {
	v, ok := value.(string)
	return !ok || isIntegerLiteral(strings.TrimSpace(v))
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// isIntegerLiteral reports whether s is an optionally signed run of digits.
// Raw magnitudes beyond float64 range are still valid integers.
func isIntegerLiteral(s string) bool {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
