package currency

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// ErrInvalidLiteral is returned when a raw magnitude string is not a base-10 integer.
var ErrInvalidLiteral = errors.New("invalid fixed-point literal")

var ten = big.NewInt(10)

// pow10 returns a fresh 10^exp.
func pow10(exp int) *big.Int {
	if exp <= 0 {
		return big.NewInt(1)
	}
	return new(big.Int).Exp(ten, big.NewInt(int64(exp)), nil)
}

// floorScaled computes floor(value * 10^decimals) in float64 before converting
// the result to an integer, so the float path rounds exactly like a JS number.
// Non-finite input yields zero; callers are expected to filter it.
func floorScaled(value float64, decimals int) *big.Int {
	scaled := math.Floor(value * math.Pow10(decimals))
	if math.IsNaN(scaled) || math.IsInf(scaled, 0) {
		return new(big.Int)
	}
	n, _ := big.NewFloat(scaled).Int(nil)
	return n
}

// parseRaw parses a raw integer magnitude. The string is already expressed in
// the smallest unit, "1.5" is rejected rather than rescaled.
func parseRaw(s string) (*big.Int, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return new(big.Int), nil
	}
	n, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLiteral, s)
	}
	return n, nil
}

// exactString renders n with exactly decimals fractional digits.
func exactString(n *big.Int, decimals int) string {
	if decimals <= 0 {
		return n.String()
	}

	digits := new(big.Int).Abs(n).String()
	if len(digits) <= decimals {
		digits = strings.Repeat("0", decimals-len(digits)+1) + digits
	}

	split := len(digits) - decimals
	out := digits[:split] + "." + digits[split:]
	if n.Sign() < 0 {
		out = "-" + out
	}
	return out
}

// exactNumber parses the exact string back into a float64. Out of range
// magnitudes come back as ±Inf, which ParseFloat reports alongside the error.
func exactNumber(n *big.Int, decimals int) float64 {
	f, _ := strconv.ParseFloat(exactString(n, decimals), 64)
	return f
}

func copyInt(n *big.Int) *big.Int {
	if n == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(n)
}
