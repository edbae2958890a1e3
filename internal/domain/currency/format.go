package currency

import (
	"math"
	"slices"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.English)

// siPrefixes lists the prefixes humanize.ComputeSI yields from 1e3 upwards,
// alongside the money-style suffixes shown to users. Anything past "T" is
// shown in trillions.
var (
	siPrefixes    = []string{"k", "M", "G", "T", "P", "E", "Z", "Y"}
	abbreviations = []string{"k", "m", "b", "t"}
)

// abbreviate scales abs (at least 1000) to its suffix. The suffix is chosen
// after rounding to decimals, so 999999.5 becomes 1.00m and not 1,000.00k.
func abbreviate(abs float64, decimals int) (float64, string) {
	scaled, prefix := humanize.ComputeSI(abs)
	idx := slices.Index(siPrefixes, prefix)
	if idx < 0 {
		return abs, ""
	}

	last := len(abbreviations) - 1
	if idx > last {
		scaled *= math.Pow(1000, float64(idx-last))
		idx = last
	}

	unit := math.Pow(10, float64(decimals))
	if idx < last && math.Round(scaled*unit)/unit >= 1000 {
		scaled /= 1000
		idx++
	}

	return scaled, abbreviations[idx]
}

// FormatCurrency renders value with grouping and a fixed number of fraction
// digits. USD is printed with a leading "$", every other symbol trails the
// number. An empty symbol prints the bare number.
func FormatCurrency(value float64, symbol string, decimals int, abbrev bool) string {
	if math.IsNaN(value) {
		return "NaN"
	}

	negative := value < 0
	abs := math.Abs(value)

	suffix := ""
	if abbrev && abs >= 1000 && !math.IsInf(abs, 0) {
		abs, suffix = abbreviate(abs, decimals)
	}

	body := printer.Sprint(number.Decimal(abs,
		number.MinFractionDigits(decimals),
		number.MaxFractionDigits(decimals),
	)) + suffix

	switch symbol {
	case "":
	case UsdSymbol:
		body = "$" + body
	default:
		body = body + " " + symbol
	}

	if negative {
		return "-" + body
	}
	return body
}
