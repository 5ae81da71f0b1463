package common

import (
	"math"
	"math/big"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var decimalPattern = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)
var integerPattern = regexp.MustCompile(`^-?[0-9]+$`)

// ToInteger converts a human readable decimal string into its smallest-unit
// integer representation at the given precision. Values that carry more
// significant fractional digits than precision allows are rejected.
func ToInteger(value string, precision int) (string, error) {
	if precision < 0 {
		return "", NewFormatError("negative precision %d", precision)
	}
	if int64(precision) > math.MaxInt32 {
		return "", NewFormatError("precision %d out of range", precision)
	}
	value = strings.TrimSpace(value)
	if !decimalPattern.MatchString(value) {
		return "", NewFormatError("invalid decimal amount %q", value)
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return "", NewFormatError("invalid decimal amount %q: %v", value, err)
	}
	shifted := d.Shift(int32(precision))
	if !shifted.IsInteger() {
		return "", NewFormatError("amount %q has more than %d fractional digits", value, precision)
	}
	return shifted.BigInt().String(), nil
}

// ToDecimalString renders a smallest-unit integer string as a decimal string
// with no trailing fractional zeros.
func ToDecimalString(raw string, precision int) (string, error) {
	if precision < 0 {
		return "", NewFormatError("negative precision %d", precision)
	}
	raw = strings.TrimSpace(raw)
	if !integerPattern.MatchString(raw) {
		return "", NewFormatError("invalid integer amount %q", raw)
	}
	n, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return "", NewFormatError("invalid integer amount %q", raw)
	}
	return FormatUnits(n, precision), nil
}

// FormatUnits is ToDecimalString for callers already holding a big.Int.
func FormatUnits(n *big.Int, precision int) string {
	if n == nil || n.Sign() == 0 {
		return "0"
	}
	if precision <= 0 {
		return n.String()
	}

	sign := ""
	x := new(big.Int).Set(n)
	if x.Sign() < 0 {
		sign = "-"
		x.Abs(x)
	}

	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(precision)), nil)
	intPart, frac := new(big.Int).QuoRem(x, denom, new(big.Int))
	if frac.Sign() == 0 {
		return sign + intPart.String()
	}

	fracStr := frac.Text(10)
	if len(fracStr) < precision {
		fracStr = strings.Repeat("0", precision-len(fracStr)) + fracStr
	}
	fracStr = strings.TrimRight(fracStr, "0")
	return sign + intPart.String() + "." + fracStr
}
