// Package eth provides Ethereum-specific helpers: ERC-20 contract
// access and decimal amount conversion.
package eth

import (
	"math/big"
	"strings"

	walleterr "github.com/ethervault/ethervault/pkg/errors"
)

// NativeDecimals is the decimal count of the native asset (wei per ether).
const NativeDecimals = 18

// ParseUnits converts a decimal string like "1.5" into the smallest
// unit for the given decimal count. All arithmetic is integral; floats
// never touch monetary values.
func ParseUnits(s string, decimals int) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, invalidAmount(s, "empty amount")
	}
	if strings.HasPrefix(s, "-") {
		return nil, invalidAmount(s, "amount must not be negative")
	}
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > decimals {
		return nil, invalidAmount(s, "too many decimal places")
	}
	// Right-pad the fraction to the full decimal width.
	frac += strings.Repeat("0", decimals-len(frac))

	combined := whole + frac
	for _, r := range combined {
		if r < '0' || r > '9' {
			return nil, invalidAmount(s, "not a decimal number")
		}
	}

	n, ok := new(big.Int).SetString(combined, 10)
	if !ok {
		return nil, invalidAmount(s, "not a decimal number")
	}
	return n, nil
}

// FormatUnits renders a smallest-unit quantity as a decimal string,
// trimming trailing zeros from the fraction.
func FormatUnits(n *big.Int, decimals int) string {
	if n == nil {
		return "0"
	}

	s := n.String()
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	if len(s) <= decimals {
		s = strings.Repeat("0", decimals-len(s)+1) + s
	}

	whole := s[:len(s)-decimals]
	frac := strings.TrimRight(s[len(s)-decimals:], "0")

	out := whole
	if frac != "" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}

func invalidAmount(amount, reason string) error {
	return walleterr.WithDetails(walleterr.ErrInvalidAmount, map[string]string{
		"amount": amount,
		"reason": reason,
	})
}
