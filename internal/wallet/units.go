package wallet

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// EtherDecimals is the number of wei digits in one ether.
const EtherDecimals = 18

// plainDecimal admits digits with at most one point. Signs, exponents and
// whitespace are rejected.
var plainDecimal = regexp.MustCompile(`^[0-9]*\.?[0-9]*$`)

// ParseEther converts a decimal ether amount to wei. Trailing fractional
// zeros beyond 18 digits are accepted; any other precision loss is an error.
func ParseEther(amount string) (*big.Int, error) {
	if amount == "" {
		return nil, errors.New("amount is empty")
	}
	if amount == "." || !plainDecimal.MatchString(amount) {
		return nil, fmt.Errorf("amount %q is not a plain decimal number", amount)
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("amount %q is negative", amount)
	}
	wei := d.Shift(EtherDecimals)
	if !wei.Equal(wei.Truncate(0)) {
		return nil, fmt.Errorf("amount %q has more than %d decimals", amount, EtherDecimals)
	}
	out := wei.BigInt()
	if _, overflow := uint256.FromBig(out); overflow {
		return nil, fmt.Errorf("amount %q overflows uint256", amount)
	}
	return out, nil
}

// FormatEther renders wei as a decimal ether string with at least one
// fractional digit: 1500000000000000000 -> "1.5", 0 -> "0.0".
func FormatEther(wei *big.Int) string {
	if wei == nil {
		wei = new(big.Int)
	}
	s := decimal.NewFromBigInt(wei, -EtherDecimals).String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
