// =============================================================================
// Trader Config Editor - Price Transform
// =============================================================================
//
// This module scales buy/sell prices by a percentage while keeping the
// numeric format of the original literal.
//
// FORMAT DISPATCH:
//   The format is decided once, from the shape of the literal:
//   - "-1"            : Unlimited (not tradeable), never scaled
//   - contains a "."  : Decimal, rounded to 2 places (half-to-even)
//   - anything else   : Integer, floored
//
// EXAMPLES:
//   Adjust("100", 10)   -> "110"
//   Adjust("99", 10)    -> "108"   (108.9 floored)
//   Adjust("10.00", 10) -> "11.0"
//   Adjust("10.5", -50) -> "5.25"
//   Adjust("-1", 500)   -> "-1"
//
// Arithmetic is exact decimal, so the result does not depend on binary
// floating point representation of the input.
//
// =============================================================================

package pricing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Sentinel marks a price (or stock) that is not tradeable / unlimited.
const Sentinel = "-1"

// Percent range accepted by bulk operations.
const (
	MinPercent  = -99
	MaxPercent  = 500
	PercentStep = 5
)

var (
	// ErrInvalidPrice is returned for a literal that is neither the
	// sentinel nor a number in the format its shape implies.
	ErrInvalidPrice = errors.New("invalid price")

	// ErrPercentOutOfRange is returned by CheckPercent.
	ErrPercentOutOfRange = errors.New("percent out of range")
)

// decimalPlaces is the precision of the Decimal format.
const decimalPlaces = 2

// Kind is the numeric format of a price literal.
type Kind int

const (
	Unlimited Kind = iota
	Integer
	Decimal
)

func (k Kind) String() string {
	switch k {
	case Unlimited:
		return "unlimited"
	case Integer:
		return "integer"
	case Decimal:
		return "decimal"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Price is a parsed price literal.
type Price struct {
	kind   Kind
	amount decimal.Decimal
}

// Parse classifies and parses a price literal.
func Parse(s string) (Price, error) {
	if s == Sentinel {
		return Price{kind: Unlimited}, nil
	}

	trimmed := strings.TrimSpace(s)
	if strings.Contains(trimmed, ".") {
		d, err := decimal.NewFromString(trimmed)
		if err != nil {
			return Price{}, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
		}
		return Price{kind: Decimal, amount: d}, nil
	}

	n, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return Price{}, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	return Price{kind: Integer, amount: decimal.NewFromInt(n)}, nil
}

// Kind returns the format the price was parsed as.
func (p Price) Kind() Kind {
	return p.kind
}

// Amount returns the numeric value. It is meaningless for Unlimited.
func (p Price) Amount() decimal.Decimal {
	return p.amount
}

// Scale multiplies the price by (1 + percent/100) and applies the rounding
// rule of its format. Unlimited prices are returned unchanged.
func (p Price) Scale(percent float64) Price {
	if p.kind == Unlimited {
		return p
	}

	scaled := p.amount.Mul(factor(percent))
	switch p.kind {
	case Integer:
		scaled = scaled.Floor()
	case Decimal:
		scaled = scaled.RoundBank(decimalPlaces)
	}
	return Price{kind: p.kind, amount: scaled}
}

// String renders the price in its own format. Decimal prices keep at least
// one fractional digit so they parse back as Decimal.
func (p Price) String() string {
	switch p.kind {
	case Unlimited:
		return Sentinel
	case Integer:
		return p.amount.String()
	default:
		s := p.amount.String()
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
}

// Adjust parses price, scales it by percent and renders it again.
// The sentinel is returned unchanged for every percent.
func Adjust(price string, percent float64) (string, error) {
	p, err := Parse(price)
	if err != nil {
		return price, err
	}
	if p.kind == Unlimited {
		return price, nil
	}
	return p.Scale(percent).String(), nil
}

// CheckPercent enforces the [MinPercent, MaxPercent] contract of bulk
// operations.
func CheckPercent(percent float64) error {
	if percent < MinPercent || percent > MaxPercent {
		return fmt.Errorf("%w: %v not in [%d, %d]", ErrPercentOutOfRange, percent, MinPercent, MaxPercent)
	}
	return nil
}

func factor(percent float64) decimal.Decimal {
	return decimal.NewFromInt(1).Add(decimal.NewFromFloat(percent).Shift(-2))
}
