// Package money holds fixed-point monetary amounts.
//
// Amounts are stored as int64 counts of the currency's minor unit (bani
// for RON) so sums and the debit == credit comparison are exact.
package money

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places of the minor unit.
const Scale = 2

// Zero is the zero amount.
const Zero Amount = 0

// Max is the largest amount a single journal line may carry,
// 10 000 000 000 000.00. Any realistic entry then sums well inside int64.
const Max Amount = 1_000_000_000_000_000

// Amount is a monetary value in minor units.
type Amount int64

// New returns an Amount from whole units and minor units, e.g. New(3332, 0).
func New(units, minor int64) Amount {
	return Amount(units*100 + minor)
}

// Parse parses a decimal string such as "3332.00" or "-4.5".
// More than two decimal places is an error; nothing is rounded.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return FromDecimal(d)
}

// MustParse is Parse for literals in tests and default data. It panics on error.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// FromDecimal converts a decimal to minor units.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	shifted := d.Shift(Scale)
	if !shifted.Equal(shifted.Truncate(0)) {
		return Zero, fmt.Errorf("amount %s has more than %d decimal places", d.String(), Scale)
	}
	if !shifted.BigInt().IsInt64() {
		return Zero, fmt.Errorf("amount %s out of range", d.String())
	}
	return Amount(shifted.IntPart()), nil
}

// Decimal returns the amount in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Scale)
}

// String formats the amount with exactly two decimals.
func (a Amount) String() string {
	return a.Decimal().StringFixed(Scale)
}

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool { return a == 0 }

// IsNegative reports whether the amount is below zero.
func (a Amount) IsNegative() bool { return a < 0 }

// Abs returns the absolute value.
func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}

// Add returns a + b. ok is false when the sum overflows int64.
func Add(a, b Amount) (sum Amount, ok bool) {
	sum = a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, false
	}
	return sum, true
}

// Sum adds amounts. ok is false when the total overflows int64.
func Sum(amounts ...Amount) (total Amount, ok bool) {
	for _, a := range amounts {
		if total, ok = Add(total, a); !ok {
			return 0, false
		}
	}
	return total, true
}

// MarshalText implements encoding.TextMarshaler.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Amount) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// MarshalJSON encodes the amount as a string so no float ever crosses the boundary.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts "12.34" as well as a bare 12.34.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*a = Zero
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		s = str
	}
	return a.UnmarshalText([]byte(s))
}
