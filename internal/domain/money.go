package domain

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fraction digits every monetary value carries.
const MoneyScale = 2

// MaxRateOrBalance is the largest rate_per_min or balance the users and
// zones columns (NUMERIC(10,2)) can hold.
var MaxRateOrBalance = MustMoney("99999999.99")

// Money is a fixed-point amount with two fraction digits. Arithmetic is exact;
// no binary floating point is involved at any step.
type Money struct {
	d decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money {
	return Money{d: d.Round(MoneyScale)}
}

// ParseMoney parses a decimal string. More than two fraction digits is an error
// rather than a silent rounding.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid monetary amount %q: %w", s, err)
	}
	if !d.Equal(d.Round(MoneyScale)) {
		return Money{}, fmt.Errorf("invalid monetary amount %q: more than %d fraction digits", s, MoneyScale)
	}
	return NewMoney(d), nil
}

func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func ZeroMoney() Money { return Money{} }

func (m Money) Add(o Money) Money { return NewMoney(m.d.Add(o.d)) }

func (m Money) Sub(o Money) Money { return NewMoney(m.d.Sub(o.d)) }

// MulInt multiplies by a whole number of units (minutes, in practice).
func (m Money) MulInt(n int64) Money { return NewMoney(m.d.Mul(decimal.NewFromInt(n))) }

func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }

func (m Money) LessThan(o Money) bool { return m.d.LessThan(o.d) }

func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

func (m Money) IsNegative() bool { return m.d.IsNegative() }

func (m Money) Decimal() decimal.Decimal { return m.d }

func (m Money) String() string { return m.d.StringFixed(MoneyScale) }

// MarshalJSON writes an unquoted number with exactly two fraction digits.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts both 1.5 and "1.50".
func (m *Money) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	parsed, err := ParseMoney(d.String())
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m *Money) Scan(value interface{}) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("scan money: %w", err)
	}
	*m = NewMoney(d)
	return nil
}

func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// NullMoney is a Money column that may be NULL.
type NullMoney struct {
	Money Money
	Valid bool
}

func NullMoneyFrom(m Money) NullMoney {
	return NullMoney{Money: m, Valid: true}
}

func (n NullMoney) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return n.Money.MarshalJSON()
}

func (n *NullMoney) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = NullMoney{}
		return nil
	}
	if err := n.Money.UnmarshalJSON(b); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

func (n *NullMoney) Scan(value interface{}) error {
	if value == nil {
		*n = NullMoney{}
		return nil
	}
	if err := n.Money.Scan(value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

func (n NullMoney) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Money.Value()
}
