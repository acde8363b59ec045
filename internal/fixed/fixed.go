// Package fixed provides the decimal type used for balances, prices and
// volumes throughout the simulation core. It is a thin wrapper around
// govalues/decimal so call sites never import that package directly.
package fixed

import (
	"fmt"

	"github.com/govalues/decimal"
	"go.uber.org/zap/zapcore"
)

// Zero is the additive identity.
var Zero = MustFromInt64(0, 0)

// D is an arbitrary-precision decimal. The zero value is 0, equal to Zero.
type D struct {
	v decimal.Decimal
}

func must(v decimal.Decimal, err error) D {
	if err != nil {
		panic(err)
	}
	return D{v}
}

// MustFromInt64 builds a D from an integer coefficient and a scale, panicking
// on overflow. Used for compile-time constants such as Zero.
func MustFromInt64(coef int64, scale int) D {
	return D{decimal.MustNew(coef, scale)}
}

// FromFloat64 converts a float64, which is how book entries and trades
// arrive from most venue wire formats.
func FromFloat64(v float64) (D, error) {
	d, err := decimal.NewFromFloat64(v)
	if err != nil {
		return D{}, fmt.Errorf("fixed: from float64 %v: %w", v, err)
	}
	return D{d}, nil
}

// Parse parses a decimal string such as "123.45".
func Parse(s string) (D, error) {
	d, err := decimal.Parse(s)
	if err != nil {
		return D{}, fmt.Errorf("fixed: parse %q: %w", s, err)
	}
	return D{d}, nil
}

func (d D) Add(o D) D { return must(d.v.Add(o.v)) }
func (d D) Sub(o D) D { return must(d.v.Sub(o.v)) }
func (d D) Mul(o D) D { return must(d.v.Mul(o.v)) }
func (d D) Div(o D) D { return must(d.v.Quo(o.v)) }

func (d D) Cmp(o D) int { return d.v.Cmp(o.v) }
func (d D) Eq(o D) bool { return d.Cmp(o) == 0 }
func (d D) Gt(o D) bool { return d.Cmp(o) > 0 }
func (d D) Lt(o D) bool { return d.Cmp(o) < 0 }
func (d D) Gte(o D) bool { return d.Cmp(o) >= 0 }
func (d D) Lte(o D) bool { return d.Cmp(o) <= 0 }

// Min returns the smaller of d and o.
func (d D) Min(o D) D {
	if d.Lte(o) {
		return d
	}
	return o
}

func (d D) IsZero() bool { return d.v.IsZero() }
func (d D) IsNeg() bool  { return d.v.Sign() < 0 }

func (d D) String() string { return d.v.String() }

func (d D) Float64() (float64, bool) { return d.v.Float64() }

func (d D) MarshalText() ([]byte, error) { return []byte(d.v.String()), nil }

func (d *D) UnmarshalText(b []byte) error {
	v, err := decimal.Parse(string(b))
	if err != nil {
		return fmt.Errorf("fixed: unmarshal %q: %w", b, err)
	}
	d.v = v
	return nil
}

// MarshalLogObject lets D be passed directly to zap.Object/zap.Inline.
func (d D) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("decimal", d.v.String())
	return nil
}
