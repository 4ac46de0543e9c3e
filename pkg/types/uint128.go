package types

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrUint128Range indicates a value does not fit in 128 unsigned bits.
var ErrUint128Range = errors.New("go-directory: value out of uint128 range")

// Uint128 is an unsigned 128-bit integer used for reward totals. It persists
// as a decimal string so every backend can store it losslessly.
type Uint128 struct {
	Hi uint64
	Lo uint64
}

// Uint128From64 widens v.
func Uint128From64(v uint64) Uint128 {
	return Uint128{Lo: v}
}

// Uint128FromBig converts b, rejecting negatives and values wider than 128 bits.
func Uint128FromBig(b *big.Int) (Uint128, error) {
	if b == nil {
		return Uint128{}, nil
	}
	if b.Sign() < 0 || b.BitLen() > 128 {
		return Uint128{}, ErrUint128Range
	}
	mask := new(big.Int).SetUint64(^uint64(0))
	lo := new(big.Int).And(b, mask).Uint64()
	hi := new(big.Int).Rsh(b, 64).Uint64()
	return Uint128{Hi: hi, Lo: lo}, nil
}

// ParseUint128 parses a base-10 string.
func ParseUint128(raw string) (Uint128, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Uint128{}, nil
	}
	b, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return Uint128{}, fmt.Errorf("go-directory: invalid uint128 %q", raw)
	}
	return Uint128FromBig(b)
}

// Big returns the value as a big.Int.
func (u Uint128) Big() *big.Int {
	out := new(big.Int).SetUint64(u.Hi)
	out.Lsh(out, 64)
	return out.Or(out, new(big.Int).SetUint64(u.Lo))
}

// IsZero reports whether the value is zero.
func (u Uint128) IsZero() bool {
	return u.Hi == 0 && u.Lo == 0
}

// String formats the value in base 10.
func (u Uint128) String() string {
	if u.Hi == 0 {
		return fmt.Sprintf("%d", u.Lo)
	}
	return u.Big().String()
}

// MarshalText implements encoding.TextMarshaler.
func (u Uint128) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *Uint128) UnmarshalText(text []byte) error {
	parsed, err := ParseUint128(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// Value implements driver.Valuer.
func (u Uint128) Value() (driver.Value, error) {
	return u.String(), nil
}

// Scan implements sql.Scanner.
func (u *Uint128) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*u = Uint128{}
		return nil
	case string:
		return u.UnmarshalText([]byte(v))
	case []byte:
		return u.UnmarshalText(v)
	case int64:
		if v < 0 {
			return ErrUint128Range
		}
		*u = Uint128From64(uint64(v))
		return nil
	default:
		return fmt.Errorf("go-directory: cannot scan %T into uint128", src)
	}
}
