package pricing

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// maxInputLen bounds typed amounts; longer input is treated as malformed.
const maxInputLen = 32

// ParseAmount converts raw form input into a non-negative decimal. Empty,
// malformed and negative input all yield zero. Exponent notation is malformed.
func ParseAmount(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" || len(s) > maxInputLen || strings.ContainsAny(s, "eE") {
		return decimal.Zero
	}
	s = strings.ReplaceAll(s, " ", "")
	if strings.Contains(s, ",") {
		// 1.234,56 style input
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return clampNonNegative(d)
}

// ParsePercent is ParseAmount capped at 100.
func ParsePercent(raw string) decimal.Decimal {
	return clampPercent(ParseAmount(raw))
}

func clampNonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func clampPercent(d decimal.Decimal) decimal.Decimal {
	d = clampNonNegative(d)
	if d.GreaterThan(hundred) {
		return hundred
	}
	return d
}

// sanitize applies the input coercion rules of field to an already numeric value.
func sanitize(field Field, v decimal.Decimal) decimal.Decimal {
	if field == FieldDiscountPercent {
		return clampPercent(v)
	}
	return clampNonNegative(v)
}

// RawValue is form input as typed by the user. Both JSON strings and JSON
// numbers decode into it so that malformed text reaches ParseAmount intact.
type RawValue string

// UnmarshalJSON implements json.Unmarshaler.
func (v *RawValue) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = RawValue(s)
		return nil
	}
	if string(b) == "null" {
		*v = ""
		return nil
	}
	*v = RawValue(b)
	return nil
}
