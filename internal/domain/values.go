package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a float that decodes liberally: JSON numbers, numeric strings and
// booleans are accepted, anything else becomes 0 instead of failing the decode.
type Number float64

// Float returns the value, or 0 when it is NaN or infinite.
func (n Number) Float() float64 {
	v := float64(n)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func (n Number) MarshalJSON() ([]byte, error) {
	return strconv.AppendFloat(nil, n.Float(), 'f', -1, 64), nil
}

func (n *Number) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	switch raw {
	case "", "null", "false":
		*n = 0
		return nil
	case "true":
		*n = 1
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*n = 0
			return nil
		}
		raw = strings.TrimSpace(s)
	}
	*n = ParseNumber(raw)
	return nil
}

// ParseNumber converts text to a Number, returning 0 for empty, non-numeric
// or non-finite input.
func ParseNumber(raw string) Number {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return Number(v)
}

// FlexDate keeps an invoice date in textual form. It decodes from a JSON
// string or from a bare JSON number (epoch milliseconds in older records).
type FlexDate string

func (d *FlexDate) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) == 0 || string(raw) == "null" {
		*d = ""
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*d = FlexDate(s)
		return nil
	}
	*d = FlexDate(raw)
	return nil
}

func (d FlexDate) String() string {
	return string(d)
}
