package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	DisplayTypeNumber = "number"

	TraitParentId   = "Parent NFT Id"
	TraitLockedFuel = "Locked FUEL"
	TraitLayer      = "Layer"
	TraitDepth      = "Depth"
)

type ValueKind int

const (
	ValueInt ValueKind = iota
	ValueString
	ValueFloat
)

func (k ValueKind) String() string {
	switch k {
	case ValueInt:
		return "int"
	case ValueString:
		return "string"
	case ValueFloat:
		return "float"
	}
	return "unknown"
}

// Value is an attribute value holding exactly one of an unsigned integer,
// a string or a float. The zero Value is Int(0).
type Value struct {
	kind ValueKind
	i    uint64
	s    string
	f    float64
}

func IntValue(v uint64) Value {
	return Value{kind: ValueInt, i: v}
}

func StringValue(v string) Value {
	return Value{kind: ValueString, s: v}
}

func FloatValue(v float64) Value {
	return Value{kind: ValueFloat, f: v}
}

func (v Value) Kind() ValueKind {
	return v.kind
}

func (v Value) Int() (uint64, bool) {
	return v.i, v.kind == ValueInt
}

func (v Value) Str() (string, bool) {
	return v.s, v.kind == ValueString
}

func (v Value) Float() (float64, bool) {
	return v.f, v.kind == ValueFloat
}

func (v Value) String() string {
	switch v.kind {
	case ValueString:
		return v.s
	case ValueFloat:
		return formatFloat(v.f)
	default:
		return strconv.FormatUint(v.i, 10)
	}
}

// MarshalJSON keeps the variant visible on the wire: floats always carry a
// decimal point or an exponent, so 2.0 is written as 2.0 and not 2.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueInt:
		return []byte(strconv.FormatUint(v.i, 10)), nil
	case ValueString:
		return json.Marshal(v.s)
	case ValueFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return []byte("null"), nil
		}
		return []byte(formatFloat(v.f)), nil
	}
	return nil, fmt.Errorf("unknown value kind: %d", v.kind)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0:
		return fmt.Errorf("empty attribute value")
	case bytes.Equal(data, []byte("null")):
		*v = FloatValue(math.NaN())
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
		return nil
	case bytes.ContainsAny(data, ".eE"):
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return err
		}
		*v = FloatValue(f)
		return nil
	default:
		i, err := strconv.ParseUint(string(data), 10, 64)
		if err != nil {
			return err
		}
		*v = IntValue(i)
		return nil
	}
}

func formatFloat(f float64) string {
	format := byte('f')
	if abs := math.Abs(f); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	s := strconv.FormatFloat(f, format, -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

type Attribute struct {
	DisplayType string `json:"display_type"`
	TraitType   string `json:"trait_type"`
	Value       Value  `json:"value"`
}

// Metadata is the display document served for a token. Values are never
// mutated once cached.
type Metadata struct {
	Image       string      `json:"image"`
	ExternalUrl string      `json:"external_url"`
	Attributes  []Attribute `json:"attributes"`
}

// Clone returns a copy that shares no slice with md.
func (md Metadata) Clone() Metadata {
	if md.Attributes != nil {
		md.Attributes = append([]Attribute(nil), md.Attributes...)
	}
	return md
}
