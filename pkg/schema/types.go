package schema

import (
	"sort"
	"strconv"

	"github.com/ajitpratap0/sttools/pkg/errors"
)

// Type is the scalar type of a column or metadata value
type Type int

const (
	// TypeString holds the raw token
	TypeString Type = iota
	// TypeInt holds a base-10 signed 64-bit integer
	TypeInt
	// TypeFloat holds a 64-bit float
	TypeFloat
)

// String returns the lower-case type name
func (t Type) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	default:
		return "string"
	}
}

// ParseType maps a type name back to a Type
func ParseType(name string) (Type, error) {
	switch name {
	case "int":
		return TypeInt, nil
	case "float":
		return TypeFloat, nil
	case "string", "str":
		return TypeString, nil
	}
	return TypeString, errors.New(errors.ErrorTypeValidation, "unknown type name").
		WithDetail("type", name)
}

// Column describes one column of a table
type Column struct {
	// Name is the sanitized upper-case identifier
	Name string `json:"name"`
	// Label is the header token as written in the file
	Label string `json:"label"`
	Type  Type   `json:"-"`
	// Indexed marks the column for the inverted index
	Indexed bool `json:"indexed"`
}

// Scalar is a typed metadata value
type Scalar struct {
	Type  Type
	Int   int64
	Float float64
	Str   string
}

// IntScalar returns an integer scalar
func IntScalar(v int64) Scalar { return Scalar{Type: TypeInt, Int: v} }

// FloatScalar returns a float scalar
func FloatScalar(v float64) Scalar { return Scalar{Type: TypeFloat, Float: v} }

// StringScalar returns a string scalar
func StringScalar(v string) Scalar { return Scalar{Type: TypeString, Str: v} }

// InferScalar parses token as int, then float, then keeps it as a string
func InferScalar(token string) Scalar {
	if v, err := strconv.ParseInt(token, 10, 64); err == nil {
		return IntScalar(v)
	}
	if v, err := strconv.ParseFloat(token, 64); err == nil {
		return FloatScalar(v)
	}
	return StringScalar(token)
}

// ParseScalar converts token to a scalar of the given type
func ParseScalar(token string, t Type) (Scalar, error) {
	switch t {
	case TypeInt:
		v, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			return Scalar{}, errors.Wrap(ErrConversion, errors.ErrorTypeData, "not an integer").
				WithDetail("token", token)
		}
		return IntScalar(v), nil
	case TypeFloat:
		v, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return Scalar{}, errors.Wrap(ErrConversion, errors.ErrorTypeData, "not a float").
				WithDetail("token", token)
		}
		return FloatScalar(v), nil
	default:
		return StringScalar(token), nil
	}
}

// Value returns the scalar as int64, float64 or string
func (s Scalar) Value() interface{} {
	switch s.Type {
	case TypeInt:
		return s.Int
	case TypeFloat:
		return s.Float
	default:
		return s.Str
	}
}

// String renders the scalar in the form it would take in a file
func (s Scalar) String() string {
	switch s.Type {
	case TypeInt:
		return strconv.FormatInt(s.Int, 10)
	case TypeFloat:
		return FormatFloat(s.Float)
	default:
		return s.Str
	}
}

// FormatFloat renders v so that it always reads back as a float: integral
// values keep a decimal point.
func FormatFloat(v float64) string {
	out := strconv.FormatFloat(v, 'g', -1, 64)
	for i := 0; i < len(out); i++ {
		switch out[i] {
		case '.', 'e', 'E', 'n', 'N', 'I':
			return out
		}
	}
	return out + ".0"
}

// Metadata holds the typed key/value pairs of a file header
type Metadata map[string]Scalar

// Keys returns the metadata keys in sorted order
func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Int returns an integer value and whether key holds one
func (m Metadata) Int(key string) (int64, bool) {
	s, ok := m[key]
	if !ok || s.Type != TypeInt {
		return 0, false
	}
	return s.Int, true
}

// Float returns key as a float. Integer values are widened.
func (m Metadata) Float(key string) (float64, bool) {
	s, ok := m[key]
	if !ok {
		return 0, false
	}
	switch s.Type {
	case TypeFloat:
		return s.Float, true
	case TypeInt:
		return float64(s.Int), true
	}
	return 0, false
}

// Text returns a string value and whether key holds one
func (m Metadata) Text(key string) (string, bool) {
	s, ok := m[key]
	if !ok || s.Type != TypeString {
		return "", false
	}
	return s.Str, true
}

// Clone returns a copy of the metadata
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
