package document

import (
	"fmt"
	"sort"
	"strings"
)

// Kind identifies the dynamic type of a document value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindDocument
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "NULL"
	case KindBool:
		return "BOOL"
	case KindInt:
		return "INT"
	case KindFloat:
		return "FLOAT"
	case KindString:
		return "STRING"
	case KindArray:
		return "ARRAY"
	case KindDocument:
		return "DOCUMENT"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Value represents a dynamically typed document field value.
type Value struct {
	Data interface{}
	Null bool
}

// NewValue creates a value from a Go value; nil yields a null value.
// int and int32 are normalized to int64 and float32 to float64; other
// types are stored unchanged.
func NewValue(data interface{}) Value {
	switch v := data.(type) {
	case nil:
		return NewNullValue()
	case int:
		return Value{Data: int64(v)}
	case int32:
		return Value{Data: int64(v)}
	case float32:
		return Value{Data: float64(v)}
	default:
		return Value{Data: data}
	}
}

// NewNullValue creates a null value.
func NewNullValue() Value {
	return Value{Data: nil, Null: true}
}

// NewArrayValue creates an array value from its elements.
func NewArrayValue(elems ...Value) Value {
	return Value{Data: elems}
}

// NewDocumentValue creates a nested document value.
func NewDocumentValue(fields map[string]Value) Value {
	return Value{Data: fields}
}

// IsNull returns true if the value is null.
func (v Value) IsNull() bool {
	return v.Null
}

// Kind returns the dynamic kind of the value.
func (v Value) Kind() Kind {
	if v.Null {
		return KindNull
	}
	switch v.Data.(type) {
	case bool:
		return KindBool
	case int64:
		return KindInt
	case float64:
		return KindFloat
	case string:
		return KindString
	case []Value:
		return KindArray
	case map[string]Value:
		return KindDocument
	default:
		return KindNull
	}
}

// AsInt returns the value as an int64.
func (v Value) AsInt() (int64, error) {
	if i, ok := v.Data.(int64); ok {
		return i, nil
	}
	return 0, fmt.Errorf("cannot convert %T to int64", v.Data)
}

// AsFloat returns the value as a float64, widening integers.
func (v Value) AsFloat() (float64, error) {
	switch n := v.Data.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", v.Data)
	}
}

// AsString returns the value as a string.
func (v Value) AsString() (string, error) {
	if s, ok := v.Data.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("cannot convert %T to string", v.Data)
}

// AsArray returns the value's elements.
func (v Value) AsArray() ([]Value, error) {
	if a, ok := v.Data.([]Value); ok {
		return a, nil
	}
	return nil, fmt.Errorf("cannot convert %T to array", v.Data)
}

// kindOrder defines the cross-kind ordering used by Compare:
// null < numbers < strings < documents < arrays < booleans.
func kindOrder(k Kind) int {
	switch k {
	case KindNull:
		return 0
	case KindInt, KindFloat:
		return 1
	case KindString:
		return 2
	case KindDocument:
		return 3
	case KindArray:
		return 4
	case KindBool:
		return 5
	default:
		return 6
	}
}

// Compare returns -1, 0, or 1 ordering v against other. Values of
// different kinds order by kindOrder; numeric kinds compare by value.
func (v Value) Compare(other Value) int {
	vo, oo := kindOrder(v.Kind()), kindOrder(other.Kind())
	if vo != oo {
		return sign(vo - oo)
	}
	switch v.Kind() {
	case KindNull:
		return 0
	case KindBool:
		vb := v.Data.(bool)
		ob := other.Data.(bool)
		if vb == ob {
			return 0
		}
		if !vb {
			return -1
		}
		return 1
	case KindInt, KindFloat:
		vf, _ := v.AsFloat()
		of, _ := other.AsFloat()
		switch {
		case vf < of:
			return -1
		case vf > of:
			return 1
		default:
			return 0
		}
	case KindString:
		return strings.Compare(v.Data.(string), other.Data.(string))
	case KindArray:
		va := v.Data.([]Value)
		oa := other.Data.([]Value)
		for i := 0; i < len(va) && i < len(oa); i++ {
			if c := va[i].Compare(oa[i]); c != 0 {
				return c
			}
		}
		return sign(len(va) - len(oa))
	case KindDocument:
		return compareDocuments(v.Data.(map[string]Value), other.Data.(map[string]Value))
	}
	return 0
}

func compareDocuments(a, b map[string]Value) int {
	ak := sortedKeys(a)
	bk := sortedKeys(b)
	for i := 0; i < len(ak) && i < len(bk); i++ {
		if c := strings.Compare(ak[i], bk[i]); c != 0 {
			return c
		}
		if c := a[ak[i]].Compare(b[bk[i]]); c != 0 {
			return c
		}
	}
	return sign(len(ak) - len(bk))
}

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

// String returns a string representation of the value.
func (v Value) String() string {
	if v.Null {
		return "NULL"
	}
	switch d := v.Data.(type) {
	case string:
		return fmt.Sprintf("%q", d)
	case []Value:
		parts := make([]string, len(d))
		for i, e := range d {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]Value:
		keys := sortedKeys(d)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s: %s", k, d[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("%v", d)
	}
}
