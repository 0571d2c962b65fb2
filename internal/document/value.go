// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package document models upstream content payloads as an immutable tagged
// tree and resolves key paths inside it.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindScalar
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "null"
	}
}

// ErrEmptyDocument is returned by Parse for an empty payload.
var ErrEmptyDocument = errors.New("document: empty payload")

// Value is one node of a parsed document. The zero Value is Null.
// Scalars hold a string, a json.Number or a bool.
type Value struct {
	kind   Kind
	scalar any
	items  []Value
	fields map[string]Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// String wraps s as a scalar.
func String(s string) Value { return Value{kind: KindScalar, scalar: s} }

// Number wraps a numeric literal as a scalar.
func Number(n json.Number) Value { return Value{kind: KindScalar, scalar: n} }

// Int wraps i as a numeric scalar.
func Int(i int64) Value { return Number(json.Number(strconv.FormatInt(i, 10))) }

// Bool wraps b as a scalar.
func Bool(b bool) Value { return Value{kind: KindScalar, scalar: b} }

// Array builds an array value.
func Array(items ...Value) Value {
	return Value{kind: KindArray, items: append([]Value(nil), items...)}
}

// Object builds an object value. The map is copied.
func Object(fields map[string]Value) Value {
	cp := make(map[string]Value, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return Value{kind: KindObject, fields: cp}
}

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Len returns the number of array items or object fields.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.items)
	case KindObject:
		return len(v.fields)
	default:
		return 0
	}
}

// Index returns the i-th array item.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.items) {
		return Value{}, false
	}
	return v.items[i], true
}

// Field returns the object member named key.
func (v Value) Field(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	f, ok := v.fields[key]
	return f, ok
}

// Items returns a copy of the array items.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}
	return append([]Value(nil), v.items...)
}

// Text returns the scalar as a string. Numbers and bools are formatted.
func (v Value) Text() (string, bool) {
	if v.kind != KindScalar {
		return "", false
	}
	switch s := v.scalar.(type) {
	case string:
		return s, true
	case json.Number:
		return s.String(), true
	case bool:
		return strconv.FormatBool(s), true
	}
	return "", false
}

// Int64 returns a numeric scalar (or a numeric string) as int64.
func (v Value) Int64() (int64, bool) {
	if v.kind != KindScalar {
		return 0, false
	}
	switch s := v.scalar.(type) {
	case json.Number:
		if i, err := s.Int64(); err == nil {
			return i, true
		}
		if f, err := s.Float64(); err == nil {
			return int64(f), true
		}
	case string:
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

// Float64 returns a numeric scalar as float64.
func (v Value) Float64() (float64, bool) {
	if v.kind != KindScalar {
		return 0, false
	}
	if n, ok := v.scalar.(json.Number); ok {
		if f, err := n.Float64(); err == nil {
			return f, true
		}
	}
	return 0, false
}

// BoolValue returns a boolean scalar.
func (v Value) BoolValue() (bool, bool) {
	if v.kind != KindScalar {
		return false, false
	}
	b, ok := v.scalar.(bool)
	return b, ok
}

// Interface converts v into plain Go values suitable for re-encoding.
func (v Value) Interface() any {
	switch v.kind {
	case KindScalar:
		return v.scalar
	case KindArray:
		out := make([]any, len(v.items))
		for i, it := range v.items {
			out[i] = it.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.fields))
		for k, f := range v.fields {
			out[k] = f.Interface()
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON encodes v back to JSON.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON decodes JSON into v.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Parse decodes a JSON payload. Numbers keep their literal form.
func Parse(data []byte) (Value, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Value{}, ErrEmptyDocument
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Value{}, fmt.Errorf("document: decode: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, fmt.Errorf("document: trailing data after top-level value")
	}
	return fromRaw(raw), nil
}

// FromInterface converts decoded Go values (maps, slices, scalars) into a Value.
func FromInterface(raw any) Value {
	return fromRaw(raw)
}

func fromRaw(raw any) Value {
	switch t := raw.(type) {
	case nil:
		return Value{}
	case map[string]any:
		fields := make(map[string]Value, len(t))
		for k, f := range t {
			fields[k] = fromRaw(f)
		}
		return Value{kind: KindObject, fields: fields}
	case []any:
		items := make([]Value, len(t))
		for i, it := range t {
			items[i] = fromRaw(it)
		}
		return Value{kind: KindArray, items: items}
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case json.Number:
		return Number(t)
	case float64:
		return Number(json.Number(strconv.FormatFloat(t, 'f', -1, 64)))
	case int:
		return Int(int64(t))
	case int64:
		return Int(t)
	default:
		return String(fmt.Sprint(t))
	}
}
