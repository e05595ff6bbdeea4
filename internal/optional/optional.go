// Package optional models request values that may be absent.
//
// A Value is present when its key existed in the request and was not null.
// Presence never depends on the value itself, so 0, false and "" are all
// present values.
package optional

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

var (
	ErrNotInteger = errors.New("must be an integer")
	ErrNotBoolean = errors.New("must be a boolean")
	ErrNotString  = errors.New("must be a string")
)

// Scalar lists the column types a Value can carry.
type Scalar interface {
	int64 | bool | string
}

// Value is a tagged present(value)/absent wrapper.
type Value[T Scalar] struct {
	present bool
	value   T
	raw     string
	err     error
}

type (
	Int    = Value[int64]
	Bool   = Value[bool]
	String = Value[string]
)

// Of returns a present value.
func Of[T Scalar](v T) Value[T] {
	return Value[T]{present: true, value: v}
}

// Absent returns an absent value.
func Absent[T Scalar]() Value[T] {
	return Value[T]{}
}

// Parse builds a value from a query string parameter. An empty string is
// treated as absent.
func Parse[T Scalar](s string) Value[T] {
	if strings.TrimSpace(s) == "" {
		return Value[T]{}
	}
	v := Value[T]{present: true, raw: s}
	v.value, v.err = coerce[T](s)
	return v
}

// Present reports whether the key was supplied with a non-null value.
func (v Value[T]) Present() bool {
	return v.present
}

// Get returns the coerced value and whether it is usable.
func (v Value[T]) Get() (T, bool) {
	if !v.present || v.err != nil {
		var zero T
		return zero, false
	}
	return v.value, true
}

// OrElse returns the value when usable and def otherwise.
func (v Value[T]) OrElse(def T) T {
	if val, ok := v.Get(); ok {
		return val
	}
	return def
}

// Err returns the coercion error of a present value.
func (v Value[T]) Err() error {
	return v.err
}

// Raw returns the value as it was received.
func (v Value[T]) Raw() string {
	return v.raw
}

// Any returns the coerced value as an interface for query binding.
func (v Value[T]) Any() any {
	return v.value
}

// UnmarshalJSON accepts native JSON values as well as their string forms,
// since clients commonly send form-style strings for every field.
func (v *Value[T]) UnmarshalJSON(data []byte) error {
	*v = Value[T]{}
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	v.present = true
	v.raw = string(data)
	v.value, v.err = coerce[T](raw)
	return nil
}

// MarshalJSON renders absent values as null.
func (v Value[T]) MarshalJSON() ([]byte, error) {
	if !v.present || v.err != nil {
		return []byte("null"), nil
	}
	return json.Marshal(v.value)
}

func coerce[T Scalar](raw any) (T, error) {
	var out T
	switch p := any(&out).(type) {
	case *int64:
		n, err := toInt(raw)
		if err != nil {
			return out, err
		}
		*p = n
	case *bool:
		b, err := toBool(raw)
		if err != nil {
			return out, err
		}
		*p = b
	case *string:
		s, err := toString(raw)
		if err != nil {
			return out, err
		}
		*p = s
	}
	return out, nil
}

func toInt(raw any) (int64, error) {
	switch r := raw.(type) {
	case json.Number:
		n, err := r.Int64()
		if err != nil {
			return 0, ErrNotInteger
		}
		return n, nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(r), 10, 64)
		if err != nil {
			return 0, ErrNotInteger
		}
		return n, nil
	default:
		return 0, ErrNotInteger
	}
}

func toBool(raw any) (bool, error) {
	switch r := raw.(type) {
	case bool:
		return r, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(r))
		if err != nil {
			return false, ErrNotBoolean
		}
		return b, nil
	default:
		return false, ErrNotBoolean
	}
}

func toString(raw any) (string, error) {
	switch r := raw.(type) {
	case string:
		return r, nil
	case json.Number:
		return r.String(), nil
	default:
		return "", ErrNotString
	}
}
