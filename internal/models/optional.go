package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	kindSome = "Some"
	kindNone = "None"
)

// Optional is an explicit present/absent value. On the wire it is
// {"__kind__":"Some","value":v} or {"__kind__":"None"}; in SQL, absent is NULL.
type Optional[T any] struct {
	value T
	valid bool
}

func Some[T any](value T) Optional[T] {
	return Optional[T]{value: value, valid: true}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

// OptionalString treats blank input as absent, matching how the forms send
// untouched optional fields.
func OptionalString(value string) Optional[string] {
	value = strings.TrimSpace(value)
	if value == "" {
		return None[string]()
	}
	return Some(value)
}

// TrimOptional applies OptionalString to a present value.
func TrimOptional(o Optional[string]) Optional[string] {
	if value, ok := o.Get(); ok {
		return OptionalString(value)
	}
	return o
}

func (o Optional[T]) Get() (T, bool) {
	return o.value, o.valid
}

func (o Optional[T]) IsSome() bool {
	return o.valid
}

func (o Optional[T]) OrElse(fallback T) T {
	if o.valid {
		return o.value
	}
	return fallback
}

func (o Optional[T]) Ptr() *T {
	if !o.valid {
		return nil
	}
	v := o.value
	return &v
}

type optionalWire[T any] struct {
	Kind  string `json:"__kind__"`
	Value *T     `json:"value,omitempty"`
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.valid {
		return json.Marshal(optionalWire[T]{Kind: kindNone})
	}
	v := o.value
	return json.Marshal(optionalWire[T]{Kind: kindSome, Value: &v})
}

// UnmarshalJSON also accepts null as absent.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = None[T]()
		return nil
	}

	var wire struct {
		Kind  string          `json:"__kind__"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("optional: %w", err)
	}

	switch wire.Kind {
	case kindNone:
		*o = None[T]()
		return nil
	case kindSome:
		if len(wire.Value) == 0 {
			return fmt.Errorf("optional: Some without value")
		}
		var v T
		if err := json.Unmarshal(wire.Value, &v); err != nil {
			return fmt.Errorf("optional: %w", err)
		}
		*o = Some(v)
		return nil
	default:
		return fmt.Errorf("optional: unknown __kind__ %q", wire.Kind)
	}
}

func (o Optional[T]) Value() (driver.Value, error) {
	if !o.valid {
		return nil, nil
	}
	return any(o.value), nil
}

func (o *Optional[T]) Scan(src any) error {
	if src == nil {
		*o = None[T]()
		return nil
	}

	var v T
	switch dst := any(&v).(type) {
	case *string:
		switch s := src.(type) {
		case string:
			*dst = s
		case []byte:
			*dst = string(s)
		default:
			return fmt.Errorf("optional: cannot scan %T into string", src)
		}
	case *int64:
		switch n := src.(type) {
		case int64:
			*dst = n
		case int:
			*dst = int64(n)
		default:
			return fmt.Errorf("optional: cannot scan %T into int64", src)
		}
	default:
		return fmt.Errorf("optional: unsupported column type %T", v)
	}

	*o = Some(v)
	return nil
}

func (o Optional[T]) GormDataType() string {
	var zero T
	switch any(zero).(type) {
	case int64:
		return "int"
	default:
		return "string"
	}
}
