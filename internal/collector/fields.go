package collector

import "github.com/spf13/cast"

// Fields is a loosely-typed key/value payload returned by an upstream
// provider. Values are strings, numbers, booleans, nested values or absent.
// Always read through the accessors so a missing key never panics.
type Fields map[string]any

// Get returns the value stored at key, or def when the key is absent.
func (f Fields) Get(key string, def any) any {
	v, ok := f[key]
	if !ok {
		return def
	}
	return v
}

// Has reports whether key is present with a non-nil value.
func (f Fields) Has(key string) bool {
	v, ok := f[key]
	return ok && v != nil
}

// String returns the value at key as a string, or def if it is absent or
// cannot be represented as one.
func (f Fields) String(key, def string) string {
	v, ok := f[key]
	if !ok || v == nil {
		return def
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return def
	}
	return s
}

// Float returns the value at key as a float64, or def.
func (f Fields) Float(key string, def float64) float64 {
	if v := f.OptionalFloat(key); v != nil {
		return *v
	}
	return def
}

// OptionalFloat returns nil when the value at key is absent or not numeric.
func (f Fields) OptionalFloat(key string) *float64 {
	v, ok := f[key]
	if !ok || v == nil {
		return nil
	}
	n, err := cast.ToFloat64E(v)
	if err != nil {
		return nil
	}
	return &n
}

// Int returns the value at key as an int64, or def.
func (f Fields) Int(key string, def int64) int64 {
	v, ok := f[key]
	if !ok || v == nil {
		return def
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return def
	}
	return n
}

// FirstString returns the first non-empty string among keys, or def.
func (f Fields) FirstString(def string, keys ...string) string {
	for _, k := range keys {
		if s := f.String(k, ""); s != "" {
			return s
		}
	}
	return def
}

// FirstFloat returns the first non-zero number among keys, or def.
func (f Fields) FirstFloat(def float64, keys ...string) float64 {
	for _, k := range keys {
		if n := f.Float(k, 0); n != 0 {
			return n
		}
	}
	return def
}
