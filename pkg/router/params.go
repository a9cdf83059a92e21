package router

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Param is one key/value pair.
type Param struct {
	Key   string
	Value string
}

// Params is an ordered list of parameters with unique keys.
type Params []Param

// Get returns the value for key, or "" if absent.
func (p Params) Get(key string) string {
	v, _ := p.Lookup(key)
	return v
}

// Lookup returns the value for key and whether it was present.
func (p Params) Lookup(key string) (string, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// With returns p with key set to value. An existing key keeps its position.
// p itself is not modified.
func (p Params) With(key, value string) Params {
	out := p.Clone()
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
			return out
		}
	}
	return append(out, Param{Key: key, Value: value})
}

// Clone returns a copy of p.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	copy(out, p)
	return out
}

// Map returns the parameters as a map.
func (p Params) Map() map[string]string {
	m := make(map[string]string, len(p))
	for _, kv := range p {
		m[kv.Key] = kv.Value
	}
	return m
}

// bindValues copies values into the fields of the struct target points to,
// matching keys against the given struct tag. Fields tagged "-" or untagged
// are skipped, as are keys with no matching field.
func bindValues(values map[string]string, target any, tag string) error {
	if target == nil {
		return nil
	}
	ptr := reflect.ValueOf(target)
	if ptr.Kind() != reflect.Pointer || ptr.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("bind %s: target must be a pointer to a struct, got %T", tag, target)
	}
	st := ptr.Elem()

	for i := range st.NumField() {
		f := st.Type().Field(i)
		key := f.Tag.Get(tag)
		if key == "" || key == "-" || !f.IsExported() {
			continue
		}
		raw, ok := values[key]
		if !ok {
			continue
		}
		if err := assign(st.Field(i), raw); err != nil {
			return fmt.Errorf("bind %s %q: %w", tag, key, err)
		}
	}
	return nil
}

// assign parses raw into dst according to dst's kind. A bare flag ("?bold")
// sets a bool to true; a string slice takes comma-separated values.
func assign(dst reflect.Value, raw string) error {
	var err error
	switch k := dst.Kind(); {
	case k == reflect.String:
		dst.SetString(raw)
	case dst.CanInt():
		var n int64
		if n, err = strconv.ParseInt(raw, 10, dst.Type().Bits()); err == nil {
			dst.SetInt(n)
		}
	case dst.CanUint():
		var n uint64
		if n, err = strconv.ParseUint(raw, 10, dst.Type().Bits()); err == nil {
			dst.SetUint(n)
		}
	case dst.CanFloat():
		var f float64
		if f, err = strconv.ParseFloat(raw, dst.Type().Bits()); err == nil {
			dst.SetFloat(f)
		}
	case k == reflect.Bool:
		b := true
		if raw != "" {
			b, err = strconv.ParseBool(raw)
		}
		if err == nil {
			dst.SetBool(b)
		}
	case k == reflect.Slice && dst.Type().Elem().Kind() == reflect.String:
		var parts []string
		if raw != "" {
			parts = strings.Split(raw, ",")
		}
		dst.Set(reflect.ValueOf(parts))
	default:
		return fmt.Errorf("unsupported field type %s", dst.Type())
	}
	return err
}
