package versioned

import (
	"encoding/json"
	"math"
	"math/big"
	"reflect"
)

// equalValues compares two JSON-like trees. Numbers compare by value
// regardless of their Go type; null never equals an empty object or array.
func equalValues(a, b any) bool {
	if isNull(a) || isNull(b) {
		return isNull(a) && isNull(b)
	}

	ra, aNum := toRat(a)
	rb, bNum := toRat(b)
	if aNum || bNum {
		return aNum && bNum && ra.Cmp(rb) == 0
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	for va.Kind() == reflect.Pointer {
		va = va.Elem()
	}
	for vb.Kind() == reflect.Pointer {
		vb = vb.Elem()
	}

	switch va.Kind() {
	case reflect.String:
		return vb.Kind() == reflect.String && va.String() == vb.String()
	case reflect.Bool:
		return vb.Kind() == reflect.Bool && va.Bool() == vb.Bool()
	case reflect.Map:
		if vb.Kind() != reflect.Map || va.Len() != vb.Len() {
			return false
		}
		if va.Type().Key().Kind() != reflect.String || vb.Type().Key().Kind() != reflect.String {
			return reflect.DeepEqual(a, b)
		}
		keyType := vb.Type().Key()
		iter := va.MapRange()
		for iter.Next() {
			other := vb.MapIndex(reflect.ValueOf(iter.Key().String()).Convert(keyType))
			if !other.IsValid() || !equalValues(iter.Value().Interface(), other.Interface()) {
				return false
			}
		}
		return true
	case reflect.Slice, reflect.Array:
		if (vb.Kind() != reflect.Slice && vb.Kind() != reflect.Array) || va.Len() != vb.Len() {
			return false
		}
		for i := 0; i < va.Len(); i++ {
			if !equalValues(va.Index(i).Interface(), vb.Index(i).Interface()) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

func isNull(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// toRat converts any numeric value to an exact rational.
func toRat(v any) (*big.Rat, bool) {
	if n, ok := v.(json.Number); ok {
		return new(big.Rat).SetString(n.String())
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return new(big.Rat).SetInt64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return new(big.Rat).SetUint64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}
		return new(big.Rat).SetFloat64(f), true
	}
	return nil, false
}
