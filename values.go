package goconstruct

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"strconv"
)

// ToInt64 converts any Go integer, an integral float, or a json.Number to
// int64.
func ToInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint, uint8, uint16, uint32, uint64, uintptr:
		u := reflect.ValueOf(n).Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	case float32:
		return floatToInt64(float64(n))
	case float64:
		return floatToInt64(n)
	case json.Number:
		return numberToInt64(string(n))
	}
	return 0, false
}

// ToUint64 converts any non-negative Go integer, integral float, or
// json.Number to uint64.
func ToUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint:
		return uint64(n), true
	case uint8:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	case json.Number:
		if u, err := strconv.ParseUint(string(n), 10, 64); err == nil {
			return u, true
		}
	case float64:
		if n >= 0 && n <= math.MaxUint64 && n == math.Trunc(n) {
			return uint64(n), true
		}
		return 0, false
	}
	i, ok := ToInt64(v)
	if !ok || i < 0 {
		return 0, false
	}
	return uint64(i), true
}

// ToInt converts like ToInt64 and additionally rejects negatives, for
// lengths and counts.
func ToInt(v any) (int, bool) {
	i, ok := ToInt64(v)
	if !ok || i < 0 || i > math.MaxInt {
		return 0, false
	}
	return int(i), true
}

// ToFloat64 converts any Go number or json.Number to float64.
func ToFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case json.Number:
		f, err := strconv.ParseFloat(string(n), 64)
		return f, err == nil
	}
	if i, ok := ToInt64(v); ok {
		return float64(i), true
	}
	if u, ok := ToUint64(v); ok {
		return float64(u), true
	}
	return 0, false
}

func floatToInt64(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func numberToInt64(s string) (int64, bool) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return floatToInt64(f)
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64, json.Number:
		return true
	}
	return false
}

// Equal compares decoded values the way the engine does for const, value
// and embed checks: numbers by value regardless of Go type, byte slices
// and strings by content, containers and lists element-wise.
func Equal(a, b any) bool {
	if isNumber(a) && isNumber(b) {
		if ai, ok := ToInt64(a); ok {
			if bi, ok := ToInt64(b); ok {
				return ai == bi
			}
		}
		if au, ok := ToUint64(a); ok {
			if bu, ok := ToUint64(b); ok {
				return au == bu
			}
		}
		af, aok := ToFloat64(a)
		bf, bok := ToFloat64(b)
		return aok && bok && af == bf
	}
	switch x := a.(type) {
	case []byte:
		switch y := b.(type) {
		case []byte:
			return bytes.Equal(x, y)
		case string:
			return string(x) == y
		}
	case string:
		if y, ok := b.([]byte); ok {
			return x == string(y)
		}
	case *Container:
		if y, ok := b.(*Container); ok {
			return x.Equal(y)
		}
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if al, ok := ListOf(a); ok {
		if _, isBytes := a.([]byte); !isBytes {
			bl, ok := ListOf(b)
			if !ok || len(al) != len(bl) {
				return false
			}
			for i := range al {
				if !Equal(al[i], bl[i]) {
					return false
				}
			}
			return true
		}
	}
	return reflect.DeepEqual(a, b)
}

// ListOf views v as a list: []any directly, or any other slice or array
// through reflection.
func ListOf(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// BytesOf views v as raw bytes: []byte, string, or a list of byte-sized
// integers.
func BytesOf(v any) ([]byte, bool) {
	switch b := v.(type) {
	case []byte:
		return b, true
	case string:
		return []byte(b), true
	}
	items, ok := ListOf(v)
	if !ok {
		return nil, false
	}
	out := make([]byte, len(items))
	for i, it := range items {
		n, ok := ToInt64(it)
		if !ok || n < 0 || n > math.MaxUint8 {
			return nil, false
		}
		out[i] = byte(n)
	}
	return out, true
}

// LenOf returns the length of bytes, strings, lists and containers.
func LenOf(v any) (int, bool) {
	switch x := v.(type) {
	case []byte:
		return len(x), true
	case string:
		return len(x), true
	case *Container:
		return x.Len(), true
	}
	if items, ok := ListOf(v); ok {
		return len(items), true
	}
	return 0, false
}
