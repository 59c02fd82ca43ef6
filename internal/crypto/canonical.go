package crypto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// Canonicalize encodes v as canonical JSON bytes: object keys sorted
// lexicographically, strings NFC-normalized, numbers in a fixed shortest
// round-trip form, nil map entries stripped. Two logically equal values
// always produce identical bytes, so digests over the output are stable.
//
// Values of kinds that have no JSON shape (structs, channels, funcs) are
// coerced to their textual representation rather than rejected.
func Canonicalize(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := &encoder{seen: map[uintptr]struct{}{}}
	if err := enc.writeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type encoder struct {
	seen map[uintptr]struct{}
}

type mapEntry struct {
	key   string
	value any
}

func (e *encoder) writeValue(buf *bytes.Buffer, v any) error {
	if v == nil {
		buf.WriteString("null")
		return nil
	}

	if n, ok := v.(json.Number); ok {
		return writeNumber(buf, n)
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Interface || rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			buf.WriteString("null")
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.String:
		return writeString(buf, rv.String())
	case reflect.Bool:
		if rv.Bool() {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		buf.WriteString(strconv.FormatInt(rv.Int(), 10))
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		buf.WriteString(strconv.FormatUint(rv.Uint(), 10))
		return nil
	case reflect.Float32, reflect.Float64:
		return writeFloat(buf, rv.Float())
	case reflect.Map:
		return e.writeMap(buf, rv)
	case reflect.Slice, reflect.Array:
		return e.writeSlice(buf, rv)
	case reflect.Invalid:
		buf.WriteString("null")
		return nil
	default:
		// Fallback textual coercion so encoding never fails on an
		// unexpected payload type.
		return writeString(buf, fmt.Sprint(rv.Interface()))
	}
}

func writeString(buf *bytes.Buffer, s string) error {
	normalized := norm.NFC.String(s)
	encoded, err := json.Marshal(normalized)
	if err != nil {
		return err
	}
	buf.Write(encoded)
	return nil
}

// writeFloat fixes one decimal form per value: the shortest representation
// that round-trips through float64.
func writeFloat(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ErrFloatNotFinite
	}
	buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	return nil
}

func writeNumber(buf *bytes.Buffer, n json.Number) error {
	if i, err := n.Int64(); err == nil {
		buf.WriteString(strconv.FormatInt(i, 10))
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return ErrInvalidNumber
	}
	return writeFloat(buf, f)
}

func (e *encoder) writeMap(buf *bytes.Buffer, rv reflect.Value) error {
	if rv.Type().Key().Kind() != reflect.String {
		return ErrNonStringMapKey
	}
	if err := e.enter(rv); err != nil {
		return err
	}
	defer e.leave(rv)

	entries := make([]mapEntry, 0, rv.Len())
	dup := map[string]struct{}{}

	for _, key := range rv.MapKeys() {
		keyStr := norm.NFC.String(key.String())
		if _, ok := dup[keyStr]; ok {
			return ErrKeyCollision
		}
		dup[keyStr] = struct{}{}

		val := rv.MapIndex(key).Interface()
		if isNilValue(val) {
			continue
		}
		entries = append(entries, mapEntry{key: keyStr, value: val})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].key < entries[j].key
	})

	buf.WriteByte('{')
	for i, entry := range entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(buf, entry.key); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := e.writeValue(buf, entry.value); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func (e *encoder) writeSlice(buf *bytes.Buffer, rv reflect.Value) error {
	if rv.Kind() == reflect.Slice {
		if rv.IsNil() {
			buf.WriteString("null")
			return nil
		}
		if err := e.enter(rv); err != nil {
			return err
		}
		defer e.leave(rv)
	}

	buf.WriteByte('[')
	for i := 0; i < rv.Len(); i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := e.writeValue(buf, rv.Index(i).Interface()); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

// enter records a reference value on the encoding path; revisiting one means
// the payload is cyclic and can never be reduced to bytes.
func (e *encoder) enter(rv reflect.Value) error {
	ptr := rv.Pointer()
	if ptr == 0 {
		return nil
	}
	if _, ok := e.seen[ptr]; ok {
		return ErrCycleDetected
	}
	e.seen[ptr] = struct{}{}
	return nil
}

func (e *encoder) leave(rv reflect.Value) {
	if ptr := rv.Pointer(); ptr != 0 {
		delete(e.seen, ptr)
	}
}

func isNilValue(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice:
		return rv.IsNil()
	default:
		return false
	}
}
