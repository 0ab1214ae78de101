// Copyright (C) 2020 Michael J. Fromberger. All Rights Reserved.

package opack

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

// An OPackMarshaler encodes a host value as an OPack Value directly.
type OPackMarshaler interface {
	MarshalOPack() (Value, error)
}

// Marshal converts a Go value into an opack.Value tree, suitable for
// passing to Encode. If v implements OPackMarshaler, its MarshalOPack
// method is called.
//
// For struct types, Marshal uses field tags to select which exported
// fields are included and what dict key name to assign them. The tag
// format is:
//
//	opack:"name"
//
// Fields without an "opack" tag, or tagged "-", are skipped. Zero-valued
// fields are omitted from the output dict.
//
// Note that map values are encoded in the iteration order Go gives them,
// which is randomized per the language spec; marshaling a value that is or
// contains a map may therefore not be deterministic across runs. Struct
// fields, by contrast, are always emitted in tag-name order.
func Marshal(v interface{}) (Value, error) {
	switch t := v.(type) {
	case OPackMarshaler:
		return t.MarshalOPack()
	case Value:
		return t, nil
	case nil:
		return Value{}, fmt.Errorf("opack: cannot marshal nil")
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case []byte:
		return Bytes(t), nil
	case time.Time:
		return Timestamp(t), nil
	}
	if val, ok := marshalNumber(v); ok {
		return val, nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return Value{}, fmt.Errorf("opack: cannot marshal nil %T", v)
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return marshalSlice(rv)
	case reflect.Map:
		return marshalMap(rv)
	case reflect.Struct:
		return marshalStruct(rv)
	}
	return Value{}, fmt.Errorf("opack: type %T cannot be marshaled", v)
}

// marshalNumber reports whether v is one of the built-in numeric types; if
// so it also returns its encoding as an Int (for non-negative integers) or
// Float (everything else, including negative integers — matching the
// encoder's own re-dispatch rule, spec §4.2).
func marshalNumber(v interface{}) (Value, bool) {
	switch t := v.(type) {
	case int:
		return IntFromInt64(int64(t)), true
	case int8:
		return IntFromInt64(int64(t)), true
	case int16:
		return IntFromInt64(int64(t)), true
	case int32:
		return IntFromInt64(int64(t)), true
	case int64:
		return IntFromInt64(t), true
	case uint:
		return Int(uint64(t)), true
	case uint8:
		return Int(uint64(t)), true
	case uint16:
		return Int(uint64(t)), true
	case uint32:
		return Int(uint64(t)), true
	case uint64:
		return Int(t), true
	case float32:
		return Float(float64(t)), true
	case float64:
		return Float(t), true
	}
	return Value{}, false
}

// marshalSlice encodes a slice or array as an Array value.
// Precondition: val.Kind() is Slice or Array.
func marshalSlice(val reflect.Value) (Value, error) {
	elems := make([]Value, val.Len())
	for i := 0; i < val.Len(); i++ {
		ev, err := Marshal(val.Index(i).Interface())
		if err != nil {
			return Value{}, fmt.Errorf("marshaling index %d: %w", i, err)
		}
		elems[i] = ev
	}
	return Array(elems), nil
}

// marshalMap encodes a map as a Dict value of its key/value pairs, in
// whatever order Go's map iteration gives them.
// Precondition: val.Kind() is Map.
func marshalMap(val reflect.Value) (Value, error) {
	keys := val.MapKeys()
	entries := make([]DictEntry, 0, len(keys))
	for _, k := range keys {
		kv, err := Marshal(k.Interface())
		if err != nil {
			return Value{}, fmt.Errorf("marshaling map key: %w", err)
		}
		vv, err := Marshal(val.MapIndex(k).Interface())
		if err != nil {
			return Value{}, fmt.Errorf("marshaling map value: %w", err)
		}
		entries = append(entries, DictEntry{Key: kv, Value: vv})
	}
	return Dict(entries), nil
}

// marshalStruct encodes a struct as a Dict value keyed by each field's
// "opack" tag name, in tag-name order.
// Precondition: val.Kind() is Struct.
func marshalStruct(val reflect.Value) (Value, error) {
	fields, err := structFields(val.Type())
	if err != nil {
		return Value{}, err
	}
	var entries []DictEntry
	for _, fi := range fields {
		fv := val.Field(fi.index)
		if fv.IsZero() {
			continue
		}
		ev, err := Marshal(fv.Interface())
		if err != nil {
			return Value{}, fmt.Errorf("marshaling field %q: %w", fi.name, err)
		}
		entries = append(entries, DictEntry{Key: String(fi.name), Value: ev})
	}
	return Dict(entries), nil
}

type fieldInfo struct {
	name  string
	index int
}

// structFields extracts the opack-tagged fields of a struct type, sorted by
// dict key name for deterministic marshal output.
func structFields(typ reflect.Type) ([]fieldInfo, error) {
	var fields []fieldInfo
	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		tag, ok := sf.Tag.Lookup("opack")
		if !ok || tag == "-" {
			continue
		}
		name := strings.SplitN(tag, ",", 2)[0]
		if name == "" {
			name = sf.Name
		}
		fields = append(fields, fieldInfo{name: name, index: i})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].name < fields[j].name })
	for i := 0; i < len(fields)-1; i++ {
		if fields[i].name == fields[i+1].name {
			return nil, fmt.Errorf("opack: duplicate field name %q", fields[i].name)
		}
	}
	return fields, nil
}
