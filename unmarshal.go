// Copyright (C) 2020 Michael J. Fromberger. All Rights Reserved.

package opack

import (
	"fmt"
	"math"
	"reflect"
	"time"
)

// An OPackUnmarshaler decodes an OPack Value into the receiver.
type OPackUnmarshaler interface {
	UnmarshalOPack(Value) error
}

// Unmarshal decodes the opack.Value tree v into out, the inverse of Marshal.
// If out implements OPackUnmarshaler, its UnmarshalOPack method is used.
//
// Struct fields are matched against Dict keys using the same "opack" tag
// convention as Marshal; unmatched dict entries are ignored, and struct
// fields with no matching entry are left unchanged.
func Unmarshal(v Value, out interface{}) error {
	if u, ok := out.(OPackUnmarshaler); ok {
		return u.UnmarshalOPack(v)
	}
	switch t := out.(type) {
	case *Value:
		*t = v
		return nil
	case *bool:
		if v.Kind() != KindBool {
			return fmt.Errorf("opack: cannot unmarshal %s into *bool", v.Kind())
		}
		*t = v.Bool()
		return nil
	case *string:
		if v.Kind() != KindString {
			return fmt.Errorf("opack: cannot unmarshal %s into *string", v.Kind())
		}
		*t = v.Str()
		return nil
	case *[]byte:
		if v.Kind() != KindBytes {
			return fmt.Errorf("opack: cannot unmarshal %s into *[]byte", v.Kind())
		}
		*t = append([]byte(nil), v.ByteSlice()...)
		return nil
	case *time.Time:
		if v.Kind() != KindTimestamp {
			return fmt.Errorf("opack: cannot unmarshal %s into *time.Time", v.Kind())
		}
		*t = v.Time()
		return nil
	case nil:
		return fmt.Errorf("opack: cannot unmarshal into nil")
	}
	if ok, err := unmarshalNumber(v, out); ok {
		return err
	}

	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("opack: Unmarshal target must be a non-nil pointer, got %T", out)
	}
	switch rv.Elem().Kind() {
	case reflect.Slice:
		return unmarshalSlice(v, rv)
	case reflect.Map:
		return unmarshalMap(v, rv)
	case reflect.Struct:
		return unmarshalStruct(v, rv)
	}
	return fmt.Errorf("opack: type %T cannot be unmarshaled", out)
}

// unmarshalNumber reports whether out is a pointer to one of the built-in
// numeric types; if so it also populates *out from v, which must be an Int
// or a Float (matching the encoder's negative-integer-as-float rule).
func unmarshalNumber(v Value, out interface{}) (bool, error) {
	var f float64
	var u uint64
	var isInt bool
	switch v.Kind() {
	case KindInt:
		u, isInt = v.Uint(), true
	case KindFloat:
		f = v.Float64()
	default:
		switch out.(type) {
		case *int, *int8, *int16, *int32, *int64,
			*uint, *uint8, *uint16, *uint32, *uint64,
			*float32, *float64:
			return true, fmt.Errorf("opack: cannot unmarshal %s into numeric field", v.Kind())
		default:
			return false, nil
		}
	}

	switch t := out.(type) {
	case *uint:
		if !isInt {
			return true, fmt.Errorf("opack: cannot unmarshal float into *uint")
		}
		*t = uint(u)
	case *uint8:
		if !isInt {
			return true, fmt.Errorf("opack: cannot unmarshal float into *uint8")
		}
		if u > math.MaxUint8 {
			return true, overflowError(u, "uint8")
		}
		*t = uint8(u)
	case *uint16:
		if !isInt {
			return true, fmt.Errorf("opack: cannot unmarshal float into *uint16")
		}
		if u > math.MaxUint16 {
			return true, overflowError(u, "uint16")
		}
		*t = uint16(u)
	case *uint32:
		if !isInt {
			return true, fmt.Errorf("opack: cannot unmarshal float into *uint32")
		}
		if u > math.MaxUint32 {
			return true, overflowError(u, "uint32")
		}
		*t = uint32(u)
	case *uint64:
		if !isInt {
			return true, fmt.Errorf("opack: cannot unmarshal float into *uint64")
		}
		*t = u
	case *int:
		return true, setSignedInt(t, isInt, u, f, math.MaxInt)
	case *int8:
		return true, setSignedInt(t, isInt, u, f, math.MaxInt8)
	case *int16:
		return true, setSignedInt(t, isInt, u, f, math.MaxInt16)
	case *int32:
		return true, setSignedInt(t, isInt, u, f, math.MaxInt32)
	case *int64:
		return true, setSignedInt(t, isInt, u, f, math.MaxInt64)
	case *float32:
		*t = float32(floatOf(isInt, u, f))
	case *float64:
		*t = floatOf(isInt, u, f)
	default:
		return false, nil
	}
	return true, nil
}

// overflowError reports that an Int value's magnitude does not fit in the
// requested narrower unmarshal target, the one case the decoder's own
// IntegerOutOfBounds kind can actually arise from (an encoded Int payload
// itself is always a valid uint64, so Decode never produces it).
func overflowError(u uint64, target string) error {
	return wrapError(IntegerOutOfBounds, -1, fmt.Errorf("%d does not fit in %s", u, target),
		"cannot unmarshal into *%s", target)
}

// signedInt is satisfied by every signed integer unmarshal target; it lets
// setSignedInt share one range-checked conversion across all of them.
type signedInt interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// setSignedInt converts an Int or Float source into a signed target of type
// T, rejecting an Int value whose magnitude overflows max. Floats are
// truncated toward zero, same as the prior unchecked conversion; only the
// isInt path is bounds-checked, since the caller-visible quantity there is a
// uint64 payload that may simply be too large for a narrower Go type. OPack
// integers are never negative (see IntFromInt64), so there is no min to
// check.
func setSignedInt[T signedInt](out *T, isInt bool, u uint64, f float64, max int64) error {
	if isInt {
		if u > uint64(max) {
			return overflowError(u, fmt.Sprintf("%T", *out))
		}
		*out = T(u)
		return nil
	}
	*out = T(int64(f))
	return nil
}

func floatOf(isInt bool, u uint64, f float64) float64 {
	if isInt {
		return float64(u)
	}
	return f
}

// unmarshalSlice decodes an Array value into a slice.
// Precondition: val is a pointer to a reflect.Slice.
func unmarshalSlice(v Value, val reflect.Value) error {
	if v.Kind() != KindArray {
		return fmt.Errorf("opack: cannot unmarshal %s into slice", v.Kind())
	}
	elems := v.Elems()
	etype := val.Elem().Type().Elem()
	out := reflect.MakeSlice(val.Elem().Type(), 0, len(elems))
	for i, ev := range elems {
		elt := reflect.New(etype)
		if err := Unmarshal(ev, elt.Interface()); err != nil {
			return fmt.Errorf("unmarshaling index %d: %w", i, err)
		}
		out = reflect.Append(out, elt.Elem())
	}
	val.Elem().Set(out)
	return nil
}

// unmarshalMap decodes a Dict value into a map.
// Precondition: val is a pointer to a reflect.Map.
func unmarshalMap(v Value, val reflect.Value) error {
	if v.Kind() != KindDict {
		return fmt.Errorf("opack: cannot unmarshal %s into map", v.Kind())
	}
	mtype := val.Elem().Type()
	out := reflect.MakeMapWithSize(mtype, len(v.Entries()))
	ktype, vtype := mtype.Key(), mtype.Elem()
	for _, e := range v.Entries() {
		mkey := reflect.New(ktype)
		if err := Unmarshal(e.Key, mkey.Interface()); err != nil {
			return fmt.Errorf("unmarshaling map key: %w", err)
		}
		mval := reflect.New(vtype)
		if err := Unmarshal(e.Value, mval.Interface()); err != nil {
			return fmt.Errorf("unmarshaling map value: %w", err)
		}
		out.SetMapIndex(mkey.Elem(), mval.Elem())
	}
	val.Elem().Set(out)
	return nil
}

// unmarshalStruct decodes a Dict value into a struct, matching dict keys
// against each field's "opack" tag name.
// Precondition: val is a non-nil pointer to a reflect.Struct.
func unmarshalStruct(v Value, val reflect.Value) error {
	if v.Kind() != KindDict {
		return fmt.Errorf("opack: cannot unmarshal %s into struct", v.Kind())
	}
	fields, err := structFields(val.Elem().Type())
	if err != nil {
		return err
	}
	find := func(name string) *fieldInfo {
		for i := range fields {
			if fields[i].name == name {
				return &fields[i]
			}
		}
		return nil
	}
	for _, e := range v.Entries() {
		if e.Key.Kind() != KindString {
			continue // non-string dict keys cannot match a struct field tag
		}
		fi := find(e.Key.Str())
		if fi == nil {
			continue // skip unknown fields
		}
		target := val.Elem().Field(fi.index).Addr().Interface()
		if err := Unmarshal(e.Value, target); err != nil {
			return fmt.Errorf("unmarshaling field %q: %w", fi.name, err)
		}
	}
	return nil
}
