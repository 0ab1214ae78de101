// Copyright (C) 2020 Michael J. Fromberger. All Rights Reserved.

// Package opack implements the OPack binary serialization format used by
// Apple's Wi-Fi/AirPlay/CoreUtils stack for cross-process object
// interchange.
//
// An OPack message is a single recursively-encoded Value. Every encoded
// value begins with a one-byte tag that simultaneously selects a dynamic
// type and, for small integers, short strings, short byte strings, and
// small containers, embeds the payload length or value directly in the
// tag. See Encode and Decode for the entry points, and the package-level
// documentation of Value for the supported variants.
package opack

import (
	"bytes"
	"time"
)

// Kind identifies the dynamic type carried by a Value.
type Kind int

const (
	KindBool Kind = iota
	KindTimestamp
	KindInt
	KindFloat
	KindString
	KindBytes
	KindArray
	KindDict

	// kindTerminator is an internal marker used only while encoding and
	// decoding terminator-delimited containers. It is never constructible
	// by callers and never returned from Decode.
	kindTerminator
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindTimestamp:
		return "timestamp"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindArray:
		return "array"
	case KindDict:
		return "dict"
	case kindTerminator:
		return "terminator"
	default:
		return "invalid"
	}
}

// A Value is a tagged union over the eight OPack variants: Bool, Timestamp,
// Int, Float, String, Bytes, Array, and Dict. Construct one with Bool,
// Timestamp, Int, Float, String, Bytes, Array, or Dict. The zero Value has
// Kind KindBool and behaves exactly like Bool(false).
//
// Negative integers have no Int encoding in OPack; use Float, or the
// IntFromInt64 convenience constructor, which re-dispatches negative
// integers to Float the way the encoder requires (see Encode).
type Value struct {
	kind Kind

	boolVal  bool
	timeVal  time.Time
	intVal   uint64
	floatVal float64
	strVal   string
	bytesVal []byte
	arrVal   []Value
	dictVal  []DictEntry
}

// DictEntry is one key/value pair of a Dict value. Order is significant:
// encoding preserves the order given, and decoding preserves wire order.
type DictEntry struct {
	Key   Value
	Value Value
}

// Bool constructs a Bool value.
func Bool(b bool) Value { return Value{kind: KindBool, boolVal: b} }

// Timestamp constructs a Timestamp value. The time is normalized to UTC;
// OPack timestamps have no timezone of their own, only an absolute instant.
func Timestamp(t time.Time) Value { return Value{kind: KindTimestamp, timeVal: t.UTC()} }

// Int constructs an Int value. OPack integers are unsigned; to encode a
// value that may be negative, use Float or IntFromInt64.
func Int(n uint64) Value { return Value{kind: KindInt, intVal: n} }

// IntFromInt64 constructs an Int value for non-negative n, or a Float value
// for negative n. This mirrors the encoder's own re-dispatch rule (§4.2 of
// the format's integer encoding): negative integers are not representable
// as Int and round-trip as Float instead.
func IntFromInt64(n int64) Value {
	if n < 0 {
		return Float(float64(n))
	}
	return Int(uint64(n))
}

// Float constructs a Float value.
func Float(f float64) Value { return Value{kind: KindFloat, floatVal: f} }

// String constructs a String value. s must be valid UTF-8; Encode does not
// re-validate it, but Decode will reject any non-UTF-8 string payload it
// reads back.
func String(s string) Value { return Value{kind: KindString, strVal: s} }

// Bytes constructs a Bytes value. The payload is copied.
func Bytes(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{kind: KindBytes, bytesVal: cp}
}

// Array constructs an Array value from an ordered sequence of elements.
func Array(elems []Value) Value { return Value{kind: KindArray, arrVal: elems} }

// Dict constructs a Dict value from an ordered sequence of key/value pairs.
func Dict(entries []DictEntry) Value { return Value{kind: KindDict, dictVal: entries} }

func terminatorValue() Value { return Value{kind: kindTerminator} }

// Kind reports the dynamic type of v.
func (v Value) Kind() Kind { return v.kind }

// Bool returns the boolean payload of v. It panics if v is not a Bool.
func (v Value) Bool() bool {
	v.mustBe(KindBool)
	return v.boolVal
}

// Time returns the timestamp payload of v. It panics if v is not a Timestamp.
func (v Value) Time() time.Time {
	v.mustBe(KindTimestamp)
	return v.timeVal
}

// Uint returns the integer payload of v. It panics if v is not an Int.
func (v Value) Uint() uint64 {
	v.mustBe(KindInt)
	return v.intVal
}

// Float64 returns the float payload of v. It panics if v is not a Float.
func (v Value) Float64() float64 {
	v.mustBe(KindFloat)
	return v.floatVal
}

// Str returns the string payload of v. It panics if v is not a String.
func (v Value) Str() string {
	v.mustBe(KindString)
	return v.strVal
}

// ByteSlice returns the byte-string payload of v. It panics if v is not Bytes.
func (v Value) ByteSlice() []byte {
	v.mustBe(KindBytes)
	return v.bytesVal
}

// Elems returns the element sequence of v. It panics if v is not an Array.
func (v Value) Elems() []Value {
	v.mustBe(KindArray)
	return v.arrVal
}

// Entries returns the key/value sequence of v. It panics if v is not a Dict.
func (v Value) Entries() []DictEntry {
	v.mustBe(KindDict)
	return v.dictVal
}

func (v Value) isTerminator() bool { return v.kind == kindTerminator }

func (v Value) mustBe(k Kind) {
	if v.kind != k {
		panic("opack: Value is a " + v.kind.String() + ", not a " + k.String())
	}
}

// Equal reports whether v and o are structurally equal: same Kind, and
// recursively equal payloads. Floats are compared with ==, so NaN never
// equals itself, and +0/-0 compare equal, matching Go's own float semantics.
// Timestamps are compared with time.Time.Equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.boolVal == o.boolVal
	case KindTimestamp:
		return v.timeVal.Equal(o.timeVal)
	case KindInt:
		return v.intVal == o.intVal
	case KindFloat:
		return v.floatVal == o.floatVal
	case KindString:
		return v.strVal == o.strVal
	case KindBytes:
		return bytes.Equal(v.bytesVal, o.bytesVal)
	case KindArray:
		if len(v.arrVal) != len(o.arrVal) {
			return false
		}
		for i := range v.arrVal {
			if !v.arrVal[i].Equal(o.arrVal[i]) {
				return false
			}
		}
		return true
	case KindDict:
		if len(v.dictVal) != len(o.dictVal) {
			return false
		}
		for i := range v.dictVal {
			if !v.dictVal[i].Key.Equal(o.dictVal[i].Key) || !v.dictVal[i].Value.Equal(o.dictVal[i].Value) {
				return false
			}
		}
		return true
	case kindTerminator:
		return true
	default:
		return false
	}
}

// opackEpoch is the reference instant for Timestamp encoding: midnight UTC
// on January 1, 1904, the classic Mac OS / Core Foundation epoch.
var opackEpoch = time.Date(1904, time.January, 1, 0, 0, 0, 0, time.UTC)
