// Copyright (C) 2020 Michael J. Fromberger. All Rights Reserved.

package opack

import (
	"errors"
	"testing"
)

func TestDecodeInvalidTag(t *testing.T) {
	invalid := []byte{0x00, 0x04, 0x05, 0x07, 0x31, 0x34, 0x37, 0x65, 0x95, 0xF0}
	for _, tag := range invalid {
		_, err := Decode([]byte{tag, 0x00})
		if err == nil {
			t.Errorf("Decode(0x%02x ...): got nil error, want InvalidType", tag)
			continue
		}
		var oe *Error
		if !errors.As(err, &oe) || oe.Kind != InvalidType {
			t.Errorf("Decode(0x%02x ...): err = %v, want InvalidType", tag, err)
		}
	}
}

func TestDecodeTruncated(t *testing.T) {
	tests := [][]byte{
		{0x30},       // u8 int missing payload
		{0x32, 0x00}, // u32 int missing 3 bytes
		{0x41},       // string length 1, missing the byte
		{0xD1},       // array of 1, missing the element
		// Bytes length-prefix claiming far more data than can exist: the
		// 8-byte big-endian length 0x7FFFFFFFFFFFFFFF must be rejected as
		// UnexpectedEndOfInput, not panic on an overflowing slice bound.
		{0x94, 0x7F, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
		// Same overflow hazard on the string length-prefix path.
		{0x64, 0x7F, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
	}
	for _, input := range tests {
		_, err := Decode(input)
		if err == nil {
			t.Errorf("Decode(% X): got nil error, want UnexpectedEndOfInput", input)
			continue
		}
		var oe *Error
		if !errors.As(err, &oe) || oe.Kind != UnexpectedEndOfInput {
			t.Errorf("Decode(% X): err = %v, want UnexpectedEndOfInput", input, err)
		}
	}
}

func TestDecodeTrailingData(t *testing.T) {
	_, err := Decode([]byte{0x09, 0x09})
	var oe *Error
	if !errors.As(err, &oe) || oe.Kind != TrailingData {
		t.Errorf("Decode trailing bytes: err = %v, want TrailingData", err)
	}
}

func TestDecodeInvalidUtf8(t *testing.T) {
	// String short, length 1, payload 0xFF is not valid UTF-8.
	_, err := Decode([]byte{0x41, 0xFF})
	var oe *Error
	if !errors.As(err, &oe) || oe.Kind != InvalidUtf8 {
		t.Errorf("Decode invalid utf8: err = %v, want InvalidUtf8", err)
	}
}

func TestDecodeBareTerminatorRejected(t *testing.T) {
	_, err := Decode([]byte{0x03})
	var oe *Error
	if !errors.As(err, &oe) || oe.Kind != InvalidType {
		t.Errorf("Decode(03): err = %v, want InvalidType", err)
	}
}

func TestDecodeTerminatorAsDictValueRejected(t *testing.T) {
	// Dict length-tagged with 1 entry, key=1, value=terminator: invalid.
	_, err := Decode([]byte{0xE1, 0x09, 0x03})
	var oe *Error
	if !errors.As(err, &oe) || oe.Kind != InvalidType {
		t.Errorf("Decode(dict value terminator): err = %v, want InvalidType", err)
	}
}

func TestDecodeInvalidInputVector(t *testing.T) {
	// The literal invalid-input scenario from the format's own test suite:
	// the leading tag 0x04 is invalid, so decoding fails on the first byte.
	_, err := Decode([]byte{0x04, 0x04})
	var oe *Error
	if !errors.As(err, &oe) || oe.Kind != InvalidType {
		t.Errorf("Decode(04 04): err = %v, want InvalidType", err)
	}
}

func TestDecodeTooDeep(t *testing.T) {
	// DefaultMaxDepth+10 nested single-element arrays, each tag 0xD1, with an
	// inline int at the bottom: one byte 0xD1 per level plus a final 0x09.
	depth := DefaultMaxDepth + 10
	input := make([]byte, 0, depth+1)
	for i := 0; i < depth; i++ {
		input = append(input, 0xD1)
	}
	input = append(input, 0x09)

	_, err := Decode(input)
	var oe *Error
	if !errors.As(err, &oe) || oe.Kind != TooDeep {
		t.Errorf("Decode(deeply nested array): err = %v, want TooDeep", err)
	}
}

func TestDecodeComplexList(t *testing.T) {
	// Matches the reference implementation's mixed-type list test vector.
	want := Array([]Value{
		Bool(true), Bool(false), Int(1), Float(-1),
		Array([]Value{Int(1)}),
		Dict([]DictEntry{{Key: Int(5), Value: Int(5)}}),
		Bytes([]byte("a")), Int(1 << 8), Bool(true), Float(-100), Bool(false), Bool(true),
		Float(0.3), String("hello"), String("world"),
	})
	wire := []byte{
		0xDF, 0x01, 0x02, 0x09, 0x35, 0x00, 0x00, 0x80, 0xBF, 0xD1, 0x09, 0xE1, 0x0D, 0x0D,
		0x71, 'a', 0x32, 0x00, 0x01, 0x00, 0x00, 0x01, 0x35, 0x00, 0x00, 0xC8, 0xC2, 0x02,
		0x01, 0x36, 0x33, 0x33, 0x33, 0x33, 0x33, 0x33, 0xD3, 0x3F, 0x45, 'h', 'e', 'l', 'l', 'o',
		0x45, 'w', 'o', 'r', 'l', 'd', 0x03,
	}
	got, err := Decode(wire)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !got.Equal(want) {
		t.Errorf("Decode(complex list) = %+v, want %+v", got, want)
	}

	enc, err := Encode(want)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if string(enc) != string(wire) {
		t.Errorf("Encode(complex list) = % X, want % X", enc, wire)
	}
}
