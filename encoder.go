// Copyright (C) 2020 Michael J. Fromberger. All Rights Reserved.

package opack

import (
	"bytes"
	"encoding/binary"
	"math"
	"time"
)

// DefaultMaxDepth bounds the recursion depth of Encode and Decode, to
// protect against stack exhaustion on adversarial or malformed input.
// Array and dict nesting beyond this depth fails with TooDeep.
const DefaultMaxDepth = 1024

// Encode serializes v to its OPack wire representation. It fails with
// TooDeep when v nests deeper than DefaultMaxDepth. It never returns
// IntegerOutOfBounds (an Int payload is always a valid uint64) or
// BytesTooLarge (a slice length is always below 2^64-1).
//
// Encode is a thin wrapper: all of the real work — choosing the smallest
// adequate tag for each value and recursing into containers — happens in
// the unexported encodeValue, mirroring how a single encoded value is
// really just a tag byte followed by a category-specific payload.
func Encode(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v, 1); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeValue(w *bytes.Buffer, v Value, depth int) error {
	if depth > DefaultMaxDepth {
		return newError(TooDeep, -1, "recursion depth %d exceeds limit %d", depth, DefaultMaxDepth)
	}
	switch v.kind {
	case KindBool:
		return encodeBool(w, v.boolVal)
	case KindTimestamp:
		return encodeTimestamp(w, v.timeVal)
	case KindInt:
		return encodeInt(w, v.intVal)
	case KindFloat:
		return encodeFloat(w, v.floatVal)
	case KindString:
		return encodeString(w, v.strVal)
	case KindBytes:
		return encodeBytes(w, v.bytesVal)
	case KindArray:
		return encodeArray(w, v.arrVal, depth)
	case KindDict:
		return encodeDict(w, v.dictVal, depth)
	default:
		return newError(InvalidType, -1, "cannot encode a %s value", v.kind)
	}
}

func encodeBool(w *bytes.Buffer, b bool) error {
	if b {
		return w.WriteByte(0x01)
	}
	return w.WriteByte(0x02)
}

// encodeTimestamp writes the 8-byte little-endian float64 number of seconds
// since the 1904 epoch (§3.2), matching the reference implementation's
// Timestamp(Float64l, 1, 1904) construct exactly.
func encodeTimestamp(w *bytes.Buffer, t time.Time) error {
	if err := w.WriteByte(0x06); err != nil {
		return err
	}
	secs := t.UTC().Sub(opackEpoch).Seconds()
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(secs))
	_, err := w.Write(b[:])
	return err
}

func encodeArray(w *bytes.Buffer, elems []Value, depth int) error {
	k := len(elems)
	if k < 15 {
		if err := w.WriteByte(byte(0xD0 + k)); err != nil {
			return err
		}
		for _, el := range elems {
			if err := encodeValue(w, el, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := w.WriteByte(0xDF); err != nil {
		return err
	}
	for _, el := range elems {
		if err := encodeValue(w, el, depth+1); err != nil {
			return err
		}
	}
	return w.WriteByte(0x03)
}

func encodeDict(w *bytes.Buffer, entries []DictEntry, depth int) error {
	k := len(entries)
	if k < 15 {
		if err := w.WriteByte(byte(0xE0 + k)); err != nil {
			return err
		}
		for _, e := range entries {
			if err := encodeValue(w, e.Key, depth+1); err != nil {
				return err
			}
			if err := encodeValue(w, e.Value, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := w.WriteByte(0xEF); err != nil {
		return err
	}
	for _, e := range entries {
		if err := encodeValue(w, e.Key, depth+1); err != nil {
			return err
		}
		if err := encodeValue(w, e.Value, depth+1); err != nil {
			return err
		}
	}
	return w.WriteByte(0x03)
}

func encodeInt(w *bytes.Buffer, n uint64) error {
	switch {
	case n <= 0x27:
		return w.WriteByte(byte(0x08 + n))
	case n < 1<<8:
		if err := w.WriteByte(0x30); err != nil {
			return err
		}
		return w.WriteByte(byte(n))
	case n < 1<<32:
		if err := w.WriteByte(0x32); err != nil {
			return err
		}
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(n))
		_, err := w.Write(b[:])
		return err
	default:
		if err := w.WriteByte(0x33); err != nil {
			return err
		}
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], n)
		_, err := w.Write(b[:])
		return err
	}
}

// encodeFloat chooses the smallest IEEE-754 width that round-trips f
// exactly: binary32 if truncating to float32 and back yields the identical
// bit pattern, binary64 otherwise. NaN payloads are never equal to
// themselves under ==, so a NaN always takes the 8-byte path — matching
// the reference implementation's struct.pack/unpack round-trip check.
func encodeFloat(w *bytes.Buffer, f float64) error {
	if float64(float32(f)) == f {
		if err := w.WriteByte(0x35); err != nil {
			return err
		}
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(float32(f)))
		_, err := w.Write(b[:])
		return err
	}
	if err := w.WriteByte(0x36); err != nil {
		return err
	}
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(f))
	_, err := w.Write(b[:])
	return err
}

func encodeString(w *bytes.Buffer, s string) error {
	data := []byte(s)
	n := len(data)
	switch {
	case n <= 0x20:
		if err := w.WriteByte(byte(0x40 + n)); err != nil {
			return err
		}
	case n <= 0xFF:
		if err := w.WriteByte(0x61); err != nil {
			return err
		}
		if err := w.WriteByte(byte(n)); err != nil {
			return err
		}
	case n <= 0xFFFF:
		if err := w.WriteByte(0x62); err != nil {
			return err
		}
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(n))
		if _, err := w.Write(b[:]); err != nil {
			return err
		}
	case uint64(n) < 1<<32:
		if err := w.WriteByte(0x63); err != nil {
			return err
		}
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(n))
		if _, err := w.Write(b[:]); err != nil {
			return err
		}
	default:
		if err := w.WriteByte(0x64); err != nil {
			return err
		}
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], uint64(n))
		if _, err := w.Write(b[:]); err != nil {
			return err
		}
	}
	_, err := w.Write(data)
	return err
}

func encodeBytes(w *bytes.Buffer, data []byte) error {
	n := len(data)
	switch {
	case n <= 0x20:
		if err := w.WriteByte(byte(0x70 + n)); err != nil {
			return err
		}
	case n <= 0xFF:
		if err := w.WriteByte(0x91); err != nil {
			return err
		}
		if err := w.WriteByte(byte(n)); err != nil {
			return err
		}
	case n <= 0xFFFF:
		if err := w.WriteByte(0x92); err != nil {
			return err
		}
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(n))
		if _, err := w.Write(b[:]); err != nil {
			return err
		}
	case uint64(n) < 1<<32:
		if err := w.WriteByte(0x93); err != nil {
			return err
		}
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(n))
		if _, err := w.Write(b[:]); err != nil {
			return err
		}
	default:
		// A Go slice can never exceed math.MaxInt bytes, which is always
		// less than 2^64-1, so this 8-byte length-prefix form is always
		// adequate; BytesTooLarge exists for the taxonomy's sake (spec §7)
		// but is unreachable from this platform's slice length limit.
		if err := w.WriteByte(0x94); err != nil {
			return err
		}
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], uint64(n))
		if _, err := w.Write(b[:]); err != nil {
			return err
		}
	}
	_, err := w.Write(data)
	return err
}
