// Copyright (C) 2020 Michael J. Fromberger. All Rights Reserved.

package opack

import (
	"encoding/binary"
	"math"
	"time"
	"unicode/utf8"
)

// Decode parses a single top-level Value from data. Trailing bytes after
// that value are rejected with TrailingData; decode failures never return a
// partial value. It may fail with InvalidType, UnexpectedEndOfInput,
// InvalidUtf8, TrailingData, or TooDeep.
//
// Like Encode, Decode is a thin wrapper around the recursive decodeValue,
// which does the actual tag dispatch.
func Decode(data []byte) (Value, error) {
	d := &decoder{data: data}
	v, err := d.next()
	if err != nil {
		return Value{}, err
	}
	if d.pos != len(d.data) {
		return Value{}, newError(TrailingData, d.pos, "%d byte(s) remain after top-level value", len(d.data)-d.pos)
	}
	return v, nil
}

// decoder walks data with a monotonically advancing read cursor.
type decoder struct {
	data  []byte
	pos   int
	depth int
}

// next decodes one Value and rejects a terminator sentinel in that
// position — the cases where a terminator is legal (as an array-terminated
// element, or the key of a dict-terminated pair) check for it themselves
// by calling decodeValue directly instead of next.
func (d *decoder) next() (Value, error) {
	v, err := d.decodeValue()
	if err != nil {
		return Value{}, err
	}
	if v.isTerminator() {
		return Value{}, newError(InvalidType, d.pos, "unexpected terminator")
	}
	return v, nil
}

func (d *decoder) decodeValue() (Value, error) {
	d.depth++
	defer func() { d.depth-- }()
	if d.depth > DefaultMaxDepth {
		return Value{}, newError(TooDeep, d.pos, "recursion depth %d exceeds limit %d", d.depth, DefaultMaxDepth)
	}

	tagPos := d.pos
	tag, err := d.readByte()
	if err != nil {
		return Value{}, err
	}
	info, ok := classifyTag(tag)
	if !ok {
		return Value{}, newError(InvalidType, tagPos, "invalid tag byte 0x%02x", tag)
	}

	switch info.cat {
	case catBool:
		return Bool(tag == 0x01), nil
	case catTerminator:
		return terminatorValue(), nil
	case catTimestamp:
		return d.decodeTimestamp()
	case catIntInline:
		return Int(uint64(info.n)), nil
	case catIntU8:
		b, err := d.readByte()
		if err != nil {
			return Value{}, err
		}
		return Int(uint64(b)), nil
	case catIntU32:
		b, err := d.readBytes(4)
		if err != nil {
			return Value{}, err
		}
		return Int(uint64(binary.LittleEndian.Uint32(b))), nil
	case catIntU64:
		b, err := d.readBytes(8)
		if err != nil {
			return Value{}, err
		}
		return Int(binary.LittleEndian.Uint64(b)), nil
	case catFloat32:
		b, err := d.readBytes(4)
		if err != nil {
			return Value{}, err
		}
		return Float(float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))), nil
	case catFloat64:
		b, err := d.readBytes(8)
		if err != nil {
			return Value{}, err
		}
		return Float(math.Float64frombits(binary.LittleEndian.Uint64(b))), nil
	case catStringShort:
		return d.decodeString(info.n)
	case catStringLen:
		n, err := d.readLength(info.lenBytes)
		if err != nil {
			return Value{}, err
		}
		return d.decodeString(n)
	case catBytesShort:
		return d.decodeBytes(info.n)
	case catBytesLen:
		n, err := d.readLength(info.lenBytes)
		if err != nil {
			return Value{}, err
		}
		return d.decodeBytes(n)
	case catArrayLen:
		return d.decodeArrayCounted(info.n)
	case catArrayTerm:
		return d.decodeArrayTerminated()
	case catDictLen:
		return d.decodeDictCounted(info.n)
	case catDictTerm:
		return d.decodeDictTerminated()
	default:
		return Value{}, newError(InvalidType, tagPos, "invalid tag byte 0x%02x", tag)
	}
}

func (d *decoder) decodeTimestamp() (Value, error) {
	b, err := d.readBytes(8)
	if err != nil {
		return Value{}, err
	}
	secs := math.Float64frombits(binary.LittleEndian.Uint64(b))
	return Timestamp(opackEpoch.Add(time.Duration(secs * float64(time.Second)))), nil
}

func (d *decoder) decodeString(n int) (Value, error) {
	b, err := d.readBytes(n)
	if err != nil {
		return Value{}, err
	}
	if !utf8.Valid(b) {
		return Value{}, newError(InvalidUtf8, d.pos-n, "string payload is not valid UTF-8")
	}
	return String(string(b)), nil
}

func (d *decoder) decodeBytes(n int) (Value, error) {
	b, err := d.readBytes(n)
	if err != nil {
		return Value{}, err
	}
	return Bytes(b), nil
}

func (d *decoder) decodeArrayCounted(n int) (Value, error) {
	elems := make([]Value, 0, n)
	for i := 0; i < n; i++ {
		v, err := d.next()
		if err != nil {
			return Value{}, err
		}
		elems = append(elems, v)
	}
	return Array(elems), nil
}

func (d *decoder) decodeArrayTerminated() (Value, error) {
	var elems []Value
	for {
		v, err := d.decodeValue()
		if err != nil {
			return Value{}, err
		}
		if v.isTerminator() {
			return Array(elems), nil
		}
		elems = append(elems, v)
	}
}

func (d *decoder) decodeDictCounted(n int) (Value, error) {
	entries := make([]DictEntry, 0, n)
	for i := 0; i < n; i++ {
		key, err := d.next()
		if err != nil {
			return Value{}, err
		}
		val, err := d.next()
		if err != nil {
			return Value{}, err
		}
		entries = append(entries, DictEntry{Key: key, Value: val})
	}
	return Dict(entries), nil
}

func (d *decoder) decodeDictTerminated() (Value, error) {
	var entries []DictEntry
	for {
		key, err := d.decodeValue()
		if err != nil {
			return Value{}, err
		}
		if key.isTerminator() {
			return Dict(entries), nil
		}
		val, err := d.next()
		if err != nil {
			return Value{}, err
		}
		entries = append(entries, DictEntry{Key: key, Value: val})
	}
}

// readLength reads a big-endian length prefix of the given width. The
// length-prefix widths can legally be 8 bytes wide; on a 32-bit platform a
// length that large cannot fit in an int, which is reported as
// UnexpectedEndOfInput since the caller cannot possibly have that many
// bytes available either way.
func (d *decoder) readLength(width int) (int, error) {
	pos := d.pos
	b, err := d.readBytes(width)
	if err != nil {
		return 0, err
	}
	var n uint64
	for _, c := range b {
		n = n<<8 | uint64(c)
	}
	if n > uint64(^uint(0)>>1) {
		return 0, newError(UnexpectedEndOfInput, pos, "length %d is too large to read", n)
	}
	return int(n), nil
}

func (d *decoder) readByte() (byte, error) {
	if d.pos >= len(d.data) {
		return 0, newError(UnexpectedEndOfInput, d.pos, "expected 1 more byte")
	}
	b := d.data[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) readBytes(n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	// Compare against the remaining length rather than d.pos+n, which can
	// overflow int for a large n read from an 8-byte length prefix and
	// wrap around to a small or negative value, letting an out-of-range
	// slice expression through.
	if n < 0 || n > len(d.data)-d.pos {
		return nil, newError(UnexpectedEndOfInput, d.pos, "expected %d more byte(s)", n)
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}
