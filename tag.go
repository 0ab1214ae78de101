// Copyright (C) 2020 Michael J. Fromberger. All Rights Reserved.

package opack

// category is the disjoint classification of a wire tag byte (spec §3.2).
type category int

const (
	catBool category = iota
	catTerminator
	catTimestamp
	catIntInline
	catIntU8
	catIntU32
	catIntU64
	catFloat32
	catFloat64
	catStringShort
	catStringLen
	catBytesShort
	catBytesLen
	catArrayLen
	catArrayTerm
	catDictLen
	catDictTerm
)

// tagInfo is the result of classifying a tag byte: its category plus any
// parameters the category's payload needs (an inline value or length, or
// the byte width of a following length prefix).
type tagInfo struct {
	cat      category
	n        int // inline value (Int), embedded length (short string/bytes), or element/pair count (containers)
	lenBytes int // width in bytes of a following length prefix, for *Len categories
}

// classifyTag is the pure tag classifier: byte -> (category, parameters).
// Bytes outside every recognized range report InvalidType.
func classifyTag(tag byte) (tagInfo, bool) {
	switch {
	case tag == 0x01, tag == 0x02:
		return tagInfo{cat: catBool}, true
	case tag == 0x03:
		return tagInfo{cat: catTerminator}, true
	case tag == 0x06:
		return tagInfo{cat: catTimestamp}, true
	case tag >= 0x08 && tag <= 0x2F:
		return tagInfo{cat: catIntInline, n: int(tag - 0x08)}, true
	case tag == 0x30:
		return tagInfo{cat: catIntU8}, true
	case tag == 0x32:
		return tagInfo{cat: catIntU32}, true
	case tag == 0x33:
		return tagInfo{cat: catIntU64}, true
	case tag == 0x35:
		return tagInfo{cat: catFloat32}, true
	case tag == 0x36:
		return tagInfo{cat: catFloat64}, true
	case tag >= 0x40 && tag <= 0x60:
		return tagInfo{cat: catStringShort, n: int(tag - 0x40)}, true
	case tag == 0x61:
		return tagInfo{cat: catStringLen, lenBytes: 1}, true
	case tag == 0x62:
		return tagInfo{cat: catStringLen, lenBytes: 2}, true
	case tag == 0x63:
		return tagInfo{cat: catStringLen, lenBytes: 4}, true
	case tag == 0x64:
		return tagInfo{cat: catStringLen, lenBytes: 8}, true
	case tag >= 0x70 && tag <= 0x90:
		return tagInfo{cat: catBytesShort, n: int(tag - 0x70)}, true
	case tag == 0x91:
		return tagInfo{cat: catBytesLen, lenBytes: 1}, true
	case tag == 0x92:
		return tagInfo{cat: catBytesLen, lenBytes: 2}, true
	case tag == 0x93:
		return tagInfo{cat: catBytesLen, lenBytes: 4}, true
	case tag == 0x94:
		return tagInfo{cat: catBytesLen, lenBytes: 8}, true
	case tag >= 0xD0 && tag <= 0xDE:
		return tagInfo{cat: catArrayLen, n: int(tag - 0xD0)}, true
	case tag == 0xDF:
		return tagInfo{cat: catArrayTerm}, true
	case tag >= 0xE0 && tag <= 0xEE:
		return tagInfo{cat: catDictLen, n: int(tag - 0xE0)}, true
	case tag == 0xEF:
		return tagInfo{cat: catDictTerm}, true
	default:
		return tagInfo{}, false
	}
}
