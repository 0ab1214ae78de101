// Copyright (C) 2020 Michael J. Fromberger. All Rights Reserved.

package opack

import "github.com/google/uuid"

// UID encodes a UUID the way Apple's CoreUtils stack represents identifiers
// that travel over OPack: as a 16-byte Bytes value holding the UUID's raw
// big-endian byte layout, never as a String of its hyphenated text form.
func UID(u uuid.UUID) Value {
	return Bytes(u[:])
}

// AsUID decodes a Value previously produced by UID back into a uuid.UUID.
// It returns an error if v is not a 16-byte Bytes value.
func AsUID(v Value) (uuid.UUID, error) {
	if v.Kind() != KindBytes {
		return uuid.UUID{}, newError(InvalidType, -1, "cannot decode %s as a UID", v.Kind())
	}
	b := v.ByteSlice()
	if len(b) != 16 {
		return uuid.UUID{}, newError(InvalidType, -1, "UID must be 16 bytes, got %d", len(b))
	}
	var u uuid.UUID
	copy(u[:], b)
	return u, nil
}
