// Copyright (C) 2020 Michael J. Fromberger. All Rights Reserved.

package opackplist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loriwitt/opack"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	in := opack.Dict([]opack.DictEntry{
		{Key: opack.String("name"), Value: opack.String("Data General Nova")},
		{Key: opack.String("online"), Value: opack.Bool(true)},
		{Key: opack.String("ports"), Value: opack.Array([]opack.Value{opack.Int(22), opack.Int(80)})},
	})

	bits, err := Marshal(in)
	require.NoError(t, err)
	require.Contains(t, string(bits), "<plist")

	back, err := Unmarshal(bits)
	require.NoError(t, err)

	assertDictHasString(t, back, "name", "Data General Nova")
	assertDictHasBool(t, back, "online", true)
}

func TestMarshalRejectsNonStringDictKey(t *testing.T) {
	in := opack.Dict([]opack.DictEntry{{Key: opack.Int(1), Value: opack.Bool(true)}})
	_, err := Marshal(in)
	assert.Error(t, err, "plist dictionaries require string keys")
}

func TestMarshalIndentTimestamp(t *testing.T) {
	in := opack.Timestamp(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))
	bits, err := MarshalIndent(in, "  ")
	require.NoError(t, err)
	assert.Contains(t, string(bits), "<date>")
}

func assertDictHasString(t *testing.T, v opack.Value, key, want string) {
	t.Helper()
	for _, e := range v.Entries() {
		if e.Key.Str() == key {
			assert.Equal(t, want, e.Value.Str())
			return
		}
	}
	t.Errorf("dict has no key %q", key)
}

func assertDictHasBool(t *testing.T, v opack.Value, key string, want bool) {
	t.Helper()
	for _, e := range v.Entries() {
		if e.Key.Str() == key {
			assert.Equal(t, want, e.Value.Bool())
			return
		}
	}
	t.Errorf("dict has no key %q", key)
}
