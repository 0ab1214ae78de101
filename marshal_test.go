// Copyright (C) 2020 Michael J. Fromberger. All Rights Reserved.

package opack_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loriwitt/opack"
)

type peer struct {
	Name    string   `opack:"name"`
	Aliases []string `opack:"aliases"`
	Port    int      `opack:"port"`
	Trusted bool     `opack:"trusted"`
	private string   // no opack tag: never marshaled
}

func TestMarshalStructRoundTrip(t *testing.T) {
	in := peer{
		Name:    "Harcourt Fenton Mudd",
		Aliases: []string{"dalmatians", "skeeziness"},
		Port:    9001,
		Trusted: true,
		private: "not visible on the wire",
	}

	v, err := opack.Marshal(in)
	require.NoError(t, err)
	require.Equal(t, opack.KindDict, v.Kind())

	bits, err := opack.Encode(v)
	require.NoError(t, err)

	back, err := opack.Decode(bits)
	require.NoError(t, err)

	var out peer
	require.NoError(t, opack.Unmarshal(back, &out))

	assert.Equal(t, in.Name, out.Name)
	assert.Equal(t, in.Aliases, out.Aliases)
	assert.Equal(t, in.Port, out.Port)
	assert.Equal(t, in.Trusted, out.Trusted)
	assert.Empty(t, out.private, "unexported field must never round-trip")
}

func TestMarshalNegativeIntBecomesFloat(t *testing.T) {
	v, err := opack.Marshal(-5)
	require.NoError(t, err)
	assert.Equal(t, opack.KindFloat, v.Kind())
	assert.Equal(t, float64(-5), v.Float64())
}

func TestMarshalMapRoundTrip(t *testing.T) {
	in := map[string]int{"horse": 1, "cake": 2}
	v, err := opack.Marshal(in)
	require.NoError(t, err)

	bits, err := opack.Encode(v)
	require.NoError(t, err)
	back, err := opack.Decode(bits)
	require.NoError(t, err)

	var out map[string]int
	require.NoError(t, opack.Unmarshal(back, &out))
	assert.Equal(t, in, out)
}

func TestMarshalTimestamp(t *testing.T) {
	want := time.Date(2024, time.June, 1, 12, 30, 0, 0, time.UTC)
	v, err := opack.Marshal(want)
	require.NoError(t, err)
	require.Equal(t, opack.KindTimestamp, v.Kind())

	bits, err := opack.Encode(v)
	require.NoError(t, err)
	back, err := opack.Decode(bits)
	require.NoError(t, err)
	assert.True(t, back.Time().Equal(want))
}

func TestUnmarshalKindMismatch(t *testing.T) {
	var out string
	err := opack.Unmarshal(opack.Int(5), &out)
	assert.Error(t, err)
}
