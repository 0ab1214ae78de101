// Copyright (C) 2020 Michael J. Fromberger. All Rights Reserved.

// Package opackplist bridges OPack value trees and Apple property lists,
// so a payload decoded off the wire with opack.Decode can be re-rendered as
// XML plist text (and vice versa) without hand-writing a second codec.
package opackplist

import (
	"fmt"
	"time"

	"github.com/groob/plist"

	"github.com/loriwitt/opack"
)

// Marshal renders v as an XML property list.
func Marshal(v opack.Value) ([]byte, error) {
	generic, err := toGeneric(v)
	if err != nil {
		return nil, fmt.Errorf("opackplist: %w", err)
	}
	return plist.Marshal(generic)
}

// MarshalIndent is Marshal but pretty-prints the XML with the given indent
// prefix, as plist.MarshalIndent does.
func MarshalIndent(v opack.Value, indent string) ([]byte, error) {
	generic, err := toGeneric(v)
	if err != nil {
		return nil, fmt.Errorf("opackplist: %w", err)
	}
	return plist.MarshalIndent(generic, indent)
}

// Unmarshal parses XML property list data into an OPack value tree. Plist
// dictionaries become Dict values keyed by string; plist arrays become
// Array values; plist data, string, integer, real, bool and date nodes map
// onto the corresponding OPack kinds.
func Unmarshal(data []byte) (opack.Value, error) {
	var generic interface{}
	if err := plist.Unmarshal(data, &generic); err != nil {
		return opack.Value{}, fmt.Errorf("opackplist: %w", err)
	}
	return fromGeneric(generic)
}

// toGeneric converts an OPack value into the interface{} shape the groob/
// plist encoder expects: maps, slices, and the handful of scalar types it
// knows how to render as plist elements.
func toGeneric(v opack.Value) (interface{}, error) {
	switch v.Kind() {
	case opack.KindBool:
		return v.Bool(), nil
	case opack.KindTimestamp:
		return v.Time(), nil
	case opack.KindInt:
		return v.Uint(), nil
	case opack.KindFloat:
		return v.Float64(), nil
	case opack.KindString:
		return v.Str(), nil
	case opack.KindBytes:
		return v.ByteSlice(), nil
	case opack.KindArray:
		elems := v.Elems()
		out := make([]interface{}, len(elems))
		for i, e := range elems {
			g, err := toGeneric(e)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = g
		}
		return out, nil
	case opack.KindDict:
		out := make(map[string]interface{}, len(v.Entries()))
		for _, e := range v.Entries() {
			if e.Key.Kind() != opack.KindString {
				return nil, fmt.Errorf("dict key of kind %s has no plist representation", e.Key.Kind())
			}
			g, err := toGeneric(e.Value)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", e.Key.Str(), err)
			}
			out[e.Key.Str()] = g
		}
		return out, nil
	default:
		return nil, fmt.Errorf("value of kind %s has no plist representation", v.Kind())
	}
}

// fromGeneric is the inverse of toGeneric, applied to whatever Go values
// the plist decoder produced for an unmarshaled document.
func fromGeneric(i interface{}) (opack.Value, error) {
	switch t := i.(type) {
	case nil:
		return opack.Value{}, fmt.Errorf("plist node has no value")
	case map[string]interface{}:
		entries := make([]opack.DictEntry, 0, len(t))
		for k, raw := range t {
			ev, err := fromGeneric(raw)
			if err != nil {
				return opack.Value{}, fmt.Errorf("key %q: %w", k, err)
			}
			entries = append(entries, opack.DictEntry{Key: opack.String(k), Value: ev})
		}
		return opack.Dict(entries), nil
	case []interface{}:
		elems := make([]opack.Value, len(t))
		for idx, raw := range t {
			ev, err := fromGeneric(raw)
			if err != nil {
				return opack.Value{}, fmt.Errorf("element %d: %w", idx, err)
			}
			elems[idx] = ev
		}
		return opack.Array(elems), nil
	case time.Time:
		return opack.Timestamp(t), nil
	case []byte:
		return opack.Bytes(t), nil
	default:
		return opack.Marshal(t)
	}
}
