// Copyright (C) 2020 Michael J. Fromberger. All Rights Reserved.

// Command opackdump decodes and encodes OPack binary values from the
// command line, and bridges them to JSON and Apple property lists for
// inspection.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/loriwitt/opack"
	"github.com/loriwitt/opack/opackplist"
)

var logger = log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))

func main() {
	app := cli.NewApp()
	app.Name = "opackdump"
	app.Usage = "inspect and produce OPack binary values"
	app.Commands = []cli.Command{
		{
			Name:      "decode",
			Usage:     "decode an OPack value and print it as JSON",
			ArgsUsage: "[file]",
			Action:    decodeCommand,
		},
		{
			Name:      "encode-json",
			Usage:     "encode a JSON document as an OPack value",
			ArgsUsage: "[file]",
			Action:    encodeJSONCommand,
		},
		{
			Name:      "to-plist",
			Usage:     "decode an OPack value and render it as an XML property list",
			ArgsUsage: "[file]",
			Action:    toPlistCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		level.Error(logger).Log("msg", "opackdump failed", "err", err)
		os.Exit(1)
	}
}

func decodeCommand(c *cli.Context) error {
	data, err := readInput(c)
	if err != nil {
		return errors.Wrap(err, "reading input")
	}
	v, err := opack.Decode(data)
	if err != nil {
		return errors.Wrap(err, "decoding OPack value")
	}
	generic, err := valueToJSON(v)
	if err != nil {
		return errors.Wrap(err, "rendering value as JSON")
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(generic)
}

func encodeJSONCommand(c *cli.Context) error {
	data, err := readInput(c)
	if err != nil {
		return errors.Wrap(err, "reading input")
	}
	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return errors.Wrap(err, "parsing JSON")
	}
	v, err := opack.Marshal(generic)
	if err != nil {
		return errors.Wrap(err, "marshaling to an OPack value")
	}
	bits, err := opack.Encode(v)
	if err != nil {
		return errors.Wrap(err, "encoding OPack value")
	}
	_, err = os.Stdout.Write(bits)
	return err
}

func toPlistCommand(c *cli.Context) error {
	data, err := readInput(c)
	if err != nil {
		return errors.Wrap(err, "reading input")
	}
	v, err := opack.Decode(data)
	if err != nil {
		return errors.Wrap(err, "decoding OPack value")
	}
	bits, err := opackplist.MarshalIndent(v, "  ")
	if err != nil {
		return errors.Wrap(err, "rendering value as a property list")
	}
	_, err = os.Stdout.Write(bits)
	return err
}

// readInput reads the file named by the command's first argument, or
// standard input if none was given.
func readInput(c *cli.Context) ([]byte, error) {
	if name := c.Args().First(); name != "" {
		return ioutil.ReadFile(name)
	}
	return io.ReadAll(os.Stdin)
}

// valueToJSON renders an opack.Value as a tree of the plain Go types
// encoding/json already knows how to marshal. Bytes values are base64
// encoded by json.Marshal's default []byte handling; timestamps render as
// RFC 3339 text via time.Time's MarshalJSON.
func valueToJSON(v opack.Value) (interface{}, error) {
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
			g, err := valueToJSON(e)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = g
		}
		return out, nil
	case opack.KindDict:
		out := make(map[string]interface{}, len(v.Entries()))
		for _, e := range v.Entries() {
			key := fmt.Sprintf("%v", jsonKey(e.Key))
			g, err := valueToJSON(e.Value)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", key, err)
			}
			out[key] = g
		}
		return out, nil
	default:
		return nil, fmt.Errorf("value of kind %s has no JSON representation", v.Kind())
	}
}

// jsonKey renders a dict key as a JSON object key; JSON objects only have
// string keys, so non-string OPack dict keys are rendered via their Go
// value and stringified by the caller.
func jsonKey(k opack.Value) interface{} {
	switch k.Kind() {
	case opack.KindString:
		return k.Str()
	case opack.KindInt:
		return k.Uint()
	case opack.KindFloat:
		return k.Float64()
	case opack.KindBool:
		return k.Bool()
	default:
		return k.Kind().String()
	}
}
