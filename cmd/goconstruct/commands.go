package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	goconstruct "github.com/reoring/goconstruct"
	"github.com/reoring/goconstruct/cursor"
	"github.com/reoring/goconstruct/dsl"
	js "github.com/reoring/goconstruct/jsonschema"
)

func parseCmd(args []string, e env) error {
	var c common
	var in, format string
	var hexIn, all bool
	fs := newFlagSet("parse", e, &c)
	fs.StringVarP(&in, "in", "i", "-", "binary input file, - for stdin")
	fs.BoolVar(&hexIn, "hex", false, "input is hex text")
	fs.StringVarP(&format, "format", "f", "", "output format: json, yaml or cbor (default from config)")
	fs.BoolVar(&all, "all", false, "fail when input bytes remain after parsing")
	if err := parseFlags(fs, args, e, &c); err != nil {
		return err
	}
	if format == "" {
		format = c.cfg.Format
	}
	con, err := c.load()
	if err != nil {
		return err
	}
	data, err := readInput(in, e)
	if err != nil {
		return err
	}
	if hexIn {
		if data, err = decodeHexText(data); err != nil {
			return err
		}
	}
	r := cursor.NewReader(data)
	v, err := goconstruct.ParseReader(con, r, nil)
	if err != nil {
		return c.report("parse", err)
	}
	if n := r.Remaining(); n > 0 {
		if all {
			err := goconstruct.NewError(goconstruct.CodeShapeMismatch, "expected end of stream", "remaining", n)
			err.Offset = int64(r.Pos())
			return c.report("parse", err)
		}
		c.log.Warn().Int("remaining", n).Int("offset", r.Pos()).Msg("trailing bytes after parse")
	}
	out, err := encodeOutput(v, format)
	if err != nil {
		return err
	}
	_, err = e.stdout.Write(out)
	return err
}

func buildCmd(args []string, e env) error {
	var c common
	var in, inFormat, out string
	var hexOut bool
	fs := newFlagSet("build", e, &c)
	fs.StringVarP(&in, "in", "i", "-", "value file (json, yaml or cbor), - for stdin")
	fs.StringVar(&inFormat, "input-format", "", "value format when the extension does not tell (default json)")
	fs.StringVarP(&out, "out", "o", "-", "binary output file, - for stdout")
	fs.BoolVar(&hexOut, "hex", false, "write hex text instead of raw bytes")
	if err := parseFlags(fs, args, e, &c); err != nil {
		return err
	}
	con, err := c.load()
	if err != nil {
		return err
	}
	if inFormat == "" {
		inFormat = formatOfPath(in)
	}
	data, err := readInput(in, e)
	if err != nil {
		return err
	}
	v, err := decodeInput(data, inFormat)
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	bin, err := goconstruct.Build(con, v)
	if err != nil {
		return c.report("build", err)
	}
	if hexOut {
		bin = []byte(hex.EncodeToString(bin) + "\n")
	}
	c.log.Debug().Int("bytes", len(bin)).Str("out", out).Msg("built")
	if out == "-" {
		_, err = e.stdout.Write(bin)
		return err
	}
	return os.WriteFile(out, bin, 0o644)
}

func sizeofCmd(args []string, e env) error {
	var c common
	var sets []string
	fs := newFlagSet("sizeof", e, &c)
	fs.StringArrayVar(&sets, "set", nil, "context value key=value (repeatable)")
	if err := parseFlags(fs, args, e, &c); err != nil {
		return err
	}
	values := make(map[string]any, len(sets))
	for _, kv := range sets {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return usageError{msg: fmt.Sprintf("--set %q: want key=value", kv)}
		}
		values[k] = scalar(v)
	}
	con, err := c.load()
	if err != nil {
		return err
	}
	n, err := goconstruct.Sizeof(con, goconstruct.NewContext(values))
	if err != nil {
		return c.report("sizeof", err)
	}
	_, err = fmt.Fprintln(e.stdout, n)
	return err
}

func schemaCmd(args []string, e env) error {
	var c common
	fs := newFlagSet("schema", e, &c)
	if err := parseFlags(fs, args, e, &c); err != nil {
		return err
	}
	con, err := c.load()
	if err != nil {
		return err
	}
	s, err := dsl.JSONSchemaOf(con)
	if err != nil {
		return c.report("schema", err)
	}
	s = hexBytesSchema(s)
	s.Dialect = js.Draft
	if s.Title == "" {
		s.Title = c.root
		if s.Title == "" {
			s.Title = strings.TrimSuffix(filepath.Base(c.schema), filepath.Ext(c.schema))
		}
	}
	out, err := encodeOutput(s, "json")
	if err != nil {
		return err
	}
	_, err = e.stdout.Write(out)
	return err
}

func readInput(path string, e env) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(e.stdin)
	}
	return os.ReadFile(path)
}

// scalar reads a --set value: integers (any base prefix), booleans, else
// the string itself.
func scalar(s string) any {
	if n, err := strconv.ParseInt(s, 0, 64); err == nil {
		return n
	}
	if u, err := strconv.ParseUint(s, 0, 64); err == nil {
		return u
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}
