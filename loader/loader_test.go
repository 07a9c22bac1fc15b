package loader_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	goconstruct "github.com/reoring/goconstruct"
	g "github.com/reoring/goconstruct/dsl"
	"github.com/reoring/goconstruct/loader"
)

const tlvYAML = `
definitions:
  tlv:
    struct:
      - {name: tag, type: uint8}
      - {name: len, type: uint16be}
      - {name: value, type: {raw: len}}
root:
  array: {count: 2, of: tlv}
`

const tlvJSONC = `{
  // a tag-length-value record
  "definitions": {
    "tlv": {"struct": [
      {"name": "tag", "type": "uint8"},
      {"name": "len", "type": "uint16be"},
      {"name": "value", "type": {"raw": {"length": "len"}}}, /* trailing comma */
    ]},
  },
  "root": {"array": {"count": 2, "of": {"ref": "tlv"}}},
}`

var tlvWire = []byte{0x01, 0x00, 0x02, 'h', 'i', 0x02, 0x00, 0x00}

// TestLoad_TLVRoundTrip compiles the same TLV layout from YAML and JSONC
// and checks that parse and build are inverse.
func TestLoad_TLVRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name string
		doc  string
		f    loader.Format
	}{
		{"yaml", tlvYAML, loader.FormatYAML},
		{"jsonc", tlvJSONC, loader.FormatJSONC},
	} {
		t.Run(tc.name, func(t *testing.T) {
			con, err := loader.Load([]byte(tc.doc), loader.Options{Format: tc.f})
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			v, err := goconstruct.ParseAll(con, tlvWire)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			items, _ := v.([]any)
			if len(items) != 2 {
				t.Fatalf("want 2 records, got %#v", v)
			}
			first := items[0].(*goconstruct.Container)
			if val, _ := first.Get("value"); !goconstruct.Equal(val, "hi") {
				t.Fatalf("first value = %v", val)
			}
			out, err := goconstruct.Build(con, v)
			if err != nil || !bytes.Equal(out, tlvWire) {
				t.Fatalf("build = %x, %v", out, err)
			}
		})
	}
}

// TestLoad_Switch resolves integer case keys against parsed values.
func TestLoad_Switch(t *testing.T) {
	doc := `
root:
  struct:
    - {name: kind, type: uint8}
    - name: body
      type:
        switch:
          on: kind
          cases:
            1: uint16be
            0x02: {prefixed: {length: uint8}}
          default: pass
`
	con, err := loader.Load([]byte(doc), loader.Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, tc := range []struct {
		in   []byte
		want any
	}{
		{[]byte{1, 0, 5}, uint16(5)},
		{[]byte{2, 2, 'h', 'i'}, []byte("hi")},
		{[]byte{9}, nil},
	} {
		v, err := goconstruct.ParseAll(con, tc.in)
		if err != nil {
			t.Fatalf("parse %x: %v", tc.in, err)
		}
		body, _ := v.(*goconstruct.Container).Get("body")
		if !goconstruct.Equal(body, tc.want) {
			t.Fatalf("parse %x: body = %#v, want %#v", tc.in, body, tc.want)
		}
	}
}

// TestLoad_IfAndValue covers if with equals and a value read from the context.
func TestLoad_IfAndValue(t *testing.T) {
	doc := `
root:
  struct:
    - {name: flags, type: uint8}
    - name: extra
      type: {if: {on: flags, equals: 1, then: uint8}}
    - name: echo
      type: {value: {from: flags}}
`
	con, err := loader.Load([]byte(doc), loader.Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	v, err := goconstruct.ParseAll(con, []byte{1, 7})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	c := v.(*goconstruct.Container)
	if x, _ := c.Get("extra"); !goconstruct.Equal(x, 7) {
		t.Fatalf("extra = %v", x)
	}
	if x, _ := c.Get("echo"); !goconstruct.Equal(x, 1) {
		t.Fatalf("echo = %v", x)
	}
	v, err = goconstruct.ParseAll(con, []byte{0})
	if err != nil {
		t.Fatalf("parse without extra: %v", err)
	}
	if x, _ := v.(*goconstruct.Container).Get("extra"); x != nil {
		t.Fatalf("extra = %v, want nil", x)
	}
}

// TestLoad_ChecksumAndRootOption selects a definition as root and mixes in
// a construct defined in Go.
func TestLoad_ChecksumAndRootOption(t *testing.T) {
	doc := `
definitions:
  packet:
    struct:
      - {type: magic}
      - {name: data, type: {raw: 3}}
      - name: crc
        type: {checksum: {type: uint32be, algorithm: crc32, over: data}}
`
	con, err := loader.Load([]byte(doc), loader.Options{
		Root:        "packet",
		Definitions: map[string]goconstruct.Construct{"magic": g.Const(g.Uint8(), 0xAA)},
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	out, err := goconstruct.Build(con, goconstruct.ContainerFrom("data", []byte("abc")))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := []byte{0xAA, 'a', 'b', 'c', 0x35, 0x24, 0x41, 0xC2}
	if !bytes.Equal(out, want) {
		t.Fatalf("build = %x, want %x", out, want)
	}
	out[len(out)-1] ^= 0xff
	if _, err := goconstruct.Parse(con, out); !errors.Is(err, goconstruct.ErrValidation) {
		t.Fatalf("expected checksum failure, got %v", err)
	}
}

// TestLoad_Errors checks that every load failure is a schema error located
// in the document.
func TestLoad_Errors(t *testing.T) {
	for _, tc := range []struct {
		name string
		doc  string
		f    loader.Format
		path string
		hint string
	}{
		{"unknown type", "root: nope\n", loader.FormatYAML, "/root", "unknown type"},
		{"unknown kind", "root: {blob: 3}\n", loader.FormatYAML, "/root", "unknown type kind"},
		{"nested", "root: {array: {count: n, of: bogus}}\n", loader.FormatYAML, "/root/array/of", "bogus"},
		{"unknown key", "root: {struct: [{nmae: a, type: uint8}]}\n", loader.FormatYAML, "/root/struct/0/nmae", "unknown key"},
		{"missing key", "root: {array: {of: uint8}}\n", loader.FormatYAML, "/root/array", "count"},
		{"recursion", "definitions:\n  a: {ref: b}\n  b: {sequence: [a]}\nroot: a\n", loader.FormatYAML, "", "recursive"},
		{"shadow", "definitions:\n  uint8: pass\nroot: uint8\n", loader.FormatYAML, "/definitions/uint8", "builtin"},
		{"bad encoding", "root: {string: {type: tail, encoding: klingon}}\n", loader.FormatYAML, "/root/string/encoding", "klingon"},
		{"bad algorithm", "root: {compressed: {type: tail, algorithm: rar}}\n", loader.FormatYAML, "/root/compressed/algorithm", "rar"},
		{"no root", "definitions: {}\n", loader.FormatYAML, "", "root"},
		{"json duplicate", `{"root": "uint8", "root": "int8"}`, loader.FormatJSON, "", "duplicate"},
		{"duplicate case", "root: {switch: {on: k, cases: {1: uint8, 0x01: int8}}}\n", loader.FormatYAML, "/root/switch/cases", "listed twice"},
		{"duplicate member", "root: {struct: [{name: a, type: uint8}, {name: a, type: uint8}]}\n", loader.FormatYAML, "/root/struct/a", "duplicate"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := loader.Load([]byte(tc.doc), loader.Options{Format: tc.f})
			e, ok := goconstruct.AsError(err)
			if !ok || e.Code != goconstruct.CodeSchema {
				t.Fatalf("expected schema error, got %v", err)
			}
			if tc.path != "" && e.Path != tc.path {
				t.Fatalf("path = %q, want %q (%v)", e.Path, tc.path, err)
			}
			if !strings.Contains(e.Error(), tc.hint) {
				t.Fatalf("error %q does not mention %q", e.Error(), tc.hint)
			}
		})
	}
}

// TestLoad_YAMLDuplicateKey rejects a mapping that repeats a key.
func TestLoad_YAMLDuplicateKey(t *testing.T) {
	_, err := loader.Load([]byte("root: uint8\nroot: int8\n"), loader.Options{})
	if !errors.Is(err, goconstruct.ErrSchema) {
		t.Fatalf("expected schema error, got %v", err)
	}
}

// TestLoadFile infers the format from the extension.
func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.jsonc")
	if err := os.WriteFile(path, []byte(tlvJSONC), 0o600); err != nil {
		t.Fatal(err)
	}
	con, err := loader.LoadFile(path, loader.Options{})
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if _, err := goconstruct.ParseAll(con, tlvWire); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := loader.LoadFile(filepath.Join(dir, "frame.txt"), loader.Options{}); !errors.Is(err, goconstruct.ErrSchema) {
		t.Fatalf("expected schema error for unknown extension, got %v", err)
	}
}
