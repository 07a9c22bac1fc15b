package main

import (
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	j "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	goconstruct "github.com/reoring/goconstruct"
	"github.com/reoring/goconstruct/codec"
	js "github.com/reoring/goconstruct/jsonschema"
)

// hexKey is the single key of the object that stands for a byte string in
// JSON and YAML values.
const hexKey = "$hex"

// renderBytes replaces every []byte with {"$hex": "..."}.
func renderBytes(v any) any {
	switch x := v.(type) {
	case []byte:
		return goconstruct.ContainerFrom(hexKey, hex.EncodeToString(x))
	case *goconstruct.Container:
		out := goconstruct.NewContainer()
		for _, k := range x.Keys() {
			e, _ := x.Get(k)
			out.Set(k, renderBytes(e))
		}
		return out
	case map[string]any:
		return renderBytes(goconstruct.ContainerFromMap(x))
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = renderBytes(x[i])
		}
		return out
	}
	return v
}

// acceptBytes is the inverse of renderBytes. Plain maps (from CBOR) become
// Containers.
func acceptBytes(v any) (any, error) {
	switch x := v.(type) {
	case *goconstruct.Container:
		if x.Len() == 1 && x.Has(hexKey) {
			s, _ := x.Get(hexKey)
			text, ok := s.(string)
			if !ok {
				return nil, fmt.Errorf("%s: expected hex string, found %T", hexKey, s)
			}
			return hex.DecodeString(text)
		}
		out := goconstruct.NewContainer()
		for _, k := range x.Keys() {
			e, _ := x.Get(k)
			conv, err := acceptBytes(e)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out.Set(k, conv)
		}
		return out, nil
	case map[string]any:
		return acceptBytes(goconstruct.ContainerFromMap(x))
	case []any:
		out := make([]any, len(x))
		for i := range x {
			conv, err := acceptBytes(x[i])
			if err != nil {
				return nil, fmt.Errorf("%d: %w", i, err)
			}
			out[i] = conv
		}
		return out, nil
	}
	return v, nil
}

func encodeOutput(v any, format string) ([]byte, error) {
	switch format {
	case "json":
		out, err := j.MarshalIndent(renderBytes(v), "", "  ")
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	case "yaml":
		return yaml.Marshal(renderBytes(v))
	case "cbor":
		return codec.MarshalCBOR(v)
	}
	return nil, usageError{msg: fmt.Sprintf("unknown output format %q", format)}
}

func decodeInput(data []byte, format string) (any, error) {
	var v any
	var err error
	switch format {
	case "json":
		v, err = goconstruct.DecodeJSON(data)
	case "yaml":
		var n yaml.Node
		if err = yaml.Unmarshal(data, &n); err == nil {
			v, err = goconstruct.DecodeYAMLNode(&n)
		}
	case "cbor":
		v, err = codec.UnmarshalCBOR(data)
	default:
		return nil, usageError{msg: fmt.Sprintf("unknown input format %q", format)}
	}
	if err != nil {
		return nil, err
	}
	return acceptBytes(v)
}

func formatOfPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".cbor":
		return "cbor"
	}
	return "json"
}

func decodeHexText(data []byte) ([]byte, error) {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, string(data))
	out, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("hex input: %w", err)
	}
	return out, nil
}

// hexBytesSchema rewrites byte-string schemas into the {"$hex": ...}
// object the CLI reads and writes.
func hexBytesSchema(s *js.Schema) *js.Schema {
	if s == nil {
		return nil
	}
	if s.Type == "string" && s.ContentEncoding == "base64" {
		return &js.Schema{
			Type:        "object",
			Description: s.Description,
			Properties: map[string]*js.Schema{
				hexKey: {Type: "string", Pattern: "^([0-9a-f]{2})*$"},
			},
			Required:             []string{hexKey},
			AdditionalProperties: false,
		}
	}
	cp := *s
	if len(s.Properties) > 0 {
		cp.Properties = make(map[string]*js.Schema, len(s.Properties))
		for k, p := range s.Properties {
			cp.Properties[k] = hexBytesSchema(p)
		}
	}
	cp.PrefixItems = hexAll(s.PrefixItems)
	cp.OneOf = hexAll(s.OneOf)
	cp.AnyOf = hexAll(s.AnyOf)
	cp.Items = hexBytesSchema(s.Items)
	cp.Not = hexBytesSchema(s.Not)
	return &cp
}

func hexAll(in []*js.Schema) []*js.Schema {
	if in == nil {
		return nil
	}
	out := make([]*js.Schema, len(in))
	for i, s := range in {
		out[i] = hexBytesSchema(s)
	}
	return out
}
