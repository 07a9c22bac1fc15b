package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	j "github.com/goccy/go-json"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	goconstruct "github.com/reoring/goconstruct"
)

// Format names a schema document syntax.
type Format string

const (
	FormatYAML  Format = "yaml"
	FormatJSON  Format = "json"
	FormatJSONC Format = "jsonc"
)

// FormatOf infers the document format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".jsonc":
		return FormatJSONC, nil
	}
	return "", schemaErr("", "cannot infer schema format from %q", path)
}

// decodeDocument turns raw document bytes into values with mappings as
// ordered *goconstruct.Container. Duplicate mapping keys are rejected.
func decodeDocument(data []byte, f Format) (any, error) {
	switch f {
	case FormatYAML, "":
		return decodeYAML(data)
	case FormatJSONC:
		return decodeJSON(jsonc.ToJSON(data))
	case FormatJSON:
		return decodeJSON(data)
	}
	return nil, schemaErr("", "unknown schema format %q", f)
}

func decodeYAML(data []byte) (any, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, schemaCause("", err)
	}
	if err := checkYAMLDuplicates(&root, ""); err != nil {
		return nil, err
	}
	v, err := goconstruct.DecodeYAMLNode(&root)
	if err != nil {
		return nil, schemaCause("", err)
	}
	return v, nil
}

// checkYAMLDuplicates walks a node tree and reports the first key that
// appears twice in one mapping, with both positions.
func checkYAMLDuplicates(n *yaml.Node, path string) error {
	switch n.Kind {
	case yaml.DocumentNode:
		for _, c := range n.Content {
			if err := checkYAMLDuplicates(c, path); err != nil {
				return err
			}
		}
	case yaml.MappingNode:
		first := make(map[string][2]int, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if pos, dup := first[k.Value]; dup {
				return schemaErr(path, "duplicate key %q at %d:%d (first at %d:%d)", k.Value, k.Line, k.Column, pos[0], pos[1])
			}
			first[k.Value] = [2]int{k.Line, k.Column}
			if err := checkYAMLDuplicates(n.Content[i+1], path+"/"+escape(k.Value)); err != nil {
				return err
			}
		}
	case yaml.SequenceNode:
		for i, c := range n.Content {
			if err := checkYAMLDuplicates(c, path+"/"+strconv.Itoa(i)); err != nil {
				return err
			}
		}
	}
	return nil
}

func decodeJSON(data []byte) (any, error) {
	if err := checkJSONDuplicates(data); err != nil {
		return nil, err
	}
	v, err := goconstruct.DecodeJSON(data)
	if err != nil {
		return nil, schemaCause("", err)
	}
	return v, nil
}

type jsonFrame struct {
	object bool
	keys   map[string]struct{}
	// path of the frame itself; key holds the pending member name
	path      string
	key       string
	expectKey bool
	index     int
}

// checkJSONDuplicates streams tokens and fails on the first object key seen
// twice in the same object.
func checkJSONDuplicates(data []byte) error {
	dec := j.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var stack []*jsonFrame
	childPath := func() string {
		if len(stack) == 0 {
			return ""
		}
		top := stack[len(stack)-1]
		if top.object {
			return top.path + "/" + escape(top.key)
		}
		return top.path + "/" + strconv.Itoa(top.index)
	}
	valueDone := func() {
		if len(stack) == 0 {
			return
		}
		top := stack[len(stack)-1]
		if top.object {
			top.expectKey = true
		} else {
			top.index++
		}
	}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return schemaCause("", err)
		}
		switch v := tok.(type) {
		case j.Delim:
			switch v {
			case '{':
				stack = append(stack, &jsonFrame{object: true, keys: map[string]struct{}{}, path: childPath(), expectKey: true})
			case '[':
				stack = append(stack, &jsonFrame{path: childPath()})
			case '}', ']':
				stack = stack[:len(stack)-1]
				valueDone()
			}
		case string:
			if n := len(stack); n > 0 && stack[n-1].object && stack[n-1].expectKey {
				top := stack[n-1]
				if _, dup := top.keys[v]; dup {
					return schemaErr(top.path, "duplicate key %q", v)
				}
				top.keys[v] = struct{}{}
				top.key = v
				top.expectKey = false
				continue
			}
			valueDone()
		default:
			valueDone()
		}
	}
}

func escape(name string) string {
	return strings.ReplaceAll(strings.ReplaceAll(name, "~", "~0"), "/", "~1")
}

func schemaErr(path, format string, args ...any) *goconstruct.Error {
	e := goconstruct.Errorf(goconstruct.CodeSchema, format, args...)
	e.Path = path
	return e
}

func schemaCause(path string, err error) *goconstruct.Error {
	if e, ok := goconstruct.AsError(err); ok && e.Code == goconstruct.CodeSchema {
		cp := *e
		cp.Path = path + e.Path
		return &cp
	}
	e := schemaErr(path, "%v", err)
	e.Cause = err
	return e
}

func describeNode(v any) string {
	switch v.(type) {
	case *goconstruct.Container:
		return "mapping"
	case []any:
		return "list"
	case string:
		return "string"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
