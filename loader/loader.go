// Package loader builds construct trees from declarative schema documents
// written in YAML, JSON or JSON with comments.
//
// A document names reusable definitions and a root type:
//
//	definitions:
//	  tlv:
//	    struct:
//	      - {name: tag, type: uint8}
//	      - {name: len, type: uint16be}
//	      - {name: value, type: {raw: len}}
//	root:
//	  array: {count: 2, of: tlv}
//
// Type names are the numeric leaves (uint8, int16le, float64be, ...), tail,
// terminator, pass, or a definition name. Every other type is a mapping
// with a single key naming its kind.
package loader

import (
	"os"

	goconstruct "github.com/reoring/goconstruct"
)

// Options controls how a document is read.
type Options struct {
	// Format overrides the format inferred from the file extension.
	Format Format
	// Root selects a definition to return instead of the document root.
	Root string
	// Definitions are constructs built in Go that documents may reference
	// by name.
	Definitions map[string]goconstruct.Construct
}

// Load compiles a schema document. Every failure is a CodeSchema
// *goconstruct.Error whose Path points into the document.
func Load(data []byte, opts Options) (goconstruct.Construct, error) {
	doc, err := decodeDocument(data, opts.Format)
	if err != nil {
		return nil, err
	}
	top, ok := doc.(*goconstruct.Container)
	if !ok {
		return nil, schemaErr("", "expected a mapping document, found %s", describeNode(doc))
	}
	required := []string{"root"}
	if opts.Root != "" {
		required = nil
	}
	f, err := fields(top, "", required, "root", "definitions", "description")
	if err != nil {
		return nil, err
	}
	defs := goconstruct.NewContainer()
	if raw, ok := f["definitions"]; ok && raw != nil {
		if defs, ok = raw.(*goconstruct.Container); !ok {
			return nil, schemaErr("/definitions", "expected mapping, found %s", describeNode(raw))
		}
	}
	c, err := newCompiler(defs, opts.Definitions)
	if err != nil {
		return nil, err
	}
	// Definitions compile even when unreferenced so that mistakes surface
	// at load time.
	for _, name := range defs.Keys() {
		if _, err := c.resolve(name, c.paths[name]); err != nil {
			return nil, err
		}
	}
	var root goconstruct.Construct
	if opts.Root != "" {
		root, err = c.resolve(opts.Root, "")
	} else {
		root, err = c.node(f["root"], "/root")
	}
	if err != nil {
		return nil, err
	}
	goconstruct.Logger().Debug().Int("definitions", defs.Len()).Str("root", opts.Root).Msg("schema loaded")
	return root, nil
}

// LoadFile reads and compiles the document at path. The format comes from
// opts.Format or the file extension.
func LoadFile(path string, opts Options) (goconstruct.Construct, error) {
	if opts.Format == "" {
		f, err := FormatOf(path)
		if err != nil {
			return nil, err
		}
		opts.Format = f
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, schemaCause("", err)
	}
	return Load(data, opts)
}
