package dsl_test

import (
	"bytes"
	"errors"
	"testing"

	goconstruct "github.com/reoring/goconstruct"
	g "github.com/reoring/goconstruct/dsl"
)

func tlvFrame() *g.StructCon {
	return g.Struct().
		Field("kind", g.Uint8()).
		Field("len", g.Uint16BE()).
		Field("body", g.Raw(goconstruct.IntAt("len"))).
		MustBuild()
}

func TestStruct_ContextDependentLength(t *testing.T) {
	frame := tlvFrame()
	in := goconstruct.ContainerFrom("kind", 1, "len", 3, "body", []byte("abc"))
	out, err := goconstruct.Build(frame, in)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if want := []byte{1, 0, 3, 'a', 'b', 'c'}; !bytes.Equal(out, want) {
		t.Fatalf("build = %x, want %x", out, want)
	}
	v, err := goconstruct.Parse(frame, out)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := v.(*goconstruct.Container)
	if !got.Equal(in) {
		t.Fatalf("round trip mismatch: %v", got.Map())
	}
	if keys := got.Keys(); len(keys) != 3 || keys[0] != "kind" || keys[2] != "body" {
		t.Fatalf("unexpected key order %v", keys)
	}
}

func TestStruct_SizeofFromCallerContext(t *testing.T) {
	frame := tlvFrame()
	if _, err := goconstruct.Sizeof(frame, nil); !errors.Is(err, goconstruct.ErrIndeterminate) {
		t.Fatalf("expected indeterminate without context, got %v", err)
	}
	n, err := goconstruct.Sizeof(frame, goconstruct.NewContext(map[string]any{"len": 3}))
	if err != nil {
		t.Fatalf("sizeof: %v", err)
	}
	out, _ := goconstruct.Build(frame, map[string]any{"kind": 1, "len": 3, "body": "abc"})
	if n != len(out) {
		t.Fatalf("sizeof = %d, build length = %d", n, len(out))
	}
}

func TestStruct_SizeofBindsStaticValues(t *testing.T) {
	s := g.Struct().
		Field("n", g.Const(g.Uint8(), 4)).
		Field("data", g.Raw(goconstruct.IntAt("n"))).
		MustBuild()
	n, err := goconstruct.Sizeof(s, nil)
	if err != nil || n != 5 {
		t.Fatalf("sizeof = %d, %v", n, err)
	}
}

// TestStruct_SizeofNestedDoesNotInheritNames keeps an inner field from
// picking up a same-named outer value while sizing.
func TestStruct_SizeofNestedDoesNotInheritNames(t *testing.T) {
	body := g.Struct().
		Field("n", g.Uint8()).
		Field("data", g.Raw(goconstruct.IntAt("n"))).
		MustBuild()
	outer := g.Struct().
		Field("n", g.Const(g.Uint8(), 3)).
		Field("body", body).
		MustBuild()

	_, err := goconstruct.Sizeof(outer, nil)
	if !errors.Is(err, goconstruct.ErrIndeterminate) {
		t.Fatalf("expected indeterminate, got %v", err)
	}
	if e, _ := goconstruct.AsError(err); e.Path != "/body/data" {
		t.Fatalf("path = %q", e.Path)
	}
	if _, err := goconstruct.Sizeof(outer, goconstruct.NewContext(map[string]any{"n": 3})); !errors.Is(err, goconstruct.ErrIndeterminate) {
		t.Fatalf("caller values must not reach the nested struct, got %v", err)
	}

	out, err := goconstruct.Build(outer, map[string]any{
		"body": map[string]any{"n": 7, "data": []byte("1234567")},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(out) != 9 {
		t.Fatalf("build length = %d", len(out))
	}
}

func TestStruct_ParentScope(t *testing.T) {
	s := g.Struct().
		Field("n", g.Uint8()).
		Field("inner", g.Struct().
			Field("data", g.Raw(goconstruct.IntAt(goconstruct.ParentKey, "n"))).
			MustBuild()).
		MustBuild()
	v, err := goconstruct.Parse(s, []byte{2, 'h', 'i'})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	inner, _ := v.(*goconstruct.Container).Get("inner")
	data, _ := inner.(*goconstruct.Container).Get("data")
	if string(data.([]byte)) != "hi" {
		t.Fatalf("data = %q", data)
	}

	_, err = goconstruct.Parse(s, []byte{5, 'h'})
	e, ok := goconstruct.AsError(err)
	if !ok || e.Code != goconstruct.CodeUnderrun {
		t.Fatalf("expected underrun, got %v", err)
	}
	if e.Path != "/inner/data" || e.Offset != 1 {
		t.Fatalf("path=%q offset=%d", e.Path, e.Offset)
	}
}

func TestStruct_EmbedConflict(t *testing.T) {
	x := func() *g.StructCon { return g.Struct().Field("x", g.Uint8()).MustBuild() }
	s := g.Struct().Embed("", x()).Embed("", x()).MustBuild()

	_, err := goconstruct.Parse(s, []byte{1, 2})
	if !errors.Is(err, goconstruct.ErrEmbedConflict) {
		t.Fatalf("expected embed conflict, got %v", err)
	}
	if e, _ := goconstruct.AsError(err); e.Path != "/x" {
		t.Fatalf("path = %q", e.Path)
	}

	v, err := goconstruct.Parse(s, []byte{5, 5})
	if err != nil {
		t.Fatalf("parse identical: %v", err)
	}
	c := v.(*goconstruct.Container)
	if c.Len() != 1 {
		t.Fatalf("expected a single merged key, got %v", c.Keys())
	}
	if x, _ := c.Get("x"); x != uint8(5) {
		t.Fatalf("x = %v", x)
	}
	out, err := goconstruct.Build(s, c)
	if err != nil || !bytes.Equal(out, []byte{5, 5}) {
		t.Fatalf("build = %x, %v", out, err)
	}
}

func TestStruct_NamedEmbedVisibleInContext(t *testing.T) {
	hdr := g.Struct().Field("len", g.Uint8()).MustBuild()
	s := g.Struct().
		Embed("hdr", hdr).
		Field("a", g.Raw(goconstruct.IntAt("len"))).
		Field("b", g.Raw(goconstruct.IntAt("hdr", "len"))).
		MustBuild()
	in := map[string]any{"len": 1, "a": []byte{7}, "b": []byte{8}}
	out, err := goconstruct.Build(s, in)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !bytes.Equal(out, []byte{1, 7, 8}) {
		t.Fatalf("build = %x", out)
	}
	v, err := goconstruct.Parse(s, out)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if keys := v.(*goconstruct.Container).Keys(); len(keys) != 3 || keys[0] != "len" {
		t.Fatalf("keys = %v", keys)
	}
}

func TestStruct_EmbedRequiresStruct(t *testing.T) {
	s := g.Struct().Embed("", g.Uint8()).MustBuild()
	if _, err := goconstruct.Parse(s, []byte{1}); !errors.Is(err, goconstruct.ErrShapeMismatch) {
		t.Fatalf("expected shape mismatch, got %v", err)
	}
}

func TestStruct_MissingValue(t *testing.T) {
	_, err := goconstruct.Build(tlvFrame(), goconstruct.ContainerFrom("kind", 1))
	e, ok := goconstruct.AsError(err)
	if !ok || e.Code != goconstruct.CodeShapeMismatch || e.Path != "/len" {
		t.Fatalf("unexpected error %v", err)
	}
	if _, err := goconstruct.Build(tlvFrame(), 5); !errors.Is(err, goconstruct.ErrShapeMismatch) {
		t.Fatalf("expected shape mismatch for scalar input, got %v", err)
	}
}

func TestStruct_ConstMayBeOmitted(t *testing.T) {
	s := g.Struct().
		Field("magic", g.Const(g.Bytes(2), []byte("GC"))).
		Field("v", g.Uint8()).
		MustBuild()
	out, err := goconstruct.Build(s, map[string]any{"v": 7})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if string(out) != "GC\x07" {
		t.Fatalf("build = %q", out)
	}
	_, err = goconstruct.Parse(s, []byte("XX\x07"))
	e, ok := goconstruct.AsError(err)
	if !ok || e.Code != goconstruct.CodeShapeMismatch || e.Path != "/magic" {
		t.Fatalf("unexpected error %v", err)
	}
	if _, err := goconstruct.Build(s, map[string]any{"magic": "ZZ", "v": 1}); !errors.Is(err, goconstruct.ErrShapeMismatch) {
		t.Fatalf("expected mismatch for wrong const, got %v", err)
	}
}

type header struct {
	Kind    uint8  `construct:"kind"`
	Len     int    `json:"len"`
	Body    []byte `construct:"body"`
	Ignored string `json:"-"`
}

func TestStruct_BuildFromGoStruct(t *testing.T) {
	out, err := goconstruct.Build(tlvFrame(), &header{Kind: 2, Len: 2, Body: []byte("ok")})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !bytes.Equal(out, []byte{2, 0, 2, 'o', 'k'}) {
		t.Fatalf("build = %x", out)
	}
	v, _ := goconstruct.Parse(tlvFrame(), out)
	var h header
	if err := v.(*goconstruct.Container).Decode(&h); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if h.Kind != 2 || h.Len != 2 || string(h.Body) != "ok" {
		t.Fatalf("decoded %+v", h)
	}
}

func TestStruct_DefinitionErrors(t *testing.T) {
	if _, err := g.Struct().Field("a", g.Uint8()).Field("a", g.Uint8()).Build(); !errors.Is(err, goconstruct.ErrSchema) {
		t.Fatalf("expected schema error for duplicate name, got %v", err)
	}
	if _, err := g.StructOf(g.Named("a", nil)); !errors.Is(err, goconstruct.ErrSchema) {
		t.Fatalf("expected schema error for nil construct, got %v", err)
	}
	if _, err := g.Struct().Anonymous(g.Uint8()).Anonymous(g.Uint8()).Build(); err != nil {
		t.Fatalf("anonymous members may repeat: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("MustBuild should panic")
		}
	}()
	g.Struct().Field("a", nil).MustBuild()
}
