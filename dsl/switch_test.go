package dsl_test

import (
	"bytes"
	"errors"
	"testing"

	goconstruct "github.com/reoring/goconstruct"
	g "github.com/reoring/goconstruct/dsl"
)

func tagged(def goconstruct.Construct) *g.StructCon {
	return g.Struct().
		Field("kind", g.Uint8()).
		Field("value", g.Switch(goconstruct.At("kind"), g.Cases{
			1: g.Uint8(),
			2: g.Uint16BE(),
		}, def)).
		MustBuild()
}

func TestSwitch_NoMatchThenDefault(t *testing.T) {
	_, err := goconstruct.Parse(tagged(nil), []byte{3, 9})
	if !errors.Is(err, goconstruct.ErrNoMatchingCase) {
		t.Fatalf("expected no matching case, got %v", err)
	}
	if e, _ := goconstruct.AsError(err); e.Path != "/value" {
		t.Fatalf("path = %q", e.Path)
	}

	v, err := goconstruct.Parse(tagged(g.Bytes(1)), []byte{3, 9})
	if err != nil {
		t.Fatalf("parse with default: %v", err)
	}
	got, _ := v.(*goconstruct.Container).Get("value")
	if !bytes.Equal(got.([]byte), []byte{9}) {
		t.Fatalf("value = %v", got)
	}
}

func TestSwitch_NumericKeysNormalized(t *testing.T) {
	s := tagged(nil)
	v, err := goconstruct.Parse(s, []byte{2, 1, 0})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got, _ := v.(*goconstruct.Container).Get("value"); got != uint16(256) {
		t.Fatalf("value = %#v", got)
	}
	for _, kind := range []any{int64(2), uint8(2), 2.0} {
		out, err := goconstruct.Build(s, map[string]any{"kind": kind, "value": 256})
		if err != nil {
			t.Fatalf("build kind %T: %v", kind, err)
		}
		if !bytes.Equal(out, []byte{2, 1, 0}) {
			t.Fatalf("build kind %T = %x", kind, out)
		}
	}
}

func TestSwitch_Sizeof(t *testing.T) {
	sw := g.Switch(goconstruct.At("k"), g.Cases{"a": g.Uint32LE(), "b": g.Uint8()}, nil)
	n, err := goconstruct.Sizeof(sw, goconstruct.NewContext(map[string]any{"k": "a"}))
	if err != nil || n != 4 {
		t.Fatalf("sizeof = %d, %v", n, err)
	}
	if _, err := goconstruct.Sizeof(sw, nil); !errors.Is(err, goconstruct.ErrIndeterminate) {
		t.Fatalf("expected indeterminate, got %v", err)
	}
	if _, err := goconstruct.Sizeof(sw, goconstruct.NewContext(map[string]any{"k": "z"})); !errors.Is(err, goconstruct.ErrNoMatchingCase) {
		t.Fatalf("expected no matching case, got %v", err)
	}
}

func TestIfThenElse(t *testing.T) {
	s := g.Struct().
		Field("flag", g.Uint8()).
		Field("extra", g.If(g.Equals(goconstruct.At("flag"), 1), g.Uint16LE(), nil)).
		MustBuild()

	v, err := goconstruct.Parse(s, []byte{1, 5, 0})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if x, _ := v.(*goconstruct.Container).Get("extra"); x != uint16(5) {
		t.Fatalf("extra = %#v", x)
	}

	v, err = goconstruct.ParseAll(s, []byte{0})
	if err != nil {
		t.Fatalf("parse without extra: %v", err)
	}
	if x, ok := v.(*goconstruct.Container).Get("extra"); !ok || x != nil {
		t.Fatalf("extra = %#v, %v", x, ok)
	}

	out, err := goconstruct.Build(s, map[string]any{"flag": 0, "extra": nil})
	if err != nil || !bytes.Equal(out, []byte{0}) {
		t.Fatalf("build = %x, %v", out, err)
	}
	ite := g.IfThenElse(goconstruct.Fixed(false), g.Uint8(), g.Uint16LE())
	if n, err := goconstruct.Sizeof(ite, nil); err != nil || n != 2 {
		t.Fatalf("sizeof = %d, %v", n, err)
	}
}

func TestSwitchE_RejectsMalformedCases(t *testing.T) {
	key := goconstruct.At("kind")
	for name, cases := range map[string]g.Cases{
		"nil construct": {1: nil},
		"duplicate key": {1: g.Uint8(), uint8(1): g.Int8()},
	} {
		if _, err := g.SwitchE(key, cases, nil); !errors.Is(err, goconstruct.ErrSchema) {
			t.Fatalf("%s: expected schema error, got %v", name, err)
		}
	}
	if _, err := g.SwitchE(key, g.Cases{1: g.Uint8(), "x": g.Pass()}, nil); err != nil {
		t.Fatalf("valid cases: %v", err)
	}
}
