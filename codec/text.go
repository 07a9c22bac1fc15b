package codec

import (
	"bytes"
	"strings"
	"unicode/utf8"

	goconstruct "github.com/reoring/goconstruct"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

type textCodec struct {
	name string
	enc  encoding.Encoding
}

// Text returns the strict bytes <-> string codec for a WHATWG encoding
// label such as "utf-8", "utf-16le", "latin1" or "shift_jis". An unknown
// label is a CodeSchema error.
func Text(label string) (goconstruct.Codec[[]byte, string], error) {
	enc, err := htmlindex.Get(strings.ToLower(strings.TrimSpace(label)))
	if err != nil {
		e := goconstruct.Errorf(goconstruct.CodeSchema, "unknown text encoding %q", label)
		e.Cause = err
		return nil, e
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		name = label
	}
	return &textCodec{name: name, enc: enc}, nil
}

// Name returns the canonical encoding name.
func (t *textCodec) Name() string { return t.name }

// Decode rejects any byte sequence that does not survive a round trip,
// since the x/text decoders substitute U+FFFD instead of failing.
func (t *textCodec) Decode(raw []byte) (string, error) {
	if t.name == "utf-8" {
		if !utf8.Valid(raw) {
			return "", t.malformed("invalid utf-8 input", nil)
		}
		return string(raw), nil
	}
	out, err := t.enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", t.malformed("decode failed", err)
	}
	back, err := t.enc.NewEncoder().Bytes(out)
	if err != nil || !bytes.Equal(back, raw) {
		return "", t.malformed("malformed byte sequence", err)
	}
	return string(out), nil
}

func (t *textCodec) Encode(s string) ([]byte, error) {
	if !utf8.ValidString(s) {
		return nil, t.malformed("input is not valid utf-8", nil)
	}
	if t.name == "utf-8" {
		return []byte(s), nil
	}
	out, err := t.enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, t.malformed("text not representable", err)
	}
	return out, nil
}

func (t *textCodec) malformed(msg string, cause error) error {
	e := goconstruct.NewError(goconstruct.CodeCodec, t.name+": "+msg, "encoding", t.name)
	e.Cause = cause
	return e
}
