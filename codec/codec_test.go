package codec_test

import (
	"bytes"
	"errors"
	"testing"

	goconstruct "github.com/reoring/goconstruct"
	"github.com/reoring/goconstruct/codec"
)

func TestText_UTF8Strict(t *testing.T) {
	c, err := codec.Text("UTF-8")
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	s, err := c.Decode([]byte("héllo"))
	if err != nil || s != "héllo" {
		t.Fatalf("Decode = %q, %v", s, err)
	}
	if _, err := c.Decode([]byte{0xff, 0xfe}); !errors.Is(err, goconstruct.ErrCodec) {
		t.Fatalf("expected codec error for malformed utf-8, got %v", err)
	}
}

func TestText_UTF16LE(t *testing.T) {
	c, err := codec.Text("utf-16le")
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	b, err := c.Encode("ab")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(b, []byte{'a', 0, 'b', 0}) {
		t.Fatalf("unexpected bytes %x", b)
	}
	s, err := c.Decode(b)
	if err != nil || s != "ab" {
		t.Fatalf("Decode = %q, %v", s, err)
	}
}

func TestText_ShiftJISRoundTrip(t *testing.T) {
	c, err := codec.Text("shift_jis")
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	b, err := c.Encode("日本")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	s, err := c.Decode(b)
	if err != nil || s != "日本" {
		t.Fatalf("Decode = %q, %v", s, err)
	}
}

func TestText_UnknownLabel(t *testing.T) {
	_, err := codec.Text("no-such-charset")
	if !errors.Is(err, goconstruct.ErrSchema) {
		t.Fatalf("expected schema error, got %v", err)
	}
}

func TestCompression_RoundTrip(t *testing.T) {
	plain := bytes.Repeat([]byte("construct "), 50)
	for _, algo := range []codec.Algorithm{codec.Zstd, codec.LZ4} {
		c, err := codec.Compression(algo)
		if err != nil {
			t.Fatalf("%s: %v", algo, err)
		}
		packed, err := c.Encode(plain)
		if err != nil {
			t.Fatalf("%s encode: %v", algo, err)
		}
		if len(packed) >= len(plain) {
			t.Fatalf("%s did not compress: %d >= %d", algo, len(packed), len(plain))
		}
		back, err := c.Decode(packed)
		if err != nil {
			t.Fatalf("%s decode: %v", algo, err)
		}
		if !bytes.Equal(back, plain) {
			t.Fatalf("%s round trip mismatch", algo)
		}
	}
}

func TestCompression_Corrupt(t *testing.T) {
	c, _ := codec.Compression(codec.Zstd)
	if _, err := c.Decode([]byte("not a frame")); !errors.Is(err, goconstruct.ErrCodec) {
		t.Fatalf("expected codec error, got %v", err)
	}
	if _, err := codec.Compression("gzip"); !errors.Is(err, goconstruct.ErrSchema) {
		t.Fatalf("expected schema error for unknown algorithm, got %v", err)
	}
}

func TestCBOR_RoundTrip(t *testing.T) {
	c := codec.CBOR()
	in := goconstruct.ContainerFrom("b", uint64(2), "a", "x")
	data, err := c.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// deterministic: keys sorted, so "a" comes first
	again, _ := c.Encode(map[string]any{"a": "x", "b": uint64(2)})
	if !bytes.Equal(data, again) {
		t.Fatalf("encoding not deterministic: %x vs %x", data, again)
	}
	v, err := c.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("expected map[string]any, got %T", v)
	}
	if m["a"] != "x" || !goconstruct.Equal(m["b"], 2) {
		t.Fatalf("unexpected value %v", m)
	}
	if _, err := c.Decode([]byte{0xff}); !errors.Is(err, goconstruct.ErrCodec) {
		t.Fatalf("expected codec error, got %v", err)
	}
}

func TestDigest_Sizes(t *testing.T) {
	for _, d := range []codec.Digest{codec.CRC32, codec.SHA256, codec.BLAKE3} {
		if got := len(d.Sum([]byte("abc"))); got != d.Size() {
			t.Fatalf("%s: len %d != Size %d", d, got, d.Size())
		}
	}
	// CRC-32/IEEE of "123456789" is 0xCBF43926.
	if got := codec.CRC32.Sum([]byte("123456789")); !bytes.Equal(got, []byte{0xcb, 0xf4, 0x39, 0x26}) {
		t.Fatalf("crc32 = %x", got)
	}
	if _, err := codec.ParseDigest("md5"); !errors.Is(err, goconstruct.ErrSchema) {
		t.Fatalf("expected schema error, got %v", err)
	}
}
