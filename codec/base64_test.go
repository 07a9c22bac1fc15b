package codec_test

import (
	"bytes"
	"errors"
	"testing"

	goconstruct "github.com/reoring/goconstruct"
	"github.com/reoring/goconstruct/codec"
)

func TestBase64_KnownVectors(t *testing.T) {
	cases := []struct {
		raw  []byte
		text string
	}{
		{nil, ""},
		{[]byte{0x66}, "Zg=="},
		{[]byte{0x66, 0x6f}, "Zm8="},
		{[]byte{0x66, 0x6f, 0x6f}, "Zm9v"},
		{[]byte("foobar"), "Zm9vYmFy"},
		{[]byte{0xff, 0xfe, 0xfd, 0xfc}, "//79/A=="},
	}
	for _, tc := range cases {
		if got := codec.EncodeBase64(tc.raw); got != tc.text {
			t.Fatalf("EncodeBase64(%x) = %q, want %q", tc.raw, got, tc.text)
		}
		back, err := codec.DecodeBase64(tc.text)
		if err != nil {
			t.Fatalf("DecodeBase64(%q): %v", tc.text, err)
		}
		if !bytes.Equal(back, tc.raw) {
			t.Fatalf("DecodeBase64(%q) = %x, want %x", tc.text, back, tc.raw)
		}
	}
}

func TestBase64_RoundTripAllRemainders(t *testing.T) {
	for n := 0; n < 64; n++ {
		raw := make([]byte, n)
		for i := range raw {
			raw[i] = byte(i*37 + n)
		}
		back, err := codec.DecodeBase64(codec.EncodeBase64(raw))
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if !bytes.Equal(back, raw) {
			t.Fatalf("n=%d: round trip mismatch", n)
		}
	}
}

func TestBase64_RejectsMalformed(t *testing.T) {
	for _, in := range []string{"Zg=", "Zg=a", "Z===", "Zm9v!A==", "Zm 9"} {
		_, err := codec.DecodeBase64(in)
		if err == nil {
			t.Fatalf("DecodeBase64(%q) expected error", in)
		}
		if !errors.Is(err, goconstruct.ErrCodec) {
			t.Fatalf("DecodeBase64(%q) error %v is not codec", in, err)
		}
	}
}

func TestBase64_Codec(t *testing.T) {
	c := codec.Base64()
	s, err := c.Decode([]byte("hi"))
	if err != nil || s != "aGk=" {
		t.Fatalf("Decode = %q, %v", s, err)
	}
	b, err := c.Encode("aGk=")
	if err != nil || string(b) != "hi" {
		t.Fatalf("Encode = %q, %v", b, err)
	}
}
