package codec

import (
	"strings"

	goconstruct "github.com/reoring/goconstruct"
)

const base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

var base64Index = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(base64Alphabet); i++ {
		t[base64Alphabet[i]] = int8(i)
	}
	return t
}()

// EncodeBase64 renders raw as standard-alphabet base64 text padded with
// '=' to a multiple of four characters.
func EncodeBase64(raw []byte) string {
	var b strings.Builder
	b.Grow((len(raw) + 2) / 3 * 4)
	var acc uint32
	bits := 0
	for _, c := range raw {
		acc = acc<<8 | uint32(c)
		bits += 8
		for bits >= 6 {
			bits -= 6
			b.WriteByte(base64Alphabet[(acc>>uint(bits))&0x3f])
		}
	}
	if bits > 0 {
		b.WriteByte(base64Alphabet[(acc<<uint(6-bits))&0x3f])
	}
	for b.Len()%4 != 0 {
		b.WriteByte('=')
	}
	return b.String()
}

// DecodeBase64 parses padded standard-alphabet base64 text. The length must
// be a multiple of four with at most two trailing '='.
func DecodeBase64(text string) ([]byte, error) {
	if len(text)%4 != 0 {
		return nil, goconstruct.Errorf(goconstruct.CodeCodec, "base64 length %d is not a multiple of 4", len(text))
	}
	pad := 0
	for pad < 2 && len(text)-pad > 0 && text[len(text)-1-pad] == '=' {
		pad++
	}
	body := text[:len(text)-pad]
	for i := 0; i < len(body); i++ {
		if base64Index[body[i]] < 0 {
			return nil, goconstruct.Errorf(goconstruct.CodeCodec, "invalid base64 character %q at %d", body[i], i)
		}
	}
	out := make([]byte, 0, len(text)/4*3)
	for i := 0; i < len(text); i += 4 {
		var group uint32
		for k := 0; k < 4; k++ {
			c := text[i+k]
			v := uint32(0)
			if c != '=' {
				v = uint32(base64Index[c])
			}
			group = group<<6 | v
		}
		out = append(out, byte(group>>16), byte(group>>8), byte(group))
	}
	return out[:len(out)-pad], nil
}

type base64Codec struct{}

// Base64 returns the bytes <-> base64 text codec.
func Base64() goconstruct.Codec[[]byte, string] { return base64Codec{} }

func (base64Codec) Decode(raw []byte) (string, error)  { return EncodeBase64(raw), nil }
func (base64Codec) Encode(text string) ([]byte, error) { return DecodeBase64(text) }
