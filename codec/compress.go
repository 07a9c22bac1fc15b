package codec

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	goconstruct "github.com/reoring/goconstruct"
)

// Algorithm identifies a compression format.
type Algorithm string

const (
	// Zstd is a zstd frame at the default speed level.
	Zstd Algorithm = "zstd"
	// LZ4 is an LZ4 frame. Frames carry their own end mark, so the
	// decompressed length does not need to be stored separately.
	LZ4 Algorithm = "lz4"
)

// ParseAlgorithm parses an algorithm from its string representation.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch a := Algorithm(strings.ToLower(name)); a {
	case Zstd, LZ4:
		return a, nil
	}
	return "", goconstruct.Errorf(goconstruct.CodeSchema, "unknown compression algorithm %q", name)
}

// zstd.Encoder and zstd.Decoder are safe for concurrent EncodeAll and
// DecodeAll calls.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("codec: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("codec: zstd decoder initialization failed: " + err.Error())
	}
}

type compressCodec struct{ algo Algorithm }

// Compression returns the compressed bytes <-> plain bytes codec for algo.
func Compression(algo Algorithm) (goconstruct.Codec[[]byte, []byte], error) {
	if _, err := ParseAlgorithm(string(algo)); err != nil {
		return nil, err
	}
	return compressCodec{algo: algo}, nil
}

// Decode decompresses.
func (c compressCodec) Decode(compressed []byte) ([]byte, error) {
	switch c.algo {
	case Zstd:
		out, err := zstdDecoder.DecodeAll(compressed, nil)
		if err != nil {
			return nil, c.fail("decompress", err)
		}
		if out == nil {
			out = []byte{}
		}
		return out, nil
	default:
		out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(compressed)))
		if err != nil {
			return nil, c.fail("decompress", err)
		}
		return out, nil
	}
}

// Encode compresses.
func (c compressCodec) Encode(plain []byte) ([]byte, error) {
	switch c.algo {
	case Zstd:
		return zstdEncoder.EncodeAll(plain, nil), nil
	default:
		var buf bytes.Buffer
		zw := lz4.NewWriter(&buf)
		if _, err := zw.Write(plain); err != nil {
			return nil, c.fail("compress", err)
		}
		if err := zw.Close(); err != nil {
			return nil, c.fail("compress", err)
		}
		return buf.Bytes(), nil
	}
}

func (c compressCodec) fail(op string, err error) error {
	e := goconstruct.NewError(goconstruct.CodeCodec, fmt.Sprintf("%s %s: %v", c.algo, op, err), "algorithm", string(c.algo))
	e.Cause = err
	return e
}
