// Package codec holds the reversible value transforms behind the dsl
// adapters: base64 text, named character encodings, compression, CBOR and
// checksum digests.
//
// Every transform returns *goconstruct.Error with CodeCodec on malformed
// input, so adapters can surface failures without re-wrapping.
package codec
