package veilstream

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// zstdMagic is the zstd frame header. Stored content is sniffed for it on
// the way out, so readers need no side channel to know whether a blob was
// compressed before encryption.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// compressContent compresses plaintext with zstd.
func compressContent(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd writer: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// maybeDecompress inflates data when it carries a zstd frame, and returns
// it untouched otherwise.
func maybeDecompress(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, zstdMagic) {
		return data, nil
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd reader: %w", err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress content: %w", err)
	}
	return out, nil
}
