package bundle

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the outer compression of a bundle stream. Import
// detects it from the stream's magic bytes.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionZstd
	CompressionLZ4
)

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// ParseCompression parses a compression name as printed by String.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("bundle: unknown compression %q", name)
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// compressWriter wraps w. Closing the result flushes the compressor but
// does not close w.
func compressWriter(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionZstd:
		// A single encoder goroutine keeps the output identical across runs.
		return zstd.NewWriter(w,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithEncoderConcurrency(1),
		)
	case CompressionLZ4:
		zw := lz4.NewWriter(w)
		if err := zw.Apply(lz4.ConcurrencyOption(1)); err != nil {
			return nil, fmt.Errorf("bundle: lz4: %w", err)
		}
		return zw, nil
	default:
		return nil, fmt.Errorf("bundle: unsupported compression %s", c)
	}
}

// decompressReader detects the compression of r from its first bytes and
// returns a reader of the decompressed stream.
func decompressReader(r io.Reader) (io.Reader, Compression, func(), error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, 0, nil, err
	}
	switch {
	case bytes.Equal(head, zstdMagic):
		dec, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, 0, nil, fmt.Errorf("bundle: zstd: %w", err)
		}
		return dec, CompressionZstd, dec.Close, nil
	case bytes.Equal(head, lz4Magic):
		return lz4.NewReader(br), CompressionLZ4, func() {}, nil
	default:
		return br, CompressionNone, func() {}, nil
	}
}
