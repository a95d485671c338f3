// Package compress implements the pluggable per-namespace compression
// trait, with concrete codecs selected by coreconfig.Compression and a
// size-driven policy.
package compress

import (
	"bytes"
	"compress/gzip"
	"io"

	"github.com/dictcore/dictcore/internal/coreconfig"
	"github.com/dictcore/dictcore/internal/coreerrors"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compressor is the shared interface every algorithm implements.
type Compressor interface {
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
	Name() coreconfig.Compression
}

// SizeThresholdNone is the cutover below which no compression is ever
// applied, regardless of namespace policy.
const SizeThresholdNone = 1024

// SizeThresholdGzip is the cutover above which gzip replaces zstd.
const SizeThresholdGzip = 10 * 1024 * 1024

// ForSize resolves the effective compressor for a payload of the given
// size under a namespace's configured algorithm, applying the size
// bands. A namespace configured for lz4 (Trie) is exempt from the size
// bands since it is chosen for latency, not ratio.
func ForSize(configured coreconfig.Compression, size int) Compressor {
	if configured == coreconfig.CompressionLZ4 {
		return lz4Compressor{}
	}
	if configured == coreconfig.CompressionNone || size < SizeThresholdNone {
		return noneCompressor{}
	}
	if size > SizeThresholdGzip {
		return gzipCompressor{}
	}
	return zstdCompressor{}
}

// New resolves a compressor by name directly, used when decoding a payload
// whose original algorithm is already known (recorded in ContentLocation).
func New(name coreconfig.Compression) Compressor {
	switch name {
	case coreconfig.CompressionZstd:
		return zstdCompressor{}
	case coreconfig.CompressionLZ4:
		return lz4Compressor{}
	case coreconfig.CompressionGzip:
		return gzipCompressor{}
	default:
		return noneCompressor{}
	}
}

type noneCompressor struct{}

func (noneCompressor) Encode(data []byte) ([]byte, error) { return data, nil }
func (noneCompressor) Decode(data []byte) ([]byte, error) { return data, nil }
func (noneCompressor) Name() coreconfig.Compression       { return coreconfig.CompressionNone }

type zstdCompressor struct{}

func (zstdCompressor) Encode(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, coreerrors.New(coreerrors.ErrCodeCompressFailed, "zstd writer init failed", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

func (zstdCompressor) Decode(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, coreerrors.New(coreerrors.ErrCodeDecompressFailed, "zstd reader init failed", err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, coreerrors.New(coreerrors.ErrCodeDecompressFailed, "corrupt zstd frame", err)
	}
	return out, nil
}

func (zstdCompressor) Name() coreconfig.Compression { return coreconfig.CompressionZstd }

type lz4Compressor struct{}

func (lz4Compressor) Encode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, coreerrors.New(coreerrors.ErrCodeCompressFailed, "lz4 write failed", err)
	}
	if err := w.Close(); err != nil {
		return nil, coreerrors.New(coreerrors.ErrCodeCompressFailed, "lz4 close failed", err)
	}
	return buf.Bytes(), nil
}

func (lz4Compressor) Decode(data []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(data))
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, coreerrors.New(coreerrors.ErrCodeDecompressFailed, "corrupt lz4 frame", err)
	}
	return out, nil
}

func (lz4Compressor) Name() coreconfig.Compression { return coreconfig.CompressionLZ4 }

type gzipCompressor struct{}

func (gzipCompressor) Encode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.DefaultCompression)
	if err != nil {
		return nil, coreerrors.New(coreerrors.ErrCodeCompressFailed, "gzip writer init failed", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, coreerrors.New(coreerrors.ErrCodeCompressFailed, "gzip write failed", err)
	}
	if err := w.Close(); err != nil {
		return nil, coreerrors.New(coreerrors.ErrCodeCompressFailed, "gzip close failed", err)
	}
	return buf.Bytes(), nil
}

func (gzipCompressor) Decode(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, coreerrors.New(coreerrors.ErrCodeDecompressFailed, "corrupt gzip frame", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, coreerrors.New(coreerrors.ErrCodeDecompressFailed, "corrupt gzip frame", err)
	}
	return out, nil
}

func (gzipCompressor) Name() coreconfig.Compression { return coreconfig.CompressionGzip }
