package compress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dictcore/dictcore/internal/coreconfig"
)

func TestRoundTripPerAlgorithm(t *testing.T) {
	payload := bytes.Repeat([]byte("the quick brown fox "), 200)

	tests := []struct {
		name coreconfig.Compression
	}{
		{coreconfig.CompressionZstd},
		{coreconfig.CompressionLZ4},
		{coreconfig.CompressionGzip},
		{coreconfig.CompressionNone},
	}
	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			comp := New(tt.name)
			require.Equal(t, tt.name, comp.Name())

			encoded, err := comp.Encode(payload)
			require.NoError(t, err)
			decoded, err := comp.Decode(encoded)
			require.NoError(t, err)
			require.Equal(t, payload, decoded)
		})
	}
}

func TestForSizeAppliesSizeBands(t *testing.T) {
	tests := []struct {
		name       string
		configured coreconfig.Compression
		size       int
		want       coreconfig.Compression
	}{
		{"tiny payloads skip compression", coreconfig.CompressionZstd, 512, coreconfig.CompressionNone},
		{"mid-size uses zstd", coreconfig.CompressionZstd, 64 * 1024, coreconfig.CompressionZstd},
		{"huge payloads fall back to gzip", coreconfig.CompressionZstd, SizeThresholdGzip + 1, coreconfig.CompressionGzip},
		{"lz4 namespaces bypass the bands", coreconfig.CompressionLZ4, 16, coreconfig.CompressionLZ4},
		{"none stays none", coreconfig.CompressionNone, 64 * 1024, coreconfig.CompressionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ForSize(tt.configured, tt.size).Name())
		})
	}
}

func TestDecodeCorruptFrameFails(t *testing.T) {
	garbage := []byte("definitely not a compressed frame")

	for _, name := range []coreconfig.Compression{coreconfig.CompressionZstd, coreconfig.CompressionGzip} {
		t.Run(string(name), func(t *testing.T) {
			_, err := New(name).Decode(garbage)
			require.Error(t, err)
		})
	}
}
