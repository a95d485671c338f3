package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dictcore/dictcore/internal/coreerrors"
)

func TestCanonicalizeSortsKeysAndStripsWhitespace(t *testing.T) {
	got, err := Canonicalize(map[string]any{
		"zebra": 1,
		"apple": map[string]any{"b": 2, "a": 1},
		"mango": []any{"x", "y"},
	})
	require.NoError(t, err)
	require.Equal(t, `{"apple":{"a":1,"b":2},"mango":["x","y"],"zebra":1}`, string(got))
}

func TestCanonicalizeIsDeterministic(t *testing.T) {
	value := map[string]any{"defs": []any{"a greeting", "hi"}, "lang": "en", "count": 2.0}

	first, err := Canonicalize(value)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Canonicalize(value)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestCanonicalizeDoesNotEscapeHTML(t *testing.T) {
	got, err := Canonicalize(map[string]any{"q": "a<b>&c"})
	require.NoError(t, err)
	require.Equal(t, `{"q":"a<b>&c"}`, string(got))
}

func TestCanonicalizeRejectsUnknownTypes(t *testing.T) {
	_, err := Canonicalize(map[string]any{"bad": make(chan int)})
	require.Error(t, err)
	require.ErrorIs(t, err, coreerrors.EncodeError(""))
}

func TestHashContentProducesStable64HexDigest(t *testing.T) {
	_, digest, skip, err := HashContent(map[string]any{"defs": []any{"a greeting"}})
	require.NoError(t, err)
	require.False(t, skip)
	require.Len(t, digest, 64)

	_, again, _, err := HashContent(map[string]any{"defs": []any{"a greeting"}})
	require.NoError(t, err)
	require.Equal(t, digest, again)
}

func TestHashContentSkipsLargePayloads(t *testing.T) {
	big := strings.Repeat("x", LargeContentThreshold)
	_, digest, skip, err := HashContent(map[string]any{"blob": big})
	require.NoError(t, err)
	require.True(t, skip)
	require.Equal(t, SkipLargeContentChecksum, digest)
}

func TestHashContentSkipsBinaryDataField(t *testing.T) {
	_, digest, skip, err := HashContent(map[string]any{"binary_data": "AAAA"})
	require.NoError(t, err)
	require.True(t, skip)
	require.Equal(t, SkipLargeContentChecksum, digest)
}
