package compressor

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/structclone-go/pkg/util/merr"
)

func payloads() map[string][]byte {
	return map[string][]byte{
		"empty":      {},
		"short":      []byte("S\x02hi"),
		"repetitive": bytes.Repeat([]byte("{\x02o?\x01"), 512),
		"noise":      []byte{0x91, 0x07, 0xfe, 0x33, 0x10, 0xab, 0x5c, 0x00, 0xd2, 0x4e},
	}
}

func TestRoundTrip(t *testing.T) {
	for _, name := range Names() {
		c, err := New(name)
		require.NoError(t, err)
		assert.Equal(t, name, c.Name())

		for label, src := range payloads() {
			packet, err := c.Compress(nil, src)
			require.NoError(t, err, "%s/%s", name, label)
			plain, err := c.Decompress(nil, packet)
			require.NoError(t, err, "%s/%s", name, label)
			assert.Equal(t, len(src), len(plain), "%s/%s", name, label)
			if len(src) > 0 {
				assert.Equal(t, src, plain, "%s/%s", name, label)
			}
		}
		if z, ok := c.(*ZstdCompressor); ok {
			z.Close()
		}
	}
}

func TestNew(t *testing.T) {
	c, err := New("")
	require.NoError(t, err)
	assert.IsType(t, NopCompressor{}, c)

	c, err = New("SNAPPY")
	require.NoError(t, err)
	assert.IsType(t, SnappyCompressor{}, c)

	_, err = New("brotli")
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
}

func TestCorruptInput(t *testing.T) {
	garbage := []byte{0xff, 0xff, 0xff, 0xff, 0x01, 0x02, 0x03}

	z, err := NewZstdCompressor()
	require.NoError(t, err)
	defer z.Close()
	_, err = z.Decompress(nil, garbage)
	assert.ErrorIs(t, err, merr.ErrInvalidPayload)

	_, err = SnappyCompressor{}.Decompress(nil, garbage)
	assert.ErrorIs(t, err, merr.ErrInvalidPayload)

	_, err = LZ4Compressor{}.Decompress(nil, []byte{1, 2})
	assert.ErrorIs(t, err, merr.ErrInvalidPayload)
	_, err = LZ4Compressor{}.Decompress(nil, []byte{3, 0, 0, 0, 9, 'a', 'b', 'c'})
	assert.ErrorIs(t, err, merr.ErrInvalidPayload)
	_, err = LZ4Compressor{}.Decompress(nil, []byte{4, 0, 0, 0, lz4ModeRaw, 'a'})
	assert.ErrorIs(t, err, merr.ErrInvalidPayload)
}

func TestZstdClosed(t *testing.T) {
	z, err := NewZstdCompressorWithConcurrency(1)
	require.NoError(t, err)
	z.Close()
	_, err = z.Compress(nil, []byte("x"))
	assert.Error(t, err)
	_, err = z.Decompress(nil, []byte("x"))
	assert.Error(t, err)
}
