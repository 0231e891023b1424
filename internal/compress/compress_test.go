package compress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	// Sparse count matrices compress well.
	data := make([]byte, 64*1024)
	for i := 0; i < len(data); i += 97 {
		data[i] = byte(i)
	}

	for _, typ := range []Type{None, LZ4, ZSTD} {
		t.Run(typ.String(), func(t *testing.T) {
			block, err := Encode(data, typ)
			require.NoError(t, err)

			if typ != None {
				assert.Less(t, len(block), len(data))
			}

			out, err := Decode(block)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(data, out))
		})
	}
}

func TestEncode_Incompressible(t *testing.T) {
	data := []byte{0x01, 0x7f, 0x33}

	block, err := Encode(data, ZSTD)
	require.NoError(t, err)
	assert.Len(t, block, headerSize+len(data))

	out, err := Decode(block)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestDecode_Corrupt(t *testing.T) {
	_, err := Decode([]byte{1, 2})
	assert.ErrorIs(t, err, errShortBlock)

	block, err := Encode(make([]byte, 4096), LZ4)
	require.NoError(t, err)

	_, err = Decode(block[:len(block)-1])
	assert.Error(t, err)
}

func TestParseType(t *testing.T) {
	for _, typ := range []Type{None, LZ4, ZSTD} {
		parsed, err := ParseType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, parsed)
	}

	_, err := ParseType("brotli")
	assert.Error(t, err)
}
