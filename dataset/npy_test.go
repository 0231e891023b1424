package dataset

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rawNPY builds an NPY v1 file with the given descr, shape literal and body.
func rawNPY(descr, shape string, body []byte) []byte {
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': %s, }", descr, shape)
	header += strings.Repeat(" ", 63-(10+len(header))%64) + "\n"

	var buf bytes.Buffer
	buf.Write(npyMagic)
	buf.Write([]byte{1, 0})
	_ = binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)
	buf.Write(body)
	return buf.Bytes()
}

func TestDecodeNPY_DTypes(t *testing.T) {
	le := binary.LittleEndian

	tests := []struct {
		descr string
		body  []byte
	}{
		{"<f4", le.AppendUint32(le.AppendUint32(le.AppendUint32(le.AppendUint32(nil,
			math.Float32bits(0)), math.Float32bits(1)), math.Float32bits(2)), math.Float32bits(3))},
		{"<f8", le.AppendUint64(le.AppendUint64(le.AppendUint64(le.AppendUint64(nil,
			math.Float64bits(0)), math.Float64bits(1)), math.Float64bits(2)), math.Float64bits(3))},
		{"<i4", le.AppendUint32(le.AppendUint32(le.AppendUint32(le.AppendUint32(nil, 0), 1), 2), 3)},
		{"<i8", le.AppendUint64(le.AppendUint64(le.AppendUint64(le.AppendUint64(nil, 0), 1), 2), 3)},
		{"|u1", []byte{0, 1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.descr, func(t *testing.T) {
			a, err := DecodeNPY(rawNPY(tt.descr, "(2, 2)", tt.body))
			require.NoError(t, err)
			assert.Equal(t, []int{2, 2}, a.Shape)
			assert.Equal(t, 4, a.Len())

			m, err := a.Matrix()
			require.NoError(t, err)
			assert.Equal(t, [][]float32{{0, 1}, {2, 3}}, m)

			flat, err := DecodeNPY(rawNPY(tt.descr, "(4,)", tt.body))
			require.NoError(t, err)
			ints, err := flat.Ints()
			require.NoError(t, err)
			assert.Equal(t, []int{0, 1, 2, 3}, ints)
		})
	}
}

func TestDecodeNPY_NegativeInts(t *testing.T) {
	body := binary.LittleEndian.AppendUint32(nil, uint32(0xFFFFFFFE))
	a, err := DecodeNPY(rawNPY("<i4", "(1,)", body))
	require.NoError(t, err)

	ints, err := a.Ints()
	require.NoError(t, err)
	assert.Equal(t, []int{-2}, ints)
}

func TestDecodeNPY_Errors(t *testing.T) {
	_, err := DecodeNPY([]byte("not numpy at all"))
	assert.Error(t, err)

	_, err = DecodeNPY(rawNPY(">f4", "(1,)", make([]byte, 4)))
	assert.ErrorIs(t, err, ErrUnsupportedDType)

	_, err = DecodeNPY(rawNPY("<f4", "(4,)", make([]byte, 8)))
	assert.Error(t, err)

	fortran := bytes.Replace(rawNPY("<f4", "(1, 1)", make([]byte, 4)), []byte("False"), []byte("True "), 1)
	_, err = DecodeNPY(fortran)
	assert.ErrorIs(t, err, ErrFortranOrder)

	a, err := DecodeNPY(rawNPY("<f4", "(1,)", binary.LittleEndian.AppendUint32(nil, math.Float32bits(1.5))))
	require.NoError(t, err)
	_, err = a.Ints()
	assert.Error(t, err)

	a, err = DecodeNPY(rawNPY("<f4", "(1, 1, 1)", make([]byte, 4)))
	require.NoError(t, err)
	_, err = a.Matrix()
	assert.Error(t, err)
}

func TestWriteMatrixAndLabels(t *testing.T) {
	var buf bytes.Buffer
	rows := [][]float32{{0.5, -1}, {2, 3.25}, {4, 5}}
	require.NoError(t, WriteMatrix(&buf, rows))

	// Body starts on a 64-byte boundary.
	assert.Equal(t, 0, (buf.Len()-len(rows)*2*4)%64)

	a, err := DecodeNPY(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "<f4", a.DType)
	got, err := a.Matrix()
	require.NoError(t, err)
	assert.Equal(t, rows, got)

	buf.Reset()
	require.NoError(t, WriteLabels(&buf, []int{3, 0, 9}))
	a, err = DecodeNPY(buf.Bytes())
	require.NoError(t, err)
	labels, err := a.Ints()
	require.NoError(t, err)
	assert.Equal(t, []int{3, 0, 9}, labels)

	assert.Error(t, WriteMatrix(&buf, [][]float32{{1, 2}, {3}}))
}

func TestLoadAndSave(t *testing.T) {
	dir := t.TempDir()

	f := Fold{
		Index:    2,
		Features: [][]float32{{0, 1}, {1, 0}, {0.5, 0.5}},
		Labels:   []int{0, 1, 1},
	}
	require.NoError(t, Save(dir, f))

	_, err := os.Stat(filepath.Join(dir, "features-002.npy"))
	require.NoError(t, err)

	got, err := Load(dir, 2)
	require.NoError(t, err)
	assert.Equal(t, f, got)

	_, err = LoadAll(dir, 3)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_MismatchedLabels(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Save(dir, Fold{Features: [][]float32{{1}}, Labels: []int{0}}))

	var buf bytes.Buffer
	require.NoError(t, WriteLabels(&buf, []int{0, 1}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "labels-000.npy"), buf.Bytes(), 0o600))

	_, err := Load(dir, 0)
	assert.Error(t, err)
}
