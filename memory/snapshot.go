package memory

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/assocmem/internal/compress"
)

// Compression selects how snapshots are packed.
type Compression = compress.Type

const (
	CompressionNone = compress.None
	CompressionLZ4  = compress.LZ4
	CompressionZSTD = compress.ZSTD
)

// ParseCompression resolves "none", "lz4" or "zstd".
func ParseCompression(name string) (Compression, error) {
	return compress.ParseType(name)
}

// Snapshot layout (little-endian):
//
//	[magic "AMRM"][version uint8][domain uint32][size uint32]
//	[registrations uint64][relation uint32 x domain*size]
const (
	snapshotMagic      = "AMRM"
	snapshotVersion    = 1
	snapshotHeaderSize = 4 + 1 + 4 + 4 + 8
)

// MarshalBinary implements encoding.BinaryMarshaler.
func (m *Memory) MarshalBinary() ([]byte, error) {
	b := make([]byte, snapshotHeaderSize+4*len(m.relation))

	copy(b[0:4], snapshotMagic)
	b[4] = snapshotVersion
	binary.LittleEndian.PutUint32(b[5:9], uint32(m.domain))
	binary.LittleEndian.PutUint32(b[9:13], uint32(m.size))
	binary.LittleEndian.PutUint64(b[13:21], m.registrations)

	off := snapshotHeaderSize
	for _, c := range m.relation {
		binary.LittleEndian.PutUint32(b[off:], c)
		off += 4
	}

	return b, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. The receiver takes
// the shape stored in data.
func (m *Memory) UnmarshalBinary(data []byte) error {
	if len(data) < snapshotHeaderSize || string(data[0:4]) != snapshotMagic {
		return ErrCorruptSnapshot
	}
	if data[4] != snapshotVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrCorruptSnapshot, data[4])
	}

	domain := int(binary.LittleEndian.Uint32(data[5:9]))
	size := int(binary.LittleEndian.Uint32(data[9:13]))
	if domain <= 0 || size <= 0 {
		return fmt.Errorf("%w: %w", ErrCorruptSnapshot, ErrInvalidShape)
	}

	if domain > math.MaxInt/4/size {
		return fmt.Errorf("%w: shape %dx%d too large", ErrCorruptSnapshot, domain, size)
	}

	cells := domain * size
	if len(data) != snapshotHeaderSize+4*cells {
		return fmt.Errorf("%w: expected %d relation cells", ErrCorruptSnapshot, cells)
	}

	relation := make([]uint32, cells)
	off := snapshotHeaderSize
	for i := range relation {
		relation[i] = binary.LittleEndian.Uint32(data[off:])
		off += 4
	}

	m.domain = domain
	m.size = size
	m.relation = relation
	m.registrations = binary.LittleEndian.Uint64(data[13:21])

	return nil
}

// WriteSnapshot writes a compressed snapshot of m to w.
func (m *Memory) WriteSnapshot(w io.Writer, c Compression) error {
	raw, err := m.MarshalBinary()
	if err != nil {
		return err
	}

	block, err := compress.Encode(raw, c)
	if err != nil {
		return err
	}

	_, err = w.Write(block)
	return err
}

// ReadSnapshot reads a memory written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*Memory, error) {
	block, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	raw, err := compress.Decode(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}

	m := &Memory{}
	if err := m.UnmarshalBinary(raw); err != nil {
		return nil, err
	}

	return m, nil
}
