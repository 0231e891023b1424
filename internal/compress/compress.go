// Package compress implements the block codec used for memory snapshots.
package compress

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type selects the compression algorithm.
type Type uint8

const (
	// None stores blocks verbatim.
	None Type = 0
	// LZ4 favours speed.
	LZ4 Type = 1
	// ZSTD favours ratio.
	ZSTD Type = 2
)

func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compress.Type(%d)", uint8(t))
	}
}

// ParseType resolves a name as printed by Type.String.
func ParseType(name string) (Type, error) {
	switch name {
	case "", "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return ZSTD, nil
	default:
		return None, fmt.Errorf("unknown compression %q", name)
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Block layout: [type uint8][uncompressed uint32][stored uint32][data...].
// A stored size of 0 marks a verbatim block.
const headerSize = 9

var (
	errShortBlock   = errors.New("compress: block too small for header")
	errSizeMismatch = errors.New("compress: decompressed size mismatch")
)

// Encode compresses data into a self-describing block. Data that does not
// shrink below 90% of its size is stored verbatim.
func Encode(data []byte, t Type) ([]byte, error) {
	var packed []byte

	switch t {
	case None:
	case LZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		packed = buf[:n]
	case ZSTD:
		enc := getZstdEncoder()
		packed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("compress: unsupported type %d", t)
	}

	if len(packed) == 0 || float64(len(packed)) > float64(len(data))*0.9 {
		return frame(t, data, nil), nil
	}

	return frame(t, data, packed), nil
}

func frame(t Type, data, packed []byte) []byte {
	body := packed
	if packed == nil {
		body = data
	}

	out := make([]byte, headerSize+len(body))
	out[0] = byte(t)
	binary.LittleEndian.PutUint32(out[1:], uint32(len(data)))
	if packed != nil {
		binary.LittleEndian.PutUint32(out[5:], uint32(len(packed)))
	}
	copy(out[headerSize:], body)
	return out
}

// Decode reverses Encode. The algorithm is read from the block header.
func Decode(block []byte) ([]byte, error) {
	if len(block) < headerSize {
		return nil, errShortBlock
	}

	t := Type(block[0])
	rawSize := binary.LittleEndian.Uint32(block[1:])
	storedSize := binary.LittleEndian.Uint32(block[5:])

	if storedSize == 0 {
		if uint64(len(block)) < headerSize+uint64(rawSize) {
			return nil, errors.New("compress: block data too small")
		}
		out := make([]byte, rawSize)
		copy(out, block[headerSize:headerSize+int(rawSize)])
		return out, nil
	}

	if uint64(len(block)) < headerSize+uint64(storedSize) {
		return nil, errors.New("compress: compressed block data too small")
	}
	packed := block[headerSize : headerSize+int(storedSize)]
	out := make([]byte, rawSize)

	switch t {
	case LZ4:
		n, err := lz4.UncompressBlock(packed, out)
		if err != nil {
			return nil, err
		}
		if uint32(n) != rawSize {
			return nil, errSizeMismatch
		}
		return out, nil
	case ZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)

		decoded, err := dec.DecodeAll(packed, out[:0])
		if err != nil {
			return nil, err
		}
		if uint32(len(decoded)) != rawSize {
			return nil, errSizeMismatch
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("compress: unsupported type %d", t)
	}
}
