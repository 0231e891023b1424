// Package memory implements the relational associative memory.
//
// A memory over `domain` dimensions and `size` levels keeps a domain x size
// matrix of occupancy counts. Training registers quantized vectors; queries
// test membership and reconstruct a prototype.
//
//	m, _ := memory.New(640, 64)
//	_ = m.Register(code)                    // relation[d][code[d]]++
//	ok, _ := m.Recognize(probe, 0)          // every cell seen at least once?
//	proto, ok, _ := m.Recall(probe, 0)      // argmax level per dimension
//	h := m.Entropy()                        // mean per-dimension entropy, bits
//
// # Recognition
//
// A dimension is a miss when its probe level was never registered. The
// probe is recognized when misses <= tolerance; tolerance 0 is a strict
// conjunctive membership test.
//
// # Recall
//
// Recall is gated by recognition. A recognized probe yields the memory's
// prototype (the most frequent level per dimension, lower level on ties),
// not the probe itself. An unrecognized probe yields a vector filled with
// Undefined (== size) and false.
//
// # Errors
//
// A vector of the wrong length fails with *ErrInvalidDimension, a coordinate
// outside [0, size) with *ErrInvalidLevel. Both are detected before the
// relation is touched, so a failed Register leaves the memory unchanged.
//
// # Snapshots
//
// MarshalBinary and WriteSnapshot persist the relation; WriteSnapshot packs
// it with LZ4 or ZSTD.
package memory
