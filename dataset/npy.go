package dataset

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

var npyMagic = []byte("\x93NUMPY")

// ErrUnsupportedDType is returned for element types other than <f4, <f8,
// <i4, <i8 and |u1.
var ErrUnsupportedDType = errors.New("unsupported npy dtype")

// ErrFortranOrder is returned for column-major arrays.
var ErrFortranOrder = errors.New("fortran-ordered npy arrays are not supported")

// Array is a decoded NPY header over the raw element bytes. The bytes are not
// copied, so an Array read from a mapping is valid only while it is mapped.
type Array struct {
	DType string
	Shape []int
	data  []byte
}

func elemSize(dtype string) (int, error) {
	switch dtype {
	case "<f4", "<i4":
		return 4, nil
	case "<f8", "<i8":
		return 8, nil
	case "|u1":
		return 1, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedDType, dtype)
	}
}

// DecodeNPY parses an NPY (format 1.0, 2.0 or 3.0) file held in data.
func DecodeNPY(data []byte) (*Array, error) {
	if len(data) < 10 || !bytes.Equal(data[:6], npyMagic) {
		return nil, errors.New("not an npy file")
	}

	major := data[6]
	var headerLen, offset int
	switch major {
	case 1:
		headerLen = int(binary.LittleEndian.Uint16(data[8:10]))
		offset = 10
	case 2, 3:
		if len(data) < 12 {
			return nil, io.ErrUnexpectedEOF
		}
		headerLen = int(binary.LittleEndian.Uint32(data[8:12]))
		offset = 12
	default:
		return nil, fmt.Errorf("unsupported npy version %d", major)
	}

	if offset+headerLen > len(data) {
		return nil, io.ErrUnexpectedEOF
	}

	a, fortran, err := parseHeader(string(data[offset : offset+headerLen]))
	if err != nil {
		return nil, err
	}
	if fortran {
		return nil, ErrFortranOrder
	}

	size, err := elemSize(a.DType)
	if err != nil {
		return nil, err
	}

	n := 1
	for _, d := range a.Shape {
		n *= d
	}

	body := data[offset+headerLen:]
	if len(body) < n*size {
		return nil, fmt.Errorf("npy body holds %d bytes, shape %v needs %d: %w", len(body), a.Shape, n*size, io.ErrUnexpectedEOF)
	}
	a.data = body[:n*size]

	return a, nil
}

// parseHeader reads the Python dict literal of an NPY header, e.g.
// {'descr': '<f4', 'fortran_order': False, 'shape': (3, 640), }
func parseHeader(h string) (*Array, bool, error) {
	h = strings.TrimSpace(h)
	h = strings.TrimPrefix(h, "{")
	h = strings.TrimSuffix(h, "}")

	a := &Array{}
	fortran := false
	seen := 0

	for h = strings.TrimSpace(h); h != ""; h = strings.TrimSpace(h) {
		key, rest, err := quoted(h)
		if err != nil {
			return nil, false, err
		}
		rest = strings.TrimSpace(rest)
		if !strings.HasPrefix(rest, ":") {
			return nil, false, fmt.Errorf("npy header: missing ':' after %q", key)
		}
		rest = strings.TrimSpace(rest[1:])

		switch key {
		case "descr":
			a.DType, rest, err = quoted(rest)
			if err != nil {
				return nil, false, err
			}
		case "fortran_order":
			switch {
			case strings.HasPrefix(rest, "True"):
				fortran, rest = true, rest[4:]
			case strings.HasPrefix(rest, "False"):
				rest = rest[5:]
			default:
				return nil, false, errors.New("npy header: bad fortran_order")
			}
		case "shape":
			end := strings.IndexByte(rest, ')')
			if !strings.HasPrefix(rest, "(") || end < 0 {
				return nil, false, errors.New("npy header: bad shape")
			}
			for _, f := range strings.Split(rest[1:end], ",") {
				f = strings.TrimSpace(f)
				if f == "" {
					continue
				}
				d, err := strconv.Atoi(f)
				if err != nil || d < 0 {
					return nil, false, fmt.Errorf("npy header: bad dimension %q", f)
				}
				a.Shape = append(a.Shape, d)
			}
			rest = rest[end+1:]
		default:
			return nil, false, fmt.Errorf("npy header: unknown key %q", key)
		}
		seen++

		h = strings.TrimPrefix(strings.TrimSpace(rest), ",")
	}

	if seen != 3 {
		return nil, false, errors.New("npy header: missing keys")
	}
	return a, fortran, nil
}

func quoted(s string) (string, string, error) {
	if s == "" || (s[0] != '\'' && s[0] != '"') {
		return "", "", fmt.Errorf("npy header: expected string at %q", s)
	}
	end := strings.IndexByte(s[1:], s[0])
	if end < 0 {
		return "", "", errors.New("npy header: unterminated string")
	}
	return s[1 : end+1], s[end+2:], nil
}

// Len returns the number of elements.
func (a *Array) Len() int {
	n := 1
	for _, d := range a.Shape {
		n *= d
	}
	return n
}

func (a *Array) at(i int) float64 {
	switch a.DType {
	case "<f4":
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(a.data[i*4:])))
	case "<f8":
		return math.Float64frombits(binary.LittleEndian.Uint64(a.data[i*8:]))
	case "<i4":
		return float64(int32(binary.LittleEndian.Uint32(a.data[i*4:])))
	case "<i8":
		return float64(int64(binary.LittleEndian.Uint64(a.data[i*8:])))
	default:
		return float64(a.data[i])
	}
}

// Matrix copies a 2-D array (or a 1-D array as a single column) into rows of
// float32.
func (a *Array) Matrix() ([][]float32, error) {
	var rows, cols int
	switch len(a.Shape) {
	case 1:
		rows, cols = a.Shape[0], 1
	case 2:
		rows, cols = a.Shape[0], a.Shape[1]
	default:
		return nil, fmt.Errorf("expected a 1-D or 2-D array, got shape %v", a.Shape)
	}

	flat := make([]float32, rows*cols)
	for i := range flat {
		flat[i] = float32(a.at(i))
	}

	out := make([][]float32, rows)
	for r := range out {
		out[r] = flat[r*cols : (r+1)*cols : (r+1)*cols]
	}
	return out, nil
}

// Ints copies a 1-D array of integral values. Float arrays are accepted when
// every element is a whole number.
func (a *Array) Ints() ([]int, error) {
	if len(a.Shape) != 1 {
		return nil, fmt.Errorf("expected a 1-D array, got shape %v", a.Shape)
	}

	out := make([]int, a.Shape[0])
	for i := range out {
		v := a.at(i)
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("element %d is not integral: %v", i, v)
		}
		out[i] = int(v)
	}
	return out, nil
}

// WriteMatrix encodes rows as a 2-D <f4 NPY array.
func WriteMatrix(w io.Writer, rows [][]float32) error {
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}

	body := make([]byte, 0, len(rows)*cols*4)
	for i, r := range rows {
		if len(r) != cols {
			return fmt.Errorf("row %d has %d columns, want %d", i, len(r), cols)
		}
		for _, v := range r {
			body = binary.LittleEndian.AppendUint32(body, math.Float32bits(v))
		}
	}

	return writeNPY(w, "<f4", fmt.Sprintf("(%d, %d)", len(rows), cols), body)
}

// WriteLabels encodes labels as a 1-D <i8 NPY array.
func WriteLabels(w io.Writer, labels []int) error {
	body := make([]byte, 0, len(labels)*8)
	for _, l := range labels {
		body = binary.LittleEndian.AppendUint64(body, uint64(int64(l)))
	}
	return writeNPY(w, "<i8", fmt.Sprintf("(%d,)", len(labels)), body)
}

func writeNPY(w io.Writer, dtype, shape string, body []byte) error {
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': %s, }", dtype, shape)

	// Magic, version and length take 10 bytes; pad so the body is 64-byte aligned.
	total := 10 + len(header) + 1
	if pad := total % 64; pad != 0 {
		header += strings.Repeat(" ", 64-pad)
	}
	header += "\n"

	var buf bytes.Buffer
	buf.Write(npyMagic)
	buf.Write([]byte{1, 0})
	_ = binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)
	buf.Write(body)

	_, err := w.Write(buf.Bytes())
	return err
}
