package matio

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Level 5 MAT-file data types.
const (
	miINT8       = 1
	miUINT8      = 2
	miINT16      = 3
	miUINT16     = 4
	miINT32      = 5
	miUINT32     = 6
	miSINGLE     = 7
	miDOUBLE     = 9
	miINT64      = 12
	miUINT64     = 13
	miMATRIX     = 14
	miCOMPRESSED = 15
	miUTF8       = 16
)

// Array class codes.
const (
	mxSTRUCT = 2
	mxDOUBLE = 6
	mxSINGLE = 7
	mxINT8   = 8
	mxUINT8  = 9
	mxINT16  = 10
	mxUINT16 = 11
	mxINT32  = 12
	mxUINT32 = 13
	mxINT64  = 14
	mxUINT64 = 15
)

// matVar is one top-level variable (or struct field) from a MAT-file.
// Numeric arrays carry values in column-major order; struct arrays
// carry their fields instead.
type matVar struct {
	name   string
	class  uint8
	dims   []int
	values []float64
	fields []matField
}

type matField struct {
	name string
	v    matVar
}

// parseMATFile reads every top-level variable of a Level 5 MAT-file.
// Only little-endian files are supported, which is what MATLAB and
// scipy write on all common platforms.
func parseMATFile(path string) ([]matVar, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening mat")
	}
	if len(b) < 128 {
		return nil, fmt.Errorf("%s: truncated MAT header", path)
	}
	version := binary.LittleEndian.Uint16(b[124:126])
	endian := string(b[126:128])
	if endian == "MI" {
		return nil, fmt.Errorf("%s: big-endian MAT-files are not supported", path)
	}
	if endian != "IM" || version != 0x0100 {
		return nil, fmt.Errorf("%s: not a Level 5 MAT-file", path)
	}

	c := &cursor{b: b, off: 128}
	var vars []matVar
	for c.remaining() >= 8 {
		typ, data, err := c.element()
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", path)
		}
		switch typ {
		case miMATRIX:
			v, err := parseMatrix(data)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %s", path)
			}
			vars = append(vars, v)
		case miCOMPRESSED:
			zr, err := zlib.NewReader(bytes.NewReader(data))
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %s: inflating element", path)
			}
			inflated, err := io.ReadAll(zr)
			_ = zr.Close()
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %s: inflating element", path)
			}
			ic := &cursor{b: inflated}
			ityp, idata, err := ic.element()
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %s", path)
			}
			if ityp != miMATRIX {
				continue
			}
			v, err := parseMatrix(idata)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %s", path)
			}
			vars = append(vars, v)
		default:
			// unknown top-level element, skip
		}
	}
	return vars, nil
}

type cursor struct {
	b   []byte
	off int
}

func (c *cursor) remaining() int { return len(c.b) - c.off }

// element reads one tagged data element, handling the packed
// small-element encoding, and leaves the cursor 8-byte aligned.
func (c *cursor) element() (typ uint32, data []byte, err error) {
	if c.remaining() < 8 {
		return 0, nil, io.ErrUnexpectedEOF
	}
	w := binary.LittleEndian.Uint32(c.b[c.off:])
	if w>>16 != 0 {
		// small element: type and size share the first word, data
		// lives in the second
		typ = w & 0xFFFF
		size := int(w >> 16)
		if size > 4 {
			return 0, nil, fmt.Errorf("small element with %d bytes", size)
		}
		data = c.b[c.off+4 : c.off+4+size]
		c.off += 8
		return typ, data, nil
	}
	typ = w
	size := int(binary.LittleEndian.Uint32(c.b[c.off+4:]))
	if c.remaining() < 8+size {
		return 0, nil, io.ErrUnexpectedEOF
	}
	data = c.b[c.off+8 : c.off+8+size]
	c.off += 8 + size
	if pad := c.off % 8; pad != 0 {
		c.off += 8 - pad
		if c.off > len(c.b) {
			c.off = len(c.b)
		}
	}
	return typ, data, nil
}

// parseMatrix decodes the body of a miMATRIX element.
func parseMatrix(body []byte) (matVar, error) {
	c := &cursor{b: body}

	typ, flags, err := c.element()
	if err != nil {
		return matVar{}, err
	}
	if typ != miUINT32 || len(flags) < 8 {
		return matVar{}, fmt.Errorf("malformed array flags")
	}
	flagWord := binary.LittleEndian.Uint32(flags)
	class := uint8(flagWord & 0xFF)
	complexFlag := flagWord&0x0800 != 0

	typ, dimData, err := c.element()
	if err != nil {
		return matVar{}, err
	}
	if typ != miINT32 {
		return matVar{}, fmt.Errorf("malformed dimensions array")
	}
	dims := make([]int, len(dimData)/4)
	for i := range dims {
		dims[i] = int(int32(binary.LittleEndian.Uint32(dimData[i*4:])))
	}

	typ, nameData, err := c.element()
	if err != nil {
		return matVar{}, err
	}
	if typ != miINT8 && typ != miUTF8 {
		return matVar{}, fmt.Errorf("malformed array name")
	}
	v := matVar{name: string(nameData), class: class, dims: dims}

	switch {
	case class == mxSTRUCT:
		if err := parseStruct(c, &v); err != nil {
			return matVar{}, err
		}
	case class >= mxDOUBLE && class <= mxUINT64:
		typ, real, err := c.element()
		if err != nil {
			return matVar{}, err
		}
		v.values, err = decodeNumeric(typ, real)
		if err != nil {
			return matVar{}, err
		}
		// imaginary part, if any, is dropped
		_ = complexFlag
	default:
		// cell, char, sparse, object: not table material, kept only
		// by name so callers can ignore it
	}
	return v, nil
}

func parseStruct(c *cursor, v *matVar) error {
	typ, lenData, err := c.element()
	if err != nil {
		return err
	}
	if typ != miINT32 || len(lenData) < 4 {
		return fmt.Errorf("malformed struct field name length")
	}
	maxLen := int(int32(binary.LittleEndian.Uint32(lenData)))
	if maxLen <= 0 {
		return fmt.Errorf("malformed struct field name length %d", maxLen)
	}

	typ, namesData, err := c.element()
	if err != nil {
		return err
	}
	if typ != miINT8 {
		return fmt.Errorf("malformed struct field names")
	}
	nfields := len(namesData) / maxLen
	names := make([]string, nfields)
	for i := range names {
		raw := namesData[i*maxLen : (i+1)*maxLen]
		names[i] = strings.TrimRight(string(raw), "\x00")
	}

	nelems := 1
	for _, d := range v.dims {
		nelems *= d
	}
	// Only scalar structs map onto a table; larger struct arrays have
	// their extra elements read and discarded.
	for e := 0; e < nelems; e++ {
		for i := 0; i < nfields; i++ {
			typ, body, err := c.element()
			if err != nil {
				return err
			}
			if typ != miMATRIX {
				return fmt.Errorf("struct field %s is not a matrix element", names[i])
			}
			fv, err := parseMatrix(body)
			if err != nil {
				return err
			}
			if e == 0 {
				fv.name = names[i]
				v.fields = append(v.fields, matField{name: names[i], v: fv})
			}
		}
	}
	return nil
}

func decodeNumeric(typ uint32, data []byte) ([]float64, error) {
	le := binary.LittleEndian
	switch typ {
	case miDOUBLE:
		out := make([]float64, len(data)/8)
		for i := range out {
			out[i] = math.Float64frombits(le.Uint64(data[i*8:]))
		}
		return out, nil
	case miSINGLE:
		out := make([]float64, len(data)/4)
		for i := range out {
			out[i] = float64(math.Float32frombits(le.Uint32(data[i*4:])))
		}
		return out, nil
	case miINT8:
		out := make([]float64, len(data))
		for i := range out {
			out[i] = float64(int8(data[i]))
		}
		return out, nil
	case miUINT8:
		out := make([]float64, len(data))
		for i := range out {
			out[i] = float64(data[i])
		}
		return out, nil
	case miINT16:
		out := make([]float64, len(data)/2)
		for i := range out {
			out[i] = float64(int16(le.Uint16(data[i*2:])))
		}
		return out, nil
	case miUINT16:
		out := make([]float64, len(data)/2)
		for i := range out {
			out[i] = float64(le.Uint16(data[i*2:]))
		}
		return out, nil
	case miINT32:
		out := make([]float64, len(data)/4)
		for i := range out {
			out[i] = float64(int32(le.Uint32(data[i*4:])))
		}
		return out, nil
	case miUINT32:
		out := make([]float64, len(data)/4)
		for i := range out {
			out[i] = float64(le.Uint32(data[i*4:]))
		}
		return out, nil
	case miINT64:
		out := make([]float64, len(data)/8)
		for i := range out {
			out[i] = float64(int64(le.Uint64(data[i*8:])))
		}
		return out, nil
	case miUINT64:
		out := make([]float64, len(data)/8)
		for i := range out {
			out[i] = float64(le.Uint64(data[i*8:]))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported numeric element type %d", typ)
	}
}
