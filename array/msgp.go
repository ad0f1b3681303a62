package array

import (
	"math"

	"github.com/MasterOfBinary/geobatch"
	"github.com/pkg/errors"
	"github.com/tinylib/msgp/msgp"
)

// Limits on what DecodeMsg allocates before the values have been read.
const (
	maxDecodeDims     = 8
	maxDecodePrealloc = 1 << 16
)

// EncodeMsg implements msgp.Encodable
func (a *Array) EncodeMsg(en *msgp.Writer) error {
	if err := en.WriteMapHeader(2); err != nil {
		return err
	}

	if err := en.WriteString("shape"); err != nil {
		return err
	}
	if err := en.WriteArrayHeader(uint32(len(a.shape))); err != nil {
		return err
	}
	for _, d := range a.shape {
		if err := en.WriteInt64(int64(d)); err != nil {
			return err
		}
	}

	if err := en.WriteString("data"); err != nil {
		return err
	}
	if err := en.WriteArrayHeader(uint32(len(a.data))); err != nil {
		return err
	}
	for _, v := range a.data {
		if err := en.WriteFloat64(v); err != nil {
			return err
		}
	}
	return nil
}

// DecodeMsg implements msgp.Decodable
func (a *Array) DecodeMsg(dc *msgp.Reader) error {
	sz, err := dc.ReadMapHeader()
	if err != nil {
		return err
	}

	var shape []int
	var data []float64
	for sz > 0 {
		sz--
		field, err := dc.ReadString()
		if err != nil {
			return err
		}
		switch field {
		case "shape":
			n, err := dc.ReadArrayHeader()
			if err != nil {
				return msgp.WrapError(err, "shape")
			}
			shape = make([]int, 0, min(n, maxDecodeDims))
			for i := 0; i < int(n); i++ {
				d, err := dc.ReadInt64()
				if err != nil {
					return msgp.WrapError(err, "shape", i)
				}
				if d < 0 || d > math.MaxInt32 {
					return msgp.WrapError(errors.Wrapf(geobatch.ErrInvalidParameter, "dimension %d out of range", d), "shape", i)
				}
				shape = append(shape, int(d))
			}
		case "data":
			n, err := dc.ReadArrayHeader()
			if err != nil {
				return msgp.WrapError(err, "data")
			}
			data = make([]float64, 0, min(n, maxDecodePrealloc))
			for i := 0; i < int(n); i++ {
				v, err := dc.ReadFloat64()
				if err != nil {
					return msgp.WrapError(err, "data", i)
				}
				data = append(data, v)
			}
		default:
			if err := dc.Skip(); err != nil {
				return msgp.WrapError(err, field)
			}
		}
	}

	if n, ok := checkedSize(shape); !ok || n != len(data) {
		return msgp.WrapError(errors.Wrapf(geobatch.ErrInvalidParameter,
			"shape %v does not hold %d values", shape, len(data)), "data")
	}
	decoded, err := FromSlice(data, shape...)
	if err != nil {
		return err
	}
	*a = *decoded
	return nil
}

// checkedSize is the number of values shape holds, or false on overflow.
func checkedSize(shape []int) (int, bool) {
	n := 1
	for _, d := range shape {
		if d != 0 && n > math.MaxInt/d {
			return 0, false
		}
		n *= d
	}
	return n, true
}

// Msgsize returns an upper bound estimate of the number of bytes occupied by the serialized message
func (a *Array) Msgsize() int {
	return msgp.MapHeaderSize +
		msgp.StringPrefixSize + len("shape") + msgp.ArrayHeaderSize + len(a.shape)*msgp.Int64Size +
		msgp.StringPrefixSize + len("data") + msgp.ArrayHeaderSize + len(a.data)*msgp.Float64Size
}
