package idb

import "encoding/binary"

// decoder reads little-endian fixed-width integers and length-prefixed
// byte runs from a Range, advancing an internal cursor. It implements the
// two-pass shape design note 9 calls for: callers read a fixed-width
// prefix, compute a dependent length from it, then read the variable-width
// body — there is no reflection or per-field callback involved.
type decoder struct {
	r   Range
	off int
}

func newDecoder(r Range) *decoder {
	return &decoder{r: r}
}

func (d *decoder) u8() (uint8, error) {
	if d.off+1 > len(d.r) {
		return 0, &FormatError{Detail: "unexpected end of data"}
	}
	v := d.r[d.off]
	d.off++
	return v, nil
}

func (d *decoder) u16() (uint16, error) {
	if d.off+2 > len(d.r) {
		return 0, &FormatError{Detail: "unexpected end of data"}
	}
	v := binary.LittleEndian.Uint16(d.r[d.off:])
	d.off += 2
	return v, nil
}

func (d *decoder) u32() (uint32, error) {
	if d.off+4 > len(d.r) {
		return 0, &FormatError{Detail: "unexpected end of data"}
	}
	v := binary.LittleEndian.Uint32(d.r[d.off:])
	d.off += 4
	return v, nil
}

func (d *decoder) u64() (uint64, error) {
	if d.off+8 > len(d.r) {
		return 0, &FormatError{Detail: "unexpected end of data"}
	}
	v := binary.LittleEndian.Uint64(d.r[d.off:])
	d.off += 8
	return v, nil
}

// bytes returns the next n bytes without copying.
func (d *decoder) bytes(n int) (Range, error) {
	if n < 0 || d.off+n > len(d.r) {
		return nil, &FormatError{Detail: "unexpected end of data"}
	}
	v := d.r[d.off : d.off+n]
	d.off += n
	return v, nil
}

func (d *decoder) skip(n int) error {
	if n < 0 || d.off+n > len(d.r) {
		return &FormatError{Detail: "unexpected end of data"}
	}
	d.off += n
	return nil
}

// remaining returns the number of unread bytes.
func (d *decoder) remaining() int {
	return len(d.r) - d.off
}
