package idb

import "fmt"

// Range is an immutable, zero-copy view over a contiguous byte region.
// Sub-ranges share the backing array of the slice they were carved from;
// nothing reachable through a Range is ever written to by this package.
type Range []byte

// Len returns the number of bytes in r.
func (r Range) Len() int { return len(r) }

// Bytes returns the underlying bytes of r. Callers must not modify the
// returned slice.
func (r Range) Bytes() []byte { return []byte(r) }

// Sub returns the length bytes starting at off, without copying.
func (r Range) Sub(off, length int) (Range, error) {
	if off < 0 || length < 0 || off+length > len(r) {
		return nil, &FormatError{Detail: fmt.Sprintf("range: [%d:%d] out of bounds (len %d)", off, off+length, len(r))}
	}
	return r[off : off+length], nil
}

// SubFrom returns the bytes from off to the end of r, without copying.
func (r Range) SubFrom(off int) (Range, error) {
	if off < 0 || off > len(r) {
		return nil, &FormatError{Detail: fmt.Sprintf("range: offset %d out of bounds (len %d)", off, len(r))}
	}
	return r[off:], nil
}
