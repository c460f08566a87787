package idb

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	id1HeaderPad     = 0x2000
	id1Const1        = 0x3
	id1Const2        = 0x800
	id1FlagWordBytes = 4
)

// SegmentBounds is a half-open address range [Start, End).
type SegmentBounds struct {
	Start uint64
	End   uint64
}

// Contains reports whether addr lies in [Start, End).
func (b SegmentBounds) Contains(addr uint64) bool {
	return addr >= b.Start && addr < b.End
}

// SegmentDescriptor is one entry of the ID1 segment index: an address
// range plus the byte offset into the flags buffer of the first flags
// word for Bounds.Start.
type SegmentDescriptor struct {
	Bounds SegmentBounds
	Offset uint64
}

// ID1 is the parsed flags section: a segment index plus the packed
// per-address 32-bit flags buffer the segments index into.
type ID1 struct {
	wordSize int
	segments []SegmentDescriptor
	buffer   Range
}

// parseID1 decodes the ID1 header, its segment_count segment bounds
// records, and retains the flags buffer that follows the header padding.
func parseID1(data Range, wordSize int) (*ID1, error) {
	d := newDecoder(data)

	sig, err := d.bytes(4)
	if err != nil {
		return nil, errors.Wrap(err, "id1: truncated header")
	}
	if string(sig) != "VA*\x00" {
		return nil, &FormatError{Section: "id1", Detail: fmt.Sprintf("bad signature %q", sig)}
	}
	c1, err := d.u32()
	if err != nil {
		return nil, errors.Wrap(err, "id1: truncated header")
	}
	if c1 != id1Const1 {
		return nil, &FormatError{Section: "id1", Detail: fmt.Sprintf("unexpected constant 0x%x", c1)}
	}
	segmentCount, err := d.u32()
	if err != nil {
		return nil, errors.Wrap(err, "id1: truncated header")
	}
	c2, err := d.u32()
	if err != nil {
		return nil, errors.Wrap(err, "id1: truncated header")
	}
	if c2 != id1Const2 {
		return nil, &FormatError{Section: "id1", Detail: fmt.Sprintf("unexpected constant 0x%x", c2)}
	}
	pageCount, err := d.u32()
	if err != nil {
		return nil, errors.Wrap(err, "id1: truncated header")
	}

	segments := make([]SegmentDescriptor, 0, segmentCount)
	var offset uint64
	for i := uint32(0); i < segmentCount; i++ {
		start, err := readWord(d, wordSize)
		if err != nil {
			return nil, errors.Wrapf(err, "id1: truncated segment %d", i)
		}
		end, err := readWord(d, wordSize)
		if err != nil {
			return nil, errors.Wrapf(err, "id1: truncated segment %d", i)
		}
		if start > end {
			return nil, &FormatError{Section: "id1", Detail: fmt.Sprintf("segment %d: end < start", i)}
		}
		segments = append(segments, SegmentDescriptor{
			Bounds: SegmentBounds{Start: start, End: end},
			Offset: offset,
		})
		offset += id1FlagWordBytes * (end - start)
	}

	buffer, err := data.Sub(id1HeaderPad, int(pageCount)*id1HeaderPad)
	if err != nil {
		return nil, errors.Wrap(err, "id1: truncated flags buffer")
	}

	return &ID1{wordSize: wordSize, segments: segments, buffer: buffer}, nil
}

// readWord reads a little-endian address field whose width is 4 or 8
// bytes depending on the container's word size.
func readWord(d *decoder, wordSize int) (uint64, error) {
	if wordSize == 8 {
		return d.u64()
	}
	v, err := d.u32()
	return uint64(v), err
}

// Validate re-checks every segment's start <= end invariant.
func (t *ID1) Validate() error {
	for i, s := range t.segments {
		if s.Bounds.Start > s.Bounds.End {
			return &FormatError{Section: "id1", Detail: fmt.Sprintf("segment %d: end < start", i)}
		}
	}
	return nil
}

// Segments returns the segment index in file order.
func (t *ID1) Segments() []SegmentDescriptor { return t.segments }

// GetSegment returns the segment whose bounds contain addr.
func (t *ID1) GetSegment(addr uint64) (SegmentDescriptor, error) {
	for _, s := range t.segments {
		if s.Bounds.Contains(addr) {
			return s, nil
		}
	}
	return SegmentDescriptor{}, &NotPresentError{Op: "get_segment", Key: fmt.Sprintf("0x%x", addr)}
}

// GetNextSegment returns the segment following the one containing addr.
// Unlike the original source's dead off-by-one guard, this checks the
// index explicitly and fails once addr's segment is the last one.
func (t *ID1) GetNextSegment(addr uint64) (SegmentDescriptor, error) {
	for i, s := range t.segments {
		if s.Bounds.Contains(addr) {
			if i == len(t.segments)-1 {
				return SegmentDescriptor{}, &OutOfBoundsError{Op: "get_next_segment"}
			}
			return t.segments[i+1], nil
		}
	}
	return SegmentDescriptor{}, &NotPresentError{Op: "get_next_segment", Key: fmt.Sprintf("0x%x", addr)}
}

// GetFlags returns the 32-bit flags word for addr.
func (t *ID1) GetFlags(addr uint64) (uint32, error) {
	seg, err := t.GetSegment(addr)
	if err != nil {
		return 0, err
	}
	byteOffset := seg.Offset + id1FlagWordBytes*(addr-seg.Bounds.Start)
	word, err := t.buffer.Sub(int(byteOffset), id1FlagWordBytes)
	if err != nil {
		return 0, errors.Wrapf(err, "get_flags: address 0x%x", addr)
	}
	d := newDecoder(word)
	v, err := d.u32()
	if err != nil {
		return 0, err
	}
	return v, nil
}

// GetByte returns the low 8 bits of GetFlags(addr).
func (t *ID1) GetByte(addr uint64) (uint8, error) {
	flags, err := t.GetFlags(addr)
	if err != nil {
		return 0, err
	}
	return uint8(flags & 0xFF), nil
}
