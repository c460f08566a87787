package idb

import (
	"fmt"

	"github.com/pkg/errors"
)

const namHeaderPad = 0x2000

// NAM is the parsed name section: an ordered sequence of addresses of
// named program items.
type NAM struct {
	wordSize  int
	nameCount uint32
	buffer    Range
}

// parseNAM decodes the NAM header and retains the payload buffer that
// follows the header padding.
func parseNAM(data Range, wordSize int) (*NAM, error) {
	d := newDecoder(data)

	sig, err := d.bytes(4)
	if err != nil {
		return nil, errors.Wrap(err, "nam: truncated header")
	}
	if string(sig) != "VA*\x00" {
		return nil, &FormatError{Section: "nam", Detail: fmt.Sprintf("bad signature %q", sig)}
	}
	c1, err := d.u32()
	if err != nil {
		return nil, errors.Wrap(err, "nam: truncated header")
	}
	if c1 != id1Const1 {
		return nil, &FormatError{Section: "nam", Detail: fmt.Sprintf("unexpected constant 0x%x", c1)}
	}
	nonEmpty, err := d.u32()
	if err != nil {
		return nil, errors.Wrap(err, "nam: truncated header")
	}
	if nonEmpty != 0 && nonEmpty != 1 {
		return nil, &FormatError{Section: "nam", Detail: fmt.Sprintf("bad non_empty flag %d", nonEmpty)}
	}
	c2, err := d.u32()
	if err != nil {
		return nil, errors.Wrap(err, "nam: truncated header")
	}
	if c2 != id1Const2 {
		return nil, &FormatError{Section: "nam", Detail: fmt.Sprintf("unexpected constant 0x%x", c2)}
	}
	pageCount, err := d.u32()
	if err != nil {
		return nil, errors.Wrap(err, "nam: truncated header")
	}
	if err := d.skip(wordSize); err != nil { // reserved
		return nil, errors.Wrap(err, "nam: truncated header")
	}
	nameCount, err := d.u32()
	if err != nil {
		return nil, errors.Wrap(err, "nam: truncated header")
	}

	buffer, err := data.Sub(namHeaderPad, int(pageCount)*namHeaderPad)
	if err != nil {
		return nil, errors.Wrap(err, "nam: truncated payload")
	}

	needed := int(nameCount) * wordSize
	if buffer.Len() < needed {
		return nil, &FormatError{Section: "nam", Detail: fmt.Sprintf("payload too small for %d names", nameCount)}
	}

	return &NAM{wordSize: wordSize, nameCount: nameCount, buffer: buffer}, nil
}

// Validate confirms the payload is large enough for the declared name
// count; Names() re-derives the same check when actually reading.
func (t *NAM) Validate() error {
	needed := int(t.nameCount) * t.wordSize
	if t.buffer.Len() < needed {
		return &FormatError{Section: "nam", Detail: "payload too small for declared name count"}
	}
	return nil
}

// NameCount returns the header's name_count field.
func (t *NAM) NameCount() uint32 { return t.nameCount }

// Names reads NameCount() little-endian word-sized addresses from the
// start of the payload, widened to uint64 regardless of word size.
func (t *NAM) Names() ([]uint64, error) {
	d := newDecoder(t.buffer)
	out := make([]uint64, 0, t.nameCount)
	for i := uint32(0); i < t.nameCount; i++ {
		addr, err := readWord(d, t.wordSize)
		if err != nil {
			return nil, errors.Wrapf(err, "nam: truncated name %d", i)
		}
		out = append(out, addr)
	}
	return out, nil
}
