// Package idb parses the on-disk database file produced by a well-known
// interactive disassembler: the container framing, the embedded
// copy-on-write B-tree ("id0"), the flat per-byte flags table ("id1"),
// the name table ("nam"), and a validated-signature placeholder for the
// type library ("til"). The package is read-only: nothing here mutates
// the input, writes a file, or recovers from corruption beyond reporting
// it through typed errors.
package idb

import "github.com/pkg/errors"

// Container is a parsed idb file: the validated header plus whichever of
// the six section-directory slots were present and decoded successfully.
// A Container borrows its backing bytes for its entire lifetime and
// never copies or mutates them.
type Container struct {
	data     Range
	header   *FileHeader
	sections [6]SectionInfo

	id0    *ID0
	id0Err error
	id1    *ID1
	id1Err error
	nam    *NAM
	namErr error
	til    *TIL
	tilErr error
}

// sectionDirectory is the fixed slot order the file header's six
// section-offset fields are read in.
var sectionDirectory = [6]SectionSlot{SlotID0, SlotID1, SlotNAM, SlotSEG, SlotTIL, SlotID2}

// Open parses the file header and every present section of data. A
// missing section (offset 0) is not an error; a section that fails to
// parse only fails its own accessor — each section decodes or fails
// independently, so the rest of the container is still usable.
func Open(data []byte) (*Container, error) {
	r := Range(data)

	h, err := parseFileHeader(r)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if err := h.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}

	c := &Container{data: r, header: h}
	wordSize := wordSizeOf(h)

	for i, slot := range sectionDirectory {
		payload, info, ferr := parseSectionFrame(r, h.Offsets[i], slot)
		c.sections[i] = info

		switch slot {
		case SlotID0:
			c.id0, c.id0Err = decodeOptionalSection(payload, ferr, slot, func(p Range) (*ID0, error) {
				return parseID0(p)
			})
		case SlotID1:
			c.id1, c.id1Err = decodeOptionalSection(payload, ferr, slot, func(p Range) (*ID1, error) {
				return parseID1(p, wordSize)
			})
		case SlotNAM:
			c.nam, c.namErr = decodeOptionalSection(payload, ferr, slot, func(p Range) (*NAM, error) {
				return parseNAM(p, wordSize)
			})
		case SlotTIL:
			c.til, c.tilErr = decodeOptionalSection(payload, ferr, slot, func(p Range) (*TIL, error) {
				return parseTIL(p)
			})
		default:
			// seg, id2: retained in the directory but never decoded by this
			// core; a framing problem here is merely worth a warning.
			if ferr != nil {
				dbg.Printf("%s: %v\n", slot, ferr)
			}
		}
	}

	return c, nil
}

// decodeOptionalSection applies parse to payload, folding the "section
// absent" and "frame failed to parse" cases into a single error path so
// every section's Open-time handling looks identical.
func decodeOptionalSection[T any](payload Range, frameErr error, slot SectionSlot, parse func(Range) (*T, error)) (*T, error) {
	if frameErr != nil {
		return nil, frameErr
	}
	if payload == nil {
		return nil, &FormatError{Section: slot.String(), Detail: "section absent"}
	}
	return parse(payload)
}

// Header returns a copy of the parsed file header.
func (c *Container) Header() FileHeader { return *c.header }

// WordSize returns 4 for IDA1 (32-bit) containers, 8 for IDA2 (64-bit).
func (c *Container) WordSize() int { return wordSizeOf(c.header) }

// Validate reports whether the header and every one of id0, id1, nam,
// and til parsed and independently validate.
func (c *Container) Validate() bool {
	if err := c.header.Validate(); err != nil {
		return false
	}
	if c.id0Err != nil || c.id0.Validate() != nil {
		return false
	}
	if c.id1Err != nil || c.id1.Validate() != nil {
		return false
	}
	if c.namErr != nil || c.nam.Validate() != nil {
		return false
	}
	if c.tilErr != nil || c.til.Validate() != nil {
		return false
	}
	return true
}

// ID0 returns the container's B-tree section, or the error recorded
// while parsing it (including "section absent" if its slot offset was
// zero).
func (c *Container) ID0() (*ID0, error) {
	if c.id0Err != nil {
		return nil, c.id0Err
	}
	return c.id0, nil
}

// ID1 returns the container's flags section.
func (c *Container) ID1() (*ID1, error) {
	if c.id1Err != nil {
		return nil, c.id1Err
	}
	return c.id1, nil
}

// NAM returns the container's name section.
func (c *Container) NAM() (*NAM, error) {
	if c.namErr != nil {
		return nil, c.namErr
	}
	return c.nam, nil
}

// TIL returns the container's type library placeholder.
func (c *Container) TIL() (*TIL, error) {
	if c.tilErr != nil {
		return nil, c.tilErr
	}
	return c.til, nil
}

// SectionInfo reports presence/compression/length for one directory
// slot, regardless of whether this package decodes that slot's payload.
func (c *Container) SectionInfo(slot SectionSlot) (SectionInfo, bool) {
	if slot < 0 || int(slot) >= len(c.sections) {
		return SectionInfo{}, false
	}
	return c.sections[slot], true
}
