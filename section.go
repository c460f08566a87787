package idb

import (
	"fmt"

	"github.com/mewkiz/pkg/errutil"
	"github.com/pkg/errors"
)

// SectionSlot identifies one of the six fixed positions in the container's
// section directory.
type SectionSlot int

// The section directory has a fixed order; slot offset 0 in the file
// header means the corresponding section is absent.
const (
	SlotID0 SectionSlot = iota
	SlotID1
	SlotNAM
	SlotSEG
	SlotTIL
	SlotID2
)

var sectionSlotNames = [...]string{"id0", "id1", "nam", "seg", "til", "id2"}

func (s SectionSlot) String() string {
	if s < 0 || int(s) >= len(sectionSlotNames) {
		return fmt.Sprintf("slot(%d)", int(s))
	}
	return sectionSlotNames[s]
}

// SectionInfo describes one slot of the container's section directory,
// whether or not this package knows how to decode its payload (seg and
// id2 are retained but never decoded).
type SectionInfo struct {
	Slot       SectionSlot
	Present    bool
	Compressed bool
	Length     uint64
}

// parseSectionFrame reads the section frame at offset within container
// (is_compressed u8, length u64, then length bytes of payload) and
// returns its payload range. offset == 0 means the section is absent:
// a nil payload and zero error are returned. Compressed sections and
// zero-length sections are rejected, but the SectionInfo is still
// populated as far as it could be determined so callers that only want
// the directory (not the decoded payload) still learn something.
func parseSectionFrame(container Range, offset uint64, slot SectionSlot) (Range, SectionInfo, error) {
	info := SectionInfo{Slot: slot}
	if offset == 0 {
		return nil, info, nil
	}
	info.Present = true

	sub, err := container.SubFrom(int(offset))
	if err != nil {
		return nil, info, errors.Wrapf(err, "%s: section offset out of range", slot)
	}
	d := newDecoder(sub)

	compFlag, err := d.u8()
	if err != nil {
		return nil, info, errors.Wrapf(err, "%s: truncated section frame", slot)
	}
	info.Compressed = compFlag != 0

	length, err := d.u64()
	if err != nil {
		return nil, info, errors.Wrapf(err, "%s: truncated section frame", slot)
	}
	info.Length = length

	if info.Compressed {
		return nil, info, &UnsupportedError{Detail: fmt.Sprintf("%s: compressed sections are not supported", slot)}
	}
	if length == 0 {
		return nil, info, &FormatError{Section: slot.String(), Detail: errutil.Newf("zero length section").Error()}
	}

	payload, err := d.bytes(int(length))
	if err != nil {
		return nil, info, errors.Wrapf(err, "%s: truncated section payload", slot)
	}
	return payload, info, nil
}
