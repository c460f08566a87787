package idb

import (
	"fmt"

	"github.com/mewkiz/pkg/errutil"
)

const (
	fileHeaderSize   = 88
	fileMagic        = 0xAABBCCDD
	supportedVersion = 6
)

// FileHeader is the fixed-layout record at offset 0 of the container.
// Offsets and Checksums are six-element arrays whose indices line up
// positionally with the section directory (id0, id1, nam, seg, til, id2).
type FileHeader struct {
	Signature [4]byte
	Offsets   [6]uint64
	Checksums [6]uint32
	Magic     uint32
	Version   uint16
}

// parseFileHeader decodes the fixed 88-byte file header. Field order in
// the file interleaves offsets/checksums around the magic and version
// fields; we read them positionally and reassemble Offsets and
// Checksums in section-directory order afterwards.
func parseFileHeader(data Range) (*FileHeader, error) {
	if data.Len() < fileHeaderSize {
		return nil, &FormatError{Section: "header", Detail: "truncated file header"}
	}
	d := newDecoder(data)

	sig, err := d.bytes(4)
	if err != nil {
		return nil, err
	}
	if err := d.skip(2); err != nil { // reserved
		return nil, err
	}
	off1, err := d.u64()
	if err != nil {
		return nil, err
	}
	off2, err := d.u64()
	if err != nil {
		return nil, err
	}
	if err := d.skip(4); err != nil { // reserved
		return nil, err
	}
	magic, err := d.u32()
	if err != nil {
		return nil, err
	}
	version, err := d.u16()
	if err != nil {
		return nil, err
	}
	off3, err := d.u64()
	if err != nil {
		return nil, err
	}
	off4, err := d.u64()
	if err != nil {
		return nil, err
	}
	off5, err := d.u64()
	if err != nil {
		return nil, err
	}
	cs1, err := d.u32()
	if err != nil {
		return nil, err
	}
	cs2, err := d.u32()
	if err != nil {
		return nil, err
	}
	cs3, err := d.u32()
	if err != nil {
		return nil, err
	}
	cs4, err := d.u32()
	if err != nil {
		return nil, err
	}
	cs5, err := d.u32()
	if err != nil {
		return nil, err
	}
	off6, err := d.u64()
	if err != nil {
		return nil, err
	}
	cs6, err := d.u32()
	if err != nil {
		return nil, err
	}

	h := &FileHeader{
		Offsets:   [6]uint64{off1, off2, off3, off4, off5, off6},
		Checksums: [6]uint32{cs1, cs2, cs3, cs4, cs5, cs6},
		Magic:     magic,
		Version:   version,
	}
	copy(h.Signature[:], sig)
	return h, nil
}

// Validate checks the signature, magic, and version fields.
func (h *FileHeader) Validate() error {
	sig := string(h.Signature[:])
	if sig != "IDA1" && sig != "IDA2" {
		return &FormatError{Section: "header", Detail: fmt.Sprintf("bad signature %q", sig)}
	}
	if h.Magic != fileMagic {
		return &FormatError{Section: "header", Detail: fmt.Sprintf("bad magic 0x%08X", h.Magic)}
	}
	if h.Version != supportedVersion {
		return &UnsupportedError{Detail: errutil.Newf("unsupported version %d", h.Version).Error()}
	}
	return nil
}

// wordSizeOf returns 8 for IDA2 (64-bit) files, 4 otherwise.
func wordSizeOf(h *FileHeader) int {
	if string(h.Signature[:]) == "IDA2" {
		return 8
	}
	return 4
}
