package idb

import (
	"fmt"

	"github.com/pkg/errors"
)

const id0Signature = "B-tree v2"

// ID0 is the parsed B-tree section: a fixed header plus lazy,
// cached-by-number page decoding over the section's byte range.
type ID0 struct {
	data Range

	nextFreeOffset uint32
	pageSize       uint16
	rootPage       uint32
	recordCount    uint32
	pageCount      uint32
	signature      string

	pages map[uint32]*Page
}

// parseID0 decodes the fixed ID0 header and validates its signature.
// Pages are decoded on demand by GetPage.
func parseID0(data Range) (*ID0, error) {
	d := newDecoder(data)

	nextFreeOffset, err := d.u32()
	if err != nil {
		return nil, errors.Wrap(err, "id0: truncated header")
	}
	pageSize, err := d.u16()
	if err != nil {
		return nil, errors.Wrap(err, "id0: truncated header")
	}
	rootPage, err := d.u32()
	if err != nil {
		return nil, errors.Wrap(err, "id0: truncated header")
	}
	recordCount, err := d.u32()
	if err != nil {
		return nil, errors.Wrap(err, "id0: truncated header")
	}
	pageCount, err := d.u32()
	if err != nil {
		return nil, errors.Wrap(err, "id0: truncated header")
	}
	if _, err := d.u8(); err != nil { // reserved
		return nil, errors.Wrap(err, "id0: truncated header")
	}
	sigBytes, err := d.bytes(9)
	if err != nil {
		return nil, errors.Wrap(err, "id0: truncated header")
	}

	id0 := &ID0{
		data:           data,
		nextFreeOffset: nextFreeOffset,
		pageSize:       pageSize,
		rootPage:       rootPage,
		recordCount:    recordCount,
		pageCount:      pageCount,
		signature:      string(sigBytes),
		pages:          make(map[uint32]*Page),
	}
	if id0.signature != id0Signature {
		return nil, &FormatError{Section: "id0", Detail: fmt.Sprintf("bad signature %q", id0.signature)}
	}
	return id0, nil
}

// Validate re-parses the header signature check and confirms the root
// page decodes.
func (t *ID0) Validate() error {
	if t.signature != id0Signature {
		return &FormatError{Section: "id0", Detail: fmt.Sprintf("bad signature %q", t.signature)}
	}
	_, err := t.GetPage(t.rootPage)
	return err
}

// RecordCount returns the header's record_count field.
func (t *ID0) RecordCount() uint32 { return t.recordCount }

// PageCount returns the header's page_count field.
func (t *ID0) PageCount() uint32 { return t.pageCount }

// RootPage returns the header's root_page field.
func (t *ID0) RootPage() uint32 { return t.rootPage }

// PageSize returns the header's page_size field.
func (t *ID0) PageSize() uint16 { return t.pageSize }

// NextFreeOffset returns the header's next_free_offset field. It
// describes where a writer would allocate the next page; a read-only
// reader has no use for it beyond exposing it to callers that want it.
func (t *ID0) NextFreeOffset() uint32 { return t.nextFreeOffset }

// GetPage decodes (or returns the cached decoding of) page n. Page 0 is
// reserved for the section header; requesting it is logged as a warning
// but still attempted.
func (t *ID0) GetPage(n uint32) (*Page, error) {
	if n == 0 {
		dbg.Printf("id0: page 0 requested (reserved)\n")
	}
	if p, ok := t.pages[n]; ok {
		return p, nil
	}
	off := uint64(t.pageSize) * uint64(n)
	region, err := t.data.Sub(int(off), int(t.pageSize))
	if err != nil {
		return nil, errors.Wrapf(err, "id0: page %d out of range", n)
	}
	p, err := parsePage(region, n)
	if err != nil {
		return nil, err
	}
	t.pages[n] = p
	return p, nil
}
