package idb

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// fixture is a synthetically constructed container exercising a 2-level
// B-tree (one branch root, two leaf children), two ID1 segments, a NAM
// section, and a TIL section. The container carries no literal
// reference-file values since the real reference file is not
// distributed with this module; every assertion made against it is
// about structural shape, not specific bytes copied from a production
// .idb.
type fixture struct {
	data []byte

	// keys, in ascending order, as they actually appear across the tree:
	// the first two live on the left leaf, the middle one is the
	// branch's own separator record, and the last two live on the right
	// leaf. A real B-tree promotes a split's middle key into the parent
	// and removes it from both children, so the separator is never
	// duplicated in a leaf.
	keys [5][]byte
	vals [5][]byte

	seg1Start, seg1End uint64
	seg2Start, seg2End uint64
	flagsAddr          uint64
	flagsWord          uint32

	names []uint64
}

// newFixture builds a 32-bit (IDA1) fixture.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWordSize(t, 4)
}

// newFixtureIDA2 builds a 64-bit (IDA2) fixture, exercising the 8-byte
// word path through readWord shared by id1.go and nam.go.
func newFixtureIDA2(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWordSize(t, 8)
}

// newFixtureWordSize builds a fixture whose id1/nam sections use the
// given address word size (4 for IDA1, 8 for IDA2); the B-tree itself
// is word-size-independent, so its shape is identical either way.
func newFixtureWordSize(t *testing.T, wordSize int) *fixture {
	t.Helper()

	f := &fixture{
		keys: [5][]byte{
			{0x01, 0x00},
			{0x01, 0x05},
			{0x01, 0x08}, // branch separator
			{0x02, 0x00},
			{0x02, 0x05},
		},
		vals: [5][]byte{
			[]byte("AAAA"),
			[]byte("BBBB"),
			[]byte("ROOT"),
			[]byte("CCCC"),
			[]byte("DDDD"),
		},
		seg1Start: 0x1000, seg1End: 0x1010,
		seg2Start: 0x2000, seg2End: 0x2008,
		flagsAddr: 0x1000, flagsWord: 0xDEADBEEF,
		names: []uint64{0x1000, 0x1008, 0x2000},
	}
	if wordSize == 8 {
		// Addresses beyond the 32-bit range, to show the wider word is
		// actually being read rather than silently truncated.
		f.seg1Start, f.seg1End = 0x100000000, 0x100000010
		f.seg2Start, f.seg2End = 0x200000000, 0x200000008
		f.flagsAddr = 0x100000000
		f.names = []uint64{0x100000000, 0x100000008, 0x200000000}
	}

	const pageSize = 64

	leftLeaf := buildLeafPage(pageSize, []leafEntrySpec{
		{commonPrefix: 0, storedKey: f.keys[0], value: f.vals[0]},
		{commonPrefix: 1, storedKey: f.keys[1][1:], value: f.vals[1]},
	})
	rightLeaf := buildLeafPage(pageSize, []leafEntrySpec{
		{commonPrefix: 0, storedKey: f.keys[3], value: f.vals[3]},
		{commonPrefix: 1, storedKey: f.keys[4][1:], value: f.vals[4]},
	})
	root := buildBranchPage(pageSize, 2, []branchEntrySpec{
		{storedKey: f.keys[2], value: f.vals[2], child: 3},
	})

	id0Payload := buildID0Header(pageSize, 1, 5, 3, concatAll(root, leftLeaf, rightLeaf))

	id1Payload := buildID1(wordSize, []segmentFixture{
		{start: f.seg1Start, end: f.seg1End},
		{start: f.seg2Start, end: f.seg2End},
	}, map[uint64]uint32{
		f.flagsAddr: f.flagsWord,
	})

	namPayload := buildNAM(wordSize, f.names)

	tilPayload := append([]byte("IDATIL"), []byte("placeholder-bytes")...)

	signature := "IDA1"
	if wordSize == 8 {
		signature = "IDA2"
	}
	f.data = buildContainer(containerSpec{
		signature: signature,
		sections: map[SectionSlot][]byte{
			SlotID0: id0Payload,
			SlotID1: id1Payload,
			SlotNAM: namPayload,
			SlotTIL: tilPayload,
		},
	})
	return f
}

// --- page builders -----------------------------------------------------

type leafEntrySpec struct {
	commonPrefix uint16
	storedKey    []byte
	value        []byte
}

type branchEntrySpec struct {
	storedKey []byte
	value     []byte
	child     uint32
}

func buildLeafPage(pageSize int, entries []leafEntrySpec) []byte {
	ptrArea := make([]byte, len(entries)*6)
	var payload bytes.Buffer
	payloadStart := len(ptrArea)

	for i, e := range entries {
		storedOffset := pageHeaderSize + payloadStart + payload.Len()
		binary.LittleEndian.PutUint16(ptrArea[i*6:], e.commonPrefix)
		binary.LittleEndian.PutUint16(ptrArea[i*6+2:], 0) // reserved
		binary.LittleEndian.PutUint16(ptrArea[i*6+4:], uint16(storedOffset))

		writeU16(&payload, uint16(len(e.storedKey)))
		payload.Write(e.storedKey)
		writeU16(&payload, uint16(len(e.value)))
		payload.Write(e.value)
	}

	return finishPage(pageSize, 0, uint16(len(entries)), ptrArea, payload.Bytes())
}

func buildBranchPage(pageSize int, ppointer uint32, entries []branchEntrySpec) []byte {
	ptrArea := make([]byte, len(entries)*6)
	var payload bytes.Buffer
	payloadStart := len(ptrArea)

	for i, e := range entries {
		storedOffset := pageHeaderSize + payloadStart + payload.Len()
		binary.LittleEndian.PutUint32(ptrArea[i*6:], e.child)
		binary.LittleEndian.PutUint16(ptrArea[i*6+4:], uint16(storedOffset))

		writeU16(&payload, uint16(len(e.storedKey)))
		payload.Write(e.storedKey)
		writeU16(&payload, uint16(len(e.value)))
		payload.Write(e.value)
	}

	return finishPage(pageSize, ppointer, uint16(len(entries)), ptrArea, payload.Bytes())
}

func finishPage(pageSize int, ppointer uint32, entryCount uint16, ptrArea, payload []byte) []byte {
	page := make([]byte, pageSize)
	binary.LittleEndian.PutUint32(page[0:], ppointer)
	binary.LittleEndian.PutUint16(page[4:], entryCount)
	contents := append(append([]byte{}, ptrArea...), payload...)
	if len(contents) > pageSize-pageHeaderSize {
		panic("fixture page too small for its contents")
	}
	copy(page[pageHeaderSize:], contents)
	return page
}

// buildID0Header builds the fixed ID0 header, padded out to a full
// pageSize-byte block (this is "page 0", reserved and never addressed by
// an entry), followed directly by the already-built pages (each exactly
// pageSize bytes), so GetPage(n)'s "pageSize * n" byte-offset arithmetic
// lands on page boundaries exactly as in a real section.
func buildID0Header(pageSize uint16, rootPage, recordCount, pageCount uint32, pages []byte) []byte {
	var head bytes.Buffer
	writeU32(&head, 0) // next_free_offset
	writeU16(&head, pageSize)
	writeU32(&head, rootPage)
	writeU32(&head, recordCount)
	writeU32(&head, pageCount)
	head.WriteByte(0) // reserved
	head.WriteString(id0Signature)
	if head.Len() > int(pageSize) {
		panic("fixture page_size too small for id0 header")
	}

	page0 := make([]byte, pageSize)
	copy(page0, head.Bytes())
	return concatAll(page0, pages)
}

// --- ID1 / NAM builders --------------------------------------------------

type segmentFixture struct {
	start, end uint64
}

func buildID1(wordSize int, segs []segmentFixture, flags map[uint64]uint32) []byte {
	var head bytes.Buffer
	head.WriteString("VA*\x00")
	writeU32(&head, id1Const1)
	writeU32(&head, uint32(len(segs)))
	writeU32(&head, id1Const2)
	writeU32(&head, 1) // page_count
	var offset uint64
	for _, s := range segs {
		writeWord(&head, wordSize, s.start)
		writeWord(&head, wordSize, s.end)
		offset += id1FlagWordBytes * (s.end - s.start)
	}

	out := make([]byte, id1HeaderPad+1*id1HeaderPad)
	copy(out, head.Bytes())

	offset = 0
	for _, s := range segs {
		for addr := s.start; addr < s.end; addr++ {
			if w, ok := flags[addr]; ok {
				byteOff := id1HeaderPad + int(offset) + int(id1FlagWordBytes*(addr-s.start))
				binary.LittleEndian.PutUint32(out[byteOff:], w)
			}
		}
		offset += id1FlagWordBytes * (s.end - s.start)
	}
	return out
}

func buildNAM(wordSize int, names []uint64) []byte {
	var head bytes.Buffer
	head.WriteString("VA*\x00")
	writeU32(&head, id1Const1)
	writeU32(&head, 1) // non_empty
	writeU32(&head, id1Const2)
	writeU32(&head, 1) // page_count
	for i := 0; i < wordSize; i++ {
		head.WriteByte(0) // reserved
	}
	writeU32(&head, uint32(len(names)))

	out := make([]byte, namHeaderPad+1*namHeaderPad)
	copy(out, head.Bytes())
	for i, addr := range names {
		writeWordAt(out[namHeaderPad+i*wordSize:], wordSize, addr)
	}
	return out
}

// --- container / section frame builder -----------------------------------

type containerSpec struct {
	signature string
	sections  map[SectionSlot][]byte
}

func buildContainer(spec containerSpec) []byte {
	var body bytes.Buffer
	offsets := make(map[SectionSlot]uint64)

	headerPlaceholder := make([]byte, fileHeaderSize)
	body.Write(headerPlaceholder)

	for _, slot := range sectionDirectory {
		payload, ok := spec.sections[slot]
		if !ok {
			continue
		}
		offsets[slot] = uint64(body.Len())
		body.WriteByte(0) // not compressed
		writeU64(&body, uint64(len(payload)))
		body.Write(payload)
	}

	out := body.Bytes()
	writeFileHeader(out, spec.signature, offsets)
	return out
}

func writeFileHeader(buf []byte, signature string, offsets map[SectionSlot]uint64) {
	copy(buf[0:4], signature)
	binary.LittleEndian.PutUint64(buf[6:], offsets[SlotID0])
	binary.LittleEndian.PutUint64(buf[14:], offsets[SlotID1])
	binary.LittleEndian.PutUint32(buf[26:], fileMagic)
	binary.LittleEndian.PutUint16(buf[30:], supportedVersion)
	binary.LittleEndian.PutUint64(buf[32:], offsets[SlotNAM])
	binary.LittleEndian.PutUint64(buf[40:], offsets[SlotSEG])
	binary.LittleEndian.PutUint64(buf[48:], offsets[SlotTIL])
	binary.LittleEndian.PutUint64(buf[76:], offsets[SlotID2])
}

// --- small binary helpers -------------------------------------------------

func writeU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeWord(buf *bytes.Buffer, wordSize int, v uint64) {
	if wordSize == 8 {
		writeU64(buf, v)
		return
	}
	writeU32(buf, uint32(v))
}

func writeWordAt(dst []byte, wordSize int, v uint64) {
	if wordSize == 8 {
		binary.LittleEndian.PutUint64(dst, v)
		return
	}
	binary.LittleEndian.PutUint32(dst, uint32(v))
}

func concatAll(chunks ...[]byte) []byte {
	var out []byte
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}
