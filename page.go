package idb

import "github.com/pkg/errors"

// pageHeaderSize is the size of ppointer + entry_count at the front of
// every page. Entry pointers store offsets relative to the start of the
// page, including this header, so payloadAt subtracts pageHeaderSize
// before indexing into contents (which begins right after the header).
const pageHeaderSize = 6

// entry is one decoded key/value record on a page. key is already
// reconstructed (leaf prefix-expanded, or verbatim on a branch); child is
// only meaningful on a branch page.
type entry struct {
	key   Range
	value Range
	child uint32 // branch only: child page to the "right" of this entry
}

// Page is one decoded page of the ID0 B-tree: a child pointer for
// non-leaf pages, an entry count, and the raw contents area entries are
// lazily decoded from.
type Page struct {
	number   uint32
	ppointer uint32
	count    uint16
	contents Range

	entriesOnce bool
	cachedEntry []entry
	entryErr    error
}

// parsePage decodes the fixed page header at the front of data. The
// entry area (contents) is retained but not decoded until entries() is
// first called.
func parsePage(data Range, number uint32) (*Page, error) {
	d := newDecoder(data)
	ppointer, err := d.u32()
	if err != nil {
		return nil, errors.Wrapf(err, "page %d: truncated header", number)
	}
	count, err := d.u16()
	if err != nil {
		return nil, errors.Wrapf(err, "page %d: truncated header", number)
	}
	contents, err := d.bytes(d.remaining())
	if err != nil {
		return nil, errors.Wrapf(err, "page %d: truncated contents", number)
	}
	return &Page{number: number, ppointer: ppointer, count: count, contents: contents}, nil
}

// Number returns the page's 1-based page number.
func (p *Page) Number() uint32 { return p.number }

// IsLeaf reports whether the page has no children (ppointer == 0).
func (p *Page) IsLeaf() bool { return p.ppointer == 0 }

// EntryCount returns the number of entries on the page.
func (p *Page) EntryCount() int { return int(p.count) }

// entries decodes, caches, and returns every entry on the page in index
// order. Leaf entries require the running prefix from every prior entry,
// so the whole page is decoded on first touch; subsequent calls are O(1).
func (p *Page) entries() ([]entry, error) {
	if p.entriesOnce {
		return p.cachedEntry, p.entryErr
	}
	p.entriesOnce = true

	leaf := p.IsLeaf()
	out := make([]entry, 0, p.count)
	var prevKey Range

	for i := 0; i < int(p.count); i++ {
		pd := newDecoder(p.contents)
		if err := pd.skip(i * 6); err != nil {
			p.entryErr = errors.Wrapf(err, "page %d: truncated entry index", p.number)
			return nil, p.entryErr
		}

		var err error
		var child uint32
		var commonPrefix uint16
		var off uint16

		if leaf {
			commonPrefix, err = pd.u16()
			if err != nil {
				p.entryErr = errors.Wrapf(err, "page %d entry %d: truncated pointer", p.number, i)
				return nil, p.entryErr
			}
			if _, err := pd.u16(); err != nil { // reserved
				p.entryErr = errors.Wrapf(err, "page %d entry %d: truncated pointer", p.number, i)
				return nil, p.entryErr
			}
			off, err = pd.u16()
			if err != nil {
				p.entryErr = errors.Wrapf(err, "page %d entry %d: truncated pointer", p.number, i)
				return nil, p.entryErr
			}
			if i == 0 && commonPrefix != 0 {
				p.entryErr = &FormatError{Section: "id0", Detail: "leaf entry 0 has nonzero common_prefix"}
				return nil, p.entryErr
			}
			if int(commonPrefix) > len(prevKey) {
				p.entryErr = &FormatError{Section: "id0", Detail: "common_prefix exceeds previous key length"}
				return nil, p.entryErr
			}
		} else {
			child, err = pd.u32()
			if err != nil {
				p.entryErr = errors.Wrapf(err, "page %d entry %d: truncated pointer", p.number, i)
				return nil, p.entryErr
			}
			off, err = pd.u16()
			if err != nil {
				p.entryErr = errors.Wrapf(err, "page %d entry %d: truncated pointer", p.number, i)
				return nil, p.entryErr
			}
		}

		payload, err := p.payloadAt(int(off))
		if err != nil {
			p.entryErr = errors.Wrapf(err, "page %d entry %d", p.number, i)
			return nil, p.entryErr
		}
		storedKey, value, err := decodeEntryPayload(payload)
		if err != nil {
			p.entryErr = errors.Wrapf(err, "page %d entry %d", p.number, i)
			return nil, p.entryErr
		}

		var key Range
		if leaf {
			key = concatKey(prevKey[:commonPrefix], storedKey)
		} else {
			key = storedKey
		}

		if i > 0 && compareKeys(key, prevKey) <= 0 {
			p.entryErr = &FormatError{Section: "id0", Detail: "page entries out of order"}
			return nil, p.entryErr
		}

		out = append(out, entry{key: key, value: value, child: child})
		prevKey = key
	}

	p.cachedEntry = out
	return out, nil
}

// payloadAt returns the entry payload range starting at the page-relative
// offset recorded by an entry pointer. The stored offset is measured from
// the start of the page (header included), while contents starts right
// after the header, hence the pageHeaderSize subtraction.
func (p *Page) payloadAt(storedOffset int) (Range, error) {
	off := storedOffset - pageHeaderSize
	return p.contents.SubFrom(off)
}

// decodeEntryPayload reads the length-prefixed key then length-prefixed
// value from an entry payload range.
func decodeEntryPayload(payload Range) (key, value Range, err error) {
	d := newDecoder(payload)
	keyLen, err := d.u16()
	if err != nil {
		return nil, nil, errors.Wrap(err, "truncated entry payload")
	}
	key, err = d.bytes(int(keyLen))
	if err != nil {
		return nil, nil, errors.Wrap(err, "truncated entry key")
	}
	valueLen, err := d.u16()
	if err != nil {
		return nil, nil, errors.Wrap(err, "truncated entry payload")
	}
	value, err = d.bytes(int(valueLen))
	if err != nil {
		return nil, nil, errors.Wrap(err, "truncated entry value")
	}
	return key, value, nil
}

// concatKey rebuilds a leaf's effective key from the running prefix and
// the entry's stored suffix, copying into a fresh buffer since the two
// halves are not contiguous in the backing file.
func concatKey(prefix, suffix Range) Range {
	out := make(Range, len(prefix)+len(suffix))
	copy(out, prefix)
	copy(out[len(prefix):], suffix)
	return out
}

// compareKeys is byte-lexicographic ordering over raw key bytes.
func compareKeys(a, b Range) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}
