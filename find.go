package idb

import "fmt"

// pageFindResult is the outcome of searching one page for a key. index
// doubles as the "not present" sentinel when it is -1: every in-page
// search, descent, and ancestor re-search in the cursor code shares this
// one shape.
type pageFindResult struct {
	index int
	exact bool
}

// notPresent reports whether the search key was greater than every entry
// on the page.
func (r pageFindResult) notPresent() bool { return !r.exact && r.index == -1 }

// findInEntries searches one page's entries for key: on a leaf, only an
// exact match counts; on a branch, the first entry whose key is >= key
// is returned (exact if equal), and "not present" if every entry is
// strictly less than key. A linear scan is used throughout — decoding,
// not comparison, dominates cost here.
func findInEntries(entries []entry, key Range, leaf bool) pageFindResult {
	for i, e := range entries {
		c := compareKeys(e.key, key)
		if c == 0 {
			return pageFindResult{index: i, exact: true}
		}
		if c > 0 {
			if leaf {
				continue
			}
			return pageFindResult{index: i, exact: false}
		}
	}
	return pageFindResult{index: -1, exact: false}
}

// branchChild resolves which child page to descend into given a branch
// page's entries and a non-exact findInEntries result: index 0 selects
// the ppointer child (left of every entry); index k>0 selects the child
// of entries[k-1]; not-present selects the child of the last entry.
func branchChild(page *Page, entries []entry, r pageFindResult) uint32 {
	switch {
	case r.notPresent():
		return entries[len(entries)-1].child
	case r.index == 0:
		return page.ppointer
	default:
		return entries[r.index-1].child
	}
}

// descend walks from the root to a leaf searching for key, recording the
// full root-to-leaf path and the final page's search result. Branch
// pages whose search is exact are recorded too: a branch entry is a real
// record in its own right (a split promotes its middle key into the
// parent rather than duplicating it in a child leaf), so an exact match
// on a branch page terminates descent on that page.
func (t *ID0) descend(key Range) (*Cursor, pageFindResult, error) {
	cur := &Cursor{tree: t}

	pageNum := t.rootPage
	for {
		page, err := t.GetPage(pageNum)
		if err != nil {
			return nil, pageFindResult{}, err
		}
		entries, err := page.entries()
		if err != nil {
			return nil, pageFindResult{}, err
		}
		cur.path = append(cur.path, page)

		r := findInEntries(entries, key, page.IsLeaf())
		if r.exact {
			cur.index = r.index
			return cur, r, nil
		}
		if page.IsLeaf() {
			cur.index = -1
			return cur, r, nil
		}
		pageNum = branchChild(page, entries, r)
	}
}

// Find performs an exact lookup for key, failing if no entry matches it.
func (t *ID0) Find(key []byte) (*Cursor, error) {
	cur, r, err := t.descend(Range(key))
	if err != nil {
		return nil, err
	}
	if !r.exact {
		return nil, &NotPresentError{Op: "find", Key: fmt.Sprintf("% x", key)}
	}
	return cur, nil
}

// FindPrefix returns a cursor on the smallest key having prefix as a
// proper (or exact) prefix. It reuses descend's root-to-leaf walk, then
// adjusts forward on the landed leaf (falling through to the following
// leaf via Next when every key there is still less than the prefix).
func (t *ID0) FindPrefix(prefix []byte) (*Cursor, error) {
	cur, r, err := t.descend(Range(prefix))
	if err != nil {
		return nil, err
	}
	if r.exact {
		return cur, nil
	}
	return cur.seekCeilingOnLeaf(Range(prefix))
}

// Min returns a cursor positioned on the smallest key in the tree:
// descend via ppointer until a leaf, then its entry 0.
func (t *ID0) Min() (*Cursor, error) {
	cur := &Cursor{tree: t}
	pageNum := t.rootPage
	for {
		page, err := t.GetPage(pageNum)
		if err != nil {
			return nil, err
		}
		cur.path = append(cur.path, page)
		if page.IsLeaf() {
			if page.EntryCount() == 0 {
				return nil, &NotPresentError{Op: "min"}
			}
			cur.index = 0
			return cur, nil
		}
		pageNum = page.ppointer
	}
}

// Max returns a cursor positioned on the largest key in the tree:
// descend via the last entry's child until a leaf, then its last entry.
func (t *ID0) Max() (*Cursor, error) {
	cur := &Cursor{tree: t}
	pageNum := t.rootPage
	for {
		page, err := t.GetPage(pageNum)
		if err != nil {
			return nil, err
		}
		cur.path = append(cur.path, page)
		if page.IsLeaf() {
			if page.EntryCount() == 0 {
				return nil, &NotPresentError{Op: "max"}
			}
			cur.index = page.EntryCount() - 1
			return cur, nil
		}
		entries, err := page.entries()
		if err != nil {
			return nil, err
		}
		pageNum = entries[len(entries)-1].child
	}
}
