package idb

import (
	"bytes"
	"fmt"
)

// Cursor is a logical position on one entry of the B-tree: the
// root-to-leaf path of pages visited to reach it, and the entry index on
// the final (current) page. Cursors are not thread-safe; each is owned
// by one goroutine at a time.
type Cursor struct {
	tree  *ID0
	path  []*Page
	index int
}

func (c *Cursor) current() *Page { return c.path[len(c.path)-1] }

// Key returns the current entry's key.
func (c *Cursor) Key() (Range, error) {
	e, err := c.entry()
	if err != nil {
		return nil, err
	}
	return e.key, nil
}

// Value returns the current entry's value.
func (c *Cursor) Value() (Range, error) {
	e, err := c.entry()
	if err != nil {
		return nil, err
	}
	return e.value, nil
}

func (c *Cursor) entry() (entry, error) {
	entries, err := c.current().entries()
	if err != nil {
		return entry{}, err
	}
	if c.index < 0 || c.index >= len(entries) {
		return entry{}, &OutOfBoundsError{Op: "cursor"}
	}
	return entries[c.index], nil
}

// Next advances the cursor to the next entry in key order: on a leaf,
// step to the following index or climb to an ancestor; on a branch,
// descend into the current entry's subtree and land on its smallest key.
func (c *Cursor) Next() error {
	page := c.current()
	if page.IsLeaf() {
		if c.index < page.EntryCount()-1 {
			c.index++
			return nil
		}
		return c.climbAndFind(+1)
	}

	// Branch: descend through the current entry's child, then via
	// ppointer on every subsequent non-leaf page, landing on entry 0.
	entries, err := page.entries()
	if err != nil {
		return err
	}
	if c.index < 0 || c.index >= len(entries) {
		return &OutOfBoundsError{Op: "next"}
	}
	pageNum := entries[c.index].child
	for {
		p, err := c.tree.GetPage(pageNum)
		if err != nil {
			return err
		}
		c.path = append(c.path, p)
		if p.IsLeaf() {
			c.index = 0
			return nil
		}
		pageNum = p.ppointer
	}
}

// Prev retreats the cursor to the previous entry in key order: on a
// leaf, step to the preceding index or climb to an ancestor; on a
// branch, descend into the subtree left of the current entry and land
// on its largest key.
func (c *Cursor) Prev() error {
	page := c.current()
	if page.IsLeaf() {
		if c.index > 0 {
			c.index--
			return nil
		}
		return c.climbAndFind(-1)
	}

	// Branch: choose the child subtree to the left of the current entry,
	// then descend via the last entry's child on every subsequent
	// non-leaf page, landing on the reached leaf's last entry.
	entries, err := page.entries()
	if err != nil {
		return err
	}
	var pageNum uint32
	if c.index == 0 {
		pageNum = page.ppointer
	} else {
		if c.index-1 < 0 || c.index-1 >= len(entries) {
			return &OutOfBoundsError{Op: "prev"}
		}
		pageNum = entries[c.index-1].child
	}
	for {
		p, err := c.tree.GetPage(pageNum)
		if err != nil {
			return err
		}
		c.path = append(c.path, p)
		if p.IsLeaf() {
			if p.EntryCount() == 0 {
				return &OutOfBoundsError{Op: "prev"}
			}
			c.index = p.EntryCount() - 1
			return nil
		}
		entries, err := p.entries()
		if err != nil {
			return err
		}
		pageNum = entries[len(entries)-1].child
	}
}

// climbAndFind implements the "popped off the end of a leaf" half of
// Next (dir=+1) and Prev (dir=-1): remember the current key, pop pages
// from the path, and re-search each ancestor for it until one yields a
// usable index.
func (c *Cursor) climbAndFind(dir int) error {
	k, err := c.Key()
	if err != nil {
		return err
	}
	key := append(Range(nil), k...) // path is about to shrink; keep our own copy

	for len(c.path) > 1 {
		c.path = c.path[:len(c.path)-1]
		page := c.current()
		entries, err := page.entries()
		if err != nil {
			return err
		}
		r := findInEntries(entries, key, false)

		if dir > 0 {
			if r.notPresent() {
				continue // k greater than all entries on this ancestor: keep popping
			}
			c.index = r.index
			return nil
		}

		// dir < 0
		if r.index == 0 {
			continue // every entry on this ancestor is >= k: keep popping
		}
		idx := r.index
		if r.notPresent() {
			idx = len(entries)
		}
		c.index = idx - 1
		return nil
	}

	if dir > 0 {
		return &OutOfBoundsError{Op: "next"}
	}
	return &OutOfBoundsError{Op: "prev"}
}

// seekCeilingOnLeaf adjusts a cursor landed by descend (on a leaf, non-
// exact) so that it lies on the smallest key having prefix as a prefix.
// If every key on the landed leaf still compares less than prefix, it
// falls through to the following leaf via Next.
func (c *Cursor) seekCeilingOnLeaf(prefix Range) (*Cursor, error) {
	page := c.current()
	entries, err := page.entries()
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, e := range entries {
		if compareKeys(e.key, prefix) >= 0 {
			idx = i
			break
		}
	}

	if idx == -1 {
		// Every key on this leaf is < prefix: the ceiling, if any, is on
		// the following leaf.
		c.index = page.EntryCount() - 1
		if err := c.Next(); err != nil {
			return nil, &NotPresentError{Op: "find_prefix", Key: fmt.Sprintf("% x", prefix)}
		}
	} else {
		c.index = idx
	}

	k, err := c.Key()
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(k, prefix) {
		return nil, &NotPresentError{Op: "find_prefix", Key: fmt.Sprintf("% x", prefix)}
	}
	return c, nil
}
