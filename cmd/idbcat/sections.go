package main

import (
	"fmt"

	"github.com/decomp/idb"
)

// dumpSections dumps the container's section directory, one line per
// slot: presence, compression, payload length, and — for the four slots
// this package decodes — a one-line summary of the decoded section.
func dumpSections(c *idb.Container) error {
	for slot := idb.SlotID0; slot <= idb.SlotID2; slot++ {
		info, ok := c.SectionInfo(slot)
		if !ok {
			continue
		}
		if !info.Present {
			fmt.Printf("%-4s  absent\n", slot)
			continue
		}
		fmt.Printf("%-4s  present  compressed=%-5t  length=%d  %s\n",
			slot, info.Compressed, info.Length, summarize(c, slot))
	}
	return nil
}

// summarize renders a one-line description of a decoded section, the
// parse error for a decoded slot that failed to parse, or the empty
// string for slots this core does not decode (seg, id2).
func summarize(c *idb.Container, slot idb.SectionSlot) string {
	switch slot {
	case idb.SlotID0:
		id0, err := c.ID0()
		if err != nil {
			return fmt.Sprintf("(error: %v)", err)
		}
		return fmt.Sprintf("page_size=0x%X root_page=%d record_count=%d page_count=%d",
			id0.PageSize(), id0.RootPage(), id0.RecordCount(), id0.PageCount())
	case idb.SlotID1:
		id1, err := c.ID1()
		if err != nil {
			return fmt.Sprintf("(error: %v)", err)
		}
		return fmt.Sprintf("segments=%d", len(id1.Segments()))
	case idb.SlotNAM:
		nam, err := c.NAM()
		if err != nil {
			return fmt.Sprintf("(error: %v)", err)
		}
		return fmt.Sprintf("name_count=%d", nam.NameCount())
	case idb.SlotTIL:
		til, err := c.TIL()
		if err != nil {
			return fmt.Sprintf("(error: %v)", err)
		}
		return fmt.Sprintf("signature=%q", til.Bytes()[:6])
	default:
		return ""
	}
}
