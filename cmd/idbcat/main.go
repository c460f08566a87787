// The idbcat tool inspects disassembler database files (*.idb / *.i64):
// header validation, the container's section directory, B-tree point
// lookups, a full min-to-max walk, flags-table queries, and the name
// table.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"

	"github.com/decomp/exp/bin"
	"github.com/kr/pretty"
	"github.com/mewkiz/pkg/term"
	"github.com/pkg/errors"

	"github.com/decomp/idb"
)

// dbg represents a logger with the "idbcat:" prefix, which logs debug
// messages to standard error.
var dbg = log.New(os.Stderr, term.MagentaBold("idbcat:")+" ", 0)

func usage() {
	const use = `
Inspect a disassembler database file (*.idb / *.i64).

Usage:

	idbcat [OPTION]... FILE.idb

Flags:
`
	fmt.Fprint(os.Stderr, use[1:])
	flag.PrintDefaults()
}

func main() {
	var (
		// addr specifies an address whose flags and segment to look up in
		// id1.
		addr bin.Address
		// key specifies a hex-encoded key for -find.
		key string
		// prefix specifies a hex-encoded prefix for -findprefix.
		prefix string
		// sections requests a dump of the container's section directory.
		sections bool
		// walk requests a full min-to-max cursor walk reporting the
		// record count.
		walk bool
		// names requests a summary of the name table.
		names bool
		// quiet specifies whether to suppress non-error messages.
		quiet bool
	)
	flag.Usage = usage
	flag.Var(&addr, "addr", "address whose flags and segment to look up in id1")
	flag.StringVar(&key, "find", "", "hex-encoded key to look up exactly in id0")
	flag.StringVar(&prefix, "findprefix", "", "hex-encoded prefix to look up in id0")
	flag.BoolVar(&sections, "sections", false, "dump the container's section directory")
	flag.BoolVar(&walk, "walk", false, "walk id0 from min to max and report the record count")
	flag.BoolVar(&names, "names", false, "summarize the nam section")
	flag.BoolVar(&quiet, "q", false, "suppress non-error messages")
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	idbPath := flag.Arg(0)
	if quiet {
		dbg.SetOutput(ioutil.Discard)
	}

	c, err := openContainer(idbPath)
	if err != nil {
		log.Fatalf("%+v", err)
	}

	dumpHeader(c)

	switch {
	case sections:
		if err := dumpSections(c); err != nil {
			log.Fatalf("%+v", err)
		}
	case walk:
		if err := dumpWalk(c); err != nil {
			log.Fatalf("%+v", err)
		}
	case names:
		if err := dumpNames(c); err != nil {
			log.Fatalf("%+v", err)
		}
	case key != "":
		if err := dumpFind(c, key); err != nil {
			log.Fatalf("%+v", err)
		}
	case prefix != "":
		if err := dumpFindPrefix(c, prefix); err != nil {
			log.Fatalf("%+v", err)
		}
	case addr != 0:
		if err := dumpAddr(c, addr); err != nil {
			log.Fatalf("%+v", err)
		}
	}
}

// openContainer reads and parses the idb file at idbPath.
func openContainer(idbPath string) (*idb.Container, error) {
	data, err := ioutil.ReadFile(idbPath)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	c, err := idb.Open(data)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return c, nil
}

// dumpHeader prints the file header and overall validation result.
func dumpHeader(c *idb.Container) {
	h := c.Header()
	pretty.Println("header:", h)
	dbg.Printf("wordsize: %d, validate: %t\n", c.WordSize(), c.Validate())
}

// dumpFind looks up a hex-encoded key exactly in id0 and pretty-prints
// the resulting key/value.
func dumpFind(c *idb.Container, hexKey string) error {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return errors.WithStack(err)
	}
	id0, err := c.ID0()
	if err != nil {
		return errors.WithStack(err)
	}
	cur, err := id0.Find(key)
	if err != nil {
		return errors.WithStack(err)
	}
	return printEntry(cur)
}

// dumpFindPrefix looks up a hex-encoded prefix in id0 and pretty-prints
// the resulting key/value.
func dumpFindPrefix(c *idb.Container, hexPrefix string) error {
	prefix, err := hex.DecodeString(hexPrefix)
	if err != nil {
		return errors.WithStack(err)
	}
	id0, err := c.ID0()
	if err != nil {
		return errors.WithStack(err)
	}
	cur, err := id0.FindPrefix(prefix)
	if err != nil {
		return errors.WithStack(err)
	}
	return printEntry(cur)
}

// printEntry pretty-prints a cursor's current key and value.
func printEntry(cur *idb.Cursor) error {
	key, err := cur.Key()
	if err != nil {
		return errors.WithStack(err)
	}
	value, err := cur.Value()
	if err != nil {
		return errors.WithStack(err)
	}
	pretty.Println("key:", hex.EncodeToString(key.Bytes()))
	pretty.Println("value:", hex.EncodeToString(value.Bytes()))
	return nil
}

// dumpWalk walks id0 from min to max and prints the number of records
// walked next to RecordCount; it does not compare the two.
func dumpWalk(c *idb.Container) error {
	id0, err := c.ID0()
	if err != nil {
		return errors.WithStack(err)
	}
	cur, err := id0.Min()
	if err != nil {
		return errors.WithStack(err)
	}
	n := uint32(1)
	for {
		if err := cur.Next(); err != nil {
			break
		}
		n++
	}
	dbg.Printf("walked %d records (record_count: %d)\n", n, id0.RecordCount())
	return nil
}

// dumpAddr reports the flags byte, flags word, and containing segment
// for addr.
func dumpAddr(c *idb.Container, addr bin.Address) error {
	id1, err := c.ID1()
	if err != nil {
		return errors.WithStack(err)
	}
	flags, err := id1.GetFlags(uint64(addr))
	if err != nil {
		return errors.WithStack(err)
	}
	seg, err := id1.GetSegment(uint64(addr))
	if err != nil {
		return errors.WithStack(err)
	}
	dbg.Printf("addr 0x%X: flags 0x%08X, byte 0x%02X, segment [0x%X, 0x%X)\n",
		uint64(addr), flags, flags&0xFF, seg.Bounds.Start, seg.Bounds.End)
	return nil
}

// dumpNames prints the name count and first/last addresses.
func dumpNames(c *idb.Container) error {
	nam, err := c.NAM()
	if err != nil {
		return errors.WithStack(err)
	}
	names, err := nam.Names()
	if err != nil {
		return errors.WithStack(err)
	}
	dbg.Printf("name_count: %d\n", nam.NameCount())
	if len(names) > 0 {
		dbg.Printf("first: 0x%X, last: 0x%X\n", names[0], names[len(names)-1])
	}
	return nil
}
