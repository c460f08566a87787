package idb

import "fmt"

// FormatError reports a structural problem with the container or one of
// its sections: a bad signature, a truncated structure, or a violated
// ordering invariant. Section, when set, names the container slot the
// problem was found in (e.g. "id0", "id1").
type FormatError struct {
	Section string
	Detail  string
}

func (e *FormatError) Error() string {
	if e.Section == "" {
		return fmt.Sprintf("idb: format error: %s", e.Detail)
	}
	return fmt.Sprintf("idb: format error in %s section: %s", e.Section, e.Detail)
}

// NotPresentError reports that a point lookup, prefix lookup, or segment
// lookup found no matching entry.
type NotPresentError struct {
	Op  string
	Key string
}

func (e *NotPresentError) Error() string {
	return fmt.Sprintf("idb: %s: %s not present", e.Op, e.Key)
}

// OutOfBoundsError reports that a cursor stepped past the first or last
// entry of the tree, or that a segment has no successor.
type OutOfBoundsError struct {
	Op string
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("idb: %s: out of bounds", e.Op)
}

// UnsupportedError reports a structurally valid but unhandled feature,
// such as a compressed section or an unsupported format version.
type UnsupportedError struct {
	Detail string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("idb: unsupported: %s", e.Detail)
}
