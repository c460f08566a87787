package idb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openID1(t *testing.T, f *fixture) *ID1 {
	t.Helper()
	c, err := Open(f.data)
	require.NoError(t, err)
	id1, err := c.ID1()
	require.NoError(t, err)
	return id1
}

func TestID1_Segments(t *testing.T) {
	f := newFixture(t)
	id1 := openID1(t, f)

	segs := id1.Segments()
	require.Len(t, segs, 2)
	assert.Equal(t, f.seg1Start, segs[0].Bounds.Start)
	assert.Equal(t, f.seg1End, segs[0].Bounds.End)
	assert.Equal(t, f.seg2Start, segs[1].Bounds.Start)
	assert.Equal(t, f.seg2End, segs[1].Bounds.End)
}

func TestID1_GetSegment(t *testing.T) {
	f := newFixture(t)
	id1 := openID1(t, f)

	seg, err := id1.GetSegment(f.seg1Start + 1)
	require.NoError(t, err)
	assert.Equal(t, f.seg1Start, seg.Bounds.Start)

	_, err = id1.GetSegment(0xFFFFFFFF)
	require.Error(t, err)
	var notPresent *NotPresentError
	assert.ErrorAs(t, err, &notPresent)
}

func TestID1_GetNextSegment(t *testing.T) {
	f := newFixture(t)
	id1 := openID1(t, f)

	next, err := id1.GetNextSegment(f.seg1Start)
	require.NoError(t, err)
	assert.Equal(t, f.seg2Start, next.Bounds.Start)

	_, err = id1.GetNextSegment(f.seg2Start)
	require.Error(t, err)
	var oob *OutOfBoundsError
	assert.ErrorAs(t, err, &oob)
}

func TestID1_GetFlagsAndByte(t *testing.T) {
	f := newFixture(t)
	id1 := openID1(t, f)

	flags, err := id1.GetFlags(f.flagsAddr)
	require.NoError(t, err)
	assert.Equal(t, f.flagsWord, flags)

	b, err := id1.GetByte(f.flagsAddr)
	require.NoError(t, err)
	assert.Equal(t, byte(f.flagsWord&0xFF), b)
}

func TestID1_GetFlagsAtUnsetAddressIsZero(t *testing.T) {
	f := newFixture(t)
	id1 := openID1(t, f)

	flags, err := id1.GetFlags(f.seg1Start + 2)
	require.NoError(t, err)
	assert.Zero(t, flags)
}

// TestID1_IDA2WordSize exercises the 8-byte word path through a 64-bit
// (IDA2) fixture, using addresses beyond the 32-bit range to confirm
// readWord is actually reading the wider word rather than truncating it.
func TestID1_IDA2WordSize(t *testing.T) {
	f := newFixtureIDA2(t)
	c, err := Open(f.data)
	require.NoError(t, err)
	assert.Equal(t, 8, c.WordSize())

	id1, err := c.ID1()
	require.NoError(t, err)

	segs := id1.Segments()
	require.Len(t, segs, 2)
	assert.Equal(t, f.seg1Start, segs[0].Bounds.Start)
	assert.Equal(t, f.seg1End, segs[0].Bounds.End)
	assert.Equal(t, f.seg2Start, segs[1].Bounds.Start)
	assert.Equal(t, f.seg2End, segs[1].Bounds.End)

	flags, err := id1.GetFlags(f.flagsAddr)
	require.NoError(t, err)
	assert.Equal(t, f.flagsWord, flags)

	next, err := id1.GetNextSegment(f.seg1Start)
	require.NoError(t, err)
	assert.Equal(t, f.seg2Start, next.Bounds.Start)
}
