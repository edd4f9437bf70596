// Copyright ©2014 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bin computes the hierarchical binning scheme bin numbers
// stored in BAM records.
package bin

const (
	wordBits     = 29
	nextBinShift = 3
)

// IsValidPos returns a boolean indicating whether the given 0-based
// position is in the binnable range for BAM. The unplaced position -1
// is valid.
func IsValidPos(i int) bool { return -1 <= i && i <= 1<<wordBits-1 }

// IsValidTempLen returns whether the template length i can be stored
// in a BAM record.
func IsValidTempLen(i int) bool { return -(1 << wordBits) <= i && i <= 1<<wordBits-1 }

const (
	level0 = uint32(((1 << (iota * nextBinShift)) - 1) / 7)
	level1
	level2
	level3
	level4
	level5
)

const (
	level0Shift = wordBits - (iota * nextBinShift)
	level1Shift
	level2Shift
	level3Shift
	level4Shift
	level5Shift
)

// Unmapped is the bin of a record with no position, For(-1, 0).
const Unmapped = level5 - 1

// For returns the bin number for an interval covering [beg,end)
// (zero-based, half-close-half-open). An empty interval is treated as
// covering the single position beg.
func For(beg, end int) uint32 {
	if end <= beg {
		end = beg + 1
	}
	end--
	switch {
	case beg>>level5Shift == end>>level5Shift:
		return level5 + uint32(beg>>level5Shift)
	case beg>>level4Shift == end>>level4Shift:
		return level4 + uint32(beg>>level4Shift)
	case beg>>level3Shift == end>>level3Shift:
		return level3 + uint32(beg>>level3Shift)
	case beg>>level2Shift == end>>level2Shift:
		return level2 + uint32(beg>>level2Shift)
	case beg>>level1Shift == end>>level1Shift:
		return level1 + uint32(beg>>level1Shift)
	}
	return level0
}
