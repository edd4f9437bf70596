// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bgzf implements the BGZF block compression format, a series
// of concatenated gzip members each carrying its own compressed length
// in a BC extra subfield.
package bgzf

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/klauspost/compress/flate"
	"github.com/pkg/errors"
)

const (
	MaxBlockSize = 0x10000                 // Maximum size of a compressed member.
	Overhead     = headerSize + footerSize // Member bytes not holding deflate payload.
	MaxDataSize  = MaxBlockSize - Overhead // Maximum uncompressed input to one member.
	DefaultLevel = flate.BestCompression   // Level used by NewBlock and NewWriter.
)

const (
	headerSize = 12 + len(bgzfExtra)  // Fixed gzip header and BC extra field.
	footerSize = 8                    // CRC-32 and ISIZE.
	bgzfExtra  = "BC\x02\x00\x00\x00" // BC subfield with a zero BSIZE placeholder.
	gzipID     = "\x1f\x8b\x08\x04"   // ID1, ID2, CM=deflate and FLG=FEXTRA.
	gzipXFL    = 0x02                 // Maximum compression.
	gzipOS     = 0xff                 // Unknown.

	// Magic EOF block.
	magicBlock = "\x1f\x8b\x08\x04\x00\x00\x00\x00\x00\xff\x06\x00\x42\x43\x02\x00\x1b\x00\x03\x00\x00\x00\x00\x00\x00\x00\x00\x00"
)

// MagicBlock is the BGZF end of file marker. It is a valid member
// holding no data.
var MagicBlock = []byte(magicBlock)

var (
	ErrOversizeBlock  = errors.New("bgzf: data too large for a single block")
	ErrBlockOverflow  = errors.New("bgzf: compressed block overflow")
	ErrBadHeader      = errors.New("bgzf: invalid gzip member header")
	ErrNoBlockSize    = errors.New("bgzf: could not determine block size")
	ErrCorruptBlock   = errors.New("bgzf: corrupt block")
	ErrTruncatedBlock = errors.New("bgzf: truncated block")
	ErrClosed         = errors.New("bgzf: use of closed writer")
	ErrNoEnd          = errors.New("bgzf: cannot determine offset from end")
)

// header returns the parsed extents of the member at the start of b.
// size is the complete member length and xlen the length of the extra
// field. If b does not yet hold enough bytes to determine the member
// size, ok is false and err is nil.
func header(b []byte) (size, xlen int, ok bool, err error) {
	n := len(b)
	if n > len(gzipID) {
		n = len(gzipID)
	}
	if string(b[:n]) != gzipID[:n] {
		return 0, 0, false, ErrBadHeader
	}
	if len(b) < 12 {
		return 0, 0, false, nil
	}
	xlen = int(binary.LittleEndian.Uint16(b[10:12]))
	if len(b) < 12+xlen {
		return 0, 0, false, nil
	}
	extra := b[12 : 12+xlen]
	for len(extra) >= 4 {
		slen := int(binary.LittleEndian.Uint16(extra[2:4]))
		if 4+slen > len(extra) {
			break
		}
		if extra[0] == 'B' && extra[1] == 'C' && slen == 2 {
			size = int(binary.LittleEndian.Uint16(extra[4:6])) + 1
			if size < 12+xlen+footerSize {
				return 0, 0, false, errors.Wrapf(ErrBadHeader, "block size %d shorter than header", size)
			}
			return size, xlen, true, nil
		}
		extra = extra[4+slen:]
	}
	return 0, 0, false, ErrNoBlockSize
}

// MemberSize returns the total length of the BGZF member at the start
// of b. If b is too short to hold the member header, ok is false and
// err is nil.
func MemberSize(b []byte) (n int, ok bool, err error) {
	n, _, ok, err = header(b)
	return n, ok, err
}

// HasEOF checks for the presence of a BGZF magic EOF block.
// The magic block is defined in the SAM specification. A magic block
// is written by a Writer on calling Close. The ReaderAt must provide
// some method for determining valid ReadAt offsets.
func HasEOF(r io.ReaderAt) (bool, error) {
	type sizer interface {
		Size() int64
	}
	type lener interface {
		Len() int
	}
	type stater interface {
		Stat() (os.FileInfo, error)
	}
	var size int64
	switch r := r.(type) {
	case sizer:
		size = r.Size()
	case lener:
		size = int64(r.Len())
	case stater:
		fi, err := r.Stat()
		if err != nil {
			return false, err
		}
		size = fi.Size()
	case io.Seeker:
		var err error
		size, err = r.Seek(0, io.SeekEnd)
		if err != nil {
			return false, err
		}
	default:
		return false, ErrNoEnd
	}
	if size < int64(len(magicBlock)) {
		return false, nil
	}

	b := make([]byte, len(magicBlock))
	_, err := r.ReadAt(b, size-int64(len(magicBlock)))
	if err != nil && err != io.EOF {
		return false, err
	}
	return string(b) == magicBlock, nil
}
