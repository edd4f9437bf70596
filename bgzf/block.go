// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bgzf

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/pkg/errors"

	"github.com/biogo/seqtools/internal/pool"
)

// CompressBlock returns a complete BGZF member holding data deflated
// at the given level. It returns ErrOversizeBlock if data is longer
// than MaxDataSize and ErrBlockOverflow if the compressed member would
// not fit in MaxBlockSize bytes.
func CompressBlock(data []byte, level int) ([]byte, error) {
	if len(data) > MaxDataSize {
		return nil, errors.Wrapf(ErrOversizeBlock, "%d bytes", len(data))
	}

	var buf bytes.Buffer
	buf.Grow(len(data)/2 + Overhead)
	buf.WriteString(gzipID)
	buf.Write([]byte{0, 0, 0, 0, gzipXFL, gzipOS, byte(len(bgzfExtra)), 0})
	buf.WriteString(bgzfExtra)

	fw, err := pool.GetWriter(&buf, level)
	if err != nil {
		return nil, err
	}
	_, err = fw.Write(data)
	if err == nil {
		err = fw.Close()
	}
	pool.PutWriter(fw, level)
	if err != nil {
		return nil, errors.Wrap(err, "bgzf: deflate")
	}

	var footer [footerSize]byte
	binary.LittleEndian.PutUint32(footer[:4], crc32.ChecksumIEEE(data))
	binary.LittleEndian.PutUint32(footer[4:], uint32(len(data)))
	buf.Write(footer[:])

	b := buf.Bytes()
	if len(b) > MaxBlockSize {
		return nil, errors.Wrapf(ErrBlockOverflow, "%d bytes compressed to %d", len(data), len(b))
	}
	binary.LittleEndian.PutUint16(b[16:18], uint16(len(b)-1))
	return b, nil
}

// DecompressBlock inflates the BGZF member at the start of b and
// returns its data and the bytes of b following the member. The CRC-32
// and length recorded in the member are checked against the inflated
// data.
func DecompressBlock(b []byte) (data, rest []byte, err error) {
	size, xlen, ok, err := header(b)
	if err != nil {
		return nil, nil, err
	}
	if !ok || len(b) < size {
		return nil, nil, errors.Wrapf(ErrTruncatedBlock, "have %d bytes", len(b))
	}
	member := b[:size]
	payload := member[12+xlen : size-footerSize]
	sum := binary.LittleEndian.Uint32(member[size-8:])
	isize := binary.LittleEndian.Uint32(member[size-4:])
	if isize > MaxBlockSize {
		return nil, nil, errors.Wrapf(ErrCorruptBlock, "ISIZE %d out of range", isize)
	}

	fr := pool.GetReader(bytes.NewReader(payload))
	var buf bytes.Buffer
	buf.Grow(int(isize))
	// One byte past ISIZE is enough to detect an overlong payload.
	_, err = io.Copy(&buf, io.LimitReader(fr, int64(isize)+1))
	pool.PutReader(fr)
	if err != nil {
		return nil, nil, errors.Wrapf(ErrCorruptBlock, "inflate: %v", err)
	}
	data = buf.Bytes()
	if len(data) != int(isize) {
		return nil, nil, errors.Wrapf(ErrCorruptBlock, "length %d does not match ISIZE %d", len(data), isize)
	}
	if crc32.ChecksumIEEE(data) != sum {
		return nil, nil, errors.Wrap(ErrCorruptBlock, "CRC-32 mismatch")
	}
	if len(data) == 0 {
		data = nil
	}
	return data, b[size:], nil
}

// Block is a single BGZF member. A Block constructed from data
// compresses on the first call to Archive, and one constructed from a
// compressed member inflates on the first call to Data. Both results
// are retained.
type Block struct {
	level int

	data    []byte
	hasData bool

	archive    []byte
	hasArchive bool
}

// NewBlock returns a Block holding data, compressed at DefaultLevel
// when requested.
func NewBlock(data []byte) *Block {
	return &Block{level: DefaultLevel, data: data, hasData: true}
}

// NewBlockLevel is like NewBlock but compresses at level.
func NewBlockLevel(data []byte, level int) *Block {
	return &Block{level: level, data: data, hasData: true}
}

// ParseBlock returns a Block for the complete member at the start of
// b and the bytes following it. The member is not inflated until its
// data are requested.
func ParseBlock(b []byte) (*Block, []byte, error) {
	size, ok, err := MemberSize(b)
	if err != nil {
		return nil, nil, err
	}
	if !ok || len(b) < size {
		return nil, nil, errors.Wrapf(ErrTruncatedBlock, "have %d bytes", len(b))
	}
	return &Block{level: DefaultLevel, archive: b[:size:size], hasArchive: true}, b[size:], nil
}

// Data returns the uncompressed contents of the block.
func (b *Block) Data() ([]byte, error) {
	if !b.hasData {
		data, _, err := DecompressBlock(b.archive)
		if err != nil {
			return nil, err
		}
		b.data, b.hasData = data, true
	}
	return b.data, nil
}

// Archive returns the complete compressed member.
func (b *Block) Archive() ([]byte, error) {
	if !b.hasArchive {
		archive, err := CompressBlock(b.data, b.level)
		if err != nil {
			return nil, err
		}
		b.archive, b.hasArchive = archive, true
	}
	return b.archive, nil
}

// Len returns the length of the uncompressed contents of the block.
func (b *Block) Len() (int, error) {
	data, err := b.Data()
	return len(data), err
}
