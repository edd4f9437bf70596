// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bgzf

import (
	"github.com/pkg/errors"
	"v.io/x/lib/vlog"

	"github.com/biogo/seqtools/internal/pipefit"
)

// DecompressionCache accumulates a BGZF stream delivered in chunks of
// any size and decodes it one member at a time.
type DecompressionCache struct {
	buf   []byte
	off   int
	ended bool
}

// Write appends p to the cache. It returns ErrClosed after End.
// Decoded members are discarded from the front of the buffer here.
func (c *DecompressionCache) Write(p []byte) (int, error) {
	if c.ended {
		return 0, ErrClosed
	}
	if c.off != 0 {
		n := copy(c.buf, c.buf[c.off:])
		c.buf = c.buf[:n]
		c.off = 0
	}
	c.buf = append(c.buf, p...)
	return len(p), nil
}

// Len returns the number of buffered compressed bytes.
func (c *DecompressionCache) Len() int { return len(c.buf) - c.off }

// Ready returns whether Remove would make progress: a complete member
// is buffered, or a malformed header is waiting to be reported, or
// input has ended with bytes remaining.
func (c *DecompressionCache) Ready() bool {
	if c.ended {
		return c.Len() != 0
	}
	b := c.buf[c.off:]
	n, ok, err := MemberSize(b)
	return err != nil || (ok && len(b) >= n)
}

// Remove decodes and returns the data of the next buffered member.
// If no complete member is buffered, ok is false and err is nil. After
// End a trailing partial member is reported as ErrTruncatedBlock.
func (c *DecompressionCache) Remove() (data []byte, ok bool, err error) {
	if !c.Ready() {
		return nil, false, nil
	}
	data, rest, err := DecompressBlock(c.buf[c.off:])
	if err != nil {
		return nil, false, err
	}
	c.off = len(c.buf) - len(rest)
	if c.off == len(c.buf) {
		c.buf, c.off = c.buf[:0], 0
	}
	return data, true, nil
}

// End marks the end of input.
func (c *DecompressionCache) End() { c.ended = true }

// Drain marks the end of input and returns the concatenated data of all
// remaining buffered members, including any EOF marker.
func (c *DecompressionCache) Drain() ([]byte, error) {
	c.End()
	var out []byte
	for {
		data, ok, err := c.Remove()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, data...)
	}
}

// CompressionCache accumulates uncompressed data and emits one BGZF
// member for each MaxDataSize bytes written.
type CompressionCache struct {
	level int
	in    pipefit.Lowpass
}

// NewCompressionCache returns a CompressionCache compressing at level.
func NewCompressionCache(level int) *CompressionCache {
	return &CompressionCache{level: level, in: pipefit.Lowpass{Size: MaxDataSize}}
}

// Write appends p to the cache.
func (c *CompressionCache) Write(p []byte) (int, error) {
	return c.in.Write(p)
}

// Len returns the number of buffered uncompressed bytes.
func (c *CompressionCache) Len() int { return c.in.Len() }

// Ready returns whether a full block of input is buffered.
func (c *CompressionCache) Ready() bool { return c.in.Ready() }

// Remove compresses the next MaxDataSize bytes of buffered input. If
// fewer bytes are buffered, ok is false and err is nil. Input that does
// not compress into a single member is split across several.
func (c *CompressionCache) Remove() (archive []byte, ok bool, err error) {
	data, ok := c.in.Next()
	if !ok {
		return nil, false, nil
	}
	archive, err = compressSplit(nil, data, c.level)
	if err != nil {
		return nil, false, err
	}
	return archive, true, nil
}

// Flush compresses all buffered input, however short, and terminates
// the stream with the EOF marker block.
func (c *CompressionCache) Flush() ([]byte, error) {
	var out []byte
	for {
		archive, ok, err := c.Remove()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out = append(out, archive...)
	}
	if c.in.Len() != 0 {
		var err error
		out, err = compressSplit(out, c.in.Drain(), c.level)
		if err != nil {
			return nil, err
		}
	}
	return append(out, magicBlock...), nil
}

// compressSplit appends the compressed form of data to dst, halving the
// input until each part fits in a member.
func compressSplit(dst, data []byte, level int) ([]byte, error) {
	archive, err := CompressBlock(data, level)
	if errors.Is(err, ErrBlockOverflow) && len(data) > 1 {
		vlog.VI(2).Infof("bgzf: splitting %d byte block at level %d", len(data), level)
		h := len(data) / 2
		dst, err = compressSplit(dst, data[:h], level)
		if err != nil {
			return dst, err
		}
		return compressSplit(dst, data[h:], level)
	}
	if err != nil {
		return dst, err
	}
	return append(dst, archive...), nil
}
