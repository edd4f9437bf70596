// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bgzf

import (
	"io"
)

// readSize is the size of reads from the underlying reader.
const readSize = MaxBlockSize

// Reader implements BGZF blocked gzip decompression.
type Reader struct {
	r     io.Reader
	cache DecompressionCache
	chunk []byte

	// pending holds decompressed data not yet returned.
	pending []byte

	eof bool
	err error
}

// NewReader returns a new Reader reading the BGZF stream r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r, chunk: make([]byte, readSize)}
}

// Read implements the io.Reader interface.
func (bg *Reader) Read(p []byte) (int, error) {
	for len(bg.pending) == 0 {
		if bg.err != nil {
			return 0, bg.err
		}
		data, ok, err := bg.cache.Remove()
		if err != nil {
			bg.err = err
			return 0, err
		}
		if ok {
			bg.pending = data
			continue
		}
		if bg.eof {
			bg.err = io.EOF
			continue
		}
		bg.fill()
	}
	n := copy(p, bg.pending)
	bg.pending = bg.pending[n:]
	return n, nil
}

// fill reads the next chunk of the underlying stream into the cache.
func (bg *Reader) fill() {
	n, err := bg.r.Read(bg.chunk)
	bg.cache.Write(bg.chunk[:n])
	switch err {
	case nil:
	case io.EOF:
		bg.eof = true
		bg.cache.End()
	default:
		bg.err = err
	}
}
