// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bgzf

import (
	"io"

	"github.com/pkg/errors"

	"github.com/biogo/seqtools/internal/pool"
)

// Writer implements BGZF blocked gzip compression. Data are written
// to the underlying writer one member at a time as each MaxDataSize
// block of input fills. Close writes the final short block and the EOF
// marker.
type Writer struct {
	w      io.Writer
	cache  *CompressionCache
	closed bool
	err    error
}

// NewWriter returns a new Writer compressing at DefaultLevel.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, cache: NewCompressionCache(DefaultLevel)}
}

// NewWriterLevel returns a new Writer compressing at the given level.
// Valid levels are those accepted by compress/flate.
func NewWriterLevel(w io.Writer, level int) (*Writer, error) {
	if !pool.ValidLevel(level) {
		return nil, errors.Wrapf(pool.ErrLevel, "bgzf: level %d", level)
	}
	return &Writer{w: w, cache: NewCompressionCache(level)}, nil
}

// Write implements the io.Writer interface.
func (bg *Writer) Write(b []byte) (int, error) {
	if bg.closed {
		return 0, ErrClosed
	}
	if bg.err != nil {
		return 0, bg.err
	}
	n, _ := bg.cache.Write(b)
	for bg.cache.Ready() {
		archive, _, err := bg.cache.Remove()
		if err != nil {
			bg.err = err
			return n, err
		}
		if _, err = bg.w.Write(archive); err != nil {
			bg.err = err
			return n, err
		}
	}
	return n, nil
}

// Close compresses any buffered data, writes the EOF marker and closes
// the Writer. It does not close the underlying io.Writer.
func (bg *Writer) Close() error {
	if bg.closed {
		return ErrClosed
	}
	bg.closed = true
	if bg.err != nil {
		return bg.err
	}
	archive, err := bg.cache.Flush()
	if err != nil {
		bg.err = err
		return err
	}
	_, bg.err = bg.w.Write(archive)
	return bg.err
}
