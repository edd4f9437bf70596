// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pipefit provides byte accumulators that fit an arbitrarily
// chunked stream to fixed-size chunks.
package pipefit

// Lowpass accumulates written bytes and releases them in chunks of
// exactly Size bytes. Bytes that do not fill a chunk are released by
// Drain.
type Lowpass struct {
	// Size is the chunk length returned by Next.
	Size int

	buf []byte
	off int
}

// Write appends p to the accumulator. It never returns an error.
// Slices previously returned by Next are invalidated.
func (l *Lowpass) Write(p []byte) (int, error) {
	if l.off != 0 {
		n := copy(l.buf, l.buf[l.off:])
		l.buf = l.buf[:n]
		l.off = 0
	}
	l.buf = append(l.buf, p...)
	return len(p), nil
}

// Len returns the number of bytes held.
func (l *Lowpass) Len() int { return len(l.buf) - l.off }

// Ready returns whether a full chunk is available.
func (l *Lowpass) Ready() bool { return l.Size > 0 && l.Len() >= l.Size }

// Next returns the next full chunk and true, or nil and false if
// fewer than Size bytes are held. The returned slice is valid until
// the next call to Write.
func (l *Lowpass) Next() ([]byte, bool) {
	if !l.Ready() {
		return nil, false
	}
	b := l.buf[l.off : l.off+l.Size : l.off+l.Size]
	l.off += l.Size
	return b, true
}

// Drain returns a copy of all held bytes and empties the accumulator.
func (l *Lowpass) Drain() []byte {
	b := append([]byte(nil), l.buf[l.off:]...)
	l.buf = l.buf[:0]
	l.off = 0
	return b
}
