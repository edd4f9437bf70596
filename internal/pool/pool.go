// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pool provides reusable deflate compressors and decompressors
// for BGZF member coding.
package pool

import (
	"io"
	"sync"

	"github.com/klauspost/compress/flate"
	"github.com/pkg/errors"
)

// ErrLevel is returned for compression levels flate does not support.
var ErrLevel = errors.New("pool: invalid compression level")

// writers contains level stratified flate.Writer pools. Element i
// holds writers compressing at level i+flate.HuffmanOnly.
var writers [flate.BestCompression - flate.HuffmanOnly + 1]sync.Pool

// readers holds decompressors; they are level agnostic.
var readers sync.Pool

// ValidLevel returns whether level is accepted by GetWriter.
func ValidLevel(level int) bool {
	return flate.HuffmanOnly <= level && level <= flate.BestCompression
}

// GetWriter returns a flate.Writer compressing at level into w.
func GetWriter(w io.Writer, level int) (*flate.Writer, error) {
	if !ValidLevel(level) {
		return nil, errors.Wrapf(ErrLevel, "level %d", level)
	}
	if fw, ok := writers[poolFor(level)].Get().(*flate.Writer); ok {
		fw.Reset(w)
		return fw, nil
	}
	return flate.NewWriter(w, level)
}

// PutWriter returns a closed flate.Writer obtained from GetWriter at
// the given level to its pool.
func PutWriter(fw *flate.Writer, level int) {
	if fw == nil || !ValidLevel(level) {
		return
	}
	writers[poolFor(level)].Put(fw)
}

// GetReader returns a flate decompressor reading from r.
func GetReader(r io.Reader) io.ReadCloser {
	if fr, ok := readers.Get().(io.ReadCloser); ok {
		if err := fr.(flate.Resetter).Reset(r, nil); err == nil {
			return fr
		}
	}
	return flate.NewReader(r)
}

// PutReader returns a decompressor obtained from GetReader to the pool.
func PutReader(fr io.ReadCloser) {
	if fr == nil {
		return
	}
	readers.Put(fr)
}

// poolFor returns the index into writers for level.
func poolFor(level int) int {
	return level - flate.HuffmanOnly
}
