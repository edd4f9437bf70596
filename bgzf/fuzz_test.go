// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bgzf_test

import (
	"bytes"
	"io"
	"testing"

	. "github.com/biogo/seqtools/bgzf"
)

func FuzzReader(f *testing.F) {
	f.Add(MagicBlock)
	b, err := CompressBlock([]byte("fuzz seed"), 1)
	if err != nil {
		f.Fatal(err)
	}
	f.Add(b)
	f.Add(append(b, MagicBlock...))
	f.Fuzz(func(t *testing.T, data []byte) {
		r := NewReader(bytes.NewReader(data))
		tmp := make([]byte, 1024)
		for {
			_, err := r.Read(tmp)
			if err != nil {
				break
			}
		}
	})
}

func FuzzDecompressBlock(f *testing.F) {
	f.Add(MagicBlock)
	f.Fuzz(func(t *testing.T, data []byte) {
		got, _, err := DecompressBlock(data)
		if err != nil || len(got) > MaxDataSize {
			return
		}
		b, err := CompressBlock(got, 1)
		if err != nil {
			t.Fatalf("failed to recompress %d decompressed bytes: %v", len(got), err)
		}
		again, rest, err := DecompressBlock(b)
		if err != nil {
			t.Fatalf("failed to decompress recompressed block: %v", err)
		}
		if len(rest) != 0 || !bytes.Equal(again, got) {
			t.Errorf("recompressed block mismatch")
		}
	})
}

func FuzzWriterRoundTrip(f *testing.F) {
	f.Add([]byte{}, 1)
	f.Add(bytes.Repeat([]byte("ACGT"), 20000), 6)
	f.Fuzz(func(t *testing.T, data []byte, level int) {
		var buf bytes.Buffer
		w, err := NewWriterLevel(&buf, level)
		if err != nil {
			return
		}
		if _, err = w.Write(data); err != nil {
			t.Fatalf("unexpected write error: %v", err)
		}
		if err = w.Close(); err != nil {
			t.Fatalf("unexpected close error: %v", err)
		}
		if !bytes.HasSuffix(buf.Bytes(), MagicBlock) {
			t.Errorf("missing EOF block")
		}
		got, err := io.ReadAll(NewReader(&buf))
		if err != nil {
			t.Fatalf("unexpected read error: %v", err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("round trip mismatch: got %d bytes, want %d", len(got), len(data))
		}
	})
}
