// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package dataio supplies byte-capable reader and writer interfaces for
// stream formats that mix single-byte scans (NUL-terminated text,
// marker lines) with bulk binary regions.
package dataio

import (
	"io"
)

// Reader can read both individual bytes and sequences of bytes.
type Reader interface {
	io.Reader
	io.ByteReader
}

// MakeReader returns a Reader for r, wrapping it if it cannot already
// read single bytes.
func MakeReader(r io.Reader) Reader {
	if dr, ok := r.(Reader); ok {
		return dr
	}
	return &simulatedReader{r}
}

type simulatedReader struct {
	io.Reader
}

func (r *simulatedReader) ReadByte() (byte, error) {
	var d [1]byte
	amt, err := r.Read(d[:])
	if amt == 1 {
		// A Reader may return both a byte and an error; the byte wins.
		return d[0], nil
	}
	if err == nil {
		err = io.ErrNoProgress
	}
	return 0, err
}

// Writer can write both individual bytes and sequences of bytes.
type Writer interface {
	io.Writer
	io.ByteWriter
}

// MakeWriter returns a Writer for w, wrapping it if it cannot already
// write single bytes.
func MakeWriter(w io.Writer) Writer {
	if dw, ok := w.(Writer); ok {
		return dw
	}
	return &simulatedWriter{w}
}

type simulatedWriter struct {
	io.Writer
}

func (w *simulatedWriter) WriteByte(c byte) error {
	d := [1]byte{c}
	_, err := w.Write(d[:])
	return err
}
