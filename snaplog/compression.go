// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package snaplog

import (
	"bufio"
	"bytes"
	"io"

	"github.com/m-lab/web100/support/dataio"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// Buffer size for stream I/O. Snaplogs run to a few megabytes.
const streamBufferSize = 1024 * 1024

// Leading bytes that identify a compressed stream.
var (
	gzipMagic         = []byte{0x1f, 0x8b}
	snappyStreamMagic = []byte{0xff, 0x06, 0x00, 0x00, 's', 'N', 'a', 'P', 'p', 'Y'}
)

type rawStreamReader struct {
	// Currently connected to the source reader.
	dataio.Reader

	br      *bufio.Reader
	snappyR *snappy.Reader
	gzipR   *gzip.Reader
}

// reset connects the reader to base, sniffing the stream's leading
// bytes for compression framing.
func (r *rawStreamReader) reset(base io.Reader) error {
	if r.br == nil {
		r.br = bufio.NewReaderSize(base, streamBufferSize)
	} else {
		r.br.Reset(base)
	}

	// An empty or very short stream is fine here; it fails later with
	// a header error.
	magic, err := r.br.Peek(len(snappyStreamMagic))
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return errors.Wrap(err, "sniffing stream")
	}

	switch {
	case bytes.HasPrefix(magic, snappyStreamMagic):
		if r.snappyR == nil {
			r.snappyR = snappy.NewReader(r.br)
		} else {
			r.snappyR.Reset(r.br)
		}
		r.Reader = dataio.MakeReader(r.snappyR)

	case bytes.HasPrefix(magic, gzipMagic):
		if r.gzipR == nil {
			gz, err := gzip.NewReader(r.br)
			if err != nil {
				return errors.Wrap(err, "creating gzip reader")
			}
			r.gzipR = gz
		} else {
			if err := r.gzipR.Reset(r.br); err != nil {
				return errors.Wrap(err, "resetting gzip reader")
			}
		}
		r.Reader = dataio.MakeReader(r.gzipR)

	default:
		r.Reader = r.br
	}
	return nil
}

type rawStreamWriter struct {
	dataio.Writer

	closer  io.Closer
	bw      *bufio.Writer
	snappyW *snappy.Writer
	gzipW   *gzip.Writer
}

func newRawStreamWriter(base io.WriteCloser) *rawStreamWriter {
	w := rawStreamWriter{
		bw:     bufio.NewWriterSize(base, streamBufferSize),
		closer: base,
	}
	w.Writer = w.bw
	return &w
}

func (w *rawStreamWriter) beginCompression(comp Compression, level int) error {
	switch comp {
	case CompressionSnappy:
		w.snappyW = snappy.NewBufferedWriter(w.bw)
		w.Writer = dataio.MakeWriter(w.snappyW)

	case CompressionGzip:
		if level < 0 {
			level = gzip.DefaultCompression
		}
		gw, err := gzip.NewWriterLevel(w.bw, level)
		if err != nil {
			return errors.Wrap(err, "creating gzip writer")
		}
		w.gzipW = gw
		w.Writer = dataio.MakeWriter(w.gzipW)

	case CompressionNone:
		w.Writer = w.bw

	default:
		return errors.Errorf("unknown compression: %s", comp)
	}
	return nil
}

func (w *rawStreamWriter) Close() (err error) {
	// Always close our underlying base, if we have one.
	if w.closer != nil {
		defer func() {
			closeErr := w.closer.Close()
			if err == nil {
				err = closeErr
			}
		}()
	}

	if w.snappyW != nil {
		if err = w.snappyW.Close(); err != nil {
			return
		}
	}
	if w.gzipW != nil {
		if err = w.gzipW.Close(); err != nil {
			return
		}
	}

	return w.bw.Flush()
}
