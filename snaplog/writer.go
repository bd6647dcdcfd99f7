// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package snaplog

import (
	"encoding/binary"
	"io"
	"os"
	"time"

	"github.com/m-lab/web100/conn"
	"github.com/m-lab/web100/errcode"
	"github.com/m-lab/web100/schema"
	"github.com/m-lab/web100/snapshot"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

// WriterConfig holds the options for creating a snaplog.
type WriterConfig struct {
	// Compression wraps the entire file. CompressionNone produces the
	// canonical interchange layout.
	Compression Compression

	// CompressionLevel is the gzip compression level. Values < 0 use
	// the default level.
	CompressionLevel int

	// NowFunc is the time source for the header timestamp. If nil,
	// time.Now will be used.
	NowFunc func() time.Time
}

func (cfg *WriterConfig) now() time.Time {
	if cfg.NowFunc != nil {
		return cfg.NowFunc()
	}
	return time.Now()
}

// Writer appends snapshot records to a snaplog bound to one group and
// one connection.
type Writer struct {
	w *rawStreamWriter

	path    string
	group   *schema.Group
	spec    conn.Spec
	created time.Time
}

// Create opens a new snaplog at path for group g and connection c,
// writing the complete file header before returning.
//
// header supplies the catalogue's schema text, copied into the log
// verbatim; it must be the text g's catalogue was parsed from. On
// failure no file is left behind.
func (cfg *WriterConfig) Create(path string, header io.Reader, g *schema.Group, c *schema.Connection) (*Writer, error) {
	if g == nil || c == nil || g.Agent() != c.Agent() {
		return nil, errors.Wrap(errcode.Inval, "group and connection belong to different catalogues")
	}

	fd, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(errcode.File, "creating %s: %v", path, err)
	}
	sw := newRawStreamWriter(fd)
	defer func() {
		// Cleanup if we failed to complete our creation.
		if sw != nil {
			_ = sw.Close()
			_ = os.Remove(path)
		}
	}()

	if err := sw.beginCompression(cfg.Compression, cfg.CompressionLevel); err != nil {
		return nil, err
	}

	// Schema text, byte for byte, NUL terminated.
	if _, err := io.Copy(sw, header); err != nil {
		return nil, errors.Wrapf(errcode.Header, "copying schema text: %v", err)
	}
	if err := sw.WriteByte(0); err != nil {
		return nil, errors.Wrapf(errcode.File, "terminating schema text: %v", err)
	}
	if _, err := io.WriteString(sw, endOfHeaderMarker+"\n"); err != nil {
		return nil, errors.Wrapf(errcode.File, "writing end-of-header: %v", err)
	}

	// Creation timestamp, fixed at 4 bytes regardless of platform.
	created := cfg.now()
	var ts [4]byte
	binary.LittleEndian.PutUint32(ts[:], uint32(created.Unix()))
	if _, err := sw.Write(ts[:]); err != nil {
		return nil, errors.Wrapf(errcode.File, "writing timestamp: %v", err)
	}

	var name [schema.GroupNameMax]byte
	copy(name[:], g.Name())
	if _, err := sw.Write(name[:]); err != nil {
		return nil, errors.Wrapf(errcode.File, "writing group name: %v", err)
	}

	spec := c.Spec()
	if err := struc.Pack(sw, &spec); err != nil {
		return nil, errors.Wrapf(errcode.File, "writing connection spec: %v", err)
	}

	w := &Writer{
		w:       sw,
		path:    path,
		group:   g,
		spec:    spec,
		created: created,
	}
	sw = nil // Belongs to w now; don't clean up.
	return w, nil
}

// Path returns the log's file path.
func (w *Writer) Path() string { return w.path }

// Created returns the timestamp recorded in the log header.
func (w *Writer) Created() time.Time { return w.created }

// Write appends one snapshot record.
//
// The snapshot must cover the log's group, and its connection must
// describe the logged connection: destination port, destination
// address, and source port are compared; source address is not.
func (w *Writer) Write(s *snapshot.S) error {
	if w.w == nil {
		return errors.Wrap(errcode.File, "writer is closed")
	}
	if s.Group() != w.group {
		return errors.Wrap(errcode.Inval, "snapshot covers a different group")
	}
	spec := s.Connection().Spec()
	if spec.DstPort != w.spec.DstPort || spec.DstAddr != w.spec.DstAddr ||
		spec.SrcPort != w.spec.SrcPort {
		return errors.Wrap(errcode.Inval, "snapshot connection does not match the logged connection")
	}

	if _, err := io.WriteString(w.w, beginSnapMarker+"\n"); err != nil {
		return errors.Wrapf(errcode.File, "writing record marker: %v", err)
	}
	if _, err := w.w.Write(s.Bytes()); err != nil {
		return errors.Wrapf(errcode.File, "writing snapshot data: %v", err)
	}

	recordsWritten.Inc()
	return nil
}

// Close flushes and closes the log file. It is safe to call more than
// once.
func (w *Writer) Close() error {
	if w.w == nil {
		return nil
	}
	sw := w.w
	w.w = nil
	if err := sw.Close(); err != nil {
		return errors.Wrapf(errcode.File, "closing %s: %v", w.path, err)
	}
	return nil
}
