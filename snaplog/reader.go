// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package snaplog

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"time"

	"github.com/m-lab/web100/conn"
	"github.com/m-lab/web100/errcode"
	"github.com/m-lab/web100/schema"
	"github.com/m-lab/web100/snapshot"
	"github.com/m-lab/web100/support/dataio"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

// Reader replays a snaplog.
//
// Opening a log parses its embedded schema into a replayed catalogue
// owned by the Reader; snapshots for replay are allocated against that
// catalogue via NewSnapshot.
type Reader struct {
	f *os.File
	r rawStreamReader

	path    string
	agent   *schema.Agent
	group   *schema.Group
	conn    *schema.Connection
	created time.Time
}

// Open opens the snaplog at path and reads its complete header.
// Gzip- and snappy-compressed logs are detected and unwrapped
// transparently.
func Open(path string) (*Reader, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errcode.File, "opening %s: %v", path, err)
	}

	r := &Reader{f: fd, path: path}
	if err := r.readHeader(); err != nil {
		_ = fd.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) readHeader() error {
	if err := r.r.reset(r.f); err != nil {
		return errors.Wrapf(errcode.File, "opening stream: %v", err)
	}

	// The embedded schema text runs to its terminating NUL.
	var schemaText bytes.Buffer
	for {
		b, err := r.r.ReadByte()
		if err != nil {
			return errors.Wrapf(errcode.Header, "reading embedded schema: %v", err)
		}
		if b == 0 {
			break
		}
		schemaText.WriteByte(b)
	}

	agent, err := schema.AttachLog(&schemaText)
	if err != nil {
		return err
	}

	line, err := r.readLine()
	switch {
	case err == io.EOF:
		// The stream ran out before a complete marker line.
		return errors.Wrap(errcode.EndOfHeader, "end-of-header marker not found")
	case err != nil:
		return errors.Wrapf(errcode.File, "reading end-of-header: %v", err)
	case line != endOfHeaderMarker:
		return errors.Wrapf(errcode.EndOfHeader, "unexpected end-of-header line %q", line)
	}

	var ts [4]byte
	if err := dataio.ReadFull(r.r, ts[:]); err != nil {
		return errors.Wrapf(errcode.File, "reading timestamp: %v", err)
	}
	r.created = time.Unix(int64(binary.LittleEndian.Uint32(ts[:])), 0)

	var name [schema.GroupNameMax]byte
	if err := dataio.ReadFull(r.r, name[:]); err != nil {
		return errors.Wrapf(errcode.File, "reading group name: %v", err)
	}
	groupName := string(name[:])
	if i := bytes.IndexByte(name[:], 0); i >= 0 {
		groupName = string(name[:i])
	}

	group, err := agent.GroupFind(groupName)
	if err != nil {
		return err
	}

	var spec conn.Spec
	if err := struc.Unpack(r.r, &spec); err != nil {
		return errors.Wrapf(errcode.File, "reading connection spec: %v", err)
	}
	logConn, err := agent.AddLogConnection(spec)
	if err != nil {
		return err
	}

	r.agent = agent
	r.group = group
	r.conn = logConn
	return nil
}

// readLine reads bytes up to a newline, returning the line without it.
// An EOF before the newline returns the partial line alongside io.EOF.
func (r *Reader) readLine() (string, error) {
	var line []byte
	for {
		b, err := r.r.ReadByte()
		if err != nil {
			return string(line), err
		}
		if b == '\n' {
			return string(line), nil
		}
		line = append(line, b)
	}
}

// Path returns the log's file path.
func (r *Reader) Path() string { return r.path }

// Agent returns the replayed catalogue parsed from the log.
func (r *Reader) Agent() *schema.Agent { return r.agent }

// Group returns the logged group, resolved in the replayed catalogue.
func (r *Reader) Group() *schema.Group { return r.group }

// Connection returns the log's synthetic connection.
func (r *Reader) Connection() *schema.Connection { return r.conn }

// Created returns the timestamp recorded in the log header.
func (r *Reader) Created() time.Time { return r.created }

// NewSnapshot allocates a snapshot sized for the logged group and bound
// to the log's synthetic connection, suitable for Next.
func (r *Reader) NewSnapshot() (*snapshot.S, error) {
	return snapshot.Alloc(r.group, r.conn)
}

// Next reads the next snapshot record into s, which must be bound to
// the log's group (see NewSnapshot).
//
// A clean end of stream is reported as io.EOF. A complete line that is
// not the record marker reports MissingSnapMagic; a record cut short
// reports FileTruncatedSnapData.
func (r *Reader) Next(s *snapshot.S) error {
	if s == nil || s.Group() != r.group {
		return errors.Wrap(errcode.Inval, "snapshot is not bound to this log's group")
	}

	line, err := r.readLine()
	switch {
	case err == io.EOF:
		// Termination between records, or mid-marker on a log whose
		// writer was cut off. Both are normal ends of stream.
		return io.EOF
	case err != nil:
		return errors.Wrapf(errcode.File, "reading record marker: %v", err)
	case line != beginSnapMarker:
		replayErrors.WithLabelValues("bad_magic").Inc()
		return errors.Wrapf(errcode.MissingSnapMagic, "unexpected record marker %q", line)
	}

	if err := dataio.ReadFull(r.r, s.Bytes()); err != nil {
		replayErrors.WithLabelValues("truncated").Inc()
		return errors.Wrapf(errcode.FileTruncatedSnapData, "reading snapshot data: %v", err)
	}

	recordsRead.Inc()
	return nil
}

// Close closes the log file. It is safe to call more than once.
func (r *Reader) Close() error {
	if r.f == nil {
		return nil
	}
	fd := r.f
	r.f = nil
	if err := fd.Close(); err != nil {
		return errors.Wrapf(errcode.File, "closing %s: %v", r.path, err)
	}
	return nil
}
