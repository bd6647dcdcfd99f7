// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package snapshot captures and interprets point-in-time byte copies of
// one field group for one connection.
package snapshot

import (
	"github.com/m-lab/web100/errcode"
	"github.com/m-lab/web100/schema"

	"github.com/pkg/errors"
)

// S is one snapshot: a buffer of exactly the group's size, bound to the
// group and connection it was allocated for. The binding never changes
// over the snapshot's lifetime.
type S struct {
	group *schema.Group
	conn  *schema.Connection
	data  []byte

	// scratch stages captures so a failed capture leaves data intact.
	scratch []byte
}

// Alloc allocates a zeroed snapshot for group g and connection c. The
// two must belong to the same catalogue.
func Alloc(g *schema.Group, c *schema.Connection) (*S, error) {
	if g == nil || c == nil || g.Agent() != c.Agent() {
		return nil, errors.Wrap(errcode.Inval, "group and connection belong to different catalogues")
	}
	return &S{
		group: g,
		conn:  c,
		data:  make([]byte, g.Size()),
	}, nil
}

// Group returns the bound group.
func (s *S) Group() *schema.Group { return s.group }

// Connection returns the bound connection.
func (s *S) Connection() *schema.Connection { return s.conn }

// Bytes returns the snapshot's backing buffer. The slice aliases the
// snapshot, it is not a copy.
func (s *S) Bytes() []byte { return s.data }

// Take replaces the snapshot contents with a fresh read of the bound
// group's region from src. On failure the previous contents are left
// untouched.
func (s *S) Take(src schema.RawReader) error {
	if s.group.Agent().Type() != schema.AgentTypeLocal {
		return errors.Wrap(errcode.AgentType, "capturing from a replayed catalogue")
	}
	if s.scratch == nil {
		s.scratch = make([]byte, len(s.data))
	}
	if err := src.ReadGroup(s.conn.CID(), s.group.Name(), s.scratch); err != nil {
		return err
	}
	copy(s.data, s.scratch)
	return nil
}

// Read returns a copy of the variable's raw little-endian bytes,
// exactly v's width long. v must belong to the snapshot's group.
func (s *S) Read(v *schema.Var) ([]byte, error) {
	if v == nil || v.Group() != s.group {
		return nil, errors.Wrap(errcode.Inval, "variable belongs to a different group")
	}
	out := make([]byte, v.Width())
	copy(out, s.data[v.Offset():])
	return out, nil
}

// CopyFrom overwrites the snapshot's full contents with src's. Both
// snapshots must be bound to the same group and connection.
func (s *S) CopyFrom(src *S) error {
	if src == nil || s.group != src.group || s.conn != src.conn {
		return errors.Wrap(errcode.Inval, "snapshots are bound to different entities")
	}
	copy(s.data, src.data)
	return nil
}
