// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package schema

import (
	"github.com/m-lab/web100/support/logging"
	"github.com/m-lab/web100/vartype"
)

// Var is one named, typed, offset-addressed variable within a Group.
type Var struct {
	group      *Group
	name       string
	typ        vartype.T
	offset     int
	length     int
	deprecated bool
	warned     bool
}

// Group returns the owning group.
func (v *Var) Group() *Group { return v.group }

// Name returns the variable name, with any deprecation marker stripped.
func (v *Var) Name() string { return v.name }

// Type returns the variable's type tag.
func (v *Var) Type() vartype.T { return v.typ }

// Offset returns the variable's byte offset within the group region.
func (v *Var) Offset() int { return v.offset }

// Width returns the variable's value width in bytes.
func (v *Var) Width() int { return v.typ.Width() }

// Length returns the declared length from the schema, or -1 for legacy
// schema revisions that carry none. It is informational; Width governs
// the bytes actually read.
func (v *Var) Length() int { return v.length }

// Deprecated reports whether the variable was declared with the
// deprecation marker.
func (v *Var) Deprecated() bool { return v.deprecated }

func (v *Var) String() string { return v.name }

// deprecationCheck emits the one-time warning for a deprecated alias.
// The warned flag is plain mutable state, like the rest of the Agent.
func (v *Var) deprecationCheck(l logging.L) {
	if !v.deprecated || v.warned {
		return
	}
	v.warned = true
	l.Warnf("accessing deprecated variable %q in group %q", v.name, v.group.name)
}
