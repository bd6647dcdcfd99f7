// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package schema

import (
	"bufio"
	"strings"

	"github.com/m-lab/web100/errcode"
	"github.com/m-lab/web100/vartype"

	"github.com/pkg/errors"
)

// Group is one named table of variables backed by a single raw byte
// region of Size bytes.
type Group struct {
	agent *Agent
	name  string
	size  int
	nvars int

	// vars holds every parsed variable, deprecated aliases included,
	// most recently declared first.
	vars []*Var
}

// Agent returns the owning catalogue.
func (g *Group) Agent() *Agent { return g.agent }

// Name returns the group name.
func (g *Group) Name() string { return g.name }

// Size returns the group's raw region size: the largest offset+width
// over its recognized variables.
func (g *Group) Size() int { return g.size }

// NumVars returns the count of recognized variables, deprecated
// aliases included.
func (g *Group) NumVars() int { return g.nvars }

func (g *Group) String() string { return g.name }

// addVar parses the remainder of a variable declaration whose name
// token has already been consumed.
func (g *Group) addVar(name string, hasLen bool, sc *bufio.Scanner) error {
	v := &Var{group: g, name: name, length: -1}
	if strings.HasPrefix(v.name, deprecatedMarker) {
		v.name = v.name[len(deprecatedMarker):]
		v.deprecated = true
	}
	if v.name == "" || len(v.name) >= VarNameMax {
		return errors.Wrapf(errcode.Header, "bad variable name %q", name)
	}

	var err error
	if v.offset, err = scanInt(sc, "offset"); err != nil {
		return err
	}
	var t int
	if t, err = scanInt(sc, "type"); err != nil {
		return err
	}
	v.typ = vartype.T(t)
	if hasLen {
		if v.length, err = scanInt(sc, "length"); err != nil {
			return err
		}
	}
	if v.offset < 0 {
		return errors.Wrapf(errcode.Header, "negative offset for %q", v.name)
	}

	w := v.typ.Width()
	if w == 0 {
		// Unrecognized type: the variable is discarded and contributes
		// nothing, not even its offset, to the group size.
		return nil
	}
	if end := v.offset + w; end > g.size {
		g.size = end
	}
	g.nvars++
	g.vars = append([]*Var{v}, g.vars...)
	return nil
}

// Vars returns the group's variables in iteration order (most recently
// declared first), with deprecated aliases skipped.
func (g *Group) Vars() []*Var {
	out := make([]*Var, 0, len(g.vars))
	for _, v := range g.vars {
		if !v.deprecated {
			out = append(out, v)
		}
	}
	return out
}

// VarFind returns the first variable named name.
//
// Deprecated aliases are reachable here even though Vars skips them;
// the first such access logs a warning through the catalogue's warning
// logger.
func (g *Group) VarFind(name string) (*Var, error) {
	for _, v := range g.vars {
		if v.name == name {
			v.deprecationCheck(g.agent.warnLog)
			return v, nil
		}
	}
	return nil, errors.Wrapf(errcode.NoVar, "variable %q in group %q", name, g.name)
}
