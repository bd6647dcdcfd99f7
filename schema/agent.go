// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package schema parses the self-describing instrumentation header into
// a typed catalogue of field groups and variables.
//
// A header is a version line followed by whitespace-separated tokens:
// a token starting with "/" opens a new group, and every other token
// begins a variable declaration (name, offset, type, and — for modern
// schema revisions — a declared length). The distinguished "spec" group
// describes each connection's own addressing tuple and is held apart
// from the general groups.
package schema

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/m-lab/web100/errcode"
	"github.com/m-lab/web100/support/logging"

	"github.com/pkg/errors"
)

const (
	// GroupNameMax and VarNameMax bound names to the 31-byte-plus-NUL
	// buffers of the wire formats.
	GroupNameMax = 32
	VarNameMax   = 32

	// SpecGroupName names the distinguished addressing-tuple group.
	SpecGroupName = "spec"

	// LogCID is the connection id of the synthetic connection installed
	// in a replayed catalogue.
	LogCID = -1

	// Version strings starting with this prefix mark the legacy schema
	// revision: three-token variable declarations (no declared length)
	// and the older remote-endpoint variable names.
	legacyVersionPrefix = "1."

	// Variable names starting with this marker are deprecated aliases.
	deprecatedMarker = "_"
)

// AgentType records a catalogue's provenance.
type AgentType int

const (
	// AgentTypeLocal marks a catalogue parsed from a live source.
	AgentTypeLocal AgentType = iota
	// AgentTypeLog marks a catalogue replayed from a snaplog.
	AgentTypeLog
)

func (t AgentType) String() string {
	switch t {
	case AgentTypeLocal:
		return "LOCAL"
	case AgentTypeLog:
		return "LOG"
	default:
		return "UNKNOWN"
	}
}

// Agent is a parsed catalogue: the schema's groups and variables, its
// provenance, and — for local catalogues — the current connection set.
//
// An Agent and everything reached through it is single-threaded;
// callers needing concurrent access must synchronize externally.
type Agent struct {
	typ     AgentType
	version string

	// groups holds the general groups, most recently declared first.
	// The spec group is held apart and never appears here.
	groups []*Group
	spec   *Group

	conns []*Connection

	warnLog logging.L
}

// AttachLog parses a schema header from r into a replayed catalogue.
func AttachLog(r io.Reader) (*Agent, error) {
	return parseHeader(r, AgentTypeLog)
}

func parseHeader(r io.Reader, typ AgentType) (*Agent, error) {
	br := bufio.NewReader(r)
	version, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, errors.Wrapf(errcode.Header, "reading version line: %v", err)
	}
	version = strings.TrimRight(version, "\r\n")
	if version == "" {
		return nil, errors.Wrap(errcode.Header, "empty version line")
	}

	agent := &Agent{
		typ:     typ,
		version: version,
		warnLog: logging.Nop,
	}
	hasLen := !strings.HasPrefix(version, legacyVersionPrefix)

	sc := bufio.NewScanner(br)
	sc.Split(bufio.ScanWords)

	var cur *Group
	for sc.Scan() {
		tok := sc.Text()
		if tok[0] == '/' {
			g, err := agent.addGroup(tok[1:], sc)
			if err != nil {
				return nil, err
			}
			cur = g
			continue
		}
		if cur == nil {
			return nil, errors.Wrapf(errcode.Header, "variable %q declared before any group", tok)
		}
		if err := cur.addVar(tok, hasLen, sc); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(errcode.Header, "reading header: %v", err)
	}
	return agent, nil
}

func (a *Agent) addGroup(name string, sc *bufio.Scanner) (*Group, error) {
	if name == "" {
		// "/ name" split across tokens.
		if !sc.Scan() {
			return nil, errors.Wrap(errcode.Header, "missing group name")
		}
		name = sc.Text()
	}
	if len(name) >= GroupNameMax {
		return nil, errors.Wrapf(errcode.Header, "group name %q too long", name)
	}

	g := &Group{agent: a, name: name}
	if name == SpecGroupName {
		a.spec = g
	} else {
		a.groups = append([]*Group{g}, a.groups...)
	}
	return g, nil
}

func scanInt(sc *bufio.Scanner, what string) (int, error) {
	if !sc.Scan() {
		return 0, errors.Wrapf(errcode.Header, "truncated declaration: missing %s", what)
	}
	n, err := strconv.Atoi(sc.Text())
	if err != nil {
		return 0, errors.Wrapf(errcode.Header, "bad %s %q", what, sc.Text())
	}
	return n, nil
}

// Type returns the catalogue's provenance.
func (a *Agent) Type() AgentType { return a.typ }

// Version returns the schema version line, without its newline.
func (a *Agent) Version() string { return a.version }

// SetWarningLogger directs the catalogue's warnings (currently only the
// one-time deprecated-variable notice) to l. Passing nil restores the
// default no-op logger.
func (a *Agent) SetWarningLogger(l logging.L) {
	a.warnLog = logging.Must(l)
}

// Groups returns the general groups, most recently declared first. The
// spec group is not included. The returned slice is owned by the Agent.
func (a *Agent) Groups() []*Group { return a.groups }

// Spec returns the distinguished spec group, or nil if the schema
// declared none.
func (a *Agent) Spec() *Group { return a.spec }

// GroupFind returns the first general group named name.
func (a *Agent) GroupFind(name string) (*Group, error) {
	for _, g := range a.groups {
		if g.name == name {
			return g, nil
		}
	}
	return nil, errors.Wrapf(errcode.NoGroup, "group %q", name)
}

// FindVar searches every general group, in iteration order, for a
// variable named name, returning the owning group alongside it.
func (a *Agent) FindVar(name string) (*Group, *Var, error) {
	for _, g := range a.groups {
		if v, err := g.VarFind(name); err == nil {
			return g, v, nil
		}
	}
	return nil, nil, errors.Wrapf(errcode.NoVar, "variable %q in any group", name)
}
