// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package schema

import (
	"encoding/binary"
	"strings"

	"github.com/m-lab/web100/conn"
	"github.com/m-lab/web100/errcode"
	"github.com/m-lab/web100/vartype"

	"github.com/pkg/errors"
)

// Connection identifies one live connection of a local catalogue, or
// the single synthetic connection of a replayed one.
type Connection struct {
	agent    *Agent
	cid      int
	addrType vartype.AddrType
	spec     conn.Spec
	specV6   conn.SpecV6
}

// Agent returns the owning catalogue.
func (c *Connection) Agent() *Agent { return c.agent }

// CID returns the connection id, or LogCID for a replayed connection.
func (c *Connection) CID() int { return c.cid }

// AddrType returns the connection's address family.
func (c *Connection) AddrType() vartype.AddrType { return c.addrType }

// Spec returns a copy of the IPv4 tuple. Meaningful only when AddrType
// is not IPv6.
func (c *Connection) Spec() conn.Spec { return c.spec }

// SpecV6 returns a copy of the IPv6 tuple. Meaningful only when
// AddrType is IPv6.
func (c *Connection) SpecV6() conn.SpecV6 { return c.specV6 }

func (c *Connection) String() string {
	if c.addrType == vartype.AddrTypeIPv6 {
		return c.specV6.String()
	}
	return c.spec.String()
}

// Source supplies raw group bytes and enumerates live connections. It
// is the narrow interface onto the external instrumentation directory.
type Source interface {
	RawReader

	// ConnectionIDs lists the ids of the currently valid connections.
	ConnectionIDs() ([]int, error)
}

// RawReader supplies the current raw contents of one group region.
type RawReader interface {
	// ReadGroup fills buf with the current contents of the named
	// group's byte region for connection cid. buf is sized by the
	// caller to the group's Size.
	ReadGroup(cid int, group string, buf []byte) error
}

// Connections returns the current connection set. For a local catalogue
// this is whatever the last RefreshConnections produced; for a replayed
// one, the single synthetic connection.
func (a *Agent) Connections() []*Connection { return a.conns }

// RefreshConnections replaces the catalogue's connection set wholesale
// with the directory's current contents, decoding each connection's
// addressing tuple from its spec group region.
//
// Previously returned *Connection values are orphaned, never dangling;
// re-resolve them after a refresh. On error the previous set is left
// in place.
func (a *Agent) RefreshConnections(src Source) error {
	if a.typ != AgentTypeLocal {
		return errors.Wrap(errcode.AgentType, "refreshing connections on a replayed catalogue")
	}
	if a.spec == nil {
		return errors.Wrap(errcode.NoGroup, "catalogue has no spec group")
	}

	ids, err := src.ConnectionIDs()
	if err != nil {
		return errors.Wrapf(errcode.File, "listing connections: %v", err)
	}

	conns := make([]*Connection, 0, len(ids))
	buf := make([]byte, a.spec.size)
	for _, cid := range ids {
		if err := src.ReadGroup(cid, a.spec.name, buf); err != nil {
			return err
		}
		c, err := a.connectionFromSpec(cid, buf)
		if err != nil {
			return err
		}
		conns = append(conns, c)
	}
	a.conns = conns
	return nil
}

// remoteNames returns the remote-endpoint variable names for this
// schema revision. The legacy revision spelled them out in full.
func (a *Agent) remoteNames() (addr, port string) {
	if strings.HasPrefix(a.version, legacyVersionPrefix) {
		return "RemoteAddress", "RemotePort"
	}
	return "RemAddress", "RemPort"
}

func (a *Agent) connectionFromSpec(cid int, raw []byte) (*Connection, error) {
	c := &Connection{agent: a, cid: cid, addrType: vartype.AddrTypeIPv4}

	field := func(name string) ([]byte, error) {
		v, err := a.spec.VarFind(name)
		if err != nil {
			return nil, err
		}
		return raw[v.offset : v.offset+v.typ.Width()], nil
	}

	// Older schemas have no LocalAddressType; absent means IPv4.
	if b, err := field("LocalAddressType"); err == nil {
		c.addrType = vartype.AddrType(leUint(b))
	}

	remAddr, remPort := a.remoteNames()
	la, err := field("LocalAddress")
	if err != nil {
		return nil, err
	}
	ra, err := field(remAddr)
	if err != nil {
		return nil, err
	}
	lp, err := field("LocalPort")
	if err != nil {
		return nil, err
	}
	rp, err := field(remPort)
	if err != nil {
		return nil, err
	}

	if c.addrType == vartype.AddrTypeIPv6 {
		copy(c.specV6.SrcAddr[:], la)
		copy(c.specV6.DstAddr[:], ra)
		c.specV6.SrcPort = uint16(leUint(lp))
		c.specV6.DstPort = uint16(leUint(rp))
	} else {
		copy(c.spec.SrcAddr[:], la)
		copy(c.spec.DstAddr[:], ra)
		c.spec.SrcPort = uint16(leUint(lp))
		c.spec.DstPort = uint16(leUint(rp))
	}
	return c, nil
}

// leUint decodes b as a little-endian unsigned integer of b's width.
// Widths beyond 8 use the low 8 bytes.
func leUint(b []byte) uint64 {
	switch {
	case len(b) >= 8:
		return binary.LittleEndian.Uint64(b)
	case len(b) >= 4:
		return uint64(binary.LittleEndian.Uint32(b))
	case len(b) >= 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case len(b) == 1:
		return uint64(b[0])
	default:
		return 0
	}
}

// ConnectionLookup finds the live connection with id cid.
func (a *Agent) ConnectionLookup(cid int) (*Connection, error) {
	if a.typ != AgentTypeLocal {
		return nil, errors.Wrap(errcode.AgentType, "looking up connections on a replayed catalogue")
	}
	for _, c := range a.conns {
		if c.cid == cid {
			return c, nil
		}
	}
	return nil, errors.Wrapf(errcode.NoConnection, "connection %d", cid)
}

// ConnectionFind finds the live IPv4 connection matching spec's tuple.
func (a *Agent) ConnectionFind(spec *conn.Spec) (*Connection, error) {
	if a.typ != AgentTypeLocal {
		return nil, errors.Wrap(errcode.AgentType, "finding connections on a replayed catalogue")
	}
	for _, c := range a.conns {
		if c.addrType != vartype.AddrTypeIPv6 && c.spec.TupleEqual(spec) {
			return c, nil
		}
	}
	return nil, errors.Wrapf(errcode.NoConnection, "connection %s", spec)
}

// ConnectionFindV6 finds the live IPv6 connection matching spec's tuple.
func (a *Agent) ConnectionFindV6(spec *conn.SpecV6) (*Connection, error) {
	if a.typ != AgentTypeLocal {
		return nil, errors.Wrap(errcode.AgentType, "finding connections on a replayed catalogue")
	}
	for _, c := range a.conns {
		if c.addrType == vartype.AddrTypeIPv6 && c.specV6 == *spec {
			return c, nil
		}
	}
	return nil, errors.Wrapf(errcode.NoConnection, "connection %s", spec)
}

// AddLogConnection installs the synthetic connection of a replayed
// catalogue from a logged tuple and returns it.
func (a *Agent) AddLogConnection(spec conn.Spec) (*Connection, error) {
	if a.typ != AgentTypeLog {
		return nil, errors.Wrap(errcode.AgentType, "adding a log connection to a live catalogue")
	}
	c := &Connection{
		agent:    a,
		cid:      LogCID,
		addrType: vartype.AddrTypeIPv4,
		spec:     spec,
	}
	a.conns = []*Connection{c}
	return c, nil
}
