// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package conn defines the connection 4-tuple structures in the exact
// byte layout the instrumentation source uses.
//
// The layouts are packed and unpacked with struc so that they reproduce
// the originating 32-bit C structs bit for bit, alignment holes
// included. Ports are little-endian; address bytes are carried in the
// order the kernel stored them (network order).
package conn

import (
	"fmt"

	"github.com/m-lab/web100/vartype"
)

// SpecSize is the packed size of Spec in bytes.
const SpecSize = 16

// Spec is an IPv4 connection 4-tuple.
//
// Pad0 and Pad1 preserve the 2-byte alignment holes that follow each
// port in the original struct; they pack as zero bytes.
type Spec struct {
	DstPort uint16 `struc:",little"`
	Pad0    []byte `struc:"[2]pad"`
	DstAddr [4]byte
	SrcPort uint16 `struc:",little"`
	Pad1    []byte `struc:"[2]pad"`
	SrcAddr [4]byte
}

// TupleEqual reports whether s and o describe the same connection.
//
// Padding is ignored; all four tuple fields are compared.
func (s *Spec) TupleEqual(o *Spec) bool {
	return s.DstPort == o.DstPort && s.DstAddr == o.DstAddr &&
		s.SrcPort == o.SrcPort && s.SrcAddr == o.SrcAddr
}

func (s *Spec) String() string {
	return fmt.Sprintf("%s:%d => %s:%d",
		vartype.IPv4String(s.SrcAddr[:]), s.SrcPort,
		vartype.IPv4String(s.DstAddr[:]), s.DstPort)
}

// SpecV6 is an IPv6 connection 4-tuple. The original struct is packed;
// there are no alignment holes.
type SpecV6 struct {
	DstPort uint16 `struc:",little"`
	DstAddr [16]byte
	SrcPort uint16 `struc:",little"`
	SrcAddr [16]byte
}

func (s *SpecV6) String() string {
	return fmt.Sprintf("[%s]:%d => [%s]:%d",
		vartype.IPv6String(s.SrcAddr[:]), s.SrcPort,
		vartype.IPv6String(s.DstAddr[:]), s.DstPort)
}
