// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package snapshot

import (
	"encoding/binary"

	"github.com/m-lab/web100/errcode"
	"github.com/m-lab/web100/schema"

	"github.com/pkg/errors"
)

// Delta computes value(a) − value(b) for variable v and returns the
// result at v's native width, little-endian.
//
// The subtraction is unsigned with width-matched wraparound; no
// ordering between a and b is enforced, so reversed arguments silently
// wrap. Both snapshots must cover v's group, and v must be a machine
// integer width (1, 2, 4, or 8 bytes).
func Delta(v *schema.Var, a, b *S) ([]byte, error) {
	if a == nil || b == nil || a.group != b.group {
		return nil, errors.Wrap(errcode.Inval, "snapshots cover different groups")
	}

	va, err := a.Read(v)
	if err != nil {
		return nil, err
	}
	vb, err := b.Read(v)
	if err != nil {
		return nil, err
	}

	w := v.Width()
	switch w {
	case 1, 2, 4, 8:
	default:
		return nil, errors.Wrapf(errcode.Inval, "variable %q (width %d) is not an integer type", v.Name(), w)
	}

	d := leUint(va) - leUint(vb)
	out := make([]byte, w)
	putLEUint(out, d)
	return out, nil
}

func leUint(b []byte) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	default:
		return binary.LittleEndian.Uint64(b)
	}
}

func putLEUint(b []byte, v uint64) {
	switch len(b) {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	default:
		binary.LittleEndian.PutUint64(b, v)
	}
}
