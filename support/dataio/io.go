// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package dataio

import (
	"io"
)

// ReadFull reads from r until buf is full, or until an error is
// encountered.
//
// Unlike io.ReadFull, an EOF that lands exactly on the final byte is
// not an error; any shortfall is reported with whatever error the
// reader produced.
func ReadFull(r io.Reader, buf []byte) error {
	for remaining := buf; len(remaining) > 0; {
		amt, err := r.Read(remaining)
		remaining = remaining[amt:]
		if err != nil {
			if err == io.EOF && len(remaining) == 0 {
				return nil
			}
			return err
		}
	}
	return nil
}
