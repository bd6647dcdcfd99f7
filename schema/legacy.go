// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package schema

import (
	"bufio"
	"io"
	"strings"

	"github.com/m-lab/web100/errcode"

	"github.com/pkg/errors"
)

// LegacyNames parses a variable-definition table (the tcp-kis.txt
// format) and returns a map from each legacy kernel name to its
// canonical name.
//
// The table is line oriented: a "VariableName:" line introduces a
// canonical name, and subsequent "RenameFrom:" lines list the legacy
// names it replaces.
func LegacyNames(r io.Reader) (map[string]string, error) {
	names := map[string]string{}

	var canonical string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "VariableName:":
			canonical = fields[1]
		case "RenameFrom:":
			for _, legacy := range fields[1:] {
				if canonical != "" {
					names[legacy] = canonical
				}
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(errcode.File, "reading name table: %v", err)
	}
	return names, nil
}
