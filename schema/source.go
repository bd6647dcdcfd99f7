// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package schema

import (
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/m-lab/web100/errcode"

	"github.com/pkg/errors"
)

// DefaultRoot is the well-known location of the live instrumentation
// tree.
const DefaultRoot = "/proc/web100"

// headerFile is the schema file at the root of the tree.
const headerFile = "header"

// FSSource reads the live instrumentation tree: <root>/header holds
// the schema text, and <root>/<cid>/<group> the raw byte region of one
// group for one connection.
//
// FSSource implements Source.
type FSSource struct {
	// Root is the tree root. Empty means DefaultRoot.
	Root string
}

var _ Source = (*FSSource)(nil)

func (fs *FSSource) root() string {
	if fs.Root == "" {
		return DefaultRoot
	}
	return fs.Root
}

// Attach parses the tree's live schema into a local catalogue.
func (fs *FSSource) Attach() (*Agent, error) {
	f, err := os.Open(filepath.Join(fs.root(), headerFile))
	if err != nil {
		return nil, errors.Wrapf(errcode.Header, "opening schema header: %v", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return parseHeader(f, AgentTypeLocal)
}

// Header opens the tree's raw schema text for reading. Snaplog writers
// copy it into the log verbatim.
func (fs *FSSource) Header() (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(fs.root(), headerFile))
	if err != nil {
		return nil, errors.Wrapf(errcode.Header, "opening schema header: %v", err)
	}
	return f, nil
}

// ConnectionIDs implements Source. Directory entries that are not
// numeric directories are skipped.
func (fs *FSSource) ConnectionIDs() ([]int, error) {
	ents, err := os.ReadDir(fs.root())
	if err != nil {
		return nil, errors.Wrapf(errcode.File, "reading %s: %v", fs.root(), err)
	}

	var ids []int
	for _, e := range ents {
		if !e.IsDir() {
			continue
		}
		cid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		ids = append(ids, cid)
	}
	return ids, nil
}

// ReadGroup implements RawReader.
func (fs *FSSource) ReadGroup(cid int, group string, buf []byte) error {
	path := filepath.Join(fs.root(), strconv.Itoa(cid), group)
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(errcode.NoConnection, "opening %s: %v", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	// The connection's existence was settled by the open; a short or
	// failed read past that point is an I/O fault.
	if _, err := io.ReadFull(f, buf); err != nil {
		return errors.Wrapf(errcode.File, "reading %s: %v", path, err)
	}
	return nil
}
