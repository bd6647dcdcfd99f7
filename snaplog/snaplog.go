// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package snaplog

import (
	"fmt"
)

const (
	// endOfHeaderMarker terminates the file header. The trailing
	// "-1 -1" fields are historical.
	endOfHeaderMarker = "----End-Of-Header---- -1 -1"

	// beginSnapMarker precedes every snapshot record.
	beginSnapMarker = "----Begin-Snap-Data----"
)

// Compression enumerates the whole-file compression schemes.
type Compression int

// Supported Compression values.
const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionSnappy
)

var compressionName = map[Compression]string{
	CompressionNone:   "NONE",
	CompressionGzip:   "GZIP",
	CompressionSnappy: "SNAPPY",
}

var compressionValue = map[string]Compression{
	"NONE":   CompressionNone,
	"GZIP":   CompressionGzip,
	"SNAPPY": CompressionSnappy,
}

func (c Compression) String() string {
	if name, ok := compressionName[c]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(c))
}
