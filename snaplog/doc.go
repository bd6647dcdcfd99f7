// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package snaplog reads and writes snapshot log files.
//
// A snaplog binds one group of one connection to a single file. The
// file holds, in order:
//
//   - the catalogue's schema text, byte for byte, terminated by a NUL;
//   - the line "----End-Of-Header---- -1 -1";
//   - a 4-byte little-endian creation timestamp (Unix seconds);
//   - the group name, NUL-padded to 32 bytes;
//   - the connection 4-tuple in its packed 16-byte layout;
//   - zero or more records, each the line "----Begin-Snap-Data----"
//     followed by exactly group-size raw snapshot bytes.
//
// The uncompressed layout is the interchange format; the writer can
// optionally wrap the whole file in gzip or snappy framing, which the
// reader detects and unwraps transparently.
//
// Replaying a snaplog parses the embedded schema into a fresh replayed
// catalogue with a single synthetic connection, so snapshots read back
// from a log are interpreted by exactly the schema that produced them.
// End of stream is reported as io.EOF; corrupt record markers and
// short records are reported as distinct errors.
package snaplog
