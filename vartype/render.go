// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package vartype

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// Render formats the raw field value data as text according to type t.
//
// A generic InetAddress dispatches on its trailing discriminator byte:
// AddrTypeIPv6 renders as IPv6, anything else as IPv4. Unrecognized
// type tags render as "unknown type"; data shorter than the bytes the
// type needs renders as the empty string.
func Render(t T, data []byte) string {
	if t == InetAddress {
		if len(data) < 17 {
			return ""
		}
		if AddrType(data[16]) == AddrTypeIPv6 {
			t = InetAddressIPv6
		} else {
			t = InetAddressIPv4
		}
	}

	switch t {
	case Integer, Integer32:
		if len(data) < 4 {
			return ""
		}
		return strconv.FormatInt(int64(int32(binary.LittleEndian.Uint32(data))), 10)

	case Counter32, Gauge32, Unsigned32, TimeTicks:
		if len(data) < 4 {
			return ""
		}
		return strconv.FormatUint(uint64(binary.LittleEndian.Uint32(data)), 10)

	case Counter64:
		if len(data) < 8 {
			return ""
		}
		return strconv.FormatUint(binary.LittleEndian.Uint64(data), 10)

	case InetPortNumber:
		if len(data) < 2 {
			return ""
		}
		return strconv.FormatUint(uint64(binary.LittleEndian.Uint16(data)), 10)

	case InetAddressIPv4:
		if len(data) < 4 {
			return ""
		}
		return IPv4String(data)

	case InetAddressIPv6:
		if len(data) < 16 {
			return ""
		}
		return IPv6String(data)

	case Str32:
		if len(data) < 32 {
			return ""
		}
		if i := bytes.IndexByte(data[:32], 0); i >= 0 {
			return string(data[:i])
		}
		return string(data[:32])

	case Octet:
		if len(data) < 1 {
			return ""
		}
		return fmt.Sprintf("0x%02x", data[0])

	default:
		return "unknown type"
	}
}

// IPv4String renders the first 4 bytes of addr in dotted-quad form.
func IPv4String(addr []byte) string {
	return fmt.Sprintf("%d.%d.%d.%d", addr[0], addr[1], addr[2], addr[3])
}

// IPv6String renders the first 16 bytes of addr as lowercase colon-
// separated hextets with canonical zero-run compression: the longest
// run of two or more zero hextets collapses to "::", ties break
// leftmost, and a lone zero hextet is never compressed.
func IPv6String(addr []byte) string {
	var hextets [8]uint16
	for i := range hextets {
		hextets[i] = binary.BigEndian.Uint16(addr[2*i:])
	}

	best, bestLen := -1, 1
	for i := 0; i < 8; {
		if hextets[i] != 0 {
			i++
			continue
		}
		j := i
		for j < 8 && hextets[j] == 0 {
			j++
		}
		if j-i > bestLen {
			best, bestLen = i, j-i
		}
		i = j
	}

	var sb strings.Builder
	for i := 0; i < 8; {
		if i == best {
			sb.WriteString("::")
			i += bestLen
			continue
		}
		sb.WriteString(strconv.FormatUint(uint64(hextets[i]), 16))
		i++
		if i < 8 && i != best {
			sb.WriteByte(':')
		}
	}
	return sb.String()
}
