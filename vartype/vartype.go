// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package vartype maps instrumentation field types to their wire widths
// and renders raw field values as text.
//
// A field value is a little-endian byte region of exactly Width bytes
// inside a group's raw buffer; this package never interprets more than
// those bytes.
package vartype

import (
	"fmt"
)

// T is a field type tag from an instrumentation schema.
type T int

// The type tags, in schema numbering order.
const (
	Integer T = iota
	Integer32
	InetAddressIPv4
	Counter32
	Gauge32
	Unsigned32
	TimeTicks
	Counter64
	InetAddress
	InetPortNumber
	InetAddressIPv6
	Str32
	Octet
)

// Aliases retained from older schema revisions.
const (
	IPAddress  = InetAddressIPv4
	Unsigned16 = InetPortNumber
)

// Width returns the size in bytes of a value of type t.
//
// Unrecognized type tags report width 0; the schema parser discards
// such fields.
func (t T) Width() int {
	switch t {
	case Integer, Integer32, InetAddressIPv4, Counter32, Gauge32, Unsigned32, TimeTicks:
		return 4
	case Counter64:
		return 8
	case InetAddress, InetAddressIPv6:
		// 16 address bytes plus a trailing AddrType discriminator.
		return 17
	case InetPortNumber:
		return 2
	case Str32:
		return 32
	case Octet:
		return 1
	default:
		return 0
	}
}

func (t T) String() string {
	switch t {
	case Integer:
		return "INTEGER"
	case Integer32:
		return "INTEGER32"
	case InetAddressIPv4:
		return "INET_ADDRESS_IPV4"
	case Counter32:
		return "COUNTER32"
	case Gauge32:
		return "GAUGE32"
	case Unsigned32:
		return "UNSIGNED32"
	case TimeTicks:
		return "TIME_TICKS"
	case Counter64:
		return "COUNTER64"
	case InetAddress:
		return "INET_ADDRESS"
	case InetPortNumber:
		return "INET_PORT_NUMBER"
	case InetAddressIPv6:
		return "INET_ADDRESS_IPV6"
	case Str32:
		return "STR32"
	case Octet:
		return "OCTET"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(t))
	}
}

// AddrType is the address-family discriminator carried in the final
// byte of a generic InetAddress value.
type AddrType int

// Known discriminator values.
const (
	AddrTypeUnknown AddrType = 0
	AddrTypeIPv4    AddrType = 1
	AddrTypeIPv6    AddrType = 2
	AddrTypeDNS     AddrType = 16
)

func (a AddrType) String() string {
	switch a {
	case AddrTypeUnknown:
		return "UNKNOWN"
	case AddrTypeIPv4:
		return "IPV4"
	case AddrTypeIPv6:
		return "IPV6"
	case AddrTypeDNS:
		return "DNS"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(a))
	}
}
