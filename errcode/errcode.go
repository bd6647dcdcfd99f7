// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package errcode defines the error taxonomy shared by the schema,
// snapshot, and snaplog packages.
//
// Failures are returned as an Errno constant, usually wrapped with
// context via github.com/pkg/errors. Callers classify a failure with
// Is, which unwraps to the root cause before comparing.
package errcode

import (
	"github.com/pkg/errors"
)

// Errno identifies one kind of failure.
type Errno int

// The failure kinds. Success is the zero value and is never returned
// as an error.
const (
	Success Errno = iota
	File
	AgentType
	NoMem
	NoConnection
	Inval
	Header
	NoVar
	NoGroup
	Sock
	KernVer
	FileTruncatedSnapData
	LogHeader
	MissingSnapMagic
	EndOfHeader
)

var errText = [...]string{
	Success:               "success",
	File:                  "file read/write error",
	AgentType:             "unsupported agent type",
	NoMem:                 "no memory",
	NoConnection:          "connection not found",
	Inval:                 "invalid arguments",
	Header:                "could not parse header",
	NoVar:                 "variable not found",
	NoGroup:               "group not found",
	Sock:                  "socket operation failed",
	KernVer:               "unexpected error due to kernel version mismatch",
	FileTruncatedSnapData: "truncated snapshot data",
	LogHeader:             "could not write log header",
	MissingSnapMagic:      "missing snapshot magic",
	EndOfHeader:           "missing end of header",
}

var _ error = Success

func (e Errno) Error() string {
	if e < 0 || int(e) >= len(errText) {
		return "unknown error"
	}
	return errText[e]
}

// Is reports whether err's root cause is the failure kind code.
func Is(err error, code Errno) bool {
	e, ok := errors.Cause(err).(Errno)
	return ok && e == code
}

// Of returns the failure kind carried by err. If err does not carry
// one, Of returns (Success, false).
func Of(err error) (Errno, bool) {
	e, ok := errors.Cause(err).(Errno)
	return e, ok
}
