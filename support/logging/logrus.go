// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package logging

import (
	"github.com/sirupsen/logrus"
)

// Logrus returns an L backed by the supplied logrus logger or entry.
//
// logrus.FieldLogger already satisfies L structurally; this wrapper
// exists so callers don't depend on that coincidence.
func Logrus(l logrus.FieldLogger) L {
	return Must(l)
}
