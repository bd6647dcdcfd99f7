// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package snaplog

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	recordsWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "web100_snaplog_records_written",
		Help: "Count of snapshot records written to snaplogs.",
	})

	recordsRead = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "web100_snaplog_records_read",
		Help: "Count of snapshot records replayed from snaplogs.",
	})

	replayErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "web100_snaplog_replay_errors",
		Help: "Count of snaplog replay failures encountered.",
	}, []string{"type"})
)

// RegisterMonitoring registers all of this package's monitoring metrics.
func RegisterMonitoring(reg prometheus.Registerer) {
	reg.MustRegister(
		recordsWritten,
		recordsRead,
		replayErrors,
	)
}
