// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package snaplogcat defines the logic for the "snaplogcat" tool.
//
// snaplogcat dumps a snaplog as text: the embedded catalogue, the
// logged connection, and every snapshot record rendered variable by
// variable. It can optionally render counter deltas between
// consecutive records instead of raw values.
package snaplogcat

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/m-lab/web100/schema"
	"github.com/m-lab/web100/snaplog"
	"github.com/m-lab/web100/snapshot"
	"github.com/m-lab/web100/support/logging"
	"github.com/m-lab/web100/vartype"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
)

var (
	deltas = flag.Bool("deltas", false,
		"Render integer variables as deltas between consecutive records.")
	maxRecords = flag.Int("max-records", 0,
		"Stop after this many records. 0 dumps them all.")
	verbose = flag.Bool("verbose", false,
		"Enable debug logging.")
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	nameColor   = color.New(color.FgGreen)
)

// Main is the main entry point.
func Main() {
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <snaplog>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := dump(log, flag.Arg(0)); err != nil {
		log.WithError(err).Fatal("Failed to dump snaplog.")
	}
}

func dump(log *logrus.Logger, path string) error {
	r, err := snaplog.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = r.Close()
	}()
	r.Agent().SetWarningLogger(logging.Logrus(log))

	headerColor.Printf("# %s\n", path)
	fmt.Printf("version:    %s\n", r.Agent().Version())
	fmt.Printf("group:      %s (%d bytes, %d variables)\n",
		r.Group().Name(), r.Group().Size(), r.Group().NumVars())
	fmt.Printf("created:    %s\n", r.Created().UTC().Format(time.RFC3339))
	fmt.Printf("connection: %s\n", r.Connection())

	cur, err := r.NewSnapshot()
	if err != nil {
		return err
	}
	prev, err := r.NewSnapshot()
	if err != nil {
		return err
	}

	count := 0
	for {
		if err := r.Next(cur); err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		count++

		fmt.Println()
		headerColor.Printf("-- snapshot %d --\n", count)
		if err := dumpRecord(r.Group(), cur, prev, count > 1); err != nil {
			return err
		}

		if err := prev.CopyFrom(cur); err != nil {
			return err
		}
		if *maxRecords > 0 && count >= *maxRecords {
			break
		}
	}

	log.Debugf("Dumped %d record(s) from %s.", count, path)
	return nil
}

func dumpRecord(g *schema.Group, cur, prev *snapshot.S, havePrev bool) error {
	for _, v := range g.Vars() {
		raw, err := cur.Read(v)
		if err != nil {
			return err
		}

		text := vartype.Render(v.Type(), raw)
		if *deltas && havePrev && isIntegerType(v.Type()) {
			d, err := snapshot.Delta(v, cur, prev)
			if err != nil {
				return err
			}
			text = fmt.Sprintf("%s (+%s)", text, vartype.Render(v.Type(), d))
		}

		nameColor.Printf("%-32s", v.Name())
		fmt.Printf(" %s\n", text)
	}
	return nil
}

// isIntegerType reports whether t's values subtract meaningfully.
// Addresses and strings share integer widths but do not.
func isIntegerType(t vartype.T) bool {
	switch t {
	case vartype.Integer, vartype.Integer32, vartype.Counter32, vartype.Gauge32,
		vartype.Unsigned32, vartype.TimeTicks, vartype.Counter64,
		vartype.InetPortNumber, vartype.Octet:
		return true
	default:
		return false
	}
}
