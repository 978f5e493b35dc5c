// This source is part of a cycle-accurate handheld simulator core.
//
// It is free software: you can redistribute it and/or modify it under the
// terms of the GNU General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any
// later version.

//go:build statsview

// Package debug provides optional, build-tag-gated tooling for inspecting
// a running simulation: a live runtime-stats dashboard and a one-shot
// object-graph dump, neither of which the core depends on to function.
package debug

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

const statsviewAddr = "localhost:12700"

// Launch starts the statsview HTTP dashboard in the background and writes
// its URL to output.
func Launch(output io.Writer) {
	viewer.SetConfiguration(viewer.WithAddr(statsviewAddr))
	go statsview.New().Start()
	fmt.Fprintf(output, "statsview available at http://%s/debug/statsview\n", statsviewAddr)
}

// Available reports whether this build includes statsview support.
func Available() bool { return true }
