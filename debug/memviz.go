// This source is part of a cycle-accurate handheld simulator core.
//
// It is free software: you can redistribute it and/or modify it under the
// terms of the GNU General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any
// later version.

//go:build memviz

package debug

import (
	"io"

	"github.com/bradleyjkemp/memviz"
)

// DumpGraph writes a Graphviz rendering of v's object graph to output; it
// is meant for one-off debugging of a Board's reference structure
// (timer <-> bus <-> core wiring), not for anything the simulator itself
// calls during normal operation.
func DumpGraph(output io.Writer, v interface{}) {
	memviz.Map(output, v)
}
