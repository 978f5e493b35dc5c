// This source is part of a cycle-accurate handheld simulator core.
//
// It is free software: you can redistribute it and/or modify it under the
// terms of the GNU General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any
// later version.

//go:build !memviz

package debug

import "io"

// DumpGraph is a no-op in builds without the memviz tag.
func DumpGraph(output io.Writer, v interface{}) {}
