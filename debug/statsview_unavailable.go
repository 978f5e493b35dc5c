// This source is part of a cycle-accurate handheld simulator core.
//
// It is free software: you can redistribute it and/or modify it under the
// terms of the GNU General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any
// later version.

//go:build !statsview

package debug

import "io"

// Launch is a no-op in builds without the statsview tag.
func Launch(output io.Writer) {}

// Available reports whether this build includes statsview support.
func Available() bool { return false }
