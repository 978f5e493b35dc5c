// This source is part of a cycle-accurate handheld simulator core.
//
// It is free software: you can redistribute it and/or modify it under the
// terms of the GNU General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any
// later version.
//
// It is distributed in the hope that it will be useful, but WITHOUT ANY
// WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS
// FOR A PARTICULAR PURPOSE. See the GNU General Public License for more
// details.

// Package logger implements a small central, in-memory log for the
// simulator core. Peripherals and the CPU log unusual but non-fatal
// conditions (unknown or unimplemented opcodes, unknown FX flash commands,
// unhandled display commands) here rather than returning errors that would
// have to propagate across a cycle boundary.
package logger

import "io"

// Permission implementations indicate whether the caller is allowed to add
// entries to the central log. Most callers should just pass Allow.
type Permission interface {
	AllowLogging() bool
}

type allow struct{}

func (allow) AllowLogging() bool { return true }

// Allow is a Permission that always allows logging.
var Allow Permission = allow{}

// maxCentral bounds memory use of the central log.
const maxCentral = 512

var central = newLogger(maxCentral)

// Log adds an entry to the central logger.
func Log(perm Permission, tag, detail string) {
	if perm == Allow || perm.AllowLogging() {
		central.log(tag, detail)
	}
}

// Logf adds a formatted entry to the central logger.
func Logf(perm Permission, tag, detail string, args ...interface{}) {
	if perm == Allow || perm.AllowLogging() {
		central.logf(tag, detail, args...)
	}
}

// Clear removes all entries from the central logger.
func Clear() {
	central.clear()
}

// Write dumps the contents of the central logger to output.
func Write(output io.Writer) {
	central.write(output)
}

// Tail writes the last number entries to output.
func Tail(output io.Writer, number int) {
	central.tail(output, number)
}

// SetEcho causes every new log entry to also be written to output as it is
// added. Passing a nil output disables echoing.
func SetEcho(output io.Writer) {
	central.setEcho(output)
}
