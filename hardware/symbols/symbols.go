// This source is part of a cycle-accurate handheld simulator core.
//
// It is free software: you can redistribute it and/or modify it under the
// terms of the GNU General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any
// later version.

// Package symbols holds the external symbol table produced by the
// firmware's linker (typically read from an ELF's symbol table by a
// caller outside this module) so the profiler can attribute cycle counts
// to function names instead of bare addresses.
package symbols

import "sort"

// Symbol describes one named range in the firmware's address space.
type Symbol struct {
	Addr   uint32
	Size   uint32
	Name   string
	Weak   bool
	NoType bool
	Object bool
}

// Table is a read-only, address-sorted view over a symbol set.
type Table struct {
	syms []Symbol
}

// NewTable builds a Table from an unordered symbol slice.
func NewTable(syms []Symbol) *Table {
	cp := make([]Symbol, len(syms))
	copy(cp, syms)
	sort.Slice(cp, func(i, j int) bool { return cp[i].Addr < cp[j].Addr })
	return &Table{syms: cp}
}

// Lookup returns the symbol whose range contains addr, if any.
func (t *Table) Lookup(addr uint32) (Symbol, bool) {
	i := sort.Search(len(t.syms), func(i int) bool { return t.syms[i].Addr+t.syms[i].Size > addr })
	if i < len(t.syms) && t.syms[i].Addr <= addr {
		return t.syms[i], true
	}
	return Symbol{}, false
}

// All returns every symbol in address order.
func (t *Table) All() []Symbol { return t.syms }
