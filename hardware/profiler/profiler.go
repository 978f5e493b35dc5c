// This source is part of a cycle-accurate handheld simulator core.
//
// It is free software: you can redistribute it and/or modify it under the
// terms of the GNU General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any
// later version.

// Package profiler accumulates per-instruction cycle counts while a core
// runs and, on demand, reconstructs two different views over them: symbol
// hotspots (cycle totals summed over the linker's named ranges) and
// synthetic hotspots (a heuristic reconstruction of basic-block boundaries
// for firmware with no symbol table at all).
package profiler

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/avrsim/core/hardware/decode"
	"github.com/avrsim/core/hardware/symbols"
)

// Profiler owns one cycle counter per decoded word address.
type Profiler struct {
	Cycles []uint64
}

// New allocates a Profiler sized to numWords program words.
func New(numWords int) *Profiler {
	return &Profiler{Cycles: make([]uint64, numWords)}
}

// Record adds n cycles to the counter for the instruction at word address
// addr. The board calls this once per dispatched instruction.
func (p *Profiler) Record(wordAddr uint16, n uint64) {
	if int(wordAddr) < len(p.Cycles) {
		p.Cycles[wordAddr] += n
	}
}

// Reset zeroes every counter without reallocating.
func (p *Profiler) Reset() {
	for i := range p.Cycles {
		p.Cycles[i] = 0
	}
}

// Hotspot is one named or synthetic range of the profile.
type Hotspot struct {
	Name       string
	StartWord  uint16
	EndWord    uint16
	Cycles     uint64
}

// Views bundles the two hotspot reconstructions computed from one snapshot
// of the cycle counters.
type Views struct {
	Symbol    []Hotspot
	Synthetic []Hotspot
}

// BuildViews computes the symbol-hotspot and synthetic-hotspot views
// concurrently: they read the same Cycles slice but never mutate it, and
// the synthetic reconstruction also needs the decoded program, so the two
// passes are independent enough to run as a fan-out via errgroup rather
// than sequentially.
func (p *Profiler) BuildViews(ctx context.Context, syms *symbols.Table, program []decode.Instruction) (Views, error) {
	var v Views
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		v.Symbol = p.symbolHotspots(syms)
		return nil
	})
	g.Go(func() error {
		v.Synthetic = p.syntheticHotspots(program)
		return nil
	})

	if err := g.Wait(); err != nil {
		return Views{}, err
	}
	return v, nil
}

// symbolHotspots sums counts over every non-weak, non-object, sized
// function symbol's word range, dropping symbols with no size, weak or
// object-typed symbols (they aren't functions), and entries whose summed
// count is zero.
func (p *Profiler) symbolHotspots(syms *symbols.Table) []Hotspot {
	if syms == nil {
		return nil
	}
	out := make([]Hotspot, 0, len(syms.All()))
	for _, s := range syms.All() {
		if s.Weak || s.Object || s.NoType || s.Size == 0 {
			continue
		}
		startWord := uint16(s.Addr / 2)
		endWord := uint16((s.Addr + s.Size) / 2)
		var total uint64
		for w := startWord; w < endWord && int(w) < len(p.Cycles); w++ {
			total += p.Cycles[w]
		}
		if total == 0 {
			continue
		}
		out = append(out, Hotspot{Name: s.Name, StartWord: startWord, EndWord: endWord, Cycles: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cycles > out[j].Cycles })
	return out
}

// lowCountDivisor trims a synthetic hotspot's low-traffic prefix/suffix:
// any run of instructions whose count is at or below total/256 is peeled off the
// edges of a candidate block before it is reported.
const lowCountDivisor = 256

// zeroRunSplit is how many consecutive zero-count instructions inside a
// candidate block force it to be split into two hotspots; a long run of
// untouched instructions usually means two unrelated routines got merged
// by the call/branch heuristic below.
const zeroRunSplit = 4

// syntheticHotspots reconstructs approximate basic-block boundaries from
// control flow alone, for firmware compiled without a symbol table: word
// 0, the instruction after a CALL/RCALL/ICALL, a JMP/RJMP target, and both
// the target and the fall-through of a BRBS/BRBC each start a new block.
func (p *Profiler) syntheticHotspots(program []decode.Instruction) []Hotspot {
	if len(program) == 0 {
		return nil
	}

	blockStart := make(map[uint16]bool)
	blockStart[0] = true
	for addr, instr := range program {
		w := uint16(addr)
		switch instr.Op {
		case decode.Call, decode.Rcall, decode.Icall:
			next := w + 1
			if decode.IsTwoWords(instr) {
				next = w + 2
			}
			blockStart[next] = true
		case decode.Jmp:
			blockStart[instr.Word] = true
		case decode.Rjmp:
			blockStart[w+1+instr.Word] = true
		case decode.Brbs, decode.Brbc:
			blockStart[w+1+instr.Word] = true
			blockStart[w+1] = true
		}
	}

	starts := make([]uint16, 0, len(blockStart))
	for w := range blockStart {
		starts = append(starts, w)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	var out []Hotspot
	for i, start := range starts {
		end := uint16(len(program))
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		out = append(out, p.trimAndSplit(start, end)...)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Cycles > out[j].Cycles })
	return out
}

func (p *Profiler) trimAndSplit(start, end uint16) []Hotspot {
	if end <= start {
		return nil
	}

	var total uint64
	for w := start; w < end; w++ {
		total += p.Cycles[w]
	}
	threshold := total / lowCountDivisor

	for start < end && p.Cycles[start] <= threshold {
		start++
	}
	for end > start && p.Cycles[end-1] <= threshold {
		end--
	}
	if start >= end {
		return nil
	}

	var out []Hotspot
	segStart := start
	zeroRun := 0
	for w := start; w < end; w++ {
		if p.Cycles[w] == 0 {
			zeroRun++
		} else {
			zeroRun = 0
		}
		if zeroRun >= zeroRunSplit {
			splitEnd := w - uint16(zeroRun) + 1
			if splitEnd > segStart {
				out = append(out, p.sumRange(segStart, splitEnd))
			}
			segStart = w + 1
			zeroRun = 0
		}
	}
	if segStart < end {
		out = append(out, p.sumRange(segStart, end))
	}
	return out
}

func (p *Profiler) sumRange(start, end uint16) Hotspot {
	var total uint64
	for w := start; w < end; w++ {
		total += p.Cycles[w]
	}
	return Hotspot{StartWord: start, EndWord: end, Cycles: total}
}
