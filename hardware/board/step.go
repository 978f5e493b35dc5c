// This source is part of a cycle-accurate handheld simulator core.
//
// It is free software: you can redistribute it and/or modify it under the
// terms of the GNU General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any
// later version.

package board

// psPerCycle is how many picoseconds one CPU clock cycle takes at the
// Arduboy's fixed 16MHz clock.
const psPerCycle = 1_000_000_000_000 / clockHz

// cycle steps every component exactly one clock cycle: the CPU either
// burns down an in-flight instruction or dispatches a new one, then SPI
// and the display advance in that fixed order, then pending interrupts
// are serviced. The profiler is fed whenever a new instruction was
// actually dispatched this cycle; separately, while ProfilerEnabled is
// set, a with-sleep and a without-sleep cycle counter are kept so frame
// CPU usage can be derived from their ratio.
func (b *Board) cycle() error {
	sleptBefore := b.CPU.Sleeping
	if err := b.CPU.AdvanceCycle(b, b, b.stepPeripherals); err != nil {
		return err
	}
	if b.CPU.DispatchedThisCycle {
		b.Profiler.Record(b.CPU.LastDispatchAddr, uint64(b.CPU.LastDispatchCycles))
	}
	if b.ProfilerEnabled {
		b.frameCyclesTotal++
		if !sleptBefore {
			b.frameCyclesNonSleep++
		}
	}
	return nil
}

func (b *Board) stepPeripherals() {
	wasSelected := b.SPI.DisplaySelected()
	wasDataMode := b.SPI.DataCommand()
	wasDone := b.SPI.TransferComplete()
	b.SPI.Step()
	if b.SPI.TransferComplete() && !wasDone && wasSelected && wasDataMode {
		b.countDisplayFrameByte()
	}
	b.eepromStep()
	b.Display.Advance(psPerCycle)

	if b.Display.TookVsyncPulse() {
		b.onFrameBoundary()
	}

	if b.EnableStackBreak && b.CPU.SP < b.StackFloor {
		b.Paused = true
	}
}

// countDisplayFrameByte counts one display pixel-data byte against the
// firmware's declared frame size; reaching it emits a synthetic vsync for
// firmware whose logical frame boundary doesn't land on the physical
// panel's own row-refresh cadence.
func (b *Board) countDisplayFrameByte() {
	if b.FrameBytesTotal <= 0 {
		return
	}
	b.displayBytesThisFrame++
	if b.displayBytesThisFrame >= b.FrameBytesTotal {
		b.displayBytesThisFrame = 0
		b.onFrameBoundary()
	}
}

// onFrameBoundary closes out one frame's usage sample: the fraction of
// this frame's cycles spent with the CPU awake, against the total
// (awake-or-sleeping) cycles elapsed since the previous boundary.
func (b *Board) onFrameBoundary() {
	usage := float32(0)
	if b.frameCyclesTotal > 0 {
		usage = float32(b.frameCyclesNonSleep) / float32(b.frameCyclesTotal)
	}
	b.recordFrameUsage(usage)
	b.frameCyclesTotal = 0
	b.frameCyclesNonSleep = 0
}

// recordFrameUsage appends one sample to the CPU-usage history, evicting
// the oldest half of the buffer in one slice operation once it fills
// rather than shifting one sample at a time.
func (b *Board) recordFrameUsage(usage float32) {
	if len(b.frameCPUUsage) >= maxFrameHistory {
		b.frameCPUUsage = append(b.frameCPUUsage[:0], b.frameCPUUsage[frameHistoryEvict:]...)
	}
	b.frameCPUUsage = append(b.frameCPUUsage, usage)
}

// FrameCPUUsage returns the recorded per-frame usage history.
func (b *Board) FrameCPUUsage() []float32 { return b.frameCPUUsage }

// AdvanceInstr runs cycles until exactly one more instruction has been
// dispatched (as opposed to AdvanceCycle's single clock tick), stopping
// early if the newly-dispatched instruction's address is a breakpoint, a
// pending single-step target, or a read/write/stack-overflow condition
// raised mid-instruction.
func (b *Board) AdvanceInstr() (hitBreakpoint bool, err error) {
	b.Paused = false
	for {
		if err := b.cycle(); err != nil {
			return false, err
		}
		if b.Paused {
			return true, nil
		}
		if b.CPU.DispatchedThisCycle {
			if b.hitsExecuteCondition() {
				b.Paused = true
				return true, nil
			}
			return false, nil
		}
	}
}

// PSBuffer is the smallest picosecond quantum Advance will spend; a
// remaining budget below this is simply carried into psRem rather than
// spent on a partial cycle.
const PSBuffer = psPerCycle

// Advance runs the board for approximately ps picoseconds of simulated
// time, in whole-cycle increments, stopping early on a breakpoint, a
// single-step target, or a stack-overflow hit. Any budget left over after
// the last whole cycle is carried into psRem so that repeated short calls
// don't lose time to truncation. At the end of the call, any save-data
// change accumulated this call is already reflected in SavedataDirty; the
// caller decides whether to actually flush.
func (b *Board) Advance(ps int64) (hitBreakpoint bool, err error) {
	b.Paused = false
	budget := ps + b.psRem
	for budget >= PSBuffer {
		if err := b.cycle(); err != nil {
			return false, err
		}
		budget -= psPerCycle
		if b.Paused {
			b.psRem = budget
			return true, nil
		}
		if b.CPU.DispatchedThisCycle && b.hitsExecuteCondition() {
			b.Paused = true
			b.psRem = budget
			return true, nil
		}
	}
	b.psRem = budget
	return false, nil
}

// hitsExecuteCondition reports whether the instruction just dispatched is
// an execute breakpoint or the pending single-step target.
func (b *Board) hitsExecuteCondition() bool {
	if b.Breakpoints[b.CPU.LastDispatchAddr] {
		return true
	}
	if b.StepTargetSet && b.CPU.LastDispatchAddr == b.StepTarget {
		b.StepTargetSet = false
		return true
	}
	return false
}
