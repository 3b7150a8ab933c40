// Package rtos is a Go port of a small preemptive, fixed-priority,
// round-robin real-time kernel originally written for an 8-bit AVR
// microcontroller.
//
// The original relies on three things Go cannot give a portable program:
// a byte-exact stack frame it can splice pointers into, inline assembly
// for context save/restore, and a timer-compare interrupt that can
// preempt a busy CPU mid-instruction. This port keeps every data
// structure and algorithm byte-for-byte faithful where that is possible
// (frame.go, tcb.go, scheduler.go) and resolves the rest onto goroutines
// and channels: each task runs on its own goroutine, parked on an
// unbuffered channel until the scheduler wakes it, which is the
// idiomatic Go equivalent of "this task is not currently the one holding
// the CPU". See DESIGN.md for the full rationale and grounding for every
// piece.
package rtos
