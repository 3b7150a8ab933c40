package rtos

// pickNext implements the scheduler's selection algorithm as a pure
// function over the task list: no goroutines, no locking, so it can be
// unit-tested directly against the priority-dominance and round-robin
// fairness properties the scheduler is expected to uphold.
//
// It returns the chosen TCB and its predecessor in the list (nil if the
// chosen TCB is the head), so the caller can splice it to the tail.
func pickNext(list *taskList) (chosen, chosenPrev *TCB) {
	var prev *TCB
	for t := list.head; t != nil; t = t.next {
		if t.status == StatusReady {
			if chosen == nil || t.priority < chosen.priority {
				chosen, chosenPrev = t, prev
			}
		}
		prev = t
	}
	return chosen, chosenPrev
}

// selectNextLocked runs pickNext, then performs the round-robin rotation: the
// chosen task, if it has a successor, is unlinked and re-appended at the
// tail. Caller must hold k.mu.
func (k *Kernel) selectNextLocked() *TCB {
	if k.current != nil && k.current.status == StatusRunning {
		k.current.status = StatusReady
	}

	chosen, prev := pickNext(&k.list)
	if chosen == nil {
		// Unreachable in a correctly initialized kernel: the idle task
		// is always Ready or Running.
		panic("rtos: no ready task found; idle task missing or corrupted")
	}

	k.list.spliceToTail(prev, chosen)

	chosen.status = StatusRunning
	chosen.runs++
	k.current = chosen
	return chosen
}

// rescheduleLocked is the Go realization of "SaveContext": it persists
// the outgoing task's register file into the arena at its saved stack
// pointer, scrambles the live copy (so a later restore is the only way
// the original values come back — see TCB.Regs doc comment), selects the
// next task, and restores its register file. It returns
// the newly chosen TCB without performing the goroutine handoff, so that
// callers who must not block the calling goroutine on someone else's
// cont channel (the tick driver, in tick.go) can still drive a
// scheduling decision. Caller must hold k.mu; mu is released before
// return.
func (k *Kernel) rescheduleLocked(self *TCB) *TCB {
	self.sp = SaveContext(k.ram, self.sp, Frame{Status: self.SR, Regs: self.Regs})
	scrambleRegs(&self.Regs)

	next := k.selectNextLocked()

	frame, sp := RestoreContext(k.ram, next.sp)
	next.sp = sp
	next.Regs = frame.Regs
	next.SR = frame.Status

	k.log.WithFields(map[string]any{"from": self.name, "to": next.name}).Debug("scheduled")
	k.mu.Unlock()
	return next
}

// saveAndScheduleLocked is the form every kernel API call (DelayTask,
// SuspendTask, ResumeTask, SetTaskPriority) uses: it is only ever safe to
// call from the task's own goroutine, since it parks that goroutine when
// a different task is chosen. Caller must hold k.mu.
func (k *Kernel) saveAndScheduleLocked(self *TCB) {
	next := k.rescheduleLocked(self)
	if next == self {
		return
	}
	wake(next)
	park(self)
}

// scrambleRegs overwrites a register file with a fixed, recognizable
// non-zero pattern. It models another task's execution reusing the same
// physical registers while this one is not running, so that a test
// asserting "my registers survived a preemption" is actually exercising
// RestoreContext rather than observing a value that was simply never
// touched.
func scrambleRegs(regs *[regCount]uint8) {
	for i := range regs {
		regs[i] = 0xAA
	}
}

// wake hands control to t by sending on its cont channel. Because cont
// is unbuffered, this blocks until t's goroutine is actually parked
// waiting to receive — i.e. until the handoff has truly happened, not
// merely been queued.
func wake(t *TCB) {
	t.cont <- struct{}{}
}

// park blocks the calling goroutine (running as task t) until some
// future scheduling decision wakes it again.
func park(t *TCB) {
	<-t.cont
}

// runTask is the goroutine body Start launches for every created task.
// It waits to be first scheduled, then runs the task's entry point. A
// TaskFunc that returns is treated like an implicit, permanent
// SuspendTask: the goroutine parks forever rather than leaving a phantom
// Running task with nothing backing it.
func runTask(k *Kernel, t *TCB) {
	park(t)
	t.entry(k, t)
	for {
		k.mu.Lock()
		t.status = StatusSuspended
		k.saveAndScheduleLocked(t)
	}
}
