package rtos

// maxNameLength bounds task names, matching TASK_NAME_MAX_LENGTH in the
// source this kernel is ported from.
const maxNameLength = 16

// idlePriority is the sentinel priority held only by the idle task: one
// past the maximum value a uint8 user priority can take.
const idlePriority = 256

// Status is the task state, encoded as distinct single-bit flags the way
// the AVR source does it (STATUS_DELAYED/SUSPENDED/READY/RUNNING). A
// flag encoding rather than a tagged enum is an accident of the original
// C, not load-bearing here, but it is kept because callers and tests
// reason about it in exactly those bitwise terms.
type Status uint8

const (
	StatusDelayed Status = 1 << iota
	StatusSuspended
	StatusReady
	StatusRunning
)

// String renders a Status for logs and test failure messages.
func (s Status) String() string {
	switch s {
	case StatusDelayed:
		return "delayed"
	case StatusSuspended:
		return "suspended"
	case StatusReady:
		return "ready"
	case StatusRunning:
		return "running"
	default:
		return "unknown"
	}
}

// TaskFunc is a task's entry point. It is expected to never return: real
// tasks loop forever, periodically calling a Kernel method (DelayTask,
// SuspendTask, ResumeTask, SetTaskPriority) to yield the CPU. A TaskFunc
// that returns is treated the same as one that calls SuspendTask forever
// (see runTask in scheduler.go).
type TaskFunc func(k *Kernel, self *TCB)

// TCB is the task control block. In the AVR source the stack pointer is
// conceptually the first field, letting the original dereference a TCB
// as a pointer to its own first field; Go gives no byte-exact
// struct-layout guarantee to exploit that trick, so this port keeps the
// same contract by routing every context switch through sp/ram instead
// of ever reading a TCB as raw bytes.
type TCB struct {
	sp  uint16 // saved top-of-stack in ram while this task is not running
	ram *RAM   // the single arena every TCB and task stack is carved from

	next *TCB

	delayUnits uint16
	entry      TaskFunc
	name       string
	priority   uint16
	status     Status

	// Regs/SR are the task's application-visible register file: its own
	// code may read and write Regs between kernel calls, and
	// SaveContext/RestoreContext carry it through the arena on every
	// context switch exactly like a real register file would survive a
	// preemption, which is what makes "my registers survived being
	// preempted and resumed" concretely testable.
	Regs [regCount]uint8
	SR   uint8

	// cont is the Go-native realization of "restore this task's saved
	// context": the scheduler hands control to a task by sending on its
	// cont channel, and a descheduled task parks by receiving from it.
	// Unbuffered, so a send only completes once the receiving goroutine
	// has actually resumed — see wake and park in scheduler.go.
	cont chan struct{}

	runs uint64 // times this task has been selected Running; diagnostics only
}

// Name returns the task's bounded name.
func (t *TCB) Name() string { return t.name }

// Priority returns the task's current priority (lower is more urgent).
func (t *TCB) Priority() uint16 { return t.priority }

// Status returns the task's current status.
func (t *TCB) Status() Status { return t.status }

// Runs returns the number of times this task has been scheduled Running.
func (t *TCB) Runs() uint64 { return t.runs }

func boundName(name string) string {
	if len(name) > maxNameLength {
		return name[:maxNameLength]
	}
	return name
}

// taskList is the singly-linked, null-terminated list of every created
// task, rooted at head with a cached tail. All mutation here is only
// ever called while the owning Kernel's mutex is held.
type taskList struct {
	head *TCB
	tail *TCB
}

// len counts the tasks currently enlisted, by walking the list.
func (l *taskList) len() int {
	n := 0
	for t := l.head; t != nil; t = t.next {
		n++
	}
	return n
}

// find does a linear, bounded-name scan for name.
func (l *taskList) find(name string) *TCB {
	name = boundName(name)
	for t := l.head; t != nil; t = t.next {
		if t.name == name {
			return t
		}
	}
	return nil
}

// prepend inserts t at the head of the list. Used by CreateTask, which
// always prepends newly created tasks.
func (l *taskList) prepend(t *TCB) {
	t.next = l.head
	l.head = t
	if l.tail == nil {
		l.tail = t
	}
}

// spliceToTail unlinks t (whose predecessor is prev, or nil if t is the
// head) and re-appends it after the cached tail. It is a no-op if t is
// already the tail. Used by the scheduler's round-robin rotation: the
// task just scheduled moves to the back of the line.
func (l *taskList) spliceToTail(prev, t *TCB) {
	if t.next == nil {
		return // already the tail
	}
	if prev == nil {
		l.head = t.next
	} else {
		prev.next = t.next
	}
	t.next = nil
	l.tail.next = t
	l.tail = t
}
