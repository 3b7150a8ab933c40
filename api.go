package rtos

import "github.com/sirupsen/logrus"

// createTaskLocked does the actual carve-and-enlist work shared by
// CreateTask and Init's idle-task creation. Caller must hold k.mu.
func (k *Kernel) createTaskLocked(name string, priority uint16, entry TaskFunc) (*TCB, error) {
	name = boundName(name)
	if k.list.find(name) != nil {
		return nil, ErrDuplicateName
	}

	stackTop, ok := k.carveLocked()
	if !ok {
		k.log.WithField("name", name).Warn("stack area exhausted")
		return nil, ErrArenaExhausted
	}

	t := &TCB{
		ram:      k.ram,
		entry:    entry,
		name:     name,
		priority: priority,
		status:   StatusReady,
		cont:     make(chan struct{}),
	}
	t.sp = BuildInitialFrame(k.ram, stackTop, entry)

	k.list.prepend(t)
	return t, nil
}

// CreateTask creates a new task, ready to run once Start is called. It
// returns ErrDuplicateName if a task with that name already exists,
// ErrArenaExhausted if the arena has no room for another task region, or
// ErrInvalidPriority if priority is at or beyond the idle task's sentinel
// value (idlePriority).
//
// CreateTask MUST NOT be called after Start: the stack-area cursor is
// not synchronized against a running scheduler. A call made after Start
// creates nothing and returns ErrArenaExhausted.
func (k *Kernel) CreateTask(name string, priority uint16, entry TaskFunc) (*TCB, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.started {
		k.log.Error("CreateTask called after Start; rejecting")
		return nil, ErrArenaExhausted
	}
	if priority >= idlePriority {
		k.log.WithField("name", name).Error("priority at or beyond the idle sentinel; rejecting")
		return nil, ErrInvalidPriority
	}

	t, err := k.createTaskLocked(name, priority, entry)
	if err != nil {
		return nil, err
	}
	k.log.WithFields(logrus.Fields{"name": name, "priority": priority}).Info("task created")
	return t, nil
}

// GetTaskByName returns the task with the given name, or nil.
func (k *Kernel) GetTaskByName(name string) *TCB {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.list.find(name)
}

// GetTaskPriority returns the named task's priority, or -1 if unknown.
// This is a pure lookup: it never invokes the scheduler.
func (k *Kernel) GetTaskPriority(name string) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	t := k.list.find(name)
	if t == nil {
		return -1
	}
	return int(t.priority)
}

// TaskStats is a point-in-time snapshot of one task's scheduling state,
// returned by Kernel.Stats.
type TaskStats struct {
	Name     string
	Priority uint16
	Status   Status
	Runs     uint64
}

// Stats returns a snapshot of every created task (including the idle
// task), in task-list order, for observability — dashboards, demo
// logging, tests that want to assert on run counts without reaching
// into kernel internals. It takes no scheduling action of its own.
func (k *Kernel) Stats() []TaskStats {
	k.mu.Lock()
	defer k.mu.Unlock()

	stats := make([]TaskStats, 0, k.list.len())
	for t := k.list.head; t != nil; t = t.next {
		stats = append(stats, TaskStats{
			Name:     t.Name(),
			Priority: t.Priority(),
			Status:   t.Status(),
			Runs:     t.Runs(),
		})
	}
	return stats
}

// SetTaskPriority updates the named task's priority, then performs
// save+schedule on the CALLING task's context — i.e. on k.current,
// exactly as the AVR source's SaveContext always operates on
// currentActiveTask regardless of which task's priority was actually
// changed. This lets a monitoring/ISR-style caller change another task's
// priority and still correctly force an immediate reschedule: the caller
// need not itself be the task being modified.
//
// Matching SimpleRTOS_SetTaskPriority in the source this is ported from,
// an unknown name only skips the priority mutation — the calling task is
// still made preemptible either way. ErrInvalidPriority is returned, and
// nothing happens at all, if priority is at or beyond the idle task's
// sentinel value.
func (k *Kernel) SetTaskPriority(name string, priority uint16) error {
	k.mu.Lock()
	if priority >= idlePriority {
		k.mu.Unlock()
		return ErrInvalidPriority
	}

	if t := k.list.find(boundName(name)); t != nil {
		t.priority = priority
		k.log.WithFields(logrus.Fields{"name": name, "priority": priority}).Debug("priority changed")
	}

	self := k.callerLocked()
	k.saveAndScheduleLocked(self)
	return nil
}

// SuspendTask moves the calling task to Suspended and reschedules.
func (k *Kernel) SuspendTask() {
	k.mu.Lock()
	self := k.callerLocked()
	self.status = StatusSuspended
	k.saveAndScheduleLocked(self)
}

// ResumeTask moves the named task to Ready, if it exists, then performs
// save+schedule on the calling task's context so that a newly-Ready
// higher-priority task preempts the caller immediately.
func (k *Kernel) ResumeTask(name string) {
	k.mu.Lock()
	t := k.list.find(boundName(name))
	if t == nil {
		k.mu.Unlock()
		return
	}
	t.status = StatusReady
	k.log.WithField("name", name).Debug("resumed")

	self := k.callerLocked()
	k.saveAndScheduleLocked(self)
}

// DelayTask suspends the calling task for units ticks. DelayTask(0) is a
// no-op: it returns immediately without touching status or invoking the
// scheduler.
func (k *Kernel) DelayTask(units uint16) {
	if units == 0 {
		return
	}
	k.mu.Lock()
	self := k.callerLocked()
	self.delayUnits = units
	self.status = StatusDelayed
	k.saveAndScheduleLocked(self)
}

// callerLocked returns the TCB that kernel API calls should treat as
// "the calling task": k.current if the kernel has started running tasks,
// or the idle task otherwise (covers calls made before the first
// schedule, which cannot happen for real tasks but keeps every locked
// helper total). Caller must hold k.mu.
func (k *Kernel) callerLocked() *TCB {
	if k.current != nil {
		return k.current
	}
	return k.idle
}

// Start performs the first scheduling decision, launching every created task's goroutine (parked until
// chosen) and waking whichever one the selection algorithm picks first:
// every created task is Ready at this point, so that is the created task
// with the lowest priority value, or the idle task itself if none were
// created.
//
// Start returns once the first task has been woken; tasks then run
// concurrently with the caller on their own goroutines. Start does not
// start any tick source: the caller is responsible for driving ticks,
// either by calling Tick directly or via RunClock with a Clock (tick.go).
func (k *Kernel) Start() {
	k.mu.Lock()
	if k.started {
		k.mu.Unlock()
		return
	}
	k.started = true

	for t := k.list.head; t != nil; t = t.next {
		go runTask(k, t)
	}

	first := k.selectNextLocked()
	frame, sp := RestoreContext(k.ram, first.sp)
	first.sp = sp
	first.Regs = frame.Regs
	first.SR = frame.Status

	k.log.Info("kernel started")
	k.mu.Unlock()

	wake(first)
}
