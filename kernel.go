package rtos

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

// Default timing/memory constants, lifted verbatim from the AVR source
// this kernel is ported from (inc/task.h, inc/rtos.h): a 16 MHz clock,
// CTC mode 4, prescaler 8, OCR1A = 1999 giving a 1 ms tick; 256 bytes per
// task region; a 16-byte bounded name.
const (
	DefaultClockHz          = 16_000_000
	DefaultPrescaler        = 8
	DefaultCompareValue     = 0x07CF // 1999
	DefaultTaskRegionBytes  = 256
	DefaultTickPeriodMillis = 1
)

// ErrDuplicateName is returned by CreateTask when a task with that name
// already exists.
var ErrDuplicateName = errors.New("rtos: duplicate task name")

// ErrArenaExhausted is returned by CreateTask when carving a new task
// region would run the stack-area cursor past the bottom of RAM. The
// original AVR source leaves this undefined behavior; this port detects
// and reports it instead.
var ErrArenaExhausted = errors.New("rtos: stack area exhausted")

// ErrInvalidPriority is returned by CreateTask and SetTaskPriority when
// asked for a priority at or beyond the idle task's sentinel value. The
// original AVR source gets this for free from taskPriority being a
// uint8_t against a 256-valued sentinel; a Go uint16 has no such ceiling,
// so it is enforced explicitly instead.
var ErrInvalidPriority = errors.New("rtos: priority must be less than the idle task's sentinel priority")

// Config configures a Kernel at construction time. All fields have
// sensible zero-value defaults matching the AVR source's constants.
type Config struct {
	// RAMSize is the total size in bytes of the simulated arena the
	// kernel carves task regions from, standing in for "top of RAM down
	// to whatever the application/bootloader leaves free". Defaults to
	// 64 task regions' worth of space if zero.
	RAMSize int

	// TaskRegionBytes is the fixed size carved per task (TCB + that
	// task's private stack). Defaults to DefaultTaskRegionBytes.
	TaskRegionBytes int

	// Logger receives structured diagnostics at state transitions
	// (task creation, scheduling decisions, arena exhaustion). A nil
	// Logger sends every log line to a logger that discards its output;
	// the kernel still builds its log entries in that case.
	Logger *logrus.Entry
}

func (c Config) withDefaults() Config {
	if c.TaskRegionBytes <= 0 {
		c.TaskRegionBytes = DefaultTaskRegionBytes
	}
	if c.RAMSize <= 0 {
		c.RAMSize = c.TaskRegionBytes * 64
	}
	return c
}

// Kernel holds every piece of process-wide scheduling state the AVR
// source kept as file-scope statics (stackArea, currentActiveTask,
// taskList, endOfTaskList), collapsed into one value instead of package
// globals. Every mutating method takes mu for its critical section,
// standing in for global interrupt disable/enable.
type Kernel struct {
	cfg Config
	log *logrus.Entry

	mu      sync.Mutex
	ram     *RAM
	cursor  uint16 // next free address below the last carved region
	list    taskList
	current *TCB
	idle    *TCB

	started bool
	stopCh  chan struct{}

	// idleSettled is signalled once per idle-task reschedule attempt. It
	// exists purely so Tick (tick.go) can be synchronous/deterministic:
	// when a tick promotes a Delayed task to Ready while the idle task
	// is current, Tick waits for this to know the idle task's busy-loop
	// has already noticed and, if warranted, switched away — instead of
	// returning to the caller while that handoff is still in flight.
	idleSettled chan struct{}
}

// NewKernel constructs a Kernel. It does not create the idle task or
// configure timing yet — that is Init's job, matching the AVR source's
// two-stage Init()/Start() lifecycle.
func NewKernel(cfg Config) *Kernel {
	cfg = cfg.withDefaults()
	log := cfg.Logger
	if log == nil {
		log = logrus.NewEntry(silentLogger)
	}
	return &Kernel{cfg: cfg, log: log, idleSettled: make(chan struct{}, 1)}
}

var silentLogger = newSilentLogger()

func newSilentLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(discardWriter{})
	return l
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// Init initializes the stack-area cursor to top-of-RAM, clears current/
// head/tail, and creates and enlists the idle task. It must be called
// exactly once, before CreateTask or Start.
func (k *Kernel) Init() {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.ram = NewRAM(k.cfg.RAMSize)
	k.cursor = uint16(k.cfg.RAMSize - 1)
	k.list = taskList{}
	k.current = nil

	idle, err := k.createTaskLocked("IdleTask", idlePriority, idleBody)
	if err != nil {
		// The arena is sized by cfg and the idle task is the very first
		// thing carved from it; only a misconfigured (too-small) RAMSize
		// can make this fail, which is a programming error, not a
		// runtime condition callers can recover from.
		panic("rtos: arena too small for the idle task: " + err.Error())
	}
	k.idle = idle
	k.log.WithFields(logrus.Fields{"ram_size": k.cfg.RAMSize}).Info("kernel initialized")
}

// carveLocked reserves one task region from the top of the arena and
// returns the address just below the TCB for that task's initial stack
// top, with ok reporting whether a region could be carved at all. Caller
// must hold mu.
func (k *Kernel) carveLocked() (stackTop uint16, ok bool) {
	regionSize := uint16(k.cfg.TaskRegionBytes)
	if k.cursor < regionSize {
		return 0, false
	}
	regionBase := k.cursor - regionSize + 1
	k.cursor = regionBase - 1
	// The TCB for this task notionally lives at the top of the region;
	// reading the AVR source's "taskSP = (void*)task - 1" as "the task's
	// stack top is exactly the byte below the TCB" puts the first free
	// stack byte one below the region's top address.
	return regionBase + regionSize - 2, true
}

// RunClock launches clock on its own goroutine, driving Tick at whatever
// cadence it implements, until StopClock is called. Typical use: a demo
// or production main() calls Start() once tasks are created, then
// RunClock(TickerClock{}) to hand timing over to a real 1 ms ticker.
// Tests that want deterministic control instead call Tick directly and
// never call RunClock at all.
func (k *Kernel) RunClock(clock Clock) {
	k.mu.Lock()
	if k.stopCh != nil {
		k.mu.Unlock()
		return
	}
	k.stopCh = make(chan struct{})
	stop := k.stopCh
	k.mu.Unlock()

	go clock.Run(k, stop)
}

// StopClock stops a clock started by RunClock. It is a no-op if no clock
// is running.
func (k *Kernel) StopClock() {
	k.mu.Lock()
	stop := k.stopCh
	k.stopCh = nil
	k.mu.Unlock()
	if stop != nil {
		close(stop)
	}
}
