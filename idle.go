package rtos

import "runtime"

// idleBody is the entry point for the idle task created by Init. On real
// AVR hardware it is an infinite loop around the "sleep" instruction: it
// halts the CPU but stays responsive to the next interrupt. Go gives us
// no such instruction, so the idle task instead repeatedly re-enters the
// scheduler — each iteration is the closest equivalent of "the CPU did
// nothing until the next interrupt fired": if nothing more urgent has
// become Ready, the idle task is simply reselected and loops again; the
// instant a tick or a kernel call promotes a higher-priority task, the
// very next iteration hands control to it.
//
// This is also the only task body that ever calls rescheduleLocked
// directly rather than going through a Kernel API method, since the idle
// task never delays, suspends, or changes anyone's priority — it is
// never anything but Ready or Running.
func idleBody(k *Kernel, self *TCB) {
	for {
		k.mu.Lock()
		next := k.rescheduleLocked(self)
		notifySettle(k.idleSettled)

		if next == self {
			runtime.Gosched()
			continue
		}
		wake(next)
		park(self)
	}
}

// notifySettle delivers a non-blocking, latest-value-wins signal on ch.
// It has exactly one producer (the idle task's own loop), so the
// drain-then-send is race-free.
func notifySettle(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
