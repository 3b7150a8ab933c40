// Command boarddemo exercises the kernel end to end: it loads a board
// profile from YAML, starts three tasks at distinct priorities plus a
// fourth that periodically raises and lowers another task's priority,
// and drives them off a real wall-clock tick.
package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	rtos "github.com/moshi-git/SimpleRTOS"
)

func main() {
	profilePath := flag.String("board", "", "path to a board profile YAML file (optional)")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := logrus.InfoLevel
	if *verbose {
		level = logrus.DebugLevel
	}
	base := rtos.NewTextLogger(level)
	log := rtos.NewComponentLogger(base, "boarddemo")

	profile := rtos.BoardProfile{RAMSize: 16384, TaskRegionBytes: 256}
	if *profilePath != "" {
		loaded, err := rtos.LoadBoardProfile(*profilePath)
		if err != nil {
			log.WithError(err).Fatal("loading board profile")
		}
		profile = loaded
		log.WithField("board", profile.Name).Info("loaded board profile")
	}

	k := rtos.NewKernel(profile.Config(log))
	k.Init()

	mustCreate(k, log, "HiTask", 1, func(k *rtos.Kernel, self *rtos.TCB) {
		for {
			log.Info("hi tick")
			k.DelayTask(5)
		}
	})
	mustCreate(k, log, "MidTask", 2, func(k *rtos.Kernel, self *rtos.TCB) {
		for {
			log.Info("mid tick")
			k.DelayTask(10)
		}
	})
	mustCreate(k, log, "LoTask", 3, func(k *rtos.Kernel, self *rtos.TCB) {
		for {
			log.Info("lo tick")
			k.DelayTask(25)
		}
	})
	mustCreate(k, log, "Supervisor", 1, func(k *rtos.Kernel, self *rtos.TCB) {
		for {
			k.DelayTask(100)
			cur := k.GetTaskPriority("LoTask")
			next := uint16(3)
			if cur == 3 {
				next = 1
			}
			log.WithField("priority", next).Info("supervisor bumping LoTask")
			if err := k.SetTaskPriority("LoTask", next); err != nil {
				log.WithError(err).Warn("could not bump LoTask priority")
			}
		}
	})

	k.Start()
	k.RunClock(rtos.TickerClock{Period: time.Duration(profile.TickPeriodSeconds() * float64(time.Second))})

	time.Sleep(2 * time.Second)
	k.StopClock()
	fmt.Println("boarddemo: done")
}

func mustCreate(k *rtos.Kernel, log *logrus.Entry, name string, priority uint16, fn rtos.TaskFunc) {
	if _, err := k.CreateTask(name, priority, fn); err != nil {
		log.WithError(err).WithField("name", name).Fatal("creating task")
	}
}
