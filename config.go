package rtos

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// BoardProfile is the hardware contract, lifted out of C #defines
// (inc/rtos.h in the original source) into a loadable value: the
// timer's clock, prescaler and compare value, plus the per-task region
// size and arena size this kernel carves tasks from. Zero values mean
// "use the AVR reference defaults".
type BoardProfile struct {
	Name            string `yaml:"name"`
	ClockHz         int    `yaml:"clock_hz"`
	Prescaler       int    `yaml:"prescaler"`
	CompareValue    int    `yaml:"compare_value"`
	TaskRegionBytes int    `yaml:"task_region_bytes"`
	RAMSize         int    `yaml:"ram_size"`
}

// TickPeriodSeconds returns the wall-clock period one tick represents under
// this profile: (prescaler * (compareValue + 1)) / clockHz seconds.
// With the AVR reference defaults (16 MHz, prescaler 8, OCR1A=1999) this
// comes out to exactly 1 ms.
func (p BoardProfile) TickPeriodSeconds() float64 {
	clock := p.ClockHz
	if clock <= 0 {
		clock = DefaultClockHz
	}
	prescaler := p.Prescaler
	if prescaler <= 0 {
		prescaler = DefaultPrescaler
	}
	compare := p.CompareValue
	if compare <= 0 {
		compare = DefaultCompareValue
	}
	return float64(prescaler) * float64(compare+1) / float64(clock)
}

// Config adapts a BoardProfile into the Config a Kernel is constructed
// with.
func (p BoardProfile) Config(logger *logrus.Entry) Config {
	return Config{
		RAMSize:         p.RAMSize,
		TaskRegionBytes: p.TaskRegionBytes,
		Logger:          logger,
	}
}

// LoadBoardProfile reads and parses a YAML board profile, the way the
// pack's own config loaders do (gopkg.in/yaml.v3 appears in both
// MongooseMoo-barn's conformance suite loader and
// bgp59-victoriametrics-importer's instance config).
func LoadBoardProfile(path string) (BoardProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BoardProfile{}, fmt.Errorf("rtos: reading board profile %s: %w", path, err)
	}
	var p BoardProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return BoardProfile{}, fmt.Errorf("rtos: parsing board profile %s: %w", path, err)
	}
	return p, nil
}
