package rtos

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoardProfileTickPeriodDefaults(t *testing.T) {
	p := BoardProfile{}
	got := p.TickPeriodSeconds()
	require.InDelta(t, 0.001, got, 1e-9, "defaults should reproduce the reference 1ms tick")
}

func TestBoardProfileTickPeriodCustom(t *testing.T) {
	p := BoardProfile{ClockHz: 8_000_000, Prescaler: 64, CompareValue: 124}
	got := p.TickPeriodSeconds()
	require.InDelta(t, 0.001, got, 1e-9)
}

func TestLoadBoardProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.yaml")
	contents := "name: test-board\nclock_hz: 16000000\nprescaler: 8\ncompare_value: 1999\ntask_region_bytes: 256\nram_size: 16384\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	p, err := LoadBoardProfile(path)
	require.NoError(t, err)
	require.Equal(t, "test-board", p.Name)
	require.Equal(t, 16_000_000, p.ClockHz)
	require.Equal(t, 16384, p.RAMSize)
}

func TestLoadBoardProfileMissingFile(t *testing.T) {
	_, err := LoadBoardProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
