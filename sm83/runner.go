package sm83

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/ThaumielSparrow/go-sm83/sm83/backend"
	"github.com/ThaumielSparrow/go-sm83/sm83/romfile"
	"github.com/ThaumielSparrow/go-sm83/sm83/timing"
)

// NewFromFile loads a ROM file, plain or archived, creates a machine
// and restores the battery save sitting next to the file.
func NewFromFile(path string, opts ...Option) (*Machine, error) {
	rom, err := romfile.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load rom: %w", err)
	}

	m, err := New(rom, opts...)
	if err != nil {
		return nil, err
	}

	if m.Cartridge().HasBattery() {
		save, err := romfile.ReadBattery(path)
		if err != nil {
			slog.Warn("battery save unreadable", "path", path, "error", err)
		} else if save != nil {
			m.Cartridge().LoadRAM(save)
		}
	}
	return m, nil
}

// Runner drives a machine through a backend: one frame per loop
// iteration, input events applied in between, paced by the limiter.
type Runner struct {
	machine *Machine
	backend backend.Backend
	limiter timing.Limiter

	romPath     string
	snapshotDir string
	slot        int
	running     bool
}

// NewRunner wires a machine to a backend. romPath locates the battery
// save and the snapshot directory; it may be empty for ROMs not
// loaded from a file.
func NewRunner(m *Machine, b backend.Backend, limiter timing.Limiter, romPath string) *Runner {
	r := &Runner{
		machine: m,
		backend: b,
		limiter: limiter,
		romPath: romPath,
	}
	if romPath != "" {
		r.snapshotDir = filepath.Dir(romPath)
	}
	return r
}

// Run loops until the backend requests quit, then persists the
// battery save.
func (r *Runner) Run() error {
	defer r.backend.Cleanup()

	r.running = true
	r.limiter.Reset()

	for r.running {
		frame := r.machine.RunFrame()

		events, err := r.backend.Update(frame)
		if err != nil {
			return err
		}
		for _, ev := range events {
			r.handleEvent(ev)
		}

		r.limiter.WaitForNextFrame()
	}

	return r.persistBattery()
}

func (r *Runner) handleEvent(ev backend.InputEvent) {
	if key, ok := backend.JoypadKey(ev.Action); ok {
		if ev.Type == backend.Press {
			r.machine.Press(key)
		} else {
			r.machine.Release(key)
		}
		return
	}

	switch ev.Action {
	case backend.ActionQuit:
		r.running = false
	case backend.ActionTurbo:
		r.limiter.SetTurbo(ev.Type == backend.Press)
	case backend.ActionSelectSlot:
		r.slot = ev.Slot
		slog.Info("snapshot slot selected", "slot", r.slot)
	case backend.ActionSaveState:
		if ev.Type != backend.Press {
			return
		}
		if err := r.machine.SaveSnapshotFile(r.snapshotDir, r.slot); err != nil {
			slog.Error("snapshot save failed", "slot", r.slot, "error", err)
		} else {
			slog.Info("snapshot saved", "slot", r.slot)
		}
	case backend.ActionLoadState:
		if ev.Type != backend.Press {
			return
		}
		if err := r.machine.LoadSnapshotFile(r.snapshotDir, r.slot); err != nil {
			slog.Error("snapshot load failed", "slot", r.slot, "error", err)
		} else {
			slog.Info("snapshot loaded", "slot", r.slot)
		}
	}
}

func (r *Runner) persistBattery() error {
	cart := r.machine.Cartridge()
	if cart == nil || r.romPath == "" {
		return nil
	}
	return romfile.WriteBattery(r.romPath, cart.DumpRAM())
}
