package sm83

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThaumielSparrow/go-sm83/sm83/backend"
	"github.com/ThaumielSparrow/go-sm83/sm83/timing"
	"github.com/ThaumielSparrow/go-sm83/sm83/video"
)

// scriptedBackend plays back one batch of input events per frame and
// quits when the script runs out.
type scriptedBackend struct {
	script    [][]backend.InputEvent
	frame     int
	cleanedUp bool
}

func (s *scriptedBackend) Init(backend.Config) error { return nil }

func (s *scriptedBackend) Update(frame *video.FrameBuffer) ([]backend.InputEvent, error) {
	if s.frame >= len(s.script) {
		return []backend.InputEvent{{Action: backend.ActionQuit, Type: backend.Press}}, nil
	}
	events := s.script[s.frame]
	s.frame++
	return events, nil
}

func (s *scriptedBackend) Cleanup() error {
	s.cleanedUp = true
	return nil
}

func TestRunnerQuits(t *testing.T) {
	m, err := New(spinROM("RUN"))
	require.NoError(t, err)

	b := &scriptedBackend{script: make([][]backend.InputEvent, 3)}
	r := NewRunner(m, b, timing.NewNoOpLimiter(), "")

	require.NoError(t, r.Run())
	assert.Equal(t, 3, b.frame, "three frames before quit")
	assert.True(t, b.cleanedUp)
}

func TestRunnerSnapshotActions(t *testing.T) {
	dir := t.TempDir()
	romPath := filepath.Join(dir, "game.gb")
	require.NoError(t, os.WriteFile(romPath, spinROM("RUNSNAP"), 0o644))

	m, err := NewFromFile(romPath)
	require.NoError(t, err)

	b := &scriptedBackend{script: [][]backend.InputEvent{
		{{Action: backend.ActionSelectSlot, Type: backend.Press, Slot: 4}},
		{{Action: backend.ActionSaveState, Type: backend.Press}},
		{{Action: backend.ActionLoadState, Type: backend.Press}},
	}}
	r := NewRunner(m, b, timing.NewNoOpLimiter(), romPath)
	require.NoError(t, r.Run())

	_, err = os.Stat(filepath.Join(dir, "slot4.state"))
	assert.NoError(t, err, "snapshot written next to the ROM")
}

func TestRunnerForwardsJoypad(t *testing.T) {
	// STOP at the entry point: the scripted press must wake the
	// machine again
	rom := testROM("RUNKEY", []byte{0x10, 0x00, 0x18, 0xFE})
	m, err := New(rom)
	require.NoError(t, err)

	b := &scriptedBackend{script: [][]backend.InputEvent{
		{},
		{{Action: backend.ActionA, Type: backend.Press}},
		{{Action: backend.ActionA, Type: backend.Release}},
	}}
	r := NewRunner(m, b, timing.NewNoOpLimiter(), "")
	require.NoError(t, r.Run())

	assert.False(t, m.Stopped())
}

func TestNewFromFileMissing(t *testing.T) {
	_, err := NewFromFile(filepath.Join(t.TempDir(), "nope.gb"))
	assert.Error(t, err)
}
