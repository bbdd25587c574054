package terminal

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"

	"github.com/ThaumielSparrow/go-sm83/sm83/backend"
	"github.com/ThaumielSparrow/go-sm83/sm83/video"
)

func newTestBackend() *Backend {
	return &Backend{
		keyStates:  make(map[backend.Action]time.Time),
		activeKeys: make(map[backend.Action]bool),
	}
}

func TestPixelToShade(t *testing.T) {
	assert.Equal(t, 0, pixelToShade(uint32(video.BlackColor)))
	assert.Equal(t, 1, pixelToShade(uint32(video.DarkGreyColor)))
	assert.Equal(t, 2, pixelToShade(uint32(video.LightGreyColor)))
	assert.Equal(t, 3, pixelToShade(uint32(video.WhiteColor)))
}

func TestHalfBlock(t *testing.T) {
	ch, fg, bg := halfBlock(0, 0)
	assert.Equal(t, '█', ch)
	assert.Equal(t, tcell.ColorBlack, fg)
	assert.Equal(t, tcell.ColorDefault, bg)

	ch, fg, bg = halfBlock(3, 0)
	assert.Equal(t, '▀', ch)
	assert.Equal(t, tcell.ColorWhite, fg)
	assert.Equal(t, tcell.ColorBlack, bg)
}

func TestDPadDirectionsAreExclusive(t *testing.T) {
	b := newTestBackend()
	now := time.Now()

	b.applyAction(backend.ActionLeft, now)
	b.applyAction(backend.ActionRight, now)

	assert.NotContains(t, b.keyStates, backend.ActionLeft)
	assert.Contains(t, b.keyStates, backend.ActionRight)
}

func TestOneShotActionsQueueDirectly(t *testing.T) {
	b := newTestBackend()
	now := time.Now()

	b.applyAction(backend.ActionSaveState, now)
	assert.Len(t, b.eventQueue, 1)
	assert.Equal(t, backend.ActionSaveState, b.eventQueue[0].Action)
	assert.Empty(t, b.keyStates)
}

func TestDigitKeysSelectSlots(t *testing.T) {
	b := newTestBackend()

	ev := tcell.NewEventKey(tcell.KeyRune, '7', tcell.ModNone)
	b.processKeyEvent(ev, time.Now())

	assert.Len(t, b.eventQueue, 1)
	assert.Equal(t, backend.ActionSelectSlot, b.eventQueue[0].Action)
	assert.Equal(t, 7, b.eventQueue[0].Slot)
}

func TestQuitStopsBackend(t *testing.T) {
	b := newTestBackend()
	b.running = true

	ev := tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)
	b.processKeyEvent(ev, time.Now())
	assert.False(t, b.running)
}
