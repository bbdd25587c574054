// Package backend defines the frontend contract: rendering frames to a
// host surface and translating host input into machine actions.
package backend

import (
	"github.com/ThaumielSparrow/go-sm83/sm83/memory"
	"github.com/ThaumielSparrow/go-sm83/sm83/video"
)

// Action is a frontend command, decoupled from the host input device.
type Action int

const (
	ActionNone Action = iota

	// joypad
	ActionUp
	ActionDown
	ActionLeft
	ActionRight
	ActionA
	ActionB
	ActionStart
	ActionSelect

	// machine control
	ActionQuit
	ActionTurbo
	ActionSaveState
	ActionLoadState
	ActionSelectSlot
)

// EventType distinguishes press and release events.
type EventType int

const (
	Press EventType = iota
	Release
)

// InputEvent is one translated host input. Slot is meaningful only for
// ActionSelectSlot.
type InputEvent struct {
	Action Action
	Type   EventType
	Slot   int
}

// Config holds the settings shared by all backends.
type Config struct {
	Title string
	Scale int
	VSync bool
}

// Backend is a complete frontend: rendering plus input translation.
type Backend interface {
	// Init prepares the host surface. Required before Update.
	Init(config Config) error

	// Update renders a frame and returns the input events collected
	// since the previous call.
	Update(frame *video.FrameBuffer) ([]InputEvent, error)

	// Cleanup releases host resources.
	Cleanup() error
}

// JoypadKey maps a joypad action to the matching machine key. The
// second return is false for non-joypad actions.
func JoypadKey(a Action) (memory.JoypadKey, bool) {
	switch a {
	case ActionUp:
		return memory.JoypadUp, true
	case ActionDown:
		return memory.JoypadDown, true
	case ActionLeft:
		return memory.JoypadLeft, true
	case ActionRight:
		return memory.JoypadRight, true
	case ActionA:
		return memory.JoypadA, true
	case ActionB:
		return memory.JoypadB, true
	case ActionStart:
		return memory.JoypadStart, true
	case ActionSelect:
		return memory.JoypadSelect, true
	}
	return 0, false
}
