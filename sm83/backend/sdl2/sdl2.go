//go:build sdl2

// Package sdl2 renders the machine in an SDL window. Building it
// requires the SDL2 development libraries; without the sdl2 build tag
// a stub that fails at Init is compiled instead.
package sdl2

import (
	"fmt"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/ThaumielSparrow/go-sm83/sm83/backend"
	"github.com/ThaumielSparrow/go-sm83/sm83/video"
)

const defaultScale = 4

// Backend renders frames to an SDL texture and translates SDL key
// events to actions.
type Backend struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	config   backend.Config
	running  bool

	eventQueue []backend.InputEvent
	pixels     [video.FramebufferWidth * video.FramebufferHeight]uint32
}

func New() *Backend {
	return &Backend{}
}

func (s *Backend) Init(config backend.Config) error {
	s.config = config

	scale := config.Scale
	if scale <= 0 {
		scale = defaultScale
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("sdl init: %w", err)
	}

	window, err := sdl.CreateWindow(
		config.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		int32(video.FramebufferWidth*scale),
		int32(video.FramebufferHeight*scale),
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		sdl.Quit()
		return fmt.Errorf("create window: %w", err)
	}
	s.window = window

	flags := uint32(sdl.RENDERER_ACCELERATED)
	if config.VSync {
		flags |= sdl.RENDERER_PRESENTVSYNC
	}
	renderer, err := sdl.CreateRenderer(window, -1, flags)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("create renderer: %w", err)
	}
	s.renderer = renderer

	texture, err := renderer.CreateTexture(
		sdl.PIXELFORMAT_ARGB8888,
		sdl.TEXTUREACCESS_STREAMING,
		video.FramebufferWidth,
		video.FramebufferHeight,
	)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("create texture: %w", err)
	}
	s.texture = texture

	s.running = true
	return nil
}

func (s *Backend) Update(frame *video.FrameBuffer) ([]backend.InputEvent, error) {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		s.handleEvent(event)
	}

	events := s.eventQueue
	s.eventQueue = nil

	if !s.running {
		events = append(events, backend.InputEvent{Action: backend.ActionQuit, Type: backend.Press})
		return events, nil
	}

	s.renderFrame(frame)
	return events, nil
}

func (s *Backend) Cleanup() error {
	if s.texture != nil {
		s.texture.Destroy()
	}
	if s.renderer != nil {
		s.renderer.Destroy()
	}
	if s.window != nil {
		s.window.Destroy()
	}
	sdl.Quit()
	return nil
}

func (s *Backend) handleEvent(event sdl.Event) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		s.running = false
	case *sdl.KeyboardEvent:
		if e.Repeat != 0 {
			return
		}
		s.handleKey(e.Keysym.Sym, e.Type == sdl.KEYDOWN)
	}
}

var keyMapping = map[sdl.Keycode]backend.Action{
	sdl.K_UP:     backend.ActionUp,
	sdl.K_DOWN:   backend.ActionDown,
	sdl.K_LEFT:   backend.ActionLeft,
	sdl.K_RIGHT:  backend.ActionRight,
	sdl.K_w:      backend.ActionUp,
	sdl.K_s:      backend.ActionDown,
	sdl.K_a:      backend.ActionLeft,
	sdl.K_d:      backend.ActionRight,
	sdl.K_k:      backend.ActionA,
	sdl.K_j:      backend.ActionB,
	sdl.K_RETURN: backend.ActionStart,
	sdl.K_SPACE:  backend.ActionSelect,
	sdl.K_TAB:    backend.ActionTurbo,
	sdl.K_ESCAPE: backend.ActionQuit,
	sdl.K_F5:     backend.ActionSaveState,
	sdl.K_F9:     backend.ActionLoadState,
}

func (s *Backend) handleKey(key sdl.Keycode, pressed bool) {
	if key >= sdl.K_0 && key <= sdl.K_9 {
		if pressed {
			s.eventQueue = append(s.eventQueue, backend.InputEvent{
				Action: backend.ActionSelectSlot,
				Type:   backend.Press,
				Slot:   int(key - sdl.K_0),
			})
		}
		return
	}

	act, ok := keyMapping[key]
	if !ok {
		return
	}
	if act == backend.ActionQuit {
		if pressed {
			s.running = false
		}
		return
	}

	eventType := backend.Release
	if pressed {
		eventType = backend.Press
	}
	s.eventQueue = append(s.eventQueue, backend.InputEvent{Action: act, Type: eventType})
}

func (s *Backend) renderFrame(frame *video.FrameBuffer) {
	copy(s.pixels[:], frame.ToSlice())
	s.texture.Update(nil, unsafe.Pointer(&s.pixels[0]), video.FramebufferWidth*4)
	s.renderer.Clear()
	s.renderer.Copy(s.texture, nil, nil)
	s.renderer.Present()
}
