// Package terminal renders the machine in a terminal using half-block
// characters, two pixels per cell.
package terminal

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ThaumielSparrow/go-sm83/sm83/backend"
	"github.com/ThaumielSparrow/go-sm83/sm83/video"
)

const (
	width  = video.FramebufferWidth
	height = video.FramebufferHeight

	// terminals deliver key repeats, not releases; a key counts as
	// held until this long after its last repeat
	keyTimeout = 100 * time.Millisecond
)

// Backend renders frames with tcell and synthesizes press/release
// pairs from terminal key repeats.
type Backend struct {
	screen  tcell.Screen
	config  backend.Config
	running bool

	eventQueue []backend.InputEvent
	keyStates  map[backend.Action]time.Time
	activeKeys map[backend.Action]bool
}

func New() *Backend {
	return &Backend{}
}

func (t *Backend) Init(config backend.Config) error {
	t.config = config
	t.eventQueue = make([]backend.InputEvent, 0)
	t.keyStates = make(map[backend.Action]time.Time)
	t.activeKeys = make(map[backend.Action]bool)

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("terminal init: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("terminal init: %w", err)
	}

	screen.SetStyle(tcell.StyleDefault.
		Background(tcell.ColorBlack).
		Foreground(tcell.ColorWhite))
	screen.Clear()

	t.screen = screen
	t.running = true
	return nil
}

func (t *Backend) Update(frame *video.FrameBuffer) ([]backend.InputEvent, error) {
	now := time.Now()

	for t.screen.HasPendingEvent() {
		switch ev := t.screen.PollEvent().(type) {
		case *tcell.EventKey:
			t.processKeyEvent(ev, now)
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}

	events := t.eventQueue
	t.eventQueue = nil

	// turn key-repeat timestamps into press/release edges
	currentlyActive := make(map[backend.Action]bool)
	for act, lastSeen := range t.keyStates {
		if now.Sub(lastSeen) < keyTimeout {
			currentlyActive[act] = true
			if !t.activeKeys[act] {
				events = append(events, backend.InputEvent{Action: act, Type: backend.Press})
			}
		} else {
			delete(t.keyStates, act)
		}
	}
	for act := range t.activeKeys {
		if !currentlyActive[act] {
			events = append(events, backend.InputEvent{Action: act, Type: backend.Release})
		}
	}
	t.activeKeys = currentlyActive

	if !t.running {
		events = append(events, backend.InputEvent{Action: backend.ActionQuit, Type: backend.Press})
	}

	t.drawFrame(frame)
	t.screen.Show()
	return events, nil
}

func (t *Backend) Cleanup() error {
	if t.screen != nil {
		t.screen.Fini()
	}
	return nil
}

// keyMapping covers special keys; printable keys go through
// runeMapping.
var keyMapping = map[tcell.Key]backend.Action{
	tcell.KeyUp:     backend.ActionUp,
	tcell.KeyDown:   backend.ActionDown,
	tcell.KeyLeft:   backend.ActionLeft,
	tcell.KeyRight:  backend.ActionRight,
	tcell.KeyEnter:  backend.ActionStart,
	tcell.KeyTab:    backend.ActionTurbo,
	tcell.KeyEscape: backend.ActionQuit,
	tcell.KeyCtrlC:  backend.ActionQuit,
	tcell.KeyF5:     backend.ActionSaveState,
	tcell.KeyF9:     backend.ActionLoadState,
}

var runeMapping = map[rune]backend.Action{
	'w': backend.ActionUp,
	's': backend.ActionDown,
	'a': backend.ActionLeft,
	'd': backend.ActionRight,
	'j': backend.ActionB,
	'k': backend.ActionA,
	' ': backend.ActionSelect,
	'q': backend.ActionQuit,
}

// held reports whether an action is tracked via key repeats rather
// than delivered as a one-shot event.
func held(act backend.Action) bool {
	switch act {
	case backend.ActionUp, backend.ActionDown, backend.ActionLeft, backend.ActionRight,
		backend.ActionA, backend.ActionB, backend.ActionStart, backend.ActionSelect,
		backend.ActionTurbo:
		return true
	}
	return false
}

func (t *Backend) processKeyEvent(ev *tcell.EventKey, now time.Time) {
	if act, ok := keyMapping[ev.Key()]; ok {
		t.applyAction(act, now)
		return
	}
	if ev.Key() != tcell.KeyRune {
		return
	}

	r := ev.Rune()
	if r >= '0' && r <= '9' {
		t.eventQueue = append(t.eventQueue, backend.InputEvent{
			Action: backend.ActionSelectSlot,
			Type:   backend.Press,
			Slot:   int(r - '0'),
		})
		return
	}
	if act, ok := runeMapping[r]; ok {
		t.applyAction(act, now)
	}
}

func (t *Backend) applyAction(act backend.Action, now time.Time) {
	if act == backend.ActionQuit {
		t.running = false
		return
	}
	if !held(act) {
		t.eventQueue = append(t.eventQueue, backend.InputEvent{Action: act, Type: backend.Press})
		return
	}

	// d-pad directions are exclusive on real hardware
	switch act {
	case backend.ActionUp, backend.ActionDown, backend.ActionLeft, backend.ActionRight:
		delete(t.keyStates, backend.ActionUp)
		delete(t.keyStates, backend.ActionDown)
		delete(t.keyStates, backend.ActionLeft)
		delete(t.keyStates, backend.ActionRight)
	}
	t.keyStates[act] = now
}

// shadeColors indexes terminal colors by shade, darkest first.
var shadeColors = [4]tcell.Color{
	tcell.ColorBlack,
	tcell.ColorGray,
	tcell.ColorSilver,
	tcell.ColorWhite,
}

func (t *Backend) drawFrame(frame *video.FrameBuffer) {
	pixels := frame.ToSlice()
	for y := 0; y < height; y += 2 {
		for x := 0; x < width; x++ {
			top := pixelToShade(pixels[y*width+x])
			bottom := 3
			if y+1 < height {
				bottom = pixelToShade(pixels[(y+1)*width+x])
			}

			ch, fg, bg := halfBlock(top, bottom)
			style := tcell.StyleDefault.Foreground(fg).Background(bg)
			t.screen.SetContent(x, y/2, ch, nil, style)
		}
	}
}

// pixelToShade maps a framebuffer color back to its shade index,
// 0 darkest.
func pixelToShade(pixel uint32) int {
	switch video.GBColor(pixel) {
	case video.BlackColor:
		return 0
	case video.DarkGreyColor:
		return 1
	case video.LightGreyColor:
		return 2
	default:
		return 3
	}
}

// halfBlock picks the character and colors for a cell holding two
// vertically stacked pixels.
func halfBlock(top, bottom int) (rune, tcell.Color, tcell.Color) {
	if top == bottom {
		return '█', shadeColors[top], tcell.ColorDefault
	}
	return '▀', shadeColors[top], shadeColors[bottom]
}
