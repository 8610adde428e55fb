// Package term is a text mode frontend built on termbox. Each CHIP-8 pixel
// is drawn as two terminal cells so the picture keeps its aspect ratio.
package term

import (
	"fmt"
	"image/color"
	"time"
	"unicode"

	"github.com/chyp8/chyp8/emu/cpu"
	"github.com/nsf/termbox-go"
)

// Terminals only report key presses, never releases, so a press holds the
// key down for this long.
const keyRepeatDuration = time.Second / 5

const cellsPerPixel = 2

// KeyMap maps keyboard runes to keypad keys using the same layout as the
// window frontend.
var KeyMap = map[rune]uint8{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xC,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xD,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xE,
	'z': 0xA, 'x': 0x0, 'c': 0xB, 'v': 0xF,
}

// Attribute converts c to the nearest entry of the 6x6x6 color cube of a
// 256 color terminal.
func Attribute(c color.Color) termbox.Attribute {
	r, g, b, _ := c.RGBA()
	level := func(v uint32) int {
		return int((v>>8)*5+127) / 255
	}
	// Output256 attributes are offset by one, zero is the default color.
	return termbox.Attribute(16 + 36*level(r) + 6*level(g) + level(b) + 1)
}

type Options struct {
	On  termbox.Attribute
	Off termbox.Attribute
}

type Terminal struct {
	events chan termbox.Event
	done   chan struct{}

	held [cpu.NumKeys]time.Time // key is down until this time
	quit bool
	now  func() time.Time

	on  termbox.Attribute
	off termbox.Attribute
}

func newTerminal(opts Options) *Terminal {
	return &Terminal{
		events: make(chan termbox.Event, 64),
		done:   make(chan struct{}),
		now:    time.Now,
		on:     opts.On,
		off:    opts.Off,
	}
}

// New takes over the terminal until Close is called.
func New(opts Options) (*Terminal, error) {
	if err := termbox.Init(); err != nil {
		return nil, fmt.Errorf("initializing terminal: %w", err)
	}
	termbox.SetInputMode(termbox.InputEsc)
	termbox.SetOutputMode(termbox.Output256)
	termbox.HideCursor()

	t := newTerminal(opts)
	go t.pump()
	return t, nil
}

// pump forwards terminal events until Close interrupts PollEvent.
func (t *Terminal) pump() {
	defer close(t.done)
	for {
		ev := termbox.PollEvent()
		if ev.Type == termbox.EventInterrupt {
			return
		}
		select {
		case t.events <- ev:
		default: // emulator is not keeping up, drop the event
		}
	}
}

func (t *Terminal) Poll(keys *[cpu.NumKeys]bool) bool {
drain:
	for {
		select {
		case ev := <-t.events:
			t.handle(ev)
		default:
			break drain
		}
	}

	*keys = t.keyState()
	return t.quit
}

func (t *Terminal) handle(ev termbox.Event) {
	switch ev.Type {
	case termbox.EventKey:
		if ev.Key == termbox.KeyEsc || ev.Key == termbox.KeyCtrlC {
			t.quit = true
			return
		}
		if key, ok := KeyMap[unicode.ToLower(ev.Ch)]; ok {
			t.held[key] = t.now().Add(keyRepeatDuration)
		}
	case termbox.EventError:
		t.quit = true
	}
}

func (t *Terminal) keyState() [cpu.NumKeys]bool {
	var keys [cpu.NumKeys]bool
	now := t.now()
	for key, until := range t.held {
		keys[key] = now.Before(until)
	}
	return keys
}

func (t *Terminal) Present(d cpu.Display) error {
	for y := 0; y < cpu.DisplayHeight; y++ {
		for x := 0; x < cpu.DisplayWidth; x++ {
			bg := t.off
			if d[y*cpu.DisplayWidth+x] {
				bg = t.on
			}
			for c := 0; c < cellsPerPixel; c++ {
				termbox.SetCell(x*cellsPerPixel+c, y, ' ', termbox.ColorDefault, bg)
			}
		}
	}
	if err := termbox.Flush(); err != nil {
		return fmt.Errorf("flushing terminal: %w", err)
	}
	return nil
}

func (t *Terminal) Close() error {
	termbox.Interrupt()
	<-t.done
	termbox.Close()
	return nil
}
