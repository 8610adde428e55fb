// Package screen is the pixelgl window frontend: it draws the frame buffer
// scaled up and reads the keypad from the keyboard.
package screen

import (
	"fmt"
	"image/color"

	"github.com/chyp8/chyp8/emu/cpu"
	"github.com/faiface/pixel"
	"github.com/faiface/pixel/imdraw"
	"github.com/faiface/pixel/pixelgl"
)

type Options struct {
	Title string
	Scale int
	On    color.Color
	Off   color.Color
}

// Window must be created and used on the main thread, inside pixelgl.Run.
type Window struct {
	*pixelgl.Window
	KeyMap map[uint16]pixelgl.Button
	imd    *imdraw.IMDraw
	scale  float64
	on     color.Color
	off    color.Color
}

func NewWindow(opts Options) (*Window, error) {
	cfg := pixelgl.WindowConfig{
		Title:     opts.Title,
		Bounds:    pixel.R(0, 0, float64(cpu.DisplayWidth*opts.Scale), float64(cpu.DisplayHeight*opts.Scale)),
		Resizable: false,
		VSync:     true,
	}

	win, err := pixelgl.NewWindow(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating window: %w", err)
	}

	w := &Window{
		Window: win,
		KeyMap: KeyMap(),
		imd:    imdraw.New(nil),
		scale:  float64(opts.Scale),
		on:     opts.On,
		off:    opts.Off,
	}
	w.Clear(w.off)
	w.Update()
	return w, nil
}

// Poll reads the mapped keys into keys. Escape or closing the window quits.
func (w *Window) Poll(keys *[cpu.NumKeys]bool) bool {
	w.UpdateInput()
	if w.Closed() || w.Pressed(pixelgl.KeyEscape) {
		return true
	}
	for key, button := range w.KeyMap {
		keys[key] = w.Pressed(button)
	}
	return false
}

// Present draws every lit pixel as a filled rectangle.
func (w *Window) Present(d cpu.Display) error {
	w.imd.Clear()
	w.imd.Color = w.on
	for y := 0; y < cpu.DisplayHeight; y++ {
		for x := 0; x < cpu.DisplayWidth; x++ {
			if !d[y*cpu.DisplayWidth+x] {
				continue
			}
			r := pixelRect(x, y, w.scale)
			w.imd.Push(r.Min, r.Max)
			w.imd.Rectangle(0)
		}
	}

	w.Clear(w.off)
	w.imd.Draw(w)
	w.Update()
	return nil
}

func (w *Window) Close() error {
	w.Destroy()
	return nil
}
