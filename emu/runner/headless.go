package runner

import (
	"strings"

	"github.com/chyp8/chyp8/emu/cpu"
)

// Headless is a Frontend without input or output. It keeps the last frame.
type Headless struct {
	Last   cpu.Display
	Frames int
}

func (h *Headless) Poll(keys *[cpu.NumKeys]bool) bool {
	return false
}

func (h *Headless) Present(d cpu.Display) error {
	h.Last = d
	h.Frames++
	return nil
}

func (h *Headless) Close() error {
	return nil
}

// Render draws d as text, '#' for lit and '.' for dark pixels, one line per row.
func Render(d cpu.Display) string {
	var sb strings.Builder
	sb.Grow((cpu.DisplayWidth + 1) * cpu.DisplayHeight)
	for y := 0; y < cpu.DisplayHeight; y++ {
		for x := 0; x < cpu.DisplayWidth; x++ {
			if d[y*cpu.DisplayWidth+x] {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
