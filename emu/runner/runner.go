// Package runner drives an interpreter at a fixed cadence, moving keypad
// state in from a frontend and frames and sound out to it.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/chyp8/chyp8/emu/cpu"
	"github.com/retroenv/retrogolib/log"
)

// Frontend presents frames and supplies keypad state.
type Frontend interface {
	// Poll updates keys with the current keypad state and reports whether
	// the user asked to quit.
	Poll(keys *[cpu.NumKeys]bool) (quit bool)
	// Present shows a frame.
	Present(d cpu.Display) error
	Close() error
}

// Speaker plays the tone while the sound timer is running.
type Speaker interface {
	Set(on bool)
}

// NopSpeaker is a Speaker that stays silent.
type NopSpeaker struct{}

func (NopSpeaker) Set(bool) {}

type Options struct {
	// Interval between two cycles, 0 runs unthrottled.
	Interval time.Duration
	// MaxCycles stops the run after that many cycles, 0 runs until quit.
	MaxCycles int
	Logger    *log.Logger
}

// Stats describes a finished run.
type Stats struct {
	Cycles int
	Frames int
}

// Run steps emu until the frontend quits, ctx is cancelled, MaxCycles is
// reached or the machine faults. Only a fault is returned as an error.
func Run(ctx context.Context, emu *cpu.EMU, fe Frontend, sp Speaker, opts Options) (Stats, error) {
	var stats Stats

	var tick <-chan time.Time
	if opts.Interval > 0 {
		ticker := time.NewTicker(opts.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	keys := emu.Keys()
	sounding := false
	defer func() {
		if sounding {
			sp.Set(false)
		}
	}()

	for {
		if opts.MaxCycles > 0 && stats.Cycles >= opts.MaxCycles {
			return stats, nil
		}

		if tick != nil {
			select {
			case <-ctx.Done():
				return stats, nil
			case <-tick:
			}
		} else {
			select {
			case <-ctx.Done():
				return stats, nil
			default:
			}
		}

		if fe.Poll(&keys) {
			if opts.Logger != nil {
				opts.Logger.Debug("Quit requested", log.Int("cycles", stats.Cycles))
			}
			return stats, nil
		}
		emu.SetKeys(keys)

		if err := emu.Step(); err != nil {
			return stats, fmt.Errorf("cycle %d: %w", stats.Cycles, err)
		}
		stats.Cycles++

		if emu.Drawn() {
			if err := fe.Present(emu.Display()); err != nil {
				return stats, fmt.Errorf("presenting frame: %w", err)
			}
			stats.Frames++
		}

		if on := emu.Sounding(); on != sounding {
			sounding = on
			sp.Set(on)
		}
	}
}
