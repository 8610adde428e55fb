// Package audio plays the buzzer while the sound timer runs, either as a
// generated square wave or as a looped mp3 file.
package audio

import (
	"fmt"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

const (
	DefaultSampleRate = beep.SampleRate(44100)
	DefaultTone       = 440

	volume = 0.2
)

type Options struct {
	SampleRate beep.SampleRate
	Tone       int    // square wave frequency in Hz
	File       string // optional mp3 played instead of the square wave
}

// Beeper owns the speaker. Only one Beeper can exist per process.
type Beeper struct {
	ctrl   *beep.Ctrl
	closer func() error
}

func New(opts Options) (*Beeper, error) {
	sr := opts.SampleRate
	if sr == 0 {
		sr = DefaultSampleRate
	}
	tone := opts.Tone
	if tone <= 0 {
		tone = DefaultTone
	}

	var (
		streamer beep.Streamer
		closer   func() error
	)
	if opts.File != "" {
		f, err := os.Open(opts.File)
		if err != nil {
			return nil, fmt.Errorf("opening sound file: %w", err)
		}
		s, format, err := mp3.Decode(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("decoding sound file %s: %w", opts.File, err)
		}
		sr = format.SampleRate
		streamer = beep.Loop(-1, s)
		closer = s.Close
	} else {
		streamer = SquareWave(sr, tone, volume)
	}

	if err := speaker.Init(sr, sr.N(time.Second/10)); err != nil {
		if closer != nil {
			_ = closer()
		}
		return nil, fmt.Errorf("initializing speaker: %w", err)
	}

	ctrl := &beep.Ctrl{Streamer: streamer, Paused: true}
	speaker.Play(ctrl)
	return &Beeper{ctrl: ctrl, closer: closer}, nil
}

// Set starts or pauses the tone.
func (b *Beeper) Set(on bool) {
	speaker.Lock()
	b.ctrl.Paused = !on
	speaker.Unlock()
}

func (b *Beeper) Close() error {
	speaker.Lock()
	b.ctrl.Paused = true
	b.ctrl.Streamer = nil
	speaker.Unlock()

	if b.closer != nil {
		return b.closer()
	}
	return nil
}

// SquareWave returns an endless square wave of freq Hz at the given volume.
func SquareWave(sr beep.SampleRate, freq int, volume float64) beep.Streamer {
	period := float64(sr) / float64(freq)
	var pos float64

	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			v := volume
			if pos >= period/2 {
				v = -volume
			}
			samples[i][0], samples[i][1] = v, v

			pos++
			if pos >= period {
				pos -= period
			}
		}
		return len(samples), true
	})
}
