package cmd

import (
	"fmt"

	"github.com/chyp8/chyp8/emu/audio"
	"github.com/chyp8/chyp8/emu/config"
	"github.com/chyp8/chyp8/emu/cpu"
	"github.com/chyp8/chyp8/emu/runner"
	"github.com/chyp8/chyp8/emu/screen"
	"github.com/chyp8/chyp8/emu/term"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/image/colornames"
)

var startCmd = &cobra.Command{
	Use:   "start `path/ROM`",
	Short: "load and start the Emulator",
	Args:  cobra.ExactArgs(1),
	RunE:  Start,
}

var mute bool

func init() {
	rootCmd.AddCommand(startCmd)

	flags := startCmd.Flags()
	flags.IntP(config.KeyClock, "c", 60, "instructions executed per second")
	flags.IntP(config.KeyScale, "s", 10, "window pixels per CHIP-8 pixel")
	flags.StringP(config.KeyFrontend, "f", config.FrontendWindow, "frontend: window, terminal or headless")
	flags.Bool(config.KeyTrace, false, "log every executed instruction, needs --debug")
	flags.Int(config.KeyCycles, 0, "stop after this many cycles, 0 runs until quit")
	flags.BoolVarP(&mute, "mute", "m", false, "disable sound")

	for _, key := range []string{config.KeyClock, config.KeyScale, config.KeyFrontend, config.KeyTrace, config.KeyCycles} {
		cobra.CheckErr(viper.BindPFlag(key, flags.Lookup(key)))
	}
}

// chyp8 start 'path/to/ROM' -c 500
func Start(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	if mute {
		cfg.Sound = false
	}
	romPath := args[0]

	emu := cpu.NewEMU(cpu.WithLogger(logger), cpu.WithTrace(cfg.Trace))
	if err := emu.LoadROM(romPath); err != nil {
		return err
	}

	fe, err := newFrontend(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := fe.Close(); err != nil {
			logger.Error("Closing frontend failed", log.Err(err))
		}
	}()

	sp, closeSpeaker := newSpeaker(cfg)
	defer closeSpeaker()

	logger.Info("Starting emulation",
		log.String("rom", romPath),
		log.Int("clock", cfg.Clock),
		log.String("frontend", cfg.Frontend))

	stats, err := runner.Run(app.Context(), emu, fe, sp, runner.Options{
		Interval:  cfg.CycleInterval(),
		MaxCycles: cfg.Cycles,
		Logger:    logger,
	})
	logger.Info("Emulation stopped", log.Int("cycles", stats.Cycles), log.Int("frames", stats.Frames))
	if err != nil {
		return fmt.Errorf("running %s: %w", romPath, err)
	}

	if cfg.Frontend == config.FrontendHeadless {
		fmt.Fprint(cmd.OutOrStdout(), runner.Render(emu.Display()))
	}
	return nil
}

func newFrontend(cfg config.Config) (runner.Frontend, error) {
	on, off := colornames.Map[cfg.OnColor], colornames.Map[cfg.OffColor]

	switch cfg.Frontend {
	case config.FrontendTerminal:
		t, err := term.New(term.Options{
			On:  term.Attribute(on),
			Off: term.Attribute(off),
		})
		if err != nil {
			return nil, err
		}
		return t, nil
	case config.FrontendHeadless:
		return &runner.Headless{}, nil
	default:
		w, err := screen.NewWindow(screen.Options{
			Title: "chyp8",
			Scale: cfg.Scale,
			On:    on,
			Off:   off,
		})
		if err != nil {
			return nil, err
		}
		return w, nil
	}
}

// newSpeaker falls back to silence when sound is off or the audio device
// cannot be opened.
func newSpeaker(cfg config.Config) (runner.Speaker, func()) {
	nop := func() {}
	if !cfg.Sound || cfg.Frontend == config.FrontendHeadless {
		return runner.NopSpeaker{}, nop
	}

	beeper, err := audio.New(audio.Options{
		Tone: cfg.Tone,
		File: cfg.SoundFile,
	})
	if err != nil {
		logger.Warn("Sound disabled", log.Err(err))
		return runner.NopSpeaker{}, nop
	}

	return beeper, func() {
		if err := beeper.Close(); err != nil {
			logger.Error("Closing audio failed", log.Err(err))
		}
	}
}
