// Package cmd implements the chyp8 command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/chyp8/chyp8/emu/config"
	"github.com/retroenv/retrogolib/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	debug   bool
	quiet   bool

	logger *log.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "chyp8 [command]",
	Short: "Chip-8 emulator using Go",
	Long: "A Chip-8 emulator written from scratch that mimics the functionalities of a Chip-8, " +
		"an interpreted language originally written for the COSMAC VIP / Telmac 8 bit systems.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.chyp8.yaml)")
	flags.BoolVar(&debug, "debug", false, "enable debug logging")
	flags.BoolVarP(&quiet, "quiet", "q", false, "only log errors")
}

// Execute runs the command line and exits with status 1 on failure.
func Execute(version, commit, date string) {
	setVersion(version, commit, date)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	logger = createLogger(debug, quiet)
	return initConfig()
}

// createLogger creates a logger with the level picked by the flags.
func createLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	v := viper.GetViper()
	if err := config.Init(v, cfgFile); err != nil {
		return err
	}

	found, err := config.ReadFile(v)
	if err != nil {
		return err
	}
	if found {
		logger.Debug("Using config file", log.String("path", v.ConfigFileUsed()))
	}
	return nil
}
