package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/chyp8/chyp8/emu/cpu"
	"github.com/chyp8/chyp8/emu/disasm"
	"github.com/retroenv/retrogolib/log"
	"github.com/spf13/cobra"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm `path/ROM`",
	Short: "print the instructions of a ROM",
	Args:  cobra.ExactArgs(1),
	RunE:  Disasm,
}

var disasmOutput string

func init() {
	rootCmd.AddCommand(disasmCmd)
	disasmCmd.Flags().StringVarP(&disasmOutput, "output", "o", "", "write the listing to this file instead of stdout")
}

func Disasm(cmd *cobra.Command, args []string) (err error) {
	rom, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading ROM: %w", err)
	}
	if len(rom) > cpu.MaxRomSize {
		logger.Warn("ROM does not fit into program memory",
			log.Int("size", len(rom)),
			log.Int("max", cpu.MaxRomSize))
	}

	var w io.Writer = cmd.OutOrStdout()
	if disasmOutput != "" {
		f, cerr := os.Create(disasmOutput)
		if cerr != nil {
			return fmt.Errorf("creating output file: %w", cerr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing output file: %w", cerr)
			}
		}()
		w = f
	}

	if err := disasm.Disassemble(w, rom, cpu.ProgramStart); err != nil {
		return fmt.Errorf("writing listing: %w", err)
	}
	logger.Debug("ROM disassembled", log.String("rom", args[0]), log.Int("size", len(rom)))
	return nil
}
