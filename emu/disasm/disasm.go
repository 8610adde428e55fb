// Package disasm turns CHIP-8 instruction words into readable assembly.
// Instruction names come from the retrogolib CHIP-8 opcode tables.
package disasm

import (
	"fmt"
	"io"

	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// dataName is used for words that do not decode to a known instruction.
const dataName = "db"

// Instruction is a decoded instruction word.
type Instruction struct {
	Opcode   uint16
	Name     string
	Operands string
}

func (i Instruction) String() string {
	if i.Operands == "" {
		return i.Name
	}
	return i.Name + " " + i.Operands
}

// Decode decodes a single instruction word.
func Decode(w uint16) Instruction {
	ins := Instruction{Opcode: w}

	op, ok := lookup(w)
	if !ok {
		ins.Name = dataName
		ins.Operands = fmt.Sprintf("0x%04X", w)
		return ins
	}
	ins.Name = op.Instruction.Name
	ins.Operands = operands(w)
	return ins
}

// lookup finds the opcode table entry matching w, keyed by its first nibble.
func lookup(w uint16) (chip8.Opcode, bool) {
	firstNibble := (w & 0xF000) >> 12
	for _, op := range chip8.Opcodes[int(firstNibble)] {
		if op.Instruction != nil && op.Info.Mask&w == op.Info.Value {
			return op, true
		}
	}
	return chip8.Opcode{}, false
}

// operands formats the operand fields of w in the conventional CHIP-8
// assembly syntax.
func operands(w uint16) string {
	x := (w & 0x0F00) >> 8
	y := (w & 0x00F0) >> 4
	n := w & 0x000F
	kk := w & 0x00FF
	nnn := w & 0x0FFF

	switch w & 0xF000 {
	case 0x0000:
		if w == 0x00E0 || w == 0x00EE {
			return ""
		}
		return fmt.Sprintf("0x%03X", nnn)
	case 0x1000, 0x2000:
		return fmt.Sprintf("0x%03X", nnn)
	case 0x3000, 0x4000, 0x6000, 0x7000, 0xC000:
		return fmt.Sprintf("V%X, 0x%02X", x, kk)
	case 0x5000, 0x8000, 0x9000:
		return fmt.Sprintf("V%X, V%X", x, y)
	case 0xA000:
		return fmt.Sprintf("I, 0x%03X", nnn)
	case 0xB000:
		return fmt.Sprintf("V0, 0x%03X", nnn)
	case 0xD000:
		return fmt.Sprintf("V%X, V%X, %d", x, y, n)
	case 0xE000:
		return fmt.Sprintf("V%X", x)
	}

	switch kk {
	case 0x07:
		return fmt.Sprintf("V%X, DT", x)
	case 0x0A:
		return fmt.Sprintf("V%X, K", x)
	case 0x15:
		return fmt.Sprintf("DT, V%X", x)
	case 0x18:
		return fmt.Sprintf("ST, V%X", x)
	case 0x1E:
		return fmt.Sprintf("I, V%X", x)
	case 0x29:
		return fmt.Sprintf("F, V%X", x)
	case 0x33:
		return fmt.Sprintf("B, V%X", x)
	case 0x55:
		return fmt.Sprintf("[I], V%X", x)
	case 0x65:
		return fmt.Sprintf("V%X, [I]", x)
	}
	return fmt.Sprintf("V%X", x)
}

// Disassemble writes one line per instruction word of rom, addressed from
// base. An odd trailing byte is written as data.
func Disassemble(w io.Writer, rom []byte, base uint16) error {
	for i := 0; i < len(rom); i += 2 {
		addr := int(base) + i
		if i+1 == len(rom) {
			if _, err := fmt.Fprintf(w, "0x%04X  %02X    %s 0x%02X\n", addr, rom[i], dataName, rom[i]); err != nil {
				return fmt.Errorf("writing data byte at %04x: %w", addr, err)
			}
			break
		}

		word := uint16(rom[i])<<8 | uint16(rom[i+1])
		ins := Decode(word)
		if _, err := fmt.Fprintf(w, "0x%04X  %04X  %s\n", addr, word, ins); err != nil {
			return fmt.Errorf("writing instruction at %04x: %w", addr, err)
		}
	}
	return nil
}
