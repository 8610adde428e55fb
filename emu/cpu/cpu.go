// Package cpu implements the CHIP-8 interpreter core: memory, registers,
// call stack, timers, keypad and frame buffer, and the fetch-decode-execute
// cycle that drives them.
package cpu

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/chyp8/chyp8/emu/disasm"
	"github.com/retroenv/retrogolib/log"
)

const (
	MemorySize    = 4096
	ProgramStart  = 0x200
	FontStart     = 0x050
	DisplayWidth  = 64
	DisplayHeight = 32
	StackDepth    = 16
	NumKeys       = 16

	// MaxRomSize is the room between ProgramStart and the end of memory.
	MaxRomSize = MemorySize - ProgramStart

	flagRegister = 0xF
	addressMask  = 0x0FFF
	maxIndex     = 0xFFFF
)

// Display is the monochrome frame buffer, row major, one bool per pixel.
type Display [DisplayWidth * DisplayHeight]bool

// State is a snapshot of the machine registers, used for diagnostics.
type State struct {
	PC         uint16
	I          uint16
	SP         uint8
	V          [16]uint8
	Stack      [StackDepth]uint16
	Opcode     uint16
	DelayTimer uint8
	SoundTimer uint8
}

// EMU is a single CHIP-8 machine. It is not safe for concurrent use.
type EMU struct {
	opcode     uint16 // most recently fetched instruction
	memory     [MemorySize]uint8
	V          [16]uint8
	I          uint16 // address register
	pc         uint16
	display    Display
	delayTimer uint8
	soundTimer uint8
	stack      [StackDepth]uint16
	sp         uint8
	keyState   [NumKeys]bool // tells whether key is pressed or not
	drawn      bool          // display changed during the last cycle
	loaded     bool
	fault      error // set once the machine halted on a fault

	rng    *rand.Rand
	logger *log.Logger
	trace  bool
}

// Option configures an EMU.
type Option func(*EMU)

// WithRand sets the random source used by Cxkk.
func WithRand(src rand.Source) Option {
	return func(e *EMU) {
		e.rng = rand.New(src)
	}
}

// WithLogger sets the logger used for load and trace messages.
func WithLogger(logger *log.Logger) Option {
	return func(e *EMU) {
		e.logger = logger
	}
}

// WithTrace enables logging of every executed instruction at debug level.
func WithTrace(trace bool) Option {
	return func(e *EMU) {
		e.trace = trace
	}
}

// ErrNoROM is returned by Step when no program has been loaded.
var ErrNoROM = errors.New("no ROM loaded")

// NewEMU returns a powered on machine with the font loaded and no program.
func NewEMU(opts ...Option) *EMU {
	emu := &EMU{}
	for _, opt := range opts {
		opt(emu)
	}
	if emu.rng == nil {
		emu.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	emu.Reset()
	return emu
}

// Reset puts the machine back into its unloaded power on state.
func (emu *EMU) Reset() {
	emu.opcode = 0
	emu.memory = [MemorySize]uint8{}
	emu.V = [16]uint8{}
	emu.I = 0
	emu.pc = ProgramStart
	emu.display = Display{}
	emu.delayTimer = 0
	emu.soundTimer = 0
	emu.stack = [StackDepth]uint16{}
	emu.sp = 0
	emu.keyState = [NumKeys]bool{}
	emu.drawn = false
	emu.loaded = false
	emu.fault = nil
	emu.loadFont()
}

func (emu *EMU) loadFont() {
	copy(emu.memory[FontStart:], FontSet[:])
}

// Load resets the machine and copies rom into memory at ProgramStart.
// A rom that does not fit leaves the machine reset and unloaded.
func (emu *EMU) Load(rom []byte) error {
	emu.Reset()
	if len(rom) > MaxRomSize {
		return RomTooLarge{Size: len(rom), Max: MaxRomSize}
	}

	copy(emu.memory[ProgramStart:], rom)
	emu.loaded = true

	if emu.logger != nil {
		emu.logger.Debug("ROM loaded",
			log.String("address", fmt.Sprintf("0x%03X", ProgramStart)),
			log.Int("size", len(rom)))
	}
	return nil
}

// LoadROM reads the file at filename and loads it.
func (emu *EMU) LoadROM(filename string) error {
	rom, err := os.ReadFile(filename)
	if err != nil {
		emu.Reset()
		return fmt.Errorf("reading ROM: %w", err)
	}
	if err := emu.Load(rom); err != nil {
		return fmt.Errorf("loading ROM %s: %w", filename, err)
	}
	return nil
}

// Step runs one cycle: fetch, decode and execute one instruction, then
// decrement both timers. A fault halts the machine; the faulting
// instruction has no effect and every later Step returns the same error
// until Reset or Load.
func (emu *EMU) Step() error {
	if emu.fault != nil {
		return emu.fault
	}
	if !emu.loaded {
		return ErrNoROM
	}
	emu.drawn = false

	emu.opcode = 0
	if err := emu.checkAccess(emu.pc, 2); err != nil {
		return emu.halt(err)
	}
	op := opcode(uint16(emu.memory[emu.pc])<<8 | uint16(emu.memory[emu.pc+1]))
	emu.opcode = uint16(op)

	ins := decode(op)
	if emu.trace && emu.logger != nil {
		emu.logger.Debug("exec",
			log.String("pc", fmt.Sprintf("0x%03X", emu.pc)),
			log.String("opcode", fmt.Sprintf("%04X", emu.opcode)),
			log.String("instr", disasm.Decode(emu.opcode).String()))
	}

	if ins.exec != nil {
		if err := ins.exec(emu, op); err != nil {
			return emu.halt(err)
		}
	}
	if !ins.flow {
		emu.pc += 2
	}

	emu.delayTimerHandler()
	emu.soundTimerHandler()
	return nil
}

func (emu *EMU) halt(err error) error {
	emu.fault = err
	return err
}

func (emu *EMU) delayTimerHandler() {
	if emu.delayTimer > 0 {
		emu.delayTimer--
	}
}

func (emu *EMU) soundTimerHandler() {
	if emu.soundTimer > 0 {
		emu.soundTimer--
	}
}

// checkAccess verifies that n bytes starting at addr lie inside memory.
func (emu *EMU) checkAccess(addr uint16, n int) error {
	if int(addr)+n > MemorySize {
		return MemoryFault{PC: emu.pc, Opcode: emu.opcode, Addr: addr, Len: n}
	}
	return nil
}

// SetKey updates the pressed state of a keypad key. Keys above 0xF are ignored.
func (emu *EMU) SetKey(key uint8, pressed bool) {
	if int(key) < NumKeys {
		emu.keyState[key] = pressed
	}
}

// SetKeys replaces the whole keypad state.
func (emu *EMU) SetKeys(keys [NumKeys]bool) {
	emu.keyState = keys
}

// Keys returns the current keypad state.
func (emu *EMU) Keys() [NumKeys]bool {
	return emu.keyState
}

// Display returns a copy of the frame buffer.
func (emu *EMU) Display() Display {
	return emu.display
}

// Pixel reports whether the pixel at x, y is lit. Coordinates outside the
// screen are never lit.
func (emu *EMU) Pixel(x, y int) bool {
	if x < 0 || x >= DisplayWidth || y < 0 || y >= DisplayHeight {
		return false
	}
	return emu.display[y*DisplayWidth+x]
}

// Drawn reports whether the last cycle changed the frame buffer.
func (emu *EMU) Drawn() bool {
	return emu.drawn
}

// DelayTimer returns the current delay timer value.
func (emu *EMU) DelayTimer() uint8 {
	return emu.delayTimer
}

// SoundTimer returns the current sound timer value.
func (emu *EMU) SoundTimer() uint8 {
	return emu.soundTimer
}

// Sounding reports whether the tone should be playing.
func (emu *EMU) Sounding() bool {
	return emu.soundTimer > 0
}

// Loaded reports whether a program is loaded.
func (emu *EMU) Loaded() bool {
	return emu.loaded
}

// Fault returns the error that halted the machine, if any.
func (emu *EMU) Fault() error {
	return emu.fault
}

// Peek returns the byte stored at addr.
func (emu *EMU) Peek(addr uint16) (uint8, error) {
	if err := emu.checkAccess(addr, 1); err != nil {
		return 0, err
	}
	return emu.memory[addr], nil
}

// State returns a snapshot of the registers.
func (emu *EMU) State() State {
	return State{
		PC:         emu.pc,
		I:          emu.I,
		SP:         emu.sp,
		V:          emu.V,
		Stack:      emu.stack,
		Opcode:     emu.opcode,
		DelayTimer: emu.delayTimer,
		SoundTimer: emu.soundTimer,
	}
}
