package cpu

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-test/deep"
	"github.com/retroenv/retrogolib/assert"
)

func TestRegisterInstructions(t *testing.T) {
	tests := []struct {
		name    string
		program []uint16
		want    map[uint8]uint8 // register index to expected value
	}{
		{
			name:    "6xkk 7xkk wraps at 8 bits",
			program: []uint16{0x6105, 0x7110, 0x71F8},
			want:    map[uint8]uint8{0x1: 0x0D},
		},
		{
			name:    "7xkk leaves VF alone",
			program: []uint16{0x6FAA, 0x61FF, 0x7102},
			want:    map[uint8]uint8{0x1: 0x01, 0xF: 0xAA},
		},
		{
			name:    "8xy0 copy",
			program: []uint16{0x6242, 0x8120},
			want:    map[uint8]uint8{0x1: 0x42, 0x2: 0x42},
		},
		{
			name:    "8xy1 or",
			program: []uint16{0x61F0, 0x620F, 0x8121},
			want:    map[uint8]uint8{0x1: 0xFF},
		},
		{
			name:    "8xy2 and",
			program: []uint16{0x61F3, 0x623F, 0x8122},
			want:    map[uint8]uint8{0x1: 0x33},
		},
		{
			name:    "8xy3 xor",
			program: []uint16{0x61FF, 0x620F, 0x8123},
			want:    map[uint8]uint8{0x1: 0xF0},
		},
		{
			name:    "8xy4 carry",
			program: []uint16{0x61C8, 0x6264, 0x8124},
			want:    map[uint8]uint8{0x1: 44, 0xF: 1},
		},
		{
			name:    "8xy4 no carry",
			program: []uint16{0x610A, 0x6214, 0x8124},
			want:    map[uint8]uint8{0x1: 30, 0xF: 0},
		},
		{
			name:    "8xy4 flag wins over VF destination",
			program: []uint16{0x6FC8, 0x6164, 0x8F14},
			want:    map[uint8]uint8{0xF: 1},
		},
		{
			name:    "8xy5 no borrow",
			program: []uint16{0x6132, 0x6214, 0x8125},
			want:    map[uint8]uint8{0x1: 30, 0xF: 1},
		},
		{
			name:    "8xy5 borrow",
			program: []uint16{0x6114, 0x6232, 0x8125},
			want:    map[uint8]uint8{0x1: 226, 0xF: 0},
		},
		{
			name:    "8xy5 equal operands borrow flag clear",
			program: []uint16{0x6120, 0x6220, 0x8125},
			want:    map[uint8]uint8{0x1: 0, 0xF: 0},
		},
		{
			name:    "8xy6 shift right",
			program: []uint16{0x6105, 0x8126},
			want:    map[uint8]uint8{0x1: 0x02, 0xF: 1},
		},
		{
			name:    "8xy6 shift right even",
			program: []uint16{0x6FFF, 0x6104, 0x8106},
			want:    map[uint8]uint8{0x1: 0x02, 0xF: 0},
		},
		{
			name:    "8xy7 no borrow",
			program: []uint16{0x6114, 0x6232, 0x8127},
			want:    map[uint8]uint8{0x1: 30, 0xF: 1},
		},
		{
			name:    "8xy7 borrow",
			program: []uint16{0x6132, 0x6214, 0x8127},
			want:    map[uint8]uint8{0x1: 226, 0xF: 0},
		},
		{
			name:    "8xy7 equal operands borrow flag clear",
			program: []uint16{0x6120, 0x6220, 0x8127},
			want:    map[uint8]uint8{0x1: 0, 0xF: 0},
		},
		{
			name:    "8xyE shift left",
			program: []uint16{0x6181, 0x812E},
			want:    map[uint8]uint8{0x1: 0x02, 0xF: 1},
		},
		{
			name:    "8xyE shift left no carry",
			program: []uint16{0x6141, 0x812E},
			want:    map[uint8]uint8{0x1: 0x82, 0xF: 0},
		},
		{
			name:    "8xy5 flag wins over VF destination",
			program: []uint16{0x6F32, 0x6114, 0x8F15},
			want:    map[uint8]uint8{0x1: 20, 0xF: 1},
		},
		{
			name:    "8xy6 flag wins over VF destination",
			program: []uint16{0x6FFE, 0x8F06},
			want:    map[uint8]uint8{0xF: 0},
		},
		{
			name:    "8xy7 flag wins over VF destination",
			program: []uint16{0x6F14, 0x6132, 0x8F17},
			want:    map[uint8]uint8{0x1: 50, 0xF: 1},
		},
		{
			name:    "8xyE flag wins over VF destination",
			program: []uint16{0x6F41, 0x8F0E},
			want:    map[uint8]uint8{0xF: 0},
		},
		{
			name:    "Fx07 reads delay timer after tick",
			program: []uint16{0x6109, 0xF115, 0xF207},
			want:    map[uint8]uint8{0x2: 0x08},
		},
		{
			name:    "undefined 8xy8 is a no-op",
			program: []uint16{0x6101, 0x6202, 0x8128},
			want:    map[uint8]uint8{0x1: 0x01, 0x2: 0x02, 0xF: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emu := setup(t, tt.program...)
			step(t, emu, len(tt.program))

			state := emu.State()
			assert.Equal(t, uint16(ProgramStart+2*len(tt.program)), state.PC)
			for reg, want := range tt.want {
				if got := state.V[reg]; got != want {
					t.Errorf("V%X: got %02X want %02X\nstate: %s", reg, got, want, spew.Sdump(state))
				}
			}
		})
	}
}

func TestControlFlow(t *testing.T) {
	tests := []struct {
		name    string
		program []uint16
		steps   int
		pc      uint16
	}{
		{name: "1nnn jump", program: []uint16{0x1ABC}, steps: 1, pc: 0xABC},
		{name: "3xkk taken", program: []uint16{0x6133, 0x3133}, steps: 2, pc: 0x206},
		{name: "3xkk not taken", program: []uint16{0x6133, 0x3134}, steps: 2, pc: 0x204},
		{name: "4xkk taken", program: []uint16{0x6133, 0x4134}, steps: 2, pc: 0x206},
		{name: "4xkk not taken", program: []uint16{0x6133, 0x4133}, steps: 2, pc: 0x204},
		{name: "5xy0 taken", program: []uint16{0x6107, 0x6207, 0x5120}, steps: 3, pc: 0x208},
		{name: "5xy0 not taken", program: []uint16{0x6107, 0x6208, 0x5120}, steps: 3, pc: 0x206},
		{name: "9xy0 taken", program: []uint16{0x6107, 0x6208, 0x9120}, steps: 3, pc: 0x208},
		{name: "9xy0 not taken", program: []uint16{0x6107, 0x6207, 0x9120}, steps: 3, pc: 0x206},
		{name: "Bnnn adds V0", program: []uint16{0x6004, 0xB300}, steps: 2, pc: 0x304},
		{name: "Bnnn target masked to 12 bits", program: []uint16{0x60FF, 0xBFFF}, steps: 2, pc: 0x0FE},
		{name: "5xyn ignores the low nibble", program: []uint16{0x5121}, steps: 1, pc: 0x204},
		{name: "legacy 0nnn is a no-op", program: []uint16{0x0123}, steps: 1, pc: 0x202},
		{name: "undefined ExFF is a no-op", program: []uint16{0xE1F5}, steps: 1, pc: 0x202},
		{name: "undefined FxFF is a no-op", program: []uint16{0xF1FF}, steps: 1, pc: 0x202},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emu := setup(t, tt.program...)
			step(t, emu, tt.steps)
			assert.Equal(t, tt.pc, emu.State().PC)
		})
	}
}

func TestCallReturn(t *testing.T) {
	emu := setup(t,
		0x2206, // 200: call 206
		0x6101, // 202: V1 = 1
		0x1204, // 204: spin
		0x6202, // 206: V2 = 2
		0x00EE, // 208: return
	)

	step(t, emu, 1)
	state := emu.State()
	assert.Equal(t, uint16(0x206), state.PC)
	assert.Equal(t, uint8(1), state.SP)
	assert.Equal(t, uint16(0x202), state.Stack[0])

	step(t, emu, 3)
	state = emu.State()
	assert.Equal(t, uint16(0x204), state.PC)
	assert.Equal(t, uint8(0), state.SP)
	assert.Equal(t, uint8(1), state.V[1])
	assert.Equal(t, uint8(2), state.V[2])
}

func TestRandom(t *testing.T) {
	emu := setup(t, 0xC10F, 0xC200, 0xC3FF)
	step(t, emu, 3)

	// setup seeds the machine with source 1.
	rnd := rand.New(rand.NewSource(1))
	first := uint8(rnd.Intn(256))
	rnd.Intn(256)
	third := uint8(rnd.Intn(256))

	state := emu.State()
	assert.Equal(t, first&0x0F, state.V[1])
	assert.Equal(t, uint8(0), state.V[2])
	assert.Equal(t, third, state.V[3])
}

func TestIndexInstructions(t *testing.T) {
	tests := []struct {
		name    string
		program []uint16
		i       uint16
	}{
		{name: "Annn", program: []uint16{0xA123}, i: 0x123},
		{name: "Fx1E", program: []uint16{0xA123, 0x6510, 0xF51E}, i: 0x133},
		{name: "Fx1E past 12 bits", program: []uint16{0xAFFF, 0x65FF, 0xF51E}, i: 0x10FE},
		{name: "Fx29 digit A", program: []uint16{0x650A, 0xF529}, i: FontStart + 5*0xA},
		{name: "Fx29 uses low nibble", program: []uint16{0x651F, 0xF529}, i: FontStart + 5*0xF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emu := setup(t, tt.program...)
			step(t, emu, len(tt.program))
			assert.Equal(t, tt.i, emu.State().I)
		})
	}
}

func TestIndexSaturatesPastMemory(t *testing.T) {
	emu := setup(t,
		0xAFFF, // 200: I = 0xFFF
		0x60FF, // 202: V0 = 255
		0xF01E, // 204: I += V0
		0x1204, // 206: loop
	)
	// 241 adds reach 0xFFFF, the rest must not wrap back into memory.
	step(t, emu, 2+2*300)
	assert.Equal(t, uint16(0xFFFF), emu.State().I)
}

func TestBCD(t *testing.T) {
	tests := []struct {
		value uint8
		want  [3]uint8
	}{
		{value: 156, want: [3]uint8{1, 5, 6}},
		{value: 0, want: [3]uint8{0, 0, 0}},
		{value: 9, want: [3]uint8{0, 0, 9}},
		{value: 40, want: [3]uint8{0, 4, 0}},
		{value: 255, want: [3]uint8{2, 5, 5}},
	}

	for _, tt := range tests {
		emu := setup(t, 0x6100|uint16(tt.value), 0xA300, 0xF133)
		step(t, emu, 3)

		var got [3]uint8
		for i := range got {
			b, err := emu.Peek(0x300 + uint16(i))
			assert.NoError(t, err)
			got[i] = b
		}
		if diff := deep.Equal(got, tt.want); diff != nil {
			t.Errorf("BCD of %d: %v", tt.value, diff)
		}
		assert.Equal(t, uint16(0x300), emu.State().I)
	}
}

func TestRegisterBlockTransfer(t *testing.T) {
	emu := setup(t,
		0x6011, 0x6122, 0x6233, 0x6344, 0x6455, // V0..V4
		0xA300, // I = 300
		0xF355, // store V0..V3
		0x6000, 0x6100, 0x6200, 0x6300, 0x6400, // clear
		0xF265, // load V0..V2
	)
	step(t, emu, 13)

	stored := make([]uint8, 5)
	for i := range stored {
		b, err := emu.Peek(0x300 + uint16(i))
		assert.NoError(t, err)
		stored[i] = b
	}
	if diff := deep.Equal(stored, []uint8{0x11, 0x22, 0x33, 0x44, 0x00}); diff != nil {
		t.Errorf("stored registers: %v", diff)
	}

	state := emu.State()
	if diff := deep.Equal(state.V[:5], []uint8{0x11, 0x22, 0x33, 0x00, 0x00}); diff != nil {
		t.Errorf("loaded registers: %v", diff)
	}
	assert.Equal(t, uint16(0x300), state.I)
}

func TestMemoryFaults(t *testing.T) {
	tests := []struct {
		name    string
		program []uint16
		addr    uint16
		length  int
	}{
		{name: "Fx33 at end of memory", program: []uint16{0xAFFE, 0xF133}, addr: 0xFFE, length: 3},
		{name: "Fx55 past end of memory", program: []uint16{0xAFFC, 0xF455}, addr: 0xFFC, length: 5},
		{name: "Fx65 with I past 12 bits", program: []uint16{0xAFFF, 0x6101, 0xF11E, 0xF065}, addr: 0x1000, length: 1},
		{name: "Dxyn sprite past end of memory", program: []uint16{0xAFFD, 0xD005}, addr: 0xFFD, length: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emu := setup(t, tt.program...)
			step(t, emu, len(tt.program)-1)
			before := emu.State()
			before.Opcode = tt.program[len(tt.program)-1]

			err := emu.Step()
			var fault MemoryFault
			if !errors.As(err, &fault) {
				t.Fatalf("expected memory fault, got %v\nstate: %s", err, spew.Sdump(emu.State()))
			}
			assert.Equal(t, tt.addr, fault.Addr)
			assert.Equal(t, tt.length, fault.Len)
			assert.Equal(t, before.PC, fault.PC)
			assert.Equal(t, tt.program[len(tt.program)-1], fault.Opcode)

			if diff := deep.Equal(emu.State(), before); diff != nil {
				t.Errorf("faulting instruction changed state: %v", diff)
			}
			assert.Equal(t, Display{}, emu.Display())
		})
	}
}

// glyphRows returns the pixels lit by drawing glyph digit at x, y.
func glyphRows(digit, x, y int) Display {
	var d Display
	for row := 0; row < glyphSize; row++ {
		b := FontSet[digit*glyphSize+row]
		for col := 0; col < 8; col++ {
			if b&(0x80>>col) != 0 {
				d[(y+row)*DisplayWidth+x+col] = true
			}
		}
	}
	return d
}

func TestDrawTwiceErases(t *testing.T) {
	emu := setup(t,
		0x600A, // V0 = digit A
		0xF029, // I = glyph A
		0x610A, // V1 = 10
		0x6205, // V2 = 5
		0xD125, // draw
		0xD125, // draw again
	)

	step(t, emu, 5)
	assert.True(t, emu.Drawn())
	assert.Equal(t, uint8(0), emu.State().V[0xF])
	if diff := deep.Equal(emu.Display(), glyphRows(0xA, 10, 5)); diff != nil {
		t.Fatalf("first draw: %v", diff)
	}

	step(t, emu, 1)
	assert.Equal(t, uint8(1), emu.State().V[0xF])
	assert.Equal(t, Display{}, emu.Display())
}

func TestDrawCollisionOnlyOnClear(t *testing.T) {
	emu := setup(t,
		0x6000, 0xF029, // glyph 0
		0xD005, // draw at origin
		0x6101, 0xF129, // glyph 1
		0x6140, // V1 = 64, wraps to column 0
		0xD105, // overlapping draw
	)
	step(t, emu, 3)
	assert.Equal(t, uint8(0), emu.State().V[0xF])

	// Glyph 1 row 0 is 0x20, column 2 lit by glyph 0 row 0 (0xF0): collision.
	step(t, emu, 4)
	assert.Equal(t, uint8(1), emu.State().V[0xF])
	assert.False(t, emu.Pixel(2, 0))
	assert.True(t, emu.Pixel(0, 0))
}

func TestDrawNoCollisionOnUnsetToSet(t *testing.T) {
	emu := setup(t,
		0x6000, 0xF029, 0xD005, // glyph 0 at origin
		0x6110, 0xD105, // glyph 0 at column 16, no overlap
	)
	step(t, emu, 5)
	assert.Equal(t, uint8(0), emu.State().V[0xF])
	assert.True(t, emu.Pixel(16, 0))
}

func TestDrawWrapsRightClipsBottom(t *testing.T) {
	emu := setup(t,
		0x6000, 0xF029, // glyph 0, 4 pixels wide, 5 rows
		0x613E, // V1 = 62
		0x621E, // V2 = 30
		0xD125,
	)
	step(t, emu, 5)

	// Rows F0 and 90: columns 2 and 3 of the sprite land on 0 and 1 of
	// the same row. Rows 2 to 4 fall below the screen.
	var want Display
	for _, x := range []int{62, 63, 0, 1} {
		want[30*DisplayWidth+x] = true
	}
	want[31*DisplayWidth+62] = true
	want[31*DisplayWidth+1] = true
	if diff := deep.Equal(emu.Display(), want); diff != nil {
		t.Fatalf("edge draw: %v\n%s", diff, spew.Sdump(emu.State()))
	}
	assert.Equal(t, uint8(0), emu.State().V[0xF])
}

func TestDrawWrappedColumnsCollide(t *testing.T) {
	emu := setup(t,
		0x6000, 0xF029,
		0x613E, // V1 = 62
		0xD101, // top row at 62..1
		0x6100, // V1 = 0
		0xD101, // top row at 0..3, overlaps wrapped columns 0 and 1
	)
	step(t, emu, 6)

	assert.Equal(t, uint8(1), emu.State().V[0xF])
	for x, lit := range map[int]bool{62: true, 63: true, 0: false, 1: false, 2: true, 3: true} {
		assert.Equal(t, lit, emu.Pixel(x, 0))
	}
}

func TestDrawOriginWraps(t *testing.T) {
	emu := setup(t,
		0x6000, 0xF029,
		0x6146, // V1 = 70, column 6
		0x6223, // V2 = 35, row 3
		0xD125,
	)
	step(t, emu, 5)

	if diff := deep.Equal(emu.Display(), glyphRows(0, 6, 3)); diff != nil {
		t.Fatal(diff)
	}
}

func TestClearIdempotent(t *testing.T) {
	emu := setup(t,
		0x6000, 0xF029, 0xD005, // glyph 0
		0x00E0, // clear
		0x6200, // 208: V2 = 0 (row)
		0x6100, // 20A: V1 = 0 (column)
		0xAFF0, // 20C: I = solid sprite
		0xD12F, // 20E: draw 8x15 block
		0x7108, // 210: next column
		0x3140, // 212: skip when column 64
		0x120E, // 214: loop
		0x720F, // 216: next band
		0x322D, // 218: skip when the third band is done
		0x120A, // 21A: loop
		0x00E0, // 21C: clear again
		0x121E, // 21E: spin
	)
	// A solid 15 row sprite stored at FF0.
	for i := 0; i < 15; i++ {
		emu.memory[0xFF0+i] = 0xFF
	}

	step(t, emu, 4)
	afterFirstClear := emu.Display()
	assert.Equal(t, Display{}, afterFirstClear)

	// Run until the final spin.
	for emu.State().PC != 0x21E {
		step(t, emu, 1)
		if emu.State().PC == 0x21C {
			full := emu.Display()
			for i, lit := range full {
				if !lit {
					t.Fatalf("pixel %d not lit before second clear", i)
				}
			}
		}
	}
	if diff := deep.Equal(emu.Display(), afterFirstClear); diff != nil {
		t.Fatalf("second clear: %v", diff)
	}
}

func TestSkipOnKey(t *testing.T) {
	tests := []struct {
		name    string
		program []uint16
		key     uint8
		pressed bool
		pc      uint16
	}{
		{name: "Ex9E pressed", program: []uint16{0x6105, 0xE19E}, key: 5, pressed: true, pc: 0x206},
		{name: "Ex9E released", program: []uint16{0x6105, 0xE19E}, key: 5, pressed: false, pc: 0x204},
		{name: "ExA1 pressed", program: []uint16{0x6105, 0xE1A1}, key: 5, pressed: true, pc: 0x204},
		{name: "ExA1 released", program: []uint16{0x6105, 0xE1A1}, key: 5, pressed: false, pc: 0x206},
		{name: "Ex9E low nibble of Vx", program: []uint16{0x61F5, 0xE19E}, key: 5, pressed: true, pc: 0x206},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emu := setup(t, tt.program...)
			emu.SetKey(tt.key, tt.pressed)
			step(t, emu, 2)
			assert.Equal(t, tt.pc, emu.State().PC)
		})
	}
}

func TestWaitForKey(t *testing.T) {
	emu := setup(t, 0x6009, 0xF015, 0xF30A, 0x1206)
	step(t, emu, 2)

	// No key: the same instruction runs again, timers keep ticking.
	step(t, emu, 3)
	state := emu.State()
	assert.Equal(t, uint16(0x204), state.PC)
	assert.Equal(t, uint8(5), state.DelayTimer)
	assert.Equal(t, uint16(0xF30A), state.Opcode)

	emu.SetKey(0xB, true)
	emu.SetKey(0xC, true)
	step(t, emu, 1)
	state = emu.State()
	assert.Equal(t, uint16(0x206), state.PC)
	assert.Equal(t, uint8(0xB), state.V[3])
}

func TestDrawnFlag(t *testing.T) {
	emu := setup(t, 0x00E0, 0x6000, 0xD005)

	step(t, emu, 1)
	assert.True(t, emu.Drawn())
	step(t, emu, 1)
	assert.False(t, emu.Drawn())
	step(t, emu, 1)
	assert.True(t, emu.Drawn())
}
