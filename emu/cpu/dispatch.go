package cpu

// opcode is a fetched 16-bit instruction word with accessors for its fields.
type opcode uint16

func (op opcode) family() uint8 { return uint8(op >> 12) }
func (op opcode) x() uint8      { return uint8(op>>8) & 0xF }
func (op opcode) y() uint8      { return uint8(op>>4) & 0xF }
func (op opcode) n() uint8      { return uint8(op) & 0xF }
func (op opcode) kk() uint8     { return uint8(op) }
func (op opcode) nnn() uint16   { return uint16(op) & addressMask }

// instruction is one dispatch table entry. A zero entry is a no-op.
// Handlers with flow set own the program counter, all others get it
// advanced by 2 after they run.
type instruction struct {
	name string
	exec func(emu *EMU, op opcode) error
	flow bool
}

var table = [16]instruction{
	0x1: {name: "1nnn", exec: (*EMU).op1nnn, flow: true},
	0x2: {name: "2nnn", exec: (*EMU).op2nnn, flow: true},
	0x3: {name: "3xkk", exec: (*EMU).op3xkk, flow: true},
	0x4: {name: "4xkk", exec: (*EMU).op4xkk, flow: true},
	0x5: {name: "5xy0", exec: (*EMU).op5xy0, flow: true},
	0x6: {name: "6xkk", exec: (*EMU).op6xkk},
	0x7: {name: "7xkk", exec: (*EMU).op7xkk},
	0x9: {name: "9xy0", exec: (*EMU).op9xy0, flow: true},
	0xA: {name: "Annn", exec: (*EMU).opAnnn},
	0xB: {name: "Bnnn", exec: (*EMU).opBnnn, flow: true},
	0xC: {name: "Cxkk", exec: (*EMU).opCxkk},
	0xD: {name: "Dxyn", exec: (*EMU).opDxyn},
}

// table0 is indexed by the low nibble; everything unmapped is a legacy
// machine code call and does nothing.
var table0 = [16]instruction{
	0x0: {name: "00E0", exec: (*EMU).op00E0},
	0xE: {name: "00EE", exec: (*EMU).op00EE, flow: true},
}

var table8 = [16]instruction{
	0x0: {name: "8xy0", exec: (*EMU).op8xy0},
	0x1: {name: "8xy1", exec: (*EMU).op8xy1},
	0x2: {name: "8xy2", exec: (*EMU).op8xy2},
	0x3: {name: "8xy3", exec: (*EMU).op8xy3},
	0x4: {name: "8xy4", exec: (*EMU).op8xy4},
	0x5: {name: "8xy5", exec: (*EMU).op8xy5},
	0x6: {name: "8xy6", exec: (*EMU).op8xy6},
	0x7: {name: "8xy7", exec: (*EMU).op8xy7},
	0xE: {name: "8xyE", exec: (*EMU).op8xyE},
}

var tableE = [16]instruction{
	0xE: {name: "Ex9E", exec: (*EMU).opEx9E, flow: true},
	0x1: {name: "ExA1", exec: (*EMU).opExA1, flow: true},
}

// tableF is indexed by the low byte.
var tableF = [256]instruction{
	0x07: {name: "Fx07", exec: (*EMU).opFx07},
	0x0A: {name: "Fx0A", exec: (*EMU).opFx0A, flow: true},
	0x15: {name: "Fx15", exec: (*EMU).opFx15},
	0x18: {name: "Fx18", exec: (*EMU).opFx18},
	0x1E: {name: "Fx1E", exec: (*EMU).opFx1E},
	0x29: {name: "Fx29", exec: (*EMU).opFx29},
	0x33: {name: "Fx33", exec: (*EMU).opFx33},
	0x55: {name: "Fx55", exec: (*EMU).opFx55},
	0x65: {name: "Fx65", exec: (*EMU).opFx65},
}

// decode selects the handler for op: the top nibble picks the family and
// families 0, 8, E and F dispatch again on their sub-opcode.
func decode(op opcode) instruction {
	switch f := op.family(); f {
	case 0x0:
		return table0[op.n()]
	case 0x8:
		return table8[op.n()]
	case 0xE:
		return tableE[op.n()]
	case 0xF:
		return tableF[op.kk()]
	default:
		return table[f]
	}
}
