package cpu

// 00E0 - CLS
func (emu *EMU) op00E0(op opcode) error {
	emu.display = Display{}
	emu.drawn = true
	return nil
}

// 00EE - RET
func (emu *EMU) op00EE(op opcode) error {
	if emu.sp == 0 {
		return StackUnderflow{PC: emu.pc}
	}
	emu.sp--
	emu.pc = emu.stack[emu.sp]
	return nil
}

// 1nnn - JP addr
func (emu *EMU) op1nnn(op opcode) error {
	emu.pc = op.nnn()
	return nil
}

// 2nnn - CALL addr. The return address is the instruction after the call.
func (emu *EMU) op2nnn(op opcode) error {
	if int(emu.sp) >= StackDepth {
		return StackOverflow{PC: emu.pc}
	}
	emu.stack[emu.sp] = emu.pc + 2
	emu.sp++
	emu.pc = op.nnn()
	return nil
}

// skipIf advances past the current instruction, and past the next one too
// when cond holds.
func (emu *EMU) skipIf(cond bool) {
	emu.pc += 2
	if cond {
		emu.pc += 2
	}
}

// 3xkk - SE Vx, byte
func (emu *EMU) op3xkk(op opcode) error {
	emu.skipIf(emu.V[op.x()] == op.kk())
	return nil
}

// 4xkk - SNE Vx, byte
func (emu *EMU) op4xkk(op opcode) error {
	emu.skipIf(emu.V[op.x()] != op.kk())
	return nil
}

// 5xy0 - SE Vx, Vy
func (emu *EMU) op5xy0(op opcode) error {
	emu.skipIf(emu.V[op.x()] == emu.V[op.y()])
	return nil
}

// 6xkk - LD Vx, byte
func (emu *EMU) op6xkk(op opcode) error {
	emu.V[op.x()] = op.kk()
	return nil
}

// 7xkk - ADD Vx, byte. No carry flag.
func (emu *EMU) op7xkk(op opcode) error {
	emu.V[op.x()] += op.kk()
	return nil
}

func (emu *EMU) op8xy0(op opcode) error {
	emu.V[op.x()] = emu.V[op.y()]
	return nil
}

func (emu *EMU) op8xy1(op opcode) error {
	emu.V[op.x()] |= emu.V[op.y()]
	return nil
}

func (emu *EMU) op8xy2(op opcode) error {
	emu.V[op.x()] &= emu.V[op.y()]
	return nil
}

func (emu *EMU) op8xy3(op opcode) error {
	emu.V[op.x()] ^= emu.V[op.y()]
	return nil
}

// The ALU operations below compute the flag from the operands before the
// result is stored and write VF last, so VF holds the flag even when it is
// also the destination.

// 8xy4 - ADD Vx, Vy, VF = carry
func (emu *EMU) op8xy4(op opcode) error {
	sum := uint16(emu.V[op.x()]) + uint16(emu.V[op.y()])
	emu.V[op.x()] = uint8(sum)
	emu.V[flagRegister] = boolToFlag(sum > 0xFF)
	return nil
}

// 8xy5 - SUB Vx, Vy, VF = NOT borrow
func (emu *EMU) op8xy5(op opcode) error {
	vx, vy := emu.V[op.x()], emu.V[op.y()]
	emu.V[op.x()] = vx - vy
	emu.V[flagRegister] = boolToFlag(vx > vy)
	return nil
}

// 8xy6 - SHR Vx, VF = bit 0 before the shift
func (emu *EMU) op8xy6(op opcode) error {
	vx := emu.V[op.x()]
	emu.V[op.x()] = vx >> 1
	emu.V[flagRegister] = vx & 0x01
	return nil
}

// 8xy7 - SUBN Vx, Vy, VF = NOT borrow
func (emu *EMU) op8xy7(op opcode) error {
	vx, vy := emu.V[op.x()], emu.V[op.y()]
	emu.V[op.x()] = vy - vx
	emu.V[flagRegister] = boolToFlag(vy > vx)
	return nil
}

// 8xyE - SHL Vx, VF = bit 7 before the shift
func (emu *EMU) op8xyE(op opcode) error {
	vx := emu.V[op.x()]
	emu.V[op.x()] = vx << 1
	emu.V[flagRegister] = vx >> 7
	return nil
}

// 9xy0 - SNE Vx, Vy
func (emu *EMU) op9xy0(op opcode) error {
	emu.skipIf(emu.V[op.x()] != emu.V[op.y()])
	return nil
}

// Annn - LD I, addr
func (emu *EMU) opAnnn(op opcode) error {
	emu.I = op.nnn()
	return nil
}

// Bnnn - JP V0, addr. The target is masked to 12 bits like every jump.
func (emu *EMU) opBnnn(op opcode) error {
	emu.pc = (op.nnn() + uint16(emu.V[0])) & addressMask
	return nil
}

// Cxkk - RND Vx, byte
func (emu *EMU) opCxkk(op opcode) error {
	emu.V[op.x()] = uint8(emu.rng.Intn(256)) & op.kk()
	return nil
}

// Dxyn - DRW Vx, Vy, n
//
// The sprite origin wraps around the screen. Columns past the right edge
// wrap to the start of the same row, rows past the bottom edge are dropped.
// VF is set when a lit pixel gets cleared.
func (emu *EMU) opDxyn(op opcode) error {
	height := int(op.n())
	if err := emu.checkAccess(emu.I, height); err != nil {
		return err
	}

	xPos := int(emu.V[op.x()]) % DisplayWidth
	yPos := int(emu.V[op.y()]) % DisplayHeight
	collision := false

	for row := 0; row < height; row++ {
		y := yPos + row
		if y >= DisplayHeight {
			break
		}
		spriteByte := emu.memory[int(emu.I)+row]

		for col := 0; col < 8; col++ {
			if spriteByte&(0x80>>col) == 0 {
				continue
			}
			x := (xPos + col) % DisplayWidth
			pixel := &emu.display[y*DisplayWidth+x]
			if *pixel {
				collision = true
			}
			*pixel = !*pixel
		}
	}

	emu.V[flagRegister] = boolToFlag(collision)
	emu.drawn = true
	return nil
}

// Ex9E - SKP Vx
func (emu *EMU) opEx9E(op opcode) error {
	emu.skipIf(emu.keyState[emu.V[op.x()]&0xF])
	return nil
}

// ExA1 - SKNP Vx
func (emu *EMU) opExA1(op opcode) error {
	emu.skipIf(!emu.keyState[emu.V[op.x()]&0xF])
	return nil
}

// Fx07 - LD Vx, DT
func (emu *EMU) opFx07(op opcode) error {
	emu.V[op.x()] = emu.delayTimer
	return nil
}

// Fx0A - LD Vx, K
//
// Waiting is done by not advancing the program counter, so the same
// instruction runs again next cycle until some key is down.
func (emu *EMU) opFx0A(op opcode) error {
	for key, pressed := range emu.keyState {
		if pressed {
			emu.V[op.x()] = uint8(key)
			emu.pc += 2
			return nil
		}
	}
	return nil
}

// Fx15 - LD DT, Vx
func (emu *EMU) opFx15(op opcode) error {
	emu.delayTimer = emu.V[op.x()]
	return nil
}

// Fx18 - LD ST, Vx
func (emu *EMU) opFx18(op opcode) error {
	emu.soundTimer = emu.V[op.x()]
	return nil
}

// Fx1E - ADD I, Vx
//
// I may point past the end of memory, accesses through it then fault. The
// sum saturates at 0xFFFF so repeated adds never wrap back into memory.
func (emu *EMU) opFx1E(op opcode) error {
	sum := uint32(emu.I) + uint32(emu.V[op.x()])
	if sum > maxIndex {
		sum = maxIndex
	}
	emu.I = uint16(sum)
	return nil
}

// Fx29 - LD F, Vx
func (emu *EMU) opFx29(op opcode) error {
	digit := uint16(emu.V[op.x()] & 0xF)
	emu.I = FontStart + glyphSize*digit
	return nil
}

// Fx33 - LD B, Vx
func (emu *EMU) opFx33(op opcode) error {
	if err := emu.checkAccess(emu.I, 3); err != nil {
		return err
	}
	value := emu.V[op.x()]
	emu.memory[emu.I] = value / 100
	emu.memory[emu.I+1] = value / 10 % 10
	emu.memory[emu.I+2] = value % 10
	return nil
}

// Fx55 - LD [I], Vx. I is left unchanged.
func (emu *EMU) opFx55(op opcode) error {
	count := int(op.x()) + 1
	if err := emu.checkAccess(emu.I, count); err != nil {
		return err
	}
	copy(emu.memory[emu.I:], emu.V[:count])
	return nil
}

// Fx65 - LD Vx, [I]. I is left unchanged.
func (emu *EMU) opFx65(op opcode) error {
	count := int(op.x()) + 1
	if err := emu.checkAccess(emu.I, count); err != nil {
		return err
	}
	copy(emu.V[:count], emu.memory[emu.I:])
	return nil
}

func boolToFlag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
