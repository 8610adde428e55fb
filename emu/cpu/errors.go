package cpu

import "fmt"

// A few custom error types to distinguish why the machine stopped.

// RomTooLarge is returned when a program does not fit between ProgramStart
// and the end of memory.
type RomTooLarge struct {
	Size int
	Max  int
}

// Error implements the interface for error types.
func (e RomTooLarge) Error() string {
	return fmt.Sprintf("ROM too large: %d bytes, can't cross %d bytes", e.Size, e.Max)
}

// StackOverflow is raised by a call with all stack frames in use.
type StackOverflow struct {
	PC uint16
}

// Error implements the interface for error types.
func (e StackOverflow) Error() string {
	return fmt.Sprintf("stack overflow at PC 0x%03X: more than %d nested calls", e.PC, StackDepth)
}

// StackUnderflow is raised by a return with an empty stack.
type StackUnderflow struct {
	PC uint16
}

// Error implements the interface for error types.
func (e StackUnderflow) Error() string {
	return fmt.Sprintf("stack underflow at PC 0x%03X: return without call", e.PC)
}

// MemoryFault is raised when an instruction or fetch would access Len bytes
// starting at Addr and that range leaves memory.
type MemoryFault struct {
	PC     uint16
	Opcode uint16
	Addr   uint16
	Len    int
}

// Error implements the interface for error types.
func (e MemoryFault) Error() string {
	return fmt.Sprintf("memory fault at PC 0x%03X (opcode %04X): %d byte access at 0x%04X outside 0x000-0x%03X",
		e.PC, e.Opcode, e.Len, e.Addr, MemorySize-1)
}
