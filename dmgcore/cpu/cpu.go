package cpu

import (
	"github.com/halstead/dmgcore/dmgcore/addr"
	"github.com/halstead/dmgcore/dmgcore/bit"
	"github.com/halstead/dmgcore/dmgcore/memory"
)

// Flag identifies one of the 4 bits of the F register that carry meaning.
type Flag uint8

const (
	zeroFlag      Flag = 1 << 7
	subFlag       Flag = 1 << 6
	halfCarryFlag Flag = 1 << 5
	carryFlag     Flag = 1 << 4
)

// CPU holds the full state of the Sharp SM83 core: its registers, the bus
// it is wired to, and the interrupt/halt bookkeeping the fetch loop needs.
type CPU struct {
	a, b, c, d, e, h, l, f uint8
	sp, pc                 uint16

	memory *memory.MMU

	currentOpcode uint16

	interruptsEnabled bool
	eiPending         bool
	halted            bool
	haltBug           bool
	stopped           bool

	cycles uint64
}

// New creates a CPU wired to the given bus, with PC at the cartridge entry
// point (0x100, just past the boot ROM checksum handoff).
func New(mmu *memory.MMU) *CPU {
	return &CPU{
		memory: mmu,
		pc:     0x100,
		sp:     0xFFFE,
	}
}

// GetPC returns the current program counter, mainly for debugger/logging use.
func (c *CPU) GetPC() uint16 {
	return c.pc
}

// GetA returns the A register, for debugger/logging use.
func (c *CPU) GetA() uint8 { return c.a }

// GetB returns the B register, for debugger/logging use.
func (c *CPU) GetB() uint8 { return c.b }

// GetC returns the C register, for debugger/logging use.
func (c *CPU) GetC() uint8 { return c.c }

// GetD returns the D register, for debugger/logging use.
func (c *CPU) GetD() uint8 { return c.d }

// GetE returns the E register, for debugger/logging use.
func (c *CPU) GetE() uint8 { return c.e }

// GetH returns the H register, for debugger/logging use.
func (c *CPU) GetH() uint8 { return c.h }

// GetL returns the L register, for debugger/logging use.
func (c *CPU) GetL() uint8 { return c.l }

// GetF returns the flags register, for debugger/logging use.
func (c *CPU) GetF() uint8 { return c.f }

// GetSP returns the stack pointer, for debugger/logging use.
func (c *CPU) GetSP() uint16 {
	return c.sp
}

// GetFlagString renders the Z/N/H/C flags as a 4-character string, the
// flag's letter when set and '-' when clear, e.g. "Z-HC".
func (c *CPU) GetFlagString() string {
	flags := [4]byte{'-', '-', '-', '-'}
	if c.isSetFlag(zeroFlag) {
		flags[0] = 'Z'
	}
	if c.isSetFlag(subFlag) {
		flags[1] = 'N'
	}
	if c.isSetFlag(halfCarryFlag) {
		flags[2] = 'H'
	}
	if c.isSetFlag(carryFlag) {
		flags[3] = 'C'
	}
	return string(flags[:])
}

// SetInterruptsEnabled sets the IME flag directly, bypassing the EI
// instruction's one-instruction delay. Exposed for tests that need to drive
// the interrupt dispatch path through Tick without executing an EI first.
func (c *CPU) SetInterruptsEnabled(enabled bool) {
	c.interruptsEnabled = enabled
}

func (c *CPU) setFlag(f Flag) {
	c.f |= uint8(f)
}

func (c *CPU) resetFlag(f Flag) {
	c.f &^= uint8(f)
}

func (c *CPU) isSetFlag(f Flag) bool {
	return c.f&uint8(f) != 0
}

func (c *CPU) setFlagToCondition(f Flag, condition bool) {
	if condition {
		c.setFlag(f)
	} else {
		c.resetFlag(f)
	}
}

// flagToBit returns 0 or 1 depending on whether the flag is set, used by
// the rotate-through-carry instructions to splice the carry bit in.
func (c *CPU) flagToBit(f Flag) uint8 {
	if c.isSetFlag(f) {
		return 1
	}
	return 0
}

func (c *CPU) getBC() uint16 {
	return bit.Combine(c.b, c.c)
}

func (c *CPU) setBC(value uint16) {
	c.b = bit.High(value)
	c.c = bit.Low(value)
}

func (c *CPU) getDE() uint16 {
	return bit.Combine(c.d, c.e)
}

func (c *CPU) setDE(value uint16) {
	c.d = bit.High(value)
	c.e = bit.Low(value)
}

func (c *CPU) getHL() uint16 {
	return bit.Combine(c.h, c.l)
}

func (c *CPU) setHL(value uint16) {
	c.h = bit.High(value)
	c.l = bit.Low(value)
}

// readImmediate consumes the byte at PC, advancing it by one.
func (c *CPU) readImmediate() uint8 {
	value := c.memory.Read(c.pc)
	c.pc++
	return value
}

// readSignedImmediate consumes a signed byte operand, as used by
// ADD SP,n and LDHL SP,n.
func (c *CPU) readSignedImmediate() int8 {
	return int8(c.readImmediate())
}

// readImmediateWord consumes the little-endian word at PC, advancing it by two.
func (c *CPU) readImmediateWord() uint16 {
	low := c.memory.Read(c.pc)
	high := c.memory.Read(c.pc + 1)
	c.pc += 2
	return bit.Combine(high, low)
}

// peekImmediate reads the byte at PC without consuming it, for instructions
// that compute their own jump target (JR).
func (c *CPU) peekImmediate() uint8 {
	return c.memory.Read(c.pc)
}

// peekImmediateWord reads the little-endian word at PC without consuming
// it, for instructions that overwrite PC outright (JP).
func (c *CPU) peekImmediateWord() uint16 {
	low := c.memory.Read(c.pc)
	high := c.memory.Read(c.pc + 1)
	return bit.Combine(high, low)
}

// Decode peeks the opcode at cpu.pc, recording it as currentOpcode and
// returning the handler to run, without advancing PC. CB-prefixed opcodes
// are folded into a single 16 bit value (0xCBxx) so the dispatch table
// in mapping.go can tell the two opcode spaces apart.
func Decode(c *CPU) Opcode {
	first := c.memory.Read(c.pc)
	if first == 0xCB {
		second := c.memory.Read(c.pc + 1)
		c.currentOpcode = 0xCB00 | uint16(second)
	} else {
		c.currentOpcode = uint16(first)
	}

	return decode(c.currentOpcode)
}

// handleInterrupts checks IE & IF for a pending, requested interrupt and
// services the highest-priority one if IME is set. It always reports
// whether an interrupt is pending, since that alone is enough to wake the
// CPU from HALT even with interrupts globally disabled.
func (c *CPU) handleInterrupts() bool {
	requested := c.memory.Read(addr.IF) & c.memory.Read(addr.IE) & 0x1F
	if requested == 0 {
		return false
	}

	if !c.interruptsEnabled {
		return true
	}

	for bitIndex := uint8(0); bitIndex < 5; bitIndex++ {
		if requested&(1<<bitIndex) == 0 {
			continue
		}

		iflag := c.memory.Read(addr.IF)
		c.memory.Write(addr.IF, iflag&^(1<<bitIndex))

		c.interruptsEnabled = false
		c.pushStack(c.pc)
		c.pc = 0x40 + uint16(bitIndex)*8
		c.cycles += 20
		break
	}

	return true
}

// Tick advances the CPU by exactly one instruction (or one idle cycle while
// halted) and returns the number of cycles it took. The caller is expected
// to drive the rest of the system (timer, PPU) off the returned count.
func (c *CPU) Tick() int {
	// An EI executed by an earlier Tick takes effect once the instruction
	// that follows it has completed.
	enableIME := c.eiPending

	cyclesBefore := c.cycles
	pending := c.handleInterrupts()
	if c.cycles != cyclesBefore {
		// handleInterrupts already pushed PC and jumped to the vector;
		// dispatching the handler's first instruction belongs to the next Tick.
		return int(c.cycles - cyclesBefore)
	}

	if c.halted {
		if pending {
			c.halted = false
			if !c.interruptsEnabled {
				c.haltBug = true
			}
		} else {
			return 4
		}
	}

	opcode := Decode(c)
	if c.haltBug {
		// The HALT bug: PC fails to advance past this opcode byte, so the
		// next fetch reads it again as part of decoding the following
		// instruction.
		c.haltBug = false
	} else if c.currentOpcode > 0xFF {
		c.pc += 2
	} else {
		c.pc++
	}

	cycles := opcode(c)
	c.cycles += uint64(cycles)

	if enableIME && c.eiPending {
		c.eiPending = false
		c.interruptsEnabled = true
	}

	return cycles
}
