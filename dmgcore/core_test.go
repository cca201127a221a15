package jeebie

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/halstead/dmgcore/dmgcore/addr"
	"github.com/halstead/dmgcore/dmgcore/serial"
)

// TestDIVResetEndToEnd exercises the divider register's reset-on-write
// behavior through the full Emulator/MMU stack, rather than against the
// Timer type in isolation: advance real cycles via Emulator.step, confirm
// DIV has moved off zero, then write any value to DIV and confirm it drops
// back to zero immediately, as real DMG hardware does.
func TestDIVResetEndToEnd(t *testing.T) {
	e := New()
	mmu := e.GetMMU()

	for i := 0; i < 2000; i++ {
		e.step()
	}

	divBefore := mmu.Read(addr.DIV)
	assert.NotEqual(t, byte(0), divBefore, "DIV should have advanced after thousands of cycles")

	mmu.Write(addr.DIV, 0x42)
	assert.Equal(t, byte(0), mmu.Read(addr.DIV), "writing any value to DIV must reset it to 0")

	for i := 0; i < 2000; i++ {
		e.step()
	}
	assert.NotEqual(t, byte(0), mmu.Read(addr.DIV), "DIV should resume counting after the reset")
}

// TestInterruptPriorityEndToEnd drives the real CPU/MMU pair (not
// handleInterrupts in isolation) through a tick with every interrupt flagged
// at once, and checks that VBlank - the highest priority source - is the one
// serviced, with its IF bit cleared and the others left pending.
func TestInterruptPriorityEndToEnd(t *testing.T) {
	e := New()
	cpu := e.GetCPU()
	mmu := e.GetMMU()

	cpu.SetInterruptsEnabled(true)
	mmu.Write(addr.IE, 0x1F)
	mmu.Write(addr.IF, 0x1F)

	e.step()

	assert.Equal(t, uint16(0x40), cpu.GetPC(), "VBlank vector should be serviced first")
	assert.Equal(t, byte(0x1E), mmu.Read(addr.IF), "only the VBlank flag should be cleared")

	e2 := New()
	cpu2 := e2.GetCPU()
	mmu2 := e2.GetMMU()
	cpu2.SetInterruptsEnabled(true)
	mmu2.Write(addr.IE, 0x1E)
	mmu2.Write(addr.IF, 0x1E)

	e2.step()

	assert.Equal(t, uint16(0x48), cpu2.GetPC(), "LCD STAT should be serviced when VBlank isn't pending")
	assert.Equal(t, byte(0x1C), mmu2.Read(addr.IF))
}

// TestSerialByteCollectorEndToEnd feeds a byte stream through the serial
// port the way a blargg-style test ROM does - one byte in SB followed by a
// start-transfer write to SC - and checks that ByteCollector recovers the
// literal trailing "Passed" bytes, matching spec scenario 1's requirement
// that the raw stream (not a logged line) be recoverable by a test harness.
func TestSerialByteCollectorEndToEnd(t *testing.T) {
	e := New()
	mmu := e.GetMMU()

	collector := serial.NewByteCollector(func() { mmu.RequestInterrupt(addr.SerialInterrupt) })
	mmu.SetSerialPort(collector)

	message := "\n\nPassed\n"
	for i := 0; i < len(message); i++ {
		mmu.Write(addr.SB, message[i])
		mmu.Write(addr.SC, 0x81)
	}

	assert.Equal(t, message, collector.String())
	assert.Equal(t, byte(addr.SerialInterrupt), mmu.Read(addr.IF)&byte(addr.SerialInterrupt), "each completed transfer should request the Serial interrupt")
}
