package serial

import (
	"github.com/halstead/dmgcore/dmgcore/addr"
	"github.com/halstead/dmgcore/dmgcore/bit"
)

// ByteCollector is a serial device that accumulates every transferred byte
// verbatim, for test harnesses that need the literal output stream (e.g. a
// blargg test ROM's trailing "Passed"/"Failed" bytes) rather than LogSink's
// human-readable line buffering.
type ByteCollector struct {
	irqHandler     func()
	sb, sc         byte
	transferActive bool
	countdown      int

	immediate bool
	defaultRX byte

	bytes []byte
}

type ByteCollectorOption func(*ByteCollector)

// WithFixedTimingCollector sets the collector to complete transfers after a
// fixed countdown (~4096 CPU cycles per byte on DMG) instead of immediately.
func WithFixedTimingCollector() ByteCollectorOption {
	return func(s *ByteCollector) { s.immediate = false }
}

// NewByteCollector creates a new serial device that records the raw byte
// stream. The passed function is called when a transfer completes, wired to
// request the Serial interrupt.
func NewByteCollector(irq func(), opts ...ByteCollectorOption) *ByteCollector {
	s := &ByteCollector{
		irqHandler: irq,
		immediate:  true,
		defaultRX:  0xFF,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset()
	return s
}

func (s *ByteCollector) Write(address uint16, value byte) {
	switch address {
	case addr.SB:
		s.sb = value
	case addr.SC:
		s.sc = value
		s.maybeStartTransfer()
	default:
		panic("serial.ByteCollector: invalid write address")
	}
}

func (s *ByteCollector) Read(address uint16) byte {
	switch address {
	case addr.SB:
		return s.sb
	case addr.SC:
		return s.sc
	default:
		panic("serial.ByteCollector: invalid read address")
	}
}

func (s *ByteCollector) Tick(cycles int) {
	if s.immediate || !s.transferActive {
		return
	}
	s.countdown -= cycles
	if s.countdown <= 0 {
		s.completeTransfer()
		s.countdown = 0
	}
}

func (s *ByteCollector) Reset() {
	s.sb = 0x00
	s.sc = 0x00
	s.transferActive = false
	s.countdown = 0
	s.bytes = s.bytes[:0]
}

// Bytes returns the raw stream of bytes transferred so far.
func (s *ByteCollector) Bytes() []byte {
	return s.bytes
}

// String returns the raw stream decoded as a string, for harnesses that just
// want to substring-match against e.g. "Passed"/"Failed".
func (s *ByteCollector) String() string {
	return string(s.bytes)
}

func (s *ByteCollector) maybeStartTransfer() {
	if s.transferActive {
		return
	}
	if !bit.IsSet(7, s.sc) || !bit.IsSet(0, s.sc) {
		return
	}

	s.bytes = append(s.bytes, s.sb)

	if s.immediate {
		s.completeTransfer()
		return
	}

	s.transferActive = true
	s.countdown = 4096
}

func (s *ByteCollector) completeTransfer() {
	s.sb = s.defaultRX
	s.sc = bit.Clear(7, s.sc)
	s.transferActive = false
	if s.irqHandler != nil {
		s.irqHandler()
	}
}
