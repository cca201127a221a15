package memory

import "fmt"

const titleLength = 16

const (
	titleAddress         = 0x134
	cgbFlagAddress       = 0x143
	cartridgeTypeAddress = 0x147
	romSizeAddress       = 0x148
	ramSizeAddress       = 0x149
	headerChecksumAddress = 0x14D
)

// MBCType identifies the bank-controller family a cartridge header selects.
type MBCType uint8

const (
	NoMBCType MBCType = iota
	MBC1Type
	MBC1MultiType
	MBC2Type
	MBC3Type
	MBC5Type
	MBCUnknownType
)

// ramSizeBytes maps the 0x149 header byte to the RAM capacity it describes.
func ramSizeBytes(code uint8) uint32 {
	switch code {
	case 0:
		return 0
	case 1:
		return 0x800 // unofficial 2KiB, kept for completeness
	case 2:
		return 0x2000
	case 3:
		return 0x8000
	case 4:
		return 0x20000
	case 5:
		return 0x10000
	default:
		return 0
	}
}

func ramBankCountFor(code uint8) uint8 {
	size := ramSizeBytes(code)
	if size == 0 {
		return 0
	}
	banks := size / 0x2000
	if banks == 0 {
		return 1
	}
	return uint8(banks)
}

func classifyMBC(cartType uint8) MBCType {
	switch {
	case cartType == 0x00 || cartType == 0x08 || cartType == 0x09:
		return NoMBCType
	case cartType >= 0x01 && cartType <= 0x03:
		return MBC1Type
	case cartType == 0x0D:
		return MBC1MultiType
	case cartType == 0x05 || cartType == 0x06:
		return MBC2Type
	case cartType >= 0x0F && cartType <= 0x13:
		return MBC3Type
	case cartType >= 0x19 && cartType <= 0x1E:
		return MBC5Type
	default:
		return MBCUnknownType
	}
}

func hasBatteryFor(cartType uint8) bool {
	switch cartType {
	case 0x03, 0x06, 0x09, 0x0D, 0x0F, 0x10, 0x13, 0x1B, 0x1E:
		return true
	default:
		return false
	}
}

func hasRTCFor(cartType uint8) bool {
	return cartType == 0x0F || cartType == 0x10
}

func hasRumbleFor(cartType uint8) bool {
	switch cartType {
	case 0x1C, 0x1D, 0x1E:
		return true
	default:
		return false
	}
}

// Cartridge is the parsed view of a loaded ROM image: its raw bytes plus the
// header fields that select an MBC implementation and its RAM/battery/RTC
// capabilities.
type Cartridge struct {
	data []byte

	title          string
	isColor        bool
	cartType       uint8
	mbcType        MBCType
	romSize        uint8
	ramSize        uint8
	ramBankCount   uint8
	hasBattery     bool
	hasRTC         bool
	hasRumble      bool
	headerChecksum uint8
}

// NewCartridge creates an empty cartridge, useful only for debugging purposes
// (e.g. running the emulator with no ROM inserted).
func NewCartridge() *Cartridge {
	return &Cartridge{
		data:    make([]byte, 0x8000),
		title:   "(No Cartridge)",
		mbcType: NoMBCType,
	}
}

// NewCartridgeWithData parses a Cartridge out of a raw ROM image, reading
// its header to determine title, MBC type, and RAM/battery/RTC/rumble
// capabilities.
func NewCartridgeWithData(bytes []byte) (*Cartridge, error) {
	if len(bytes) < 0x150 {
		return nil, fmt.Errorf("cartridge image too small to contain a header: %d bytes", len(bytes))
	}

	cartType := bytes[cartridgeTypeAddress]
	ramSize := bytes[ramSizeAddress]

	cart := &Cartridge{
		data:           make([]byte, len(bytes)),
		title:          cleanGameboyTitle(bytes[titleAddress : titleAddress+titleLength]),
		isColor:        bytes[cgbFlagAddress] == 0x80 || bytes[cgbFlagAddress] == 0xC0,
		cartType:       cartType,
		mbcType:        classifyMBC(cartType),
		romSize:        bytes[romSizeAddress],
		ramSize:        ramSize,
		ramBankCount:   ramBankCountFor(ramSize),
		hasBattery:     hasBatteryFor(cartType),
		hasRTC:         hasRTCFor(cartType),
		hasRumble:      hasRumbleFor(cartType),
		headerChecksum: bytes[headerChecksumAddress],
	}

	copy(cart.data, bytes)

	return cart, nil
}

// Title returns the cleaned-up cartridge title from the ROM header.
func (c *Cartridge) Title() string {
	return c.title
}

// IsColor reports whether the cartridge header advertises Color support.
func (c *Cartridge) IsColor() bool {
	return c.isColor
}

// ReadByte reads a byte at the specified address, returning 0xFF for
// addresses beyond the ROM data. In practice this is only used for direct
// ROM inspection, not the hot path (which goes through the MBC).
func (c *Cartridge) ReadByte(addr uint16) uint8 {
	if int(addr) >= len(c.data) {
		return 0xFF
	}
	return c.data[addr]
}
