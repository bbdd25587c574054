package memory

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/cespare/xxhash"

	"github.com/ThaumielSparrow/go-sm83/sm83/snapshot"
)

// header layout
const (
	titleAddress          = 0x134
	titleLength           = 16
	cartridgeTypeAddress  = 0x147
	romSizeAddress        = 0x148
	ramSizeAddress        = 0x149
	headerChecksumAddress = 0x14D

	headerChecksumStart = 0x134
	headerChecksumEnd   = 0x14C
)

// ErrUnsupportedCartridgeController is returned at load time when the
// header declares a controller type outside the supported set.
var ErrUnsupportedCartridgeController = errors.New("unsupported cartridge controller")

// ramSizeBanks maps the header RAM-size code to 8KB bank counts. Code
// 0x01 declares a partial 2KB bank; a full bank is allocated and the
// controller masks the excess.
var ramSizeBanks = [6]int{0, 1, 1, 4, 16, 8}

// Cartridge holds the ROM image, the decoded header fields and the
// bank controller selected by the header's controller-type byte.
type Cartridge struct {
	rom   []uint8
	mbc   MBC
	title string
	hash  uint64

	typeByte    uint8
	romSizeCode uint8
	ramSizeCode uint8
	hasBattery  bool
}

// LoadCartridge decodes the header of a ROM image and builds the
// matching bank controller. The header checksum is verified but a
// mismatch is only logged; clock may be nil outside of tests.
func LoadCartridge(rom []byte, clock Clock) (*Cartridge, error) {
	if len(rom) < 0x150 {
		return nil, fmt.Errorf("%w: image smaller than header (%d bytes)", ErrUnsupportedCartridgeController, len(rom))
	}

	c := &Cartridge{
		rom:         rom,
		title:       cleanTitle(rom[titleAddress : titleAddress+titleLength]),
		hash:        xxhash.Sum64(rom),
		typeByte:    rom[cartridgeTypeAddress],
		romSizeCode: rom[romSizeAddress],
		ramSizeCode: rom[ramSizeAddress],
	}

	if !c.verifyChecksum() {
		slog.Warn("cartridge header checksum mismatch",
			"title", c.title,
			"stored", fmt.Sprintf("0x%02X", rom[headerChecksumAddress]))
	}

	ramBanks := 0
	if int(c.ramSizeCode) < len(ramSizeBanks) {
		ramBanks = ramSizeBanks[c.ramSizeCode]
	}

	switch c.typeByte {
	case 0x00, 0x08, 0x09:
		c.mbc = NewNoMBC(rom)
		c.hasBattery = c.typeByte == 0x09
	case 0x01, 0x02, 0x03:
		c.mbc = NewMBC1(rom, ramBanks)
		c.hasBattery = c.typeByte == 0x03
	case 0x05, 0x06:
		c.hasBattery = c.typeByte == 0x06
		c.mbc = NewMBC2(rom, c.hasBattery)
	case 0x0F, 0x10, 0x11, 0x12, 0x13:
		hasRTC := c.typeByte == 0x0F || c.typeByte == 0x10
		c.hasBattery = c.typeByte != 0x11 && c.typeByte != 0x12
		c.mbc = NewMBC3(rom, ramBanks, hasRTC, clock)
	case 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E:
		c.hasBattery = c.typeByte == 0x1B || c.typeByte == 0x1E
		c.mbc = NewMBC5(rom, ramBanks)
	default:
		return nil, fmt.Errorf("%w: type byte 0x%02X", ErrUnsupportedCartridgeController, c.typeByte)
	}

	slog.Info("cartridge loaded",
		"title", c.title,
		"type", fmt.Sprintf("0x%02X", c.typeByte),
		"rom", len(rom),
		"ram_banks", ramBanks,
		"battery", c.hasBattery)

	return c, nil
}

// verifyChecksum recomputes the 8-bit header checksum over
// 0x134-0x14C and compares it with the stored byte.
func (c *Cartridge) verifyChecksum() bool {
	var sum uint8
	for i := headerChecksumStart; i <= headerChecksumEnd; i++ {
		sum = sum - c.rom[i] - 1
	}
	return sum == c.rom[headerChecksumAddress]
}

// Title returns the cleaned header title.
func (c *Cartridge) Title() string { return c.title }

// Hash returns the xxhash64 of the full ROM image, used as the
// cartridge identity for snapshot validation.
func (c *Cartridge) Hash() uint64 { return c.hash }

// HasBattery reports whether external RAM is battery backed.
func (c *Cartridge) HasBattery() bool { return c.hasBattery }

// Read routes a bus read in the ROM or external RAM ranges to the
// controller.
func (c *Cartridge) Read(address uint16) uint8 {
	return c.mbc.Read(address)
}

// Write routes a bus write: ROM-range writes are bank-control
// commands, external RAM writes go to the active RAM bank.
func (c *Cartridge) Write(address uint16, value uint8) {
	c.mbc.Write(address, value)
}

// DumpRAM returns the battery-backed RAM bytes, or nil when the
// cartridge has no persistent RAM.
func (c *Cartridge) DumpRAM() []uint8 {
	if !c.hasBattery {
		return nil
	}
	return c.mbc.RAM()
}

// LoadRAM restores battery-backed RAM from a previous dump.
func (c *Cartridge) LoadRAM(data []uint8) {
	c.mbc.LoadRAM(data)
}

// Save serializes bank-controller state. RAM contents are deliberately
// excluded: persistent RAM identity survives snapshot operations.
func (c *Cartridge) Save(s *snapshot.State) {
	c.mbc.Save(s)
}

// Load restores bank-controller state.
func (c *Cartridge) Load(s *snapshot.State) {
	c.mbc.Load(s)
}

// cleanTitle converts raw header title bytes to printable ASCII,
// dropping NUL padding.
func cleanTitle(raw []byte) string {
	runes := make([]rune, 0, len(raw))
	for _, b := range raw {
		r := rune(b)
		switch {
		case r == 0:
			r = ' '
		case !unicode.IsPrint(r):
			r = '?'
		}
		runes = append(runes, r)
	}
	title := strings.TrimSpace(string(runes))
	if title == "" {
		return "(untitled)"
	}
	return title
}
