package addr

// display registers
const (
	// LCDC is the LCD Control register.
	LCDC uint16 = 0xFF40
	// STAT is the LCD Status register.
	STAT uint16 = 0xFF41
	// SCY is the background Scroll Y register.
	SCY uint16 = 0xFF42
	// SCX is the background Scroll X register.
	SCX uint16 = 0xFF43
	// LY is the current scanline (readonly).
	LY uint16 = 0xFF44
	// LYC is the LY Compare register.
	LYC uint16 = 0xFF45
	// DMA triggers an OAM DMA transfer when written.
	DMA uint16 = 0xFF46
	// BGP is the background palette register.
	BGP uint16 = 0xFF47
	// OBP0 is object palette 0.
	OBP0 uint16 = 0xFF48
	// OBP1 is object palette 1.
	OBP1 uint16 = 0xFF49
	// WY is the window Y position register.
	WY uint16 = 0xFF4A
	// WX is the window X position register (minus 7).
	WX uint16 = 0xFF4B
)

// color-mode bank select registers, ignored on the monochrome model
const (
	// VBK selects the active VRAM bank (bit 0).
	VBK uint16 = 0xFF4F
	// SVBK selects the active WRAM bank at 0xD000 (bits 0-2).
	SVBK uint16 = 0xFF70
)

// sound registers
const (
	// AudioStart and AudioEnd bound the APU register range.
	AudioStart uint16 = 0xFF10
	AudioEnd   uint16 = 0xFF3F

	// Channel 1 - pulse with sweep
	NR10 uint16 = 0xFF10 // sweep
	NR11 uint16 = 0xFF11 // length timer & duty
	NR12 uint16 = 0xFF12 // volume & envelope
	NR13 uint16 = 0xFF13 // period low
	NR14 uint16 = 0xFF14 // period high & control

	// Channel 2 - pulse
	NR21 uint16 = 0xFF16
	NR22 uint16 = 0xFF17
	NR23 uint16 = 0xFF18
	NR24 uint16 = 0xFF19

	// Channel 3 - wave
	NR30 uint16 = 0xFF1A // DAC enable
	NR31 uint16 = 0xFF1B // length timer
	NR32 uint16 = 0xFF1C // output level
	NR33 uint16 = 0xFF1D // period low
	NR34 uint16 = 0xFF1E // period high & control

	// Channel 4 - noise
	NR41 uint16 = 0xFF20
	NR42 uint16 = 0xFF21
	NR43 uint16 = 0xFF22
	NR44 uint16 = 0xFF23

	// Global control
	NR50 uint16 = 0xFF24 // master volume & VIN panning
	NR51 uint16 = 0xFF25 // panning
	NR52 uint16 = 0xFF26 // power & channel status

	// Wave pattern RAM (32 samples, 4 bits each)
	WaveRAMStart uint16 = 0xFF30
	WaveRAMEnd   uint16 = 0xFF3F
)

// OAM (object attribute memory)
const (
	// OAMStart is the start of OAM (40 objects, 4 bytes each).
	OAMStart uint16 = 0xFE00
	// OAMEnd is the last valid OAM address.
	OAMEnd uint16 = 0xFE9F
)

// tile data and tile maps
const (
	// TileData0 is the unsigned tile data region (tiles 0-255).
	TileData0 uint16 = 0x8000
	// TileData1 is the start of the signed tile data region.
	TileData1 uint16 = 0x8800
	// TileData2 is the base for signed tile indexing.
	TileData2 uint16 = 0x9000

	// TileMap0 is background/window tile map 0.
	TileMap0 uint16 = 0x9800
	// TileMap1 is background/window tile map 1.
	TileMap1 uint16 = 0x9C00
)

// interrupts
const (
	// IF is the interrupt flag register.
	IF uint16 = 0xFF0F
	// IE is the interrupt enable register.
	IE uint16 = 0xFFFF
)

// joypad
const (
	// P1 selects and reads the joypad button matrix.
	P1 uint16 = 0xFF00
)

// serial I/O
const (
	// SB holds the byte to transmit; after a transfer it holds the
	// received byte (0xFF with no peer connected).
	SB uint16 = 0xFF01
	// SC controls serial transfers: bit 7 starts a transfer, bit 0
	// selects the internal clock. Hardware clears bit 7 when done and
	// requests the serial interrupt.
	SC uint16 = 0xFF02
)

// timers
const (
	// DIV is the divider register: the high byte of the internal
	// 16-bit counter. Any write resets the counter.
	DIV uint16 = 0xFF04
	// TIMA is the timer counter; requests an interrupt on overflow.
	TIMA uint16 = 0xFF05
	// TMA is the value loaded into TIMA after an overflow.
	TMA uint16 = 0xFF06
	// TAC enables the timer and selects its rate.
	TAC uint16 = 0xFF07
)

// Interrupt identifies one of the five interrupt sources. The value is
// the bit position in IE/IF; lower bits have higher service priority.
type Interrupt uint8

const (
	// VBlankInterrupt fires when the display enters vertical blank.
	VBlankInterrupt Interrupt = iota
	// LCDSTATInterrupt fires on an enabled STAT condition.
	LCDSTATInterrupt
	// TimerInterrupt fires when TIMA overflows.
	TimerInterrupt
	// SerialInterrupt fires when a serial transfer completes.
	SerialInterrupt
	// JoypadInterrupt fires when a selected button line goes low.
	JoypadInterrupt
)
