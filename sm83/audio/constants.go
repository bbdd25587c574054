package audio

// CPUFrequency is the base clock in Hz.
const CPUFrequency = 4194304

const (
	// frameSequencerCycles is the clock divider for the frame
	// sequencer: 4194304 / 8192 = 512 Hz.
	frameSequencerCycles = 8192

	// DefaultSampleRate is the host sample rate used when none is
	// configured.
	DefaultSampleRate = 44100

	// waveRAMSize is the wave pattern RAM size in bytes (32 nibbles).
	waveRAMSize = 16

	// lfsrSeed is the all-ones reset value of the noise LFSR.
	lfsrSeed = 0x7FFF

	// maxFrequency is the largest 11-bit period register value.
	maxFrequency = 2047
)

// dutyPatterns holds the four pulse waveforms, one bit per phase step.
var dutyPatterns = [4]uint8{
	0b00000001, // 12.5%
	0b10000001, // 25%
	0b10000111, // 50%
	0b01111110, // 75%
}

// registerReadMask is ORed into register reads: write-only and unused
// bits read back as 1. Indexed from NR10 (0xFF10).
var registerReadMask = [0x20]uint8{
	0x80, 0x3F, 0x00, 0xFF, 0xBF, // NR10-NR14
	0xFF, 0x3F, 0x00, 0xFF, 0xBF, // NR20-NR24
	0x7F, 0xFF, 0x9F, 0xFF, 0xBF, // NR30-NR34
	0xFF, 0xFF, 0x00, 0x00, 0xBF, // NR40-NR44
	0x00, 0x00, 0x70, // NR50-NR52
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, // unused
}
