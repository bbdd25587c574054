// Package audio implements the four-channel sound unit: two pulse
// channels, a wave channel and a noise channel, mixed into interleaved
// stereo int16 samples at a configurable host rate.
package audio

import (
	"sync"

	"github.com/ThaumielSparrow/go-sm83/sm83/addr"
	"github.com/ThaumielSparrow/go-sm83/sm83/snapshot"
)

// APU is the audio processing unit. Tick drives it with CPU clock
// cycles; generated samples accumulate in an internal buffer until the
// frontend drains them.
type APU struct {
	enabled bool

	ch1 pulseChannel
	ch2 pulseChannel
	ch3 waveChannel
	ch4 noiseChannel

	// raw register bytes, kept for read-back of fields that the
	// channel state does not preserve exactly
	registers [0x17]uint8

	frameCycles int
	frameStep   uint8

	sampleRate   int
	sampleCycles int
	sampleAccum  int

	mu      sync.Mutex
	samples []int16
}

// New creates a powered-on APU producing samples at DefaultSampleRate.
func New() *APU {
	a := &APU{
		enabled:    true,
		sampleRate: DefaultSampleRate,
	}
	a.ch1.hasSweep = true
	a.ch1.length.max = 64
	a.ch2.length.max = 64
	a.ch3.length.max = 256
	a.ch4.length.max = 64
	a.ch4.lfsr = lfsrSeed
	a.sampleCycles = CPUFrequency / a.sampleRate
	a.samples = make([]int16, 0, a.sampleRate/10)
	return a
}

// SetSampleRate changes the host sample rate and drops buffered samples.
func (a *APU) SetSampleRate(rate int) {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	a.sampleRate = rate
	a.sampleCycles = CPUFrequency / rate
	a.sampleAccum = 0
	a.mu.Lock()
	a.samples = a.samples[:0]
	a.mu.Unlock()
}

// SampleRate returns the configured host sample rate.
func (a *APU) SampleRate() int { return a.sampleRate }

// Tick advances the sound unit by the given number of clock cycles.
func (a *APU) Tick(cycles int) {
	if !a.enabled {
		// the sequencer halts but sample output keeps pace with silence
		a.emitSilence(cycles)
		return
	}

	a.ch1.tick(cycles)
	a.ch2.tick(cycles)
	a.ch3.tick(cycles)
	a.ch4.tick(cycles)

	a.frameCycles += cycles
	for a.frameCycles >= frameSequencerCycles {
		a.frameCycles -= frameSequencerCycles
		a.clockFrameSequencer()
	}

	a.sampleAccum += cycles
	for a.sampleAccum >= a.sampleCycles {
		a.sampleAccum -= a.sampleCycles
		left, right := a.mix()
		a.mu.Lock()
		a.samples = append(a.samples, left, right)
		a.mu.Unlock()
	}
}

func (a *APU) emitSilence(cycles int) {
	a.sampleAccum += cycles
	for a.sampleAccum >= a.sampleCycles {
		a.sampleAccum -= a.sampleCycles
		a.mu.Lock()
		a.samples = append(a.samples, 0, 0)
		a.mu.Unlock()
	}
}

// clockFrameSequencer advances the 512 Hz sequencer: length on steps
// 0/2/4/6, sweep on 2/6, envelope on 7.
func (a *APU) clockFrameSequencer() {
	switch a.frameStep {
	case 0, 4:
		a.clockLengths()
	case 2, 6:
		a.clockLengths()
		a.ch1.clockSweep()
	case 7:
		a.ch1.env.clock()
		a.ch2.env.clock()
		a.ch4.env.clock()
	}
	a.frameStep = (a.frameStep + 1) & 7
}

func (a *APU) clockLengths() {
	if a.ch1.length.clock() {
		a.ch1.enabled = false
	}
	if a.ch2.length.clock() {
		a.ch2.enabled = false
	}
	if a.ch3.length.clock() {
		a.ch3.enabled = false
	}
	if a.ch4.length.clock() {
		a.ch4.enabled = false
	}
}

// mix combines the four channel outputs into one stereo sample pair
// according to the NR51 panning matrix and the NR50 master volumes.
func (a *APU) mix() (left, right int16) {
	nr51 := a.registers[addr.NR51-addr.AudioStart]
	nr50 := a.registers[addr.NR50-addr.AudioStart]

	outs := [4]uint8{a.ch1.output(), a.ch2.output(), a.ch3.output(), a.ch4.output()}

	var l, r int
	for ch := 0; ch < 4; ch++ {
		if nr51>>(ch+4)&1 == 1 {
			l += int(outs[ch])
		}
		if nr51>>ch&1 == 1 {
			r += int(outs[ch])
		}
	}

	// each channel contributes 0-15, four channels at max volume land
	// well inside int16 range after scaling
	leftVol := int(nr50>>4&0x07) + 1
	rightVol := int(nr50&0x07) + 1
	return int16(l * leftVol * 64), int16(r * rightVol * 64)
}

// Drain returns the buffered stereo samples and resets the buffer.
func (a *APU) Drain() []int16 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.samples) == 0 {
		return nil
	}
	out := make([]int16, len(a.samples))
	copy(out, a.samples)
	a.samples = a.samples[:0]
	return out
}

// BufferedSamples reports how many samples are waiting to be drained.
func (a *APU) BufferedSamples() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.samples)
}

// ReadRegister returns the register byte with write-only bits forced
// high. Wave RAM reads the stored pattern directly.
func (a *APU) ReadRegister(address uint16) uint8 {
	if address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd {
		return a.ch3.ram[address-addr.WaveRAMStart]
	}
	if address > addr.NR52 {
		// 0xFF27-0xFF2F is unmapped
		return 0xFF
	}

	index := address - addr.AudioStart
	if address == addr.NR52 {
		status := uint8(0)
		if a.enabled {
			status |= 0x80
		}
		if a.ch1.enabled {
			status |= 0x01
		}
		if a.ch2.enabled {
			status |= 0x02
		}
		if a.ch3.enabled {
			status |= 0x04
		}
		if a.ch4.enabled {
			status |= 0x08
		}
		return status | registerReadMask[index]
	}
	return a.registers[index] | registerReadMask[index]
}

// WriteRegister applies a register write and its channel side effects.
// While the unit is powered off only NR52 and wave RAM are writable.
func (a *APU) WriteRegister(address uint16, value uint8) {
	if address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd {
		a.ch3.ram[address-addr.WaveRAMStart] = value
		return
	}
	if address > addr.NR52 {
		return
	}
	if !a.enabled && address != addr.NR52 {
		return
	}

	a.registers[address-addr.AudioStart] = value

	switch address {
	case addr.NR10:
		a.ch1.sweepPeriod = value >> 4 & 0x07
		a.ch1.sweepNegate = value&0x08 != 0
		a.ch1.sweepShift = value & 0x07
	case addr.NR11:
		a.ch1.duty = value >> 6
		a.ch1.length.counter = 64 - uint16(value&0x3F)
	case addr.NR12:
		a.writeEnvelope(&a.ch1.env, value)
		a.ch1.dacEnabled = value&0xF8 != 0
		if !a.ch1.dacEnabled {
			a.ch1.enabled = false
		}
	case addr.NR13:
		a.ch1.freq = a.ch1.freq&0x0700 | uint16(value)
	case addr.NR14:
		a.ch1.freq = a.ch1.freq&0x00FF | uint16(value&0x07)<<8
		a.ch1.length.enabled = value&0x40 != 0
		if value&0x80 != 0 {
			a.ch1.env.volume = a.registers[addr.NR12-addr.AudioStart] >> 4
			a.ch1.trigger()
		}

	case addr.NR21:
		a.ch2.duty = value >> 6
		a.ch2.length.counter = 64 - uint16(value&0x3F)
	case addr.NR22:
		a.writeEnvelope(&a.ch2.env, value)
		a.ch2.dacEnabled = value&0xF8 != 0
		if !a.ch2.dacEnabled {
			a.ch2.enabled = false
		}
	case addr.NR23:
		a.ch2.freq = a.ch2.freq&0x0700 | uint16(value)
	case addr.NR24:
		a.ch2.freq = a.ch2.freq&0x00FF | uint16(value&0x07)<<8
		a.ch2.length.enabled = value&0x40 != 0
		if value&0x80 != 0 {
			a.ch2.env.volume = a.registers[addr.NR22-addr.AudioStart] >> 4
			a.ch2.trigger()
		}

	case addr.NR30:
		a.ch3.dacEnabled = value&0x80 != 0
		if !a.ch3.dacEnabled {
			a.ch3.enabled = false
		}
	case addr.NR31:
		a.ch3.length.counter = 256 - uint16(value)
	case addr.NR32:
		a.ch3.level = value >> 5 & 0x03
	case addr.NR33:
		a.ch3.freq = a.ch3.freq&0x0700 | uint16(value)
	case addr.NR34:
		a.ch3.freq = a.ch3.freq&0x00FF | uint16(value&0x07)<<8
		a.ch3.length.enabled = value&0x40 != 0
		if value&0x80 != 0 {
			a.ch3.trigger()
		}

	case addr.NR41:
		a.ch4.length.counter = 64 - uint16(value&0x3F)
	case addr.NR42:
		a.writeEnvelope(&a.ch4.env, value)
		a.ch4.dacEnabled = value&0xF8 != 0
		if !a.ch4.dacEnabled {
			a.ch4.enabled = false
		}
	case addr.NR43:
		a.ch4.shift = value >> 4
		a.ch4.width7 = value&0x08 != 0
		a.ch4.divisor = value & 0x07
	case addr.NR44:
		a.ch4.length.enabled = value&0x40 != 0
		if value&0x80 != 0 {
			a.ch4.env.volume = a.registers[addr.NR42-addr.AudioStart] >> 4
			a.ch4.trigger()
		}

	case addr.NR52:
		on := value&0x80 != 0
		if a.enabled && !on {
			a.powerOff()
		} else if !a.enabled && on {
			a.enabled = true
			a.frameStep = 0
			a.frameCycles = 0
		}
	}
}

func (a *APU) writeEnvelope(e *envelope, value uint8) {
	e.volume = value >> 4
	e.increase = value&0x08 != 0
	e.period = value & 0x07
	e.timer = 0
}

// powerOff clears every register and channel; wave RAM survives.
func (a *APU) powerOff() {
	a.enabled = false
	a.registers = [0x17]uint8{}
	a.frameCycles = 0
	a.frameStep = 0

	ram := a.ch3.ram
	a.ch1 = pulseChannel{hasSweep: true}
	a.ch2 = pulseChannel{}
	a.ch3 = waveChannel{ram: ram}
	a.ch4 = noiseChannel{}
	a.ch1.length.max = 64
	a.ch2.length.max = 64
	a.ch3.length.max = 256
	a.ch4.length.max = 64
}

// Save serializes the full sound state except the host sample buffer.
func (a *APU) Save(s *snapshot.State) {
	s.WriteBool(a.enabled)
	s.WriteData(a.registers[:])
	s.Write32(uint32(a.frameCycles))
	s.Write8(a.frameStep)
	s.Write32(uint32(a.sampleAccum))
	a.ch1.save(s)
	a.ch2.save(s)
	a.ch3.save(s)
	a.ch4.save(s)
}

// Load restores sound state in the order written by Save.
func (a *APU) Load(s *snapshot.State) {
	a.enabled = s.ReadBool()
	s.ReadData(a.registers[:])
	a.frameCycles = int(s.Read32())
	a.frameStep = s.Read8()
	a.sampleAccum = int(s.Read32())
	a.ch1.load(s)
	a.ch2.load(s)
	a.ch3.load(s)
	a.ch4.load(s)

	a.mu.Lock()
	a.samples = a.samples[:0]
	a.mu.Unlock()
}
