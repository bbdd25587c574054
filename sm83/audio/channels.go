package audio

import "github.com/ThaumielSparrow/go-sm83/sm83/snapshot"

// lengthCounter silences a channel when it counts down to zero while
// enabled. Pulse and noise channels count from 64, wave from 256.
type lengthCounter struct {
	counter uint16
	max     uint16
	enabled bool
}

// clock decrements the counter; reports true when it just expired.
func (l *lengthCounter) clock() bool {
	if !l.enabled || l.counter == 0 {
		return false
	}
	l.counter--
	return l.counter == 0
}

// reload arms the counter on trigger if it has run out.
func (l *lengthCounter) reload() {
	if l.counter == 0 {
		l.counter = l.max
	}
}

func (l *lengthCounter) save(s *snapshot.State) {
	s.Write16(l.counter)
	s.WriteBool(l.enabled)
}

func (l *lengthCounter) load(s *snapshot.State) {
	l.counter = s.Read16()
	l.enabled = s.ReadBool()
}

// envelope steps a channel volume up or down at 64 Hz.
type envelope struct {
	period   uint8
	timer    uint8
	increase bool
	volume   uint8
}

func (e *envelope) clock() {
	if e.period == 0 {
		return
	}
	e.timer++
	if e.timer < e.period {
		return
	}
	e.timer = 0
	if e.increase && e.volume < 15 {
		e.volume++
	} else if !e.increase && e.volume > 0 {
		e.volume--
	}
}

func (e *envelope) save(s *snapshot.State) {
	s.Write8(e.period)
	s.Write8(e.timer)
	s.WriteBool(e.increase)
	s.Write8(e.volume)
}

func (e *envelope) load(s *snapshot.State) {
	e.period = s.Read8()
	e.timer = s.Read8()
	e.increase = s.ReadBool()
	e.volume = s.Read8()
}

// pulseChannel is a square wave generator with envelope; channel 1
// additionally owns the frequency sweep unit.
type pulseChannel struct {
	enabled    bool
	dacEnabled bool

	duty    uint8
	dutyPos uint8
	freq    uint16
	timer   int

	length lengthCounter
	env    envelope

	// sweep unit, wired only on channel 1
	hasSweep    bool
	sweepPeriod uint8
	sweepNegate bool
	sweepShift  uint8
	sweepTimer  uint8
	sweepOn     bool
	sweepShadow uint16
}

func (c *pulseChannel) period() int {
	return (2048 - int(c.freq)) * 4
}

func (c *pulseChannel) tick(cycles int) {
	if !c.enabled {
		return
	}
	c.timer -= cycles
	for c.timer <= 0 {
		c.timer += c.period()
		c.dutyPos = (c.dutyPos + 1) & 7
	}
}

// output returns the current 4-bit DAC input.
func (c *pulseChannel) output() uint8 {
	if !c.enabled || !c.dacEnabled {
		return 0
	}
	if dutyPatterns[c.duty]>>(c.dutyPos)&1 == 1 {
		return c.env.volume
	}
	return 0
}

func (c *pulseChannel) trigger() {
	if c.dacEnabled {
		c.enabled = true
	}
	c.length.reload()
	c.timer = c.period()
	c.env.timer = 0

	if c.hasSweep {
		c.sweepShadow = c.freq
		c.sweepTimer = c.sweepReload()
		c.sweepOn = c.sweepPeriod != 0 || c.sweepShift != 0
		if c.sweepShift != 0 {
			c.sweepNext() // immediate overflow check
		}
	}
}

func (c *pulseChannel) sweepReload() uint8 {
	if c.sweepPeriod == 0 {
		return 8
	}
	return c.sweepPeriod
}

// sweepNext computes the next sweep frequency and disables the channel
// on overflow. The shadow register is not updated here.
func (c *pulseChannel) sweepNext() uint16 {
	delta := c.sweepShadow >> c.sweepShift
	next := c.sweepShadow + delta
	if c.sweepNegate {
		next = c.sweepShadow - delta
	}
	if next > maxFrequency {
		c.enabled = false
	}
	return next
}

// clockSweep advances the sweep unit (128 Hz).
func (c *pulseChannel) clockSweep() {
	if !c.hasSweep || !c.sweepOn {
		return
	}
	if c.sweepTimer > 0 {
		c.sweepTimer--
	}
	if c.sweepTimer != 0 {
		return
	}
	c.sweepTimer = c.sweepReload()
	if c.sweepPeriod == 0 {
		return
	}
	next := c.sweepNext()
	if next <= maxFrequency && c.sweepShift != 0 {
		c.freq = next
		c.sweepShadow = next
		c.sweepNext() // second overflow check with the new value
	}
}

func (c *pulseChannel) save(s *snapshot.State) {
	s.WriteBool(c.enabled)
	s.WriteBool(c.dacEnabled)
	s.Write8(c.duty)
	s.Write8(c.dutyPos)
	s.Write16(c.freq)
	s.Write32(uint32(c.timer))
	c.length.save(s)
	c.env.save(s)
	s.Write8(c.sweepPeriod)
	s.WriteBool(c.sweepNegate)
	s.Write8(c.sweepShift)
	s.Write8(c.sweepTimer)
	s.WriteBool(c.sweepOn)
	s.Write16(c.sweepShadow)
}

func (c *pulseChannel) load(s *snapshot.State) {
	c.enabled = s.ReadBool()
	c.dacEnabled = s.ReadBool()
	c.duty = s.Read8()
	c.dutyPos = s.Read8()
	c.freq = s.Read16()
	c.timer = int(int32(s.Read32()))
	c.length.load(s)
	c.env.load(s)
	c.sweepPeriod = s.Read8()
	c.sweepNegate = s.ReadBool()
	c.sweepShift = s.Read8()
	c.sweepTimer = s.Read8()
	c.sweepOn = s.ReadBool()
	c.sweepShadow = s.Read16()
}

// waveChannel plays 32 4-bit samples from wave RAM.
type waveChannel struct {
	enabled    bool
	dacEnabled bool

	freq     uint16
	timer    int
	position uint8 // 0-31
	level    uint8 // NR32 bits 6-5

	length lengthCounter
	ram    [waveRAMSize]uint8
}

func (c *waveChannel) period() int {
	return (2048 - int(c.freq)) * 2
}

func (c *waveChannel) tick(cycles int) {
	if !c.enabled {
		return
	}
	c.timer -= cycles
	for c.timer <= 0 {
		c.timer += c.period()
		c.position = (c.position + 1) & 31
	}
}

// waveLevelShift maps NR32 output level to a right shift: mute, 100%,
// 50%, 25%.
var waveLevelShift = [4]uint8{4, 0, 1, 2}

func (c *waveChannel) output() uint8 {
	if !c.enabled || !c.dacEnabled {
		return 0
	}
	sample := c.ram[c.position/2]
	if c.position&1 == 0 {
		sample >>= 4
	}
	sample &= 0x0F
	return sample >> waveLevelShift[c.level&3]
}

func (c *waveChannel) trigger() {
	if c.dacEnabled {
		c.enabled = true
	}
	c.length.reload()
	c.timer = c.period()
	c.position = 0
}

func (c *waveChannel) save(s *snapshot.State) {
	s.WriteBool(c.enabled)
	s.WriteBool(c.dacEnabled)
	s.Write16(c.freq)
	s.Write32(uint32(c.timer))
	s.Write8(c.position)
	s.Write8(c.level)
	c.length.save(s)
	s.WriteData(c.ram[:])
}

func (c *waveChannel) load(s *snapshot.State) {
	c.enabled = s.ReadBool()
	c.dacEnabled = s.ReadBool()
	c.freq = s.Read16()
	c.timer = int(int32(s.Read32()))
	c.position = s.Read8()
	c.level = s.Read8()
	c.length.load(s)
	s.ReadData(c.ram[:])
}

// noiseChannel clocks a 15-bit LFSR, optionally narrowed to 7 bits.
type noiseChannel struct {
	enabled    bool
	dacEnabled bool

	shift     uint8
	width7    bool
	divisor   uint8
	timer     int
	lfsr      uint16

	length lengthCounter
	env    envelope
}

func (c *noiseChannel) period() int {
	d := int(c.divisor) * 16
	if c.divisor == 0 {
		d = 8
	}
	return d << c.shift
}

func (c *noiseChannel) tick(cycles int) {
	if !c.enabled {
		return
	}
	c.timer -= cycles
	for c.timer <= 0 {
		c.timer += c.period()
		feedback := (c.lfsr ^ c.lfsr>>1) & 1
		c.lfsr = c.lfsr>>1 | feedback<<14
		if c.width7 {
			c.lfsr = c.lfsr&^(1<<6) | feedback<<6
		}
	}
}

func (c *noiseChannel) output() uint8 {
	if !c.enabled || !c.dacEnabled {
		return 0
	}
	if c.lfsr&1 == 0 {
		return c.env.volume
	}
	return 0
}

func (c *noiseChannel) trigger() {
	if c.dacEnabled {
		c.enabled = true
	}
	c.length.reload()
	c.timer = c.period()
	c.env.timer = 0
	c.lfsr = lfsrSeed
}

func (c *noiseChannel) save(s *snapshot.State) {
	s.WriteBool(c.enabled)
	s.WriteBool(c.dacEnabled)
	s.Write8(c.shift)
	s.WriteBool(c.width7)
	s.Write8(c.divisor)
	s.Write32(uint32(c.timer))
	s.Write16(c.lfsr)
	c.length.save(s)
	c.env.save(s)
}

func (c *noiseChannel) load(s *snapshot.State) {
	c.enabled = s.ReadBool()
	c.dacEnabled = s.ReadBool()
	c.shift = s.Read8()
	c.width7 = s.ReadBool()
	c.divisor = s.Read8()
	c.timer = int(int32(s.Read32()))
	c.lfsr = s.Read16()
	c.length.load(s)
	c.env.load(s)
}
