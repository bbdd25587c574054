// Package snapshot provides point-in-time machine state capture and
// restore. A snapshot is a versioned byte stream tagged with the
// identity of the loaded cartridge; restoring onto a different
// cartridge is refused.
package snapshot

import (
	"os"
)

// Stater is implemented by every component that participates in
// snapshots. Save appends the component's state to the stream; Load
// reads it back in the same order.
type Stater interface {
	Save(*State)
	Load(*State)
}

// State is a flat byte stream holding serialized machine state.
// Write* methods append, Read* methods consume from the front.
type State struct {
	raw []byte
	pos int
}

// NewState returns an empty state ready for writing.
func NewState() *State {
	return &State{raw: make([]byte, 0, 1024)}
}

// FromBytes wraps an existing serialized stream for reading.
func FromBytes(raw []byte) *State {
	return &State{raw: raw}
}

// Rewind resets the read position to the start of the stream.
func (s *State) Rewind() {
	s.pos = 0
}

// Len returns the total stream length in bytes.
func (s *State) Len() int {
	return len(s.raw)
}

// Remaining returns the number of unread bytes.
func (s *State) Remaining() int {
	return len(s.raw) - s.pos
}

// Bytes returns the underlying stream.
func (s *State) Bytes() []byte {
	return s.raw
}

func (s *State) Write8(v uint8) {
	s.raw = append(s.raw, v)
}

func (s *State) Write16(v uint16) {
	s.raw = append(s.raw, byte(v), byte(v>>8))
}

func (s *State) Write32(v uint32) {
	s.raw = append(s.raw, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func (s *State) Write64(v uint64) {
	s.Write32(uint32(v))
	s.Write32(uint32(v >> 32))
}

func (s *State) WriteBool(v bool) {
	if v {
		s.raw = append(s.raw, 1)
	} else {
		s.raw = append(s.raw, 0)
	}
}

// WriteData appends raw bytes. The length is not recorded; readers are
// expected to know the layout.
func (s *State) WriteData(data []byte) {
	s.raw = append(s.raw, data...)
}

func (s *State) Read8() uint8 {
	v := s.raw[s.pos]
	s.pos++
	return v
}

func (s *State) Read16() uint16 {
	v := uint16(s.raw[s.pos]) | uint16(s.raw[s.pos+1])<<8
	s.pos += 2
	return v
}

func (s *State) Read32() uint32 {
	v := uint32(s.raw[s.pos]) |
		uint32(s.raw[s.pos+1])<<8 |
		uint32(s.raw[s.pos+2])<<16 |
		uint32(s.raw[s.pos+3])<<24
	s.pos += 4
	return v
}

func (s *State) Read64() uint64 {
	lo := uint64(s.Read32())
	hi := uint64(s.Read32())
	return lo | hi<<32
}

func (s *State) ReadBool() bool {
	v := s.raw[s.pos] != 0
	s.pos++
	return v
}

// ReadData fills p from the stream.
func (s *State) ReadData(p []byte) {
	copy(p, s.raw[s.pos:])
	s.pos += len(p)
}

// SaveToFile writes the stream to disk.
func (s *State) SaveToFile(filename string) error {
	return os.WriteFile(filename, s.raw, 0o644)
}

// LoadFromFile reads a stream back from disk.
func LoadFromFile(filename string) (*State, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return FromBytes(raw), nil
}
