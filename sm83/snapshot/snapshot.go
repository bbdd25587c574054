package snapshot

import (
	"errors"
	"fmt"
	"path/filepath"
)

// SlotCount is the number of save slots available to the host.
const SlotCount = 10

const (
	headerMagic   = 0x534D3833 // "SM83"
	headerVersion = 1
)

// ErrCorruptSnapshot is returned when a snapshot fails validation:
// truncated stream, bad magic/version, or a cartridge identity that
// does not match the loaded cartridge. The machine is left untouched.
var ErrCorruptSnapshot = errors.New("corrupt or mismatched snapshot")

// Record is an immutable point-in-time copy of machine state, taken at
// an instruction boundary and tagged with a slot and the identity of
// the cartridge it was taken on.
type Record struct {
	Slot      int
	CartHash  uint64 // xxhash64 of the ROM image
	CartTitle string // header title bytes
	Payload   []byte // serialized component sections
}

// Encode serializes the record, header first.
func (r *Record) Encode() *State {
	s := NewState()
	s.Write32(headerMagic)
	s.Write8(headerVersion)
	s.Write8(uint8(r.Slot))
	s.Write64(r.CartHash)
	s.Write8(uint8(len(r.CartTitle)))
	s.WriteData([]byte(r.CartTitle))
	s.Write32(uint32(len(r.Payload)))
	s.WriteData(r.Payload)
	return s
}

// Decode parses and validates a serialized record.
func Decode(s *State) (*Record, error) {
	// magic(4) + version(1) + slot(1) + hash(8) + title len(1)
	if s.Remaining() < 15 {
		return nil, fmt.Errorf("%w: truncated header", ErrCorruptSnapshot)
	}
	if s.Read32() != headerMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrCorruptSnapshot)
	}
	if v := s.Read8(); v != headerVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptSnapshot, v)
	}

	r := &Record{Slot: int(s.Read8())}
	r.CartHash = s.Read64()

	titleLen := int(s.Read8())
	if s.Remaining() < titleLen+4 {
		return nil, fmt.Errorf("%w: truncated identity", ErrCorruptSnapshot)
	}
	title := make([]byte, titleLen)
	s.ReadData(title)
	r.CartTitle = string(title)

	payloadLen := int(s.Read32())
	if s.Remaining() != payloadLen {
		return nil, fmt.Errorf("%w: payload size mismatch", ErrCorruptSnapshot)
	}
	r.Payload = make([]byte, payloadLen)
	s.ReadData(r.Payload)
	return r, nil
}

// Matches reports whether the record was taken on the cartridge
// identified by the given hash and title.
func (r *Record) Matches(hash uint64, title string) bool {
	return r.CartHash == hash && r.CartTitle == title
}

// SlotPath returns the on-disk filename for a slot.
func SlotPath(dir string, slot int) string {
	return filepath.Join(dir, fmt.Sprintf("slot%d.state", slot))
}
