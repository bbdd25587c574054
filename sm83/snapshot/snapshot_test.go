package snapshot

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateReadsBackWrites(t *testing.T) {
	s := NewState()
	s.Write8(0x12)
	s.Write16(0x3456)
	s.Write32(0x789ABCDE)
	s.Write64(0x0123456789ABCDEF)
	s.WriteBool(true)
	s.WriteBool(false)
	s.WriteData([]byte{0xAA, 0xBB})

	r := FromBytes(s.Bytes())
	assert.Equal(t, uint8(0x12), r.Read8())
	assert.Equal(t, uint16(0x3456), r.Read16())
	assert.Equal(t, uint32(0x789ABCDE), r.Read32())
	assert.Equal(t, uint64(0x0123456789ABCDEF), r.Read64())
	assert.True(t, r.ReadBool())
	assert.False(t, r.ReadBool())

	data := make([]byte, 2)
	r.ReadData(data)
	assert.Equal(t, []byte{0xAA, 0xBB}, data)
	assert.Zero(t, r.Remaining())
}

func TestStateRewind(t *testing.T) {
	s := NewState()
	s.Write16(0xBEEF)

	assert.Equal(t, uint16(0xBEEF), s.Read16())
	s.Rewind()
	assert.Equal(t, uint16(0xBEEF), s.Read16())
}

func TestRecordEncodeDecode(t *testing.T) {
	record := &Record{
		Slot:      3,
		CartHash:  0xDEADBEEFCAFEF00D,
		CartTitle: "POKEMON RED",
		Payload:   []byte{1, 2, 3, 4, 5},
	}

	decoded, err := Decode(FromBytes(record.Encode().Bytes()))
	require.NoError(t, err)
	assert.Equal(t, record, decoded)
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	record := &Record{Slot: 0, CartTitle: "X", Payload: []byte{1}}
	raw := record.Encode().Bytes()
	raw[0] ^= 0xFF

	_, err := Decode(FromBytes(raw))
	assert.ErrorIs(t, err, ErrCorruptSnapshot)
}

func TestDecodeRejectsBadVersion(t *testing.T) {
	record := &Record{Slot: 0, CartTitle: "X", Payload: []byte{1}}
	raw := record.Encode().Bytes()
	raw[4] = headerVersion + 1

	_, err := Decode(FromBytes(raw))
	assert.ErrorIs(t, err, ErrCorruptSnapshot)
}

func TestDecodeRejectsTruncation(t *testing.T) {
	record := &Record{Slot: 0, CartTitle: "TITLE", Payload: []byte{1, 2, 3, 4}}
	raw := record.Encode().Bytes()

	for _, cut := range []int{3, 10, len(raw) - 2} {
		_, err := Decode(FromBytes(raw[:cut]))
		assert.ErrorIs(t, err, ErrCorruptSnapshot, "cut at %d", cut)
	}
}

func TestMatches(t *testing.T) {
	record := &Record{CartHash: 42, CartTitle: "GAME"}

	assert.True(t, record.Matches(42, "GAME"))
	assert.False(t, record.Matches(42, "OTHER"))
	assert.False(t, record.Matches(43, "GAME"))
}

func TestSlotPath(t *testing.T) {
	assert.Equal(t, filepath.Join("saves", "slot0.state"), SlotPath("saves", 0))
	assert.Equal(t, filepath.Join("saves", "slot9.state"), SlotPath("saves", 9))
}

func TestStateFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slot1.state")

	s := NewState()
	s.Write32(0x11223344)
	require.NoError(t, s.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x11223344), loaded.Read32())
}
