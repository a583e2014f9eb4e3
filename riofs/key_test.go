package riofs

import (
	"testing"
	"time"

	"github.com/go-hep/groot/rbytes"
)

func TestDatimeToTime(t *testing.T) {
	// 2020-03-15 10:30:05, packed per TDatime::Set's bit layout.
	raw := uint32(25)<<26 | uint32(3)<<22 | uint32(15)<<17 | uint32(10)<<12 | uint32(30)<<6 | uint32(5)
	got := datimeToTime(raw)
	want := time.Date(2020, 3, 15, 10, 30, 5, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("datimeToTime(%#x) = %v, want %v", raw, got, want)
	}
}

func appendKeyString(data []byte, s string) []byte {
	data = append(data, byte(len(s)))
	return append(data, s...)
}

func TestReadKey32BitSeek(t *testing.T) {
	var data []byte
	data = append(data, 0, 0, 0, 100) // Bytes
	data = append(data, 0, 1)         // Version (<=1000, 32-bit seek)
	data = append(data, 0, 0, 0, 50)  // ObjLen
	data = append(data, 0, 0, 0, 0)   // Datetime raw (zeroed; not under test here)
	keyLenPos := len(data)
	data = append(data, 0, 0) // KeyLen placeholder
	data = append(data, 0, 1) // Cycle
	data = append(data, 0, 0, 0, 7)  // SeekKey
	data = append(data, 0, 0, 0, 0)  // SeekPdir
	data = appendKeyString(data, "TH1F")
	data = appendKeyString(data, "h1")
	data = appendKeyString(data, "")

	keyLen := int16(len(data))
	data[keyLenPos] = byte(keyLen >> 8)
	data[keyLenPos+1] = byte(keyLen)

	c := rbytes.NewCursor(data, 0, "test")
	k, err := ReadKey(c, nil)
	if err != nil {
		t.Fatalf("ReadKey() error = %v", err)
	}
	if k.Version != 1 || k.SeekKey != 7 || k.ClassName != "TH1F" || k.Name != "h1" || k.Cycle != 1 {
		t.Fatalf("ReadKey() = %+v", k)
	}
	if k.KeyLen != keyLen {
		t.Errorf("KeyLen = %d, want %d", k.KeyLen, keyLen)
	}
	if k.dataOffset != int64(keyLen) {
		t.Errorf("dataOffset = %d, want %d", k.dataOffset, keyLen)
	}
	if k.NameCycle() != "h1;1" {
		t.Errorf("NameCycle() = %q, want h1;1", k.NameCycle())
	}
}

func TestReadKeyZeroByteCountIsFreeSpaceMarker(t *testing.T) {
	data := []byte{0, 0, 0, 0}
	c := rbytes.NewCursor(data, 0, "test")
	_, err := ReadKey(c, nil)
	if err == nil {
		t.Fatalf("ReadKey() with zero Bytes should error")
	}
}

func TestKeyCompressedLen(t *testing.T) {
	k := &Key{Bytes: 100, KeyLen: 30}
	if got := k.compressedLen(); got != 70 {
		t.Errorf("compressedLen() = %d, want 70", got)
	}
	k2 := &Key{Bytes: 10, KeyLen: 30}
	if got := k2.compressedLen(); got != 0 {
		t.Errorf("compressedLen() with KeyLen > Bytes = %d, want 0 (floored)", got)
	}
}
