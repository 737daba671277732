package color

import (
	"bytes"
	"testing"
)

func TestPack(t *testing.T) {
	strip := []Color{{R: 1, G: 2, B: 3}, {R: 4, G: 5, B: 6}}
	got := Bytes(strip)
	want := []byte{1, 2, 3, 4, 5, 6}
	if !bytes.Equal(got, want) {
		t.Errorf("Bytes = %v, want %v", got, want)
	}
}

func TestPackAppendsToExistingBuffer(t *testing.T) {
	dst := []byte{0xFF}
	dst = Pack(dst, []Color{{R: 1, G: 2, B: 3}})
	want := []byte{0xFF, 1, 2, 3}
	if !bytes.Equal(dst, want) {
		t.Errorf("Pack = %v, want %v", dst, want)
	}
}

func TestPackEmpty(t *testing.T) {
	if got := Bytes(nil); len(got) != 0 {
		t.Errorf("Bytes(nil) = %v, want empty", got)
	}
}
