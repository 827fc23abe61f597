package util

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBitmapSetClear(t *testing.T) {
	bm := NewBitmap(100)
	if bm.ByteLen() != 13 {
		t.Fatalf("byte length %d, expected 13", bm.ByteLen())
	}
	for _, loc := range []int{0, 7, 8, 99} {
		if err := bm.Set(loc); err != nil {
			t.Fatalf("set %d: %v", loc, err)
		}
		set, err := bm.IsSet(loc)
		if err != nil {
			t.Fatalf("isset %d: %v", loc, err)
		}
		if !set {
			t.Errorf("location %d not set", loc)
		}
	}
	if err := bm.Clear(7); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if set, _ := bm.IsSet(7); set {
		t.Errorf("location 7 still set after clear")
	}
	if free := bm.Free(); free != 97 {
		t.Errorf("free %d, expected 97", free)
	}
}

func TestBitmapOutOfRange(t *testing.T) {
	bm := NewBitmap(10)
	if err := bm.Set(10); err == nil {
		t.Errorf("expected error setting location 10 of 10")
	}
	if err := bm.Clear(-1); err == nil {
		t.Errorf("expected error clearing location -1")
	}
	if _, err := bm.IsSet(11); err == nil {
		t.Errorf("expected error reading location 11")
	}
}

func TestBitmapFirstFree(t *testing.T) {
	tests := []struct {
		name  string
		set   []int
		start int
		want  int
	}{
		{"empty", nil, 0, 0},
		{"first taken", []int{0}, 0, 1},
		{"full byte skipped", []int{0, 1, 2, 3, 4, 5, 6, 7}, 0, 8},
		{"start after hole", []int{1}, 2, 2},
		{"start in range", []int{3, 4}, 3, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bm := NewBitmap(20)
			for _, loc := range tt.set {
				_ = bm.Set(loc)
			}
			if got := bm.FirstFree(tt.start); got != tt.want {
				t.Errorf("FirstFree(%d) = %d, want %d", tt.start, got, tt.want)
			}
		})
	}
}

func TestBitmapFirstFreeExhausted(t *testing.T) {
	bm := NewBitmap(12)
	for i := 0; i < 12; i++ {
		_ = bm.Set(i)
	}
	if got := bm.FirstFree(0); got != -1 {
		t.Errorf("FirstFree on full bitmap = %d, want -1", got)
	}
}

func TestBitmapBytesRoundTrip(t *testing.T) {
	bm := NewBitmap(12)
	_ = bm.Set(1)
	_ = bm.Set(9)
	b := bm.ToBytes()
	if diff := cmp.Diff([]byte{0x02, 0x02}, b); diff != "" {
		t.Errorf("ToBytes mismatch (-want +got):\n%s", diff)
	}
	// bits past the length are dropped
	other := BitmapWithBytes([]byte{0x02, 0xf2}, 12)
	if !other.Equal(bm) {
		t.Errorf("BitmapWithBytes did not mask trailing bits: %v", other.ToBytes())
	}
}
