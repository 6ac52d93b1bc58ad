package mailbox

import (
	"errors"
	"testing"
)

func TestArena_AllocAndBytes(t *testing.T) {
	a := NewArena(32)

	s1, err := a.Alloc(8)
	if err != nil {
		t.Fatalf("Alloc(8) failed: %v", err)
	}
	s2, err := a.Alloc(4)
	if err != nil {
		t.Fatalf("Alloc(4) failed: %v", err)
	}
	if s1 == s2 {
		t.Errorf("slots not distinct: %d == %d", s1, s2)
	}
	if got := a.Used(); got != 12 {
		t.Errorf("Used() = %d, want 12", got)
	}

	// Writes through one view are visible through another.
	w, err := a.Bytes(s1, 8)
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	copy(w, "abcdefgh")
	r, err := a.Bytes(s1, 8)
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	if string(r) != "abcdefgh" {
		t.Errorf("slot contents = %q, want %q", r, "abcdefgh")
	}
}

func TestArena_Exhaustion(t *testing.T) {
	a := NewArena(16)
	if _, err := a.Alloc(16); err != nil {
		t.Fatalf("Alloc(16) failed: %v", err)
	}
	if _, err := a.Alloc(1); !errors.Is(err, ErrArenaExhausted) {
		t.Errorf("Alloc past capacity: error = %v, want ErrArenaExhausted", err)
	}
}

func TestArena_Reset(t *testing.T) {
	a := NewArena(16)
	slot, err := a.Alloc(8)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}

	a.Reset()
	if got := a.Used(); got != 0 {
		t.Errorf("Used() after Reset = %d, want 0", got)
	}
	// Stale slot handles are invalid after reset.
	if _, err := a.Bytes(slot, 8); err == nil {
		t.Error("Bytes on stale slot succeeded, want error")
	}
}

func TestArena_BytesOutOfBounds(t *testing.T) {
	a := NewArena(16)
	slot, err := a.Alloc(8)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	if _, err := a.Bytes(slot, 9); err == nil {
		t.Error("Bytes past reservation succeeded, want error")
	}
}

func TestArena_Truncate(t *testing.T) {
	a := NewArena(64)
	if _, err := a.Alloc(16); err != nil {
		t.Fatalf("Alloc(16) failed: %v", err)
	}
	mark := a.Used()
	if _, err := a.Alloc(32); err != nil {
		t.Fatalf("Alloc(32) failed: %v", err)
	}

	a.Truncate(mark)
	if got := a.Used(); got != mark {
		t.Fatalf("Used() after truncate = %d, want %d", got, mark)
	}

	// The reclaimed space is allocatable again.
	slot, err := a.Alloc(48)
	if err != nil {
		t.Fatalf("Alloc after truncate failed: %v", err)
	}
	if int(slot) != mark {
		t.Errorf("slot after truncate = %d, want %d", slot, mark)
	}

	// Marks outside the allocated range are ignored.
	a.Truncate(-1)
	a.Truncate(a.Cap() + 1)
	if got := a.Used(); got != mark+48 {
		t.Errorf("Used() after out-of-range truncates = %d, want %d", got, mark+48)
	}
}
