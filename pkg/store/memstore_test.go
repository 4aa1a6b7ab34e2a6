package store

import (
	"testing"

	"viewstate/pkg/docid"
)

func TestMemStore_PutGetDelete(t *testing.T) {
	s := NewMemStore()

	// Missing key.
	if _, ok, err := s.Get("absent"); err != nil || ok {
		t.Errorf("Expected absent key, got ok=%v err=%v", ok, err)
	}

	// Put then read back.
	if err := s.Put("k", "preview"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	v, ok, err := s.Get("k")
	if err != nil || !ok {
		t.Fatalf("Expected value present, got ok=%v err=%v", ok, err)
	}
	if v != "preview" {
		t.Errorf("Expected 'preview', got %q", v)
	}

	// Overwrite.
	if err := s.Put("k", "source"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	v, _, _ = s.Get("k")
	if v != "source" {
		t.Errorf("Expected 'source' after overwrite, got %q", v)
	}

	// Delete, including an absent key.
	if err := s.Delete("k"); err != nil {
		t.Errorf("Delete failed: %v", err)
	}
	if err := s.Delete("k"); err != nil {
		t.Errorf("Deleting absent key should not error, got %v", err)
	}
	if _, ok, _ := s.Get("k"); ok {
		t.Error("Expected key gone after delete")
	}
}

func TestMemStore_ListKeys(t *testing.T) {
	s := NewMemStore()

	keys, err := s.ListKeys()
	if err != nil {
		t.Fatalf("ListKeys failed: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("Expected no keys in empty store, got %d", len(keys))
	}

	if err := s.Put("a", "1"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Put("b", "2"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	keys, err = s.ListKeys()
	if err != nil {
		t.Fatalf("ListKeys failed: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("Expected 2 keys, got %d", len(keys))
	}
}

func TestModeKey_RoundTrip(t *testing.T) {
	id, err := docid.Parse("file:///tmp/a.md")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	key := ModeKey(id)
	raw, ok := RawIdentity(key)
	if !ok {
		t.Fatal("Expected ModeKey output to be in the mode namespace")
	}
	if raw != id.String() {
		t.Errorf("Expected raw identity %q, got %q", id.String(), raw)
	}

	// Keys from other namespaces are rejected.
	if _, ok := RawIdentity("othersubsystem." + id.String()); ok {
		t.Error("Expected foreign key to be outside the mode namespace")
	}
}
