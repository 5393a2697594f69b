package memory

import (
	"context"
	"testing"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, ok, err := s.Get(ctx, "finance:data"); ok || err != nil {
		t.Fatalf("expected absent key, got ok=%v err=%v", ok, err)
	}
	if err := s.Put(ctx, "finance:data", []byte(`[]`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	v, ok, err := s.Get(ctx, "finance:data")
	if err != nil || !ok || string(v) != "[]" {
		t.Fatalf("unexpected get: %q ok=%v err=%v", v, ok, err)
	}
	if err := s.Delete(ctx, "finance:data"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "finance:data"); err != nil {
		t.Fatalf("second delete must be a no-op: %v", err)
	}
	if len(s.Keys()) != 0 {
		t.Fatalf("expected empty store, got %v", s.Keys())
	}
}

func TestStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	seed := map[string][]byte{"k": []byte("abc")}
	s := NewSeeded(seed)
	seed["k"][0] = 'x'

	v, _, _ := s.Get(ctx, "k")
	if string(v) != "abc" {
		t.Fatalf("seed must be copied, got %q", v)
	}
	v[0] = 'y'
	again, _, _ := s.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("returned slice must be a copy, got %q", again)
	}
}
