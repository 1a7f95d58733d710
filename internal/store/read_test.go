package store

import (
	"context"
	"testing"

	"github.com/roach88/undolog/internal/ir"
)

func TestListByModel_OrderedByID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := s.InsertOne(ctx, createTestDraft("m1", "a", "b")); err != nil {
			t.Fatalf("InsertOne() failed: %v", err)
		}
		if _, err := s.InsertOne(ctx, createTestDraft("m2", "a", "b")); err != nil {
			t.Fatalf("InsertOne() failed: %v", err)
		}
	}

	entries, err := s.ListByModel(ctx, "m1")
	if err != nil {
		t.Fatalf("ListByModel() failed: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("len = %d, want 5", len(entries))
	}
	for i, e := range entries {
		if e.ModelID != "m1" {
			t.Errorf("entries[%d] belongs to %q", i, e.ModelID)
		}
		if i > 0 && e.ID <= entries[i-1].ID {
			t.Errorf("entries not ordered by id at %d", i)
		}
	}
}

func TestListByModel_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)

	entries, err := s.ListByModel(context.Background(), "missing")
	if err != nil {
		t.Fatalf("ListByModel() failed: %v", err)
	}
	if entries == nil {
		t.Error("expected empty slice, got nil")
	}
}

func TestListByModel_ModelIDIsByteExact(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.InsertOne(ctx, createTestDraft("mod\u00e9l", "a", "b")); err != nil {
		t.Fatalf("InsertOne() failed: %v", err)
	}

	for _, id := range []string{"mode\u0301l", "mod\u00e9l ", "MOD\u00c9L"} {
		entries, err := s.ListByModel(ctx, id)
		if err != nil {
			t.Fatalf("ListByModel(%q) failed: %v", id, err)
		}
		if len(entries) != 0 {
			t.Errorf("ListByModel(%q) matched %d entries of mod\u00e9l", id, len(entries))
		}
	}

	entries, err := s.ListByModel(ctx, "mod\u00e9l")
	if err != nil {
		t.Fatalf("ListByModel() failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("exact model id matched %d entries, want 1", len(entries))
	}
}

func TestHead(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, ok, err := s.Head(ctx, "m1")
	if err != nil || ok {
		t.Fatalf("Head(empty) = (%v, %v), want (false, nil)", ok, err)
	}

	s.InsertOne(ctx, createTestDraft("m1", "a", "b"))
	last, _ := s.InsertOne(ctx, createTestDraft("m1", "b", "c"))
	s.InsertOne(ctx, createTestDraft("m2", "x", "y"))

	head, ok, err := s.Head(ctx, "m1")
	if err != nil || !ok {
		t.Fatalf("Head() = (%v, %v), want (true, nil)", ok, err)
	}
	if head.ID != last.ID {
		t.Errorf("head id = %d, want %d", head.ID, last.ID)
	}
	if head.OldData.String() != "b" || head.NewData.String() != "c" {
		t.Errorf("head payloads = (%q, %q)", head.OldData, head.NewData)
	}
}

func TestHead_TiesOnOperatorAtBrokenByID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	d1 := createTestDraft("m1", "a", "b")
	d1.OperatorAt = 5000
	d2 := createTestDraft("m1", "b", "c")
	d2.OperatorAt = 5000

	s.InsertOne(ctx, d1)
	second, _ := s.InsertOne(ctx, d2)

	head, _, err := s.Head(ctx, "m1")
	if err != nil {
		t.Fatalf("Head() failed: %v", err)
	}
	if head.ID != second.ID {
		t.Errorf("head id = %d, want %d", head.ID, second.ID)
	}
}

func TestStatusCounts(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a, _ := s.InsertOne(ctx, createTestDraft("m1", "a", "b"))
	s.InsertOne(ctx, createTestDraft("m1", "b", "c"))
	mustUpdate(t, s, a.ID, ir.StatusNormal, ir.StatusUndone)

	counts, err := s.StatusCounts(ctx, "m1")
	if err != nil {
		t.Fatalf("StatusCounts() failed: %v", err)
	}
	if counts[ir.StatusNormal] != 1 || counts[ir.StatusUndone] != 1 {
		t.Errorf("counts = %v", counts)
	}
	if _, ok := counts[ir.StatusRedone]; ok {
		t.Error("redone should be absent")
	}
}

func TestReads_ClosedStoreIsStorageError(t *testing.T) {
	s := createTestStore(t)
	s.Close()

	ctx := context.Background()
	if _, err := s.ListByModel(ctx, "m1"); !IsStorageError(err) {
		t.Errorf("ListByModel on closed store: %v", err)
	}
	if _, _, err := s.Head(ctx, "m1"); !IsStorageError(err) {
		t.Errorf("Head on closed store: %v", err)
	}
	if _, err := s.StatusCounts(ctx, "m1"); !IsStorageError(err) {
		t.Errorf("StatusCounts on closed store: %v", err)
	}
}
