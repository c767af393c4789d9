package history

import (
	"context"
	"testing"
)

func TestTruncateKeepsPrefix(t *testing.T) {
	l := createTestLog(t)
	ctx := context.Background()

	for _, desc := range []string{"a", "b", "c", "d"} {
		mustAppend(t, l, sampleCheckpoint(desc))
	}

	if err := l.Truncate(ctx, 1); err != nil {
		t.Fatalf("Truncate failed: %v", err)
	}

	count, err := l.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("count after Truncate(1) = %d, want 2", count)
	}

	// Entries [0, 1] survive, entry 2 is unreachable.
	cp, err := l.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get(1) failed: %v", err)
	}
	if cp.Description != "b" {
		t.Errorf("surviving entry = %q, want b", cp.Description)
	}
	if _, err := l.Get(ctx, 2); err == nil {
		t.Error("Get(2) succeeded after truncation")
	}
}

func TestTruncateToLastIndexIsNoOp(t *testing.T) {
	l := createTestLog(t)
	ctx := context.Background()

	mustAppend(t, l, sampleCheckpoint("a"))
	mustAppend(t, l, sampleCheckpoint("b"))

	if err := l.Truncate(ctx, 1); err != nil {
		t.Fatalf("Truncate failed: %v", err)
	}

	count, err := l.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestTruncateOutOfRangeFailsClosed(t *testing.T) {
	l := createTestLog(t)
	ctx := context.Background()

	mustAppend(t, l, sampleCheckpoint("a"))
	mustAppend(t, l, sampleCheckpoint("b"))

	for _, index := range []int{-1, 2, 10} {
		err := l.Truncate(ctx, index)
		if err == nil {
			t.Errorf("Truncate(%d) succeeded, want out of range", index)
			continue
		}
		if _, ok := AsOutOfRange(err); !ok {
			t.Errorf("Truncate(%d): error %v is not OutOfRangeError", index, err)
		}
	}

	// Failed truncations must not modify the log.
	count, err := l.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("count after failed truncations = %d, want 2", count)
	}
}

func TestAppendAfterTruncateContinuesSequence(t *testing.T) {
	l := createTestLog(t)
	ctx := context.Background()

	mustAppend(t, l, sampleCheckpoint("a"))
	mustAppend(t, l, sampleCheckpoint("b"))
	mustAppend(t, l, sampleCheckpoint("c"))

	if err := l.Truncate(ctx, 0); err != nil {
		t.Fatalf("Truncate failed: %v", err)
	}

	idx := mustAppend(t, l, sampleCheckpoint("d"))
	if idx != 1 {
		t.Errorf("index after truncate-to-0 = %d, want 1", idx)
	}
}

func TestReset(t *testing.T) {
	l := createTestLog(t)
	ctx := context.Background()

	mustAppend(t, l, sampleCheckpoint("a"))
	mustAppend(t, l, sampleCheckpoint("b"))

	if err := l.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	count, err := l.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("count after Reset = %d, want 0", count)
	}

	// A fresh baseline starts the sequence over at 0.
	idx := mustAppend(t, l, sampleCheckpoint("baseline"))
	if idx != 0 {
		t.Errorf("first index after Reset = %d, want 0", idx)
	}
}
