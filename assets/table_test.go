package assets

import "testing"

// TestCommitAtomicity is spec §8 scenario 6: update+commit, then a second
// update without a commit must not disturb what GetCommitted returns,
// until that second update is itself committed.
func TestCommitAtomicity(t *testing.T) {
	table := NewTable()
	h := table.Alloc()

	if err := table.Update(h, 0, "v1"); err != nil {
		t.Fatal(err)
	}
	if err := table.Commit(h); err != nil {
		t.Fatal(err)
	}
	if v, ok := table.GetCommitted(h); !ok || v != "v1" {
		t.Fatalf("GetCommitted = %v, %v; want v1, true", v, ok)
	}

	if err := table.Update(h, 0, "v2"); err != nil {
		t.Fatal(err)
	}
	if v, ok := table.GetCommitted(h); !ok || v != "v1" {
		t.Fatalf("GetCommitted after uncommitted update = %v, %v; want v1, true", v, ok)
	}

	if err := table.Commit(h); err != nil {
		t.Fatal(err)
	}
	if v, ok := table.GetCommitted(h); !ok || v != "v2" {
		t.Fatalf("GetCommitted after second commit = %v, %v; want v2, true", v, ok)
	}
}

func TestGetCommittedMissesBeforeFirstCommit(t *testing.T) {
	table := NewTable()
	h := table.Alloc()
	if _, ok := table.GetCommitted(h); ok {
		t.Fatal("expected no committed value before any commit")
	}
	table.Update(h, 0, "data")
	if _, ok := table.GetCommitted(h); ok {
		t.Fatal("expected update alone not to be visible to GetCommitted")
	}
}

func TestErrorIsRecoveredLocally(t *testing.T) {
	table := NewTable()
	h := table.Alloc()
	table.Update(h, 0, "v1")
	table.Commit(h)

	table.Update(h, 0, "v2")
	table.Error(h, errBoom)

	if v, ok := table.GetCommitted(h); !ok || v != "v1" {
		t.Fatalf("expected committed value to stay v1 after an errored update, got %v, %v", v, ok)
	}
	if table.LastError(h) != errBoom {
		t.Fatalf("expected LastError to report the staged error")
	}
}

func TestFreeInvalidatesHandle(t *testing.T) {
	table := NewTable()
	h := table.Alloc()
	table.Update(h, 0, "v1")
	table.Commit(h)
	table.Free(h)

	if _, ok := table.GetCommitted(h); ok {
		t.Fatal("expected a freed handle to miss")
	}
}

var errBoom = stubErr("boom")

type stubErr string

func (e stubErr) Error() string { return string(e) }
