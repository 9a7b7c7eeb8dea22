package persist

import (
	"os"
	"testing"
)

// withTempHome points gdata's storage root at a throwaway directory.
func withTempHome(t *testing.T) {
	t.Helper()
	tempDir := t.TempDir()
	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tempDir)
	t.Cleanup(func() { os.Setenv("HOME", originalHome) })
}

func TestStore_FreshStorageGivesZeroRecord(t *testing.T) {
	withTempHome(t)
	s, err := Open("hordefall_test_fresh")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	p := s.Progress()
	if p.BestWave != 0 || p.BestKills != 0 || p.LastSeed != 0 {
		t.Errorf("fresh record not zero: %+v", p)
	}
}

func TestStore_RecordRunPersistsAcrossOpens(t *testing.T) {
	withTempHome(t)
	s, err := Open("hordefall_test_roundtrip")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.RecordRun(7, 120, 42); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	// A second open against the same storage sees the saved record.
	s2, err := Open("hordefall_test_roundtrip")
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	p := s2.Progress()
	if p.BestWave != 7 || p.BestKills != 120 || p.LastSeed != 42 {
		t.Errorf("reloaded record = %+v, want wave 7, kills 120, seed 42", p)
	}
	if p.UpdatedAt.IsZero() {
		t.Error("UpdatedAt never stamped")
	}
}

func TestStore_BestsOnlyImprove(t *testing.T) {
	withTempHome(t)
	s, err := Open("hordefall_test_bests")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.RecordRun(5, 100, 1); err != nil {
		t.Fatal(err)
	}
	// A worse run must not regress the bests, only the last seed.
	if err := s.RecordRun(2, 30, 9); err != nil {
		t.Fatal(err)
	}
	p := s.Progress()
	if p.BestWave != 5 || p.BestKills != 100 {
		t.Errorf("bests regressed: %+v", p)
	}
	if p.LastSeed != 9 {
		t.Errorf("last seed = %d, want 9", p.LastSeed)
	}
}

func TestMemoryStore_AcceptsWritesWithoutStorage(t *testing.T) {
	s := NewMemoryStore()
	if err := s.RecordRun(3, 40, 5); err != nil {
		t.Fatalf("memory store write failed: %v", err)
	}
	if s.Progress().BestWave != 3 {
		t.Errorf("memory record = %+v", s.Progress())
	}
}
