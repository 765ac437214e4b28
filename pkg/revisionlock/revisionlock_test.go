package revisionlock

import (
	"path/filepath"
	"testing"
)

func TestOpenCreatesEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "locks.json")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	all, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("expected an empty lock store, got %v", all)
	}
}

func TestSetLockGetUnlock(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "locks.json"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := s.SetLock("alice", Lock{Txid: "t1", Vout: RevisionVout}); err != nil {
		t.Fatalf("SetLock failed: %v", err)
	}

	lock, ok, err := s.Get("alice")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok || lock.Txid != "t1" || lock.Vout != RevisionVout {
		t.Fatalf("Get returned %+v, %v", lock, ok)
	}

	if err := s.Unlock("alice"); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
	if _, ok, err := s.Get("alice"); err != nil || ok {
		t.Fatalf("expected alice to be unlocked, ok=%v err=%v", ok, err)
	}
}

func TestUnlockUTXOMatchesByValue(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "locks.json"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.SetLock("bob", Lock{Txid: "t2", Vout: 1}); err != nil {
		t.Fatalf("SetLock failed: %v", err)
	}
	if err := s.UnlockUTXO("t2", 1); err != nil {
		t.Fatalf("UnlockUTXO failed: %v", err)
	}
	if _, ok, _ := s.Get("bob"); ok {
		t.Fatal("expected bob's lock to be removed by UnlockUTXO")
	}
}

func TestLoadPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locks.json")
	s1, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s1.SetLock("carol", Lock{Txid: "t3", Vout: 1}); err != nil {
		t.Fatalf("SetLock failed: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("re-Open failed: %v", err)
	}
	lock, ok, err := s2.Get("carol")
	if err != nil || !ok || lock.Txid != "t3" {
		t.Fatalf("lock did not persist across reopen: %+v ok=%v err=%v", lock, ok, err)
	}
}
