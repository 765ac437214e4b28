// Package revisionlock persists the name -> revision-UTXO mapping that
// guarantees a nametag's next revision output is reserved for this wallet
// (spec §4.K). It is the only long-lived on-disk state the core owns;
// mutation is always a whole-file write, matching the teacher's
// create-temp-then-rename atomic write pattern
// (pkg/payload/store/fs/store.go) rather than in-place edits or a
// database.
package revisionlock

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/kentjhall/cashweb-sub000/pkg/status"
)

// RevisionVout is the protocol-defined output index a nametag revision's
// forward-spendable UTXO always occupies (spec §6: "The designated
// revision vout is protocol-defined (=1 in the reference protocol)").
const RevisionVout = 1

// Lock is one name's reserved revision UTXO.
type Lock struct {
	Txid string `json:"txid"`
	Vout uint32 `json:"vout"`
}

// Store is a JSON file under the data directory mapping name -> Lock
// (spec §6: "Revision-lock file").
type Store struct {
	mu   sync.Mutex
	path string
}

// Open returns a Store backed by path, creating an empty lock file if one
// does not already exist.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.writeAll(map[string]Lock{}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, status.Newf(status.SysError, "revisionlock: stat %s: %v", path, err)
	}
	return s, nil
}

// Load reads every entry currently in the file (spec §4.K: "On every send
// that starts, the file is loaded and every entry is asserted locked on
// the signer's side").
func (s *Store) Load() (map[string]Lock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAll()
}

// Get returns the lock for name, if one exists.
func (s *Store) Get(name string) (Lock, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.readAll()
	if err != nil {
		return Lock{}, false, err
	}
	l, ok := all[name]
	return l, ok, nil
}

// SetLock reserves utxo as name's forward-revision UTXO, overwriting any
// previous reservation for that name (spec §4.K: "set_lock(name, utxo)").
func (s *Store) SetLock(name string, lock Lock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.readAll()
	if err != nil {
		return err
	}
	all[name] = lock
	return s.writeAll(all)
}

// Unlock removes name's reservation (spec §4.K: "unlock(name|utxo)"). It is
// not an error to unlock a name with no existing reservation.
func (s *Store) Unlock(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.readAll()
	if err != nil {
		return err
	}
	delete(all, name)
	return s.writeAll(all)
}

// UnlockUTXO removes whichever entry (if any) reserves the given utxo,
// used when a revision send fails after reserving but before committing a
// name to it.
func (s *Store) UnlockUTXO(txid string, vout uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.readAll()
	if err != nil {
		return err
	}
	for name, l := range all {
		if l.Txid == txid && l.Vout == vout {
			delete(all, name)
		}
	}
	return s.writeAll(all)
}

func (s *Store) readAll() (map[string]Lock, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]Lock{}, nil
	}
	if err != nil {
		return nil, status.Newf(status.DataDirMissing, "revisionlock: read %s: %v", s.path, err)
	}
	if len(data) == 0 {
		return map[string]Lock{}, nil
	}
	var all map[string]Lock
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, status.Newf(status.FileStructure, "revisionlock: malformed lock file: %v", err)
	}
	if all == nil {
		all = map[string]Lock{}
	}
	return all, nil
}

// writeAll rewrites the entire lock file atomically: write to a temp file
// in the same directory, then rename over the original, so a crash
// mid-write never leaves a truncated or partially-written lock file.
func (s *Store) writeAll(all map[string]Lock) error {
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return status.Newf(status.SysError, "revisionlock: marshal failed: %v", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".revisionlock-*.tmp")
	if err != nil {
		return status.Newf(status.SysError, "revisionlock: create temp file: %v", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return status.Newf(status.Write, "revisionlock: write temp file: %v", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return status.Newf(status.Write, "revisionlock: close temp file: %v", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return status.Newf(status.SysError, "revisionlock: rename temp file: %v", err)
	}
	return nil
}
