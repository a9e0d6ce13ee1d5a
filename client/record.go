package client

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// VotedRecord is the durable device-local set of poll ids this device has
// already voted on. It is a UX duplicate guard keyed per device, not per
// account, and not a security boundary.
type VotedRecord struct {
	mu   sync.Mutex
	path string
	ids  map[string]struct{}
}

// OpenVotedRecord loads the record at path, treating a missing file as an
// empty record.
func OpenVotedRecord(path string) (*VotedRecord, error) {
	record := &VotedRecord{
		path: path,
		ids:  make(map[string]struct{}),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return record, nil
		}
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	for _, id := range ids {
		record.ids[id] = struct{}{}
	}
	return record, nil
}

func (r *VotedRecord) Has(pollID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.ids[pollID]
	return ok
}

// Add records the poll id and persists the record. The file is rewritten via
// a temp file and rename so a crash never leaves it half-written.
func (r *VotedRecord) Add(pollID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ids[pollID]; ok {
		return nil
	}
	r.ids[pollID] = struct{}{}

	ids := make([]string, 0, len(r.ids))
	for id := range r.ids {
		ids = append(ids, id)
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}

	tmp := r.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, r.path)
}
