package store

import (
	"encoding/json"
	"os"
)

// snapshot is the schema-free, UTF-8-safe on-disk representation of
// the whole store: bucket name -> collection name -> document id ->
// content. It round-trips arbitrary UTF-8 because it is plain JSON
// strings all the way down.
type snapshot map[string]map[string]map[string]string

// Persist serializes the store to path via temp-file-then-rename: the
// snapshot is written to path+".tmp" and then atomically renamed over
// path, so a reader never observes a partially-written file. Persist
// calls are serialized against Load and against each other.
func (s *Store) Persist(path string) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	snap := make(snapshot)
	err := s.Walk(func(bucketName, collectionName string, doc Document) error {
		b, ok := snap[bucketName]
		if !ok {
			b = make(map[string]map[string]string)
			snap[bucketName] = b
		}
		c, ok := b[collectionName]
		if !ok {
			c = make(map[string]string)
			b[collectionName] = c
		}
		c[doc.ID] = doc.Content
		return nil
	})
	if err != nil {
		return &SerializationError{Err: err}
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return &SerializationError{Err: err}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return &IOError{Op: "write temp snapshot", Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return &IOError{Op: "rename snapshot into place", Err: err}
	}
	return nil
}

// Load replaces the store's contents with the snapshot at path. A
// missing file is a no-op, matching the "initialize on a fresh data
// directory" case.
func (s *Store) Load(path string) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &IOError{Op: "read snapshot", Err: err}
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return &DeserializationError{Err: err}
	}

	for i := range s.shards {
		s.shards[i] = &shard{buckets: make(map[string]*bucket)}
	}

	for bucketName, collections := range snap {
		for collectionName, docs := range collections {
			for id, content := range docs {
				if err := s.Set(bucketName, collectionName, Document{ID: id, Content: content}); err != nil {
					return &DeserializationError{Err: err}
				}
			}
		}
	}
	return nil
}

// Initialize loads the store's snapshot from path, the same as Load.
// It exists as its own method so startup call sites read the same way
// the rest of this codebase's component lifecycles do (construct, then
// Initialize).
func (s *Store) Initialize(path string) error {
	return s.Load(path)
}
