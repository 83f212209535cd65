// Package store implements the three-level (bucket/collection/document)
// concurrent document store described by the system: a shard-locked map
// of buckets, each owning a shard-locked map of collections, each owning
// a shard-locked map of documents. Writers try-acquire the finest shard
// lock they need and fail fast with a LockedError rather than queue.
package store

import (
	"hash/fnv"
	"sync"
)

// numShards is the number of independently-locked bucket shards. A
// power of two, sized the way the sharded-lock structures elsewhere in
// this codebase's lineage are sized.
const numShards = 64

// Document is the payload unit the store holds: an opaque id and its
// UTF-8 content, which may be ciphertext when written with a key.
type Document struct {
	ID      string
	Content string
}

type collection struct {
	mu   sync.RWMutex
	docs map[string]Document
}

func newCollection() *collection {
	return &collection{docs: make(map[string]Document)}
}

type bucket struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

func newBucket() *bucket {
	return &bucket{collections: make(map[string]*collection)}
}

type shard struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
}

// Store is the root of the three-level document hierarchy.
type Store struct {
	shards [numShards]*shard

	// persistMu serializes Persist/Load so no two snapshot operations
	// race over the same file.
	persistMu sync.Mutex
}

// New constructs an empty Store.
func New() *Store {
	s := &Store{}
	for i := range s.shards {
		s.shards[i] = &shard{buckets: make(map[string]*bucket)}
	}
	return s
}

func shardIndex(name string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return int(h.Sum32() % numShards)
}

func (s *Store) shardFor(bucketName string) *shard {
	return s.shards[shardIndex(bucketName)]
}

// getOrCreateBucket returns the named bucket, lazily creating it. It
// only takes the shard's write lock (try-acquire) when the bucket does
// not already exist.
func (sh *shard) getOrCreateBucket(name string) (*bucket, error) {
	sh.mu.RLock()
	b, ok := sh.buckets[name]
	sh.mu.RUnlock()
	if ok {
		return b, nil
	}

	if !sh.mu.TryLock() {
		return nil, &LockedError{Entity: EntityBucket}
	}
	defer sh.mu.Unlock()

	if b, ok = sh.buckets[name]; ok {
		return b, nil
	}
	b = newBucket()
	sh.buckets[name] = b
	return b, nil
}

func (sh *shard) getBucket(name string) (*bucket, error) {
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	b, ok := sh.buckets[name]
	if !ok {
		return nil, &NotFoundError{Entity: EntityBucket}
	}
	return b, nil
}

func (b *bucket) getOrCreateCollection(name string) (*collection, error) {
	b.mu.RLock()
	c, ok := b.collections[name]
	b.mu.RUnlock()
	if ok {
		return c, nil
	}

	if !b.mu.TryLock() {
		return nil, &LockedError{Entity: EntityCollection}
	}
	defer b.mu.Unlock()

	if c, ok = b.collections[name]; ok {
		return c, nil
	}
	c = newCollection()
	b.collections[name] = c
	return c, nil
}

func (b *bucket) getCollection(name string) (*collection, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.collections[name]
	if !ok {
		return nil, &NotFoundError{Entity: EntityCollection}
	}
	return c, nil
}

// Set inserts or overwrites a document. Buckets and collections are
// created lazily under the same shard lock that performs the insert.
func (s *Store) Set(bucketName, collectionName string, doc Document) error {
	b, err := s.shardFor(bucketName).getOrCreateBucket(bucketName)
	if err != nil {
		return err
	}
	c, err := b.getOrCreateCollection(collectionName)
	if err != nil {
		return err
	}

	if !c.mu.TryLock() {
		return &LockedError{Entity: EntityItem}
	}
	c.docs[doc.ID] = doc
	c.mu.Unlock()
	return nil
}

// Get returns the document stored at (bucketName, collectionName, id).
func (s *Store) Get(bucketName, collectionName, id string) (Document, error) {
	b, err := s.shardFor(bucketName).getBucket(bucketName)
	if err != nil {
		return Document{}, err
	}
	c, err := b.getCollection(collectionName)
	if err != nil {
		return Document{}, err
	}

	c.mu.RLock()
	doc, ok := c.docs[id]
	c.mu.RUnlock()
	if !ok {
		return Document{}, &NotFoundError{Entity: EntityItem}
	}
	return doc, nil
}

// Delete removes a document, then prunes the collection and bucket if
// they become empty. A concurrent Set that repopulates an
// about-to-be-pruned container always wins: pruning is skipped rather
// than racing it, via the same try-acquire discipline as every other
// write here.
func (s *Store) Delete(bucketName, collectionName, id string) error {
	sh := s.shardFor(bucketName)
	b, err := sh.getBucket(bucketName)
	if err != nil {
		return err
	}
	c, err := b.getCollection(collectionName)
	if err != nil {
		return err
	}

	if !c.mu.TryLock() {
		return &LockedError{Entity: EntityItem}
	}
	if _, ok := c.docs[id]; !ok {
		c.mu.Unlock()
		return &NotFoundError{Entity: EntityItem}
	}
	delete(c.docs, id)
	empty := len(c.docs) == 0
	c.mu.Unlock()

	if !empty {
		return nil
	}
	pruneCollectionThenBucket(sh, b, collectionName)
	return nil
}

// pruneCollectionThenBucket best-effort removes collectionName from b
// if it is still empty, and then removes b from sh if it is in turn
// empty. Every check happens under the lock that guards the map being
// mutated, so a concurrent Set that wins the race is never undone.
// Failure to acquire a lock along the way simply skips that level of
// cleanup; the container is pruned on a later Delete instead.
func pruneCollectionThenBucket(sh *shard, b *bucket, collectionName string) {
	if !b.mu.TryLock() {
		return
	}
	c, ok := b.collections[collectionName]
	if ok {
		c.mu.Lock()
		if len(c.docs) == 0 {
			delete(b.collections, collectionName)
		}
		c.mu.Unlock()
	}
	bucketEmpty := len(b.collections) == 0
	b.mu.Unlock()

	if !bucketEmpty {
		return
	}

	if !sh.mu.TryLock() {
		return
	}
	defer sh.mu.Unlock()

	b.mu.Lock()
	stillEmpty := len(b.collections) == 0
	b.mu.Unlock()
	if stillEmpty {
		for name, candidate := range sh.buckets {
			if candidate == b {
				delete(sh.buckets, name)
				break
			}
		}
	}
}

// DocumentCount returns the total number of documents currently held
// across every bucket and collection. It is a point-in-time estimate
// under concurrent writes, not a consistent snapshot.
func (s *Store) DocumentCount() int {
	n := 0
	_ = s.Walk(func(string, string, Document) error {
		n++
		return nil
	})
	return n
}

// Walk invokes fn for every document currently in the store. It is
// used to rebuild the inverted index after Load, so it takes a
// consistent per-collection read snapshot but no global lock.
func (s *Store) Walk(fn func(bucketName, collectionName string, doc Document) error) error {
	for _, sh := range s.shards {
		sh.mu.RLock()
		buckets := make(map[string]*bucket, len(sh.buckets))
		for name, b := range sh.buckets {
			buckets[name] = b
		}
		sh.mu.RUnlock()

		for bucketName, b := range buckets {
			b.mu.RLock()
			collections := make(map[string]*collection, len(b.collections))
			for name, c := range b.collections {
				collections[name] = c
			}
			b.mu.RUnlock()

			for collectionName, c := range collections {
				c.mu.RLock()
				docs := make([]Document, 0, len(c.docs))
				for _, doc := range c.docs {
					docs = append(docs, doc)
				}
				c.mu.RUnlock()

				for _, doc := range docs {
					if err := fn(bucketName, collectionName, doc); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}
