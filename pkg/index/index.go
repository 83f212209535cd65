// Package index implements the inverted index mapping
// (bucket, collection, token) to the set of document ids whose content
// tokenizes to that token. The index holds no document data of its
// own — only ids — and is always rebuildable from the store.
package index

import (
	"hash/fnv"
	"sort"
	"sync"

	"github.com/corvid-labs/doculex/pkg/store"
	"github.com/corvid-labs/doculex/pkg/token"
)

// keySeparator joins bucket, collection, and token into the composite
// key a single shard map is keyed by. The wire protocol splits names
// on spaces and tabs only and does not reject NUL, so a bucket or
// collection name that itself contains NUL can produce the same
// composite key as a different (bucket, collection, token) triple.
const keySeparator = "\x00"

const numShards = 64

// postingSet is the id-set for one (bucket, collection, token). Its
// own lock guards the emptiness check and the deletion together, so a
// set is never pruned out from under a concurrent insert.
type postingSet struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]*postingSet
}

// Index is the inverted index: a single sharded map over the
// composite (bucket, collection, token) key.
type Index struct {
	shards [numShards]*shard
}

// New constructs an empty Index.
func New() *Index {
	idx := &Index{}
	for i := range idx.shards {
		idx.shards[i] = &shard{entries: make(map[string]*postingSet)}
	}
	return idx
}

func compositeKey(bucketName, collectionName, tok string) string {
	return bucketName + keySeparator + collectionName + keySeparator + tok
}

func shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % numShards)
}

func (idx *Index) shardFor(key string) *shard {
	return idx.shards[shardIndex(key)]
}

func (sh *shard) getOrCreate(key string) *postingSet {
	sh.mu.RLock()
	p, ok := sh.entries[key]
	sh.mu.RUnlock()
	if ok {
		return p
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if p, ok = sh.entries[key]; ok {
		return p
	}
	p = &postingSet{ids: make(map[string]struct{})}
	sh.entries[key] = p
	return p
}

func (sh *shard) get(key string) (*postingSet, bool) {
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	p, ok := sh.entries[key]
	return p, ok
}

// addID inserts id into the posting set for key, creating the set if
// necessary. The insert is made under the shard's read lock, and only
// once the set is confirmed to still be the one mapped under key, so it
// cannot land in a set removeID has just pruned.
func (idx *Index) addID(bucketName, collectionName, tok, id string) {
	key := compositeKey(bucketName, collectionName, tok)
	sh := idx.shardFor(key)
	for {
		p := sh.getOrCreate(key)
		sh.mu.RLock()
		if sh.entries[key] == p {
			p.mu.Lock()
			p.ids[id] = struct{}{}
			p.mu.Unlock()
			sh.mu.RUnlock()
			return
		}
		sh.mu.RUnlock()
	}
}

// removeID removes id from the posting set for key, pruning the set
// (and its map entry) if it becomes empty.
func (idx *Index) removeID(bucketName, collectionName, tok, id string) {
	key := compositeKey(bucketName, collectionName, tok)
	sh := idx.shardFor(key)
	p, ok := sh.get(key)
	if !ok {
		return
	}

	p.mu.Lock()
	delete(p.ids, id)
	empty := len(p.ids) == 0
	p.mu.Unlock()

	if !empty {
		return
	}

	sh.mu.Lock()
	if current, ok := sh.entries[key]; ok && current == p {
		current.mu.Lock()
		if len(current.ids) == 0 {
			delete(sh.entries, key)
		}
		current.mu.Unlock()
	}
	sh.mu.Unlock()
}

// RemoveContent removes id from the posting set of every token content
// tokenizes to. It takes content directly rather than reading it from
// the store, so a caller that is replacing a document can purge the
// old postings with the content it already fetched before the store
// held the replacement — see AddContent.
func (idx *Index) RemoveContent(bucketName, collectionName, id, content string) {
	for _, tok := range token.Tokenize(content) {
		idx.removeID(bucketName, collectionName, tok, id)
	}
}

// AddContent adds id to the posting set of every token content
// tokenizes to.
func (idx *Index) AddContent(bucketName, collectionName, id, content string) {
	for _, tok := range token.Tokenize(content) {
		idx.addID(bucketName, collectionName, tok, id)
	}
}

// Remove removes id from the index entirely, by fetching its current
// stored content from s and tokenizing that. A NotFound from the
// store (the document never existed) is benign and swallowed; any
// other storage error propagates.
func (idx *Index) Remove(s *store.Store, bucketName, collectionName, id string) error {
	doc, err := s.Get(bucketName, collectionName, id)
	if err != nil {
		if store.IsNotFound(err) {
			return nil
		}
		return err
	}
	idx.RemoveContent(bucketName, collectionName, id, doc.Content)
	return nil
}

// result pairs a document id with the number of query tokens it
// matched, for ranking.
type result struct {
	id    string
	count int
}

// Search tokenizes query and ranks document ids by the number of
// query tokens whose posting set contains them, descending, truncated
// to the top 10. Ties break arbitrarily (map iteration order).
func (idx *Index) Search(bucketName, collectionName, query string) []string {
	counts := make(map[string]int)
	for _, tok := range token.Tokenize(query) {
		key := compositeKey(bucketName, collectionName, tok)
		sh := idx.shardFor(key)
		p, ok := sh.get(key)
		if !ok {
			continue
		}
		p.mu.Lock()
		for id := range p.ids {
			counts[id]++
		}
		p.mu.Unlock()
	}

	results := make([]result, 0, len(counts))
	for id, count := range counts {
		results = append(results, result{id: id, count: count})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].count > results[j].count
	})
	if len(results) > 10 {
		results = results[:10]
	}

	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.id
	}
	return ids
}

// TokenCount returns the total number of distinct (bucket, collection,
// token) entries currently in the index. A point-in-time estimate
// under concurrent writes, not a consistent snapshot.
func (idx *Index) TokenCount() int {
	n := 0
	for _, sh := range idx.shards {
		sh.mu.RLock()
		n += len(sh.entries)
		sh.mu.RUnlock()
	}
	return n
}

// Initialize rebuilds the index from scratch by walking every document
// currently in s. The index carries no persistent state of its own —
// it is always derivable from the store.
func (idx *Index) Initialize(s *store.Store) error {
	for i := range idx.shards {
		idx.shards[i] = &shard{entries: make(map[string]*postingSet)}
	}
	return s.Walk(func(bucketName, collectionName string, doc store.Document) error {
		for _, tok := range token.Tokenize(doc.Content) {
			idx.addID(bucketName, collectionName, tok, doc.ID)
		}
		return nil
	})
}
