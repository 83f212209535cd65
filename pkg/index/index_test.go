package index

import (
	"testing"

	"github.com/corvid-labs/doculex/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexAndSearch(t *testing.T) {
	s := store.New()
	idx := New()

	require.NoError(t, s.Set("b", "c", store.Document{ID: "i", Content: "Hello\nWorld"}))
	idx.AddContent("b", "c", "i", "Hello\nWorld")

	assert.Equal(t, []string{"i"}, idx.Search("b", "c", "hello"))
	assert.Equal(t, []string{"i"}, idx.Search("b", "c", "world"))
}

func TestReindexPurgesOldTokens(t *testing.T) {
	s := store.New()
	idx := New()

	require.NoError(t, s.Set("default", "articles", store.Document{ID: "42", Content: "test_article"}))
	idx.AddContent("default", "articles", "42", "test_article")

	require.NoError(t, s.Set("default", "articles", store.Document{ID: "42", Content: "other_word"}))
	idx.RemoveContent("default", "articles", "42", "test_article")
	idx.AddContent("default", "articles", "42", "other_word")

	assert.Empty(t, idx.Search("default", "articles", "test_article"))
	assert.Equal(t, []string{"42"}, idx.Search("default", "articles", "other_word"))
}

func TestRemovePurgesAllTokens(t *testing.T) {
	s := store.New()
	idx := New()

	require.NoError(t, s.Set("default", "articles", store.Document{ID: "42", Content: "other_word"}))
	idx.AddContent("default", "articles", "42", "other_word")
	require.NoError(t, idx.Remove(s, "default", "articles", "42"))
	require.NoError(t, s.Delete("default", "articles", "42"))

	assert.Empty(t, idx.Search("default", "articles", "other_word"))
}

func TestSearchOnUnusedNamespaceIsEmptyNotError(t *testing.T) {
	idx := New()
	assert.Empty(t, idx.Search("never", "used", "anything"))
}

func TestSearchRanksByMatchedQueryTokens(t *testing.T) {
	idx := New()

	idx.AddContent("b", "c", "1", "alpha")
	idx.AddContent("b", "c", "2", "alpha beta")

	results := idx.Search("b", "c", "alpha beta")
	require.Len(t, results, 2)
	assert.Equal(t, "2", results[0], "doc 2 should rank higher: matches both query tokens")
}

func TestSearchTruncatesToTop10(t *testing.T) {
	idx := New()

	for i := 0; i < 15; i++ {
		id := string(rune('a' + i))
		idx.AddContent("b", "c", id, "shared")
	}

	results := idx.Search("b", "c", "shared")
	assert.Len(t, results, 10)
}

func TestInitializeRebuildsFromStore(t *testing.T) {
	s := store.New()
	require.NoError(t, s.Set("b", "c", store.Document{ID: "1", Content: "alpha beta"}))
	require.NoError(t, s.Set("b", "c", store.Document{ID: "2", Content: "beta gamma"}))

	idx := New()
	require.NoError(t, idx.Initialize(s))

	assert.ElementsMatch(t, []string{"1"}, idx.Search("b", "c", "alpha"))
	assert.ElementsMatch(t, []string{"1", "2"}, idx.Search("b", "c", "beta"))
	assert.ElementsMatch(t, []string{"2"}, idx.Search("b", "c", "gamma"))
}

func TestRemoveOnUnindexedDocumentIsBenign(t *testing.T) {
	s := store.New()
	idx := New()

	// Remove called for an id never written to the store: the NotFound
	// must be swallowed, not propagated.
	require.NoError(t, idx.Remove(s, "b", "c", "fresh"))
}
