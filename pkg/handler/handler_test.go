package handler

import (
	"testing"

	"github.com/corvid-labs/doculex/pkg/crypto"
	"github.com/corvid-labs/doculex/pkg/index"
	"github.com/corvid-labs/doculex/pkg/protocol"
	"github.com/corvid-labs/doculex/pkg/store"
	"github.com/stretchr/testify/assert"
)

func newHandler() *Handler {
	return New(store.New(), index.New(), crypto.NewReversibleCipher())
}

func TestPing(t *testing.T) {
	h := newHandler()
	resp := h.Handle(protocol.Request{Verb: protocol.VerbPing})
	assert.Equal(t, protocol.Success(), resp)
}

func TestSetThenGetRoundTrip(t *testing.T) {
	h := newHandler()

	resp := h.Handle(protocol.Request{Verb: protocol.VerbSet, Bucket: "default", Collection: "users", ID: "1", Content: "test"})
	assert.Equal(t, protocol.Success(), resp)

	resp = h.Handle(protocol.Request{Verb: protocol.VerbGet, Bucket: "default", Collection: "users", ID: "1"})
	assert.Equal(t, protocol.Bulk("test"), resp)
}

func TestSetWithKeyEncryptsAndGetWithKeyDecrypts(t *testing.T) {
	h := newHandler()

	resp := h.Handle(protocol.Request{
		Verb: protocol.VerbSet, Bucket: "default", Collection: "docs", ID: "42",
		Content: "Hello, World!", HasKey: true, Key: "mykey",
	})
	assert.Equal(t, protocol.Success(), resp)

	resp = h.Handle(protocol.Request{
		Verb: protocol.VerbGet, Bucket: "default", Collection: "docs", ID: "42", HasKey: true, Key: "mykey",
	})
	assert.Equal(t, protocol.Bulk("Hello, World!"), resp)

	resp = h.Handle(protocol.Request{
		Verb: protocol.VerbGet, Bucket: "default", Collection: "docs", ID: "42", HasKey: true, Key: "wrongkey",
	})
	assert.Equal(t, protocol.KindError, resp.Kind)
	assert.Contains(t, resp.Message, "Encryption error: Decryption failed")
}

func TestGetWithoutKeyReturnsCiphertextVerbatim(t *testing.T) {
	h := newHandler()
	h.Handle(protocol.Request{Verb: protocol.VerbSet, Bucket: "b", Collection: "c", ID: "i", Content: "secret", HasKey: true, Key: "k"})

	resp := h.Handle(protocol.Request{Verb: protocol.VerbGet, Bucket: "b", Collection: "c", ID: "i"})
	assert.NotEqual(t, protocol.Bulk("secret"), resp)
}

func TestSetEmptyKeyIsRejected(t *testing.T) {
	h := newHandler()
	resp := h.Handle(protocol.Request{Verb: protocol.VerbSet, Bucket: "b", Collection: "c", ID: "i", Content: "x", HasKey: true, Key: ""})
	assert.Equal(t, protocol.Err("Encryption error: Invalid encryption key"), resp)
}

func TestSearchFindsIndexedContent(t *testing.T) {
	h := newHandler()
	h.Handle(protocol.Request{Verb: protocol.VerbSet, Bucket: "b", Collection: "c", ID: "i", Content: "Hello\nWorld"})

	assert.Equal(t, protocol.Array([]string{"i"}), h.Handle(protocol.Request{Verb: protocol.VerbSearch, Bucket: "b", Collection: "c", Query: "hello"}))
	assert.Equal(t, protocol.Array([]string{"i"}), h.Handle(protocol.Request{Verb: protocol.VerbSearch, Bucket: "b", Collection: "c", Query: "world"}))
}

func TestReindexingReplacesOldTokens(t *testing.T) {
	h := newHandler()
	h.Handle(protocol.Request{Verb: protocol.VerbSet, Bucket: "default", Collection: "articles", ID: "42", Content: "test_article"})
	h.Handle(protocol.Request{Verb: protocol.VerbSet, Bucket: "default", Collection: "articles", ID: "42", Content: "other_word"})

	assert.Equal(t, protocol.Array([]string{}), h.Handle(protocol.Request{Verb: protocol.VerbSearch, Bucket: "default", Collection: "articles", Query: "test_article"}))
	assert.Equal(t, protocol.Array([]string{"42"}), h.Handle(protocol.Request{Verb: protocol.VerbSearch, Bucket: "default", Collection: "articles", Query: "other_word"}))
}

func TestRemoveThenSearchAndGet(t *testing.T) {
	h := newHandler()
	h.Handle(protocol.Request{Verb: protocol.VerbSet, Bucket: "default", Collection: "articles", ID: "42", Content: "other_word"})

	resp := h.Handle(protocol.Request{Verb: protocol.VerbRemove, Bucket: "default", Collection: "articles", ID: "42"})
	assert.Equal(t, protocol.Success(), resp)

	assert.Equal(t, protocol.Array([]string{}), h.Handle(protocol.Request{Verb: protocol.VerbSearch, Bucket: "default", Collection: "articles", Query: "other_word"}))

	resp = h.Handle(protocol.Request{Verb: protocol.VerbGet, Bucket: "default", Collection: "x", ID: "y"})
	assert.Equal(t, protocol.Err("bucket not found"), resp)
}

func TestSearchOnMissingNamespaceIsEmptyArray(t *testing.T) {
	h := newHandler()
	resp := h.Handle(protocol.Request{Verb: protocol.VerbSearch, Bucket: "never", Collection: "used", Query: "anything"})
	assert.Equal(t, protocol.Array([]string{}), resp)
}

func TestRemoveNonexistentIsNotFound(t *testing.T) {
	h := newHandler()
	resp := h.Handle(protocol.Request{Verb: protocol.VerbRemove, Bucket: "b", Collection: "c", ID: "missing"})
	assert.Equal(t, protocol.Err("item not found"), resp)
}

func TestGetNonexistentIsNotFound(t *testing.T) {
	h := newHandler()
	h.Handle(protocol.Request{Verb: protocol.VerbSet, Bucket: "b", Collection: "c", ID: "other", Content: "x"})

	resp := h.Handle(protocol.Request{Verb: protocol.VerbGet, Bucket: "b", Collection: "c", ID: "missing"})
	assert.Equal(t, protocol.Err("item not found"), resp)
}

func TestGetMissingBucketNamesTheBucket(t *testing.T) {
	h := newHandler()
	resp := h.Handle(protocol.Request{Verb: protocol.VerbGet, Bucket: "b", Collection: "c", ID: "missing"})
	assert.Equal(t, protocol.Err("bucket not found"), resp)
}
