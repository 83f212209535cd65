// Package handler orchestrates the store, index, and encryptor behind
// a single per-request entry point: decode a protocol.Request, drive
// the domain packages, and build the protocol.Response to send back.
package handler

import (
	"errors"
	"fmt"

	"github.com/corvid-labs/doculex/pkg/crypto"
	"github.com/corvid-labs/doculex/pkg/index"
	"github.com/corvid-labs/doculex/pkg/protocol"
	"github.com/corvid-labs/doculex/pkg/store"
)

// Handler dispatches decoded requests against a shared store, index,
// and encryptor. A Handler has no state of its own; every field is a
// reference shared across all connections.
type Handler struct {
	Store     *store.Store
	Index     *index.Index
	Encryptor crypto.Encryptor
}

// New constructs a Handler over the given shared collaborators.
func New(s *store.Store, idx *index.Index, enc crypto.Encryptor) *Handler {
	return &Handler{Store: s, Index: idx, Encryptor: enc}
}

// Handle dispatches req to the verb-specific handler and always
// returns a Response — callers never see a raw error, only the
// Response the error was formatted into.
func (h *Handler) Handle(req protocol.Request) protocol.Response {
	switch req.Verb {
	case protocol.VerbPing:
		return protocol.Success()
	case protocol.VerbSet:
		return h.handleSet(req)
	case protocol.VerbGet:
		return h.handleGet(req)
	case protocol.VerbSearch:
		return h.handleSearch(req)
	case protocol.VerbRemove:
		return h.handleRemove(req)
	default:
		return protocol.Err("Invalid command")
	}
}

// handleSet encrypts content under key when one is supplied, then
// applies the store write before touching the index: fetch the
// document's previous content (if any), write the new document to the
// store, remove the old content's tokens, then add the new content's
// tokens. Fetching old content ahead of the store write, rather than
// re-reading the store for it afterward, means the index mutation
// never needs to race a write that already landed. If the store write
// fails, neither index step has run, so the index can never reference
// a document the store doesn't have.
func (h *Handler) handleSet(req protocol.Request) protocol.Response {
	content := req.Content
	if req.HasKey {
		encrypted, err := h.Encryptor.Encrypt(content, req.Key)
		if err != nil {
			return errorResponse(err)
		}
		content = encrypted
	}

	oldDoc, err := h.Store.Get(req.Bucket, req.Collection, req.ID)
	hadOld := err == nil
	if err != nil && !store.IsNotFound(err) {
		return errorResponse(err)
	}

	if err := h.Store.Set(req.Bucket, req.Collection, store.Document{ID: req.ID, Content: content}); err != nil {
		return errorResponse(err)
	}

	if hadOld {
		h.Index.RemoveContent(req.Bucket, req.Collection, req.ID, oldDoc.Content)
	}
	h.Index.AddContent(req.Bucket, req.Collection, req.ID, content)
	return protocol.Success()
}

func (h *Handler) handleGet(req protocol.Request) protocol.Response {
	doc, err := h.Store.Get(req.Bucket, req.Collection, req.ID)
	if err != nil {
		return errorResponse(err)
	}

	content := doc.Content
	if req.HasKey {
		decrypted, err := h.Encryptor.Decrypt(content, req.Key)
		if err != nil {
			return errorResponse(err)
		}
		content = decrypted
	}
	return protocol.Bulk(content)
}

// handleSearch never errors: a never-used (bucket, collection) yields
// an empty Search result already, so the empty-array canonicalization
// the handler needs to produce falls out of Index.Search directly.
func (h *Handler) handleSearch(req protocol.Request) protocol.Response {
	return protocol.Array(h.Index.Search(req.Bucket, req.Collection, req.Query))
}

// handleRemove reports any miss along the lookup path as the item not
// existing: a missing bucket or collection means the document cannot
// exist either, and REMOVE's contract is about the document.
func (h *Handler) handleRemove(req protocol.Request) protocol.Response {
	if err := h.Index.Remove(h.Store, req.Bucket, req.Collection, req.ID); err != nil {
		return errorResponse(err)
	}
	if err := h.Store.Delete(req.Bucket, req.Collection, req.ID); err != nil {
		if store.IsNotFound(err) {
			return errorResponse(&store.NotFoundError{Entity: store.EntityItem})
		}
		return errorResponse(err)
	}
	return protocol.Success()
}

// errorResponse formats err into the wire error text. Encryptor errors
// get an "Encryption error: " prefix the crypto package's own Error()
// strings don't carry (crypto is error-message-agnostic of the wire
// protocol on purpose); every other error's own message already comes
// out as "<entity> not found" / "<entity> is locked" / "I/O error: …"
// verbatim.
func errorResponse(err error) protocol.Response {
	if errors.Is(err, crypto.ErrInvalidKey) {
		return protocol.Err("Encryption error: Invalid encryption key")
	}
	var decryptErr *crypto.DecryptionFailedError
	if errors.As(err, &decryptErr) {
		return protocol.Err(fmt.Sprintf("Encryption error: Decryption failed: %s", decryptErr.Reason))
	}
	return protocol.Err(err.Error())
}
