// Package protocol implements the line-framed wire codec: encoding and
// decoding of Request and Response messages, including the
// length-prefixed content form that makes SET payloads binary-safe
// within an otherwise line-oriented protocol.
package protocol

import (
	"bytes"
	"fmt"
	"unicode/utf8"
)

// Verb identifies the request kind.
type Verb string

const (
	VerbPing   Verb = "PING"
	VerbSet    Verb = "SET"
	VerbGet    Verb = "GET"
	VerbSearch Verb = "SEARCH"
	VerbRemove Verb = "REMOVE"
)

// Request is a decoded client command. Not every field is meaningful
// for every Verb: Content/HasKey/Key apply to Set; Key/HasKey apply to
// Get; Query applies to Search.
type Request struct {
	Verb       Verb
	Bucket     string
	Collection string
	ID         string
	Content    string
	Query      string
	HasKey     bool
	Key        string
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' }

func skipSpaces(b []byte) []byte {
	i := 0
	for i < len(b) && isSpace(b[i]) {
		i++
	}
	return b[i:]
}

// nextField splits the first whitespace-delimited token off b,
// skipping any leading whitespace run first. ok is false if b holds
// no more tokens.
func nextField(b []byte) (field, rest []byte, ok bool) {
	b = skipSpaces(b)
	if len(b) == 0 {
		return nil, nil, false
	}
	i := 0
	for i < len(b) && !isSpace(b[i]) {
		i++
	}
	return b[:i], skipSpaces(b[i:]), true
}

// joinFields collapses every whitespace run in b into a single space,
// trimming leading/trailing whitespace, the way GET/SEARCH reassemble
// a multi-word key or query.
func joinFields(b []byte) string {
	var out bytes.Buffer
	for {
		var field []byte
		var ok bool
		field, b, ok = nextField(b)
		if !ok {
			break
		}
		if out.Len() > 0 {
			out.WriteByte(' ')
		}
		out.Write(field)
	}
	return out.String()
}

func trimLineEnding(b []byte) []byte {
	b = bytes.TrimSuffix(b, []byte("\n"))
	b = bytes.TrimSuffix(b, []byte("\r"))
	return b
}

func parseNonNegativeInt(b []byte) (int, bool) {
	if len(b) == 0 {
		return 0, false
	}
	n := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// parseContentSpec handles the two content forms a SET's trailing
// field can take. The length-prefixed form is recognized by the
// presence of a ':' byte anywhere in spec; everything before the
// first ':' must then parse as the decimal byte length, or the whole
// request is rejected — even if spec was actually meant as unprefixed
// content that merely happens to contain a colon (e.g. "test:4").
func parseContentSpec(spec []byte) (content string, hasKey bool, key string, err error) {
	if idx := bytes.IndexByte(spec, ':'); idx >= 0 {
		n, ok := parseNonNegativeInt(spec[:idx])
		if !ok {
			return "", false, "", &InvalidRequestError{Reason: "Invalid content length"}
		}
		remainder := spec[idx+1:]
		if n > len(remainder) {
			return "", false, "", &InvalidRequestError{Reason: "Content length exceeds input length"}
		}
		if n < len(remainder) && !utf8.RuneStart(remainder[n]) {
			return "", false, "", &InvalidRequestError{Reason: "Invalid content length"}
		}
		content = string(remainder[:n])
		tail := remainder[n:]
		if len(tail) == 0 {
			return content, false, "", nil
		}
		return content, true, string(skipSpaces(tail)), nil
	}
	return parseUnprefixedContent(spec)
}

// parseUnprefixedContent handles the unprefixed form: everything up
// to the last whitespace run is content, the final token is key.
func parseUnprefixedContent(rest []byte) (content string, hasKey bool, key string, err error) {
	if len(rest) == 0 {
		return "", false, "", nil
	}

	lastWS := -1
	for i := len(rest) - 1; i >= 0; i-- {
		if isSpace(rest[i]) {
			lastWS = i
			break
		}
	}
	if lastWS == -1 {
		return string(rest), false, "", nil
	}

	contentPart := bytes.TrimSpace(rest[:lastWS])
	keyPart := bytes.TrimSpace(rest[lastWS:])

	switch {
	case len(contentPart) == 0 && len(keyPart) > 0:
		return string(keyPart), false, "", nil
	case len(contentPart) > 0 && len(keyPart) == 0:
		return string(contentPart), false, "", nil
	default:
		return string(contentPart), true, string(keyPart), nil
	}
}

func missingField(name string) error {
	return &InvalidRequestError{Reason: "Missing " + name}
}

// DecodeRequest parses one complete wire message (with or without a
// trailing \n / \r\n) into a Request.
func DecodeRequest(raw []byte) (Request, error) {
	line := trimLineEnding(raw)
	verb, rest, ok := nextField(line)
	if !ok {
		return Request{}, &InvalidRequestError{Reason: "Invalid command"}
	}

	switch Verb(verb) {
	case VerbPing:
		return Request{Verb: VerbPing}, nil

	case VerbSet:
		bucket, rest, ok := nextField(rest)
		if !ok {
			return Request{}, missingField("bucket")
		}
		collection, rest, ok := nextField(rest)
		if !ok {
			return Request{}, missingField("collection")
		}
		id, rest, ok := nextField(rest)
		if !ok {
			return Request{}, missingField("id")
		}
		content, hasKey, key, err := parseContentSpec(rest)
		if err != nil {
			return Request{}, err
		}
		return Request{
			Verb: VerbSet, Bucket: string(bucket), Collection: string(collection), ID: string(id),
			Content: content, HasKey: hasKey, Key: key,
		}, nil

	case VerbGet:
		bucket, rest, ok := nextField(rest)
		if !ok {
			return Request{}, missingField("bucket")
		}
		collection, rest, ok := nextField(rest)
		if !ok {
			return Request{}, missingField("collection")
		}
		id, rest, ok := nextField(rest)
		if !ok {
			return Request{}, missingField("id")
		}
		key := joinFields(rest)
		return Request{
			Verb: VerbGet, Bucket: string(bucket), Collection: string(collection), ID: string(id),
			HasKey: key != "", Key: key,
		}, nil

	case VerbSearch:
		bucket, rest, ok := nextField(rest)
		if !ok {
			return Request{}, missingField("bucket")
		}
		collection, rest, ok := nextField(rest)
		if !ok {
			return Request{}, missingField("collection")
		}
		query := joinFields(rest)
		return Request{Verb: VerbSearch, Bucket: string(bucket), Collection: string(collection), Query: query}, nil

	case VerbRemove:
		bucket, rest, ok := nextField(rest)
		if !ok {
			return Request{}, missingField("bucket")
		}
		collection, rest, ok := nextField(rest)
		if !ok {
			return Request{}, missingField("collection")
		}
		id, _, ok := nextField(rest)
		if !ok {
			return Request{}, missingField("id")
		}
		return Request{Verb: VerbRemove, Bucket: string(bucket), Collection: string(collection), ID: string(id)}, nil

	default:
		return Request{}, &InvalidRequestError{Reason: "Invalid command"}
	}
}

// EncodeRequest renders r in wire form, including its trailing \n.
func EncodeRequest(r Request) []byte {
	switch r.Verb {
	case VerbPing:
		return []byte("PING\n")
	case VerbSet:
		s := fmt.Sprintf("SET %s %s %s %d:%s", r.Bucket, r.Collection, r.ID, len(r.Content), r.Content)
		if r.HasKey {
			s += " " + r.Key
		}
		return []byte(s + "\n")
	case VerbGet:
		s := fmt.Sprintf("GET %s %s %s", r.Bucket, r.Collection, r.ID)
		if r.HasKey {
			s += " " + r.Key
		}
		return []byte(s + "\n")
	case VerbSearch:
		return []byte(fmt.Sprintf("SEARCH %s %s %s\n", r.Bucket, r.Collection, r.Query))
	case VerbRemove:
		return []byte(fmt.Sprintf("REMOVE %s %s %s\n", r.Bucket, r.Collection, r.ID))
	default:
		return nil
	}
}
