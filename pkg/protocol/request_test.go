package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePing(t *testing.T) {
	req, err := DecodeRequest([]byte("PING\n"))
	require.NoError(t, err)
	assert.Equal(t, Request{Verb: VerbPing}, req)
}

func TestDecodeSetLengthPrefixed(t *testing.T) {
	req, err := DecodeRequest([]byte("SET b c i 4:test\n"))
	require.NoError(t, err)
	assert.Equal(t, Request{Verb: VerbSet, Bucket: "b", Collection: "c", ID: "i", Content: "test"}, req)
}

func TestDecodeSetLengthPrefixedWithKey(t *testing.T) {
	req, err := DecodeRequest([]byte("SET b c i 4:test extra args\n"))
	require.NoError(t, err)
	assert.Equal(t, "test", req.Content)
	assert.True(t, req.HasKey)
	assert.Equal(t, "extra args", req.Key)
}

func TestDecodeSetLengthPrefixedTrailingSpaceIsEmptyKey(t *testing.T) {
	req, err := DecodeRequest([]byte("SET b c i 4:test \n"))
	require.NoError(t, err)
	assert.Equal(t, "test", req.Content)
	assert.True(t, req.HasKey)
	assert.Equal(t, "", req.Key)
}

func TestDecodeSetLengthPrefixedNoKey(t *testing.T) {
	req, err := DecodeRequest([]byte("SET b c i 0:\n"))
	require.NoError(t, err)
	assert.Equal(t, "", req.Content)
	assert.False(t, req.HasKey)
}

func TestDecodeSetLengthPrefixedEmbeddedNewline(t *testing.T) {
	req, err := DecodeRequest([]byte("SET b c i 11:Hello\nWorld\n"))
	require.NoError(t, err)
	assert.Equal(t, "Hello\nWorld", req.Content)
}

func TestDecodeSetInvalidContentLength(t *testing.T) {
	_, err := DecodeRequest([]byte("SET b c i test:4\n"))
	require.Error(t, err)
	var invalid *InvalidRequestError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "Invalid content length", invalid.Reason)
}

func TestDecodeSetContentLengthExceedsInput(t *testing.T) {
	_, err := DecodeRequest([]byte("SET b c i 10:short\n"))
	require.Error(t, err)
	var invalid *InvalidRequestError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "Content length exceeds input length", invalid.Reason)
}

func TestDecodeSetUnprefixedContentOnly(t *testing.T) {
	req, err := DecodeRequest([]byte("SET b c i hello\n"))
	require.NoError(t, err)
	assert.Equal(t, "hello", req.Content)
	assert.False(t, req.HasKey)
}

func TestDecodeSetUnprefixedNoColonAtAll(t *testing.T) {
	req, err := DecodeRequest([]byte("SET b c i 4test\n"))
	require.NoError(t, err)
	assert.Equal(t, "4test", req.Content)
	assert.False(t, req.HasKey)
}

func TestDecodeSetUnprefixedContentWithSpacesAndKey(t *testing.T) {
	req, err := DecodeRequest([]byte("SET b c i username with spaces\n"))
	require.NoError(t, err)
	assert.Equal(t, "username with", req.Content)
	assert.True(t, req.HasKey)
	assert.Equal(t, "spaces", req.Key)
}

func TestDecodeSetUnprefixedNoContentBeforeKey(t *testing.T) {
	req, err := DecodeRequest([]byte("SET b c i  onlykey\n"))
	require.NoError(t, err)
	assert.Equal(t, "onlykey", req.Content)
	assert.False(t, req.HasKey)
}

func TestDecodeSetMultipleSpacesBetweenFields(t *testing.T) {
	req, err := DecodeRequest([]byte("SET  b  c  i  4:test\n"))
	require.NoError(t, err)
	assert.Equal(t, Request{Verb: VerbSet, Bucket: "b", Collection: "c", ID: "i", Content: "test"}, req)
}

func TestDecodeGetNoKey(t *testing.T) {
	req, err := DecodeRequest([]byte("GET b c i\n"))
	require.NoError(t, err)
	assert.Equal(t, Request{Verb: VerbGet, Bucket: "b", Collection: "c", ID: "i"}, req)
}

func TestDecodeGetMultiWordKeyJoinsWithSingleSpace(t *testing.T) {
	req, err := DecodeRequest([]byte("GET b c i key1   key2\n"))
	require.NoError(t, err)
	assert.True(t, req.HasKey)
	assert.Equal(t, "key1 key2", req.Key)
}

func TestDecodeSearchEmptyQuery(t *testing.T) {
	req, err := DecodeRequest([]byte("SEARCH b c\n"))
	require.NoError(t, err)
	assert.Equal(t, "", req.Query)
}

func TestDecodeSearchQuery(t *testing.T) {
	req, err := DecodeRequest([]byte("SEARCH b c hello world\n"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", req.Query)
}

func TestDecodeRemove(t *testing.T) {
	req, err := DecodeRequest([]byte("REMOVE b c i\n"))
	require.NoError(t, err)
	assert.Equal(t, Request{Verb: VerbRemove, Bucket: "b", Collection: "c", ID: "i"}, req)
}

func TestDecodeMissingFields(t *testing.T) {
	cases := []struct {
		name string
		line string
		want string
	}{
		{"SET missing bucket", "SET\n", "Missing bucket"},
		{"SET missing collection", "SET b\n", "Missing collection"},
		{"SET missing id", "SET b c\n", "Missing id"},
		{"GET missing bucket", "GET\n", "Missing bucket"},
		{"SEARCH missing collection", "SEARCH b\n", "Missing collection"},
		{"REMOVE missing id", "REMOVE b c\n", "Missing id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeRequest([]byte(tc.line))
			require.Error(t, err)
			var invalid *InvalidRequestError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tc.want, invalid.Reason)
		})
	}
}

func TestDecodeUnknownCommand(t *testing.T) {
	_, err := DecodeRequest([]byte("FROBNICATE b c\n"))
	require.Error(t, err)
	var invalid *InvalidRequestError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "Invalid command", invalid.Reason)
}

func TestDecodeAcceptsCRLF(t *testing.T) {
	req, err := DecodeRequest([]byte("PING\r\n"))
	require.NoError(t, err)
	assert.Equal(t, VerbPing, req.Verb)
}

func TestEncodeDecodeSetRoundTrip(t *testing.T) {
	original := Request{Verb: VerbSet, Bucket: "b", Collection: "c", ID: "i", Content: "hello\nworld", HasKey: true, Key: "k"}
	decoded, err := DecodeRequest(EncodeRequest(original))
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestEncodeDecodeSetRoundTripNoKey(t *testing.T) {
	original := Request{Verb: VerbSet, Bucket: "b", Collection: "c", ID: "i", Content: "hello"}
	decoded, err := DecodeRequest(EncodeRequest(original))
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestEncodeDecodeGetRoundTrip(t *testing.T) {
	original := Request{Verb: VerbGet, Bucket: "b", Collection: "c", ID: "i", HasKey: true, Key: "k"}
	decoded, err := DecodeRequest(EncodeRequest(original))
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestEncodeDecodeSearchRoundTrip(t *testing.T) {
	original := Request{Verb: VerbSearch, Bucket: "b", Collection: "c", Query: "hello world"}
	decoded, err := DecodeRequest(EncodeRequest(original))
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestEncodeDecodeRemoveRoundTrip(t *testing.T) {
	original := Request{Verb: VerbRemove, Bucket: "b", Collection: "c", ID: "i"}
	decoded, err := DecodeRequest(EncodeRequest(original))
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}
