package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Response Framing Tests
// =============================================================================

func TestReadResponse_ContentLength(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nContent-Type: application/json\r\nContent-Length: 2\r\n\r\n[]"
	resp, err := readResponse(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "[]", string(resp.Body))
}

func TestReadResponse_ReadToEOF(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\n\r\n{\"ok\":true}"
	resp, err := readResponse(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(resp.Body))
}

func TestReadResponse_SingleChunk(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"5\r\nhello\r\n" +
		"0\r\n\r\n"
	resp, err := readResponse(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(resp.Body))
}

func TestReadResponse_MultipleChunks(t *testing.T) {
	// A body delivered in three separate chunk frames must decode to the
	// exact concatenation of the three payloads.
	raw := "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"7\r\n[{\"Id\":\r\n" +
		"b\r\n\"abc\"}]    \r\n" +
		"4\r\ntail\r\n" +
		"0\r\n\r\n"
	resp, err := readResponse(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, `[{"Id":"abc"}]    tail`, string(resp.Body))
}

func TestReadResponse_ChunkExtensionIgnored(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"5;ext=1\r\nhello\r\n" +
		"0\r\n\r\n"
	resp, err := readResponse(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(resp.Body))
}

func TestReadResponse_ChunkPayloadContainingCRLF(t *testing.T) {
	// Chunk sizes are authoritative; CRLF inside a payload must not be
	// mistaken for a frame boundary.
	payload := "line1\r\nline2"
	raw := "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"c\r\n" + payload + "\r\n" +
		"0\r\n\r\n"
	resp, err := readResponse(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, payload, string(resp.Body))
}

func TestReadResponse_TruncatedChunk(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"10\r\nshort"
	_, err := readResponse(strings.NewReader(raw))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestReadResponse_BadStatusLine(t *testing.T) {
	_, err := readResponse(strings.NewReader("garbage\r\n\r\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestReadResponse_Empty(t *testing.T) {
	_, err := readResponse(strings.NewReader(""))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestParseStatusLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    int
		wantErr bool
	}{
		{"ok", "HTTP/1.1 200 OK", 200, false},
		{"no content", "HTTP/1.1 204 No Content", 204, false},
		{"server error", "HTTP/1.1 500 Internal Server Error", 500, false},
		{"not http", "SPDY/3 200 OK", 0, true},
		{"missing code", "HTTP/1.1", 0, true},
		{"non numeric", "HTTP/1.1 abc", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseStatusLine(tt.line)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
