package engine

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// =============================================================================
// HTTP/1.1 Response Framing
// =============================================================================

// response is a decoded engine reply: status code plus the fully
// de-chunked body bytes.
type response struct {
	StatusCode int
	Body       []byte
}

// readResponse parses an HTTP/1.1 response from r. Headers end at the first
// blank line; the body is decoded according to Transfer-Encoding, falling
// back to read-until-EOF since every request carries Connection: close.
func readResponse(r io.Reader) (*response, error) {
	br := bufio.NewReader(r)

	statusLine, err := readLine(br)
	if err != nil {
		return nil, fmt.Errorf("%w: missing status line", ErrBadResponse)
	}
	code, err := parseStatusLine(statusLine)
	if err != nil {
		return nil, err
	}

	chunked := false
	contentLength := -1
	for {
		line, err := readLine(br)
		if err != nil {
			return nil, fmt.Errorf("%w: headers truncated", ErrBadResponse)
		}
		if line == "" {
			break // blank line separates headers from body
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(name) {
		case "transfer-encoding":
			if strings.Contains(strings.ToLower(value), "chunked") {
				chunked = true
			}
		case "content-length":
			if n, err := strconv.Atoi(value); err == nil {
				contentLength = n
			}
		}
	}

	var body []byte
	switch {
	case chunked:
		body, err = readChunkedBody(br)
	case contentLength >= 0:
		body = make([]byte, contentLength)
		_, err = io.ReadFull(br, body)
	default:
		body, err = io.ReadAll(br)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}

	return &response{StatusCode: code, Body: body}, nil
}

// readChunkedBody decodes a chunked transfer body: a hexadecimal size line,
// that many payload bytes, a CRLF, repeated until the zero-size chunk. All
// chunk payloads are concatenated; a body split across any number of chunks
// must decode to the exact original bytes.
func readChunkedBody(br *bufio.Reader) ([]byte, error) {
	var buf bytes.Buffer
	for {
		sizeLine, err := readLine(br)
		if err != nil {
			return nil, fmt.Errorf("chunk size line: %w", err)
		}
		// Chunk extensions after ';' are permitted and ignored.
		if i := strings.IndexByte(sizeLine, ';'); i >= 0 {
			sizeLine = sizeLine[:i]
		}
		size, err := strconv.ParseInt(strings.TrimSpace(sizeLine), 16, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chunk size %q", sizeLine)
		}
		if size == 0 {
			// Consume the trailer section up to its terminating blank line.
			for {
				line, err := readLine(br)
				if err != nil || line == "" {
					break
				}
			}
			return buf.Bytes(), nil
		}
		if _, err := io.CopyN(&buf, br, size); err != nil {
			return nil, fmt.Errorf("chunk payload: %w", err)
		}
		// Each chunk payload is followed by CRLF.
		if _, err := readLine(br); err != nil {
			return nil, fmt.Errorf("chunk terminator: %w", err)
		}
	}
}

// parseStatusLine extracts the status code from "HTTP/1.1 200 OK".
func parseStatusLine(line string) (int, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 || !strings.HasPrefix(fields[0], "HTTP/") {
		return 0, fmt.Errorf("%w: bad status line %q", ErrBadResponse, line)
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, fmt.Errorf("%w: bad status code %q", ErrBadResponse, fields[1])
	}
	return code, nil
}

// readLine reads up to the next LF and strips the trailing CRLF.
func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
