package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/url"
)

// =============================================================================
// Engine Client
// =============================================================================

// Client talks to the container runtime's management API over a local
// socket. Every call dials a fresh connection and sends Connection: close;
// there is no connection reuse and no multiplexing.
type Client struct {
	socketPath string
	logger     *slog.Logger
}

// NewClient creates a client for the runtime socket at socketPath.
func NewClient(socketPath string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		socketPath: socketPath,
		logger:     logger,
	}
}

// ListContainers returns a snapshot of containers known to the runtime.
// When all is true, stopped containers are included.
func (c *Client) ListContainers(ctx context.Context, all bool) ([]ContainerRecord, error) {
	endpoint := "/containers/json"
	if all {
		endpoint += "?all=true"
	}

	resp, err := c.do(ctx, "GET", endpoint)
	if err != nil {
		return nil, NewEngineError("ListContainers", "", err.Error(), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Op: "ListContainers", StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	var records []ContainerRecord
	if err := json.Unmarshal(resp.Body, &records); err != nil {
		return nil, NewEngineError("ListContainers", "", err.Error(), ErrDecode)
	}

	c.logger.Debug("listed containers", "count", len(records), "all", all)
	return records, nil
}

// StartContainer starts a stopped container by ID.
func (c *Client) StartContainer(ctx context.Context, id string) error {
	return c.simpleOp(ctx, "StartContainer", "POST", fmt.Sprintf("/containers/%s/start", url.PathEscape(id)), id)
}

// StopContainer stops a running container by ID.
func (c *Client) StopContainer(ctx context.Context, id string) error {
	return c.simpleOp(ctx, "StopContainer", "POST", fmt.Sprintf("/containers/%s/stop", url.PathEscape(id)), id)
}

// RemoveContainer removes a container by ID. With force, a running
// container is killed and removed.
func (c *Client) RemoveContainer(ctx context.Context, id string, force bool) error {
	endpoint := fmt.Sprintf("/containers/%s", url.PathEscape(id))
	if force {
		endpoint += "?force=true"
	}
	return c.simpleOp(ctx, "RemoveContainer", "DELETE", endpoint, id)
}

// simpleOp runs a bodyless mutation and maps non-success statuses.
func (c *Client) simpleOp(ctx context.Context, op, method, endpoint, id string) error {
	resp, err := c.do(ctx, method, endpoint)
	if err != nil {
		return NewEngineError(op, id, err.Error(), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}
	c.logger.Debug("engine operation completed", "op", op, "container_id", id)
	return nil
}

// do dials the socket, writes one request frame and reads the full reply.
func (c *Client) do(ctx context.Context, method, endpoint string) (*response, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrConnectionFailed, c.socketPath, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	request := fmt.Sprintf("%s %s HTTP/1.1\r\nHost: localhost\r\nConnection: close\r\n", method, endpoint)
	if method == "POST" {
		request += "Content-Type: application/json\r\nContent-Length: 0\r\n"
	}
	request += "\r\n"

	if _, err := conn.Write([]byte(request)); err != nil {
		return nil, fmt.Errorf("%w: write request: %v", ErrConnectionFailed, err)
	}

	return readResponse(conn)
}
