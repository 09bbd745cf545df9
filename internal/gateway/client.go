package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shareit/internal/models"
)

// ErrUpstreamUnavailable is returned when the server cannot be reached.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// relayedHeaders are copied from the server reply to the client.
var relayedHeaders = []string{"Content-Type", "Content-Disposition"}

// Reply is a server response relayed verbatim.
type Reply struct {
	Status int
	Header http.Header
	Body   []byte
}

// ServerClient forwards validated requests to the ShareIt server.
type ServerClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewServerClient(baseURL string, timeout time.Duration) *ServerClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ServerClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Forward sends method and requestURI (path plus query) with body to the
// server. Only transport failures are errors; any HTTP status is a Reply.
func (c *ServerClient) Forward(ctx context.Context, method, requestURI string, header http.Header, body []byte) (*Reply, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+requestURI, reader)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	for _, name := range []string{models.HeaderUserID, "Content-Type", "X-Request-Id"} {
		if v := header.Get(name); v != "" {
			req.Header.Set(name, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstreamUnavailable, err)
	}

	reply := &Reply{Status: resp.StatusCode, Header: make(http.Header), Body: raw}
	for _, name := range relayedHeaders {
		if v := resp.Header.Get(name); v != "" {
			reply.Header.Set(name, v)
		}
	}
	return reply, nil
}
