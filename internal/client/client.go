// Package client talks to a running thringlet server over its HTTP API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/lazypower/thringlet/internal/companion"
	"github.com/lazypower/thringlet/internal/engine"
)

const (
	DefaultServerURL = "http://127.0.0.1:37778"
	httpTimeout      = 5 * time.Second
)

// Client talks to the thringlet server.
type Client struct {
	http      *http.Client
	serverURL string
}

// New creates a client for serverURL. An empty URL falls back to
// THRINGLET_URL, then to http://127.0.0.1:37778.
func New(serverURL string) *Client {
	if serverURL == "" {
		serverURL = os.Getenv("THRINGLET_URL")
	}
	if serverURL == "" {
		serverURL = DefaultServerURL
	}
	return &Client{
		http:      &http.Client{Timeout: httpTimeout},
		serverURL: strings.TrimRight(serverURL, "/"),
	}
}

// URL returns the server base URL.
func (c *Client) URL() string {
	return c.serverURL
}

// StatusError is a non-2xx response from the server.
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
}

func (c *Client) do(method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.serverURL+path, body)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response %s: %w", path, err)
	}
	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response %s: %w", path, err)
	}
	return nil
}

// Healthy checks if the server is reachable.
func (c *Client) Healthy() bool {
	resp, err := c.http.Get(c.serverURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// InteractResponse is the body of POST /api/companions/{id}/interact.
type InteractResponse struct {
	Result    companion.InteractionResult `json:"result"`
	Companion engine.Snapshot             `json:"companion"`
}

// DecayResponse is the body of POST /api/companions/{id}/decay.
type DecayResponse struct {
	Changed   bool            `json:"changed"`
	Companion engine.Snapshot `json:"companion"`
}

func companionPath(id string) string {
	return "/api/companions/" + url.PathEscape(id)
}

// Create registers a new companion.
func (c *Client) Create(p companion.Profile) (engine.Snapshot, error) {
	var snap engine.Snapshot
	err := c.do(http.MethodPost, "/api/companions", p, &snap)
	return snap, err
}

// Get fetches one companion.
func (c *Client) Get(id string) (engine.Snapshot, error) {
	var snap engine.Snapshot
	err := c.do(http.MethodGet, companionPath(id), nil, &snap)
	return snap, err
}

// List fetches companions, optionally filtered by owner.
func (c *Client) List(owner string) ([]engine.Snapshot, error) {
	path := "/api/companions"
	if owner != "" {
		path += "?owner=" + url.QueryEscape(owner)
	}
	var body struct {
		Companions []engine.Snapshot `json:"companions"`
	}
	err := c.do(http.MethodGet, path, nil, &body)
	return body.Companions, err
}

// Interact sends one interaction.
func (c *Client) Interact(id, kind string) (InteractResponse, error) {
	var out InteractResponse
	err := c.do(http.MethodPost, companionPath(id)+"/interact", map[string]string{"kind": kind}, &out)
	return out, err
}

// Decay asks the server to apply time decay to one companion.
func (c *Client) Decay(id string) (DecayResponse, error) {
	var out DecayResponse
	err := c.do(http.MethodPost, companionPath(id)+"/decay", nil, &out)
	return out, err
}

// Abilities fetches a companion's abilities.
func (c *Client) Abilities(id string) ([]companion.Ability, error) {
	var body struct {
		Abilities []companion.Ability `json:"abilities"`
	}
	err := c.do(http.MethodGet, companionPath(id)+"/abilities", nil, &body)
	return body.Abilities, err
}

// Delete removes a companion.
func (c *Client) Delete(id string) error {
	return c.do(http.MethodDelete, companionPath(id), nil, nil)
}
