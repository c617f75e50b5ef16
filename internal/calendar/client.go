package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jask/calendarspent/internal/session"
)

var (
	ErrUnauthorized = errors.New("calendar: not authorized")
	ErrNotConnected = errors.New("calendar: no calendar connected")
)

// Function paths relative to the functions base URL.
const (
	authPath = "/google-calendar-auth"
	syncPath = "/google-calendar-sync"
)

// Client calls the calendar functions with the user's bearer token.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SyncResult is the sync function's reply.
type SyncResult struct {
	Synced  int `json:"synced"`
	Created int `json:"created,omitempty"`
	Updated int `json:"updated,omitempty"`
}

// Connect starts the consent flow and returns the URL the user must open.
func (c *Client) Connect(ctx context.Context, sess session.Session) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, sess, http.MethodPost, authPath, map[string]bool{"initiate": true}, &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", fmt.Errorf("calendar: connect returned no consent url")
	}
	return out.URL, nil
}

// Disconnect revokes the stored calendar connection.
func (c *Client) Disconnect(ctx context.Context, sess session.Session) error {
	return c.do(ctx, sess, http.MethodDelete, authPath, nil, nil)
}

// Sync uploads events. The function upserts one calendar event per day, so
// repeating a sync is harmless.
func (c *Client) Sync(ctx context.Context, sess session.Session, events []Event) (SyncResult, error) {
	var out SyncResult
	body := map[string]any{"transactions": events}
	if err := c.do(ctx, sess, http.MethodPost, syncPath, body, &out); err != nil {
		return SyncResult{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, sess session.Session, method, path string, in, out any) error {
	if err := sess.Check(time.Now()); err != nil {
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", sess.Header())
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: http %d", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusPreconditionFailed:
		return fmt.Errorf("%w: http %d", ErrNotConnected, resp.StatusCode)
	case resp.StatusCode >= 400:
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("calendar: http %d: %s", resp.StatusCode, apiErr.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("calendar: decode reply: %w", err)
	}
	return nil
}
