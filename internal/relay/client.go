package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

// Client talks to a relay server over HTTP, with an optional WebSocket
// subscription for live delivery.
type Client struct {
	Base string
	HTTP *http.Client
}

// NewClient returns a client for the relay at base, e.g. http://127.0.0.1:8080.
func NewClient(base string) *Client {
	return &Client{Base: strings.TrimRight(base, "/"), HTTP: http.DefaultClient}
}

// Register publishes the user's canonical bundle bytes.
func (c *Client) Register(user string, bundle []byte) error {
	return c.post("/register", registerRequest{User: user, Bundle: bundle}, nil)
}

// FetchBundle returns the latest bundle published for user.
func (c *Client) FetchBundle(user string) ([]byte, error) {
	var out registerRequest
	if err := c.getJSON("/bundle/"+url.PathEscape(user), &out); err != nil {
		return nil, err
	}
	return out.Bundle, nil
}

// Send delivers a packet; the relay queues it if the recipient is offline.
func (c *Client) Send(p Packet) error {
	return c.post("/send", p, nil)
}

// Inbox drains the queued packets for user.
func (c *Client) Inbox(user string) ([]Packet, error) {
	var out []Packet
	if err := c.getJSON("/inbox/"+url.PathEscape(user), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Subscribe opens a WebSocket and invokes handle for each pushed packet
// until the context is cancelled or the connection drops.
func (c *Client) Subscribe(ctx context.Context, user string, handle func(Packet)) error {
	wsURL := strings.Replace(c.Base, "http", "ws", 1) + "/ws?user=" + url.QueryEscape(user)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		var p Packet
		if err := json.Unmarshal(data, &p); err != nil {
			continue
		}
		handle(p)
	}
}

func (c *Client) post(path string, in, out any) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, c.Base+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("relay post %s: %s", path, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) getJSON(path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, c.Base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("relay get %s: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
