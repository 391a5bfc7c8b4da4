package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testlab/internal/apperr"
	"testlab/internal/events"

	"github.com/fasthttp/websocket"
)

// WatchInvalidations streams server events to handler until ctx is done or
// the connection drops. Only admins may subscribe.
func (c *HTTPClient) WatchInvalidations(ctx context.Context, handler func(events.Event)) error {
	log := c.log.Function("WatchInvalidations")

	wsURL, err := c.websocketURL()
	if err != nil {
		return apperr.Transport("invalid server address: " + err.Error())
	}

	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = c.timeout

	conn, resp, err := dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			switch resp.StatusCode {
			case http.StatusUnauthorized:
				return apperr.Unauthenticated("sign in required")
			case http.StatusForbidden:
				return apperr.Forbidden("admin access required")
			}
		}
		return apperr.Transport("not available: " + err.Error())
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Debug("watch connection closed", "error", err)
			return apperr.Transport("connection lost")
		}

		var event events.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			log.Warn("dropping malformed event", "error", err)
			continue
		}
		handler(event)
	}
}

func (c *HTTPClient) websocketURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}
