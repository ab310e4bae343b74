package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/coder/websocket"

	"github.com/amcabaraban/pureflow-tagum-pos/internal/schema"
)

// changeFrame is one message on the websocket change feed. The backend
// pushes the post-change row for every confirmed write.
type changeFrame struct {
	Event  Event           `json:"event"`
	Table  string          `json:"table"`
	Record json.RawMessage `json:"record"`
}

// Subscribe implements Gateway.Subscribe.
//
// It dials /realtime/v1/changes for the kind's table and pumps frames into
// the subscription channel until the socket drops or the context ends.
// Losing the socket closes the channel silently; the connectivity monitor's
// online hook is responsible for setting subscriptions up again.
func (c *Client) Subscribe(ctx context.Context, kind schema.Kind, mask Event) (*Subscription, error) {
	wsURL, err := c.changesURL(kind, mask)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: map[string][]string{
			"apikey":        {c.cfg.APIKey},
			"Authorization": {"Bearer " + c.cfg.APIKey},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: subscribe %s: %v", ErrUnreachable, kind, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	ch := make(chan Notification, 32)

	go func() {
		defer close(ch)
		defer conn.Close(websocket.StatusNormalClosure, "")

		for {
			_, data, err := conn.Read(subCtx)
			if err != nil {
				// Network drop or teardown; the feed just ends.
				return
			}

			var frame changeFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				c.cfg.Logger.Printf("Dropping malformed %s notification: %v", kind, err)
				continue
			}
			if !matchesMask(frame.Event, mask) {
				continue
			}

			select {
			case ch <- Notification(frame):
			case <-subCtx.Done():
				return
			}
		}
	}()

	return NewSubscription(ch, cancel), nil
}

// changesURL converts the REST base URL into the websocket feed URL.
func (c *Client) changesURL(kind schema.Kind, mask Event) (string, error) {
	base := c.cfg.BaseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}

	query := url.Values{"table": {kind.Table()}}
	if mask != "" && mask != EventAll {
		query.Set("event", string(mask))
	}
	return base + "/realtime/v1/changes?" + query.Encode(), nil
}

// matchesMask reports whether an event passes the subscription's filter.
func matchesMask(event, mask Event) bool {
	return mask == "" || mask == EventAll || event == mask
}
