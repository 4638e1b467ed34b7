// Package notify posts run summaries to an optional webhook so long-running
// scrape/fill sessions can be watched from elsewhere. When no webhook is
// configured the client is a no-op.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Client posts JSON summaries to a webhook URL.
type Client struct {
	url    string
	client *http.Client
}

// NewClient returns a webhook client. An empty url disables notifications.
func NewClient(url string) *Client {
	return &Client{
		url:    url,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

type payload struct {
	Event   string `json:"event"`
	Message string `json:"message"`
	Time    string `json:"time"`
}

// Notify sends one summary message. Failures are reported but callers treat
// notification as best-effort.
func (c *Client) Notify(event, message string) error {
	if c == nil || c.url == "" {
		return nil
	}

	body, err := json.Marshal(payload{
		Event:   event,
		Message: message,
		Time:    time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification failed with status: %d", resp.StatusCode)
	}
	logrus.Debugf("📱 Notification sent: %s", event)
	return nil
}
