// Package notify delivers the post-persist callback telling the downstream
// processor where an artifact was stored. Delivery is best-effort: one
// attempt, no retry, and an in-flight notification is lost if the process
// exits. Callers that need more than that should drain the blob store
// instead of relying on this signal.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/jmelnik/ingestgate/internal/app/ports"
)

const (
	// RoutingHeader lets the callback bypass the load balancer's external
	// security policy on the internal path.
	RoutingHeader      = "internal-routing"
	RoutingHeaderValue = "ssfs-internal"
)

// Client posts artifact locations to the configured callback URL.
type Client struct {
	Endpoint   string
	HTTPClient *http.Client
}

// notification is the downstream wire format; field names are part of the
// contract with the processor.
type notification struct {
	Filename   string `json:"filename"`
	BucketName string `json:"bucketName"`
	Path       string `json:"path"`
}

// NewClient builds a notifier for the endpoint with a bounded HTTP client.
func NewClient(endpoint string) *Client {
	return &Client{
		Endpoint:   strings.TrimSpace(endpoint),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify issues one POST with the artifact location. Any non-2xx response
// counts as a failure.
func (c *Client) Notify(ctx context.Context, artifact ports.StoredArtifact) error {
	body, err := json.Marshal(notification{
		Filename:   artifact.Filename,
		BucketName: artifact.Bucket,
		Path:       artifact.Path,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RoutingHeader, RoutingHeaderValue)

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("downstream rejected notification: status=%s body=%s", resp.Status, strings.TrimSpace(string(payload)))
	}
	return nil
}

var _ ports.Notifier = (*Client)(nil)
