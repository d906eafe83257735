// Package metrics sends operational telemetry as fire-and-forget HTTP
// posts. Telemetry is non-critical: failures are logged and swallowed,
// never surfaced to the caller.
package metrics

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
)

// HTTPClient abstracts HTTP operations for testing
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Event is a single telemetry record
type Event struct {
	ID                  string    `json:"id"`
	Name                string    `json:"event"`
	EntityRef           string    `json:"entityRef"`
	AccountID           string    `json:"accountId,omitempty"`
	MultiAccountEnabled bool      `json:"multiAccountEnabled"`
	NonDefaultAccount   bool      `json:"nonDefaultAccount"`
	Timestamp           time.Time `json:"timestamp"`
}

// Sender posts events to a telemetry endpoint. A Sender with an empty
// endpoint is a no-op, so callers never need to nil-check.
type Sender struct {
	client   HTTPClient
	endpoint string
}

// New creates a Sender with a short request timeout
func New(endpoint string) *Sender {
	return &Sender{
		client:   &http.Client{Timeout: 2 * time.Second},
		endpoint: endpoint,
	}
}

// NewWithClient creates a Sender with an injected HTTP client
func NewWithClient(client HTTPClient, endpoint string) *Sender {
	return &Sender{client: client, endpoint: endpoint}
}

// Send posts the event. Best effort: every failure path logs at Warn and
// returns normally.
func (s *Sender) Send(ctx context.Context, event Event) {
	if s == nil || s.endpoint == "" {
		return
	}

	logger := zerolog.Ctx(ctx)

	if event.ID == "" {
		event.ID = ksuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		logger.Warn().Err(err).Str("event", event.Name).Msg("Failed to serialize telemetry event")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		logger.Warn().Err(err).Str("event", event.Name).Msg("Failed to build telemetry request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		logger.Warn().Err(err).Str("event", event.Name).Msg("Failed to send telemetry event")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		logger.Warn().
			Int("status_code", resp.StatusCode).
			Str("event", event.Name).
			Msg("Telemetry endpoint rejected event")
	}
}
