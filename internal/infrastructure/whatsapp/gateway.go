package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GatewayConfig tunes the HTTP bridge client.
type GatewayConfig struct {
	Endpoint   string
	Timeout    time.Duration
	Attempts   int
	RetryDelay time.Duration
}

// Gateway sends messages through an external HTTP WhatsApp bridge.
type Gateway struct {
	endpoint   string
	client     *http.Client
	logger     *log.Logger
	attempts   int
	retryDelay time.Duration
}

// NewGateway creates a bridge client. Sends are retried a bounded
// number of times with a fixed delay between attempts.
func NewGateway(cfg GatewayConfig, logger *log.Logger) *Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	return &Gateway{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		client:     &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		attempts:   cfg.Attempts,
		retryDelay: cfg.RetryDelay,
	}
}

type gatewayMessage struct {
	MessageID string `json:"messageId"`
	To        string `json:"to"`
	Text      string `json:"text"`
}

// SendText posts one message to the bridge. True means the bridge
// accepted it for delivery.
func (g *Gateway) SendText(ctx context.Context, address, text string) (bool, error) {
	if g.endpoint == "" {
		return false, fmt.Errorf("gateway endpoint is not configured")
	}
	body, err := json.Marshal(gatewayMessage{
		MessageID: uuid.NewString(),
		To:        address,
		Text:      text,
	})
	if err != nil {
		return false, fmt.Errorf("encode gateway message: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= g.attempts; attempt++ {
		if attempt > 1 && g.retryDelay > 0 {
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(g.retryDelay):
			}
		}
		if err := g.post(ctx, body); err != nil {
			lastErr = err
			g.logger.Printf("gateway send attempt %d/%d failed: %v", attempt, g.attempts, err)
			continue
		}
		return true, nil
	}
	return false, lastErr
}

func (g *Gateway) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint+"/messages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 1<<16))
		return fmt.Errorf("gateway responded %d: %s", res.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

// Status pings the bridge's status endpoint.
func (g *Gateway) Status(ctx context.Context) Status {
	status := Status{Service: "gateway"}
	if g.endpoint == "" {
		status.Detail = "gateway endpoint is not configured"
		return status
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"/status", nil)
	if err != nil {
		status.Detail = err.Error()
		return status
	}
	res, err := g.client.Do(req)
	if err != nil {
		status.Detail = err.Error()
		return status
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		status.Detail = fmt.Sprintf("status endpoint returned %d", res.StatusCode)
		return status
	}
	status.Connected = true
	return status
}
