// Package orchestrator is the HTTP adapter for the external AI
// conversation engine. The relay only forwards messages and reads the
// reply; all intake logic lives on the other side.
package orchestrator

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

	intakedomain "github.com/veredix/lead-relay/internal/intake/domain"
)

// Client calls the orchestrator's process endpoint.
type Client struct {
	endpoint string
	client   *http.Client
	logger   *log.Logger
}

// New creates an orchestrator client bounded by the given timeout.
func New(endpoint string, timeout time.Duration, logger *log.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type processRequest struct {
	Message     string `json:"message"`
	SessionID   string `json:"sessionId"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Platform    string `json:"platform"`
}

type answerPayload struct {
	ID     int    `json:"id"`
	Field  string `json:"field,omitempty"`
	Answer string `json:"answer"`
}

type leadPayload struct {
	Answers []answerPayload `json:"answers"`
}

type processResponse struct {
	Response     string       `json:"response"`
	ResponseType string       `json:"responseType"`
	MessageCount int          `json:"messageCount"`
	LeadID       string       `json:"leadId"`
	Lead         *leadPayload `json:"lead"`
}

// ProcessMessage forwards one inbound message and maps the reply. A
// reply carrying a lead id means the conversation just completed an
// intake.
func (c *Client) ProcessMessage(ctx context.Context, msg intakedomain.InboundMessage) (*intakedomain.OrchestratorReply, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("orchestrator endpoint is not configured")
	}
	body, err := json.Marshal(processRequest{
		Message:     msg.Text,
		SessionID:   msg.SessionID,
		PhoneNumber: msg.PhoneNumber(),
		Platform:    msg.Platform,
	})
	if err != nil {
		return nil, fmt.Errorf("encode orchestrator request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/process", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build orchestrator request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("orchestrator request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 1<<16))
		return nil, fmt.Errorf("orchestrator responded %d: %s", res.StatusCode, strings.TrimSpace(string(detail)))
	}

	var decoded processResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode orchestrator response: %w", err)
	}

	reply := &intakedomain.OrchestratorReply{
		Text:         decoded.Response,
		Type:         decoded.ResponseType,
		MessageCount: decoded.MessageCount,
		LeadID:       decoded.LeadID,
	}
	if decoded.Lead != nil {
		for _, answer := range decoded.Lead.Answers {
			reply.LeadAnswers = append(reply.LeadAnswers, intakedomain.Answer{
				ID:     answer.ID,
				Field:  answer.Field,
				Answer: answer.Answer,
			})
		}
	}
	return reply, nil
}
