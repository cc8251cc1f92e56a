package public

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/veredix/lead-relay/internal/interfaces/http/common"
	intakeapp "github.com/veredix/lead-relay/internal/intake/application"
	intakedomain "github.com/veredix/lead-relay/internal/intake/domain"
)

// relayTimeout bounds one inbound relay end to end: orchestrator call
// plus the staff alert fan-out when the reply completes an intake.
const relayTimeout = 30 * time.Second

const signatureHeader = "X-Hub-Signature-256"

type webhookRequest struct {
	Message   string `json:"message"`
	From      string `json:"from"`
	MessageID string `json:"messageId"`
	SessionID string `json:"sessionId"`
}

// webhookHandler receives bridge callbacks. The bridge expects HTTP 200
// for anything it delivered, so payload problems are reported in the
// body; only a failed signature check gets a 401.
func (h *Handler) webhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		body, err := io.ReadAll(io.LimitReader(r.Body, common.MaxRequestBody))
		if err != nil {
			common.WriteJSON(h.logger, w, http.StatusOK, relayResponse{Status: "error", Message: "unreadable body"})
			return
		}

		if len(h.webhookSecret) > 0 {
			if !h.verifySignature(body, r.Header.Get(signatureHeader)) {
				common.WriteJSON(h.logger, w, http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
				return
			}
		}

		var req webhookRequest
		if err := json.Unmarshal(body, &req); err != nil {
			common.WriteJSON(h.logger, w, http.StatusOK, relayResponse{Status: "error", Message: "invalid payload"})
			return
		}
		req.Message = strings.TrimSpace(req.Message)
		req.From = strings.TrimSpace(req.From)
		if req.Message == "" || req.From == "" {
			common.WriteJSON(h.logger, w, http.StatusOK, relayResponse{Status: "error", Message: "invalid payload"})
			return
		}
		if utf8.RuneCountInString(req.Message) > common.MaxInboundTextRunes {
			common.WriteJSON(h.logger, w, http.StatusOK, relayResponse{Status: "error", Message: "message too long"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), relayTimeout)
		defer cancel()

		reply, err := h.intake.HandleInbound(ctx, intakedomain.InboundMessage{
			Platform:  intakedomain.PlatformWhatsApp,
			SessionID: strings.TrimSpace(req.SessionID),
			From:      req.From,
			MessageID: req.MessageID,
			Text:      req.Message,
		})
		if err != nil {
			h.logger.Printf("webhook relay failed: from=%s err=%v", req.From, err)
			common.WriteJSON(h.logger, w, http.StatusOK, relayResponse{
				Status:   "error",
				Response: intakeapp.FallbackReply,
			})
			return
		}

		resp := relayResponse{
			Status:       "success",
			MessageID:    req.MessageID,
			SessionID:    reply.SessionID,
			Response:     reply.Text,
			ResponseType: reply.Type,
			MessageCount: reply.MessageCount,
			LeadID:       reply.LeadID,
		}
		if reply.Dispatch != nil {
			notification := buildDispatchResultResponse(*reply.Dispatch)
			resp.Notification = &notification
		}
		common.WriteJSON(h.logger, w, http.StatusOK, resp)
	}
}

// verifySignature checks the hex HMAC the bridge computes over the raw
// body, in the sha256=<hex> form Meta-style webhooks use.
func (h *Handler) verifySignature(body []byte, header string) bool {
	header = strings.TrimSpace(header)
	const prefix = "sha256="
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	provided, err := hex.DecodeString(strings.TrimPrefix(header, prefix))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, h.webhookSecret)
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), provided)
}
