package public

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/veredix/lead-relay/internal/interfaces/http/common"
	intakeapp "github.com/veredix/lead-relay/internal/intake/application"
	intakedomain "github.com/veredix/lead-relay/internal/intake/domain"
)

type chatMessageRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// chatMessageHandler relays web-widget messages through the same intake
// pipeline the webhook uses, minus the bridge envelope.
func (h *Handler) chatMessageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		var req chatMessageRequest
		decoder := json.NewDecoder(io.LimitReader(r.Body, common.MaxRequestBody))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("malformed request: %v", err),
			})
			return
		}
		req.Message = strings.TrimSpace(req.Message)
		if req.Message == "" {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "message is required"})
			return
		}
		if utf8.RuneCountInString(req.Message) > common.MaxInboundTextRunes {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "message too long"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), relayTimeout)
		defer cancel()

		reply, err := h.intake.HandleInbound(ctx, intakedomain.InboundMessage{
			Platform:  intakedomain.PlatformWeb,
			SessionID: strings.TrimSpace(req.SessionID),
			Text:      req.Message,
		})
		if err != nil {
			h.logger.Printf("chat relay failed: session=%s err=%v", req.SessionID, err)
			common.WriteJSON(h.logger, w, http.StatusOK, relayResponse{
				Status:   "error",
				Response: intakeapp.FallbackReply,
			})
			return
		}

		resp := relayResponse{
			Status:       "success",
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
