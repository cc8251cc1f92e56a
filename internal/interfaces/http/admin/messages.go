package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/veredix/lead-relay/internal/interfaces/http/common"
	notifdomain "github.com/veredix/lead-relay/internal/notification/domain"
)

type sendMessageRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// messageSendHandler pushes a one-off text through the active transport.
// Useful for verifying the WhatsApp connection without creating a lead.
func (h *Handler) messageSendHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		var req sendMessageRequest
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

		address, err := notifdomain.NormalizeWhatsAppAddress(req.Phone)
		if err != nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), notifyTimeout)
		defer cancel()

		accepted, err := h.sender.SendText(ctx, address, req.Message)
		if err != nil || !accepted {
			if err != nil {
				h.logger.Printf("manual send to %s failed: %v", address, err)
			}
			common.WriteJSON(h.logger, w, http.StatusBadGateway, map[string]string{"error": "failed to send message"})
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, map[string]string{"status": "ok", "to": address})
	}
}
