package admin

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/veredix/lead-relay/internal/interfaces/http/common"
	notifdomain "github.com/veredix/lead-relay/internal/notification/domain"
)

// notifyTimeout bounds a manual redelivery including the fan-out.
const notifyTimeout = 30 * time.Second

// leadNotifyHandler redelivers the staff alert for one lead. The
// dispatcher reloads the stored answers, so no body is needed.
func (h *Handler) leadNotifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		leadID := strings.TrimSpace(chi.URLParam(r, "leadID"))
		if leadID == "" {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "lead id is required"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), notifyTimeout)
		defer cancel()

		result := h.dispatcher.DispatchNewLead(ctx, leadID, notifdomain.LeadPayload{})
		if result.Reason == notifdomain.ReasonNotFound {
			common.WriteJSON(h.logger, w, http.StatusNotFound, map[string]string{"error": "lead not found"})
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, buildAdminDispatchResponse(result))
	}
}

// leadNotificationResetHandler clears the notified flag so the next
// dispatch goes out again.
func (h *Handler) leadNotificationResetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		leadID := strings.TrimSpace(chi.URLParam(r, "leadID"))
		if leadID == "" {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "lead id is required"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if !h.dispatcher.ResetStatus(ctx, leadID) {
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, map[string]string{
				"status": "error",
				"error":  "failed to reset notification status",
			})
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, map[string]string{"status": "ok", "leadId": leadID})
	}
}
