package admin

import (
	"net/http"

	"github.com/veredix/lead-relay/internal/interfaces/http/common"
)

func (h *Handler) authVerifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := common.UserFromContext(r.Context())
		if !ok {
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, map[string]string{"error": "authenticated user missing from context"})
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, map[string]any{
			"status": "ok",
			"user":   user,
		})
	}
}
