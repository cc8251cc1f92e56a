package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/veredix/lead-relay/internal/interfaces/http/common"
)

const defaultFailureListLimit = 50

// failedDispatchListHandler pages the archive of alerts that never
// reached anyone, newest first.
func (h *Handler) failedDispatchListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := common.ParsePositiveInt(r.URL.Query().Get("limit"), defaultFailureListLimit)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		failures, err := h.failures.List(ctx, limit)
		if err != nil {
			h.logger.Printf("failed dispatch listing failed: %v", err)
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, map[string]string{"error": "failed to list dispatch failures"})
			return
		}

		items := make([]failedDispatchResponse, 0, len(failures))
		for _, failure := range failures {
			items = append(items, buildFailedDispatchResponse(failure))
		}
		common.WriteJSON(h.logger, w, http.StatusOK, failedDispatchListResponse{Items: items, Limit: limit})
	}
}
