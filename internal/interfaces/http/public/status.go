package public

import (
	"context"
	"net/http"
	"time"

	"github.com/veredix/lead-relay/internal/interfaces/http/common"
)

// statusHandler reports the active transport's connection state. The
// endpoint itself always answers 200; the body says whether sends
// would currently reach WhatsApp.
func (h *Handler) statusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		common.WriteJSON(h.logger, w, http.StatusOK, h.transport.Status(ctx))
	}
}
