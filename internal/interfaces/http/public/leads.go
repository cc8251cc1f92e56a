package public

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/veredix/lead-relay/internal/interfaces/http/common"
	intakeapp "github.com/veredix/lead-relay/internal/intake/application"
	intakedomain "github.com/veredix/lead-relay/internal/intake/domain"
)

type createLeadRequest struct {
	Answers   []answerPayload `json:"answers"`
	SessionID string          `json:"sessionId"`
	Source    string          `json:"source"`
}

func (req *createLeadRequest) validate() error {
	if len(req.Answers) == 0 {
		return fmt.Errorf("at least one answer is required")
	}
	if len(req.Answers) > common.MaxLeadAnswers {
		return fmt.Errorf("too many answers, the limit is %d", common.MaxLeadAnswers)
	}
	hasContent := false
	for _, answer := range req.Answers {
		if strings.TrimSpace(answer.Answer) != "" {
			hasContent = true
			break
		}
	}
	if !hasContent {
		return fmt.Errorf("at least one answer is required")
	}
	return nil
}

// leadCreateHandler accepts a fully answered intake directly, bypassing
// the conversational flow. Used by the web form and by partners that
// collect the answers themselves.
func (h *Handler) leadCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		var req createLeadRequest
		decoder := json.NewDecoder(io.LimitReader(r.Body, common.MaxRequestBody))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("malformed request: %v", err),
			})
			return
		}
		if err := req.validate(); err != nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		answers := make([]intakedomain.Answer, 0, len(req.Answers))
		for _, answer := range req.Answers {
			answers = append(answers, intakedomain.Answer{
				ID:     answer.ID,
				Field:  strings.TrimSpace(answer.Field),
				Answer: answer.Answer,
			})
		}

		ctx, cancel := context.WithTimeout(r.Context(), relayTimeout)
		defer cancel()

		lead, result, err := h.intake.SubmitLead(ctx, intakeapp.SubmitLeadCommand{
			Answers:   answers,
			SessionID: strings.TrimSpace(req.SessionID),
			Source:    strings.TrimSpace(req.Source),
		})
		if err != nil {
			h.logger.Printf("lead submission failed: %v", err)
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, map[string]string{"error": "failed to store lead"})
			return
		}

		common.WriteJSON(h.logger, w, http.StatusCreated, createLeadResponse{
			Lead:         buildLeadResponse(*lead),
			Notification: buildDispatchResultResponse(result),
		})
	}
}

// leadNotificationStatusHandler reports whether the staff alert for a
// lead already went out.
func (h *Handler) leadNotificationStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		leadID := strings.TrimSpace(chi.URLParam(r, "leadID"))
		if leadID == "" {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "lead id is required"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := h.dispatcher.CheckStatus(ctx, leadID)
		if !status.Exists {
			common.WriteJSON(h.logger, w, http.StatusNotFound, map[string]string{"error": "lead not found"})
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, buildNotificationStatusResponse(status))
	}
}
