package public

import (
	"time"

	intakedomain "github.com/veredix/lead-relay/internal/intake/domain"
	notifdomain "github.com/veredix/lead-relay/internal/notification/domain"
)

type answerPayload struct {
	ID     int    `json:"id"`
	Field  string `json:"field,omitempty"`
	Answer string `json:"answer"`
}

type leadResponse struct {
	ID        string          `json:"id"`
	Answers   []answerPayload `json:"answers"`
	Source    string          `json:"source,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

type recipientResultResponse struct {
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

type dispatchResultResponse struct {
	Success           bool                      `json:"success"`
	Reason            string                    `json:"reason,omitempty"`
	NotificationsSent int                       `json:"notificationsSent"`
	TotalRecipients   int                       `json:"totalRecipients"`
	Results           []recipientResultResponse `json:"results,omitempty"`
	LeadID            string                    `json:"leadId"`
	Timestamp         time.Time                 `json:"timestamp"`
}

type notificationStatusResponse struct {
	LeadID      string                  `json:"leadId"`
	WasNotified bool                    `json:"wasNotified"`
	NotifiedAt  *time.Time              `json:"notifiedAt,omitempty"`
	Result      *dispatchResultResponse `json:"result,omitempty"`
}

type relayResponse struct {
	Status       string                  `json:"status"`
	Message      string                  `json:"message,omitempty"`
	MessageID    string                  `json:"messageId,omitempty"`
	SessionID    string                  `json:"sessionId,omitempty"`
	Response     string                  `json:"response,omitempty"`
	ResponseType string                  `json:"responseType,omitempty"`
	MessageCount int                     `json:"messageCount,omitempty"`
	LeadID       string                  `json:"leadId,omitempty"`
	Notification *dispatchResultResponse `json:"notification,omitempty"`
}

type createLeadResponse struct {
	Lead         leadResponse           `json:"lead"`
	Notification dispatchResultResponse `json:"notification"`
}

func buildLeadResponse(lead intakedomain.Lead) leadResponse {
	answers := make([]answerPayload, 0, len(lead.Answers))
	for _, answer := range lead.Answers {
		answers = append(answers, answerPayload{ID: answer.ID, Field: answer.Field, Answer: answer.Answer})
	}
	return leadResponse{
		ID:        lead.ID,
		Answers:   answers,
		Source:    lead.Source,
		SessionID: lead.SessionID,
		CreatedAt: lead.CreatedAt,
	}
}

func buildDispatchResultResponse(result notifdomain.DispatchResult) dispatchResultResponse {
	results := make([]recipientResultResponse, 0, len(result.Results))
	for _, r := range result.Results {
		results = append(results, recipientResultResponse{
			Name:      r.Name,
			Phone:     r.Phone,
			Success:   r.Success,
			Timestamp: r.Timestamp,
			Error:     r.Error,
		})
	}
	return dispatchResultResponse{
		Success:           result.Success,
		Reason:            string(result.Reason),
		NotificationsSent: result.NotificationsSent,
		TotalRecipients:   result.TotalRecipients,
		Results:           results,
		LeadID:            result.LeadID,
		Timestamp:         result.Timestamp,
	}
}

func buildNotificationStatusResponse(status notifdomain.NotificationStatus) notificationStatusResponse {
	resp := notificationStatusResponse{
		LeadID:      status.LeadID,
		WasNotified: status.WasNotified,
		NotifiedAt:  status.NotifiedAt,
	}
	if status.Result != nil {
		result := buildDispatchResultResponse(*status.Result)
		resp.Result = &result
	}
	return resp
}
