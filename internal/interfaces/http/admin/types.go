package admin

import (
	"time"

	notifdomain "github.com/veredix/lead-relay/internal/notification/domain"
)

type adminRecipientResultResponse struct {
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

type adminDispatchResponse struct {
	Success           bool                           `json:"success"`
	Reason            string                         `json:"reason,omitempty"`
	NotificationsSent int                            `json:"notificationsSent"`
	TotalRecipients   int                            `json:"totalRecipients"`
	Results           []adminRecipientResultResponse `json:"results,omitempty"`
	LeadID            string                         `json:"leadId"`
	Timestamp         time.Time                      `json:"timestamp"`
}

type failedDispatchResponse struct {
	ID          string    `json:"id"`
	LeadID      string    `json:"leadId"`
	Stage       string    `json:"stage"`
	Payload     string    `json:"payload"`
	Error       string    `json:"error"`
	Attempts    int       `json:"attempts"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	LastTriedAt time.Time `json:"lastTriedAt"`
}

type failedDispatchListResponse struct {
	Items []failedDispatchResponse `json:"items"`
	Limit int                      `json:"limit"`
}

func buildAdminDispatchResponse(result notifdomain.DispatchResult) adminDispatchResponse {
	results := make([]adminRecipientResultResponse, 0, len(result.Results))
	for _, r := range result.Results {
		results = append(results, adminRecipientResultResponse{
			Name:      r.Name,
			Phone:     r.Phone,
			Success:   r.Success,
			Timestamp: r.Timestamp,
			Error:     r.Error,
		})
	}
	return adminDispatchResponse{
		Success:           result.Success,
		Reason:            string(result.Reason),
		NotificationsSent: result.NotificationsSent,
		TotalRecipients:   result.TotalRecipients,
		Results:           results,
		LeadID:            result.LeadID,
		Timestamp:         result.Timestamp,
	}
}

func buildFailedDispatchResponse(failure notifdomain.ArchivedDispatchFailure) failedDispatchResponse {
	return failedDispatchResponse{
		ID:          failure.ID,
		LeadID:      failure.LeadID,
		Stage:       failure.Stage,
		Payload:     failure.Payload,
		Error:       failure.Error,
		Attempts:    failure.Attempts,
		Status:      failure.Status,
		CreatedAt:   failure.CreatedAt,
		LastTriedAt: failure.LastTriedAt,
	}
}
