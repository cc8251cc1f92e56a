package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	notifdomain "github.com/veredix/lead-relay/internal/notification/domain"
)

// AnswerDocument is one embedded question/answer pair.
type AnswerDocument struct {
	ID     int    `bson:"id"`
	Field  string `bson:"field,omitempty"`
	Answer string `bson:"answer"`
}

// RecipientResultDocument embeds one delivery attempt inside the
// aggregate result.
type RecipientResultDocument struct {
	Name      string    `bson:"name"`
	Phone     string    `bson:"phone"`
	Success   bool      `bson:"success"`
	Timestamp time.Time `bson:"timestamp"`
	Error     string    `bson:"error,omitempty"`
}

// DispatchResultDocument is the stored aggregate of one dispatch.
type DispatchResultDocument struct {
	Success           bool                      `bson:"success"`
	Reason            string                    `bson:"reason,omitempty"`
	NotificationsSent int                       `bson:"notificationsSent"`
	TotalRecipients   int                       `bson:"totalRecipients"`
	Results           []RecipientResultDocument `bson:"results,omitempty"`
	LeadID            string                    `bson:"leadId"`
	Timestamp         time.Time                 `bson:"timestamp"`
}

// LeadDocument is the MongoDB schema of a lead record.
type LeadDocument struct {
	ID                 primitive.ObjectID      `bson:"_id"`
	Answers            []AnswerDocument        `bson:"answers"`
	WasNotified        bool                    `bson:"wasNotified"`
	NotifiedAt         *time.Time              `bson:"notifiedAt,omitempty"`
	NotificationResult *DispatchResultDocument `bson:"notificationResult,omitempty"`
	Source             string                  `bson:"source,omitempty"`
	SessionID          string                  `bson:"sessionId,omitempty"`
	CreatedAt          time.Time               `bson:"createdAt"`
	UpdatedAt          time.Time               `bson:"updatedAt"`
}

// FailedDispatchDocument archives a dispatch that reached nobody, or
// whose bookkeeping commit failed, for manual replay.
type FailedDispatchDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	LeadID      string             `bson:"leadId"`
	Stage       string             `bson:"stage"`
	Payload     string             `bson:"payload"`
	Error       string             `bson:"error"`
	Attempts    int                `bson:"attempts"`
	Status      string             `bson:"status"`
	CreatedAt   time.Time          `bson:"createdAt"`
	LastTriedAt time.Time          `bson:"lastTriedAt"`
}

func mapLeadDocument(doc LeadDocument) *notifdomain.Lead {
	lead := &notifdomain.Lead{
		ID:          doc.ID.Hex(),
		Answers:     mapAnswerDocuments(doc.Answers),
		WasNotified: doc.WasNotified,
		NotifiedAt:  doc.NotifiedAt,
		Source:      doc.Source,
		SessionID:   doc.SessionID,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
	if doc.NotificationResult != nil {
		result := mapDispatchResultDocument(*doc.NotificationResult)
		lead.NotificationResult = &result
	}
	return lead
}

func mapAnswerDocuments(docs []AnswerDocument) []notifdomain.Answer {
	answers := make([]notifdomain.Answer, 0, len(docs))
	for _, doc := range docs {
		answers = append(answers, notifdomain.Answer{ID: doc.ID, Field: doc.Field, Answer: doc.Answer})
	}
	return answers
}

func mapDispatchResultDocument(doc DispatchResultDocument) notifdomain.DispatchResult {
	results := make([]notifdomain.RecipientResult, 0, len(doc.Results))
	for _, r := range doc.Results {
		results = append(results, notifdomain.RecipientResult{
			Name:      r.Name,
			Phone:     r.Phone,
			Success:   r.Success,
			Timestamp: r.Timestamp,
			Error:     r.Error,
		})
	}
	return notifdomain.DispatchResult{
		Success:           doc.Success,
		Reason:            notifdomain.Reason(doc.Reason),
		NotificationsSent: doc.NotificationsSent,
		TotalRecipients:   doc.TotalRecipients,
		Results:           results,
		LeadID:            doc.LeadID,
		Timestamp:         doc.Timestamp,
	}
}

func toDispatchResultDocument(result notifdomain.DispatchResult) DispatchResultDocument {
	results := make([]RecipientResultDocument, 0, len(result.Results))
	for _, r := range result.Results {
		results = append(results, RecipientResultDocument{
			Name:      r.Name,
			Phone:     r.Phone,
			Success:   r.Success,
			Timestamp: r.Timestamp,
			Error:     r.Error,
		})
	}
	return DispatchResultDocument{
		Success:           result.Success,
		Reason:            string(result.Reason),
		NotificationsSent: result.NotificationsSent,
		TotalRecipients:   result.TotalRecipients,
		Results:           results,
		LeadID:            result.LeadID,
		Timestamp:         result.Timestamp,
	}
}
