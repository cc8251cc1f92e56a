package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	intakedomain "github.com/veredix/lead-relay/internal/intake/domain"
)

// IntakeLeadRepository implements the intake context's LeadWriter on
// the same leads collection the dispatcher reads from.
type IntakeLeadRepository struct {
	collection *mongo.Collection
}

// NewIntakeLeadRepository creates a new Mongo-backed lead writer.
func NewIntakeLeadRepository(db *mongo.Database, collectionName string) *IntakeLeadRepository {
	return &IntakeLeadRepository{collection: db.Collection(collectionName)}
}

// Create inserts a fresh lead record and writes the generated id back
// onto the domain object.
func (r *IntakeLeadRepository) Create(ctx context.Context, lead *intakedomain.Lead) error {
	now := time.Now().UTC()
	createdAt := lead.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	doc := LeadDocument{
		ID:          primitive.NewObjectID(),
		Answers:     toAnswerDocuments(lead.Answers),
		WasNotified: false,
		Source:      lead.Source,
		SessionID:   lead.SessionID,
		CreatedAt:   createdAt,
		UpdatedAt:   now,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return err
	}
	lead.ID = doc.ID.Hex()
	return nil
}

func toAnswerDocuments(answers []intakedomain.Answer) []AnswerDocument {
	docs := make([]AnswerDocument, 0, len(answers))
	for _, answer := range answers {
		docs = append(docs, AnswerDocument{ID: answer.ID, Field: answer.Field, Answer: answer.Answer})
	}
	return docs
}
