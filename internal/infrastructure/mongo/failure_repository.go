package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	notifdomain "github.com/veredix/lead-relay/internal/notification/domain"
)

const (
	defaultFailureListLimit = 50
	maxFailureListLimit     = 200
)

// FailureRepository implements the dispatcher's FailureArchive on the
// failed notifications collection.
type FailureRepository struct {
	collection *mongo.Collection
}

// NewFailureRepository creates a new Mongo-backed failure archive.
func NewFailureRepository(db *mongo.Database, collectionName string) *FailureRepository {
	return &FailureRepository{collection: db.Collection(collectionName)}
}

// Record stores one failed dispatch with pending status.
func (r *FailureRepository) Record(ctx context.Context, failure notifdomain.DispatchFailure) error {
	now := time.Now().UTC()
	doc := FailedDispatchDocument{
		ID:          primitive.NewObjectID(),
		LeadID:      failure.LeadID,
		Stage:       failure.Stage,
		Payload:     failure.Payload,
		Error:       failure.Error,
		Attempts:    failure.Attempts,
		Status:      "pending",
		CreatedAt:   now,
		LastTriedAt: now,
	}
	_, err := r.collection.InsertOne(ctx, doc)
	return err
}

// List returns archived failures, newest first.
func (r *FailureRepository) List(ctx context.Context, limit int) ([]notifdomain.ArchivedDispatchFailure, error) {
	if limit <= 0 {
		limit = defaultFailureListLimit
	}
	if limit > maxFailureListLimit {
		limit = maxFailureListLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	failures := make([]notifdomain.ArchivedDispatchFailure, 0)
	for cursor.Next(ctx) {
		var doc FailedDispatchDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		failures = append(failures, notifdomain.ArchivedDispatchFailure{
			ID:          doc.ID.Hex(),
			LeadID:      doc.LeadID,
			Stage:       doc.Stage,
			Payload:     doc.Payload,
			Error:       doc.Error,
			Attempts:    doc.Attempts,
			Status:      doc.Status,
			CreatedAt:   doc.CreatedAt,
			LastTriedAt: doc.LastTriedAt,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return failures, nil
}
