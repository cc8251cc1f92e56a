package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/veredix/lead-relay/internal/notification/application"
	notifdomain "github.com/veredix/lead-relay/internal/notification/domain"
)

// LeadRepository implements the dispatcher's application.LeadStore
// using MongoDB. All updates go through $set/$unset so unrelated lead
// fields are never clobbered.
type LeadRepository struct {
	collection *mongo.Collection
}

// NewLeadRepository creates a new Mongo-backed lead store.
func NewLeadRepository(db *mongo.Database, collectionName string) *LeadRepository {
	return &LeadRepository{collection: db.Collection(collectionName)}
}

// FindByID returns a single lead by its identifier.
func (r *LeadRepository) FindByID(ctx context.Context, id string) (*notifdomain.Lead, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, application.ErrLeadNotFound
	}
	var doc LeadDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, application.ErrLeadNotFound
		}
		return nil, err
	}
	return mapLeadDocument(doc), nil
}

// MarkNotified sets the delivery bookkeeping fields after a successful
// dispatch.
func (r *LeadRepository) MarkNotified(ctx context.Context, id string, at time.Time, result notifdomain.DispatchResult) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return application.ErrLeadNotFound
	}
	update := bson.M{"$set": bson.M{
		"wasNotified":        true,
		"notifiedAt":         at,
		"notificationResult": toDispatchResultDocument(result),
		"updatedAt":          time.Now().UTC(),
	}}
	res, err := r.collection.UpdateByID(ctx, objectID, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return application.ErrLeadNotFound
	}
	return nil
}

// ClearNotification removes the delivery bookkeeping so the lead can be
// dispatched again.
func (r *LeadRepository) ClearNotification(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return application.ErrLeadNotFound
	}
	update := bson.M{
		"$set":   bson.M{"wasNotified": false, "updatedAt": time.Now().UTC()},
		"$unset": bson.M{"notifiedAt": "", "notificationResult": ""},
	}
	res, err := r.collection.UpdateByID(ctx, objectID, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return application.ErrLeadNotFound
	}
	return nil
}
