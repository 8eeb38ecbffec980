package stores

import (
	"context"
	"time"

	"civicsetu-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoUpvoteStore keeps one document per (report, user) upvote.
type MongoUpvoteStore struct {
	coll *mongo.Collection
}

func NewMongoUpvoteStore(db *mongo.Database) *MongoUpvoteStore {
	return &MongoUpvoteStore{coll: db.Collection("upvotes")}
}

func (s *MongoUpvoteStore) EnsureIndexes(ctx context.Context) error {
	return models.EnsureUpvoteIndex(ctx, s.coll)
}

func (s *MongoUpvoteStore) Toggle(ctx context.Context, reportID, userID primitive.ObjectID) (bool, error) {
	res, err := s.coll.DeleteOne(ctx, bson.M{"report": reportID, "user": userID})
	if err != nil {
		return false, err
	}
	if res.DeletedCount > 0 {
		return false, nil
	}

	_, err = s.coll.InsertOne(ctx, models.Upvote{
		ID:        primitive.NewObjectID(),
		Report:    reportID,
		User:      userID,
		CreatedAt: time.Now(),
	})
	if mongo.IsDuplicateKeyError(err) {
		// A concurrent request from the same user won the insert.
		return true, ErrDuplicate
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *MongoUpvoteStore) HasUpvoted(ctx context.Context, reportID, userID primitive.ObjectID) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"report": reportID, "user": userID})
	return n > 0, err
}

func (s *MongoUpvoteStore) DeleteForReport(ctx context.Context, reportID primitive.ObjectID) error {
	_, err := s.coll.DeleteMany(ctx, bson.M{"report": reportID})
	return err
}
