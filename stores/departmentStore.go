package stores

import (
	"context"
	"strings"
	"time"

	"civicsetu-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDepartmentStore keeps departments in the "departments" collection.
type MongoDepartmentStore struct {
	coll *mongo.Collection
}

func NewMongoDepartmentStore(db *mongo.Database) *MongoDepartmentStore {
	return &MongoDepartmentStore{coll: db.Collection("departments")}
}

func (s *MongoDepartmentStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "categories", Value: 1}}},
	})
	return err
}

func (s *MongoDepartmentStore) List(ctx context.Context, includeInactive bool) ([]models.Department, error) {
	filter := bson.M{"isDeleted": false}
	if !includeInactive {
		filter["isActive"] = true
	}

	cursor, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "code", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	depts := []models.Department{}
	if err := cursor.All(ctx, &depts); err != nil {
		return nil, err
	}
	return depts, nil
}

func (s *MongoDepartmentStore) findOne(ctx context.Context, filter bson.M) (*models.Department, error) {
	var d models.Department
	err := s.coll.FindOne(ctx, filter).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *MongoDepartmentStore) FindByCode(ctx context.Context, code string) (*models.Department, error) {
	return s.findOne(ctx, bson.M{"code": strings.ToUpper(code), "isDeleted": false})
}

func (s *MongoDepartmentStore) FindByCategory(ctx context.Context, category string) (*models.Department, error) {
	return s.findOne(ctx, bson.M{"categories": category, "isDeleted": false, "isActive": true})
}

func (s *MongoDepartmentStore) CategoryOwner(ctx context.Context, category string) (*models.Department, error) {
	return s.findOne(ctx, bson.M{"categories": category, "isDeleted": false})
}

func (s *MongoDepartmentStore) Create(ctx context.Context, d *models.Department) error {
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	d.Code = strings.ToUpper(d.Code)
	_, err := s.coll.InsertOne(ctx, d)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (s *MongoDepartmentStore) Update(ctx context.Context, code string, u DepartmentUpdate) error {
	set := bson.M{"updatedAt": time.Now()}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Categories != nil {
		set["categories"] = u.Categories
	}
	if u.ContactEmail != nil {
		set["contactEmail"] = *u.ContactEmail
	}
	if u.ContactPhone != nil {
		set["contactPhone"] = *u.ContactPhone
	}
	if u.IsActive != nil {
		set["isActive"] = *u.IsActive
	}

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"code": strings.ToUpper(code), "isDeleted": false},
		bson.M{"$set": set})
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoDepartmentStore) SoftDelete(ctx context.Context, code string) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"code": strings.ToUpper(code), "isDeleted": false},
		bson.M{"$set": bson.M{"isDeleted": true, "isActive": false, "updatedAt": time.Now()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoDepartmentStore) UpsertCategories(ctx context.Context, d models.Department) error {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"categories": d.Categories,
			"updatedAt":  now,
		},
		"$setOnInsert": bson.M{
			"name":        d.Name,
			"description": d.Description,
			"isActive":    true,
			"isDeleted":   false,
			"createdAt":   now,
		},
	}

	_, err := s.coll.UpdateOne(ctx,
		bson.M{"code": strings.ToUpper(d.Code)},
		update,
		options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}
