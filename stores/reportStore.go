package stores

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"civicsetu-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoReportStore keeps reports in the "reports" collection.
type MongoReportStore struct {
	coll *mongo.Collection
}

func NewMongoReportStore(db *mongo.Database) *MongoReportStore {
	return &MongoReportStore{coll: db.Collection("reports")}
}

// EnsureIndexes creates the indexes listing, routing and geo queries rely on.
func (s *MongoReportStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "reporterId", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "department", Value: 1}}},
		{Keys: bson.D{{Key: "assignedTo", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "geo", Value: "2dsphere"}}},
	})
	return err
}

func (s *MongoReportStore) Create(ctx context.Context, r *models.Report) error {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, r)
	return err
}

func (s *MongoReportStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Report, error) {
	var r models.Report
	err := s.coll.FindOne(ctx, bson.M{"_id": id, "isDeleted": false}).Decode(&r)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func buildReportFilter(f ReportFilter) bson.M {
	filter := bson.M{"isDeleted": false}

	if f.Status != "" && f.Status != "all" {
		filter["status"] = f.Status
	}
	if f.Category != "" && f.Category != "all" {
		filter["category"] = f.Category
	}
	if f.Priority != "" {
		filter["priority"] = f.Priority
	}
	if f.Department != "" {
		filter["department"] = f.Department
	}
	if f.ReporterID != nil {
		filter["reporterId"] = *f.ReporterID
	}
	if f.AssignedTo != nil {
		filter["assignedTo"] = *f.AssignedTo
	}
	if f.Search != "" {
		pattern := regexp.QuoteMeta(f.Search)
		filter["$or"] = []bson.M{
			{"title": bson.M{"$regex": pattern, "$options": "i"}},
			{"description": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}
	if f.From != nil || f.To != nil {
		created := bson.M{}
		if f.From != nil {
			created["$gte"] = *f.From
		}
		if f.To != nil {
			created["$lte"] = *f.To
		}
		filter["createdAt"] = created
	}
	return filter
}

func (s *MongoReportStore) List(ctx context.Context, f ReportFilter) ([]models.Report, int64, error) {
	filter := buildReportFilter(f)

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	order := -1
	if f.SortAsc {
		order = 1
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: order}})
	if f.Limit > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		findOptions.SetSkip(int64((page - 1) * f.Limit)).SetLimit(int64(f.Limit))
	}

	cursor, err := s.coll.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	reports := []models.Report{}
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func (s *MongoReportStore) Recent(ctx context.Context, limit int) ([]models.Report, error) {
	reports, _, err := s.List(ctx, ReportFilter{Page: 1, Limit: limit})
	return reports, err
}

// Nearby returns reports within radiusKm of the point, nearest first.
func (s *MongoReportStore) Nearby(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]models.Report, error) {
	filter := bson.M{
		"isDeleted": false,
		"geo": bson.M{
			"$nearSphere": bson.M{
				"$geometry":    bson.M{"type": "Point", "coordinates": []float64{lng, lat}},
				"$maxDistance": radiusKm * 1000,
			},
		},
	}

	cursor, err := s.coll.Find(ctx, filter, options.Find().SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	reports := []models.Report{}
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func (s *MongoReportStore) UpdateDetails(ctx context.Context, id primitive.ObjectID, d ReportDetails, by primitive.ObjectID) error {
	set := bson.M{"updatedAt": time.Now(), "updatedBy": by}
	if d.Title != nil {
		set["title"] = *d.Title
	}
	if d.Description != nil {
		set["description"] = *d.Description
	}
	if d.Category != nil {
		set["category"] = *d.Category
	}
	if d.Department != nil {
		set["department"] = *d.Department
	}
	if d.Priority != nil {
		set["priority"] = *d.Priority
	}
	if d.Location != nil {
		set["location"] = *d.Location
		if geo := models.NewGeoPoint(d.Location.Latitude, d.Location.Longitude); geo != nil {
			set["geo"] = geo
		}
	}

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "isDeleted": false, "status": models.StatusSubmitted},
		bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return s.missOrConflict(ctx, id, ErrNotEditable)
	}
	return nil
}

// ApplyStatus writes a status change guarded by the expected current status.
func (s *MongoReportStore) ApplyStatus(ctx context.Context, id primitive.ObjectID, u StatusUpdate) error {
	set := bson.M{
		"status":    u.Change.Status,
		"updatedAt": u.Change.ChangedAt,
		"updatedBy": u.Change.ChangedBy,
	}
	if a := u.Assignment; a != nil {
		set["assignedTo"] = a.AssignedTo
		set["assignedBy"] = a.AssignedBy
		set["assignedAt"] = a.AssignedAt
		if a.Department != "" {
			set["department"] = a.Department
		}
	}
	if u.Resolution != nil {
		set["resolution"] = u.Resolution
	}
	if u.ResolutionHours != nil {
		set["resolutionHours"] = *u.ResolutionHours
	}

	update := bson.M{
		"$set":  set,
		"$push": bson.M{"statusHistory": u.Change},
	}
	if !u.Change.Status.IsTerminal() {
		update["$unset"] = bson.M{"resolution": "", "resolutionHours": ""}
	}

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "isDeleted": false, "status": u.From},
		update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return s.missOrConflict(ctx, id, ErrStatusConflict)
	}
	return nil
}

func (s *MongoReportStore) missOrConflict(ctx context.Context, id primitive.ObjectID, conflict error) error {
	n, err := s.coll.CountDocuments(ctx, bson.M{"_id": id, "isDeleted": false})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return conflict
}

func (s *MongoReportStore) updateExisting(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id, "isDeleted": false}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoReportStore) AddComment(ctx context.Context, id primitive.ObjectID, c models.Comment) error {
	return s.updateExisting(ctx, id, bson.M{
		"$push": bson.M{"comments": c},
		"$set":  bson.M{"updatedAt": c.CreatedAt},
	})
}

func (s *MongoReportStore) AddMedia(ctx context.Context, id primitive.ObjectID, urls []string) error {
	return s.updateExisting(ctx, id, bson.M{
		"$push": bson.M{"media": bson.M{"$each": urls}},
		"$set":  bson.M{"updatedAt": time.Now()},
	})
}

// SetFeedback stores citizen feedback; the report must be resolved.
func (s *MongoReportStore) SetFeedback(ctx context.Context, id primitive.ObjectID, fb models.Feedback) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "isDeleted": false, "status": models.StatusResolved},
		bson.M{"$set": bson.M{"feedback": fb}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return s.missOrConflict(ctx, id, ErrStatusConflict)
	}
	return nil
}

func (s *MongoReportStore) IncrementViews(ctx context.Context, id primitive.ObjectID) error {
	return s.updateExisting(ctx, id, bson.M{"$inc": bson.M{"viewCount": 1}})
}

func (s *MongoReportStore) AdjustUpvotes(ctx context.Context, id primitive.ObjectID, delta int64) (int64, error) {
	var r models.Report
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "isDeleted": false},
		bson.M{"$inc": bson.M{"upvoteCount": delta}},
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.M{"upvoteCount": 1}),
	).Decode(&r)
	if err == mongo.ErrNoDocuments {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return r.UpvoteCount, nil
}

func (s *MongoReportStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoReportStore) CountByStatus(ctx context.Context, f ReportFilter) (map[string]int64, error) {
	return s.CountByField(ctx, "status", f)
}

func (s *MongoReportStore) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.M{"isDeleted": false, "createdAt": bson.M{"$gte": since}})
}

// CountByField groups matching reports by a top-level field.
func (s *MongoReportStore) CountByField(ctx context.Context, field string, f ReportFilter) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: buildReportFilter(f)}},
		{{Key: "$group", Value: bson.M{"_id": "$" + field, "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Key   string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Key] = row.Count
	}
	return counts, nil
}

func (s *MongoReportStore) AverageResolutionHours(ctx context.Context, f ReportFilter) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: buildReportFilter(f)}},
		{{Key: "$group", Value: bson.M{"_id": nil, "avg": bson.M{"$avg": "$resolutionHours"}}}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Avg *float64 `bson:"avg"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 || rows[0].Avg == nil {
		return 0, nil
	}
	return *rows[0].Avg, nil
}

func (s *MongoReportStore) Timeline(ctx context.Context, f ReportFilter, dateFormat string) ([]TimelineRow, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: buildReportFilter(f)}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"bucket": bson.M{"$dateToString": bson.M{"format": dateFormat, "date": "$createdAt"}},
				"status": "$status",
			},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$project", Value: bson.M{"_id": 0, "bucket": "$_id.bucket", "status": "$_id.status", "count": 1}}},
		{{Key: "$sort", Value: bson.D{{Key: "bucket", Value: 1}, {Key: "status", Value: 1}}}},
	}

	rows := []TimelineRow{}
	if err := s.aggregate(ctx, pipeline, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *MongoReportStore) CategoryStatus(ctx context.Context, f ReportFilter) ([]CategoryStatusRow, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: buildReportFilter(f)}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"category": "$category", "status": "$status"},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$project", Value: bson.M{"_id": 0, "category": "$_id.category", "status": "$_id.status", "count": 1}}},
	}

	rows := []CategoryStatusRow{}
	if err := s.aggregate(ctx, pipeline, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *MongoReportStore) TopReporters(ctx context.Context, limit int) ([]ReporterCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"isDeleted": false}}},
		{{Key: "$group", Value: bson.M{"_id": "$reporterId", "reportCount": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "reportCount", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "user",
		}}},
		{{Key: "$unwind", Value: "$user"}},
		{{Key: "$project", Value: bson.M{"name": "$user.name", "email": "$user.email", "reportCount": 1}}},
	}

	rows := []ReporterCount{}
	if err := s.aggregate(ctx, pipeline, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *MongoReportStore) StaffStatus(ctx context.Context, f ReportFilter) ([]StaffStatusRow, error) {
	match := buildReportFilter(f)
	if _, ok := match["assignedTo"]; !ok {
		match["assignedTo"] = bson.M{"$exists": true, "$ne": nil}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":                bson.M{"staffId": "$assignedTo", "status": "$status"},
			"count":              bson.M{"$sum": 1},
			"avgResolutionHours": bson.M{"$avg": "$resolutionHours"},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":                0,
			"staffId":            "$_id.staffId",
			"status":             "$_id.status",
			"count":              1,
			"avgResolutionHours": 1,
		}}},
	}

	rows := []StaffStatusRow{}
	if err := s.aggregate(ctx, pipeline, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *MongoReportStore) aggregate(ctx context.Context, pipeline mongo.Pipeline, out interface{}) error {
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return fmt.Errorf("aggregate reports: %w", err)
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}
