package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReportPriority enum
type ReportPriority string

const (
	PriorityLow    ReportPriority = "low"
	PriorityMedium ReportPriority = "medium"
	PriorityHigh   ReportPriority = "high"
	PriorityUrgent ReportPriority = "urgent"
)

func (p ReportPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Location is where a report was filed.
type Location struct {
	Address   string   `bson:"address" json:"address"`
	Locality  string   `bson:"locality,omitempty" json:"locality,omitempty"`
	Ward      string   `bson:"ward,omitempty" json:"ward,omitempty"`
	City      string   `bson:"city,omitempty" json:"city,omitempty"`
	Pincode   string   `bson:"pincode,omitempty" json:"pincode,omitempty"`
	Latitude  *float64 `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude *float64 `bson:"longitude,omitempty" json:"longitude,omitempty"`
}

// GeoPoint is a GeoJSON point, stored for 2dsphere queries.
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

// NewGeoPoint returns nil unless both coordinates are present.
func NewGeoPoint(lat, lng *float64) *GeoPoint {
	if lat == nil || lng == nil {
		return nil
	}
	return &GeoPoint{Type: "Point", Coordinates: []float64{*lng, *lat}}
}

// StatusChange is one entry of a report's status history.
type StatusChange struct {
	From      ReportStatus       `bson:"from,omitempty" json:"from,omitempty"`
	Status    ReportStatus       `bson:"status" json:"status"`
	ChangedBy primitive.ObjectID `bson:"changedBy" json:"changedBy"`
	ChangedAt time.Time          `bson:"changedAt" json:"changedAt"`
	Comment   string             `bson:"comment,omitempty" json:"comment,omitempty"`
}

type Comment struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	User       primitive.ObjectID `bson:"user" json:"user"`
	Text       string             `bson:"text" json:"text"`
	IsInternal bool               `bson:"isInternal" json:"isInternal"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

type Resolution struct {
	ResolvedBy primitive.ObjectID `bson:"resolvedBy" json:"resolvedBy"`
	ResolvedAt time.Time          `bson:"resolvedAt" json:"resolvedAt"`
	Notes      string             `bson:"notes,omitempty" json:"notes,omitempty"`
}

type Feedback struct {
	Rating      int       `bson:"rating" json:"rating"`
	Comment     string    `bson:"comment,omitempty" json:"comment,omitempty"`
	SubmittedAt time.Time `bson:"submittedAt" json:"submittedAt"`
}

// Report represents a civic issue filed by a citizen
type Report struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ReporterID      primitive.ObjectID  `bson:"reporterId" json:"reporterId"`
	Title           string              `bson:"title" json:"title"`
	Description     string              `bson:"description" json:"description"`
	Category        string              `bson:"category" json:"category"`
	Priority        ReportPriority      `bson:"priority" json:"priority"`
	Status          ReportStatus        `bson:"status" json:"status"`
	Location        Location            `bson:"location" json:"location"`
	Geo             *GeoPoint           `bson:"geo,omitempty" json:"-"`
	Media           []string            `bson:"media" json:"media"`
	AssignedTo      *primitive.ObjectID `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	AssignedBy      *primitive.ObjectID `bson:"assignedBy,omitempty" json:"assignedBy,omitempty"`
	AssignedAt      *time.Time          `bson:"assignedAt,omitempty" json:"assignedAt,omitempty"`
	Department      string              `bson:"department,omitempty" json:"department,omitempty"`
	StatusHistory   []StatusChange      `bson:"statusHistory" json:"statusHistory"`
	Comments        []Comment           `bson:"comments" json:"comments"`
	Resolution      *Resolution         `bson:"resolution,omitempty" json:"resolution,omitempty"`
	ResolutionHours *int64              `bson:"resolutionHours,omitempty" json:"resolutionHours,omitempty"`
	Feedback        *Feedback           `bson:"feedback,omitempty" json:"feedback,omitempty"`
	IsAnonymous     bool                `bson:"isAnonymous" json:"isAnonymous"`
	ViewCount       int64               `bson:"viewCount" json:"viewCount"`
	UpvoteCount     int64               `bson:"upvoteCount" json:"upvotes"`
	IsDeleted       bool                `bson:"isDeleted" json:"-"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// ResolutionHoursSince returns whole hours between creation and resolvedAt.
func (r *Report) ResolutionHoursSince(resolvedAt time.Time) int64 {
	return int64(resolvedAt.Sub(r.CreatedAt) / time.Hour)
}

// PublicView hides data citizens other than the reporter must not see:
// internal comments and, for anonymous reports, the reporter id.
func (r Report) PublicView(viewer primitive.ObjectID, staff bool) Report {
	if staff {
		return r
	}
	if r.IsAnonymous && r.ReporterID != viewer {
		r.ReporterID = primitive.NilObjectID
	}
	comments := make([]Comment, 0, len(r.Comments))
	for _, c := range r.Comments {
		if !c.IsInternal {
			comments = append(comments, c)
		}
	}
	r.Comments = comments
	return r
}
