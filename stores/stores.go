// Package stores holds the persistence interfaces the controllers depend on
// and their MongoDB implementations.
package stores

import (
	"context"
	"errors"
	"time"

	"civicsetu-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrStatusConflict = errors.New("report status changed concurrently")
	ErrNotEditable    = errors.New("report can no longer be edited")
	ErrDuplicate      = errors.New("duplicate key")
)

// ReportFilter narrows report listings.
type ReportFilter struct {
	Status     string
	Category   string
	Priority   string
	Department string
	Search     string
	ReporterID *primitive.ObjectID
	AssignedTo *primitive.ObjectID
	From, To   *time.Time
	SortAsc    bool
	Page       int
	Limit      int
}

// ReportDetails carries the reporter-editable fields. Nil fields are left alone.
type ReportDetails struct {
	Title       *string
	Description *string
	Category    *string
	Department  *string
	Priority    *models.ReportPriority
	Location    *models.Location
}

// Assignment is recorded alongside a move to assigned.
type Assignment struct {
	AssignedTo primitive.ObjectID
	AssignedBy primitive.ObjectID
	AssignedAt time.Time
	Department string
}

// StatusUpdate moves a report from one status to another. The store applies it
// only if the report is still in From.
type StatusUpdate struct {
	From            models.ReportStatus
	Change          models.StatusChange
	Assignment      *Assignment
	Resolution      *models.Resolution
	ResolutionHours *int64
}

type TimelineRow struct {
	Bucket string `bson:"bucket" json:"bucket"`
	Status string `bson:"status" json:"status"`
	Count  int64  `bson:"count" json:"count"`
}

type CategoryStatusRow struct {
	Category string `bson:"category" json:"category"`
	Status   string `bson:"status" json:"status"`
	Count    int64  `bson:"count" json:"count"`
}

type ReporterCount struct {
	UserID      primitive.ObjectID `bson:"_id" json:"userId"`
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email" json:"email"`
	ReportCount int64              `bson:"reportCount" json:"reportCount"`
}

type StaffStatusRow struct {
	StaffID            primitive.ObjectID `bson:"staffId" json:"staffId"`
	Status             string             `bson:"status" json:"status"`
	Count              int64              `bson:"count" json:"count"`
	AvgResolutionHours *float64           `bson:"avgResolutionHours" json:"avgResolutionHours"`
}

// ReportStore persists reports.
type ReportStore interface {
	Create(ctx context.Context, r *models.Report) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Report, error)
	List(ctx context.Context, f ReportFilter) ([]models.Report, int64, error)
	Recent(ctx context.Context, limit int) ([]models.Report, error)
	Nearby(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]models.Report, error)
	UpdateDetails(ctx context.Context, id primitive.ObjectID, d ReportDetails, by primitive.ObjectID) error
	ApplyStatus(ctx context.Context, id primitive.ObjectID, u StatusUpdate) error
	AddComment(ctx context.Context, id primitive.ObjectID, c models.Comment) error
	AddMedia(ctx context.Context, id primitive.ObjectID, urls []string) error
	SetFeedback(ctx context.Context, id primitive.ObjectID, fb models.Feedback) error
	IncrementViews(ctx context.Context, id primitive.ObjectID) error
	AdjustUpvotes(ctx context.Context, id primitive.ObjectID, delta int64) (int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) error

	CountByStatus(ctx context.Context, f ReportFilter) (map[string]int64, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
	CountByField(ctx context.Context, field string, f ReportFilter) (map[string]int64, error)
	AverageResolutionHours(ctx context.Context, f ReportFilter) (float64, error)
	Timeline(ctx context.Context, f ReportFilter, dateFormat string) ([]TimelineRow, error)
	CategoryStatus(ctx context.Context, f ReportFilter) ([]CategoryStatusRow, error)
	TopReporters(ctx context.Context, limit int) ([]ReporterCount, error)
	StaffStatus(ctx context.Context, f ReportFilter) ([]StaffStatusRow, error)
}

// UpvoteStore tracks which users upvoted which report.
type UpvoteStore interface {
	// Toggle adds the upvote if absent and removes it otherwise. It reports
	// whether the user now has an upvote on the report.
	Toggle(ctx context.Context, reportID, userID primitive.ObjectID) (bool, error)
	HasUpvoted(ctx context.Context, reportID, userID primitive.ObjectID) (bool, error)
	DeleteForReport(ctx context.Context, reportID primitive.ObjectID) error
}

type UserFilter struct {
	Role     string
	IsActive *bool
	Page     int
	Limit    int
}

type RoleCount struct {
	Role   string `bson:"_id" json:"role"`
	Count  int64  `bson:"count" json:"count"`
	Active int64  `bson:"active" json:"active"`
}

type DayCount struct {
	Day   string `bson:"_id" json:"date"`
	Count int64  `bson:"count" json:"count"`
}

// UserStore persists users.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error)
	List(ctx context.Context, f UserFilter) ([]models.User, int64, error)
	SetActive(ctx context.Context, id primitive.ObjectID, active bool) error
	SetRole(ctx context.Context, id primitive.ObjectID, role models.Role, department string) error
	SetAssignedArea(ctx context.Context, id primitive.ObjectID, area string) error
	CountByRoles(ctx context.Context, roles []models.Role, activeOnly bool) (int64, error)
	RoleBreakdown(ctx context.Context) ([]RoleCount, error)
	RegistrationTrend(ctx context.Context, days int) ([]DayCount, error)
}

// DepartmentUpdate is a partial department edit. Nil fields are left as
// stored; an empty non-nil Categories clears the set.
type DepartmentUpdate struct {
	Name         *string
	Description  *string
	Categories   []string
	ContactEmail *string
	ContactPhone *string
	IsActive     *bool
}

// DepartmentStore persists departments.
type DepartmentStore interface {
	List(ctx context.Context, includeInactive bool) ([]models.Department, error)
	FindByCode(ctx context.Context, code string) (*models.Department, error)
	// FindByCategory returns the active department reports in category route to.
	FindByCategory(ctx context.Context, category string) (*models.Department, error)
	// CategoryOwner returns the department holding category, active or not.
	// Deleted departments own nothing.
	CategoryOwner(ctx context.Context, category string) (*models.Department, error)
	Create(ctx context.Context, d *models.Department) error
	Update(ctx context.Context, code string, u DepartmentUpdate) error
	SoftDelete(ctx context.Context, code string) error
	// UpsertCategories creates the department if missing and replaces its
	// category set with categories. It never merges with existing entries.
	UpsertCategories(ctx context.Context, d models.Department) error
}
