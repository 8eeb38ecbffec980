package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"civicsetu-be/apperrors"
	"civicsetu-be/events"
	"civicsetu-be/logger"
	"civicsetu-be/metrics"
	"civicsetu-be/middlewares"
	"civicsetu-be/models"
	"civicsetu-be/stores"
	"civicsetu-be/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

const (
	defaultNearbyRadiusKm = 5.0
	nearbyLimit           = 50
)

// ReportController serves the report endpoints. Every status change goes
// through the transition policy and is written compare-and-set on the status
// the report had when it was read.
type ReportController struct {
	reports     stores.ReportStore
	upvotes     stores.UpvoteStore
	users       stores.UserStore
	departments stores.DepartmentStore
	policy      models.TransitionPolicy
	events      events.Publisher
	authz       *middlewares.Authorizer
	metrics     *metrics.Metrics
	log         *slog.Logger
}

type ReportControllerDeps struct {
	Reports     stores.ReportStore
	Upvotes     stores.UpvoteStore
	Users       stores.UserStore
	Departments stores.DepartmentStore
	Policy      models.TransitionPolicy
	Events      events.Publisher
	Authz       *middlewares.Authorizer
	Metrics     *metrics.Metrics
}

func NewReportController(d ReportControllerDeps) *ReportController {
	return &ReportController{
		reports:     d.Reports,
		upvotes:     d.Upvotes,
		users:       d.Users,
		departments: d.Departments,
		policy:      d.Policy,
		events:      d.Events,
		authz:       d.Authz,
		metrics:     d.Metrics,
		log:         logger.WithComponent("reports"),
	}
}

type locationInput struct {
	Address   string   `json:"address" binding:"required,max=300"`
	Locality  string   `json:"locality" binding:"max=100"`
	Ward      string   `json:"ward" binding:"max=50"`
	City      string   `json:"city" binding:"max=100"`
	Pincode   string   `json:"pincode" binding:"max=10"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" binding:"omitempty,longitude"`
}

func (l locationInput) toModel() models.Location {
	return models.Location{
		Address:   utils.CleanText(l.Address),
		Locality:  utils.CleanText(l.Locality),
		Ward:      utils.CleanText(l.Ward),
		City:      utils.CleanText(l.City),
		Pincode:   l.Pincode,
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
	}
}

// routeCategory returns the code of the active department handling category,
// or "" when no department claims it.
func (rc *ReportController) routeCategory(c *gin.Context, category string) string {
	ctx, cancel := requestContext(c)
	defer cancel()

	d, err := rc.departments.FindByCategory(ctx, category)
	if err != nil {
		if !errors.Is(err, stores.ErrNotFound) {
			rc.log.Warn("department routing failed", "category", category, "error", err)
		}
		return ""
	}
	return d.Code
}

// CreateReport files a new report in the submitted status.
func (rc *ReportController) CreateReport(c *gin.Context) {
	u, ok := requireCaller(c)
	if !ok {
		return
	}

	var input struct {
		Title       string                `json:"title" binding:"required,max=200"`
		Description string                `json:"description" binding:"required,max=2000"`
		Category    string                `json:"category" binding:"required,category"`
		Priority    models.ReportPriority `json:"priority" binding:"omitempty,priority"`
		Location    locationInput         `json:"location" binding:"required"`
		Media       []string              `json:"media" binding:"max=5,dive,url"`
		IsAnonymous bool                  `json:"isAnonymous"`
	}
	if !bindJSON(c, &input) {
		return
	}

	title := utils.CleanText(input.Title)
	if title == "" {
		utils.ErrorResponseWithError(c, apperrors.NewValidationError("Title is required"))
		return
	}
	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	media := input.Media
	if media == nil {
		media = []string{}
	}

	now := time.Now()
	location := input.Location.toModel()
	report := models.Report{
		ID:          primitive.NewObjectID(),
		ReporterID:  u.ID,
		Title:       title,
		Description: utils.CleanText(input.Description),
		Category:    input.Category,
		Priority:    priority,
		Status:      models.StatusSubmitted,
		Location:    location,
		Geo:         models.NewGeoPoint(location.Latitude, location.Longitude),
		Media:       media,
		Department:  rc.routeCategory(c, input.Category),
		StatusHistory: []models.StatusChange{{
			Status:    models.StatusSubmitted,
			ChangedBy: u.ID,
			ChangedAt: now,
			Comment:   "Report submitted",
		}},
		Comments:    []models.Comment{},
		IsAnonymous: input.IsAnonymous,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := rc.reports.Create(ctx, &report); err != nil {
		rc.log.Error("failed to create report", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}
	rc.metrics.ReportsCreated.WithLabelValues(report.Category).Inc()

	utils.CreatedResponse(c, report, "Report created successfully")
}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// dateRange reads startDate/endDate. endDate is inclusive of the whole day.
func dateRange(c *gin.Context) (*time.Time, *time.Time, error) {
	from, err := parseDate(c.Query("startDate"))
	if err != nil {
		return nil, nil, apperrors.NewValidationError("Invalid startDate", "expected YYYY-MM-DD")
	}
	to, err := parseDate(c.Query("endDate"))
	if err != nil {
		return nil, nil, apperrors.NewValidationError("Invalid endDate", "expected YYYY-MM-DD")
	}
	if to != nil {
		end := to.Add(24*time.Hour - time.Nanosecond)
		to = &end
	}
	return from, to, nil
}

func listFilter(c *gin.Context) (stores.ReportFilter, error) {
	page, limit := utils.ParsePage(c.Query("page"), c.Query("limit"))
	from, to, err := dateRange(c)
	if err != nil {
		return stores.ReportFilter{}, err
	}
	return stores.ReportFilter{
		Status:     c.Query("status"),
		Category:   c.Query("category"),
		Priority:   c.Query("priority"),
		Department: c.Query("department"),
		Search:     c.Query("search"),
		From:       from,
		To:         to,
		SortAsc:    c.Query("sortOrder") == "asc" || c.Query("sort") == "oldest",
		Page:       page,
		Limit:      limit,
	}, nil
}

func (rc *ReportController) publicViews(c *gin.Context, reports []models.Report) []models.Report {
	u, _ := currentCaller(c)
	out := make([]models.Report, len(reports))
	for i, r := range reports {
		out[i] = r.PublicView(u.ID, u.IsStaff())
	}
	return out
}

// GetReports lists reports with filters and pagination.
func (rc *ReportController) GetReports(c *gin.Context) {
	filter, err := listFilter(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	rc.list(c, filter)
}

// GetMyReports lists the caller's own reports.
func (rc *ReportController) GetMyReports(c *gin.Context) {
	u, ok := requireCaller(c)
	if !ok {
		return
	}
	filter, err := listFilter(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	filter.ReporterID = &u.ID
	rc.list(c, filter)
}

func (rc *ReportController) list(c *gin.Context, filter stores.ReportFilter) {
	ctx, cancel := requestContext(c)
	defer cancel()

	reports, total, err := rc.reports.List(ctx, filter)
	if err != nil {
		rc.log.Error("failed to list reports", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.ListSuccessResponse(c, rc.publicViews(c, reports), utils.NewPagination(filter.Page, filter.Limit, total))
}

// GetNearbyReports finds reports around a point.
func (rc *ReportController) GetNearbyReports(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("latitude"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("longitude"), 64)
	if errLat != nil || errLng != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		utils.ErrorResponseWithError(c, apperrors.NewValidationError("Valid latitude and longitude are required"))
		return
	}
	radius := defaultNearbyRadiusKm
	if v := c.Query("radius"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil || r <= 0 {
			utils.ErrorResponseWithError(c, apperrors.NewValidationError("Invalid radius"))
			return
		}
		radius = r
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	reports, err := rc.reports.Nearby(ctx, lat, lng, radius, nearbyLimit)
	if err != nil {
		rc.log.Error("failed to find nearby reports", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", rc.publicViews(c, reports))
}

// ReportStats is the public summary served by GetReportStats.
type ReportStats struct {
	models.StatusBuckets
	ByCategory             map[string]int64 `json:"byCategory"`
	ByPriority             map[string]int64 `json:"byPriority"`
	AvgResolutionTimeHours float64          `json:"avgResolutionTimeHours"`
}

// GetReportStats returns totals and the pending/completed split.
func (rc *ReportController) GetReportStats(c *gin.Context) {
	from, to, err := dateRange(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	filter := stores.ReportFilter{From: from, To: to}

	ctx, cancel := requestContext(c)
	defer cancel()

	var (
		byStatus, byCategory, byPriority map[string]int64
		avg                              float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		byStatus, err = rc.reports.CountByStatus(gctx, filter)
		return err
	})
	g.Go(func() (err error) {
		byCategory, err = rc.reports.CountByField(gctx, "category", filter)
		return err
	})
	g.Go(func() (err error) {
		byPriority, err = rc.reports.CountByField(gctx, "priority", filter)
		return err
	})
	g.Go(func() (err error) {
		resolved := filter
		resolved.Status = string(models.StatusResolved)
		avg, err = rc.reports.AverageResolutionHours(gctx, resolved)
		return err
	})
	if err := g.Wait(); err != nil {
		rc.log.Error("failed to compute report stats", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", ReportStats{
		StatusBuckets:          models.BucketStatusCounts(byStatus),
		ByCategory:             byCategory,
		ByPriority:             byPriority,
		AvgResolutionTimeHours: avg,
	})
}

// GetReport returns one report and counts the view.
func (rc *ReportController) GetReport(c *gin.Context) {
	id, ok := paramObjectID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	report, err := rc.reports.FindByID(ctx, id)
	if err != nil {
		utils.ErrorResponseWithError(c, storeError(err, "Report"))
		return
	}
	if err := rc.reports.IncrementViews(ctx, id); err != nil {
		rc.log.Warn("failed to count view", "report_id", id.Hex(), "error", err)
	} else {
		report.ViewCount++
	}

	u, _ := currentCaller(c)
	view := report.PublicView(u.ID, u.IsStaff())
	hasUpvoted := false
	if !u.ID.IsZero() {
		hasUpvoted, err = rc.upvotes.HasUpvoted(ctx, id, u.ID)
		if err != nil {
			rc.log.Warn("failed to load upvote state", "report_id", id.Hex(), "error", err)
		}
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"report":       view,
		"hasUpvoted":   hasUpvoted,
		"nextStatuses": rc.policy.Allowed(report.Status),
	})
}

func (rc *ReportController) canEdit(u caller, r *models.Report) bool {
	return r.ReporterID == u.ID || rc.authz.Can(string(u.Role), middlewares.ObjReport, middlewares.ActEditAny)
}

// UpdateReport edits report details while the report is still submitted.
func (rc *ReportController) UpdateReport(c *gin.Context) {
	u, ok := requireCaller(c)
	if !ok {
		return
	}
	id, ok := paramObjectID(c, "id")
	if !ok {
		return
	}

	var input struct {
		Title       *string                `json:"title" binding:"omitempty,min=1,max=200"`
		Description *string                `json:"description" binding:"omitempty,max=2000"`
		Category    *string                `json:"category" binding:"omitempty,category"`
		Priority    *models.ReportPriority `json:"priority" binding:"omitempty,priority"`
		Location    *locationInput         `json:"location"`
	}
	if !bindJSON(c, &input) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	report, err := rc.reports.FindByID(ctx, id)
	if err != nil {
		utils.ErrorResponseWithError(c, storeError(err, "Report"))
		return
	}
	if !rc.canEdit(u, report) {
		utils.ErrorResponseWithError(c, apperrors.NewForbiddenError("Not authorized to edit this report"))
		return
	}
	if report.Status != models.StatusSubmitted {
		utils.ErrorResponseWithError(c, storeError(stores.ErrNotEditable, "Report"))
		return
	}

	var details stores.ReportDetails
	if input.Title != nil {
		t := utils.CleanText(*input.Title)
		details.Title = &t
	}
	if input.Description != nil {
		d := utils.CleanText(*input.Description)
		details.Description = &d
	}
	if input.Category != nil && *input.Category != report.Category {
		details.Category = input.Category
		dept := rc.routeCategory(c, *input.Category)
		details.Department = &dept
	}
	details.Priority = input.Priority
	if input.Location != nil {
		loc := input.Location.toModel()
		details.Location = &loc
	}

	if err := rc.reports.UpdateDetails(ctx, id, details, u.ID); err != nil {
		utils.ErrorResponseWithError(c, storeError(err, "Report"))
		return
	}
	rc.respondWithReport(c, id, "Report updated successfully")
}

// DeleteReport removes a report and its upvotes.
func (rc *ReportController) DeleteReport(c *gin.Context) {
	id, ok := paramObjectID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := rc.reports.Delete(ctx, id); err != nil {
		utils.ErrorResponseWithError(c, storeError(err, "Report"))
		return
	}
	if err := rc.upvotes.DeleteForReport(ctx, id); err != nil {
		rc.log.Warn("failed to delete upvotes", "report_id", id.Hex(), "error", err)
	}
	utils.SuccessResponse(c, http.StatusOK, "Report deleted successfully", nil)
}

// UpdateReportStatus applies a status change requested by staff.
func (rc *ReportController) UpdateReportStatus(c *gin.Context) {
	u, ok := requireCaller(c)
	if !ok {
		return
	}
	id, ok := paramObjectID(c, "id")
	if !ok {
		return
	}

	var input struct {
		Status  string `json:"status" binding:"required"`
		Comment string `json:"comment" binding:"max=1000"`
	}
	if !bindJSON(c, &input) {
		return
	}
	target := models.ReportStatus(input.Status)

	ctx, cancel := requestContext(c)
	defer cancel()

	report, err := rc.reports.FindByID(ctx, id)
	if err != nil {
		utils.ErrorResponseWithError(c, storeError(err, "Report"))
		return
	}

	if report.Status == target {
		rc.metrics.RejectedMoves.WithLabelValues("same_status").Inc()
		utils.ErrorResponseWithError(c, apperrors.NewConflictError(
			"Report is already "+models.StatusLabel(string(target)),
		))
		return
	}
	if err := rc.policy.Check(report.Status, target); err != nil {
		rc.metrics.RejectedMoves.WithLabelValues("policy").Inc()
		utils.ErrorResponseWithError(c, storeError(err, "Report"))
		return
	}

	rc.applyStatus(c, report, target, u, utils.CleanText(input.Comment), nil, "Report status updated successfully")
}

// AssignReport assigns a staff member and moves the report to assigned.
// Assigning an already assigned report replaces the assignee.
func (rc *ReportController) AssignReport(c *gin.Context) {
	u, ok := requireCaller(c)
	if !ok {
		return
	}
	id, ok := paramObjectID(c, "id")
	if !ok {
		return
	}

	var input struct {
		StaffID    string `json:"staffId" binding:"required"`
		Department string `json:"department" binding:"max=20"`
		Comment    string `json:"comment" binding:"max=1000"`
	}
	if !bindJSON(c, &input) {
		return
	}
	staffID, err := primitive.ObjectIDFromHex(input.StaffID)
	if err != nil {
		utils.ErrorResponseWithError(c, apperrors.NewValidationError("Invalid staffId"))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	staff, err := rc.users.FindByID(ctx, staffID)
	if err != nil {
		utils.ErrorResponseWithError(c, storeError(err, "Staff member"))
		return
	}
	if !staff.Role.IsStaff() || !staff.IsActive {
		utils.ErrorResponseWithError(c, apperrors.NewValidationError("Assignee must be an active staff member"))
		return
	}

	report, err := rc.reports.FindByID(ctx, id)
	if err != nil {
		utils.ErrorResponseWithError(c, storeError(err, "Report"))
		return
	}
	// Terminal reports come back only through reopen, whatever the policy.
	if report.Status.IsTerminal() {
		rc.metrics.RejectedMoves.WithLabelValues("terminal").Inc()
		utils.ErrorResponseWithError(c, storeError(&models.TransitionError{From: report.Status, To: models.StatusAssigned}, "Report"))
		return
	}
	if report.Status != models.StatusAssigned {
		if err := rc.policy.Check(report.Status, models.StatusAssigned); err != nil {
			rc.metrics.RejectedMoves.WithLabelValues("policy").Inc()
			utils.ErrorResponseWithError(c, storeError(err, "Report"))
			return
		}
	}

	department := input.Department
	if department == "" {
		department = staff.Department
	}
	comment := utils.CleanText(input.Comment)
	if comment == "" {
		comment = "Assigned to " + staff.Name
	}

	assignment := &stores.Assignment{
		AssignedTo: staffID,
		AssignedBy: u.ID,
		AssignedAt: time.Now(),
		Department: department,
	}
	rc.applyStatus(c, report, models.StatusAssigned, u, comment, assignment, "Report assigned successfully")
}

// ReopenReport returns a terminal report to the workflow.
func (rc *ReportController) ReopenReport(c *gin.Context) {
	u, ok := requireCaller(c)
	if !ok {
		return
	}
	id, ok := paramObjectID(c, "id")
	if !ok {
		return
	}

	var input struct {
		Comment string `json:"comment" binding:"max=1000"`
	}
	if c.Request.ContentLength > 0 && !bindJSON(c, &input) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	report, err := rc.reports.FindByID(ctx, id)
	if err != nil {
		utils.ErrorResponseWithError(c, storeError(err, "Report"))
		return
	}
	target, err := models.Reopen(report.Status)
	if err != nil {
		rc.metrics.RejectedMoves.WithLabelValues("not_reopenable").Inc()
		utils.ErrorResponseWithError(c, storeError(err, "Report"))
		return
	}

	comment := utils.CleanText(input.Comment)
	if comment == "" {
		comment = "Report reopened"
	}
	rc.applyStatus(c, report, target, u, comment, nil, "Report reopened successfully")
}

// applyStatus writes the change guarded by the report's current status,
// then records and broadcasts it.
func (rc *ReportController) applyStatus(c *gin.Context, report *models.Report, target models.ReportStatus, u caller, comment string, assignment *stores.Assignment, message string) {
	now := time.Now()
	update := stores.StatusUpdate{
		From: report.Status,
		Change: models.StatusChange{
			From:      report.Status,
			Status:    target,
			ChangedBy: u.ID,
			ChangedAt: now,
			Comment:   comment,
		},
		Assignment: assignment,
	}
	if target == models.StatusResolved {
		hours := report.ResolutionHoursSince(now)
		update.Resolution = &models.Resolution{ResolvedBy: u.ID, ResolvedAt: now, Notes: comment}
		update.ResolutionHours = &hours
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := rc.reports.ApplyStatus(ctx, report.ID, update); err != nil {
		if errors.Is(err, stores.ErrStatusConflict) {
			rc.metrics.RejectedMoves.WithLabelValues("conflict").Inc()
		} else if !errors.Is(err, stores.ErrNotFound) {
			rc.log.Error("failed to apply status", "report_id", report.ID.Hex(), "error", err)
		}
		utils.ErrorResponseWithError(c, storeError(err, "Report"))
		return
	}

	rc.metrics.StatusTransitions.WithLabelValues(string(update.From), string(target)).Inc()
	rc.log.Info("report status changed",
		"report_id", report.ID.Hex(),
		"from", update.From,
		"to", target,
		"by", u.ID.Hex(),
	)
	if err := rc.events.Publish(ctx, events.NewStatusEvent(report.ID.Hex(), update.Change)); err != nil {
		rc.log.Warn("failed to publish status event", "report_id", report.ID.Hex(), "error", err)
	}

	rc.respondWithReport(c, report.ID, message)
}

func (rc *ReportController) respondWithReport(c *gin.Context, id primitive.ObjectID, message string) {
	ctx, cancel := requestContext(c)
	defer cancel()

	report, err := rc.reports.FindByID(ctx, id)
	if err != nil {
		utils.ErrorResponseWithError(c, storeError(err, "Report"))
		return
	}
	u, _ := currentCaller(c)
	utils.SuccessResponse(c, http.StatusOK, message, report.PublicView(u.ID, u.IsStaff()))
}

// AddComment appends a comment. Internal comments are limited to staff.
func (rc *ReportController) AddComment(c *gin.Context) {
	u, ok := requireCaller(c)
	if !ok {
		return
	}
	id, ok := paramObjectID(c, "id")
	if !ok {
		return
	}

	var input struct {
		Text       string `json:"text" binding:"required,max=1000"`
		IsInternal bool   `json:"isInternal"`
	}
	if !bindJSON(c, &input) {
		return
	}
	if input.IsInternal && !rc.authz.Can(string(u.Role), middlewares.ObjReport, middlewares.ActReadInternal) {
		utils.ErrorResponseWithError(c, apperrors.NewForbiddenError("Only staff can add internal comments"))
		return
	}
	text := utils.CleanText(input.Text)
	if text == "" {
		utils.ErrorResponseWithError(c, apperrors.NewValidationError("Comment text is required"))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	comment := models.Comment{
		ID:         primitive.NewObjectID(),
		User:       u.ID,
		Text:       text,
		IsInternal: input.IsInternal,
		CreatedAt:  time.Now(),
	}
	if err := rc.reports.AddComment(ctx, id, comment); err != nil {
		utils.ErrorResponseWithError(c, storeError(err, "Report"))
		return
	}
	utils.CreatedResponse(c, comment, "Comment added successfully")
}

// ToggleUpvote adds or removes the caller's upvote.
func (rc *ReportController) ToggleUpvote(c *gin.Context) {
	u, ok := requireCaller(c)
	if !ok {
		return
	}
	id, ok := paramObjectID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if _, err := rc.reports.FindByID(ctx, id); err != nil {
		utils.ErrorResponseWithError(c, storeError(err, "Report"))
		return
	}

	upvoted, err := rc.upvotes.Toggle(ctx, id, u.ID)
	if err != nil && !errors.Is(err, stores.ErrDuplicate) {
		rc.log.Error("failed to toggle upvote", "report_id", id.Hex(), "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	var count int64
	switch {
	case errors.Is(err, stores.ErrDuplicate):
		// A concurrent request already added it.
		report, ferr := rc.reports.FindByID(ctx, id)
		if ferr != nil {
			utils.ErrorResponseWithError(c, storeError(ferr, "Report"))
			return
		}
		count = report.UpvoteCount
	case upvoted:
		count, err = rc.reports.AdjustUpvotes(ctx, id, 1)
	default:
		count, err = rc.reports.AdjustUpvotes(ctx, id, -1)
	}
	if err != nil && !errors.Is(err, stores.ErrDuplicate) {
		utils.ErrorResponseWithError(c, storeError(err, "Report"))
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{"upvoted": upvoted, "upvotes": count})
}

// SubmitFeedback records the reporter's rating of a resolved report.
func (rc *ReportController) SubmitFeedback(c *gin.Context) {
	u, ok := requireCaller(c)
	if !ok {
		return
	}
	id, ok := paramObjectID(c, "id")
	if !ok {
		return
	}

	var input struct {
		Rating  int    `json:"rating" binding:"required,min=1,max=5"`
		Comment string `json:"comment" binding:"max=1000"`
	}
	if !bindJSON(c, &input) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	report, err := rc.reports.FindByID(ctx, id)
	if err != nil {
		utils.ErrorResponseWithError(c, storeError(err, "Report"))
		return
	}
	if report.ReporterID != u.ID {
		utils.ErrorResponseWithError(c, apperrors.NewForbiddenError("Only the reporter can give feedback"))
		return
	}
	if report.Status != models.StatusResolved {
		utils.ErrorResponseWithError(c, apperrors.NewConflictError("Feedback can only be given on resolved reports"))
		return
	}

	fb := models.Feedback{Rating: input.Rating, Comment: utils.CleanText(input.Comment), SubmittedAt: time.Now()}
	if err := rc.reports.SetFeedback(ctx, id, fb); err != nil {
		if errors.Is(err, stores.ErrStatusConflict) {
			utils.ErrorResponseWithError(c, apperrors.NewConflictError("Feedback can only be given on resolved reports"))
			return
		}
		utils.ErrorResponseWithError(c, storeError(err, "Report"))
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Feedback submitted successfully", fb)
}

// AddMedia appends media URLs to a report.
func (rc *ReportController) AddMedia(c *gin.Context) {
	u, ok := requireCaller(c)
	if !ok {
		return
	}
	id, ok := paramObjectID(c, "id")
	if !ok {
		return
	}

	var input struct {
		URLs []string `json:"urls" binding:"required,min=1,max=5,dive,url"`
	}
	if !bindJSON(c, &input) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	report, err := rc.reports.FindByID(ctx, id)
	if err != nil {
		utils.ErrorResponseWithError(c, storeError(err, "Report"))
		return
	}
	if report.ReporterID != u.ID && !u.IsStaff() {
		utils.ErrorResponseWithError(c, apperrors.NewForbiddenError("Not authorized to add media to this report"))
		return
	}

	if err := rc.reports.AddMedia(ctx, id, input.URLs); err != nil {
		utils.ErrorResponseWithError(c, storeError(err, "Report"))
		return
	}
	rc.respondWithReport(c, id, "Media added successfully")
}
