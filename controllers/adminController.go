package controllers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"civicsetu-be/apperrors"
	"civicsetu-be/logger"
	"civicsetu-be/models"
	"civicsetu-be/stores"
	"civicsetu-be/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

const recentReportsLimit = 10

// timelineFormats maps the groupBy query value to a $dateToString format.
var timelineFormats = map[string]string{
	"hour":  "%Y-%m-%d %H:00",
	"day":   "%Y-%m-%d",
	"week":  "%G-W%V",
	"month": "%Y-%m",
}

type AdminController struct {
	reports     stores.ReportStore
	users       stores.UserStore
	departments stores.DepartmentStore
	log         *slog.Logger
}

func NewAdminController(reports stores.ReportStore, users stores.UserStore, departments stores.DepartmentStore) *AdminController {
	return &AdminController{
		reports:     reports,
		users:       users,
		departments: departments,
		log:         logger.WithComponent("admin"),
	}
}

// DashboardStats are the headline numbers of the admin dashboard.
type DashboardStats struct {
	TotalReports        int64            `json:"totalReports"`
	TodayReports        int64            `json:"todayReports"`
	PendingReports      int64            `json:"pendingReports"`
	CompletedReports    int64            `json:"completedReports"`
	ResolvedReports     int64            `json:"resolvedReports"`
	UnclassifiedReports int64            `json:"unclassifiedReports"`
	ByStatus            map[string]int64 `json:"byStatus"`
	TotalUsers          int64            `json:"totalUsers"`
	ActiveStaff         int64            `json:"activeStaff"`
}

// GetDashboardStats counts reports by status and buckets them with the
// status classifier, so the dashboard and the lists agree on what pending means.
func (a *AdminController) GetDashboardStats(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var (
		byStatus        map[string]int64
		todayReports    int64
		citizens, staff int64
		recent          []models.Report
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		byStatus, err = a.reports.CountByStatus(gctx, stores.ReportFilter{})
		return err
	})
	g.Go(func() (err error) {
		todayReports, err = a.reports.CountCreatedSince(gctx, today)
		return err
	})
	g.Go(func() (err error) {
		citizens, err = a.users.CountByRoles(gctx, []models.Role{models.RoleCitizen}, false)
		return err
	})
	g.Go(func() (err error) {
		staff, err = a.users.CountByRoles(gctx, []models.Role{models.RoleStaff, models.RoleSupervisor}, true)
		return err
	})
	g.Go(func() (err error) {
		recent, err = a.reports.Recent(gctx, recentReportsLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		a.log.Error("error fetching dashboard statistics", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	buckets := models.BucketStatusCounts(byStatus)
	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"stats": DashboardStats{
			TotalReports:        buckets.Total,
			TodayReports:        todayReports,
			PendingReports:      buckets.Pending,
			CompletedReports:    buckets.Completed,
			ResolvedReports:     buckets.ByStatus[string(models.StatusResolved)],
			UnclassifiedReports: buckets.Unclassified,
			ByStatus:            buckets.ByStatus,
			TotalUsers:          citizens,
			ActiveStaff:         staff,
		},
		"recentReports": recent,
	})
}

type statusCount struct {
	Status string `json:"status"`
	Label  string `json:"label"`
	Count  int64  `json:"count"`
}

// TimelinePoint is one bucket of the report timeline.
type TimelinePoint struct {
	Date         string        `json:"date"`
	Total        int64         `json:"total"`
	Pending      int64         `json:"pending"`
	Completed    int64         `json:"completed"`
	StatusCounts []statusCount `json:"statusCounts"`
}

// CategoryBreakdown summarises one category.
type CategoryBreakdown struct {
	Category  string `json:"category"`
	Count     int64  `json:"count"`
	Pending   int64  `json:"pending"`
	Completed int64  `json:"completed"`
	Resolved  int64  `json:"resolved"`
}

// BuildTimeline folds per-bucket status rows into timeline points, in
// bucket order.
func BuildTimeline(rows []stores.TimelineRow) []TimelinePoint {
	index := make(map[string]int)
	points := []TimelinePoint{}
	for _, row := range rows {
		i, ok := index[row.Bucket]
		if !ok {
			i = len(points)
			index[row.Bucket] = i
			points = append(points, TimelinePoint{Date: row.Bucket, StatusCounts: []statusCount{}})
		}
		p := &points[i]
		p.Total += row.Count
		switch {
		case models.IsPendingStatus(row.Status):
			p.Pending += row.Count
		case models.IsCompletedStatus(row.Status):
			p.Completed += row.Count
		}
		p.StatusCounts = append(p.StatusCounts, statusCount{
			Status: row.Status,
			Label:  models.StatusLabel(row.Status),
			Count:  row.Count,
		})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}

// BuildCategoryBreakdown folds category/status rows, largest category first.
func BuildCategoryBreakdown(rows []stores.CategoryStatusRow) []CategoryBreakdown {
	byCategory := make(map[string]*CategoryBreakdown)
	for _, row := range rows {
		b, ok := byCategory[row.Category]
		if !ok {
			b = &CategoryBreakdown{Category: row.Category}
			byCategory[row.Category] = b
		}
		b.Count += row.Count
		switch {
		case models.IsPendingStatus(row.Status):
			b.Pending += row.Count
		case models.IsCompletedStatus(row.Status):
			b.Completed += row.Count
		}
		if row.Status == string(models.StatusResolved) {
			b.Resolved += row.Count
		}
	}

	out := make([]CategoryBreakdown, 0, len(byCategory))
	for _, b := range byCategory {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// GetReportAnalytics returns the report timeline and category breakdown.
func (a *AdminController) GetReportAnalytics(c *gin.Context) {
	groupBy := c.DefaultQuery("groupBy", "day")
	format, ok := timelineFormats[groupBy]
	if !ok {
		utils.ErrorResponseWithError(c, apperrors.NewValidationError("Invalid groupBy", "use hour, day, week or month"))
		return
	}
	from, to, err := dateRange(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	filter := stores.ReportFilter{From: from, To: to}

	ctx, cancel := requestContext(c)
	defer cancel()

	var (
		timeline   []stores.TimelineRow
		categories []stores.CategoryStatusRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		timeline, err = a.reports.Timeline(gctx, filter, format)
		return err
	})
	g.Go(func() (err error) {
		categories, err = a.reports.CategoryStatus(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		a.log.Error("error fetching report analytics", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"groupBy":    groupBy,
		"timeline":   BuildTimeline(timeline),
		"categories": BuildCategoryBreakdown(categories),
	})
}

// GetUserAnalytics returns role counts, the registration trend and top reporters.
func (a *AdminController) GetUserAnalytics(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	var (
		roles []stores.RoleCount
		trend []stores.DayCount
		top   []stores.ReporterCount
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		roles, err = a.users.RoleBreakdown(gctx)
		return err
	})
	g.Go(func() (err error) {
		trend, err = a.users.RegistrationTrend(gctx, 30)
		return err
	})
	g.Go(func() (err error) {
		top, err = a.reports.TopReporters(gctx, 10)
		return err
	})
	if err := g.Wait(); err != nil {
		a.log.Error("error fetching user analytics", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"userStats":         roles,
		"registrationTrend": trend,
		"topReporters":      top,
	})
}

// StaffPerformance summarises the reports assigned to one staff member.
type StaffPerformance struct {
	StaffID            primitive.ObjectID `json:"staffId"`
	Name               string             `json:"name"`
	Department         string             `json:"department,omitempty"`
	TotalAssigned      int64              `json:"totalAssigned"`
	Resolved           int64              `json:"resolved"`
	InProgress         int64              `json:"inProgress"`
	Pending            int64              `json:"pending"`
	ResolutionRate     float64            `json:"resolutionRate"`
	AvgResolutionHours *float64           `json:"avgResolutionHours"`
}

// BuildStaffPerformance folds staff/status rows, best resolution rate first.
func BuildStaffPerformance(rows []stores.StaffStatusRow, staff map[primitive.ObjectID]models.User) []StaffPerformance {
	byStaff := make(map[primitive.ObjectID]*StaffPerformance)
	for _, row := range rows {
		p, ok := byStaff[row.StaffID]
		if !ok {
			p = &StaffPerformance{StaffID: row.StaffID}
			if u, found := staff[row.StaffID]; found {
				p.Name = u.Name
				p.Department = u.Department
			}
			byStaff[row.StaffID] = p
		}
		p.TotalAssigned += row.Count
		switch models.ReportStatus(row.Status) {
		case models.StatusResolved:
			p.Resolved += row.Count
			p.AvgResolutionHours = row.AvgResolutionHours
		case models.StatusInProgress:
			p.InProgress += row.Count
		}
		if models.IsPendingStatus(row.Status) {
			p.Pending += row.Count
		}
	}

	out := make([]StaffPerformance, 0, len(byStaff))
	for _, p := range byStaff {
		if p.TotalAssigned > 0 {
			p.ResolutionRate = float64(p.Resolved) / float64(p.TotalAssigned) * 100
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ResolutionRate != out[j].ResolutionRate {
			return out[i].ResolutionRate > out[j].ResolutionRate
		}
		return out[i].StaffID.Hex() < out[j].StaffID.Hex()
	})
	return out
}

// DepartmentPerformance summarises reports routed to one department.
type DepartmentPerformance struct {
	Department     string  `json:"department"`
	TotalReports   int64   `json:"totalReports"`
	Resolved       int64   `json:"resolved"`
	ResolutionRate float64 `json:"resolutionRate"`
}

// GetPerformanceMetrics reports per-staff and per-department throughput.
func (a *AdminController) GetPerformanceMetrics(c *gin.Context) {
	from, to, err := dateRange(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	filter := stores.ReportFilter{From: from, To: to}
	if v := c.Query("staffId"); v != "" {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			utils.ErrorResponseWithError(c, apperrors.NewValidationError("Invalid staffId"))
			return
		}
		filter.AssignedTo = &id
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	var (
		rows                    []stores.StaffStatusRow
		deptTotal, deptResolved map[string]int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		rows, err = a.reports.StaffStatus(gctx, filter)
		return err
	})
	g.Go(func() (err error) {
		deptTotal, err = a.reports.CountByField(gctx, "department", filter)
		return err
	})
	g.Go(func() (err error) {
		resolved := filter
		resolved.Status = string(models.StatusResolved)
		deptResolved, err = a.reports.CountByField(gctx, "department", resolved)
		return err
	})
	if err := g.Wait(); err != nil {
		a.log.Error("error fetching performance metrics", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	ids := make([]primitive.ObjectID, 0, len(rows))
	seen := make(map[primitive.ObjectID]bool)
	for _, row := range rows {
		if !seen[row.StaffID] {
			seen[row.StaffID] = true
			ids = append(ids, row.StaffID)
		}
	}
	staff, err := a.users.FindByIDs(ctx, ids)
	if err != nil {
		a.log.Error("error loading staff", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	departments := make([]DepartmentPerformance, 0, len(deptTotal))
	for code, total := range deptTotal {
		if code == "" {
			continue
		}
		d := DepartmentPerformance{Department: code, TotalReports: total, Resolved: deptResolved[code]}
		if total > 0 {
			d.ResolutionRate = float64(d.Resolved) / float64(total) * 100
		}
		departments = append(departments, d)
	}
	sort.Slice(departments, func(i, j int) bool {
		if departments[i].TotalReports != departments[j].TotalReports {
			return departments[i].TotalReports > departments[j].TotalReports
		}
		return departments[i].Department < departments[j].Department
	})

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"staffPerformance":      BuildStaffPerformance(rows, staff),
		"departmentPerformance": departments,
	})
}

type departmentInput struct {
	Code         string   `json:"code" binding:"required,alphanum,min=2,max=20"`
	Name         string   `json:"name" binding:"required,max=100"`
	Description  string   `json:"description" binding:"max=500"`
	Categories   []string `json:"categories" binding:"dive,category"`
	ContactEmail string   `json:"contactEmail" binding:"omitempty,email"`
	ContactPhone string   `json:"contactPhone" binding:"max=20"`
	IsActive     *bool    `json:"isActive"`
}

func (in departmentInput) toModel() models.Department {
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	categories := in.Categories
	if categories == nil {
		categories = []string{}
	}
	return models.Department{
		Code:         strings.ToUpper(in.Code),
		Name:         utils.CleanText(in.Name),
		Description:  utils.CleanText(in.Description),
		Categories:   categories,
		ContactEmail: in.ContactEmail,
		ContactPhone: in.ContactPhone,
		IsActive:     active,
	}
}

// departmentUpdateInput carries only the fields a PUT sends; omitted fields
// stay nil and are left untouched.
type departmentUpdateInput struct {
	Name         *string  `json:"name" binding:"omitempty,max=100"`
	Description  *string  `json:"description" binding:"omitempty,max=500"`
	Categories   []string `json:"categories" binding:"omitempty,dive,category"`
	ContactEmail *string  `json:"contactEmail" binding:"omitempty,email"`
	ContactPhone *string  `json:"contactPhone" binding:"omitempty,max=20"`
	IsActive     *bool    `json:"isActive"`
}

func cleanOptional(s *string) *string {
	if s == nil {
		return nil
	}
	cleaned := utils.CleanText(*s)
	return &cleaned
}

func (in departmentUpdateInput) toUpdate() (stores.DepartmentUpdate, error) {
	u := stores.DepartmentUpdate{
		Name:         cleanOptional(in.Name),
		Description:  cleanOptional(in.Description),
		Categories:   in.Categories,
		ContactEmail: in.ContactEmail,
		ContactPhone: in.ContactPhone,
		IsActive:     in.IsActive,
	}
	if u.Name != nil && *u.Name == "" {
		return u, apperrors.NewValidationError("Department name cannot be empty")
	}
	return u, nil
}

// checkCategoriesFree rejects categories repeated in the request or held by a
// different department, including an inactive one.
func (a *AdminController) checkCategoriesFree(c *gin.Context, code string, categories []string) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	seen := make(map[string]bool, len(categories))
	for _, cat := range categories {
		if seen[cat] {
			return apperrors.NewValidationError("Duplicate category", cat)
		}
		seen[cat] = true

		owner, err := a.departments.CategoryOwner(ctx, cat)
		if errors.Is(err, stores.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if owner.Code != code {
			return apperrors.NewConflictError("Category already belongs to another department",
				fmt.Sprintf("%s is handled by %s", cat, owner.Code))
		}
	}
	return nil
}

// GetDepartments lists departments; inactive ones only when asked for.
func (a *AdminController) GetDepartments(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	departments, err := a.departments.List(ctx, c.Query("includeInactive") == "true")
	if err != nil {
		a.log.Error("error fetching departments", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", departments)
}

func (a *AdminController) CreateDepartment(c *gin.Context) {
	var input departmentInput
	if !bindJSON(c, &input) {
		return
	}
	d := input.toModel()
	if err := a.checkCategoriesFree(c, d.Code, d.Categories); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	now := time.Now()
	d.CreatedAt, d.UpdatedAt = now, now
	if err := a.departments.Create(ctx, &d); err != nil {
		utils.ErrorResponseWithError(c, storeError(err, "Department"))
		return
	}
	utils.CreatedResponse(c, d, "Department created successfully")
}

// UpdateDepartment applies the fields present in the body and keeps the rest.
func (a *AdminController) UpdateDepartment(c *gin.Context) {
	code := strings.ToUpper(c.Param("code"))

	var input departmentUpdateInput
	if !bindJSON(c, &input) {
		return
	}
	update, err := input.toUpdate()
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if update.Categories != nil {
		if err := a.checkCategoriesFree(c, code, update.Categories); err != nil {
			utils.ErrorResponseWithError(c, err)
			return
		}
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := a.departments.Update(ctx, code, update); err != nil {
		utils.ErrorResponseWithError(c, storeError(err, "Department"))
		return
	}
	updated, err := a.departments.FindByCode(ctx, code)
	if err != nil {
		utils.ErrorResponseWithError(c, storeError(err, "Department"))
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Department updated successfully", updated)
}

func (a *AdminController) DeleteDepartment(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := a.departments.SoftDelete(ctx, strings.ToUpper(c.Param("code"))); err != nil {
		utils.ErrorResponseWithError(c, storeError(err, "Department"))
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Department deleted successfully", nil)
}

// CreateStaffUser creates a staff or supervisor account.
func (a *AdminController) CreateStaffUser(c *gin.Context) {
	var input struct {
		Name         string      `json:"name" binding:"required,max=50"`
		Email        string      `json:"email" binding:"required,email"`
		Phone        string      `json:"phone" binding:"max=20"`
		Password     string      `json:"password" binding:"required,min=6"`
		Role         models.Role `json:"role" binding:"required,oneof=staff supervisor"`
		Department   string      `json:"department" binding:"max=20"`
		AssignedArea string      `json:"assignedArea" binding:"max=100"`
	}
	if !bindJSON(c, &input) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	department := strings.ToUpper(input.Department)
	if department != "" {
		if _, err := a.departments.FindByCode(ctx, department); err != nil {
			utils.ErrorResponseWithError(c, storeError(err, "Department"))
			return
		}
	}

	now := time.Now()
	user := models.User{
		Name:         utils.CleanText(input.Name),
		Email:        strings.ToLower(input.Email),
		Phone:        input.Phone,
		Password:     input.Password,
		Role:         input.Role,
		Department:   department,
		AssignedArea: utils.CleanText(input.AssignedArea),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.HashPassword(); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if err := a.users.Create(ctx, &user); err != nil {
		if errors.Is(err, stores.ErrDuplicate) {
			utils.ErrorResponseWithError(c, apperrors.NewConflictError("User with this email already exists"))
			return
		}
		a.log.Error("error creating staff user", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.CreatedResponse(c, user, "Staff user created successfully")
}

// AssignAreaToStaff sets the locality a staff member covers.
func (a *AdminController) AssignAreaToStaff(c *gin.Context) {
	var input struct {
		StaffID string `json:"staffId" binding:"required"`
		Area    string `json:"area" binding:"required,max=100"`
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

	staff, err := a.users.FindByID(ctx, staffID)
	if err != nil {
		utils.ErrorResponseWithError(c, storeError(err, "Staff member"))
		return
	}
	if !staff.Role.IsStaff() {
		utils.ErrorResponseWithError(c, apperrors.NewValidationError("Invalid staff member"))
		return
	}
	if err := a.users.SetAssignedArea(ctx, staffID, utils.CleanText(input.Area)); err != nil {
		utils.ErrorResponseWithError(c, storeError(err, "Staff member"))
		return
	}
	staff.AssignedArea = utils.CleanText(input.Area)
	utils.SuccessResponse(c, http.StatusOK, "Area assigned successfully", staff)
}
