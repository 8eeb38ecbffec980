package controllers_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"civicsetu-be/events"
	"civicsetu-be/models"
	"civicsetu-be/stores"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeReportStore struct {
	mu      sync.Mutex
	reports map[primitive.ObjectID]*models.Report
	// beforeApply runs inside ApplyStatus before the status check, to
	// simulate a concurrent writer.
	beforeApply func(r *models.Report)
}

func newFakeReportStore(reports ...models.Report) *fakeReportStore {
	s := &fakeReportStore{reports: make(map[primitive.ObjectID]*models.Report)}
	for i := range reports {
		r := reports[i]
		s.reports[r.ID] = &r
	}
	return s
}

func (s *fakeReportStore) get(id primitive.ObjectID) (*models.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, false
	}
	cp := *r
	return &cp, true
}

func (s *fakeReportStore) Create(_ context.Context, r *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	cp := *r
	s.reports[r.ID] = &cp
	return nil
}

func (s *fakeReportStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Report, error) {
	r, ok := s.get(id)
	if !ok || r.IsDeleted {
		return nil, stores.ErrNotFound
	}
	return r, nil
}

func (s *fakeReportStore) matching(f stores.ReportFilter) []models.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Report
	for _, r := range s.reports {
		if r.IsDeleted {
			continue
		}
		if f.Status != "" && f.Status != "all" && string(r.Status) != f.Status {
			continue
		}
		if f.Category != "" && f.Category != "all" && r.Category != f.Category {
			continue
		}
		if f.ReporterID != nil && r.ReporterID != *f.ReporterID {
			continue
		}
		if f.AssignedTo != nil && (r.AssignedTo == nil || *r.AssignedTo != *f.AssignedTo) {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(r.Title), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if f.SortAsc {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *fakeReportStore) List(_ context.Context, f stores.ReportFilter) ([]models.Report, int64, error) {
	all := s.matching(f)
	total := int64(len(all))
	if f.Limit > 0 {
		start := (f.Page - 1) * f.Limit
		if start > len(all) {
			start = len(all)
		}
		end := start + f.Limit
		if end > len(all) {
			end = len(all)
		}
		all = all[start:end]
	}
	if all == nil {
		all = []models.Report{}
	}
	return all, total, nil
}

func (s *fakeReportStore) Recent(ctx context.Context, limit int) ([]models.Report, error) {
	r, _, err := s.List(ctx, stores.ReportFilter{Page: 1, Limit: limit})
	return r, err
}

func (s *fakeReportStore) Nearby(context.Context, float64, float64, float64, int) ([]models.Report, error) {
	return []models.Report{}, nil
}

func (s *fakeReportStore) UpdateDetails(_ context.Context, id primitive.ObjectID, d stores.ReportDetails, _ primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return stores.ErrNotFound
	}
	if r.Status != models.StatusSubmitted {
		return stores.ErrNotEditable
	}
	if d.Title != nil {
		r.Title = *d.Title
	}
	if d.Description != nil {
		r.Description = *d.Description
	}
	if d.Category != nil {
		r.Category = *d.Category
	}
	if d.Department != nil {
		r.Department = *d.Department
	}
	if d.Priority != nil {
		r.Priority = *d.Priority
	}
	if d.Location != nil {
		r.Location = *d.Location
	}
	return nil
}

func (s *fakeReportStore) ApplyStatus(_ context.Context, id primitive.ObjectID, u stores.StatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return stores.ErrNotFound
	}
	if s.beforeApply != nil {
		s.beforeApply(r)
	}
	if r.Status != u.From {
		return stores.ErrStatusConflict
	}
	r.Status = u.Change.Status
	r.StatusHistory = append(r.StatusHistory, u.Change)
	if a := u.Assignment; a != nil {
		r.AssignedTo = &a.AssignedTo
		r.AssignedBy = &a.AssignedBy
		r.AssignedAt = &a.AssignedAt
		if a.Department != "" {
			r.Department = a.Department
		}
	}
	if u.Resolution != nil {
		r.Resolution = u.Resolution
		r.ResolutionHours = u.ResolutionHours
	}
	if !u.Change.Status.IsTerminal() {
		r.Resolution = nil
		r.ResolutionHours = nil
	}
	return nil
}

func (s *fakeReportStore) update(id primitive.ObjectID, fn func(r *models.Report)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return stores.ErrNotFound
	}
	fn(r)
	return nil
}

func (s *fakeReportStore) AddComment(_ context.Context, id primitive.ObjectID, c models.Comment) error {
	return s.update(id, func(r *models.Report) { r.Comments = append(r.Comments, c) })
}

func (s *fakeReportStore) AddMedia(_ context.Context, id primitive.ObjectID, urls []string) error {
	return s.update(id, func(r *models.Report) { r.Media = append(r.Media, urls...) })
}

func (s *fakeReportStore) SetFeedback(_ context.Context, id primitive.ObjectID, fb models.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return stores.ErrNotFound
	}
	if r.Status != models.StatusResolved {
		return stores.ErrStatusConflict
	}
	r.Feedback = &fb
	return nil
}

func (s *fakeReportStore) IncrementViews(_ context.Context, id primitive.ObjectID) error {
	return s.update(id, func(r *models.Report) { r.ViewCount++ })
}

func (s *fakeReportStore) AdjustUpvotes(_ context.Context, id primitive.ObjectID, delta int64) (int64, error) {
	var n int64
	err := s.update(id, func(r *models.Report) {
		r.UpvoteCount += delta
		n = r.UpvoteCount
	})
	return n, err
}

func (s *fakeReportStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[id]; !ok {
		return stores.ErrNotFound
	}
	delete(s.reports, id)
	return nil
}

func (s *fakeReportStore) CountByStatus(ctx context.Context, f stores.ReportFilter) (map[string]int64, error) {
	return s.CountByField(ctx, "status", f)
}

func (s *fakeReportStore) CountCreatedSince(_ context.Context, since time.Time) (int64, error) {
	var n int64
	for _, r := range s.matching(stores.ReportFilter{}) {
		if !r.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *fakeReportStore) CountByField(_ context.Context, field string, f stores.ReportFilter) (map[string]int64, error) {
	out := make(map[string]int64)
	for _, r := range s.matching(f) {
		switch field {
		case "status":
			out[string(r.Status)]++
		case "category":
			out[r.Category]++
		case "priority":
			out[string(r.Priority)]++
		case "department":
			out[r.Department]++
		}
	}
	return out, nil
}

func (s *fakeReportStore) AverageResolutionHours(_ context.Context, f stores.ReportFilter) (float64, error) {
	var sum, n int64
	for _, r := range s.matching(f) {
		if r.ResolutionHours != nil {
			sum += *r.ResolutionHours
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return float64(sum) / float64(n), nil
}

func (s *fakeReportStore) Timeline(_ context.Context, f stores.ReportFilter, _ string) ([]stores.TimelineRow, error) {
	counts := make(map[[2]string]int64)
	for _, r := range s.matching(f) {
		counts[[2]string{r.CreatedAt.Format("2006-01-02"), string(r.Status)}]++
	}
	rows := []stores.TimelineRow{}
	for k, n := range counts {
		rows = append(rows, stores.TimelineRow{Bucket: k[0], Status: k[1], Count: n})
	}
	return rows, nil
}

func (s *fakeReportStore) CategoryStatus(_ context.Context, f stores.ReportFilter) ([]stores.CategoryStatusRow, error) {
	counts := make(map[[2]string]int64)
	for _, r := range s.matching(f) {
		counts[[2]string{r.Category, string(r.Status)}]++
	}
	rows := []stores.CategoryStatusRow{}
	for k, n := range counts {
		rows = append(rows, stores.CategoryStatusRow{Category: k[0], Status: k[1], Count: n})
	}
	return rows, nil
}

func (s *fakeReportStore) TopReporters(_ context.Context, limit int) ([]stores.ReporterCount, error) {
	counts := map[primitive.ObjectID]int64{}
	for _, r := range s.matching(stores.ReportFilter{}) {
		counts[r.ReporterID]++
	}
	out := []stores.ReporterCount{}
	for id, n := range counts {
		out = append(out, stores.ReporterCount{UserID: id, ReportCount: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReportCount > out[j].ReportCount })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeReportStore) StaffStatus(_ context.Context, f stores.ReportFilter) ([]stores.StaffStatusRow, error) {
	counts := make(map[primitive.ObjectID]map[string]int64)
	for _, r := range s.matching(f) {
		if r.AssignedTo == nil {
			continue
		}
		if counts[*r.AssignedTo] == nil {
			counts[*r.AssignedTo] = make(map[string]int64)
		}
		counts[*r.AssignedTo][string(r.Status)]++
	}
	rows := []stores.StaffStatusRow{}
	for id, byStatus := range counts {
		for status, n := range byStatus {
			rows = append(rows, stores.StaffStatusRow{StaffID: id, Status: status, Count: n})
		}
	}
	return rows, nil
}

type fakeUpvoteStore struct {
	mu    sync.Mutex
	votes map[[2]primitive.ObjectID]bool
}

func newFakeUpvoteStore() *fakeUpvoteStore {
	return &fakeUpvoteStore{votes: make(map[[2]primitive.ObjectID]bool)}
}

func (s *fakeUpvoteStore) Toggle(_ context.Context, reportID, userID primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]primitive.ObjectID{reportID, userID}
	if s.votes[key] {
		delete(s.votes, key)
		return false, nil
	}
	s.votes[key] = true
	return true, nil
}

func (s *fakeUpvoteStore) HasUpvoted(_ context.Context, reportID, userID primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.votes[[2]primitive.ObjectID{reportID, userID}], nil
}

func (s *fakeUpvoteStore) DeleteForReport(_ context.Context, reportID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.votes {
		if k[0] == reportID {
			delete(s.votes, k)
		}
	}
	return nil
}

type fakeUserStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUserStore(users ...models.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[primitive.ObjectID]*models.User)}
	for i := range users {
		u := users[i]
		s.users[u.ID] = &u
	}
	return s
}

func (s *fakeUserStore) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return stores.ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == strings.ToLower(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, stores.ErrNotFound
}

func (s *fakeUserStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, stores.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[primitive.ObjectID]models.User)
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = *u
		}
	}
	return out, nil
}

func (s *fakeUserStore) List(_ context.Context, f stores.UserFilter) ([]models.User, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.User{}
	for _, u := range s.users {
		if f.Role != "" && string(u.Role) != f.Role {
			continue
		}
		if f.IsActive != nil && u.IsActive != *f.IsActive {
			continue
		}
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (s *fakeUserStore) set(id primitive.ObjectID, fn func(u *models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return stores.ErrNotFound
	}
	fn(u)
	return nil
}

func (s *fakeUserStore) SetActive(_ context.Context, id primitive.ObjectID, active bool) error {
	return s.set(id, func(u *models.User) { u.IsActive = active })
}

func (s *fakeUserStore) SetRole(_ context.Context, id primitive.ObjectID, role models.Role, department string) error {
	return s.set(id, func(u *models.User) {
		u.Role = role
		if department != "" {
			u.Department = department
		}
	})
}

func (s *fakeUserStore) SetAssignedArea(_ context.Context, id primitive.ObjectID, area string) error {
	return s.set(id, func(u *models.User) { u.AssignedArea = area })
}

func (s *fakeUserStore) CountByRoles(_ context.Context, roles []models.Role, activeOnly bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, u := range s.users {
		if activeOnly && !u.IsActive {
			continue
		}
		for _, r := range roles {
			if u.Role == r {
				n++
			}
		}
	}
	return n, nil
}

func (s *fakeUserStore) RoleBreakdown(context.Context) ([]stores.RoleCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byRole := map[string]*stores.RoleCount{}
	for _, u := range s.users {
		rc, ok := byRole[string(u.Role)]
		if !ok {
			rc = &stores.RoleCount{Role: string(u.Role)}
			byRole[string(u.Role)] = rc
		}
		rc.Count++
		if u.IsActive {
			rc.Active++
		}
	}
	out := []stores.RoleCount{}
	for _, rc := range byRole {
		out = append(out, *rc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Role < out[j].Role })
	return out, nil
}

func (s *fakeUserStore) RegistrationTrend(context.Context, int) ([]stores.DayCount, error) {
	return []stores.DayCount{}, nil
}

type fakeDepartmentStore struct {
	mu    sync.Mutex
	depts map[string]*models.Department
}

func newFakeDepartmentStore(depts ...models.Department) *fakeDepartmentStore {
	s := &fakeDepartmentStore{depts: make(map[string]*models.Department)}
	for i := range depts {
		d := depts[i]
		s.depts[d.Code] = &d
	}
	return s
}

func (s *fakeDepartmentStore) List(_ context.Context, includeInactive bool) ([]models.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Department{}
	for _, d := range s.depts {
		if d.IsDeleted || (!includeInactive && !d.IsActive) {
			continue
		}
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *fakeDepartmentStore) FindByCode(_ context.Context, code string) (*models.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.depts[code]
	if !ok || d.IsDeleted {
		return nil, stores.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *fakeDepartmentStore) FindByCategory(_ context.Context, category string) (*models.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.depts {
		if !d.IsDeleted && d.IsActive && d.Handles(category) {
			cp := *d
			return &cp, nil
		}
	}
	return nil, stores.ErrNotFound
}

func (s *fakeDepartmentStore) CategoryOwner(_ context.Context, category string) (*models.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.depts {
		if !d.IsDeleted && d.Handles(category) {
			cp := *d
			return &cp, nil
		}
	}
	return nil, stores.ErrNotFound
}

func (s *fakeDepartmentStore) Create(_ context.Context, d *models.Department) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.depts[d.Code]; ok {
		return stores.ErrDuplicate
	}
	cp := *d
	s.depts[d.Code] = &cp
	return nil
}

func (s *fakeDepartmentStore) Update(_ context.Context, code string, u stores.DepartmentUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.depts[code]
	if !ok || d.IsDeleted {
		return stores.ErrNotFound
	}
	if u.Name != nil {
		d.Name = *u.Name
	}
	if u.Description != nil {
		d.Description = *u.Description
	}
	if u.Categories != nil {
		d.Categories = append([]string{}, u.Categories...)
	}
	if u.ContactEmail != nil {
		d.ContactEmail = *u.ContactEmail
	}
	if u.ContactPhone != nil {
		d.ContactPhone = *u.ContactPhone
	}
	if u.IsActive != nil {
		d.IsActive = *u.IsActive
	}
	d.UpdatedAt = time.Now()
	return nil
}

func (s *fakeDepartmentStore) SoftDelete(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.depts[code]
	if !ok || d.IsDeleted {
		return stores.ErrNotFound
	}
	d.IsDeleted, d.IsActive = true, false
	return nil
}

func (s *fakeDepartmentStore) UpsertCategories(_ context.Context, d models.Department) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.depts[d.Code]; ok {
		existing.Categories = append([]string(nil), d.Categories...)
		return nil
	}
	cp := d
	s.depts[d.Code] = &cp
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.StatusEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.StatusEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) published() []events.StatusEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.StatusEvent(nil), p.events...)
}
