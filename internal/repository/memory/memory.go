// Package memory is an in-process Backend used in dev mode and in tests. It
// keeps the same invariants as the postgres store under a single mutex.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"eventstaff-backend/internal/domain"
	"eventstaff-backend/internal/repository"
)

type db struct {
	mu            sync.Mutex
	users         map[string]domain.User
	events        map[string]domain.Event
	functions     map[string]domain.Function
	functionOrder map[string][]string
	applications  map[string]domain.Application
	evaluations   []domain.Evaluation
	notifications []domain.Notification

	// down simulates an unreachable backend.
	down bool
}

func (s *db) check() error {
	if s.down {
		return domain.ErrBackendUnavailable
	}
	return nil
}

type Store struct {
	db *db
	repository.UserRepository
	repository.EventRepository
	repository.FunctionRepository
	repository.ApplicationRepository
	repository.EvaluationRepository
	repository.NotificationRepository
}

func NewStore() *Store {
	d := &db{
		users:         make(map[string]domain.User),
		events:        make(map[string]domain.Event),
		functions:     make(map[string]domain.Function),
		functionOrder: make(map[string][]string),
		applications:  make(map[string]domain.Application),
	}
	return &Store{
		db:                     d,
		UserRepository:         userRepo{d},
		EventRepository:        eventRepo{d},
		FunctionRepository:     functionRepo{d},
		ApplicationRepository:  applicationRepo{d},
		EvaluationRepository:   evaluationRepo{d},
		NotificationRepository: notificationRepo{d},
	}
}

// SetUnavailable toggles outage simulation. While set every call returns
// domain.ErrBackendUnavailable.
func (s *Store) SetUnavailable(down bool) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.down = down
}

func (s *Store) Ping(ctx context.Context) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.check()
}

type userRepo struct{ s *db }

func (r userRepo) Create(ctx context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(); err != nil {
		return err
	}
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return domain.ErrEmailTaken
		}
	}
	now := time.Now().UTC()
	u.CreatedOn = now
	u.UpdatedOn = now
	r.s.users[u.ID] = cloneUser(*u)
	return nil
}

func (r userRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(); err != nil {
		return nil, err
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	c := cloneUser(u)
	return &c, nil
}

func (r userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(); err != nil {
		return nil, err
	}
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			c := cloneUser(u)
			return &c, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r userRepo) Update(ctx context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(); err != nil {
		return err
	}
	existing, ok := r.s.users[u.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Email = existing.Email
	u.PasswordHash = existing.PasswordHash
	u.Role = existing.Role
	u.CreatedOn = existing.CreatedOn
	u.UpdatedOn = time.Now().UTC()
	r.s.users[u.ID] = cloneUser(*u)
	return nil
}

func (r userRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(); err != nil {
		return err
	}
	if _, ok := r.s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	for _, a := range r.s.applications {
		if a.UserID == id {
			return domain.ErrUserHasHistory
		}
	}
	for _, e := range r.s.evaluations {
		if e.UserID == id {
			return domain.ErrUserHasHistory
		}
	}
	delete(r.s.users, id)
	return nil
}

func (r userRepo) List(ctx context.Context, role domain.UserRole) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(); err != nil {
		return nil, err
	}
	var users []domain.User
	for _, u := range r.s.users {
		if role == "" || u.Role == role {
			users = append(users, cloneUser(u))
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

type eventRepo struct{ s *db }

func (r eventRepo) Upsert(ctx context.Context, e *domain.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(); err != nil {
		return err
	}

	// Validate every function first so a failed upsert changes nothing.
	for i := range e.Functions {
		f := e.Functions[i]
		existing, ok := r.s.functions[f.ID]
		if !ok {
			continue
		}
		if existing.EventID != e.ID {
			return domain.ErrFunctionMismatch
		}
		if existing.Filled > f.Vacancies {
			return domain.ErrCannotReduceVacancies
		}
	}

	now := time.Now().UTC()
	if prev, ok := r.s.events[e.ID]; ok {
		e.CreatedOn = prev.CreatedOn
	} else if e.CreatedOn.IsZero() {
		e.CreatedOn = now
	}
	e.UpdatedOn = now

	order := make([]string, 0, len(e.Functions))
	for i := range e.Functions {
		f := &e.Functions[i]
		f.EventID = e.ID
		if existing, ok := r.s.functions[f.ID]; ok {
			f.Filled = existing.Filled
		} else {
			f.Filled = 0
		}
		r.s.functions[f.ID] = *f
		order = append(order, f.ID)
	}
	r.s.functionOrder[e.ID] = order

	stored := *e
	stored.Functions = nil
	r.s.events[e.ID] = stored
	return nil
}

func (r eventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(); err != nil {
		return nil, err
	}
	e, ok := r.s.events[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	e = r.s.withFunctions(e)
	return &e, nil
}

func (r eventRepo) List(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(); err != nil {
		return nil, err
	}
	var events []domain.Event
	for _, e := range r.s.events {
		if filter.Status == "" || e.Status == filter.Status {
			events = append(events, r.s.withFunctions(e))
		}
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date < events[j].Date
		}
		if events[i].Time != events[j].Time {
			return events[i].Time < events[j].Time
		}
		return events[i].ID < events[j].ID
	})
	return events, nil
}

func (s *db) withFunctions(e domain.Event) domain.Event {
	ids := s.functionOrder[e.ID]
	e.Functions = make([]domain.Function, 0, len(ids))
	for _, id := range ids {
		e.Functions = append(e.Functions, s.functions[id])
	}
	return e
}

type functionRepo struct{ s *db }

func (r functionRepo) GetByID(ctx context.Context, id string) (*domain.Function, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(); err != nil {
		return nil, err
	}
	f, ok := r.s.functions[id]
	if !ok {
		return nil, domain.ErrFunctionNotFound
	}
	return &f, nil
}

func (r functionRepo) IncrementFilled(ctx context.Context, id string) (*domain.Function, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(); err != nil {
		return nil, err
	}
	f, ok := r.s.functions[id]
	if !ok {
		return nil, domain.ErrFunctionNotFound
	}
	if !f.HasCapacity() {
		return nil, domain.ErrCapacity
	}
	f.Filled++
	r.s.functions[id] = f
	return &f, nil
}

func (r functionRepo) DecrementFilled(ctx context.Context, id string) (*domain.Function, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(); err != nil {
		return nil, false, err
	}
	f, ok := r.s.functions[id]
	if !ok {
		return nil, false, domain.ErrFunctionNotFound
	}
	if f.Filled == 0 {
		return &f, false, nil
	}
	f.Filled--
	r.s.functions[id] = f
	return &f, true, nil
}

type applicationRepo struct{ s *db }

func (r applicationRepo) Create(ctx context.Context, a *domain.Application) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(); err != nil {
		return err
	}
	if _, ok := r.s.applications[a.ID]; ok {
		return nil
	}
	if a.Status.Active() {
		for _, existing := range r.s.applications {
			if existing.EventID == a.EventID && existing.UserID == a.UserID && existing.Status.Active() {
				return domain.ErrDuplicateActive
			}
		}
	}
	if a.AppliedAt.IsZero() {
		a.AppliedAt = time.Now().UTC()
	}
	if a.UpdatedOn.IsZero() {
		a.UpdatedOn = a.AppliedAt
	}
	r.s.applications[a.ID] = *a
	return nil
}

func (r applicationRepo) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(); err != nil {
		return nil, err
	}
	a, ok := r.s.applications[id]
	if !ok {
		return nil, domain.ErrApplicationNotFound
	}
	return &a, nil
}

func (r applicationRepo) UpdateStatus(ctx context.Context, a *domain.Application, from domain.ApplicationStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(); err != nil {
		return err
	}
	existing, ok := r.s.applications[a.ID]
	if !ok {
		return domain.ErrApplicationNotFound
	}
	if existing.Status != from {
		return domain.ErrStaleStatus
	}
	existing.Status = a.Status
	existing.CancellationReason = a.CancellationReason
	existing.UpdatedOn = time.Now().UTC()
	a.UpdatedOn = existing.UpdatedOn
	r.s.applications[a.ID] = existing
	return nil
}

func (r applicationRepo) List(ctx context.Context, filter domain.ApplicationFilter) ([]domain.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(); err != nil {
		return nil, err
	}
	var apps []domain.Application
	for _, a := range r.s.applications {
		if filter.Matches(&a) {
			apps = append(apps, a)
		}
	}
	sort.Slice(apps, func(i, j int) bool {
		if !apps[i].AppliedAt.Equal(apps[j].AppliedAt) {
			return apps[i].AppliedAt.Before(apps[j].AppliedAt)
		}
		return apps[i].ID < apps[j].ID
	})
	return apps, nil
}

type evaluationRepo struct{ s *db }

func (r evaluationRepo) Create(ctx context.Context, ev *domain.Evaluation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(); err != nil {
		return err
	}
	if ev.EventID != "" {
		for _, existing := range r.s.evaluations {
			if existing.EventID == ev.EventID && existing.UserID == ev.UserID {
				return domain.ErrEvaluationExists
			}
		}
	}
	if ev.CreatedOn.IsZero() {
		ev.CreatedOn = time.Now().UTC()
	}
	r.s.evaluations = append(r.s.evaluations, *ev)
	return nil
}

// ListByUser returns the most recent evaluation first. Ties keep reverse
// insertion order.
func (r evaluationRepo) ListByUser(ctx context.Context, userID string) ([]domain.Evaluation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(); err != nil {
		return nil, err
	}
	var evs []domain.Evaluation
	for i := len(r.s.evaluations) - 1; i >= 0; i-- {
		if r.s.evaluations[i].UserID == userID {
			evs = append(evs, r.s.evaluations[i])
		}
	}
	sort.SliceStable(evs, func(i, j int) bool { return evs[i].CreatedOn.After(evs[j].CreatedOn) })
	return evs, nil
}

func (r evaluationRepo) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Evaluation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(); err != nil {
		return nil, err
	}
	for _, ev := range r.s.evaluations {
		if ev.EventID == eventID && ev.UserID == userID {
			c := ev
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

type notificationRepo struct{ s *db }

func (r notificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(); err != nil {
		return err
	}
	if n.CreatedOn.IsZero() {
		n.CreatedOn = time.Now().UTC()
	}
	r.s.notifications = append(r.s.notifications, *n)
	return nil
}

func (r notificationRepo) ListFor(ctx context.Context, userID string, role domain.UserRole, since time.Time, limit int32) ([]domain.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(); err != nil {
		return nil, err
	}
	var notes []domain.Notification
	for i := len(r.s.notifications) - 1; i >= 0; i-- {
		n := r.s.notifications[i]
		if !n.VisibleTo(userID, role) || (!since.IsZero() && !n.CreatedOn.After(since)) {
			continue
		}
		notes = append(notes, n)
		if limit > 0 && int32(len(notes)) >= limit {
			break
		}
	}
	return notes, nil
}

func (r notificationRepo) MarkAsRead(ctx context.Context, id, userID string, role domain.UserRole) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(); err != nil {
		return err
	}
	for i := range r.s.notifications {
		n := &r.s.notifications[i]
		if n.ID == id && n.VisibleTo(userID, role) {
			n.Read = true
			return nil
		}
	}
	return domain.ErrNotificationNotFound
}

func cloneUser(u domain.User) domain.User {
	if u.Metrics != nil {
		m := *u.Metrics
		u.Metrics = &m
	}
	u.Skills = append([]string(nil), u.Skills...)
	u.Uniforms = append([]string(nil), u.Uniforms...)
	return u
}
