package domain

import "time"

type ApplicationStatus string

const (
	ApplicationStatusPending    ApplicationStatus = "PENDING"
	ApplicationStatusApproved   ApplicationStatus = "APPROVED"
	ApplicationStatusRejected   ApplicationStatus = "REJECTED"
	ApplicationStatusWaitlisted ApplicationStatus = "WAITLISTED"
	ApplicationStatusCancelled  ApplicationStatus = "CANCELLED"
)

// applicationTransitions lists the moves an admin may make. CANCELLED is
// terminal and only reachable through a cancellation with a reason.
var applicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	ApplicationStatusPending:    {ApplicationStatusApproved, ApplicationStatusRejected, ApplicationStatusWaitlisted},
	ApplicationStatusWaitlisted: {ApplicationStatusApproved, ApplicationStatusRejected, ApplicationStatusPending},
	ApplicationStatusApproved:   {ApplicationStatusRejected, ApplicationStatusWaitlisted, ApplicationStatusPending},
	ApplicationStatusRejected:   {ApplicationStatusApproved, ApplicationStatusWaitlisted, ApplicationStatusPending},
	ApplicationStatusCancelled:  {},
}

func (s ApplicationStatus) Valid() bool {
	_, ok := applicationTransitions[s]
	return ok
}

// CanTransitionTo reports whether an admin may move an application from s to
// next. Same-state moves are allowed and treated as no-ops by the caller.
func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	if s == next {
		return s.Valid()
	}
	for _, allowed := range applicationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Active is true for every status except CANCELLED.
func (s ApplicationStatus) Active() bool {
	return s != ApplicationStatusCancelled
}

// LedgerDelta returns how the filled counter of the function moves when an
// application goes from old to next: +1 entering APPROVED, -1 leaving it.
func LedgerDelta(old, next ApplicationStatus) int {
	switch {
	case old == next:
		return 0
	case next == ApplicationStatusApproved:
		return 1
	case old == ApplicationStatusApproved:
		return -1
	}
	return 0
}

type Application struct {
	ID                 string            `json:"id"`
	EventID            string            `json:"event_id"`
	UserID             string            `json:"user_id"`
	FunctionID         string            `json:"function_id"`
	Status             ApplicationStatus `json:"status"`
	AppliedAt          time.Time         `json:"applied_at"`
	CancellationReason string            `json:"cancellation_reason,omitempty"`
	UpdatedOn          time.Time         `json:"updated_on"`
}

type ApplicationFilter struct {
	EventID    string
	UserID     string
	FunctionID string
	Status     ApplicationStatus
}

// Matches reports whether app satisfies every non-empty field of the filter.
func (f ApplicationFilter) Matches(app *Application) bool {
	if f.EventID != "" && app.EventID != f.EventID {
		return false
	}
	if f.UserID != "" && app.UserID != f.UserID {
		return false
	}
	if f.FunctionID != "" && app.FunctionID != f.FunctionID {
		return false
	}
	if f.Status != "" && app.Status != f.Status {
		return false
	}
	return true
}

// MyJobs groups a staff member's applications the way the jobs screen shows them.
type MyJobs struct {
	Pending  []Application `json:"pending"`
	Upcoming []Application `json:"upcoming"`
	History  []Application `json:"history"`
}
