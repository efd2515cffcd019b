package domain

import "time"

type EventStatus string

const (
	EventStatusOpen      EventStatus = "OPEN"
	EventStatusForming   EventStatus = "FORMING"
	EventStatusDone      EventStatus = "DONE"
	EventStatusCancelled EventStatus = "CANCELLED"
)

// eventStatusCycle is the order the admin status toggle walks through.
var eventStatusCycle = []EventStatus{
	EventStatusOpen,
	EventStatusForming,
	EventStatusDone,
	EventStatusCancelled,
}

var eventTransitions = map[EventStatus][]EventStatus{
	EventStatusOpen:      {EventStatusForming, EventStatusCancelled},
	EventStatusForming:   {EventStatusOpen, EventStatusDone, EventStatusCancelled},
	EventStatusDone:      {},
	EventStatusCancelled: {EventStatusOpen},
}

func (s EventStatus) Valid() bool {
	_, ok := eventTransitions[s]
	return ok
}

// CanTransitionTo reports whether an admin may move an event from s to next.
func (s EventStatus) CanTransitionTo(next EventStatus) bool {
	for _, allowed := range eventTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Next returns the following status in the toggle cycle. The result still has
// to pass CanTransitionTo.
func (s EventStatus) Next() EventStatus {
	for i, st := range eventStatusCycle {
		if st == s {
			return eventStatusCycle[(i+1)%len(eventStatusCycle)]
		}
	}
	return EventStatusOpen
}

// AcceptsApplications is true while staff can still apply.
func (s EventStatus) AcceptsApplications() bool {
	return s == EventStatusOpen || s == EventStatusForming
}

type Event struct {
	ID                 string      `json:"id"`
	Title              string      `json:"title"`
	Date               string      `json:"date"` // YYYY-MM-DD
	Time               string      `json:"time"` // HH:MM
	Address            string      `json:"address"`
	ImageURL           string      `json:"image_url"`
	Type               string      `json:"type"`
	Description        string      `json:"description"`
	Status             EventStatus `json:"status"`
	Functions          []Function  `json:"functions"`
	ValuePartyHelper   *float64    `json:"value_party_helper,omitempty"`
	ValueGeneralHelper *float64    `json:"value_general_helper,omitempty"`
	CreatedOn          time.Time   `json:"created_on"`
	UpdatedOn          time.Time   `json:"updated_on"`
}

// Function returns the staffing function with the given id.
func (e *Event) Function(id string) (*Function, bool) {
	for i := range e.Functions {
		if e.Functions[i].ID == id {
			return &e.Functions[i], true
		}
	}
	return nil, false
}

// Function is a staffing role inside an event.
type Function struct {
	ID          string  `json:"id"`
	EventID     string  `json:"event_id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Pay         float64 `json:"pay"`
	Vacancies   int32   `json:"vacancies"`
	Filled      int32   `json:"filled"`
}

// HasCapacity reports whether one more approval fits.
func (f Function) HasCapacity() bool {
	return f.Filled < f.Vacancies
}

type EventFilter struct {
	Status EventStatus
}
