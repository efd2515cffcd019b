package domain

import "time"

// Scores are the four sub-metrics an admin grades after an event.
type Scores struct {
	Punctuality  float64 `json:"punctuality"`
	Posture      float64 `json:"posture"`
	Productivity float64 `json:"productivity"`
	Agility      float64 `json:"agility"`
}

// Evaluation is an append-only performance record. EventID is empty for ad hoc
// performance updates that are not tied to an event.
type Evaluation struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id,omitempty"`
	UserID    string    `json:"user_id"`
	Scores
	Presence  bool      `json:"presence"`
	Notes     string    `json:"notes"`
	Average   float64   `json:"average"`
	CreatedBy string    `json:"created_by"`
	CreatedOn time.Time `json:"created_on"`
}
