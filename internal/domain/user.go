package domain

import "time"

type UserRole string

const (
	UserRoleAdmin UserRole = "ADMIN"
	UserRoleStaff UserRole = "STAFF"
)

type UserType string

const (
	UserTypeFixed     UserType = "FIXO"
	UserTypeFreelance UserType = "AVULSO"
	UserTypeDaily     UserType = "DIARISTA"
)

// DefaultRating is assigned to newly registered staff members.
const DefaultRating = 5.0

type User struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	Role         UserRole     `json:"role"`
	Avatar       string       `json:"avatar"`
	Phone        string       `json:"phone,omitempty"`
	Type         UserType     `json:"type,omitempty"`
	Rating       float64      `json:"rating"`
	Metrics      *UserMetrics `json:"metrics,omitempty"`
	Points       int32        `json:"points"`
	Skills       []string     `json:"skills,omitempty"`
	Uniforms     []string     `json:"uniforms,omitempty"`
	PixKey       string       `json:"pix_key,omitempty"`
	CreatedOn    time.Time    `json:"created_on"`
	UpdatedOn    time.Time    `json:"updated_on"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == UserRoleAdmin
}

// UserMetrics mirrors the sub-scores of the latest evaluation.
type UserMetrics struct {
	Punctuality  float64 `json:"punctuality"`
	Posture      float64 `json:"posture"`
	Productivity float64 `json:"productivity"`
	Agility      float64 `json:"agility"`
}

// Level describes the gamification progress derived from points.
type Level struct {
	Level       int32   `json:"level"`
	Points      int32   `json:"points"`
	NextLevelAt int32   `json:"next_level_at"`
	Progress    float64 `json:"progress"`
}

// Profile is a user together with derived, read-only data.
type Profile struct {
	User  *User `json:"user"`
	Level Level `json:"level"`
}

// ProfileUpdate carries the fields a user may change on their own profile.
// Nil fields are left untouched.
type ProfileUpdate struct {
	Name     *string   `json:"name,omitempty"`
	Phone    *string   `json:"phone,omitempty"`
	Avatar   *string   `json:"avatar,omitempty"`
	Type     *UserType `json:"type,omitempty"`
	Skills   []string  `json:"skills,omitempty"`
	Uniforms []string  `json:"uniforms,omitempty"`
	PixKey   *string   `json:"pix_key,omitempty"`
}
