package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Flag is a boolean column. The backend stores booleans in SQLite and
// returns them as 0/1, so both numbers and JSON booleans are accepted.
// null decodes as false.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true", "1":
		*f = true
	case "false", "0", "null":
		*f = false
	default:
		return fmt.Errorf("invalid boolean flag %s", data)
	}
	return nil
}

// Operator is the logged-in administrator profile returned by the login endpoint
type Operator struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// User represents a bot user as listed by the admin API
type User struct {
	UserID                int64  `json:"user_id"`
	Username              string `json:"username"`
	FirstName             string `json:"first_name"`
	LastName              string `json:"last_name"`
	Language              string `json:"language"`
	Points                int64  `json:"points"`
	Level                 string `json:"level"`
	RegistrationDate      string `json:"registration_date"`
	IsVIP                 Flag   `json:"is_vip"`
	TotalLessonsCompleted int    `json:"total_lessons_completed"`
	StreakDays            int    `json:"streak_days,omitempty"`
	ReferralCode          string `json:"referral_code,omitempty"`
}

// DisplayName joins first and last name, falling back to the username
func (u User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Username
	}
	return name
}

// PointsEntry is one row of a user's points history
type PointsEntry struct {
	Points          int64  `json:"points"`
	Reason          string `json:"reason"`
	TransactionType string `json:"transaction_type"` // "earned" or "spent"
	Date            string `json:"date"`
}

// LessonProgress is a user's progress on one lesson
type LessonProgress struct {
	TitleAR        string  `json:"title_ar"`
	TitleEN        string  `json:"title_en"`
	Completed      Flag    `json:"completed"`
	CompletionDate string  `json:"completion_date"`
	QuizScore      float64 `json:"quiz_score"`
}

// Purchase is a shop purchase made by a user
type Purchase struct {
	NameAR        string  `json:"name_ar"`
	NameEN        string  `json:"name_en"`
	PaymentMethod string  `json:"payment_method"`
	AmountPoints  int64   `json:"amount_points"`
	AmountUSD     float64 `json:"amount_usd"`
	PurchaseDate  string  `json:"purchase_date"`
	Status        string  `json:"status"`
}

// UserDetail is the payload of the user detail endpoint
type UserDetail struct {
	User            User             `json:"user"`
	PointsHistory   []PointsEntry    `json:"points_history"`
	LessonsProgress []LessonProgress `json:"lessons_progress"`
	Purchases       []Purchase       `json:"purchases"`
}

// Lesson represents a lesson with enrollment counters
type Lesson struct {
	ID              int64  `json:"id"`
	TitleAR         string `json:"title_ar"`
	TitleEN         string `json:"title_en"`
	Level           string `json:"level"`
	PointsReward    int    `json:"points_reward"`
	IsPremium       Flag   `json:"is_premium"`
	Category        string `json:"category"`
	DurationMinutes int    `json:"duration_minutes"`
	CreatedDate     string `json:"created_date"`
	EnrolledUsers   int    `json:"enrolled_users"`
	CompletedUsers  int    `json:"completed_users"`
}

// News represents a security news item
type News struct {
	ID            int64  `json:"id"`
	TitleAR       string `json:"title_ar"`
	TitleEN       string `json:"title_en"`
	Category      string `json:"category"`
	Severity      string `json:"severity"`
	PublishedDate string `json:"published_date"`
	IsFeatured    Flag   `json:"is_featured"`
}

// DashboardStats mirrors the stats object of the dashboard endpoint
type DashboardStats struct {
	Users struct {
		Total    int `json:"total"`
		NewToday int `json:"new_today"`
		VIP      int `json:"vip"`
	} `json:"users"`
	Lessons struct {
		Total     int `json:"total"`
		Completed int `json:"completed"`
	} `json:"lessons"`
	Points struct {
		Total        int64 `json:"total"`
		Transactions int   `json:"transactions"`
	} `json:"points"`
	News struct {
		Total int `json:"total"`
		Today int `json:"today"`
	} `json:"news"`
	Shop struct {
		Purchases int     `json:"purchases"`
		Revenue   float64 `json:"revenue"`
	} `json:"shop"`
}

// Points adjustment actions accepted by the backend
const (
	ActionAdd      = "add"
	ActionSubtract = "subtract"
)

// PointsAdjustment is the body of a points mutation
type PointsAdjustment struct {
	Points int64  `json:"points"`
	Reason string `json:"reason"`
	Action string `json:"action"`
}

// ErrInvalidPoints is returned for zero or negative point amounts
var ErrInvalidPoints = errors.New("points must be a positive integer")

// Validate checks the adjustment the same way the backend does, so obviously
// bad input never leaves the client
func (a PointsAdjustment) Validate() error {
	if a.Points <= 0 {
		return ErrInvalidPoints
	}
	switch a.Action {
	case ActionAdd, ActionSubtract:
		return nil
	default:
		return fmt.Errorf("unknown action %q (want %q or %q)", a.Action, ActionAdd, ActionSubtract)
	}
}

// Pagination is the pagination block returned by paginated list endpoints
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// Profile is the opaque operator blob persisted alongside the token
type Profile = json.RawMessage

// ParseTimestamp parses the backend's SQLite-style timestamps.
// Returns the zero time when the value matches none of the known layouts.
func ParseTimestamp(s string) time.Time {
	for _, layout := range []string{
		"2006-01-02 15:04:05",
		time.RFC3339,
		"2006-01-02T15:04:05",
		time.RFC1123,
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
