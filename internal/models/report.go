package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status partitions the listing views.
type Status string

const (
	StatusLost  Status = "lost"
	StatusFound Status = "found"
)

// ParseStatus validates a raw status string.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(s)) {
	case StatusLost:
		return StatusLost, nil
	case StatusFound:
		return StatusFound, nil
	}
	return "", fmt.Errorf("invalid status %q", s)
}

// ItemReport represents a single lost or found item report.
type ItemReport struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Location    string    `json:"location"`
	Date        string    `json:"date"` // YYYY-MM-DD
	Time        string    `json:"time"` // HH:MM
	ImageURL    string    `json:"image_url,omitempty"`
	Status      Status    `json:"status"`
	UserID      string    `json:"user_id"`
	ContactInfo string    `json:"contact_info"`
	CreatedAt   time.Time `json:"created_at"`
}

// Category options
var Categories = []string{
	"Electronics",
	"Books",
	"Clothing",
	"Accessories",
	"Documents",
	"ID Cards",
	"Keys",
	"Bags",
	"Wallets",
	"Other",
}

// Location options
var Locations = []string{
	"Library",
	"Cafeteria",
	"Academic Block",
	"Hostel",
	"Sports Complex",
	"Auditorium",
	"Parking Lot",
	"Campus Grounds",
	"Other",
}

// AllCategories is the filter sentinel meaning "no category filter".
// It is not a member of Categories.
const AllCategories = "All Categories"

// ValidCategory reports whether c is a member of the fixed category set.
func ValidCategory(c string) bool {
	for _, cat := range Categories {
		if cat == c {
			return true
		}
	}
	return false
}

// ValidLocation reports whether l is a member of the fixed location set.
func ValidLocation(l string) bool {
	for _, loc := range Locations {
		if loc == l {
			return true
		}
	}
	return false
}

// ReportInput is the raw form data for creating a report.
type ReportInput struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	Category    string `json:"category" form:"category"`
	Location    string `json:"location" form:"location"`
	Date        string `json:"date" form:"date"`
	Time        string `json:"time" form:"time"`
	ContactInfo string `json:"contact_info" form:"contact_info"`
	Status      string `json:"status" form:"status"`
}

// NewItemReport constructs a persistable report from raw form input.
// imageURL may be empty (no image attached); userID is the submitting
// session's user and is never taken from the form.
func NewItemReport(input ReportInput, imageURL, userID string) (*ItemReport, error) {
	if input.Title == "" || input.Description == "" || input.ContactInfo == "" {
		return nil, fmt.Errorf("title, description and contact info are required")
	}
	if !ValidCategory(input.Category) {
		return nil, fmt.Errorf("invalid category %q", input.Category)
	}
	if !ValidLocation(input.Location) {
		return nil, fmt.Errorf("invalid location %q", input.Location)
	}

	status, err := ParseStatus(input.Status)
	if err != nil {
		return nil, err
	}

	date := NormalizeDate(input.Date)
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("invalid date %q", input.Date)
	}
	clock := NormalizeTime(input.Time)
	if _, err := time.Parse("15:04", clock); err != nil {
		return nil, fmt.Errorf("invalid time %q", input.Time)
	}

	return &ItemReport{
		ID:          uuid.New().String(),
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Location:    input.Location,
		Date:        date,
		Time:        clock,
		ImageURL:    imageURL,
		Status:      status,
		UserID:      userID,
		ContactInfo: input.ContactInfo,
		CreatedAt:   time.Now(),
	}, nil
}

// NormalizeDate reduces a stored date to calendar-date granularity,
// whatever precision the store returned it with.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

// NormalizeTime truncates a stored time-of-day to minute granularity
// (seconds dropped).
func NormalizeTime(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04:05.000000", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04")
		}
	}
	return s
}

// Normalize rewrites the date and time fields into their canonical
// textual forms. Applied to every record on read.
func (r *ItemReport) Normalize() {
	r.Date = NormalizeDate(r.Date)
	r.Time = NormalizeTime(r.Time)
}

// Matches reports whether the record passes the listing filter: an
// empty query matches everything, otherwise the query must appear
// case-insensitively in the title or description; category must equal
// the record's category unless it is the AllCategories sentinel.
func (r *ItemReport) Matches(query, category string) bool {
	q := strings.ToLower(query)
	matchesSearch := strings.Contains(strings.ToLower(r.Title), q) ||
		strings.Contains(strings.ToLower(r.Description), q)
	matchesCategory := category == AllCategories || category == "" || r.Category == category
	return matchesSearch && matchesCategory
}
