package models

import "testing"

func validInput() ReportInput {
	return ReportInput{
		Title:       "Blue Backpack",
		Description: "Navy blue backpack with two zippers",
		Category:    "Bags",
		Location:    "Library",
		Date:        "2024-04-01",
		Time:        "09:15",
		ContactInfo: "a@b.com",
		Status:      "lost",
	}
}

func TestNewItemReport(t *testing.T) {
	report, err := NewItemReport(validInput(), "", "user-1")
	if err != nil {
		t.Fatalf("NewItemReport: %v", err)
	}
	if report.ID == "" {
		t.Error("expected generated id")
	}
	if report.UserID != "user-1" {
		t.Errorf("expected user_id 'user-1', got %q", report.UserID)
	}
	if report.Status != StatusLost {
		t.Errorf("expected status 'lost', got %q", report.Status)
	}
	if report.ImageURL != "" {
		t.Errorf("expected absent image_url, got %q", report.ImageURL)
	}
}

func TestNewItemReportRequiredFields(t *testing.T) {
	input := validInput()
	input.Title = ""
	if _, err := NewItemReport(input, "", "user-1"); err == nil {
		t.Error("expected error for empty title")
	}

	input = validInput()
	input.ContactInfo = ""
	if _, err := NewItemReport(input, "", "user-1"); err == nil {
		t.Error("expected error for empty contact info")
	}
}

func TestNewItemReportEnumMembership(t *testing.T) {
	input := validInput()
	input.Category = "Spaceships"
	if _, err := NewItemReport(input, "", "user-1"); err == nil {
		t.Error("expected error for unknown category")
	}

	input = validInput()
	input.Location = "Mars"
	if _, err := NewItemReport(input, "", "user-1"); err == nil {
		t.Error("expected error for unknown location")
	}

	input = validInput()
	input.Category = AllCategories
	if _, err := NewItemReport(input, "", "user-1"); err == nil {
		t.Error("the filter sentinel must not be accepted as a category")
	}
}

func TestNewItemReportTruncatesSeconds(t *testing.T) {
	input := validInput()
	input.Time = "14:30:00"
	report, err := NewItemReport(input, "", "user-1")
	if err != nil {
		t.Fatalf("NewItemReport: %v", err)
	}
	if report.Time != "14:30" {
		t.Errorf("expected time '14:30', got %q", report.Time)
	}
}

func TestNormalize(t *testing.T) {
	r := ItemReport{Date: "2024-03-05T00:00:00Z", Time: "14:30:00"}
	r.Normalize()
	if r.Date != "2024-03-05" {
		t.Errorf("expected date '2024-03-05', got %q", r.Date)
	}
	if r.Time != "14:30" {
		t.Errorf("expected time '14:30', got %q", r.Time)
	}
}

func TestMatches(t *testing.T) {
	r := ItemReport{Title: "Black Wallet", Description: "Leather, found near gate", Category: "Wallets"}

	if !r.Matches("", AllCategories) {
		t.Error("empty filter must match everything")
	}
	if !r.Matches("black", AllCategories) {
		t.Error("query match must be case-insensitive on title")
	}
	if !r.Matches("LEATHER", AllCategories) {
		t.Error("query match must be case-insensitive on description")
	}
	if r.Matches("umbrella", AllCategories) {
		t.Error("non-matching query must not match")
	}
	if !r.Matches("", "Wallets") {
		t.Error("category equality must match")
	}
	if r.Matches("", "Keys") {
		t.Error("different category must not match")
	}
	if r.Matches("black", "Keys") {
		t.Error("both filters must hold, not either")
	}
}
