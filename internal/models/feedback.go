package models

import (
	"time"
)

// Status is a feedback record's lifecycle state.
type Status string

// Lifecycle states, in board column order.
const (
	StatusOpen       Status = "open"
	StatusInReview   Status = "in_review"
	StatusDone       Status = "done"
	StatusNeedsRefix Status = "needs_refix"
)

// AllStatuses lists every status in board column order.
var AllStatuses = []Status{StatusOpen, StatusInReview, StatusDone, StatusNeedsRefix}

// IsValid reports whether s is one of the four lifecycle states.
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusInReview, StatusDone, StatusNeedsRefix:
		return true
	}
	return false
}

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (Status, bool) {
	s := Status(raw)
	return s, s.IsValid()
}

// Severity classifies how bad a reported defect is.
type Severity string

// Severity levels
const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// TestingDevice is the device class the defect was observed on.
type TestingDevice string

// Testing devices
const (
	DeviceMobile  TestingDevice = "Mobile"
	DeviceDesktop TestingDevice = "Desktop"
	DeviceTablet  TestingDevice = "Tablet"
	DeviceOther   TestingDevice = "Other"
)

// FeedbackRecord is one QA feedback item.
//
// SerialNumber is assigned once at creation and never changes; there is no
// update path that carries it. RefixCount only ever grows, by one per entry
// into needs_refix.
type FeedbackRecord struct {
	ID           string `json:"id"`
	SerialNumber string `json:"serial_number"`

	Severity          Severity      `json:"severity"`
	TestingDevice     TestingDevice `json:"testing_device"`
	DefectDescription string        `json:"defect_description"`
	Precondition      string        `json:"precondition"`
	StepsToRecreate   string        `json:"steps_to_recreate"`
	ExpectedResult    string        `json:"expected_result"`
	ActualResult      string        `json:"actual_result"`

	// Reporter profile
	Name              string `json:"name"`
	Email             string `json:"email"`
	PhoneNumber       string `json:"phone_number,omitempty"`
	Profession        string `json:"profession,omitempty"`
	Location          string `json:"location,omitempty"`
	MostUsefulFeature string `json:"most_useful_feature,omitempty"`
	ChatbotRating     int    `json:"chatbot_rating,omitempty"`

	ScreenshotURL      *string `json:"screenshot_url,omitempty"`
	ParentSerialNumber *string `json:"parent_serial_number,omitempty"`

	Status     Status    `json:"status"`
	RefixCount int       `json:"refix_count"`
	CreatedAt  time.Time `json:"created_at"`
	CreatedBy  *string   `json:"created_by,omitempty"`
}

// Clone returns a copy that shares no pointers with r.
func (r FeedbackRecord) Clone() FeedbackRecord {
	out := r
	out.ScreenshotURL = clonePtr(r.ScreenshotURL)
	out.ParentSerialNumber = clonePtr(r.ParentSerialNumber)
	out.CreatedBy = clonePtr(r.CreatedBy)
	return out
}

func clonePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
