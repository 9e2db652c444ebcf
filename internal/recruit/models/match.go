package models

import (
	"encoding/json"
	"fmt"
	"time"

	e "github.com/gartstein/recruit/internal/recruit/errors"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MatchThreshold is the lowest score that is persisted as a Match.
const MatchThreshold = 10

// MatchStatus is the hiring stage of a candidate for one job post.
type MatchStatus string

const (
	MatchNew          MatchStatus = "NEW"
	MatchContacted    MatchStatus = "CONTACTED"
	MatchInterviewing MatchStatus = "INTERVIEWING"
	MatchHired        MatchStatus = "HIRED"
	MatchRejected     MatchStatus = "REJECTED"
)

var matchTransitions = map[MatchStatus][]MatchStatus{
	MatchNew:          {MatchContacted},
	MatchContacted:    {MatchInterviewing},
	MatchInterviewing: {MatchHired, MatchRejected},
}

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchNew, MatchContacted, MatchInterviewing, MatchHired, MatchRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s MatchStatus) Terminal() bool {
	return s == MatchHired || s == MatchRejected
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Staying in the same non-terminal state is allowed.
func (s MatchStatus) CanTransitionTo(next MatchStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if s == next {
		return !s.Terminal()
	}
	for _, allowed := range matchTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Feedback values a recruiter can leave on a match.
const (
	FeedbackNegative = -1
	FeedbackNone     = 0
	FeedbackPositive = 1
)

// Match joins one Candidate and one JobPost. The pair is unique.
type Match struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	PostID         uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_match_post_candidate" json:"postId"`
	CandidateID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_match_post_candidate;index" json:"candidateId"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;index;not null" json:"organizationId"`
	Score          int            `gorm:"not null;check:score >= 0 AND score <= 100" json:"score"`
	Reasoning      string         `gorm:"type:text" json:"reasoning"`
	Metadata       datatypes.JSON `json:"metadata,omitempty"`
	Status         MatchStatus    `gorm:"size:16;index;not null;default:NEW" json:"status"`
	Feedback       int            `gorm:"not null;default:0" json:"feedback"`

	EmailSent    bool       `gorm:"not null;default:false" json:"emailSent"`
	EmailSentAt  *time.Time `json:"emailSentAt,omitempty"`
	EmailSubject string     `gorm:"size:255" json:"emailSubject,omitempty"`

	InterviewDetails datatypes.JSON `json:"interviewDetails,omitempty"`
	CalendarEventID  string         `gorm:"size:255" json:"calendarEventId,omitempty"`

	Candidate *Candidate `gorm:"foreignKey:CandidateID" json:"candidate,omitempty"`
	Post      *JobPost   `gorm:"foreignKey:PostID" json:"post,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (m *Match) BeforeCreate(_ *gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

// BeforeSave rejects out-of-range scores and feedback and keeps JSON
// columns non-NULL.
func (m *Match) BeforeSave(_ *gorm.DB) error {
	if m.Score < 0 || m.Score > 100 {
		return fmt.Errorf("%w: score %d is outside 0-100", e.ErrInvalidInput, m.Score)
	}
	if m.Feedback < FeedbackNegative || m.Feedback > FeedbackPositive {
		return fmt.Errorf("%w: feedback must be -1, 0 or 1", e.ErrInvalidInput)
	}
	if len(m.Metadata) == 0 {
		m.Metadata = datatypes.JSON("{}")
	}
	if len(m.InterviewDetails) == 0 {
		m.InterviewDetails = datatypes.JSON("null")
	}
	return nil
}

// SkillMatch is the per-skill breakdown of a score.
type SkillMatch struct {
	Skill          string `json:"skill"`
	RequiredLevel  int    `json:"requiredLevel"`
	CandidateLevel int    `json:"candidateLevel"`
	Match          string `json:"match"`
}

// MatchMetadata is stored as JSON on a Match.
type MatchMetadata struct {
	SeniorityMatch  int          `json:"seniorityMatch"`
	SkillMatches    []SkillMatch `json:"skillMatches"`
	Recommendations []string     `json:"recommendations,omitempty"`
}

func (m *Match) SetMetadata(md MatchMetadata) error {
	raw, err := json.Marshal(md)
	if err != nil {
		return err
	}
	m.Metadata = raw
	return nil
}

func (m *Match) MatchMetadata() (MatchMetadata, error) {
	var md MatchMetadata
	if len(m.Metadata) == 0 {
		return md, nil
	}
	err := json.Unmarshal(m.Metadata, &md)
	return md, err
}

type InterviewType string

const (
	InterviewInPerson InterviewType = "IN_PERSON"
	InterviewVideo    InterviewType = "VIDEO"
	InterviewPhone    InterviewType = "PHONE"
)

// InterviewDetails describes a scheduled interview. Date is YYYY-MM-DD and
// Time is HH:MM in the organization's time zone.
type InterviewDetails struct {
	Type        InterviewType `json:"type" validate:"required,oneof=IN_PERSON VIDEO PHONE"`
	Date        string        `json:"date" validate:"required,datetime=2006-01-02"`
	Time        string        `json:"time" validate:"required,datetime=15:04"`
	Location    string        `json:"location,omitempty"`
	MeetingLink string        `json:"meetingLink,omitempty" validate:"omitempty,url"`
}

// Start returns the interview start in loc.
func (d InterviewDetails) Start(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", d.Date+" "+d.Time, loc)
}

func (m *Match) SetInterview(d *InterviewDetails) error {
	if d == nil {
		m.InterviewDetails = datatypes.JSON("null")
		return nil
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	m.InterviewDetails = raw
	return nil
}

// Interview returns the stored interview details, or nil if none were set.
func (m *Match) Interview() (*InterviewDetails, error) {
	if len(m.InterviewDetails) == 0 || string(m.InterviewDetails) == "null" {
		return nil, nil
	}
	var d InterviewDetails
	if err := json.Unmarshal(m.InterviewDetails, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
