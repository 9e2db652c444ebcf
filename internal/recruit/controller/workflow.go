package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gartstein/recruit/internal/recruit/calendar"
	e "github.com/gartstein/recruit/internal/recruit/errors"
	"github.com/gartstein/recruit/internal/recruit/events"
	"github.com/gartstein/recruit/internal/recruit/models"
	"github.com/gartstein/recruit/internal/recruit/notify"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultInterviewMinutes = 60

type WorkflowRepository interface {
	GetMatch(ctx context.Context, orgID, id uuid.UUID) (*models.Match, error)
	UpdateMatch(ctx context.Context, orgID, id uuid.UUID, fields map[string]interface{}) error
}

type MailSender interface {
	Send(ctx context.Context, msg *notify.Message) error
}

// EventCreator creates calendar events for an organization.
type EventCreator interface {
	CreateEvent(ctx context.Context, orgID uuid.UUID, in *calendar.EventInput) (*calendar.Event, error)
}

type InvitationRequest struct {
	MatchIDs []uuid.UUID `json:"matchIds" validate:"required,min=1,max=100"`
	// Status is the column the matches move to, CONTACTED by default.
	Status              models.MatchStatus      `json:"status" validate:"omitempty,oneof=CONTACTED INTERVIEWING"`
	Interview           models.InterviewDetails `json:"interview"`
	Notes               string                  `json:"notes" validate:"max=5000"`
	CreateCalendarEvent bool                    `json:"createCalendarEvent"`
	DurationMinutes     int                     `json:"durationMinutes" validate:"omitempty,min=15,max=480"`
}

// InvitationResult reports the outcome for one match of a bulk invitation.
// The status change is kept even when the e-mail or the calendar event
// fails.
type InvitationResult struct {
	MatchID         uuid.UUID          `json:"matchId"`
	Success         bool               `json:"success"`
	Status          models.MatchStatus `json:"status,omitempty"`
	EmailSent       bool               `json:"emailSent"`
	CalendarEventID string             `json:"calendarEventId,omitempty"`
	MeetingLink     string             `json:"meetingLink,omitempty"`
	Error           string             `json:"error,omitempty"`
	CalendarError   string             `json:"calendarError,omitempty"`
}

type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

type DecisionRequest struct {
	Decision Decision `json:"decision" validate:"required,oneof=accept reject"`
	Notes    string   `json:"notes" validate:"max=5000"`
}

type DecisionResult struct {
	Match      *models.Match `json:"match"`
	EmailSent  bool          `json:"emailSent"`
	EmailError string        `json:"emailError,omitempty"`
}

// WorkflowService moves matches through the hiring pipeline and notifies
// candidates.
type WorkflowService struct {
	repo     WorkflowRepository
	mailer   MailSender
	calendar EventCreator
	producer EventProducer
	location *time.Location
	now      Clock
	logger   *zap.Logger
}

// NewWorkflowService accepts a nil calendar; invitations asking for a
// calendar event then report a calendar error.
func NewWorkflowService(
	repo WorkflowRepository,
	mailer MailSender,
	cal EventCreator,
	producer EventProducer,
	loc *time.Location,
	logger *zap.Logger,
) *WorkflowService {
	if producer == nil {
		producer = noopProducer{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &WorkflowService{
		repo:     repo,
		mailer:   mailer,
		calendar: cal,
		producer: producer,
		location: loc,
		now:      time.Now,
		logger:   logger.Named("workflow_service"),
	}
}

func checkTransition(from, to models.MatchStatus) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s to %s", e.ErrInvalidTransition, from, to)
	}
	return nil
}

// UpdateStatus moves a match to status. Moving to the current status is a
// no-op unless that status is terminal.
func (s *WorkflowService) UpdateStatus(ctx context.Context, orgID, id uuid.UUID, status models.MatchStatus) (*models.Match, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", e.ErrInvalidInput, status)
	}
	match, err := s.repo.GetMatch(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(match.Status, status); err != nil {
		return nil, err
	}
	if match.Status == status {
		return match, nil
	}
	if err := s.setStatus(ctx, orgID, match, status, nil); err != nil {
		return nil, err
	}
	return match, nil
}

func (s *WorkflowService) setStatus(
	ctx context.Context,
	orgID uuid.UUID,
	match *models.Match,
	status models.MatchStatus,
	extra map[string]interface{},
) error {
	fields := map[string]interface{}{"status": status}
	for k, v := range extra {
		fields[k] = v
	}
	if err := s.repo.UpdateMatch(ctx, orgID, match.ID, fields); err != nil {
		return fmt.Errorf("failed to update match status: %w", err)
	}
	previous := match.Status
	match.Status = status
	if previous != status {
		s.logger.Info("Match status changed",
			zap.String("match_id", match.ID.String()),
			zap.String("from", string(previous)),
			zap.String("to", string(status)),
		)
		s.producer.Produce(events.NewMatchEvent(events.MatchStatusChanged, match))
	}
	return nil
}

// SetFeedback records +1, -1 or 0 on a match.
func (s *WorkflowService) SetFeedback(ctx context.Context, orgID, id uuid.UUID, feedback int) (*models.Match, error) {
	if feedback < models.FeedbackNegative || feedback > models.FeedbackPositive {
		return nil, fmt.Errorf("%w: feedback must be -1, 0 or 1", e.ErrInvalidInput)
	}
	match, err := s.repo.GetMatch(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateMatch(ctx, orgID, id, map[string]interface{}{"feedback": feedback}); err != nil {
		return nil, err
	}
	match.Feedback = feedback
	return match, nil
}

// SendInvitations moves every listed match to req.Status and e-mails an
// interview invitation to each candidate concurrently. Only a malformed
// request fails as a whole.
func (s *WorkflowService) SendInvitations(ctx context.Context, orgID uuid.UUID, req *InvitationRequest) ([]InvitationResult, error) {
	if req.Status == "" {
		req.Status = models.MatchContacted
	}
	if req.DurationMinutes == 0 {
		req.DurationMinutes = defaultInterviewMinutes
	}
	if err := validateInput(req); err != nil {
		return nil, err
	}
	if _, err := req.Interview.Start(s.location); err != nil {
		return nil, fmt.Errorf("%w: interview date: %v", e.ErrInvalidInput, err)
	}

	ids := uniqueIDs(req.MatchIDs)
	results := make([]InvitationResult, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			results[i] = s.invite(ctx, orgID, id, req)
		}(i, id)
	}
	wg.Wait()
	return results, nil
}

// uniqueIDs drops repeated ids, keeping first-seen order.
func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (s *WorkflowService) invite(ctx context.Context, orgID, id uuid.UUID, req *InvitationRequest) InvitationResult {
	result := InvitationResult{MatchID: id}
	fail := func(err error) InvitationResult {
		s.logger.Warn("Invitation failed", zap.String("match_id", id.String()), zap.Error(err))
		result.Error = err.Error()
		return result
	}

	match, err := s.repo.GetMatch(ctx, orgID, id)
	if err != nil {
		return fail(err)
	}
	if match.Candidate == nil || match.Post == nil {
		return fail(fmt.Errorf("%w: match has no candidate or job post", e.ErrNotFound))
	}
	if err := checkTransition(match.Status, req.Status); err != nil {
		return fail(err)
	}

	interview := req.Interview
	if err := match.SetInterview(&interview); err != nil {
		return fail(err)
	}
	extra := map[string]interface{}{"interview_details": match.InterviewDetails}
	if err := s.setStatus(ctx, orgID, match, req.Status, extra); err != nil {
		return fail(err)
	}
	result.Status = match.Status

	msg, err := notify.Invitation(emailData(match, &interview, req.Notes))
	if err != nil {
		return fail(err)
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fail(fmt.Errorf("failed to send invitation e-mail: %w", err))
	}
	result.EmailSent = true
	s.recordEmail(ctx, orgID, match, msg.Subject)
	result.Success = true

	if req.CreateCalendarEvent {
		s.scheduleInterview(ctx, orgID, match, &interview, req, &result)
	}
	return result
}

// scheduleInterview runs after the e-mail went out. A failure is reported
// on result without undoing the e-mail or the status change.
func (s *WorkflowService) scheduleInterview(
	ctx context.Context,
	orgID uuid.UUID,
	match *models.Match,
	interview *models.InterviewDetails,
	req *InvitationRequest,
	result *InvitationResult,
) {
	if s.calendar == nil {
		result.CalendarError = "calendar is not configured"
		return
	}
	start, _ := interview.Start(s.location)
	event, err := s.calendar.CreateEvent(ctx, orgID, &calendar.EventInput{
		Summary:     fmt.Sprintf("Interview: %s - %s", match.Candidate.Name, match.Post.Title),
		Description: req.Notes,
		Location:    interview.Location,
		Start:       start,
		End:         start.Add(time.Duration(req.DurationMinutes) * time.Minute),
		Attendees:   []string{match.Candidate.Email},
		WithMeet:    interview.Type == models.InterviewVideo && interview.MeetingLink == "",
	})
	if err != nil {
		s.logger.Warn("Failed to create calendar event", zap.String("match_id", match.ID.String()), zap.Error(err))
		result.CalendarError = err.Error()
		return
	}
	result.CalendarEventID = event.ID
	result.MeetingLink = event.MeetLink

	fields := map[string]interface{}{"calendar_event_id": event.ID}
	if event.MeetLink != "" && interview.MeetingLink == "" {
		withLink := *interview
		withLink.MeetingLink = event.MeetLink
		if err := match.SetInterview(&withLink); err == nil {
			fields["interview_details"] = match.InterviewDetails
		}
	}
	if err := s.repo.UpdateMatch(ctx, orgID, match.ID, fields); err != nil {
		s.logger.Error("Failed to store calendar event id", zap.String("match_id", match.ID.String()), zap.Error(err))
	}
}

// Decide closes a match as HIRED (accept) or REJECTED (reject) and sends
// the matching e-mail. No calendar event is created. An e-mail failure is
// reported on the result; the status change is kept.
func (s *WorkflowService) Decide(ctx context.Context, orgID, id uuid.UUID, req *DecisionRequest) (*DecisionResult, error) {
	if err := validateInput(req); err != nil {
		return nil, err
	}
	target := models.MatchRejected
	render := notify.Rejection
	if req.Decision == DecisionAccept {
		target = models.MatchHired
		render = notify.Acceptance
	}

	match, err := s.repo.GetMatch(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(match.Status, target); err != nil {
		return nil, err
	}
	if err := s.setStatus(ctx, orgID, match, target, nil); err != nil {
		return nil, err
	}

	result := &DecisionResult{Match: match}
	if match.Candidate == nil || match.Post == nil {
		result.EmailError = "match has no candidate or job post"
		return result, nil
	}
	msg, err := render(emailData(match, nil, req.Notes))
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		s.logger.Warn("Failed to send decision e-mail",
			zap.String("match_id", id.String()),
			zap.String("decision", string(req.Decision)),
			zap.Error(err),
		)
		result.EmailError = err.Error()
		return result, nil
	}
	result.EmailSent = true
	s.recordEmail(ctx, orgID, match, msg.Subject)
	return result, nil
}

func (s *WorkflowService) recordEmail(ctx context.Context, orgID uuid.UUID, match *models.Match, subject string) {
	sentAt := s.now().UTC()
	err := s.repo.UpdateMatch(ctx, orgID, match.ID, map[string]interface{}{
		"email_sent":    true,
		"email_sent_at": sentAt,
		"email_subject": subject,
	})
	if err != nil {
		s.logger.Error("Failed to record sent e-mail", zap.String("match_id", match.ID.String()), zap.Error(err))
		return
	}
	match.EmailSent = true
	match.EmailSentAt = &sentAt
	match.EmailSubject = subject
}

func emailData(match *models.Match, interview *models.InterviewDetails, notes string) notify.EmailData {
	return notify.EmailData{
		CandidateName: match.Candidate.Name,
		CandidateMail: match.Candidate.Email,
		JobTitle:      match.Post.Title,
		CompanyName:   match.Post.CompanyName,
		Interview:     interview,
		Notes:         notes,
	}
}
