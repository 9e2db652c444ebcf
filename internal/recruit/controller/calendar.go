package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/gartstein/recruit/internal/recruit/calendar"
	e "github.com/gartstein/recruit/internal/recruit/errors"
	"github.com/gartstein/recruit/internal/recruit/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const upcomingLimit = 25

type Calendar interface {
	CreateEvent(ctx context.Context, token *oauth2.Token, in *calendar.EventInput) (*calendar.Event, *oauth2.Token, error)
	Upcoming(ctx context.Context, token *oauth2.Token, now time.Time, limit int64) ([]calendar.Event, *oauth2.Token, error)
}

// CalendarService manages events in the organization's connected Google
// Calendar.
type CalendarService struct {
	repo   IntegrationRepository
	cal    Calendar
	now    Clock
	logger *zap.Logger
}

// NewCalendarService accepts a nil cal when Google is not configured; every
// call then fails with e.ErrInvalidInput.
func NewCalendarService(repo IntegrationRepository, cal Calendar, logger *zap.Logger) *CalendarService {
	return &CalendarService{
		repo:   repo,
		cal:    cal,
		now:    time.Now,
		logger: logger.Named("calendar_service"),
	}
}

func (s *CalendarService) Upcoming(ctx context.Context, orgID uuid.UUID) ([]calendar.Event, error) {
	if s.cal == nil {
		return nil, fmt.Errorf("%w: google calendar is not configured", e.ErrInvalidInput)
	}
	integration, token, err := connectedToken(ctx, s.repo, orgID, models.ProviderGoogle)
	if err != nil {
		return nil, err
	}

	events, refreshed, err := s.cal.Upcoming(ctx, token, s.now(), upcomingLimit)
	if err != nil {
		return nil, err
	}
	storeRefreshed(ctx, s.repo, integration, refreshed, s.logger)
	return events, nil
}

func (s *CalendarService) CreateEvent(ctx context.Context, orgID uuid.UUID, in *calendar.EventInput) (*calendar.Event, error) {
	if s.cal == nil {
		return nil, fmt.Errorf("%w: google calendar is not configured", e.ErrInvalidInput)
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	integration, token, err := connectedToken(ctx, s.repo, orgID, models.ProviderGoogle)
	if err != nil {
		return nil, err
	}

	event, refreshed, err := s.cal.CreateEvent(ctx, token, in)
	if err != nil {
		return nil, err
	}
	storeRefreshed(ctx, s.repo, integration, refreshed, s.logger)
	return event, nil
}
