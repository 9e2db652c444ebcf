// Package calendar creates and lists Google Calendar events on behalf of
// an organization that connected its Google account.
package calendar

import (
	"context"
	"fmt"
	"time"

	e "github.com/gartstein/recruit/internal/recruit/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const primaryCalendar = "primary"

// EventInput describes an event to create.
type EventInput struct {
	Summary     string    `json:"summary" validate:"required"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Start       time.Time `json:"start" validate:"required"`
	End         time.Time `json:"end" validate:"required,gtfield=Start"`
	Attendees   []string  `json:"attendees" validate:"dive,email"`
	// WithMeet requests a Google Meet conference for the event.
	WithMeet bool `json:"withMeet"`
}

type Event struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	HTMLLink    string    `json:"htmlLink,omitempty"`
	MeetLink    string    `json:"meetLink,omitempty"`
	Attendees   []string  `json:"attendees,omitempty"`
}

// Google talks to the Calendar API with the organization's token. Every
// call returns the token in use afterwards so a refreshed token can be
// stored.
type Google struct {
	oauth    *oauth2.Config
	location *time.Location
	logger   *zap.Logger
	opts     []option.ClientOption
}

func NewGoogle(cfg *oauth2.Config, loc *time.Location, logger *zap.Logger, opts ...option.ClientOption) *Google {
	if loc == nil {
		loc = time.UTC
	}
	return &Google{
		oauth:    cfg,
		location: loc,
		logger:   logger.Named("calendar"),
		opts:     opts,
	}
}

func (g *Google) service(ctx context.Context, token *oauth2.Token) (*gcal.Service, oauth2.TokenSource, error) {
	ts := g.oauth.TokenSource(ctx, token)
	opts := append([]option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, ts))}, g.opts...)
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: calendar client: %v", e.ErrExternalService, err)
	}
	return svc, ts, nil
}

func (g *Google) CreateEvent(ctx context.Context, token *oauth2.Token, in *EventInput) (*Event, *oauth2.Token, error) {
	svc, ts, err := g.service(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	tz := g.location.String()
	ev := &gcal.Event{
		Summary:     in.Summary,
		Description: in.Description,
		Location:    in.Location,
		Start:       &gcal.EventDateTime{DateTime: in.Start.In(g.location).Format(time.RFC3339), TimeZone: tz},
		End:         &gcal.EventDateTime{DateTime: in.End.In(g.location).Format(time.RFC3339), TimeZone: tz},
	}
	for _, a := range in.Attendees {
		ev.Attendees = append(ev.Attendees, &gcal.EventAttendee{Email: a})
	}
	if in.WithMeet {
		ev.ConferenceData = &gcal.ConferenceData{
			CreateRequest: &gcal.CreateConferenceRequest{
				RequestId:             uuid.NewString(),
				ConferenceSolutionKey: &gcal.ConferenceSolutionKey{Type: "hangoutsMeet"},
			},
		}
	}

	created, err := svc.Events.Insert(primaryCalendar, ev).
		ConferenceDataVersion(1).
		SendUpdates("all").
		Context(ctx).
		Do()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: create calendar event: %v", e.ErrExternalService, err)
	}
	g.logger.Info("Calendar event created", zap.String("event_id", created.Id), zap.Bool("meet", in.WithMeet))

	return toEvent(created), currentToken(ts, token), nil
}

// Upcoming lists at most limit single events starting after now.
func (g *Google) Upcoming(ctx context.Context, token *oauth2.Token, now time.Time, limit int64) ([]Event, *oauth2.Token, error) {
	svc, ts, err := g.service(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	res, err := svc.Events.List(primaryCalendar).
		TimeMin(now.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(limit).
		Context(ctx).
		Do()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: list calendar events: %v", e.ErrExternalService, err)
	}

	events := make([]Event, 0, len(res.Items))
	for _, item := range res.Items {
		events = append(events, *toEvent(item))
	}
	return events, currentToken(ts, token), nil
}

func currentToken(ts oauth2.TokenSource, fallback *oauth2.Token) *oauth2.Token {
	t, err := ts.Token()
	if err != nil {
		return fallback
	}
	return t
}

func toEvent(ev *gcal.Event) *Event {
	out := &Event{
		ID:          ev.Id,
		Summary:     ev.Summary,
		Description: ev.Description,
		HTMLLink:    ev.HtmlLink,
		MeetLink:    ev.HangoutLink,
		Start:       eventTime(ev.Start),
		End:         eventTime(ev.End),
	}
	if out.MeetLink == "" && ev.ConferenceData != nil {
		for _, ep := range ev.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" {
				out.MeetLink = ep.Uri
				break
			}
		}
	}
	for _, a := range ev.Attendees {
		out.Attendees = append(out.Attendees, a.Email)
	}
	return out
}

// eventTime handles both timed and all-day events.
func eventTime(dt *gcal.EventDateTime) time.Time {
	if dt == nil {
		return time.Time{}
	}
	if dt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, dt.DateTime); err == nil {
			return t
		}
	}
	if dt.Date != "" {
		if t, err := time.Parse("2006-01-02", dt.Date); err == nil {
			return t
		}
	}
	return time.Time{}
}
