package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	e "github.com/gartstein/recruit/internal/recruit/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

func newTestGoogle(t *testing.T, handler http.HandlerFunc) *Google {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &oauth2.Config{ClientID: "id", Endpoint: oauth2.Endpoint{TokenURL: srv.URL + "/token"}}
	return NewGoogle(cfg, time.UTC, zaptest.NewLogger(t), option.WithEndpoint(srv.URL+"/"))
}

func validToken() *oauth2.Token {
	return &oauth2.Token{AccessToken: "at", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}
}

func TestCreateEvent_WithMeet(t *testing.T) {
	var got gcal.Event
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer at", r.Header.Get("Authorization"))
		assert.Equal(t, "1", r.URL.Query().Get("conferenceDataVersion"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":       "evt-1",
			"summary":  got.Summary,
			"htmlLink": "https://calendar.google.com/event?eid=1",
			"start":    got.Start,
			"end":      got.End,
			"conferenceData": map[string]interface{}{
				"entryPoints": []map[string]string{
					{"entryPointType": "phone", "uri": "tel:+1"},
					{"entryPointType": "video", "uri": "https://meet.google.com/abc-defg-hij"},
				},
			},
		})
	})

	start := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	ev, token, err := g.CreateEvent(context.Background(), validToken(), &EventInput{
		Summary:   "Interview: Jane Doe",
		Start:     start,
		End:       start.Add(time.Hour),
		Attendees: []string{"jane@example.com"},
		WithMeet:  true,
	})
	require.NoError(t, err)

	assert.Equal(t, "evt-1", ev.ID)
	assert.Equal(t, "https://meet.google.com/abc-defg-hij", ev.MeetLink)
	assert.True(t, start.Equal(ev.Start))
	assert.Equal(t, "at", token.AccessToken)

	require.NotNil(t, got.ConferenceData)
	assert.Equal(t, "hangoutsMeet", got.ConferenceData.CreateRequest.ConferenceSolutionKey.Type)
	assert.NotEmpty(t, got.ConferenceData.CreateRequest.RequestId)
	require.Len(t, got.Attendees, 1)
	assert.Equal(t, "jane@example.com", got.Attendees[0].Email)
}

func TestCreateEvent_APIError(t *testing.T) {
	g := newTestGoogle(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"forbidden"}}`))
	})

	start := time.Now()
	_, _, err := g.CreateEvent(context.Background(), validToken(), &EventInput{Summary: "x", Start: start, End: start.Add(time.Hour)})
	assert.ErrorIs(t, err, e.ErrExternalService)
}

func TestUpcoming(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, now.Format(time.RFC3339), r.URL.Query().Get("timeMin"))
		assert.Equal(t, "startTime", r.URL.Query().Get("orderBy"))
		assert.Equal(t, "true", r.URL.Query().Get("singleEvents"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"id":"a","summary":"Timed","start":{"dateTime":"2025-03-02T10:00:00Z"},"end":{"dateTime":"2025-03-02T11:00:00Z"},"hangoutLink":"https://meet.google.com/x"},
			{"id":"b","summary":"All day","start":{"date":"2025-03-05"},"end":{"date":"2025-03-06"}}
		]}`))
	})

	events, _, err := g.Upcoming(context.Background(), validToken(), now, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "https://meet.google.com/x", events[0].MeetLink)
	assert.Equal(t, time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC), events[0].Start)
	assert.Equal(t, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), events[1].Start)
}
