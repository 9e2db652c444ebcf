package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gartstein/recruit/internal/recruit/auth"
	"github.com/gartstein/recruit/internal/recruit/calendar"
	e "github.com/gartstein/recruit/internal/recruit/errors"
	"github.com/gartstein/recruit/internal/recruit/jobboard"
	"github.com/gartstein/recruit/internal/recruit/models"
	"go.uber.org/zap"
)

const integrationsPath = "/settings/integrations"

func (a *API) upcomingEvents(w http.ResponseWriter, r *http.Request, _ map[string]string, sess auth.Session) {
	events, err := a.Calendar.Upcoming(r.Context(), sess.OrganizationID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if events == nil {
		events = []calendar.Event{}
	}
	a.ok(w, "", events)
}

// createEvent handles both plain events and meetings; withMeet forces a
// Meet conference on the event.
func (a *API) createEvent(withMeet bool) auth.SessionHandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, _ map[string]string, sess auth.Session) {
		var in calendar.EventInput
		if err := decodeJSON(w, r, &in); err != nil {
			a.fail(w, r, err)
			return
		}
		if withMeet {
			in.WithMeet = true
		}
		event, err := a.Calendar.CreateEvent(r.Context(), sess.OrganizationID, &in)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, envelope{Success: true, Message: "Event created", Data: event})
	}
}

// disconnectCalendar reports a missing integration as an unsuccessful
// envelope instead of an HTTP error.
func (a *API) disconnectCalendar(w http.ResponseWriter, r *http.Request, _ map[string]string, sess auth.Session) {
	err := a.Integrations.Disconnect(r.Context(), sess.OrganizationID, models.ProviderGoogle)
	switch {
	case errors.Is(err, e.ErrNotFound):
		writeJSON(w, http.StatusOK, envelope{
			Success: false,
			Message: "Google Calendar is not connected",
			Error:   "NOT_FOUND",
		})
	case err != nil:
		a.fail(w, r, err)
	default:
		a.ok(w, "Google Calendar disconnected", nil)
	}
}

// authorize redirects to the provider, or returns the URL as JSON when the
// client asks for it.
func (a *API) authorize(w http.ResponseWriter, r *http.Request, params map[string]string, sess auth.Session) {
	provider := models.Provider(strings.ToLower(params["provider"]))
	authURL, err := a.Integrations.Authorize(r.Context(), sess.OrganizationID, sess.UserID, provider)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		a.ok(w, "", map[string]string{"url": authURL})
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// oauthCallback is reached by the provider redirect and carries no session;
// the state parameter identifies the organization.
func (a *API) oauthCallback(w http.ResponseWriter, r *http.Request, params map[string]string) {
	provider := models.Provider(strings.ToLower(params["provider"]))
	q := r.URL.Query()

	var err error
	if denied := q.Get("error"); denied != "" {
		err = fmt.Errorf("%w: authorization denied: %s", e.ErrInvalidInput, denied)
	} else {
		_, err = a.Integrations.Callback(r.Context(), provider, q.Get("state"), q.Get("code"))
	}

	if err != nil {
		a.logger.Warn("OAuth callback failed", zap.String("provider", string(provider)), zap.Error(err))
		if a.appURL == "" {
			a.fail(w, r, err)
			return
		}
		a.redirectToApp(w, r, url.Values{"provider": {string(provider)}, "error": {errorLabel(err)}})
		return
	}

	if a.appURL == "" {
		a.ok(w, fmt.Sprintf("%s connected", provider), nil)
		return
	}
	a.redirectToApp(w, r, url.Values{"connected": {string(provider)}})
}

func (a *API) redirectToApp(w http.ResponseWriter, r *http.Request, q url.Values) {
	target := strings.TrimRight(a.appURL, "/") + integrationsPath + "?" + q.Encode()
	http.Redirect(w, r, target, http.StatusFound)
}

func (a *API) postToLinkedIn(w http.ResponseWriter, r *http.Request, _ map[string]string, sess auth.Session) {
	var body struct {
		PostID string `json:"postId"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		a.fail(w, r, err)
		return
	}
	postID, err := pathID(map[string]string{"postId": body.PostID}, "postId")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	post, err := a.JobBoards.PostToLinkedIn(r.Context(), sess.OrganizationID, postID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, "Job posted to LinkedIn", post)
}

func (a *API) linkedInApplications(w http.ResponseWriter, r *http.Request, _ map[string]string, sess auth.Session) {
	postID, err := queryID(r, "postId", false)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	apps, err := a.JobBoards.Applications(r.Context(), sess.OrganizationID, postID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if apps == nil {
		apps = []jobboard.Application{}
	}
	a.ok(w, "", apps)
}
