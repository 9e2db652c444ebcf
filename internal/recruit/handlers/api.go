package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gartstein/recruit/internal/recruit/auth"
	"github.com/gartstein/recruit/internal/recruit/calendar"
	"github.com/gartstein/recruit/internal/recruit/controller"
	"github.com/gartstein/recruit/internal/recruit/ingestion"
	"github.com/gartstein/recruit/internal/recruit/jobboard"
	"github.com/gartstein/recruit/internal/recruit/models"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
)

type Ingester interface {
	Process(ctx context.Context, orgID uuid.UUID, files []ingestion.File) *ingestion.Result
}

type CandidateController interface {
	List(ctx context.Context, orgID uuid.UUID, archived bool) ([]models.Candidate, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (*models.Candidate, error)
	ToggleArchive(ctx context.Context, orgID, id uuid.UUID) (*models.Candidate, error)
	Delete(ctx context.Context, orgID, id uuid.UUID) error
}

type JobPostController interface {
	Create(ctx context.Context, orgID, authorID uuid.UUID, in *controller.JobPostInput) (*models.JobPost, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (*models.JobPost, error)
	List(ctx context.Context, orgID uuid.UUID, archived bool) ([]models.JobPost, error)
	Update(ctx context.Context, orgID, id uuid.UUID, patch *controller.JobPostPatch) (*models.JobPost, error)
	ToggleArchive(ctx context.Context, orgID, id uuid.UUID) (*models.JobPost, error)
	ToggleClosed(ctx context.Context, orgID, id uuid.UUID) (*models.JobPost, error)
	Delete(ctx context.Context, orgID, id uuid.UUID) error
}

type MatchController interface {
	ScoreCandidate(ctx context.Context, orgID, candidateID uuid.UUID) ([]models.Match, error)
	ListByPost(ctx context.Context, orgID, postID uuid.UUID) ([]models.Match, error)
	Export(ctx context.Context, orgID, postID uuid.UUID, w io.Writer, now time.Time) (string, error)
}

type WorkflowController interface {
	UpdateStatus(ctx context.Context, orgID, id uuid.UUID, status models.MatchStatus) (*models.Match, error)
	SetFeedback(ctx context.Context, orgID, id uuid.UUID, feedback int) (*models.Match, error)
	SendInvitations(ctx context.Context, orgID uuid.UUID, req *controller.InvitationRequest) ([]controller.InvitationResult, error)
	Decide(ctx context.Context, orgID, id uuid.UUID, req *controller.DecisionRequest) (*controller.DecisionResult, error)
}

type IntegrationController interface {
	Authorize(ctx context.Context, orgID, userID uuid.UUID, provider models.Provider) (string, error)
	Callback(ctx context.Context, provider models.Provider, state, code string) (*models.JobWebsiteIntegration, error)
	Disconnect(ctx context.Context, orgID uuid.UUID, provider models.Provider) error
}

type CalendarController interface {
	Upcoming(ctx context.Context, orgID uuid.UUID) ([]calendar.Event, error)
	CreateEvent(ctx context.Context, orgID uuid.UUID, in *calendar.EventInput) (*calendar.Event, error)
}

type JobBoardController interface {
	PostToLinkedIn(ctx context.Context, orgID, postID uuid.UUID) (*models.JobPost, error)
	Applications(ctx context.Context, orgID, postID uuid.UUID) ([]jobboard.Application, error)
}

// Services bundles the controllers the API dispatches to.
type Services struct {
	Ingestion    Ingester
	Candidates   CandidateController
	JobPosts     JobPostController
	Matches      MatchController
	Workflow     WorkflowController
	Integrations IntegrationController
	Calendar     CalendarController
	JobBoards    JobBoardController
}

// API implements the REST routes of the service.
type API struct {
	Services
	auth          *auth.Authenticator
	maxUploadSize int64
	appURL        string
	now           func() time.Time
	logger        *zap.Logger
}

// NewAPI builds the REST API. appURL is where OAuth callbacks send the
// browser back to; when empty the callback answers with JSON.
func NewAPI(authn *auth.Authenticator, svc Services, maxUploadSize int64, appURL string, logger *zap.Logger) *API {
	return &API{
		Services:      svc,
		auth:          authn,
		maxUploadSize: maxUploadSize,
		appURL:        appURL,
		now:           time.Now,
		logger:        logger.Named("api"),
	}
}

type route struct {
	method  string
	pattern string
	handler runtime.HandlerFunc
}

func (a *API) routes() []route {
	s := func(fn auth.SessionHandlerFunc) runtime.HandlerFunc {
		return a.auth.Wrap(fn, a.fail)
	}
	return []route{
		{http.MethodPost, "/api/upload", s(a.upload)},

		{http.MethodPost, "/api/matches", s(a.scoreCandidate)},
		{http.MethodGet, "/api/matches", s(a.listMatches)},
		{http.MethodGet, "/api/matches/export", s(a.exportMatches)},
		{http.MethodPost, "/api/matches/invitations", s(a.sendInvitations)},
		{http.MethodPatch, "/api/matches/{id}", s(a.updateMatchStatus)},
		{http.MethodPost, "/api/matches/{id}/feedback", s(a.setFeedback)},
		{http.MethodPost, "/api/matches/{id}/decision", s(a.decide)},

		{http.MethodGet, "/api/jobposts", s(a.listJobPosts)},
		{http.MethodPost, "/api/jobposts", s(a.createJobPost)},
		{http.MethodGet, "/api/jobposts/{id}", s(a.getJobPost)},
		{http.MethodPatch, "/api/jobposts/{id}", s(a.updateJobPost)},
		{http.MethodDelete, "/api/jobposts/{id}", s(a.deleteJobPost)},
		{http.MethodPost, "/api/jobposts/{id}/archive", s(a.archiveJobPost)},
		{http.MethodPost, "/api/jobposts/{id}/close", s(a.closeJobPost)},

		{http.MethodGet, "/api/candidates", s(a.listCandidates)},
		{http.MethodGet, "/api/candidates/{id}", s(a.getCandidate)},
		{http.MethodDelete, "/api/candidates/{id}", s(a.deleteCandidate)},
		{http.MethodPost, "/api/candidates/{id}/archive", s(a.archiveCandidate)},

		{http.MethodGet, "/api/calendar/events", s(a.upcomingEvents)},
		{http.MethodPost, "/api/calendar/events", s(a.createEvent(false))},
		{http.MethodPost, "/api/calendar/create-event", s(a.createEvent(false))},
		{http.MethodPost, "/api/meetings/create", s(a.createEvent(true))},
		{http.MethodDelete, "/api/calendar/integration", s(a.disconnectCalendar)},

		{http.MethodGet, "/api/oauth/authorize/{provider}", s(a.authorize)},
		{http.MethodGet, "/api/oauth/callback/{provider}", a.oauthCallback},

		{http.MethodPost, "/api/linkedin/post-job", s(a.postToLinkedIn)},
		{http.MethodGet, "/api/linkedin/applications", s(a.linkedInApplications)},
	}
}

// Register adds every route to mux.
func (a *API) Register(mux *runtime.ServeMux) error {
	for _, rt := range a.routes() {
		if err := mux.HandlePath(rt.method, rt.pattern, rt.handler); err != nil {
			return fmt.Errorf("register %s %s: %w", rt.method, rt.pattern, err)
		}
	}
	return nil
}
