package handlers

import (
	"context"
	"io"
	"time"

	"github.com/gartstein/recruit/internal/recruit/calendar"
	"github.com/gartstein/recruit/internal/recruit/controller"
	"github.com/gartstein/recruit/internal/recruit/ingestion"
	"github.com/gartstein/recruit/internal/recruit/jobboard"
	"github.com/gartstein/recruit/internal/recruit/models"
	"github.com/google/uuid"
)

// Each mock panics when a test calls a method it did not stub.

type mockIngester struct {
	process func(ctx context.Context, orgID uuid.UUID, files []ingestion.File) *ingestion.Result
}

func (m *mockIngester) Process(ctx context.Context, orgID uuid.UUID, files []ingestion.File) *ingestion.Result {
	return m.process(ctx, orgID, files)
}

type mockCandidates struct {
	list          func(ctx context.Context, orgID uuid.UUID, archived bool) ([]models.Candidate, error)
	get           func(ctx context.Context, orgID, id uuid.UUID) (*models.Candidate, error)
	toggleArchive func(ctx context.Context, orgID, id uuid.UUID) (*models.Candidate, error)
	delete        func(ctx context.Context, orgID, id uuid.UUID) error
}

func (m *mockCandidates) List(ctx context.Context, orgID uuid.UUID, archived bool) ([]models.Candidate, error) {
	return m.list(ctx, orgID, archived)
}

func (m *mockCandidates) Get(ctx context.Context, orgID, id uuid.UUID) (*models.Candidate, error) {
	return m.get(ctx, orgID, id)
}

func (m *mockCandidates) ToggleArchive(ctx context.Context, orgID, id uuid.UUID) (*models.Candidate, error) {
	return m.toggleArchive(ctx, orgID, id)
}

func (m *mockCandidates) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	return m.delete(ctx, orgID, id)
}

type mockJobPosts struct {
	create        func(ctx context.Context, orgID, authorID uuid.UUID, in *controller.JobPostInput) (*models.JobPost, error)
	get           func(ctx context.Context, orgID, id uuid.UUID) (*models.JobPost, error)
	list          func(ctx context.Context, orgID uuid.UUID, archived bool) ([]models.JobPost, error)
	update        func(ctx context.Context, orgID, id uuid.UUID, patch *controller.JobPostPatch) (*models.JobPost, error)
	toggleArchive func(ctx context.Context, orgID, id uuid.UUID) (*models.JobPost, error)
	toggleClosed  func(ctx context.Context, orgID, id uuid.UUID) (*models.JobPost, error)
	delete        func(ctx context.Context, orgID, id uuid.UUID) error
}

func (m *mockJobPosts) Create(ctx context.Context, orgID, authorID uuid.UUID, in *controller.JobPostInput) (*models.JobPost, error) {
	return m.create(ctx, orgID, authorID, in)
}

func (m *mockJobPosts) Get(ctx context.Context, orgID, id uuid.UUID) (*models.JobPost, error) {
	return m.get(ctx, orgID, id)
}

func (m *mockJobPosts) List(ctx context.Context, orgID uuid.UUID, archived bool) ([]models.JobPost, error) {
	return m.list(ctx, orgID, archived)
}

func (m *mockJobPosts) Update(ctx context.Context, orgID, id uuid.UUID, patch *controller.JobPostPatch) (*models.JobPost, error) {
	return m.update(ctx, orgID, id, patch)
}

func (m *mockJobPosts) ToggleArchive(ctx context.Context, orgID, id uuid.UUID) (*models.JobPost, error) {
	return m.toggleArchive(ctx, orgID, id)
}

func (m *mockJobPosts) ToggleClosed(ctx context.Context, orgID, id uuid.UUID) (*models.JobPost, error) {
	return m.toggleClosed(ctx, orgID, id)
}

func (m *mockJobPosts) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	return m.delete(ctx, orgID, id)
}

type mockMatches struct {
	scoreCandidate func(ctx context.Context, orgID, candidateID uuid.UUID) ([]models.Match, error)
	listByPost     func(ctx context.Context, orgID, postID uuid.UUID) ([]models.Match, error)
	export         func(ctx context.Context, orgID, postID uuid.UUID, w io.Writer, now time.Time) (string, error)
}

func (m *mockMatches) ScoreCandidate(ctx context.Context, orgID, candidateID uuid.UUID) ([]models.Match, error) {
	return m.scoreCandidate(ctx, orgID, candidateID)
}

func (m *mockMatches) ListByPost(ctx context.Context, orgID, postID uuid.UUID) ([]models.Match, error) {
	return m.listByPost(ctx, orgID, postID)
}

func (m *mockMatches) Export(ctx context.Context, orgID, postID uuid.UUID, w io.Writer, now time.Time) (string, error) {
	return m.export(ctx, orgID, postID, w, now)
}

type mockWorkflow struct {
	updateStatus    func(ctx context.Context, orgID, id uuid.UUID, status models.MatchStatus) (*models.Match, error)
	setFeedback     func(ctx context.Context, orgID, id uuid.UUID, feedback int) (*models.Match, error)
	sendInvitations func(ctx context.Context, orgID uuid.UUID, req *controller.InvitationRequest) ([]controller.InvitationResult, error)
	decide          func(ctx context.Context, orgID, id uuid.UUID, req *controller.DecisionRequest) (*controller.DecisionResult, error)
}

func (m *mockWorkflow) UpdateStatus(ctx context.Context, orgID, id uuid.UUID, status models.MatchStatus) (*models.Match, error) {
	return m.updateStatus(ctx, orgID, id, status)
}

func (m *mockWorkflow) SetFeedback(ctx context.Context, orgID, id uuid.UUID, feedback int) (*models.Match, error) {
	return m.setFeedback(ctx, orgID, id, feedback)
}

func (m *mockWorkflow) SendInvitations(ctx context.Context, orgID uuid.UUID, req *controller.InvitationRequest) ([]controller.InvitationResult, error) {
	return m.sendInvitations(ctx, orgID, req)
}

func (m *mockWorkflow) Decide(ctx context.Context, orgID, id uuid.UUID, req *controller.DecisionRequest) (*controller.DecisionResult, error) {
	return m.decide(ctx, orgID, id, req)
}

type mockIntegrations struct {
	authorize  func(ctx context.Context, orgID, userID uuid.UUID, provider models.Provider) (string, error)
	callback   func(ctx context.Context, provider models.Provider, state, code string) (*models.JobWebsiteIntegration, error)
	disconnect func(ctx context.Context, orgID uuid.UUID, provider models.Provider) error
}

func (m *mockIntegrations) Authorize(ctx context.Context, orgID, userID uuid.UUID, provider models.Provider) (string, error) {
	return m.authorize(ctx, orgID, userID, provider)
}

func (m *mockIntegrations) Callback(ctx context.Context, provider models.Provider, state, code string) (*models.JobWebsiteIntegration, error) {
	return m.callback(ctx, provider, state, code)
}

func (m *mockIntegrations) Disconnect(ctx context.Context, orgID uuid.UUID, provider models.Provider) error {
	return m.disconnect(ctx, orgID, provider)
}

type mockCalendar struct {
	upcoming    func(ctx context.Context, orgID uuid.UUID) ([]calendar.Event, error)
	createEvent func(ctx context.Context, orgID uuid.UUID, in *calendar.EventInput) (*calendar.Event, error)
}

func (m *mockCalendar) Upcoming(ctx context.Context, orgID uuid.UUID) ([]calendar.Event, error) {
	return m.upcoming(ctx, orgID)
}

func (m *mockCalendar) CreateEvent(ctx context.Context, orgID uuid.UUID, in *calendar.EventInput) (*calendar.Event, error) {
	return m.createEvent(ctx, orgID, in)
}

type mockJobBoards struct {
	postToLinkedIn func(ctx context.Context, orgID, postID uuid.UUID) (*models.JobPost, error)
	applications   func(ctx context.Context, orgID, postID uuid.UUID) ([]jobboard.Application, error)
}

func (m *mockJobBoards) PostToLinkedIn(ctx context.Context, orgID, postID uuid.UUID) (*models.JobPost, error) {
	return m.postToLinkedIn(ctx, orgID, postID)
}

func (m *mockJobBoards) Applications(ctx context.Context, orgID, postID uuid.UUID) ([]jobboard.Application, error) {
	return m.applications(ctx, orgID, postID)
}
