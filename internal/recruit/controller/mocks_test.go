package controller

import (
	"context"
	"sync"
	"time"

	"github.com/gartstein/recruit/internal/recruit/calendar"
	"github.com/gartstein/recruit/internal/recruit/events"
	"github.com/gartstein/recruit/internal/recruit/jobboard"
	"github.com/gartstein/recruit/internal/recruit/llm"
	"github.com/gartstein/recruit/internal/recruit/models"
	"github.com/gartstein/recruit/internal/recruit/notify"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// MockRepository implements every repository interface of the package.
// Only the functions a test sets may be called.
type MockRepository struct {
	listCandidates           func(context.Context, uuid.UUID, bool) ([]models.Candidate, error)
	getCandidate             func(context.Context, uuid.UUID, uuid.UUID) (*models.Candidate, error)
	toggleCandidate          func(context.Context, uuid.UUID, uuid.UUID, time.Time) (*models.Candidate, error)
	deleteCandidate          func(context.Context, uuid.UUID, uuid.UUID) error
	createJobPost            func(context.Context, *models.JobPost) error
	getJobPost               func(context.Context, uuid.UUID, uuid.UUID) (*models.JobPost, error)
	listJobPosts             func(context.Context, uuid.UUID, bool) ([]models.JobPost, error)
	listEligibleJobPosts     func(context.Context, uuid.UUID) ([]models.JobPost, error)
	updateJobPost            func(context.Context, *models.JobPostUpdate) error
	toggleJobPost            func(context.Context, uuid.UUID, uuid.UUID, time.Time) (*models.JobPost, error)
	setJobPostStatus         func(context.Context, uuid.UUID, uuid.UUID, models.JobPostStatus) error
	setLinkedInJobID         func(context.Context, uuid.UUID, uuid.UUID, string) error
	deleteJobPost            func(context.Context, uuid.UUID, uuid.UUID) error
	upsertMatch              func(context.Context, *models.Match) (*models.Match, error)
	listMatchesByPost        func(context.Context, uuid.UUID, uuid.UUID) ([]models.Match, error)
	getMatch                 func(context.Context, uuid.UUID, uuid.UUID) (*models.Match, error)
	updateMatch              func(context.Context, uuid.UUID, uuid.UUID, map[string]interface{}) error
	getIntegration           func(context.Context, uuid.UUID, models.Provider) (*models.JobWebsiteIntegration, error)
	upsertIntegration        func(context.Context, *models.JobWebsiteIntegration) error
	deleteIntegration        func(context.Context, uuid.UUID, models.Provider) error
	createOAuthState         func(context.Context, *models.OAuthState) error
	consumeOAuthState        func(context.Context, string, models.Provider, time.Time) (*models.OAuthState, error)
	deleteExpiredOAuthStates func(context.Context, time.Time) (int64, error)
}

func (m *MockRepository) ListCandidates(ctx context.Context, orgID uuid.UUID, archived bool) ([]models.Candidate, error) {
	return m.listCandidates(ctx, orgID, archived)
}

func (m *MockRepository) GetCandidate(ctx context.Context, orgID, id uuid.UUID) (*models.Candidate, error) {
	return m.getCandidate(ctx, orgID, id)
}

func (m *MockRepository) ToggleCandidateArchive(ctx context.Context, orgID, id uuid.UUID, now time.Time) (*models.Candidate, error) {
	return m.toggleCandidate(ctx, orgID, id, now)
}

func (m *MockRepository) DeleteCandidate(ctx context.Context, orgID, id uuid.UUID) error {
	return m.deleteCandidate(ctx, orgID, id)
}

func (m *MockRepository) CreateJobPost(ctx context.Context, post *models.JobPost) error {
	return m.createJobPost(ctx, post)
}

func (m *MockRepository) GetJobPost(ctx context.Context, orgID, id uuid.UUID) (*models.JobPost, error) {
	return m.getJobPost(ctx, orgID, id)
}

func (m *MockRepository) ListJobPosts(ctx context.Context, orgID uuid.UUID, archived bool) ([]models.JobPost, error) {
	return m.listJobPosts(ctx, orgID, archived)
}

func (m *MockRepository) ListEligibleJobPosts(ctx context.Context, orgID uuid.UUID) ([]models.JobPost, error) {
	return m.listEligibleJobPosts(ctx, orgID)
}

func (m *MockRepository) UpdateJobPost(ctx context.Context, update *models.JobPostUpdate) error {
	return m.updateJobPost(ctx, update)
}

func (m *MockRepository) ToggleJobPostArchive(ctx context.Context, orgID, id uuid.UUID, now time.Time) (*models.JobPost, error) {
	return m.toggleJobPost(ctx, orgID, id, now)
}

func (m *MockRepository) SetJobPostStatus(ctx context.Context, orgID, id uuid.UUID, status models.JobPostStatus) error {
	return m.setJobPostStatus(ctx, orgID, id, status)
}

func (m *MockRepository) SetLinkedInJobID(ctx context.Context, orgID, id uuid.UUID, linkedInID string) error {
	return m.setLinkedInJobID(ctx, orgID, id, linkedInID)
}

func (m *MockRepository) DeleteJobPost(ctx context.Context, orgID, id uuid.UUID) error {
	return m.deleteJobPost(ctx, orgID, id)
}

func (m *MockRepository) UpsertMatch(ctx context.Context, match *models.Match) (*models.Match, error) {
	return m.upsertMatch(ctx, match)
}

func (m *MockRepository) ListMatchesByPost(ctx context.Context, orgID, postID uuid.UUID) ([]models.Match, error) {
	return m.listMatchesByPost(ctx, orgID, postID)
}

func (m *MockRepository) GetMatch(ctx context.Context, orgID, id uuid.UUID) (*models.Match, error) {
	return m.getMatch(ctx, orgID, id)
}

func (m *MockRepository) UpdateMatch(ctx context.Context, orgID, id uuid.UUID, fields map[string]interface{}) error {
	return m.updateMatch(ctx, orgID, id, fields)
}

func (m *MockRepository) GetIntegration(ctx context.Context, orgID uuid.UUID, provider models.Provider) (*models.JobWebsiteIntegration, error) {
	return m.getIntegration(ctx, orgID, provider)
}

func (m *MockRepository) UpsertIntegration(ctx context.Context, integration *models.JobWebsiteIntegration) error {
	return m.upsertIntegration(ctx, integration)
}

func (m *MockRepository) DeleteIntegration(ctx context.Context, orgID uuid.UUID, provider models.Provider) error {
	return m.deleteIntegration(ctx, orgID, provider)
}

func (m *MockRepository) CreateOAuthState(ctx context.Context, state *models.OAuthState) error {
	return m.createOAuthState(ctx, state)
}

func (m *MockRepository) ConsumeOAuthState(ctx context.Context, state string, provider models.Provider, now time.Time) (*models.OAuthState, error) {
	return m.consumeOAuthState(ctx, state, provider, now)
}

func (m *MockRepository) DeleteExpiredOAuthStates(ctx context.Context, now time.Time) (int64, error) {
	return m.deleteExpiredOAuthStates(ctx, now)
}

// MockProducer records produced events.
type MockProducer struct {
	mu     sync.Mutex
	events []events.Event
}

func (m *MockProducer) Produce(event events.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *MockProducer) Events() []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]events.Event(nil), m.events...)
}

type MockScorer struct {
	score func(context.Context, *models.Candidate, *models.JobPost) (*llm.ScoreResult, error)
}

func (m *MockScorer) Score(ctx context.Context, c *models.Candidate, p *models.JobPost) (*llm.ScoreResult, error) {
	return m.score(ctx, c, p)
}

// MockMailer records sent messages; send decides the outcome.
type MockMailer struct {
	mu   sync.Mutex
	sent []*notify.Message
	send func(*notify.Message) error
}

func (m *MockMailer) Send(_ context.Context, msg *notify.Message) error {
	if m.send != nil {
		if err := m.send(msg); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *MockMailer) Sent() []*notify.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*notify.Message(nil), m.sent...)
}

type MockEventCreator struct {
	mu     sync.Mutex
	inputs []*calendar.EventInput
	create func(*calendar.EventInput) (*calendar.Event, error)
}

func (m *MockEventCreator) CreateEvent(_ context.Context, _ uuid.UUID, in *calendar.EventInput) (*calendar.Event, error) {
	m.mu.Lock()
	m.inputs = append(m.inputs, in)
	m.mu.Unlock()
	return m.create(in)
}

type MockCalendar struct {
	createEvent func(context.Context, *oauth2.Token, *calendar.EventInput) (*calendar.Event, *oauth2.Token, error)
	upcoming    func(context.Context, *oauth2.Token, time.Time, int64) ([]calendar.Event, *oauth2.Token, error)
}

func (m *MockCalendar) CreateEvent(ctx context.Context, token *oauth2.Token, in *calendar.EventInput) (*calendar.Event, *oauth2.Token, error) {
	return m.createEvent(ctx, token, in)
}

func (m *MockCalendar) Upcoming(ctx context.Context, token *oauth2.Token, now time.Time, limit int64) ([]calendar.Event, *oauth2.Token, error) {
	return m.upcoming(ctx, token, now, limit)
}

type MockOAuth struct {
	authCodeURL func(models.Provider, string) (string, error)
	exchange    func(context.Context, models.Provider, string) (*oauth2.Token, error)
}

func (m *MockOAuth) AuthCodeURL(provider models.Provider, state string) (string, error) {
	return m.authCodeURL(provider, state)
}

func (m *MockOAuth) Exchange(ctx context.Context, provider models.Provider, code string) (*oauth2.Token, error) {
	return m.exchange(ctx, provider, code)
}

type MockJobBoard struct {
	postJob      func(context.Context, *oauth2.Token, *models.JobPost, time.Time) (string, error)
	applications func(context.Context, *oauth2.Token, string) ([]jobboard.Application, error)
}

func (m *MockJobBoard) PostJob(ctx context.Context, token *oauth2.Token, post *models.JobPost, now time.Time) (string, error) {
	return m.postJob(ctx, token, post, now)
}

func (m *MockJobBoard) Applications(ctx context.Context, token *oauth2.Token, jobID string) ([]jobboard.Application, error) {
	return m.applications(ctx, token, jobID)
}
