package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gartstein/recruit/internal/recruit/auth"
	"github.com/gartstein/recruit/internal/recruit/calendar"
	"github.com/gartstein/recruit/internal/recruit/controller"
	e "github.com/gartstein/recruit/internal/recruit/errors"
	"github.com/gartstein/recruit/internal/recruit/ingestion"
	"github.com/gartstein/recruit/internal/recruit/models"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testSecret = "handlers-test-secret"

type fixture struct {
	api    *API
	mux    *runtime.ServeMux
	userID uuid.UUID
	orgID  uuid.UUID
	token  string
}

func newFixture(t *testing.T, svc Services) *fixture {
	t.Helper()
	api := NewAPI(auth.NewAuthenticator(testSecret, nil), svc, 1<<20, "", zaptest.NewLogger(t))
	api.now = func() time.Time { return time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC) }

	mux := runtime.NewServeMux()
	require.NoError(t, api.Register(mux))

	f := &fixture{api: api, mux: mux, userID: uuid.New(), orgID: uuid.New()}
	token, err := auth.GenerateToken(f.userID.String(), f.orgID.String(), testSecret, time.Hour)
	require.NoError(t, err)
	f.token = token
	return f
}

func (f *fixture) request(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) json(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	return f.request(method, path, r, "application/json")
}

type testEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var env testEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestAPI_Authentication(t *testing.T) {
	f := newFixture(t, Services{Candidates: &mockCandidates{
		list: func(_ context.Context, _ uuid.UUID, _ bool) ([]models.Candidate, error) {
			return nil, nil
		},
	}})

	t.Run("MissingToken", func(t *testing.T) {
		f.token = ""
		rec := f.json(http.MethodGet, "/api/candidates", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.False(t, env.Success)
		assert.Equal(t, "UNAUTHENTICATED", env.Error)
	})

	t.Run("NoOrganization", func(t *testing.T) {
		token, err := auth.GenerateToken(uuid.NewString(), "", testSecret, time.Hour)
		require.NoError(t, err)
		f.token = token
		rec := f.json(http.MethodGet, "/api/candidates", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "NO_ORGANIZATION", decodeEnvelope(t, rec).Error)
	})
}

func TestAPI_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		label   string
		message string
	}{
		{"NotFound", fmt.Errorf("candidate: %w", e.ErrNotFound), http.StatusNotFound, "NOT_FOUND", ""},
		{"InvalidInput", fmt.Errorf("%w: bad", e.ErrInvalidInput), http.StatusBadRequest, "INVALID_INPUT", ""},
		{"SchemaValidation", e.ErrSchemaValidation, http.StatusBadRequest, "INVALID_INPUT", ""},
		{"InvalidTransition", e.ErrInvalidTransition, http.StatusBadRequest, "INVALID_TRANSITION", ""},
		{"ExternalService", e.ErrExtraction, http.StatusServiceUnavailable, "EXTERNAL_SERVICE", ""},
		{"Internal", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL", "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Services{Candidates: &mockCandidates{
				get: func(_ context.Context, _, _ uuid.UUID) (*models.Candidate, error) {
					return nil, tt.err
				},
			}})
			rec := f.json(http.MethodGet, "/api/candidates/"+uuid.NewString(), "")
			assert.Equal(t, tt.code, rec.Code)
			env := decodeEnvelope(t, rec)
			assert.False(t, env.Success)
			assert.Equal(t, tt.label, env.Error)
			if tt.message != "" {
				assert.Equal(t, tt.message, env.Message)
			}
		})
	}
}

func TestAPI_InvalidPathID(t *testing.T) {
	f := newFixture(t, Services{Candidates: &mockCandidates{}})
	rec := f.json(http.MethodGet, "/api/candidates/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_Upload(t *testing.T) {
	var gotFiles []ingestion.File
	var gotOrg uuid.UUID
	f := newFixture(t, Services{Ingestion: &mockIngester{
		process: func(_ context.Context, orgID uuid.UUID, files []ingestion.File) *ingestion.Result {
			gotOrg, gotFiles = orgID, files
			return &ingestion.Result{
				Uploaded: []ingestion.UploadedFile{{Name: "a.pdf", CandidateID: uuid.New(), Email: "a@example.com"}},
				Failed:   []ingestion.FailedFile{{Name: "b.pdf", Error: "schema validation failed"}},
			}
		},
	}})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, content := range map[string]string{"a.pdf": "%PDF-a", "b.pdf": "%PDF-b"} {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	rec := f.request(http.MethodPost, "/api/upload", &body, mw.FormDataContentType())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp uploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Len(t, resp.Uploaded, 1)
	require.Len(t, resp.Failed, 1)
	assert.Equal(t, "b.pdf", resp.Failed[0].Name)

	assert.Equal(t, f.orgID, gotOrg)
	require.Len(t, gotFiles, 2)
	for _, file := range gotFiles {
		assert.True(t, bytes.HasPrefix(file.Data, []byte("%PDF-")))
	}
}

func TestAPI_UploadWithoutFiles(t *testing.T) {
	f := newFixture(t, Services{Ingestion: &mockIngester{}})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("note", "no files"))
	require.NoError(t, mw.Close())

	rec := f.request(http.MethodPost, "/api/upload", &body, mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_ScoreCandidate(t *testing.T) {
	candidateID := uuid.New()

	t.Run("NoMatches", func(t *testing.T) {
		f := newFixture(t, Services{Matches: &mockMatches{
			scoreCandidate: func(_ context.Context, _, id uuid.UUID) ([]models.Match, error) {
				assert.Equal(t, candidateID, id)
				return nil, nil
			},
		}})
		rec := f.json(http.MethodPost, "/api/matches", fmt.Sprintf(`{"candidateId":%q}`, candidateID))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.JSONEq(t, `"No matches met the minimum threshold"`, string(resp["message"]))
		assert.JSONEq(t, `[]`, string(resp["matches"]))
	})

	t.Run("Matches", func(t *testing.T) {
		f := newFixture(t, Services{Matches: &mockMatches{
			scoreCandidate: func(_ context.Context, _, id uuid.UUID) ([]models.Match, error) {
				return []models.Match{{ID: uuid.New(), CandidateID: id, Score: 72}}, nil
			},
		}})
		rec := f.json(http.MethodPost, "/api/matches", fmt.Sprintf(`{"candidateId":%q}`, candidateID))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp matchesResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Found 1 matches", resp.Message)
		require.Len(t, resp.Matches, 1)
		assert.Equal(t, 72, resp.Matches[0].Score)
	})

	t.Run("MissingCandidate", func(t *testing.T) {
		f := newFixture(t, Services{Matches: &mockMatches{}})
		rec := f.json(http.MethodPost, "/api/matches", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAPI_ExportMatches(t *testing.T) {
	postID := uuid.New()
	f := newFixture(t, Services{Matches: &mockMatches{
		export: func(_ context.Context, _, id uuid.UUID, w io.Writer, _ time.Time) (string, error) {
			assert.Equal(t, postID, id)
			_, err := w.Write([]byte("xlsx-bytes"))
			return "matches_backend_20250314.xlsx", err
		},
	}})

	rec := f.json(http.MethodGet, "/api/matches/export?postId="+postID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "matches_backend_20250314.xlsx")
	assert.Equal(t, "xlsx-bytes", rec.Body.String())
}

func TestAPI_UpdateMatchStatus(t *testing.T) {
	f := newFixture(t, Services{Workflow: &mockWorkflow{
		updateStatus: func(_ context.Context, _, _ uuid.UUID, status models.MatchStatus) (*models.Match, error) {
			if status == models.MatchHired {
				return nil, fmt.Errorf("%w: NEW -> HIRED", e.ErrInvalidTransition)
			}
			return &models.Match{Status: status}, nil
		},
	}})

	rec := f.json(http.MethodPatch, "/api/matches/"+uuid.NewString(), `{"status":"HIRED"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_TRANSITION", decodeEnvelope(t, rec).Error)

	rec = f.json(http.MethodPatch, "/api/matches/"+uuid.NewString(), `{"status":"CONTACTED"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeEnvelope(t, rec).Success)
}

func TestAPI_Decision(t *testing.T) {
	f := newFixture(t, Services{Workflow: &mockWorkflow{
		decide: func(_ context.Context, _, _ uuid.UUID, req *controller.DecisionRequest) (*controller.DecisionResult, error) {
			assert.Equal(t, "Great fit", req.Notes)
			return &controller.DecisionResult{
				Match:      &models.Match{Status: models.MatchHired},
				EmailError: "smtp unavailable",
			}, nil
		},
	}})

	rec := f.json(http.MethodPost, "/api/matches/"+uuid.NewString()+"/decision", `{"decision":"accept","notes":"Great fit"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.Contains(t, env.Message, "Candidate hired")
	assert.Contains(t, env.Message, "could not be sent")
}

func TestAPI_SendInvitations(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	f := newFixture(t, Services{Workflow: &mockWorkflow{
		sendInvitations: func(_ context.Context, _ uuid.UUID, req *controller.InvitationRequest) ([]controller.InvitationResult, error) {
			assert.Equal(t, ids, req.MatchIDs)
			return []controller.InvitationResult{
				{MatchID: ids[0], Success: true, EmailSent: true},
				{MatchID: ids[1], Success: false, Error: "smtp unavailable"},
			}, nil
		},
	}})

	body := fmt.Sprintf(`{"matchIds":[%q,%q]}`, ids[0], ids[1])
	rec := f.json(http.MethodPost, "/api/matches/invitations", body)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "Sent 1 of 2 invitations", env.Message)

	var results []controller.InvitationResult
	require.NoError(t, json.Unmarshal(env.Data, &results))
	assert.Len(t, results, 2)
}

func TestAPI_JobPosts(t *testing.T) {
	postID := uuid.New()
	var author uuid.UUID
	f := newFixture(t, Services{JobPosts: &mockJobPosts{
		create: func(_ context.Context, _, authorID uuid.UUID, in *controller.JobPostInput) (*models.JobPost, error) {
			author = authorID
			return &models.JobPost{ID: postID, Title: in.Title}, nil
		},
		toggleClosed: func(_ context.Context, _, _ uuid.UUID) (*models.JobPost, error) {
			return &models.JobPost{ID: postID, Status: models.JobPostClosed}, nil
		},
		list: func(_ context.Context, _ uuid.UUID, archived bool) ([]models.JobPost, error) {
			assert.True(t, archived)
			return nil, nil
		},
	}})

	rec := f.json(http.MethodPost, "/api/jobposts", `{"title":"Backend Engineer"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, f.userID, author)

	rec = f.json(http.MethodPost, "/api/jobposts/"+postID.String()+"/close", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Job post closed", decodeEnvelope(t, rec).Message)

	rec = f.json(http.MethodGet, "/api/jobposts?archived=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(decodeEnvelope(t, rec).Data))
}

func TestAPI_Meetings(t *testing.T) {
	f := newFixture(t, Services{Calendar: &mockCalendar{
		createEvent: func(_ context.Context, _ uuid.UUID, in *calendar.EventInput) (*calendar.Event, error) {
			assert.True(t, in.WithMeet)
			return &calendar.Event{ID: "evt-1", MeetLink: "https://meet.google.com/abc-defg-hij"}, nil
		},
	}})

	body := `{"summary":"Interview","start":"2025-03-20T10:00:00Z","end":"2025-03-20T11:00:00Z"}`
	rec := f.json(http.MethodPost, "/api/meetings/create", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "meet.google.com")
}

func TestAPI_DisconnectCalendar(t *testing.T) {
	f := newFixture(t, Services{Integrations: &mockIntegrations{
		disconnect: func(_ context.Context, _ uuid.UUID, provider models.Provider) error {
			assert.Equal(t, models.ProviderGoogle, provider)
			return fmt.Errorf("integration: %w", e.ErrNotFound)
		},
	}})

	rec := f.json(http.MethodDelete, "/api/calendar/integration", "")
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "NOT_FOUND", env.Error)
}

func TestAPI_OAuth(t *testing.T) {
	var gotState, gotCode string
	f := newFixture(t, Services{Integrations: &mockIntegrations{
		authorize: func(_ context.Context, orgID, _ uuid.UUID, provider models.Provider) (string, error) {
			assert.Equal(t, models.ProviderLinkedIn, provider)
			return "https://provider.example.com/auth?state=xyz", nil
		},
		callback: func(_ context.Context, _ models.Provider, state, code string) (*models.JobWebsiteIntegration, error) {
			gotState, gotCode = state, code
			if state == "stale" {
				return nil, e.ErrNotFound
			}
			return &models.JobWebsiteIntegration{Provider: models.ProviderLinkedIn}, nil
		},
	}})
	f.api.appURL = "https://app.example.com/"

	t.Run("AuthorizeRedirects", func(t *testing.T) {
		rec := f.json(http.MethodGet, "/api/oauth/authorize/linkedin", "")
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "https://provider.example.com/auth?state=xyz", rec.Header().Get("Location"))
	})

	t.Run("CallbackWithoutSession", func(t *testing.T) {
		f.token = ""
		rec := f.json(http.MethodGet, "/api/oauth/callback/linkedin?state=abc&code=123", "")
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "abc", gotState)
		assert.Equal(t, "123", gotCode)
		assert.Equal(t, "https://app.example.com/settings/integrations?connected=linkedin", rec.Header().Get("Location"))
	})

	t.Run("CallbackStaleState", func(t *testing.T) {
		f.token = ""
		rec := f.json(http.MethodGet, "/api/oauth/callback/linkedin?state=stale&code=123", "")
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Contains(t, rec.Header().Get("Location"), "error=NOT_FOUND")
	})
}
