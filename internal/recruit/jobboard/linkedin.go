// Package jobboard publishes job posts to external job boards and reads
// back the applications they collect.
package jobboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	e "github.com/gartstein/recruit/internal/recruit/errors"
	"github.com/gartstein/recruit/internal/recruit/models"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	DefaultLinkedInAPI = "https://api.linkedin.com/v2"
	linkedInVersion    = "202401"
	maxErrorBody       = 2048
)

var employmentTypes = map[models.EmploymentType]string{
	models.FullTime:   "FULL_TIME",
	models.PartTime:   "PART_TIME",
	models.Contract:   "CONTRACT",
	models.Internship: "INTERNSHIP",
	models.Temporary:  "TEMPORARY",
}

var workplaceTypes = map[models.WorkplaceType]string{
	models.Onsite: "ON_SITE",
	models.Hybrid: "HYBRID",
	models.Remote: "REMOTE",
}

// Application is one candidate application received on LinkedIn.
type Application struct {
	ID        string    `json:"id"`
	JobID     string    `json:"jobId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	ResumeURL string    `json:"resumeUrl,omitempty"`
	AppliedAt time.Time `json:"appliedAt"`
}

type LinkedIn struct {
	baseURL string
	orgURN  string
	logger  *zap.Logger
}

func NewLinkedIn(baseURL, organizationURN string, logger *zap.Logger) *LinkedIn {
	if baseURL == "" {
		baseURL = DefaultLinkedInAPI
	}
	return &LinkedIn{
		baseURL: strings.TrimRight(baseURL, "/"),
		orgURN:  organizationURN,
		logger:  logger.Named("linkedin"),
	}
}

type jobPosting struct {
	IntegrationContext  string   `json:"integrationContext"`
	CompanyApplyURL     string   `json:"companyApplyUrl,omitempty"`
	Description         string   `json:"description"`
	EmploymentStatus    string   `json:"employmentStatus"`
	ExternalJobID       string   `json:"externalJobPostingId"`
	ListedAt            int64    `json:"listedAt"`
	JobPostingOperation string   `json:"jobPostingOperationType"`
	Title               string   `json:"title"`
	Location            string   `json:"location,omitempty"`
	WorkplaceTypes      []string `json:"workplaceTypes"`
	CompanyName         string   `json:"companyName,omitempty"`
}

// PostJob publishes post and returns the LinkedIn job id.
func (l *LinkedIn) PostJob(ctx context.Context, token *oauth2.Token, post *models.JobPost, now time.Time) (string, error) {
	body := jobPosting{
		IntegrationContext:  l.orgURN,
		Description:         post.Description,
		EmploymentStatus:    employmentTypes[post.EmploymentType],
		ExternalJobID:       post.ID.String(),
		ListedAt:            now.UnixMilli(),
		JobPostingOperation: "CREATE",
		Title:               post.Title,
		Location:            post.Location,
		WorkplaceTypes:      []string{workplaceTypes[post.WorkplaceType]},
		CompanyName:         post.CompanyName,
	}
	raw, err := json.Marshal(map[string][]jobPosting{"elements": {body}})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/simpleJobPostings", bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var res struct {
		Elements []struct {
			ID     string `json:"id"`
			Status int    `json:"status"`
		} `json:"elements"`
	}
	resp, err := l.do(ctx, token, req, &res)
	if err != nil {
		return "", err
	}

	id := resp.Header.Get("X-RestLi-Id")
	if id == "" && len(res.Elements) > 0 {
		id = res.Elements[0].ID
	}
	if id == "" {
		return "", fmt.Errorf("%w: linkedin returned no job id", e.ErrExternalService)
	}
	l.logger.Info("Job posted to LinkedIn", zap.String("post_id", post.ID.String()), zap.String("linkedin_job_id", id))
	return id, nil
}

type applicationElement struct {
	ID        string `json:"id"`
	JobID     string `json:"jobPosting"`
	AppliedAt int64  `json:"appliedAt"`
	Applicant *struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"emailAddress"`
		Phone     string `json:"phoneNumber"`
	} `json:"applicant"`
	Resume *struct {
		URL string `json:"downloadUrl"`
	} `json:"resume"`
}

// Applications lists the applications of one LinkedIn job. Applications
// without an applicant name or e-mail are skipped.
func (l *LinkedIn) Applications(ctx context.Context, token *oauth2.Token, jobID string) ([]Application, error) {
	q := url.Values{"q": {"jobPosting"}, "jobPosting": {jobID}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/jobApplications?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var res struct {
		Elements []applicationElement `json:"elements"`
	}
	if _, err := l.do(ctx, token, req, &res); err != nil {
		return nil, err
	}

	apps := make([]Application, 0, len(res.Elements))
	for _, el := range res.Elements {
		if el.Applicant == nil || el.Applicant.Email == "" {
			l.logger.Warn("Skipping application without applicant metadata", zap.String("application_id", el.ID))
			continue
		}
		name := strings.TrimSpace(el.Applicant.FirstName + " " + el.Applicant.LastName)
		if name == "" {
			l.logger.Warn("Skipping application without applicant name", zap.String("application_id", el.ID))
			continue
		}
		app := Application{
			ID:        el.ID,
			JobID:     jobID,
			Name:      name,
			Email:     el.Applicant.Email,
			Phone:     el.Applicant.Phone,
			AppliedAt: time.UnixMilli(el.AppliedAt).UTC(),
		}
		if el.Resume != nil {
			app.ResumeURL = el.Resume.URL
		}
		apps = append(apps, app)
	}
	return apps, nil
}

func (l *LinkedIn) do(ctx context.Context, token *oauth2.Token, req *http.Request, out interface{}) (*http.Response, error) {
	req.Header.Set("LinkedIn-Version", linkedInVersion)
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: linkedin: %v", e.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: linkedin status %d: %s", e.ErrExternalService, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			return nil, fmt.Errorf("%w: decode linkedin response: %v", e.ErrExternalService, err)
		}
	}
	return resp, nil
}
