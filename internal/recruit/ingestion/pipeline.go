// Package ingestion runs uploaded resumes through storage, text
// extraction, structured extraction and candidate persistence. Files of
// one upload are processed one at a time behind a rate limiter; a failing
// file never affects the others.
package ingestion

import (
	"context"
	"fmt"
	"path"
	"time"

	e "github.com/gartstein/recruit/internal/recruit/errors"
	"github.com/gartstein/recruit/internal/recruit/models"
	"github.com/gartstein/recruit/internal/recruit/ocr"
	"github.com/gartstein/recruit/internal/recruit/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Limiter paces the files of one upload.
type Limiter interface {
	Wait(ctx context.Context) error
}

// NewLimiter allows one file per interval. A zero interval disables pacing.
func NewLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

type TextExtractor interface {
	ExtractPDF(ctx context.Context, data []byte) (string, error)
}

type ProfileExtractor interface {
	Extract(ctx context.Context, text string) (*models.CandidateProfile, error)
}

type CandidateStore interface {
	MarkCandidateProcessing(ctx context.Context, orgID uuid.UUID, profile *models.CandidateProfile, resumeKey string) (*models.Candidate, error)
	ReplaceCandidateDetails(ctx context.Context, candidateID uuid.UUID, profile *models.CandidateProfile) error
	SetCandidateProcessing(ctx context.Context, candidateID uuid.UUID, processing bool) error
}

// MatchTrigger starts match scoring for a freshly persisted candidate.
type MatchTrigger interface {
	CandidateIngested(ctx context.Context, orgID, candidateID uuid.UUID)
}

// File is one uploaded resume.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type UploadedFile struct {
	Name        string    `json:"name"`
	CandidateID uuid.UUID `json:"candidateId"`
	Email       string    `json:"email"`
}

type FailedFile struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// Result aggregates the outcome of every file of an upload.
type Result struct {
	Uploaded []UploadedFile `json:"uploaded"`
	Failed   []FailedFile   `json:"failed"`
}

type Pipeline struct {
	store      ObjectStore
	ocr        TextExtractor
	convert    func(name string, data []byte) (string, error)
	extractor  ProfileExtractor
	candidates CandidateStore
	trigger    MatchTrigger
	limiter    Limiter
	logger     *zap.Logger
}

func NewPipeline(
	store ObjectStore,
	ocrClient TextExtractor,
	extractor ProfileExtractor,
	candidates CandidateStore,
	trigger MatchTrigger,
	limiter Limiter,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		store:      store,
		ocr:        ocrClient,
		convert:    ocr.ConvertDocument,
		extractor:  extractor,
		candidates: candidates,
		trigger:    trigger,
		limiter:    limiter,
		logger:     logger.Named("ingestion"),
	}
}

// Process ingests files in order. It only returns early when ctx is done;
// the remaining files are then reported as failed.
func (p *Pipeline) Process(ctx context.Context, orgID uuid.UUID, files []File) *Result {
	result := &Result{Uploaded: []UploadedFile{}, Failed: []FailedFile{}}

	for i, f := range files {
		if err := p.limiter.Wait(ctx); err != nil {
			for _, rest := range files[i:] {
				result.Failed = append(result.Failed, FailedFile{Name: rest.Name, Error: err.Error()})
			}
			break
		}

		uploaded, err := p.processFile(ctx, orgID, f)
		if err != nil {
			p.logger.Error("failed to ingest file",
				zap.String("file", f.Name),
				zap.String("organization_id", orgID.String()),
				zap.Error(err),
			)
			result.Failed = append(result.Failed, FailedFile{Name: f.Name, Error: err.Error()})
			continue
		}
		result.Uploaded = append(result.Uploaded, *uploaded)
	}

	p.logger.Info("upload processed",
		zap.String("organization_id", orgID.String()),
		zap.Int("uploaded", len(result.Uploaded)),
		zap.Int("failed", len(result.Failed)),
	)
	return result
}

func (p *Pipeline) processFile(ctx context.Context, orgID uuid.UUID, f File) (*UploadedFile, error) {
	if len(f.Data) == 0 {
		return nil, fmt.Errorf("%w: empty file", e.ErrInvalidInput)
	}
	if !ocr.Supported(f.Name) && !ocr.IsPDF(f.Name, f.Data) {
		return nil, fmt.Errorf("%w: unsupported file type %q", e.ErrInvalidInput, path.Ext(f.Name))
	}

	key := storage.NewKey(path.Join("resumes", orgID.String()), f.Name)
	if err := p.store.Put(ctx, key, f.Data, contentType(f)); err != nil {
		return nil, err
	}

	text, err := p.extractText(ctx, f)
	if err != nil {
		return nil, err
	}

	profile, err := p.extractor.Extract(ctx, text)
	if err != nil {
		return nil, err
	}

	candidate, err := p.candidates.MarkCandidateProcessing(ctx, orgID, profile, key)
	if err != nil {
		return nil, err
	}
	if err := p.candidates.ReplaceCandidateDetails(ctx, candidate.ID, profile); err != nil {
		if clearErr := p.candidates.SetCandidateProcessing(context.WithoutCancel(ctx), candidate.ID, false); clearErr != nil {
			p.logger.Warn("failed to clear processing flag",
				zap.String("candidate_id", candidate.ID.String()),
				zap.Error(clearErr),
			)
		}
		return nil, err
	}

	p.trigger.CandidateIngested(ctx, orgID, candidate.ID)

	return &UploadedFile{Name: f.Name, CandidateID: candidate.ID, Email: candidate.Email}, nil
}

func (p *Pipeline) extractText(ctx context.Context, f File) (string, error) {
	if ocr.IsPDF(f.Name, f.Data) {
		return p.ocr.ExtractPDF(ctx, f.Data)
	}
	return p.convert(f.Name, f.Data)
}

func contentType(f File) string {
	if f.ContentType != "" {
		return f.ContentType
	}
	if ocr.IsPDF(f.Name, f.Data) {
		return "application/pdf"
	}
	return "application/octet-stream"
}
