// Package ocr turns resume files into plain text. PDFs go through a remote
// OCR service that reads them from a short-lived presigned URL; other
// document formats are converted locally.
package ocr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	e "github.com/gartstein/recruit/internal/recruit/errors"
	"github.com/gartstein/recruit/internal/recruit/storage"
	"go.uber.org/zap"
)

// PresignTTL is how long the OCR service may read the uploaded file.
const PresignTTL = 5 * time.Minute

// ObjectStore is the subset of the object storage the OCR client needs.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type Config struct {
	APIURL      string
	APIKey      string
	Timeout     time.Duration
	MaxAttempts int
	BaseDelay   time.Duration
}

type Client struct {
	httpClient  *http.Client
	store       ObjectStore
	apiURL      string
	apiKey      string
	maxAttempts int
	baseDelay   time.Duration
	logger      *zap.Logger
}

func NewClient(cfg Config, store ObjectStore, logger *zap.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay == 0 {
		cfg.BaseDelay = time.Second
	}
	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		store:       store,
		apiURL:      cfg.APIURL,
		apiKey:      cfg.APIKey,
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
		logger:      logger.Named("ocr_client"),
	}
}

type parseResponse struct {
	ParsedResults []struct {
		ParsedText string `json:"ParsedText"`
	} `json:"ParsedResults"`
	IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage `json:"ErrorMessage"`
}

type statusError struct {
	code int
}

func (s *statusError) Error() string {
	return fmt.Sprintf("ocr service returned status %d", s.code)
}

// ExtractPDF uploads data under a fresh key, hands a presigned URL to the
// OCR service and returns the text of all pages separated by blank lines.
func (c *Client) ExtractPDF(ctx context.Context, data []byte) (string, error) {
	key := storage.NewKey("ocr", "document.pdf")
	if err := c.store.Put(ctx, key, data, "application/pdf"); err != nil {
		return "", fmt.Errorf("%w: %v", e.ErrExtraction, err)
	}
	defer func() {
		if err := c.store.Delete(context.WithoutCancel(ctx), key); err != nil {
			c.logger.Warn("failed to delete temporary ocr object", zap.String("key", key), zap.Error(err))
		}
	}()

	fileURL, err := c.store.PresignGet(ctx, key, PresignTTL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", e.ErrExtraction, err)
	}

	return c.ParseURL(ctx, fileURL)
}

// ParseURL runs OCR on a document that the service can download from
// fileURL. Network failures, 429 and 5xx responses are retried with
// exponential backoff; a provider processing error is not.
func (c *Client) ParseURL(ctx context.Context, fileURL string) (string, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.baseDelay
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	policy.MaxElapsedTime = 0

	var text string
	attempt := 0
	op := func() error {
		attempt++
		var err error
		text, err = c.call(ctx, fileURL)
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("ocr attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	retries := backoff.WithMaxRetries(policy, uint64(c.maxAttempts-1))
	if err := backoff.RetryNotify(op, backoff.WithContext(retries, ctx), notify); err != nil {
		if errors.Is(err, e.ErrExtraction) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", e.ErrExtraction, err)
	}
	return text, nil
}

func (c *Client) call(ctx context.Context, fileURL string) (string, error) {
	form := url.Values{}
	form.Set("url", fileURL)
	form.Set("isTable", "true")
	form.Set("OCREngine", "2")
	form.Set("filetype", "PDF")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &statusError{code: resp.StatusCode}
	}

	var parsed parseResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: decode ocr response: %v", e.ErrExtraction, err)
	}
	if parsed.IsErroredOnProcessing {
		return "", fmt.Errorf("%w: %s", e.ErrExtraction, errorMessage(parsed.ErrorMessage))
	}

	pages := make([]string, 0, len(parsed.ParsedResults))
	for _, r := range parsed.ParsedResults {
		pages = append(pages, r.ParsedText)
	}
	return strings.Join(pages, "\n\n"), nil
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	if errors.Is(err, e.ErrExtraction) || errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// errorMessage accepts the provider's message as a string or a list.
func errorMessage(raw json.RawMessage) string {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "; ")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s
	}
	return "ocr processing error"
}
