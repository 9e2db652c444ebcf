package handlers

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gartstein/recruit/internal/recruit/auth"
	"github.com/gartstein/recruit/internal/recruit/controller"
	e "github.com/gartstein/recruit/internal/recruit/errors"
	"github.com/gartstein/recruit/internal/recruit/export"
	"github.com/gartstein/recruit/internal/recruit/ingestion"
	"github.com/gartstein/recruit/internal/recruit/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type uploadResponse struct {
	Success  bool                     `json:"success"`
	Message  string                   `json:"message,omitempty"`
	Uploaded []ingestion.UploadedFile `json:"uploaded"`
	Failed   []ingestion.FailedFile   `json:"failed"`
}

type matchesResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Matches []models.Match `json:"matches"`
}

// upload ingests the multipart "files" field. Per-file failures are
// reported in the body; the request itself succeeds.
func (a *API) upload(w http.ResponseWriter, r *http.Request, _ map[string]string, sess auth.Session) {
	r.Body = http.MaxBytesReader(w, r.Body, a.maxUploadSize)
	if err := r.ParseMultipartForm(a.maxUploadSize); err != nil {
		a.fail(w, r, fmt.Errorf("%w: invalid multipart upload: %v", e.ErrInvalidInput, err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		a.fail(w, r, fmt.Errorf("%w: no files uploaded", e.ErrInvalidInput))
		return
	}

	files := make([]ingestion.File, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			a.fail(w, r, fmt.Errorf("%w: read %s: %v", e.ErrInvalidInput, fh.Filename, err))
			return
		}
		files = append(files, ingestion.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	res := a.Ingestion.Process(r.Context(), sess.OrganizationID, files)
	a.logger.Info("Upload processed",
		zap.String("organization_id", sess.OrganizationID.String()),
		zap.Int("uploaded", len(res.Uploaded)),
		zap.Int("failed", len(res.Failed)),
	)

	uploaded, failed := res.Uploaded, res.Failed
	if uploaded == nil {
		uploaded = []ingestion.UploadedFile{}
	}
	if failed == nil {
		failed = []ingestion.FailedFile{}
	}
	writeJSON(w, http.StatusOK, uploadResponse{
		Success:  len(uploaded) > 0,
		Message:  fmt.Sprintf("Processed %d of %d files", len(uploaded), len(files)),
		Uploaded: uploaded,
		Failed:   failed,
	})
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (a *API) scoreCandidate(w http.ResponseWriter, r *http.Request, _ map[string]string, sess auth.Session) {
	var body struct {
		CandidateID uuid.UUID `json:"candidateId"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		a.fail(w, r, err)
		return
	}
	if body.CandidateID == uuid.Nil {
		a.fail(w, r, fmt.Errorf("%w: candidateId is required", e.ErrInvalidInput))
		return
	}

	matches, err := a.Matches.ScoreCandidate(r.Context(), sess.OrganizationID, body.CandidateID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if len(matches) == 0 {
		writeJSON(w, http.StatusOK, matchesResponse{
			Success: true,
			Message: "No matches met the minimum threshold",
			Matches: []models.Match{},
		})
		return
	}
	writeJSON(w, http.StatusOK, matchesResponse{
		Success: true,
		Message: fmt.Sprintf("Found %d matches", len(matches)),
		Matches: matches,
	})
}

func (a *API) listMatches(w http.ResponseWriter, r *http.Request, _ map[string]string, sess auth.Session) {
	postID, err := queryID(r, "postId", true)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	matches, err := a.Matches.ListByPost(r.Context(), sess.OrganizationID, postID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if matches == nil {
		matches = []models.Match{}
	}
	a.ok(w, "", matches)
}

func (a *API) exportMatches(w http.ResponseWriter, r *http.Request, _ map[string]string, sess auth.Session) {
	postID, err := queryID(r, "postId", true)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	// Buffered so that a failure can still be reported as JSON.
	var buf bytes.Buffer
	name, err := a.Matches.Export(r.Context(), sess.OrganizationID, postID, &buf, a.now())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (a *API) updateMatchStatus(w http.ResponseWriter, r *http.Request, params map[string]string, sess auth.Session) {
	id, err := pathID(params, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var body struct {
		Status models.MatchStatus `json:"status"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		a.fail(w, r, err)
		return
	}
	match, err := a.Workflow.UpdateStatus(r.Context(), sess.OrganizationID, id, body.Status)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, "Status updated", match)
}

func (a *API) setFeedback(w http.ResponseWriter, r *http.Request, params map[string]string, sess auth.Session) {
	id, err := pathID(params, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var body struct {
		Feedback *int `json:"feedback"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		a.fail(w, r, err)
		return
	}
	if body.Feedback == nil {
		a.fail(w, r, fmt.Errorf("%w: feedback is required", e.ErrInvalidInput))
		return
	}
	match, err := a.Workflow.SetFeedback(r.Context(), sess.OrganizationID, id, *body.Feedback)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, "Feedback saved", match)
}

func (a *API) decide(w http.ResponseWriter, r *http.Request, params map[string]string, sess auth.Session) {
	id, err := pathID(params, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req controller.DecisionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.Workflow.Decide(r.Context(), sess.OrganizationID, id, &req)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	message := "Candidate rejected"
	if req.Decision == controller.DecisionAccept {
		message = "Candidate hired"
	}
	if !res.EmailSent {
		message += ", but the notification e-mail could not be sent"
	}
	a.ok(w, message, res)
}

func (a *API) sendInvitations(w http.ResponseWriter, r *http.Request, _ map[string]string, sess auth.Session) {
	var req controller.InvitationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	results, err := a.Workflow.SendInvitations(r.Context(), sess.OrganizationID, &req)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	sent := 0
	for _, res := range results {
		if res.EmailSent {
			sent++
		}
	}
	a.ok(w, fmt.Sprintf("Sent %d of %d invitations", sent, len(results)), results)
}
