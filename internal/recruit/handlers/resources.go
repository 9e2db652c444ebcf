package handlers

import (
	"net/http"
	"strconv"

	"github.com/gartstein/recruit/internal/recruit/auth"
	"github.com/gartstein/recruit/internal/recruit/controller"
	"github.com/gartstein/recruit/internal/recruit/models"
)

func archivedParam(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("archived"))
	return v
}

func (a *API) listJobPosts(w http.ResponseWriter, r *http.Request, _ map[string]string, sess auth.Session) {
	posts, err := a.JobPosts.List(r.Context(), sess.OrganizationID, archivedParam(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if posts == nil {
		posts = []models.JobPost{}
	}
	a.ok(w, "", posts)
}

func (a *API) createJobPost(w http.ResponseWriter, r *http.Request, _ map[string]string, sess auth.Session) {
	var in controller.JobPostInput
	if err := decodeJSON(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	post, err := a.JobPosts.Create(r.Context(), sess.OrganizationID, sess.UserID, &in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Success: true, Message: "Job post created", Data: post})
}

func (a *API) getJobPost(w http.ResponseWriter, r *http.Request, params map[string]string, sess auth.Session) {
	id, err := pathID(params, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	post, err := a.JobPosts.Get(r.Context(), sess.OrganizationID, id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, "", post)
}

func (a *API) updateJobPost(w http.ResponseWriter, r *http.Request, params map[string]string, sess auth.Session) {
	id, err := pathID(params, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var patch controller.JobPostPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		a.fail(w, r, err)
		return
	}
	post, err := a.JobPosts.Update(r.Context(), sess.OrganizationID, id, &patch)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, "Job post updated", post)
}

func (a *API) deleteJobPost(w http.ResponseWriter, r *http.Request, params map[string]string, sess auth.Session) {
	id, err := pathID(params, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.JobPosts.Delete(r.Context(), sess.OrganizationID, id); err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, "Job post deleted", nil)
}

func (a *API) archiveJobPost(w http.ResponseWriter, r *http.Request, params map[string]string, sess auth.Session) {
	id, err := pathID(params, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	post, err := a.JobPosts.ToggleArchive(r.Context(), sess.OrganizationID, id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	message := "Job post restored"
	if post.ArchivedAt != nil {
		message = "Job post archived"
	}
	a.ok(w, message, post)
}

func (a *API) closeJobPost(w http.ResponseWriter, r *http.Request, params map[string]string, sess auth.Session) {
	id, err := pathID(params, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	post, err := a.JobPosts.ToggleClosed(r.Context(), sess.OrganizationID, id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	message := "Job post reopened"
	if post.Status == models.JobPostClosed {
		message = "Job post closed"
	}
	a.ok(w, message, post)
}

func (a *API) listCandidates(w http.ResponseWriter, r *http.Request, _ map[string]string, sess auth.Session) {
	candidates, err := a.Candidates.List(r.Context(), sess.OrganizationID, archivedParam(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if candidates == nil {
		candidates = []models.Candidate{}
	}
	a.ok(w, "", candidates)
}

func (a *API) getCandidate(w http.ResponseWriter, r *http.Request, params map[string]string, sess auth.Session) {
	id, err := pathID(params, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	candidate, err := a.Candidates.Get(r.Context(), sess.OrganizationID, id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, "", candidate)
}

func (a *API) deleteCandidate(w http.ResponseWriter, r *http.Request, params map[string]string, sess auth.Session) {
	id, err := pathID(params, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.Candidates.Delete(r.Context(), sess.OrganizationID, id); err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, "Candidate deleted", nil)
}

func (a *API) archiveCandidate(w http.ResponseWriter, r *http.Request, params map[string]string, sess auth.Session) {
	id, err := pathID(params, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	candidate, err := a.Candidates.ToggleArchive(r.Context(), sess.OrganizationID, id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	message := "Candidate restored"
	if candidate.ArchivedAt != nil {
		message = "Candidate archived"
	}
	a.ok(w, message, candidate)
}
