package server

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/meridianhq/meridian/errors"
	"github.com/meridianhq/meridian/job"
)

// formEncodedType is the content type senders declare by default; it never
// describes a staged result file.
const formEncodedType = "application/x-www-form-urlencoded"

var dispositionFilename = regexp.MustCompile(`filename="([^"]+)"`)

// callbackFields are the parsed query parameters of one inbound callback.
// Presence matters: an empty error message still fails the job.
type callbackFields struct {
	itemHref     string
	itemType     string
	itemRel      string
	itemTitle    string
	itemBBox     string
	itemTemporal string

	errorMsg string
	errorSet bool

	status    string
	statusSet bool

	redirect string
	progress string
	progSet  bool
}

func parseCallbackFields(query url.Values) callbackFields {
	f := callbackFields{
		itemHref:     query.Get("item[href]"),
		itemType:     query.Get("item[type]"),
		itemRel:      query.Get("item[rel]"),
		itemTitle:    query.Get("item[title]"),
		itemBBox:     query.Get("item[bbox]"),
		itemTemporal: query.Get("item[temporal]"),
		redirect:     query.Get("redirect"),
	}
	if query.Has("error") {
		f.errorSet = true
		f.errorMsg = query.Get("error")
	}
	if query.Has("status") {
		f.statusSet = true
		f.status = query.Get("status")
	}
	if query.Has("progress") {
		f.progSet = true
		f.progress = query.Get("progress")
	}
	return f
}

// HandleCallback handles POST /api/callback/{requestID}/response: one
// inbound backend notification reporting partial or final results for a
// job. The job load, mutation, and persist run in one transaction under
// the per-request lock; any failure rolls the transaction back before the
// response is written.
func (s *Server) HandleCallback(w http.ResponseWriter, r *http.Request) {
	parts := extractPathParts(r.URL.Path, "/api/callback/")
	if len(parts) < 2 || parts[0] == "" || parts[1] != "response" {
		writeError(w, http.StatusNotFound, "no such callback endpoint")
		return
	}
	requestID := parts[0]

	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	if s.limiters != nil && !s.limiters.allow(r.RemoteAddr) {
		writeError(w, http.StatusTooManyRequests, "callback rate exceeded")
		return
	}

	unlock := s.locks.Lock(requestID)
	defer unlock()

	fields := parseCallbackFields(r.URL.Query())

	tx, err := s.store.Begin()
	if err != nil {
		s.logger.Errorw("Failed to begin callback transaction",
			"request_id", requestID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to open transaction")
		return
	}

	j, err := s.store.GetJobByRequestID(tx, requestID)
	if err != nil {
		tx.Rollback()
		s.logger.Warnw("Callback for unknown job",
			"request_id", requestID, "error", err)
		writeError(w, httpStatusFor(err), err.Error())
		return
	}

	err = s.applyCallback(r.Context(), j, fields, r)
	if err == nil {
		err = s.store.UpdateJob(tx, j)
	}

	if err != nil {
		tx.Rollback()
		s.logger.Errorw("Callback handling failed",
			"request_id", requestID,
			"job_id", j.ID,
			"error", err)
		writeError(w, httpStatusFor(err), err.Error())
	} else if commitErr := tx.Commit(); commitErr != nil {
		s.logger.Errorw("Failed to commit callback transaction",
			"request_id", requestID, "error", commitErr)
		writeError(w, http.StatusInternalServerError, "failed to commit transaction")
	} else {
		s.broadcastJob(j)
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Ok"))
	}

	// Exactly one completion record per callback that observes a terminal
	// job, whatever the response outcome was.
	if j.Status.IsTerminal() {
		s.logCompletion(j)
	}
}

// applyCallback stages a file body when the callback carries one, merges
// the resulting overrides into the parsed fields, and feeds them through
// the job state machine in priority order.
func (s *Server) applyCallback(ctx context.Context, j *job.Job, fields callbackFields, r *http.Request) error {
	// A body with no item href and no error is a file result to stage.
	if fields.itemHref == "" && !fields.errorSet && r.ContentLength > 0 {
		staged, err := s.stageBody(ctx, j, &fields, r)
		if err != nil {
			return err
		}
		fields.itemHref = staged

		// A body delivered with no error is the single completion signal
		// for a synchronous job.
		if !j.IsAsync {
			fields.status = string(job.StatusSuccessful)
			fields.statusSet = true
		}
	}

	if fields.itemHref != "" {
		if err := j.AddLink(fields.itemHref, fields.itemType, fields.itemRel,
			fields.itemTitle, fields.itemBBox, fields.itemTemporal); err != nil {
			return err
		}
	}

	if fields.progSet {
		if err := j.SetProgress(fields.progress); err != nil {
			return err
		}
	}

	switch {
	case fields.errorSet:
		return j.Fail(fields.errorMsg)
	case fields.statusSet:
		return j.UpdateStatus(fields.status)
	case fields.redirect != "":
		if err := j.AddLink(fields.redirect, "", job.RelData, "", "", ""); err != nil {
			return err
		}
		return j.Succeed()
	}
	return nil
}

// stageBody uploads the callback body to the job's staging location and
// returns the staged href. The filename comes from the Content-Disposition
// header, falling back to item[title].
func (s *Server) stageBody(ctx context.Context, j *job.Job, fields *callbackFields, r *http.Request) (string, error) {
	staging := j.StagingLocation()
	if staging == "" {
		return "", errors.NewInvalidRequestError(
			"job for request %s has no staging location for result files", j.RequestID)
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == formEncodedType {
		contentType = ""
	}

	filename := filenameFromDisposition(r.Header.Get("Content-Disposition"))
	if filename == "" {
		filename = fields.itemTitle
	}
	if filename == "" {
		return "", errors.NewInvalidRequestError(
			"could not resolve a filename for the result body")
	}

	dest := strings.TrimSuffix(staging, "/") + "/" + filename
	storedType, err := s.objects.Upload(ctx, r.Body, dest, r.ContentLength, contentType)
	if err != nil {
		return "", errors.Wrapf(err, "failed to stage result body for request %s", j.RequestID)
	}

	if fields.itemType == "" {
		fields.itemType = storedType
	}
	return dest, nil
}

func filenameFromDisposition(disposition string) string {
	match := dispositionFilename.FindStringSubmatch(disposition)
	if match == nil {
		return ""
	}
	return match[1]
}

// logCompletion emits the structured completion record for a job that has
// reached a terminal state.
func (s *Server) logCompletion(j *job.Job) {
	s.logger.Infow("Job complete",
		"request_id", j.RequestID,
		"job_id", j.ID,
		"status", j.Status,
		"message", j.Message,
		"duration_ms", time.Since(j.CreatedAt).Milliseconds(),
		"data_links", len(j.DataLinks()),
		"job", j,
	)
}
