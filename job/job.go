// Package job provides the persisted execution record for dispatched
// operations and the state machine governing callback-driven mutation.
package job

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meridianhq/meridian/errors"
)

// Status represents the lifecycle state of a job
type Status string

const (
	StatusAccepted   Status = "accepted"
	StatusRunning    Status = "running"
	StatusSuccessful Status = "successful"
	StatusFailed     Status = "failed"
	StatusCanceled   Status = "canceled"
	StatusPaused     Status = "paused"
)

// IsTerminal returns true for states that admit no further callback-driven
// mutation
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSuccessful, StatusFailed, StatusCanceled:
		return true
	default:
		return false
	}
}

// IsValidStatus returns true if the status string is a valid Status
func IsValidStatus(s string) bool {
	switch Status(s) {
	case StatusAccepted, StatusRunning, StatusSuccessful,
		StatusFailed, StatusCanceled, StatusPaused:
		return true
	default:
		return false
	}
}

// RelData is the default link relation for result data
const RelData = "data"

// RelStagingLocation marks the link recording where uploaded result files
// are staged. Recorded at dispatch time; the callback handler treats the
// href as an opaque address.
const RelStagingLocation = "staging-location"

// temporalFormat is the canonical timestamp format for temporal ranges
const temporalFormat = "2006-01-02T15:04:05.000Z"

// TemporalRange is a canonicalized start/end timestamp pair on a link
type TemporalRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Link is one result reference held by a job
type Link struct {
	Href     string         `json:"href"`
	Type     string         `json:"type,omitempty"`
	Rel      string         `json:"rel"`
	Title    string         `json:"title,omitempty"`
	BBox     []float64      `json:"bbox,omitempty"`
	Temporal *TemporalRange `json:"temporal,omitempty"`
}

// Job is the persisted execution record for one dispatched operation.
// It is mutated exclusively through the transition methods below.
type Job struct {
	ID        string    `json:"id"`
	RequestID string    `json:"request_id"`
	IsAsync   bool      `json:"is_async"`
	Status    Status    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Progress  int       `json:"progress"`
	Links     []Link    `json:"links"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewJob creates a job in the accepted state. An empty requestID gets a
// generated one; IsAsync is fixed for the job's lifetime.
func NewJob(requestID string, isAsync bool) *Job {
	if requestID == "" {
		requestID = uuid.NewString()
	}
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		RequestID: requestID,
		IsAsync:   isAsync,
		Status:    StatusAccepted,
		Progress:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (j *Job) touch() {
	j.UpdatedAt = time.Now()
}

// rejectTerminal guards every transition: once a job reaches a terminal
// state, callback-driven mutation is a conflict.
func (j *Job) rejectTerminal() error {
	if j.Status.IsTerminal() {
		return errors.NewConflictError("job %s is already %s", j.ID, j.Status)
	}
	return nil
}

// AddLink validates and appends a result link. BBox must be four
// comma-separated floats (West,South,East,North) and temporal must be two
// parseable timestamps; rel defaults to "data" when absent.
func (j *Job) AddLink(href, typ, rel, title, bbox, temporal string) error {
	if err := j.rejectTerminal(); err != nil {
		return err
	}
	if href == "" {
		return errors.NewInvalidRequestError("link href is required")
	}

	link := Link{Href: href, Type: typ, Rel: rel, Title: title}
	if link.Rel == "" {
		link.Rel = RelData
	}

	if bbox != "" {
		parsed, err := ParseBBox(bbox)
		if err != nil {
			return err
		}
		link.BBox = parsed
	}

	if temporal != "" {
		parsed, err := ParseTemporal(temporal)
		if err != nil {
			return err
		}
		link.Temporal = parsed
	}

	j.Links = append(j.Links, link)
	j.touch()
	return nil
}

// SetProgress parses and applies a progress value in [0,100]
func (j *Job) SetProgress(raw string) error {
	if err := j.rejectTerminal(); err != nil {
		return err
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return errors.NewInvalidRequestError("progress must be an integer, got %q", raw)
	}
	if value < 0 || value > 100 {
		return errors.NewInvalidRequestError("progress must be between 0 and 100, got %d", value)
	}
	j.Progress = value
	j.touch()
	return nil
}

// Fail transitions the job to failed and records the message
func (j *Job) Fail(message string) error {
	if err := j.rejectTerminal(); err != nil {
		return err
	}
	j.Status = StatusFailed
	j.Message = message
	j.touch()
	return nil
}

// Succeed transitions the job to successful and forces progress to 100
func (j *Job) Succeed() error {
	if err := j.rejectTerminal(); err != nil {
		return err
	}
	j.Status = StatusSuccessful
	j.Progress = 100
	j.touch()
	return nil
}

// UpdateStatus transitions the job to a caller-supplied status, validated
// against the enum
func (j *Job) UpdateStatus(status string) error {
	if !IsValidStatus(status) {
		return errors.NewInvalidRequestError("unknown job status %q", status)
	}
	if Status(status) == StatusSuccessful {
		return j.Succeed()
	}
	if err := j.rejectTerminal(); err != nil {
		return err
	}
	j.Status = Status(status)
	j.touch()
	return nil
}

// StagingLocation returns the href of the staging-location link, or ""
// when none has been recorded
func (j *Job) StagingLocation() string {
	for _, link := range j.Links {
		if link.Rel == RelStagingLocation {
			return link.Href
		}
	}
	return ""
}

// DataLinks returns the links with the data relation
func (j *Job) DataLinks() []Link {
	var out []Link
	for _, link := range j.Links {
		if link.Rel == RelData {
			out = append(out, link)
		}
	}
	return out
}

// ParseBBox parses a "W,S,E,N" bounding box string into four floats
func ParseBBox(raw string) ([]float64, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return nil, errors.NewInvalidRequestError("bbox must have exactly 4 values (West,South,East,North), got %q", raw)
	}
	values := make([]float64, 4)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, errors.NewInvalidRequestError("bbox value %q is not numeric", part)
		}
		values[i] = v
	}
	return values, nil
}

// ParseTemporal parses a "start,end" timestamp pair and canonicalizes both
// ends to UTC with millisecond precision
func ParseTemporal(raw string) (*TemporalRange, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return nil, errors.NewInvalidRequestError("temporal must have exactly 2 timestamps (start,end), got %q", raw)
	}
	stamps := make([]string, 2)
	for i, part := range parts {
		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(part))
		if err != nil {
			return nil, errors.NewInvalidRequestError("temporal value %q is not a valid timestamp", part)
		}
		stamps[i] = ts.UTC().Format(temporalFormat)
	}
	return &TemporalRange{Start: stamps[0], End: stamps[1]}, nil
}
