package job

import (
	"database/sql"
	"encoding/json"

	"github.com/meridianhq/meridian/errors"
)

// Querier abstracts *sql.DB and *sql.Tx so job loads and writes can run
// inside a caller-owned transaction.
type Querier interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

// Store handles persistence of jobs
type Store struct {
	db *sql.DB
}

// NewStore creates a new job store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Begin opens a transaction on the underlying database
func (s *Store) Begin() (*sql.Tx, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	return tx, nil
}

const jobSelectColumns = `id, request_id, is_async, status, message, progress, links, created_at, updated_at`

// CreateJob inserts a new job
func (s *Store) CreateJob(j *Job) error {
	linksJSON, err := marshalLinks(j.Links)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO jobs (
			id, request_id, is_async, status, message,
			progress, links, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.Exec(query,
		j.ID,
		j.RequestID,
		j.IsAsync,
		j.Status,
		j.Message,
		j.Progress,
		linksJSON,
		j.CreatedAt,
		j.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to create job")
	}
	return nil
}

// GetJob retrieves a job by id
func (s *Store) GetJob(id string) (*Job, error) {
	query := `SELECT ` + jobSelectColumns + ` FROM jobs WHERE id = ?`
	j, err := scanJob(s.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("job not found: %s", id)
	}
	return j, err
}

// GetJobByRequestID retrieves the job for a request id through the given
// querier, so callback handling can load inside its transaction. A nil
// querier falls back to the store's database handle.
func (s *Store) GetJobByRequestID(q Querier, requestID string) (*Job, error) {
	if q == nil {
		q = s.db
	}
	query := `SELECT ` + jobSelectColumns + ` FROM jobs WHERE request_id = ?`
	j, err := scanJob(q.QueryRow(query, requestID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("job not found for request: %s", requestID)
	}
	return j, err
}

// UpdateJob persists the mutable job fields through the given querier.
// A nil querier falls back to the store's database handle.
func (s *Store) UpdateJob(q Querier, j *Job) error {
	if q == nil {
		q = s.db
	}
	linksJSON, err := marshalLinks(j.Links)
	if err != nil {
		return err
	}

	query := `
		UPDATE jobs
		SET status = ?,
		    message = ?,
		    progress = ?,
		    links = ?,
		    updated_at = ?
		WHERE id = ?
	`
	result, err := q.Exec(query,
		j.Status,
		j.Message,
		j.Progress,
		linksJSON,
		j.UpdatedAt,
		j.ID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update job")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return errors.NewNotFoundError("job not found: %s", j.ID)
	}
	return nil
}

// ListJobs returns jobs ordered newest first, optionally filtered by status
func (s *Store) ListJobs(status *Status, limit int) ([]*Job, error) {
	var query string
	var args []interface{}

	baseQuery := `SELECT ` + jobSelectColumns + ` FROM jobs`
	if status != nil {
		query = baseQuery + ` WHERE status = ? ORDER BY created_at DESC LIMIT ?`
		args = []interface{}{*status, limit}
	} else {
		query = baseQuery + ` ORDER BY created_at DESC LIMIT ?`
		args = []interface{}{limit}
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list jobs")
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		j, err := scanJobFromRows(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating jobs")
	}
	return jobs, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*Job, error) {
	var j Job
	var linksJSON string
	err := row.Scan(
		&j.ID,
		&j.RequestID,
		&j.IsAsync,
		&j.Status,
		&j.Message,
		&j.Progress,
		&linksJSON,
		&j.CreatedAt,
		&j.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan job")
	}

	links, err := unmarshalLinks(linksJSON)
	if err != nil {
		return nil, err
	}
	j.Links = links
	return &j, nil
}

func scanJobFromRows(rows *sql.Rows) (*Job, error) {
	return scanJob(rows)
}

func marshalLinks(links []Link) (string, error) {
	if links == nil {
		links = []Link{}
	}
	data, err := json.Marshal(links)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal links")
	}
	return string(data), nil
}

func unmarshalLinks(data string) ([]Link, error) {
	if data == "" {
		return nil, nil
	}
	var links []Link
	if err := json.Unmarshal([]byte(data), &links); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal links")
	}
	return links, nil
}
