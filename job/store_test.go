package job

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianhq/meridian/errors"
	mtest "github.com/meridianhq/meridian/internal/testing"
)

func TestCreateAndGetJob(t *testing.T) {
	store := NewStore(mtest.CreateTestDB(t))

	j := NewJob("req-100", true)
	require.NoError(t, j.AddLink("s3://staging/req-100/", "", RelStagingLocation, "", "", ""))
	require.NoError(t, store.CreateJob(j))

	loaded, err := store.GetJob(j.ID)
	require.NoError(t, err)
	assert.Equal(t, j.RequestID, loaded.RequestID)
	assert.Equal(t, StatusAccepted, loaded.Status)
	assert.True(t, loaded.IsAsync)
	require.Len(t, loaded.Links, 1)
	assert.Equal(t, RelStagingLocation, loaded.Links[0].Rel)
}

func TestGetJobByRequestID(t *testing.T) {
	store := NewStore(mtest.CreateTestDB(t))

	j := NewJob("req-200", false)
	require.NoError(t, store.CreateJob(j))

	loaded, err := store.GetJobByRequestID(nil, "req-200")
	require.NoError(t, err)
	assert.Equal(t, j.ID, loaded.ID)
	assert.False(t, loaded.IsAsync)
}

func TestGetJobByRequestIDNotFound(t *testing.T) {
	store := NewStore(mtest.CreateTestDB(t))

	_, err := store.GetJobByRequestID(nil, "req-missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestUpdateJobWithinTransaction(t *testing.T) {
	store := NewStore(mtest.CreateTestDB(t))

	j := NewJob("req-300", true)
	require.NoError(t, store.CreateJob(j))

	tx, err := store.Begin()
	require.NoError(t, err)

	loaded, err := store.GetJobByRequestID(tx, "req-300")
	require.NoError(t, err)
	require.NoError(t, loaded.SetProgress("75"))
	require.NoError(t, loaded.UpdateStatus("running"))
	require.NoError(t, store.UpdateJob(tx, loaded))
	require.NoError(t, tx.Commit())

	reloaded, err := store.GetJob(j.ID)
	require.NoError(t, err)
	assert.Equal(t, 75, reloaded.Progress)
	assert.Equal(t, StatusRunning, reloaded.Status)
}

func TestRollbackDiscardsMutation(t *testing.T) {
	store := NewStore(mtest.CreateTestDB(t))

	j := NewJob("req-400", true)
	require.NoError(t, store.CreateJob(j))

	tx, err := store.Begin()
	require.NoError(t, err)

	loaded, err := store.GetJobByRequestID(tx, "req-400")
	require.NoError(t, err)
	require.NoError(t, loaded.Fail("transient failure"))
	require.NoError(t, store.UpdateJob(tx, loaded))
	require.NoError(t, tx.Rollback())

	reloaded, err := store.GetJob(j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, reloaded.Status)
	assert.Empty(t, reloaded.Message)
}

func TestUpdateJobUnknownID(t *testing.T) {
	store := NewStore(mtest.CreateTestDB(t))

	ghost := NewJob("req-500", true)
	err := store.UpdateJob(nil, ghost)
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestListJobs(t *testing.T) {
	store := NewStore(mtest.CreateTestDB(t))

	running := NewJob("req-600", true)
	require.NoError(t, running.UpdateStatus("running"))
	require.NoError(t, store.CreateJob(running))

	done := NewJob("req-601", true)
	require.NoError(t, done.Succeed())
	require.NoError(t, store.CreateJob(done))

	all, err := store.ListJobs(nil, 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	status := StatusSuccessful
	successful, err := store.ListJobs(&status, 10)
	require.NoError(t, err)
	require.Len(t, successful, 1)
	assert.Equal(t, "req-601", successful[0].RequestID)
}

func TestCreateJobDatabaseError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectExec("INSERT INTO jobs").WillReturnError(errors.New("disk I/O error"))

	store := NewStore(mockDB)
	err = store.CreateJob(NewJob("req-700", true))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create job")
	assert.NoError(t, mock.ExpectationsWereMet())
}
