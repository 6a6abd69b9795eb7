package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianhq/meridian/errors"
)

func TestNewJob(t *testing.T) {
	j := NewJob("req-1", true)

	assert.NotEmpty(t, j.ID)
	assert.Equal(t, "req-1", j.RequestID)
	assert.True(t, j.IsAsync)
	assert.Equal(t, StatusAccepted, j.Status)
	assert.Equal(t, 0, j.Progress)
}

func TestNewJobGeneratesRequestID(t *testing.T) {
	j := NewJob("", false)
	assert.NotEmpty(t, j.RequestID)
}

func TestStatusTerminalSet(t *testing.T) {
	assert.True(t, StatusSuccessful.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.True(t, StatusCanceled.IsTerminal())
	assert.False(t, StatusAccepted.IsTerminal())
	assert.False(t, StatusRunning.IsTerminal())
	assert.False(t, StatusPaused.IsTerminal())
}

func TestAddLink(t *testing.T) {
	j := NewJob("req-1", true)

	err := j.AddLink("s3://results/out.tif", "image/tiff", "", "output granule", "10,20,30,40", "")
	require.NoError(t, err)

	require.Len(t, j.Links, 1)
	link := j.Links[0]
	assert.Equal(t, "s3://results/out.tif", link.Href)
	assert.Equal(t, RelData, link.Rel) // default when absent
	assert.Equal(t, []float64{10, 20, 30, 40}, link.BBox)
}

func TestAddLinkBadBBox(t *testing.T) {
	j := NewJob("req-1", true)

	err := j.AddLink("s3://results/out.tif", "", "", "", "10,20,30", "")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRequestError(err))

	err = j.AddLink("s3://results/out.tif", "", "", "", "10,20,thirty,40", "")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRequestError(err))

	assert.Empty(t, j.Links)
}

func TestAddLinkTemporalCanonicalized(t *testing.T) {
	j := NewJob("req-1", true)

	err := j.AddLink("s3://results/out.nc", "", "", "", "",
		"2020-01-01T00:00:00Z,2020-01-02T00:00:00Z")
	require.NoError(t, err)

	require.NotNil(t, j.Links[0].Temporal)
	assert.Equal(t, "2020-01-01T00:00:00.000Z", j.Links[0].Temporal.Start)
	assert.Equal(t, "2020-01-02T00:00:00.000Z", j.Links[0].Temporal.End)
}

func TestAddLinkBadTemporal(t *testing.T) {
	j := NewJob("req-1", true)

	for _, temporal := range []string{
		"2020-01-01T00:00:00Z",
		"not-a-time,2020-01-02T00:00:00Z",
		"2020-01-01T00:00:00Z,2020-01-02T00:00:00Z,2020-01-03T00:00:00Z",
	} {
		err := j.AddLink("s3://x", "", "", "", "", temporal)
		require.Error(t, err, "temporal %q", temporal)
		assert.True(t, errors.IsInvalidRequestError(err))
	}
}

func TestAddLinkRequiresHref(t *testing.T) {
	j := NewJob("req-1", true)
	err := j.AddLink("", "", "", "", "", "")
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestSetProgress(t *testing.T) {
	j := NewJob("req-1", true)

	require.NoError(t, j.SetProgress("50"))
	assert.Equal(t, 50, j.Progress)
}

func TestSetProgressInvalid(t *testing.T) {
	j := NewJob("req-1", true)

	for _, raw := range []string{"abc", "", "12.5", "-1", "101"} {
		err := j.SetProgress(raw)
		require.Error(t, err, "progress %q", raw)
		assert.True(t, errors.IsInvalidRequestError(err))
	}
	assert.Equal(t, 0, j.Progress)
}

func TestFail(t *testing.T) {
	j := NewJob("req-1", true)

	require.NoError(t, j.Fail("backend exploded"))
	assert.Equal(t, StatusFailed, j.Status)
	assert.Equal(t, "backend exploded", j.Message)
}

func TestSucceed(t *testing.T) {
	j := NewJob("req-1", true)

	require.NoError(t, j.Succeed())
	assert.Equal(t, StatusSuccessful, j.Status)
	assert.Equal(t, 100, j.Progress)
}

func TestUpdateStatus(t *testing.T) {
	j := NewJob("req-1", true)

	require.NoError(t, j.UpdateStatus("running"))
	assert.Equal(t, StatusRunning, j.Status)

	require.NoError(t, j.UpdateStatus("successful"))
	assert.Equal(t, StatusSuccessful, j.Status)
	assert.Equal(t, 100, j.Progress)
}

func TestUpdateStatusUnknown(t *testing.T) {
	j := NewJob("req-1", true)

	err := j.UpdateStatus("finished")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestTerminalJobRejectsMutation(t *testing.T) {
	j := NewJob("req-1", true)
	require.NoError(t, j.Succeed())

	assert.True(t, errors.IsConflictError(j.AddLink("s3://late", "", "", "", "", "")))
	assert.True(t, errors.IsConflictError(j.SetProgress("10")))
	assert.True(t, errors.IsConflictError(j.Fail("too late")))
	assert.True(t, errors.IsConflictError(j.Succeed()))
	assert.True(t, errors.IsConflictError(j.UpdateStatus("running")))

	assert.Equal(t, StatusSuccessful, j.Status)
	assert.Empty(t, j.Links)
}

func TestStagingLocation(t *testing.T) {
	j := NewJob("req-1", true)
	require.NoError(t, j.AddLink("s3://staging/req-1/", "", RelStagingLocation, "", "", ""))
	require.NoError(t, j.AddLink("s3://results/a.tif", "", "", "", "", ""))

	assert.Equal(t, "s3://staging/req-1/", j.StagingLocation())
	assert.Len(t, j.DataLinks(), 1)
}

func TestStagingLocationAbsent(t *testing.T) {
	j := NewJob("req-1", true)
	assert.Empty(t, j.StagingLocation())
}

func TestParseBBox(t *testing.T) {
	values, err := ParseBBox("10,20,30,40")
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20, 30, 40}, values)

	values, err = ParseBBox(" -180.0, -90.0, 180.0, 90.0 ")
	require.NoError(t, err)
	assert.Equal(t, []float64{-180, -90, 180, 90}, values)

	_, err = ParseBBox("10,20,30,40,50")
	assert.True(t, errors.IsInvalidRequestError(err))
}
