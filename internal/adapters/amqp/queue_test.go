package amqp

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pratyaksh/internal/domain"
	"pratyaksh/internal/ports"
)

func TestDecodeJob(t *testing.T) {
	job, err := decodeJob([]byte(`{"job_id":"j-9","media_url":"https://cdn.example.com/a.jpg","lat":26.1,"lon":91.7}`), "msg-1")
	require.NoError(t, err)
	assert.Equal(t, "j-9", job.ID)
	assert.Equal(t, "https://cdn.example.com/a.jpg", job.MediaURL)
	require.NotNil(t, job.Lat)
	require.NotNil(t, job.Lon)
	assert.Equal(t, 26.1, *job.Lat)
	assert.Equal(t, 91.7, *job.Lon)
}

func TestDecodeJob_IDFallbacks(t *testing.T) {
	job, err := decodeJob([]byte(`{"media_url":"https://x/a.jpg"}`), "msg-1")
	require.NoError(t, err)
	assert.Equal(t, "msg-1", job.ID)
	assert.Nil(t, job.Lat)

	job, err = decodeJob([]byte(`{"media_url":"https://x/a.jpg"}`), "")
	require.NoError(t, err)
	_, perr := uuid.Parse(job.ID)
	assert.NoError(t, perr)
}

func TestDecodeJob_Rejects(t *testing.T) {
	_, err := decodeJob([]byte(`not json`), "m")
	assert.Error(t, err)

	_, err = decodeJob([]byte(`{"job_id":"j"}`), "m")
	assert.ErrorIs(t, err, errNoMediaURL)
}

func TestEncodeResult_FlatShape(t *testing.T) {
	body, err := encodeResult(ports.JobResult{
		JobID: "j-1",
		Response: domain.Response{
			Status:  domain.StatusSuccess,
			Verdict: &domain.Verdict{Label: domain.VerdictFakeAI, Color: domain.ColorRed, Reason: "AI-generated patterns detected in media."},
		},
	})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(body, &raw))
	assert.Equal(t, "j-1", raw["job_id"])
	assert.Equal(t, "success", raw["status"])
	assert.Equal(t, "Fake_AI", raw["verdict"].(map[string]any)["label"])
	assert.NotContains(t, raw, "Response")
}
