package types

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageErrorMessage(t *testing.T) {
	e := &ImageError{Path: "/p/a.jpg", Stage: StageDecode, Err: os.ErrNotExist}
	assert.Equal(t, "decode /p/a.jpg: file does not exist", e.Error())
	assert.True(t, errors.Is(e, os.ErrNotExist))

	pair := &ImageError{Path: "/p/b.jpg", Stage: StageCompare, Against: "/p/a.jpg", Err: errors.New("size")}
	assert.Equal(t, "compare /p/b.jpg against /p/a.jpg: size", pair.Error())

	bare := &ImageError{Path: "/p/c.jpg", Stage: StageCanonicalize}
	assert.Equal(t, "canonicalize /p/c.jpg", bare.Error())
	assert.Empty(t, bare.Message())
	assert.Nil(t, bare.Unwrap())
}

func TestResultJSONRoundTrip(t *testing.T) {
	res := Result{
		ID:       "run-1",
		Status:   StatusPartial,
		Total:    3,
		Clusters: ClusterSet{{"/p/a.jpg", "/p/b.jpg"}},
		Errors: []*ImageError{
			{Path: "/p/bad.jpg", Stage: StageDecode, Err: errors.New("corrupt")},
			{Path: "/p/b.jpg", Stage: StageCompare, Against: "/p/x.jpg", Err: errors.New("size mismatch")},
		},
		Duration: 2 * time.Second,
	}

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"corrupt"`)

	var decoded Result
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, res.ID, decoded.ID)
	assert.Equal(t, res.Clusters, decoded.Clusters)
	assert.Equal(t, res.Duration, decoded.Duration)
	require.Len(t, decoded.Errors, 2)
	for i, e := range decoded.Errors {
		require.NotNil(t, e.Err)
		assert.Equal(t, res.Errors[i].Error(), e.Error())
		assert.Equal(t, res.Errors[i].Against, e.Against)
	}
	assert.Equal(t, []string{"/p/bad.jpg"}, decoded.Failed())
}

func TestImageErrorWithoutMessage(t *testing.T) {
	var e ImageError
	require.NoError(t, json.Unmarshal([]byte(`{"path":"/p/a.jpg","stage":"decode"}`), &e))
	assert.Nil(t, e.Err)
	assert.Equal(t, "decode /p/a.jpg", e.Error())
}
