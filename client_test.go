package storage

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidecloud/tidecloud-sdk-go/errors"
	"github.com/tidecloud/tidecloud-sdk-go/internal/testutil"
	"github.com/tidecloud/tidecloud-sdk-go/storagetypes"
)

var testAccountKey = base64.StdEncoding.EncodeToString([]byte("unit-test-key"))

func TestNewRequiresAccountName(t *testing.T) {
	_, err := New("", testAccountKey)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestNewRejectsInvalidKey(t *testing.T) {
	_, err := New("myaccount", "not valid base64!!!")
	assert.Error(t, err)
}

func TestNewDefaults(t *testing.T) {
	client, err := New("myaccount", testAccountKey)
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, storagetypes.DefaultParallelism, client.Parallelism())
	assert.Equal(t, int64(storagetypes.DefaultChunkSize), client.ChunkSize())
}

func TestNewAppliesOptions(t *testing.T) {
	client, err := New("myaccount", testAccountKey,
		WithParallelism(8),
		WithChunkSize(1024*1024),
	)
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, 8, client.Parallelism())
	assert.Equal(t, int64(1024*1024), client.ChunkSize())
}

func TestOptionsIgnoreNonPositiveValues(t *testing.T) {
	client := NewWithTransport(&testutil.MockTransport{},
		WithParallelism(0),
		WithChunkSize(-5),
	)
	assert.Equal(t, storagetypes.DefaultParallelism, client.Parallelism())
	assert.Equal(t, int64(storagetypes.DefaultChunkSize), client.ChunkSize())
}
