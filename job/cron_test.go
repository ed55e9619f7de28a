package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	before time.Time
	rows   int64
	err    error
}

func (f *fakeRepo) FailStale(ctx context.Context, before time.Time) (int64, error) {
	f.before = before
	return f.rows, f.err
}

func TestFailStaleCutoff(t *testing.T) {
	repo := &fakeRepo{rows: 3}
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	n, err := FailStale(context.Background(), repo, 15*time.Minute, now)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.Equal(t, now.Add(-15*time.Minute), repo.before)

	repo.err = errors.New("db gone")
	_, err = FailStale(context.Background(), repo, time.Minute, now)
	assert.ErrorIs(t, err, repo.err)
}

func TestStartCronJobSchedule(t *testing.T) {
	c, err := StartCronJob(&fakeRepo{}, "*/10 * * * *", time.Minute)
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)
	c.Stop()

	_, err = StartCronJob(&fakeRepo{}, "every now and then", time.Minute)
	assert.Error(t, err)
}
