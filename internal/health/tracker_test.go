package health

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opencode-portal/portal/internal/domain"
	"github.com/opencode-portal/portal/internal/errors"
)

func TestNewTracker(t *testing.T) {
	t.Parallel()

	tracker := NewTracker("http://a:1", "http://b:2")

	list := tracker.List()
	require.Len(t, list, 2)
	for _, h := range list {
		require.Equal(t, domain.HealthStatusUnknown, h.Status)
		require.Nil(t, h.LastChecked)
	}
}

func TestTracker_StatusNotTracked(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()

	_, err := tracker.Status("http://missing:1")
	require.ErrorIs(t, err, errors.ErrHealthNotTracked)

	err = tracker.Update("http://missing:1", domain.HealthStatusOK, nil)
	require.ErrorIs(t, err, errors.ErrHealthNotTracked)
}

func TestTracker_TrackIsIdempotent(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()
	tracker.Track("http://a:1")
	require.NoError(t, tracker.Update("http://a:1", domain.HealthStatusOK, nil))

	tracker.Track("http://a:1")

	h, err := tracker.Status("http://a:1")
	require.NoError(t, err)
	require.Equal(t, domain.HealthStatusOK, h.Status)
}

func TestTracker_Untrack(t *testing.T) {
	t.Parallel()

	tracker := NewTracker("http://a:1", "http://b:2")
	tracker.Untrack("http://a:1")
	tracker.Untrack("http://missing:1")

	_, err := tracker.Status("http://a:1")
	require.ErrorIs(t, err, errors.ErrHealthNotTracked)
	require.ErrorIs(t, tracker.Update("http://a:1", domain.HealthStatusOK, nil), errors.ErrHealthNotTracked)

	list := tracker.List()
	require.Len(t, list, 1)
	require.Equal(t, "http://b:2", list[0].URL)
}

func TestTracker_Update(t *testing.T) {
	t.Parallel()

	tracker := NewTracker("http://a:1")
	latency := 25 * time.Millisecond

	require.NoError(t, tracker.Update("http://a:1", domain.HealthStatusOK, &latency))

	h, err := tracker.Status("http://a:1")
	require.NoError(t, err)
	require.Equal(t, domain.HealthStatusOK, h.Status)
	require.NotNil(t, h.Latency)
	require.Equal(t, latency, *h.Latency)
	require.NotNil(t, h.LastChecked)
	require.NotNil(t, h.LastSuccessful)
	successful := *h.LastSuccessful

	require.NoError(t, tracker.Update("http://a:1", domain.HealthStatusUnreachable, nil))

	h, err = tracker.Status("http://a:1")
	require.NoError(t, err)
	require.Equal(t, domain.HealthStatusUnreachable, h.Status)
	require.Nil(t, h.Latency)
	require.NotNil(t, h.LastSuccessful)
	require.Equal(t, successful, *h.LastSuccessful)
}

func TestTracker_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u := fmt.Sprintf("http://host:%d", i%5+1)
			tracker.Track(u)
			_ = tracker.Update(u, domain.HealthStatusOK, nil)
			_, _ = tracker.Status(u)
			_ = tracker.List()
		}(i)
	}
	wg.Wait()

	require.Len(t, tracker.List(), 5)
}
