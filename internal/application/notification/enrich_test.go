package notification

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-notification-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowDirectory answers every lookup after a delay and records the peak
// number of lookups in flight.
type slowDirectory struct {
	delay    time.Duration
	fail     string
	inFlight atomic.Int32
	peak     atomic.Int32

	mu    sync.Mutex
	calls map[string]int
}

func (d *slowDirectory) Lookup(ctx context.Context, userID string) (*domain.Identity, error) {
	n := d.inFlight.Add(1)
	defer d.inFlight.Add(-1)
	for {
		p := d.peak.Load()
		if n <= p || d.peak.CompareAndSwap(p, n) {
			break
		}
	}
	d.mu.Lock()
	if d.calls == nil {
		d.calls = map[string]int{}
	}
	d.calls[userID]++
	d.mu.Unlock()

	select {
	case <-time.After(d.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if userID == d.fail {
		return nil, errors.New("user service unavailable")
	}
	return &domain.Identity{ID: userID}, nil
}

func TestResolve_BoundedAndOrdered(t *testing.T) {
	dir := &slowDirectory{delay: 20 * time.Millisecond}
	e := &enricher{lookup: dir, limit: 3}
	ids := []string{"u1", "u2", "u3", "u4", "u5", "u6", "u7", "u2"}

	got, err := e.resolve(context.Background(), ids)

	require.NoError(t, err)
	require.Len(t, got, len(ids))
	for i, uid := range ids {
		assert.Equal(t, uid, got[i].ID)
	}
	assert.LessOrEqual(t, dir.peak.Load(), int32(3))
	assert.Equal(t, 1, dir.calls["u2"])
}

func TestResolve_FirstFailureWins(t *testing.T) {
	dir := &slowDirectory{delay: time.Millisecond, fail: "u2"}
	e := &enricher{lookup: dir, limit: 2}

	got, err := e.resolve(context.Background(), []string{"u1", "u2", "u3"})

	assert.Nil(t, got)
	var le *domain.LookupError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "u2", le.UserID)
	assert.True(t, errors.Is(err, domain.ErrUpstream))
}

func TestResolve_PerCallTimeout(t *testing.T) {
	dir := &slowDirectory{delay: time.Second}
	e := &enricher{lookup: dir, limit: 1, timeout: 10 * time.Millisecond}

	_, err := e.resolve(context.Background(), []string{"u1"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.True(t, errors.Is(err, domain.ErrUpstream))
}

func TestResolve_Empty(t *testing.T) {
	e := &enricher{lookup: &slowDirectory{}, limit: 1}
	got, err := e.resolve(context.Background(), nil)
	assert.NoError(t, err)
	assert.Empty(t, got)
}
