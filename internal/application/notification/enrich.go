package notification

import (
	"context"
	"errors"
	"time"

	"github.com/go-notification-api/internal/domain"
	"golang.org/x/sync/errgroup"
)

var errNoProfile = errors.New("identity service returned no profile")

// enricher resolves identities for a batch of user ids. Each distinct id is
// looked up once, lookups run concurrently up to limit, and the first
// failure cancels the rest.
type enricher struct {
	lookup  IdentityLookup
	limit   int
	timeout time.Duration
}

// resolve returns identities index-aligned with ids.
func (e *enricher) resolve(ctx context.Context, ids []string) ([]*domain.Identity, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	pos := make(map[string]int, len(ids))
	distinct := make([]string, 0, len(ids))
	for _, uid := range ids {
		if _, ok := pos[uid]; !ok {
			pos[uid] = len(distinct)
			distinct = append(distinct, uid)
		}
	}

	found := make([]*domain.Identity, len(distinct))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)
	for i, uid := range distinct {
		g.Go(func() error {
			ident, err := e.lookupOne(gctx, uid)
			if err != nil {
				return &domain.LookupError{UserID: uid, Err: err}
			}
			found[i] = ident
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*domain.Identity, len(ids))
	for i, uid := range ids {
		out[i] = found[pos[uid]]
	}
	return out, nil
}

func (e *enricher) lookupOne(ctx context.Context, userID string) (*domain.Identity, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	ident, err := e.lookup.Lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ident == nil {
		return nil, errNoProfile
	}
	return ident, nil
}
