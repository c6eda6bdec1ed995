package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-notification-api/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var errNotConnected = errors.New("identity client not connected")

// RedisClient pushes request envelopes onto a shared queue and waits on a
// reply list private to each call.
type RedisClient struct {
	opts    *redis.Options
	queue   string
	timeout time.Duration

	mu  sync.RWMutex
	rdb *redis.Client
}

func NewRedisClient(addr, password, queue string, timeout time.Duration) *RedisClient {
	return &RedisClient{
		opts: &redis.Options{
			Addr:         addr,
			Password:     password,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		queue:   queue,
		timeout: timeout,
	}
}

func (c *RedisClient) Connect(ctx context.Context) error {
	rdb := redis.NewClient(c.opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return fmt.Errorf("failed to connect to Redis: %w: %w", domain.ErrUpstream, err)
	}
	c.mu.Lock()
	c.rdb = rdb
	c.mu.Unlock()
	return nil
}

func (c *RedisClient) Ping(ctx context.Context) error {
	c.mu.RLock()
	rdb := c.rdb
	c.mu.RUnlock()
	if rdb == nil {
		return errNotConnected
	}
	return rdb.Ping(ctx).Err()
}

func (c *RedisClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rdb == nil {
		return nil
	}
	err := c.rdb.Close()
	c.rdb = nil
	return err
}

func (c *RedisClient) Lookup(ctx context.Context, userID string) (*domain.Identity, error) {
	c.mu.RLock()
	rdb := c.rdb
	c.mu.RUnlock()
	if rdb == nil {
		return nil, errNotConnected
	}

	id := uuid.NewString()
	replyTo := c.queue + ":reply:" + id
	payload, err := encodeRequest(id, replyTo, userID)
	if err != nil {
		return nil, err
	}
	defer rdb.Del(context.WithoutCancel(ctx), replyTo)

	if err := rdb.LPush(ctx, c.queue, payload).Err(); err != nil {
		return nil, fmt.Errorf("publish lookup: %w", err)
	}
	res, err := rdb.BRPop(ctx, c.wait(ctx), replyTo).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("lookup %s: %w", userID, context.DeadlineExceeded)
	}
	if err != nil {
		return nil, fmt.Errorf("await lookup reply: %w", err)
	}
	// BRPOP returns [key, value].
	return decodeReply(id, []byte(res[1]))
}

// wait bounds BRPOP by the context deadline when there is one.
func (c *RedisClient) wait(ctx context.Context) time.Duration {
	d := c.timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < d || d <= 0 {
			d = left
		}
	}
	if d < time.Second {
		// BRPOP timeouts have one-second resolution; zero would block forever.
		d = time.Second
	}
	return d
}
