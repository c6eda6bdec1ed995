package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-notification-api/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdentityServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /rpc/getUserById", func(w http.ResponseWriter, r *http.Request) {
		var req lookupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		switch req.UserID {
		case "u1":
			json.NewEncoder(w).Encode(domain.Identity{ID: "u1", Email: "u1@example.com", Username: "ivan"})
		case "broken":
			http.Error(w, "boom", http.StatusInternalServerError)
		case "slow":
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte("null"))
		default:
			http.NotFound(w, r)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPClient_Lookup(t *testing.T) {
	srv := newIdentityServer(t)
	c := NewHTTPClient(srv.URL+"/", time.Second)
	require.NoError(t, c.Connect(context.Background()))
	defer c.Close()

	ident, err := c.Lookup(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", ident.ID)
	assert.Equal(t, "ivan", ident.Username)
}

func TestHTTPClient_UnknownUser(t *testing.T) {
	c := NewHTTPClient(newIdentityServer(t).URL, time.Second)
	_, err := c.Lookup(context.Background(), "ghost")
	assert.True(t, errors.Is(err, errUnknownUser))
}

func TestHTTPClient_ServerError(t *testing.T) {
	c := NewHTTPClient(newIdentityServer(t).URL, time.Second)
	_, err := c.Lookup(context.Background(), "broken")
	assert.ErrorContains(t, err, "status 500")
}

func TestHTTPClient_HonoursContext(t *testing.T) {
	c := NewHTTPClient(newIdentityServer(t).URL, time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Lookup(ctx, "slow")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestHTTPClient_ConnectFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := NewHTTPClient(srv.URL, time.Second).Connect(context.Background())
	assert.True(t, errors.Is(err, domain.ErrUpstream))
}

func TestCodec_RoundTrip(t *testing.T) {
	raw, err := encodeRequest("c1", "auth:rpc:reply:c1", "u1")
	require.NoError(t, err)

	var env requestEnvelope
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, "getUserById", env.Pattern)
	assert.Equal(t, `{"userId":"u1"}`, env.Data)
	assert.Equal(t, "auth:rpc:reply:c1", env.ReplyTo)

	ident, err := decodeReply("c1", []byte(`{"id":"c1","response":{"id":"u1","email":"u1@example.com"},"err":null,"isDisposed":true}`))
	require.NoError(t, err)
	assert.Equal(t, "u1@example.com", ident.Email)
}

func TestCodec_ReplyErrors(t *testing.T) {
	_, err := decodeReply("c1", []byte(`{"id":"c2","response":null}`))
	assert.ErrorContains(t, err, "want \"c1\"")

	_, err = decodeReply("c1", []byte(`{"id":"c1","err":"user not found"}`))
	assert.ErrorContains(t, err, "user not found")

	_, err = decodeReply("c1", []byte(`not json`))
	assert.Error(t, err)
}

func TestRedisClient_LookupBeforeConnect(t *testing.T) {
	c := NewRedisClient("localhost:0", "", "auth:rpc", time.Second)
	_, err := c.Lookup(context.Background(), "u1")
	assert.ErrorIs(t, err, errNotConnected)
	assert.ErrorIs(t, c.Ping(context.Background()), errNotConnected)
	assert.NoError(t, c.Close())
}

func TestRedisClient_WaitUsesDeadline(t *testing.T) {
	c := NewRedisClient("", "", "q", 10*time.Second)
	assert.Equal(t, 10*time.Second, c.wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	assert.LessOrEqual(t, c.wait(ctx), 3*time.Second)

	short, cancel2 := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel2()
	assert.Equal(t, time.Second, c.wait(short))
}

// responder serves the request queue of mr like the identity service would.
// answer builds the raw reply for a request; nil means no reply is sent.
func responder(t *testing.T, mr *miniredis.Miniredis, queue string, answer func(requestEnvelope) []byte) <-chan requestEnvelope {
	t.Helper()
	seen := make(chan requestEnvelope, 1)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	go func() {
		res, err := rdb.BRPop(context.Background(), 5*time.Second, queue).Result()
		if err != nil {
			return
		}
		var env requestEnvelope
		if json.Unmarshal([]byte(res[1]), &env) != nil {
			return
		}
		if reply := answer(env); reply != nil {
			rdb.LPush(context.Background(), env.ReplyTo, reply)
		}
		seen <- env
	}()
	return seen
}

func connectedRedisClient(t *testing.T, mr *miniredis.Miniredis, timeout time.Duration) *RedisClient {
	t.Helper()
	c := NewRedisClient(mr.Addr(), "", "auth:rpc", timeout)
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { c.Close() })
	return c
}

func reply(t *testing.T, rep replyEnvelope) []byte {
	t.Helper()
	raw, err := json.Marshal(rep)
	require.NoError(t, err)
	return raw
}

func TestRedisClient_LookupRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	c := connectedRedisClient(t, mr, 5*time.Second)
	seen := responder(t, mr, "auth:rpc", func(env requestEnvelope) []byte {
		return reply(t, replyEnvelope{ID: env.ID, Response: &domain.Identity{ID: "u1", Username: "ivan"}, IsDisposed: true})
	})

	ident, err := c.Lookup(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", ident.ID)
	assert.Equal(t, "ivan", ident.Username)

	env := <-seen
	assert.Equal(t, lookupPattern, env.Pattern)
	assert.JSONEq(t, `{"userId":"u1"}`, env.Data)
	assert.Equal(t, "auth:rpc:reply:"+env.ID, env.ReplyTo)
	assert.False(t, mr.Exists(env.ReplyTo))
	assert.False(t, mr.Exists("auth:rpc"))
}

func TestRedisClient_LookupErrorReply(t *testing.T) {
	mr := miniredis.RunT(t)
	c := connectedRedisClient(t, mr, 5*time.Second)
	msg := "user not found"
	responder(t, mr, "auth:rpc", func(env requestEnvelope) []byte {
		return reply(t, replyEnvelope{ID: env.ID, Err: &msg, IsDisposed: true})
	})

	_, err := c.Lookup(context.Background(), "ghost")
	require.Error(t, err)
	assert.ErrorContains(t, err, "user not found")
}

func TestRedisClient_LookupMismatchedReply(t *testing.T) {
	mr := miniredis.RunT(t)
	c := connectedRedisClient(t, mr, 5*time.Second)
	responder(t, mr, "auth:rpc", func(env requestEnvelope) []byte {
		return reply(t, replyEnvelope{ID: "someone-else", Response: &domain.Identity{ID: "u2"}})
	})

	ident, err := c.Lookup(context.Background(), "u1")
	assert.Nil(t, ident)
	assert.ErrorContains(t, err, "someone-else")
}

func TestRedisClient_LookupTimesOut(t *testing.T) {
	mr := miniredis.RunT(t)
	c := connectedRedisClient(t, mr, 100*time.Millisecond)
	seen := responder(t, mr, "auth:rpc", func(requestEnvelope) []byte { return nil })

	start := time.Now()
	_, err := c.Lookup(context.Background(), "u1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 4*time.Second)
	env := <-seen
	assert.False(t, mr.Exists(env.ReplyTo))
}

func TestRedisClient_ConnectFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	c := NewRedisClient(addr, "", "auth:rpc", time.Second)
	err := c.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstream))
	assert.ErrorIs(t, c.Ping(context.Background()), errNotConnected)
}
