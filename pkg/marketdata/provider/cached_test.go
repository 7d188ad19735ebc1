package provider

import (
	"context"
	"fmt"
	"net"

	"github.com/redis/go-redis/v9"
)

// replyHook answers every command itself, so the client never dials.
type replyHook struct {
	value string
	err   error
}

func (h replyHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, fmt.Errorf("unexpected dial to %s", addr)
	}
}

func (h replyHook) ProcessHook(_ redis.ProcessHook) redis.ProcessHook {
	return func(_ context.Context, cmd redis.Cmder) error {
		if h.err != nil {
			cmd.SetErr(h.err)

			return h.err
		}

		if get, ok := cmd.(*redis.StringCmd); ok {
			get.SetVal(h.value)
		}

		return nil
	}
}

func (h replyHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func newHookedRedis(hook replyHook) *redis.Client {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379", Protocol: 2})
	rdb.AddHook(hook)

	return rdb
}

func (suite *ProviderTestSuite) TestRedisCacheGet() {
	tests := []struct {
		name      string
		hook      replyHook
		wantValue []byte
		wantOK    bool
		wantErr   bool
	}{
		{name: "hit", hook: replyHook{value: "cached"}, wantValue: []byte("cached"), wantOK: true},
		{name: "miss", hook: replyHook{err: redis.Nil}},
		{name: "miss wrapped by a hook", hook: replyHook{err: fmt.Errorf("traced get: %w", redis.Nil)}},
		{name: "failure", hook: replyHook{err: fmt.Errorf("connection reset")}, wantErr: true},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			rdb := newHookedRedis(tc.hook)
			defer rdb.Close()

			value, ok, err := NewRedisCache(rdb).Get(context.Background(), "series:SPY")
			if tc.wantErr {
				suite.Error(err)

				return
			}

			suite.NoError(err)
			suite.Equal(tc.wantOK, ok)
			suite.Equal(tc.wantValue, value)
		})
	}
}
