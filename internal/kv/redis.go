package kv

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gomodule/redigo/redis"
)

const defaultNamespace = "lune:"

// Redis stores keys in a Redis database under a namespace prefix.
type Redis struct {
	Pool      *redis.Pool
	Namespace string
}

// NewRedis returns a pooled Redis medium. Connections are dialed lazily.
func NewRedis(addr string, database int, namespace string) *Redis {
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &Redis{
		Namespace: namespace,
		Pool: &redis.Pool{
			MaxIdle:     4,
			IdleTimeout: 4 * time.Minute,
			DialContext: func(ctx context.Context) (redis.Conn, error) {
				return redis.DialContext(ctx, "tcp", addr, redis.DialDatabase(database))
			},
		},
	}
}

func (r *Redis) key(k string) string { return r.Namespace + k }

func (r *Redis) do(ctx context.Context, cmd string, args ...any) (any, error) {
	conn, err := r.Pool.GetContext(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return redis.DoContext(conn, ctx, cmd, args...)
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := redis.String(r.do(ctx, "GET", r.key(key)))
	if errors.Is(err, redis.ErrNil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	_, err := r.do(ctx, "SET", r.key(key), value)
	return err
}

func (r *Redis) MultiRemove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	args := redis.Args{}
	for _, k := range keys {
		args = args.Add(r.key(k))
	}
	_, err := r.do(ctx, "DEL", args...)
	return err
}

func (r *Redis) Keys(ctx context.Context) ([]string, error) {
	raw, err := redis.Strings(r.do(ctx, "KEYS", r.Namespace+"*"))
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		keys = append(keys, strings.TrimPrefix(k, r.Namespace))
	}
	return keys, nil
}

func (r *Redis) Close() error {
	return r.Pool.Close()
}
