package cache

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/shared/id"
)

const (
	defaultKeyPrefix = "sandbox3p:bootstrap:"
	setAttempts      = 3
)

var ErrContended = errors.New("bootstrap cache entry kept disappearing")

// Redis is a Store shared between service replicas
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedis connects to the given Redis URL. Entries expire after ttl; zero
// keeps them until deleted.
func NewRedis(ctx context.Context, addr string, ttl time.Duration) (*Redis, error) {
	opts, err := parseRedisURL(addr)
	if err != nil {
		return nil, err
	}
	c := redis.NewUniversalClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Redis{client: c, prefix: defaultKeyPrefix, ttl: ttl}, nil
}

// parseRedisURL parses addr into UniversalOptions supporting single, cluster,
// and sentinel Redis deployments. If no scheme is present, addr is treated as
// a plain host:port string.
func parseRedisURL(addr string) (*redis.UniversalOptions, error) {
	if !strings.Contains(addr, "://") {
		return &redis.UniversalOptions{Addrs: []string{addr}}, nil
	}

	u, err := url.Parse(addr)
	if err != nil {
		return nil, err
	}

	opts := &redis.UniversalOptions{}
	if u.User != nil {
		opts.Username = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			opts.Password = pw
		}
	}
	opts.Addrs = strings.Split(u.Host, ",")

	q := u.Query()
	switch u.Scheme {
	case "redis", "rediss":
		db := strings.TrimPrefix(u.Path, "/")
		if db == "" {
			db = q.Get("db")
		}
		if db != "" {
			n, err := strconv.Atoi(db)
			if err != nil {
				return nil, fmt.Errorf("redis: invalid db: %v", err)
			}
			opts.DB = n
		}
		if u.Scheme == "rediss" {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
	case "redis-sentinel", "rediss-sentinel":
		opts.MasterName = strings.TrimPrefix(u.Path, "/")
		if db := q.Get("db"); db != "" {
			n, err := strconv.Atoi(db)
			if err != nil {
				return nil, fmt.Errorf("redis: invalid db: %v", err)
			}
			opts.DB = n
		}
		opts.SentinelUsername = q.Get("sentinel_username")
		opts.SentinelPassword = q.Get("sentinel_password")
		if u.Scheme == "rediss-sentinel" {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
	default:
		return nil, fmt.Errorf("redis: invalid URL scheme: %s", u.Scheme)
	}

	return opts, nil
}

func (r *Redis) key(wid id.WindowID) string {
	return r.prefix + string(wid)
}

func (r *Redis) Get(ctx context.Context, wid id.WindowID) (string, bool, error) {
	v, err := r.client.Get(ctx, r.key(wid)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *Redis) SetIfAbsent(ctx context.Context, wid id.WindowID, url string) (string, error) {
	key := r.key(wid)
	for i := 0; i < setAttempts; i++ {
		set, err := r.client.SetNX(ctx, key, url, r.ttl).Result()
		if err != nil {
			return "", err
		}
		if set {
			return url, nil
		}
		existing, err := r.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			// Expired between SETNX and GET.
			continue
		}
		if err != nil {
			return "", err
		}
		return existing, nil
	}
	return "", ErrContended
}

func (r *Redis) Delete(ctx context.Context, wid id.WindowID) error {
	return r.client.Del(ctx, r.key(wid)).Err()
}

// Close releases the client connection pool
func (r *Redis) Close() error {
	return r.client.Close()
}
