package checkin

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultDebounceWindow is how long a repeated read of the same code at one
// station is ignored.
const DefaultDebounceWindow = 5 * time.Second

// Debouncer drops rapid repeat reads of the same token. Only accepted reads
// restart the window.
type Debouncer interface {
	Allow(ctx context.Context, station, token string, now time.Time) (bool, error)
}

type lastScan struct {
	token string
	at    time.Time
}

// MemoryDebouncer keeps the last accepted scan per station in process memory.
type MemoryDebouncer struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]lastScan
}

func NewMemoryDebouncer(window time.Duration) *MemoryDebouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &MemoryDebouncer{
		window: window,
		last:   make(map[string]lastScan),
	}
}

func (d *MemoryDebouncer) Allow(_ context.Context, station, token string, now time.Time) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if l, ok := d.last[station]; ok && l.token == token && now.Sub(l.at) < d.window {
		return false, nil
	}
	d.last[station] = lastScan{token: token, at: now}
	return true, nil
}

// Cleanup forgets stations whose last scan is outside the window.
func (d *MemoryDebouncer) Cleanup(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for station, l := range d.last {
		if now.Sub(l.at) >= d.window {
			delete(d.last, station)
		}
	}
}

// RedisDebouncer shares the last accepted scan per station across processes.
type RedisDebouncer struct {
	client *redis.Client
	window time.Duration
	prefix string
}

func NewRedisDebouncer(client *redis.Client, window time.Duration) *RedisDebouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &RedisDebouncer{client: client, window: window, prefix: "frontdesk:scan:"}
}

// Allow stores "<unix nanos>:<token>" with a TTL of one window.
func (d *RedisDebouncer) Allow(ctx context.Context, station, token string, now time.Time) (bool, error) {
	key := d.prefix + station

	val, err := d.client.Get(ctx, key).Result()
	if err != nil && err != redis.Nil {
		return false, fmt.Errorf("get last scan: %w", err)
	}
	if err == nil {
		if at, last, ok := parseLastScan(val); ok && last == token && now.Sub(at) < d.window {
			return false, nil
		}
	}

	entry := strconv.FormatInt(now.UnixNano(), 10) + ":" + token
	if err := d.client.Set(ctx, key, entry, d.window).Err(); err != nil {
		return false, fmt.Errorf("set last scan: %w", err)
	}
	return true, nil
}

func parseLastScan(val string) (time.Time, string, bool) {
	nanos, token, ok := strings.Cut(val, ":")
	if !ok {
		return time.Time{}, "", false
	}
	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return time.Time{}, "", false
	}
	return time.Unix(0, n), token, true
}
