package valkey

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/valkey-io/valkey-go"
)

// hitScript initialises, checks and increments a fixed window in one
// server-side step. KEYS[1] = key, ARGV[1] = limit, ARGV[2] = window in ms.
// Returns {admitted, count, remaining ms}.
var hitScript = valkey.NewLuaScript(`
local count = redis.call('GET', KEYS[1])
if not count then
  redis.call('SET', KEYS[1], 0, 'PX', ARGV[2])
  count = 0
else
  count = tonumber(count)
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
  ttl = tonumber(ARGV[2])
end
if count >= tonumber(ARGV[1]) then
  return {0, count, ttl}
end
count = redis.call('INCR', KEYS[1])
return {1, count, ttl}
`)

// CounterStore implements ports.CounterStore on Valkey, shared by all API replicas.
type CounterStore struct {
	client valkey.Client
}

// Hit runs the window script for key.
func (s *CounterStore) Hit(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, time.Duration, error) {
	vals, err := hitScript.Exec(ctx, s.client,
		[]string{key},
		[]string{strconv.FormatInt(limit, 10), strconv.FormatInt(window.Milliseconds(), 10)},
	).AsIntSlice()
	if err != nil {
		return false, 0, 0, fmt.Errorf("rate window script: %w", err)
	}
	if len(vals) != 3 {
		return false, 0, 0, fmt.Errorf("rate window script: unexpected reply length %d", len(vals))
	}
	return vals[0] == 1, vals[1], time.Duration(vals[2]) * time.Millisecond, nil
}
