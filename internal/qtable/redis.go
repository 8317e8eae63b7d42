package qtable

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/abhisek/adaptiq/internal/qlearn"
)

// tdScript performs the TD update atomically on the server.
//
// KEYS: row hash, next row hash, state index set.
// ARGV: action, reward, alpha, gamma, action count, state.
var tdScript = redis.NewScript(`
local old = tonumber(redis.call('HGET', KEYS[1], ARGV[1]) or '0')
local vals = redis.call('HVALS', KEYS[2])
local best = nil
for _, v in ipairs(vals) do
  local n = tonumber(v)
  if best == nil or n > best then best = n end
end
if best == nil then best = 0 end
if #vals < tonumber(ARGV[5]) and best < 0 then best = 0 end
local new = old + tonumber(ARGV[3]) * (tonumber(ARGV[2]) + tonumber(ARGV[4]) * best - old)
local s = string.format('%.17g', new)
redis.call('HSET', KEYS[1], ARGV[1], s)
redis.call('SADD', KEYS[3], ARGV[6])
return s
`)

// RedisOptions configures a Redis-backed table.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Redis stores one hash per state bucket (field = action, value = Q). The
// TD update runs as a Lua script so the read-modify-write is atomic across
// processes sharing the server.
type Redis struct {
	rdb    redis.UniversalClient
	prefix string
	owned  bool
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	r := NewRedisFromClient(rdb, opts.Prefix)
	r.owned = true
	return r, nil
}

// NewRedisFromClient wraps an existing client. Close leaves it open.
func NewRedisFromClient(rdb redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "adaptiq"
	}
	return &Redis{rdb: rdb, prefix: prefix}
}

// Keys share a hash tag so the script's keys land in one cluster slot.
func (r *Redis) rowKey(state int64) string {
	return fmt.Sprintf("{%s}:q:%d", r.prefix, state)
}

func (r *Redis) statesKey() string {
	return fmt.Sprintf("{%s}:q:states", r.prefix)
}

func (r *Redis) Get(ctx context.Context, state int64, action int) (float64, error) {
	s, err := r.rdb.HGet(ctx, r.rowKey(state), strconv.Itoa(action)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("hget: %w", err)
	}
	return strconv.ParseFloat(s, 64)
}

func (r *Redis) Update(ctx context.Context, u qlearn.TDUpdate) (float64, error) {
	keys := []string{r.rowKey(u.State), r.rowKey(u.Next), r.statesKey()}
	s, err := tdScript.Run(ctx, r.rdb, keys,
		u.Action,
		strconv.FormatFloat(u.Reward, 'g', -1, 64),
		strconv.FormatFloat(u.Alpha, 'g', -1, 64),
		strconv.FormatFloat(u.Gamma, 'g', -1, 64),
		u.Actions,
		u.State,
	).Text()
	if err != nil {
		return 0, fmt.Errorf("td script: %w", err)
	}
	return strconv.ParseFloat(s, 64)
}

func (r *Redis) Entries(ctx context.Context) ([]qlearn.Entry, error) {
	members, err := r.rdb.SMembers(ctx, r.statesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("smembers: %w", err)
	}
	var out []qlearn.Entry
	for _, m := range members {
		state, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("state %q: %w", m, err)
		}
		row, err := r.rdb.HGetAll(ctx, r.rowKey(state)).Result()
		if err != nil {
			return nil, fmt.Errorf("hgetall: %w", err)
		}
		for field, val := range row {
			action, err := strconv.Atoi(field)
			if err != nil {
				return nil, fmt.Errorf("action %q: %w", field, err)
			}
			v, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return nil, fmt.Errorf("value %q: %w", val, err)
			}
			out = append(out, qlearn.Entry{State: state, Action: action, Value: v})
		}
	}
	sortEntries(out)
	return out, nil
}

func (r *Redis) Load(ctx context.Context, entries []qlearn.Entry) error {
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, e := range entries {
			p.HSet(ctx, r.rowKey(e.State), strconv.Itoa(e.Action), strconv.FormatFloat(e.Value, 'g', -1, 64))
			p.SAdd(ctx, r.statesKey(), e.State)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("load entries: %w", err)
	}
	return nil
}

// Clear deletes every key owned by this table.
func (r *Redis) Clear(ctx context.Context) error {
	members, err := r.rdb.SMembers(ctx, r.statesKey()).Result()
	if err != nil {
		return fmt.Errorf("smembers: %w", err)
	}
	keys := []string{r.statesKey()}
	for _, m := range members {
		state, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		keys = append(keys, r.rowKey(state))
	}
	return r.rdb.Del(ctx, keys...).Err()
}

func (r *Redis) Close() error {
	if r.owned {
		return r.rdb.Close()
	}
	return nil
}
