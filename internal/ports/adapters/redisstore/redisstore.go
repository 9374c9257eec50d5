// Package redisstore implements the shared job queue on Redis. Jobs live in
// hashes keyed by ID; the queue is a sorted set scored by creation time, so
// claiming walks jobs oldest-first.
package redisstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/retakecut/retakecut/internal/ports"
	"github.com/retakecut/retakecut/internal/types"
)

var _ ports.JobStore = (*Store)(nil)

const (
	queueKey     = "retakecut:jobs:queued"
	jobKeyPrefix = "retakecut:job:"
)

// claimScript atomically picks the oldest queued job whose type the worker
// supports, marks it running, and removes it from the queue. Running as one
// Lua script guarantees no two workers ever claim the same job.
var claimScript = redis.NewScript(`
local ids = redis.call('ZRANGE', KEYS[1], 0, -1)
for _, id in ipairs(ids) do
	local key = ARGV[2] .. id
	local jtype = redis.call('HGET', key, 'type')
	if not jtype then
		redis.call('ZREM', KEYS[1], id)
	else
		local supported = false
		for i = 3, #ARGV do
			if ARGV[i] == jtype then
				supported = true
				break
			end
		end
		if supported then
			redis.call('HSET', key, 'status', 'running', 'updated_at', ARGV[1])
			redis.call('ZREM', KEYS[1], id)
			return redis.call('HGETALL', key)
		end
	end
end
return false
`)

type Store struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Enqueue registers a new job and makes it claimable.
func (s *Store) Enqueue(ctx context.Context, job *types.Job) error {
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.Status = types.JobQueued
	job.UpdatedAt = now

	key := jobKeyPrefix + job.ID
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"id":         job.ID,
		"type":       job.Type,
		"status":     string(job.Status),
		"input":      string(job.Input),
		"created_at": strconv.FormatInt(job.CreatedAt.UnixNano(), 10),
		"updated_at": strconv.FormatInt(job.UpdatedAt.UnixNano(), 10),
	})
	pipe.ZAdd(ctx, queueKey, redis.Z{Score: float64(job.CreatedAt.UnixNano()), Member: job.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("enqueue job %s: %w", job.ID, err)
	}
	return nil
}

// ClaimNext returns the oldest claimable job of a supported type, or nil when
// the queue holds none.
func (s *Store) ClaimNext(ctx context.Context, supportedTypes []string) (*types.Job, error) {
	args := make([]any, 0, len(supportedTypes)+2)
	args = append(args, strconv.FormatInt(time.Now().UTC().UnixNano(), 10), jobKeyPrefix)
	for _, t := range supportedTypes {
		args = append(args, t)
	}

	res, err := claimScript.Run(ctx, s.rdb, []string{queueKey}, args...).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("claim next job: %w", err)
	}

	flat, ok := res.([]any)
	if !ok || len(flat) == 0 {
		return nil, nil
	}
	fields := make(map[string]string, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		k, _ := flat[i].(string)
		v, _ := flat[i+1].(string)
		fields[k] = v
	}
	return jobFromFields(fields)
}

func (s *Store) Complete(ctx context.Context, jobID string, output []byte) error {
	key := jobKeyPrefix + jobID
	err := s.rdb.HSet(ctx, key, map[string]any{
		"status":     string(types.JobSucceeded),
		"output":     string(output),
		"updated_at": strconv.FormatInt(time.Now().UTC().UnixNano(), 10),
	}).Err()
	if err != nil {
		return fmt.Errorf("complete job %s: %w", jobID, err)
	}
	return nil
}

func (s *Store) Fail(ctx context.Context, jobID string, errMsg string) error {
	key := jobKeyPrefix + jobID
	err := s.rdb.HSet(ctx, key, map[string]any{
		"status":     string(types.JobFailed),
		"error":      errMsg,
		"updated_at": strconv.FormatInt(time.Now().UTC().UnixNano(), 10),
	}).Err()
	if err != nil {
		return fmt.Errorf("fail job %s: %w", jobID, err)
	}
	return nil
}

// Get reads a job hash without touching the queue.
func (s *Store) Get(ctx context.Context, jobID string) (*types.Job, error) {
	fields, err := s.rdb.HGetAll(ctx, jobKeyPrefix+jobID).Result()
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", jobID, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("job %s not found", jobID)
	}
	return jobFromFields(fields)
}

func jobFromFields(fields map[string]string) (*types.Job, error) {
	id := fields["id"]
	if id == "" {
		return nil, fmt.Errorf("job hash missing id field")
	}
	job := &types.Job{
		ID:     id,
		Type:   fields["type"],
		Status: types.JobStatus(fields["status"]),
		Input:  []byte(fields["input"]),
		Output: []byte(fields["output"]),
		Error:  fields["error"],
	}
	if v := fields["created_at"]; v != "" {
		ns, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("job %s: bad created_at %q", id, v)
		}
		job.CreatedAt = time.Unix(0, ns).UTC()
	}
	if v := fields["updated_at"]; v != "" {
		ns, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("job %s: bad updated_at %q", id, v)
		}
		job.UpdatedAt = time.Unix(0, ns).UTC()
	}
	return job, nil
}
