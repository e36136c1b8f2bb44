package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"reviewdraw/internal/selection/models"
	"reviewdraw/pkg/domain"
	"reviewdraw/pkg/platform/sentinel"
)

const (
	redisRecordPrefix = "selection:record:"
	redisIndexKey     = "selection:records:by_created"

	defaultRedisRetries = 8
)

// createScript writes the record and its index entry in one step. The index is
// written first so a failing ZADD leaves no record behind.
var createScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return 0
end
redis.call("ZADD", KEYS[2], ARGV[2], ARGV[3])
redis.call("SET", KEYS[1], ARGV[1])
return 1
`)

// Redis stores each record as one JSON value and indexes ids by creation time.
// Update is optimistic: the record key is WATCHed and the write retried when
// another writer commits first, up to the configured retry budget.
type Redis struct {
	client  redis.UniversalClient
	retries int
}

var _ Store = (*Redis)(nil)

type RedisOption func(*Redis)

// WithUpdateRetries bounds the optimistic retries before ErrConflict is returned.
func WithUpdateRetries(n int) RedisOption {
	return func(s *Redis) {
		if n > 0 {
			s.retries = n
		}
	}
}

func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	s := &Redis{client: client, retries: defaultRedisRetries}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func redisKey(id domain.RecordID) string {
	return redisRecordPrefix + id.String()
}

func (s *Redis) Create(ctx context.Context, rec *models.Record) error {
	if err := checkCreate(rec); err != nil {
		return err
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	created, err := createScript.Run(ctx, s.client,
		[]string{redisKey(rec.ID), redisIndexKey},
		payload, rec.CreatedAt.UnixMilli(), rec.ID.String(),
	).Int()
	if err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if created == 0 {
		return fmt.Errorf("record %s: %w", rec.ID, sentinel.ErrAlreadyExists)
	}
	return nil
}

func (s *Redis) Get(ctx context.Context, id domain.RecordID) (*models.Record, error) {
	raw, err := s.client.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("record %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	return decodeRecord(raw)
}

func (s *Redis) Update(ctx context.Context, id domain.RecordID, mutate Mutator) (*models.Record, error) {
	key := redisKey(id)
	var updated *models.Record

	txf := func(rtx *redis.Tx) error {
		raw, err := rtx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("record %s: %w", id, sentinel.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("read record: %w", err)
		}
		current, err := decodeRecord(raw)
		if err != nil {
			return err
		}
		next, err := applyMutation(ctx, current, mutate)
		if err != nil {
			return err
		}
		payload, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
		_, err = rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		if err != nil {
			return err
		}
		updated = next
		return nil
	}

	for attempt := 0; attempt < s.retries; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("record %s after %d attempts: %w", id, s.retries, sentinel.ErrConflict)
}

func (s *Redis) List(ctx context.Context, filter models.Filter) ([]*models.Record, error) {
	maxScore, minScore := "+inf", "-inf"
	if !filter.Until.IsZero() {
		maxScore = "(" + strconv.FormatInt(filter.Until.UnixMilli(), 10)
	}
	if !filter.Since.IsZero() {
		minScore = strconv.FormatInt(filter.Since.UnixMilli(), 10)
	}
	// go-redis swaps Start and Stop itself for Rev with ByScore.
	ids, err := s.client.ZRangeArgs(ctx, redis.ZRangeArgs{
		Key:     redisIndexKey,
		Start:   minScore,
		Stop:    maxScore,
		ByScore: true,
		Rev:     true,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("scan record index: %w", err)
	}
	if len(ids) == 0 {
		return []*models.Record{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = redisRecordPrefix + id
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}

	out := make([]*models.Record, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		rec, err := decodeRecord([]byte(raw))
		if err != nil {
			return nil, err
		}
		if filter.Matches(rec) {
			out = append(out, rec)
		}
	}
	sortNewestFirst(out)
	return limit(out, filter.Limit), nil
}

func decodeRecord(raw []byte) (*models.Record, error) {
	var rec models.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if rec.Entries == nil {
		rec.Entries = []models.AllocationEntry{}
	}
	if rec.Log == nil {
		rec.Log = []models.AuditEntry{}
	}
	return &rec, nil
}
