package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ashwinyue/assessly/internal/model"
	"github.com/redis/go-redis/v9"
)

// RedisStore Redis 存储，过期由 key TTL 负责，每次写入刷新
type RedisStore struct {
	client *redis.Client
	prefix string
	opts   Options
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client, prefix string, opts Options) *RedisStore {
	if prefix == "" {
		prefix = "assessly"
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		opts:   opts.withDefaults(),
	}
}

func (r *RedisStore) stateKey(userID string) string {
	return r.prefix + ":state:" + userID
}

func (r *RedisStore) historyKey(userID string) string {
	return r.prefix + ":history:" + userID
}

// Load 读取状态
func (r *RedisStore) Load(ctx context.Context, userID string) (*model.ConversationState, error) {
	data, err := r.client.Get(ctx, r.stateKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	var st model.ConversationState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return &st, nil
}

// Save 保存状态
func (r *RedisStore) Save(ctx context.Context, state *model.ConversationState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := r.client.Set(ctx, r.stateKey(state.UserID), data, r.opts.IdleTimeout).Err(); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// Delete 删除状态
func (r *RedisStore) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, r.stateKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}

// Take 用 WATCH 做比较删除，key 在事务前被改动时返回 false
func (r *RedisStore) Take(ctx context.Context, userID string, step model.Step) (bool, error) {
	key := r.stateKey(userID)
	taken := false

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}

		var st model.ConversationState
		if err := json.Unmarshal(data, &st); err != nil {
			return err
		}
		if st.Step != step {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		if err != nil {
			return err
		}
		taken = true
		return nil
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to take state: %w", err)
	}
	return taken, nil
}

// AppendTurn 追加一轮对话
func (r *RedisStore) AppendTurn(ctx context.Context, userID string, turn model.Turn) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("failed to marshal turn: %w", err)
	}

	key := r.historyKey(userID)
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, int64(-r.opts.HistoryCap), -1)
	pipe.Expire(ctx, key, r.opts.IdleTimeout)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}
	return nil
}

// History 返回最近 n 轮对话
func (r *RedisStore) History(ctx context.Context, userID string, n int) ([]model.Turn, error) {
	if n <= 0 {
		return nil, nil
	}
	items, err := r.client.LRange(ctx, r.historyKey(userID), int64(-n), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	turns := make([]model.Turn, 0, len(items))
	for _, item := range items {
		var t model.Turn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			continue
		}
		turns = append(turns, t)
	}
	return turns, nil
}

// Reset 清空状态与历史
func (r *RedisStore) Reset(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, r.stateKey(userID), r.historyKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to reset session: %w", err)
	}
	return nil
}
