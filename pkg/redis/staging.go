package redis

import (
	"context"
	"errors"
	"time"

	"shopify_bridge/internal/model"

	rd "github.com/redis/go-redis/v9"
)

// Store 基于 Redis 的暂存层：结账时写入草稿，webhook 对账后覆盖为结果。
// key 不存在是正常结果（过期/未知 session），不作为错误上抛。
type Store struct {
	rdb *rd.Client
	ttl time.Duration
}

// NewStore 构造暂存层。ttl 为信封存活时间（与 checkout session 同寿命）。
func NewStore(rdb *rd.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// GetStaged 读取 session 的暂存信封。found=false 表示无暂存。
func (s *Store) GetStaged(ctx context.Context, sessionID string) (model.StagedValue, bool, error) {
	raw, err := s.rdb.Get(ctx, StagingKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return model.StagedValue{}, false, nil
		}
		return model.StagedValue{}, false, err
	}
	v, err := model.DecodeStagedValue(raw)
	if err != nil {
		return model.StagedValue{}, false, err
	}
	return v, true, nil
}

// PutDraft 暂存草稿信封并刷新 TTL。
func (s *Store) PutDraft(ctx context.Context, sessionID string, draft model.OrderDraft) error {
	return s.put(ctx, sessionID, model.NewStagedDraft(draft))
}

// PutResult 用结果信封覆盖草稿（终态）。
func (s *Store) PutResult(ctx context.Context, sessionID string, result model.OrderRecord) error {
	return s.put(ctx, sessionID, model.NewStagedResult(result))
}

func (s *Store) put(ctx context.Context, sessionID string, v model.StagedValue) error {
	raw, err := v.Encode()
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, StagingKey(sessionID), raw, s.ttl).Err()
}
