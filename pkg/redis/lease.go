package redis

import (
	"context"
	"time"

	rd "github.com/redis/go-redis/v9"
)

// luaAcquireLease 通过 SETNX 抢占会话租约，抢到才设置 TTL。
const luaAcquireLease = `
local leaseKey = KEYS[1]
local token = ARGV[1]
local ttlSec = tonumber(ARGV[2])

if redis.call('SETNX', leaseKey, token) == 1 then
  redis.call('EXPIRE', leaseKey, ttlSec)
  return 1
end
return 0
`

// luaReleaseLeaseIfMatch 仅当租约值匹配 token 时才删除，避免误删后来者的租约。
const luaReleaseLeaseIfMatch = `
local leaseKey = KEYS[1]
local token = ARGV[1]
if redis.call('GET', leaseKey) == token then
  return redis.call('DEL', leaseKey)
end
return 0
`

// AcquireReconcileLease 为一次对账抢占 session 级咨询锁：
// - 抢到返回 true，调用方可以继续读改写
// - 抢不到返回 false，说明另一次投递正在处理同一 session
func (s *Store) AcquireReconcileLease(ctx context.Context, sessionID, token string, ttl time.Duration) (bool, error) {
	ttlSec := int64(ttl / time.Second)
	if ttlSec <= 0 {
		ttlSec = 1
	}
	n, err := s.rdb.Eval(ctx, luaAcquireLease, []string{ReconcileLeaseKey(sessionID)}, token, ttlSec).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ReleaseReconcileLease 安全释放会话租约。
func (s *Store) ReleaseReconcileLease(ctx context.Context, sessionID, token string) error {
	_, err := s.rdb.Eval(ctx, luaReleaseLeaseIfMatch, []string{ReconcileLeaseKey(sessionID)}, token).Int()
	return err
}

// Client 暴露底层连接，供限流中间件等共用。
func (s *Store) Client() *rd.Client { return s.rdb }
