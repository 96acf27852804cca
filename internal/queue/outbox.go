package queue

import (
	"context"
	"strconv"

	"shopify_bridge/internal/model"

	rd "github.com/redis/go-redis/v9"
)

// OutboxWriter 把订单创建事件原子写入 Redis Stream，
// 由 Relay 异步转发 Kafka。提交路径上只付一次本地 XADD 的代价。
type OutboxWriter struct {
	rdb    *rd.Client
	stream string
}

// NewOutboxWriter 构造 outbox 写入端。
func NewOutboxWriter(rdb *rd.Client, stream string) *OutboxWriter {
	return &OutboxWriter{rdb: rdb, stream: stream}
}

// PublishOrderCreated 入流一条订单创建事件。
func (w *OutboxWriter) PublishOrderCreated(ctx context.Context, sessionID string, rec model.OrderRecord) error {
	return w.rdb.XAdd(ctx, &rd.XAddArgs{
		Stream: w.stream,
		Values: map[string]any{
			"session_id":       sessionID,
			"order_id":         strconv.FormatInt(rec.ID, 10),
			"order_name":       rec.Name,
			"total_price":      rec.TotalPrice,
			"financial_status": rec.FinancialStatus,
		},
	}).Err()
}
