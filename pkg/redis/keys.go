package redis

import "fmt"

// StagingKey 按 checkout session id 暂存订单草稿/结果信封。
func StagingKey(sessionID string) string {
	return fmt.Sprintf("bridge:staging:%s", sessionID)
}

// ReconcileLeaseKey 标记某 session 正在被一次对账占用（咨询锁）。
func ReconcileLeaseKey(sessionID string) string {
	return fmt.Sprintf("bridge:reconcile:lease:%s", sessionID)
}
